// Where: internal/e2e/deploy.go
// What: Live deployment of a rendered template across regions.
// Why: The final proof of a template is CloudFormation accepting it;
// this is a thin create/wait/teardown boundary with no feedback into
// rendering.
package e2e

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"
)

// maxInlineTemplateBytes is CloudFormation's limit for template bodies
// passed inline; larger bodies must be staged in S3 first.
const maxInlineTemplateBytes = 51200

const defaultPollInterval = 5 * time.Second

// Deployer creates real stacks from rendered template bodies.
type Deployer struct {
	Out     io.Writer
	Clients ClientFactory

	// Bucket stages oversized template bodies. Deploys of large
	// templates fail without one.
	Bucket string

	PollInterval time.Duration
}

func NewDeployer(bucket string, out io.Writer) *Deployer {
	if out == nil {
		out = io.Discard
	}
	return &Deployer{
		Out:          out,
		Clients:      NewClientFactory(),
		Bucket:       bucket,
		PollInterval: defaultPollInterval,
	}
}

// Deployment is one created stack, with enough state to tear it down.
type Deployment struct {
	Name   string
	Region string
	ID     string

	stagedKey string
}

// Deploy creates a stack in one region and waits for it to settle.
func (d *Deployer) Deploy(ctx context.Context, region, name string, body []byte, params map[string]string) (*Deployment, error) {
	cfn, err := d.Clients.CloudFormation(ctx, region)
	if err != nil {
		return nil, err
	}

	input := StackInput{Name: name, Parameters: params}
	deployment := &Deployment{Name: name, Region: region}

	if len(body) > maxInlineTemplateBytes {
		if d.Bucket == "" {
			return nil, fmt.Errorf("template body is %d bytes, over the %d-byte inline limit, and no staging bucket is configured", len(body), maxInlineTemplateBytes)
		}
		key := fmt.Sprintf("raincheck/%s/%s.template", region, name)
		s3c, err := d.Clients.S3(ctx, region)
		if err != nil {
			return nil, err
		}
		if err := s3c.PutObject(ctx, d.Bucket, key, body); err != nil {
			return nil, fmt.Errorf("stage template in s3://%s/%s: %w", d.Bucket, key, err)
		}
		deployment.stagedKey = key
		input.TemplateURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", d.Bucket, region, key)
		fmt.Fprintf(d.Out, "staged oversized template at %s\n", input.TemplateURL)
	} else {
		input.Body = string(body)
	}

	id, err := cfn.CreateStack(ctx, input)
	if err != nil {
		d.cleanupStaging(ctx, region, deployment)
		return nil, fmt.Errorf("create stack %s in %s: %w", name, region, err)
	}
	deployment.ID = id
	fmt.Fprintf(d.Out, "created stack %s in %s\n", name, region)

	if err := d.waitForCreate(ctx, cfn, name); err != nil {
		return deployment, err
	}
	fmt.Fprintf(d.Out, "stack %s in %s is ready\n", name, region)
	return deployment, nil
}

// DeployAcross creates the same stack in every region. On the first
// failure everything already created is torn down.
func (d *Deployer) DeployAcross(ctx context.Context, regions []string, name string, body []byte, params map[string]string) ([]*Deployment, error) {
	if len(regions) == 0 {
		return nil, fmt.Errorf("no regions to deploy to")
	}

	deployments := make([]*Deployment, 0, len(regions))
	for _, region := range regions {
		deployment, err := d.Deploy(ctx, region, name, body, params)
		if deployment != nil {
			deployments = append(deployments, deployment)
		}
		if err != nil {
			for _, created := range deployments {
				if terr := d.Teardown(ctx, created); terr != nil {
					fmt.Fprintf(d.Out, "teardown of %s in %s failed: %v\n", created.Name, created.Region, terr)
				}
			}
			return nil, err
		}
	}
	return deployments, nil
}

// Teardown deletes a stack and any staged template object.
func (d *Deployer) Teardown(ctx context.Context, deployment *Deployment) error {
	cfn, err := d.Clients.CloudFormation(ctx, deployment.Region)
	if err != nil {
		return err
	}
	if err := cfn.DeleteStack(ctx, deployment.Name); err != nil {
		return fmt.Errorf("delete stack %s in %s: %w", deployment.Name, deployment.Region, err)
	}
	d.cleanupStaging(ctx, deployment.Region, deployment)
	fmt.Fprintf(d.Out, "deleted stack %s in %s\n", deployment.Name, deployment.Region)
	return nil
}

func (d *Deployer) cleanupStaging(ctx context.Context, region string, deployment *Deployment) {
	if deployment.stagedKey == "" {
		return
	}
	s3c, err := d.Clients.S3(ctx, region)
	if err != nil {
		return
	}
	if err := s3c.DeleteObject(ctx, d.Bucket, deployment.stagedKey); err != nil {
		fmt.Fprintf(d.Out, "cleanup of s3://%s/%s failed: %v\n", d.Bucket, deployment.stagedKey, err)
		return
	}
	deployment.stagedKey = ""
}

// waitForCreate polls the stack status until it settles.
func (d *Deployer) waitForCreate(ctx context.Context, cfn CloudFormationAPI, name string) error {
	interval := d.PollInterval
	if interval <= 0 {
		interval = defaultPollInterval
	}

	for {
		status, err := cfn.StackStatus(ctx, name)
		if err != nil {
			return err
		}
		switch {
		case status == "CREATE_COMPLETE":
			return nil
		case status == "CREATE_IN_PROGRESS":
		case strings.HasSuffix(status, "FAILED"),
			strings.HasPrefix(status, "ROLLBACK"),
			strings.HasPrefix(status, "DELETE"):
			return fmt.Errorf("stack %s settled in %s", name, status)
		default:
			return fmt.Errorf("stack %s in unexpected status %s", name, status)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
}

func sortedParameterKeys(params map[string]string) []string {
	keys := make([]string, 0, len(params))
	for key := range params {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
