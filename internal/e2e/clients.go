// Where: internal/e2e/clients.go
// What: AWS client interfaces and SDK adapters for live deployments.
// Why: Keep the deployment flow testable against fakes while the real
// path goes through aws-sdk-go-v2.
package e2e

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	cfntypes "github.com/aws/aws-sdk-go-v2/service/cloudformation/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/cloudgauge/raincheck/internal/meta"
)

// StackInput carries everything needed to create one stack. Exactly one
// of Body and TemplateURL is set.
type StackInput struct {
	Name        string
	Body        string
	TemplateURL string
	Parameters  map[string]string
}

type CloudFormationAPI interface {
	CreateStack(ctx context.Context, input StackInput) (string, error)
	StackStatus(ctx context.Context, name string) (string, error)
	DeleteStack(ctx context.Context, name string) error
}

type S3API interface {
	PutObject(ctx context.Context, bucket, key string, body []byte) error
	DeleteObject(ctx context.Context, bucket, key string) error
}

type ClientFactory interface {
	CloudFormation(ctx context.Context, region string) (CloudFormationAPI, error)
	S3(ctx context.Context, region string) (S3API, error)
}

type awsClientFactory struct{}

// NewClientFactory returns the SDK-backed factory used outside tests.
func NewClientFactory() ClientFactory {
	return awsClientFactory{}
}

func (awsClientFactory) CloudFormation(ctx context.Context, region string) (CloudFormationAPI, error) {
	cfg, err := loadAWSConfig(ctx, region)
	if err != nil {
		return nil, err
	}
	return awsCloudFormationClient{client: cloudformation.NewFromConfig(cfg)}, nil
}

func (awsClientFactory) S3(ctx context.Context, region string) (S3API, error) {
	cfg, err := loadAWSConfig(ctx, region)
	if err != nil {
		return nil, err
	}
	return awsS3Client{client: s3.NewFromConfig(cfg)}, nil
}

// loadAWSConfig builds per-region SDK configuration. The default
// credential chain applies unless explicit keys are exported.
func loadAWSConfig(ctx context.Context, region string) (aws.Config, error) {
	if region == "" {
		return aws.Config{}, fmt.Errorf("region is required")
	}

	opts := []func(*config.LoadOptions) error{
		config.WithRegion(region),
	}
	accessKey := os.Getenv(meta.EnvAccessKey)
	secretKey := os.Getenv(meta.EnvSecretKey)
	if accessKey != "" && secretKey != "" {
		creds := credentials.NewStaticCredentialsProvider(accessKey, secretKey, "")
		opts = append(opts, config.WithCredentialsProvider(creds))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, err
	}
	return cfg, nil
}

type awsCloudFormationClient struct {
	client *cloudformation.Client
}

func (c awsCloudFormationClient) CreateStack(ctx context.Context, input StackInput) (string, error) {
	if c.client == nil {
		return "", fmt.Errorf("cloudformation client is nil")
	}

	awsInput := &cloudformation.CreateStackInput{
		StackName: aws.String(input.Name),
		Capabilities: []cfntypes.Capability{
			cfntypes.CapabilityCapabilityIam,
			cfntypes.CapabilityCapabilityNamedIam,
		},
	}
	if input.TemplateURL != "" {
		awsInput.TemplateURL = aws.String(input.TemplateURL)
	} else {
		awsInput.TemplateBody = aws.String(input.Body)
	}
	for _, key := range sortedParameterKeys(input.Parameters) {
		awsInput.Parameters = append(awsInput.Parameters, cfntypes.Parameter{
			ParameterKey:   aws.String(key),
			ParameterValue: aws.String(input.Parameters[key]),
		})
	}

	resp, err := c.client.CreateStack(ctx, awsInput)
	if err != nil {
		return "", err
	}
	if resp.StackId == nil {
		return "", fmt.Errorf("create stack %s returned no id", input.Name)
	}
	return *resp.StackId, nil
}

func (c awsCloudFormationClient) StackStatus(ctx context.Context, name string) (string, error) {
	if c.client == nil {
		return "", fmt.Errorf("cloudformation client is nil")
	}
	resp, err := c.client.DescribeStacks(ctx, &cloudformation.DescribeStacksInput{
		StackName: aws.String(name),
	})
	if err != nil {
		return "", err
	}
	if len(resp.Stacks) == 0 {
		return "", fmt.Errorf("stack %s not found", name)
	}
	return string(resp.Stacks[0].StackStatus), nil
}

func (c awsCloudFormationClient) DeleteStack(ctx context.Context, name string) error {
	if c.client == nil {
		return fmt.Errorf("cloudformation client is nil")
	}
	_, err := c.client.DeleteStack(ctx, &cloudformation.DeleteStackInput{
		StackName: aws.String(name),
	})
	return err
}

type awsS3Client struct {
	client *s3.Client
}

func (c awsS3Client) PutObject(ctx context.Context, bucket, key string, body []byte) error {
	if c.client == nil {
		return fmt.Errorf("s3 client is nil")
	}
	_, err := c.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(body),
	})
	return err
}

func (c awsS3Client) DeleteObject(ctx context.Context, bucket, key string) error {
	if c.client == nil {
		return fmt.Errorf("s3 client is nil")
	}
	_, err := c.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	return err
}
