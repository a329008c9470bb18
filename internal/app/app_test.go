package app

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cloudgauge/raincheck/internal/e2e"
)

const appFixture = `
Parameters:
  Env:
    Type: String
    Default: dev
Conditions:
  IsProd: !Equals [!Ref Env, prod]
Resources:
  Bucket:
    Type: AWS::S3::Bucket
    Properties:
      BucketName: !Sub logs-${Env}
  Alarm:
    Type: AWS::CloudWatch::Alarm
    Condition: IsProd
    Properties: {}
Outputs:
  BucketName:
    Value: !Ref Bucket
`

func writeFixture(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func run(t *testing.T, deps Dependencies, args ...string) (int, string) {
	t.Helper()
	out := &bytes.Buffer{}
	deps.Out = out
	code := Run(args, deps)
	return code, out.String()
}

func TestRenderCommand(t *testing.T) {
	path := writeFixture(t, "template.yaml", appFixture)

	code, out := run(t, Dependencies{}, "render", "-t", path)
	if code != 0 {
		t.Fatalf("render exited %d:\n%s", code, out)
	}
	if !strings.Contains(out, "BucketName: logs-dev") {
		t.Fatalf("rendered output missing substituted name:\n%s", out)
	}
	if strings.Contains(out, "Alarm") {
		t.Fatalf("pruned resource leaked into output:\n%s", out)
	}
}

func TestRenderCommandWithParamsAndOutputFile(t *testing.T) {
	path := writeFixture(t, "template.yaml", appFixture)
	params := writeFixture(t, "params.json", `{"Env": "prod"}`)
	target := filepath.Join(t.TempDir(), "rendered.yaml")

	code, out := run(t, Dependencies{}, "render", "-t", path, "-p", params, "-o", target)
	if code != 0 {
		t.Fatalf("render exited %d:\n%s", code, out)
	}

	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !strings.Contains(string(data), "BucketName: logs-prod") {
		t.Fatalf("output file missing prod name:\n%s", data)
	}
	if !strings.Contains(string(data), "Alarm") {
		t.Fatalf("prod render should keep the alarm:\n%s", data)
	}
}

func TestRenderCommandFailure(t *testing.T) {
	path := writeFixture(t, "template.yaml", appFixture)

	code, out := run(t, Dependencies{}, "render", "-t", path, "-p", writeFixture(t, "p.json", `{"Nope": "x"}`))
	if code != 1 {
		t.Fatalf("bad parameters exited %d:\n%s", code, out)
	}
	if !strings.Contains(out, "Error:") {
		t.Fatalf("failure not reported:\n%s", out)
	}
}

func TestCheckCommand(t *testing.T) {
	path := writeFixture(t, "template.yaml", appFixture)

	code, out := run(t, Dependencies{}, "check", "-t", path, "--regions", "us-east-1,eu-west-1")
	if code != 0 {
		t.Fatalf("check exited %d:\n%s", code, out)
	}
	if !strings.Contains(out, "us-east-1") || !strings.Contains(out, "eu-west-1") {
		t.Fatalf("regions not reported:\n%s", out)
	}
	if !strings.Contains(out, "all regions rendered") {
		t.Fatalf("success not reported:\n%s", out)
	}
}

func TestSummaryCommand(t *testing.T) {
	path := writeFixture(t, "template.yaml", appFixture)

	code, out := run(t, Dependencies{}, "summary", "-t", path)
	if code != 0 {
		t.Fatalf("summary exited %d:\n%s", code, out)
	}
	if !strings.Contains(out, "Resources: 1") {
		t.Fatalf("summary missing resource count:\n%s", out)
	}
	if !strings.Contains(out, "AWS::S3::Bucket") {
		t.Fatalf("summary missing type table:\n%s", out)
	}
}

type fakeDeployer struct {
	regions  []string
	body     []byte
	tornDown int
	fail     bool
}

func (f *fakeDeployer) DeployAcross(_ context.Context, regions []string, name string, body []byte, _ map[string]string) ([]*e2e.Deployment, error) {
	if f.fail {
		return nil, fmt.Errorf("AccessDenied")
	}
	f.regions = regions
	f.body = body
	out := make([]*e2e.Deployment, len(regions))
	for i, region := range regions {
		out[i] = &e2e.Deployment{Name: name, Region: region}
	}
	return out, nil
}

func (f *fakeDeployer) Teardown(context.Context, *e2e.Deployment) error {
	f.tornDown++
	return nil
}

func TestDeployCommand(t *testing.T) {
	path := writeFixture(t, "template.yaml", appFixture)
	fake := &fakeDeployer{}
	deps := Dependencies{
		NewDeployer: func(string, io.Writer) StackDeployer { return fake },
	}

	code, out := run(t, deps, "deploy", "-t", path, "--regions", "us-east-1,eu-west-1", "--stack-name", "orders")
	if code != 0 {
		t.Fatalf("deploy exited %d:\n%s", code, out)
	}
	if len(fake.regions) != 2 {
		t.Fatalf("deployer saw regions %v", fake.regions)
	}
	if !strings.Contains(string(fake.body), "logs-dev") {
		t.Fatalf("deployed body was not rendered:\n%s", fake.body)
	}
	if fake.tornDown != 2 {
		t.Fatalf("tore down %d stacks", fake.tornDown)
	}
}

func TestDeployCommandKeep(t *testing.T) {
	path := writeFixture(t, "template.yaml", appFixture)
	fake := &fakeDeployer{}
	deps := Dependencies{
		NewDeployer: func(string, io.Writer) StackDeployer { return fake },
	}

	code, out := run(t, deps, "deploy", "-t", path, "--keep")
	if code != 0 {
		t.Fatalf("deploy exited %d:\n%s", code, out)
	}
	if fake.tornDown != 0 {
		t.Fatalf("torn down despite --keep")
	}
	if !strings.Contains(out, "--keep") {
		t.Fatalf("keep not reported:\n%s", out)
	}
}

func TestDeployCommandFailure(t *testing.T) {
	path := writeFixture(t, "template.yaml", appFixture)
	fake := &fakeDeployer{fail: true}
	deps := Dependencies{
		NewDeployer: func(string, io.Writer) StackDeployer { return fake },
	}

	code, out := run(t, deps, "deploy", "-t", path)
	if code != 1 || !strings.Contains(out, "AccessDenied") {
		t.Fatalf("deploy failure not surfaced (%d):\n%s", code, out)
	}
}

func TestVersionCommand(t *testing.T) {
	code, out := run(t, Dependencies{}, "version")
	if code != 0 {
		t.Fatalf("version exited %d", code)
	}
	if strings.TrimSpace(out) == "" {
		t.Fatalf("version printed nothing")
	}
}

func TestUnknownCommand(t *testing.T) {
	code, _ := run(t, Dependencies{}, "frobnicate")
	if code != 1 {
		t.Fatalf("unknown command exited %d", code)
	}
}
