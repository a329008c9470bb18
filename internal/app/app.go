// Where: internal/app/app.go
// What: CLI entrypoint logic.
// Why: Provide a testable command dispatcher.
package app

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kong"

	"github.com/cloudgauge/raincheck/internal/e2e"
	"github.com/cloudgauge/raincheck/internal/loader"
	"github.com/cloudgauge/raincheck/internal/version"
)

// StackDeployer is the deploy command's boundary to CloudFormation.
// *e2e.Deployer is the production implementation.
type StackDeployer interface {
	DeployAcross(ctx context.Context, regions []string, name string, body []byte, params map[string]string) ([]*e2e.Deployment, error)
	Teardown(ctx context.Context, deployment *e2e.Deployment) error
}

// Dependencies holds everything injected into command execution, so
// tests can swap file loading and deployment for fakes.
type Dependencies struct {
	Out            io.Writer
	LoadTemplate   func(path string) (map[string]any, error)
	LoadParameters func(path string) (map[string]string, error)
	NewDeployer    func(bucket string, out io.Writer) StackDeployer
}

// CLI defines the command-line interface structure parsed by Kong.
// It contains global flags and all subcommand definitions.
type CLI struct {
	Template string `short:"t" default:"template.yaml" help:"Path to the CloudFormation template"`
	Params   string `short:"p" help:"Path to a parameter file"`
	Region   string `short:"r" help:"Region to render for (default: the template's pseudo default)"`

	Render  RenderCmd  `cmd:"" help:"Render the template offline and print the result"`
	Check   CheckCmd   `cmd:"" help:"Render the template for every given region, failing on the first error"`
	Summary SummaryCmd `cmd:"" help:"Render the template and print a stack digest"`
	Deploy  DeployCmd  `cmd:"" help:"Create real stacks from the rendered template"`
	Version VersionCmd `cmd:"" help:"Show version information"`
}

type RenderCmd struct {
	Output string `short:"o" help:"Write rendered YAML to a file instead of stdout"`
}

type CheckCmd struct {
	Regions []string `default:"us-east-1" help:"Regions to render for"`
}

type SummaryCmd struct{}

type DeployCmd struct {
	Regions   []string `default:"us-east-1" help:"Regions to deploy to"`
	StackName string   `name:"stack-name" default:"raincheck-e2e" help:"Name for the created stacks"`
	Bucket    string   `help:"S3 bucket for staging oversized template bodies"`
	Keep      bool     `help:"Leave the created stacks in place instead of tearing them down"`
}

type VersionCmd struct{}

// Run parses the command line and dispatches to the requested command.
// Returns 0 on success, 1 on error.
func Run(args []string, deps Dependencies) int {
	out := deps.Out
	if out == nil {
		out = os.Stdout
	}
	if deps.LoadTemplate == nil {
		deps.LoadTemplate = loader.Template
	}
	if deps.LoadParameters == nil {
		deps.LoadParameters = loader.Parameters
	}
	if deps.NewDeployer == nil {
		deps.NewDeployer = func(bucket string, out io.Writer) StackDeployer {
			return e2e.NewDeployer(bucket, out)
		}
	}

	cli := CLI{}
	parser, err := kong.New(&cli, kong.Exit(func(int) {}))
	if err != nil {
		return exitWithError(out, err)
	}
	ctx, err := parser.Parse(args)
	if err != nil {
		return exitWithError(out, err)
	}

	switch ctx.Command() {
	case "render":
		return runRender(cli, deps, out)
	case "check":
		return runCheck(cli, deps, out)
	case "summary":
		return runSummary(cli, deps, out)
	case "deploy":
		return runDeploy(cli, deps, out)
	case "version":
		fmt.Fprintln(out, version.GetVersion())
		return 0
	}

	fmt.Fprintln(out, "unknown command")
	return 1
}

func exitWithError(out io.Writer, err error) int {
	fmt.Fprintf(out, "Error: %v\n", err)
	return 1
}
