// Where: internal/app/commands.go
// What: Implementations of the CLI commands.
package app

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/cloudgauge/raincheck/internal/report"
	"github.com/cloudgauge/raincheck/internal/template"
	"github.com/cloudgauge/raincheck/internal/ui"
)

// loadInputs reads the template and optional parameter file named by
// the global flags.
func loadInputs(cli CLI, deps Dependencies) (*template.Template, map[string]string, error) {
	doc, err := deps.LoadTemplate(cli.Template)
	if err != nil {
		return nil, nil, err
	}
	tpl, err := template.New(doc)
	if err != nil {
		return nil, nil, err
	}

	var params map[string]string
	if cli.Params != "" {
		params, err = deps.LoadParameters(cli.Params)
		if err != nil {
			return nil, nil, err
		}
	}
	return tpl, params, nil
}

func runRender(cli CLI, deps Dependencies, out io.Writer) int {
	console := ui.New(out)

	tpl, params, err := loadInputs(cli, deps)
	if err != nil {
		return exitWithError(out, err)
	}
	rendered, err := tpl.Render(params, cli.Region)
	if err != nil {
		return exitWithError(out, err)
	}
	data, err := report.MarshalYAML(rendered)
	if err != nil {
		return exitWithError(out, err)
	}

	if cli.Render.Output != "" {
		if err := os.WriteFile(cli.Render.Output, data, 0o644); err != nil {
			return exitWithError(out, err)
		}
		console.Success(fmt.Sprintf("rendered %s to %s", cli.Template, cli.Render.Output))
		return 0
	}
	fmt.Fprint(out, string(data))
	return 0
}

func runCheck(cli CLI, deps Dependencies, out io.Writer) int {
	console := ui.New(out)

	tpl, params, err := loadInputs(cli, deps)
	if err != nil {
		return exitWithError(out, err)
	}

	console.Header("🔎", fmt.Sprintf("Checking %s", cli.Template))
	for _, region := range cli.Check.Regions {
		rendered, err := tpl.Render(params, region)
		if err != nil {
			console.Error(fmt.Sprintf("%s: %v", region, err))
			return 1
		}
		resources, _ := rendered["Resources"].(map[string]any)
		console.ItemPlain(fmt.Sprintf("%-16s %d resources", region, len(resources)))
	}
	console.Success("all regions rendered")
	return 0
}

func runSummary(cli CLI, deps Dependencies, out io.Writer) int {
	tpl, params, err := loadInputs(cli, deps)
	if err != nil {
		return exitWithError(out, err)
	}
	s, err := tpl.CreateStack(params, cli.Region)
	if err != nil {
		return exitWithError(out, err)
	}
	text, err := report.Render(s)
	if err != nil {
		return exitWithError(out, err)
	}
	fmt.Fprint(out, text)
	return 0
}

func runDeploy(cli CLI, deps Dependencies, out io.Writer) int {
	console := ui.New(out)

	tpl, params, err := loadInputs(cli, deps)
	if err != nil {
		return exitWithError(out, err)
	}

	// Gate the deploy on a clean offline render of the first region.
	firstRegion := ""
	if len(cli.Deploy.Regions) > 0 {
		firstRegion = cli.Deploy.Regions[0]
	}
	rendered, err := tpl.Render(params, firstRegion)
	if err != nil {
		return exitWithError(out, err)
	}
	body, err := report.MarshalYAML(rendered)
	if err != nil {
		return exitWithError(out, err)
	}

	console.Header("🚀", fmt.Sprintf("Deploying %s as %s", cli.Template, cli.Deploy.StackName))
	deployer := deps.NewDeployer(cli.Deploy.Bucket, out)
	ctx := context.Background()

	deployments, err := deployer.DeployAcross(ctx, cli.Deploy.Regions, cli.Deploy.StackName, body, params)
	if err != nil {
		return exitWithError(out, err)
	}
	console.Success(fmt.Sprintf("created %d stacks", len(deployments)))

	if cli.Deploy.Keep {
		console.Info("stacks left in place (--keep)")
		return 0
	}
	for _, deployment := range deployments {
		if err := deployer.Teardown(ctx, deployment); err != nil {
			return exitWithError(out, err)
		}
	}
	console.Success("all stacks torn down")
	return 0
}
