// Where: cmd/raincheck/cli.go
// What: CLI dependency wiring helpers.
// Why: Centralize construction for testability.
package main

import (
	"io"
	"os"

	"github.com/cloudgauge/raincheck/internal/app"
	"github.com/cloudgauge/raincheck/internal/e2e"
)

// buildDependencies constructs the runtime dependencies for the CLI.
// Loaders and the deployer use their production implementations; tests
// of the app package inject fakes through the same struct.
func buildDependencies() app.Dependencies {
	return app.Dependencies{
		Out: os.Stdout,
		NewDeployer: func(bucket string, out io.Writer) app.StackDeployer {
			return e2e.NewDeployer(bucket, out)
		},
	}
}
