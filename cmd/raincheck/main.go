// Where: cmd/raincheck/main.go
// What: CLI entrypoint.
// Why: Execute raincheck commands with configured dependencies.
package main

import (
	"os"

	"github.com/cloudgauge/raincheck/internal/app"
)

func main() {
	os.Exit(app.Run(os.Args[1:], buildDependencies()))
}
