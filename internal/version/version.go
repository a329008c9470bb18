// Where: internal/version/version.go
// What: Version string for the version command.
// Why: Report the build's VCS revision without a linker-injected variable.
package version

import (
	"fmt"
	"runtime/debug"
)

// GetVersion derives a version string from the embedded build info:
// the short VCS revision, marked "(dirty)" when the tree had local
// changes. Builds without VCS stamping report "dev".
func GetVersion() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "dev"
	}

	revision := ""
	dirty := false
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			revision = setting.Value
			if len(revision) > 7 {
				revision = revision[:7]
			}
		case "vcs.modified":
			dirty = setting.Value == "true"
		}
	}

	if revision == "" {
		return "dev"
	}
	if dirty {
		return fmt.Sprintf("%s (dirty)", revision)
	}
	return revision
}
