// Where: internal/meta/meta.go
// What: CLI-local metadata constants.
// Why: Keep the binary's identity in one place.
package meta

const (
	// Project Identity
	AppName   = "raincheck"
	EnvPrefix = "RAINCHECK"

	// Environment variables read by the deploy path.
	EnvAccessKey = EnvPrefix + "_ACCESS_KEY"
	EnvSecretKey = EnvPrefix + "_SECRET_KEY"
)
