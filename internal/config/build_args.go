package config

import "fmt"

// ModuleName is the name of the go module as defined in go.mod.
const ModuleName = "github/chapool/go-relay"

// The following vars are automatically injected via -ldflags.
var (
	Commit    = "unknown"
	BuildDate = "unknown"
)

// GetFormattedBuildArgs returns the build args as a single string:
// "<ModuleName> @ <Commit> (<BuildDate>)"
func GetFormattedBuildArgs() string {
	return fmt.Sprintf("%v @ %v (%v)", ModuleName, Commit, BuildDate)
}
