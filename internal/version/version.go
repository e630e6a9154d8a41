// Package version holds build metadata injected with -ldflags.
package version

var (
	AppVersion = "dev"
	BuildTime  = "unknown"
	GitCommit  = "none"
)
