package version

import (
	"fmt"
	"runtime/debug"
)

// Version contains the application version information.
// This should be set via build-time ldflags in production:
// go build -ldflags "-X git.home.luguber.info/inful/solveplot/internal/version.Version=v1.0.0".
var Version = "unknown"

// BuildInfo contains additional build metadata.
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// String renders version, commit and build time for --version. When no
// ldflags were given it falls back to the module version recorded by the Go
// toolchain.
func String() string {
	v := Version
	if v == "unknown" {
		if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
			v = info.Main.Version
		}
	}
	return fmt.Sprintf("solveplot %s (commit %s, built %s)", v, GitCommit, BuildTime)
}
