package version

import "fmt"

// Version, Commit and BuildDate are set at build time, for example:
// go build -ldflags "-X github.com/kisanseva/pagetrans/internal/version.Version=0.3.0"
var (
	Version   = "0.1.0"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// Info returns a multi-line version string for CLI output.
func Info() string {
	return fmt.Sprintf("pagetrans %s\ncommit: %s\nbuild: %s", Version, Commit, BuildDate)
}
