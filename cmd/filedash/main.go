// filedash - terminal client for the file dashboard.
//
// With no arguments on an interactive terminal the browser opens
// ('filedash browse'); otherwise the arguments are handled as CLI commands.
package main

import (
	"os"

	"golang.org/x/term"

	"github.com/filedash/filedash/internal/cli"
	"github.com/filedash/filedash/internal/version"
)

// Set by ldflags: -X main.Version=... -X main.BuildTime=...
var (
	Version   = ""
	BuildTime = ""
)

func main() {
	if Version != "" {
		version.Version = Version
	}
	if BuildTime != "" {
		version.BuildTime = BuildTime
	}

	if isBrowseMode(os.Args[1:]) {
		os.Args = append(os.Args, "browse")
	}

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}

// isBrowseMode reports whether a bare invocation should open the browser.
func isBrowseMode(args []string) bool {
	if len(args) != 0 {
		return false
	}
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}
