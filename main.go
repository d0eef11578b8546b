package main

import (
	"os"

	"github.com/MarshallNickolauson/mern-builder-script/internal/cli"
	"github.com/MarshallNickolauson/mern-builder-script/internal/runner"
)

// version, commit, and date are set via ldflags at build time.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	if err := cli.Execute(version, commit, date); err != nil {
		os.Exit(runner.ExitCode(err))
	}
}
