package main

import (
	"fmt"
	"os"

	"github.com/bv-juan-bedoya/search-agent-tool/internal/cli"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cli.SetVersionInfo(version, commit, date)
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, cli.Error("Error: "+err.Error()))
		os.Exit(1)
	}
}
