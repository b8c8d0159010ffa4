package main

import (
	"os"

	"github.com/metapkgops/metapkg/metapkg/cli"
)

// Version is overridden at build time.
var Version = "dev"

func main() {
	root := cli.NewRootCmd()
	root.Version = Version
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
