package main

import (
	"os"

	"github.com/epubtools/opfcheck/cmd"
)

// version is overridden at build time with -ldflags.
var version = "0.1.0"

func main() {
	cmd.SetVersion(version)
	os.Exit(cmd.Execute())
}
