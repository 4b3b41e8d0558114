// gitchangelog - Synthesizes a version changelog from git tags and commit messages
package main

import (
	"os"

	"github.com/ariel-frischer/gitchangelog/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(cli.ExitCode(err))
	}
}
