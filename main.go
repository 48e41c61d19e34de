// main is the entrypoint for the teamscope CLI.
package main

import (
	"os"

	"github.com/courselab/teamscope/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
