// msccat - command-line client for the MSCCATools job runner.
//
// Submits a clone and co-modification analysis of a GitHub repository and
// follows the job's log stream until it completes or fails.
package main

import (
	"os"

	"github.com/msccatools/msccat-client/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
