// Command shelf is the personal file organizer CLI.
package main

import (
	"os"

	"github.com/pkalnins/shelf/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
