// Command nwocg generates C code from block-diagram models.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/nwocg/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
