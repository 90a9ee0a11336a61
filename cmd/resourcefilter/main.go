package main

import (
	"fmt"
	"os"

	"github.com/joshmeranda/resourcefilter/pkg/cmd"
)

func main() {
	app := cmd.NewResourceFilterApp()

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}
