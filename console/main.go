package main

import (
	"os"

	"github.com/luno/optconsole/console/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
