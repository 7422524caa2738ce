package main

import (
	"os"

	"github.com/rustyeddy/slipstream/cmd/slipstream/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
