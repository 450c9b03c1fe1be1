package main

import (
	"os"

	"github.com/jrsteele09/nebula-bridge/cmd/nebula/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
