package main

import (
	"os"

	"github.com/humaniza/clinic-ledger/internal/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
