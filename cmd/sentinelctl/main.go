package main

import (
	"os"

	"github.com/Wikid82/sentinel/cmd/sentinelctl/internal/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
