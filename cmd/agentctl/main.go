package main

import (
	"os"

	"github.com/socialwatch/searchagent/cmd/agentctl/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
