package main

import (
	"github.com/locallook/context-bridge/cmd"
)

// main is the entry point for the context-bridge service.
func main() {
	// Execute the root command defined in the cmd package.
	// This handles all command-line parsing, configuration, and execution.
	cmd.Execute()
}
