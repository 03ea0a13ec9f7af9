package main

import (
	"os"

	"github.com/i2y/talos-mcp/cmd/talos-mcp/cmd"
)

func main() {
	if err := cmd.RootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
