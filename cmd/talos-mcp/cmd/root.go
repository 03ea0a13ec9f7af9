package cmd

import (
	"github.com/spf13/cobra"
)

// Version is overridden at build time:
// -ldflags "-X github.com/i2y/talos-mcp/cmd/talos-mcp/cmd.Version=v1.2.3"
var Version = "dev"

// ServerName is reported to clients in serverInfo.
const ServerName = "talos-mcp-server"

// RootCmd is the root Cobra command that gets called from the main func.
// Without a subcommand it serves on stdio.
func RootCmd() *cobra.Command {
	serve := serveCmd()
	cmd := &cobra.Command{
		Use:          "talos-mcp",
		Short:        "talos-mcp exposes talosctl operations as MCP tools over stdio.",
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE:         serve.RunE,
	}

	cmd.AddCommand(
		serve,
		toolsCmd(),
		versionCmd(),
		envCmd(),
	)

	return cmd
}
