package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/i2y/talos-mcp/internal/adapter/outbound/memrepo"
	"github.com/i2y/talos-mcp/internal/adapter/outbound/talosctl"
	"github.com/i2y/talos-mcp/internal/usecase"
)

func toolsCmd() *cobra.Command {
	var disabled []string
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "Print the tool definitions advertised to clients as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return printTools(cmd.OutOrStdout(), disabled)
		},
	}
	cmd.Flags().StringSliceVar(&disabled, "disable", nil, "Tool names to leave out")
	return cmd
}

// printTools needs no TALOSCONFIG: nothing is executed.
func printTools(out io.Writer, disabled []string) error {
	if err := talosctl.CheckToolNames(disabled); err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	toolset := talosctl.New(nil, talosctl.Options{Disabled: disabled}, logger)
	registry, err := memrepo.NewSchemaRegistry(toolset.Schemas(), logger)
	if err != nil {
		return err
	}

	tools, err := usecase.NewServeToolsUseCase(registry, logger).Execute(context.Background())
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(map[string]any{"tools": tools}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode tools: %w", err)
	}
	_, err = fmt.Fprintln(out, string(data))
	return err
}
