package cmd

import (
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/i2y/talos-mcp/configs"
	"github.com/i2y/talos-mcp/internal/adapter/inbound/mcpstdio"
	"github.com/i2y/talos-mcp/internal/adapter/outbound/cliexec"
	"github.com/i2y/talos-mcp/internal/adapter/outbound/memrepo"
	"github.com/i2y/talos-mcp/internal/adapter/outbound/talosctl"
	"github.com/i2y/talos-mcp/internal/usecase"
)

const instructions = "Tools run talosctl against the cluster described by the server's TALOSCONFIG. " +
	"Tools annotated destructiveHint change node or cluster state."

// buildServer wires the registry, dispatcher and transport. Any mismatch
// between the tool table and the handlers is reported here, before serving.
func buildServer(cfg *configs.Config, logger *slog.Logger) (*mcpstdio.Server, error) {
	if err := talosctl.CheckToolNames(cfg.DisabledTools); err != nil {
		return nil, err
	}

	executor := cliexec.New(logger, cliexec.WithTimeout(cfg.ExecTimeout))
	toolset := talosctl.New(executor, talosctl.Options{
		Program:     cfg.TalosctlPath,
		TalosConfig: cfg.TalosConfig,
		ExtraEnv:    cfg.ExtraEnv,
		Disabled:    cfg.DisabledTools,
	}, logger)

	registry, err := memrepo.NewSchemaRegistry(toolset.Schemas(), logger)
	if err != nil {
		return nil, err
	}
	dispatcher, err := usecase.NewDispatcher(registry, toolset.Handlers(), logger)
	if err != nil {
		return nil, err
	}

	invokeUC := usecase.NewInvokeToolUseCase(registry, dispatcher, logger)
	serveUC := usecase.NewServeToolsUseCase(registry, logger)

	return mcpstdio.NewServer(
		invokeUC,
		serveUC,
		mcp.Implementation{Name: ServerName, Version: buildVersion()},
		logger,
		mcpstdio.WithInstructions(instructions),
	), nil
}
