package talosctl

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hashicorp/go-multierror"

	"github.com/i2y/talos-mcp/internal/domain"
	"github.com/i2y/talos-mcp/internal/usecase"
)

// DefaultProgram is the talosctl binary looked up on PATH.
const DefaultProgram = "talosctl"

// Options configures how talosctl is invoked.
type Options struct {
	// Program is the talosctl executable. Empty means DefaultProgram.
	Program string

	// TalosConfig is passed as --talosconfig on every call and exported as
	// TALOSCONFIG to the child process.
	TalosConfig string

	// ExtraEnv is added to the child environment.
	ExtraEnv map[string]string

	// Disabled tools are neither advertised nor callable.
	Disabled []string
}

// CheckToolNames reports names that are not in the tool table.
func CheckToolNames(names []string) error {
	known := make(map[string]struct{})
	for _, s := range Catalog() {
		known[s.Name] = struct{}{}
	}

	var result *multierror.Error
	for _, name := range names {
		if _, ok := known[name]; !ok {
			result = multierror.Append(result, fmt.Errorf("unknown tool %q", name))
		}
	}
	if err := result.ErrorOrNil(); err != nil {
		return fmt.Errorf("%w: %w", usecase.ErrConfiguration, err)
	}
	return nil
}

// Toolset binds the tool table to talosctl invocations.
type Toolset struct {
	executor usecase.CommandExecutor
	program  string
	env      map[string]string
	prefix   []string
	disabled map[string]struct{}
	logger   *slog.Logger
}

// New creates a new Toolset.
func New(executor usecase.CommandExecutor, opts Options, logger *slog.Logger) *Toolset {
	program := opts.Program
	if program == "" {
		program = DefaultProgram
	}

	env := make(map[string]string, len(opts.ExtraEnv)+1)
	for k, v := range opts.ExtraEnv {
		env[k] = v
	}
	env["TALOSCONFIG"] = opts.TalosConfig

	disabled := make(map[string]struct{}, len(opts.Disabled))
	for _, name := range opts.Disabled {
		disabled[name] = struct{}{}
	}

	return &Toolset{
		executor: executor,
		program:  program,
		env:      env,
		prefix:   []string{"--talosconfig", opts.TalosConfig},
		disabled: disabled,
		logger:   logger.With("component", "talosctl_toolset"),
	}
}

// Schemas returns the enabled part of the tool table, in catalogue order.
func (t *Toolset) Schemas() []domain.ToolSchema {
	all := Catalog()
	schemas := make([]domain.ToolSchema, 0, len(all))
	for _, s := range all {
		if _, off := t.disabled[s.Name]; off {
			t.logger.Info("Tool disabled by configuration", slog.String("tool_name", s.Name))
			continue
		}
		schemas = append(schemas, s)
	}
	return schemas
}

// Handlers returns one handler per enabled tool, keyed by tool name.
func (t *Toolset) Handlers() map[string]usecase.ToolHandler {
	all := map[string]usecase.ToolHandler{
		// System inspection and monitoring
		"containers":           t.containers,
		"stats":                t.stats,
		"get_processes":        t.processes,
		"memory_verbose":       t.nodeQuery("memory_verbose", "memory", "--verbose"),
		"get_cpu_memory_usage": t.cpuMemoryUsage,

		// File system operations
		"list":       t.list,
		"read":       t.read,
		"copy":       t.copyFile,
		"get_usage":  t.usage,
		"get_mounts": t.nodeQuery("mounts", "mounts"),

		// Network operations
		"interfaces":              t.resource("interfaces", "addresses"),
		"routes":                  t.resource("routes", "routes"),
		"get_netstat":             t.nodeQuery("netstat", "netstat"),
		"capture_packets":         t.capturePackets,
		"get_network_io_cgroups":  t.nodeQuery("network_io", "cgroups", "--preset", "io"),
		"list_network_interfaces": t.nodeQuery("interfaces", "list", "/sys/class/net"),

		// Service and logging
		"dmesg":      t.nodeQuery("dmesg", "dmesg"),
		"service":    t.service,
		"restart":    t.restart,
		"get_logs":   t.logs,
		"get_events": t.nodeQuery("events", "events"),

		// Storage and hardware
		"disks":      t.resource("disks", "disks"),
		"list_disks": t.nodeQuery("disks", "list", "/sys/block"),

		// Core cluster management
		"get_health":  t.health,
		"get_version": t.version,
		"get_time":    t.time,

		// Node management
		"reboot_node":   t.nodeAction("reboot initiated", "reboot"),
		"shutdown_node": t.nodeAction("node shutdown initiated", "shutdown"),
		"reset_node":    t.nodeAction("node reset initiated", "reset"),
		"upgrade_node":  t.upgradeNode,
		"upgrade_k8s":   t.upgradeKubernetes,

		// Configuration management
		"apply_config":    t.applyConfig,
		"validate_config": t.validateConfig,

		// etcd management
		"get_etcd_status":  t.nodeQuery("etcd_status", "etcd", "status"),
		"get_etcd_members": t.nodeQuery("etcd_members", "etcd", "members"),
		"bootstrap_etcd":   t.nodeAction("etcd bootstrapped", "bootstrap"),
		"defrag_etcd":      t.nodeAction("etcd defragmented", "etcd", "defrag"),
	}

	for name := range t.disabled {
		delete(all, name)
	}
	return all
}

// run invokes talosctl with the --talosconfig prefix.
func (t *Toolset) run(ctx context.Context, args ...string) (usecase.ExecOutput, error) {
	full := make([]string, 0, len(t.prefix)+len(args))
	full = append(full, t.prefix...)
	full = append(full, args...)
	return t.executor.Execute(ctx, t.program, full, t.env)
}

// stdout runs talosctl and returns its standard output.
func (t *Toolset) stdout(ctx context.Context, args ...string) (string, error) {
	out, err := t.run(ctx, args...)
	if err != nil {
		return "", err
	}
	return out.Stdout, nil
}

type nodeParams struct {
	Node string `param:"node"`
}

// nodeQuery builds a handler for `--nodes N <subcommand...>` whose stdout is
// returned under key.
func (t *Toolset) nodeQuery(key string, subcommand ...string) usecase.ToolHandler {
	return func(ctx context.Context, params domain.ResolvedParams) (any, error) {
		var p nodeParams
		if err := params.Bind(&p); err != nil {
			return nil, err
		}
		out, err := t.stdout(ctx, withNode(p.Node, subcommand...)...)
		if err != nil {
			return nil, err
		}
		return map[string]any{key: out}, nil
	}
}

// nodeAction builds a handler for a state-changing command that reports a
// fixed status message.
func (t *Toolset) nodeAction(status string, subcommand ...string) usecase.ToolHandler {
	return func(ctx context.Context, params domain.ResolvedParams) (any, error) {
		var p nodeParams
		if err := params.Bind(&p); err != nil {
			return nil, err
		}
		out, err := t.stdout(ctx, withNode(p.Node, subcommand...)...)
		if err != nil {
			return nil, err
		}
		t.logger.Info("Node action completed", slog.String("node", p.Node), slog.String("status", status))
		return map[string]any{"status": status, "output": out}, nil
	}
}

type resourceParams struct {
	Node      string `param:"node"`
	Namespace string `param:"namespace"`
	Output    string `param:"output"`
}

// resource builds a handler for `--nodes N get <kind>` whose stdout is
// returned under key.
func (t *Toolset) resource(key, kind string) usecase.ToolHandler {
	return func(ctx context.Context, params domain.ResolvedParams) (any, error) {
		var p resourceParams
		if err := params.Bind(&p); err != nil {
			return nil, err
		}
		args := withNode(p.Node, "get", kind)
		if p.Namespace != "" {
			args = append(args, "--namespace", p.Namespace)
		}
		args = append(args, "--output", p.Output)

		out, err := t.stdout(ctx, args...)
		if err != nil {
			return nil, err
		}
		return map[string]any{
			key:             out,
			"namespace":     optional(p.Namespace),
			"output_format": p.Output,
		}, nil
	}
}

func withNode(node string, args ...string) []string {
	return append([]string{"--nodes", node}, args...)
}

// optional maps an unset string to JSON null.
func optional(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func containerdNamespace(kubernetes bool) string {
	if kubernetes {
		return "k8s.io"
	}
	return "system"
}
