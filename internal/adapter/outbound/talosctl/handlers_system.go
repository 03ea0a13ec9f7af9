package talosctl

import (
	"context"
	"strconv"

	"github.com/i2y/talos-mcp/internal/domain"
)

type containerParams struct {
	Node       string `param:"node"`
	Kubernetes bool   `param:"kubernetes"`
}

func (p containerParams) args(subcommand string) []string {
	args := withNode(p.Node, subcommand)
	if p.Kubernetes {
		args = append(args, "--kubernetes")
	}
	return args
}

func (t *Toolset) containers(ctx context.Context, params domain.ResolvedParams) (any, error) {
	var p containerParams
	if err := params.Bind(&p); err != nil {
		return nil, err
	}
	out, err := t.stdout(ctx, p.args("containers")...)
	if err != nil {
		return nil, err
	}
	return map[string]any{"containers": out, "namespace": containerdNamespace(p.Kubernetes)}, nil
}

func (t *Toolset) stats(ctx context.Context, params domain.ResolvedParams) (any, error) {
	var p containerParams
	if err := params.Bind(&p); err != nil {
		return nil, err
	}
	out, err := t.stdout(ctx, p.args("stats")...)
	if err != nil {
		return nil, err
	}
	return map[string]any{"stats": out, "namespace": containerdNamespace(p.Kubernetes)}, nil
}

func (t *Toolset) processes(ctx context.Context, params domain.ResolvedParams) (any, error) {
	var p struct {
		Node string `param:"node"`
		Sort string `param:"sort"`
	}
	if err := params.Bind(&p); err != nil {
		return nil, err
	}
	out, err := t.stdout(ctx, withNode(p.Node, "processes", "--sort", p.Sort)...)
	if err != nil {
		return nil, err
	}
	return map[string]any{"processes": out, "sort_by": p.Sort}, nil
}

// cpuMemoryUsage combines `memory` and the cpu cgroup preset. The first
// failure aborts the call.
func (t *Toolset) cpuMemoryUsage(ctx context.Context, params domain.ResolvedParams) (any, error) {
	var p nodeParams
	if err := params.Bind(&p); err != nil {
		return nil, err
	}
	memory, err := t.stdout(ctx, withNode(p.Node, "memory")...)
	if err != nil {
		return nil, err
	}
	cpu, err := t.stdout(ctx, withNode(p.Node, "cgroups", "--preset", "cpu")...)
	if err != nil {
		return nil, err
	}
	return map[string]any{"memory": memory, "cpu": cpu}, nil
}

type logsParams struct {
	Node       string `param:"node"`
	Service    string `param:"service"`
	Tail       *int64 `param:"tail"`
	Kubernetes bool   `param:"kubernetes"`
}

func (t *Toolset) logs(ctx context.Context, params domain.ResolvedParams) (any, error) {
	var p logsParams
	if err := params.Bind(&p); err != nil {
		return nil, err
	}
	args := withNode(p.Node, "logs", p.Service)
	if p.Tail != nil {
		args = append(args, "--tail", strconv.FormatInt(*p.Tail, 10))
	}
	if p.Kubernetes {
		args = append(args, "--kubernetes")
	}

	out, err := t.stdout(ctx, args...)
	if err != nil {
		return nil, err
	}

	var tail any
	if p.Tail != nil {
		tail = *p.Tail
	}
	return map[string]any{
		"logs":       out,
		"service":    p.Service,
		"tail_lines": tail,
		"namespace":  containerdNamespace(p.Kubernetes),
	}, nil
}

type serviceParams struct {
	Node    string `param:"node"`
	Service string `param:"service"`
	Action  string `param:"action"`
}

func (t *Toolset) service(ctx context.Context, params domain.ResolvedParams) (any, error) {
	var p serviceParams
	if err := params.Bind(&p); err != nil {
		return nil, err
	}
	out, err := t.stdout(ctx, withNode(p.Node, "service", p.Service, p.Action)...)
	if err != nil {
		return nil, err
	}
	return map[string]any{"service": p.Service, "action": p.Action, "output": out}, nil
}

func (t *Toolset) restart(ctx context.Context, params domain.ResolvedParams) (any, error) {
	var p serviceParams
	if err := params.Bind(&p); err != nil {
		return nil, err
	}
	out, err := t.stdout(ctx, withNode(p.Node, "service", p.Service, "restart")...)
	if err != nil {
		return nil, err
	}
	return map[string]any{"restart": out, "service": p.Service}, nil
}
