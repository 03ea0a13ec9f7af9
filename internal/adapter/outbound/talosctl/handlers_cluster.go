package talosctl

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/i2y/talos-mcp/internal/domain"
)

type healthParams struct {
	ControlPlanes []string `param:"control_planes"`
	WorkerNodes   []string `param:"worker_nodes"`
	InitNode      string   `param:"init_node"`
	Timeout       string   `param:"timeout"`
	RunE2E        bool     `param:"run_e2e"`
	K8sEndpoint   string   `param:"k8s_endpoint"`
	Server        bool     `param:"server"`
}

func (p healthParams) args() []string {
	args := withNode(p.ControlPlanes[0], "health", "--control-plane-nodes", strings.Join(p.ControlPlanes, ","))
	if p.WorkerNodes != nil {
		args = append(args, "--worker-nodes", strings.Join(p.WorkerNodes, ","))
	}
	if p.InitNode != "" {
		args = append(args, "--init-node", p.InitNode)
	}
	args = append(args, "--wait-timeout", p.Timeout)
	if p.RunE2E {
		args = append(args, "--run-e2e")
	}
	if p.K8sEndpoint != "" {
		args = append(args, "--k8s-endpoint", p.K8sEndpoint)
	}
	if !p.Server {
		args = append(args, "--server=false")
	}
	return args
}

// health reports the check progress, which talosctl writes to stderr.
func (t *Toolset) health(ctx context.Context, params domain.ResolvedParams) (any, error) {
	var p healthParams
	if err := params.Bind(&p); err != nil {
		return nil, err
	}
	if len(p.ControlPlanes) == 0 {
		return nil, errors.New("at least one control plane node must be specified")
	}

	out, err := t.run(ctx, p.args()...)
	if err != nil {
		return nil, err
	}

	var workers any
	if p.WorkerNodes != nil {
		workers = p.WorkerNodes
	}
	return map[string]any{
		"health": out.Stderr,
		"cluster_info": map[string]any{
			"control_planes": p.ControlPlanes,
			"worker_nodes":   workers,
			"init_node":      optional(p.InitNode),
			"timeout":        p.Timeout,
			"run_e2e":        p.RunE2E,
			"k8s_endpoint":   optional(p.K8sEndpoint),
			"server_side":    p.Server,
		},
	}, nil
}

func (t *Toolset) version(ctx context.Context, params domain.ResolvedParams) (any, error) {
	var p struct {
		Short bool `param:"short"`
	}
	if err := params.Bind(&p); err != nil {
		return nil, err
	}
	args := []string{"version", "--client"}
	if p.Short {
		args = append(args, "--short")
	}
	out, err := t.stdout(ctx, args...)
	if err != nil {
		return nil, err
	}
	return map[string]any{"version": out, "short_format": p.Short}, nil
}

func (t *Toolset) time(ctx context.Context, params domain.ResolvedParams) (any, error) {
	var p struct {
		Node  string `param:"node"`
		Check string `param:"check"`
	}
	if err := params.Bind(&p); err != nil {
		return nil, err
	}
	args := withNode(p.Node, "time")
	if p.Check != "" {
		args = append(args, "--check", p.Check)
	}
	out, err := t.stdout(ctx, args...)
	if err != nil {
		return nil, err
	}
	return map[string]any{"time": out, "node": p.Node, "ntp_check": optional(p.Check)}, nil
}

func (t *Toolset) upgradeNode(ctx context.Context, params domain.ResolvedParams) (any, error) {
	var p struct {
		Node  string `param:"node"`
		Image string `param:"image"`
	}
	if err := params.Bind(&p); err != nil {
		return nil, err
	}
	out, err := t.stdout(ctx, withNode(p.Node, "upgrade", "--image", p.Image)...)
	if err != nil {
		return nil, err
	}
	t.logger.Info("Node upgrade initiated", slog.String("node", p.Node), slog.String("image", p.Image))
	return map[string]any{"status": "upgrade initiated", "image": p.Image, "output": out}, nil
}

func (t *Toolset) upgradeKubernetes(ctx context.Context, params domain.ResolvedParams) (any, error) {
	var p struct {
		From string `param:"from"`
		To   string `param:"to"`
	}
	if err := params.Bind(&p); err != nil {
		return nil, err
	}
	out, err := t.stdout(ctx, "upgrade-k8s", "--from", p.From, "--to", p.To)
	if err != nil {
		return nil, err
	}
	t.logger.Info("Kubernetes upgrade initiated", slog.String("from", p.From), slog.String("to", p.To))
	return map[string]any{"status": "k8s upgrade initiated", "from": p.From, "to": p.To, "output": out}, nil
}

func (t *Toolset) applyConfig(ctx context.Context, params domain.ResolvedParams) (any, error) {
	var p struct {
		Node string `param:"node"`
		File string `param:"file"`
	}
	if err := params.Bind(&p); err != nil {
		return nil, err
	}
	out, err := t.stdout(ctx, withNode(p.Node, "apply-config", "--file", p.File)...)
	if err != nil {
		return nil, err
	}
	return map[string]any{"status": "config applied", "output": out}, nil
}

func (t *Toolset) validateConfig(ctx context.Context, params domain.ResolvedParams) (any, error) {
	var p struct {
		Config string `param:"config"`
		Mode   string `param:"mode"`
	}
	if err := params.Bind(&p); err != nil {
		return nil, err
	}
	out, err := t.stdout(ctx, "validate", "--config", p.Config, "--mode", p.Mode)
	if err != nil {
		return nil, err
	}
	return map[string]any{"validation": out, "mode": p.Mode}, nil
}
