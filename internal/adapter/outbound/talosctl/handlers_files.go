package talosctl

import (
	"context"
	"strconv"

	"github.com/i2y/talos-mcp/internal/domain"
)

type listParams struct {
	Node     string   `param:"node"`
	Path     string   `param:"path"`
	Long     bool     `param:"long"`
	Humanize bool     `param:"humanize"`
	Recurse  bool     `param:"recurse"`
	Depth    int64    `param:"depth"`
	Types    []string `param:"type"`
}

func (p listParams) args() []string {
	args := withNode(p.Node, "list", p.Path)
	if p.Long {
		args = append(args, "--long")
	}
	if p.Humanize {
		args = append(args, "--humanize")
	}
	// talosctl rejects --recurse together with --depth.
	if p.Recurse {
		args = append(args, "--recurse")
	} else if p.Depth != 1 {
		args = append(args, "--depth", strconv.FormatInt(p.Depth, 10))
	}
	for _, typ := range p.Types {
		args = append(args, "--type", typ)
	}
	return args
}

func (t *Toolset) list(ctx context.Context, params domain.ResolvedParams) (any, error) {
	var p listParams
	if err := params.Bind(&p); err != nil {
		return nil, err
	}
	out, err := t.stdout(ctx, p.args()...)
	if err != nil {
		return nil, err
	}

	var types any
	if p.Types != nil {
		types = p.Types
	}
	return map[string]any{
		"list":     out,
		"path":     p.Path,
		"long":     p.Long,
		"humanize": p.Humanize,
		"recurse":  p.Recurse,
		"depth":    p.Depth,
		"types":    types,
	}, nil
}

type pathParams struct {
	Node string `param:"node"`
	Path string `param:"path"`
}

func (t *Toolset) read(ctx context.Context, params domain.ResolvedParams) (any, error) {
	var p pathParams
	if err := params.Bind(&p); err != nil {
		return nil, err
	}
	out, err := t.stdout(ctx, withNode(p.Node, "read", p.Path)...)
	if err != nil {
		return nil, err
	}
	return map[string]any{"content": out}, nil
}

func (t *Toolset) usage(ctx context.Context, params domain.ResolvedParams) (any, error) {
	var p pathParams
	if err := params.Bind(&p); err != nil {
		return nil, err
	}
	out, err := t.stdout(ctx, withNode(p.Node, "usage", p.Path)...)
	if err != nil {
		return nil, err
	}
	return map[string]any{"usage": out, "path": p.Path}, nil
}

func (t *Toolset) copyFile(ctx context.Context, params domain.ResolvedParams) (any, error) {
	var p struct {
		Node        string `param:"node"`
		Source      string `param:"source"`
		Destination string `param:"destination"`
	}
	if err := params.Bind(&p); err != nil {
		return nil, err
	}
	out, err := t.stdout(ctx, withNode(p.Node, "copy", p.Source, p.Destination)...)
	if err != nil {
		return nil, err
	}
	return map[string]any{"copy": out}, nil
}

func (t *Toolset) capturePackets(ctx context.Context, params domain.ResolvedParams) (any, error) {
	var p struct {
		Node      string `param:"node"`
		Interface string `param:"interface"`
		Duration  string `param:"duration"`
	}
	if err := params.Bind(&p); err != nil {
		return nil, err
	}
	out, err := t.stdout(ctx, withNode(p.Node, "pcap", "--interface", p.Interface, "--duration", p.Duration)...)
	if err != nil {
		return nil, err
	}
	return map[string]any{"packets": out, "interface": p.Interface, "duration": p.Duration}, nil
}
