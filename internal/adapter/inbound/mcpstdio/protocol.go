package mcpstdio

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/i2y/talos-mcp/internal/usecase"
)

type initializeResult struct {
	ProtocolVersion string             `json:"protocolVersion"`
	Capabilities    serverCapabilities `json:"capabilities"`
	ServerInfo      mcp.Implementation `json:"serverInfo"`
	Instructions    string             `json:"instructions,omitempty"`
	Tools           []mcp.Tool         `json:"tools"`
}

type serverCapabilities struct {
	Tools toolsCapability `json:"tools"`
}

type toolsCapability struct {
	ListChanged bool `json:"listChanged"`
}

type listToolsResult struct {
	Tools []mcp.Tool `json:"tools"`
}

// initialize accepts any params. A supported client protocol version is
// echoed back, anything else gets the newest supported one.
func (s *Server) initialize(ctx context.Context, params map[string]any) (initializeResult, error) {
	version := SupportedProtocolVersions[0]
	if requested, ok := params["protocolVersion"].(string); ok && slices.Contains(SupportedProtocolVersions, requested) {
		version = requested
	}

	client, _ := params["clientInfo"].(map[string]any)
	s.logger.Info("Client initialized",
		slog.String("protocol_version", version),
		slog.Any("client_name", client["name"]),
		slog.Any("client_version", client["version"]))

	tools, err := s.serveUC.Execute(ctx)
	if err != nil {
		return initializeResult{}, err
	}
	return initializeResult{
		ProtocolVersion: version,
		ServerInfo:      s.info,
		Instructions:    s.instructions,
		Tools:           tools,
	}, nil
}

// callTool runs the same pipeline as a direct method call and wraps the
// result as MCP text content.
func (s *Server) callTool(ctx context.Context, params map[string]any) (any, error) {
	var name string
	switch v := params["name"].(type) {
	case string:
		name = v
	case nil:
	default:
		return nil, &usecase.ValidationError{Param: "name", Reason: usecase.ReasonType, Value: v, Detail: "expected string"}
	}
	if name == "" {
		return nil, &usecase.ValidationError{Param: "name", Reason: usecase.ReasonMissing}
	}

	var args map[string]any
	switch v := params["arguments"].(type) {
	case map[string]any:
		args = v
	case nil:
	default:
		return nil, &usecase.ValidationError{Param: "arguments", Reason: usecase.ReasonType, Value: v, Detail: "expected object"}
	}

	result, err := s.invokeUC.Execute(ctx, name, args)
	if err != nil {
		return nil, err
	}

	text, err := prettyJSON(result)
	if err != nil {
		return nil, fmt.Errorf("failed to render result of tool %s: %w", name, err)
	}
	return mcp.CallToolResult{Content: []mcp.Content{mcp.NewTextContent(text)}}, nil
}

func prettyJSON(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}
