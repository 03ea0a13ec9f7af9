package usecase

import (
	"context"

	"github.com/i2y/talos-mcp/internal/domain"
)

// --- Schema Registry ---

// SchemaRegistry is the read-only catalogue of tool schemas.
// Implementations must be safe for concurrent reads without locking.
type SchemaRegistry interface {
	// Lookup returns the schema registered under name, or ErrToolNotFound.
	Lookup(name string) (domain.ToolSchema, error)

	// All returns every schema in registration order.
	All() []domain.ToolSchema
}

// --- Command Executor ---

// ExecOutput is what a finished command wrote to its standard streams.
type ExecOutput struct {
	Stdout string
	Stderr string
}

// CommandExecutor runs an external program and captures its output.
// A non-zero exit is reported as an *ExecutionError.
type CommandExecutor interface {
	Execute(ctx context.Context, program string, args []string, env map[string]string) (ExecOutput, error)
}

// --- Tool Handlers ---

// ToolHandler executes one tool with parameters that already passed validation.
// The returned value must be JSON-serialisable.
type ToolHandler func(ctx context.Context, params domain.ResolvedParams) (any, error)
