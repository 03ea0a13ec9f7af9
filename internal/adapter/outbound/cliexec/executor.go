package cliexec

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"os/exec"
	"sort"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/i2y/talos-mcp/internal/usecase"
)

const tracerName = "github.com/i2y/talos-mcp/internal/adapter/outbound/cliexec"

// Executor implements usecase.CommandExecutor with os/exec.
// Calls block until the process exits; there is no retry.
type Executor struct {
	timeout time.Duration
	logger  *slog.Logger
}

// Option configures an Executor.
type Option func(*Executor)

// WithTimeout bounds each command. Zero, the default, means no limit.
func WithTimeout(d time.Duration) Option {
	return func(e *Executor) { e.timeout = d }
}

// New creates a new Executor.
func New(logger *slog.Logger, opts ...Option) *Executor {
	e := &Executor{logger: logger.With("component", "cli_executor")}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs program with args. env is added on top of the current process
// environment. On a non-zero exit the captured stderr is returned inside a
// *usecase.ExecutionError.
func (e *Executor) Execute(ctx context.Context, program string, args []string, env map[string]string) (usecase.ExecOutput, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "exec "+program)
	defer span.End()
	span.SetAttributes(
		attribute.String("process.executable.name", program),
		attribute.StringSlice("process.command_args", args),
	)

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	log := e.logger.With(slog.String("program", program), slog.Any("args", args))

	cmd := exec.CommandContext(ctx, program, args...)
	cmd.Env = mergeEnv(os.Environ(), env)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)
	out := usecase.ExecOutput{Stdout: stdout.String(), Stderr: stderr.String()}

	if err != nil {
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.Int("process.exit.code", exitCode))
		log.Warn("Command failed",
			slog.Int("exit_code", exitCode),
			slog.Duration("elapsed", elapsed),
			slog.String("stderr", out.Stderr),
			slog.Any("error", err))
		return out, &usecase.ExecutionError{
			Program:  program,
			ExitCode: exitCode,
			Stderr:   out.Stderr,
			Err:      err,
		}
	}

	span.SetAttributes(attribute.Int("process.exit.code", 0))
	log.Debug("Command finished", slog.Duration("elapsed", elapsed), slog.Int("stdout_bytes", stdout.Len()))
	return out, nil
}

// mergeEnv appends extra in sorted key order so the resulting environment is
// deterministic. Later entries win for duplicate keys.
func mergeEnv(base []string, extra map[string]string) []string {
	if len(extra) == 0 {
		return base
	}
	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	merged := make([]string, 0, len(base)+len(keys))
	merged = append(merged, base...)
	for _, k := range keys {
		merged = append(merged, k+"="+extra[k])
	}
	return merged
}
