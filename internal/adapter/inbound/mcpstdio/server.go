package mcpstdio

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/i2y/talos-mcp/internal/usecase"
	"github.com/i2y/talos-mcp/pkg/shared/mcpjsonrpc"
)

const (
	instrumentationName = "github.com/i2y/talos-mcp/internal/adapter/inbound/mcpstdio"

	// MaxLineSize bounds a single request line.
	MaxLineSize = 10 * 1024 * 1024

	notificationPrefix = "notifications/"
)

// SupportedProtocolVersions lists the MCP revisions this server speaks,
// newest first.
var SupportedProtocolVersions = []string{"2025-06-18", "2025-03-26", "2024-11-05"}

// Server reads newline-delimited JSON-RPC requests and writes one response
// line per request. Requests are handled strictly one at a time.
type Server struct {
	invokeUC     *usecase.InvokeToolUseCase
	serveUC      *usecase.ServeToolsUseCase
	info         mcp.Implementation
	instructions string
	tracer       trace.Tracer
	requests     metric.Int64Counter
	logger       *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithInstructions sets the instructions returned by initialize.
func WithInstructions(instructions string) Option {
	return func(s *Server) { s.instructions = instructions }
}

// NewServer creates a new Server.
func NewServer(
	invokeUC *usecase.InvokeToolUseCase,
	serveUC *usecase.ServeToolsUseCase,
	info mcp.Implementation,
	logger *slog.Logger,
	opts ...Option,
) *Server {
	s := &Server{
		invokeUC: invokeUC,
		serveUC:  serveUC,
		info:     info,
		tracer:   otel.Tracer(instrumentationName),
		logger:   logger.With("component", "mcpstdio_server"),
	}
	for _, opt := range opts {
		opt(s)
	}

	counter, err := otel.Meter(instrumentationName).Int64Counter(
		"talos_mcp.requests",
		metric.WithDescription("JSON-RPC requests handled, by method and result code"),
	)
	if err != nil {
		s.logger.Warn("Failed to create request counter", slog.Any("error", err))
	}
	s.requests = counter
	return s
}

// Listen serves requests from in until EOF, a read or write error, or ctx
// cancellation. EOF is a clean shutdown and returns nil. A line longer than
// MaxLineSize is discarded and answered with an invalid request error.
func (s *Server) Listen(ctx context.Context, in io.Reader, out io.Writer) error {
	reader := bufio.NewReaderSize(in, 64*1024)

	s.logger.Info("Listening for requests on stdio")
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		line, tooLong, readErr := readLine(reader, MaxLineSize)
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			s.logger.Error("Failed to read request", slog.Any("error", readErr))
			return fmt.Errorf("failed to read request: %w", readErr)
		}

		var resp *mcpjsonrpc.Response
		if tooLong {
			s.logger.Warn("Rejected oversized request", slog.Int("limit", MaxLineSize))
			s.record(ctx, "", mcpjsonrpc.CodeInvalidRequest)
			resp = mcpjsonrpc.NewError(nil, mcpjsonrpc.CodeInvalidRequest,
				fmt.Sprintf("Invalid Request: line exceeds %d bytes", MaxLineSize), nil)
		} else if line = bytes.TrimSpace(line); len(line) > 0 {
			resp = s.HandleLine(ctx, line)
		}
		if resp != nil {
			if err := s.write(out, resp); err != nil {
				return err
			}
		}

		if readErr != nil {
			s.logger.Info("Input closed, stopping")
			return nil
		}
	}
}

// readLine returns the next line, trailing newline included. A line longer
// than limit is consumed and dropped, and tooLong reports it. The error is
// io.EOF after the final line.
func readLine(r *bufio.Reader, limit int) ([]byte, bool, error) {
	var line []byte
	tooLong := false
	for {
		chunk, err := r.ReadSlice('\n')
		if !tooLong {
			if len(line)+len(bytes.TrimSuffix(chunk, []byte("\n"))) > limit {
				tooLong = true
				line = nil
			} else {
				line = append(line, chunk...)
			}
		}
		if !errors.Is(err, bufio.ErrBufferFull) {
			return line, tooLong, err
		}
	}
}

func (s *Server) write(out io.Writer, resp *mcpjsonrpc.Response) error {
	data, err := mcpjsonrpc.Encode(resp)
	if err != nil {
		s.logger.Error("Failed to encode response", slog.Any("error", err))
		data, err = mcpjsonrpc.Encode(mcpjsonrpc.NewError(resp.ID, mcpjsonrpc.CodeInternalError, "Internal error", nil))
		if err != nil {
			return err
		}
	}
	if _, err := out.Write(data); err != nil {
		return fmt.Errorf("failed to write response: %w", err)
	}
	return nil
}

// HandleLine processes one request line. It returns nil for notifications,
// which get no response: a notifications/* method sent without an id.
func (s *Server) HandleLine(ctx context.Context, line []byte) *mcpjsonrpc.Response {
	req, err := mcpjsonrpc.Decode(line)
	if err != nil {
		var decErr *mcpjsonrpc.DecodeError
		if !errors.As(err, &decErr) {
			decErr = &mcpjsonrpc.DecodeError{Code: mcpjsonrpc.CodeParseError, Message: "Parse error"}
		}
		s.logger.Warn("Rejected malformed request", slog.Int("code", decErr.Code), slog.String("message", decErr.Message))
		s.record(ctx, "", decErr.Code)
		return mcpjsonrpc.NewError(decErr.ID, decErr.Code, decErr.Message, nil)
	}

	ctx, span := s.tracer.Start(ctx, "jsonrpc "+req.Method,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.String("rpc.system", "jsonrpc"),
			attribute.String("rpc.method", req.Method),
		))
	defer span.End()

	log := s.logger.With(slog.String("method", req.Method))
	log.Debug("Received request", slog.String("id", string(req.ID)))

	result, err := s.handle(ctx, req)
	if strings.HasPrefix(req.Method, notificationPrefix) && req.ID == nil {
		s.record(ctx, req.Method, 0)
		return nil
	}

	if err == nil {
		var raw []byte
		raw, err = mcpjsonrpc.Marshal(result)
		if err == nil {
			s.record(ctx, req.Method, 0)
			return mcpjsonrpc.NewResult(req.ID, raw)
		}
		err = fmt.Errorf("failed to marshal result: %w", err)
	}

	rpcErr := toRPCError(target(req), err)
	if rpcErr.Code == mcpjsonrpc.CodeInternalError {
		log.Error("Request failed", slog.Any("error", err))
	} else {
		log.Warn("Request failed", slog.Int("code", rpcErr.Code), slog.Any("error", err))
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, rpcErr.Message)
	span.SetAttributes(attribute.Int("rpc.jsonrpc.error_code", rpcErr.Code))
	s.record(ctx, req.Method, rpcErr.Code)
	return mcpjsonrpc.NewError(req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
}

func (s *Server) handle(ctx context.Context, req *mcpjsonrpc.Request) (any, error) {
	switch {
	case req.Method == "initialize":
		return s.initialize(ctx, req.Params)
	case req.Method == "ping":
		return struct{}{}, nil
	case req.Method == "tools/list":
		tools, err := s.serveUC.Execute(ctx)
		if err != nil {
			return nil, err
		}
		return listToolsResult{Tools: tools}, nil
	case req.Method == "tools/call":
		return s.callTool(ctx, req.Params)
	case strings.HasPrefix(req.Method, notificationPrefix):
		s.logger.Debug("Notification received", slog.String("method", req.Method))
		return struct{}{}, nil
	default:
		return s.invokeUC.Execute(ctx, req.Method, req.Params)
	}
}

func (s *Server) record(ctx context.Context, method string, code int) {
	if s.requests == nil {
		return
	}
	s.requests.Add(ctx, 1, metric.WithAttributes(
		attribute.String("rpc.method", method),
		attribute.Int("rpc.jsonrpc.error_code", code),
	))
}

// target names the tool a request addresses, for error messages.
func target(req *mcpjsonrpc.Request) string {
	if req.Method == "tools/call" {
		if name, ok := req.Params["name"].(string); ok {
			return name
		}
	}
	return req.Method
}

// toRPCError classifies err into a JSON-RPC error object.
func toRPCError(method string, err error) *mcpjsonrpc.Error {
	var valErr *usecase.ValidationError
	var execErr *usecase.ExecutionError
	switch {
	case errors.As(err, &valErr):
		return &mcpjsonrpc.Error{
			Code:    mcpjsonrpc.CodeInvalidParams,
			Message: "Invalid params: " + valErr.Error(),
			Data:    map[string]any{"param": valErr.Param, "reason": valErr.Reason},
		}
	case errors.As(err, &execErr):
		return &mcpjsonrpc.Error{
			Code:    mcpjsonrpc.CodeExecutionFailed,
			Message: execErr.Error(),
			Data:    map[string]any{"exitCode": execErr.ExitCode, "stderr": execErr.Stderr},
		}
	case errors.Is(err, usecase.ErrToolNotFound):
		return &mcpjsonrpc.Error{Code: mcpjsonrpc.CodeMethodNotFound, Message: "Method not found: " + method}
	default:
		return &mcpjsonrpc.Error{Code: mcpjsonrpc.CodeInternalError, Message: "Internal error"}
	}
}
