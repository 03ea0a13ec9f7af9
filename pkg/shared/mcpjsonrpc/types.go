package mcpjsonrpc

import "encoding/json"

// Based on JSON-RPC 2.0 Specification: https://www.jsonrpc.org/specification

// Version is the only accepted value of the "jsonrpc" member.
const Version = "2.0"

// Request represents a decoded JSON-RPC request object.
type Request struct {
	Version string
	Method  string

	// Params is nil when absent or null. Numbers are json.Number.
	Params map[string]any

	// ID is the raw id text, echoed verbatim. Nil when absent.
	ID json.RawMessage
}

// Response represents a JSON-RPC response object. Both result and error are
// always serialized; exactly one of them is non-null.
type Response struct {
	Version string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result"`
	Error   *Error          `json:"error"`
	ID      json.RawMessage `json:"id"` // null if it could not be determined
}

// Error represents a JSON-RPC error object.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

// Error codes
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
	// -32000 to -32099: Server error (implementation-defined)
	CodeExecutionFailed = -32000
)

// NewResult builds a success response. A nil id is sent as null.
func NewResult(id json.RawMessage, result json.RawMessage) *Response {
	return &Response{Version: Version, Result: result, ID: id}
}

// NewError builds an error response. A nil id is sent as null.
func NewError(id json.RawMessage, code int, message string, data any) *Response {
	return &Response{
		Version: Version,
		Error:   &Error{Code: code, Message: message, Data: data},
		ID:      id,
	}
}
