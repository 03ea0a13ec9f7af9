package mcpjsonrpc

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// DecodeError is returned by Decode for lines that are not a valid request.
type DecodeError struct {
	Code    int
	Message string
	ID      json.RawMessage // recovered id, nil when unknown
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("jsonrpc decode error %d: %s", e.Code, e.Message)
}

// Decode parses one line into a Request.
func Decode(line []byte) (*Request, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(line, &fields); err != nil || fields == nil {
		return nil, &DecodeError{Code: CodeParseError, Message: "Parse error"}
	}

	id, ok := decodeID(fields["id"])
	if !ok {
		return nil, &DecodeError{Code: CodeInvalidRequest, Message: "Invalid Request: id must be a string, number or null"}
	}
	invalid := func(msg string) error {
		return &DecodeError{Code: CodeInvalidRequest, Message: "Invalid Request: " + msg, ID: id}
	}

	var version string
	if raw, found := fields["jsonrpc"]; !found || json.Unmarshal(raw, &version) != nil || version != Version {
		return nil, invalid(`jsonrpc must be "2.0"`)
	}

	var method string
	if raw, found := fields["method"]; !found || json.Unmarshal(raw, &method) != nil || method == "" {
		return nil, invalid("method must be a non-empty string")
	}

	params, err := decodeParams(fields["params"])
	if err != nil {
		return nil, invalid("params must be an object")
	}

	return &Request{Version: version, Method: method, Params: params, ID: id}, nil
}

// decodeID accepts a string, number or null id. An absent id yields nil.
func decodeID(raw json.RawMessage) (json.RawMessage, bool) {
	if raw == nil {
		return nil, true
	}
	raw = bytes.TrimSpace(raw)
	switch {
	case bytes.Equal(raw, []byte("null")):
		return json.RawMessage("null"), true
	case len(raw) > 0 && (raw[0] == '"' || raw[0] == '-' || (raw[0] >= '0' && raw[0] <= '9')):
		return append(json.RawMessage(nil), raw...), true
	default:
		return nil, false
	}
}

func decodeParams(raw json.RawMessage) (map[string]any, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	if raw[0] != '{' {
		return nil, fmt.Errorf("params is not an object")
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var params map[string]any
	if err := dec.Decode(&params); err != nil {
		return nil, fmt.Errorf("failed to decode params: %w", err)
	}
	return params, nil
}

// Encode serializes resp as a single line terminated by exactly one '\n'.
func Encode(resp *Response) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(resp); err != nil {
		return nil, fmt.Errorf("failed to encode response: %w", err)
	}
	return buf.Bytes(), nil
}

// Marshal encodes v the way results are embedded in a Response.
func Marshal(v any) (json.RawMessage, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
