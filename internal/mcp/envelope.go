package mcp

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/dustin/go-humanize"
)

// readBody reads at most maxBytes; anything larger is rejected without
// being parsed.
func readBody(r *http.Request, maxBytes int64) ([]byte, *EnvelopeError) {
	tooLarge := func() *EnvelopeError {
		e := newEnvelopeError(InvalidRequest, fmt.Sprintf("request body exceeds %s", humanize.IBytes(uint64(maxBytes))))
		e.HTTPStatus = http.StatusRequestEntityTooLarge
		return e
	}

	if r.ContentLength > maxBytes {
		return nil, tooLarge()
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBytes+1))
	if err != nil {
		return nil, newEnvelopeError(ParseError, fmt.Sprintf("failed to read request body: %v", err))
	}
	if int64(len(body)) > maxBytes {
		return nil, tooLarge()
	}
	return body, nil
}

// parseEnvelope checks the JSON-RPC 2.0 envelope. Method-specific params
// are left raw for the handlers.
func parseEnvelope(body []byte) (*JSONRPCRequest, *EnvelopeError) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, newEnvelopeError(InvalidRequest, "empty request body")
	}
	if !json.Valid(trimmed) {
		return nil, newEnvelopeError(ParseError, "Parse error: body is not valid JSON")
	}

	switch trimmed[0] {
	case '{':
	case '[':
		return nil, newEnvelopeError(InvalidRequest, "batch requests are not supported")
	default:
		return nil, newEnvelopeError(InvalidRequest, "request must be a JSON object")
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return nil, newEnvelopeError(ParseError, fmt.Sprintf("Parse error: %v", err))
	}

	req := &JSONRPCRequest{}

	if rawID, ok := fields["id"]; ok {
		switch kindOf(rawID) {
		case "string", "number", "null":
			req.ID = rawID
		default:
			return nil, newEnvelopeError(InvalidRequest, fmt.Sprintf("id must be a string, number or null, got %s", kindOf(rawID)))
		}
	}

	fail := func(message string) (*JSONRPCRequest, *EnvelopeError) {
		e := newEnvelopeError(InvalidRequest, message)
		e.ID = req.ID
		return nil, e
	}

	rawVersion, ok := fields["jsonrpc"]
	if !ok {
		return fail("missing jsonrpc version")
	}
	if err := json.Unmarshal(rawVersion, &req.JSONRPC); err != nil || req.JSONRPC != "2.0" {
		return fail(fmt.Sprintf("jsonrpc must be \"2.0\", got %s", rawVersion))
	}

	rawMethod, ok := fields["method"]
	if !ok {
		return fail("missing method")
	}
	if err := json.Unmarshal(rawMethod, &req.Method); err != nil || kindOf(rawMethod) != "string" || req.Method == "" {
		return fail("method must be a non-empty string")
	}

	if rawParams, ok := fields["params"]; ok && kindOf(rawParams) != "null" {
		req.Params = rawParams
	}

	return req, nil
}

func kindOf(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return "nothing"
	}
	switch trimmed[0] {
	case '"':
		return "string"
	case '{':
		return "object"
	case '[':
		return "array"
	case 't', 'f':
		return "boolean"
	case 'n':
		return "null"
	default:
		return "number"
	}
}
