package mcp

import (
	"encoding/json"
	"net/http"
)

// JSON-RPC 2.0 standard error codes
const (
	ParseError     = -32700
	InvalidRequest = -32600
	MethodNotFound = -32601
	InvalidParams  = -32602
	InternalError  = -32603
)

// server-defined error codes
const (
	ToolNotFound       = -32001
	InvalidArguments   = -32002
	ToolExecutionError = -32003
)

// EnvelopeError a request that failed before any method ran
type EnvelopeError struct {
	Code    int
	Message string
	// ID is the request id when it was readable, else nil
	ID json.RawMessage
	// HTTPStatus is the status used on the wire
	HTTPStatus int
}

func (e *EnvelopeError) Error() string {
	return e.Message
}

func newEnvelopeError(code int, message string) *EnvelopeError {
	return &EnvelopeError{Code: code, Message: message, HTTPStatus: http.StatusOK}
}

func errorResponse(id json.RawMessage, code int, message string, data interface{}) *JSONRPCResponse {
	return &JSONRPCResponse{
		JSONRPC: "2.0",
		Error: &JSONRPCError{
			Code:    code,
			Message: message,
			Data:    data,
		},
		ID: id,
	}
}

func resultResponse(id json.RawMessage, result interface{}) *JSONRPCResponse {
	return &JSONRPCResponse{
		JSONRPC: "2.0",
		Result:  result,
		ID:      id,
	}
}
