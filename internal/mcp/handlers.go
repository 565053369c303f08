package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shirenchuang/pcli2-mcp/internal/executor"
	"github.com/shirenchuang/pcli2-mcp/internal/tools"
	"github.com/shirenchuang/pcli2-mcp/pkg/logger"
	"github.com/sirupsen/logrus"
)

// handleToolCall validates, builds, runs and shapes one tool call
func (s *Server) handleToolCall(ctx context.Context, request *JSONRPCRequest) *JSONRPCResponse {
	params, rpcErr := decodeToolCallParams(request.Params)
	if rpcErr != nil {
		return errorResponse(request.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
	}

	log := logger.WithFields(logrus.Fields{
		"call_id": uuid.NewString(),
		"tool":    params.Name,
	})

	tool, args, err := s.registry.Validate(params.Name, params.Arguments)
	if err != nil {
		return s.validationError(request.ID, log, params.Name, err)
	}

	invocation := s.registry.Build(tool, args)
	log = log.WithField("command", invocation.String())

	release, err := s.pool.Acquire(ctx, s.acquireTimeout)
	if err != nil {
		log.WithError(err).Warn("tool call not admitted")
		return errorResponse(request.ID, ToolExecutionError,
			fmt.Sprintf("Tool execution error: %v", err),
			map[string]interface{}{"tool": tool.Name, "command": invocation.String()})
	}
	defer release()

	start := time.Now()
	result, execErr := s.runner.Execute(ctx, invocation.Argv())

	shaped := s.shaper.Shape(ShapeInput{
		Tool:       tool,
		Invocation: invocation,
		Result:     result,
		Err:        execErr,
		Format:     args.String("format"),
	})

	fields := logrus.Fields{
		"duration": time.Since(start).Round(time.Millisecond).String(),
		"is_error": shaped.IsError,
	}
	if result != nil {
		fields["exit_code"] = result.ExitCode
		fields["stdout_bytes"] = len(result.Stdout)
		fields["stderr_bytes"] = len(result.Stderr)
		fields["truncated"] = result.Truncated()
		fields["timed_out"] = result.TimedOut
	}
	entry := log.WithFields(fields)
	switch {
	case execErr != nil:
		entry.WithError(execErr).Error("tool call failed to run")
	case shaped.IsError:
		entry.Warn("tool call finished with error")
	default:
		entry.Info("tool call finished")
	}

	return resultResponse(request.ID, shaped)
}

// decodeToolCallParams requires an object with a non-empty name
func decodeToolCallParams(raw json.RawMessage) (*ToolCallParams, *JSONRPCError) {
	invalid := func(message string) *JSONRPCError {
		return &JSONRPCError{Code: InvalidParams, Message: "Invalid params: " + message}
	}

	if kindOf(raw) != "object" {
		return nil, invalid("tools/call params must be an object")
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, invalid(err.Error())
	}

	params := &ToolCallParams{}
	rawName, ok := fields["name"]
	if !ok || kindOf(rawName) != "string" {
		return nil, invalid("name must be a string")
	}
	if err := json.Unmarshal(rawName, &params.Name); err != nil || params.Name == "" {
		return nil, invalid("name must be a non-empty string")
	}

	if rawArgs, ok := fields["arguments"]; ok {
		params.Arguments = bytes.TrimSpace(rawArgs)
	}
	return params, nil
}

// validationError maps a registry error onto the JSON-RPC error codes
func (s *Server) validationError(id json.RawMessage, log *logrus.Entry, name string, err error) *JSONRPCResponse {
	var verr *tools.ValidationError
	if !errors.As(err, &verr) {
		log.WithError(err).Error("unexpected validation failure")
		return errorResponse(id, InternalError, fmt.Sprintf("Internal error: %v", err), nil)
	}

	data := map[string]interface{}{
		"tool": name,
		"kind": string(verr.Kind),
	}
	if verr.Field != "" {
		data["field"] = verr.Field
	}

	log.WithField("kind", verr.Kind).Warnf("invalid tool call: %v", verr)

	if verr.Kind == tools.ErrUnknownTool {
		return errorResponse(id, ToolNotFound, fmt.Sprintf("Tool not found: %s", name), data)
	}
	return errorResponse(id, InvalidArguments, fmt.Sprintf("Invalid arguments: %v", verr), data)
}

var _ Runner = (*executor.Executor)(nil)
