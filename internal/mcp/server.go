package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shirenchuang/pcli2-mcp/internal/executor"
	"github.com/shirenchuang/pcli2-mcp/internal/tools"
	"github.com/shirenchuang/pcli2-mcp/pkg/logger"
)

const (
	ProtocolVersion = "2025-03-26"
	ServerName      = "pcli2-mcp"
)

const instructions = "Each tool runs one pcli2 command against the Physna platform. " +
	"Identify assets and folders by uuid or by path; at least one is required where both are offered."

// Runner executes one command line
type Runner interface {
	Execute(ctx context.Context, argv []string) (*executor.Result, error)
}

// Options server wiring
type Options struct {
	Registry       *tools.Registry
	Runner         Runner
	Pool           *executor.Pool
	Shaper         *Shaper
	Version        string
	MaxBodyBytes   int64
	AcquireTimeout time.Duration
}

// Server MCP server
type Server struct {
	registry       *tools.Registry
	runner         Runner
	pool           *executor.Pool
	shaper         *Shaper
	version        string
	maxBodyBytes   int64
	acquireTimeout time.Duration
	started        time.Time
}

// NewServer creates the MCP server
func NewServer(opts Options) *Server {
	if opts.Pool == nil {
		opts.Pool = executor.NewPool(0)
	}
	if opts.Shaper == nil {
		opts.Shaper = NewShaper(ShaperOptions{InlineImages: true})
	}
	if opts.Version == "" {
		opts.Version = "0.1.0"
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 1 << 20
	}

	return &Server{
		registry:       opts.Registry,
		runner:         opts.Runner,
		pool:           opts.Pool,
		shaper:         opts.Shaper,
		version:        opts.Version,
		maxBodyBytes:   opts.MaxBodyBytes,
		acquireTimeout: opts.AcquireTimeout,
		started:        time.Now(),
	}
}

// ServeHTTP handles the MCP endpoint
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept, Mcp-Session-Id")

	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusOK)
	case http.MethodGet:
		s.handleSSEConnection(w, r)
	case http.MethodPost:
		s.handleJSONRPCRequest(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// HealthHandler reports liveness, catalog size and process slot usage
func (s *Server) HealthHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  "ok",
			"server":  ServerName,
			"version": s.version,
			"program": s.registry.Program(),
			"tools":   s.registry.Len(),
			"uptime":  time.Since(s.started).Round(time.Second).String(),
			"pool":    s.pool.Stats(),
		})
	})
}

// handleSSEConnection keeps an event stream open for clients that want one.
// All responses still travel on POST.
func (s *Server) handleSSEConnection(w http.ResponseWriter, r *http.Request) {
	if !strings.Contains(r.Header.Get("Accept"), "text/event-stream") {
		http.Error(w, "SSE not requested", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	fmt.Fprintf(w, "event: open\n")
	fmt.Fprintf(w, "data: {\"type\":\"connection\",\"status\":\"connected\"}\n\n")

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}

	<-r.Context().Done()
}

// handleJSONRPCRequest handles one POSTed JSON-RPC message
func (s *Server) handleJSONRPCRequest(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	body, envErr := readBody(r, s.maxBodyBytes)
	if envErr != nil {
		s.sendEnvelopeError(w, envErr)
		return
	}

	request, envErr := parseEnvelope(body)
	if envErr != nil {
		s.sendEnvelopeError(w, envErr)
		return
	}

	logger.Debugf("MCP request: %s", request.Method)

	response := s.processRequest(r.Context(), request)

	if request.IsNotification() {
		// notifications never get a body, whatever the method did
		w.WriteHeader(http.StatusAccepted)
		return
	}

	s.sendJSONResponse(w, http.StatusOK, response)
}

// processRequest dispatches by method
func (s *Server) processRequest(ctx context.Context, request *JSONRPCRequest) *JSONRPCResponse {
	switch request.Method {
	case "initialize":
		return s.handleInitialize(request)
	case "initialized", "notifications/initialized":
		return resultResponse(request.ID, map[string]interface{}{})
	case "ping":
		return resultResponse(request.ID, map[string]interface{}{})
	case "tools/list":
		return s.handleToolsList(request)
	case "tools/call":
		return s.handleToolCall(ctx, request)
	default:
		return errorResponse(request.ID, MethodNotFound, fmt.Sprintf("Method not found: %s", request.Method), nil)
	}
}

// handleInitialize answers the handshake. The client's protocol version is
// logged but not negotiated.
func (s *Server) handleInitialize(request *JSONRPCRequest) *JSONRPCResponse {
	var params InitializeParams
	if len(request.Params) > 0 {
		if err := json.Unmarshal(request.Params, &params); err != nil {
			return errorResponse(request.ID, InvalidParams, fmt.Sprintf("Invalid params: %v", err), nil)
		}
	}
	if params.ClientInfo.Name != "" {
		logger.Infof("client connected: %s %s (protocol %s)", params.ClientInfo.Name, params.ClientInfo.Version, params.ProtocolVersion)
	}

	result := InitializeResult{
		ProtocolVersion: ProtocolVersion,
		Capabilities: map[string]interface{}{
			"tools": map[string]interface{}{"listChanged": false},
		},
		ServerInfo: ServerInfo{
			Name:    ServerName,
			Version: s.version,
		},
		Instructions: instructions,
	}

	return resultResponse(request.ID, result)
}

// handleToolsList lists the catalog in registry order
func (s *Server) handleToolsList(request *JSONRPCRequest) *JSONRPCResponse {
	return resultResponse(request.ID, ToolsListResult{Tools: s.mcpTools()})
}

func (s *Server) mcpTools() []MCPTool {
	list := s.registry.List()
	out := make([]MCPTool, 0, len(list))
	for _, t := range list {
		readOnly := t.ReadOnly
		openWorld := true
		out = append(out, MCPTool{
			Name:        t.Name,
			Title:       t.Title,
			Description: t.Description,
			InputSchema: t.InputSchema(),
			Annotations: &ToolAnnotations{
				ReadOnlyHint:  &readOnly,
				OpenWorldHint: &openWorld,
			},
		})
	}
	return out
}

// sendJSONResponse writes a JSON-RPC response
func (s *Server) sendJSONResponse(w http.ResponseWriter, status int, response *JSONRPCResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.Errorf("failed to encode response: %v", err)
	}
}

// sendEnvelopeError answers a request that never reached dispatch
func (s *Server) sendEnvelopeError(w http.ResponseWriter, e *EnvelopeError) {
	logger.Warnf("rejected request: %d %s", e.Code, e.Message)
	s.sendJSONResponse(w, e.HTTPStatus, errorResponse(e.ID, e.Code, e.Message, nil))
}
