package mcp

import "encoding/json"

// JSON-RPC types

// JSONRPCRequest JSON-RPC request. ID holds the raw id bytes so they can
// be echoed back unchanged; it is empty for notifications.
type JSONRPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      json.RawMessage `json:"id,omitempty"`
}

// IsNotification reports a request without id
func (r *JSONRPCRequest) IsNotification() bool {
	return len(r.ID) == 0
}

// JSONRPCResponse JSON-RPC response. A nil ID encodes as null.
type JSONRPCResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  interface{}     `json:"result,omitempty"`
	Error   *JSONRPCError   `json:"error,omitempty"`
	ID      json.RawMessage `json:"id"`
}

// JSONRPCError JSON-RPC error object
type JSONRPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// MCP tool types

// MCPTool tool description for tools/list
type MCPTool struct {
	Name        string           `json:"name"`
	Title       string           `json:"title,omitempty"`
	Description string           `json:"description"`
	InputSchema interface{}      `json:"inputSchema"`
	Annotations *ToolAnnotations `json:"annotations,omitempty"`
}

// ToolAnnotations behavioural hints for clients
type ToolAnnotations struct {
	ReadOnlyHint   *bool `json:"readOnlyHint,omitempty"`
	OpenWorldHint  *bool `json:"openWorldHint,omitempty"`
	IdempotentHint *bool `json:"idempotentHint,omitempty"`
}

// ToolCallParams tools/call parameters
type ToolCallParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// MCPToolResult tools/call result
type MCPToolResult struct {
	Content []MCPContent `json:"content"`
	IsError bool         `json:"isError"`
}

// MCPContent one content block: text, or base64 image data
type MCPContent struct {
	Type     string
	Text     string
	Data     string
	MimeType string
	Meta     map[string]interface{}
}

const (
	ContentText  = "text"
	ContentImage = "image"
)

// MarshalJSON emits only the fields that belong to the block type; a text
// block always carries text, even when empty.
func (c MCPContent) MarshalJSON() ([]byte, error) {
	switch c.Type {
	case ContentText:
		return json.Marshal(struct {
			Type string                 `json:"type"`
			Text string                 `json:"text"`
			Meta map[string]interface{} `json:"_meta,omitempty"`
		}{c.Type, c.Text, c.Meta})
	default:
		return json.Marshal(struct {
			Type     string                 `json:"type"`
			Data     string                 `json:"data"`
			MimeType string                 `json:"mimeType"`
			Meta     map[string]interface{} `json:"_meta,omitempty"`
		}{c.Type, c.Data, c.MimeType, c.Meta})
	}
}

// UnmarshalJSON is the inverse of MarshalJSON
func (c *MCPContent) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type     string                 `json:"type"`
		Text     string                 `json:"text"`
		Data     string                 `json:"data"`
		MimeType string                 `json:"mimeType"`
		Meta     map[string]interface{} `json:"_meta"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*c = MCPContent{Type: raw.Type, Text: raw.Text, Data: raw.Data, MimeType: raw.MimeType, Meta: raw.Meta}
	return nil
}

// MCP server info

// ServerInfo server identity
type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// ClientInfo client identity
type ClientInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// InitializeParams initialize parameters
type InitializeParams struct {
	ProtocolVersion string                 `json:"protocolVersion"`
	Capabilities    map[string]interface{} `json:"capabilities"`
	ClientInfo      ClientInfo             `json:"clientInfo"`
}

// InitializeResult initialize result
type InitializeResult struct {
	ProtocolVersion string                 `json:"protocolVersion"`
	Capabilities    map[string]interface{} `json:"capabilities"`
	ServerInfo      ServerInfo             `json:"serverInfo"`
	Instructions    string                 `json:"instructions,omitempty"`
}

// ToolsListResult tools/list result
type ToolsListResult struct {
	Tools []MCPTool `json:"tools"`
}
