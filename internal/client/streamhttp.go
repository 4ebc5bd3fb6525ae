package client

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/zhe.chen/moodcanvas/pkg/types"
)

// StreamableHTTPTransport wraps the mark3labs/mcp-go client to reach model
// servers exposed over Streamable HTTP (e.g. a GPU box on the network).
type StreamableHTTPTransport struct {
	url         string
	timeout     time.Duration
	headers     map[string]string
	httpTrans   *transport.StreamableHTTP
	mcpClient   *client.Client
	initialized bool
}

// NewStreamableHTTPTransport creates a transport using mark3labs/mcp-go
func NewStreamableHTTPTransport(url string, timeout time.Duration, headers map[string]string) *StreamableHTTPTransport {
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &StreamableHTTPTransport{
		url:     url,
		timeout: timeout,
		headers: headers,
	}
}

// Start initializes the transport
func (t *StreamableHTTPTransport) Start(ctx context.Context) error {
	httpTransport, err := transport.NewStreamableHTTP(
		t.url,
		transport.WithContinuousListening(),
		transport.WithHTTPHeaders(t.headers),
	)
	if err != nil {
		return fmt.Errorf("failed to create transport: %w", err)
	}

	t.httpTrans = httpTransport
	t.mcpClient = client.NewClient(httpTransport)

	if err := t.mcpClient.Start(ctx); err != nil {
		return fmt.Errorf("failed to start client: %w", err)
	}

	return nil
}

// SendRequest sends a JSON-RPC request and waits for response
func (t *StreamableHTTPTransport) SendRequest(ctx context.Context, method string, params interface{}) (json.RawMessage, error) {
	switch method {
	case "initialize":
		initParams, ok := params.(InitializeRequest)
		if !ok {
			return nil, fmt.Errorf("invalid initialize params type")
		}

		initRequest := mcp.InitializeRequest{
			Params: mcp.InitializeParams{
				ProtocolVersion: initParams.ProtocolVersion,
				Capabilities:    mcp.ClientCapabilities{},
				ClientInfo: mcp.Implementation{
					Name:    initParams.ClientInfo.Name,
					Version: initParams.ClientInfo.Version,
				},
			},
		}

		initResult, err := t.mcpClient.Initialize(ctx, initRequest)
		if err != nil {
			return nil, fmt.Errorf("initialize failed: %w", err)
		}

		t.initialized = true

		response := InitializeResponse{
			ProtocolVersion: initResult.ProtocolVersion,
			ServerInfo: ServerInfo{
				Name:    initResult.ServerInfo.Name,
				Version: initResult.ServerInfo.Version,
			},
		}
		return json.Marshal(response)

	case "tools/list":
		if !t.initialized {
			return nil, fmt.Errorf("client not initialized")
		}

		toolsResult, err := t.mcpClient.ListTools(ctx, mcp.ListToolsRequest{})
		if err != nil {
			return nil, fmt.Errorf("list tools failed: %w", err)
		}

		var tools []types.Tool
		for _, tool := range toolsResult.Tools {
			var schema map[string]interface{}
			if schemaBytes, err := json.Marshal(tool.InputSchema); err == nil {
				json.Unmarshal(schemaBytes, &schema)
			}

			tools = append(tools, types.Tool{
				Name:        tool.Name,
				Description: tool.Description,
				InputSchema: schema,
			})
		}

		return json.Marshal(ToolsListResponse{Tools: tools})

	case "tools/call":
		if !t.initialized {
			return nil, fmt.Errorf("client not initialized")
		}

		callParams, ok := params.(CallToolRequest)
		if !ok {
			return nil, fmt.Errorf("invalid tools/call params type")
		}

		callRequest := mcp.CallToolRequest{
			Params: mcp.CallToolParams{
				Name:      callParams.Name,
				Arguments: callParams.Arguments,
			},
		}

		result, err := t.mcpClient.CallTool(ctx, callRequest)
		if err != nil {
			return nil, fmt.Errorf("call tool failed: %w", err)
		}

		return json.Marshal(result)
	}

	return nil, fmt.Errorf("unsupported method: %s", method)
}

// SendNotification sends a JSON-RPC notification
func (t *StreamableHTTPTransport) SendNotification(ctx context.Context, method string, params interface{}) error {
	// mark3labs client sends the initialized notification internally
	return nil
}

// Close shuts down the transport
func (t *StreamableHTTPTransport) Close() error {
	if t.mcpClient != nil {
		return t.mcpClient.Close()
	}
	return nil
}
