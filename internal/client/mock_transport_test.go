package client

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// MockTransport is an in-memory Transport double standing in for a model
// server in tests
type MockTransport struct {
	// Behavior configuration
	StartErr         error
	RequestErr       error
	NotificationErr  error
	ResponseDelay    time.Duration
	RequestResponses map[string]interface{} // method -> response

	// State tracking
	Started       bool
	Closed        bool
	SentRequests  []MockRequest
	Notifications []MockNotification
}

// MockRequest records a request sent through the transport
type MockRequest struct {
	Method string
	Params interface{}
}

// MockNotification records a notification sent through the transport
type MockNotification struct {
	Method string
	Params interface{}
}

// NewMockTransport creates a new mock transport
func NewMockTransport() *MockTransport {
	return &MockTransport{
		RequestResponses: make(map[string]interface{}),
	}
}

// Start initializes the mock transport
func (m *MockTransport) Start(ctx context.Context) error {
	if m.StartErr != nil {
		return m.StartErr
	}
	m.Started = true
	return nil
}

// SendRequest records the request and returns the configured response
func (m *MockTransport) SendRequest(ctx context.Context, method string, params interface{}) (json.RawMessage, error) {
	m.SentRequests = append(m.SentRequests, MockRequest{
		Method: method,
		Params: params,
	})

	if m.ResponseDelay > 0 {
		select {
		case <-time.After(m.ResponseDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if m.RequestErr != nil {
		return nil, m.RequestErr
	}

	if resp, ok := m.RequestResponses[method]; ok {
		data, err := json.Marshal(resp)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal mock response: %w", err)
		}
		return data, nil
	}

	return json.RawMessage(`{}`), nil
}

// SendNotification records a notification
func (m *MockTransport) SendNotification(ctx context.Context, method string, params interface{}) error {
	m.Notifications = append(m.Notifications, MockNotification{
		Method: method,
		Params: params,
	})
	return m.NotificationErr
}

// Close shuts down the mock transport
func (m *MockTransport) Close() error {
	m.Closed = true
	return nil
}

// SetResponse configures a response for a specific method
func (m *MockTransport) SetResponse(method string, response interface{}) {
	m.RequestResponses[method] = response
}

// SetInitializeResponse configures a standard handshake response
func (m *MockTransport) SetInitializeResponse(name string) {
	m.SetResponse("initialize", map[string]interface{}{
		"protocolVersion": "2025-03-26",
		"capabilities":    map[string]interface{}{},
		"serverInfo": map[string]interface{}{
			"name":    name,
			"version": "1.0.0",
		},
	})
}

// SetToolNotFoundError configures the transport to fail like a server that
// does not implement the requested model tool
func (m *MockTransport) SetToolNotFoundError() {
	m.RequestErr = &JSONRPCError{
		Code:    -32000,
		Message: "Tool not found",
	}
}

// SetTimeout configures the transport to delay every response
func (m *MockTransport) SetTimeout(delay time.Duration) {
	m.ResponseDelay = delay
}

// GetLastRequest returns the most recent request
func (m *MockTransport) GetLastRequest() *MockRequest {
	if len(m.SentRequests) == 0 {
		return nil
	}
	return &m.SentRequests[len(m.SentRequests)-1]
}
