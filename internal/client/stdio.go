package client

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os/exec"
	"sync"
	"time"
)

// StdioTransport runs a model server as a subprocess and exchanges
// newline-delimited JSON-RPC over its stdin/stdout.
type StdioTransport struct {
	command []string
	timeout time.Duration

	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.ReadCloser
	stderr io.ReadCloser

	// Request tracking
	nextID      int
	pendingReqs map[int]chan *JSONRPCResponse
	mu          sync.Mutex

	// Background reader
	readerCtx    context.Context
	readerCancel context.CancelFunc
	readerDone   chan struct{}
}

// NewStdioTransport creates a stdio transport for the given server command
func NewStdioTransport(command []string, timeout time.Duration) *StdioTransport {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &StdioTransport{
		command:     command,
		timeout:     timeout,
		pendingReqs: make(map[int]chan *JSONRPCResponse),
		nextID:      1,
		readerDone:  make(chan struct{}),
	}
}

// Start launches the subprocess and starts reading
func (t *StdioTransport) Start(ctx context.Context) error {
	if len(t.command) == 0 {
		return fmt.Errorf("command cannot be empty")
	}

	t.cmd = exec.CommandContext(ctx, t.command[0], t.command[1:]...)

	var err error
	t.stdin, err = t.cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("failed to create stdin pipe: %w", err)
	}

	t.stdout, err = t.cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to create stdout pipe: %w", err)
	}

	t.stderr, err = t.cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("failed to create stderr pipe: %w", err)
	}

	if err := t.cmd.Start(); err != nil {
		return fmt.Errorf("failed to start command: %w", err)
	}

	t.readerCtx, t.readerCancel = context.WithCancel(context.Background())
	go t.readLoop()
	go t.logStderr()

	return nil
}

// SendRequest sends a JSON-RPC request and waits for response
func (t *StdioTransport) SendRequest(ctx context.Context, method string, params interface{}) (json.RawMessage, error) {
	t.mu.Lock()
	id := t.nextID
	t.nextID++
	respChan := make(chan *JSONRPCResponse, 1)
	t.pendingReqs[id] = respChan
	t.mu.Unlock()

	defer func() {
		t.mu.Lock()
		delete(t.pendingReqs, id)
		t.mu.Unlock()
	}()

	req := JSONRPCRequest{
		JSONRPC: "2.0",
		ID:      id,
		Method:  method,
		Params:  params,
	}

	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	data = append(data, '\n')
	if _, err := t.stdin.Write(data); err != nil {
		return nil, fmt.Errorf("failed to write request: %w", err)
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	select {
	case resp := <-respChan:
		if resp.Error != nil {
			return nil, resp.Error
		}
		return resp.Result, nil
	case <-timeoutCtx.Done():
		return nil, fmt.Errorf("request timeout: %w", timeoutCtx.Err())
	case <-t.readerDone:
		return nil, fmt.Errorf("transport closed")
	}
}

// SendNotification sends a JSON-RPC notification (no response)
func (t *StdioTransport) SendNotification(ctx context.Context, method string, params interface{}) error {
	req := map[string]interface{}{
		"jsonrpc": "2.0",
		"method":  method,
	}
	if params != nil {
		req["params"] = params
	}

	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	data = append(data, '\n')
	if _, err := t.stdin.Write(data); err != nil {
		return fmt.Errorf("failed to write notification: %w", err)
	}

	return nil
}

// Close shuts down the transport
func (t *StdioTransport) Close() error {
	if t.readerCancel != nil {
		t.readerCancel()
	}

	// Closing stdin signals the server process to exit
	if t.stdin != nil {
		t.stdin.Close()
	}

	if t.cmd != nil && t.cmd.Process != nil {
		done := make(chan error, 1)
		go func() {
			done <- t.cmd.Wait()
		}()

		select {
		case <-done:
			// Process exited
		case <-time.After(5 * time.Second):
			t.cmd.Process.Kill()
		}
	}

	select {
	case <-t.readerDone:
	case <-time.After(1 * time.Second):
	}

	return nil
}

// readLoop continuously reads JSON-RPC responses from stdout
func (t *StdioTransport) readLoop() {
	defer close(t.readerDone)

	scanner := bufio.NewScanner(t.stdout)
	// Model payloads can be large
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	for scanner.Scan() {
		select {
		case <-t.readerCtx.Done():
			return
		default:
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var resp JSONRPCResponse
		if err := json.Unmarshal(line, &resp); err != nil {
			// Not a JSON-RPC message, skip
			continue
		}

		t.mu.Lock()
		if ch, ok := t.pendingReqs[resp.ID]; ok {
			ch <- &resp
		}
		t.mu.Unlock()
	}

	if err := scanner.Err(); err != nil {
		log.Printf("[Transport] error reading stdout: %v", err)
	}
}

// logStderr reads and logs stderr output from the model server
func (t *StdioTransport) logStderr() {
	scanner := bufio.NewScanner(t.stderr)
	for scanner.Scan() {
		log.Printf("[Server] %s", scanner.Text())
	}
}
