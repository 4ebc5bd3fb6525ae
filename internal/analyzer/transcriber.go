package analyzer

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"time"

	"github.com/zhe.chen/moodcanvas/internal/client"
	"github.com/zhe.chen/moodcanvas/pkg/types"
)

// ToolTranscribe is the tool the ASR server must expose
const ToolTranscribe = "transcribe"

// Transcriber converts an audio file into plain text via the ASR model
// server
type Transcriber struct {
	client  client.MCPClient
	timeout time.Duration
	state   State
	reason  string
}

// NewTranscriber wraps an ASR model server client. A nil client marks the
// adapter unavailable; the pipeline continues without it.
func NewTranscriber(mcpClient client.MCPClient, timeout time.Duration) *Transcriber {
	t := &Transcriber{client: mcpClient, timeout: timeout, state: StateReady}
	if mcpClient == nil {
		t.state = StateUnavailable
		t.reason = "ASR model server not connected"
	}
	return t
}

// Analyze transcribes the audio file at audioPath
func (t *Transcriber) Analyze(ctx context.Context, audioPath string) Outcome {
	if t.state == StateUnavailable {
		return Failure(types.StageTranscribe, "transcriber unavailable: %s", t.reason)
	}

	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	result, err := t.client.CallTool(ctx, ToolTranscribe, map[string]interface{}{
		"audio_path": audioPath,
	})
	if err != nil {
		return Failure(types.StageTranscribe, "transcription failed: %v", err)
	}

	text := decodeTranscript(result)
	if text == "" {
		return Failure(types.StageTranscribe, "transcription produced no text")
	}

	log.Printf("[Transcriber] transcript: %d chars", len(text))
	return Outcome{
		Stage:      types.StageTranscribe,
		Status:     types.StatusSuccess,
		Transcript: text,
	}
}

// decodeTranscript extracts the transcript from the model payload. The ASR
// server replies either with a JSON object {"text": ...} or with the bare
// transcript string.
func decodeTranscript(result *types.ToolCallResult) string {
	raw := firstTextBlock(result)
	if raw == "" {
		return ""
	}

	var payload struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal([]byte(raw), &payload); err == nil && payload.Text != "" {
		return strings.TrimSpace(payload.Text)
	}
	if strings.HasPrefix(strings.TrimSpace(raw), "{") {
		// JSON object without a usable text field
		return ""
	}
	return strings.TrimSpace(raw)
}

// firstTextBlock returns the first text content block of a tool result
func firstTextBlock(result *types.ToolCallResult) string {
	if result == nil {
		return ""
	}
	for _, block := range result.Content {
		if block.Type == "text" {
			return block.Text
		}
	}
	return ""
}
