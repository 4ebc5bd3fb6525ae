package analyzer

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/zhe.chen/moodcanvas/internal/client"
	"github.com/zhe.chen/moodcanvas/internal/emotion"
	"github.com/zhe.chen/moodcanvas/pkg/types"
)

// ToolClassifyText is the tool the text emotion server must expose
const ToolClassifyText = "classify_text"

// TextEmotionClassifier maps a text string to ranked emotion labels via the
// text classification model server
type TextEmotionClassifier struct {
	client  client.MCPClient
	timeout time.Duration
	state   State
	reason  string
}

// NewTextEmotionClassifier wraps a text emotion model server client
func NewTextEmotionClassifier(mcpClient client.MCPClient, timeout time.Duration) *TextEmotionClassifier {
	c := &TextEmotionClassifier{client: mcpClient, timeout: timeout, state: StateReady}
	if mcpClient == nil {
		c.state = StateUnavailable
		c.reason = "text emotion model server not connected"
	}
	return c
}

// Analyze classifies the emotion of text. Empty or whitespace-only input is
// rejected here, before any model call.
func (c *TextEmotionClassifier) Analyze(ctx context.Context, text string) Outcome {
	if strings.TrimSpace(text) == "" {
		return Failure(types.StageTextEmotion, "empty text")
	}
	if c.state == StateUnavailable {
		return Failure(types.StageTextEmotion, "text emotion classifier unavailable: %s", c.reason)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	result, err := c.client.CallTool(ctx, ToolClassifyText, map[string]interface{}{
		"text": text,
	})
	if err != nil {
		return Failure(types.StageTextEmotion, "text emotion analysis failed: %v", err)
	}

	contribs := normalizeTextEmotion(firstTextBlock(result))
	if len(contribs) == 0 {
		return Failure(types.StageTextEmotion, "text emotion payload had no recognizable labels")
	}

	return Outcome{
		Stage:         types.StageTextEmotion,
		Status:        types.StatusSuccess,
		Contributions: contribs,
	}
}

// normalizeTextEmotion converts the classifier payload, a ranked JSON list
// of {label, score} entries, into contributions. Labels outside the
// vocabulary are dropped, at most three are kept, and a missing score
// defaults to emotion.DefaultScore.
func normalizeTextEmotion(raw string) []emotion.Contribution {
	if raw == "" {
		return nil
	}

	var entries []struct {
		Label string   `json:"label"`
		Score *float64 `json:"score"`
	}
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil
	}

	var contribs []emotion.Contribution
	for _, e := range entries {
		if len(contribs) >= maxLabelsPerModality {
			break
		}
		if !emotion.IsTextLabel(e.Label) {
			continue
		}
		score := emotion.DefaultScore
		if e.Score != nil {
			score = *e.Score
		}
		contribs = append(contribs, emotion.Contribution{
			Label:  e.Label,
			Score:  score,
			Source: emotion.ModalityText,
		})
	}

	return contribs
}
