package analyzer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/zhe.chen/moodcanvas/internal/client"
	"github.com/zhe.chen/moodcanvas/internal/emotion"
	"github.com/zhe.chen/moodcanvas/pkg/types"
)

// ToolClassifyEmotion is the tool the acoustic emotion server must expose
const ToolClassifyEmotion = "classify_emotion"

// maxLabelsPerModality caps how many labels one analyzer contributes
const maxLabelsPerModality = 3

// AudioEmotionClassifier maps an audio file to ranked emotion labels via the
// emotion2vec model server
type AudioEmotionClassifier struct {
	client  client.MCPClient
	timeout time.Duration
	state   State
	reason  string
}

// NewAudioEmotionClassifier wraps an acoustic emotion model server client
func NewAudioEmotionClassifier(mcpClient client.MCPClient, timeout time.Duration) *AudioEmotionClassifier {
	c := &AudioEmotionClassifier{client: mcpClient, timeout: timeout, state: StateReady}
	if mcpClient == nil {
		c.state = StateUnavailable
		c.reason = "audio emotion model server not connected"
	}
	return c
}

// rawAudioEmotion is the model's payload. Depending on model version the
// server replies with a single numeric id or a ranked list of them.
type rawAudioEmotion struct {
	Emotion  *int `json:"emotion"`
	Emotions []struct {
		Emotion *int     `json:"emotion"`
		Score   *float64 `json:"score"`
	} `json:"emotions"`
}

// Analyze classifies the emotion of the audio file at audioPath
func (c *AudioEmotionClassifier) Analyze(ctx context.Context, audioPath string) Outcome {
	if c.state == StateUnavailable {
		return Failure(types.StageAudioEmotion, "audio emotion classifier unavailable: %s", c.reason)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	result, err := c.client.CallTool(ctx, ToolClassifyEmotion, map[string]interface{}{
		"audio_path": audioPath,
	})
	if err != nil {
		return Failure(types.StageAudioEmotion, "audio emotion analysis failed: %v", err)
	}

	contribs := normalizeAudioEmotion(firstTextBlock(result))
	if len(contribs) == 0 {
		return Failure(types.StageAudioEmotion, "audio emotion payload had no recognizable labels")
	}

	return Outcome{
		Stage:         types.StageAudioEmotion,
		Status:        types.StatusSuccess,
		Contributions: contribs,
	}
}

// normalizeAudioEmotion converts the model's numeric-id payload into label
// contributions: ids are resolved through the emotion2vec table, unknown ids
// are dropped, at most three labels are kept, and a missing score defaults
// to emotion.DefaultScore. A single "emotion" id takes precedence and the
// "emotions" list is ignored when a payload carries both.
func normalizeAudioEmotion(raw string) []emotion.Contribution {
	if raw == "" {
		return nil
	}

	var payload rawAudioEmotion
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil
	}

	var contribs []emotion.Contribution
	appendID := func(id int, score *float64) {
		if len(contribs) >= maxLabelsPerModality {
			return
		}
		label, ok := emotion.AudioLabel(id)
		if !ok {
			return
		}
		s := emotion.DefaultScore
		if score != nil {
			s = *score
		}
		contribs = append(contribs, emotion.Contribution{
			Label:  label,
			Score:  s,
			Source: emotion.ModalityAudio,
		})
	}

	if payload.Emotion != nil {
		appendID(*payload.Emotion, nil)
		return contribs
	}
	for _, e := range payload.Emotions {
		if e.Emotion != nil {
			appendID(*e.Emotion, e.Score)
		}
	}

	return contribs
}
