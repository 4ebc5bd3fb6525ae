package analyzer

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/zhe.chen/moodcanvas/internal/emotion"
	"github.com/zhe.chen/moodcanvas/pkg/types"
)

// fakeModelServer implements client.MCPClient with canned tool responses
type fakeModelServer struct {
	responses map[string]string // tool name -> text payload
	err       error
	block     bool // hold the call until the context ends
	lastTool  string
	lastArgs  map[string]interface{}
}

func (f *fakeModelServer) Connect(ctx context.Context) error    { return nil }
func (f *fakeModelServer) Initialize(ctx context.Context) error { return nil }
func (f *fakeModelServer) Close() error                         { return nil }
func (f *fakeModelServer) GetServerInfo() (string, string)      { return "fake", "1.0.0" }
func (f *fakeModelServer) ListTools(ctx context.Context) ([]types.Tool, error) {
	return nil, nil
}

func (f *fakeModelServer) CallTool(ctx context.Context, name string, arguments map[string]interface{}) (*types.ToolCallResult, error) {
	f.lastTool = name
	f.lastArgs = arguments
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.err != nil {
		return nil, f.err
	}
	return &types.ToolCallResult{
		Content: []types.ContentBlock{{Type: "text", Text: f.responses[name]}},
	}, nil
}

func TestTranscriber(t *testing.T) {
	tests := []struct {
		name       string
		payload    string
		callErr    error
		wantStatus types.StageStatus
		wantText   string
	}{
		{
			name:       "json payload",
			payload:    `{"text": "今天很开心"}`,
			wantStatus: types.StatusSuccess,
			wantText:   "今天很开心",
		},
		{
			name:       "bare text payload",
			payload:    "what a lovely day\n",
			wantStatus: types.StatusSuccess,
			wantText:   "what a lovely day",
		},
		{
			name:       "empty transcript",
			payload:    `{"text": "  "}`,
			wantStatus: types.StatusFailure,
		},
		{
			name:       "model error",
			callErr:    errors.New("model crashed"),
			wantStatus: types.StatusFailure,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeModelServer{
				responses: map[string]string{ToolTranscribe: tt.payload},
				err:       tt.callErr,
			}
			tr := NewTranscriber(fake, time.Second)

			outcome := tr.Analyze(context.Background(), "/tmp/sample.wav")
			if outcome.Status != tt.wantStatus {
				t.Fatalf("status = %s (%s), want %s", outcome.Status, outcome.Reason, tt.wantStatus)
			}
			if outcome.Transcript != tt.wantText {
				t.Errorf("transcript = %q, want %q", outcome.Transcript, tt.wantText)
			}
			if fake.lastTool != ToolTranscribe {
				t.Errorf("called tool %q, want %q", fake.lastTool, ToolTranscribe)
			}
		})
	}
}

func TestTranscriberUnavailable(t *testing.T) {
	tr := NewTranscriber(nil, time.Second)
	outcome := tr.Analyze(context.Background(), "/tmp/sample.wav")
	if outcome.Status != types.StatusFailure {
		t.Fatalf("status = %s, want failure", outcome.Status)
	}
	if !strings.Contains(outcome.Reason, "unavailable") {
		t.Errorf("reason %q does not mention unavailability", outcome.Reason)
	}
}

func TestTranscriberTimeout(t *testing.T) {
	fake := &fakeModelServer{block: true}
	tr := NewTranscriber(fake, 50*time.Millisecond)

	start := time.Now()
	outcome := tr.Analyze(context.Background(), "/tmp/sample.wav")
	if outcome.Status != types.StatusFailure {
		t.Fatalf("status = %s, want failure", outcome.Status)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("timeout took %v, expected prompt failure", elapsed)
	}
}

func TestAudioEmotionNormalization(t *testing.T) {
	tests := []struct {
		name       string
		payload    string
		wantStatus types.StageStatus
		wantLabels []string
		wantScores []float64
	}{
		{
			name:       "single id payload",
			payload:    `{"emotion": 3}`,
			wantStatus: types.StatusSuccess,
			wantLabels: []string{"happy"},
			wantScores: []float64{0.8},
		},
		{
			name:       "ranked list payload",
			payload:    `{"emotions": [{"emotion": 3, "score": 0.9}, {"emotion": 6, "score": 0.4}]}`,
			wantStatus: types.StatusSuccess,
			wantLabels: []string{"happy", "sad"},
			wantScores: []float64{0.9, 0.4},
		},
		{
			name:       "missing score defaults",
			payload:    `{"emotions": [{"emotion": 0}]}`,
			wantStatus: types.StatusSuccess,
			wantLabels: []string{"angry"},
			wantScores: []float64{0.8},
		},
		{
			name:       "list truncated to three",
			payload:    `{"emotions": [{"emotion": 0}, {"emotion": 3}, {"emotion": 6}, {"emotion": 7}]}`,
			wantStatus: types.StatusSuccess,
			wantLabels: []string{"angry", "happy", "sad"},
			wantScores: []float64{0.8, 0.8, 0.8},
		},
		{
			name:       "id eight is unknown",
			payload:    `{"emotion": 8}`,
			wantStatus: types.StatusSuccess,
			wantLabels: []string{"unknown"},
			wantScores: []float64{0.8},
		},
		{
			name:       "single id takes precedence over list",
			payload:    `{"emotion": 3, "emotions": [{"emotion": 6, "score": 0.9}]}`,
			wantStatus: types.StatusSuccess,
			wantLabels: []string{"happy"},
			wantScores: []float64{0.8},
		},
		{
			name:       "out of range ids dropped",
			payload:    `{"emotions": [{"emotion": 42}]}`,
			wantStatus: types.StatusFailure,
		},
		{
			name:       "garbage payload",
			payload:    `not json`,
			wantStatus: types.StatusFailure,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeModelServer{
				responses: map[string]string{ToolClassifyEmotion: tt.payload},
			}
			c := NewAudioEmotionClassifier(fake, time.Second)

			outcome := c.Analyze(context.Background(), "/tmp/sample.wav")
			if outcome.Status != tt.wantStatus {
				t.Fatalf("status = %s (%s), want %s", outcome.Status, outcome.Reason, tt.wantStatus)
			}
			if len(outcome.Contributions) != len(tt.wantLabels) {
				t.Fatalf("got %d contributions, want %d: %v", len(outcome.Contributions), len(tt.wantLabels), outcome.Contributions)
			}
			for i, contrib := range outcome.Contributions {
				if contrib.Label != tt.wantLabels[i] || contrib.Score != tt.wantScores[i] {
					t.Errorf("contribution %d = (%q, %v), want (%q, %v)", i, contrib.Label, contrib.Score, tt.wantLabels[i], tt.wantScores[i])
				}
				if contrib.Source != emotion.ModalityAudio {
					t.Errorf("contribution %d source = %s, want %s", i, contrib.Source, emotion.ModalityAudio)
				}
			}
		})
	}
}

func TestTextEmotionNormalization(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		payload    string
		wantStatus types.StageStatus
		wantLabels []string
	}{
		{
			name:       "ranked labels",
			text:       "what a day",
			payload:    `[{"label": "joy", "score": 0.7}, {"label": "optimism", "score": 0.2}]`,
			wantStatus: types.StatusSuccess,
			wantLabels: []string{"joy", "optimism"},
		},
		{
			name:       "labels outside vocabulary dropped",
			text:       "hm",
			payload:    `[{"label": "happy"}, {"label": "joy"}]`,
			wantStatus: types.StatusSuccess,
			wantLabels: []string{"joy"},
		},
		{
			name:       "empty text rejected before model call",
			text:       "   ",
			wantStatus: types.StatusFailure,
		},
		{
			name:       "no usable labels",
			text:       "hm",
			payload:    `[{"label": "happy"}]`,
			wantStatus: types.StatusFailure,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeModelServer{
				responses: map[string]string{ToolClassifyText: tt.payload},
			}
			c := NewTextEmotionClassifier(fake, time.Second)

			outcome := c.Analyze(context.Background(), tt.text)
			if outcome.Status != tt.wantStatus {
				t.Fatalf("status = %s (%s), want %s", outcome.Status, outcome.Reason, tt.wantStatus)
			}
			var labels []string
			for _, contrib := range outcome.Contributions {
				labels = append(labels, contrib.Label)
				if contrib.Source != emotion.ModalityText {
					t.Errorf("source = %s, want %s", contrib.Source, emotion.ModalityText)
				}
			}
			if strings.Join(labels, ",") != strings.Join(tt.wantLabels, ",") {
				t.Errorf("labels = %v, want %v", labels, tt.wantLabels)
			}
		})
	}
}

func TestTextEmotionEmptyTextSkipsModel(t *testing.T) {
	fake := &fakeModelServer{}
	c := NewTextEmotionClassifier(fake, time.Second)

	c.Analyze(context.Background(), "")
	if fake.lastTool != "" {
		t.Errorf("model was called with tool %q for empty text", fake.lastTool)
	}
}

// fakeVision implements llm.Provider for describer tests
type fakeVision struct {
	desc    *types.ImageDescription
	err     error
	enabled bool
}

func (f *fakeVision) Name() string    { return "fake" }
func (f *fakeVision) IsEnabled() bool { return f.enabled }
func (f *fakeVision) GenerateCaption(ctx context.Context, sourceText string, labels []string, style string) (string, error) {
	return "", errors.New("not used")
}
func (f *fakeVision) DescribeImage(ctx context.Context, imagePath string) (*types.ImageDescription, error) {
	return f.desc, f.err
}

func TestImageDescriber(t *testing.T) {
	provider := &fakeVision{
		enabled: true,
		desc: &types.ImageDescription{
			Caption:   "a quiet beach at dusk",
			StyleTags: []string{"serene", "melancholy"},
		},
	}
	d := NewImageDescriber(provider, time.Second)

	outcome := d.Analyze(context.Background(), "/tmp/pic.jpg")
	if !outcome.OK() {
		t.Fatalf("status = %s (%s), want success", outcome.Status, outcome.Reason)
	}
	if outcome.Description.Caption != "a quiet beach at dusk" {
		t.Errorf("caption = %q", outcome.Description.Caption)
	}
	if len(outcome.Contributions) != 2 || outcome.Contributions[0].Source != emotion.ModalityImage {
		t.Errorf("unexpected contributions: %v", outcome.Contributions)
	}
}

func TestImageDescriberUnavailable(t *testing.T) {
	d := NewImageDescriber(&fakeVision{enabled: false}, time.Second)
	outcome := d.Analyze(context.Background(), "/tmp/pic.jpg")
	if outcome.Status != types.StatusFailure {
		t.Fatalf("status = %s, want failure", outcome.Status)
	}
}
