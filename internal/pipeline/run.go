package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/zhe.chen/moodcanvas/internal/analyzer"
	"github.com/zhe.chen/moodcanvas/internal/emotion"
	"github.com/zhe.chen/moodcanvas/internal/synthesis"
	"github.com/zhe.chen/moodcanvas/pkg/types"
)

// Run aggregates everything produced by one end-to-end invocation: the input
// descriptors, per-stage outcomes, the fused emotion set, and the synthesized
// content. It is exclusively owned by the orchestrator while executing and
// becomes the response payload once finalized.
type Run struct {
	ID          string    `json:"run_id"`
	CreatedAt   time.Time `json:"created_at"`
	CompletedAt time.Time `json:"completed_at,omitempty"`
	Status      string    `json:"status"`

	Input types.PipelineInput `json:"input"`

	// Per-stage outcome summaries, keyed by stage; see types.StageOrder
	// for the canonical reporting order.
	Outcomes map[types.Stage]analyzer.Outcome `json:"stages"`

	// SourceText is the canonical text used for synthesis and
	// SourceOrigin says where it came from ("text", "audio", "image").
	SourceText   string `json:"source_text"`
	SourceOrigin string `json:"source_origin,omitempty"`

	FusionStrategy emotion.Strategy `json:"fusion_strategy"`
	FusedEmotions  []string         `json:"fused_emotions"`

	Content *synthesis.Content `json:"generated_content,omitempty"`
}

// RunStatusCompleted is the terminal state of every run that got past input
// validation; analyzer failures never change it.
const RunStatusCompleted = "completed"

// NewRun creates a run record for one invocation
func NewRun(runID string, input types.PipelineInput, strategy emotion.Strategy) *Run {
	return &Run{
		ID:             runID,
		CreatedAt:      time.Now(),
		Status:         "running",
		Input:          input,
		Outcomes:       make(map[types.Stage]analyzer.Outcome),
		FusionStrategy: strategy,
	}
}

// SetOutcome records a settled stage outcome
func (r *Run) SetOutcome(o analyzer.Outcome) {
	r.Outcomes[o.Stage] = o
}

// Outcome returns the recorded outcome for a stage
func (r *Run) Outcome(stage types.Stage) analyzer.Outcome {
	return r.Outcomes[stage]
}

// Finalize marks the run completed
func (r *Run) Finalize() {
	r.Status = RunStatusCompleted
	r.CompletedAt = time.Now()
}

// Save writes the run record to dir atomically and returns its path
func (r *Run) Save(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal run record: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("run_%s.json", r.ID))
	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write run record: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return "", fmt.Errorf("failed to rename run record: %w", err)
	}

	return path, nil
}
