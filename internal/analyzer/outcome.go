// Package analyzer wraps the per-modality models behind a uniform adapter
// contract: every invocation settles into an Outcome, never an error that
// crosses the adapter boundary.
package analyzer

import (
	"fmt"

	"github.com/zhe.chen/moodcanvas/internal/emotion"
	"github.com/zhe.chen/moodcanvas/pkg/types"
)

// Outcome is the settled result of one analyzer stage within a run. Exactly
// one of the payload fields is set, matching the stage, and only on success.
type Outcome struct {
	Stage  types.Stage       `json:"stage"`
	Status types.StageStatus `json:"status"`
	Reason string            `json:"reason,omitempty"`

	Transcript    string                 `json:"transcript,omitempty"`
	Contributions []emotion.Contribution `json:"contributions,omitempty"`
	Description   *types.ImageDescription `json:"description,omitempty"`
}

// OK reports whether the stage succeeded.
func (o Outcome) OK() bool {
	return o.Status == types.StatusSuccess
}

// Failure builds a failed outcome with a human-readable reason
func Failure(stage types.Stage, format string, args ...interface{}) Outcome {
	return Outcome{
		Stage:  stage,
		Status: types.StatusFailure,
		Reason: fmt.Sprintf(format, args...),
	}
}

// Skipped builds a skipped outcome (modality input absent or dependency
// unavailable)
func Skipped(stage types.Stage, reason string) Outcome {
	return Outcome{
		Stage:  stage,
		Status: types.StatusSkipped,
		Reason: reason,
	}
}

// State tracks adapter readiness. An adapter whose model server failed to
// come up moves to Unavailable and fails every call without attempting
// inference.
type State string

const (
	StateReady       State = "ready"
	StateUnavailable State = "unavailable"
)
