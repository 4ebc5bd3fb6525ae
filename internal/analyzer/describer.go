package analyzer

import (
	"context"
	"time"

	"github.com/zhe.chen/moodcanvas/internal/emotion"
	"github.com/zhe.chen/moodcanvas/internal/llm"
	"github.com/zhe.chen/moodcanvas/pkg/types"
)

// ImageDescriber captions an image and derives style tags through the
// configured vision-capable provider. The tags join emotion fusion as the
// image modality; the caption can serve as source text when no text or
// audio was supplied.
type ImageDescriber struct {
	provider llm.Provider
	timeout  time.Duration
	state    State
	reason   string
}

// NewImageDescriber wraps a vision-capable provider. A disabled provider
// marks the adapter unavailable.
func NewImageDescriber(provider llm.Provider, timeout time.Duration) *ImageDescriber {
	d := &ImageDescriber{provider: provider, timeout: timeout, state: StateReady}
	if provider == nil || !provider.IsEnabled() {
		d.state = StateUnavailable
		d.reason = "no vision provider configured"
	}
	return d
}

// Analyze describes the image at imagePath
func (d *ImageDescriber) Analyze(ctx context.Context, imagePath string) Outcome {
	if d.state == StateUnavailable {
		return Failure(types.StageDescribeImage, "image describer unavailable: %s", d.reason)
	}

	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	desc, err := d.provider.DescribeImage(ctx, imagePath)
	if err != nil {
		return Failure(types.StageDescribeImage, "image description failed: %v", err)
	}

	var contribs []emotion.Contribution
	for _, tag := range desc.StyleTags {
		contribs = append(contribs, emotion.Contribution{
			Label:  tag,
			Score:  emotion.DefaultScore,
			Source: emotion.ModalityImage,
		})
	}

	return Outcome{
		Stage:         types.StageDescribeImage,
		Status:        types.StatusSuccess,
		Description:   desc,
		Contributions: contribs,
	}
}
