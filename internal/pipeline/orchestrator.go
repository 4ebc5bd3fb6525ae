// Package pipeline sequences the per-modality analyzers, fuses their
// emotion proposals, and invokes content synthesis, isolating every analyzer
// failure so one broken model never aborts a run.
package pipeline

import (
	"context"
	"errors"
	"log"
	"os"
	"strings"
	"sync"

	"github.com/zhe.chen/moodcanvas/internal/analyzer"
	"github.com/zhe.chen/moodcanvas/internal/emotion"
	"github.com/zhe.chen/moodcanvas/internal/synthesis"
	"github.com/zhe.chen/moodcanvas/pkg/types"
)

// ErrNoInput is the single fatal precondition: a request with no modality at
// all
var ErrNoInput = errors.New("no input: at least one of audio, text, or image is required")

// Transcriber converts an audio file into text
type Transcriber interface {
	Analyze(ctx context.Context, audioPath string) analyzer.Outcome
}

// AudioEmotionClassifier maps an audio file to emotion contributions
type AudioEmotionClassifier interface {
	Analyze(ctx context.Context, audioPath string) analyzer.Outcome
}

// TextEmotionClassifier maps text to emotion contributions
type TextEmotionClassifier interface {
	Analyze(ctx context.Context, text string) analyzer.Outcome
}

// ImageDescriber captions an image and derives style tags
type ImageDescriber interface {
	Analyze(ctx context.Context, imagePath string) analyzer.Outcome
}

// ContentSynthesizer produces a caption and image for the fused mood.
// sourceImagePath is the run's input image when one was supplied, so the
// synthesizer can edit it toward the mood instead of rendering from scratch.
type ContentSynthesizer interface {
	Synthesize(ctx context.Context, sourceText string, labels []string, style string, sourceImagePath string) (*synthesis.Content, error)
}

// Orchestrator executes one pipeline run at a time over a fixed set of
// analyzers. The analyzers hold the only long-lived state (their model
// connections) and are safe for concurrent runs; everything per-run lives on
// the Run the orchestrator exclusively owns.
type Orchestrator struct {
	transcriber Transcriber
	audio       AudioEmotionClassifier
	text        TextEmotionClassifier
	image       ImageDescriber
	synth       ContentSynthesizer
	strategy    emotion.Strategy
}

// NewOrchestrator creates a pipeline orchestrator
func NewOrchestrator(
	transcriber Transcriber,
	audio AudioEmotionClassifier,
	text TextEmotionClassifier,
	image ImageDescriber,
	synth ContentSynthesizer,
	strategy emotion.Strategy,
) *Orchestrator {
	return &Orchestrator{
		transcriber: transcriber,
		audio:       audio,
		text:        text,
		image:       image,
		synth:       synth,
		strategy:    strategy,
	}
}

// ValidateInput checks the single fatal precondition
func ValidateInput(input types.PipelineInput) error {
	if !input.HasAudio() && !input.HasText() && !input.HasImage() {
		return ErrNoInput
	}
	return nil
}

// Execute runs the full pipeline for one input. The returned error is
// non-nil only for the no-input precondition; every analyzer or synthesis
// failure is recorded on the run, which always reaches a terminal,
// consistent state with a non-empty fused emotion set.
func (o *Orchestrator) Execute(ctx context.Context, input types.PipelineInput, runID string) (*Run, error) {
	if err := ValidateInput(input); err != nil {
		return nil, err
	}

	run := NewRun(runID, input, o.strategy)
	log.Printf("[Pipeline] run %s: audio=%v text=%v image=%v", runID, input.HasAudio(), input.HasText(), input.HasImage())

	// Uploaded media is per-run scoped. Both the analyzers and image-edit
	// synthesis consume it, so it is dropped only once the whole run settles,
	// whatever the stage outcomes.
	if input.TempDir != "" {
		defer func() {
			if err := os.RemoveAll(input.TempDir); err != nil {
				log.Printf("[Pipeline] warning: failed to clean temp dir %s: %v", input.TempDir, err)
			}
		}()
	}

	transcribeOut := analyzer.Skipped(types.StageTranscribe, "no audio input")
	audioOut := analyzer.Skipped(types.StageAudioEmotion, "no audio input")
	textOut := analyzer.Skipped(types.StageTextEmotion, "no text input")
	imageOut := analyzer.Skipped(types.StageDescribeImage, "no image input")

	// Independent branches run concurrently; each writes its own outcome
	// variable and all are joined before fusion. The transcript-fed text
	// classification is sequential within the audio branch since it depends
	// on the transcript, but only when no explicit text was supplied.
	var wg sync.WaitGroup

	if input.HasAudio() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			transcribeOut = o.transcriber.Analyze(ctx, input.AudioPath)
			if !input.HasText() {
				if transcribeOut.OK() {
					textOut = o.text.Analyze(ctx, transcribeOut.Transcript)
				} else {
					textOut = analyzer.Skipped(types.StageTextEmotion, "transcript unavailable")
				}
			}
		}()

		wg.Add(1)
		go func() {
			defer wg.Done()
			audioOut = o.audio.Analyze(ctx, input.AudioPath)
		}()
	}

	if input.HasText() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			textOut = o.text.Analyze(ctx, input.Text)
		}()
	}

	if input.HasImage() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			imageOut = o.image.Analyze(ctx, input.ImagePath)
		}()
	}

	wg.Wait()

	run.SetOutcome(transcribeOut)
	run.SetOutcome(audioOut)
	run.SetOutcome(textOut)
	run.SetOutcome(imageOut)

	// Fusion runs over every Success contribution, in modality evaluation
	// order: audio emotion, text emotion, image-derived tags.
	var contribs []emotion.Contribution
	for _, out := range []analyzer.Outcome{audioOut, textOut, imageOut} {
		if out.OK() {
			contribs = append(contribs, out.Contributions...)
		}
	}
	run.FusedEmotions = emotion.Fuse(contribs, o.strategy)
	run.SetOutcome(analyzer.Outcome{Stage: types.StageFuse, Status: types.StatusSuccess})
	log.Printf("[Pipeline] run %s: fused emotions %v (%d contributions)", runID, run.FusedEmotions, len(contribs))

	run.SourceText, run.SourceOrigin = sourceText(input, transcribeOut, imageOut)

	content, err := o.synth.Synthesize(ctx, run.SourceText, run.FusedEmotions, input.Style, input.ImagePath)
	if err != nil {
		run.SetOutcome(analyzer.Failure(types.StageSynthesize, "synthesis degraded: %v", err))
	} else {
		run.SetOutcome(analyzer.Outcome{Stage: types.StageSynthesize, Status: types.StatusSuccess})
	}
	if content == nil {
		// Every run carries usable content, even when synthesis errored.
		content = &synthesis.Content{
			Caption:  synthesis.FallbackCaption(run.SourceText, run.FusedEmotions),
			Fallback: true,
		}
	}
	run.Content = content

	run.Finalize()

	if input.OutputDir != "" {
		if path, err := run.Save(input.OutputDir); err != nil {
			log.Printf("[Pipeline] warning: failed to save run record: %v", err)
		} else {
			log.Printf("[Pipeline] run record saved: %s", path)
		}
	}

	return run, nil
}

// sourceText picks the canonical text for synthesis: explicit text input,
// then transcribed audio, then the image caption, then empty.
func sourceText(input types.PipelineInput, transcribe, image analyzer.Outcome) (string, string) {
	if input.HasText() && strings.TrimSpace(input.Text) != "" {
		return input.Text, "text"
	}
	if transcribe.OK() && transcribe.Transcript != "" {
		return transcribe.Transcript, "audio"
	}
	if image.OK() && image.Description != nil && image.Description.Caption != "" {
		return image.Description.Caption, "image"
	}
	return "", ""
}
