// Package llm abstracts the generative backends used for image description
// and content synthesis.
package llm

import (
	"context"
	"errors"

	"github.com/zhe.chen/moodcanvas/pkg/types"
)

// ErrProviderDisabled is returned by provider calls when no API key was
// configured. Callers degrade rather than abort.
var ErrProviderDisabled = errors.New("llm provider not configured")

// ErrImageGenerationUnsupported is returned by providers whose backend has
// no image model (e.g. Claude).
var ErrImageGenerationUnsupported = errors.New("provider does not support image generation")

// Provider abstracts different LLM providers (Claude, Gemini, OpenAI)
type Provider interface {
	// Name returns the provider name
	Name() string

	// IsEnabled returns whether the provider is configured with valid credentials
	IsEnabled() bool

	// GenerateCaption writes a short caption for sourceText colored by the
	// fused emotion labels. style is optional.
	GenerateCaption(ctx context.Context, sourceText string, labels []string, style string) (string, error)

	// DescribeImage captions the image at path and proposes style tags
	DescribeImage(ctx context.Context, imagePath string) (*types.ImageDescription, error)
}

// ImageGenerator is implemented by providers whose backend can render an
// image from a text prompt. Exactly one of the returned URL or Data is set.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt string) (*GeneratedImage, error)
}

// ImageEditor is implemented by providers whose backend can edit an existing
// image toward a text prompt (image-to-image). Used when the pipeline input
// itself includes an image, so the result stays grounded in the user's photo
// instead of being rendered from scratch.
type ImageEditor interface {
	EditImage(ctx context.Context, imagePath string, prompt string) (*GeneratedImage, error)
}

// GeneratedImage is one rendered image, either hosted remotely or returned
// inline by the backend
type GeneratedImage struct {
	URL  string // Remote location, download before the link expires
	Data []byte // Inline PNG bytes
}

// NewProvider factory lives in cmd/moodcanvas/main.go to avoid import cycles.
// Each provider package (providers/claude, providers/gemini, providers/openai)
// exports a NewProvider function that main.go calls directly.
