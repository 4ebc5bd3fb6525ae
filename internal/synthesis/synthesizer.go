// Package synthesis turns a source text and a fused emotion set into a
// caption and a matching image.
package synthesis

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zhe.chen/moodcanvas/internal/llm"
)

// Content is the synthesized result. Caption is always non-empty: when the
// generative backend is down it carries the templated fallback and Fallback
// is set. Edited marks an image derived from the user's input image instead
// of rendered from scratch.
type Content struct {
	Caption   string `json:"caption"`
	ImageURL  string `json:"image_url,omitempty"`
	ImagePath string `json:"image_path,omitempty"`
	Edited    bool   `json:"edited_image,omitempty"`
	Fallback  bool   `json:"fallback_caption,omitempty"`
}

// Synthesizer produces content through a caption provider and, when one is
// available, an image-capable provider.
type Synthesizer struct {
	provider   llm.Provider
	images     llm.ImageGenerator // nil when the provider cannot render images
	editor     llm.ImageEditor    // nil when the provider cannot edit images
	outputDir  string
	timeout    time.Duration
	httpClient *http.Client
}

// NewSynthesizer creates a content synthesizer. images and editor may be nil.
func NewSynthesizer(provider llm.Provider, images llm.ImageGenerator, editor llm.ImageEditor, outputDir string, timeout time.Duration) *Synthesizer {
	return &Synthesizer{
		provider:   provider,
		images:     images,
		editor:     editor,
		outputDir:  outputDir,
		timeout:    timeout,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// Synthesize generates a caption and an image for the source text and fused
// labels. When sourceImagePath names the user's input image and the provider
// can edit, the image is edited toward the mood instead of rendered from
// scratch. The returned Content is always usable; the error reports what
// part of generation failed, if any, so the caller can record a stage
// failure while still returning the content.
func (s *Synthesizer) Synthesize(ctx context.Context, sourceText string, labels []string, style string, sourceImagePath string) (*Content, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	content := &Content{}
	var errs []error

	caption, err := s.generateCaption(ctx, sourceText, labels, style)
	if err != nil {
		log.Printf("[Synthesizer] caption generation failed, using fallback: %v", err)
		caption = FallbackCaption(sourceText, labels)
		content.Fallback = true
		errs = append(errs, fmt.Errorf("caption: %w", err))
	}
	content.Caption = caption

	if err := s.produceImage(ctx, sourceText, labels, sourceImagePath, content); err != nil {
		log.Printf("[Synthesizer] image synthesis failed: %v", err)
		errs = append(errs, fmt.Errorf("image: %w", err))
	}

	return content, errors.Join(errs...)
}

// produceImage prefers editing the user's input image toward the mood; when
// no image was supplied or the provider cannot edit, it falls back to
// text-to-image generation. An edit failure also falls back to generation so
// the run still gets an image whenever any backend can produce one.
func (s *Synthesizer) produceImage(ctx context.Context, sourceText string, labels []string, sourceImagePath string, content *Content) error {
	if sourceImagePath != "" && s.editor != nil {
		err := s.editImage(ctx, sourceText, labels, sourceImagePath, content)
		if err == nil {
			return nil
		}
		log.Printf("[Synthesizer] image edit failed, falling back to generation: %v", err)
	}
	return s.generateImage(ctx, sourceText, labels, content)
}

func (s *Synthesizer) editImage(ctx context.Context, sourceText string, labels []string, sourceImagePath string, content *Content) error {
	prompt := llm.EditImagePrompt(sourceText, labels)
	img, err := s.editor.EditImage(ctx, sourceImagePath, prompt)
	if err != nil {
		return err
	}

	if err := s.storeImage(ctx, img, content); err != nil {
		return err
	}
	content.Edited = true
	return nil
}

func (s *Synthesizer) generateCaption(ctx context.Context, sourceText string, labels []string, style string) (string, error) {
	if s.provider == nil || !s.provider.IsEnabled() {
		return "", llm.ErrProviderDisabled
	}
	return s.provider.GenerateCaption(ctx, sourceText, labels, style)
}

func (s *Synthesizer) generateImage(ctx context.Context, sourceText string, labels []string, content *Content) error {
	if s.images == nil {
		return llm.ErrImageGenerationUnsupported
	}

	prompt := llm.ImagePrompt(sourceText, labels, content.Caption)
	img, err := s.images.GenerateImage(ctx, prompt)
	if err != nil {
		return err
	}

	return s.storeImage(ctx, img, content)
}

// storeImage records the backend's result on the content and materializes it
// in the output dir, downloading first when the backend returned a hosted URL
func (s *Synthesizer) storeImage(ctx context.Context, img *llm.GeneratedImage, content *Content) error {
	content.ImageURL = img.URL

	data := img.Data
	if data == nil && img.URL != "" {
		var err error
		data, err = s.download(ctx, img.URL)
		if err != nil {
			// The remote URL is still returned to the caller
			return fmt.Errorf("download failed: %w", err)
		}
	}
	if data == nil {
		return fmt.Errorf("image backend returned neither URL nor data")
	}

	path, err := s.saveImage(data)
	if err != nil {
		return err
	}
	content.ImagePath = path
	return nil
}

// download fetches a generated image before its hosted URL expires
func (s *Synthesizer) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return io.ReadAll(resp.Body)
}

func (s *Synthesizer) saveImage(data []byte) (string, error) {
	if err := os.MkdirAll(s.outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	path := filepath.Join(s.outputDir, fmt.Sprintf("mood_%s.png", uuid.New().String()))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write image: %w", err)
	}
	return path, nil
}

// FallbackCaption deterministically templates a caption from the source text
// and fused labels so the pipeline always returns usable text, even with the
// generative backend down.
func FallbackCaption(sourceText string, labels []string) string {
	mood := strings.Join(labels, ", ")
	if mood == "" {
		mood = "neutral"
	}

	source := strings.TrimSpace(sourceText)
	if source == "" {
		return fmt.Sprintf("A moment carried by a %s mood.", mood)
	}
	return fmt.Sprintf("In a mood of %s, %q takes on a life of its own.", mood, source)
}
