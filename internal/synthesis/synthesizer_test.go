package synthesis

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/zhe.chen/moodcanvas/internal/llm"
	"github.com/zhe.chen/moodcanvas/pkg/types"
)

type fakeProvider struct {
	caption string
	err     error
	enabled bool
}

func (f *fakeProvider) Name() string    { return "fake" }
func (f *fakeProvider) IsEnabled() bool { return f.enabled }
func (f *fakeProvider) GenerateCaption(ctx context.Context, sourceText string, labels []string, style string) (string, error) {
	return f.caption, f.err
}
func (f *fakeProvider) DescribeImage(ctx context.Context, imagePath string) (*types.ImageDescription, error) {
	return nil, errors.New("not used")
}

type fakeImages struct {
	img *llm.GeneratedImage
	err error
}

func (f *fakeImages) GenerateImage(ctx context.Context, prompt string) (*llm.GeneratedImage, error) {
	return f.img, f.err
}

type fakeEditor struct {
	img        *llm.GeneratedImage
	err        error
	calls      int
	lastPath   string
	lastPrompt string
}

func (f *fakeEditor) EditImage(ctx context.Context, imagePath string, prompt string) (*llm.GeneratedImage, error) {
	f.calls++
	f.lastPath = imagePath
	f.lastPrompt = prompt
	return f.img, f.err
}

func TestSynthesizeSuccess(t *testing.T) {
	dir := t.TempDir()
	s := NewSynthesizer(
		&fakeProvider{enabled: true, caption: "golden light, loud heart"},
		&fakeImages{img: &llm.GeneratedImage{Data: []byte("png-bytes")}},
		nil,
		dir,
		time.Second,
	)

	content, err := s.Synthesize(context.Background(), "best day ever", []string{"happy"}, "", "")
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}
	if content.Caption != "golden light, loud heart" {
		t.Errorf("caption = %q", content.Caption)
	}
	if content.Fallback {
		t.Error("fallback flag set on successful generation")
	}
	if content.ImagePath == "" || filepath.Dir(content.ImagePath) != dir {
		t.Errorf("image not written to output dir: %q", content.ImagePath)
	}
}

// TestSynthesizeFallbackCaption verifies the named fallback branch: the
// caption is deterministic, non-empty, and the failure is reported
func TestSynthesizeFallbackCaption(t *testing.T) {
	s := NewSynthesizer(
		&fakeProvider{enabled: true, err: errors.New("api down")},
		nil,
		nil,
		t.TempDir(),
		time.Second,
	)

	first, err := s.Synthesize(context.Background(), "rainy monday", []string{"sad", "neutral"}, "", "")
	if err == nil {
		t.Fatal("expected error when caption generation fails")
	}
	if !first.Fallback || first.Caption == "" {
		t.Fatalf("expected non-empty fallback caption, got %+v", first)
	}
	if !strings.Contains(first.Caption, "sad, neutral") || !strings.Contains(first.Caption, "rainy monday") {
		t.Errorf("fallback caption %q is missing mood or source text", first.Caption)
	}

	second, _ := s.Synthesize(context.Background(), "rainy monday", []string{"sad", "neutral"}, "", "")
	if second.Caption != first.Caption {
		t.Errorf("fallback caption is not deterministic: %q vs %q", second.Caption, first.Caption)
	}
}

func TestSynthesizeDisabledProvider(t *testing.T) {
	s := NewSynthesizer(&fakeProvider{enabled: false}, nil, nil, t.TempDir(), time.Second)

	content, err := s.Synthesize(context.Background(), "", []string{"neutral"}, "", "")
	if err == nil {
		t.Fatal("expected error for disabled provider")
	}
	if content.Caption == "" {
		t.Error("expected fallback caption for disabled provider")
	}
}

func TestSynthesizeImageFailureKeepsCaption(t *testing.T) {
	s := NewSynthesizer(
		&fakeProvider{enabled: true, caption: "still standing"},
		&fakeImages{err: errors.New("render farm offline")},
		nil,
		t.TempDir(),
		time.Second,
	)

	content, err := s.Synthesize(context.Background(), "tough week", []string{"sad"}, "", "")
	if err == nil {
		t.Fatal("expected image error to surface")
	}
	if content.Caption != "still standing" {
		t.Errorf("caption lost on image failure: %q", content.Caption)
	}
}

// TestSynthesizeEditsSuppliedImage verifies the image-to-image path: when
// the run's input includes an image and the provider can edit, the supplied
// image is edited toward the mood instead of a fresh render
func TestSynthesizeEditsSuppliedImage(t *testing.T) {
	dir := t.TempDir()
	images := &fakeImages{img: &llm.GeneratedImage{Data: []byte("fresh-render")}}
	editor := &fakeEditor{img: &llm.GeneratedImage{Data: []byte("edited-bytes")}}
	s := NewSynthesizer(
		&fakeProvider{enabled: true, caption: "same street, softer light"},
		images,
		editor,
		dir,
		time.Second,
	)

	content, err := s.Synthesize(context.Background(), "quiet evening", []string{"serene"}, "", "photo.png")
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}
	if editor.calls != 1 || editor.lastPath != "photo.png" {
		t.Errorf("editor calls=%d lastPath=%q, want one call on the supplied image", editor.calls, editor.lastPath)
	}
	if !strings.Contains(editor.lastPrompt, "serene") || !strings.Contains(editor.lastPrompt, "quiet evening") {
		t.Errorf("edit prompt %q is missing mood or source text", editor.lastPrompt)
	}
	if !content.Edited {
		t.Error("content not marked as edited")
	}
	if content.ImagePath == "" || filepath.Dir(content.ImagePath) != dir {
		t.Errorf("edited image not written to output dir: %q", content.ImagePath)
	}
	if data, _ := os.ReadFile(content.ImagePath); string(data) != "edited-bytes" {
		t.Errorf("saved image holds %q, want the edited bytes", data)
	}
}

func TestSynthesizeEditFailureFallsBackToGeneration(t *testing.T) {
	editor := &fakeEditor{err: errors.New("edit endpoint down")}
	s := NewSynthesizer(
		&fakeProvider{enabled: true, caption: "c"},
		&fakeImages{img: &llm.GeneratedImage{Data: []byte("fresh-render")}},
		editor,
		t.TempDir(),
		time.Second,
	)

	content, err := s.Synthesize(context.Background(), "hi", []string{"happy"}, "", "photo.png")
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}
	if editor.calls != 1 {
		t.Errorf("editor calls = %d", editor.calls)
	}
	if content.Edited {
		t.Error("fallback render must not be marked as edited")
	}
	if content.ImagePath == "" {
		t.Error("expected generated image after edit failure")
	}
}

func TestSynthesizeNoInputImageGenerates(t *testing.T) {
	editor := &fakeEditor{img: &llm.GeneratedImage{Data: []byte("edited-bytes")}}
	s := NewSynthesizer(
		&fakeProvider{enabled: true, caption: "c"},
		&fakeImages{img: &llm.GeneratedImage{Data: []byte("fresh-render")}},
		editor,
		t.TempDir(),
		time.Second,
	)

	content, err := s.Synthesize(context.Background(), "hi", []string{"happy"}, "", "")
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}
	if editor.calls != 0 {
		t.Errorf("editor must not run without an input image, calls = %d", editor.calls)
	}
	if content.Edited {
		t.Error("content wrongly marked as edited")
	}
}

func TestFallbackCaption(t *testing.T) {
	tests := []struct {
		name     string
		source   string
		labels   []string
		contains []string
	}{
		{
			name:     "source and labels",
			source:   "today was good",
			labels:   []string{"happy", "joy"},
			contains: []string{"happy, joy", "today was good"},
		},
		{
			name:     "empty source",
			source:   "",
			labels:   []string{"neutral"},
			contains: []string{"neutral"},
		},
		{
			name:     "no labels",
			source:   "hello",
			labels:   nil,
			contains: []string{"neutral", "hello"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FallbackCaption(tt.source, tt.labels)
			if got == "" {
				t.Fatal("fallback caption is empty")
			}
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("caption %q does not contain %q", got, want)
				}
			}
		})
	}
}
