package gemini

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/zhe.chen/moodcanvas/internal/llm"
	"github.com/zhe.chen/moodcanvas/pkg/types"
)

// Provider implements llm.Provider for Google Gemini
type Provider struct {
	client     *genai.Client
	model      string
	imageModel string
	editModel  string
	timeout    time.Duration
	enabled    bool
}

// NewProvider creates a new Gemini provider
func NewProvider(config types.GoogleConfig) (*Provider, error) {
	if config.APIKey == "" {
		return &Provider{enabled: false}, nil
	}

	ctx := context.Background()
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: config.APIKey,
	})
	if err != nil {
		return nil, err
	}

	imageModel := config.ImageModel
	if imageModel == "" {
		imageModel = "imagen-3.0-generate-002"
	}
	editModel := config.EditModel
	if editModel == "" {
		editModel = "gemini-2.5-flash-image-preview"
	}

	return &Provider{
		client:     client,
		model:      config.Model,
		imageModel: imageModel,
		editModel:  editModel,
		timeout:    config.Timeout,
		enabled:    true,
	}, nil
}

// Name returns the provider name
func (p *Provider) Name() string {
	return "gemini"
}

// IsEnabled returns whether the provider is configured
func (p *Provider) IsEnabled() bool {
	return p.enabled
}

// GenerateCaption writes a caption for the source text and mood
func (p *Provider) GenerateCaption(ctx context.Context, sourceText string, labels []string, style string) (string, error) {
	if !p.enabled {
		return "", llm.ErrProviderDisabled
	}

	config := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{genai.NewPartFromText(llm.CaptionSystemPrompt)},
		},
	}

	chat, err := p.client.Chats.Create(ctx, p.model, config, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create chat: %w", err)
	}

	resp, err := chat.SendMessage(ctx, *genai.NewPartFromText(llm.CaptionPrompt(sourceText, labels, style)))
	if err != nil {
		return "", fmt.Errorf("Gemini API error: %w", err)
	}

	caption := strings.TrimSpace(resp.Text())
	if caption == "" {
		return "", fmt.Errorf("empty caption in response")
	}
	return caption, nil
}

// DescribeImage captions an image and proposes style tags
func (p *Provider) DescribeImage(ctx context.Context, imagePath string) (*types.ImageDescription, error) {
	if !p.enabled {
		return nil, llm.ErrProviderDisabled
	}

	imageBase64, mediaType, err := llm.ReadAndEncodeImage(imagePath)
	if err != nil {
		return nil, err
	}
	imageData, err := base64.StdEncoding.DecodeString(imageBase64)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	chat, err := p.client.Chats.Create(ctx, p.model, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat: %w", err)
	}

	resp, err := chat.SendMessage(ctx,
		*genai.NewPartFromBytes(imageData, mediaType),
		*genai.NewPartFromText(llm.DescribeImagePrompt),
	)
	if err != nil {
		return nil, fmt.Errorf("Gemini API error: %w", err)
	}

	return llm.ParseImageDescription(resp.Text())
}

// GenerateImage renders an image for the prompt via Imagen and returns the
// PNG bytes inline
func (p *Provider) GenerateImage(ctx context.Context, prompt string) (*llm.GeneratedImage, error) {
	if !p.enabled {
		return nil, llm.ErrProviderDisabled
	}

	resp, err := p.client.Models.GenerateImages(ctx, p.imageModel, prompt, &genai.GenerateImagesConfig{
		NumberOfImages: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("image API error: %w", err)
	}
	if len(resp.GeneratedImages) == 0 || resp.GeneratedImages[0].Image == nil {
		return nil, fmt.Errorf("no images in response")
	}

	return &llm.GeneratedImage{Data: resp.GeneratedImages[0].Image.ImageBytes}, nil
}

// EditImage edits the image at imagePath toward the prompt through the
// image-output chat model and returns the edited PNG bytes inline
func (p *Provider) EditImage(ctx context.Context, imagePath string, prompt string) (*llm.GeneratedImage, error) {
	if !p.enabled {
		return nil, llm.ErrProviderDisabled
	}

	imageBase64, mediaType, err := llm.ReadAndEncodeImage(imagePath)
	if err != nil {
		return nil, err
	}
	imageData, err := base64.StdEncoding.DecodeString(imageBase64)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	chat, err := p.client.Chats.Create(ctx, p.editModel, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat: %w", err)
	}

	resp, err := chat.SendMessage(ctx,
		*genai.NewPartFromBytes(imageData, mediaType),
		*genai.NewPartFromText(prompt),
	)
	if err != nil {
		return nil, fmt.Errorf("Gemini API error: %w", err)
	}

	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				return &llm.GeneratedImage{Data: part.InlineData.Data}, nil
			}
		}
	}
	return nil, fmt.Errorf("no image in response")
}
