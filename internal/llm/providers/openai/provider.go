package openai

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/zhe.chen/moodcanvas/internal/llm"
	"github.com/zhe.chen/moodcanvas/pkg/types"
)

// Provider implements llm.Provider for OpenAI and OpenAI-compatible
// endpoints (DeepSeek and friends via base_url)
type Provider struct {
	client     *openai.Client
	model      string
	imageModel string
	editModel  string
	timeout    time.Duration
	enabled    bool
}

// NewProvider creates a new OpenAI provider
func NewProvider(config types.OpenAIConfig) (*Provider, error) {
	if config.APIKey == "" {
		return &Provider{enabled: false}, nil
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}
	if config.Organization != "" {
		clientConfig.OrgID = config.Organization
	}

	imageModel := config.ImageModel
	if imageModel == "" {
		imageModel = openai.CreateImageModelDallE3
	}
	editModel := config.EditModel
	if editModel == "" {
		editModel = openai.CreateImageModelDallE2
	}

	return &Provider{
		client:     openai.NewClientWithConfig(clientConfig),
		model:      config.Model,
		imageModel: imageModel,
		editModel:  editModel,
		timeout:    config.Timeout,
		enabled:    true,
	}, nil
}

// Name returns the provider name
func (p *Provider) Name() string {
	return "openai"
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

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: llm.CaptionSystemPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: llm.CaptionPrompt(sourceText, labels, style),
			},
		},
		Temperature: 0.8,
		MaxTokens:   300,
	})
	if err != nil {
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// DescribeImage captions an image and proposes style tags via the vision API
func (p *Provider) DescribeImage(ctx context.Context, imagePath string) (*types.ImageDescription, error) {
	if !p.enabled {
		return nil, llm.ErrProviderDisabled
	}

	imageBase64, mediaType, err := llm.ReadAndEncodeImage(imagePath)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL: fmt.Sprintf("data:%s;base64,%s", mediaType, imageBase64),
						},
					},
					{
						Type: openai.ChatMessagePartTypeText,
						Text: llm.DescribeImagePrompt,
					},
				},
			},
		},
		MaxTokens: 300,
	})
	if err != nil {
		return nil, fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no choices in response")
	}

	return llm.ParseImageDescription(resp.Choices[0].Message.Content)
}

// GenerateImage renders an image for the prompt and returns its remote URL
func (p *Provider) GenerateImage(ctx context.Context, prompt string) (*llm.GeneratedImage, error) {
	if !p.enabled {
		return nil, llm.ErrProviderDisabled
	}

	resp, err := p.client.CreateImage(ctx, openai.ImageRequest{
		Model:          p.imageModel,
		Prompt:         prompt,
		N:              1,
		Size:           openai.CreateImageSize1024x1024,
		ResponseFormat: openai.CreateImageResponseFormatURL,
	})
	if err != nil {
		return nil, fmt.Errorf("image API error: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("no images in response")
	}

	return &llm.GeneratedImage{URL: resp.Data[0].URL}, nil
}

// EditImage edits the image at imagePath toward the prompt and returns the
// edited image's remote URL
func (p *Provider) EditImage(ctx context.Context, imagePath string, prompt string) (*llm.GeneratedImage, error) {
	if !p.enabled {
		return nil, llm.ErrProviderDisabled
	}

	file, err := os.Open(imagePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer file.Close()

	resp, err := p.client.CreateEditImage(ctx, openai.ImageEditRequest{
		Image:          openai.WrapReader(file, filepath.Base(imagePath), ""),
		Prompt:         prompt,
		Model:          p.editModel,
		N:              1,
		Size:           openai.CreateImageSize1024x1024,
		ResponseFormat: openai.CreateImageResponseFormatURL,
	})
	if err != nil {
		return nil, fmt.Errorf("image edit API error: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("no images in response")
	}

	return &llm.GeneratedImage{URL: resp.Data[0].URL}, nil
}
