package claude

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/zhe.chen/moodcanvas/internal/llm"
	"github.com/zhe.chen/moodcanvas/pkg/types"
)

// Provider implements llm.Provider for Anthropic Claude. Claude handles
// captions and image description; it has no image generation model, so the
// synthesizer pairs it with a fallback or another image backend.
type Provider struct {
	client  anthropic.Client
	model   string
	timeout time.Duration
	enabled bool
}

// NewProvider creates a new Claude provider
func NewProvider(config types.AnthropicConfig) (*Provider, error) {
	if config.APIKey == "" {
		return &Provider{enabled: false}, nil
	}

	return &Provider{
		client:  anthropic.NewClient(option.WithAPIKey(config.APIKey)),
		model:   config.Model,
		timeout: config.Timeout,
		enabled: true,
	}, nil
}

// Name returns the provider name
func (p *Provider) Name() string {
	return "anthropic"
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

	response, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: 300,
		System: []anthropic.TextBlockParam{
			{Text: llm.CaptionSystemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(llm.CaptionPrompt(sourceText, labels, style))),
		},
	})
	if err != nil {
		return "", fmt.Errorf("Claude API error: %w", err)
	}

	caption := strings.TrimSpace(extractText(response))
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

	response, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: 300,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(
				anthropic.NewImageBlockBase64(mediaType, imageBase64),
				anthropic.NewTextBlock(llm.DescribeImagePrompt),
			),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("Claude API error: %w", err)
	}

	return llm.ParseImageDescription(extractText(response))
}

// extractText concatenates the text blocks of a Claude response
func extractText(response *anthropic.Message) string {
	var result string
	for _, content := range response.Content {
		if content.Type == "text" {
			result += content.Text
		}
	}
	return result
}
