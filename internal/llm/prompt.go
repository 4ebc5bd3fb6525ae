package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/zhe.chen/moodcanvas/pkg/types"
)

// CaptionSystemPrompt sets up the caption writer persona used by every
// provider
const CaptionSystemPrompt = `You are a social media caption writer with years of experience turning a short note and a mood into an evocative one- or two-sentence caption. Reply with the caption only, no preamble, no quotation marks.`

// CaptionPrompt builds the user prompt for caption generation
func CaptionPrompt(sourceText string, labels []string, style string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Original text: %s\n", sourceText)
	fmt.Fprintf(&b, "Detected mood: %s\n", strings.Join(labels, ", "))
	if style != "" {
		fmt.Fprintf(&b, "Requested style: %s\n", style)
	}
	b.WriteString("Write a caption that matches the mood.")
	return b.String()
}

// DescribeImagePrompt asks a vision model for a caption plus style tags in a
// machine-readable shape
const DescribeImagePrompt = `Describe this image for a mood analysis pipeline. Respond with JSON only, no markdown fences, in exactly this shape:
{"caption": "<one sentence describing the scene>", "style_tags": ["<up to three single-word mood or style tags, e.g. happy, serene, gloomy>"]}`

// ParseImageDescription decodes a vision model reply, tolerating markdown
// code fences around the JSON
func ParseImageDescription(reply string) (*types.ImageDescription, error) {
	cleaned := strings.TrimSpace(reply)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var desc types.ImageDescription
	if err := json.Unmarshal([]byte(cleaned), &desc); err != nil {
		return nil, fmt.Errorf("failed to parse image description: %w", err)
	}
	if desc.Caption == "" {
		return nil, fmt.Errorf("image description has no caption")
	}
	return &desc, nil
}

// ImagePrompt builds the text-to-image prompt from the source text, the
// fused emotion labels, and the generated caption
func ImagePrompt(sourceText string, labels []string, caption string) string {
	mood := strings.Join(labels, ", ")
	return fmt.Sprintf("An illustration matching the caption %q, inspired by the words %q, in a mood of %s. No text in the image.", caption, sourceText, mood)
}

// EditImagePrompt builds the image-to-image instruction: restyle the supplied
// image toward the fused mood, anchored by the source text when one exists
func EditImagePrompt(sourceText string, labels []string) string {
	mood := strings.Join(labels, ", ")
	if strings.TrimSpace(sourceText) == "" {
		return fmt.Sprintf("Restyle this image so its lighting, color palette, and atmosphere express a %s mood. Keep the subject and composition intact. No text in the image.", mood)
	}
	return fmt.Sprintf("Based on the words %q and the mood %s, restyle this image so its lighting, color palette, and atmosphere match. Keep the subject and composition intact. No text in the image.", sourceText, mood)
}
