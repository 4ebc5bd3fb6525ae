package types

import "time"

// Config represents the application configuration
type Config struct {
	Servers  map[string]ServerConfig `yaml:"servers"`
	Pipeline PipelineConfig          `yaml:"pipeline"`
	LLM      LLMConfig               `yaml:"llm"`
}

// ServerConfig defines model-server connection parameters. Each analyzer
// model (ASR, audio emotion, text emotion) runs as an MCP tool server.
type ServerConfig struct {
	Name         string            `yaml:"name"`
	Command      []string          `yaml:"command"`           // For stdio transport
	URL          string            `yaml:"url"`               // For HTTP transport
	Transport    string            `yaml:"transport"`         // "stdio" or "http"
	Timeout      time.Duration     `yaml:"timeout"`
	Headers      map[string]string `yaml:"headers,omitempty"` // HTTP headers (e.g., Authorization)
	Capabilities struct {
		Tools []string `yaml:"tools"`
	} `yaml:"capabilities"`
}

// PipelineConfig defines pipeline execution parameters
type PipelineConfig struct {
	FusionStrategy   string        `yaml:"fusion_strategy"`   // "weighted", "max", "intersect"
	AnalyzerTimeout  time.Duration `yaml:"analyzer_timeout"`  // Per analyzer call
	SynthesisTimeout time.Duration `yaml:"synthesis_timeout"` // Caption + image generation
	OutputDir        string        `yaml:"output_dir"`
	TempDir          string        `yaml:"temp_dir"`
}

// LLMConfig defines the generative provider configuration
type LLMConfig struct {
	Provider string `yaml:"provider"` // "anthropic", "google", "openai"
	Style    string `yaml:"style"`    // Default caption style, optional

	// Provider-specific configurations
	Anthropic AnthropicConfig `yaml:"anthropic"`
	Google    GoogleConfig    `yaml:"google"`
	OpenAI    OpenAIConfig    `yaml:"openai"`
}

// AnthropicConfig for Claude
type AnthropicConfig struct {
	APIKey  string        `yaml:"api_key"`
	Model   string        `yaml:"model"` // e.g., "claude-3-5-sonnet-20241022"
	Timeout time.Duration `yaml:"timeout"`
}

// GoogleConfig for Gemini
type GoogleConfig struct {
	APIKey     string        `yaml:"api_key"`
	Model      string        `yaml:"model"`       // e.g., "gemini-2.0-flash-exp"
	ImageModel string        `yaml:"image_model"` // e.g., "imagen-3.0-generate-002"
	EditModel  string        `yaml:"edit_model"`  // e.g., "gemini-2.5-flash-image-preview"
	Timeout    time.Duration `yaml:"timeout"`
}

// OpenAIConfig for GPT models and OpenAI-compatible endpoints (e.g., DeepSeek)
type OpenAIConfig struct {
	APIKey       string        `yaml:"api_key"`
	BaseURL      string        `yaml:"base_url"`    // Optional, for compatible APIs
	Model        string        `yaml:"model"`       // e.g., "gpt-4o"
	ImageModel   string        `yaml:"image_model"` // e.g., "dall-e-3"
	EditModel    string        `yaml:"edit_model"`  // e.g., "dall-e-2" (the edits endpoint does not take dall-e-3)
	Organization string        `yaml:"organization"`
	Timeout      time.Duration `yaml:"timeout"`
}

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// ToolCallResult represents the result of a tool invocation
type ToolCallResult struct {
	Content []ContentBlock `json:"content"`
	IsError bool           `json:"isError"`
}

// ContentBlock represents a content item in tool result
type ContentBlock struct {
	Type string `json:"type"` // "text", "image", "resource"
	Text string `json:"text,omitempty"`
	Data string `json:"data,omitempty"`
	URI  string `json:"uri,omitempty"`
}

// PipelineInput describes one request: any non-empty subset of
// {audio, text, image}. TextSupplied distinguishes "text provided but empty"
// from "no text at all"; an empty supplied string is still a supplied modality.
type PipelineInput struct {
	AudioPath    string `json:"audio_path,omitempty"`
	Text         string `json:"text,omitempty"`
	TextSupplied bool   `json:"text_supplied"`
	ImagePath    string `json:"image_path,omitempty"`
	Style        string `json:"style,omitempty"` // Caption style preference
	OutputDir    string `json:"-"`
	TempDir      string `json:"-"`
}

// HasAudio reports whether an audio signal was supplied.
func (in PipelineInput) HasAudio() bool { return in.AudioPath != "" }

// HasText reports whether text was supplied, even if empty.
func (in PipelineInput) HasText() bool { return in.TextSupplied }

// HasImage reports whether an image was supplied.
func (in PipelineInput) HasImage() bool { return in.ImagePath != "" }

// Stage identifies one step of the pipeline
type Stage string

const (
	StageTranscribe    Stage = "transcribe"
	StageAudioEmotion  Stage = "audio_emotion"
	StageTextEmotion   Stage = "text_emotion"
	StageDescribeImage Stage = "describe_image"
	StageFuse          Stage = "fuse"
	StageSynthesize    Stage = "synthesize"
)

// StageOrder is the canonical reporting order for stage outcomes
var StageOrder = []Stage{
	StageTranscribe,
	StageAudioEmotion,
	StageTextEmotion,
	StageDescribeImage,
	StageFuse,
	StageSynthesize,
}

// StageStatus represents the settled status of a stage
type StageStatus string

const (
	StatusSuccess StageStatus = "success"
	StatusFailure StageStatus = "failure"
	StatusSkipped StageStatus = "skipped"
)

// ImageDescription is the ImageDescriber payload: a caption usable as source
// text plus style tags that join emotion fusion as the image modality.
type ImageDescription struct {
	Caption   string   `json:"caption"`
	StyleTags []string `json:"style_tags,omitempty"`
}
