package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/zhe.chen/moodcanvas/internal/analyzer"
	"github.com/zhe.chen/moodcanvas/internal/client"
	"github.com/zhe.chen/moodcanvas/internal/emotion"
	"github.com/zhe.chen/moodcanvas/internal/llm"
	"github.com/zhe.chen/moodcanvas/internal/llm/providers/claude"
	"github.com/zhe.chen/moodcanvas/internal/llm/providers/gemini"
	"github.com/zhe.chen/moodcanvas/internal/llm/providers/openai"
	"github.com/zhe.chen/moodcanvas/internal/pipeline"
	"github.com/zhe.chen/moodcanvas/internal/synthesis"
	"github.com/zhe.chen/moodcanvas/pkg/types"
)

const (
	defaultAnalyzerTimeout  = 60 * time.Second
	defaultSynthesisTimeout = 120 * time.Second
)

// createLLMProvider creates the appropriate LLM provider based on configuration
func createLLMProvider(config types.LLMConfig) (llm.Provider, error) {
	switch config.Provider {
	case "anthropic", "claude":
		return claude.NewProvider(config.Anthropic)

	case "google", "gemini":
		return gemini.NewProvider(config.Google)

	case "openai", "deepseek":
		return openai.NewProvider(config.OpenAI)

	case "":
		return nil, fmt.Errorf("llm.provider not specified in config")

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s (supported: anthropic, google, openai)", config.Provider)
	}
}

func main() {
	// Load .env file (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Parse command-line flags
	var (
		configPath = flag.String("config", "configs/moodcanvas.yaml", "Path to configuration file")
		audioPath  = flag.String("audio", "", "Path to input audio file")
		text       = flag.String("text", "", "Input text")
		imagePath  = flag.String("image", "", "Path to input image")
		style      = flag.String("style", "", "Caption style (default: from config)")
		strategy   = flag.String("strategy", "", "Fusion strategy: weighted, max, intersect (default: from config)")
		runID      = flag.String("id", "", "Run ID (default: auto-generate)")
		outputDir  = flag.String("output", "output", "Output directory for generated files")
	)
	flag.Parse()

	textSupplied := flagPassed("text")
	if *audioPath == "" && !textSupplied && *imagePath == "" {
		log.Fatal("Error: at least one of --audio, --text, or --image is required")
	}

	// Setup signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Println("Received interrupt signal, shutting down...")
		cancel()
	}()

	// Load configuration
	config, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if *strategy == "" {
		*strategy = config.Pipeline.FusionStrategy
	}
	fusion, err := emotion.ParseStrategy(*strategy)
	if err != nil {
		log.Fatalf("Invalid fusion strategy: %v", err)
	}

	if *style == "" {
		*style = config.LLM.Style
	}

	if *runID == "" {
		*runID = uuid.New().String()
	}

	analyzerTimeout := config.Pipeline.AnalyzerTimeout
	if analyzerTimeout <= 0 {
		analyzerTimeout = defaultAnalyzerTimeout
	}
	synthesisTimeout := config.Pipeline.SynthesisTimeout
	if synthesisTimeout <= 0 {
		synthesisTimeout = defaultSynthesisTimeout
	}

	outDir, tempDir := resolveDirs(config.Pipeline, *outputDir, flagPassed("output"), *runID)

	log.Printf("Starting moodcanvas")
	log.Printf("Run ID: %s", *runID)
	log.Printf("Fusion Strategy: %s", fusion)
	log.Printf("Output Directory: %s", outDir)

	// Create output directory if it doesn't exist
	if err := os.MkdirAll(outDir, 0755); err != nil {
		log.Fatalf("Failed to create output directory: %v", err)
	}

	// Create temporary directory for intermediate files
	if err := os.MkdirAll(tempDir, 0755); err != nil {
		log.Fatalf("Failed to create temporary directory: %v", err)
	}

	// Connect to the model servers actually needed by the supplied
	// modalities. A server that fails to come up leaves its analyzer
	// unavailable instead of aborting the whole run.
	var asrClient, audioEmotionClient client.MCPClient
	if *audioPath != "" {
		asrClient = connectModelServer(ctx, config.Servers["asr"], "asr")
		if asrClient != nil {
			defer asrClient.Close()
		}
		audioEmotionClient = connectModelServer(ctx, config.Servers["audio_emotion"], "audio_emotion")
		if audioEmotionClient != nil {
			defer audioEmotionClient.Close()
		}
	}

	var textEmotionClient client.MCPClient
	if *audioPath != "" || textSupplied {
		textEmotionClient = connectModelServer(ctx, config.Servers["text_emotion"], "text_emotion")
		if textEmotionClient != nil {
			defer textEmotionClient.Close()
		}
	}

	// Initialize LLM provider
	log.Printf("[LLM] Initializing provider: %s...", config.LLM.Provider)
	llmProvider, err := createLLMProvider(config.LLM)
	if err != nil {
		log.Fatalf("Failed to create LLM provider: %v", err)
	}
	if llmProvider.IsEnabled() {
		log.Printf("[LLM] %s enabled", llmProvider.Name())
	} else {
		log.Printf("[LLM] %s disabled (no API key), synthesis will use fallback captions", llmProvider.Name())
	}

	// Image generation and editing are provider-dependent; a provider
	// without them still serves captions and vision.
	images, _ := llmProvider.(llm.ImageGenerator)
	if images == nil {
		log.Printf("[LLM] %s does not support image generation, runs will produce captions only", llmProvider.Name())
	}
	editor, _ := llmProvider.(llm.ImageEditor)
	if editor == nil && *imagePath != "" {
		log.Printf("[LLM] %s does not support image editing, the input image will only be described", llmProvider.Name())
	}

	orch := pipeline.NewOrchestrator(
		analyzer.NewTranscriber(asrClient, analyzerTimeout),
		analyzer.NewAudioEmotionClassifier(audioEmotionClient, analyzerTimeout),
		analyzer.NewTextEmotionClassifier(textEmotionClient, analyzerTimeout),
		analyzer.NewImageDescriber(llmProvider, analyzerTimeout),
		synthesis.NewSynthesizer(llmProvider, images, editor, outDir, synthesisTimeout),
		fusion,
	)

	input := types.PipelineInput{
		AudioPath:    *audioPath,
		Text:         *text,
		TextSupplied: textSupplied,
		ImagePath:    *imagePath,
		Style:        *style,
		OutputDir:    outDir,
		TempDir:      tempDir,
	}

	log.Println("Starting pipeline execution...")
	run, err := orch.Execute(ctx, input, *runID)
	if err != nil {
		log.Fatalf("Pipeline execution failed: %v", err)
	}

	// Display results
	log.Println("\n=== Run Completed ===")
	for _, stage := range types.StageOrder {
		out := run.Outcome(stage)
		if out.Reason != "" {
			log.Printf("%-15s %s (%s)", stage, out.Status, out.Reason)
		} else {
			log.Printf("%-15s %s", stage, out.Status)
		}
	}
	log.Printf("Fused Emotions: %v", run.FusedEmotions)
	if run.SourceOrigin != "" {
		log.Printf("Source Text (%s): %s", run.SourceOrigin, run.SourceText)
	}
	log.Printf("Caption: %s", run.Content.Caption)
	if run.Content.ImagePath != "" {
		log.Printf("Image: %s", run.Content.ImagePath)
	}
	log.Println("=====================")
}

// flagPassed reports whether a flag was explicitly set on the command line.
// Needed for --text, where an explicit empty string is still a supplied
// modality.
func flagPassed(name string) bool {
	passed := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			passed = true
		}
	})
	return passed
}

// resolveDirs picks the output and per-run temp directories. An explicit
// --output flag wins; otherwise pipeline.output_dir from the config;
// otherwise the flag default. The temp base comes from pipeline.temp_dir
// when set.
func resolveDirs(cfg types.PipelineConfig, flagOutput string, outputFlagSet bool, runID string) (string, string) {
	outputDir := flagOutput
	if !outputFlagSet && cfg.OutputDir != "" {
		outputDir = cfg.OutputDir
	}

	tempBase := cfg.TempDir
	if tempBase == "" {
		tempBase = ".moodcanvas_tmp"
	}
	return outputDir, filepath.Join(tempBase, runID)
}

// loadConfig reads and parses the YAML configuration file
func loadConfig(path string) (*types.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Expand environment variables in the config file
	expandedData := os.ExpandEnv(string(data))

	var config types.Config
	if err := yaml.Unmarshal([]byte(expandedData), &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &config, nil
}

// connectModelServer creates, connects, and validates one model-server
// client. Any failure is logged and yields nil, leaving the corresponding
// analyzer unavailable.
func connectModelServer(ctx context.Context, config types.ServerConfig, name string) client.MCPClient {
	log.Printf("Connecting to %s server...", name)

	mcpClient, err := client.CreateClient(config)
	if err != nil {
		log.Printf("Warning: failed to create %s client: %v", name, err)
		return nil
	}

	if err := mcpClient.Connect(ctx); err != nil {
		log.Printf("Warning: %s connection failed: %v", name, err)
		return nil
	}

	if err := mcpClient.Initialize(ctx); err != nil {
		mcpClient.Close()
		log.Printf("Warning: %s initialization failed: %v", name, err)
		return nil
	}

	serverName, serverVersion := mcpClient.GetServerInfo()
	log.Printf("Connected to %s v%s", serverName, serverVersion)

	tools, err := mcpClient.ListTools(ctx)
	if err != nil {
		mcpClient.Close()
		log.Printf("Warning: failed to list %s tools: %v", name, err)
		return nil
	}
	if err := client.ValidateTools(tools, config.Capabilities.Tools); err != nil {
		mcpClient.Close()
		log.Printf("Warning: %s server validation failed: %v", name, err)
		return nil
	}

	return mcpClient
}
