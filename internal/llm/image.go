package llm

import (
	"encoding/base64"
	"fmt"
	"os"
	"strings"
)

// ReadAndEncodeImage reads an image file and converts it to base64
func ReadAndEncodeImage(imagePath string) (string, string, error) {
	data, err := os.ReadFile(imagePath)
	if err != nil {
		return "", "", fmt.Errorf("failed to read image: %w", err)
	}

	mediaType := detectMediaType(imagePath)
	encoded := base64.StdEncoding.EncodeToString(data)

	return encoded, mediaType, nil
}

// detectMediaType returns the media type based on file extension
func detectMediaType(path string) string {
	lower := strings.ToLower(path)

	if strings.HasSuffix(lower, ".png") {
		return "image/png"
	}
	if strings.HasSuffix(lower, ".jpg") || strings.HasSuffix(lower, ".jpeg") {
		return "image/jpeg"
	}
	if strings.HasSuffix(lower, ".gif") {
		return "image/gif"
	}
	if strings.HasSuffix(lower, ".webp") {
		return "image/webp"
	}

	// Default to JPEG
	return "image/jpeg"
}
