package llm

import (
	_ "embed"
	"strings"
)

var (
	//go:embed prompts/system.txt
	systemPrompt string
	//go:embed prompts/response_format.txt
	responseFormatPrompt string
)

// SystemInstructions returns the fixed persona preamble.
func SystemInstructions() string {
	return strings.TrimSpace(systemPrompt)
}

// ResponseFormat returns the fixed reply-shape block.
func ResponseFormat() string {
	return strings.TrimSpace(responseFormatPrompt)
}
