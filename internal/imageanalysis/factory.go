package imageanalysis

import (
	"fmt"
	"strings"
	"time"
)

type Config struct {
	Provider        string
	Model           string
	OpenAIAPIKey    string
	OpenAIBaseURL   string
	AnthropicAPIKey string
	Timeout         time.Duration
}

// New selects an analyzer by provider name. A blank or "none" provider
// yields the Placeholder.
func New(cfg Config) (Analyzer, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", "none":
		return Placeholder{}, nil
	case "openai":
		return NewOpenAIAnalyzer(cfg.OpenAIAPIKey, cfg.Model, cfg.OpenAIBaseURL, cfg.Timeout)
	case "anthropic":
		return NewAnthropicAnalyzer(cfg.AnthropicAPIKey, cfg.Model, cfg.Timeout)
	default:
		return nil, fmt.Errorf("unsupported IMAGE_ANALYZER_PROVIDER %q", cfg.Provider)
	}
}
