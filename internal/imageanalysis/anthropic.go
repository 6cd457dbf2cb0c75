package imageanalysis

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"skincare-backend/internal/profile"
)

const DefaultAnthropicModel = "claude-sonnet-4-5"

type AnthropicMessager interface {
	New(ctx context.Context, params anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

type AnthropicAnalyzer struct {
	messages AnthropicMessager
	model    string
}

func NewAnthropicAnalyzer(apiKey, model string, timeout time.Duration) (*AnthropicAnalyzer, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY is required for image analysis")
	}
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(timeout))
	}
	c := anthropic.NewClient(opts...)
	return newAnthropicAnalyzer(&c.Messages, model), nil
}

func newAnthropicAnalyzer(messages AnthropicMessager, model string) *AnthropicAnalyzer {
	if strings.TrimSpace(model) == "" {
		model = DefaultAnthropicModel
	}
	return &AnthropicAnalyzer{messages: messages, model: model}
}

func (a *AnthropicAnalyzer) Analyze(ctx context.Context, image []byte, mimeType string) (profile.ImageAnalysis, error) {
	resp, err := a.messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: 512,
		System:    []anthropic.TextBlockParam{{Text: systemPrompt}},
		Messages: []anthropic.MessageParam{anthropic.NewUserMessage(
			anthropic.NewImageBlockBase64(mimeType, base64.StdEncoding.EncodeToString(image)),
			anthropic.NewTextBlock(userPrompt),
		)},
		Temperature: anthropic.Float(0),
	})
	if err != nil {
		return profile.ImageAnalysis{}, &AnalyzerError{Provider: "anthropic", Err: err}
	}
	var sb strings.Builder
	for _, b := range resp.Content {
		if b.Type == "text" {
			sb.WriteString(b.Text)
		}
	}
	analysis, err := decode(sb.String())
	if err != nil {
		return profile.ImageAnalysis{}, &AnalyzerError{Provider: "anthropic", Err: err}
	}
	return analysis, nil
}
