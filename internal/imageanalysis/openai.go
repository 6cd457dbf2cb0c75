package imageanalysis

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/invopop/jsonschema"
	openai "github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/openai/openai-go/v2/shared"

	"skincare-backend/internal/profile"
)

const DefaultOpenAIModel = "gpt-4o-mini"

// ChatCompleter is the slice of the OpenAI client the analyzer needs.
type ChatCompleter interface {
	New(ctx context.Context, body openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error)
}

type OpenAIAnalyzer struct {
	completions ChatCompleter
	model       string
}

// NewOpenAIAnalyzer builds an analyzer backed by OpenAI vision models.
// baseURL may point at any OpenAI-compatible server.
func NewOpenAIAnalyzer(apiKey, model, baseURL string, timeout time.Duration) (*OpenAIAnalyzer, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required for image analysis")
	}
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(timeout))
	}
	if strings.TrimSpace(baseURL) != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	client := openai.NewClient(opts...)
	return newOpenAIAnalyzer(&client.Chat.Completions, model), nil
}

func newOpenAIAnalyzer(completions ChatCompleter, model string) *OpenAIAnalyzer {
	if strings.TrimSpace(model) == "" {
		model = DefaultOpenAIModel
	}
	return &OpenAIAnalyzer{completions: completions, model: model}
}

func (a *OpenAIAnalyzer) Analyze(ctx context.Context, image []byte, mimeType string) (profile.ImageAnalysis, error) {
	dataURI := "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(image)
	resp, err := a.completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
				openai.TextContentPart(userPrompt),
				openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{URL: dataURI}),
			}),
		},
		Model:          shared.ChatModel(a.model),
		ResponseFormat: analysisSchema(),
		Temperature:    openai.Float(0),
	})
	if err != nil {
		return profile.ImageAnalysis{}, &AnalyzerError{Provider: "openai", Err: err}
	}
	if len(resp.Choices) == 0 {
		return profile.ImageAnalysis{}, &AnalyzerError{Provider: "openai", Err: fmt.Errorf("no choices in response")}
	}
	analysis, err := decode(resp.Choices[0].Message.Content)
	if err != nil {
		return profile.ImageAnalysis{}, &AnalyzerError{Provider: "openai", Err: err}
	}
	return analysis, nil
}

func analysisSchema() openai.ChatCompletionNewParamsResponseFormatUnion {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	schema := reflector.Reflect(rawAnalysis{})
	return openai.ChatCompletionNewParamsResponseFormatUnion{
		OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
			JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
				Name:        "skin_analysis",
				Description: openai.String("visible skin type and concerns"),
				Schema:      schema,
				Strict:      openai.Bool(true),
			},
		},
	}
}
