package imageanalysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"skincare-backend/internal/profile"
)

// Analyzer reads a skin photo and suggests a skin type and concerns.
type Analyzer interface {
	Analyze(ctx context.Context, image []byte, mimeType string) (profile.ImageAnalysis, error)
}

var (
	ErrNotConfigured = errors.New("image analysis is not configured")
	ErrEmptyAnalysis = errors.New("image analysis returned nothing usable")
)

// AnalyzerError wraps any analyzer failure so callers can treat them alike.
type AnalyzerError struct {
	Provider string
	Err      error
}

func (e *AnalyzerError) Error() string {
	return fmt.Sprintf("image analysis (%s): %v", e.Provider, e.Err)
}

func (e *AnalyzerError) Unwrap() error {
	return e.Err
}

// Placeholder is used when no vision provider is configured.
type Placeholder struct{}

func (Placeholder) Analyze(ctx context.Context, image []byte, mimeType string) (profile.ImageAnalysis, error) {
	return profile.ImageAnalysis{}, &AnalyzerError{Provider: "none", Err: ErrNotConfigured}
}

var skinTypes = map[string]struct{}{
	"normal":      {},
	"dry":         {},
	"oily":        {},
	"combination": {},
	"sensitive":   {},
}

// rawAnalysis is the JSON shape providers are asked to return.
type rawAnalysis struct {
	SkinType        string   `json:"skin_type" jsonschema:"enum=normal,enum=dry,enum=oily,enum=combination,enum=sensitive"`
	VisibleConcerns []string `json:"visible_concerns" jsonschema:"description=Skin concerns visible in the photo, lowercase"`
	Confidence      float64  `json:"confidence" jsonschema:"minimum=0,maximum=1"`
}

// decode parses provider output, tolerating code fences and surrounding
// prose, and normalizes it.
func decode(text string) (profile.ImageAnalysis, error) {
	text = strings.TrimSpace(text)
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return profile.ImageAnalysis{}, fmt.Errorf("no JSON object in response")
	}
	var raw rawAnalysis
	if err := json.Unmarshal([]byte(text[start:end+1]), &raw); err != nil {
		return profile.ImageAnalysis{}, fmt.Errorf("decode analysis: %w", err)
	}
	return normalize(raw)
}

func normalize(raw rawAnalysis) (profile.ImageAnalysis, error) {
	out := profile.ImageAnalysis{}
	skin := strings.ToLower(strings.TrimSpace(raw.SkinType))
	if _, ok := skinTypes[skin]; ok {
		out.SkinType = skin
	}
	seen := make(map[string]struct{}, len(raw.VisibleConcerns))
	for _, c := range raw.VisibleConcerns {
		c = strings.ToLower(strings.TrimSpace(c))
		if c == "" {
			continue
		}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		out.VisibleConcerns = append(out.VisibleConcerns, c)
	}
	if out.SkinType == "" && len(out.VisibleConcerns) == 0 {
		return profile.ImageAnalysis{}, ErrEmptyAnalysis
	}
	switch {
	case math.IsNaN(raw.Confidence) || raw.Confidence < 0:
		out.Confidence = 0
	case raw.Confidence > 1:
		out.Confidence = 1
	default:
		out.Confidence = raw.Confidence
	}
	return out, nil
}
