package recommendation

import (
	"encoding/json"
	"strings"
	"time"
)

// Source tells where a result came from.
type Source string

const (
	SourceRemote   Source = "remote"
	SourceFallback Source = "fallback"
)

// Result is a recommendation set. Every field of the service response is
// optional; accessors substitute display defaults.
type Result struct {
	Source          Source           `json:"source"`
	Success         *bool            `json:"success,omitempty"`
	Recommendations *Recommendations `json:"recommendations,omitempty"`
	FetchedAt       time.Time        `json:"fetched_at"`
	Raw             json.RawMessage  `json:"raw,omitempty"`
}

type Recommendations struct {
	RoutineSummary   *string   `json:"routine_summary,omitempty"`
	SelectedProducts []Product `json:"selected_products,omitempty"`
	Routine          *Routine  `json:"routine,omitempty"`
}

type Routine struct {
	Morning  []string `json:"morning_routine,omitempty"`
	Evening  []string `json:"evening_routine,omitempty"`
	Tips     []string `json:"tips,omitempty"`
	Timeline *string  `json:"timeline,omitempty"`
}

type Product struct {
	Name                   *string  `json:"name,omitempty"`
	Brand                  *string  `json:"brand,omitempty"`
	Category               *string  `json:"category,omitempty"`
	MatchScore             *Number  `json:"match_score,omitempty"`
	KeyMatchingIngredients []string `json:"key_matching_ingredients,omitempty"`
	Reason                 *string  `json:"reason,omitempty"`
	UsageInstructions      *string  `json:"usage_instructions,omitempty"`
	Price                  *Number  `json:"price,omitempty"`
	Reviews                *Reviews `json:"reviews,omitempty"`
}

type Reviews struct {
	Rating *Number `json:"rating,omitempty"`
	Count  *Number `json:"count,omitempty"`
}

const (
	DefaultProductName       = "Product"
	DefaultBrand             = "Brand"
	DefaultCategory          = "N/A"
	DefaultMatchScore        = "N/A"
	DefaultUsageInstructions = "Follow product instructions"
	DefaultReason            = "Good for your skin type"
)

func (r Result) IsFallback() bool {
	return r.Source == SourceFallback
}

// Summary returns the routine summary, or "" when absent.
func (r Result) Summary() string {
	if r.Recommendations == nil {
		return ""
	}
	return text(r.Recommendations.RoutineSummary, "")
}

func (r Result) Products() []Product {
	if r.Recommendations == nil {
		return nil
	}
	return r.Recommendations.SelectedProducts
}

func (r Result) routine() Routine {
	if r.Recommendations == nil || r.Recommendations.Routine == nil {
		return Routine{}
	}
	return *r.Recommendations.Routine
}

func (r Result) Morning() []string { return nonBlank(r.routine().Morning) }
func (r Result) Evening() []string { return nonBlank(r.routine().Evening) }
func (r Result) Tips() []string    { return nonBlank(r.routine().Tips) }

func (r Result) Timeline() string {
	return text(r.routine().Timeline, "")
}

func (p Product) DisplayName() string  { return text(p.Name, DefaultProductName) }
func (p Product) DisplayBrand() string { return text(p.Brand, DefaultBrand) }
func (p Product) DisplayCategory() string {
	return text(p.Category, DefaultCategory)
}
func (p Product) DisplayReason() string { return text(p.Reason, DefaultReason) }
func (p Product) DisplayUsage() string {
	return text(p.UsageInstructions, DefaultUsageInstructions)
}

// DisplayMatchScore returns the score as text, or "N/A".
func (p Product) DisplayMatchScore() string {
	if p.MatchScore == nil || p.MatchScore.Text == "" {
		return DefaultMatchScore
	}
	return p.MatchScore.Text
}

// Ingredients returns the non-blank key ingredients.
func (p Product) Ingredients() []string {
	return nonBlank(p.KeyMatchingIngredients)
}

// Rating returns the review rating text, or "" when absent.
func (p Product) Rating() string {
	if p.Reviews == nil || p.Reviews.Rating == nil {
		return ""
	}
	return p.Reviews.Rating.Text
}

func text(s *string, def string) string {
	if s == nil {
		return def
	}
	if v := strings.TrimSpace(*s); v != "" {
		return v
	}
	return def
}

func nonBlank(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
