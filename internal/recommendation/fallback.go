package recommendation

import (
	"fmt"
	"strings"
)

// SynthesizeFallback builds the local starter routine used when the
// service cannot be reached. The output depends only on the skin type and
// the first two concerns, so equal inputs always give equal results.
func SynthesizeFallback(skinType string, concerns []string) Result {
	skin := strings.ToLower(strings.TrimSpace(skinType))
	if skin == "" {
		skin = DefaultSkinType
	}
	focus := normalizeList(concerns)
	if len(focus) > 2 {
		focus = focus[:2]
	}

	success := false
	return Result{
		Source:  SourceFallback,
		Success: &success,
		Recommendations: &Recommendations{
			RoutineSummary:   ptr(fallbackSummary(skin, focus)),
			SelectedProducts: fallbackProducts(skin),
			Routine: &Routine{
				Morning: []string{
					"Rinse with lukewarm water or use a gentle cleanser",
					"Apply a lightweight moisturizer",
					"Finish with broad-spectrum SPF 30 or higher",
				},
				Evening: []string{
					"Cleanse to remove sunscreen and the day's buildup",
					"Apply moisturizer while skin is still slightly damp",
				},
				Tips: []string{
					"Introduce one new product at a time and patch test first",
					"Reapply sunscreen every two hours when outdoors",
					"Keep water intake and sleep consistent",
				},
				Timeline: ptr("Most people notice more comfortable, balanced skin within 4 to 6 weeks of consistent use."),
			},
		},
	}
}

func fallbackSummary(skin string, focus []string) string {
	var detail string
	switch len(focus) {
	case 0:
	case 1:
		detail = fmt.Sprintf(" and your focus on %s", focus[0])
	default:
		detail = fmt.Sprintf(" and your focus on %s and %s", focus[0], focus[1])
	}
	return fmt.Sprintf("Based on your %s skin%s, here is a gentle starter routine while we reconnect to our recommendation service.", skin, detail)
}

func fallbackProducts(skin string) []Product {
	reason := fmt.Sprintf("A gentle essential that suits %s skin", skin)
	return []Product{
		{
			Name:                   ptr("Gentle Hydrating Cleanser"),
			Brand:                  ptr("Starter Essentials"),
			Category:               ptr("cleanser"),
			MatchScore:             NewNumber(85),
			KeyMatchingIngredients: []string{"glycerin", "ceramides"},
			Reason:                 ptr(reason),
			UsageInstructions:      ptr("Massage onto damp skin morning and evening, then rinse"),
		},
		{
			Name:                   ptr("Daily Barrier Moisturizer"),
			Brand:                  ptr("Starter Essentials"),
			Category:               ptr("moisturizer"),
			MatchScore:             NewNumber(82),
			KeyMatchingIngredients: []string{"niacinamide", "hyaluronic acid"},
			Reason:                 ptr(reason),
			UsageInstructions:      ptr("Apply a pea-sized amount after cleansing"),
		},
		{
			Name:                   ptr("Broad Spectrum Sunscreen SPF 30+"),
			Brand:                  ptr("Starter Essentials"),
			Category:               ptr("sunscreen"),
			MatchScore:             NewNumber(90),
			KeyMatchingIngredients: []string{"zinc oxide"},
			Reason:                 ptr("Daily sun protection is the foundation of every routine"),
			UsageInstructions:      ptr("Apply generously as the last morning step"),
		},
	}
}

func ptr[T any](v T) *T {
	return &v
}
