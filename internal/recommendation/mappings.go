package recommendation

import "strings"

// BudgetTier is the normalized budget sent to the recommendation service.
type BudgetTier string

const (
	BudgetLow      BudgetTier = "low"
	BudgetMidRange BudgetTier = "mid-range"
	BudgetPremium  BudgetTier = "premium"
)

// RoutinePreference is the normalized routine size sent to the service.
type RoutinePreference string

const (
	RoutineMinimal  RoutinePreference = "minimal"
	RoutineStandard RoutinePreference = "standard"
	RoutineDetailed RoutinePreference = "detailed"
)

var budgetLabels = map[string]BudgetTier{
	"low":             BudgetLow,
	"budget":          BudgetLow,
	"budget-friendly": BudgetLow,
	"budget friendly": BudgetLow,
	"affordable":      BudgetLow,
	"drugstore":       BudgetLow,
	"under $25":       BudgetLow,
	"under $50":       BudgetLow,
	"mid-range":       BudgetMidRange,
	"mid range":       BudgetMidRange,
	"midrange":        BudgetMidRange,
	"moderate":        BudgetMidRange,
	"medium":          BudgetMidRange,
	"standard":        BudgetMidRange,
	"premium":         BudgetPremium,
	"high-end":        BudgetPremium,
	"high end":        BudgetPremium,
	"luxury":          BudgetPremium,
	"prestige":        BudgetPremium,
}

var routineLabels = map[string]RoutinePreference{
	"minimal":           RoutineMinimal,
	"minimalist":        RoutineMinimal,
	"quick":             RoutineMinimal,
	"simple":            RoutineMinimal,
	"basic":             RoutineMinimal,
	"low maintenance":   RoutineMinimal,
	"low-maintenance":   RoutineMinimal,
	"standard":          RoutineStandard,
	"moderate":          RoutineStandard,
	"balanced":          RoutineStandard,
	"regular":           RoutineStandard,
	"detailed":          RoutineDetailed,
	"comprehensive":     RoutineDetailed,
	"extensive":         RoutineDetailed,
	"full":              RoutineDetailed,
	"advanced":          RoutineDetailed,
	"elaborate":         RoutineDetailed,
	"multi-step":        RoutineDetailed,
	"10-step":           RoutineDetailed,
	"everything":        RoutineDetailed,
	"as many as needed": RoutineDetailed,
}

// MapBudget maps a free-form budget label to a tier. Unknown or blank
// labels map to mid-range.
func MapBudget(label string) BudgetTier {
	if tier, ok := budgetLabels[normalizeLabel(label)]; ok {
		return tier
	}
	return BudgetMidRange
}

// MapRoutinePreference maps a free-form routine label to a preference.
// Unknown or blank labels map to standard.
func MapRoutinePreference(label string) RoutinePreference {
	if pref, ok := routineLabels[normalizeLabel(label)]; ok {
		return pref
	}
	return RoutineStandard
}

// normalizeLabel lowercases a label, drops a trailing parenthetical hint
// such as "($150-300)" and collapses whitespace.
func normalizeLabel(label string) string {
	label = strings.ToLower(label)
	if i := strings.Index(label, "("); i >= 0 {
		label = label[:i]
	}
	label = strings.Join(strings.Fields(label), " ")
	return strings.Trim(label, " .:;")
}

// normalizeList lowercases and trims items, drops blanks and keeps the
// first occurrence of each item.
func normalizeList(items []string) []string {
	out := make([]string, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		item = strings.ToLower(strings.TrimSpace(item))
		if item == "" {
			continue
		}
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}
