package recommendation

import (
	"encoding/json"
	"reflect"
	"testing"

	"skincare-backend/internal/profile"
)

func TestMapBudget(t *testing.T) {
	cases := map[string]BudgetTier{
		"Premium ($150-300)":      BudgetPremium,
		"Budget-friendly ($0-50)": BudgetLow,
		"  LUXURY ":               BudgetPremium,
		"Under $50":               BudgetLow,
		"Mid-range ($50-150)":     BudgetMidRange,
		"???":                     BudgetMidRange,
		"":                        BudgetMidRange,
	}
	for label, want := range cases {
		if got := MapBudget(label); got != want {
			t.Fatalf("MapBudget(%q) = %q, want %q", label, got, want)
		}
	}
}

func TestMapRoutinePreference(t *testing.T) {
	cases := map[string]RoutinePreference{
		"Minimal (2-3 steps)":      RoutineMinimal,
		"Standard (4-5 steps)":     RoutineStandard,
		"Comprehensive (6+ steps)": RoutineDetailed,
		"Low maintenance":          RoutineMinimal,
		"whatever works":           RoutineStandard,
	}
	for label, want := range cases {
		if got := MapRoutinePreference(label); got != want {
			t.Fatalf("MapRoutinePreference(%q) = %q, want %q", label, got, want)
		}
	}
}

func TestBuildMinimalProfileUsesDefaults(t *testing.T) {
	req, err := Build(profile.SnapshotOf(map[profile.Field]any{profile.FieldName: "Ana"}))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	want := Request{
		Name:              "Ana",
		SkinType:          DefaultSkinType,
		Concerns:          []string{},
		AgeGroup:          DefaultAgeGroup,
		Budget:            BudgetMidRange,
		RoutinePreference: RoutineStandard,
		Climate:           Climate{Humidity: DefaultHumidity, Temperature: DefaultTemperature},
	}
	if !reflect.DeepEqual(req, want) {
		t.Fatalf("unexpected request:\n got %+v\nwant %+v", req, want)
	}
}

func TestBuildNormalizesConcernsAndSkinType(t *testing.T) {
	snap := profile.SnapshotOf(map[profile.Field]any{
		profile.FieldSkinTypes: []any{"Combination", "oily"},
		profile.FieldConcerns:  []any{"Acne", " acne ", "", "Redness"},
		profile.FieldBudget:    "Premium ($150-300)",
	})
	req, err := Build(snap)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if req.SkinType != "combination" {
		t.Fatalf("skin type = %q", req.SkinType)
	}
	if !reflect.DeepEqual(req.Concerns, []string{"acne", "redness"}) {
		t.Fatalf("concerns = %v", req.Concerns)
	}
	if req.Budget != BudgetPremium {
		t.Fatalf("budget = %q", req.Budget)
	}
}

func TestBuildPrefersExplicitSkinType(t *testing.T) {
	snap := profile.SnapshotOf(map[profile.Field]any{
		profile.FieldSkinType:  "Dry",
		profile.FieldSkinTypes: []string{"oily"},
	})
	req, err := Build(snap)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if req.SkinType != "dry" {
		t.Fatalf("skin type = %q", req.SkinType)
	}
}

func TestBuildRejectsClimateOutOfRange(t *testing.T) {
	cases := []struct {
		field profile.Field
		value any
	}{
		{profile.FieldHumidity, 101},
		{profile.FieldHumidity, -1},
		{profile.FieldTemperature, 51},
		{profile.FieldTemperature, -10.5},
		{profile.FieldTemperature, "warm"},
	}
	for _, tc := range cases {
		_, err := Build(profile.SnapshotOf(map[profile.Field]any{tc.field: tc.value}))
		ve, ok := profile.AsValidation(err)
		if !ok {
			t.Fatalf("%s=%v: expected validation error, got %v", tc.field, tc.value, err)
		}
		if ve.Field != string(tc.field) {
			t.Fatalf("%s=%v: error names %q", tc.field, tc.value, ve.Field)
		}
	}
}

func TestBuildAcceptsClimateBounds(t *testing.T) {
	req, err := Build(profile.SnapshotOf(map[profile.Field]any{
		profile.FieldHumidity:    "100",
		profile.FieldTemperature: -10,
	}))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if req.Climate.Humidity != 100 || req.Climate.Temperature != -10 {
		t.Fatalf("climate = %+v", req.Climate)
	}
}

func TestBuildIsIdempotent(t *testing.T) {
	snap := profile.SnapshotOf(map[profile.Field]any{
		profile.FieldName:        "Ana",
		profile.FieldConcerns:    []string{"acne", "dryness"},
		profile.FieldSunExposure: "high",
	})
	first, err := Build(snap)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	second, err := Build(snap)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("builds differ:\n%+v\n%+v", first, second)
	}
	if first.AdvancedProfile["sun_exposure"] != "high" {
		t.Fatalf("advanced profile missing passthrough: %v", first.AdvancedProfile)
	}
}

func TestRequestWireFormat(t *testing.T) {
	store := profile.NewStore()
	store.Set(profile.FieldSkinType, "oily")
	store.Merge(profile.ImageAnalysis{SkinType: "dry", VisibleConcerns: []string{"acne"}, Confidence: 0.7})
	req, err := Build(store.Snapshot())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	data, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var wire map[string]any
	if err := json.Unmarshal(data, &wire); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	p := wire["profile"].(map[string]any)
	if _, ok := p["name"]; ok {
		t.Fatalf("blank name should be omitted: %s", data)
	}
	if p["skin_type"] != "oily" || p["budget"] != "mid-range" || p["routine_preference"] != "standard" {
		t.Fatalf("unexpected profile: %s", data)
	}
	climate := p["location"].(map[string]any)["climate"].(map[string]any)
	if climate["humidity"] != 60.0 || climate["temperature"] != 25.0 {
		t.Fatalf("unexpected climate: %s", data)
	}
	analysis, ok := wire["image_analysis"].(map[string]any)
	if !ok || analysis["skin_type"] != "dry" {
		t.Fatalf("image analysis not sent: %s", data)
	}
	if _, ok := wire["advanced_profile"]; ok {
		t.Fatalf("advanced_profile should be omitted for core-only answers: %s", data)
	}
}

func TestRequestWireFormatSendsNullAnalysis(t *testing.T) {
	data, err := json.Marshal(Request{SkinType: "normal"})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var wire map[string]any
	if err := json.Unmarshal(data, &wire); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if v, ok := wire["image_analysis"]; !ok || v != nil {
		t.Fatalf("expected explicit null image_analysis: %s", data)
	}
	if concerns := wire["profile"].(map[string]any)["concerns"]; concerns == nil {
		t.Fatalf("concerns should be an empty list: %s", data)
	}
}
