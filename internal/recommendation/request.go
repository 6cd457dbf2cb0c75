package recommendation

import (
	"encoding/json"
	"fmt"

	"skincare-backend/internal/profile"
)

const (
	DefaultSkinType    = "normal"
	DefaultAgeGroup    = "25-35"
	DefaultHumidity    = 60.0
	DefaultTemperature = 25.0

	MinHumidity    = 0.0
	MaxHumidity    = 100.0
	MinTemperature = -10.0
	MaxTemperature = 50.0
)

// Climate describes the user's local conditions.
type Climate struct {
	Humidity    float64 `json:"humidity"`
	Temperature float64 `json:"temperature"`
}

// Request is the normalized input sent to the recommendation service.
// Build produces a fresh value every time; callers treat it as read-only.
type Request struct {
	Name              string
	SkinType          string
	Concerns          []string
	AgeGroup          string
	Budget            BudgetTier
	RoutinePreference RoutinePreference
	Climate           Climate
	AdvancedProfile   map[string]any
	ImageAnalysis     *profile.ImageAnalysis
}

// coreFields are sent in the profile object; anything else a flow
// collects travels in advanced_profile.
var coreFields = map[profile.Field]struct{}{
	profile.FieldName:              {},
	profile.FieldSkinType:          {},
	profile.FieldSkinTypes:         {},
	profile.FieldConcerns:          {},
	profile.FieldAgeGroup:          {},
	profile.FieldBudget:            {},
	profile.FieldRoutinePreference: {},
	profile.FieldHumidity:          {},
	profile.FieldTemperature:       {},
}

// Build turns a profile snapshot into a request. It fails only when a
// climate value is non-numeric or outside its allowed range.
func Build(snap profile.Snapshot) (Request, error) {
	humidity, err := climateValue(snap, profile.FieldHumidity, DefaultHumidity, MinHumidity, MaxHumidity)
	if err != nil {
		return Request{}, err
	}
	temperature, err := climateValue(snap, profile.FieldTemperature, DefaultTemperature, MinTemperature, MaxTemperature)
	if err != nil {
		return Request{}, err
	}

	req := Request{
		Name:              snap.String(profile.FieldName),
		SkinType:          skinType(snap),
		Concerns:          normalizeList(snap.Strings(profile.FieldConcerns)),
		AgeGroup:          snap.String(profile.FieldAgeGroup),
		Budget:            MapBudget(snap.String(profile.FieldBudget)),
		RoutinePreference: MapRoutinePreference(snap.String(profile.FieldRoutinePreference)),
		Climate:           Climate{Humidity: humidity, Temperature: temperature},
		ImageAnalysis:     snap.Analysis(),
	}
	if req.AgeGroup == "" {
		req.AgeGroup = DefaultAgeGroup
	}
	if advanced := advancedProfile(snap); len(advanced) > 0 {
		req.AdvancedProfile = advanced
	}
	return req, nil
}

func skinType(snap profile.Snapshot) string {
	if explicit := normalizeList(snap.Strings(profile.FieldSkinType)); len(explicit) > 0 {
		return explicit[0]
	}
	if multi := normalizeList(snap.Strings(profile.FieldSkinTypes)); len(multi) > 0 {
		return multi[0]
	}
	return DefaultSkinType
}

func climateValue(snap profile.Snapshot, field profile.Field, def, lo, hi float64) (float64, error) {
	n, ok, err := snap.Number(field)
	if err != nil {
		return 0, err
	}
	if !ok {
		return def, nil
	}
	if n < lo || n > hi {
		return 0, &profile.ValidationError{
			Field: string(field),
			Issue: fmt.Sprintf("must be between %g and %g", lo, hi),
		}
	}
	return n, nil
}

// advancedProfile passes every raw answer through once the flow has
// collected something beyond the core fields.
func advancedProfile(snap profile.Snapshot) map[string]any {
	for _, f := range snap.Fields() {
		if _, core := coreFields[f]; !core {
			return snap.Raw()
		}
	}
	return nil
}

type wireLocation struct {
	Climate Climate `json:"climate"`
}

type wireProfile struct {
	Name              string            `json:"name,omitempty"`
	SkinType          string            `json:"skin_type"`
	Concerns          []string          `json:"concerns"`
	AgeGroup          string            `json:"age_group"`
	Budget            BudgetTier        `json:"budget"`
	RoutinePreference RoutinePreference `json:"routine_preference"`
	Location          wireLocation      `json:"location"`
}

type wireRequest struct {
	Profile         wireProfile            `json:"profile"`
	AdvancedProfile map[string]any         `json:"advanced_profile,omitempty"`
	ImageAnalysis   *profile.ImageAnalysis `json:"image_analysis"`
}

// MarshalJSON encodes the request in the service's wire format.
func (r Request) MarshalJSON() ([]byte, error) {
	concerns := r.Concerns
	if concerns == nil {
		concerns = []string{}
	}
	return json.Marshal(wireRequest{
		Profile: wireProfile{
			Name:              r.Name,
			SkinType:          r.SkinType,
			Concerns:          concerns,
			AgeGroup:          r.AgeGroup,
			Budget:            r.Budget,
			RoutinePreference: r.RoutinePreference,
			Location:          wireLocation{Climate: r.Climate},
		},
		AdvancedProfile: r.AdvancedProfile,
		ImageAnalysis:   r.ImageAnalysis,
	})
}
