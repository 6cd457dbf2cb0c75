package profile

import (
	"sort"
	"strings"
)

// Field names a single answer collected by the wizard.
type Field string

const (
	FieldName              Field = "name"
	FieldAgeGroup          Field = "age_group"
	FieldGender            Field = "gender"
	FieldSkinType          Field = "skin_type"
	FieldSkinTypes         Field = "skin_types"
	FieldConcerns          Field = "concerns"
	FieldSensitivity       Field = "sensitivity"
	FieldAllergies         Field = "allergies"
	FieldCurrentProducts   Field = "current_products"
	FieldSunExposure       Field = "sun_exposure"
	FieldSleepHours        Field = "sleep_hours"
	FieldWaterIntake       Field = "water_intake"
	FieldDiet              Field = "diet"
	FieldBudget            Field = "budget"
	FieldRoutinePreference Field = "routine_preference"
	FieldHumidity          Field = "humidity"
	FieldTemperature       Field = "temperature"
	FieldNotes             Field = "notes"
)

// Kind describes how a raw text answer should be interpreted.
type Kind int

const (
	KindText Kind = iota
	KindList
	KindNumber
)

var fieldKinds = map[Field]Kind{
	FieldName:              KindText,
	FieldAgeGroup:          KindText,
	FieldGender:            KindText,
	FieldSkinType:          KindText,
	FieldSkinTypes:         KindList,
	FieldConcerns:          KindList,
	FieldSensitivity:       KindText,
	FieldAllergies:         KindList,
	FieldCurrentProducts:   KindList,
	FieldSunExposure:       KindText,
	FieldSleepHours:        KindNumber,
	FieldWaterIntake:       KindText,
	FieldDiet:              KindText,
	FieldBudget:            KindText,
	FieldRoutinePreference: KindText,
	FieldHumidity:          KindNumber,
	FieldTemperature:       KindNumber,
	FieldNotes:             KindText,
}

// ParseField resolves a field name supplied by a client.
func ParseField(raw string) (Field, error) {
	f := Field(strings.ToLower(strings.TrimSpace(raw)))
	if !f.Known() {
		return "", &ValidationError{Field: raw, Issue: "is not a known field"}
	}
	return f, nil
}

func (f Field) Known() bool {
	_, ok := fieldKinds[f]
	return ok
}

func (f Field) Kind() Kind {
	return fieldKinds[f]
}

// KnownFields returns every field name in lexical order.
func KnownFields() []Field {
	out := make([]Field, 0, len(fieldKinds))
	for f := range fieldKinds {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ParseInput converts free text typed by a user into the value shape the
// field expects. Numbers that fail to parse are kept as text so the
// request builder can report them.
func ParseInput(field Field, raw string) any {
	raw = strings.TrimSpace(raw)
	switch field.Kind() {
	case KindList:
		return splitList(raw)
	case KindNumber:
		if n, ok := parseNumber(raw); ok {
			return n
		}
		return raw
	default:
		return raw
	}
}
