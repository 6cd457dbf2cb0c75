package recommendation

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
)

var errNotObject = errors.New("response body is not a JSON object")

// parseBody decodes a service response. Only a body that is not a JSON
// object is rejected; fields with unexpected shapes are treated as absent.
func parseBody(body []byte) (Result, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return Result{}, errNotObject
	}
	var top map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &top); err != nil {
		return Result{}, err
	}

	res := Result{Source: SourceRemote, Raw: append(json.RawMessage(nil), trimmed...)}
	if raw, ok := top["success"]; ok {
		var b bool
		if json.Unmarshal(raw, &b) == nil {
			res.Success = &b
		}
	}
	if raw, ok := top["recommendations"]; ok {
		var recs Recommendations
		if json.Unmarshal(raw, &recs) == nil {
			res.Recommendations = &recs
		}
	}
	return res, nil
}

func (r *Recommendations) UnmarshalJSON(data []byte) error {
	fields, err := objectFields(data)
	if err != nil {
		return err
	}
	*r = Recommendations{RoutineSummary: lenientString(fields["routine_summary"])}
	var items []json.RawMessage
	if json.Unmarshal(fields["selected_products"], &items) == nil {
		for _, item := range items {
			var p Product
			if json.Unmarshal(item, &p) == nil {
				r.SelectedProducts = append(r.SelectedProducts, p)
			}
		}
	}
	if raw, ok := fields["routine"]; ok {
		var routine Routine
		if json.Unmarshal(raw, &routine) == nil {
			r.Routine = &routine
		}
	}
	return nil
}

func (r *Routine) UnmarshalJSON(data []byte) error {
	fields, err := objectFields(data)
	if err != nil {
		return err
	}
	*r = Routine{
		Morning:  lenientStrings(firstPresent(fields, "morning_routine", "morning")),
		Evening:  lenientStrings(firstPresent(fields, "evening_routine", "evening")),
		Tips:     lenientStrings(fields["tips"]),
		Timeline: lenientString(fields["timeline"]),
	}
	return nil
}

// firstPresent returns the value of the first key found in fields.
func firstPresent(fields map[string]json.RawMessage, keys ...string) json.RawMessage {
	for _, k := range keys {
		if raw, ok := fields[k]; ok {
			return raw
		}
	}
	return nil
}

func (p *Product) UnmarshalJSON(data []byte) error {
	fields, err := objectFields(data)
	if err != nil {
		return err
	}
	*p = Product{
		Name:                   lenientString(fields["name"]),
		Brand:                  lenientString(fields["brand"]),
		Category:               lenientString(fields["category"]),
		MatchScore:             lenientNumber(fields["match_score"]),
		KeyMatchingIngredients: lenientStrings(fields["key_matching_ingredients"]),
		Reason:                 lenientString(fields["reason"]),
		UsageInstructions:      lenientString(fields["usage_instructions"]),
		Price:                  lenientNumber(fields["price"]),
	}
	if raw, ok := fields["reviews"]; ok {
		if rf, err := objectFields(raw); err == nil {
			p.Reviews = &Reviews{
				Rating: lenientNumber(rf["rating"]),
				Count:  lenientNumber(rf["count"]),
			}
		}
	}
	return nil
}

func objectFields(data []byte) (map[string]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, errNotObject
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

func lenientString(raw json.RawMessage) *string {
	if len(raw) == 0 {
		return nil
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return &s
	}
	var n json.Number
	if json.Unmarshal(raw, &n) == nil {
		s = n.String()
		return &s
	}
	return nil
}

func lenientStrings(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var items []json.RawMessage
	if json.Unmarshal(raw, &items) != nil {
		if s := lenientString(raw); s != nil && strings.TrimSpace(*s) != "" {
			return []string{*s}
		}
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s := lenientString(item); s != nil {
			out = append(out, *s)
		}
	}
	return out
}

func lenientNumber(raw json.RawMessage) *Number {
	if len(raw) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil
	}
	var n Number
	if json.Unmarshal(raw, &n) != nil || n.Text == "" {
		return nil
	}
	return &n
}
