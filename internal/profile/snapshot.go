package profile

import "sort"

// Snapshot is a read-only copy of a Store taken at one point in time.
type Snapshot struct {
	values   map[Field]any
	analysis *ImageAnalysis
}

// SnapshotOf builds a snapshot directly from raw values.
func SnapshotOf(values map[Field]any) Snapshot {
	s := NewStore()
	for k, v := range values {
		s.Set(k, v)
	}
	return s.Snapshot()
}

func (s Snapshot) Get(field Field, def any) any {
	v, ok := s.values[field]
	if !ok || v == nil {
		return def
	}
	return cloneValue(v)
}

func (s Snapshot) Has(field Field) bool {
	return present(s.values[field])
}

// String returns the answer as trimmed text; lists yield their first item.
func (s Snapshot) String(field Field) string {
	return asString(s.values[field])
}

// Strings returns the answer as a list of trimmed, non-blank items.
// Plain text answers are split on commas.
func (s Snapshot) Strings(field Field) []string {
	return asStrings(s.values[field])
}

// Number returns the numeric answer. ok is false when the field is blank;
// a present value that is not numeric yields a *ValidationError.
func (s Snapshot) Number(field Field) (n float64, ok bool, err error) {
	v := s.values[field]
	if !present(v) {
		return 0, false, nil
	}
	if n, ok := toNumber(v); ok {
		return n, true, nil
	}
	if str, isStr := v.(string); isStr {
		if n, ok := parseNumber(str); ok {
			return n, true, nil
		}
	}
	return 0, false, &ValidationError{Field: string(field), Issue: "must be a number"}
}

// Fields lists the fields holding a non-blank answer, sorted by name.
func (s Snapshot) Fields() []Field {
	out := make([]Field, 0, len(s.values))
	for f, v := range s.values {
		if present(v) {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Raw returns a copy of every non-blank answer keyed by field name.
func (s Snapshot) Raw() map[string]any {
	out := make(map[string]any, len(s.values))
	for f, v := range s.values {
		if present(v) {
			out[string(f)] = cloneValue(v)
		}
	}
	return out
}

func (s Snapshot) Analysis() *ImageAnalysis {
	if s.analysis == nil {
		return nil
	}
	return s.analysis.clone()
}
