package profile

import (
	"encoding/json"
	"sort"
	"strings"
)

// ImageAnalysis is an advisory reading of a skin photo.
type ImageAnalysis struct {
	SkinType        string   `json:"skin_type"`
	VisibleConcerns []string `json:"visible_concerns"`
	Confidence      float64  `json:"confidence"`
}

func (a ImageAnalysis) clone() *ImageAnalysis {
	a.VisibleConcerns = append([]string(nil), a.VisibleConcerns...)
	return &a
}

// Store holds the answers for one wizard session. Values are keyed by
// field; a field set through Set is marked explicit so later image
// analysis never overrides it. Store is not safe for concurrent use;
// sessions serialize access to it.
type Store struct {
	values   map[Field]any
	explicit map[Field]bool
	analysis *ImageAnalysis
}

func NewStore() *Store {
	s := &Store{}
	s.init()
	return s
}

func (s *Store) init() {
	if s.values == nil {
		s.values = make(map[Field]any)
	}
	if s.explicit == nil {
		s.explicit = make(map[Field]bool)
	}
}

// Set records a user answer, replacing any previous value.
func (s *Store) Set(field Field, value any) {
	s.init()
	s.values[field] = cloneValue(value)
	s.explicit[field] = true
}

// Get returns the stored value or def when the field holds nothing.
func (s *Store) Get(field Field, def any) any {
	v, ok := s.values[field]
	if !ok || v == nil {
		return def
	}
	return cloneValue(v)
}

// Has reports whether the field holds a non-blank answer.
func (s *Store) Has(field Field) bool {
	return present(s.values[field])
}

func (s *Store) IsExplicit(field Field) bool {
	return s.explicit[field]
}

// Merge applies an image analysis. The analysis itself is kept, replacing
// any earlier one, and its skin type and concerns pre-fill answers the
// user has not given. It returns the fields it filled.
func (s *Store) Merge(analysis ImageAnalysis) []Field {
	s.init()
	s.analysis = analysis.clone()

	var filled []Field
	skin := strings.ToLower(strings.TrimSpace(analysis.SkinType))
	if skin != "" && !s.explicit[FieldSkinType] && !s.explicit[FieldSkinTypes] {
		s.values[FieldSkinType] = skin
		filled = append(filled, FieldSkinType)
	}
	if len(analysis.VisibleConcerns) > 0 && !s.explicit[FieldConcerns] {
		s.values[FieldConcerns] = append([]string(nil), analysis.VisibleConcerns...)
		filled = append(filled, FieldConcerns)
	}
	return filled
}

// Analysis returns a copy of the last merged image analysis, if any.
func (s *Store) Analysis() *ImageAnalysis {
	if s.analysis == nil {
		return nil
	}
	return s.analysis.clone()
}

// Reset clears every answer, the explicit markers and the analysis.
func (s *Store) Reset() {
	s.values = make(map[Field]any)
	s.explicit = make(map[Field]bool)
	s.analysis = nil
}

// Snapshot returns an immutable copy of the current answers.
func (s *Store) Snapshot() Snapshot {
	values := make(map[Field]any, len(s.values))
	for k, v := range s.values {
		values[k] = cloneValue(v)
	}
	return Snapshot{values: values, analysis: s.Analysis()}
}

type storeJSON struct {
	Values        map[Field]any  `json:"values"`
	Explicit      []Field        `json:"explicit,omitempty"`
	ImageAnalysis *ImageAnalysis `json:"image_analysis,omitempty"`
}

func (s *Store) MarshalJSON() ([]byte, error) {
	out := storeJSON{Values: s.values, ImageAnalysis: s.analysis}
	if out.Values == nil {
		out.Values = map[Field]any{}
	}
	for f, ok := range s.explicit {
		if ok {
			out.Explicit = append(out.Explicit, f)
		}
	}
	sort.Slice(out.Explicit, func(i, j int) bool { return out.Explicit[i] < out.Explicit[j] })
	return json.Marshal(out)
}

func (s *Store) UnmarshalJSON(data []byte) error {
	var in storeJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	s.Reset()
	for k, v := range in.Values {
		s.values[k] = v
	}
	for _, f := range in.Explicit {
		s.explicit[f] = true
	}
	s.analysis = in.ImageAnalysis
	return nil
}
