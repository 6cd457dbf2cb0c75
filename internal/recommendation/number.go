package recommendation

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Number is a loosely typed numeric field from the service response. It
// accepts a JSON number or a string; non-numeric strings keep their text.
type Number struct {
	Value   float64
	Text    string
	Numeric bool
}

func NewNumber(v float64) *Number {
	return &Number{Value: v, Text: strconv.FormatFloat(v, 'f', -1, 64), Numeric: true}
}

func (n *Number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*n = Number{}
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		n.Text = strings.TrimSpace(s)
		if v, err := strconv.ParseFloat(n.Text, 64); err == nil {
			n.Value = v
			n.Numeric = true
		}
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		// Booleans, objects and arrays are tolerated as absent.
		return nil
	}
	n.Value = v
	n.Text = strconv.FormatFloat(v, 'f', -1, 64)
	n.Numeric = true
	return nil
}

func (n Number) MarshalJSON() ([]byte, error) {
	if n.Numeric {
		return json.Marshal(n.Value)
	}
	return json.Marshal(n.Text)
}

// String renders the number the way it arrived.
func (n *Number) String() string {
	if n == nil {
		return ""
	}
	return n.Text
}
