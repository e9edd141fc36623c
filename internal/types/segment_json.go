package types

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// UnmarshalJSON accepts the loosely typed segments real transcript exports
// contain: ids as numbers or strings, timestamps as numbers, numeric strings
// or null. Anything unparseable decodes to its zero value.
func (s *Segment) UnmarshalJSON(b []byte) error {
	var raw struct {
		ID        json.RawMessage `json:"id"`
		StartTime json.RawMessage `json:"start_time"`
		EndTime   json.RawMessage `json:"end_time"`
		Speaker   json.RawMessage `json:"speaker"`
		Text      json.RawMessage `json:"text"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*s = Segment{
		ID:        looseString(raw.ID),
		StartTime: looseSeconds(raw.StartTime),
		EndTime:   looseSeconds(raw.EndTime),
		Speaker:   looseString(raw.Speaker),
		Text:      looseString(raw.Text),
	}
	return nil
}

func looseString(b json.RawMessage) string {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err == nil {
		return n.String()
	}
	return ""
}

func looseSeconds(b json.RawMessage) float64 {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return 0
	}
	var f float64
	if err := json.Unmarshal(b, &f); err == nil {
		return finite(f)
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return finite(f)
		}
	}
	return 0
}

func finite(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}
