// Package jsonutil decodes loosely typed JSON produced by language models.
package jsonutil

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// FlexibleStringValue converts a json.RawMessage to a string, handling cases where
// LLMs return numbers or booleans instead of strings. Returns empty string for null/empty.
func FlexibleStringValue(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}

	// Try string first
	var strVal string
	if err := json.Unmarshal(raw, &strVal); err == nil {
		return strVal
	}

	// Try number
	var numVal float64
	if err := json.Unmarshal(raw, &numVal); err == nil {
		if numVal == float64(int64(numVal)) {
			return fmt.Sprintf("%d", int64(numVal))
		}
		return fmt.Sprintf("%g", numVal)
	}

	// Try boolean
	var boolVal bool
	if err := json.Unmarshal(raw, &boolVal); err == nil {
		return fmt.Sprintf("%t", boolVal)
	}

	// Fallback: return raw string representation
	return string(raw)
}

// The types below never fail to decode: a value of the wrong kind becomes
// the zero value so one odd field cannot discard a whole model reply.

// String accepts a string, number, bool or a list of those (joined with ", ").
type String string

func (s *String) UnmarshalJSON(data []byte) error {
	var list []json.RawMessage
	if err := json.Unmarshal(data, &list); err == nil {
		*s = String(strings.Join(flexibleStrings(list), ", "))
		return nil
	}
	if len(data) > 0 && data[0] == '{' {
		*s = ""
		return nil
	}
	*s = String(strings.TrimSpace(FlexibleStringValue(data)))
	return nil
}

// Strings accepts a list or a single scalar.
type Strings []string

func (s *Strings) UnmarshalJSON(data []byte) error {
	var list []json.RawMessage
	if err := json.Unmarshal(data, &list); err == nil {
		if values := flexibleStrings(list); len(values) > 0 {
			*s = values
		} else {
			*s = nil
		}
		return nil
	}
	if len(data) > 0 && data[0] == '{' {
		*s = nil
		return nil
	}
	if v := strings.TrimSpace(FlexibleStringValue(data)); v != "" {
		*s = Strings{v}
	} else {
		*s = nil
	}
	return nil
}

// Bool accepts a JSON boolean, a number, or text such as "yes" and "true".
type Bool bool

func (b *Bool) UnmarshalJSON(data []byte) error {
	switch strings.ToLower(strings.TrimSpace(FlexibleStringValue(data))) {
	case "true", "yes", "y", "1":
		*b = true
	default:
		*b = false
	}
	return nil
}

// Float accepts a number or numeric text with an optional trailing "%".
type Float float64

func (f *Float) UnmarshalJSON(data []byte) error {
	text := strings.TrimSuffix(strings.TrimSpace(FlexibleStringValue(data)), "%")
	n, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil {
		*f = 0
		return nil
	}
	*f = Float(n)
	return nil
}

func flexibleStrings(list []json.RawMessage) []string {
	out := make([]string, 0, len(list))
	for _, raw := range list {
		if len(raw) > 0 && (raw[0] == '{' || raw[0] == '[') {
			continue
		}
		if v := strings.TrimSpace(FlexibleStringValue(raw)); v != "" {
			out = append(out, v)
		}
	}
	return out
}
