package utils

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNotJSONObject is returned when text parses to something other than an
// object or an array.
var ErrNotJSONObject = errors.New("not a JSON object")

// TryParseJSON parses text and accepts only structured values. Arrays count as
// objects here; scalars and null do not.
func TryParseJSON(text string) (any, error) {
	var value any
	if err := json.Unmarshal([]byte(text), &value); err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}
	switch value.(type) {
	case map[string]any, []any:
		return value, nil
	default:
		return nil, ErrNotJSONObject
	}
}

// MarshalIndented encodes v as JSON indented with the given number of spaces.
func MarshalIndented(v any, spaces int) ([]byte, error) {
	indent := make([]byte, spaces)
	for i := range indent {
		indent[i] = ' '
	}
	return json.MarshalIndent(v, "", string(indent))
}
