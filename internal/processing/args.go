package processing

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Args holds the configured argument values of a unit, keyed by name.
//
// Values come from Go callers, YAML job files and JSON tool calls, so numbers
// may arrive as any integer or float type, json.Number or a numeric string.
type Args map[string]any

// Int returns the named argument as an int, or def when it is unset.
func (a Args) Int(name string, def int) (int, error) {
	v, ok := a[name]
	if !ok || v == nil {
		return def, nil
	}
	f, err := toFloat(v)
	if err != nil {
		return 0, fmt.Errorf("argument %s: %w", name, err)
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("argument %s: %v is not an integer", name, v)
	}
	return int(f), nil
}

// Float returns the named argument as a float64, or def when it is unset.
func (a Args) Float(name string, def float64) (float64, error) {
	v, ok := a[name]
	if !ok || v == nil {
		return def, nil
	}
	f, err := toFloat(v)
	if err != nil {
		return 0, fmt.Errorf("argument %s: %w", name, err)
	}
	return f, nil
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case int:
		return float64(n), nil
	case int8:
		return float64(n), nil
	case int16:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case uint:
		return float64(n), nil
	case uint8:
		return float64(n), nil
	case uint16:
		return float64(n), nil
	case uint32:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	case float32:
		return float64(n), nil
	case float64:
		return n, nil
	case json.Number:
		return n.Float64()
	case string:
		return strconv.ParseFloat(n, 64)
	}
	return 0, fmt.Errorf("unsupported value %v (%T)", v, v)
}
