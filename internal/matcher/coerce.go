package matcher

import (
	"encoding/json"
	"math"
	"strconv"

	"github.com/cctr-dev/cctr/internal/corpus"
	"github.com/cctr-dev/cctr/internal/expr"
)

// Coerce converts a captured string into an expr.Value per its declared
// type (step 6 of §4.3). Untyped (TypeNone) captures are duck-typed.
func Coerce(name, capture string, typ corpus.VarType) (expr.Value, error) {
	switch typ {
	case corpus.TypeNumber:
		n, err := strconv.ParseFloat(capture, 64)
		if err != nil {
			return expr.Value{}, &JsonParseError{Name: name, Capture: capture, Err: err}
		}
		return expr.Number(n), nil
	case corpus.TypeString:
		return expr.String(capture), nil
	case corpus.TypeJSONString:
		var s string
		if err := json.Unmarshal([]byte(capture), &s); err != nil {
			return expr.Value{}, &JsonParseError{Name: name, Capture: capture, Err: err}
		}
		return expr.String(s), nil
	case corpus.TypeJSONBool:
		b, err := strconv.ParseBool(capture)
		if err != nil {
			return expr.Value{}, &JsonParseError{Name: name, Capture: capture, Err: err}
		}
		return expr.Bool(b), nil
	case corpus.TypeJSONArray:
		v, err := parseJSONArray(capture)
		if err != nil {
			return expr.Value{}, &JsonParseError{Name: name, Capture: capture, Err: err}
		}
		return v, nil
	case corpus.TypeJSONObject:
		v, err := parseJSONObject(capture)
		if err != nil {
			return expr.Value{}, &JsonParseError{Name: name, Capture: capture, Err: err}
		}
		return v, nil
	default:
		return duckType(capture), nil
	}
}

// duckType tries, in order: object, array, quoted JSON string, bool, null,
// finite number, falling back to the raw string (§4.3 step 6).
func duckType(capture string) expr.Value {
	if v, err := parseJSONObject(capture); err == nil {
		return v
	}
	if v, err := parseJSONArray(capture); err == nil {
		return v
	}
	var s string
	if err := json.Unmarshal([]byte(capture), &s); err == nil {
		return expr.String(s)
	}
	if capture == "true" || capture == "false" {
		return expr.Bool(capture == "true")
	}
	if capture == "null" {
		return expr.Null()
	}
	if n, err := strconv.ParseFloat(capture, 64); err == nil && !math.IsInf(n, 0) && !math.IsNaN(n) {
		return expr.Number(n)
	}
	return expr.String(capture)
}

func parseJSONArray(capture string) (expr.Value, error) {
	var raw []any
	if err := json.Unmarshal([]byte(capture), &raw); err != nil {
		return expr.Value{}, err
	}
	items := make([]expr.Value, len(raw))
	for i, item := range raw {
		items[i] = fromAny(item)
	}
	return expr.Array(items), nil
}

func parseJSONObject(capture string) (expr.Value, error) {
	var raw map[string]any
	if err := json.Unmarshal([]byte(capture), &raw); err != nil {
		return expr.Value{}, err
	}
	fields := make(map[string]expr.Value, len(raw))
	for k, v := range raw {
		fields[k] = fromAny(v)
	}
	return expr.Object(fields), nil
}

// fromAny converts a value produced by encoding/json's generic decode
// (float64, string, bool, nil, []any, map[string]any) into an expr.Value.
func fromAny(v any) expr.Value {
	switch t := v.(type) {
	case nil:
		return expr.Null()
	case bool:
		return expr.Bool(t)
	case float64:
		return expr.Number(t)
	case string:
		return expr.String(t)
	case []any:
		items := make([]expr.Value, len(t))
		for i, item := range t {
			items[i] = fromAny(item)
		}
		return expr.Array(items)
	case map[string]any:
		fields := make(map[string]expr.Value, len(t))
		for k, item := range t {
			fields[k] = fromAny(item)
		}
		return expr.Object(fields)
	}
	return expr.Null()
}
