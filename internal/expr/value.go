// Package expr implements the small constraint expression language used by
// cctr's "where" sections: arithmetic, comparison, string/collection
// operators, the forall quantifier, and a handful of built-in functions.
package expr

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Kind identifies the dynamic type of a Value.
type Kind int

const (
	KindNumber Kind = iota
	KindString
	KindBool
	KindNull
	KindArray
	KindObject
	KindType
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	case KindNull:
		return "null"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	case KindType:
		return "type"
	default:
		return "unknown"
	}
}

// Value is the tagged union consumed by the evaluator.
type Value struct {
	kind   Kind
	num    float64
	str    string
	boolv  bool
	arr    []Value
	obj    map[string]Value
	typTag string
}

func Number(n float64) Value           { return Value{kind: KindNumber, num: n} }
func String(s string) Value            { return Value{kind: KindString, str: s} }
func Bool(b bool) Value                { return Value{kind: KindBool, boolv: b} }
func Null() Value                      { return Value{kind: KindNull} }
func Array(items []Value) Value        { return Value{kind: KindArray, arr: items} }
func Object(fields map[string]Value) Value {
	return Value{kind: KindObject, obj: fields}
}
func TypeTag(name string) Value { return Value{kind: KindType, typTag: name} }

func (v Value) Kind() Kind { return v.kind }

func (v Value) AsNumber() (float64, error) {
	if v.kind != KindNumber {
		return 0, &TypeError{Expected: "number", Got: v.Kind().String()}
	}
	return v.num, nil
}

func (v Value) AsString() (string, error) {
	if v.kind != KindString {
		return "", &TypeError{Expected: "string", Got: v.Kind().String()}
	}
	return v.str, nil
}

func (v Value) AsBool() (bool, error) {
	if v.kind != KindBool {
		return false, &TypeError{Expected: "bool", Got: v.Kind().String()}
	}
	return v.boolv, nil
}

func (v Value) AsArray() ([]Value, error) {
	if v.kind != KindArray {
		return nil, &TypeError{Expected: "array", Got: v.Kind().String()}
	}
	return v.arr, nil
}

func (v Value) AsObject() (map[string]Value, error) {
	if v.kind != KindObject {
		return nil, &TypeError{Expected: "object", Got: v.Kind().String()}
	}
	return v.obj, nil
}

// TypeName returns the value's type tag name, the way the builtin type()
// function reports it.
func (v Value) TypeName() string {
	switch v.kind {
	case KindType:
		return v.typTag
	default:
		return v.kind.String()
	}
}

// Format renders a Value for diagnostic messages (constraint-failure
// bindings dumps).
func Format(v Value) string {
	switch v.kind {
	case KindNumber:
		if v.num == math.Trunc(v.num) && math.Abs(v.num) < 1e15 {
			return fmt.Sprintf("%d", int64(v.num))
		}
		return fmt.Sprintf("%g", v.num)
	case KindString:
		return fmt.Sprintf("%q", v.str)
	case KindBool:
		return fmt.Sprintf("%t", v.boolv)
	case KindNull:
		return "null"
	case KindArray:
		parts := make([]string, len(v.arr))
		for i, item := range v.arr {
			parts[i] = Format(item)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case KindObject:
		keys := make([]string, 0, len(v.obj))
		for k := range v.obj {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = fmt.Sprintf("%q: %s", k, Format(v.obj[k]))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case KindType:
		return v.typTag
	default:
		return "<?>"
	}
}

// epsilon used for float equality, matching spec.md's "machine epsilon"
// comparison rule.
const epsilon = 2.220446049250313e-16

// Equal implements the spec's deep-equality rule: numbers within an
// epsilon, null equal to the type tag "null", arrays/objects compared
// element/key-wise.
func Equal(a, b Value) bool {
	if a.kind == KindNull && b.kind == KindType && b.typTag == "null" {
		return true
	}
	if b.kind == KindNull && a.kind == KindType && a.typTag == "null" {
		return true
	}
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNumber:
		if a.num == b.num {
			return true
		}
		diff := math.Abs(a.num - b.num)
		return diff <= epsilon*math.Max(1, math.Max(math.Abs(a.num), math.Abs(b.num)))
	case KindString:
		return a.str == b.str
	case KindBool:
		return a.boolv == b.boolv
	case KindNull:
		return true
	case KindType:
		return a.typTag == b.typTag
	case KindArray:
		if len(a.arr) != len(b.arr) {
			return false
		}
		for i := range a.arr {
			if !Equal(a.arr[i], b.arr[i]) {
				return false
			}
		}
		return true
	case KindObject:
		if len(a.obj) != len(b.obj) {
			return false
		}
		for k, av := range a.obj {
			bv, ok := b.obj[k]
			if !ok || !Equal(av, bv) {
				return false
			}
		}
		return true
	}
	return false
}
