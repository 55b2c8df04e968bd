package expr

import (
	"sort"
	"strings"
)

func evalCall(n Call, env *Env) (Value, error) {
	args := make([]Value, len(n.Args))
	for i, a := range n.Args {
		v, err := Eval(a, env)
		if err != nil {
			return Value{}, err
		}
		args[i] = v
	}

	switch n.Name {
	case "len":
		return fnLen(args)
	case "type":
		return fnType(args)
	case "keys":
		return fnKeys(args)
	case "values":
		return fnValues(args)
	case "sum":
		return fnSum(args)
	case "min":
		return fnMinMax(args, false)
	case "max":
		return fnMinMax(args, true)
	case "abs":
		return fnAbs(args)
	case "unique":
		return fnUnique(args)
	case "lower":
		return fnCase(args, strings.ToLower)
	case "upper":
		return fnCase(args, strings.ToUpper)
	case "env":
		return fnEnv(args, env)
	}
	return Value{}, &UndefinedFunctionError{Name: n.Name}
}

func requireArgs(name string, args []Value, want int) error {
	if len(args) != want {
		return &WrongArgCountError{Function: name, Expected: want, Got: len(args)}
	}
	return nil
}

func fnLen(args []Value) (Value, error) {
	if err := requireArgs("len", args, 1); err != nil {
		return Value{}, err
	}
	switch args[0].Kind() {
	case KindString:
		s, _ := args[0].AsString()
		return Number(float64(len([]rune(s)))), nil
	case KindArray:
		arr, _ := args[0].AsArray()
		return Number(float64(len(arr))), nil
	case KindObject:
		obj, _ := args[0].AsObject()
		return Number(float64(len(obj))), nil
	}
	return Value{}, &TypeError{Expected: "string, array, or object", Got: args[0].Kind().String()}
}

func fnType(args []Value) (Value, error) {
	if err := requireArgs("type", args, 1); err != nil {
		return Value{}, err
	}
	return TypeTag(args[0].TypeName()), nil
}

func sortedKeys(obj map[string]Value) []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func fnKeys(args []Value) (Value, error) {
	if err := requireArgs("keys", args, 1); err != nil {
		return Value{}, err
	}
	obj, err := args[0].AsObject()
	if err != nil {
		return Value{}, err
	}
	keys := sortedKeys(obj)
	out := make([]Value, len(keys))
	for i, k := range keys {
		out[i] = String(k)
	}
	return Array(out), nil
}

func fnValues(args []Value) (Value, error) {
	if err := requireArgs("values", args, 1); err != nil {
		return Value{}, err
	}
	obj, err := args[0].AsObject()
	if err != nil {
		return Value{}, err
	}
	keys := sortedKeys(obj)
	out := make([]Value, len(keys))
	for i, k := range keys {
		out[i] = obj[k]
	}
	return Array(out), nil
}

func fnSum(args []Value) (Value, error) {
	if err := requireArgs("sum", args, 1); err != nil {
		return Value{}, err
	}
	arr, err := args[0].AsArray()
	if err != nil {
		return Value{}, err
	}
	var total float64
	for _, item := range arr {
		n, err := item.AsNumber()
		if err != nil {
			return Value{}, err
		}
		total += n
	}
	return Number(total), nil
}

// fnMinMax accepts either a single array argument or two or more scalar
// arguments, the way the corpus test scripts call `min(a, b)` as often as
// `min(numbers)`.
func fnMinMax(args []Value, wantMax bool) (Value, error) {
	var nums []float64
	if len(args) == 1 && args[0].Kind() == KindArray {
		arr, _ := args[0].AsArray()
		if len(arr) == 0 {
			return Value{}, &WrongArgCountError{Function: "min/max", Expected: 1, Got: 0}
		}
		for _, item := range arr {
			n, err := item.AsNumber()
			if err != nil {
				return Value{}, err
			}
			nums = append(nums, n)
		}
	} else {
		if len(args) == 0 {
			return Value{}, &WrongArgCountError{Function: "min/max", Expected: 1, Got: 0}
		}
		for _, a := range args {
			n, err := a.AsNumber()
			if err != nil {
				return Value{}, err
			}
			nums = append(nums, n)
		}
	}
	best := nums[0]
	for _, n := range nums[1:] {
		if (wantMax && n > best) || (!wantMax && n < best) {
			best = n
		}
	}
	return Number(best), nil
}

func fnAbs(args []Value) (Value, error) {
	if err := requireArgs("abs", args, 1); err != nil {
		return Value{}, err
	}
	n, err := args[0].AsNumber()
	if err != nil {
		return Value{}, err
	}
	if n < 0 {
		n = -n
	}
	return Number(n), nil
}

func fnUnique(args []Value) (Value, error) {
	if err := requireArgs("unique", args, 1); err != nil {
		return Value{}, err
	}
	arr, err := args[0].AsArray()
	if err != nil {
		return Value{}, err
	}
	var out []Value
	for _, item := range arr {
		seen := false
		for _, kept := range out {
			if Equal(item, kept) {
				seen = true
				break
			}
		}
		if !seen {
			out = append(out, item)
		}
	}
	return Array(out), nil
}

func fnCase(args []Value, transform func(string) string) (Value, error) {
	if len(args) != 1 {
		return Value{}, &WrongArgCountError{Function: "lower/upper", Expected: 1, Got: len(args)}
	}
	s, err := args[0].AsString()
	if err != nil {
		return Value{}, err
	}
	return String(transform(s)), nil
}

func fnEnv(args []Value, env *Env) (Value, error) {
	if err := requireArgs("env", args, 1); err != nil {
		return Value{}, err
	}
	name, err := args[0].AsString()
	if err != nil {
		return Value{}, err
	}
	// undefined names yield the empty string, matching a missing process
	// environment variable rather than a typed absence.
	return String(env.Env[name]), nil
}
