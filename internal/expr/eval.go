package expr

import (
	"math"
	"regexp"
	"sort"
	"strings"
)

// Env is the variable environment a constraint expression evaluates against.
type Env struct {
	Vars map[string]Value
	// Env is the explicit environment-variable map the env() builtin reads,
	// threaded in rather than read from os.Environ() (see SPEC_FULL.md §4.2).
	Env map[string]string
}

// typeNames are the bareword type tags: `number`, `string`, etc. evaluate
// to a TypeTag Value rather than a variable lookup.
var typeNames = map[string]bool{
	"number": true, "string": true, "bool": true,
	"array": true, "object": true,
}

// Eval evaluates a parsed expression against env.
func Eval(node Node, env *Env) (Value, error) {
	switch n := node.(type) {
	case NumberLit:
		return Number(n.Value), nil
	case StringLit:
		return String(n.Value), nil
	case BoolLit:
		return Bool(n.Value), nil
	case RegexLit:
		return String(n.Pattern), nil
	case Ident:
		return evalIdent(n, env)
	case ArrayLit:
		items := make([]Value, len(n.Items))
		for i, item := range n.Items {
			v, err := Eval(item, env)
			if err != nil {
				return Value{}, err
			}
			items[i] = v
		}
		return Array(items), nil
	case ObjectLit:
		fields := make(map[string]Value, len(n.Entries))
		for _, e := range n.Entries {
			v, err := Eval(e.Value, env)
			if err != nil {
				return Value{}, err
			}
			fields[e.Key] = v
		}
		return Object(fields), nil
	case Unary:
		return evalUnary(n, env)
	case Binary:
		return evalBinary(n, env)
	case Call:
		return evalCall(n, env)
	case Index:
		return evalIndex(n, env)
	case Field:
		return evalField(n, env)
	case Forall:
		return evalForall(n, env)
	}
	return Value{}, &ParseError{Message: "unknown AST node"}
}

// EvalBool evaluates a constraint string and requires a boolean result.
func EvalBool(source string, env *Env) (bool, error) {
	node, err := Parse(source)
	if err != nil {
		return false, err
	}
	v, err := Eval(node, env)
	if err != nil {
		return false, err
	}
	return v.AsBool()
}

func evalIdent(n Ident, env *Env) (Value, error) {
	if n.Name == "null" {
		return Null(), nil
	}
	if typeNames[n.Name] {
		return TypeTag(n.Name), nil
	}
	if v, ok := env.Vars[n.Name]; ok {
		return v, nil
	}
	return Value{}, &UndefinedVariableError{Name: n.Name}
}

func evalUnary(n Unary, env *Env) (Value, error) {
	v, err := Eval(n.Expr, env)
	if err != nil {
		return Value{}, err
	}
	switch n.Op {
	case "not":
		b, err := v.AsBool()
		if err != nil {
			return Value{}, err
		}
		return Bool(!b), nil
	case "-":
		num, err := v.AsNumber()
		if err != nil {
			return Value{}, err
		}
		return Number(-num), nil
	}
	return Value{}, &ParseError{Message: "unknown unary operator " + n.Op}
}

func evalBinary(n Binary, env *Env) (Value, error) {
	switch n.Op {
	case "and":
		left, err := Eval(n.Left, env)
		if err != nil {
			return Value{}, err
		}
		lb, err := left.AsBool()
		if err != nil {
			return Value{}, err
		}
		if !lb {
			return Bool(false), nil
		}
		right, err := Eval(n.Right, env)
		if err != nil {
			return Value{}, err
		}
		rb, err := right.AsBool()
		if err != nil {
			return Value{}, err
		}
		return Bool(rb), nil
	case "or":
		left, err := Eval(n.Left, env)
		if err != nil {
			return Value{}, err
		}
		lb, err := left.AsBool()
		if err != nil {
			return Value{}, err
		}
		if lb {
			return Bool(true), nil
		}
		right, err := Eval(n.Right, env)
		if err != nil {
			return Value{}, err
		}
		rb, err := right.AsBool()
		if err != nil {
			return Value{}, err
		}
		return Bool(rb), nil
	}

	left, err := Eval(n.Left, env)
	if err != nil {
		return Value{}, err
	}
	right, err := Eval(n.Right, env)
	if err != nil {
		return Value{}, err
	}

	switch n.Op {
	case "+":
		return evalAdd(left, right)
	case "-", "*", "/", "%", "^":
		return evalArith(n.Op, left, right)
	case "==":
		return Bool(Equal(left, right)), nil
	case "!=":
		return Bool(!Equal(left, right)), nil
	case "<", "<=", ">", ">=":
		return evalOrder(n.Op, left, right)
	case "in":
		return evalIn(left, right)
	case "contains":
		return evalStringBinop(left, right, strings.Contains)
	case "startswith":
		return evalStringBinop(left, right, strings.HasPrefix)
	case "endswith":
		return evalStringBinop(left, right, strings.HasSuffix)
	case "matches":
		return evalMatches(left, right)
	}
	return Value{}, &ParseError{Message: "unknown binary operator " + n.Op}
}

func evalAdd(left, right Value) (Value, error) {
	if left.Kind() == KindString && right.Kind() == KindString {
		ls, _ := left.AsString()
		rs, _ := right.AsString()
		return String(ls + rs), nil
	}
	if left.Kind() == KindArray && right.Kind() == KindArray {
		la, _ := left.AsArray()
		ra, _ := right.AsArray()
		out := make([]Value, 0, len(la)+len(ra))
		out = append(out, la...)
		out = append(out, ra...)
		return Array(out), nil
	}
	return evalArith("+", left, right)
}

func evalArith(op string, left, right Value) (Value, error) {
	ln, err := left.AsNumber()
	if err != nil {
		return Value{}, err
	}
	rn, err := right.AsNumber()
	if err != nil {
		return Value{}, err
	}
	switch op {
	case "+":
		return Number(ln + rn), nil
	case "-":
		return Number(ln - rn), nil
	case "*":
		return Number(ln * rn), nil
	case "/":
		if rn == 0 {
			return Value{}, &DivisionByZeroError{}
		}
		return Number(ln / rn), nil
	case "%":
		if rn == 0 {
			return Value{}, &DivisionByZeroError{}
		}
		return Number(ieeeRemainder(ln, rn)), nil
	case "^":
		return Number(pow(ln, rn)), nil
	}
	return Value{}, &ParseError{Message: "unknown arithmetic operator " + op}
}

func evalOrder(op string, left, right Value) (Value, error) {
	if left.Kind() == KindString && right.Kind() == KindString {
		ls, _ := left.AsString()
		rs, _ := right.AsString()
		return Bool(compareStrings(op, ls, rs)), nil
	}
	ln, err := left.AsNumber()
	if err != nil {
		return Value{}, err
	}
	rn, err := right.AsNumber()
	if err != nil {
		return Value{}, err
	}
	switch op {
	case "<":
		return Bool(ln < rn), nil
	case "<=":
		return Bool(ln <= rn), nil
	case ">":
		return Bool(ln > rn), nil
	case ">=":
		return Bool(ln >= rn), nil
	}
	return Value{}, &ParseError{Message: "unknown comparison operator " + op}
}

func compareStrings(op, a, b string) bool {
	switch op {
	case "<":
		return a < b
	case "<=":
		return a <= b
	case ">":
		return a > b
	case ">=":
		return a >= b
	}
	return false
}

func evalIn(left, right Value) (Value, error) {
	items, err := right.AsArray()
	if err != nil {
		return Value{}, err
	}
	for _, item := range items {
		if Equal(left, item) {
			return Bool(true), nil
		}
	}
	return Bool(false), nil
}

func evalStringBinop(left, right Value, fn func(s, substr string) bool) (Value, error) {
	ls, err := left.AsString()
	if err != nil {
		return Value{}, err
	}
	rs, err := right.AsString()
	if err != nil {
		return Value{}, err
	}
	return Bool(fn(ls, rs)), nil
}

func evalMatches(left, right Value) (Value, error) {
	ls, err := left.AsString()
	if err != nil {
		return Value{}, err
	}
	pattern, err := right.AsString()
	if err != nil {
		return Value{}, err
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return Value{}, &InvalidRegexError{Pattern: pattern, Cause: err}
	}
	return Bool(re.MatchString(ls)), nil
}

func evalIndex(n Index, env *Env) (Value, error) {
	base, err := Eval(n.Base, env)
	if err != nil {
		return Value{}, err
	}
	idx, err := Eval(n.Idx, env)
	if err != nil {
		return Value{}, err
	}
	switch base.Kind() {
	case KindArray:
		arr, _ := base.AsArray()
		i, err := idx.AsNumber()
		if err != nil {
			return Value{}, err
		}
		pos := normalizeIndex(int(i), len(arr))
		if pos < 0 || pos >= len(arr) {
			return Value{}, &IndexOutOfBoundsError{Index: int(i), Len: len(arr)}
		}
		return arr[pos], nil
	case KindString:
		s, _ := base.AsString()
		runes := []rune(s)
		i, err := idx.AsNumber()
		if err != nil {
			return Value{}, err
		}
		pos := normalizeIndex(int(i), len(runes))
		if pos < 0 || pos >= len(runes) {
			return Value{}, &IndexOutOfBoundsError{Index: int(i), Len: len(runes)}
		}
		return String(string(runes[pos])), nil
	case KindObject:
		obj, _ := base.AsObject()
		key, err := idx.AsString()
		if err != nil {
			return Value{}, err
		}
		v, ok := obj[key]
		if !ok {
			return Value{}, &KeyNotFoundError{Key: key}
		}
		return v, nil
	}
	return Value{}, &TypeError{Expected: "array, string, or object", Got: base.Kind().String()}
}

func normalizeIndex(i, length int) int {
	if i < 0 {
		return length + i
	}
	return i
}

func evalField(n Field, env *Env) (Value, error) {
	base, err := Eval(n.Base, env)
	if err != nil {
		return Value{}, err
	}
	obj, err := base.AsObject()
	if err != nil {
		return Value{}, err
	}
	v, ok := obj[n.Name]
	if !ok {
		return Value{}, &KeyNotFoundError{Key: n.Name}
	}
	return v, nil
}

func evalForall(n Forall, env *Env) (Value, error) {
	iterable, err := Eval(n.Iterable, env)
	if err != nil {
		return Value{}, err
	}
	var items []Value
	switch iterable.Kind() {
	case KindArray:
		items, _ = iterable.AsArray()
	case KindObject:
		obj, _ := iterable.AsObject()
		keys := make([]string, 0, len(obj))
		for k := range obj {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			items = append(items, obj[k])
		}
	default:
		return Value{}, &TypeError{Expected: "array or object", Got: iterable.Kind().String()}
	}

	childVars := make(map[string]Value, len(env.Vars)+1)
	for k, v := range env.Vars {
		childVars[k] = v
	}
	childEnv := &Env{Vars: childVars, Env: env.Env}

	for _, item := range items {
		childVars[n.Var] = item
		v, err := Eval(n.Predicate, childEnv)
		if err != nil {
			return Value{}, err
		}
		b, err := v.AsBool()
		if err != nil {
			return Value{}, err
		}
		if !b {
			return Bool(false), nil
		}
	}
	return Bool(true), nil
}

func ieeeRemainder(x, y float64) float64 {
	return math.Mod(x, y)
}

func pow(x, y float64) float64 {
	return math.Pow(x, y)
}
