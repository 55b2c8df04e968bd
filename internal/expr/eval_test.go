package expr

import "testing"

func mustEval(t *testing.T, src string, env *Env) Value {
	t.Helper()
	node, err := Parse(src)
	if err != nil {
		t.Fatalf("parse(%q): %v", src, err)
	}
	v, err := Eval(node, env)
	if err != nil {
		t.Fatalf("eval(%q): %v", src, err)
	}
	return v
}

func emptyEnv() *Env {
	return &Env{Vars: map[string]Value{}, Env: map[string]string{}}
}

func TestArithmeticCommutative(t *testing.T) {
	env := &Env{Vars: map[string]Value{"a": Number(3), "b": Number(5)}, Env: map[string]string{}}
	ab := mustEval(t, "a + b", env)
	ba := mustEval(t, "b + a", env)
	if !Equal(ab, ba) {
		t.Fatalf("a+b != b+a: %v vs %v", Format(ab), Format(ba))
	}
}

func TestLenKeysAgree(t *testing.T) {
	env := &Env{Vars: map[string]Value{
		"o": Object(map[string]Value{"x": Number(1), "y": Number(2), "z": Number(3)}),
	}, Env: map[string]string{}}
	lenOfKeys := mustEval(t, "len(keys(o))", env)
	lenOfObj := mustEval(t, "len(o)", env)
	if !Equal(lenOfKeys, lenOfObj) {
		t.Fatalf("len(keys(o)) != len(o): %v vs %v", Format(lenOfKeys), Format(lenOfObj))
	}
}

func TestInUniqueEquivalence(t *testing.T) {
	arr := Array([]Value{Number(1), Number(2), Number(2), Number(3)})
	env := &Env{Vars: map[string]Value{"arr": arr, "x": Number(2)}, Env: map[string]string{}}
	inArr := mustEval(t, "x in arr", env)
	inUnique := mustEval(t, "x in unique(arr)", env)
	if !Equal(inArr, inUnique) {
		t.Fatalf("x in arr != x in unique(arr)")
	}
}

func TestDoubleNegationIdentity(t *testing.T) {
	env := &Env{Vars: map[string]Value{"b": Bool(true)}, Env: map[string]string{}}
	b := mustEval(t, "b", env)
	nn := mustEval(t, "not not b", env)
	if !Equal(b, nn) {
		t.Fatalf("not not b != b")
	}
}

func TestForallEmptyIsVacuouslyTrue(t *testing.T) {
	env := &Env{Vars: map[string]Value{"xs": Array(nil)}, Env: map[string]string{}}
	v := mustEval(t, "x > 0 forall x in xs", env)
	b, err := v.AsBool()
	if err != nil || !b {
		t.Fatalf("expected vacuous true, got %v err=%v", Format(v), err)
	}
}

func TestForallShortCircuitsOnFirstFalse(t *testing.T) {
	env := &Env{Vars: map[string]Value{"xs": Array([]Value{Number(1), Number(-1), Number(2)})}, Env: map[string]string{}}
	v := mustEval(t, "x > 0 forall x in xs", env)
	b, err := v.AsBool()
	if err != nil || b {
		t.Fatalf("expected false, got %v err=%v", Format(v), err)
	}
}

func TestMatchesAgreesWithRegexp(t *testing.T) {
	env := &Env{Vars: map[string]Value{"s": String("hello123")}, Env: map[string]string{}}
	v := mustEval(t, `s matches /^[a-z]+[0-9]+$/`, env)
	b, err := v.AsBool()
	if err != nil || !b {
		t.Fatalf("expected match, got %v err=%v", Format(v), err)
	}
}

func TestDivisionByZero(t *testing.T) {
	node, err := Parse("1 / 0")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	_, err = Eval(node, emptyEnv())
	if _, ok := err.(*DivisionByZeroError); !ok {
		t.Fatalf("expected DivisionByZeroError, got %v", err)
	}
}

func TestNegativeIndexing(t *testing.T) {
	env := &Env{Vars: map[string]Value{"arr": Array([]Value{Number(10), Number(20), Number(30)})}, Env: map[string]string{}}
	v := mustEval(t, "arr[-1]", env)
	n, _ := v.AsNumber()
	if n != 30 {
		t.Fatalf("expected 30, got %v", n)
	}
}

func TestStringConcatenation(t *testing.T) {
	env := &Env{Vars: map[string]Value{"a": String("foo"), "b": String("bar")}, Env: map[string]string{}}
	v := mustEval(t, "a + b", env)
	s, _ := v.AsString()
	if s != "foobar" {
		t.Fatalf("expected foobar, got %q", s)
	}
}

func TestAndOrShortCircuit(t *testing.T) {
	env := &Env{Vars: map[string]Value{"b": Bool(false)}, Env: map[string]string{}}
	v := mustEval(t, "b and undefined_var", env)
	bv, _ := v.AsBool()
	if bv {
		t.Fatalf("expected false")
	}
	v = mustEval(t, "not b or undefined_var", env)
	bv, _ = v.AsBool()
	if !bv {
		t.Fatalf("expected true")
	}
}

func TestEnvLookupMissingIsEmptyString(t *testing.T) {
	env := &Env{Vars: map[string]Value{}, Env: map[string]string{"PRESENT": "1"}}
	v := mustEval(t, `env("PRESENT")`, env)
	s, err := v.AsString()
	if err != nil || s != "1" {
		t.Fatalf("expected \"1\", got %v err=%v", Format(v), err)
	}
	missing := mustEval(t, `env("ABSENT")`, env)
	ms, err := missing.AsString()
	if err != nil || ms != "" {
		t.Fatalf("expected empty string for missing env var, got %v err=%v", Format(missing), err)
	}
}

func TestSumMinMaxAbsUnique(t *testing.T) {
	env := &Env{Vars: map[string]Value{"xs": Array([]Value{Number(3), Number(-7), Number(5), Number(3)})}, Env: map[string]string{}}
	if v := mustEval(t, "sum(xs)", env); Format(v) != "4" {
		t.Fatalf("sum: got %v", Format(v))
	}
	if v := mustEval(t, "min(xs)", env); Format(v) != "-7" {
		t.Fatalf("min: got %v", Format(v))
	}
	if v := mustEval(t, "max(xs)", env); Format(v) != "5" {
		t.Fatalf("max: got %v", Format(v))
	}
	if v := mustEval(t, "abs(-7)", emptyEnv()); Format(v) != "7" {
		t.Fatalf("abs: got %v", Format(v))
	}
	if v := mustEval(t, "len(unique(xs))", env); Format(v) != "3" {
		t.Fatalf("unique: got %v", Format(v))
	}
}

func TestTypeTagComparison(t *testing.T) {
	env := &Env{Vars: map[string]Value{"n": Number(1)}, Env: map[string]string{}}
	v := mustEval(t, "type(n) == number", env)
	b, _ := v.AsBool()
	if !b {
		t.Fatalf("expected type(n) == number to be true")
	}
}

func TestNullEquality(t *testing.T) {
	env := &Env{Vars: map[string]Value{"m": Null()}, Env: map[string]string{}}
	v := mustEval(t, "m == null", env)
	b, _ := v.AsBool()
	if !b {
		t.Fatalf("expected m == null")
	}
}

func TestObjectFieldAndIndexAgree(t *testing.T) {
	env := &Env{Vars: map[string]Value{"o": Object(map[string]Value{"name": String("ok")})}, Env: map[string]string{}}
	dot := mustEval(t, "o.name", env)
	idx := mustEval(t, `o["name"]`, env)
	if !Equal(dot, idx) {
		t.Fatalf("o.name != o[\"name\"]")
	}
}

func TestUndefinedVariableError(t *testing.T) {
	node, err := Parse("missing")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	_, err = Eval(node, emptyEnv())
	if _, ok := err.(*UndefinedVariableError); !ok {
		t.Fatalf("expected UndefinedVariableError, got %v", err)
	}
}
