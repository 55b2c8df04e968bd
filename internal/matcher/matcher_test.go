package matcher

import (
	"testing"

	"github.com/cctr-dev/cctr/internal/corpus"
	"github.com/cctr-dev/cctr/internal/expr"
)

func strPtr(s string) *string { return &s }

func TestMatchExactEqualityNoVars(t *testing.T) {
	tc := corpus.TestCase{ExpectedOutput: strPtr("hello\n")}
	out := Match(tc, "hello\r\n", nil, nil)
	if !out.Matched || out.Err != nil {
		t.Fatalf("expected match, got %+v", out)
	}
}

func TestMatchNumericConstraintPasses(t *testing.T) {
	tc := corpus.TestCase{
		ExpectedOutput: strPtr("Completed in {{ t: number }}s\n"),
		DeclaredVars:   []corpus.VarDecl{{Name: "t", Type: corpus.TypeNumber}},
		Constraints:    []string{"t > 0", "t < 60"},
	}
	out := Match(tc, "Completed in 0.5s\n", nil, nil)
	if !out.Matched || out.Err != nil {
		t.Fatalf("expected match, got %+v", out)
	}
}

func TestMatchNumericConstraintFails(t *testing.T) {
	tc := corpus.TestCase{
		ExpectedOutput: strPtr("Completed in {{ t: number }}s\n"),
		DeclaredVars:   []corpus.VarDecl{{Name: "t", Type: corpus.TypeNumber}},
		Constraints:    []string{"t > 10"},
	}
	out := Match(tc, "Completed in 0.5s\n", nil, nil)
	if out.Matched {
		t.Fatal("expected non-match due to failed constraint")
	}
	if _, ok := out.Err.(*ConstraintNotSatisfiedError); !ok {
		t.Fatalf("expected ConstraintNotSatisfiedError, got %T: %v", out.Err, out.Err)
	}
}

func TestMatchDuckTypedNumber(t *testing.T) {
	tc := corpus.TestCase{
		ExpectedOutput: strPtr("value: {{ v }}\n"),
		DeclaredVars:   []corpus.VarDecl{{Name: "v", Type: corpus.TypeNone}},
		Constraints:    []string{"v == 42"},
	}
	out := Match(tc, "value: 42\n", nil, nil)
	if !out.Matched || out.Err != nil {
		t.Fatalf("expected match, got %+v", out)
	}
}

func TestMatchDuplicateVariableIsError(t *testing.T) {
	tc := corpus.TestCase{
		ExpectedOutput: strPtr("{{ x }} and {{ x }}\n"),
		DeclaredVars:   []corpus.VarDecl{{Name: "x", Type: corpus.TypeNone}},
	}
	out := Match(tc, "a and b\n", nil, nil)
	if _, ok := out.Err.(*DuplicateVariableError); !ok {
		t.Fatalf("expected DuplicateVariableError, got %T: %v", out.Err, out.Err)
	}
}

func TestMatchJsonArrayCapture(t *testing.T) {
	tc := corpus.TestCase{
		ExpectedOutput: strPtr("items: {{ items: json array }}\n"),
		DeclaredVars:   []corpus.VarDecl{{Name: "items", Type: corpus.TypeJSONArray}},
		Constraints:    []string{"len(items) == 3"},
	}
	out := Match(tc, "items: [1, 2, 3]\n", nil, nil)
	if !out.Matched || out.Err != nil {
		t.Fatalf("expected match, got %+v", out)
	}
}

func TestMatchInvalidJsonIsParseError(t *testing.T) {
	tc := corpus.TestCase{
		ExpectedOutput: strPtr("items: {{ items: json object }}\n"),
		DeclaredVars:   []corpus.VarDecl{{Name: "items", Type: corpus.TypeJSONObject}},
	}
	out := Match(tc, "items: {not json}\n", nil, nil)
	if _, ok := out.Err.(*JsonParseError); !ok {
		t.Fatalf("expected JsonParseError, got %T: %v", out.Err, out.Err)
	}
}

func TestMatchConstraintReferencesPriorBinding(t *testing.T) {
	tc := corpus.TestCase{
		ExpectedOutput: strPtr("child pid: {{ pid }}\n"),
		DeclaredVars:   []corpus.VarDecl{{Name: "pid", Type: corpus.TypeNone}},
		Constraints:    []string{"pid != parent_pid"},
	}
	prior := map[string]expr.Value{"parent_pid": expr.Number(100)}
	out := Match(tc, "child pid: 101\n", prior, nil)
	if !out.Matched || out.Err != nil {
		t.Fatalf("expected match using prior binding, got %+v", out)
	}
}
