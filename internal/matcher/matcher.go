// Package matcher compiles an expected-output template into a backtracking
// regular expression, extracts typed captures (with duck-typing fallback),
// and evaluates "where" constraints against the resulting environment.
package matcher

import (
	"strings"

	"github.com/cctr-dev/cctr/internal/corpus"
	"github.com/cctr-dev/cctr/internal/expr"
)

// Outcome is the result of matching one test's expected output against its
// actual output.
type Outcome struct {
	Matched  bool
	Bindings map[string]expr.Value
	Err      error
}

// Match runs the full §4.3 pipeline for one test. priorEnv carries bindings
// from earlier tests in the same file; envVars is the process/injected
// environment exposed to constraints via env().
func Match(tc corpus.TestCase, actualOutput string, priorEnv map[string]expr.Value, envVars map[string]string) Outcome {
	if tc.ExpectedOutput == nil {
		return Outcome{Matched: true}
	}

	if len(tc.DeclaredVars) == 0 && len(tc.Constraints) == 0 {
		expected := normalizeAndTrim(*tc.ExpectedOutput)
		actual := normalizeAndTrim(actualOutput)
		return Outcome{Matched: expected == actual}
	}

	declared := make(map[string]corpus.VarType, len(tc.DeclaredVars))
	for _, d := range tc.DeclaredVars {
		declared[d.Name] = d.Type
	}

	re, err := BuildRegex(normalizeAndTrim(*tc.ExpectedOutput), declared)
	if err != nil {
		return Outcome{Err: err}
	}

	normalizedActual := normalizeAndTrim(actualOutput)
	m := re.FindStringSubmatch(normalizedActual)
	if m == nil {
		return Outcome{Matched: false}
	}

	captures := map[string]expr.Value{}
	for i, name := range re.SubexpNames() {
		if i == 0 || name == "" {
			continue
		}
		v, err := Coerce(name, m[i], declared[name])
		if err != nil {
			return Outcome{Err: err}
		}
		captures[name] = v
	}

	env := &expr.Env{Vars: map[string]expr.Value{}, Env: envVars}
	for k, v := range priorEnv {
		env.Vars[k] = v
	}
	for k, v := range captures {
		env.Vars[k] = v
	}

	for _, constraint := range tc.Constraints {
		ok, err := expr.EvalBool(constraint, env)
		if err != nil {
			return Outcome{Err: &ConstraintFailedError{Constraint: constraint, Err: err}}
		}
		if !ok {
			return Outcome{Err: &ConstraintNotSatisfiedError{
				Constraint: constraint,
				Bindings:   formatBindings(env.Vars),
			}}
		}
	}

	return Outcome{Matched: true, Bindings: captures}
}

func formatBindings(vars map[string]expr.Value) map[string]string {
	out := make(map[string]string, len(vars))
	for k, v := range vars {
		out[k] = expr.Format(v)
	}
	return out
}

// normalizeNewlines rewrites CRLF to LF, matching the normalization the
// subprocess harness and the matcher both apply before comparison.
func normalizeNewlines(s string) string {
	return strings.ReplaceAll(s, "\r\n", "\n")
}

// normalizeAndTrim applies CRLF normalization then strips a single trailing
// newline, per §4.3's no-variables equality rule.
func normalizeAndTrim(s string) string {
	s = normalizeNewlines(s)
	return strings.TrimSuffix(s, "\n")
}
