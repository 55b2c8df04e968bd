package matcher

import (
	"regexp"
	"strings"

	"github.com/cctr-dev/cctr/internal/corpus"
)

// typePatterns gives the regex body for each declared variable type, per
// SPEC_FULL.md §4.3 step 2.
var typePatterns = map[corpus.VarType]string{
	corpus.TypeNumber:     `-?\d+(?:\.\d+)?`,
	corpus.TypeString:     `.*?`,
	corpus.TypeJSONString: `"(?:[^"\\]|\\.)*"`,
	corpus.TypeJSONBool:   `true|false`,
	corpus.TypeJSONArray:  `\[[\s\S]*\]`,
	corpus.TypeJSONObject: `\{[\s\S]*\}`,
}

const duckTypedPattern = `.*?`

// BuildRegex compiles template into the backtracking regex described in
// SPEC_FULL.md §4.3 steps 1-4. declared maps variable name to its type for
// every name in the test's DeclaredVars; placeholders whose name is absent
// from declared are emitted as duck-typed captures.
func BuildRegex(template string, declared map[string]corpus.VarType) (*regexp.Regexp, error) {
	segments, err := corpus.Split(template)
	if err != nil {
		return nil, err
	}

	var sb strings.Builder
	sb.WriteString(`(?s)^`)
	seen := map[string]bool{}

	for _, seg := range segments {
		if !seg.IsPlaceholder {
			sb.WriteString(regexp.QuoteMeta(seg.Literal))
			continue
		}
		if seen[seg.Name] {
			return nil, &DuplicateVariableError{Name: seg.Name}
		}
		seen[seg.Name] = true

		pattern := duckTypedPattern
		if typ, ok := declared[seg.Name]; ok {
			if p, ok := typePatterns[typ]; ok {
				pattern = p
			}
		}
		sb.WriteString("(?P<")
		sb.WriteString(seg.Name)
		sb.WriteString(">")
		sb.WriteString(pattern)
		sb.WriteString(")")
	}
	sb.WriteString(`$`)

	re, err := regexp.Compile(sb.String())
	if err != nil {
		return nil, err
	}
	return re, nil
}
