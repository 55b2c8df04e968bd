package corpus

import (
	"fmt"
	"strings"
)

// Serialize renders a CorpusFile back to its textual form using delimiters
// of length delimLen, for the parser round-trip property test (§8):
// Parse(file, Serialize(cf, L)) == cf.
func Serialize(cf *CorpusFile, delimLen int) string {
	var sb strings.Builder
	eq := strings.Repeat("=", delimLen)
	dash := strings.Repeat("-", delimLen)

	if cf.FileSkip != nil {
		sb.WriteString(serializeSkip(cf.FileSkip))
		sb.WriteByte('\n')
	}
	if cf.FileShell != ShellUnspecified {
		fmt.Fprintf(&sb, "%%shell %s\n", cf.FileShell)
	}
	if len(cf.FilePlatforms) > 0 {
		names := make([]string, len(cf.FilePlatforms))
		for i, p := range cf.FilePlatforms {
			names[i] = p.String()
		}
		fmt.Fprintf(&sb, "%%platform %s\n", strings.Join(names, ", "))
	}
	if cf.FileSkip != nil || cf.FileShell != ShellUnspecified || len(cf.FilePlatforms) > 0 {
		sb.WriteByte('\n')
	}

	// No blank line is inserted between tests: the parser keeps blank lines
	// that precede a header as part of the previous block, so they are
	// already carried in Command / ExpectedOutput.
	for _, tc := range cf.Tests {
		sb.WriteString(eq)
		sb.WriteByte('\n')
		sb.WriteString(tc.Name)
		sb.WriteByte('\n')
		if tc.Skip != nil {
			sb.WriteString(serializeSkip(tc.Skip))
			sb.WriteByte('\n')
		}
		if tc.ExpectedExit.Kind != ExitSuccess {
			fmt.Fprintf(&sb, "%%exit %s\n", serializeExit(tc.ExpectedExit))
		}
		if tc.Require {
			sb.WriteString("%require\n")
		}
		sb.WriteString(eq)
		sb.WriteByte('\n')
		sb.WriteString(tc.Command)
		sb.WriteByte('\n')
		if tc.ExpectedOutput != nil {
			sb.WriteString(dash)
			sb.WriteByte('\n')
			sb.WriteString(*tc.ExpectedOutput)
			sb.WriteByte('\n')
			if len(tc.Constraints) > 0 {
				sb.WriteString(dash)
				sb.WriteByte('\n')
				sb.WriteString("where\n")
				for _, c := range tc.Constraints {
					sb.WriteString("* ")
					sb.WriteString(c)
					sb.WriteByte('\n')
				}
			}
		}
	}

	return sb.String()
}

func serializeSkip(s *Skip) string {
	var sb strings.Builder
	sb.WriteString("%skip")
	if s.Message != "" {
		sb.WriteByte('(')
		sb.WriteString(s.Message)
		sb.WriteByte(')')
	}
	if s.Condition != "" {
		sb.WriteString(" if: ")
		sb.WriteString(s.Condition)
	}
	return sb.String()
}

func serializeExit(e ExpectedExit) string {
	if e.Kind == ExitNonzero {
		return "nonzero"
	}
	return fmt.Sprintf("%d", e.Code)
}
