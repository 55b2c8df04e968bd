// Package update rewrites a corpus file's expected-output blocks in place
// for tests that failed and produced output, per SPEC_FULL.md §6.5.
package update

import (
	"fmt"
	"strings"

	"github.com/cctr-dev/cctr/internal/scheduler"
)

// Rewrite applies updates to content (the corpus file's raw text) for every
// failing result in results whose Output is non-empty, replacing the block
// between the first block-separator after the test's header and the next
// block-separator or header; blank lines just before that boundary are kept.
// Passing and skipped tests are untouched.
func Rewrite(content string, results []scheduler.TestResult) (string, error) {
	lines := splitKeepBlank(content)
	delimLen := detectDelimLen(lines)

	for _, r := range results {
		if r.Passed || r.Skipped || r.Output == "" {
			continue
		}
		newLines, err := rewriteOne(lines, r, delimLen)
		if err != nil {
			return "", fmt.Errorf("update %q: %w", r.Name, err)
		}
		lines = newLines
	}
	return strings.Join(lines, "\n"), nil
}

func detectDelimLen(lines []string) int {
	for _, l := range lines {
		trimmed := strings.TrimRight(l, "\r")
		if n := runLength(trimmed, '='); n >= 3 {
			return n
		}
	}
	return 3
}

func runLength(s string, ch byte) int {
	for i := 0; i < len(s); i++ {
		if s[i] != ch {
			return 0
		}
	}
	return len(s)
}

func isSep(line string, delimLen int, ch byte) bool {
	trimmed := strings.TrimRight(line, "\r")
	return len(trimmed) == delimLen && runLength(trimmed, ch) == delimLen
}

// rewriteOne finds test r's header (matched by name, since start line alone
// can drift if an earlier rewrite changed line counts) and replaces its
// first expected block's content with r.Output.
func rewriteOne(lines []string, r scheduler.TestResult, delimLen int) ([]string, error) {
	headerIdx := findHeaderByName(lines, r.Name, delimLen)
	if headerIdx < 0 {
		return nil, fmt.Errorf("test header for %q not found", r.Name)
	}

	// Find the second header separator (end of the <L equals>/command block),
	// then the first block separator after it, which opens the expected block.
	secondHeader := -1
	for i := headerIdx + 1; i < len(lines); i++ {
		if isSep(lines[i], delimLen, '=') {
			secondHeader = i
			break
		}
	}
	if secondHeader < 0 {
		return nil, fmt.Errorf("malformed test block for %q", r.Name)
	}

	blockStart := -1
	for i := secondHeader + 1; i < len(lines); i++ {
		if isSep(lines[i], delimLen, '-') {
			blockStart = i
			break
		}
		if isSep(lines[i], delimLen, '=') {
			break
		}
	}
	if blockStart < 0 {
		// Exit-only test: insert a new expected block right after the command.
		insertAt := nextBoundary(lines, secondHeader+1, delimLen)
		for insertAt > secondHeader+2 && strings.TrimSpace(lines[insertAt-1]) == "" {
			insertAt--
		}
		expected := append([]string{strings.Repeat("-", delimLen)}, splitKeepBlank(r.Output)...)
		out := append([]string{}, lines[:insertAt]...)
		out = append(out, expected...)
		out = append(out, lines[insertAt:]...)
		return out, nil
	}

	blockEnd := nextBoundary(lines, blockStart+1, delimLen)
	for blockEnd > blockStart+1 && strings.TrimSpace(lines[blockEnd-1]) == "" {
		blockEnd--
	}
	newExpected := splitKeepBlank(r.Output)
	out := append([]string{}, lines[:blockStart+1]...)
	out = append(out, newExpected...)
	out = append(out, lines[blockEnd:]...)
	return out, nil
}

// nextBoundary returns the index of the next separator (either kind) or
// header at or after from, or len(lines) if none remains.
func nextBoundary(lines []string, from, delimLen int) int {
	for i := from; i < len(lines); i++ {
		if isSep(lines[i], delimLen, '=') || isSep(lines[i], delimLen, '-') {
			return i
		}
	}
	return len(lines)
}

// findHeaderByName locates the <L equals> line immediately preceding the
// description line equal to name.
func findHeaderByName(lines []string, name string, delimLen int) int {
	for i := 0; i < len(lines)-1; i++ {
		if isSep(lines[i], delimLen, '=') && strings.TrimRight(lines[i+1], "\r") == name {
			return i
		}
	}
	return -1
}

func splitKeepBlank(s string) []string {
	s = strings.TrimSuffix(s, "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}
