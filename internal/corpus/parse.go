package corpus

import (
	"fmt"
	"strconv"
	"strings"
)

// Parse parses a single corpus document. file is used only to annotate
// errors and source spans; it need not exist on disk (the public API mode
// parses stdin under a synthetic name).
func Parse(file string, content string) (*CorpusFile, error) {
	p := &parser{file: file, lines: splitLines(content)}
	return p.parseFile()
}

func splitLines(content string) []string {
	normalized := strings.ReplaceAll(content, "\r\n", "\n")
	normalized = strings.ReplaceAll(normalized, "\r", "\n")
	normalized = strings.TrimSuffix(normalized, "\n")
	if normalized == "" {
		return nil
	}
	return strings.Split(normalized, "\n")
}

type parser struct {
	file     string
	lines    []string
	pos      int // 0-based index of the next unread line
	delimLen int // 0 until the first header fixes it
}

func (p *parser) errf(line int, format string, args ...any) *ParseError {
	return &ParseError{File: p.file, Line: line, Message: fmt.Sprintf(format, args...)}
}

func (p *parser) atEnd() bool { return p.pos >= len(p.lines) }

// lineNo returns the 1-based line number of the next unread line (or one
// past the end if at EOF).
func (p *parser) lineNo() int { return p.pos + 1 }

func (p *parser) peekLine() (string, bool) {
	if p.atEnd() {
		return "", false
	}
	return p.lines[p.pos], true
}

func (p *parser) takeLine() (string, int) {
	line := p.lines[p.pos]
	ln := p.lineNo()
	p.pos++
	return line, ln
}

// runLength returns the length of the line if it consists entirely of ch
// repeated at least 3 times, else 0.
func runLength(line string, ch byte) int {
	if len(line) < 3 {
		return 0
	}
	for i := 0; i < len(line); i++ {
		if line[i] != ch {
			return 0
		}
	}
	return len(line)
}

// isHeader reports whether line is a header separator of the file's fixed
// delimiter length (once established).
func (p *parser) isHeader(line string) bool {
	n := runLength(line, '=')
	return n > 0 && (p.delimLen == 0 || n == p.delimLen)
}

func (p *parser) isBlockSep(line string) bool {
	n := runLength(line, '-')
	return n > 0 && n == p.delimLen
}

func isBlank(line string) bool { return strings.TrimSpace(line) == "" }

func (p *parser) parseFile() (*CorpusFile, error) {
	cf := &CorpusFile{Path: p.file}

	// File-level directives precede the first header.
	for {
		line, ok := p.peekLine()
		if !ok {
			return cf, nil // empty file: no tests
		}
		if isBlank(line) {
			p.pos++
			continue
		}
		if runLength(line, '=') > 0 {
			break // first header: fixes delimLen
		}
		if !strings.HasPrefix(line, "%") {
			return nil, p.errf(p.lineNo(), "expected a file directive or header separator, got %q", line)
		}
		directiveLine, ln := p.takeLine()
		if err := p.applyFileDirective(cf, directiveLine, ln); err != nil {
			return nil, err
		}
	}

	// Fix the delimiter length from the first header.
	headerLine, _ := p.peekLine()
	p.delimLen = runLength(headerLine, '=')

	if err := validateFileShellPlatform(cf, p.file); err != nil {
		return nil, err
	}

	for {
		if _, ok := p.peekLine(); !ok {
			break
		}
		for {
			line, ok := p.peekLine()
			if !ok {
				break
			}
			if isBlank(line) {
				p.pos++
				continue
			}
			break
		}
		if _, ok := p.peekLine(); !ok {
			break
		}
		tc, err := p.parseTestCase(cf)
		if err != nil {
			return nil, err
		}
		cf.Tests = append(cf.Tests, *tc)
	}

	return cf, nil
}

func (p *parser) applyFileDirective(cf *CorpusFile, line string, ln int) error {
	name, rest := splitDirective(line)
	switch name {
	case "%skip":
		skip, err := parseSkip(rest)
		if err != nil {
			return p.errf(ln, "%s", err.Error())
		}
		cf.FileSkip = skip
	case "%shell":
		sh, ok := ParseShell(strings.TrimSpace(rest))
		if !ok {
			return p.errf(ln, "unknown shell %q", strings.TrimSpace(rest))
		}
		cf.FileShell = sh
	case "%platform":
		plats, err := parsePlatformList(rest)
		if err != nil {
			return p.errf(ln, "%s", err.Error())
		}
		cf.FilePlatforms = plats
	case "%exit", "%require":
		return p.errf(ln, "%s is a test-level directive, not valid at file scope", name)
	default:
		return p.errf(ln, "unknown directive %q", name)
	}
	return nil
}

func splitDirective(line string) (name string, rest string) {
	line = strings.TrimRight(line, " \t")
	for i := 1; i < len(line); i++ {
		if line[i] == ' ' || line[i] == '(' {
			return line[:i], line[i:]
		}
	}
	return line, ""
}

func parseSkip(rest string) (*Skip, error) {
	rest = strings.TrimLeft(rest, " ")
	msg := ""
	if strings.HasPrefix(rest, "(") {
		idx := strings.Index(rest, ")")
		if idx < 0 {
			return nil, fmt.Errorf("unterminated %%skip message")
		}
		msg = rest[1:idx]
		rest = rest[idx+1:]
	}
	rest = strings.TrimSpace(rest)
	cond := ""
	if rest != "" {
		if !strings.HasPrefix(rest, "if:") {
			return nil, fmt.Errorf("expected 'if:' after %%skip, got %q", rest)
		}
		cond = strings.TrimSpace(strings.TrimPrefix(rest, "if:"))
	}
	return &Skip{Message: msg, Condition: cond}, nil
}

func parsePlatformList(rest string) ([]Platform, error) {
	rest = strings.TrimSpace(rest)
	if rest == "" {
		return nil, fmt.Errorf("%%platform requires at least one platform name")
	}
	var plats []Platform
	for _, part := range strings.Split(rest, ",") {
		name := strings.TrimSpace(part)
		plat, ok := ParsePlatform(name)
		if !ok {
			return nil, fmt.Errorf("unknown platform %q", name)
		}
		plats = append(plats, plat)
	}
	return plats, nil
}

func validateFileShellPlatform(cf *CorpusFile, file string) error {
	hasUnix := false
	hasWindows := false
	for _, p := range cf.FilePlatforms {
		switch p {
		case PlatformWindows:
			hasWindows = true
		case PlatformUnix, PlatformMacOS, PlatformLinux:
			hasUnix = true
		}
	}
	if cf.FileShell == ShellCmd && hasUnix {
		return &ParseError{File: file, Line: 1, Message: "%shell cmd is incompatible with a declared unix platform"}
	}
	if (cf.FileShell == ShellSh || cf.FileShell == ShellZsh) && hasWindows {
		return &ParseError{File: file, Line: 1, Message: "%shell sh/zsh is incompatible with a declared windows platform"}
	}
	return nil
}

func (p *parser) parseTestCase(cf *CorpusFile) (*TestCase, error) {
	startLine := p.lineNo()
	headerLine, _ := p.takeLine()
	if !p.isHeader(headerLine) {
		return nil, p.errf(startLine, "expected a %d-character header separator", p.delimLen)
	}

	if _, ok := p.peekLine(); !ok {
		return nil, p.errf(p.lineNo(), "expected a test description line")
	}
	descLine, _ := p.takeLine()
	tc := &TestCase{Name: strings.TrimSpace(descLine)}

	for {
		line, ok := p.peekLine()
		if !ok {
			return nil, p.errf(p.lineNo(), "unexpected end of file inside test header")
		}
		if p.isHeader(line) {
			break
		}
		if isBlank(line) {
			p.pos++
			continue
		}
		if !strings.HasPrefix(line, "%") {
			return nil, p.errf(p.lineNo(), "expected a test directive or header separator, got %q", line)
		}
		directiveLine, ln := p.takeLine()
		if err := p.applyTestDirective(tc, directiveLine, ln); err != nil {
			return nil, err
		}
	}

	// consume the header line separating directives from the command block
	if _, ok := p.peekLine(); !ok {
		return nil, p.errf(p.lineNo(), "unexpected end of file before command block")
	}
	p.takeLine()

	var commandLines []string
	for {
		line, ok := p.peekLine()
		if !ok || p.isHeader(line) {
			break
		}
		if p.isBlockSep(line) {
			break
		}
		l, _ := p.takeLine()
		commandLines = append(commandLines, l)
	}
	if len(commandLines) == 0 {
		return nil, p.errf(p.lineNo(), "test %q has an empty command block", tc.Name)
	}
	tc.Command = strings.Join(commandLines, "\n")

	endLine := p.lineNo() - 1
	if line, ok := p.peekLine(); ok && p.isBlockSep(line) {
		p.takeLine() // consume the dashes opening the expected block
		var expectedLines []string
		for {
			line, ok := p.peekLine()
			if !ok || p.isHeader(line) || p.isBlockSep(line) {
				break
			}
			l, _ := p.takeLine()
			expectedLines = append(expectedLines, l)
		}
		expected := strings.Join(expectedLines, "\n")
		tc.ExpectedOutput = &expected
		endLine = p.lineNo() - 1

		decls, err := extractDeclaredVars(expected, p.file, startLine)
		if err != nil {
			return nil, err
		}
		tc.DeclaredVars = decls

		if line, ok := p.peekLine(); ok && p.isBlockSep(line) {
			p.takeLine() // consume dashes opening the constraints block
			if line, ok := p.peekLine(); !ok || strings.TrimSpace(line) != "where" {
				return nil, p.errf(p.lineNo(), "expected 'where' after constraints separator")
			}
			p.takeLine()
			for {
				line, ok := p.peekLine()
				if !ok || p.isHeader(line) {
					break
				}
				if isBlank(line) {
					p.pos++
					continue
				}
				l, _ := p.takeLine()
				tc.Constraints = append(tc.Constraints, strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(l), "*")))
			}
			endLine = p.lineNo() - 1
		}
	}

	tc.Span = SourceSpan{File: p.file, StartLine: startLine, EndLine: max(endLine, startLine+1)}
	return tc, nil
}

func (p *parser) applyTestDirective(tc *TestCase, line string, ln int) error {
	name, rest := splitDirective(line)
	switch name {
	case "%skip":
		skip, err := parseSkip(rest)
		if err != nil {
			return p.errf(ln, "%s", err.Error())
		}
		tc.Skip = skip
	case "%exit":
		exit, err := parseExpectedExit(rest)
		if err != nil {
			return p.errf(ln, "%s", err.Error())
		}
		tc.ExpectedExit = exit
	case "%require":
		if strings.TrimSpace(rest) != "" {
			return p.errf(ln, "%%require takes no argument")
		}
		tc.Require = true
	case "%shell", "%platform":
		return p.errf(ln, "%s is a file-level directive, not valid on a test", name)
	default:
		return p.errf(ln, "unknown directive %q", name)
	}
	return nil
}

func parseExpectedExit(rest string) (ExpectedExit, error) {
	rest = strings.TrimSpace(rest)
	if rest == "nonzero" {
		return ExpectedExit{Kind: ExitNonzero}, nil
	}
	n, err := strconv.Atoi(rest)
	if err != nil {
		return ExpectedExit{}, fmt.Errorf("invalid %%exit value %q: expected an integer or 'nonzero'", rest)
	}
	return ExpectedExit{Kind: ExitCode, Code: n}, nil
}
