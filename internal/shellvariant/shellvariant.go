// Package shellvariant resolves a corpus.Shell to a launch form (executable
// path plus argument vector) for the subprocess harness. It also offers
// ValidateSyntax, a check of command text against mvdan.cc/sh/v3's
// shell-variant grammars; Launch and the harness do not call it.
package shellvariant

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"sync"

	"mvdan.cc/sh/v3/syntax"

	"github.com/cctr-dev/cctr/internal/corpus"
)

// DefaultShell returns the shell a test runs under when no %shell directive
// is present: bash on Unix, PowerShell on Windows.
func DefaultShell() corpus.Shell {
	if runtime.GOOS == "windows" {
		return corpus.ShellPowerShell
	}
	return corpus.ShellBash
}

// Launch describes how to invoke a shell for one command.
type Launch struct {
	Path string
	Args []string
}

// resolved caches each shell's resolved executable path: single
// initialization, read-only thereafter, shared across suite workers.
var resolved sync.Map // corpus.Shell -> string

// windowsBashProbeOrder lists the paths tried, in order, when `bash` is
// requested on Windows and isn't on PATH. The exact fallback order is
// implementation-defined (SPEC_FULL.md §9); Git Bash's usual install
// location is tried first since it's the most common source of a `bash`
// binary on a Windows CI runner.
var windowsBashProbeOrder = []string{
	`C:\Program Files\Git\bin\bash.exe`,
	`C:\Program Files\Git\usr\bin\bash.exe`,
}

func binaryName(sh corpus.Shell) string {
	switch sh {
	case corpus.ShellSh:
		return "sh"
	case corpus.ShellBash:
		return "bash"
	case corpus.ShellZsh:
		return "zsh"
	case corpus.ShellPowerShell:
		return "powershell"
	case corpus.ShellCmd:
		return "cmd"
	}
	return ""
}

// Resolve returns the absolute or PATH-resolved path of sh's executable,
// probing a fallback order on Windows when the preferred binary is absent.
// The result is cached process-wide after the first successful resolution.
func Resolve(sh corpus.Shell) (string, error) {
	if v, ok := resolved.Load(sh); ok {
		return v.(string), nil
	}
	name := binaryName(sh)
	if name == "" {
		return "", fmt.Errorf("shellvariant: unknown shell %v", sh)
	}
	path, err := exec.LookPath(name)
	if err != nil && runtime.GOOS == "windows" && sh == corpus.ShellBash {
		for _, candidate := range windowsBashProbeOrder {
			if p, lookErr := exec.LookPath(candidate); lookErr == nil {
				path, err = p, nil
				break
			}
		}
	}
	if err != nil {
		return "", fmt.Errorf("shellvariant: resolving %s: %w", name, err)
	}
	actual, _ := resolved.LoadOrStore(sh, path)
	return actual.(string), nil
}

// Launch builds the argument form for invoking sh with the given command
// text, per the per-shell launch conventions in SPEC_FULL.md §4.5.
func Launch(sh corpus.Shell, command string) (Launch, error) {
	path, err := Resolve(sh)
	if err != nil {
		return Launch{}, err
	}
	switch sh {
	case corpus.ShellSh, corpus.ShellBash, corpus.ShellZsh:
		return Launch{Path: path, Args: []string{"-c", command}}, nil
	case corpus.ShellPowerShell:
		return Launch{Path: path, Args: []string{"-ExecutionPolicy", "Bypass", "-Command", command}}, nil
	case corpus.ShellCmd:
		return Launch{Path: path, Args: []string{"/C", command}}, nil
	}
	return Launch{}, fmt.Errorf("shellvariant: unsupported shell %v", sh)
}

// MultilineCmdWarning reports whether command would silently lose lines
// under cmd.exe, which only executes the first line of a /C argument.
func MultilineCmdWarning(sh corpus.Shell, command string) bool {
	return sh == corpus.ShellCmd && strings.Contains(command, "\n")
}

// langVariant maps a POSIX-family corpus.Shell to mvdan.cc/sh/v3/syntax's
// grammar variant. PowerShell and cmd have no mvdan grammar and are not
// classified.
func langVariant(sh corpus.Shell) (syntax.LangVariant, bool) {
	switch sh {
	case corpus.ShellBash:
		return syntax.LangBash, true
	case corpus.ShellSh:
		return syntax.LangPOSIX, true
	case corpus.ShellZsh:
		return syntax.LangBash, true // closest approximation, as upstream does
	}
	return 0, false
}

// ValidateSyntax parses command against sh's shell grammar, surfacing a
// syntax error before the subprocess is even spawned. Shells without an
// mvdan grammar (PowerShell, cmd) are not validated and always return nil.
func ValidateSyntax(sh corpus.Shell, command string) error {
	variant, ok := langVariant(sh)
	if !ok {
		return nil
	}
	parser := syntax.NewParser(syntax.Variant(variant), syntax.KeepComments(false))
	_, err := parser.Parse(strings.NewReader(command), "")
	return err
}
