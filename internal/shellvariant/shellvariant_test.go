package shellvariant

import (
	"testing"

	"github.com/cctr-dev/cctr/internal/corpus"
)

func TestLaunchArgsPerShell(t *testing.T) {
	cases := []struct {
		shell corpus.Shell
		want  []string
	}{
		{corpus.ShellBash, []string{"-c", "echo hi"}},
		{corpus.ShellSh, []string{"-c", "echo hi"}},
		{corpus.ShellZsh, []string{"-c", "echo hi"}},
		{corpus.ShellPowerShell, []string{"-ExecutionPolicy", "Bypass", "-Command", "echo hi"}},
		{corpus.ShellCmd, []string{"/C", "echo hi"}},
	}
	for _, c := range cases {
		resolved.Store(c.shell, "/fake/"+binaryName(c.shell))
		l, err := Launch(c.shell, "echo hi")
		if err != nil {
			t.Fatalf("%v: %v", c.shell, err)
		}
		if len(l.Args) != len(c.want) {
			t.Fatalf("%v: got %v want %v", c.shell, l.Args, c.want)
		}
		for i := range l.Args {
			if l.Args[i] != c.want[i] {
				t.Fatalf("%v: got %v want %v", c.shell, l.Args, c.want)
			}
		}
	}
}

func TestMultilineCmdWarningOnlyForCmd(t *testing.T) {
	if !MultilineCmdWarning(corpus.ShellCmd, "echo a\necho b") {
		t.Fatal("expected warning for multiline cmd command")
	}
	if MultilineCmdWarning(corpus.ShellCmd, "echo a") {
		t.Fatal("unexpected warning for single-line cmd command")
	}
	if MultilineCmdWarning(corpus.ShellBash, "echo a\necho b") {
		t.Fatal("bash should never trigger the cmd warning")
	}
}

func TestValidateSyntaxRejectsBadBash(t *testing.T) {
	if err := ValidateSyntax(corpus.ShellBash, "if true; then"); err == nil {
		t.Fatal("expected syntax error for unterminated if")
	}
	if err := ValidateSyntax(corpus.ShellBash, "echo hi"); err != nil {
		t.Fatalf("unexpected error for valid command: %v", err)
	}
}

func TestValidateSyntaxSkipsUnsupportedShells(t *testing.T) {
	if err := ValidateSyntax(corpus.ShellPowerShell, "if true; then"); err != nil {
		t.Fatalf("PowerShell should not be grammar-checked: %v", err)
	}
}

func TestDefaultShellIsPlatformAppropriate(t *testing.T) {
	sh := DefaultShell()
	if sh != corpus.ShellBash && sh != corpus.ShellPowerShell {
		t.Fatalf("unexpected default shell: %v", sh)
	}
}
