// Package corpus parses corpus test files: text documents describing one
// or more shell-command test cases separated by variable-length header and
// block delimiters, with typed placeholders and constraint expressions.
package corpus

// VarType is the declared type of a placeholder, or the zero value for a
// duck-typed placeholder with no declared type.
type VarType int

const (
	TypeNone VarType = iota
	TypeNumber
	TypeString
	TypeJSONString
	TypeJSONBool
	TypeJSONArray
	TypeJSONObject
)

func (t VarType) String() string {
	switch t {
	case TypeNumber:
		return "number"
	case TypeString:
		return "string"
	case TypeJSONString:
		return "json string"
	case TypeJSONBool:
		return "json bool"
	case TypeJSONArray:
		return "json array"
	case TypeJSONObject:
		return "json object"
	default:
		return ""
	}
}

// Segment is one piece of a template: literal text or a placeholder.
type Segment struct {
	Literal     string
	IsPlaceholder bool
	Name        string
	Type        VarType
}

// VarDecl is a declared placeholder variable: its name and optional type.
type VarDecl struct {
	Name string
	Type VarType
}

// ExitExpectation describes the exit-code policy for a test.
type ExitKind int

const (
	ExitSuccess ExitKind = iota // exit code must be 0
	ExitCode                    // exit code must equal Code
	ExitNonzero                 // exit code must differ from 0
)

type ExpectedExit struct {
	Kind ExitKind
	Code int
}

// Skip describes a test or file-level skip directive.
type Skip struct {
	Message   string
	Condition string // shell command; empty means unconditional
}

// HasCondition reports whether the skip is conditional on a shell command.
func (s *Skip) HasCondition() bool { return s != nil && s.Condition != "" }

// Shell identifies the shell a test's command runs under.
type Shell int

const (
	ShellUnspecified Shell = iota
	ShellSh
	ShellBash
	ShellZsh
	ShellPowerShell
	ShellCmd
)

func ParseShell(name string) (Shell, bool) {
	switch name {
	case "sh":
		return ShellSh, true
	case "bash":
		return ShellBash, true
	case "zsh":
		return ShellZsh, true
	case "powershell":
		return ShellPowerShell, true
	case "cmd":
		return ShellCmd, true
	}
	return ShellUnspecified, false
}

func (s Shell) String() string {
	switch s {
	case ShellSh:
		return "sh"
	case ShellBash:
		return "bash"
	case ShellZsh:
		return "zsh"
	case ShellPowerShell:
		return "powershell"
	case ShellCmd:
		return "cmd"
	default:
		return ""
	}
}

// Platform identifies an OS family a test or file is restricted to.
type Platform int

const (
	PlatformWindows Platform = iota
	PlatformUnix
	PlatformMacOS
	PlatformLinux
)

func ParsePlatform(name string) (Platform, bool) {
	switch name {
	case "windows":
		return PlatformWindows, true
	case "unix":
		return PlatformUnix, true
	case "macos":
		return PlatformMacOS, true
	case "linux":
		return PlatformLinux, true
	}
	return 0, false
}

func (p Platform) String() string {
	switch p {
	case PlatformWindows:
		return "windows"
	case PlatformUnix:
		return "unix"
	case PlatformMacOS:
		return "macos"
	case PlatformLinux:
		return "linux"
	default:
		return ""
	}
}

// Matches reports whether this platform declaration matches the runtime
// GOOS family identified by goos ("windows", "darwin", "linux", ...).
func (p Platform) Matches(goos string) bool {
	switch p {
	case PlatformWindows:
		return goos == "windows"
	case PlatformUnix:
		return goos != "windows"
	case PlatformMacOS:
		return goos == "darwin"
	case PlatformLinux:
		return goos == "linux"
	}
	return false
}

// SourceSpan locates a test case within its originating file.
type SourceSpan struct {
	File      string
	StartLine int
	EndLine   int
}

// TestCase is one `===`-delimited test within a corpus file.
type TestCase struct {
	Name             string
	Command          string
	ExpectedOutput   *string // nil means exit-only mode
	DeclaredVars     []VarDecl
	Constraints      []string
	Skip             *Skip
	Require          bool
	ExpectedExit     ExpectedExit
	Span             SourceSpan
}

// CorpusFile is the parsed form of one test document.
type CorpusFile struct {
	Path          string
	FileSkip      *Skip
	FileShell     Shell
	FilePlatforms []Platform
	Tests         []TestCase
}
