// Package reporter renders scheduler progress events and final results as
// styled text, grounded on the teacher's lipgloss/termenv text reporter
// adapted from a lint-violation list to a test-result stream.
package reporter

import (
	"fmt"
	"io"
	"os"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"

	"github.com/cctr-dev/cctr/internal/scheduler"
)

var (
	useColors = termenv.EnvColorProfile() != termenv.Ascii

	passStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))  // green
	failStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196")) // red
	skipStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))           // gray
	nameStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	diffMinus = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	diffPlus  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	locStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
)

// Options configures the text reporter.
type Options struct {
	Color   *bool // nil means auto-detect
	Verbose int   // 0: summary+failures, 1: per-test lines, 2: +streamed output
}

// Reporter prints scheduler events to a writer as they arrive.
type Reporter struct {
	w       io.Writer
	opts    Options
	color   bool
	passed  int
	failed  int
	skipped int
	failures []scheduler.TestResult
}

// New builds a Reporter writing to w. Color auto-detects from w when it's
// an *os.File, honoring NO_COLOR via termenv, matching the teacher's
// detection strategy.
func New(w io.Writer, opts Options) *Reporter {
	color := useColors
	if f, ok := w.(*os.File); ok {
		color = color && isatty.IsTerminal(f.Fd())
	}
	if opts.Color != nil {
		color = *opts.Color
	}
	return &Reporter{w: w, opts: opts, color: color}
}

// Consume drains events until the channel closes, printing as it goes, and
// returns when the scheduler run is complete.
func (r *Reporter) Consume(events <-chan scheduler.Event) {
	for ev := range events {
		switch ev.Kind {
		case scheduler.EventTestOutputLine:
			if r.opts.Verbose >= 2 {
				fmt.Fprintf(r.w, "    | %s\n", ev.Line)
			}
		case scheduler.EventTestComplete:
			r.recordResult(ev.Result)
			r.printResultLine(ev.Result)
		case scheduler.EventSuiteError:
			fmt.Fprintf(r.w, "%s %s\n", r.style(failStyle, "suite error:"), ev.Err)
		}
	}
}

func (r *Reporter) recordResult(res scheduler.TestResult) {
	switch {
	case res.Skipped:
		r.skipped++
	case res.Passed:
		r.passed++
	default:
		r.failed++
		r.failures = append(r.failures, res)
	}
}

func (r *Reporter) printResultLine(res scheduler.TestResult) {
	if res.Skipped {
		if r.opts.Verbose >= 1 {
			fmt.Fprintf(r.w, "%s %s (%s)\n", r.style(skipStyle, "⊘"), r.testLabel(res), res.SkipReason)
		}
		return
	}
	if res.Passed {
		if r.opts.Verbose >= 1 {
			fmt.Fprintf(r.w, "%s %s\n", r.style(passStyle, "✓"), r.testLabel(res))
		}
		if res.Warning != "" {
			fmt.Fprintf(r.w, "  %s %s\n", r.style(warnStyle, "warning:"), res.Warning)
		}
		return
	}
	fmt.Fprintf(r.w, "%s %s\n", r.style(failStyle, "✗"), r.testLabel(res))
}

func (r *Reporter) testLabel(res scheduler.TestResult) string {
	return fmt.Sprintf("%s :: %s", res.Suite, r.style(nameStyle, res.Name))
}

// Summary prints the final pass/fail/skip tally and a detail block for each
// failure: file/start-line, command error, and a unified line diff.
func (r *Reporter) Summary() {
	fmt.Fprintln(r.w)
	for _, f := range r.failures {
		r.printFailureDetail(f)
	}
	fmt.Fprintf(r.w, "%d passed, %d failed, %d skipped\n", r.passed, r.failed, r.skipped)
}

func (r *Reporter) printFailureDetail(res scheduler.TestResult) {
	fmt.Fprintf(r.w, "%s %s\n", r.style(failStyle, "✗"), r.testLabel(res))
	fmt.Fprintf(r.w, "  %s\n", r.style(locStyle, fmt.Sprintf("%s:%d", res.File, res.StartLine)))
	if res.Err != nil {
		fmt.Fprintf(r.w, "  %s\n", res.Err)
	}
	if res.Warning != "" {
		fmt.Fprintf(r.w, "  %s %s\n", r.style(warnStyle, "warning:"), res.Warning)
	}
	if res.Expected != "" {
		fmt.Fprint(r.w, r.renderDiff(res.Expected, res.Output))
	}
	fmt.Fprintln(r.w)
}

// renderDiff prints a unified line diff of expected vs actual, coloring
// removed lines red and added lines green when color is enabled.
func (r *Reporter) renderDiff(expected, actual string) string {
	ops := lcsDiff(strings.Split(expected, "\n"), strings.Split(actual, "\n"))
	var sb strings.Builder
	for _, op := range ops {
		switch op.kind {
		case diffEqual:
			fmt.Fprintf(&sb, "    %s\n", op.line)
		case diffRemove:
			fmt.Fprintf(&sb, "  %s\n", r.style(diffMinus, "- "+op.line))
		case diffAdd:
			fmt.Fprintf(&sb, "  %s\n", r.style(diffPlus, "+ "+op.line))
		}
	}
	return sb.String()
}

func (r *Reporter) style(s lipgloss.Style, text string) string {
	if !r.color {
		return text
	}
	return s.Render(text)
}
