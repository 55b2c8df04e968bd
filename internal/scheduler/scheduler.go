package scheduler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cctr-dev/cctr/internal/corpus"
	"github.com/cctr-dev/cctr/internal/discovery"
	"github.com/cctr-dev/cctr/internal/expr"
	"github.com/cctr-dev/cctr/internal/matcher"
	"github.com/cctr-dev/cctr/internal/procharness"
	"github.com/cctr-dev/cctr/internal/shellvariant"
)

const (
	setupFileName    = "_setup.txt"
	teardownFileName = "_teardown.txt"
	fixtureDirName   = "fixture"
)

// Options configures one scheduler run.
type Options struct {
	Pattern     string
	Sequential  bool
	Concurrency int // default 4, matching the teacher's async.Runtime default
}

// Scheduler runs a set of discovered suites, reporting progress over a
// single channel shared by every worker — mirroring the teacher's
// semaphore-bounded worker pool in internal/async, adapted from dedup'd
// check resolution to per-suite sandboxed test execution.
type Scheduler struct {
	opts      Options
	cancelled atomic.Bool
	Events    chan Event
}

// New builds a Scheduler whose Events channel the caller must drain.
func New(opts Options) *Scheduler {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	return &Scheduler{opts: opts, Events: make(chan Event, 64)}
}

// RequestCancel sets the process-wide cancellation flag checked at suite and
// test boundaries (§4.6's cooperative Ctrl-C handling).
func (s *Scheduler) RequestCancel() { s.cancelled.Store(true) }

func (s *Scheduler) isCancelled() bool { return s.cancelled.Load() }

// Run executes every suite (in parallel unless Sequential is set) and
// closes Events when all suites have finished.
func (s *Scheduler) Run(ctx context.Context, suites []discovery.Suite) Summary {
	defer close(s.Events)

	outcomes := make([]SuiteOutcome, len(suites))

	concurrency := s.opts.Concurrency
	if s.opts.Sequential {
		concurrency = 1
	}
	sem := make(chan struct{}, concurrency)

	var wg sync.WaitGroup
	for i, suite := range suites {
		if s.isCancelled() {
			outcomes[i] = SuiteOutcome{Suite: suite.Name, Results: skippedResults(suite, "interrupted")}
			continue
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, suite discovery.Suite) {
			defer wg.Done()
			defer func() { <-sem }()
			outcomes[i] = s.runSuite(ctx, suite)
		}(i, suite)
	}
	wg.Wait()

	return Summary{Suites: outcomes}
}

func skippedResults(suite discovery.Suite, reason string) []TestResult {
	var out []TestResult
	for _, path := range suite.CorpusFiles {
		content, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		cf, err := corpus.Parse(path, string(content))
		if err != nil {
			continue
		}
		for _, tc := range cf.Tests {
			out = append(out, TestResult{Suite: suite.Name, File: path, Name: tc.Name, Skipped: true, SkipReason: reason})
		}
	}
	return out
}

// runSuite implements §4.6 steps 1-5 for a single suite.
func (s *Scheduler) runSuite(ctx context.Context, suite discovery.Suite) SuiteOutcome {
	sb, err := provisionSandbox(suite.Name)
	if err != nil {
		s.Events <- Event{Kind: EventSuiteError, Suite: suite.Name, Err: err}
		return SuiteOutcome{Suite: suite.Name, SetupError: err}
	}
	defer sb.Remove()

	if suite.HasFixture {
		if err := copyFixture(filepath.Join(suite.Path, fixtureDirName), sb.WorkDir); err != nil {
			s.Events <- Event{Kind: EventSuiteError, Suite: suite.Name, Err: err}
			return SuiteOutcome{Suite: suite.Name, SetupError: err}
		}
		sb.FixtureDir = sb.WorkDir
	}

	if suite.HasSetup {
		setupPath := filepath.Join(suite.Path, setupFileName)
		content, err := os.ReadFile(setupPath)
		if err != nil {
			s.Events <- Event{Kind: EventSuiteError, Suite: suite.Name, Err: err}
			return SuiteOutcome{Suite: suite.Name, SetupError: err}
		}
		cf, err := corpus.Parse(setupPath, string(content))
		if err != nil {
			s.Events <- Event{Kind: EventSuiteError, Suite: suite.Name, Err: err}
			return SuiteOutcome{Suite: suite.Name, SetupError: err}
		}
		results, _ := s.runCorpusFile(suite, setupPath, cf, sb, "")
		for _, r := range results {
			if !r.Passed && !r.Skipped {
				setupErr := fmt.Errorf("setup failed: %s", r.Name)
				s.Events <- Event{Kind: EventSuiteError, Suite: suite.Name, Err: setupErr}
				return SuiteOutcome{Suite: suite.Name, SetupError: setupErr}
			}
		}
	}

	var allResults []TestResult
	for _, path := range suite.CorpusFiles {
		content, err := os.ReadFile(path)
		if err != nil {
			allResults = append(allResults, TestResult{Suite: suite.Name, File: path, Name: "<parse>", Err: err})
			continue
		}
		cf, err := corpus.Parse(path, string(content))
		if err != nil {
			allResults = append(allResults, TestResult{Suite: suite.Name, File: path, Name: "<parse>", Err: err})
			continue
		}
		results, _ := s.runCorpusFile(suite, path, cf, sb, s.opts.Pattern)
		allResults = append(allResults, results...)
	}

	if suite.HasTeardown {
		teardownPath := filepath.Join(suite.Path, teardownFileName)
		if content, err := os.ReadFile(teardownPath); err == nil {
			if cf, err := corpus.Parse(teardownPath, string(content)); err == nil {
				results, _ := s.runCorpusFile(suite, teardownPath, cf, sb, "")
				allResults = append(allResults, results...)
			}
		}
	}

	return SuiteOutcome{Suite: suite.Name, Results: allResults}
}

// runCorpusFile executes one parsed corpus file's tests in declaration
// order inside the shared sandbox, applying file-level skip/platform gating
// and %require cascading skip.
func (s *Scheduler) runCorpusFile(suite discovery.Suite, path string, cf *corpus.CorpusFile, sb *sandbox, pattern string) ([]TestResult, error) {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	if len(cf.FilePlatforms) > 0 && !anyPlatformMatches(cf.FilePlatforms, runtime.GOOS) {
		names := make([]string, len(cf.FilePlatforms))
		for i, p := range cf.FilePlatforms {
			names[i] = p.String()
		}
		reason := "platform: " + strings.Join(names, ", ")
		return s.reportAllSkipped(suite, path, cf, reason), nil
	}

	if cf.FileSkip != nil {
		skip, reason := s.evaluateSkip(cf.FileSkip, cf.FileShell, sb)
		if skip {
			return s.reportAllSkipped(suite, path, cf, reason), nil
		}
	}

	var results []TestResult
	requireFailed := false
	fileEnv := map[string]expr.Value{}

	for _, tc := range cf.Tests {
		if s.isCancelled() {
			results = append(results, TestResult{Suite: suite.Name, File: path, Name: tc.Name, Skipped: true, SkipReason: "interrupted", StartLine: tc.Span.StartLine})
			s.Events <- Event{Kind: EventTestComplete, Suite: suite.Name, File: path, Name: tc.Name, Result: results[len(results)-1]}
			continue
		}
		if pattern != "" && !strings.Contains(stem, pattern) && !strings.Contains(tc.Name, pattern) {
			continue
		}
		if requireFailed {
			results = append(results, TestResult{Suite: suite.Name, File: path, Name: tc.Name, Skipped: true, SkipReason: "required test failed", StartLine: tc.Span.StartLine})
			s.Events <- Event{Kind: EventTestComplete, Suite: suite.Name, File: path, Name: tc.Name, Result: results[len(results)-1]}
			continue
		}
		if tc.Skip != nil {
			skip, reason := s.evaluateSkip(tc.Skip, cf.FileShell, sb)
			if skip {
				results = append(results, TestResult{Suite: suite.Name, File: path, Name: tc.Name, Skipped: true, SkipReason: reason, StartLine: tc.Span.StartLine})
				s.Events <- Event{Kind: EventTestComplete, Suite: suite.Name, File: path, Name: tc.Name, Result: results[len(results)-1]}
				continue
			}
		}

		s.Events <- Event{Kind: EventTestStart, Suite: suite.Name, File: path, Name: tc.Name}
		result := s.runTest(suite.Name, path, tc, cf.FileShell, sb, fileEnv)
		if result.Bindings != nil {
			for k, v := range result.Bindings {
				fileEnv[k] = v
			}
		}
		if tc.Require && !result.Passed {
			requireFailed = true
		}
		s.Events <- Event{Kind: EventTestComplete, Suite: suite.Name, File: path, Name: tc.Name, Result: result}
		results = append(results, result)
	}
	return results, nil
}

func (s *Scheduler) reportAllSkipped(suite discovery.Suite, path string, cf *corpus.CorpusFile, reason string) []TestResult {
	var out []TestResult
	for _, tc := range cf.Tests {
		r := TestResult{Suite: suite.Name, File: path, Name: tc.Name, Skipped: true, SkipReason: reason, StartLine: tc.Span.StartLine}
		s.Events <- Event{Kind: EventTestComplete, Suite: suite.Name, File: path, Name: tc.Name, Result: r}
		out = append(out, r)
	}
	return out
}

// evaluateSkip resolves a Skip directive: unconditional skips always apply;
// conditional skips run their shell command and skip iff it exits 0 (§3).
func (s *Scheduler) evaluateSkip(skip *corpus.Skip, sh corpus.Shell, sb *sandbox) (bool, string) {
	reason := skip.Message
	if reason == "" {
		reason = "skipped"
	}
	if !skip.HasCondition() {
		return true, reason
	}
	if sh == corpus.ShellUnspecified {
		sh = shellvariant.DefaultShell()
	}
	res, err := procharness.Run(context.Background(), procharness.Request{
		Shell:   sh,
		Command: skip.Condition,
		Dir:     sb.WorkDir,
		Env:     childEnv(injectedEnv(sb.WorkDir, "", sb.FixtureDir)),
	})
	if err != nil || res.ExitCode != 0 {
		return false, ""
	}
	return true, reason
}

// runTest runs one test's command and evaluates its expected output and
// exit-code policy (§4.6 step 6, §4.6 "Exit code policy").
func (s *Scheduler) runTest(suiteName, path string, tc corpus.TestCase, fileShell corpus.Shell, sb *sandbox, priorEnv map[string]expr.Value) TestResult {
	sh := fileShell
	if sh == corpus.ShellUnspecified {
		sh = shellvariant.DefaultShell()
	}

	start := time.Now()
	injected := injectedEnv(sb.WorkDir, path, sb.FixtureDir)

	res, err := procharness.Run(context.Background(), procharness.Request{
		Shell:   sh,
		Command: tc.Command,
		Dir:     sb.WorkDir,
		Env:     childEnv(injected),
	})
	result := TestResult{
		Suite:     suiteName,
		File:      path,
		Name:      tc.Name,
		StartLine: tc.Span.StartLine,
		Duration:  time.Since(start),
	}
	if err != nil {
		result.Output = fmt.Sprintf("Failed to execute command: %v", err)
		result.Err = err
		return result
	}

	result.Output = res.Stdout + res.Stderr
	if res.CmdWarning {
		result.Warning = "cmd.exe only executes the first line of a multi-line command"
	}

	exitOK := checkExit(tc.ExpectedExit, res.ExitCode)

	if tc.ExpectedOutput == nil {
		result.Passed = exitOK
		if !exitOK {
			result.Err = fmt.Errorf("expected exit %s, got %d", describeExit(tc.ExpectedExit), res.ExitCode)
		}
		return result
	}

	outcome := matcher.Match(tc, result.Output, priorEnv, envMap(injected))
	if outcome.Err != nil {
		result.Passed = false
		result.Err = outcome.Err
		return result
	}
	result.Bindings = outcome.Bindings
	result.Passed = exitOK && outcome.Matched
	if !exitOK {
		result.Err = fmt.Errorf("expected exit %s, got %d", describeExit(tc.ExpectedExit), res.ExitCode)
	} else if !outcome.Matched {
		result.Err = fmt.Errorf("output did not match expected template")
		result.Expected = *tc.ExpectedOutput
	}
	return result
}

func checkExit(expected corpus.ExpectedExit, actual int) bool {
	switch expected.Kind {
	case corpus.ExitCode:
		return actual == expected.Code
	case corpus.ExitNonzero:
		return actual != 0
	default:
		return actual == 0
	}
}

func describeExit(expected corpus.ExpectedExit) string {
	switch expected.Kind {
	case corpus.ExitCode:
		return fmt.Sprintf("%d", expected.Code)
	case corpus.ExitNonzero:
		return "nonzero"
	default:
		return "0"
	}
}

func anyPlatformMatches(platforms []corpus.Platform, goos string) bool {
	for _, p := range platforms {
		if p.Matches(goos) {
			return true
		}
	}
	return false
}
