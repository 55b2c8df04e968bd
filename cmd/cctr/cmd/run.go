package cmd

import (
	stdcontext "context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"github.com/cctr-dev/cctr/internal/config"
	"github.com/cctr-dev/cctr/internal/corpus"
	"github.com/cctr-dev/cctr/internal/diag"
	"github.com/cctr-dev/cctr/internal/discovery"
	"github.com/cctr-dev/cctr/internal/reporter"
	"github.com/cctr-dev/cctr/internal/runapi"
	"github.com/cctr-dev/cctr/internal/scheduler"
	"github.com/cctr-dev/cctr/internal/update"
)

func runFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "pattern",
			Aliases: []string{"p"},
			Usage:   "Only run tests whose file stem or name contains this substring",
			Sources: cli.EnvVars("CCTR_CONFIG_RUN_PATTERN"),
		},
		&cli.BoolFlag{
			Name:  "update",
			Usage: "Rewrite expected-output blocks for failing tests in place",
		},
		&cli.BoolFlag{
			Name:  "list",
			Usage: "List discovered suites and tests without running them",
		},
		&cli.BoolFlag{
			Name:    "sequential",
			Usage:   "Run suites one at a time instead of concurrently",
			Sources: cli.EnvVars("CCTR_CONFIG_RUN_SEQUENTIAL"),
		},
		&cli.IntFlag{
			Name:    "concurrency",
			Usage:   "Maximum number of suites to run concurrently",
			Sources: cli.EnvVars("CCTR_CONFIG_RUN_CONCURRENCY"),
		},
		&cli.BoolFlag{
			Name:    "no-color",
			Usage:   "Disable colored output",
			Sources: cli.EnvVars("NO_COLOR", "CCTR_CONFIG_OUTPUT_NO_COLOR"),
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "Print a line per test",
		},
		&cli.BoolFlag{
			Name:  "trace",
			Usage: "Verbosity level 2: per-test lines plus debug diagnostics (test output is collected when each test ends, not streamed)",
		},
		&cli.StringFlag{
			Name:  "config",
			Usage: "Path to a config file (default: auto-discover .cctr.toml)",
		},
		&cli.StringSliceFlag{
			Name:    "exclude",
			Usage:   "Glob pattern to exclude from discovery (can be repeated)",
			Sources: cli.EnvVars("CCTR_CONFIG_RUN_EXCLUDE"),
		},
	}
}

func runAction(ctx stdcontext.Context, cmd *cli.Command) error {
	testRoot := cmd.Args().First()
	if testRoot == "" {
		testRoot = "."
	}

	cfg, err := loadConfig(cmd, testRoot)
	if err != nil {
		return cli.Exit(fmt.Sprintf("config error: %v", err), ExitParseError)
	}

	verbosity := cfg.Output.Verbose
	if cmd.Bool("trace") {
		verbosity = 2
	} else if cmd.Bool("verbose") {
		verbosity = 1
	}
	logger := diag.Default(verbosity)
	logger.Debug("starting run", "test_root", testRoot)

	var colorOverride *bool
	if cfg.Output.NoColor {
		v := false
		colorOverride = &v
	}
	rep := reporter.New(os.Stdout, reporter.Options{Color: colorOverride, Verbose: verbosity})

	sched := scheduler.New(scheduler.Options{
		Pattern:     cfg.Run.Pattern,
		Sequential:  cfg.Run.Sequential,
		Concurrency: cfg.Run.Concurrency,
	})

	runCtx, stop := stdcontext.WithCancel(ctx)
	defer stop()
	installSignalHandler(sched, stop)

	if testRoot == "-" {
		content, err := runapi.ReadAll(os.Stdin)
		if err != nil {
			return cli.Exit(fmt.Sprintf("read stdin: %v", err), ExitFailure)
		}
		var summary scheduler.Summary
		done := make(chan struct{})
		go func() {
			rep.Consume(sched.Events)
			close(done)
		}()
		summary, err = runapi.RunDocument(runCtx, sched, content)
		<-done
		if err != nil {
			return cli.Exit(fmt.Sprintf("parse error: %v", err), ExitParseError)
		}
		rep.Summary()
		return cli.Exit("", summary.ExitCode())
	}

	suites, err := discovery.Discover(testRoot, discovery.Options{ExcludePatterns: cfg.Run.ExcludePatterns})
	if err != nil {
		return cli.Exit(fmt.Sprintf("discovery error: %v", err), ExitFailure)
	}

	if cmd.Bool("list") {
		return listSuites(suites)
	}

	done := make(chan struct{})
	go func() {
		rep.Consume(sched.Events)
		close(done)
	}()
	summary := sched.Run(runCtx, suites)
	<-done
	rep.Summary()

	if cmd.Bool("update") {
		if err := applyUpdates(suites, summary); err != nil {
			return cli.Exit(fmt.Sprintf("update error: %v", err), ExitFailure)
		}
	}

	exitCode := summary.ExitCode()
	if errors.Is(runCtx.Err(), stdcontext.Canceled) {
		exitCode = ExitInterrupted
	}
	return cli.Exit("", exitCode)
}

// loadConfig discovers (or loads an explicit) config file and layers CLI
// flag overrides on top, via confmap, matching the teacher's
// LoadWithOverrides precedence: defaults -> file -> env -> flags.
func loadConfig(cmd *cli.Command, testRoot string) (*config.Config, error) {
	run := map[string]any{}
	if cmd.IsSet("pattern") {
		run["pattern"] = cmd.String("pattern")
	}
	if cmd.IsSet("sequential") {
		run["sequential"] = cmd.Bool("sequential")
	}
	if cmd.IsSet("concurrency") {
		run["concurrency"] = cmd.Int("concurrency")
	}
	if cmd.IsSet("exclude") {
		run["exclude"] = cmd.StringSlice("exclude")
	}

	output := map[string]any{}
	if cmd.IsSet("no-color") {
		output["no-color"] = cmd.Bool("no-color")
	}
	if cmd.Bool("verbose") || cmd.Bool("trace") {
		v := 1
		if cmd.Bool("trace") {
			v = 2
		}
		output["verbose"] = v
	}

	overrides := map[string]any{}
	if len(run) > 0 {
		overrides["run"] = run
	}
	if len(output) > 0 {
		overrides["output"] = output
	}

	if path := cmd.String("config"); path != "" {
		return config.LoadFromFileWithOverrides(path, overrides)
	}
	return config.LoadWithOverrides(testRoot, overrides)
}

// installSignalHandler implements the cooperative double Ctrl-C policy: the
// first interrupt requests a graceful stop via the scheduler's cancellation
// flag and cancels runCtx; a second interrupt exits immediately with 130.
func installSignalHandler(sched *scheduler.Scheduler, cancel stdcontext.CancelFunc) {
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt)
	go func() {
		<-sigCh
		sched.RequestCancel()
		cancel()
		<-sigCh
		os.Exit(ExitInterrupted)
	}()
}

func listSuites(suites []discovery.Suite) error {
	for _, s := range suites {
		for _, f := range s.CorpusFiles {
			rel, err := filepath.Rel(s.Path, f)
			if err != nil {
				rel = f
			}
			fmt.Printf("%s/%s\n", s.Name, rel)
			content, err := os.ReadFile(f)
			if err != nil {
				return err
			}
			cf, err := corpus.Parse(f, string(content))
			if err != nil {
				fmt.Printf("  parse error: %v\n", err)
				continue
			}
			for _, tc := range cf.Tests {
				fmt.Printf("  %s\n", tc.Name)
			}
		}
	}
	return nil
}

func applyUpdates(suites []discovery.Suite, summary scheduler.Summary) error {
	byFile := map[string][]scheduler.TestResult{}
	for _, suite := range summary.Suites {
		for _, r := range suite.Results {
			byFile[r.File] = append(byFile[r.File], r)
		}
	}
	for _, suite := range suites {
		for _, path := range suite.CorpusFiles {
			results := byFile[path]
			if len(results) == 0 {
				continue
			}
			if !hasFailure(results) {
				continue
			}
			content, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			rewritten, err := update.Rewrite(string(content), results)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			if err := os.WriteFile(path, []byte(rewritten+"\n"), 0o644); err != nil {
				return err
			}
		}
	}
	return nil
}

func hasFailure(results []scheduler.TestResult) bool {
	for _, r := range results {
		if !r.Passed && !r.Skipped && r.Output != "" {
			return true
		}
	}
	return false
}
