package scheduler

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/cctr-dev/cctr/internal/discovery"
)

func writeCorpus(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func requirePosix(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("posix shell assumed for this test")
	}
}

func TestSchedulerRunsSimplePassingSuite(t *testing.T) {
	requirePosix(t)
	root := t.TempDir()
	writeCorpus(t, filepath.Join(root, "basics", "math.txt"),
		"===\nadd\n===\necho $((2+3))\n---\n5\n")

	suites, err := discovery.Discover(root, discovery.Options{})
	if err != nil {
		t.Fatalf("discover: %v", err)
	}

	sched := New(Options{Sequential: true})
	var summary Summary
	done := make(chan struct{})
	go func() {
		summary = sched.Run(context.Background(), suites)
		close(done)
	}()
	for range sched.Events {
	}
	<-done

	if summary.ExitCode() != 0 {
		t.Fatalf("expected exit code 0, got %d: %+v", summary.ExitCode(), summary)
	}
	if len(summary.Suites) != 1 || len(summary.Suites[0].Results) != 1 || !summary.Suites[0].Results[0].Passed {
		t.Fatalf("unexpected summary: %+v", summary)
	}
}

func TestSchedulerRequireCascadesSkip(t *testing.T) {
	requirePosix(t)
	root := t.TempDir()
	writeCorpus(t, filepath.Join(root, "cascade", "t.txt"), "===\nfails\n%require\n===\nexit 1\n\n===\nnever runs\n===\necho hi\n---\nhi\n")

	suites, err := discovery.Discover(root, discovery.Options{})
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	sched := New(Options{Sequential: true})
	var summary Summary
	done := make(chan struct{})
	go func() {
		summary = sched.Run(context.Background(), suites)
		close(done)
	}()
	for range sched.Events {
	}
	<-done

	results := summary.Suites[0].Results
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %+v", results)
	}
	if results[0].Passed {
		t.Fatalf("expected first test to fail: %+v", results[0])
	}
	if !results[1].Skipped || results[1].SkipReason != "required test failed" {
		t.Fatalf("expected cascading skip, got %+v", results[1])
	}
}

func TestSchedulerSetupFailureAbortsSuite(t *testing.T) {
	requirePosix(t)
	root := t.TempDir()
	writeCorpus(t, filepath.Join(root, "withsetup", "_setup.txt"), "===\nsetup\n===\nexit 1\n")
	writeCorpus(t, filepath.Join(root, "withsetup", "t.txt"), "===\ntest\n===\necho hi\n---\nhi\n")

	suites, err := discovery.Discover(root, discovery.Options{})
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	sched := New(Options{Sequential: true})
	var summary Summary
	done := make(chan struct{})
	go func() {
		summary = sched.Run(context.Background(), suites)
		close(done)
	}()
	for range sched.Events {
	}
	<-done

	if summary.Suites[0].SetupError == nil {
		t.Fatal("expected setup error")
	}
	if len(summary.Suites[0].Results) != 0 {
		t.Fatalf("expected zero test results beyond setup, got %+v", summary.Suites[0].Results)
	}
	if summary.ExitCode() != 1 {
		t.Fatalf("expected exit code 1, got %d", summary.ExitCode())
	}
}

func TestSchedulerPlatformSkip(t *testing.T) {
	requirePosix(t)
	root := t.TempDir()
	writeCorpus(t, filepath.Join(root, "winonly", "t.txt"), "%platform windows\n\n===\nfoo\n===\necho hi\n")

	suites, err := discovery.Discover(root, discovery.Options{})
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	sched := New(Options{Sequential: true})
	var summary Summary
	done := make(chan struct{})
	go func() {
		summary = sched.Run(context.Background(), suites)
		close(done)
	}()
	for range sched.Events {
	}
	<-done

	results := summary.Suites[0].Results
	if len(results) != 1 || !results[0].Skipped || results[0].SkipReason != "platform: windows" {
		t.Fatalf("expected platform skip, got %+v", results)
	}
}
