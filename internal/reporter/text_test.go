package reporter

import (
	"bytes"
	"strings"
	"testing"

	"github.com/cctr-dev/cctr/internal/scheduler"
)

func noColor() *bool {
	b := false
	return &b
}

func TestReporterSummaryCounts(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf, Options{Color: noColor(), Verbose: 1})
	events := make(chan scheduler.Event, 4)
	events <- scheduler.Event{Kind: scheduler.EventTestComplete, Result: scheduler.TestResult{Suite: "s", Name: "a", Passed: true}}
	events <- scheduler.Event{Kind: scheduler.EventTestComplete, Result: scheduler.TestResult{Suite: "s", Name: "b", Skipped: true, SkipReason: "skipped"}}
	events <- scheduler.Event{Kind: scheduler.EventTestComplete, Result: scheduler.TestResult{Suite: "s", Name: "c", Passed: false}}
	close(events)
	r.Consume(events)
	r.Summary()

	out := buf.String()
	if !strings.Contains(out, "1 passed, 1 failed, 1 skipped") {
		t.Fatalf("unexpected summary output:\n%s", out)
	}
}

func TestReporterShowsDiffOnMismatch(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf, Options{Color: noColor(), Verbose: 1})
	events := make(chan scheduler.Event, 1)
	events <- scheduler.Event{Kind: scheduler.EventTestComplete, Result: scheduler.TestResult{
		Suite: "s", Name: "bad", Passed: false, Expected: "hello\n", Output: "goodbye\n",
	}}
	close(events)
	r.Consume(events)
	r.Summary()

	out := buf.String()
	if !strings.Contains(out, "- hello") || !strings.Contains(out, "+ goodbye") {
		t.Fatalf("expected diff lines, got:\n%s", out)
	}
}

func TestLcsDiffIdenticalLines(t *testing.T) {
	ops := lcsDiff([]string{"a", "b"}, []string{"a", "b"})
	for _, op := range ops {
		if op.kind != diffEqual {
			t.Fatalf("expected all-equal diff, got %+v", ops)
		}
	}
}
