package runapi

import (
	"context"
	"runtime"
	"testing"

	"github.com/cctr-dev/cctr/internal/scheduler"
)

func TestRunDocumentSimplePass(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("posix shell assumed for this test")
	}
	sched := scheduler.New(scheduler.Options{Sequential: true})
	doc := "===\ntest name\n===\necho hello\n---\nhello\n"

	var summary scheduler.Summary
	var runErr error
	done := make(chan struct{})
	go func() {
		summary, runErr = RunDocument(context.Background(), sched, doc)
		close(done)
	}()
	for range sched.Events {
	}
	<-done

	if runErr != nil {
		t.Fatalf("RunDocument: %v", runErr)
	}
	if summary.ExitCode() != 0 {
		t.Fatalf("expected exit 0, got %d: %+v", summary.ExitCode(), summary)
	}
}

func TestRunDocumentParseError(t *testing.T) {
	sched := scheduler.New(scheduler.Options{Sequential: true})
	_, err := RunDocument(context.Background(), sched, "{{ unterminated\n")
	close(sched.Events) // RunDocument returns before Run starts on parse error; nothing to drain
	if err == nil {
		t.Fatal("expected parse error")
	}
}
