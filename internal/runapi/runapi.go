// Package runapi implements the public API / in-memory mode (§2): accept a
// single corpus document from an input stream and run it as a synthetic,
// single-file suite, without touching suite discovery on disk.
package runapi

import (
	"context"
	"io"
	"path/filepath"

	"github.com/cctr-dev/cctr/internal/corpus"
	"github.com/cctr-dev/cctr/internal/discovery"
	"github.com/cctr-dev/cctr/internal/scheduler"
)

// RunDocument parses content as a single corpus file and runs it as a
// one-file suite named "stdin", returning the aggregate summary. sched's
// Events channel must be drained by the caller exactly as with a normal
// discovered run.
func RunDocument(ctx context.Context, sched *scheduler.Scheduler, content string) (scheduler.Summary, error) {
	cf, err := corpus.Parse("<stdin>", content)
	if err != nil {
		return scheduler.Summary{}, err
	}
	_ = cf // parsed once up front only to surface an early parse error

	tmpDir, cleanup, err := materializeTempSuite(content)
	if err != nil {
		return scheduler.Summary{}, err
	}
	defer cleanup()

	suites := []discovery.Suite{{
		Name:        "stdin",
		Path:        tmpDir,
		CorpusFiles: []string{filepath.Join(tmpDir, "stdin.txt")},
	}}
	return sched.Run(ctx, suites), nil
}

// ReadAll is a thin wrapper so callers don't need to import io directly
// just to read the stdin document.
func ReadAll(r io.Reader) (string, error) {
	b, err := io.ReadAll(r)
	return string(b), err
}
