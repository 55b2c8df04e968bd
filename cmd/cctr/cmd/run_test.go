package cmd

import (
	"testing"

	"github.com/cctr-dev/cctr/internal/scheduler"
)

func TestHasFailureIgnoresPassedAndSkipped(t *testing.T) {
	results := []scheduler.TestResult{
		{Passed: true, Output: "x"},
		{Skipped: true, Output: "x"},
	}
	if hasFailure(results) {
		t.Error("hasFailure = true, want false")
	}
}

func TestHasFailureIgnoresEmptyOutputFailures(t *testing.T) {
	results := []scheduler.TestResult{
		{Passed: false, Output: ""},
	}
	if hasFailure(results) {
		t.Error("hasFailure = true for a failure with no output, want false")
	}
}

func TestHasFailureDetectsRealFailure(t *testing.T) {
	results := []scheduler.TestResult{
		{Passed: false, Output: "actual output"},
	}
	if !hasFailure(results) {
		t.Error("hasFailure = false, want true")
	}
}
