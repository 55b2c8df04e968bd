package diag

import (
	"bytes"
	"strings"
	"testing"
)

func TestNewSuppressesInfoAtDefaultVerbosity(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, 0)
	logger.Info("should not appear")
	logger.Warn("should appear")

	out := buf.String()
	if strings.Contains(out, "should not appear") {
		t.Errorf("info logged at verbosity 0: %s", out)
	}
	if !strings.Contains(out, "should appear") {
		t.Errorf("warn not logged at verbosity 0: %s", out)
	}
}

func TestNewEnablesDebugAtVerbosity2(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, 2)
	logger.Debug("debug line")

	if !strings.Contains(buf.String(), "debug line") {
		t.Errorf("debug not logged at verbosity 2: %s", buf.String())
	}
}
