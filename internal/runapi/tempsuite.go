package runapi

import (
	"os"
	"path/filepath"
)

// materializeTempSuite writes content to a throwaway directory so the
// scheduler — which reads each corpus file from disk — can run it exactly
// like a discovered suite. The directory is separate from the test's own
// sandbox; it exists only to hold the source document.
func materializeTempSuite(content string) (dir string, cleanup func(), err error) {
	dir, err = os.MkdirTemp("", "cctr-stdin-")
	if err != nil {
		return "", nil, err
	}
	if err := os.WriteFile(filepath.Join(dir, "stdin.txt"), []byte(content), 0o644); err != nil {
		os.RemoveAll(dir)
		return "", nil, err
	}
	return dir, func() { os.RemoveAll(dir) }, nil
}
