// Package discovery walks a test-corpus root directory and produces the
// ordered list of suites it contains.
package discovery

import (
	"cmp"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Suite is a directory that directly owns one or more corpus files.
type Suite struct {
	// Name is the suite's path relative to the discovery root, using
	// forward slashes regardless of host OS.
	Name string

	// Path is the suite directory's absolute path on disk.
	Path string

	HasFixture  bool
	HasSetup    bool
	HasTeardown bool

	// CorpusFiles are the suite's test documents, sorted by path.
	CorpusFiles []string
}

// Options configures discovery.
type Options struct {
	// ExcludePatterns are doublestar glob patterns matched against each
	// file's path relative to the root; matching files are skipped before
	// they can make their directory a suite.
	ExcludePatterns []string
}

const (
	setupFileName    = "_setup.txt"
	teardownFileName = "_teardown.txt"
	fixtureDirName   = "fixture"
)

// Discover walks root and returns its suites sorted by name.
func Discover(root string, opts Options) ([]Suite, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	type dirInfo struct {
		files       []string
		hasFixture  bool
		hasSetup    bool
		hasTeardown bool
	}
	dirs := map[string]*dirInfo{}

	walkErr := filepath.Walk(absRoot, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if info.Name() == fixtureDirName {
				rel, _ := filepath.Rel(absRoot, filepath.Dir(path))
				d := dirs[rel]
				if d == nil {
					d = &dirInfo{}
					dirs[rel] = d
				}
				d.hasFixture = true
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ".txt" {
			return nil
		}
		base := filepath.Base(path)
		absDirRel, _ := filepath.Rel(absRoot, filepath.Dir(path))
		absDirRel = filepath.ToSlash(absDirRel)

		if base == setupFileName || base == teardownFileName {
			d := dirs[absDirRel]
			if d == nil {
				d = &dirInfo{}
				dirs[absDirRel] = d
			}
			if base == setupFileName {
				d.hasSetup = true
			} else {
				d.hasTeardown = true
			}
			return nil
		}

		if !isCorpusFile(path) {
			return nil
		}
		rel, err := filepath.Rel(absRoot, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if matchesAny(rel, opts.ExcludePatterns) {
			return nil
		}
		d := dirs[absDirRel]
		if d == nil {
			d = &dirInfo{}
			dirs[absDirRel] = d
		}
		d.files = append(d.files, path)
		return nil
	})
	if walkErr != nil {
		return nil, walkErr
	}

	var suites []Suite
	for name, d := range dirs {
		if len(d.files) == 0 {
			continue
		}
		slices.Sort(d.files)
		dirPath := filepath.Join(absRoot, filepath.FromSlash(name))
		if name == "." {
			dirPath = absRoot
		}
		suites = append(suites, Suite{
			Name:        name,
			Path:        dirPath,
			HasFixture:  d.hasFixture,
			HasSetup:    d.hasSetup,
			HasTeardown: d.hasTeardown,
			CorpusFiles: d.files,
		})
	}
	slices.SortFunc(suites, func(a, b Suite) int { return cmp.Compare(a.Name, b.Name) })
	return suites, nil
}

// isCorpusFile reports whether path has a .txt extension, does not begin
// with `_`, and is not located inside a fixture/ subtree.
func isCorpusFile(path string) bool {
	base := filepath.Base(path)
	if filepath.Ext(base) != ".txt" {
		return false
	}
	if strings.HasPrefix(base, "_") {
		return false
	}
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == fixtureDirName {
			return false
		}
	}
	return true
}

func matchesAny(relPath string, patterns []string) bool {
	for _, pat := range patterns {
		if ok, _ := doublestar.Match(pat, relPath); ok {
			return true
		}
	}
	return false
}
