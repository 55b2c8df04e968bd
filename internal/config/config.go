// Package config provides cascading configuration loading for cctr.
//
// Configuration is loaded from multiple sources with the following priority
// (highest to lowest):
//  1. CLI flags (applied by the caller after Load)
//  2. Environment variables (CCTR_* prefix)
//  3. Config file (closest .cctr.toml or cctr.toml)
//  4. Built-in defaults
//
// Discovery walks up the filesystem from the test root until a config file
// is found, mirroring the teacher's config-cascade strategy.
package config

import (
	"os"
	"path/filepath"
	"strings"

	toml "github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// ConfigFileNames defines the config file names to search for, in priority order.
var ConfigFileNames = []string{".cctr.toml", "cctr.toml"}

// EnvPrefix is the prefix for environment variables read by the config
// loader itself (distinct from CCTR_WORK_DIR/CCTR_TEST_PATH/CCTR_FIXTURE_DIR,
// which are injected into test subprocesses, not read by this package).
const EnvPrefix = "CCTR_CONFIG_"

// Config is cctr's full configuration surface.
type Config struct {
	Run        RunConfig    `koanf:"run"`
	Output     OutputConfig `koanf:"output"`
	ConfigFile string       `koanf:"-"`
}

// RunConfig controls test discovery and scheduling.
type RunConfig struct {
	// Pattern is the default name filter applied when --pattern is absent.
	Pattern string `koanf:"pattern"`

	// Sequential disables suite-level parallelism.
	Sequential bool `koanf:"sequential"`

	// Concurrency bounds how many suites run concurrently.
	Concurrency int `koanf:"concurrency"`

	// ExcludePatterns are doublestar globs excluded from discovery.
	ExcludePatterns []string `koanf:"exclude"`
}

// OutputConfig controls reporter behavior.
type OutputConfig struct {
	// Verbose is the default verbosity level (0, 1, or 2).
	Verbose int `koanf:"verbose"`

	// NoColor disables ANSI styling regardless of terminal detection.
	NoColor bool `koanf:"no-color"`
}

// Default returns cctr's built-in configuration.
func Default() *Config {
	return &Config{
		Run: RunConfig{
			Sequential:  false,
			Concurrency: 4,
		},
		Output: OutputConfig{
			Verbose: 0,
			NoColor: false,
		},
	}
}

// Load discovers the closest config file for targetRoot, loads it, and
// applies CCTR_CONFIG_* environment overrides.
func Load(targetRoot string) (*Config, error) {
	return loadWithConfigPath(Discover(targetRoot))
}

// LoadFromFile loads configuration from a specific config file path,
// skipping discovery.
func LoadFromFile(configPath string) (*Config, error) {
	return loadWithConfigPath(configPath)
}

func loadWithConfigPath(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, err
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), toml.Parser()); err != nil {
			return nil, err
		}
	}

	if err := loadEnv(k); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}
	cfg.ConfigFile = configPath
	return cfg, nil
}

// knownHyphenatedKeys maps dot-separated env fragments back to their
// hyphenated config-key form.
var knownHyphenatedKeys = map[string]string{
	"no.color": "no-color",
}

// envKeyTransform converts CCTR_CONFIG_RUN_CONCURRENCY into run.concurrency,
// and splits comma-separated exclude-pattern lists into a string slice.
func envKeyTransform(k, v string) (string, any) {
	key := strings.TrimPrefix(k, EnvPrefix)
	key = strings.ToLower(key)
	key = strings.ReplaceAll(key, "_", ".")
	for pattern, replacement := range knownHyphenatedKeys {
		key = strings.ReplaceAll(key, pattern, replacement)
	}
	if key == "run.exclude" && strings.Contains(v, ",") {
		return key, strings.Split(v, ",")
	}
	return key, v
}

// Discover walks up from targetRoot looking for a config file, returning
// "" if none is found by the filesystem root.
func Discover(targetRoot string) string {
	absPath, err := filepath.Abs(targetRoot)
	if err != nil {
		return ""
	}
	dir := absPath
	if info, err := os.Stat(absPath); err == nil && !info.IsDir() {
		dir = filepath.Dir(absPath)
	}

	for {
		for _, name := range ConfigFileNames {
			candidate := filepath.Join(dir, name)
			if fileExists(candidate) {
				return candidate
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
