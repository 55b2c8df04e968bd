package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Run.Concurrency != 4 {
		t.Errorf("Default Run.Concurrency = %d, want 4", cfg.Run.Concurrency)
	}
	if cfg.Run.Sequential {
		t.Error("Default Run.Sequential = true, want false")
	}
	if cfg.Output.NoColor {
		t.Error("Default Output.NoColor = true, want false")
	}
}

func TestDiscover(t *testing.T) {
	tmpDir := t.TempDir()

	subDir := filepath.Join(tmpDir, "project", "src")
	if err := os.MkdirAll(subDir, 0o750); err != nil {
		t.Fatal(err)
	}

	t.Run("no config file", func(t *testing.T) {
		result := Discover(subDir)
		if result != "" {
			t.Errorf("Discover() = %q, want empty string", result)
		}
	})

	t.Run("config in same directory", func(t *testing.T) {
		configPath := filepath.Join(subDir, ".cctr.toml")
		if err := os.WriteFile(configPath, []byte("[run]\npattern = \"json\"\n"), 0o600); err != nil {
			t.Fatal(err)
		}
		defer os.Remove(configPath)

		result := Discover(subDir)
		if result != configPath {
			t.Errorf("Discover() = %q, want %q", result, configPath)
		}
	})

	t.Run("config in parent directory", func(t *testing.T) {
		configPath := filepath.Join(tmpDir, "project", "cctr.toml")
		if err := os.WriteFile(configPath, []byte("[run]\nconcurrency = 2\n"), 0o600); err != nil {
			t.Fatal(err)
		}
		defer os.Remove(configPath)

		result := Discover(subDir)
		if result != configPath {
			t.Errorf("Discover() = %q, want %q", result, configPath)
		}
	})
}

func TestLoadAppliesFileOverridesOverDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, ".cctr.toml")
	content := "[run]\npattern = \"smoke\"\nconcurrency = 8\n"
	if err := os.WriteFile(configPath, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Run.Pattern != "smoke" {
		t.Errorf("Run.Pattern = %q, want %q", cfg.Run.Pattern, "smoke")
	}
	if cfg.Run.Concurrency != 8 {
		t.Errorf("Run.Concurrency = %d, want 8", cfg.Run.Concurrency)
	}
	if cfg.ConfigFile != configPath {
		t.Errorf("ConfigFile = %q, want %q", cfg.ConfigFile, configPath)
	}
}

func TestLoadWithNoConfigFileUsesDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Run.Concurrency != 4 {
		t.Errorf("Run.Concurrency = %d, want 4", cfg.Run.Concurrency)
	}
}

func TestEnvKeyTransform(t *testing.T) {
	key, val := envKeyTransform("CCTR_CONFIG_RUN_CONCURRENCY", "8")
	if key != "run.concurrency" {
		t.Errorf("key = %q, want %q", key, "run.concurrency")
	}
	if val != "8" {
		t.Errorf("val = %v, want %q", val, "8")
	}

	key, val = envKeyTransform("CCTR_CONFIG_OUTPUT_NO_COLOR", "true")
	if key != "output.no-color" {
		t.Errorf("key = %q, want %q", key, "output.no-color")
	}
	if val != "true" {
		t.Errorf("val = %v, want %q", val, "true")
	}
}
