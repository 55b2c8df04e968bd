package config

import (
	toml "github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// LoadWithOverrides loads configuration the same way Load does, then applies
// an explicit overrides map on top — for CLI flags that were set, which must
// win over both the discovered config file and the environment.
//
// overrides uses the same nested shape as the TOML config file, e.g.
//
//	overrides := map[string]any{"run": map[string]any{"pattern": "smoke"}}
func LoadWithOverrides(targetRoot string, overrides map[string]any) (*Config, error) {
	return loadWithConfigPathAndOverrides(Discover(targetRoot), overrides)
}

// LoadFromFileWithOverrides is LoadWithOverrides but skips discovery, loading
// a specific config file path instead.
func LoadFromFileWithOverrides(configPath string, overrides map[string]any) (*Config, error) {
	return loadWithConfigPathAndOverrides(configPath, overrides)
}

func loadWithConfigPathAndOverrides(configPath string, overrides map[string]any) (*Config, error) {
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
	if err := loadOverrides(k, overrides); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}
	cfg.ConfigFile = configPath
	return cfg, nil
}

func loadEnv(k *koanf.Koanf) error {
	return k.Load(env.Provider(".", env.Opt{
		Prefix:        EnvPrefix,
		TransformFunc: envKeyTransform,
	}), nil)
}

func loadOverrides(k *koanf.Koanf, overrides map[string]any) error {
	if len(overrides) == 0 {
		return nil
	}
	return k.Load(confmap.Provider(overrides, "."), nil)
}
