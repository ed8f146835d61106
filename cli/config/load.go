package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Paths names the optional config files, in ascending precedence order.
// Each shell-style file has a YAML sibling with a .yaml extension carrying
// the same variables; when both exist the YAML sibling wins.
type Paths struct {
	System string
	User   string
}

// DefaultPaths returns the standard config file locations.
// The user path is skipped when the home directory cannot be determined.
func DefaultPaths() Paths {
	paths := Paths{System: "/etc/firmwarenator.conf"}
	if home, err := os.UserHomeDir(); err == nil {
		paths.User = filepath.Join(home, ".firmwarenator")
	}
	return paths
}

// yamlConfig mirrors the shell-style variables in YAML form:
//
//	compressor: xz
//	profiles:
//	  zstd:
//	    comp: zstd
//	    args: "-19 -T0"
//	    decomp: unzstd
type yamlConfig struct {
	Compressor string                 `yaml:"compressor"`
	Profiles   map[string]yamlProfile `yaml:"profiles"`
}

type yamlProfile struct {
	Comp   *string `yaml:"comp"`
	Args   *string `yaml:"args"`
	Decomp *string `yaml:"decomp"`
}

// Load builds the merged configuration: built-in defaults overlaid with
// each existing config file in precedence order. Missing files are not
// errors; unreadable or malformed files are.
func Load(paths Paths) (*Config, error) {
	cfg := Defaults()
	for _, path := range []string{paths.System, paths.User} {
		if path == "" {
			continue
		}
		for _, candidate := range []string{path, path + ".yaml"} {
			if err := applyFile(cfg, candidate); err != nil {
				return nil, err
			}
		}
	}
	return cfg, nil
}

// applyFile merges one config file onto cfg. A missing file is a no-op.
func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("cannot read config file %q: %w", path, err)
	}

	expanded := ExpandEnv(string(data))

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		return applyYAML(cfg, path, expanded)
	}

	vars, err := ParseVars(strings.NewReader(expanded))
	if err != nil {
		return fmt.Errorf("invalid config file %s: %w", path, err)
	}
	cfg.applyVars(vars)
	return nil
}

// applyYAML merges a YAML config document onto cfg by translating it into
// the same variable set the shell-style parser produces.
func applyYAML(cfg *Config, path, data string) error {
	var yc yamlConfig
	if err := yaml.Unmarshal([]byte(data), &yc); err != nil {
		return fmt.Errorf("invalid YAML in %s: %w", path, err)
	}

	vars := make(map[string]string)
	if yc.Compressor != "" {
		vars["COMPRESSOR"] = yc.Compressor
	}
	for name, profile := range yc.Profiles {
		id, err := ParseCompressor(name)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		if profile.Comp != nil {
			vars[id.Var("COMP")] = *profile.Comp
		}
		if profile.Args != nil {
			vars[id.Var("COMP_ARGS")] = *profile.Args
		}
		if profile.Decomp != nil {
			vars[id.Var("DECOMP")] = *profile.Decomp
		}
	}
	cfg.applyVars(vars)
	return nil
}
