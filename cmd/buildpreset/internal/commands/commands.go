package commands

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/wolfeidau/buildpreset/internal/preset"
	"gopkg.in/yaml.v3"
)

type Globals struct {
	Debug   bool
	Version string
}

const (
	outputJSON = "json"
	outputYAML = "yaml"
)

// EnvironmentFlags are the process level selectors shared by the commands that assemble passes.
type EnvironmentFlags struct {
	Project  string `help:"project override block to apply" env:"project"`
	Preset   string `help:"preset to build (build_app, dev, lib)" env:"preset"`
	Env      string `help:"APP_ENVS entry to inline" env:"env"`
	BabelEnv string `help:"transform environment, defaults to the preset NODE_ENV" env:"BABEL_ENV"`
	Cwd      string `help:"project root" env:"cwd" type:"path"`
	Config   string `help:"options file (JSON or YAML), defaults to the package.json rollupConfig block" type:"path"`
}

func (f EnvironmentFlags) environment() preset.Environment {
	return preset.Environment{
		Project:  f.Project,
		Preset:   f.Preset,
		Env:      f.Env,
		BabelEnv: f.BabelEnv,
		Cwd:      f.Cwd,
	}
}

// options loads the options file. A nil result makes the builder fall back to package.json.
func (f EnvironmentFlags) options() (preset.RawOptions, error) {
	if f.Config == "" {
		return nil, nil
	}
	return preset.LoadOptionsFile(f.Config)
}

func encode(w io.Writer, format string, v any) error {
	switch format {
	case outputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to encode yaml: %w", err)
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to encode json: %w", err)
		}
		return nil
	}
}
