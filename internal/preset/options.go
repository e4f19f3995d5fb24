package preset

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// RawOptions is an options object as supplied by the caller, keyed by option name. Values are
// decoded lazily so that a malformed entry only affects its own option.
type RawOptions map[string]json.RawMessage

// Options is the normalised form of RawOptions.
type Options struct {
	Preset          string
	Env             string
	Input           StringList
	HTML            OptionalPath
	Output          string
	CopyFiles       []CopyFile
	ImportAsString  StringImportOption
	Sourcemap       bool
	Alias           map[string]string
	AppEnvs         map[string]any
	BabelConfig     BabelOverride
	DevServer       map[string]any
	External        Externals
	Target          string
	Context         string
	Modern          bool
	Format          string
	MultiBuildApp   bool
	AppPolyfills    Polyfills
	Browserslist    StringList
	CSSBrowserslist StringList
	Pragma          string
	PragmaFrag      string
}

// DefaultOptions returns the options used for every key the caller leaves out.
func DefaultOptions() Options {
	return Options{
		Input:     StringList{"src/index.js"},
		HTML:      "src/index.html",
		Sourcemap: true,
		Alias:     map[string]string{},
		Target:    "web",
		Context:   "window",
		Modern:    true,
		Format:    "es",
	}
}

// ParseOptions decodes a JSON options object.
func ParseOptions(data []byte) (RawOptions, error) {
	var raw RawOptions
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse options: %w", err)
	}
	return raw, nil
}

// ParseOptionsYAML decodes a YAML options object.
func ParseOptionsYAML(data []byte) (RawOptions, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse options: %w", err)
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to convert options: %w", err)
	}
	return ParseOptions(data)
}

// LoadOptionsFile reads an options file, choosing the decoder by extension.
func LoadOptionsFile(path string) (RawOptions, error) {
	data, err := os.ReadFile(path) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("failed to read options file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseOptionsYAML(data)
	default:
		return ParseOptions(data)
	}
}

// MergeProject applies the project override block. Top-level keys of the selected project
// replace the base keys wholesale, nested values are not merged.
func MergeProject(raw RawOptions, project string) RawOptions {
	if project == "" || raw == nil {
		return raw
	}

	block, ok := raw["project"]
	if !ok {
		return raw
	}

	var projects map[string]json.RawMessage
	if err := json.Unmarshal(block, &projects); err != nil {
		return raw
	}

	overrideData, ok := projects[project]
	if !ok {
		return raw
	}

	var override RawOptions
	if err := json.Unmarshal(overrideData, &override); err != nil || override == nil {
		return raw
	}

	merged := maps.Clone(raw)
	maps.Copy(merged, override)
	return merged
}

// DecodeOptions normalises raw on top of the defaults. Values with the wrong shape are
// logged and skipped.
func DecodeOptions(ctx context.Context, raw RawOptions, manifest Manifest) Options {
	opts := DefaultOptions()
	opts.Browserslist = manifest.Browserslist

	decodeField(ctx, raw, "preset", &opts.Preset)
	decodeField(ctx, raw, "env", &opts.Env)
	decodeField(ctx, raw, "input", &opts.Input)
	decodeField(ctx, raw, "html", &opts.HTML)
	decodeField(ctx, raw, "output", &opts.Output)
	decodeField(ctx, raw, "copyFiles", &opts.CopyFiles)
	decodeField(ctx, raw, "importAsString", &opts.ImportAsString)
	decodeField(ctx, raw, "sourcemap", &opts.Sourcemap)
	decodeField(ctx, raw, "alias", &opts.Alias)
	decodeField(ctx, raw, "APP_ENVS", &opts.AppEnvs)
	decodeField(ctx, raw, "babelConfig", &opts.BabelConfig)
	decodeField(ctx, raw, "devServer", &opts.DevServer)
	decodeField(ctx, raw, "external", &opts.External)
	decodeField(ctx, raw, "target", &opts.Target)
	decodeField(ctx, raw, "context", &opts.Context)
	decodeField(ctx, raw, "modern", &opts.Modern)
	decodeField(ctx, raw, "format", &opts.Format)
	decodeField(ctx, raw, "multiBuildApp", &opts.MultiBuildApp)
	decodeField(ctx, raw, "appPolyfills", &opts.AppPolyfills)
	decodeField(ctx, raw, "browserslist", &opts.Browserslist)
	decodeField(ctx, raw, "pragma", &opts.Pragma)
	decodeField(ctx, raw, "pragmaFrag", &opts.PragmaFrag)

	opts.CSSBrowserslist = opts.Browserslist
	decodeField(ctx, raw, "cssBrowserslist", &opts.CSSBrowserslist)

	return opts
}

func decodeField[T any](ctx context.Context, raw RawOptions, key string, dst *T) {
	data, ok := raw[key]
	if !ok {
		return
	}

	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("option", key).Msg("Ignoring malformed option")
		return
	}
	*dst = v
}
