// Package transform builds the source transform (babel) configuration used by every bundling
// pass. It is a pure function of its Options.
package transform

import (
	"encoding/json"
	"regexp"
	"slices"
)

const (
	EnvProduction = "production"
	EnvTest       = "test"

	TargetNode = "node"

	// NodeBaseline is the runtime version targeted for node and test builds.
	NodeBaseline = "8"

	// AsyncHelpersModule is the runtime helper module imported by the async-to-promises pass.
	AsyncHelpersModule = "babel-plugin-transform-async-to-promises/helpers"
)

var (
	legacyBrowsers = []string{"ie 11"}

	// modern targets already support these, so the preset skips them
	modernExcludes = []string{
		"transform-regenerator",
		"transform-async-to-generator",
		"@babel/plugin-transform-template-literals",
	}

	pureComment = regexp.MustCompile(`[@#]__PURE__`)
)

// Options selects which passes are enabled and what they compile for.
type Options struct {
	// Env is the resolved environment selection, see ResolveEnv.
	Env             string
	Legacy          bool
	Target          string
	Modern          bool
	Browserslist    []string
	CSSBrowserslist []string
	Pragma          string
	PragmaFrag      string
}

// Config is the transform configuration handed to the transform engine.
type Config struct {
	BabelRC       bool             `json:"babelrc" yaml:"babelrc"`
	ConfigFile    bool             `json:"configFile" yaml:"configFile"`
	Exclude       string           `json:"exclude" yaml:"exclude"`
	Presets       []Item           `json:"presets" yaml:"presets"`
	Plugins       []Item           `json:"plugins" yaml:"plugins"`
	GeneratorOpts GeneratorOptions `json:"generatorOpts" yaml:"generatorOpts"`
}

// GeneratorOptions controls code generation of the transformed output.
type GeneratorOptions struct {
	Minified bool `json:"minified" yaml:"minified"`
	Compact  bool `json:"compact" yaml:"compact"`
	// CommentPattern is the pattern a comment must match to be kept.
	CommentPattern string `json:"shouldPrintComment" yaml:"shouldPrintComment"`
}

// ShouldPrintComment reports whether a comment survives code generation.
func (g GeneratorOptions) ShouldPrintComment(comment string) bool {
	return pureComment.MatchString(comment)
}

// Item is a preset or plugin reference, optionally with options.
type Item struct {
	Name    string
	Options map[string]any
}

func (i Item) wire() any {
	if i.Options == nil {
		return i.Name
	}
	return []any{i.Name, i.Options}
}

// MarshalJSON encodes the item as a bare name or a [name, options] pair.
func (i Item) MarshalJSON() ([]byte, error) {
	return json.Marshal(i.wire())
}

func (i Item) MarshalYAML() (any, error) {
	return i.wire(), nil
}

// ResolveEnv returns the first non-empty environment selection.
func ResolveEnv(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// Build returns the transform configuration for opts.
func Build(opts Options) Config {
	isProd := opts.Env == EnvProduction
	isTest := opts.Env == EnvTest
	isNode := opts.Target == TargetNode

	presetName := "@babel/preset-env"
	if opts.Modern {
		presetName = "@babel/preset-modules"
	}

	presetOpts := map[string]any{
		"modules":     false,
		"loose":       true,
		"useBuiltIns": false,
	}
	if isTest {
		presetOpts["modules"] = "commonjs"
	}
	if targets := targetsFor(opts, isNode || isTest); targets != nil {
		presetOpts["targets"] = targets
	}
	if !opts.Legacy {
		presetOpts["exclude"] = slices.Clone(modernExcludes)
	}

	var plugins []Item
	add := func(enabled bool, name string, options map[string]any) {
		if enabled {
			plugins = append(plugins, Item{Name: name, Options: options})
		}
	}

	jcss := map[string]any{}
	if len(opts.CSSBrowserslist) > 0 {
		jcss["browsers"] = slices.Clone(opts.CSSBrowserslist)
	}
	add(true, "babel-plugin-jcss", jcss)
	add(true, "babel-plugin-minify-tagged-templates", nil)
	add(true, "@babel/plugin-syntax-dynamic-import", nil)
	add(true, "@babel/plugin-syntax-import-meta", nil)
	add(true, "babel-plugin-bundled-import-meta", map[string]any{"importStyle": "baseUri"})
	add(true, "@babel/plugin-proposal-nullish-coalescing-operator", map[string]any{"loose": true})
	add(true, "@babel/plugin-proposal-optional-chaining", map[string]any{"loose": true})
	add(!opts.Modern, "babel-plugin-transform-async-to-promises", map[string]any{"inlineHelpers": true, "externalHelpers": true})
	add(true, "@babel/plugin-transform-react-jsx", map[string]any{
		"pragma":     orDefault(opts.Pragma, "h"),
		"pragmaFrag": orDefault(opts.PragmaFrag, "Fragment"),
	})
	add(isProd, "babel-plugin-transform-react-remove-prop-types", nil)
	add(true, "@babel/plugin-proposal-class-properties", map[string]any{"loose": true})
	add(!opts.Modern, "@babel/plugin-transform-regenerator", map[string]any{"async": false})
	add(true, "babel-plugin-macros", nil)

	return Config{
		Exclude: "node_modules/**",
		Presets: []Item{{Name: presetName, Options: presetOpts}},
		Plugins: plugins,
		GeneratorOpts: GeneratorOptions{
			Minified:       isProd,
			Compact:        isProd,
			CommentPattern: pureComment.String(),
		},
	}
}

// targetsFor returns nil when the caller supplied no browser list.
func targetsFor(opts Options, baseline bool) any {
	switch {
	case baseline:
		return map[string]any{"node": NodeBaseline}
	case opts.Legacy:
		return slices.Clone(legacyBrowsers)
	case opts.Modern:
		return map[string]any{"esmodules": true}
	case len(opts.Browserslist) > 0:
		return slices.Clone(opts.Browserslist)
	}
	return nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// Plugin returns the named plugin if it is enabled.
func (c Config) Plugin(name string) (Item, bool) {
	for _, p := range c.Plugins {
		if p.Name == name {
			return p, true
		}
	}
	return Item{}, false
}

// PresetOptions returns the options of the first preset.
func (c Config) PresetOptions() map[string]any {
	if len(c.Presets) == 0 {
		return nil
	}
	return c.Presets[0].Options
}
