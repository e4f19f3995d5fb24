package preset

import (
	"encoding/json"

	"github.com/wolfeidau/buildpreset/internal/transform"
)

// Plugin names, in pipeline order.
const (
	PluginReplace    = "replace"
	PluginAlias      = "alias"
	PluginPostCSS    = "postcss"
	PluginIndexHTML  = "index-html"
	PluginResolve    = "node-resolve"
	PluginCommonJS   = "commonjs"
	PluginBabel      = "babel"
	PluginString     = "string"
	PluginJSON       = "json"
	PluginURL        = "url"
	PluginCopy       = "copy"
	PluginTerser     = "terser"
	PluginServe      = "serve"
	PluginLivereload = "livereload"
	PluginFilesize   = "filesize"
)

// Plugin is one bundler plugin invocation.
type Plugin struct {
	Name    string `json:"name" yaml:"name"`
	Options any    `json:"options,omitempty" yaml:"options,omitempty"`
}

type AliasOptions struct {
	Entries map[string]string `json:"entries" yaml:"entries"`
}

type PostCSSOptions struct {
	Autoprefixer AutoprefixerOptions `json:"autoprefixer" yaml:"autoprefixer"`
	CSSNano      CSSNanoOptions      `json:"cssnano" yaml:"cssnano"`
}

type AutoprefixerOptions struct {
	Flexbox              bool     `json:"flexbox" yaml:"flexbox"`
	OverrideBrowserslist []string `json:"overrideBrowserslist,omitempty" yaml:"overrideBrowserslist,omitempty"`
}

type CSSNanoOptions struct {
	Preset string `json:"preset" yaml:"preset"`
}

type IndexHTMLOptions struct {
	IndexHTML  string         `json:"indexHTML" yaml:"indexHTML"`
	Legacy     bool           `json:"legacy" yaml:"legacy"`
	MultiBuild bool           `json:"multiBuild" yaml:"multiBuild"`
	Polyfills  map[string]any `json:"polyfills,omitempty" yaml:"polyfills,omitempty"`
}

type NodeResolveOptions struct {
	MainFields []string `json:"mainFields" yaml:"mainFields"`
	Browser    bool     `json:"browser" yaml:"browser"`
	Extensions []string `json:"extensions" yaml:"extensions"`
}

type CommonJSOptions struct {
	Include string `json:"include" yaml:"include"`
}

// BabelOptions carries either the generated transform configuration or the user override.
type BabelOptions struct {
	Config   *transform.Config
	Override BabelOverride
}

func (b BabelOptions) MarshalJSON() ([]byte, error) {
	if b.Override.Set() {
		return b.Override.MarshalJSON()
	}
	return json.Marshal(b.Config)
}

func (b BabelOptions) MarshalYAML() (any, error) {
	if b.Override.Set() {
		var v any
		if err := json.Unmarshal(b.Override, &v); err != nil {
			return nil, err
		}
		return v, nil
	}
	return b.Config, nil
}

type URLOptions struct {
	Limit    int    `json:"limit" yaml:"limit"`
	FileName string `json:"fileName" yaml:"fileName"`
}

type CopyOptions struct {
	CopyOnce bool         `json:"copyOnce" yaml:"copyOnce"`
	Targets  []CopyTarget `json:"targets" yaml:"targets"`
}

type CopyTarget struct {
	Src  string `json:"src" yaml:"src"`
	Dest string `json:"dest" yaml:"dest"`
}

type TerserOptions struct {
	Sourcemap bool           `json:"sourcemap" yaml:"sourcemap"`
	Compress  TerserCompress `json:"compress" yaml:"compress"`
	Output    TerserOutput   `json:"output" yaml:"output"`
	ECMA      int            `json:"ecma" yaml:"ecma"`
	Warnings  bool           `json:"warnings" yaml:"warnings"`
	Toplevel  bool           `json:"toplevel" yaml:"toplevel"`
	Safari10  bool           `json:"safari10" yaml:"safari10"`
}

type TerserCompress struct {
	KeepInfinity bool `json:"keep_infinity" yaml:"keep_infinity"`
	Passes       int  `json:"passes" yaml:"passes"`
	PureGetters  bool `json:"pure_getters" yaml:"pure_getters"`
}

type TerserOutput struct {
	Comments     bool `json:"comments" yaml:"comments"`
	WrapFuncArgs bool `json:"wrap_func_args" yaml:"wrap_func_args"`
}

// ServeOptions are the dev server defaults with the devServer option spread over them.
type ServeOptions map[string]any

type LivereloadOptions struct {
	Watch string `json:"watch" yaml:"watch"`
}
