package preset

import (
	"maps"
	"path/filepath"
	"strings"

	"github.com/wolfeidau/buildpreset/internal/transform"
)

const legacyDir = "legacy"

var defaultPolyfills = map[string]any{
	"dynamicImport":      true,
	"coreJs":             true,
	"regeneratorRuntime": true,
	"webcomponents":      true,
	"systemJs":           true,
	"fetch":              true,
}

// passBuilder holds the read-only state shared by every pass of one build.
type passBuilder struct {
	cwd          string
	opts         Options
	mode         Mode
	output       string
	input        Input
	html         string
	replacements Replacements
	externals    *ExternalSet
	babelEnv     string
}

// stage is one pipeline entry. A stage contributes a plugin only when enabled holds.
type stage struct {
	name    string
	enabled func(b *passBuilder, spec PassSpec) bool
	options func(b *passBuilder, spec PassSpec) any
}

var stages = []stage{
	{PluginReplace, always, (*passBuilder).replaceOptions},
	{PluginAlias, hasAlias, (*passBuilder).aliasOptions},
	{PluginPostCSS, always, (*passBuilder).postcssOptions},
	{PluginIndexHTML, rendersHTML, (*passBuilder).indexHTMLOptions},
	{PluginResolve, always, (*passBuilder).resolveOptions},
	{PluginCommonJS, always, (*passBuilder).commonjsOptions},
	{PluginBabel, always, (*passBuilder).babelOptions},
	{PluginString, importsStrings, (*passBuilder).stringOptions},
	{PluginJSON, always, nil},
	{PluginURL, always, (*passBuilder).urlOptions},
	{PluginCopy, copiesFiles, (*passBuilder).copyOptions},
	{PluginTerser, production, (*passBuilder).terserOptions},
	{PluginServe, serving, (*passBuilder).serveOptions},
	{PluginLivereload, serving, (*passBuilder).livereloadOptions},
	{PluginFilesize, production, nil},
}

func always(*passBuilder, PassSpec) bool { return true }

func hasAlias(b *passBuilder, _ PassSpec) bool { return b.opts.Alias != nil }

func rendersHTML(b *passBuilder, _ PassSpec) bool { return !b.mode.Lib && b.html != "" }

func importsStrings(b *passBuilder, _ PassSpec) bool { return b.opts.ImportAsString.StringImport != nil }

func copiesFiles(b *passBuilder, _ PassSpec) bool { return b.opts.CopyFiles != nil }

func production(b *passBuilder, _ PassSpec) bool { return b.mode.Production() }

func serving(b *passBuilder, _ PassSpec) bool { return b.mode.Dev && !b.mode.BuildApp }

// pass assembles the configuration for spec.
func (b *passBuilder) pass(spec PassSpec) Pass {
	dir := b.output
	if spec.Legacy {
		dir = filepath.Join(b.output, legacyDir)
	}

	names := "[name]-[hash].js"
	if b.mode.Dev || b.mode.Lib {
		names = "[name].js"
	}

	out := PassOutput{
		Dir:            dir,
		Format:         spec.Format,
		Sourcemap:      b.opts.Sourcemap,
		EntryFileNames: names,
		ChunkFileNames: names,
	}
	if b.opts.MultiBuildApp && !spec.Legacy {
		out.DynamicImportFunction = "importShim"
	}

	var plugins []Plugin
	for _, st := range stages {
		if !st.enabled(b, spec) {
			continue
		}
		pl := Plugin{Name: st.name}
		if st.options != nil {
			pl.Options = st.options(b, spec)
		}
		plugins = append(plugins, pl)
	}

	return Pass{
		Legacy:    spec.Legacy,
		Modern:    spec.Modern,
		Input:     b.input,
		Context:   b.opts.Context,
		External:  b.externals.Names(),
		Treeshake: Treeshake{PropertyReadSideEffects: false},
		Output:    out,
		Plugins:   plugins,
		externals: b.externals,
	}
}

func (b *passBuilder) replaceOptions(PassSpec) any {
	return b.replacements
}

func (b *passBuilder) aliasOptions(PassSpec) any {
	entries := make(map[string]string, len(b.opts.Alias))
	for name, target := range b.opts.Alias {
		entries[name] = resolveAlias(b.cwd, target)
	}
	return AliasOptions{Entries: entries}
}

// resolveAlias anchors relative targets at cwd. Bare module names are left to the resolver.
func resolveAlias(cwd, target string) string {
	if strings.HasPrefix(target, "./") || strings.HasPrefix(target, "../") || target == "." {
		return filepath.Join(cwd, target)
	}
	return target
}

func (b *passBuilder) postcssOptions(PassSpec) any {
	return PostCSSOptions{
		Autoprefixer: AutoprefixerOptions{Flexbox: true, OverrideBrowserslist: b.opts.CSSBrowserslist},
		CSSNano:      CSSNanoOptions{Preset: "default"},
	}
}

func (b *passBuilder) indexHTMLOptions(spec PassSpec) any {
	opts := IndexHTMLOptions{
		IndexHTML:  b.html,
		Legacy:     spec.Legacy,
		MultiBuild: b.opts.MultiBuildApp,
	}
	if b.opts.AppPolyfills.Enabled {
		opts.Polyfills = maps.Clone(defaultPolyfills)
		maps.Copy(opts.Polyfills, b.opts.AppPolyfills.Overrides)
	}
	return opts
}

func (b *passBuilder) resolveOptions(PassSpec) any {
	return NodeResolveOptions{
		MainFields: []string{"module", "jsnext", "main"},
		Browser:    b.opts.Target != transform.TargetNode,
		Extensions: []string{".mjs", ".js", ".jsx", ".json", ".node"},
	}
}

func (b *passBuilder) commonjsOptions(PassSpec) any {
	return CommonJSOptions{Include: "/node_modules/"}
}

func (b *passBuilder) babelOptions(spec PassSpec) any {
	if b.opts.BabelConfig.Set() {
		return BabelOptions{Override: b.opts.BabelConfig}
	}

	cfg := transform.Build(transform.Options{
		Env:             b.babelEnv,
		Legacy:          spec.Legacy,
		Target:          b.opts.Target,
		Modern:          spec.Modern,
		Browserslist:    b.opts.Browserslist,
		CSSBrowserslist: b.opts.CSSBrowserslist,
		Pragma:          b.opts.Pragma,
		PragmaFrag:      b.opts.PragmaFrag,
	})
	return BabelOptions{Config: &cfg}
}

func (b *passBuilder) stringOptions(PassSpec) any {
	return *b.opts.ImportAsString.StringImport
}

func (b *passBuilder) urlOptions(spec PassSpec) any {
	prefix := ""
	if spec.Legacy {
		prefix = "../"
	}
	return URLOptions{Limit: 0, FileName: prefix + "[dirname][name][extname]"}
}

func (b *passBuilder) copyOptions(PassSpec) any {
	targets := make([]CopyTarget, 0, len(b.opts.CopyFiles))
	for _, f := range b.opts.CopyFiles {
		target := CopyTarget{Src: filepath.Join(b.cwd, f.Src), Dest: b.output}
		if f.Dest != "" {
			target.Dest = filepath.Join(b.cwd, f.Dest)
		}
		targets = append(targets, target)
	}
	return CopyOptions{CopyOnce: true, Targets: targets}
}

func (b *passBuilder) terserOptions(spec PassSpec) any {
	return TerserOptions{
		Sourcemap: true,
		Compress:  TerserCompress{KeepInfinity: true, Passes: 10, PureGetters: true},
		Output:    TerserOutput{Comments: false, WrapFuncArgs: false},
		ECMA:      ecmaVersion(b.opts.MultiBuildApp, spec),
		Warnings:  true,
		Toplevel:  true,
		Safari10:  true,
	}
}

// ecmaVersion picks the minifier output level. Multi builds follow the pass flavour,
// single builds follow the modern flag.
func ecmaVersion(multiBuild bool, spec PassSpec) int {
	if multiBuild {
		if spec.Legacy {
			return 5
		}
		return 9
	}
	if spec.Modern {
		return 9
	}
	return 5
}

func (b *passBuilder) serveOptions(PassSpec) any {
	opts := ServeOptions{
		"historyApiFallback": true,
		"contentBase":        b.output,
		"port":               3000,
	}
	maps.Copy(opts, b.opts.DevServer)
	return opts
}

func (b *passBuilder) livereloadOptions(PassSpec) any {
	return LivereloadOptions{Watch: b.output}
}
