package assets

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/buildpreset/internal/preset"
)

func newProject(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}
	return dir
}

var appFiles = map[string]string{
	"src/index.js":   "import { message } from './message.js';\nconsole.log(message, process.env.NODE_ENV);\n",
	"src/message.js": "export const message = 'hello';\n",
	"src/index.html": "<!doctype html><html><head><title>app</title></head><body></body></html>\n",
}

func buildPasses(t *testing.T, dir, presetName string, raw string) []preset.Pass {
	t.Helper()
	opts, err := preset.ParseOptions([]byte(raw))
	require.NoError(t, err)

	passes, err := preset.Build(context.Background(), preset.Environment{Preset: presetName, Cwd: dir}, opts)
	require.NoError(t, err)
	return passes
}

func testConfig(dir string) Config {
	cfg := DefaultConfig()
	cfg.Cwd = dir
	return cfg
}

func TestBuildOptions_Dev(t *testing.T) {
	dir := newProject(t, appFiles)
	passes := buildPasses(t, dir, preset.PresetDev, `{}`)
	require.Len(t, passes, 1)

	opts := BuildOptions(testConfig(dir), &passes[0])

	require.Equal(t, dir, opts.AbsWorkingDir)
	require.Equal(t, filepath.Join(dir, "build"), opts.Outdir)
	require.Equal(t, []string{filepath.Join(dir, "src", "index.js")}, opts.EntryPoints)
	require.Equal(t, api.FormatESModule, opts.Format)
	require.True(t, opts.Splitting)
	require.True(t, opts.Bundle)
	require.True(t, opts.Metafile)
	require.Equal(t, api.SourceMapLinked, opts.Sourcemap)
	require.Equal(t, "[name]", opts.EntryNames)
	require.Equal(t, "[name]-[hash]", opts.ChunkNames)
	require.Equal(t, `"development"`, opts.Define["process.env.NODE_ENV"])
	require.False(t, opts.MinifyWhitespace)
	require.Equal(t, api.PlatformBrowser, opts.Platform)
	require.Equal(t, []string{"module", "jsnext", "main"}, opts.MainFields)
	require.Equal(t, api.JSXTransform, opts.JSX)
	require.Equal(t, "h", opts.JSXFactory)
	require.Equal(t, "Fragment", opts.JSXFragment)
	require.Equal(t, api.LoaderJSX, opts.Loader[".js"])
	require.Equal(t, api.LoaderCSS, opts.Loader[".css"])
	require.Equal(t, api.LoaderJSON, opts.Loader[".json"])
	require.Equal(t, api.LoaderFile, opts.Loader[".png"])
	require.Equal(t, "[dir]/[name]", opts.AssetNames)
	require.Contains(t, opts.Banner["js"], `"/livereload"`)
	require.Empty(t, opts.Plugins)
}

func TestBuildOptions_BuildApp(t *testing.T) {
	dir := newProject(t, appFiles)
	passes := buildPasses(t, dir, preset.PresetBuildApp, `{"APP_ENVS":{"production":{"API_URL":"https://example.com"}},"env":"production"}`)
	require.Len(t, passes, 1)

	opts := BuildOptions(testConfig(dir), &passes[0])

	require.Equal(t, "[name]-[hash]", opts.EntryNames)
	require.Equal(t, "[name]-[hash]", opts.ChunkNames)
	require.True(t, opts.MinifyWhitespace)
	require.True(t, opts.MinifyIdentifiers)
	require.True(t, opts.MinifySyntax)
	require.Equal(t, api.ES2018, opts.Target)
	require.Equal(t, `"production"`, opts.Define["process.env.NODE_ENV"])
	require.Equal(t, `"https://example.com"`, opts.Define["process.env.API_URL"])
	require.Empty(t, opts.Banner)
}

func TestBuildOptions_MultiBuildLegacyPass(t *testing.T) {
	dir := newProject(t, appFiles)
	passes := buildPasses(t, dir, preset.PresetBuildApp, `{"multiBuildApp":true}`)
	require.Len(t, passes, 2)

	legacy := BuildOptions(testConfig(dir), &passes[0])
	require.Equal(t, filepath.Join(dir, "build", "legacy"), legacy.Outdir)
	require.Equal(t, api.FormatIIFE, legacy.Format)
	require.False(t, legacy.Splitting)
	require.Equal(t, api.ES2015, legacy.Target)
	require.Equal(t, "[dir]/[name]", legacy.AssetNames)

	modern := BuildOptions(testConfig(dir), &passes[1])
	require.Equal(t, filepath.Join(dir, "build"), modern.Outdir)
	require.Equal(t, api.FormatESModule, modern.Format)
	require.Equal(t, api.ES2018, modern.Target)
}

func TestBuildOptions_NodeLibrary(t *testing.T) {
	dir := newProject(t, map[string]string{
		"src/index.js": "export const x = 1;\n",
		"package.json": `{"dependencies":{"lodash":"^4.0.0"}}`,
	})
	passes := buildPasses(t, dir, preset.PresetLib, `{"target":"node","html":false}`)
	require.Len(t, passes, 1)

	opts := BuildOptions(testConfig(dir), &passes[0])

	require.Equal(t, api.PlatformNode, opts.Platform)
	require.Equal(t, []api.Engine{{Name: api.EngineNode, Version: "8"}}, opts.Engines)
	require.Equal(t, filepath.Join(dir, "lib"), opts.Outdir)
	require.Len(t, opts.Plugins, 1)
	resolve := captureResolve(t, opts.Plugins[0])
	require.True(t, resolve("fs").External)
	require.True(t, resolve("lodash").External)
	require.True(t, resolve("lodash/get").External)
	require.False(t, resolve("lodash-es").External)
	require.Equal(t, "[name]", opts.EntryNames)
}

// captureResolve runs the plugin setup and returns its resolve callback.
func captureResolve(t *testing.T, plugin api.Plugin) func(path string) api.OnResolveResult {
	t.Helper()
	var (
		filter   string
		callback func(api.OnResolveArgs) (api.OnResolveResult, error)
	)
	plugin.Setup(api.PluginBuild{
		OnResolve: func(options api.OnResolveOptions, cb func(api.OnResolveArgs) (api.OnResolveResult, error)) {
			filter = options.Filter
			callback = cb
		},
	})
	require.NotNil(t, callback)

	return func(path string) api.OnResolveResult {
		t.Helper()
		if !regexp.MustCompile(filter).MatchString(path) {
			return api.OnResolveResult{}
		}
		result, err := callback(api.OnResolveArgs{Path: path})
		require.NoError(t, err)
		return result
	}
}

func TestExternalsPlugin(t *testing.T) {
	dir := newProject(t, map[string]string{
		"src/index.js": "export const x = 1;\n",
		"package.json": `{"dependencies":{"babel-plugin-transform-async-to-promises":"^0.8.0","preact":"^10.0.0"}}`,
	})

	tests := []struct {
		name     string
		raw      string
		pass     int
		path     string
		external bool
	}{
		{name: "dependency", raw: `{}`, path: "preact", external: true},
		{name: "dependency sub path", raw: `{}`, path: "preact/hooks", external: true},
		{name: "relative import", raw: `{}`, path: "./preact", external: false},
		{name: "async helpers bundled into modern pass", raw: `{}`, path: "babel-plugin-transform-async-to-promises/helpers", external: false},
		{name: "async helpers package root stays external", raw: `{}`, path: "babel-plugin-transform-async-to-promises", external: true},
		{name: "async helpers external on legacy pass", raw: `{"multiBuildApp":true}`, path: "babel-plugin-transform-async-to-promises/helpers", external: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			passes := buildPasses(t, dir, preset.PresetLib, tt.raw)
			opts := BuildOptions(testConfig(dir), &passes[tt.pass])
			require.Len(t, opts.Plugins, 1)

			result := captureResolve(t, opts.Plugins[0])(tt.path)
			require.Equal(t, tt.external, result.External)
			if tt.external {
				require.Equal(t, tt.path, result.Path)
			}
		})
	}
}

func TestBuildOptions_BabelOverrideKeepsDefaults(t *testing.T) {
	dir := newProject(t, appFiles)
	passes := buildPasses(t, dir, preset.PresetDev, `{"babelConfig":{"presets":["custom"]}}`)

	opts := BuildOptions(testConfig(dir), &passes[0])
	require.Empty(t, opts.JSXFactory)
	require.NotContains(t, opts.Loader, ".js")
	require.Equal(t, api.ESNext, opts.Target)
}

func TestFormatFor(t *testing.T) {
	tests := []struct {
		format    string
		want      api.Format
		splitting bool
	}{
		{format: "es", want: api.FormatESModule, splitting: true},
		{format: "esm", want: api.FormatESModule, splitting: true},
		{format: "cjs", want: api.FormatCommonJS},
		{format: "system", want: api.FormatIIFE},
		{format: "umd", want: api.FormatIIFE},
		{format: "iife", want: api.FormatIIFE},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			got, splitting := formatFor(tt.format)
			require.Equal(t, tt.want, got)
			require.Equal(t, tt.splitting, splitting)
		})
	}
}

func TestNameTemplates(t *testing.T) {
	require.Equal(t, "[name]", nameTemplate("[name].js"))
	require.Equal(t, "[name]-[hash]", nameTemplate("[name]-[hash].js"))
	require.Equal(t, "[name]-[hash]", chunkTemplate("[name].js"))
	require.Equal(t, "[name]-[hash]", chunkTemplate("[name]-[hash].js"))
	require.Equal(t, "[dir]/[name]", assetTemplate("[dirname][name][extname]"))
	require.Equal(t, "[dir]/[name]", assetTemplate("../[dirname][name][extname]"))
}

func TestDefineValue(t *testing.T) {
	tests := []struct {
		value string
		want  string
	}{
		{value: "'production'", want: `"production"`},
		{value: "'say \"hi\"'", want: `"say \"hi\""`},
		{value: "''", want: `""`},
		{value: "true", want: "true"},
		{value: "'", want: "'"},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			require.Equal(t, tt.want, defineValue(tt.value))
		})
	}
}

func TestStringExtensions(t *testing.T) {
	require.Equal(t, []string{".txt"}, stringExtensions(preset.StringImport{}))
	require.Equal(t, []string{".txt"}, stringExtensions(preset.StringImport{Include: preset.StringList{"**/*.{txt,md}"}}))
	require.Equal(t, []string{".css", ".svg"}, stringExtensions(preset.StringImport{Include: preset.StringList{"**/*.css", "icons/*.svg"}}))
}

func TestWarningCode(t *testing.T) {
	require.Equal(t, "CIRCULAR_DEPENDENCY", warningCode("circular-dependency"))
	require.Equal(t, "EMPTY_IMPORT_META", warningCode("empty-import-meta"))
	require.Equal(t, "", warningCode(""))
}
