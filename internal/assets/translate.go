package assets

import (
	"encoding/json"
	"path/filepath"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/wolfeidau/buildpreset/internal/preset"
)

var assetExtensions = []string{
	".png", ".jpg", ".jpeg", ".gif", ".webp", ".avif", ".svg", ".ico",
	".woff", ".woff2", ".ttf", ".eot", ".mp4", ".webm",
}

// esbuild cannot lower below ES2015, legacy output bottoms out there
var ecmaTargets = map[int]api.Target{
	5: api.ES2015,
	9: api.ES2018,
}

// BuildOptions translates a pass configuration into esbuild options.
func BuildOptions(config Config, pass *preset.Pass) api.BuildOptions {
	format, splitting := formatFor(pass.Output.Format)

	opts := api.BuildOptions{
		EntryPoints:   pass.Input,
		AbsWorkingDir: absDir(config.Cwd),
		Bundle:        true,
		Write:         true,
		Metafile:      true,
		Outdir:        pass.Output.Dir,
		Format:        format,
		Splitting:     splitting,
		Sourcemap:     cond(pass.Output.Sourcemap, api.SourceMapLinked, api.SourceMapNone),
		EntryNames:    nameTemplate(pass.Output.EntryFileNames),
		ChunkNames:    chunkTemplate(pass.Output.ChunkFileNames),
		TreeShaking:   api.TreeShakingTrue,
		Platform:      api.PlatformBrowser,
		Target:        api.ESNext,
		LogLevel:      api.LogLevelSilent,
		Loader:        map[string]api.Loader{},
		Define:        map[string]string{},
	}

	if len(pass.External) > 0 {
		opts.Plugins = append(opts.Plugins, externalsPlugin(pass))
	}

	for _, pl := range pass.Plugins {
		switch o := pl.Options.(type) {
		case preset.Replacements:
			for _, r := range o {
				opts.Define[r.Key] = defineValue(r.Value)
			}
		case preset.AliasOptions:
			if len(o.Entries) > 0 {
				opts.Alias = o.Entries
			}
		case preset.PostCSSOptions:
			opts.Loader[".css"] = api.LoaderCSS
		case preset.NodeResolveOptions:
			opts.MainFields = o.MainFields
			opts.ResolveExtensions = o.Extensions
			opts.Platform = cond(o.Browser, api.PlatformBrowser, api.PlatformNode)
		case preset.BabelOptions:
			applyTransform(&opts, o, pass.Legacy)
		case preset.StringImport:
			for _, ext := range stringExtensions(o) {
				opts.Loader[ext] = api.LoaderText
			}
		case preset.URLOptions:
			for _, ext := range assetExtensions {
				opts.Loader[ext] = api.LoaderFile
			}
			opts.AssetNames = assetTemplate(o.FileName)
		case preset.TerserOptions:
			opts.MinifyWhitespace = true
			opts.MinifyIdentifiers = true
			opts.MinifySyntax = true
			opts.LegalComments = api.LegalCommentsNone
			if target, ok := ecmaTargets[o.ECMA]; ok {
				opts.Target = target
			}
		case preset.LivereloadOptions:
			if config.LivereloadPath != "" {
				opts.Banner = map[string]string{"js": livereloadSnippet(config.LivereloadPath)}
			}
		}

		if pl.Name == preset.PluginJSON {
			opts.Loader[".json"] = api.LoaderJSON
		}
	}

	return opts
}

// applyTransform maps the generated transform configuration onto esbuild's own transforms.
// A user override has no esbuild equivalent and leaves the defaults in place.
func applyTransform(opts *api.BuildOptions, o preset.BabelOptions, legacy bool) {
	if o.Config == nil {
		return
	}

	if jsx, ok := o.Config.Plugin("@babel/plugin-transform-react-jsx"); ok {
		opts.JSX = api.JSXTransform
		opts.Loader[".js"] = api.LoaderJSX
		opts.JSXFactory, _ = jsx.Options["pragma"].(string)
		opts.JSXFragment, _ = jsx.Options["pragmaFrag"].(string)
	}

	switch targets := o.Config.PresetOptions()["targets"].(type) {
	case map[string]any:
		if node, ok := targets["node"].(string); ok {
			opts.Target = api.DefaultTarget
			opts.Engines = []api.Engine{{Name: api.EngineNode, Version: node}}
		} else if targets["esmodules"] == true {
			opts.Target = api.ES2017
		}
	case []string:
		if legacy {
			opts.Target = api.ES2015
		}
	}
}

func formatFor(format string) (api.Format, bool) {
	switch format {
	case "es", "esm", "module":
		return api.FormatESModule, true
	case "cjs", "commonjs":
		return api.FormatCommonJS, false
	default:
		// esbuild has no SystemJS or UMD output, a self contained script is the closest match
		return api.FormatIIFE, false
	}
}

func nameTemplate(pattern string) string {
	return strings.TrimSuffix(pattern, filepath.Ext(pattern))
}

// chunk names must be unique, so a template without a hash gets one
func chunkTemplate(pattern string) string {
	name := nameTemplate(pattern)
	if !strings.Contains(name, "[hash]") {
		name += "-[hash]"
	}
	return name
}

func assetTemplate(fileName string) string {
	name := strings.TrimPrefix(fileName, "../")
	name = strings.ReplaceAll(name, "[dirname]", "[dir]/")
	name = strings.ReplaceAll(name, "[extname]", "")
	return strings.ReplaceAll(name, "//", "/")
}

// externalsPlugin leaves bare imports the pass marks as external to the runtime loader.
func externalsPlugin(pass *preset.Pass) api.Plugin {
	return api.Plugin{
		Name: "buildpreset-externals",
		Setup: func(build api.PluginBuild) {
			build.OnResolve(api.OnResolveOptions{Filter: `^[^./]`}, func(args api.OnResolveArgs) (api.OnResolveResult, error) {
				if !pass.IsExternal(args.Path) {
					return api.OnResolveResult{}, nil
				}
				return api.OnResolveResult{Path: args.Path, External: true}, nil
			})
		},
	}
}

func stringExtensions(o preset.StringImport) []string {
	var exts []string
	for _, pattern := range o.Include {
		if ext := filepath.Ext(pattern); ext != "" && !strings.ContainsAny(ext, "*{}") {
			exts = append(exts, ext)
		}
	}
	if len(exts) == 0 {
		exts = []string{".txt"}
	}
	return exts
}

// defineValue converts a quoted JavaScript literal into the JSON string esbuild expects.
func defineValue(value string) string {
	if len(value) >= 2 && strings.HasPrefix(value, "'") && strings.HasSuffix(value, "'") {
		data, err := json.Marshal(value[1 : len(value)-1])
		if err == nil {
			return string(data)
		}
	}
	return value
}

func livereloadSnippet(path string) string {
	return `(()=>{if(typeof EventSource!=="undefined"){new EventSource(` + marshalString(path) + `).addEventListener("change",()=>location.reload())}})();`
}

func marshalString(s string) string {
	data, _ := json.Marshal(s)
	return string(data)
}

func absDir(dir string) string {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return dir
	}
	return abs
}

func cond[T any](condition bool, trueVal, falseVal T) T {
	if condition {
		return trueVal
	}
	return falseVal
}
