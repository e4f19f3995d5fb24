package assets

type Config struct {
	// Project root, esbuild resolves entry points and writes metafile paths relative to it
	Cwd string
	// Metafile name written into each pass output directory
	MetafileName string
	// Livereload endpoint injected into development bundles
	LivereloadPath string
	// Log esbuild warnings forwarded by the pass warning handler
	ReportWarnings bool
}

// DefaultConfig returns a sensible default configuration
func DefaultConfig() Config {
	return Config{
		Cwd:            ".",
		MetafileName:   "meta.json",
		LivereloadPath: "/livereload",
		ReportWarnings: true,
	}
}
