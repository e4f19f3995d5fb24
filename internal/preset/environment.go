package preset

// Environment carries the process level selectors that influence a build. The caller fills it
// once, usually from environment variables, so the builder never reads global state.
type Environment struct {
	// Project selects an entry of the options "project" block.
	Project string
	// Preset overrides the preset named in the options.
	Preset string
	// Env selects the APP_ENVS entry, falling back to the options "env" value.
	Env string
	// BabelEnv takes precedence over the derived NODE_ENV when picking transform passes.
	BabelEnv string
	// Cwd is the project root, defaults to the process working directory.
	Cwd string
}
