package preset

import (
	"github.com/wolfeidau/buildpreset/internal/transform"
)

const (
	FormatES     = "es"
	FormatSystem = "system"

	// WarningCircularDependency is dropped by every pass.
	WarningCircularDependency = "CIRCULAR_DEPENDENCY"
)

// PassSpec selects the flavour of one bundling pass.
type PassSpec struct {
	Legacy bool
	Format string
	Modern bool
}

// Pass is the configuration of one bundling pass.
type Pass struct {
	Legacy    bool       `json:"legacy" yaml:"legacy"`
	Modern    bool       `json:"modern" yaml:"modern"`
	Input     Input      `json:"input" yaml:"input"`
	Context   string     `json:"context" yaml:"context"`
	External  []string   `json:"external,omitempty" yaml:"external,omitempty"`
	Treeshake Treeshake  `json:"treeshake" yaml:"treeshake"`
	Output    PassOutput `json:"output" yaml:"output"`
	Plugins   []Plugin   `json:"plugins" yaml:"plugins"`

	externals *ExternalSet
}

type Treeshake struct {
	PropertyReadSideEffects bool `json:"propertyReadSideEffects" yaml:"propertyReadSideEffects"`
}

type PassOutput struct {
	Dir                   string `json:"dir" yaml:"dir"`
	Format                string `json:"format" yaml:"format"`
	Sourcemap             bool   `json:"sourcemap" yaml:"sourcemap"`
	DynamicImportFunction string `json:"dynamicImportFunction,omitempty" yaml:"dynamicImportFunction,omitempty"`
	EntryFileNames        string `json:"entryFileNames" yaml:"entryFileNames"`
	ChunkFileNames        string `json:"chunkFileNames" yaml:"chunkFileNames"`
}

// Warning is a diagnostic reported by the bundling engine.
type Warning struct {
	Code    string
	Message string
}

// IsExternal reports whether the import id should be left unbundled. The async helper module
// is always bundled into non-legacy passes.
func (p *Pass) IsExternal(id string) bool {
	if !p.Legacy && id == transform.AsyncHelpersModule {
		return false
	}
	return p.externals.Match(id)
}

// OnWarn drops circular dependency warnings and forwards everything else.
func (p *Pass) OnWarn(w Warning, forward func(Warning)) {
	if w.Code == WarningCircularDependency {
		return
	}
	forward(w)
}

// Plugin returns the named plugin if the pass includes it.
func (p *Pass) Plugin(name string) (Plugin, bool) {
	for _, pl := range p.Plugins {
		if pl.Name == name {
			return pl, true
		}
	}
	return Plugin{}, false
}

// PluginNames lists the plugins in pipeline order.
func (p *Pass) PluginNames() []string {
	names := make([]string, len(p.Plugins))
	for i, pl := range p.Plugins {
		names[i] = pl.Name
	}
	return names
}
