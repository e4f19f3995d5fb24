package assets

import (
	"bytes"
	"encoding/json"
	"errors"
	"html/template"
	"sync"

	"github.com/wolfeidau/buildpreset/internal/preset"
)

var (
	// ErrBuildFailed is returned when esbuild reports errors for a pass.
	ErrBuildFailed = errors.New("esbuild failed with errors")
	// ErrNotBuilt is returned when metadata is requested before a build.
	ErrNotBuilt = errors.New("assets not built yet, call Build() first")
	// ErrNoEntryPoints is returned for a pass whose input globs matched nothing.
	ErrNoEntryPoints = errors.New("no entry points found")
)

type BuildMetadata struct {
	Outputs map[string]OutputInfo `json:"outputs"`
}

type OutputInfo struct {
	Bytes      int          `json:"bytes"`
	EntryPoint string       `json:"entryPoint"`
	Imports    []ImportInfo `json:"imports"`
	CSSBundle  string       `json:"cssBundle,omitempty"`
}

type ImportInfo struct {
	Path     string `json:"path"`
	Kind     string `json:"kind"`
	External bool   `json:"external,omitempty"`
}

// Pipeline runs one bundling pass through esbuild and keeps the resulting metadata
type Pipeline struct {
	config   Config
	pass     *preset.Pass
	metadata *BuildMetadata
	copied   bool
	mu       sync.RWMutex
}

// New creates a pipeline for the given pass
func New(config Config, pass *preset.Pass) *Pipeline {
	return &Pipeline{
		config: config,
		pass:   pass,
	}
}

// Pass returns the pass configuration this pipeline builds
func (p *Pipeline) Pass() *preset.Pass {
	return p.pass
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"marshal": marshal,
		"safe": func(s string) template.HTML {
			return template.HTML(s) //nolint:gosec
		},
	}
}

func marshal(value any) string {
	buf := new(bytes.Buffer)

	if err := json.NewEncoder(buf).Encode(value); err != nil {
		panic(errors.New("context can only be json serializable"))
	}

	return buf.String()
}
