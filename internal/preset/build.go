// Package preset assembles bundler pass configurations from a preset selection and a project
// options object.
package preset

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/wolfeidau/buildpreset/internal/transform"
)

// PostProcess receives the assembled passes and returns the final result of a build.
type PostProcess[T any] func(passes []Pass) (T, error)

// Build assembles the passes for raw. A nil raw falls back to the manifest rollupConfig block.
func Build(ctx context.Context, env Environment, raw RawOptions) ([]Pass, error) {
	return BuildWith(ctx, env, raw, func(passes []Pass) ([]Pass, error) {
		return passes, nil
	})
}

// BuildWith assembles the passes and hands them to post.
func BuildWith[T any](ctx context.Context, env Environment, raw RawOptions, post PostProcess[T]) (T, error) {
	var zero T
	if post == nil {
		return zero, ErrNoPostProcess
	}

	cwd, err := resolveCwd(env.Cwd)
	if err != nil {
		return zero, err
	}

	manifest := LoadManifest(ctx, cwd)
	if raw == nil {
		raw = manifest.RollupConfig
	}
	if raw == nil {
		raw = RawOptions{}
	}

	raw = MergeProject(raw, env.Project)
	opts := DecodeOptions(ctx, raw, manifest)

	mode, err := ResolveMode(env.Preset, opts.Preset)
	if err != nil {
		return zero, err
	}

	log := zerolog.Ctx(ctx).With().Str("preset", mode.String()).Logger()

	b := &passBuilder{
		cwd:          cwd,
		opts:         opts,
		mode:         mode,
		input:        ResolveInput(ctx, cwd, opts.Input),
		replacements: BuildReplacements(mode, opts.AppEnvs, transform.ResolveEnv(env.Env, opts.Env)),
		externals:    ResolveExternals(opts.Target, mode, opts.External, manifest),
		output:       ResolveOutput(cwd, opts.Output, mode),
		babelEnv:     transform.ResolveEnv(env.BabelEnv, mode.NodeEnv()),
	}
	if opts.HTML != "" {
		b.html = filepath.Join(cwd, string(opts.HTML))
	}

	if ShouldClear(cwd, b.output, opts.Output) {
		if err := ClearDir(ctx, b.output); err != nil {
			return zero, err
		}
	}

	specs := PassSpecs(opts)
	passes := make([]Pass, 0, len(specs))
	for _, spec := range specs {
		p := b.pass(spec)
		log.Debug().
			Bool("legacy", spec.Legacy).
			Str("format", spec.Format).
			Str("dir", p.Output.Dir).
			Strs("plugins", p.PluginNames()).
			Msg("Assembled pass")
		passes = append(passes, p)
	}

	return post(passes)
}

// PassSpecs returns the requested pass, preceded by a legacy SystemJS pass for multi builds.
func PassSpecs(opts Options) []PassSpec {
	var specs []PassSpec
	if opts.MultiBuildApp {
		specs = append(specs, PassSpec{Legacy: true, Format: FormatSystem, Modern: false})
	}
	return append(specs, PassSpec{Legacy: false, Format: opts.Format, Modern: opts.Modern})
}

func resolveCwd(cwd string) (string, error) {
	if cwd == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("failed to get working directory: %w", err)
		}
		cwd = wd
	}

	abs, err := filepath.Abs(cwd)
	if err != nil {
		return "", fmt.Errorf("failed to resolve working directory: %w", err)
	}
	return abs, nil
}
