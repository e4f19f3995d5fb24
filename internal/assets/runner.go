package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/rs/zerolog"
	"github.com/wolfeidau/buildpreset/internal/preset"
	"github.com/wolfeidau/buildpreset/internal/telemetry"
)

// Runner drives the pipelines of one build in pass order.
type Runner struct {
	config    Config
	pipelines []*Pipeline
	report    io.Writer

	// serialises the steps that read every pipeline
	mu sync.Mutex
}

// NewRunner creates a pipeline per pass. The size report is written to report.
func NewRunner(config Config, passes []preset.Pass, report io.Writer) *Runner {
	r := &Runner{config: config, report: report}
	for i := range passes {
		r.pipelines = append(r.pipelines, New(config, &passes[i]))
	}
	return r
}

// Pipelines returns the pipelines in pass order.
func (r *Runner) Pipelines() []*Pipeline {
	return r.pipelines
}

// Run builds every pass once, then writes the index page and the size report.
func (r *Runner) Run(ctx context.Context) error {
	for _, p := range r.pipelines {
		if err := p.Build(ctx); err != nil {
			return err
		}
		if _, err := p.CopyFiles(ctx); err != nil {
			return err
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := WriteIndexHTML(ctx, r.pipelines); err != nil {
		return err
	}
	return r.writeReport()
}

func (r *Runner) writeReport() error {
	for _, p := range r.pipelines {
		if _, ok := p.pass.Plugin(preset.PluginFilesize); !ok || r.report == nil {
			continue
		}
		sizes, err := p.SizeReport()
		if err != nil {
			return err
		}
		PrintReport(r.report, sizes)
	}
	return nil
}

// Watch builds every pass and rebuilds on change until ctx is cancelled. onChange is called
// after each successful build once the index page has been rewritten.
func (r *Runner) Watch(ctx context.Context, onChange func()) error {
	var contexts []api.BuildContext
	defer func() {
		for _, bc := range contexts {
			bc.Dispose()
		}
	}()

	for _, p := range r.pipelines {
		if len(p.pass.Input) == 0 {
			return ErrNoEntryPoints
		}

		opts := BuildOptions(r.config, p.pass)
		opts.Plugins = append(opts.Plugins, r.onEndPlugin(ctx, p, onChange))

		bc, cerr := api.Context(opts)
		if cerr != nil {
			for _, msg := range cerr.Errors {
				zerolog.Ctx(ctx).Error().Str("error", formatMessage(msg)).Msg("Build error")
			}
			return fmt.Errorf("%w: failed to create build context", ErrBuildFailed)
		}
		contexts = append(contexts, bc)

		if err := bc.Watch(api.WatchOptions{}); err != nil {
			return fmt.Errorf("failed to watch %s: %w", p.pass.Output.Dir, err)
		}
	}

	stop, err := r.watchTemplate(ctx, onChange)
	if err != nil {
		return err
	}
	defer stop()

	zerolog.Ctx(ctx).Info().Int("passes", len(contexts)).Msg("Watching for changes")
	<-ctx.Done()
	return nil
}

func (r *Runner) onEndPlugin(ctx context.Context, p *Pipeline, onChange func()) api.Plugin {
	return api.Plugin{
		Name: "buildpreset-on-end",
		Setup: func(build api.PluginBuild) {
			var (
				started time.Time
				builds  int
			)

			build.OnStart(func() (api.OnStartResult, error) {
				started = time.Now()
				return api.OnStartResult{}, nil
			})

			build.OnEnd(func(result *api.BuildResult) (api.OnEndResult, error) {
				builds++
				if builds > 1 {
					telemetry.GetMetrics().RebuildsTotal.Add(ctx, 1)
				}

				if err := p.complete(ctx, *result, time.Since(started)); err != nil {
					zerolog.Ctx(ctx).Error().Err(err).Msg("Rebuild failed")
					return api.OnEndResult{}, nil
				}
				if _, err := p.CopyFiles(ctx); err != nil {
					zerolog.Ctx(ctx).Error().Err(err).Msg("Failed to copy files")
				}

				r.refresh(ctx, onChange)
				return api.OnEndResult{}, nil
			})
		},
	}
}

// refresh rewrites the index page once every pass has been built and notifies onChange.
func (r *Runner) refresh(ctx context.Context, onChange func()) {
	r.mu.Lock()
	err := WriteIndexHTML(ctx, r.pipelines)
	r.mu.Unlock()

	switch {
	case errors.Is(err, ErrNotBuilt):
		return
	case err != nil:
		zerolog.Ctx(ctx).Error().Err(err).Msg("Failed to write index page")
		return
	}

	if onChange != nil {
		onChange()
	}
}
