package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/wolfeidau/buildpreset/internal/assets"
	"github.com/wolfeidau/buildpreset/internal/devserver"
	"github.com/wolfeidau/buildpreset/internal/logger"
	"github.com/wolfeidau/buildpreset/internal/preset"
	"github.com/wolfeidau/buildpreset/internal/telemetry"
	"golang.org/x/sync/errgroup"
)

type BuildCmd struct {
	EnvironmentFlags `embed:""`

	Metafile    string  `help:"metafile written into each pass output directory, empty disables it" default:"meta.json"`
	Quiet       bool    `help:"hide bundler warnings"`
	Tracing     bool    `help:"enable tracing" default:"false" env:"BUILDPRESET_TRACING"`
	SampleRatio float64 `help:"fraction of builds traced" default:"1" env:"BUILDPRESET_TRACE_SAMPLE_RATIO"`
}

func (c *BuildCmd) Run(ctx context.Context, globals *Globals) error {
	log := logger.Setup(globals.Debug).With().Str("build_id", uuid.NewString()).Logger()
	ctx = log.WithContext(ctx)

	log.Info().Str("version", globals.Version).Bool("debug", globals.Debug).Msg("Starting build")

	if c.Tracing {
		log.Info().Msg("Tracing is enabled")
		shutdown, err := telemetry.InitTelemetry(ctx, telemetry.Config{
			ServiceName: "buildpreset",
			Version:     globals.Version,
			SampleRatio: c.SampleRatio,
		})
		if err != nil {
			log.Warn().Err(err).Msg("Failed to initialize telemetry, continuing without metrics")
			shutdown = func(ctx context.Context) error { return nil }
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				log.Error().Err(err).Msg("Failed to shutdown telemetry")
			}
		}()
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return c.run(ctx, os.Stdout)
}

func (c *BuildCmd) run(ctx context.Context, report io.Writer) error {
	raw, err := c.options()
	if err != nil {
		return err
	}

	passes, err := preset.Build(ctx, c.environment(), raw)
	if err != nil {
		return err
	}

	cfg := assets.DefaultConfig()
	cfg.MetafileName = c.Metafile
	cfg.ReportWarnings = !c.Quiet
	cfg.LivereloadPath = devserver.LivereloadPath
	if c.Cwd != "" {
		cfg.Cwd = c.Cwd
	}

	runner := assets.NewRunner(cfg, passes, report)

	serve, ok := serveOptions(passes)
	if !ok {
		start := time.Now()
		if err := runner.Run(ctx); err != nil {
			return err
		}
		zerolog.Ctx(ctx).Info().Int("passes", len(passes)).Dur("duration", time.Since(start)).Msg("Build complete")
		return nil
	}

	return watchAndServe(ctx, runner, devserver.New(devserver.ConfigFromOptions(serve)))
}

// watchAndServe rebuilds on change and serves the output until ctx is cancelled.
func watchAndServe(ctx context.Context, runner *assets.Runner, server *devserver.Server) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return runner.Watch(ctx, server.Reload)
	})
	g.Go(func() error {
		return server.ListenAndServe(ctx)
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("dev server stopped: %w", err)
	}
	return nil
}

func serveOptions(passes []preset.Pass) (preset.ServeOptions, bool) {
	for i := range passes {
		if pl, ok := passes[i].Plugin(preset.PluginServe); ok {
			opts, _ := pl.Options.(preset.ServeOptions)
			return opts, true
		}
	}
	return nil, false
}
