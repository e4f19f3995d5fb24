package assets

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/rs/zerolog"
	"github.com/wolfeidau/buildpreset/internal/preset"
	"github.com/wolfeidau/buildpreset/internal/telemetry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/wolfeidau/buildpreset/internal/assets"

// Build runs esbuild for the pass and loads the resulting metadata
func (p *Pipeline) Build(ctx context.Context) error {
	if len(p.pass.Input) == 0 {
		return ErrNoEntryPoints
	}

	ctx, span := otel.Tracer(tracerName).Start(ctx, "assets.Build", trace.WithAttributes(
		attribute.Bool("pass.legacy", p.pass.Legacy),
		attribute.String("pass.format", p.pass.Output.Format),
		attribute.String("pass.dir", p.pass.Output.Dir),
	))
	defer span.End()

	zerolog.Ctx(ctx).Info().Strs("entrypoints", p.pass.Input).Str("dir", p.pass.Output.Dir).Msg("Building assets")

	started := time.Now()
	result := api.Build(BuildOptions(p.config, p.pass))

	err := p.complete(ctx, result, time.Since(started))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

// complete records the outcome of a build or rebuild of the pass
func (p *Pipeline) complete(ctx context.Context, result api.BuildResult, elapsed time.Duration) error {
	m := telemetry.GetMetrics()
	attrs := metric.WithAttributes(attribute.Bool("legacy", p.pass.Legacy))
	m.PassDuration.Record(ctx, float64(elapsed.Milliseconds()), attrs)

	p.reportWarnings(ctx, result.Warnings)

	if len(result.Errors) > 0 {
		for _, msg := range result.Errors {
			zerolog.Ctx(ctx).Error().Str("error", formatMessage(msg)).Msg("Build error")
		}
		m.PassErrorsTotal.Add(ctx, 1, attrs)
		return fmt.Errorf("%w: %d errors in %s", ErrBuildFailed, len(result.Errors), p.pass.Output.Dir)
	}

	var metadata BuildMetadata
	if err := json.Unmarshal([]byte(result.Metafile), &metadata); err != nil {
		return fmt.Errorf("failed to parse metafile: %w", err)
	}

	if p.config.MetafileName != "" {
		if err := os.MkdirAll(p.pass.Output.Dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
		if err := os.WriteFile(filepath.Join(p.pass.Output.Dir, p.config.MetafileName), []byte(result.Metafile), 0o600); err != nil {
			return fmt.Errorf("failed to write metafile: %w", err)
		}
	}

	var total int64
	for path, info := range metadata.Outputs {
		zerolog.Ctx(ctx).Debug().Str("file", path).Int("bytes", info.Bytes).Msg("Built file")
		total += int64(info.Bytes)
	}

	m.PassesBuiltTotal.Add(ctx, 1, attrs)
	m.OutputBytes.Add(ctx, total, attrs)

	p.mu.Lock()
	p.metadata = &metadata
	p.mu.Unlock()

	return nil
}

func (p *Pipeline) reportWarnings(ctx context.Context, messages []api.Message) {
	for _, msg := range messages {
		p.pass.OnWarn(preset.Warning{Code: warningCode(msg.ID), Message: formatMessage(msg)}, func(w preset.Warning) {
			telemetry.GetMetrics().PassWarningsTotal.Add(ctx, 1)
			if p.config.ReportWarnings {
				zerolog.Ctx(ctx).Warn().Str("code", w.Code).Msg(w.Message)
			}
		})
	}
}

// warningCode converts an esbuild message id such as "circular-dependency" into the
// upper snake case code used by the pass warning handler.
func warningCode(id string) string {
	return strings.ToUpper(strings.ReplaceAll(id, "-", "_"))
}

func formatMessage(msg api.Message) string {
	if msg.Location == nil {
		return msg.Text
	}
	return fmt.Sprintf("%s:%d:%d: %s", msg.Location.File, msg.Location.Line, msg.Location.Column, msg.Text)
}

// Metadata returns the metadata of the last successful build
func (p *Pipeline) Metadata() (*BuildMetadata, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.metadata == nil {
		return nil, ErrNotBuilt
	}
	return p.metadata, nil
}

// LoadScripts returns the ordered list of script paths needed for the given entrypoint
// and the main entrypoint file path. Paths are relative to the working directory.
func (p *Pipeline) LoadScripts(entryPointPath string) ([]string, string, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.metadata == nil {
		return nil, "", ErrNotBuilt
	}

	scripts := []string{}
	visited := make(map[string]bool)

	// Find the output file for this entrypoint
	for _, outputPath := range sortedOutputs(p.metadata) {
		info := p.metadata.Outputs[outputPath]
		if info.EntryPoint == entryPointPath {
			scripts = append(scripts, outputPath)
			visited[outputPath] = true
			p.addDependencies(info, &scripts, visited)
			return scripts, outputPath, nil
		}
	}

	return nil, "", fmt.Errorf("entrypoint not found in metadata: %s", entryPointPath)
}

func (p *Pipeline) addDependencies(output OutputInfo, scripts *[]string, visited map[string]bool) {
	for _, imp := range output.Imports {
		if imp.External || imp.Kind != "import-statement" {
			continue
		}
		if !visited[imp.Path] {
			visited[imp.Path] = true
			*scripts = append(*scripts, imp.Path)

			if chunkInfo, exists := p.metadata.Outputs[imp.Path]; exists {
				p.addDependencies(chunkInfo, scripts, visited)
			}
		}
	}
}

// Entries returns the entry output and stylesheet of every pass input, as absolute paths.
func (p *Pipeline) Entries() ([]Entry, error) {
	entries := make([]Entry, 0, len(p.pass.Input))
	for _, input := range p.pass.Input {
		rel, err := filepath.Rel(absDir(p.config.Cwd), input)
		if err != nil {
			return nil, err
		}

		_, entry, err := p.LoadScripts(filepath.ToSlash(rel))
		if err != nil {
			return nil, err
		}

		p.mu.RLock()
		css := p.metadata.Outputs[entry].CSSBundle
		p.mu.RUnlock()

		e := Entry{Script: p.abs(entry)}
		if css != "" {
			e.Stylesheet = p.abs(css)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Entry is the bundled output of one input file.
type Entry struct {
	Script     string
	Stylesheet string
}

func (p *Pipeline) abs(outputPath string) string {
	return filepath.Join(absDir(p.config.Cwd), filepath.FromSlash(outputPath))
}

func sortedOutputs(metadata *BuildMetadata) []string {
	paths := make([]string, 0, len(metadata.Outputs))
	for path := range metadata.Outputs {
		paths = append(paths, path)
	}
	slices.Sort(paths)
	return paths
}
