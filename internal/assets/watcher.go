package assets

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"github.com/wolfeidau/buildpreset/internal/preset"
)

const debounceInterval = 50 * time.Millisecond

// templatePaths returns the index templates used by the pipelines.
func templatePaths(pipelines []*Pipeline) []string {
	seen := make(map[string]bool)
	var paths []string
	for _, p := range pipelines {
		pl, ok := p.pass.Plugin(preset.PluginIndexHTML)
		if !ok {
			continue
		}
		o, _ := pl.Options.(preset.IndexHTMLOptions)
		if o.IndexHTML != "" && !seen[o.IndexHTML] {
			seen[o.IndexHTML] = true
			paths = append(paths, o.IndexHTML)
		}
	}
	return paths
}

// watchTemplate re-renders the index page when its template changes. esbuild only tracks
// files in the module graph, so the template needs its own watch. Editors often replace the
// file on save, so the parent directory is watched and events are filtered by name.
func (r *Runner) watchTemplate(ctx context.Context, onChange func()) (func(), error) {
	paths := templatePaths(r.pipelines)
	if len(paths) == 0 {
		return func() {}, nil
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	watched := make(map[string]bool, len(paths))
	for _, path := range paths {
		watched[filepath.Clean(path)] = true
		if err := fw.Add(filepath.Dir(path)); err != nil {
			fw.Close()
			return nil, err
		}
	}

	done := make(chan struct{})
	var once sync.Once

	go func() {
		var last time.Time
		for {
			select {
			case event, ok := <-fw.Events:
				if !ok {
					return
				}
				if !watched[filepath.Clean(event.Name)] {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
					continue
				}

				now := time.Now()
				if now.Sub(last) < debounceInterval {
					continue
				}
				last = now

				zerolog.Ctx(ctx).Debug().Str("file", event.Name).Msg("Index template changed")
				r.refresh(ctx, onChange)

			case err, ok := <-fw.Errors:
				if !ok {
					return
				}
				zerolog.Ctx(ctx).Warn().Err(err).Msg("Template watcher error")

			case <-done:
				return
			}
		}
	}()

	return func() {
		once.Do(func() {
			close(done)
			fw.Close()
		})
	}, nil
}
