package preset

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
)

// Input is the list of resolved entry files. A single entry is written as a plain path.
type Input []string

func (in Input) wire() any {
	switch len(in) {
	case 0:
		return nil
	case 1:
		return in[0]
	default:
		return []string(in)
	}
}

func (in Input) MarshalJSON() ([]byte, error) {
	return json.Marshal(in.wire())
}

func (in Input) MarshalYAML() (any, error) {
	return in.wire(), nil
}

// ResolveInput expands the glob patterns against cwd into absolute paths. Bad patterns are
// logged and skipped.
func ResolveInput(ctx context.Context, cwd string, patterns []string) Input {
	var files Input
	for _, pattern := range patterns {
		matches, err := expandGlob(cwd, pattern)
		if err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Str("pattern", pattern).Msg("Ignoring input pattern")
			continue
		}
		files = append(files, matches...)
	}
	return files
}

// expandGlob returns absolute paths for every file matching pattern.
func expandGlob(cwd, pattern string) ([]string, error) {
	if filepath.IsAbs(pattern) {
		return doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
	}

	matches, err := doublestar.Glob(os.DirFS(cwd), filepath.ToSlash(pattern), doublestar.WithFilesOnly())
	if err != nil {
		return nil, err
	}

	for i, m := range matches {
		matches[i] = filepath.Join(cwd, filepath.FromSlash(m))
	}
	return matches, nil
}
