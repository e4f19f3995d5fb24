package preset

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// ResolveOutput resolves the output directory against cwd, defaulting to lib for libraries
// and build otherwise.
func ResolveOutput(cwd, output string, mode Mode) string {
	if output == "" {
		output = "build"
		if mode.Lib {
			output = "lib"
		}
	}
	return filepath.Join(cwd, output)
}

// ShouldClear guards the output clean so that the project root, or a path given as a root
// marker, is never deleted.
func ShouldClear(cwd, resolved, given string) bool {
	protected := []string{filepath.Clean(cwd), "./", "/", "."}
	for _, p := range protected {
		if p == filepath.Clean(resolved) || p == given {
			return false
		}
	}
	return true
}

// ClearDir removes dir and everything below it. It returns once the delete has finished.
func ClearDir(ctx context.Context, dir string) error {
	zerolog.Ctx(ctx).Debug().Str("dir", dir).Msg("Clearing output directory")

	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to clear output directory %s: %w", dir, err)
	}
	return nil
}
