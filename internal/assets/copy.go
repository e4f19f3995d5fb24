package assets

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"github.com/wolfeidau/buildpreset/internal/preset"
	"github.com/wolfeidau/buildpreset/internal/telemetry"
)

// CopyFiles copies the targets of the pass copy plugin into their destinations. With copyOnce
// set, later calls on the same pipeline do nothing.
func (p *Pipeline) CopyFiles(ctx context.Context) (int, error) {
	pl, ok := p.pass.Plugin(preset.PluginCopy)
	if !ok {
		return 0, nil
	}
	opts, _ := pl.Options.(preset.CopyOptions)

	p.mu.Lock()
	if opts.CopyOnce && p.copied {
		p.mu.Unlock()
		return 0, nil
	}
	p.copied = true
	p.mu.Unlock()

	total := 0
	for _, target := range opts.Targets {
		n, err := CopyTarget(target)
		if err != nil {
			return total, err
		}
		zerolog.Ctx(ctx).Debug().Str("src", target.Src).Str("dest", target.Dest).Int("files", n).Msg("Copied files")
		total += n
	}

	telemetry.GetMetrics().FilesCopiedTotal.Add(ctx, int64(total))
	return total, nil
}

// CopyTarget copies every file or directory matched by target.Src into target.Dest, keeping
// the base name of each match. It returns the number of files written.
func CopyTarget(target preset.CopyTarget) (int, error) {
	matches, err := doublestar.FilepathGlob(target.Src)
	if err != nil {
		return 0, fmt.Errorf("invalid copy pattern %s: %w", target.Src, err)
	}

	count := 0
	for _, src := range matches {
		info, err := os.Stat(src)
		if err != nil {
			return count, err
		}

		dest := filepath.Join(target.Dest, filepath.Base(src))
		if !info.IsDir() {
			if err := copyFile(src, dest, info.Mode()); err != nil {
				return count, err
			}
			count++
			continue
		}

		err = filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			rel, err := filepath.Rel(src, path)
			if err != nil {
				return err
			}
			if d.IsDir() {
				return os.MkdirAll(filepath.Join(dest, rel), 0o755)
			}
			fi, err := d.Info()
			if err != nil {
				return err
			}
			if err := copyFile(path, filepath.Join(dest, rel), fi.Mode()); err != nil {
				return err
			}
			count++
			return nil
		})
		if err != nil {
			return count, err
		}
	}
	return count, nil
}

func copyFile(src, dest string, mode fs.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode.Perm())
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("failed to copy %s: %w", src, err)
	}
	return out.Close()
}
