package assets

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/klauspost/compress/gzip"
)

// FileSize is one row of the size report.
type FileSize struct {
	Path  string
	Bytes int64
	Gzip  int64
}

// SizeReport measures every script and stylesheet the pass wrote. Paths are relative to the
// working directory.
func (p *Pipeline) SizeReport() ([]FileSize, error) {
	metadata, err := p.Metadata()
	if err != nil {
		return nil, err
	}

	var sizes []FileSize
	for _, path := range sortedOutputs(metadata) {
		ext := filepath.Ext(path)
		if ext != ".js" && ext != ".css" {
			continue
		}

		size, err := measure(p.abs(path))
		if err != nil {
			return nil, err
		}
		size.Path = path
		sizes = append(sizes, size)
	}
	return sizes, nil
}

func measure(path string) (FileSize, error) {
	f, err := os.Open(path)
	if err != nil {
		return FileSize{}, fmt.Errorf("failed to open output file: %w", err)
	}
	defer f.Close()

	counter := &countingWriter{}
	zw, err := gzip.NewWriterLevel(counter, gzip.BestCompression)
	if err != nil {
		return FileSize{}, err
	}

	n, err := io.Copy(zw, f)
	if err != nil {
		return FileSize{}, fmt.Errorf("failed to compress %s: %w", path, err)
	}
	if err := zw.Close(); err != nil {
		return FileSize{}, err
	}

	return FileSize{Bytes: n, Gzip: counter.n}, nil
}

type countingWriter struct {
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	c.n += int64(len(p))
	return len(p), nil
}

// PrintReport writes the size report in the filesize plugin layout.
func PrintReport(w io.Writer, sizes []FileSize) {
	if len(sizes) == 0 {
		return
	}

	title := color.New(color.FgCyan, color.Bold)
	value := color.New(color.FgGreen)

	width := 0
	for _, s := range sizes {
		width = max(width, len(s.Path))
	}

	fmt.Fprintln(w, strings.Repeat("-", width+36))
	for _, s := range sizes {
		fmt.Fprintf(w, "%s %s %s\n",
			title.Sprintf("%-*s", width, s.Path),
			value.Sprintf("%12s", humanize.Bytes(uint64(s.Bytes))),
			value.Sprintf("%12s gzip", humanize.Bytes(uint64(s.Gzip))),
		)
	}
	fmt.Fprintln(w, strings.Repeat("-", width+36))
}
