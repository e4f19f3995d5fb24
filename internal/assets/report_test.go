package assets

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/buildpreset/internal/preset"
)

func TestSizeReport(t *testing.T) {
	content := strings.Repeat("console.log('hello world');\n", 200)
	dir := newProject(t, map[string]string{
		"build/index.js":     content,
		"build/index.js.map": "{}",
		"build/index.css":    "body{}",
	})

	p := New(testConfig(dir), &preset.Pass{})
	p.metadata = &BuildMetadata{Outputs: map[string]OutputInfo{
		"build/index.js":     {EntryPoint: "src/index.js"},
		"build/index.js.map": {},
		"build/index.css":    {},
	}}

	sizes, err := p.SizeReport()
	require.NoError(t, err)
	require.Len(t, sizes, 2)

	require.Equal(t, "build/index.css", sizes[0].Path)
	require.Equal(t, int64(6), sizes[0].Bytes)

	require.Equal(t, "build/index.js", sizes[1].Path)
	require.Equal(t, int64(len(content)), sizes[1].Bytes)
	require.Positive(t, sizes[1].Gzip)
	require.Less(t, sizes[1].Gzip, sizes[1].Bytes)
}

func TestSizeReport_MissingFile(t *testing.T) {
	dir := t.TempDir()
	p := New(testConfig(dir), &preset.Pass{})
	p.metadata = &BuildMetadata{Outputs: map[string]OutputInfo{"build/gone.js": {}}}

	_, err := p.SizeReport()
	require.Error(t, err)
}

func TestSizeReport_NotBuilt(t *testing.T) {
	_, err := New(DefaultConfig(), &preset.Pass{}).SizeReport()
	require.ErrorIs(t, err, ErrNotBuilt)
}

func TestPrintReport(t *testing.T) {
	color.NoColor = true

	buf := new(bytes.Buffer)
	PrintReport(buf, []FileSize{
		{Path: "build/index-abc.js", Bytes: 2048, Gzip: 512},
		{Path: "build/a.css", Bytes: 10, Gzip: 30},
	})

	out := buf.String()
	require.Contains(t, out, "build/index-abc.js")
	require.Contains(t, out, "2.0 kB")
	require.Contains(t, out, "512 B gzip")
	require.Contains(t, out, "build/a.css       ")
	require.Equal(t, 4, strings.Count(out, "\n"))

	buf.Reset()
	PrintReport(buf, nil)
	require.Empty(t, buf.String())
}

func TestMeasure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.js")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	size, err := measure(path)
	require.NoError(t, err)
	require.Zero(t, size.Bytes)
	require.Positive(t, size.Gzip)
}
