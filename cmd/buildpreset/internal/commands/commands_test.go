package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/buildpreset/internal/preset"
	"gopkg.in/yaml.v3"
)

func newProject(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}
	return dir
}

func TestConfigCmd_JSON(t *testing.T) {
	dir := newProject(t, map[string]string{
		"src/index.js": "export default 1;\n",
		"package.json": `{"rollupConfig":{"preset":"lib","html":false}}`,
	})

	buf := new(bytes.Buffer)
	cmd := &ConfigCmd{EnvironmentFlags: EnvironmentFlags{Cwd: dir}, Output: "json"}
	require.NoError(t, cmd.run(context.Background(), buf))

	var passes []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &passes))
	require.Len(t, passes, 1)

	output := passes[0]["output"].(map[string]any)
	assert.Equal(t, filepath.Join(dir, "lib"), output["dir"])
	assert.Equal(t, "[name].js", output["entryFileNames"])
	assert.Equal(t, filepath.Join(dir, "src", "index.js"), passes[0]["input"])
}

func TestConfigCmd_YAMLWithOptionsFile(t *testing.T) {
	dir := newProject(t, map[string]string{
		"src/index.js": "export default 1;\n",
		"options.yaml": "preset: build_app\nmultiBuildApp: true\nhtml: false\n",
	})

	buf := new(bytes.Buffer)
	cmd := &ConfigCmd{
		EnvironmentFlags: EnvironmentFlags{Cwd: dir, Config: filepath.Join(dir, "options.yaml")},
		Output:           "yaml",
	}
	require.NoError(t, cmd.run(context.Background(), buf))

	var passes []map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &passes))
	require.Len(t, passes, 2)
	assert.Equal(t, true, passes[0]["legacy"])
	assert.Equal(t, false, passes[1]["legacy"])
}

func TestConfigCmd_Errors(t *testing.T) {
	dir := newProject(t, map[string]string{"src/index.js": "export default 1;\n"})

	tests := []struct {
		name    string
		flags   EnvironmentFlags
		wantErr error
	}{
		{name: "no preset", flags: EnvironmentFlags{Cwd: dir}, wantErr: preset.ErrNoPreset},
		{name: "unknown preset", flags: EnvironmentFlags{Cwd: dir, Preset: "release"}, wantErr: preset.ErrNoPreset},
		{name: "missing options file", flags: EnvironmentFlags{Cwd: dir, Preset: "dev", Config: filepath.Join(dir, "missing.json")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := &ConfigCmd{EnvironmentFlags: tt.flags, Output: "json"}
			err := cmd.run(context.Background(), new(bytes.Buffer))
			require.Error(t, err)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestTransformCmd(t *testing.T) {
	tests := []struct {
		name       string
		cmd        TransformCmd
		wantPreset string
		wantTarget any
	}{
		{
			name:       "modern",
			cmd:        TransformCmd{Modern: true, Target: "web"},
			wantPreset: "@babel/preset-modules",
			wantTarget: map[string]any{"esmodules": true},
		},
		{
			name:       "legacy",
			cmd:        TransformCmd{Legacy: true, Modern: true, Target: "web"},
			wantPreset: "@babel/preset-env",
			wantTarget: []any{"ie 11"},
		},
		{
			name:       "node",
			cmd:        TransformCmd{Target: "node"},
			wantPreset: "@babel/preset-env",
			wantTarget: map[string]any{"node": "8"},
		},
		{
			name:       "test env",
			cmd:        TransformCmd{NodeEnv: "test", Modern: true},
			wantPreset: "@babel/preset-modules",
			wantTarget: map[string]any{"node": "8"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.cmd.Output = "json"
			buf := new(bytes.Buffer)
			require.NoError(t, tt.cmd.run(buf))

			var cfg struct {
				Presets [][]any `json:"presets"`
			}
			require.NoError(t, json.Unmarshal(buf.Bytes(), &cfg))
			require.Len(t, cfg.Presets, 1)
			assert.Equal(t, tt.wantPreset, cfg.Presets[0][0])
			assert.Equal(t, tt.wantTarget, cfg.Presets[0][1].(map[string]any)["targets"])
		})
	}
}

func TestBuildCmd_Lib(t *testing.T) {
	dir := newProject(t, map[string]string{
		"src/index.js": "export const answer = 42;\n",
	})

	report := new(bytes.Buffer)
	cmd := &BuildCmd{
		EnvironmentFlags: EnvironmentFlags{Cwd: dir, Preset: "lib"},
		Metafile:         "meta.json",
	}
	require.NoError(t, cmd.run(context.Background(), report))

	require.FileExists(t, filepath.Join(dir, "lib", "index.js"))
	require.FileExists(t, filepath.Join(dir, "lib", "meta.json"))
	require.Contains(t, report.String(), "lib/index.js")
}

func TestServeOptions(t *testing.T) {
	_, ok := serveOptions([]preset.Pass{{}})
	require.False(t, ok)

	opts, ok := serveOptions([]preset.Pass{{Plugins: []preset.Plugin{
		{Name: preset.PluginServe, Options: preset.ServeOptions{"port": 3000}},
	}}})
	require.True(t, ok)
	require.Equal(t, 3000, opts["port"])
}
