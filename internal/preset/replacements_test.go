package preset

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestBuildReplacements(t *testing.T) {
	appEnvs := map[string]any{
		"staging": map[string]any{"API_URL": "https://x", "DEBUG": true, "EMPTY": nil},
		"broken":  "not an object",
		"custom":  map[string]any{"NODE_ENV": "staging", "API_URL": "https://x"},
	}

	tests := []struct {
		name     string
		mode     Mode
		env      string
		expected Replacements
	}{
		{
			name:     "no env selected",
			mode:     Mode{Dev: true},
			expected: Replacements{{Key: "process.env.NODE_ENV", Value: "'development'"}},
		},
		{
			name: "selected env flattened",
			mode: Mode{BuildApp: true},
			env:  "staging",
			expected: Replacements{
				{Key: "process.env.NODE_ENV", Value: "'production'"},
				{Key: "process.env.API_URL", Value: "'https://x'"},
				{Key: "process.env.DEBUG", Value: "'true'"},
				{Key: "process.env.EMPTY", Value: "'null'"},
			},
		},
		{
			name: "app NODE_ENV overrides the preset marker",
			mode: Mode{BuildApp: true},
			env:  "custom",
			expected: Replacements{
				{Key: "process.env.NODE_ENV", Value: "'staging'"},
				{Key: "process.env.API_URL", Value: "'https://x'"},
			},
		},
		{
			name:     "non object entry ignored",
			mode:     Mode{Lib: true},
			env:      "broken",
			expected: Replacements{{Key: "process.env.NODE_ENV", Value: "'production'"}},
		},
		{
			name:     "missing entry ignored",
			mode:     Mode{Lib: true},
			env:      "qa",
			expected: Replacements{{Key: "process.env.NODE_ENV", Value: "'production'"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, BuildReplacements(tt.mode, appEnvs, tt.env))
		})
	}
}

func TestBuildReplacements_NodeEnvOverride(t *testing.T) {
	appEnvs := map[string]any{"staging": map[string]any{"NODE_ENV": "staging", "API_URL": "https://x"}}
	table := BuildReplacements(Mode{BuildApp: true}, appEnvs, "staging")

	require.Len(t, table, 2)

	value, ok := table.Lookup("process.env.NODE_ENV")
	require.True(t, ok)
	require.Equal(t, "'staging'", value)

	data, err := json.Marshal(table)
	require.NoError(t, err)
	require.JSONEq(t, `{"process.env.NODE_ENV":"'staging'","process.env.API_URL":"'https://x'"}`, string(data))
}

func TestReplacements_Set(t *testing.T) {
	table := Replacements{{Key: "a", Value: "1"}, {Key: "b", Value: "2"}}

	table = table.Set("a", "3")
	require.Equal(t, Replacements{{Key: "a", Value: "3"}, {Key: "b", Value: "2"}}, table)

	table = table.Set("c", "4")
	require.Equal(t, Replacements{{Key: "a", Value: "3"}, {Key: "b", Value: "2"}, {Key: "c", Value: "4"}}, table)
}

func TestReplacements_Marshal(t *testing.T) {
	table := Replacements{
		{Key: "process.env.NODE_ENV", Value: "'production'"},
		{Key: "process.env.A", Value: "'1'"},
	}

	data, err := json.Marshal(table)
	require.NoError(t, err)
	assert.Equal(t, `{"process.env.NODE_ENV":"'production'","process.env.A":"'1'"}`, string(data))

	out, err := yaml.Marshal(table)
	require.NoError(t, err)
	assert.Equal(t, "process.env.NODE_ENV: \"'production'\"\nprocess.env.A: \"'1'\"\n", string(out))
}
