package preset

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Replacement substitutes Key with the JavaScript expression Value at build time.
type Replacement struct {
	Key   string
	Value string
}

// Replacements is an ordered replacement table.
type Replacements []Replacement

// BuildReplacements returns NODE_ENV followed by the APP_ENVS entry selected by env.
func BuildReplacements(mode Mode, appEnvs map[string]any, env string) Replacements {
	table := Replacements{{Key: "process.env.NODE_ENV", Value: quote(mode.NodeEnv())}}

	selected, ok := appEnvs[env].(map[string]any)
	if !ok {
		return table
	}

	keys := make([]string, 0, len(selected))
	for k := range selected {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, k := range keys {
		table = table.Set("process.env."+k, quote(jsString(selected[k])))
	}
	return table
}

// Set overwrites the value of key in place, or appends a new entry.
func (r Replacements) Set(key, value string) Replacements {
	for i := range r {
		if r[i].Key == key {
			r[i].Value = value
			return r
		}
	}
	return append(r, Replacement{Key: key, Value: value})
}

// Lookup returns the value for key.
func (r Replacements) Lookup(key string) (string, bool) {
	for _, rep := range r {
		if rep.Key == key {
			return rep.Value, true
		}
	}
	return "", false
}

func (r Replacements) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, rep := range r {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(rep.Key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(rep.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (r Replacements) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, rep := range r {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: rep.Key},
			&yaml.Node{Kind: yaml.ScalarNode, Value: rep.Value, Style: yaml.DoubleQuotedStyle},
		)
	}
	return node, nil
}

func quote(s string) string {
	return "'" + s + "'"
}

// jsString renders v the way JavaScript string interpolation would.
func jsString(v any) string {
	switch v := v.(type) {
	case nil:
		return "null"
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case map[string]any:
		return "[object Object]"
	case []any:
		parts := make([]string, len(v))
		for i, e := range v {
			if e != nil {
				parts[i] = jsString(e)
			}
		}
		return strings.Join(parts, ",")
	default:
		return fmt.Sprint(v)
	}
}
