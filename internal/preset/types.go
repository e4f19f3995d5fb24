package preset

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

var errUnsupportedValue = errors.New("unsupported value")

var jsonNull = []byte("null")

// StringList accepts either a single string or a list of strings.
type StringList []string

func (l *StringList) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, jsonNull) {
		*l = nil
		return nil
	}

	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*l = StringList{single}
		return nil
	}

	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("expected string or list of strings: %w", err)
	}
	*l = list
	return nil
}

// OptionalPath is a path that can be switched off with false, null or "".
type OptionalPath string

func (p *OptionalPath) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}

	switch v := v.(type) {
	case nil:
		*p = ""
	case string:
		*p = OptionalPath(v)
	case bool:
		if v {
			return fmt.Errorf("true is not a path: %w", errUnsupportedValue)
		}
		*p = ""
	default:
		return fmt.Errorf("expected path or false: %w", errUnsupportedValue)
	}
	return nil
}

// Externals lists extra external module names, or disables externals with "none".
type Externals struct {
	None  bool
	Names []string
}

// UnmarshalJSON only treats the string "none" as the switch. A list holding "none" names a
// module.
func (e *Externals) UnmarshalJSON(data []byte) error {
	*e = Externals{}
	if bytes.Equal(data, jsonNull) {
		return nil
	}

	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		switch name {
		case "none":
			e.None = true
		case "":
		default:
			e.Names = []string{name}
		}
		return nil
	}

	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	*e = Externals{Names: list}
	return nil
}

func (e Externals) MarshalJSON() ([]byte, error) {
	if e.None {
		return json.Marshal("none")
	}
	return json.Marshal(e.Names)
}

// Polyfills enables the polyfill loader of the HTML stage. Overrides replace individual
// polyfill switches.
type Polyfills struct {
	Enabled   bool
	Overrides map[string]any
}

func (p *Polyfills) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}

	switch v := v.(type) {
	case nil:
		*p = Polyfills{}
	case bool:
		*p = Polyfills{Enabled: v}
	case map[string]any:
		*p = Polyfills{Enabled: true, Overrides: v}
	default:
		return fmt.Errorf("expected bool or object: %w", errUnsupportedValue)
	}
	return nil
}

// StringImport selects the files imported as raw text.
type StringImport struct {
	Include StringList `json:"include,omitempty" yaml:"include,omitempty"`
	Exclude StringList `json:"exclude,omitempty" yaml:"exclude,omitempty"`
}

// StringImportOption is an optional StringImport; true enables it with engine defaults.
type StringImportOption struct {
	*StringImport
}

func (s *StringImportOption) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}

	switch v := v.(type) {
	case nil:
		s.StringImport = nil
	case bool:
		s.StringImport = nil
		if v {
			s.StringImport = &StringImport{}
		}
	case map[string]any:
		var si StringImport
		if err := json.Unmarshal(data, &si); err != nil {
			return err
		}
		s.StringImport = &si
	default:
		return fmt.Errorf("expected bool or object: %w", errUnsupportedValue)
	}
	return nil
}

// CopyFile is a copyFiles entry. A bare string copies into the output directory.
type CopyFile struct {
	Src  string `json:"src"`
	Dest string `json:"dest,omitempty"`
}

func (c *CopyFile) UnmarshalJSON(data []byte) error {
	var src string
	if err := json.Unmarshal(data, &src); err == nil {
		*c = CopyFile{Src: src}
		return nil
	}

	type plain CopyFile
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*c = CopyFile(p)
	return nil
}

// BabelOverride is a user supplied transform configuration used verbatim.
type BabelOverride json.RawMessage

// Set reports whether the override is present and truthy.
func (b BabelOverride) Set() bool {
	trimmed := bytes.TrimSpace(b)
	switch string(trimmed) {
	case "", "null", "false", "0", `""`:
		return false
	}
	return true
}

func (b *BabelOverride) UnmarshalJSON(data []byte) error {
	*b = append((*b)[:0], data...)
	return nil
}

func (b BabelOverride) MarshalJSON() ([]byte, error) {
	if len(b) == 0 {
		return jsonNull, nil
	}
	return b, nil
}
