package preset

import (
	"regexp"
	"slices"
	"strings"
)

const TargetWeb = "web"

// builtinModules are kept external for non-web targets.
var builtinModules = []string{"dns", "fs", "path", "url"}

// ExternalSet decides which imports are left to the runtime module loader. A name matches
// itself and any sub path below it.
type ExternalSet struct {
	names   []string
	pattern *regexp.Regexp
}

// ResolveExternals collects builtin modules for non-web targets and, for libraries, the
// manifest dependencies plus any explicit externals.
func ResolveExternals(target string, mode Mode, external Externals, manifest Manifest) *ExternalSet {
	var names []string
	if target != TargetWeb {
		names = append(names, builtinModules...)
	}
	if mode.Lib && !external.None {
		names = append(names, sortedKeys(manifest.PeerDependencies)...)
		names = append(names, sortedKeys(manifest.Dependencies)...)
		names = append(names, external.Names...)
	}
	return NewExternalSet(names...)
}

// NewExternalSet compiles names into a single prefix test.
func NewExternalSet(names ...string) *ExternalSet {
	set := &ExternalSet{}
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		set.names = append(set.names, n)
	}

	if len(set.names) == 0 {
		return set
	}

	quoted := make([]string, len(set.names))
	for i, n := range set.names {
		quoted[i] = regexp.QuoteMeta(n)
	}
	set.pattern = regexp.MustCompile(`^(` + strings.Join(quoted, "|") + `)($|/)`)
	return set
}

// Names returns the external module names in insertion order.
func (s *ExternalSet) Names() []string {
	if s == nil {
		return nil
	}
	return slices.Clone(s.names)
}

// Match reports whether id is external. An empty set matches nothing.
func (s *ExternalSet) Match(id string) bool {
	if s == nil || s.pattern == nil {
		return false
	}
	return s.pattern.MatchString(id)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
