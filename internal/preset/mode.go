package preset

const (
	PresetDev      = "dev"
	PresetLib      = "lib"
	PresetBuildApp = "build_app"
)

// Mode is derived from the preset selection. Exactly one field is set.
type Mode struct {
	Dev      bool
	Lib      bool
	BuildApp bool
}

// ResolveMode returns the mode of the first selector naming a known preset.
func ResolveMode(selectors ...string) (Mode, error) {
	for _, s := range selectors {
		switch s {
		case PresetDev:
			return Mode{Dev: true}, nil
		case PresetLib:
			return Mode{Lib: true}, nil
		case PresetBuildApp:
			return Mode{BuildApp: true}, nil
		}
	}
	return Mode{}, ErrNoPreset
}

// Production is true for the presets that emit optimised output.
func (m Mode) Production() bool {
	return m.Lib || m.BuildApp
}

// NodeEnv is the runtime mode marker injected into the bundle.
func (m Mode) NodeEnv() string {
	if m.Production() {
		return "production"
	}
	return "development"
}

func (m Mode) String() string {
	switch {
	case m.Dev:
		return PresetDev
	case m.Lib:
		return PresetLib
	case m.BuildApp:
		return PresetBuildApp
	}
	return ""
}
