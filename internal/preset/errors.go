package preset

import "errors"

var (
	// ErrNoPreset is returned when neither the environment nor the options select a preset.
	ErrNoPreset = errors.New("you must pass a preset: build_app, dev, lib")
	// ErrNoPostProcess is returned by BuildWith when called without a post-process function.
	ErrNoPostProcess = errors.New("post-process function is required")
)
