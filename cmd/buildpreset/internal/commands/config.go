package commands

import (
	"context"
	"io"
	"os"

	"github.com/wolfeidau/buildpreset/internal/logger"
	"github.com/wolfeidau/buildpreset/internal/preset"
)

type ConfigCmd struct {
	EnvironmentFlags `embed:""`

	Output string `help:"output format" default:"json" enum:"json,yaml" short:"o"`
}

func (c *ConfigCmd) Run(ctx context.Context, globals *Globals) error {
	log := logger.Setup(globals.Debug)
	return c.run(log.WithContext(ctx), os.Stdout)
}

func (c *ConfigCmd) run(ctx context.Context, w io.Writer) error {
	raw, err := c.options()
	if err != nil {
		return err
	}

	passes, err := preset.Build(ctx, c.environment(), raw)
	if err != nil {
		return err
	}

	return encode(w, c.Output, passes)
}
