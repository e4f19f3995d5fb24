package main

import (
	"context"

	"github.com/alecthomas/kong"
	"github.com/wolfeidau/buildpreset/cmd/buildpreset/internal/commands"
)

var (
	version = "dev"
	cli     struct {
		Config    commands.ConfigCmd    `cmd:"" help:"Print the bundler passes for the selected preset"`
		Transform commands.TransformCmd `cmd:"" help:"Print a transform configuration"`
		Build     commands.BuildCmd     `cmd:"" help:"Build the project, watching and serving it for the dev preset"`
		Debug     bool                  `help:"Enable debug mode."`
		Version   kong.VersionFlag
	}
)

func main() {
	ctx := context.Background()
	cmd := kong.Parse(&cli,
		kong.Name("buildpreset"),
		kong.Description("Assemble transform and bundler configuration from a preset."),
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))
	err := cmd.Run(&commands.Globals{Debug: cli.Debug, Version: version})
	cmd.FatalIfErrorf(err)
}
