package commands

import (
	"context"
	"io"
	"os"

	"github.com/wolfeidau/buildpreset/internal/transform"
)

type TransformCmd struct {
	Env             string   `help:"transform environment (production, test, development)" env:"BABEL_ENV"`
	NodeEnv         string   `hidden:"" env:"NODE_ENV"`
	Legacy          bool     `help:"target legacy browsers"`
	Modern          bool     `help:"target browsers with ES module support" default:"true" negatable:""`
	Target          string   `help:"output target, node pins the node baseline" default:"web"`
	Browserslist    []string `help:"browser targets for single builds"`
	CSSBrowserslist []string `help:"browser targets for CSS prefixing, defaults to --browserslist" name:"css-browserslist"`
	Pragma          string   `help:"JSX factory"`
	PragmaFrag      string   `help:"JSX fragment factory"`
	Output          string   `help:"output format" default:"json" enum:"json,yaml" short:"o"`
}

func (c *TransformCmd) Run(ctx context.Context, globals *Globals) error {
	return c.run(os.Stdout)
}

func (c *TransformCmd) run(w io.Writer) error {
	css := c.CSSBrowserslist
	if len(css) == 0 {
		css = c.Browserslist
	}

	cfg := transform.Build(transform.Options{
		Env:             transform.ResolveEnv(c.Env, c.NodeEnv),
		Legacy:          c.Legacy,
		Target:          c.Target,
		Modern:          c.Modern && !c.Legacy,
		Browserslist:    c.Browserslist,
		CSSBrowserslist: css,
		Pragma:          c.Pragma,
		PragmaFrag:      c.PragmaFrag,
	})

	return encode(w, c.Output, cfg)
}
