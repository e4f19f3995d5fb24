package assets

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/wolfeidau/buildpreset/internal/preset"
)

const indexHTMLName = "index.html"

// Script is a script tag rendered into the index page.
type Script struct {
	Src string
	// Module scripts are loaded by browsers with ES module support, NoModule ones by the rest.
	Module   bool
	NoModule bool
}

// Page is the data passed to an index template.
type Page struct {
	Scripts     []Script
	Stylesheets []string
	Polyfills   map[string]any
}

// Tags renders the script tags in order.
func (pg Page) Tags() template.HTML {
	var b strings.Builder
	for _, s := range pg.Scripts {
		switch {
		case s.Module:
			fmt.Fprintf(&b, `<script type="module" src="%s"></script>`, template.HTMLEscapeString(s.Src))
		case s.NoModule:
			fmt.Fprintf(&b, `<script nomodule src="%s"></script>`, template.HTMLEscapeString(s.Src))
		default:
			fmt.Fprintf(&b, `<script src="%s"></script>`, template.HTMLEscapeString(s.Src))
		}
	}
	return template.HTML(b.String()) //nolint:gosec
}

// Links renders the stylesheet links.
func (pg Page) Links() template.HTML {
	var b strings.Builder
	for _, href := range pg.Stylesheets {
		fmt.Fprintf(&b, `<link rel="stylesheet" href="%s">`, template.HTMLEscapeString(href))
	}
	return template.HTML(b.String()) //nolint:gosec
}

// WriteIndexHTML renders the index page for the pipelines that carry the index-html plugin.
// The page is written once, next to the modern pass output, and references every pass.
func WriteIndexHTML(ctx context.Context, pipelines []*Pipeline) error {
	var (
		opts    preset.IndexHTMLOptions
		root    string
		members []*Pipeline
	)
	for _, p := range pipelines {
		pl, ok := p.pass.Plugin(preset.PluginIndexHTML)
		if !ok {
			continue
		}
		o, _ := pl.Options.(preset.IndexHTMLOptions)
		if root == "" || !o.Legacy {
			opts, root = o, p.pass.Output.Dir
		}
		members = append(members, p)
	}
	if len(members) == 0 {
		return nil
	}

	page := Page{Polyfills: opts.Polyfills}
	for _, p := range members {
		entries, err := p.Entries()
		if err != nil {
			return err
		}

		for _, e := range entries {
			src, err := relativeURL(root, e.Script)
			if err != nil {
				return err
			}
			page.Scripts = append(page.Scripts, Script{
				Src:      src,
				Module:   p.pass.Output.Format == preset.FormatES,
				NoModule: opts.MultiBuild && p.pass.Legacy,
			})

			if e.Stylesheet != "" && !p.pass.Legacy {
				href, err := relativeURL(root, e.Stylesheet)
				if err != nil {
					return err
				}
				page.Stylesheets = append(page.Stylesheets, href)
			}
		}
	}

	source, err := os.ReadFile(opts.IndexHTML)
	if err != nil {
		return fmt.Errorf("failed to read index template: %w", err)
	}

	out, err := RenderHTML(string(source), page)
	if err != nil {
		return err
	}

	dest := filepath.Join(root, indexHTMLName)
	zerolog.Ctx(ctx).Debug().Str("file", dest).Int("scripts", len(page.Scripts)).Msg("Writing index page")

	if err := os.MkdirAll(root, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	return os.WriteFile(dest, out, 0o600)
}

// RenderHTML executes source as a template when it contains actions, otherwise the tags are
// injected before the closing head and body elements.
func RenderHTML(source string, page Page) ([]byte, error) {
	if strings.Contains(source, "{{") {
		tmpl, err := template.New(indexHTMLName).Funcs(templateFuncs()).Parse(source)
		if err != nil {
			return nil, fmt.Errorf("failed to parse index template: %w", err)
		}

		buf := new(bytes.Buffer)
		if err := tmpl.Execute(buf, page); err != nil {
			return nil, fmt.Errorf("failed to render index template: %w", err)
		}
		return buf.Bytes(), nil
	}

	out := inject(source, "</head>", string(page.Links()))
	out = inject(out, "</body>", string(page.Tags()))
	return []byte(out), nil
}

func inject(source, marker, tags string) string {
	if tags == "" {
		return source
	}
	if i := strings.LastIndex(strings.ToLower(source), marker); i >= 0 {
		return source[:i] + tags + source[i:]
	}
	return source + tags
}

func relativeURL(root, path string) (string, error) {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return "", err
	}
	return "./" + filepath.ToSlash(rel), nil
}
