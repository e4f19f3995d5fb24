package preset

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

const manifestFile = "package.json"

// Manifest holds the package.json fields the builder reads.
type Manifest struct {
	Browserslist     StringList
	Dependencies     map[string]string
	PeerDependencies map[string]string
	RollupConfig     RawOptions
}

// LoadManifest reads package.json from dir. A missing or unreadable manifest yields an empty
// Manifest.
func LoadManifest(ctx context.Context, dir string) Manifest {
	var manifest Manifest

	path := filepath.Join(dir, manifestFile)
	data, err := os.ReadFile(path) //nolint:gosec
	if err != nil {
		zerolog.Ctx(ctx).Debug().Err(err).Str("path", path).Msg("No package manifest")
		return manifest
	}

	var raw RawOptions
	if err := json.Unmarshal(data, &raw); err != nil {
		zerolog.Ctx(ctx).Debug().Err(err).Str("path", path).Msg("Unparseable package manifest")
		return manifest
	}

	decodeField(ctx, raw, "browserslist", &manifest.Browserslist)
	decodeField(ctx, raw, "dependencies", &manifest.Dependencies)
	decodeField(ctx, raw, "peerDependencies", &manifest.PeerDependencies)
	decodeField(ctx, raw, "rollupConfig", &manifest.RollupConfig)

	return manifest
}
