package dependency

import (
	"context"

	"github.com/BurntSushi/toml"

	"github.com/thomas-vilte/mateissue/internal/models"
	"github.com/thomas-vilte/mateissue/internal/ports"
)

var _ ports.ManifestProbe = (*CargoProbe)(nil)

type CargoProbe struct{}

func NewCargoProbe() *CargoProbe {
	return &CargoProbe{}
}

func (c *CargoProbe) Name() string {
	return "cargo"
}

type cargoManifest struct {
	Dependencies      map[string]any `toml:"dependencies"`
	DevDependencies   map[string]any `toml:"dev-dependencies"`
	BuildDependencies map[string]any `toml:"build-dependencies"`
}

func (c *CargoProbe) Detect(_ context.Context, root string) (*models.DependencyManifest, error) {
	const name = "Cargo.toml"
	data, err := readManifest(root, name)
	if err != nil || data == nil {
		return nil, err
	}

	var manifest cargoManifest
	if _, err := toml.Decode(string(data), &manifest); err != nil {
		return nil, parseError(name, err)
	}

	deps := make(map[string]string)
	for _, group := range []map[string]any{manifest.BuildDependencies, manifest.DevDependencies, manifest.Dependencies} {
		for dep, spec := range group {
			deps[dep] = tomlVersion(spec)
		}
	}
	return newManifest(c.Name(), name, deps), nil
}
