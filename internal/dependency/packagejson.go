package dependency

import (
	"context"
	"encoding/json"

	"github.com/thomas-vilte/mateissue/internal/models"
	"github.com/thomas-vilte/mateissue/internal/ports"
)

var _ ports.ManifestProbe = (*PackageJSONProbe)(nil)

type PackageJSONProbe struct{}

func NewPackageJSONProbe() *PackageJSONProbe {
	return &PackageJSONProbe{}
}

func (p *PackageJSONProbe) Name() string {
	return "npm"
}

type packageJSON struct {
	Dependencies         map[string]string `json:"dependencies"`
	DevDependencies      map[string]string `json:"devDependencies"`
	PeerDependencies     map[string]string `json:"peerDependencies"`
	OptionalDependencies map[string]string `json:"optionalDependencies"`
}

func (p *PackageJSONProbe) Detect(_ context.Context, root string) (*models.DependencyManifest, error) {
	const name = "package.json"
	data, err := readManifest(root, name)
	if err != nil || data == nil {
		return nil, err
	}

	var pkg packageJSON
	if err := json.Unmarshal(data, &pkg); err != nil {
		return nil, parseError(name, err)
	}

	deps := make(map[string]string)
	for _, group := range []map[string]string{pkg.OptionalDependencies, pkg.PeerDependencies, pkg.DevDependencies, pkg.Dependencies} {
		for dep, version := range group {
			deps[dep] = version
		}
	}
	return newManifest(p.Name(), name, deps), nil
}
