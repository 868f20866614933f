package dependency

import (
	"context"

	"golang.org/x/mod/modfile"

	"github.com/thomas-vilte/mateissue/internal/models"
	"github.com/thomas-vilte/mateissue/internal/ports"
)

var _ ports.ManifestProbe = (*GoModProbe)(nil)

type GoModProbe struct{}

func NewGoModProbe() *GoModProbe {
	return &GoModProbe{}
}

func (g *GoModProbe) Name() string {
	return "go"
}

func (g *GoModProbe) Detect(_ context.Context, root string) (*models.DependencyManifest, error) {
	const name = "go.mod"
	data, err := readManifest(root, name)
	if err != nil || data == nil {
		return nil, err
	}

	file, err := modfile.ParseLax(name, data, nil)
	if err != nil {
		return nil, parseError(name, err)
	}

	deps := make(map[string]string, len(file.Require))
	for _, req := range file.Require {
		deps[req.Mod.Path] = req.Mod.Version
	}
	return newManifest(g.Name(), name, deps), nil
}
