package dependency

import (
	"context"

	"github.com/thomas-vilte/mateissue/internal/logger"
	"github.com/thomas-vilte/mateissue/internal/models"
	"github.com/thomas-vilte/mateissue/internal/ports"
)

type Registry struct {
	probes []ports.ManifestProbe
}

func NewRegistry() *Registry {
	return &Registry{
		probes: []ports.ManifestProbe{
			NewGoModProbe(),
			NewPackageJSONProbe(),
			NewRequirementsProbe(),
			NewPyProjectProbe(),
			NewCargoProbe(),
			NewPomProbe(),
			NewGradleProbe(),
			NewTerraformProbe(),
		},
	}
}

// RegisterProbe adds a custom probe
func (r *Registry) RegisterProbe(probe ports.ManifestProbe) {
	r.probes = append(r.probes, probe)
}

// DetectAll runs every probe against root. A probe that fails is logged and
// skipped; no manifest is required to exist.
func (r *Registry) DetectAll(ctx context.Context, root string) []models.DependencyManifest {
	var manifests []models.DependencyManifest

	for _, probe := range r.probes {
		if ctx.Err() != nil {
			break
		}
		manifest, err := probe.Detect(ctx, root)
		if err != nil {
			logger.Warn(ctx, "dependency manifest skipped",
				"ecosystem", probe.Name(),
				"error", err)
			continue
		}
		if manifest == nil {
			continue
		}
		manifests = append(manifests, *manifest)
	}
	return manifests
}

// Names returns the ecosystems known to the registry, in probe order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.probes))
	for _, probe := range r.probes {
		names = append(names, probe.Name())
	}
	return names
}
