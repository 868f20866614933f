package dependency

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/thomas-vilte/mateissue/internal/errors"
	"github.com/thomas-vilte/mateissue/internal/models"
)

// readManifest returns (nil, nil) when name does not exist under root.
func readManifest(root, name string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(root, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.NewAppError(errors.TypeAnalysis, "failed to read "+name, err)
	}
	return data, nil
}

func parseError(name string, err error) error {
	return errors.NewAppError(errors.TypeAnalysis, "failed to parse "+name, err)
}

func newManifest(ecosystem, path string, deps map[string]string) *models.DependencyManifest {
	names := make([]string, 0, len(deps))
	for name := range deps {
		names = append(names, name)
	}
	sort.Strings(names)

	manifest := &models.DependencyManifest{
		Ecosystem:    ecosystem,
		Path:         path,
		Dependencies: make([]models.Dependency, 0, len(names)),
	}
	for _, name := range names {
		manifest.Dependencies = append(manifest.Dependencies, models.Dependency{
			Name:    name,
			Version: strings.TrimSpace(deps[name]),
		})
	}
	return manifest
}
