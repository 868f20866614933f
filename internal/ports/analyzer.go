package ports

import (
	"context"
	"encoding/json"

	"github.com/thomas-vilte/mateissue/internal/models"
)

// RepositoryAnalyzer extracts a RepositoryAnalysis from a local checkout.
type RepositoryAnalyzer interface {
	Analyze(ctx context.Context, repoPath string) (*models.RepositoryAnalysis, error)
}

// AnalysisCache stores derived data keyed by repository fingerprint.
// A hit requires the stored commit hash to match fp.CommitHash.
type AnalysisCache interface {
	Get(fp models.Fingerprint, kind string) (json.RawMessage, bool, error)
	Set(fp models.Fingerprint, kind string, value any) error
}

// ManifestProbe detects and parses one ecosystem's dependency manifest.
type ManifestProbe interface {
	// Name returns the ecosystem handled by this probe.
	Name() string

	// Detect returns (nil, nil) when the manifest is not present under root.
	Detect(ctx context.Context, root string) (*models.DependencyManifest, error)
}
