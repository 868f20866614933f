package models

// Labels attached by heuristic synthesis.
const (
	LabelDocumentation = "documentation"
	LabelCodeReview    = "code-review"
	LabelTesting       = "testing"
)

// IssueDraft is a proposed issue ready to be handed to an issue tracker.
// Drafts are only built by the synthesizer package.
type IssueDraft struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Labels      []string `json:"labels"`
	Assignees   []string `json:"assignees"`
}

// HasLabel reports whether the draft carries label.
func (d IssueDraft) HasLabel(label string) bool {
	for _, l := range d.Labels {
		if l == label {
			return true
		}
	}
	return false
}

// Issue is an issue created on the remote tracker.
type Issue struct {
	Number int      `json:"number"`
	Title  string   `json:"title"`
	URL    string   `json:"url"`
	Labels []string `json:"labels"`
}

// PublishResult reports what happened to one draft during publishing.
type PublishResult struct {
	Draft  IssueDraft `json:"draft"`
	Issue  *Issue     `json:"issue,omitempty"`
	DryRun bool       `json:"dry_run"`
	Error  string     `json:"error,omitempty"`
	Err    error      `json:"-"`
}

// GenerationReport is everything one issue generation run produced.
type GenerationReport struct {
	Analysis       *RepositoryAnalysis `json:"analysis"`
	Pipeline       *PipelineResult     `json:"pipeline,omitempty"`
	Drafts         []IssueDraft        `json:"drafts"`
	UsedFallback   bool                `json:"used_fallback"`
	FallbackReason string              `json:"fallback_reason,omitempty"`
}
