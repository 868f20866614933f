package config

// Overrides are per-invocation settings taken from command-line flags. Nil
// pointers and empty slices leave the file value in place.
type Overrides struct {
	MaxIssues            *int
	MinDescriptionLength *int
	MaxCommits           *int
	Labels               []string
	Assignees            []string
	IgnorePatterns       []string
	DisableCache         bool
}

// WithOverrides returns a copy of c with o applied. c is left untouched.
func WithOverrides(c *Config, o Overrides) *Config {
	out := *c
	out.Analyzer.IgnorePatterns = append([]string(nil), c.Analyzer.IgnorePatterns...)
	out.Synthesis.RequiredLabels = append([]string(nil), c.Synthesis.RequiredLabels...)
	out.Synthesis.DefaultAssignees = append([]string(nil), c.Synthesis.DefaultAssignees...)
	out.LLM.Fallbacks = append([]BackendConfig(nil), c.LLM.Fallbacks...)

	if o.MaxIssues != nil {
		out.Synthesis.MaxIssues = *o.MaxIssues
	}
	if o.MinDescriptionLength != nil {
		out.Synthesis.MinDescriptionLength = *o.MinDescriptionLength
	}
	if o.MaxCommits != nil {
		out.Analyzer.MaxCommits = *o.MaxCommits
	}
	if len(o.Labels) > 0 {
		out.Synthesis.RequiredLabels = append(out.Synthesis.RequiredLabels, o.Labels...)
	}
	if len(o.Assignees) > 0 {
		out.Synthesis.DefaultAssignees = append(out.Synthesis.DefaultAssignees, o.Assignees...)
	}
	if len(o.IgnorePatterns) > 0 {
		out.Analyzer.IgnorePatterns = append(out.Analyzer.IgnorePatterns, o.IgnorePatterns...)
	}
	if o.DisableCache {
		out.Analyzer.CacheEnabled = false
	}
	return &out
}
