package prompts

// Built-in template names.
const (
	RepositorySummary = "repository_summary"
	IssueCandidates   = "issue_candidates"
	IssueDrafts       = "issue_drafts"
)

// Template types.
const (
	TypeSummary   = "summary"
	TypeIdeation  = "ideation"
	TypeFormatter = "formatter"
)

const repositorySummaryTemplate = `You are a senior engineer reviewing the recent activity of the repository "{repo_name}".

Analyzed commits: {commit_count}
Recent commits:
{commits}

New files:
{new_files}

Modified files:
{modified_files}

Deleted files:
{deleted_files}

Renamed files:
{renamed_files}

Most frequently changed files:
{hotspots}

Contributors:
{contributors}

Dependency manifests:
{dependencies}

Summarize in no more than 10 bullet points what changed, which areas look risky and what seems unfinished (missing tests, missing documentation, code that keeps changing).`

const repositorySummaryCompact = `Repository: {repo_name} ({commit_count} commits analyzed)
Commits:
{commits}
New files: {new_files}
Modified files: {modified_files}
Hotspots: {hotspots}

List the 5 most important observations about this activity as short bullet points.`

const issueCandidatesTemplate = `Here is a summary of the recent activity of the repository "{repo_name}":

{previous_output}

Propose up to {max_issues} concrete and actionable GitHub issues (bugs, missing tests, missing documentation, refactors). For each issue give a short imperative title and two or three sentences describing the problem and the expected outcome. Do not invent files that are not mentioned above.`

const issueCandidatesCompact = `Summary:
{previous_output}

Write up to {max_issues} issues. Use one numbered line per issue title followed by a short description.`

const issueDraftsTemplate = `Convert the following issue proposals into JSON.

{previous_output}

Respond ONLY with a JSON array and nothing else. Each element must have these fields:
- "title": short imperative title
- "description": markdown body with at least {min_description_length} characters
- "labels": array of lowercase labels (for example "bug", "documentation", "testing", "refactor")

Return at most {max_issues} elements.
Example: [{"title": "Add tests for the parser", "description": "The parser has no tests...", "labels": ["testing"]}]`

const issueDraftsCompact = `Rewrite these issues as a JSON array of objects with "title", "description" and "labels". At most {max_issues} items, descriptions of at least {min_description_length} characters. Output JSON only.

{previous_output}`

const issueDraftsPlain = `Rewrite these issues using exactly this format for each one:
Title: <title>
<description of at least {min_description_length} characters>
Labels: <comma separated labels>

{previous_output}`

// DefaultLibrary returns a library with the built-in templates used by the
// default issue generation pipeline.
func DefaultLibrary() *Library {
	l := NewLibrary()
	for _, t := range builtins() {
		l.Override(t)
	}
	return l
}

func builtins() []*Template {
	return []*Template{
		MustTemplate(RepositorySummary, TypeSummary, repositorySummaryTemplate, map[string]string{
			"ollama":      repositorySummaryCompact,
			"huggingface": repositorySummaryCompact,
		}),
		MustTemplate(IssueCandidates, TypeIdeation, issueCandidatesTemplate, map[string]string{
			"ollama":      issueCandidatesCompact,
			"huggingface": issueCandidatesCompact,
		}),
		MustTemplate(IssueDrafts, TypeFormatter, issueDraftsTemplate, map[string]string{
			"ollama":      issueDraftsCompact,
			"huggingface": issueDraftsPlain,
		}),
	}
}
