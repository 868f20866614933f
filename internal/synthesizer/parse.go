package synthesizer

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/thomas-vilte/mateissue/internal/models"
	"github.com/thomas-vilte/mateissue/internal/regex"
)

// stringList accepts either a JSON array of strings or one comma separated string.
type stringList []string

func (s *stringList) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*s = list
		return nil
	}
	var single string
	if err := json.Unmarshal(data, &single); err != nil {
		return err
	}
	*s = splitList(single)
	return nil
}

type rawDraft struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Body        string     `json:"body"`
	Labels      stringList `json:"labels"`
	Assignees   stringList `json:"assignees"`
}

func (r rawDraft) draft() models.IssueDraft {
	desc := r.Description
	if strings.TrimSpace(desc) == "" {
		desc = r.Body
	}
	return models.IssueDraft{
		Title:       cleanTitle(r.Title),
		Description: strings.TrimSpace(desc),
		Labels:      []string(r.Labels),
		Assignees:   []string(r.Assignees),
	}
}

type wrapper struct {
	Issues []rawDraft `json:"issues"`
	Drafts []rawDraft `json:"drafts"`
}

// Parse extracts candidate drafts from model output: JSON first, then a
// line-oriented reading of markdown or plain text. Candidates are not yet
// filtered or capped.
func Parse(output string) []models.IssueDraft {
	if drafts, ok := parseJSON(output); ok {
		return drafts
	}
	return parseLines(output)
}

func parseJSON(output string) ([]models.IssueDraft, bool) {
	for _, candidate := range jsonCandidates(output) {
		if drafts, ok := decodeDrafts(candidate); ok {
			return drafts, true
		}
	}
	return nil, false
}

// jsonCandidates lists the fenced blocks, the whole text, and the widest
// bracketed span, in that order.
func jsonCandidates(output string) []string {
	var out []string
	for _, m := range regex.MarkdownJSONBlock.FindAllStringSubmatch(output, -1) {
		out = append(out, strings.TrimSpace(m[1]))
	}
	trimmed := strings.TrimSpace(output)
	out = append(out, trimmed)
	for _, pair := range [][2]string{{"[", "]"}, {"{", "}"}} {
		start := strings.Index(trimmed, pair[0])
		end := strings.LastIndex(trimmed, pair[1])
		if start >= 0 && end > start {
			out = append(out, trimmed[start:end+1])
		}
	}
	return out
}

func decodeDrafts(text string) ([]models.IssueDraft, bool) {
	if text == "" {
		return nil, false
	}

	switch text[0] {
	case '[':
		var list []rawDraft
		if err := json.Unmarshal([]byte(text), &list); err != nil {
			return nil, false
		}
		return convert(list), true
	case '{':
		var w wrapper
		if err := json.Unmarshal([]byte(text), &w); err == nil && (w.Issues != nil || w.Drafts != nil) {
			return convert(append(w.Issues, w.Drafts...)), true
		}
		var single rawDraft
		if err := json.Unmarshal([]byte(text), &single); err == nil && single.Title != "" {
			return convert([]rawDraft{single}), true
		}
	}
	return nil, false
}

func convert(list []rawDraft) []models.IssueDraft {
	out := make([]models.IssueDraft, 0, len(list))
	for _, r := range list {
		out = append(out, r.draft())
	}
	return out
}

// parseLines reads headings and "Title:" lines as the start of a draft, or
// numbered items when the text has neither. "Labels:" lines set the labels
// of the current draft and everything else is its body.
func parseLines(output string) []models.IssueDraft {
	lines := strings.Split(output, "\n")
	markers := []*regexp.Regexp{regex.TitleLine, regex.MarkdownTitle}
	if !anyMatch(lines, markers) {
		markers = []*regexp.Regexp{regex.NumberedList}
	}

	var drafts []models.IssueDraft
	var current *models.IssueDraft
	var body []string

	flush := func() {
		if current != nil {
			current.Description = strings.TrimSpace(strings.Join(body, "\n"))
			drafts = append(drafts, *current)
		}
		current = nil
		body = nil
	}

	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			continue
		}
		if title, ok := titleOf(line, markers); ok {
			flush()
			current = &models.IssueDraft{Title: title}
			continue
		}
		if current == nil {
			continue
		}
		if m := regex.LabelsLine.FindStringSubmatch(line); m != nil {
			current.Labels = append(current.Labels, splitList(m[1])...)
			continue
		}
		body = append(body, strings.TrimRight(stripDescriptionPrefix(line), " \t"))
	}
	flush()
	return drafts
}

func anyMatch(lines []string, patterns []*regexp.Regexp) bool {
	for _, line := range lines {
		for _, re := range patterns {
			if re.MatchString(line) {
				return true
			}
		}
	}
	return false
}

func titleOf(line string, patterns []*regexp.Regexp) (string, bool) {
	for _, re := range patterns {
		if m := re.FindStringSubmatch(line); m != nil {
			if title := cleanTitle(m[1]); title != "" {
				return title, true
			}
		}
	}
	return "", false
}

func stripDescriptionPrefix(line string) string {
	trimmed := strings.TrimSpace(line)
	lower := strings.ToLower(trimmed)
	for _, p := range []string{"**description:**", "**description**:", "description:"} {
		if strings.HasPrefix(lower, p) {
			return strings.TrimSpace(trimmed[len(p):])
		}
	}
	return line
}

func cleanTitle(title string) string {
	title = strings.TrimSpace(title)
	title = regex.IssuePrefix.ReplaceAllString(title, "")
	title = strings.Trim(title, "*_` ")
	return strings.TrimSpace(title)
}

func splitList(s string) []string {
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ';' })
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.Trim(strings.TrimSpace(p), "`*[]\"'")
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
