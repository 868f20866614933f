package ui

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"

	domainErrors "github.com/thomas-vilte/mateissue/internal/errors"
	"github.com/thomas-vilte/mateissue/internal/i18n"
	"github.com/thomas-vilte/mateissue/internal/models"
)

var (
	// Colors for different message types
	Success = color.New(color.FgGreen, color.Bold)
	Error   = color.New(color.FgRed, color.Bold)
	Warning = color.New(color.FgYellow, color.Bold)
	Info    = color.New(color.FgCyan, color.Bold)
	Accent  = color.New(color.FgMagenta, color.Bold)
	Dim     = color.New(color.FgHiBlack)

	MateEmoji    = "🧉"
	SuccessEmoji = Success.Sprint("✅")
	WarningEmoji = Warning.Sprint("⚠️")
	InfoEmoji    = Info.Sprint("ℹ️")
	RocketEmoji  = Accent.Sprint("🚀")
	StatsEmoji   = Accent.Sprint("📊")
)

var activeSpinner *SmartSpinner

// SmartSpinner wraps a terminal spinner that writes to stderr so piped
// JSON output stays clean.
type SmartSpinner struct {
	spinner *spinner.Spinner
}

func NewSmartSpinner(initialMessage string) *SmartSpinner {
	s := spinner.New(
		spinner.CharSets[14],
		100*time.Millisecond,
		spinner.WithColor("cyan"),
		spinner.WithSuffix(" "+MateEmoji+" "+initialMessage),
		spinner.WithWriter(os.Stderr),
	)
	return &SmartSpinner{spinner: s}
}

// Start starts the spinner and registers it as the globally active spinner.
func (s *SmartSpinner) Start() {
	activeSpinner = s
	s.spinner.Start()
}

func (s *SmartSpinner) Stop() {
	s.spinner.Stop()
	if activeSpinner == s {
		activeSpinner = nil
	}
}

// StopActiveSpinner stops whatever spinner is running, if any.
func StopActiveSpinner() {
	if activeSpinner != nil {
		activeSpinner.Stop()
	}
}

func (s *SmartSpinner) UpdateMessage(msg string) {
	s.spinner.Suffix = " " + MateEmoji + " " + msg
}

func (s *SmartSpinner) Success(msg string) {
	s.Stop()
	PrintSuccess(os.Stderr, msg)
}

func (s *SmartSpinner) Error(msg string) {
	s.Stop()
	PrintError(os.Stderr, msg)
}

func PrintSuccess(w io.Writer, msg string) {
	_, _ = fmt.Fprintf(w, "%s %s\n", SuccessEmoji, Success.Sprint(msg))
}

func PrintError(w io.Writer, msg string) {
	_, _ = fmt.Fprintf(w, "%s %s\n", Error.Sprint("❌"), Error.Sprint(msg))
}

func PrintWarning(w io.Writer, msg string) {
	_, _ = fmt.Fprintf(w, "%s %s\n", WarningEmoji, Warning.Sprint(msg))
}

func PrintInfo(w io.Writer, msg string) {
	_, _ = fmt.Fprintf(w, "%s %s\n", InfoEmoji, Info.Sprint(msg))
}

func PrintSectionBanner(w io.Writer, title string) {
	separator := color.New(color.FgCyan).Sprint("━━━━━━━━━━━━━━━━━━━━━━━")
	_, _ = fmt.Fprintf(w, "\n%s\n", separator)
	_, _ = fmt.Fprintf(w, "%s %s\n", RocketEmoji, Accent.Sprint(title))
	_, _ = fmt.Fprintf(w, "%s\n\n", separator)
}

func PrintKeyValue(w io.Writer, key, value string) {
	keyColored := Dim.Sprint(key + ":")
	valueColored := color.New(color.FgWhite, color.Bold).Sprint(value)
	_, _ = fmt.Fprintf(w, "   %s %s\n", keyColored, valueColored)
}

func PrintDuration(w io.Writer, msg string, duration time.Duration) {
	durationStr := Dim.Sprintf("(%s)", duration.Round(10*time.Millisecond))
	_, _ = fmt.Fprintf(w, "%s %s %s\n", SuccessEmoji, Success.Sprint(msg), durationStr)
}

// PrintDraft renders one issue draft as a numbered card.
func PrintDraft(w io.Writer, index int, draft models.IssueDraft) {
	_, _ = fmt.Fprintf(w, "%s %s\n", Accent.Sprintf("#%d", index), color.New(color.Bold).Sprint(draft.Title))
	if len(draft.Labels) > 0 {
		_, _ = fmt.Fprintf(w, "   %s %s\n", Dim.Sprint("labels:"), Info.Sprint(strings.Join(draft.Labels, ", ")))
	}
	if len(draft.Assignees) > 0 {
		_, _ = fmt.Fprintf(w, "   %s %s\n", Dim.Sprint("assignees:"), strings.Join(draft.Assignees, ", "))
	}
	for _, line := range strings.Split(draft.Description, "\n") {
		_, _ = fmt.Fprintf(w, "   %s\n", line)
	}
	_, _ = fmt.Fprintln(w)
}

func PrintTokenUsage(w io.Writer, usage *models.TokenUsage, t *i18n.Translations) {
	if usage == nil {
		return
	}
	_, _ = fmt.Fprintf(w, "%s %s: %s %d | %s %d | %s %d\n",
		StatsEmoji,
		t.GetMessage("ui.token_usage", 0, nil),
		t.GetMessage("ui.input", 0, nil), usage.InputTokens,
		t.GetMessage("ui.output", 0, nil), usage.OutputTokens,
		t.GetMessage("ui.total", 0, nil), usage.TotalTokens)
	if usage.DurationMs > 0 {
		_, _ = fmt.Fprintf(w, "⏱️  %s: %dms\n", t.GetMessage("ui.duration", 0, nil), usage.DurationMs)
	}
}

// HandleAppError prints err in a friendly way. If translations is nil,
// English defaults are used.
func HandleAppError(w io.Writer, err error, translations ...*i18n.Translations) {
	if err == nil {
		return
	}
	StopActiveSpinner()

	var t *i18n.Translations
	if len(translations) > 0 && translations[0] != nil {
		t = translations[0]
	}

	var routerErr *domainErrors.RouterError
	if errors.As(err, &routerErr) {
		_, _ = Error.Fprintf(w, "\n❌ %s: %d backends failed\n", domainErrors.TypeProvider, len(routerErr.Failures))
		for i, f := range routerErr.Failures {
			_, _ = Dim.Fprintf(w, "   %d. %s/%s (%d tries): %v\n", i+1, f.Provider, f.Model, f.Tries, f.Err)
		}
		_, _ = fmt.Fprintln(w)
		return
	}

	var missing *domainErrors.MissingVariableError
	if errors.As(err, &missing) {
		_, _ = Error.Fprintf(w, "\n❌ %s: template %q\n", domainErrors.TypeConfiguration, missing.Template)
		_, _ = Dim.Fprintf(w, "   missing: %s\n\n", strings.Join(missing.Missing, ", "))
		return
	}

	var appErr *domainErrors.AppError
	if errors.As(err, &appErr) {
		_, _ = fmt.Fprintln(w)
		_, _ = Error.Fprintf(w, "❌ %s: %s\n", appErr.Type, appErr.Message)

		if appErr.Err != nil {
			_, _ = Dim.Fprintf(w, "   Details: %v\n", appErr.Err)
		}
		if detail, ok := appErr.Context["detail"].(string); ok && detail != "" {
			_, _ = Dim.Fprintf(w, "   %s\n", detail)
		}

		if appErr.Suggestion != "" {
			_, _ = fmt.Fprintln(w)
			tryPrefix := "💡 Try: "
			if t != nil {
				tryPrefix = t.GetMessage("ui_error.try_suggestion", 0, nil)
			}
			_, _ = color.New(color.FgCyan).Fprint(w, tryPrefix)
			for i, line := range strings.Split(appErr.Suggestion, "\n") {
				if i == 0 {
					_, _ = fmt.Fprintln(w, line)
				} else {
					_, _ = fmt.Fprintf(w, "       %s\n", line)
				}
			}
		}
		_, _ = fmt.Fprintln(w)
		return
	}

	PrintError(w, err.Error())
}

// AskConfirmation reads a yes/no answer from in.
func AskConfirmation(in io.Reader, out io.Writer, question string) bool {
	_, _ = fmt.Fprintf(out, "\n%s (y/n): ", Info.Sprint(question))
	var response string
	_, _ = fmt.Fscanln(in, &response)
	response = strings.ToLower(strings.TrimSpace(response))
	return response == "y" || response == "yes" || response == "s" || response == "si"
}

func WithSpinner(message string, fn func() error) error {
	s := NewSmartSpinner(message)
	s.Start()

	start := time.Now()
	err := fn()
	duration := time.Since(start)

	if err != nil {
		s.Stop()
		return err
	}

	s.Stop()
	PrintDuration(os.Stderr, message, duration)
	return nil
}

// FileChange is one path of an analysis with how it changed and how many
// commits touched it.
type FileChange struct {
	Path    string
	Status  string
	Commits int
}

// FileChanges flattens a change summary for tree printing.
func FileChanges(s models.FileChangeSummary) []FileChange {
	var out []FileChange
	add := func(paths []string, status string) {
		for _, p := range paths {
			out = append(out, FileChange{Path: p, Status: status, Commits: s.PerFile[p]})
		}
	}
	add(s.New, "A")
	add(s.Modified, "M")
	add(s.Deleted, "D")
	for _, r := range s.Renamed {
		out = append(out, FileChange{Path: r.To, Status: "R", Commits: s.PerFile[r.To]})
	}
	return out
}

// PrintFileTree shows changed files grouped by directory.
func PrintFileTree(w io.Writer, changes []FileChange, headerMessage string) {
	if len(changes) == 0 {
		return
	}
	_, _ = fmt.Fprintf(w, "\n%s %s\n", StatsEmoji, headerMessage)
	printTree(w, buildFileTree(changes), "", true)
}

type treeNode struct {
	name     string
	isFile   bool
	change   *FileChange
	children map[string]*treeNode
}

func buildFileTree(changes []FileChange) *treeNode {
	root := &treeNode{children: make(map[string]*treeNode)}

	for i := range changes {
		change := &changes[i]
		parts := strings.Split(change.Path, "/")
		current := root

		for j, part := range parts {
			isFile := j == len(parts)-1
			if current.children[part] == nil {
				current.children[part] = &treeNode{
					name:     part,
					isFile:   isFile,
					children: make(map[string]*treeNode),
				}
				if isFile {
					current.children[part].change = change
				}
			}
			current = current.children[part]
		}
	}
	return root
}

func printTree(w io.Writer, node *treeNode, prefix string, isLast bool) {
	if node.name != "" {
		connector := "├── "
		if isLast {
			connector = "└── "
		}

		name := node.name
		if !node.isFile {
			name = Info.Sprint(name + "/")
		}

		stats := ""
		if node.isFile && node.change != nil {
			statusColor := color.New(color.FgGreen)
			switch node.change.Status {
			case "D":
				statusColor = color.New(color.FgRed)
			case "M", "R":
				statusColor = color.New(color.FgYellow)
			}
			stats = statusColor.Sprintf(" [%s]", node.change.Status)
			if node.change.Commits > 0 {
				stats += Dim.Sprintf(" (%d)", node.change.Commits)
			}
		}

		_, _ = fmt.Fprintf(w, "%s%s%s%s\n", prefix, connector, name, stats)
	}

	childPrefix := prefix
	if node.name != "" {
		if isLast {
			childPrefix += "    "
		} else {
			childPrefix += "│   "
		}
	}

	keys := make([]string, 0, len(node.children))
	for key := range node.children {
		keys = append(keys, key)
	}
	sortFileTree(keys, node.children)

	for i, key := range keys {
		printTree(w, node.children[key], childPrefix, i == len(keys)-1)
	}
}

// sortFileTree sorts directories first, then files, each alphabetically.
func sortFileTree(keys []string, nodes map[string]*treeNode) {
	sort.Slice(keys, func(i, j int) bool {
		a, b := nodes[keys[i]], nodes[keys[j]]
		if a.isFile != b.isFile {
			return !a.isFile
		}
		return keys[i] < keys[j]
	})
}
