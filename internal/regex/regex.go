package regex

import "regexp"

var (
	// Prompt templates
	Placeholder = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)\}`)

	// Line-oriented extraction of LLM output
	NumberedList  = regexp.MustCompile(`^\s*\d+[.)]\s+(.+)$`)
	MarkdownTitle = regexp.MustCompile(`^\s*#{1,6}\s+(.+)$`)
	TitleLine     = regexp.MustCompile(`(?i)^\s*(?:\*\*)?(?:issue\s+)?title(?:\*\*)?\s*:\s*(?:\*\*)?\s*(.+)$`)
	LabelsLine    = regexp.MustCompile(`(?i)^\s*(?:\*\*)?labels?(?:\*\*)?\s*:\s*(?:\*\*)?\s*(.+)$`)
	BulletPrefix  = regexp.MustCompile(`^\s*[-*+]\s+`)
	IssuePrefix   = regexp.MustCompile(`(?i)^(?:issue\s*#?\d*\s*[:.-]\s*)`)

	// Git and Repo patterns
	SSHRepo   = regexp.MustCompile(`git@([^:]+):([^/]+)/(.+?)(?:\.git)?$`)
	HTTPSRepo = regexp.MustCompile(`https://([^/]+)/([^/]+)/(.+?)(?:\.git)?$`)

	// AI and JSON parsing
	MarkdownJSONBlock = regexp.MustCompile("(?s)```(?:json)?\n?(.*?)```")

	// Dependency manifests
	RequirementLine = regexp.MustCompile(`^([A-Za-z0-9][A-Za-z0-9._-]*)(?:\[[^\]]*\])?\s*(?:(==|>=|<=|~=|!=|>|<|===)\s*([^\s;,#]+))?`)
	PEP508Name      = regexp.MustCompile(`^\s*([A-Za-z0-9][A-Za-z0-9._-]*)(?:\[[^\]]*\])?\s*(?:\(?\s*(?:==|>=|<=|~=|!=|>|<)\s*([^\s;,)]+))?`)
	GradleDep       = regexp.MustCompile(`^\s*(?:implementation|api|compileOnly|runtimeOnly|testImplementation|testRuntimeOnly|annotationProcessor|kapt|compile|testCompile)\s*\(?\s*["']([^:"']+):([^:"']+)(?::([^"']+))?["']`)
)
