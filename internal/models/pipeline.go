package models

import "time"

// Stage marks the structural role of a pipeline step.
type Stage string

const (
	StageInput      Stage = "INPUT"
	StageProcessing Stage = "PROCESSING"
	StageOutput     Stage = "OUTPUT"
)

// Valid reports whether s is one of the known stages.
func (s Stage) Valid() bool {
	switch s {
	case StageInput, StageProcessing, StageOutput:
		return true
	default:
		return false
	}
}

// PipelineStatus is the terminal or current state of a pipeline run.
type PipelineStatus string

const (
	PipelineNotStarted PipelineStatus = "NOT_STARTED"
	PipelineRunning    PipelineStatus = "RUNNING"
	PipelineSucceeded  PipelineStatus = "SUCCEEDED"
	PipelineFailed     PipelineStatus = "FAILED"
)

// StepStatus is the state of a single step within a run.
type StepStatus string

const (
	StepPending StepStatus = "PENDING"
	StepRunning StepStatus = "RUNNING"
	StepDone    StepStatus = "DONE"
	StepFailed  StepStatus = "FAILED"
)

// StepResult is the outcome of one step.
type StepResult struct {
	Name     string          `json:"name"`
	Stage    Stage           `json:"stage"`
	Status   StepStatus      `json:"status"`
	Prompt   *RenderedPrompt `json:"prompt,omitempty"`
	Response *LLMResponse    `json:"response,omitempty"`
	Error    string          `json:"error,omitempty"`
	Err      error           `json:"-"`
}

// PipelineResult is the outcome of one pipeline run.
type PipelineResult struct {
	RunID      string            `json:"run_id"`
	Pipe       string            `json:"pipe"`
	Status     PipelineStatus    `json:"status"`
	Steps      []StepResult      `json:"steps"`
	FailedStep string            `json:"failed_step,omitempty"`
	Output     string            `json:"output,omitempty"`
	Variables  map[string]string `json:"variables,omitempty"`
	StartedAt  time.Time         `json:"started_at"`
	FinishedAt time.Time         `json:"finished_at"`
}

// Executed returns how many steps left the PENDING state.
func (r *PipelineResult) Executed() int {
	n := 0
	for _, s := range r.Steps {
		if s.Status != StepPending {
			n++
		}
	}
	return n
}

// Usage adds up the token usage reported by every step that produced a
// response. It returns nil when no backend reported usage.
func (r *PipelineResult) Usage() *TokenUsage {
	var total *TokenUsage
	for _, s := range r.Steps {
		if s.Response == nil || s.Response.Usage == nil {
			continue
		}
		if total == nil {
			total = &TokenUsage{}
		}
		u := s.Response.Usage
		total.InputTokens += u.InputTokens
		total.OutputTokens += u.OutputTokens
		total.TotalTokens += u.TotalTokens
		total.DurationMs += s.Response.Latency.Milliseconds()
		if total.Model == "" {
			total.Model = u.Model
		}
	}
	return total
}
