package models

import "time"

// ModelInfo describes the model behind a backend.
type ModelInfo struct {
	Provider string            `json:"provider"`
	Model    string            `json:"model"`
	Local    bool              `json:"local"`
	Details  map[string]string `json:"details,omitempty"`
}

// Attempt is the router's record of trying one backend. Tries counts the
// retries spent on it.
type Attempt struct {
	Provider  string        `json:"provider"`
	Model     string        `json:"model"`
	Tries     int           `json:"tries"`
	Latency   time.Duration `json:"latency"`
	Succeeded bool          `json:"succeeded"`
	Reason    string        `json:"reason,omitempty"`
	Err       error         `json:"-"`
}

// LLMResponse is produced once per successful router call.
type LLMResponse struct {
	Text     string        `json:"text"`
	Provider string        `json:"provider"`
	Model    string        `json:"model"`
	Latency  time.Duration `json:"latency"`
	Valid    bool          `json:"valid"`
	Usage    *TokenUsage   `json:"usage,omitempty"`
	Attempts []Attempt     `json:"attempts"`
}
