package syncer

import (
	"encoding/json"
	"time"
)

// Job status values carried by the completion payload. Anything other
// than "running" is treated as terminal: the payload is then exhaustive
// over the process's consult set.
const (
	JobRunning = "running"
	JobDone    = "done"
)

// OutcomeSuccess is the per-page outcome marker for a successful
// consultation; any other marker counts as a failure.
const OutcomeSuccess = "success"

// PageResult is one page outcome inside a completion payload.
type PageResult struct {
	Outcome   string          `json:"outcome"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Error     string          `json:"error,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// Succeeded reports whether the outcome marker signals success.
func (r PageResult) Succeeded() bool {
	return r.Outcome == OutcomeSuccess
}

// JobResult is the completion payload delivered by the external runner
// (or a simulated stand-in), keyed by page code.
type JobResult struct {
	Status     string                `json:"status"`
	ReportPath string                `json:"report_path,omitempty"`
	Data       map[string]PageResult `json:"data"`
}

// Done reports whether the payload signals job completion.
func (r JobResult) Done() bool {
	return r.Status != JobRunning
}

// SimulatedResult builds a uniform "done" payload covering the given
// page codes, useful for manual reconciliation testing without a live
// runner.
func SimulatedResult(codes []string, succeed bool) JobResult {
	data := make(map[string]PageResult, len(codes))
	for _, code := range codes {
		if succeed {
			data[code] = PageResult{
				Outcome:   OutcomeSuccess,
				Payload:   json.RawMessage(`{"simulated":true}`),
				Timestamp: time.Now(),
			}
		} else {
			data[code] = PageResult{
				Outcome:   "error",
				Error:     "simulated failure",
				Timestamp: time.Now(),
			}
		}
	}
	return JobResult{Status: JobDone, Data: data}
}
