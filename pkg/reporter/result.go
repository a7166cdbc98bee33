// Package reporter provides the run report model and functions for formatting
// and outputting it.
package reporter

import (
	"time"

	"github.com/google/uuid"
)

// Status is the recorded outcome of one check
type Status string

const (
	StatusPassed  Status = "passed"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// Exit codes of the metrosmoke command
const (
	ExitOK     = 0
	ExitFailed = 1
	ExitUsage  = 2
)

// CheckResult is the recorded outcome of one executed or skipped check
type CheckResult struct {
	Name       string  `json:"name"`
	Status     Status  `json:"status"`
	Detail     string  `json:"detail,omitempty"`
	DurationMs float64 `json:"duration_ms"`
	StatusCode int     `json:"status_code,omitempty"`
}

// Summary aggregates the results of a run
type Summary struct {
	Total       int     `json:"total"`
	Passed      int     `json:"passed"`
	Failed      int     `json:"failed"`
	Skipped     int     `json:"skipped"`
	SuccessRate float64 `json:"success_rate"`
}

// RunReport is the ordered list of results of one suite run
type RunReport struct {
	RunID     string        `json:"run_id"`
	Suite     string        `json:"suite"`
	BaseURL   string        `json:"base_url,omitempty"`
	StartedAt time.Time     `json:"started_at"`
	EndedAt   time.Time     `json:"ended_at"`
	Results   []CheckResult `json:"results"`
}

// NewRunReport starts a report with a fresh run id
func NewRunReport(suiteName, baseURL string) *RunReport {
	return &RunReport{
		RunID:     uuid.NewString(),
		Suite:     suiteName,
		BaseURL:   baseURL,
		StartedAt: time.Now(),
		Results:   []CheckResult{},
	}
}

// Add appends a result
func (r *RunReport) Add(result CheckResult) {
	r.Results = append(r.Results, result)
}

// Finish stamps the end time
func (r *RunReport) Finish() {
	r.EndedAt = time.Now()
}

// Duration returns the wall time of the run
func (r *RunReport) Duration() time.Duration {
	if r.EndedAt.IsZero() {
		return time.Since(r.StartedAt)
	}
	return r.EndedAt.Sub(r.StartedAt)
}

// Summary counts the results. Skipped checks do not enter the success rate.
func (r *RunReport) Summary() Summary {
	var s Summary
	for _, res := range r.Results {
		switch res.Status {
		case StatusPassed:
			s.Passed++
		case StatusFailed:
			s.Failed++
		case StatusSkipped:
			s.Skipped++
		}
	}
	s.Total = s.Passed + s.Failed + s.Skipped
	s.SuccessRate = SuccessRate(s.Passed, s.Failed)
	return s
}

// SuccessRate returns passed / (passed + failed) * 100, or 0 when nothing executed
func SuccessRate(passed, failed int) float64 {
	executed := passed + failed
	if executed == 0 {
		return 0
	}
	return float64(passed) / float64(executed) * 100
}

// ExitCode returns ExitFailed when any check failed, ExitOK otherwise
func (r *RunReport) ExitCode() int {
	if r.Summary().Failed > 0 {
		return ExitFailed
	}
	return ExitOK
}
