package runner

import (
	"context"
	"fmt"
	"time"

	execContext "metrosmoke/pkg/context"
	"metrosmoke/pkg/credentials"
	"metrosmoke/pkg/reporter"
	"metrosmoke/pkg/suite"
	"metrosmoke/pkg/tracing"
)

// DetailCancelled is the detail of checks skipped after the run was cancelled
const DetailCancelled = "run cancelled"

// run holds the state of one suite run
type run struct {
	*Runner
	suiteName string
	report    *reporter.RunReport
	vars      *execContext.ExecutionContext
	secrets   []string
}

// Run executes every check of s in order and returns the report. It never
// returns early: failures are recorded and the next check runs. Once ctx is
// cancelled the remaining checks are recorded as skipped.
func (r *Runner) Run(ctx context.Context, s *suite.Suite) *reporter.RunReport {
	report := reporter.NewRunReport(s.Name, r.opts.BaseURL)
	vars, envSecrets := r.seed(s)

	st := &run{
		Runner:    r,
		suiteName: s.Name,
		report:    report,
		vars:      vars,
		secrets:   append(r.opts.Credentials.Secrets(), envSecrets...),
	}

	ctx, span := tracing.StartRun(ctx, r.opts.Tracer, s.Name, report.RunID)
	r.opts.Logger.Info("Starting suite run",
		"suite", s.Name,
		"run_id", report.RunID,
		"checks", len(s.Checks),
		"base_url", r.opts.BaseURL)

	for i := range s.Checks {
		check := &s.Checks[i]
		if check.ForEach != "" {
			st.runGroup(ctx, check)
			continue
		}
		st.record(st.runCheck(ctx, check, check.Name))
	}

	report.Finish()
	summary := report.Summary()
	r.opts.Metrics.RecordRun(s.Name, summary, report.Duration())
	tracing.EndRun(span, summary)

	r.opts.Logger.Info("Suite run completed",
		"suite", s.Name,
		"run_id", report.RunID,
		"passed", summary.Passed,
		"failed", summary.Failed,
		"skipped", summary.Skipped,
		"duration", report.Duration().String())

	return report
}

func skipped(name, detail string) reporter.CheckResult {
	return reporter.CheckResult{Name: name, Status: reporter.StatusSkipped, Detail: detail}
}

// missingPrerequisite returns the first key of requires that has no usable value
func (st *run) missingPrerequisite(requires []string) (string, bool) {
	for _, key := range requires {
		if !st.vars.Has(key) {
			return key, true
		}
	}
	return "", false
}

// runCheck applies the skip policy, then executes the check under its own span
func (st *run) runCheck(ctx context.Context, check *suite.Check, name string) reporter.CheckResult {
	if ctx.Err() != nil {
		return skipped(name, DetailCancelled)
	}
	if key, missing := st.missingPrerequisite(check.Requires); missing {
		return skipped(name, "missing prerequisite: "+key)
	}

	ctx, span := tracing.StartCheck(ctx, st.opts.Tracer, name)
	start := time.Now()
	result := st.execute(ctx, check, name)
	if result.Status != reporter.StatusSkipped {
		result.DurationMs = float64(time.Since(start).Microseconds()) / 1000.0
	}
	result.Detail = credentials.Scrub(result.Detail, st.secrets)
	tracing.EndCheck(span, result)
	return result
}

// execute runs the action, evaluates the expectation and captures values.
// Errors and panics become failed results.
func (st *run) execute(ctx context.Context, check *suite.Check, name string) (result reporter.CheckResult) {
	result = reporter.CheckResult{Name: name}

	defer func() {
		if p := recover(); p != nil {
			st.opts.Logger.Error("Check panicked", "check", name, "panic", p)
			result.Status = reporter.StatusFailed
			result.Detail = fmt.Sprintf("panic: %v", p)
		}
	}()

	resp, err := st.opts.Actions.Execute(ctx, st.env, st.vars, check)
	if err != nil {
		if ctx.Err() != nil {
			result.Status = reporter.StatusSkipped
			result.Detail = DetailCancelled
			return result
		}
		result.Status = reporter.StatusFailed
		result.Detail = err.Error()
		return result
	}

	// Actions without a response, like wait, pass when they complete
	if resp == nil {
		result.Status = reporter.StatusPassed
		return result
	}
	result.StatusCode = resp.StatusCode

	outcome := st.opts.Checks.Evaluate(st.vars, check.Expect, resp)
	if !outcome.Pass {
		result.Status = reporter.StatusFailed
		result.Detail = outcome.Detail
		return result
	}

	saved := st.snapshot(check.Extract)
	for i := range check.Extract {
		if _, _, err := st.opts.Extractors.Execute(st.vars, &check.Extract[i], resp); err != nil {
			saved.restore(st.vars)
			result.Status = reporter.StatusFailed
			result.Detail = fmt.Sprintf("extraction failed: %v", err)
			return result
		}
	}

	result.Status = reporter.StatusPassed
	result.Detail = st.note(check)
	return result
}

// note renders the check's note for a passed result. An unresolved note is dropped.
func (st *run) note(check *suite.Check) string {
	if check.Note == "" {
		return ""
	}
	text, err := st.vars.Substitute(check.Note)
	if err != nil {
		st.opts.Logger.Debug("Note left unrendered", "check", check.Name, "error", err)
		return ""
	}
	return text
}

// targetSnapshot holds the values extraction targets had before a check ran
type targetSnapshot map[string]interface{}

// absent marks a target that held no value
type absent struct{}

// snapshot records the current value of every extraction target
func (st *run) snapshot(extracts []suite.Extract) targetSnapshot {
	saved := make(targetSnapshot, len(extracts))
	for _, ex := range extracts {
		if value, err := st.vars.ResolveVariable(ex.Target); err == nil {
			saved[ex.Target] = value
		} else {
			saved[ex.Target] = absent{}
		}
	}
	return saved
}

// restore puts every target back to its recorded value, so a check whose
// extraction failed leaves nothing behind for its dependents
func (saved targetSnapshot) restore(vars *execContext.ExecutionContext) {
	for target, value := range saved {
		if _, ok := value.(absent); ok {
			vars.Unset(target)
			continue
		}
		_ = vars.SetVariable(target, value)
	}
}

// record appends a result and reports it to logs and metrics
func (st *run) record(result reporter.CheckResult) {
	st.report.Add(result)
	st.opts.Metrics.RecordCheck(st.suiteName, result.Name, result.Status,
		time.Duration(result.DurationMs*float64(time.Millisecond)))

	logger := st.opts.Logger.With("suite", st.suiteName, "check", result.Name)
	switch result.Status {
	case reporter.StatusPassed:
		logger.Info("Check passed", "status_code", result.StatusCode, "duration_ms", result.DurationMs)
	case reporter.StatusFailed:
		logger.Warn("Check failed", "status_code", result.StatusCode, "detail", result.Detail)
	default:
		logger.Info("Check skipped", "reason", result.Detail)
	}
}
