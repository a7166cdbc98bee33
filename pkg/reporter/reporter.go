// Package reporter provides functions for formatting and outputting run reports.
// This file specifically implements the Writer interface and its colored text
// and JSON implementations.
package reporter

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
)

// Supported report formats
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Writer formats a RunReport onto w
type Writer interface {
	Write(w io.Writer, report *RunReport) error
}

// NewWriter returns the Writer for format; unknown formats fall back to text
func NewWriter(format string) Writer {
	switch strings.ToLower(format) {
	case FormatJSON:
		return JSONWriter{}
	default:
		return TextWriter{}
	}
}

// ValidFormat reports whether format names a writer
func ValidFormat(format string) bool {
	switch strings.ToLower(format) {
	case FormatText, FormatJSON:
		return true
	}
	return false
}

// JSONWriter writes the report as indented JSON with its summary
type JSONWriter struct{}

type jsonReport struct {
	*RunReport
	DurationMs float64 `json:"duration_ms"`
	Summary    Summary `json:"summary"`
}

// Write implements Writer
func (JSONWriter) Write(w io.Writer, report *RunReport) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if report == nil {
		return encoder.Encode(report)
	}
	return encoder.Encode(jsonReport{
		RunReport:  report,
		DurationMs: float64(report.Duration().Microseconds()) / 1000.0,
		Summary:    report.Summary(),
	})
}

// TextWriter writes a colored human-readable report
type TextWriter struct{}

// Write implements Writer
func (TextWriter) Write(w io.Writer, report *RunReport) error {
	PrintResult(report, w)
	return nil
}

// PrintResult formats and prints the run report to the provided writer.
func PrintResult(report *RunReport, w io.Writer) {
	if report == nil {
		fmt.Fprintln(w, "No result available.")
		return
	}

	// Create colored output helpers
	success := color.New(color.FgGreen).SprintFunc()
	failure := color.New(color.FgRed).SprintFunc()
	highlight := color.New(color.FgCyan).SprintFunc()
	warning := color.New(color.FgYellow).SprintFunc()

	// Print header
	fmt.Fprintf(w, "\n%s\n", strings.Repeat("=", 80))
	fmt.Fprintf(w, "Smoke Test Run: %s (%s)\n", highlight(report.Suite), report.RunID)
	if report.BaseURL != "" {
		fmt.Fprintf(w, "Target: %s\n", report.BaseURL)
	}
	fmt.Fprintf(w, "%s\n\n", strings.Repeat("-", 80))

	for i, res := range report.Results {
		var mark string
		switch res.Status {
		case StatusPassed:
			mark = success("✓ PASS")
		case StatusFailed:
			mark = failure("✗ FAIL")
		default:
			mark = warning("- SKIP")
		}

		name := truncateName(fmt.Sprintf("%d. %s", i+1, res.Name), 60)

		timing := ""
		if res.Status != StatusSkipped {
			timing = fmt.Sprintf(" (%s)", time.Duration(res.DurationMs*float64(time.Millisecond)).Round(time.Millisecond))
		}
		fmt.Fprintf(w, "%s  %s%s\n", mark, name, timing)

		if res.Detail != "" {
			detail := res.Detail
			if res.Status == StatusFailed {
				detail = failure(detail)
			}
			fmt.Fprintf(w, "        %s\n", detail)
		}
	}

	s := report.Summary()
	overall := success("SUCCESS")
	if s.Failed > 0 {
		overall = failure("FAILURE")
	}

	fmt.Fprintf(w, "\n%s\n", strings.Repeat("-", 80))
	fmt.Fprintf(w, "Overall Status: %s\n", overall)
	fmt.Fprintf(w, "Total: %d  Passed: %s  Failed: %s  Skipped: %s\n",
		s.Total,
		success(s.Passed),
		failure(s.Failed),
		warning(s.Skipped),
	)
	fmt.Fprintf(w, "Success Rate: %.1f%%\n", s.SuccessRate)
	fmt.Fprintf(w, "Execution Time: %s\n", report.Duration().Round(time.Millisecond))
	fmt.Fprintf(w, "%s\n", strings.Repeat("=", 80))
}

// truncateName shortens s to at most max runes
func truncateName(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
