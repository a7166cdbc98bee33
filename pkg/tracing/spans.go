package tracing

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"metrosmoke/pkg/reporter"
)

// Span attribute keys
const (
	AttrSuite      = attribute.Key("metrosmoke.suite")
	AttrRunID      = attribute.Key("metrosmoke.run_id")
	AttrCheck      = attribute.Key("metrosmoke.check")
	AttrStatus     = attribute.Key("metrosmoke.status")
	AttrStatusCode = attribute.Key("http.response.status_code")
	AttrPassed     = attribute.Key("metrosmoke.passed")
	AttrFailed     = attribute.Key("metrosmoke.failed")
	AttrSkipped    = attribute.Key("metrosmoke.skipped")
)

// StartRun opens the root span of a suite run
func StartRun(ctx context.Context, tracer trace.Tracer, suiteName, runID string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "run "+suiteName,
		trace.WithAttributes(AttrSuite.String(suiteName), AttrRunID.String(runID)))
}

// EndRun records the summary on the run span and ends it
func EndRun(span trace.Span, summary reporter.Summary) {
	span.SetAttributes(
		AttrPassed.Int(summary.Passed),
		AttrFailed.Int(summary.Failed),
		AttrSkipped.Int(summary.Skipped),
	)
	if summary.Failed > 0 {
		span.SetStatus(codes.Error, "checks failed")
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// StartCheck opens a child span for one check
func StartCheck(ctx context.Context, tracer trace.Tracer, checkName string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "check "+checkName,
		trace.WithAttributes(AttrCheck.String(checkName)))
}

// EndCheck records the result on the check span and ends it.
// The detail is expected to be scrubbed already.
func EndCheck(span trace.Span, result reporter.CheckResult) {
	span.SetAttributes(AttrStatus.String(string(result.Status)))
	if result.StatusCode > 0 {
		span.SetAttributes(AttrStatusCode.Int(result.StatusCode))
	}
	if result.Status == reporter.StatusFailed {
		span.SetStatus(codes.Error, result.Detail)
	}
	span.End()
}
