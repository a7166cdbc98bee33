package tracing

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"metrosmoke/pkg/config"
	"metrosmoke/pkg/reporter"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewTracerProviderDisabled(t *testing.T) {
	tp, shutdown, err := NewTracerProvider(config.TracingConfig{}, quietLogger())
	require.NoError(t, err)

	_, span := tp.Tracer(InstrumentationName).Start(context.Background(), "noop")
	assert.False(t, span.SpanContext().IsValid())
	span.End()
	assert.NoError(t, shutdown(context.Background()))
}

func TestNewTracerProviderEnabled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	tp, shutdown, err := NewTracerProvider(config.TracingConfig{
		Endpoint:     server.URL,
		ServiceName:  "metrosmoke-test",
		Insecure:     true,
		Timeout:      time.Second,
		SamplingRate: 1.0,
	}, quietLogger())
	require.NoError(t, err)

	_, span := tp.Tracer(InstrumentationName).Start(context.Background(), "run booking")
	assert.True(t, span.SpanContext().IsValid())
	span.End()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	assert.NoError(t, shutdown(ctx))
}

func attrs(span sdktrace.ReadOnlySpan) map[attribute.Key]attribute.Value {
	out := make(map[attribute.Key]attribute.Value)
	for _, kv := range span.Attributes() {
		out[kv.Key] = kv.Value
	}
	return out
}

func TestRunAndCheckSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	tracer := tp.Tracer(InstrumentationName)

	ctx, run := StartRun(context.Background(), tracer, "booking", "run-1")

	_, login := StartCheck(ctx, tracer, "login")
	EndCheck(login, reporter.CheckResult{Name: "login", Status: reporter.StatusPassed, StatusCode: 200})

	_, payment := StartCheck(ctx, tracer, "create_payment_intent")
	EndCheck(payment, reporter.CheckResult{
		Name:       "create_payment_intent",
		Status:     reporter.StatusFailed,
		Detail:     "expected error code INVALID_AMOUNT, got none",
		StatusCode: 200,
	})

	EndRun(run, reporter.Summary{Total: 2, Passed: 1, Failed: 1})

	spans := recorder.Ended()
	require.Len(t, spans, 3)

	assert.Equal(t, "check login", spans[0].Name())
	assert.Equal(t, "passed", attrs(spans[0])[AttrStatus].AsString())
	assert.Equal(t, int64(200), attrs(spans[0])[AttrStatusCode].AsInt64())
	assert.Equal(t, spans[2].SpanContext().TraceID(), spans[0].SpanContext().TraceID())

	assert.Equal(t, codes.Error, spans[1].Status().Code)
	assert.Contains(t, spans[1].Status().Description, "INVALID_AMOUNT")

	assert.Equal(t, "run booking", spans[2].Name())
	assert.Equal(t, "run-1", attrs(spans[2])[AttrRunID].AsString())
	assert.Equal(t, int64(1), attrs(spans[2])[AttrFailed].AsInt64())
	assert.Equal(t, codes.Error, spans[2].Status().Code)
}

func TestSkippedCheckSpanHasNoStatusCode(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tracer := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)).Tracer(InstrumentationName)

	_, span := StartCheck(context.Background(), tracer, "stations")
	EndCheck(span, reporter.CheckResult{Name: "stations", Status: reporter.StatusSkipped, Detail: "missing prerequisite: token"})

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	_, ok := attrs(spans[0])[AttrStatusCode]
	assert.False(t, ok)
	assert.Equal(t, codes.Unset, spans[0].Status().Code)
}
