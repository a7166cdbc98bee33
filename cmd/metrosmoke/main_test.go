package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"metrosmoke/pkg/fakebackend"
	"metrosmoke/pkg/reporter"
)

func setupEnv(t *testing.T, baseURL string) {
	t.Helper()
	t.Setenv("METRO_BASE_URL", baseURL)
	t.Setenv("METRO_ANON_KEY", "anon-cli-key")
	t.Setenv("METRO_SERVICE_KEY", "service-cli-key")
	t.Setenv("METRO_LOG_LEVEL", "error")
	t.Setenv("METRO_REPORT_FORMAT", "text")
	t.Setenv("METRO_PUSHGATEWAY_URL", "")
	t.Setenv("METRO_OTLP_ENDPOINT", "")
	t.Setenv("SUPABASE_ANON_KEY", "")
	t.Setenv("SUPABASE_SERVICE_ROLE_KEY", "")
	t.Setenv("METRO_TEST_PASSWORD", "cli-password")
}

func startBackend(t *testing.T, overrides map[string]fakebackend.Response) string {
	t.Helper()
	fb := fakebackend.New(fakebackend.Options{
		AnonKey:    "anon-cli-key",
		ServiceKey: "service-cli-key",
		Users:      []fakebackend.User{{Email: "demo@metromar.com", Password: "cli-password"}},
		Overrides:  overrides,
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	ts := httptest.NewServer(fb.Handler())
	t.Cleanup(ts.Close)
	return ts.URL
}

func TestList(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-list"}, &stdout, &stderr)
	assert.Equal(t, reporter.ExitOK, code)
	assert.Equal(t, "auth\nbooking\nprovision\n", stdout.String())
}

func TestUsageErrors(t *testing.T) {
	setupEnv(t, "http://localhost:1")

	cases := map[string][]string{
		"unknown flag":   {"-nope"},
		"extra argument": {"booking"},
		"unknown suite":  {"-suite", "nosuch"},
		"missing file":   {"-suite", "./missing.yaml"},
		"bad format":     {"-format", "xml"},
		"bad var":        {"-var", "novalue"},
	}
	for name, args := range cases {
		t.Run(name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			assert.Equal(t, reporter.ExitUsage, run(context.Background(), args, &stdout, &stderr))
			assert.Empty(t, stdout.String())
		})
	}
}

func TestMissingBaseURL(t *testing.T) {
	setupEnv(t, "")
	var stdout, stderr bytes.Buffer
	assert.Equal(t, reporter.ExitUsage, run(context.Background(), nil, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "base URL is required")
}

func TestBookingRunJSON(t *testing.T) {
	setupEnv(t, startBackend(t, nil))

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-format", "json"}, &stdout, &stderr)
	assert.Equal(t, reporter.ExitOK, code, stdout.String())

	var decoded struct {
		Suite   string           `json:"suite"`
		Summary reporter.Summary `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &decoded))
	assert.Equal(t, "booking", decoded.Suite)
	assert.Equal(t, 6, decoded.Summary.Passed)
	assert.NotContains(t, stdout.String(), "anon-cli-key")
}

func TestFailedCheckExitsNonZero(t *testing.T) {
	setupEnv(t, startBackend(t, map[string]fakebackend.Response{
		"POST /auth/v1/token": {Status: http.StatusUnauthorized, Body: `{"message":"Invalid API key"}`},
	}))

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-base-url", "", "-log-level", "error"}, &stdout, &stderr)
	assert.Equal(t, reporter.ExitFailed, code)
	assert.Contains(t, stdout.String(), "FAIL")
}

func TestVarFlags(t *testing.T) {
	v := varFlags{}
	require.NoError(t, v.Set("accounts=[{email: a@b.c, name: A}]"))
	require.NoError(t, v.Set("count=3"))
	require.NoError(t, v.Set("label=plain text"))
	require.NoError(t, v.Set("empty="))

	accounts, ok := v["accounts"].([]interface{})
	require.True(t, ok)
	assert.Len(t, accounts, 1)
	assert.Equal(t, 3, v["count"])
	assert.Equal(t, "plain text", v["label"])
	assert.Equal(t, "", v["empty"])
	assert.Error(t, v.Set("=x"))
}
