// Package actions provides the registry and implementation of the actions a check can run.
// This file contains the HTTP request action, the transport of every check.
package actions

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	execContext "metrosmoke/pkg/context"
	"metrosmoke/pkg/credentials"
	"metrosmoke/pkg/suite"
)

// UserAgent is sent unless a check sets its own
const UserAgent = "metrosmoke/1.0"

// maxBodyBytes caps how much of a response body is read
const maxBodyBytes = 10 << 20

// HTTPResponse represents the result of an HTTP request
type HTTPResponse struct {
	StatusCode int         `json:"status_code"`
	Headers    http.Header `json:"headers"`
	Body       string      `json:"body"`
	DurationMs float64     `json:"duration_ms"`
	URL        string      `json:"url"`

	decodeOnce sync.Once
	decoded    interface{}
	decodeErr  error
}

// JSON decodes the body once and returns the generic value
func (r *HTTPResponse) JSON() (interface{}, error) {
	r.decodeOnce.Do(func() {
		if strings.TrimSpace(r.Body) == "" {
			r.decodeErr = fmt.Errorf("response body is empty")
			return
		}
		if err := json.Unmarshal([]byte(r.Body), &r.decoded); err != nil {
			r.decodeErr = fmt.Errorf("response body is not JSON: %w", err)
		}
	})
	return r.decoded, r.decodeErr
}

// BodyExcerpt returns the body cut to at most n bytes
func (r *HTTPResponse) BodyExcerpt(n int) string {
	body := strings.TrimSpace(r.Body)
	if len(body) > n {
		return body[:n] + "..."
	}
	return body
}

// httpRequestHandler executes the HTTP request of a check
func httpRequestHandler(ctx context.Context, env *Env, vars *execContext.ExecutionContext, check *suite.Check) (*HTTPResponse, error) {
	if check.Request == nil || check.Request.URL == "" {
		return nil, fmt.Errorf("http_request action requires a URL")
	}
	if env == nil || env.Client == nil {
		return nil, fmt.Errorf("http_request action requires an HTTP client")
	}

	req, err := buildHTTPRequest(ctx, env, vars, check.Request)
	if err != nil {
		return nil, fmt.Errorf("failed to build HTTP request: %w", err)
	}

	if env.Limiter != nil {
		if err := env.Limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("request pacing: %w", err)
		}
	}

	logger := env.logger()
	logger.Debug("HTTP request",
		"check", check.Name,
		"method", req.Method,
		"url", req.URL.Redacted(),
		"headers", credentials.RedactHeaders(req.Header),
	)

	startTime := time.Now()
	resp, err := env.Client.Do(req)
	elapsedMs := float64(time.Since(startTime).Microseconds()) / 1000.0
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if len(bodyBytes) > maxBodyBytes {
		return nil, fmt.Errorf("response body exceeds %d bytes (status %d)", maxBodyBytes, resp.StatusCode)
	}

	httpResp := &HTTPResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       string(bodyBytes),
		DurationMs: elapsedMs,
		URL:        req.URL.Redacted(),
	}

	logger.Debug("HTTP response",
		"check", check.Name,
		"status_code", httpResp.StatusCode,
		"duration_ms", httpResp.DurationMs,
		"body_preview", credentials.Scrub(httpResp.BodyExcerpt(500), env.Credentials.Secrets()),
	)

	return httpResp, nil
}

// buildHTTPRequest constructs an HTTP request from a request descriptor
func buildHTTPRequest(ctx context.Context, env *Env, vars *execContext.ExecutionContext, spec *suite.Request) (*http.Request, error) {
	resolvedURL, err := vars.Substitute(spec.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve URL: %w", err)
	}

	method := http.MethodGet
	if spec.Method != "" {
		method = strings.ToUpper(spec.Method)
	}

	var body io.Reader
	isJSON := false
	switch b := spec.Body.(type) {
	case nil:
	case string:
		resolved, err := vars.Substitute(b)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve request body: %w", err)
		}
		body = strings.NewReader(resolved)
	default:
		resolved, err := vars.SubstituteValue(b)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve request body: %w", err)
		}
		data, err := json.Marshal(resolved)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(data)
		isJSON = true
	}

	req, err := http.NewRequestWithContext(ctx, method, resolvedURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}

	for key, value := range spec.Headers {
		resolvedValue, err := vars.Substitute(value)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve header '%s': %w", key, err)
		}
		req.Header.Set(key, resolvedValue)
	}

	if env.Credentials != nil {
		if err := env.Credentials.Apply(req, spec.Auth); err != nil {
			return nil, err
		}
	} else if spec.Auth != "" && spec.Auth != suite.AuthNone {
		return nil, fmt.Errorf("auth scheme '%s' requested but no credentials are configured", spec.Auth)
	}

	if isJSON && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", UserAgent)
	}
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}

	return req, nil
}
