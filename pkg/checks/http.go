// Package checks implements the expectation evaluators.
// This file contains the HTTP response checks: status code, platform error code,
// body content and headers.
package checks

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"metrosmoke/pkg/actions"
	execContext "metrosmoke/pkg/context"
	"metrosmoke/pkg/extractors"
	"metrosmoke/pkg/suite"
)

// excerptLen bounds the body excerpt quoted in failure details
const excerptLen = 200

// MatchStatus reports whether statusCode satisfies an expected status, given as an int,
// a "200-299" range, a "200,201" list or a list of either
func MatchStatus(expected interface{}, statusCode int) (bool, error) {
	switch exp := expected.(type) {
	case int:
		return statusCode == exp, nil
	case int64:
		return statusCode == int(exp), nil
	case float64: // JSON numbers often come as float64
		return statusCode == int(exp), nil
	case string:
		exp = strings.TrimSpace(exp)
		if strings.Contains(exp, ",") {
			for _, part := range strings.Split(exp, ",") {
				ok, err := MatchStatus(part, statusCode)
				if err != nil || ok {
					return ok, err
				}
			}
			return false, nil
		}
		if strings.Contains(exp, "-") {
			parts := strings.SplitN(exp, "-", 2)
			min, err := strconv.Atoi(strings.TrimSpace(parts[0]))
			if err != nil {
				return false, fmt.Errorf("invalid min status in range: %s", parts[0])
			}
			max, err := strconv.Atoi(strings.TrimSpace(parts[1]))
			if err != nil {
				return false, fmt.Errorf("invalid max status in range: %s", parts[1])
			}
			return statusCode >= min && statusCode <= max, nil
		}
		code, err := strconv.Atoi(exp)
		if err != nil {
			return false, fmt.Errorf("invalid status code: %s", exp)
		}
		return statusCode == code, nil
	case []interface{}:
		for _, val := range exp {
			ok, err := MatchStatus(val, statusCode)
			if err != nil || ok {
				return ok, err
			}
		}
		return false, nil
	default:
		return false, fmt.Errorf("unsupported status format %T", expected)
	}
}

func statusMismatch(resp *actions.HTTPResponse) Outcome {
	return Fail("status %d: %s", resp.StatusCode, resp.BodyExcerpt(excerptLen))
}

// statusCheck applies the explicit status, else the error expectation (>= 400), else 2xx
func statusCheck(vars *execContext.ExecutionContext, expect *suite.Expect, resp *actions.HTTPResponse) (Outcome, error) {
	code := resp.StatusCode

	if expect.Status != nil {
		ok, err := MatchStatus(expect.Status, code)
		if err != nil {
			return Outcome{}, err
		}
		if !ok {
			return statusMismatch(resp), nil
		}
		return Pass(), nil
	}

	if expect.ErrorCode != "" {
		if code >= 200 && code < 300 {
			return Fail("expected error but got success"), nil
		}
		if code < 400 {
			return statusMismatch(resp), nil
		}
		return Pass(), nil
	}

	if code < 200 || code >= 300 {
		return statusMismatch(resp), nil
	}
	return Pass(), nil
}

// errorCodeCheck looks for the expected code in the decoded error-code field
func errorCodeCheck(vars *execContext.ExecutionContext, expect *suite.Expect, resp *actions.HTTPResponse) (Outcome, error) {
	if expect.ErrorCode == "" {
		return Pass(), nil
	}

	want, err := vars.Substitute(expect.ErrorCode)
	if err != nil {
		return Outcome{}, err
	}

	path := expect.ErrorCodePath
	if path == "" {
		path = suite.DefaultErrorCodePath
	}

	got := "none"
	if data, err := resp.JSON(); err == nil {
		value, err := extractors.LookupJSON(data, path)
		switch {
		case err == nil && value != nil:
			got = fmt.Sprintf("%v", value)
		case err != nil && !errors.Is(err, extractors.ErrPathNotFound):
			return Outcome{}, err
		}
	}

	if !strings.Contains(got, want) {
		return Fail("expected error code %s, got %s", want, got), nil
	}
	return Pass(), nil
}

func bodyContainsCheck(vars *execContext.ExecutionContext, expect *suite.Expect, resp *actions.HTTPResponse) (Outcome, error) {
	for _, item := range expect.BodyContains {
		resolved, err := vars.Substitute(item)
		if err != nil {
			return Outcome{}, fmt.Errorf("failed to resolve body_contains value: %w", err)
		}
		if !strings.Contains(resp.Body, resolved) {
			return Fail("body does not contain '%s'", resolved), nil
		}
	}
	return Pass(), nil
}

func bodyRegexCheck(vars *execContext.ExecutionContext, expect *suite.Expect, resp *actions.HTTPResponse) (Outcome, error) {
	if expect.BodyRegex == "" {
		return Pass(), nil
	}

	resolved, err := vars.Substitute(expect.BodyRegex)
	if err != nil {
		return Outcome{}, fmt.Errorf("failed to resolve regex: %w", err)
	}
	re, err := regexp.Compile(resolved)
	if err != nil {
		return Outcome{}, fmt.Errorf("invalid regex pattern %s: %w", resolved, err)
	}
	if !re.MatchString(resp.Body) {
		return Fail("body does not match /%s/", resolved), nil
	}
	return Pass(), nil
}

// headersCheck requires each named header to contain the expected substring
func headersCheck(vars *execContext.ExecutionContext, expect *suite.Expect, resp *actions.HTTPResponse) (Outcome, error) {
	names := make([]string, 0, len(expect.Headers))
	for name := range expect.Headers {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		want, err := vars.Substitute(expect.Headers[name])
		if err != nil {
			return Outcome{}, fmt.Errorf("failed to resolve header '%s' value: %w", name, err)
		}

		var value string
		found := false
		for headerName, values := range resp.Headers {
			if strings.EqualFold(headerName, name) && len(values) > 0 {
				value, found = values[0], true
				break
			}
		}
		if !found {
			return Fail("header '%s' missing", name), nil
		}
		if !strings.Contains(value, want) {
			return Fail("header '%s': '%s' does not contain '%s'", name, value, want), nil
		}
	}
	return Pass(), nil
}
