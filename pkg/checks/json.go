// Package checks implements the expectation evaluators.
// This file implements the JSON path assertions (exists, equals, min_length).
package checks

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"

	"metrosmoke/pkg/actions"
	execContext "metrosmoke/pkg/context"
	"metrosmoke/pkg/extractors"
	"metrosmoke/pkg/suite"
)

func jsonAssertionsCheck(vars *execContext.ExecutionContext, expect *suite.Expect, resp *actions.HTTPResponse) (Outcome, error) {
	if len(expect.JSON) == 0 {
		return Pass(), nil
	}

	data, err := resp.JSON()
	if err != nil {
		return Fail("%v", err), nil
	}

	for _, assertion := range expect.JSON {
		outcome, err := evaluateAssertion(vars, assertion, data)
		if err != nil || !outcome.Pass {
			return outcome, err
		}
	}
	return Pass(), nil
}

func evaluateAssertion(vars *execContext.ExecutionContext, a suite.JSONAssertion, data interface{}) (Outcome, error) {
	path, err := vars.Substitute(a.Path)
	if err != nil {
		return Outcome{}, fmt.Errorf("failed to resolve path: %w", err)
	}

	value, err := extractors.LookupJSON(data, path)
	found := err == nil
	if err != nil && !errors.Is(err, extractors.ErrPathNotFound) {
		return Outcome{}, err
	}

	if a.Exists != nil {
		if *a.Exists && !found {
			return Fail("json path '%s' not found", path), nil
		}
		if !*a.Exists && found {
			return Fail("json path '%s' present but expected absent", path), nil
		}
		if !found {
			return Pass(), nil
		}
	}

	// A bare assertion requires presence
	if !found {
		return Fail("json path '%s' not found", path), nil
	}

	if a.Equals != nil {
		expected, err := vars.SubstituteValue(a.Equals)
		if err != nil {
			return Outcome{}, fmt.Errorf("failed to resolve expected value: %w", err)
		}
		if !valuesEqual(expected, value) {
			return Fail("json path '%s': expected %v, got %v", path, expected, value), nil
		}
	}

	if a.MinLength != nil {
		n, ok := lengthOf(value)
		if !ok {
			return Fail("json path '%s': %T has no length", path, value), nil
		}
		if n < *a.MinLength {
			return Fail("json path '%s': length %d below minimum %d", path, n, *a.MinLength), nil
		}
	}

	return Pass(), nil
}

// valuesEqual compares an expected value from YAML with a decoded JSON value.
// Strings compare against the formatted actual value and numbers compare numerically.
func valuesEqual(expected, actual interface{}) bool {
	if s, ok := expected.(string); ok {
		return fmt.Sprintf("%v", actual) == s
	}
	if ef, ok := toFloat(expected); ok {
		af, ok := toFloat(actual)
		return ok && ef == af
	}

	// Normalize YAML types (int, map[string]interface{}) to their JSON forms
	raw, err := json.Marshal(expected)
	if err != nil {
		return false
	}
	var normalized interface{}
	if err := json.Unmarshal(raw, &normalized); err != nil {
		return false
	}
	return reflect.DeepEqual(normalized, actual)
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func lengthOf(v interface{}) (int, bool) {
	switch val := v.(type) {
	case []interface{}:
		return len(val), true
	case map[string]interface{}:
		return len(val), true
	case string:
		return len(val), true
	default:
		return 0, false
	}
}
