// Package extractors provides the implementation for data extraction from responses.
// This file specifically implements JSON-based extraction and the path syntax shared
// with the JSON assertions of checks.
package extractors

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"metrosmoke/pkg/actions"
	execContext "metrosmoke/pkg/context"
	"metrosmoke/pkg/suite"
)

// ErrPathNotFound is returned when a JSON path does not address a value
var ErrPathNotFound = errors.New("path not found")

// extractFromJSONHandler extracts a value from a JSON response body
func extractFromJSONHandler(vars *execContext.ExecutionContext, ex *suite.Extract, resp *actions.HTTPResponse) (interface{}, error) {
	path, err := vars.Substitute(ex.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}

	data, err := resp.JSON()
	if err != nil {
		return nil, err
	}

	return LookupJSON(data, path)
}

type pathToken struct {
	key     string
	index   int
	isIndex bool
}

// parseJSONPath splits "data.items[0].id" into key and index tokens.
// A leading "$" addresses the document root.
func parseJSONPath(path string) ([]pathToken, error) {
	path = strings.TrimSpace(path)
	path = strings.TrimPrefix(path, "$")
	path = strings.TrimPrefix(path, ".")

	var tokens []pathToken
	for _, component := range strings.Split(path, ".") {
		if component == "" {
			continue
		}
		for component != "" {
			openBracket := strings.Index(component, "[")
			if openBracket == -1 {
				tokens = append(tokens, pathToken{key: component})
				break
			}
			if openBracket > 0 {
				tokens = append(tokens, pathToken{key: component[:openBracket]})
			}
			closeBracket := strings.Index(component[openBracket:], "]")
			if closeBracket == -1 {
				return nil, fmt.Errorf("invalid array index format in component: %s", component)
			}
			closeBracket += openBracket

			indexStr := strings.TrimSpace(component[openBracket+1 : closeBracket])
			index, err := strconv.Atoi(indexStr)
			if err != nil {
				return nil, fmt.Errorf("invalid array index '%s'", indexStr)
			}
			tokens = append(tokens, pathToken{index: index, isIndex: true})
			component = component[closeBracket+1:]
		}
	}
	return tokens, nil
}

// LookupJSON walks decoded JSON (maps, slices, scalars) along path.
// Negative indices count from the end, and "length" on a list, object or string
// returns its size unless an object has a real "length" member.
func LookupJSON(data interface{}, path string) (interface{}, error) {
	tokens, err := parseJSONPath(path)
	if err != nil {
		return nil, err
	}

	current := data
	for i, tok := range tokens {
		if tok.isIndex {
			array, ok := current.([]interface{})
			if !ok {
				return nil, fmt.Errorf("%w: '%s' (expected array at component %d)", ErrPathNotFound, path, i)
			}
			index := tok.index
			if index < 0 {
				index = len(array) + index
			}
			if index < 0 || index >= len(array) {
				return nil, fmt.Errorf("%w: '%s' (index %d out of bounds, length %d)", ErrPathNotFound, path, tok.index, len(array))
			}
			current = array[index]
			continue
		}

		switch v := current.(type) {
		case map[string]interface{}:
			val, exists := v[tok.key]
			if !exists {
				if tok.key == "length" {
					current = len(v)
					continue
				}
				return nil, fmt.Errorf("%w: '%s' (property '%s' missing)", ErrPathNotFound, path, tok.key)
			}
			current = val
		case []interface{}:
			if tok.key != "length" {
				return nil, fmt.Errorf("%w: '%s' (expected object at component %d)", ErrPathNotFound, path, i)
			}
			current = len(v)
		case string:
			if tok.key != "length" {
				return nil, fmt.Errorf("%w: '%s' (expected object at component %d)", ErrPathNotFound, path, i)
			}
			current = len(v)
		default:
			return nil, fmt.Errorf("%w: '%s' (expected object at component %d)", ErrPathNotFound, path, i)
		}
	}

	return current, nil
}
