// Package extractors provides the implementation for data extraction from responses.
// This file specifically implements regex-based extraction from response bodies.
package extractors

import (
	"fmt"
	"regexp"

	"metrosmoke/pkg/actions"
	execContext "metrosmoke/pkg/context"
	"metrosmoke/pkg/suite"
)

// extractFromRegexHandler returns the first capture group of the first match,
// or the whole match when the pattern has no groups
func extractFromRegexHandler(vars *execContext.ExecutionContext, ex *suite.Extract, resp *actions.HTTPResponse) (interface{}, error) {
	pattern, err := vars.Substitute(ex.Pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve regex pattern: %w", err)
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid regex pattern '%s': %w", pattern, err)
	}

	matches := re.FindStringSubmatch(resp.Body)
	if matches == nil {
		return nil, fmt.Errorf("no matches found for '%s'", pattern)
	}
	if len(matches) > 1 {
		return matches[1], nil
	}
	return matches[0], nil
}
