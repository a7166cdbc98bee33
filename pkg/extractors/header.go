// Package extractors provides the implementation for data extraction from responses.
// This file specifically implements header-based extraction.
package extractors

import (
	"fmt"
	"strings"

	"metrosmoke/pkg/actions"
	execContext "metrosmoke/pkg/context"
	"metrosmoke/pkg/suite"
)

// extractFromHeaderHandler extracts the first value of a response header
func extractFromHeaderHandler(vars *execContext.ExecutionContext, ex *suite.Extract, resp *actions.HTTPResponse) (interface{}, error) {
	headerName, err := vars.Substitute(ex.Header)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve header name: %w", err)
	}

	// Look for the header (case-insensitive)
	for name, values := range resp.Headers {
		if strings.EqualFold(name, headerName) && len(values) > 0 {
			return values[0], nil
		}
	}

	return nil, fmt.Errorf("header '%s' not found in response", headerName)
}
