// Package extractors provides the implementation for data extraction from responses.
// This file specifically implements HTML-based extraction using CSS selectors.
package extractors

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"metrosmoke/pkg/actions"
	execContext "metrosmoke/pkg/context"
	"metrosmoke/pkg/suite"
)

// extractFromHTMLHandler extracts the text or an attribute of the first element
// matching a CSS selector. Used against the platform's HTML error and auth pages.
func extractFromHTMLHandler(vars *execContext.ExecutionContext, ex *suite.Extract, resp *actions.HTTPResponse) (interface{}, error) {
	selector, err := vars.Substitute(ex.Selector)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve selector: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(resp.Body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	selection := doc.Find(selector)
	if selection.Length() == 0 {
		return nil, fmt.Errorf("no elements found for selector: %s", selector)
	}

	s := selection.First()
	if ex.Attribute != "" {
		if val, exists := s.Attr(ex.Attribute); exists {
			return val, nil
		}
		return nil, fmt.Errorf("attribute '%s' not found", ex.Attribute)
	}

	return strings.TrimSpace(s.Text()), nil
}
