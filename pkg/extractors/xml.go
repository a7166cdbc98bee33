// Package extractors provides the implementation for data extraction from responses.
// This file specifically implements XML-based extraction using XPath expressions.
package extractors

import (
	"fmt"
	"strings"

	"github.com/antchfx/xmlquery"

	"metrosmoke/pkg/actions"
	execContext "metrosmoke/pkg/context"
	"metrosmoke/pkg/suite"
)

// extractFromXMLHandler extracts the first node matching an XPath expression
func extractFromXMLHandler(vars *execContext.ExecutionContext, ex *suite.Extract, resp *actions.HTTPResponse) (interface{}, error) {
	xpath, err := vars.Substitute(ex.XPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve xpath: %w", err)
	}

	doc, err := xmlquery.Parse(strings.NewReader(resp.Body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse XML: %w", err)
	}

	node, err := xmlquery.Query(doc, xpath)
	if err != nil {
		return nil, fmt.Errorf("failed to execute XPath query: %w", err)
	}
	if node == nil {
		return nil, fmt.Errorf("no nodes found for XPath: %s", xpath)
	}

	// XPath like //element/@attr selects the attribute node itself
	if node.Type == xmlquery.AttributeNode {
		return node.InnerText(), nil
	}

	if ex.Attribute != "" {
		for _, attr := range node.Attr {
			if attr.Name.Local == ex.Attribute {
				return attr.Value, nil
			}
		}
		return nil, fmt.Errorf("attribute '%s' not found", ex.Attribute)
	}

	return nodeContent(node), nil
}

// nodeContent returns the trimmed text of a node
func nodeContent(node *xmlquery.Node) string {
	switch node.Type {
	case xmlquery.TextNode, xmlquery.CharDataNode, xmlquery.CommentNode:
		return strings.TrimSpace(node.Data)
	default:
		return strings.TrimSpace(node.InnerText())
	}
}
