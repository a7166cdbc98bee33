// Package checks implements the expectation evaluators.
// This file implements validation of JSON responses against an inline JSON Schema.
package checks

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"metrosmoke/pkg/actions"
	execContext "metrosmoke/pkg/context"
	"metrosmoke/pkg/suite"
)

// schemaURL names the inline schema inside the compiler
const schemaURL = "https://metrosmoke.local/expect.schema.json"

func jsonSchemaCheck(vars *execContext.ExecutionContext, expect *suite.Expect, resp *actions.HTTPResponse) (Outcome, error) {
	if expect.JSONSchema == nil {
		return Pass(), nil
	}

	schema, err := CompileSchema(expect.JSONSchema)
	if err != nil {
		return Outcome{}, err
	}

	instance, err := jsonschema.UnmarshalJSON(strings.NewReader(resp.Body))
	if err != nil {
		return Fail("response body is not JSON: %v", err), nil
	}

	if err := schema.Validate(instance); err != nil {
		return Fail("json schema: %s", strings.Join(strings.Fields(err.Error()), " ")), nil
	}
	return Pass(), nil
}

// CompileSchema compiles a schema given as decoded YAML or JSON
func CompileSchema(doc interface{}) (*jsonschema.Schema, error) {
	// Round-trip through JSON so YAML ints and maps become schema-ready values
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode schema: %w", err)
	}
	normalized, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to decode schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaURL, normalized); err != nil {
		return nil, fmt.Errorf("failed to add schema: %w", err)
	}
	schema, err := compiler.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}
	return schema, nil
}
