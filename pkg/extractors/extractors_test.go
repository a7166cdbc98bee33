package extractors

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"metrosmoke/pkg/actions"
	execContext "metrosmoke/pkg/context"
	"metrosmoke/pkg/suite"
)

const stationsBody = `[
  {"id": "st-001", "name": "Aluva", "line": "blue"},
  {"id": "st-002", "name": "Edappally", "line": "blue"},
  {"id": "st-003", "name": "Vyttila", "line": "blue"}
]`

func TestLookupJSON(t *testing.T) {
	var data interface{} = map[string]interface{}{
		"access_token": "jwt",
		"user":         map[string]interface{}{"id": "u-1"},
		"items":        []interface{}{"a", "b", "c"},
		"error":        map[string]interface{}{"code": "INVALID_AMOUNT"},
	}

	tests := []struct {
		path string
		want interface{}
	}{
		{"access_token", "jwt"},
		{"$.access_token", "jwt"},
		{"user.id", "u-1"},
		{"items[0]", "a"},
		{"items[-1]", "c"},
		{"items.length", 3},
		{"error.code", "INVALID_AMOUNT"},
		{"error.code.length", 14},
		{"$", data},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := LookupJSON(data, tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, missing := range []string{"refresh_token", "user.email", "items[5]", "items[-4]", "access_token.x", "user[0]"} {
		_, err := LookupJSON(data, missing)
		assert.True(t, errors.Is(err, ErrPathNotFound), missing)
	}

	_, err := LookupJSON(data, "items[x]")
	assert.Error(t, err)
	assert.False(t, errors.Is(err, ErrPathNotFound))
}

func TestLookupJSONRootArray(t *testing.T) {
	resp := &actions.HTTPResponse{Body: stationsBody}
	data, err := resp.JSON()
	require.NoError(t, err)

	got, err := LookupJSON(data, "[1].id")
	require.NoError(t, err)
	assert.Equal(t, "st-002", got)

	got, err = LookupJSON(data, "$[-1].name")
	require.NoError(t, err)
	assert.Equal(t, "Vyttila", got)

	got, err = LookupJSON(data, "length")
	require.NoError(t, err)
	assert.Equal(t, 3, got)
}

func TestExecuteStoresTarget(t *testing.T) {
	vars := execContext.NewExecutionContext(nil)
	resp := &actions.HTTPResponse{
		StatusCode: 200,
		Body:       `{"access_token":"jwt-value","user":{"id":"u-42"}}`,
	}

	value, stored, err := ExecuteExtractor(vars, &suite.Extract{Target: "access_token", Path: "access_token"}, resp)
	require.NoError(t, err)
	assert.True(t, stored)
	assert.Equal(t, "jwt-value", value)

	got, err := vars.ResolveVariable("access_token")
	require.NoError(t, err)
	assert.Equal(t, "jwt-value", got)

	_, _, err = ExecuteExtractor(vars, &suite.Extract{Target: "user_id", Path: "user.id"}, resp)
	require.NoError(t, err)
	assert.True(t, vars.Has("user_id"))
}

func TestExecuteOptionalMiss(t *testing.T) {
	vars := execContext.NewExecutionContext(nil)
	resp := &actions.HTTPResponse{Body: `[]`}

	_, stored, err := ExecuteExtractor(vars, &suite.Extract{Target: "from_station", Path: "[0].id", Optional: true}, resp)
	require.NoError(t, err)
	assert.False(t, stored)
	assert.False(t, vars.Has("from_station"))

	_, _, err = ExecuteExtractor(vars, &suite.Extract{Target: "from_station", Path: "[0].id"}, resp)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "from_station")
}

func TestHeaderExtractor(t *testing.T) {
	vars := execContext.NewExecutionContext(nil)
	resp := &actions.HTTPResponse{Headers: http.Header{"Content-Range": []string{"0-24/57"}}}

	value, _, err := ExecuteExtractor(vars, &suite.Extract{Type: suite.ExtractHeader, Target: "range", Header: "content-range"}, resp)
	require.NoError(t, err)
	assert.Equal(t, "0-24/57", value)

	_, _, err = ExecuteExtractor(vars, &suite.Extract{Type: suite.ExtractHeader, Target: "etag", Header: "ETag"}, resp)
	assert.Error(t, err)
}

func TestRegexExtractor(t *testing.T) {
	vars := execContext.NewExecutionContext(nil)
	resp := &actions.HTTPResponse{Body: `{"clientSecret":"pi_demo_123_secret_abc"}`}

	value, _, err := ExecuteExtractor(vars, &suite.Extract{Type: suite.ExtractRegex, Target: "pi", Pattern: `(pi_demo_\d+)`}, resp)
	require.NoError(t, err)
	assert.Equal(t, "pi_demo_123", value)

	value, _, err = ExecuteExtractor(vars, &suite.Extract{Type: suite.ExtractRegex, Target: "whole", Pattern: `secret_[a-z]+`}, resp)
	require.NoError(t, err)
	assert.Equal(t, "secret_abc", value)

	_, _, err = ExecuteExtractor(vars, &suite.Extract{Type: suite.ExtractRegex, Target: "bad", Pattern: `(`}, resp)
	assert.Error(t, err)
}

func TestHTMLExtractor(t *testing.T) {
	vars := execContext.NewExecutionContext(nil)
	resp := &actions.HTTPResponse{Body: `<html><body><h1 class="title"> Service Unavailable </h1><a id="status" href="/status">status</a></body></html>`}

	value, _, err := ExecuteExtractor(vars, &suite.Extract{Type: suite.ExtractHTML, Target: "title", Selector: "h1.title"}, resp)
	require.NoError(t, err)
	assert.Equal(t, "Service Unavailable", value)

	value, _, err = ExecuteExtractor(vars, &suite.Extract{Type: suite.ExtractHTML, Target: "link", Selector: "#status", Attribute: "href"}, resp)
	require.NoError(t, err)
	assert.Equal(t, "/status", value)

	_, _, err = ExecuteExtractor(vars, &suite.Extract{Type: suite.ExtractHTML, Target: "none", Selector: "table"}, resp)
	assert.Error(t, err)
}

func TestXMLExtractor(t *testing.T) {
	vars := execContext.NewExecutionContext(nil)
	resp := &actions.HTTPResponse{Body: `<?xml version="1.0"?><fare currency="INR"><amount>60</amount></fare>`}

	value, _, err := ExecuteExtractor(vars, &suite.Extract{Type: suite.ExtractXML, Target: "amount", XPath: "//amount"}, resp)
	require.NoError(t, err)
	assert.Equal(t, "60", value)

	value, _, err = ExecuteExtractor(vars, &suite.Extract{Type: suite.ExtractXML, Target: "currency", XPath: "//fare", Attribute: "currency"}, resp)
	require.NoError(t, err)
	assert.Equal(t, "INR", value)

	value, _, err = ExecuteExtractor(vars, &suite.Extract{Type: suite.ExtractXML, Target: "currency2", XPath: "//fare/@currency"}, resp)
	require.NoError(t, err)
	assert.Equal(t, "INR", value)
}

func TestRegistryErrors(t *testing.T) {
	r := NewExtractorRegistry()
	assert.Error(t, r.Register("json", nil))
	vars := execContext.NewExecutionContext(nil)

	_, _, err := r.Execute(vars, &suite.Extract{Target: "x", Path: "x"}, &actions.HTTPResponse{})
	assert.Error(t, err)
	_, _, err = r.Execute(vars, nil, &actions.HTTPResponse{})
	assert.Error(t, err)
	_, _, err = DefaultRegistry.Execute(vars, &suite.Extract{Target: "x", Path: "x"}, nil)
	assert.Error(t, err)
}
