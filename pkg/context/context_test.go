package context

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestContext() *ExecutionContext {
	return NewExecutionContext(map[string]interface{}{
		"config": map[string]interface{}{"base_url": "https://api.example.test"},
		"vars": map[string]interface{}{
			"accounts": []interface{}{
				map[string]interface{}{"email": "a@example.test", "name": "A"},
				map[string]interface{}{"email": "b@example.test", "name": "B"},
			},
			"amount": 60,
		},
		"access_token": "tok-123",
		"empty":        "",
	})
}

func TestResolveVariable(t *testing.T) {
	ctx := newTestContext()

	v, err := ctx.ResolveVariable("config.base_url")
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.test", v)

	v, err = ctx.ResolveVariable("vars.accounts.1.email")
	require.NoError(t, err)
	assert.Equal(t, "b@example.test", v)

	v, err = ctx.ResolveVariable("vars.accounts.-1.name")
	require.NoError(t, err)
	assert.Equal(t, "B", v)

	_, err = ctx.ResolveVariable("vars.accounts.5.email")
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = ctx.ResolveVariable("missing")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestHas(t *testing.T) {
	ctx := newTestContext()

	assert.True(t, ctx.Has("access_token"))
	assert.True(t, ctx.Has("vars.amount"))
	assert.False(t, ctx.Has("empty"))
	assert.False(t, ctx.Has("missing"))

	require.NoError(t, ctx.SetVariable("nothing", nil))
	assert.False(t, ctx.Has("nothing"))
}

func TestSetAndUnsetVariable(t *testing.T) {
	ctx := newTestContext()

	require.NoError(t, ctx.SetVariable("station.from", "st-1"))
	v, err := ctx.ResolveVariable("station.from")
	require.NoError(t, err)
	assert.Equal(t, "st-1", v)

	err = ctx.SetVariable("access_token.inner", "x")
	assert.Error(t, err, "setting below a scalar must fail")

	ctx.Unset("station.from")
	assert.False(t, ctx.Has("station.from"))

	ctx.Unset("does.not.exist")
}

func TestSubstitute(t *testing.T) {
	ctx := newTestContext()

	out, err := ctx.Substitute("{{ config.base_url }}/rest/v1/stations")
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.test/rest/v1/stations", out)

	out, err = ctx.Substitute("Bearer {{access_token}}")
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-123", out)

	out, err = ctx.Substitute("{{ upper(vars.accounts.0.name) }}-{{ lower('XY') }}")
	require.NoError(t, err)
	assert.Equal(t, "A-xy", out)

	out, err = ctx.Substitute("no patterns here")
	require.NoError(t, err)
	assert.Equal(t, "no patterns here", out)

	_, err = ctx.Substitute("{{ missing }}")
	assert.Error(t, err)

	_, err = ctx.Substitute("{{ unclosed")
	assert.Error(t, err)

	_, err = ctx.Substitute("{{ nope() }}")
	assert.Error(t, err)
}

func TestSubstituteFunctions(t *testing.T) {
	ctx := newTestContext()

	out, err := ctx.Substitute("{{ random_string(12) }}")
	require.NoError(t, err)
	assert.Len(t, out, 12)

	out, err = ctx.Substitute("MC{{ unix() }}")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "MC"))
	assert.Greater(t, len(out), 10)

	out, err = ctx.Substitute("{{ concat('a', ',', vars.amount) }}")
	require.NoError(t, err)
	assert.Equal(t, "a,60", out)

	out, err = ctx.Substitute("{{ uuid() }}")
	require.NoError(t, err)
	assert.Len(t, out, 36)
}

func TestSubstituteValueKeepsTypes(t *testing.T) {
	ctx := newTestContext()

	body := map[string]interface{}{
		"amount":  "{{ vars.amount }}",
		"token":   "Bearer {{ access_token }}",
		"list":    []interface{}{"{{ vars.accounts.0.email }}", 3},
		"literal": true,
	}

	out, err := ctx.SubstituteValue(body)
	require.NoError(t, err)

	m := out.(map[string]interface{})
	assert.Equal(t, 60, m["amount"])
	assert.Equal(t, "Bearer tok-123", m["token"])
	assert.Equal(t, []interface{}{"a@example.test", 3}, m["list"])
	assert.Equal(t, true, m["literal"])

	// the input is not modified
	assert.Equal(t, "{{ vars.amount }}", body["amount"])
}

func TestRegisterFunction(t *testing.T) {
	err := RegisterFunction("test_constant", func(args ...interface{}) (interface{}, error) {
		return "constant", nil
	})
	require.NoError(t, err)

	assert.Error(t, RegisterFunction("test_constant", nil))

	out, err := newTestContext().Substitute("{{ test_constant() }}")
	require.NoError(t, err)
	assert.Equal(t, "constant", out)
}

func TestSplitArgs(t *testing.T) {
	assert.Equal(t, []string{"a", "f(b, c)", "'d,e'"}, splitArgs("a, f(b, c), 'd,e'"))
	assert.Equal(t, []string{"x"}, splitArgs(" x "))
}
