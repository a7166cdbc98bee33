package suite

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalSuite = `
name: minimal
checks:
  - name: stations
    request:
      url: "{{ config.base_url }}/rest/v1/stations"
      auth: anon
    expect:
      status: "200-299"
    extract:
      - path: "[0].id"
        target: station
`

func TestParseDirectAndWrapped(t *testing.T) {
	direct, err := Parse([]byte(minimalSuite))
	require.NoError(t, err)
	assert.Equal(t, "minimal", direct.Name)
	require.Len(t, direct.Checks, 1)
	assert.Equal(t, ActionHTTPRequest, direct.Checks[0].ActionType())
	assert.Equal(t, ExtractJSON, direct.Checks[0].Extract[0].ExtractorType())

	wrapped, err := Parse([]byte("suite:\n  name: wrapped\n  checks:\n    - name: pause\n      action: wait\n      duration: 1s\n"))
	require.NoError(t, err)
	assert.Equal(t, "wrapped", wrapped.Name)
	assert.Equal(t, ActionWait, wrapped.Checks[0].ActionType())
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "smoke.yaml")
	require.NoError(t, os.WriteFile(path, []byte(minimalSuite), 0o600))

	s, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "minimal", s.Name)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidateRejects(t *testing.T) {
	cases := map[string]struct {
		doc  string
		want string
	}{
		"no name": {
			doc:  "checks:\n  - name: a\n    action: wait\n    duration: 1s\n",
			want: "name is required",
		},
		"no checks": {
			doc:  "name: empty\n",
			want: "at least one check",
		},
		"duplicate": {
			doc:  "name: dup\nchecks:\n  - name: a\n    action: wait\n    duration: 1s\n  - name: a\n    action: wait\n    duration: 1s\n",
			want: "duplicate check name 'a'",
		},
		"no url": {
			doc:  "name: x\nchecks:\n  - name: a\n    request:\n      method: GET\n",
			want: "requires request.url",
		},
		"bad auth": {
			doc:  "name: x\nchecks:\n  - name: a\n    request:\n      url: http://x\n      auth: root\n",
			want: "unknown auth scheme 'root'",
		},
		"bad duration": {
			doc:  "name: x\nchecks:\n  - name: a\n    action: wait\n    duration: soon\n",
			want: "invalid duration 'soon'",
		},
		"no target": {
			doc:  "name: x\nchecks:\n  - name: a\n    request:\n      url: http://x\n    extract:\n      - path: id\n",
			want: "extract[0].target is required",
		},
		"bad extractor": {
			doc:  "name: x\nchecks:\n  - name: a\n    request:\n      url: http://x\n    extract:\n      - type: csv\n        target: t\n",
			want: "unknown extractor type 'csv'",
		},
		"html without selector": {
			doc:  "name: x\nchecks:\n  - name: a\n    request:\n      url: http://x\n    extract:\n      - type: html\n        target: t\n",
			want: "html extractor requires selector",
		},
		"nested without for_each": {
			doc:  "name: x\nchecks:\n  - name: a\n    checks:\n      - name: b\n        action: wait\n        duration: 1s\n",
			want: "nested checks require for_each",
		},
		"nested for_each": {
			doc:  "name: x\nchecks:\n  - name: a\n    for_each: vars.l\n    checks:\n      - name: b\n        for_each: vars.m\n        checks:\n          - name: c\n            action: wait\n            duration: 1s\n",
			want: "for_each cannot be nested",
		},
		"group with request": {
			doc:  "name: x\nchecks:\n  - name: a\n    for_each: vars.l\n    request:\n      url: http://x\n    checks:\n      - name: b\n        action: wait\n        duration: 1s\n",
			want: "cannot carry an action",
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(tc.doc))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidSuite)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestTemplatedDurationIsAccepted(t *testing.T) {
	s, err := Parse([]byte("name: x\nchecks:\n  - name: settle\n    action: wait\n    duration: \"{{ vars.settle }}\"\n"))
	require.NoError(t, err)
	assert.Equal(t, "{{ vars.settle }}", s.Checks[0].Duration)
}

func TestLoopVariableDefault(t *testing.T) {
	c := Check{ForEach: "vars.accounts"}
	assert.Equal(t, DefaultLoopVariable, c.LoopVariable())
	c.As = "account"
	assert.Equal(t, "account", c.LoopVariable())
}

func TestBuiltins(t *testing.T) {
	assert.Equal(t, []string{"auth", "booking", "provision"}, BuiltinNames())

	for _, name := range BuiltinNames() {
		s, err := Builtin(name)
		require.NoError(t, err, name)
		assert.Equal(t, name, s.Name)
	}

	booking, err := Builtin("booking")
	require.NoError(t, err)
	assert.Len(t, booking.Checks, 6)
	assert.Equal(t, []string{"access_token", "from_station", "to_station"}, booking.Checks[2].Requires)
	assert.Equal(t, "INVALID_AMOUNT", booking.Checks[3].Expect.ErrorCode)

	_, err = Builtin("nosuch")
	assert.ErrorContains(t, err, "available: auth, booking, provision")
}

func TestLoadResolvesBuiltinOrPath(t *testing.T) {
	s, err := Load("auth")
	require.NoError(t, err)
	assert.Equal(t, "auth", s.Name)

	path := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte(minimalSuite), 0o600))
	s, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, "minimal", s.Name)
}
