package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidBuiltins(t *testing.T) {
	color.NoColor = true
	var out bytes.Buffer
	code := run([]string{"booking", "provision"}, &out)

	assert.Equal(t, 0, code)
	assert.Contains(t, out.String(), "Suite 'booking' is valid")
	assert.Contains(t, out.String(), "Extract json -> from_station (optional)")
	assert.Contains(t, out.String(), "For each 'vars.accounts' as 'account' with 2 nested checks")
	assert.Contains(t, out.String(), "Expects error: INVALID_AMOUNT")
	assert.Contains(t, out.String(), "Note: account ready: {{ account.email }}")
}

func TestInvalidFile(t *testing.T) {
	color.NoColor = true
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: bad\nchecks:\n  - name: x\n    action: teleport\n"), 0o600))

	var out bytes.Buffer
	code := run([]string{"auth", path}, &out)

	assert.Equal(t, 1, code)
	assert.Contains(t, out.String(), "unknown action type 'teleport'")
	assert.Contains(t, out.String(), "1 of 2 suite(s) invalid")
}

func TestNoArgs(t *testing.T) {
	var out bytes.Buffer
	assert.Equal(t, 2, run(nil, &out))
	assert.Contains(t, out.String(), "Usage")
}
