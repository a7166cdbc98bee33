package suite

import (
	"embed"
	"fmt"
	"path"
	"sort"
	"strings"
)

//go:embed builtin/*.yaml
var builtinFS embed.FS

// BuiltinNames lists the suites shipped with the binary
func BuiltinNames() []string {
	entries, err := builtinFS.ReadDir("builtin")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".yaml"))
	}
	sort.Strings(names)
	return names
}

// Builtin loads one of the embedded suites by name
func Builtin(name string) (*Suite, error) {
	data, err := builtinFS.ReadFile(path.Join("builtin", name+".yaml"))
	if err != nil {
		return nil, fmt.Errorf("unknown built-in suite '%s' (available: %s)", name, strings.Join(BuiltinNames(), ", "))
	}
	return Parse(data)
}

// Load resolves ref as a built-in suite name first, then as a file path
func Load(ref string) (*Suite, error) {
	if !strings.ContainsAny(ref, "./\\") {
		return Builtin(ref)
	}
	return LoadFile(ref)
}
