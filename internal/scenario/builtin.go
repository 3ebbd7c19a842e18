package scenario

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
)

//go:embed builtin/*.yaml
var builtinFS embed.FS

// Builtin returns the embedded scenario with the given name.
func Builtin(name string) (*Scenario, error) {
	file := path.Join("builtin", name+".yaml")
	b, err := builtinFS.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("unknown builtin scenario %q (available: %s)", name, strings.Join(BuiltinNames(), ", "))
	}
	return Parse(file, b)
}

// BuiltinNames lists the embedded scenarios.
func BuiltinNames() []string {
	entries, _ := fs.ReadDir(builtinFS, "builtin")
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".yaml"))
	}
	sort.Strings(names)
	return names
}
