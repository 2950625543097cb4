package generic

import (
	"embed"
	"fmt"
	"path"
	"slices"
	"strings"
)

//go:embed profiles/*.yaml
var builtinProfiles embed.FS

// BuiltinNames lists the embedded profiles, sorted.
func BuiltinNames() []string {
	entries, err := builtinProfiles.ReadDir("profiles")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, strings.TrimSuffix(entry.Name(), ".yaml"))
	}
	slices.Sort(names)
	return names
}

// Builtin returns the embedded profile with the given name.
func Builtin(name string) (Profile, error) {
	data, err := builtinProfiles.ReadFile(path.Join("profiles", name+".yaml"))
	if err != nil {
		return Profile{}, fmt.Errorf("unknown built-in profile %q (available: %s)", name, strings.Join(BuiltinNames(), ", "))
	}
	return Parse(data)
}
