package persona

import (
	_ "embed"
	"fmt"
)

//go:embed builtin.yaml
var builtinYAML []byte

// Builtin returns the personas shipped with the binary.
func Builtin() *Registry {
	reg, err := ParseYAML(builtinYAML)
	if err != nil {
		panic(fmt.Sprintf("builtin personas: %v", err))
	}
	return reg
}

// Load returns the builtin personas, overlaid with the personas from path
// when path is non-empty.
func Load(path string) (*Registry, error) {
	base := Builtin()
	if path == "" {
		return base, nil
	}
	overlay, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	merged := Merge(base, overlay)
	if err := merged.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return merged, nil
}
