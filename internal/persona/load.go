package persona

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// entry is the on-disk shape of one persona, keyed by canonical name.
type entry struct {
	Prompt      string   `yaml:"prompt" toml:"prompt"`
	Aliases     []string `yaml:"aliases" toml:"aliases"`
	Description string   `yaml:"description" toml:"description"`
}

// LoadFile reads an external persona source. The format follows the file
// extension: .toml is TOML, anything else is parsed as YAML (which also
// accepts JSON). Entries keep the order they have in the file.
func LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read persona file: %w", err)
	}

	var reg *Registry
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		reg, err = ParseTOML(data)
	default:
		reg, err = ParseYAML(data)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return reg, nil
}

// ParseYAML decodes a mapping of canonical name to persona definition.
func ParseYAML(data []byte) (*Registry, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSource, err)
	}
	if len(doc.Content) == 0 {
		return nil, fmt.Errorf("%w: no personas defined", ErrInvalidSource)
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: expected a mapping of agent name to definition", ErrInvalidSource)
	}

	personas := make([]Persona, 0, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		name := root.Content[i].Value
		var s entry
		if err := root.Content[i+1].Decode(&s); err != nil {
			return nil, fmt.Errorf("%w: agent %q: %v", ErrInvalidSource, name, err)
		}
		personas = append(personas, s.persona(name))
	}
	return build(personas)
}

// ParseTOML decodes a TOML document with one table per persona.
func ParseTOML(data []byte) (*Registry, error) {
	var raw map[string]entry
	md, err := toml.Decode(string(data), &raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSource, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("%w: unknown key %q", ErrInvalidSource, undecoded[0].String())
	}

	var personas []Persona
	for _, key := range md.Keys() {
		if len(key) != 1 {
			continue
		}
		name := key[0]
		personas = append(personas, raw[name].persona(name))
	}
	if len(personas) == 0 {
		return nil, fmt.Errorf("%w: no personas defined", ErrInvalidSource)
	}
	return build(personas)
}

func (s entry) persona(name string) Persona {
	aliases := make([]string, 0, len(s.Aliases))
	for _, a := range s.Aliases {
		if a = strings.TrimSpace(a); a != "" {
			aliases = append(aliases, a)
		}
	}
	return Persona{
		Name:        strings.TrimSpace(name),
		Prompt:      strings.TrimSpace(s.Prompt),
		Aliases:     aliases,
		Description: strings.TrimSpace(s.Description),
	}
}

func build(personas []Persona) (*Registry, error) {
	reg := New(personas...)
	if err := reg.Validate(); err != nil {
		return nil, err
	}
	return reg, nil
}
