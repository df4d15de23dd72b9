// Package persona maps agent names and aliases to system prompts.
//
// A Registry is an immutable value built once at startup, either from the
// embedded builtin set, from an external YAML/TOML file, or both merged.
// It is passed explicitly to whoever needs it; there is no package-level
// registry.
package persona

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// DefaultName is the canonical name of the persona used when none is given.
const DefaultName = "default"

// ErrInvalidSource marks a persona definition that cannot be used: bad
// syntax, an empty prompt, or names that collide.
var ErrInvalidSource = errors.New("invalid persona source")

// Persona is a named system-prompt profile.
type Persona struct {
	Name        string
	Prompt      string
	Aliases     []string
	Description string
}

// Label renders the persona name with its aliases, e.g. "coder (aliases: dev, programmer)".
func (p Persona) Label() string {
	if len(p.Aliases) == 0 {
		return p.Name
	}
	return fmt.Sprintf("%s (aliases: %s)", p.Name, strings.Join(p.Aliases, ", "))
}

func (p Persona) clone() Persona {
	p.Aliases = slices.Clone(p.Aliases)
	return p
}

// NotFoundError is returned by Resolve when neither a canonical name nor an
// alias matches. It carries every persona so the caller can show them.
type NotFoundError struct {
	Name      string
	Available []Persona
}

func (e *NotFoundError) Error() string {
	labels := make([]string, len(e.Available))
	for i, p := range e.Available {
		labels[i] = p.Label()
	}
	return fmt.Sprintf("agent %q not found; available: %s", e.Name, strings.Join(labels, "; "))
}

// Registry is an ordered, read-only set of personas.
type Registry struct {
	personas []Persona
}

// New builds a registry in the given order. It does not validate; call
// Validate to reject overlapping names.
func New(personas ...Persona) *Registry {
	r := &Registry{personas: make([]Persona, 0, len(personas))}
	for _, p := range personas {
		r.personas = append(r.personas, p.clone())
	}
	return r
}

// Resolve looks name up by canonical name first and then by alias. When
// several personas share an alias, the first one in registry order wins.
func (r *Registry) Resolve(name string) (Persona, error) {
	name = strings.TrimSpace(name)
	for _, p := range r.personas {
		if p.Name == name {
			return p.clone(), nil
		}
	}
	for _, p := range r.personas {
		if slices.Contains(p.Aliases, name) {
			return p.clone(), nil
		}
	}
	return Persona{}, &NotFoundError{Name: name, Available: r.List()}
}

// List returns every persona. The persona named "default", if present,
// comes first; the rest keep registry order.
func (r *Registry) List() []Persona {
	out := make([]Persona, 0, len(r.personas))
	for _, p := range r.personas {
		if p.Name == DefaultName {
			out = append(out, p.clone())
		}
	}
	for _, p := range r.personas {
		if p.Name != DefaultName {
			out = append(out, p.clone())
		}
	}
	return out
}

// Names returns the canonical names in List order.
func (r *Registry) Names() []string {
	list := r.List()
	names := make([]string, len(list))
	for i, p := range list {
		names[i] = p.Name
	}
	return names
}

// Len returns the number of personas.
func (r *Registry) Len() int {
	return len(r.personas)
}

// Validate rejects registries whose lookups would be ambiguous: duplicate
// canonical names, aliases that shadow a canonical name, and aliases
// shared by two personas.
func (r *Registry) Validate() error {
	owner := make(map[string]string, len(r.personas))
	for _, p := range r.personas {
		if strings.TrimSpace(p.Name) == "" {
			return fmt.Errorf("%w: persona with empty name", ErrInvalidSource)
		}
		if strings.TrimSpace(p.Prompt) == "" {
			return fmt.Errorf("%w: persona %q has an empty prompt", ErrInvalidSource, p.Name)
		}
		if prev, ok := owner[p.Name]; ok {
			return fmt.Errorf("%w: name %q already used by %q", ErrInvalidSource, p.Name, prev)
		}
		owner[p.Name] = p.Name
	}
	for _, p := range r.personas {
		for _, alias := range p.Aliases {
			prev, ok := owner[alias]
			if ok && prev != p.Name {
				return fmt.Errorf("%w: alias %q of %q collides with %q", ErrInvalidSource, alias, p.Name, prev)
			}
			if ok && alias == p.Name {
				return fmt.Errorf("%w: %q lists its own name as an alias", ErrInvalidSource, p.Name)
			}
			owner[alias] = p.Name
		}
	}
	return nil
}

// Merge layers overlay on top of base: personas with the same canonical
// name are replaced in place, new ones are appended.
func Merge(base, overlay *Registry) *Registry {
	out := New(base.personas...)
	for _, p := range overlay.personas {
		idx := slices.IndexFunc(out.personas, func(q Persona) bool { return q.Name == p.Name })
		if idx >= 0 {
			out.personas[idx] = p.clone()
			continue
		}
		out.personas = append(out.personas, p.clone())
	}
	return out
}
