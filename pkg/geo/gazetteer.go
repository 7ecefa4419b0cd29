package geo

import (
	"fmt"
	"sort"
)

// Gazetteer is the read-only ground truth for state names. It is built once
// and shared; no method mutates it.
type Gazetteer struct {
	Manifest *Manifest
	states   []string
	canon    map[string]struct{}
	aliases  map[string]string
}

// NewGazetteer validates a manifest and builds a gazetteer from it. Alias
// chains are resolved up front; a cycle is an error.
func NewGazetteer(m *Manifest) (*Gazetteer, error) {
	if len(m.States) == 0 {
		return nil, fmt.Errorf("gazetteer %s: no states", m.ID)
	}
	g := &Gazetteer{
		Manifest: m,
		states:   make([]string, 0, len(m.States)),
		canon:    make(map[string]struct{}, len(m.States)),
		aliases:  make(map[string]string, len(m.Aliases)),
	}
	for _, s := range m.States {
		if s == "" {
			return nil, fmt.Errorf("gazetteer %s: empty state name", m.ID)
		}
		if _, dup := g.canon[s]; dup {
			return nil, fmt.Errorf("gazetteer %s: duplicate state %q", m.ID, s)
		}
		g.canon[s] = struct{}{}
		g.states = append(g.states, s)
	}

	for from := range m.Aliases {
		to, err := resolveChain(m.Aliases, from)
		if err != nil {
			return nil, fmt.Errorf("gazetteer %s: %w", m.ID, err)
		}
		g.aliases[from] = to
	}
	return g, nil
}

// resolveChain follows alias -> alias links to the final name.
func resolveChain(aliases map[string]string, from string) (string, error) {
	seen := map[string]bool{from: true}
	cur := aliases[from]
	for {
		next, ok := aliases[cur]
		if !ok {
			return cur, nil
		}
		if seen[cur] {
			return "", fmt.Errorf("alias cycle through %q", cur)
		}
		seen[cur] = true
		cur = next
	}
}

// Default returns the built-in gazetteer.
func Default() *Gazetteer {
	g, err := NewGazetteer(DefaultManifest())
	if err != nil {
		panic(err)
	}
	return g
}

// Load returns the gazetteer described by the YAML file at path, or the
// built-in one when path is empty.
func Load(path string) (*Gazetteer, error) {
	if path == "" {
		return Default(), nil
	}
	m, err := LoadManifest(path)
	if err != nil {
		return nil, err
	}
	return NewGazetteer(m)
}

// States returns the canonical names in manifest order.
func (g *Gazetteer) States() []string {
	out := make([]string, len(g.states))
	copy(out, g.states)
	return out
}

// IsCanonical reports whether name is a member of the canonical enumeration.
func (g *Gazetteer) IsCanonical(name string) bool {
	_, ok := g.canon[name]
	return ok
}

// ResolveAlias returns the final name an alias points to. Lookup is exact.
func (g *Gazetteer) ResolveAlias(name string) (string, bool) {
	to, ok := g.aliases[name]
	return to, ok
}

// AliasCount returns the number of aliases.
func (g *Gazetteer) AliasCount() int {
	return len(g.aliases)
}

// Aliases returns alias names sorted, for listing.
func (g *Gazetteer) Aliases() []string {
	names := make([]string, 0, len(g.aliases))
	for k := range g.aliases {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
