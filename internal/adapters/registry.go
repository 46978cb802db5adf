package adapters

import (
	"fmt"
	"slices"
	"strings"

	"factorynet/internal/services"
)

// Constructor builds an adapter from shared options.
type Constructor func(Options) (Adapter, error)

type registration struct {
	name    string
	summary string
	build   Constructor
}

// Registry maps adapter names and aliases to constructors. It is populated
// at startup and read-only afterwards; it is not safe for concurrent
// registration.
type Registry struct {
	entries map[string]*registration
	names   []string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: map[string]*registration{}}
}

// DefaultRegistry returns a registry holding the adapters that ship with
// factorynet.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.MustRegister(JSONLName, "one raw episode JSON object per line", NewJSONL, "json-lines", "ndjson")
	return r
}

// Register adds build under name and every alias. Names are matched
// case-insensitively. Registering a taken name or alias fails.
func (r *Registry) Register(name, summary string, build Constructor, aliases ...string) error {
	key := normalizeName(name)
	if key == "" {
		return services.Wrap(services.ErrConfiguration, "adapters", "register", "adapter name is required", nil)
	}
	if build == nil {
		return services.Wrap(services.ErrConfiguration, "adapters", "register", fmt.Sprintf("adapter %q has no constructor", name), nil)
	}
	entry := &registration{name: key, summary: summary, build: build}
	keys := []string{key}
	for _, alias := range aliases {
		if a := normalizeName(alias); a != "" && !slices.Contains(keys, a) {
			keys = append(keys, a)
		}
	}
	for _, k := range keys {
		if existing, ok := r.entries[k]; ok {
			return services.Wrap(services.ErrConfiguration, "adapters", "register",
				fmt.Sprintf("%q is already registered to %s", k, existing.name), nil)
		}
	}
	for _, k := range keys {
		r.entries[k] = entry
	}
	r.names = append(r.names, key)
	slices.Sort(r.names)
	return nil
}

// MustRegister is Register for startup tables; it panics on conflict.
func (r *Registry) MustRegister(name, summary string, build Constructor, aliases ...string) {
	if err := r.Register(name, summary, build, aliases...); err != nil {
		panic(err)
	}
}

// New constructs the adapter registered under name or alias.
func (r *Registry) New(name string, opts Options) (Adapter, error) {
	entry, ok := r.entries[normalizeName(name)]
	if !ok {
		return nil, services.Wrap(services.ErrNotFound, "adapters", "lookup",
			fmt.Sprintf("unknown adapter %q (available: %s)", name, strings.Join(r.names, ", ")), nil)
	}
	adapter, err := entry.build(opts)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "adapters", "construct", entry.name, err)
	}
	return adapter, nil
}

// Names lists canonical adapter names, sorted, without aliases.
func (r *Registry) Names() []string {
	return slices.Clone(r.names)
}

// Info describes one registered adapter for listings.
type Info struct {
	Name    string   `json:"name"`
	Summary string   `json:"summary"`
	Aliases []string `json:"aliases"`
}

// List returns every canonical adapter with its aliases, sorted by name.
func (r *Registry) List() []Info {
	out := make([]Info, 0, len(r.names))
	for _, name := range r.names {
		entry := r.entries[name]
		info := Info{Name: name, Summary: entry.summary, Aliases: []string{}}
		for key, e := range r.entries {
			if e == entry && key != name {
				info.Aliases = append(info.Aliases, key)
			}
		}
		slices.Sort(info.Aliases)
		out = append(out, info)
	}
	return out
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
