package core

import (
	"cmp"
	"fmt"
	"slices"
	"sync"
)

var (
	registry   = make(map[string]TableDefinition)
	registryMu sync.RWMutex
)

// Register adds a table definition to the registry.
// Panics on a duplicate key or when the identity or default sort field is
// not among the field specs.
func Register(def TableDefinition) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[def.Info.Key]; exists {
		panic(fmt.Sprintf("table already registered: %s", def.Info.Key))
	}
	if _, ok := def.Field(def.Info.IdentityField); !ok {
		panic(fmt.Sprintf("table %s: identity field %q has no spec", def.Info.Key, def.Info.IdentityField))
	}
	if def.Info.DefaultSort != "" {
		if f, ok := def.Field(def.Info.DefaultSort); !ok || !f.Sortable {
			panic(fmt.Sprintf("table %s: default sort %q is not a sortable field", def.Info.Key, def.Info.DefaultSort))
		}
	}

	if len(def.Info.Columns) == 0 {
		def.Info.Columns = make([]string, len(def.FieldSpecs))
		for i, spec := range def.FieldSpecs {
			def.Info.Columns[i] = spec.Name
		}
	}

	registry[def.Info.Key] = def
}

// Get returns a table definition by key.
func Get(key string) (TableDefinition, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	def, ok := registry[key]
	return def, ok
}

// Lookup is Get with an ErrTableNotFound error for unknown keys.
func Lookup(key string) (TableDefinition, error) {
	def, ok := Get(key)
	if !ok {
		return TableDefinition{}, fmt.Errorf("%w: %s", ErrTableNotFound, key)
	}
	return def, nil
}

// All returns all registered definitions ordered by group, then key.
func All() []TableDefinition {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]TableDefinition, 0, len(registry))
	for _, def := range registry {
		result = append(result, def)
	}
	slices.SortFunc(result, func(a, b TableDefinition) int {
		if c := cmp.Compare(a.Info.Group, b.Info.Group); c != 0 {
			return c
		}
		return cmp.Compare(a.Info.Key, b.Info.Key)
	})
	return result
}

// ByGroup returns the definitions in group ordered by key.
func ByGroup(group string) []TableDefinition {
	var result []TableDefinition
	for _, def := range All() {
		if def.Info.Group == group {
			result = append(result, def)
		}
	}
	return result
}

// Groups returns the distinct group names, sorted.
func Groups() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	groups := make([]string, 0, len(registry))
	for _, def := range registry {
		if !slices.Contains(groups, def.Info.Group) {
			groups = append(groups, def.Info.Group)
		}
	}
	slices.Sort(groups)
	return groups
}

// TableCount returns the number of registered tables.
func TableCount() int {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return len(registry)
}

// Clear removes all registered tables. Tests only.
func Clear() {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = make(map[string]TableDefinition)
}
