package provider

import (
	"fmt"
	"sort"
)

// Entry binds a public model identifier to everything the runtime needs to
// execute against its backend.
type Entry struct {
	Adapter Adapter
	Schema  Schema
	Policy  PollPolicy
}

// Registry maps public model identifiers to adapter entries. It is the only
// place backends are wired in: adding one means adding one entry, not
// widening a dispatch chain. The registry is populated during bootstrap and
// read-only afterwards, so concurrent readers need no locking.
type Registry struct {
	entries map[string]Entry
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]Entry)}
}

// Register wires a model identifier to an entry. Registering the same
// identifier twice replaces the previous entry.
func (r *Registry) Register(modelID string, e Entry) {
	r.entries[modelID] = e
}

// Resolve returns the entry for a model identifier.
func (r *Registry) Resolve(modelID string) (Entry, error) {
	e, ok := r.entries[modelID]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %q", ErrUnknownModel, modelID)
	}
	return e, nil
}

// Models returns the registered model identifiers, sorted.
func (r *Registry) Models() []string {
	ids := make([]string, 0, len(r.entries))
	for id := range r.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
