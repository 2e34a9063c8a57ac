package stage

import "fmt"

// Entry pairs a stage with its run attributes from configuration.
type Entry struct {
	Stage    Stage
	Optional bool // a failed optional stage is downgraded to degraded
	ReadOnly bool // never writes the artifact; eligible for concurrent execution
}

// ID returns the wrapped stage's identifier.
func (e Entry) ID() string { return e.Stage.ID() }

// Registry is the ordered set of stages for a run, resolved once at
// construction time. Order is fixed for the lifetime of the run: later stages
// depend on earlier stages' output.
type Registry struct {
	entries []Entry
}

// NewRegistry validates and freezes an ordered stage list. Empty and
// duplicate stage IDs are rejected before any round runs.
func NewRegistry(entries []Entry) (*Registry, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("at least one stage is required")
	}
	seen := make(map[string]bool, len(entries))
	for i, e := range entries {
		if e.Stage == nil {
			return nil, fmt.Errorf("stage at position %d is nil", i)
		}
		id := e.Stage.ID()
		if id == "" {
			return nil, fmt.Errorf("stage at position %d has an empty ID", i)
		}
		if seen[id] {
			return nil, fmt.Errorf("duplicate stage ID %q", id)
		}
		seen[id] = true
	}
	out := make([]Entry, len(entries))
	copy(out, entries)
	return &Registry{entries: out}, nil
}

// Entries returns the stages in registration order.
func (r *Registry) Entries() []Entry {
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Len returns the number of registered stages.
func (r *Registry) Len() int {
	return len(r.entries)
}

// IDs returns the stage identifiers in registration order.
func (r *Registry) IDs() []string {
	ids := make([]string, len(r.entries))
	for i, e := range r.entries {
		ids[i] = e.Stage.ID()
	}
	return ids
}
