package ai

import "fmt"

// Registry indexes Policies by challenger ID.
//
// Invariant: each challenger ID is registered at most once.
type Registry struct {
	policies map[string]*Policy
	fallback map[Difficulty]*Policy
}

// NewRegistry returns a Registry whose fallback policies cover every
// difficulty tier.
//
// Precondition: fallback must contain a Policy for each of Difficulties.
func NewRegistry(fallback map[Difficulty]*Policy) *Registry {
	for _, d := range Difficulties {
		if fallback[d] == nil {
			panic(fmt.Sprintf("ai.NewRegistry: missing fallback policy for %s", d))
		}
	}
	return &Registry{policies: make(map[string]*Policy), fallback: fallback}
}

// Register stores p for challenger id.
//
// Postcondition: returns error on ID collision.
func (r *Registry) Register(id string, p *Policy) error {
	if _, exists := r.policies[id]; exists {
		return fmt.Errorf("ai.Registry: challenger %q already registered", id)
	}
	r.policies[id] = p
	return nil
}

// PolicyFor returns the Policy registered for challenger id, or false if
// none is.
func (r *Registry) PolicyFor(id string) (*Policy, bool) {
	p, ok := r.policies[id]
	return p, ok
}

// Resolve returns the challenger's policy when registered, else the
// fallback for difficulty.
func (r *Registry) Resolve(id string, difficulty Difficulty) *Policy {
	if p, ok := r.policies[id]; ok {
		return p
	}
	if p, ok := r.fallback[difficulty]; ok {
		return p
	}
	return r.fallback[Medium]
}
