package codec

import "sort"

// FeatureSet is a set of feature names.
type FeatureSet map[string]struct{}

// Has reports whether name is in the set.
func (s FeatureSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Sorted returns the names in lexical order.
func (s FeatureSet) Sorted() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Union returns a new set holding the names of s and every other set.
func (s FeatureSet) Union(others ...FeatureSet) FeatureSet {
	out := make(FeatureSet, len(s))
	for name := range s {
		out[name] = struct{}{}
	}
	for _, o := range others {
		for name := range o {
			out[name] = struct{}{}
		}
	}
	return out
}

// Registry accumulates the feature names referenced by split nodes.
// It is not safe for concurrent use; callers sharing one synchronize access.
type Registry struct {
	used FeatureSet
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{used: make(FeatureSet)}
}

// Record adds name to the registry.
func (r *Registry) Record(name string) {
	if r.used == nil {
		r.used = make(FeatureSet)
	}
	r.used[name] = struct{}{}
}

// Merge records every name of set.
func (r *Registry) Merge(set FeatureSet) {
	for name := range set {
		r.Record(name)
	}
}

// Snapshot returns a copy of the names recorded so far.
func (r *Registry) Snapshot() FeatureSet {
	return r.used.Union()
}
