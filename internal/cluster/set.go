package cluster

import (
	"slices"
)

// Set is an ordered, immutable list of cluster configurations.
type Set struct {
	clusters     []Config
	hub          int
	primary      int
	defaultIndex int
}

// SetOption configures a Set.
type SetOption func(*Set)

// WithDefaultIndex sets the baseline cluster restored by
// Context.SwitchDefault. The default baseline is index 0.
func WithDefaultIndex(i int) SetOption {
	return func(s *Set) {
		s.defaultIndex = i
	}
}

// NewSet validates clusters and returns a Set ordered by index.
//
// Indices must be 0..n-1 without gaps, names must be unique and non-empty,
// and at most one cluster may be flagged as hub and at most one as
// primary. Violations are reported as *ConfigurationError.
func NewSet(clusters []Config, opts ...SetOption) (*Set, error) {
	if len(clusters) == 0 {
		return nil, Errorf("no clusters configured")
	}

	sorted := make([]Config, len(clusters))
	for i, c := range clusters {
		sorted[i] = c.Clone()
	}
	slices.SortStableFunc(sorted, func(a, b Config) int { return a.Index - b.Index })

	s := &Set{clusters: sorted, hub: -1, primary: -1}
	for _, opt := range opts {
		opt(s)
	}

	names := make(map[string]bool, len(sorted))
	for i, c := range sorted {
		if c.Index != i {
			return nil, Errorf("cluster %q has index %d, expected %d", c.Name, c.Index, i)
		}
		if c.Name == "" {
			return nil, Errorf("cluster at index %d has no name", i)
		}
		if names[c.Name] {
			return nil, Errorf("duplicate cluster name %q", c.Name)
		}
		names[c.Name] = true

		if c.Hub {
			if s.hub >= 0 {
				return nil, Errorf("clusters %q and %q are both flagged as hub", sorted[s.hub].Name, c.Name)
			}
			s.hub = i
		}
		if c.Primary {
			if s.primary >= 0 {
				return nil, Errorf("clusters %q and %q are both flagged as primary", sorted[s.primary].Name, c.Name)
			}
			s.primary = i
		}
	}

	if s.defaultIndex < 0 || s.defaultIndex >= len(sorted) {
		return nil, Errorf("default cluster index %d out of range [0,%d)", s.defaultIndex, len(sorted))
	}
	return s, nil
}

// Len returns the number of clusters.
func (s *Set) Len() int { return len(s.clusters) }

// Multicluster reports whether the set has more than one cluster.
func (s *Set) Multicluster() bool { return len(s.clusters) > 1 }

// DefaultIndex returns the baseline cluster index.
func (s *Set) DefaultIndex() int { return s.defaultIndex }

// At returns a snapshot of the cluster at index i.
func (s *Set) At(i int) (Config, bool) {
	if i < 0 || i >= len(s.clusters) {
		return Config{}, false
	}
	return s.clusters[i].Clone(), true
}

// All returns snapshots of every cluster in index order.
func (s *Set) All() []Config {
	out := make([]Config, len(s.clusters))
	for i, c := range s.clusters {
		out[i] = c.Clone()
	}
	return out
}

// Hub returns the hub cluster, if one is flagged.
func (s *Set) Hub() (Config, bool) {
	if s.hub < 0 {
		return Config{}, false
	}
	return s.clusters[s.hub].Clone(), true
}

// HubIndex returns the hub index, or -1.
func (s *Set) HubIndex() int { return s.hub }

// Primary returns the primary cluster. When none is flagged the first
// non-hub cluster is used.
func (s *Set) Primary() (Config, bool) {
	if s.primary >= 0 {
		return s.clusters[s.primary].Clone(), true
	}
	for _, c := range s.clusters {
		if !c.Hub {
			return c.Clone(), true
		}
	}
	return Config{}, false
}

// Select returns snapshots of the clusters included in scope.
func (s *Set) Select(scope Scope) []Config {
	var out []Config
	for _, c := range s.clusters {
		if scope.Includes(s, c) {
			out = append(out, c.Clone())
		}
	}
	return out
}

// Managed returns every non-hub cluster.
func (s *Set) Managed() []Config {
	return s.Select(ScopeManaged)
}

// DRPeers returns the clusters taking part in disaster recovery with the
// primary first.
func (s *Set) DRPeers() []Config {
	primary, ok := s.Primary()
	if !ok {
		return nil
	}
	peers := []Config{primary}
	for _, c := range s.Select(ScopeDataPlane) {
		if c.Name != primary.Name {
			peers = append(peers, c)
		}
	}
	return peers
}
