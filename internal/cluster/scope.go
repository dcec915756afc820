package cluster

import "fmt"

// Scope selects the clusters a stage runs on.
type Scope int

const (
	ScopeAll Scope = iota
	ScopeHub
	ScopeManaged
	ScopeDataPlane
)

func (s Scope) String() string {
	switch s {
	case ScopeAll:
		return "all"
	case ScopeHub:
		return "hub"
	case ScopeManaged:
		return "managed"
	case ScopeDataPlane:
		return "data-plane"
	default:
		return fmt.Sprintf("scope(%d)", int(s))
	}
}

// Includes reports whether c belongs to scope s within set.
func (s Scope) Includes(set *Set, c Config) bool {
	switch s {
	case ScopeAll:
		return true
	case ScopeHub:
		return set.Multicluster() && c.Hub
	case ScopeManaged:
		return !c.Hub
	case ScopeDataPlane:
		return !c.Hub || c.Primary
	default:
		return false
	}
}
