package cluster

import (
	"sync"
)

// Context tracks the active cluster of a run.
//
// Only orchestration code switches it. Every loop that switches away from
// the default must restore it on all exit paths; Within does this.
type Context struct {
	mu     sync.RWMutex
	set    *Set
	active int
}

// NewContext returns a Context positioned on the set's default cluster.
func NewContext(set *Set) *Context {
	return &Context{set: set, active: set.DefaultIndex()}
}

// Set returns the underlying cluster set.
func (c *Context) Set() *Set { return c.set }

// Switch makes cluster i active.
func (c *Context) Switch(i int) error {
	if i < 0 || i >= c.set.Len() {
		return Errorf("cluster index %d out of range [0,%d)", i, c.set.Len())
	}
	c.mu.Lock()
	c.active = i
	c.mu.Unlock()
	return nil
}

// SwitchDefault restores the baseline cluster.
func (c *Context) SwitchDefault() {
	c.mu.Lock()
	c.active = c.set.DefaultIndex()
	c.mu.Unlock()
}

// SwitchHub makes the hub cluster active.
func (c *Context) SwitchHub() error {
	if c.set.HubIndex() < 0 {
		return Errorf("no hub cluster configured")
	}
	return c.Switch(c.set.HubIndex())
}

// ActiveIndex returns the index of the active cluster.
func (c *Context) ActiveIndex() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.active
}

// Active returns a snapshot of the active cluster.
func (c *Context) Active() Config {
	cfg, _ := c.set.At(c.ActiveIndex())
	return cfg
}

// IsDefault reports whether the baseline cluster is active.
func (c *Context) IsDefault() bool {
	return c.ActiveIndex() == c.set.DefaultIndex()
}

// Within switches to cluster i, runs fn with a snapshot of it and restores
// the default cluster afterwards, including when fn panics.
func (c *Context) Within(i int, fn func(Config) error) error {
	if err := c.Switch(i); err != nil {
		return err
	}
	defer c.SwitchDefault()
	return fn(c.Active())
}
