package abi

import (
	"sync"

	"github.com/wippyai/simhost/errors"
)

// Globals is global-variable access. Module variables are named
// "<module>::<variable>".
type Globals interface {
	Create(name, value string) error
	Set(name, value string) error
	Get(name string) (string, bool)
	Names() []string
}

// MemoryGlobals keeps globals in memory, in creation order.
type MemoryGlobals struct {
	values map[string]string
	order  []string
	mu     sync.RWMutex
}

func NewGlobals() *MemoryGlobals {
	return &MemoryGlobals{values: make(map[string]string)}
}

// Create defines a new global; defining an existing name fails.
func (g *MemoryGlobals) Create(name, value string) error {
	if name == "" {
		return errors.InvalidInput(errors.PhaseRuntime, "global name cannot be empty")
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.values[name]; ok {
		return errors.Duplicate(errors.PhaseRuntime, "global", name)
	}
	g.values[name] = value
	g.order = append(g.order, name)
	return nil
}

// Set assigns a global, creating it when missing.
func (g *MemoryGlobals) Set(name, value string) error {
	if name == "" {
		return errors.InvalidInput(errors.PhaseRuntime, "global name cannot be empty")
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.values[name]; !ok {
		g.order = append(g.order, name)
	}
	g.values[name] = value
	return nil
}

func (g *MemoryGlobals) Get(name string) (string, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	v, ok := g.values[name]
	return v, ok
}

func (g *MemoryGlobals) Names() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]string(nil), g.order...)
}
