// Package class holds the minimal class list that loaded modules populate.
//
// The object model behind a class is owned by the simulation engine; this
// package only keeps what the loader needs: insertion order, ownership and the
// per-class table of intrinsic entry points.
package class

import (
	"sync"

	"github.com/wippyai/simhost/dl"
	"github.com/wippyai/simhost/errors"
)

// Intrinsic indexes the per-class lifecycle entry points.
type Intrinsic int

const (
	Create Intrinsic = iota
	Init
	Precommit
	Sync
	Commit
	Finalize
	Notify
	Isa
	Plc
	Recalc
	Heartbeat
	NumIntrinsics
)

var intrinsicNames = [NumIntrinsics]string{
	"create", "init", "precommit", "sync", "commit", "finalize",
	"notify", "isa", "plc", "recalc", "heartbeat",
}

func (i Intrinsic) String() string {
	if i < 0 || i >= NumIntrinsics {
		return "unknown"
	}
	return intrinsicNames[i]
}

// Required reports whether a class cannot be bound without this intrinsic.
func (i Intrinsic) Required() bool {
	return i == Create
}

// Intrinsics is the per-class entry point table. Unbound entries are nil.
type Intrinsics [NumIntrinsics]dl.Symbol

// Bound reports whether intrinsic i is set.
func (in *Intrinsics) Bound(i Intrinsic) bool {
	return in[i] != nil
}

// PassConfig selects the synchronization passes a class participates in.
type PassConfig uint32

const (
	PassPreTopDown PassConfig = 1 << iota
	PassBottomUp
	PassPostTopDown
)

// Owner is the module a class belongs to.
type Owner interface {
	Name() string
}

// Class is one registered object class.
type Class struct {
	Owner      Owner
	next       *Class
	Name       string
	Intrinsics Intrinsics
	Size       int
	PassConfig PassConfig
}

// Next returns the class registered after c, or nil.
func (c *Class) Next() *Class {
	return c.next
}

// List is the insertion-ordered list of classes across all modules.
type List struct {
	byName map[string]*Class
	first  *Class
	last   *Class
	n      int
	mu     sync.RWMutex
}

func NewList() *List {
	return &List{byName: make(map[string]*Class)}
}

// Register appends a class. Class names are unique across modules.
func (l *List) Register(owner Owner, name string, size int, pc PassConfig) (*Class, error) {
	if name == "" {
		return nil, errors.InvalidInput(errors.PhaseRegister, "class name cannot be empty")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.byName[name]; ok {
		return nil, errors.Duplicate(errors.PhaseRegister, "class", name)
	}
	c := &Class{Owner: owner, Name: name, Size: size, PassConfig: pc}
	if l.first == nil {
		l.first = c
	} else {
		l.last.next = c
	}
	l.last = c
	l.byName[name] = c
	l.n++
	return c, nil
}

// Find returns the class called name, or nil.
func (l *List) Find(name string) *Class {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.byName[name]
}

// First returns the first registered class.
func (l *List) First() *Class {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.first
}

// Last returns the most recently registered class.
func (l *List) Last() *Class {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.last
}

// Len returns the number of registered classes.
func (l *List) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.n
}

// Since returns the classes registered after the first n, in order.
func (l *List) Since(n int) []*Class {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []*Class
	i := 0
	for c := l.first; c != nil; c = c.next {
		if i >= n {
			out = append(out, c)
		}
		i++
	}
	return out
}

// Truncate drops every class registered after the first n. A failed module
// load uses it to withdraw the classes its init registered.
func (l *List) Truncate(n int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if n >= l.n {
		return
	}
	if n <= 0 {
		l.first, l.last, l.n = nil, nil, 0
		clear(l.byName)
		return
	}
	c := l.first
	for i := 1; i < n; i++ {
		c = c.next
	}
	for d := c.next; d != nil; d = d.next {
		delete(l.byName, d.Name)
	}
	c.next = nil
	l.last = c
	l.n = n
}

// Owned returns the classes belonging to owner, in registration order.
func (l *List) Owned(owner Owner) []*Class {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []*Class
	for c := l.first; c != nil; c = c.next {
		if c.Owner == owner {
			out = append(out, c)
		}
	}
	return out
}
