package abi

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// Locks provides the locking primitives offered to modules. Every acquire
// returns the matching release.
type Locks struct {
	count atomic.Int64
	spin  atomic.Int64
}

// Read takes l for reading.
func (k *Locks) Read(l *sync.RWMutex) (unlock func()) {
	k.count.Add(1)
	l.RLock()
	return l.RUnlock
}

// Write takes l for writing.
func (k *Locks) Write(l *sync.RWMutex) (unlock func()) {
	k.count.Add(1)
	l.Lock()
	return l.Unlock
}

// Spin acquires a lock word shared with native code.
func (k *Locks) Spin(word *uint32) (unlock func()) {
	k.count.Add(1)
	for !atomic.CompareAndSwapUint32(word, 0, 1) {
		k.spin.Add(1)
		runtime.Gosched()
	}
	return func() { atomic.StoreUint32(word, 0) }
}

// Count returns the number of acquisitions so far.
func (k *Locks) Count() int64 { return k.count.Load() }

// Spins returns the number of failed spin attempts so far.
func (k *Locks) Spins() int64 { return k.spin.Load() }
