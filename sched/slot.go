package sched

import (
	"runtime"
	"sync/atomic"
	"unsafe"
)

// Status is the state a process reports for its slot.
type Status int32

const (
	Init Status = iota
	Running
	Paused
	Done
	Locked
)

func (s Status) String() string {
	switch s {
	case Init:
		return "Init"
	case Running:
		return "Running"
	case Paused:
		return "Paused"
	case Done:
		return "Done"
	case Locked:
		return "Locked"
	default:
		return "Unknown"
	}
}

// CmdlineSize is the capacity of the command line snapshot, terminator
// included.
const CmdlineSize = 64

// slot is the shared layout of one table row. The lock word holds the pid of
// the process inside the critical section, 0 when free.
type slot struct {
	lock     uint32
	pid      int32
	progress int64
	status   Status
	_        int32
	cmdline  [CmdlineSize]byte
}

// SlotSize is the size in bytes of one row of the shared table.
const SlotSize = int(unsafe.Sizeof(slot{}))

func slotAt(mem []byte, n int) *slot {
	return (*slot)(unsafe.Pointer(&mem[n*SlotSize]))
}

func (s *slot) setCmdline(cmd string) {
	clear(s.cmdline[:])
	copy(s.cmdline[:CmdlineSize-1], cmd)
}

func (s *slot) command() string {
	b := s.cmdline[:]
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}

// acquire spins until the slot lock is taken by pid. A lock held by a
// process that no longer exists is taken over.
func (s *slot) acquire(pid uint32, alive func(int) bool) {
	for spins := 0; ; spins++ {
		holder := atomic.LoadUint32(&s.lock)
		if holder == 0 {
			if atomic.CompareAndSwapUint32(&s.lock, 0, pid) {
				return
			}
			continue
		}
		if spins%1024 == 1023 && holder != pid && !alive(int(holder)) {
			if atomic.CompareAndSwapUint32(&s.lock, holder, pid) {
				return
			}
		}
		runtime.Gosched()
	}
}

func (s *slot) release(pid uint32) {
	atomic.CompareAndSwapUint32(&s.lock, pid, 0)
}
