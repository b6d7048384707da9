package sched

import (
	"os"
	"path/filepath"
	"unsafe"
)

// RegionName is the host-global name of the shared process table.
const RegionName = "simhost-pmap"

// Region is a mapped process table.
type Region interface {
	// Bytes returns the mapped memory, at least slots*SlotSize long.
	Bytes() []byte
	Close() error
}

// DefaultPath returns where the shared table is kept: /dev/shm when present,
// the temporary directory otherwise.
func DefaultPath() string {
	if info, err := os.Stat("/dev/shm"); err == nil && info.IsDir() {
		return filepath.Join("/dev/shm", RegionName)
	}
	return filepath.Join(os.TempDir(), RegionName)
}

type memRegion struct {
	mem []byte
}

// NewMemory returns a process-local table of slots rows. Schedulers sharing
// it behave like processes sharing the host table.
func NewMemory(slots int) Region {
	words := make([]uint64, (slots*SlotSize+7)/8)
	mem := unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(words))), slots*SlotSize)
	return &memRegion{mem: mem}
}

func (m *memRegion) Bytes() []byte { return m.mem }
func (m *memRegion) Close() error  { return nil }
