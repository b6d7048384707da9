package sched

import (
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/wippyai/simhost/errors"
)

type mappingRegion struct {
	mem    []byte
	handle windows.Handle
	addr   uintptr
}

// OpenShared attaches to the named file mapping, creating it if absent. The
// path is ignored beyond its base name.
func OpenShared(path string, slots int) (Region, error) {
	size := uint32(slots * SlotSize)
	name, err := windows.UTF16PtrFromString("Local\\" + RegionName)
	if err != nil {
		return nil, errors.Unavailable(errors.PhaseSched, "bad process map name", err)
	}
	h, err := windows.CreateFileMapping(windows.InvalidHandle, nil, windows.PAGE_READWRITE, 0, size, name)
	if h == 0 {
		return nil, errors.Unavailable(errors.PhaseSched, "unable to create global process map", err)
	}
	addr, err := windows.MapViewOfFile(h, windows.FILE_MAP_WRITE|windows.FILE_MAP_READ, 0, 0, uintptr(size))
	if addr == 0 {
		windows.CloseHandle(h)
		return nil, errors.Unavailable(errors.PhaseSched, "unable to access global process map", err)
	}
	mem := unsafe.Slice((*byte)(unsafe.Pointer(addr)), int(size))
	return &mappingRegion{mem: mem, handle: h, addr: addr}, nil
}

func (r *mappingRegion) Bytes() []byte { return r.mem }

func (r *mappingRegion) Close() error {
	err := windows.UnmapViewOfFile(r.addr)
	if cerr := windows.CloseHandle(r.handle); err == nil {
		err = cerr
	}
	return err
}
