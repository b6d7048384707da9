//go:build darwin || freebsd || linux

package sched

import (
	"os"

	"golang.org/x/sys/unix"

	"github.com/wippyai/simhost/errors"
)

type fileRegion struct {
	mem []byte
	f   *os.File
}

// OpenShared attaches to the process table at path, creating it if absent.
// Creation and resizing happen under an exclusive file lock.
func OpenShared(path string, slots int) (Region, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o666)
	if err != nil {
		return nil, errors.Unavailable(errors.PhaseSched, "unable to open global process map "+path, err)
	}
	fd := int(f.Fd())
	if err := unix.Flock(fd, unix.LOCK_EX); err != nil {
		f.Close()
		return nil, errors.Unavailable(errors.PhaseSched, "unable to lock global process map", err)
	}
	defer unix.Flock(fd, unix.LOCK_UN)

	size := slots * SlotSize
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, errors.Unavailable(errors.PhaseSched, "unable to stat global process map", err)
	}
	if info.Size() < int64(size) {
		if err := unix.Ftruncate(fd, int64(size)); err != nil {
			f.Close()
			return nil, errors.Unavailable(errors.PhaseSched, "unable to size global process map", err)
		}
	}
	mem, err := unix.Mmap(fd, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, errors.Unavailable(errors.PhaseSched, "unable to access global process map", err)
	}
	return &fileRegion{mem: mem, f: f}, nil
}

func (r *fileRegion) Bytes() []byte { return r.mem }

func (r *fileRegion) Close() error {
	err := unix.Munmap(r.mem)
	if cerr := r.f.Close(); err == nil {
		err = cerr
	}
	return err
}
