//go:build (darwin || linux) && (amd64 || arm64)

package abi

import (
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"

	"github.com/wippyai/simhost/class"
	"github.com/wippyai/simhost/dl"
)

// nativeTable is the C view of the table. Slots are function pointers taking
// and returning machine words; strings are NUL-terminated and preformatted.
// Append only.
type nativeTable struct {
	verbose       uintptr
	message       uintptr
	warning       uintptr
	error         uintptr
	debug         uintptr
	test          uintptr
	malloc        uintptr
	free          uintptr
	moduleFind    uintptr
	moduleDepends uintptr
	classRegister uintptr
	globalSetvar  uintptr
	globalGetvar  uintptr
	lock          uintptr
	unlock        uintptr
}

// Native returns the address of the C callback table. It is built on first
// use and lives for the rest of the process.
func (t *Table) Native() (uintptr, error) {
	t.nativeOnce.Do(func() {
		t.native = t.buildNative()
	})
	return uintptr(unsafe.Pointer(t.native)), nil
}

func (t *Table) buildNative() *nativeTable {
	out := t.output
	say := func(fn func(string, ...any)) uintptr {
		return purego.NewCallback(func(msg uintptr) uintptr {
			fn("%s", dl.GoString(msg))
			return 0
		})
	}
	var locked sync.Map

	return &nativeTable{
		verbose: say(out.Verbose),
		message: say(out.Message),
		warning: say(out.Warning),
		error:   say(out.Error),
		debug:   say(out.Debug),
		test:    say(out.Test),
		malloc: purego.NewCallback(func(size uintptr) uintptr {
			b, err := t.memory.Alloc(int(size))
			if err != nil {
				out.Error("malloc(%d): %v", size, err)
				return 0
			}
			return addrOf(b)
		}),
		free: purego.NewCallback(func(p uintptr) uintptr {
			if p != 0 && !t.memory.FreeAddr(p) {
				out.Warning("free(%#x): block not allocated by host", p)
			}
			return 0
		}),
		moduleFind: purego.NewCallback(func(name uintptr) uintptr {
			m, ok := t.modules.FindModule(dl.GoString(name))
			if !ok {
				return 0
			}
			return t.handles.Put(m)
		}),
		moduleDepends: purego.NewCallback(func(name, major, minor uintptr) uintptr {
			if t.modules.Depends(dl.GoString(name), int(major), int(minor)) {
				return 1
			}
			return 0
		}),
		classRegister: purego.NewCallback(func(mod, name, size, pc uintptr) uintptr {
			v, ok := t.handles.Get(mod)
			owner, isOwner := v.(class.Owner)
			if !ok || !isOwner {
				out.Error("class_register: invalid module handle %d", mod)
				return 0
			}
			c, err := t.classes.Register(owner, dl.GoString(name), int(size), class.PassConfig(pc))
			if err != nil {
				out.Error("class_register: %v", err)
				return 0
			}
			return t.handles.Put(c)
		}),
		globalSetvar: purego.NewCallback(func(name, value uintptr) uintptr {
			if err := t.globals.Set(dl.GoString(name), dl.GoString(value)); err != nil {
				out.Error("global_setvar: %v", err)
				return 0
			}
			return 1
		}),
		globalGetvar: purego.NewCallback(func(name, buf, size uintptr) uintptr {
			v, ok := t.globals.Get(dl.GoString(name))
			if !ok || buf == 0 || size == 0 || uintptr(len(v)) >= size {
				return 0
			}
			dst := unsafe.Slice((*byte)(unsafe.Pointer(buf)), size)
			copy(dst, v)
			dst[len(v)] = 0
			return uintptr(len(v))
		}),
		lock: purego.NewCallback(func(word uintptr) uintptr {
			unlock := t.locks.Spin((*uint32)(unsafe.Pointer(word)))
			locked.Store(word, unlock)
			return 0
		}),
		unlock: purego.NewCallback(func(word uintptr) uintptr {
			if unlock, ok := locked.LoadAndDelete(word); ok {
				unlock.(func())()
			}
			return 0
		}),
	}
}
