package module

import (
	"bytes"
	"io"
	"runtime"

	"go.uber.org/zap"

	"github.com/wippyai/simhost/dl"
)

const getvarBufSize = 1024

// bindEntries resolves the optional entry points of lib. Missing or
// mistyped exports are left nil.
func bindEntries(lib dl.Library, log *zap.Logger) Entries {
	var e Entries
	bind := func(name string, goFn any, native func(dl.Symbol) error) {
		sym, err := lib.Lookup(name)
		if err != nil {
			return
		}
		if _, ok := sym.(dl.Addr); ok {
			err = native(sym)
		} else {
			err = dl.Bind(goFn, sym)
		}
		if err != nil {
			log.Warn("entry point not bound", zap.String("symbol", name), zap.Error(err))
		}
	}

	bind("import_file", &e.ImportFile, func(sym dl.Symbol) error {
		var f func(string) int32
		if err := dl.Bind(&f, sym); err != nil {
			return err
		}
		e.ImportFile = func(file string) int { return int(f(file)) }
		return nil
	})
	bind("export_file", &e.ExportFile, func(sym dl.Symbol) error {
		var f func(string) int32
		if err := dl.Bind(&f, sym); err != nil {
			return err
		}
		e.ExportFile = func(file string) int { return int(f(file)) }
		return nil
	})
	bind("setvar", &e.SetVar, func(sym dl.Symbol) error {
		var f func(string, string) int32
		if err := dl.Bind(&f, sym); err != nil {
			return err
		}
		e.SetVar = func(name, value string) int { return int(f(name, value)) }
		return nil
	})
	bind("getvar", &e.GetVar, func(sym dl.Symbol) error {
		var f func(string, *byte, uint32) uintptr
		if err := dl.Bind(&f, sym); err != nil {
			return err
		}
		e.GetVar = func(name string) (string, bool) {
			buf := make([]byte, getvarBufSize)
			if f(name, &buf[0], uint32(len(buf))) == 0 {
				return "", false
			}
			if i := bytes.IndexByte(buf, 0); i >= 0 {
				buf = buf[:i]
			}
			return string(buf), true
		}
		return nil
	})
	bind("check", &e.Check, func(sym dl.Symbol) error {
		var f func() int32
		if err := dl.Bind(&f, sym); err != nil {
			return err
		}
		e.Check = func() int { return int(f()) }
		return nil
	})
	bind("cmdargs", &e.CmdArgs, func(sym dl.Symbol) error {
		var f func(int32, **byte) int32
		if err := dl.Bind(&f, sym); err != nil {
			return err
		}
		e.CmdArgs = func(args []string) int {
			argv := dl.NewCArgs(args)
			defer runtime.KeepAlive(argv)
			return int(f(argv.Argc(), argv.Argv()))
		}
		return nil
	})
	bind("kmldump", &e.KMLDump, func(sym dl.Symbol) error {
		var f func(int32, uintptr) int32
		if err := dl.Bind(&f, sym); err != nil {
			return err
		}
		e.KMLDump = fdDump(f)
		return nil
	})
	bind("subload", &e.Subload, func(sym dl.Symbol) error {
		var f func(string, int32, **byte) int32
		if err := dl.Bind(&f, sym); err != nil {
			return err
		}
		e.Subload = func(name string, args []string) bool {
			argv := dl.NewCArgs(args)
			defer runtime.KeepAlive(argv)
			return f(name, argv.Argc(), argv.Argv()) != 0
		}
		return nil
	})
	bind("test", &e.Test, func(sym dl.Symbol) error {
		var f func(int32, **byte) int32
		if err := dl.Bind(&f, sym); err != nil {
			return err
		}
		e.Test = func(args []string) int {
			argv := dl.NewCArgs(args)
			defer runtime.KeepAlive(argv)
			return int(f(argv.Argc(), argv.Argv()))
		}
		return nil
	})
	bind("term", &e.Term, func(sym dl.Symbol) error {
		return dl.Bind(&e.Term, sym)
	})
	return e
}

// fdDump adapts a native kmldump(int fd, uintptr_t obj) to a writer. Only
// writers backed by a file descriptor can be passed; others dump nothing.
func fdDump(f func(fd int32, obj uintptr) int32) func(io.Writer) int {
	return func(w io.Writer) int {
		file, ok := w.(interface{ Fd() uintptr })
		if !ok {
			return 0
		}
		return int(f(int32(file.Fd()), 0))
	}
}
