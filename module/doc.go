// Package module is the module registry and dynamic loader.
//
// A module is a shared library exporting init and, per class it registers,
// create_<class> plus up to ten optional intrinsics. Load resolves a logical
// name to a library along the search path, runs the init handshake with the
// callback table, binds the intrinsics of every class the module registered
// and appends the module to the registry:
//
//	reg := module.NewRegistry(
//	    module.WithSearchPath(dl.ParseSearchPath(os.Getenv("SIMHOST_PATH"))),
//	    module.WithClasses(classes),
//	)
//	mod, err := reg.Load(ctx, table, "powerflow", nil)
//
// Names of the form "parent::child" address foreign modules. The parent is
// loaded first; if it exports subload it produces the child, otherwise the
// parent name selects a bridge (matlab, wasm).
//
// Native entry points use these C signatures:
//
//	uintptr_t init(const void *table, uintptr_t mod, int argc, char *argv[]);
//	int import_file(const char *file);
//	int export_file(const char *file);
//	int setvar(const char *name, const char *value);
//	size_t getvar(const char *name, char *buf, unsigned int size);
//	int check(void);
//	int cmdargs(int argc, char *argv[]);
//	int kmldump(int fd, uintptr_t obj);
//	int subload(const char *name, int argc, char *argv[]);
//	int test(int argc, char *argv[]);
//	void term(void);
//
// mod and the value init returns are opaque handles: init registers its
// classes through the table's class_register callback and returns the handle
// of the first one, or 0 on failure.
//
// kmldump writes to a file descriptor rather than a FILE*, because the host
// has no C stdio stream to hand out. Wrap it with fdopen(dup(fd), "w") and
// fclose the stream before returning. obj is 0 to dump every object.
//
// Loading is idempotent by name and a failed load leaves nothing behind: the
// classes registered by the failed init are withdrawn and the library is
// closed. Modules are never unloaded.
package module
