package dl

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// SearchPath is an ordered list of directories consulted before the OS
// loader's own search rules.
type SearchPath []string

// ParseSearchPath splits a path-list value (os.PathListSeparator separated).
func ParseSearchPath(value string) SearchPath {
	var sp SearchPath
	for _, dir := range filepath.SplitList(value) {
		if dir = strings.TrimSpace(dir); dir != "" {
			sp = append(sp, dir)
		}
	}
	return sp
}

// Find locates file in the search path, then in the working directory.
// Relative hits are returned with a leading "./" so the OS loader does not
// search its own path again.
func (sp SearchPath) Find(file string) (string, bool) {
	return sp.find(file, true)
}

// FindData is Find without the executable-bit requirement, for payloads such
// as wasm binaries.
func (sp SearchPath) FindData(file string) (string, bool) {
	return sp.find(file, false)
}

func (sp SearchPath) find(file string, exec bool) (string, bool) {
	file = Normalize(file)
	if filepath.IsAbs(file) {
		return file, loadable(file, exec)
	}
	for _, dir := range sp {
		p := filepath.Join(Normalize(dir), file)
		if !loadable(p, exec) {
			continue
		}
		if !filepath.IsAbs(p) {
			p = "." + string(filepath.Separator) + p
		}
		return p, true
	}
	if loadable(file, exec) {
		return "." + string(filepath.Separator) + file, true
	}
	return file, false
}

func loadable(path string, exec bool) bool {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return false
	}
	if !exec || runtime.GOOS == "windows" {
		return true
	}
	return info.Mode().Perm()&0o111 != 0
}
