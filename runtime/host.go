package runtime

import (
	"reflect"
	"strings"
	"unicode"

	"github.com/wippyai/simhost/dl"
	"github.com/wippyai/simhost/errors"
)

// ExplicitRegistrar lets a Go module name its exports directly when method
// names do not map onto the symbols a module needs (e.g. "create_tape::v2").
type ExplicitRegistrar interface {
	Register() map[string]any
}

// Exports derives the export table of a Go-implemented module. Exported
// methods are registered under snake_case names, so Init becomes "init"
// and CreatePlayer becomes "create_player". A Major or Minor method
// returning int provides the version.
func Exports(impl any) (dl.Symbols, error) {
	if impl == nil {
		return nil, errors.InvalidInput(errors.PhaseRegister, "module implementation cannot be nil")
	}

	if er, ok := impl.(ExplicitRegistrar); ok {
		funcs := er.Register()
		if len(funcs) == 0 {
			return nil, errors.InvalidInput(errors.PhaseRegister, "explicit registrar returned no exports")
		}
		syms := make(dl.Symbols, len(funcs))
		for name, fn := range funcs {
			syms[name] = fn
		}
		return syms, nil
	}

	rv := reflect.ValueOf(impl)
	rt := rv.Type()
	if rt.NumMethod() == 0 {
		return nil, errors.New(errors.PhaseRegister, errors.KindTypeMismatch).
			Detail("%s has no exported methods", rt).
			Build()
	}

	syms := make(dl.Symbols, rt.NumMethod())
	for i := 0; i < rt.NumMethod(); i++ {
		method := rt.Method(i)
		if !method.IsExported() {
			continue
		}
		syms[toSnakeCase(method.Name)] = rv.Method(i).Interface()
	}
	return syms, nil
}

// toSnakeCase converts PascalCase to snake_case.
// Handles acronyms: CreateHTTPLink -> create_http_link
func toSnakeCase(s string) string {
	if len(s) == 0 {
		return ""
	}

	runes := []rune(s)
	var result strings.Builder

	for i := 0; i < len(runes); i++ {
		r := runes[i]

		if unicode.IsUpper(r) {
			acronymEnd := i + 1
			for acronymEnd < len(runes) && unicode.IsUpper(runes[acronymEnd]) {
				acronymEnd++
			}

			if acronymEnd > i+1 {
				// Last uppercase before lowercase starts next word, not part of acronym
				if acronymEnd < len(runes) && unicode.IsLower(runes[acronymEnd]) {
					acronymEnd--
				}
			}

			if i > 0 {
				result.WriteByte('_')
			}

			for j := i; j < acronymEnd; j++ {
				result.WriteRune(unicode.ToLower(runes[j]))
			}
			i = acronymEnd - 1 // -1 because loop will increment
		} else {
			result.WriteRune(r)
		}
	}
	return result.String()
}
