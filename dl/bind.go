package dl

import (
	"fmt"
	"reflect"
	"unsafe"

	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/simhost/errors"
)

// Bind stores sym into the function pointed to by fptr. Go values must be
// assignable or convertible to the target type; an Addr is wrapped with a
// native trampoline of the target signature.
func Bind(fptr any, sym Symbol) error {
	pv := reflect.ValueOf(fptr)
	if pv.Kind() != reflect.Pointer || pv.IsNil() || pv.Elem().Kind() != reflect.Func {
		return errors.InvalidInput(errors.PhaseBind, fmt.Sprintf("bind target must be a non-nil pointer to a func, got %T", fptr))
	}
	fn := pv.Elem()

	switch s := sym.(type) {
	case nil:
		return errors.NotFound(errors.PhaseBind, "symbol", "<nil>")
	case Addr:
		if s == 0 {
			return errors.NotFound(errors.PhaseBind, "symbol", "<null>")
		}
		return bindAddr(fptr, uintptr(s))
	}

	v := reflect.ValueOf(sym)
	if v.Kind() == reflect.Pointer && !v.IsNil() && v.Elem().Kind() == reflect.Func {
		v = v.Elem()
	}
	switch {
	case v.Type().AssignableTo(fn.Type()):
		fn.Set(v)
	case v.Kind() == reflect.Func && v.Type().ConvertibleTo(fn.Type()):
		fn.Set(v.Convert(fn.Type()))
	default:
		return errors.TypeMismatch(errors.PhaseBind, "", v.Type().String(), fn.Type().String())
	}
	return nil
}

// Int reads an integer export such as a module's major or minor version.
func Int(sym Symbol) (int, bool) {
	switch v := sym.(type) {
	case int:
		return v, true
	case int32:
		return int(v), true
	case int64:
		return int(v), true
	case uint8:
		return int(v), true
	case *int:
		if v != nil {
			return *v, true
		}
	case *int32:
		if v != nil {
			return int(*v), true
		}
	case *int64:
		if v != nil {
			return int(*v), true
		}
	case func() int:
		return v(), true
	case api.Global:
		return int(int32(v.Get())), true
	case Addr:
		if v != 0 {
			return int(*(*int32)(unsafe.Pointer(uintptr(v)))), true
		}
	}
	return 0, false
}
