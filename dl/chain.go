package dl

import (
	stderrors "errors"

	"github.com/wippyai/simhost/errors"
)

// Chain tries each loader in order and returns the first library that opens.
type Chain []Loader

func (c Chain) Open(path string) (Library, error) {
	var errs []error
	for _, l := range c {
		lib, err := l.Open(path)
		if err == nil {
			return lib, nil
		}
		errs = append(errs, err)
	}
	return nil, errors.New(errors.PhaseLoad, errors.KindNotFound).
		Subject(path).
		Detail("no loader could open library").
		Cause(stderrors.Join(errs...)).
		Build()
}
