package qoi

import (
	"errors"
	"fmt"
)

var (
	ErrInputSmallerThanHeader = errors.New("qoi: input is smaller than the header")
	ErrIncorrectHeaderMagic   = errors.New("qoi: incorrect header magic")
	ErrChannels               = errors.New("qoi: invalid channel count: must be 3 or 4")
	ErrInputSize              = errors.New("qoi: input is smaller than the image it describes")
	ErrOutputTooSmall         = errors.New("qoi: output buffer is too small")
	ErrTooBig                 = errors.New("qoi: image exceeds the maximum size")
)

// IOError reports a failure of the underlying reader or writer.
type IOError struct {
	Op  string
	Err error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("qoi: %s: %v", e.Op, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}
