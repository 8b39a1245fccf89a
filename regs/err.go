package regs

import (
	"errors"

	"github.com/ezrec/frameunwind/translate"
)

var f = translate.From

var (
	ErrArchUnknown     = errors.New(f("architecture unknown"))
	ErrRegisterUnknown = errors.New(f("register unknown"))
)

// ErrArch names the architecture that could not be resolved.
type ErrArch string

func (err ErrArch) Error() string {
	return f("architecture '%v'", string(err))
}
