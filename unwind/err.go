package unwind

import (
	"errors"

	"github.com/ezrec/frameunwind/regs"
	"github.com/ezrec/frameunwind/translate"
)

var f = translate.From

var (
	ErrOutermost = errors.New(f("outermost frame"))
)

// ErrRegister is the failure to recover one register of the caller. The
// canonical frame address is reported as regs.CFA.
type ErrRegister struct {
	Register regs.Register
	Name     string
	Err      error
}

func (err *ErrRegister) Error() string {
	return f("register %v: %v", err.Name, err.Err)
}

func (err *ErrRegister) Unwrap() error {
	return err.Err
}

// ErrFrame is a failed step of a walk: the frame at Index, running at PC,
// has no recoverable caller.
type ErrFrame struct {
	Index int
	PC    uint64
	Err   error
}

func (err *ErrFrame) Error() string {
	return f("frame #%d (pc 0x%x): %v", err.Index, err.PC, err.Err)
}

func (err *ErrFrame) Unwrap() error {
	return err.Err
}
