package provider

import (
	"errors"

	"github.com/ezrec/frameunwind/translate"
)

var f = translate.From

var (
	// Lookup errors
	ErrNoUnwindInfo = errors.New(f("no unwind info"))

	// Construction errors
	ErrTableWidth   = errors.New(f("register table width invalid"))
	ErrTableRange   = errors.New(f("table range empty"))
	ErrTableOverlap = errors.New(f("table ranges overlap"))
	ErrScript       = errors.New(f("rule script invalid"))
	ErrNoFrameInfo  = errors.New(f("no call frame information"))
	ErrCFI          = errors.New(f("call frame information invalid"))
)

// ErrPC is the program counter a lookup failed for.
type ErrPC uint64

func (ep ErrPC) Error() string {
	return f("pc 0x%x", uint64(ep))
}

// noUnwindInfo reports a lookup miss for pc.
func noUnwindInfo(pc uint64) error {
	return errors.Join(ErrNoUnwindInfo, ErrPC(pc))
}
