package memory

import (
	"errors"

	"github.com/ezrec/frameunwind/translate"
)

var f = translate.From

var (
	// Access errors
	ErrUnmapped     = errors.New(f("address unmapped"))
	ErrAccessDenied = errors.New(f("access denied"))

	// Snapshot errors
	ErrSnapshotWordSize = errors.New(f("snapshot word size invalid"))
)

// ErrAddress is the target address of a failed read.
type ErrAddress uint64

func (ea ErrAddress) Error() string {
	return f("address 0x%x", uint64(ea))
}

func (ea ErrAddress) Is(err error) (ok bool) {
	_, ok = err.(ErrAddress)
	return
}
