package expr

import (
	"errors"

	"github.com/ezrec/frameunwind/translate"
)

var f = translate.From

var (
	// Stack errors
	ErrStackOverflow  = errors.New(f("stack overflow"))
	ErrStackUnderflow = errors.New(f("stack underflow"))

	// Evaluation errors
	ErrUnsupportedOpcode = errors.New(f("unsupported opcode"))
	ErrEmptyResult       = errors.New(f("empty result"))
	ErrEndOfCode         = errors.New(f("step past end of expression"))
)

// ErrOpcode locates the opcode that stopped an evaluation.
type ErrOpcode struct {
	Offset int
	Op     Opcode
}

func (eo ErrOpcode) Error() string {
	return f("opcode 0x%02x %v at offset %d", uint8(eo.Op), eo.Op.String(), eo.Offset)
}

func (eo ErrOpcode) Is(err error) (ok bool) {
	_, ok = err.(ErrOpcode)
	return
}
