// Package memory provides read access to the address space being unwound.
//
// Every reader reports failures as values: ErrUnmapped for an address with
// no backing memory, ErrAccessDenied for memory that exists but may not be
// read. A reader never faults the host process, whatever address it is
// asked for.
package memory

import (
	"errors"
)

// Reader reads machine words from a target address space.
type Reader interface {
	// ReadWord returns the machine word at addr.
	ReadWord(addr uint64) (word uint64, err error)
}

// ReaderFunc adapts a function to the Reader interface.
type ReaderFunc func(addr uint64) (word uint64, err error)

var _ Reader = ReaderFunc(nil)

func (rf ReaderFunc) ReadWord(addr uint64) (word uint64, err error) {
	return rf(addr)
}

// fault attaches the address to an access error.
func fault(addr uint64, err error) error {
	return errors.Join(err, ErrAddress(addr))
}
