//go:build !linux

package memory

import (
	"github.com/ezrec/frameunwind/regs"
)

// Process reads the memory of another process. Cross-process reads are only
// implemented on Linux; elsewhere every read is denied.
type Process struct {
	Pid  int
	Arch *regs.Arch
}

var _ Reader = (*Process)(nil)

// NewProcess creates a reader for the process pid.
func NewProcess(pid int, arch *regs.Arch) (proc *Process) {
	proc = &Process{
		Pid:  pid,
		Arch: arch,
	}

	return
}

func (proc *Process) ReadWord(addr uint64) (word uint64, err error) {
	err = fault(addr, ErrAccessDenied)
	return
}
