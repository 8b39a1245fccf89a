//go:build linux

package memory

import (
	"errors"

	"golang.org/x/sys/unix"

	"github.com/ezrec/frameunwind/regs"
)

// Process reads the memory of another process with process_vm_readv(2).
// The caller needs ptrace access to the target.
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
	buf := make([]byte, proc.Arch.PtrSize)

	local := []unix.Iovec{{Base: &buf[0]}}
	local[0].SetLen(len(buf))
	remote := []unix.RemoteIovec{{Base: uintptr(addr), Len: len(buf)}}

	n, err := unix.ProcessVMReadv(proc.Pid, local, remote, 0)
	switch {
	case errors.Is(err, unix.EFAULT), errors.Is(err, unix.EIO):
		err = fault(addr, errors.Join(ErrUnmapped, err))
		return
	case err != nil:
		err = fault(addr, errors.Join(ErrAccessDenied, err))
		return
	case n != len(buf):
		err = fault(addr, ErrUnmapped)
		return
	}

	word = proc.Arch.Word(buf)
	return
}
