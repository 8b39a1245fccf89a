//go:build linux

package memory

import (
	"errors"
	"os"
	"runtime"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"

	"github.com/ezrec/frameunwind/regs"
)

func hostArch(t *testing.T) *regs.Arch {
	switch runtime.GOARCH {
	case "amd64":
		return regs.AMD64
	case "arm64":
		return regs.ARM64
	}
	t.Skipf("no register table for %v", runtime.GOARCH)
	return nil
}

func TestProcess_Self(t *testing.T) {
	assert := assert.New(t)

	value := new(uint64)
	*value = 0xfeedface_cafef00d

	proc := NewProcess(os.Getpid(), hostArch(t))

	word, err := proc.ReadWord(uint64(uintptr(unsafe.Pointer(value))))
	if errors.Is(err, ErrAccessDenied) {
		t.Skipf("process_vm_readv not permitted: %v", err)
	}
	assert.NoError(err)
	assert.Equal(*value, word)
	runtime.KeepAlive(value)

	_, err = proc.ReadWord(0)
	assert.ErrorIs(err, ErrUnmapped)
}
