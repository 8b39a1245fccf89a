package regs

import (
	"debug/elf"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestByName(t *testing.T) {
	assert := assert.New(t)

	arch, err := ByName("AMD64")
	assert.NoError(err)
	assert.Same(AMD64, arch)

	arch, err = ForMachine(elf.EM_AARCH64)
	assert.NoError(err)
	assert.Same(ARM64, arch)

	_, err = ByName("vax")
	assert.ErrorIs(err, ErrArchUnknown)
	assert.ErrorIs(err, ErrArch("vax"))

	_, err = ForMachine(elf.EM_MIPS)
	assert.ErrorIs(err, ErrArchUnknown)
}

func TestArch_Lookup(t *testing.T) {
	assert := assert.New(t)

	table := []struct {
		arch *Arch
		name string
		reg  Register
	}{
		{AMD64, "rip", 16},
		{AMD64, " RSP ", 7},
		{AMD64, "r3", 3},
		{AMD64, "r15", 15},
		{AMD64, "12", 12},
		{AMD64, "cfa", CFA},
		{ARM64, "x0", 0},
		{ARM64, "lr", 30},
		{ARM64, "sp", 31},
		{ARM64, "pc", 32},
	}

	for _, entry := range table {
		reg, err := entry.arch.Lookup(entry.name)
		assert.NoError(err, entry.name)
		assert.Equal(entry.reg, reg, entry.name)
	}

	for _, name := range []string{"x9", "r17", "-1", "", "eax"} {
		_, err := AMD64.Lookup(name)
		assert.ErrorIs(err, ErrRegisterUnknown, name)
	}
}

func TestArch_RegName(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("cfa", AMD64.RegName(CFA))
	assert.Equal("rbp", AMD64.RegName(AMD64.FP))
	assert.Equal("r40", AMD64.RegName(40))
	assert.Equal("fp", ARM64.RegName(ARM64.FP))
	assert.Equal(17, AMD64.Width())
	assert.Equal(33, ARM64.Width())
	assert.Equal([]Register{16, 6, 7}, AMD64.Required())
}

func TestArch_Word(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(uint64(0x0807060504030201), AMD64.Word([]byte{1, 2, 3, 4, 5, 6, 7, 8}))

	arch32 := &Arch{PtrSize: 4, ByteOrder: AMD64.ByteOrder}
	assert.Equal(uint64(0x04030201), arch32.Word([]byte{1, 2, 3, 4}))
}
