// Package regs names the DWARF register columns of the supported
// architectures.
//
// A Register is a DWARF column number. The canonical frame address is not a
// machine register; it is represented by the CFA sentinel, which is negative
// and therefore never collides with a column of any architecture.
package regs

import (
	"debug/elf"
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
)

// Register is a DWARF register column.
type Register int

// CFA refers to the canonical frame address inside a register rule.
const CFA = Register(-1)

// Arch describes the register file of an architecture.
type Arch struct {
	Name      string           // Short name, e.g. "amd64".
	Machine   elf.Machine      // ELF machine type.
	PtrSize   int              // Size of a machine word, in bytes.
	ByteOrder binary.ByteOrder // Byte order of machine words in memory.

	PC            Register // Program counter.
	SP            Register // Stack pointer.
	FP            Register // Frame pointer.
	ReturnAddress Register // Column holding the caller's program counter.

	Names []string // Register names, indexed by column.
}

// AMD64 is the x86-64 System V register file: rax..r15 and the return
// address column rip.
var AMD64 = &Arch{
	Name:      "amd64",
	Machine:   elf.EM_X86_64,
	PtrSize:   8,
	ByteOrder: binary.LittleEndian,

	PC:            16,
	SP:            7,
	FP:            6,
	ReturnAddress: 16,

	Names: []string{
		"rax", "rdx", "rcx", "rbx", "rsi", "rdi", "rbp", "rsp",
		"r8", "r9", "r10", "r11", "r12", "r13", "r14", "r15",
		"rip",
	},
}

// ARM64 is the AArch64 register file: x0..x30, sp and pc. The caller's pc is
// recovered from the link register x30.
var ARM64 = &Arch{
	Name:      "arm64",
	Machine:   elf.EM_AARCH64,
	PtrSize:   8,
	ByteOrder: binary.LittleEndian,

	PC:            32,
	SP:            31,
	FP:            29,
	ReturnAddress: 30,

	Names: arm64Names(),
}

func arm64Names() (names []string) {
	for n := range 29 {
		names = append(names, fmt.Sprintf("x%d", n))
	}
	names = append(names, "fp", "lr", "sp", "pc")
	return
}

var _archs = []*Arch{AMD64, ARM64}

// ByName returns the architecture with the given short name.
func ByName(name string) (arch *Arch, err error) {
	for _, arch = range _archs {
		if strings.EqualFold(arch.Name, name) {
			return
		}
	}

	return nil, fmt.Errorf("%w: %w", ErrArchUnknown, ErrArch(name))
}

// ForMachine returns the architecture of an ELF machine type.
func ForMachine(machine elf.Machine) (arch *Arch, err error) {
	for _, arch = range _archs {
		if arch.Machine == machine {
			return
		}
	}

	return nil, fmt.Errorf("%w: %w", ErrArchUnknown, ErrArch(machine.String()))
}

// Width is the number of register columns.
func (arch *Arch) Width() int {
	return len(arch.Names)
}

// Required is the register set every recovered frame must carry.
func (arch *Arch) Required() []Register {
	return []Register{arch.PC, arch.FP, arch.SP}
}

// RegName returns the printable name of a register column.
func (arch *Arch) RegName(reg Register) string {
	switch {
	case reg == CFA:
		return "cfa"
	case reg >= 0 && int(reg) < len(arch.Names):
		return arch.Names[reg]
	default:
		return fmt.Sprintf("r%d", int(reg))
	}
}

// Lookup resolves a register by name, by "rN" column alias or by decimal
// column number.
func (arch *Arch) Lookup(name string) (reg Register, err error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "cfa" {
		return CFA, nil
	}

	for n, regname := range arch.Names {
		if regname == name {
			return Register(n), nil
		}
	}

	num := strings.TrimPrefix(name, "r")
	value, err := strconv.ParseUint(num, 10, 16)
	if err != nil || int(value) >= len(arch.Names) {
		return 0, fmt.Errorf("%w: %v %v", ErrRegisterUnknown, arch.Name, name)
	}

	return Register(value), nil
}

// Word decodes a machine word from its in-memory representation.
func (arch *Arch) Word(data []byte) uint64 {
	if arch.PtrSize == 4 {
		return uint64(arch.ByteOrder.Uint32(data))
	}
	return arch.ByteOrder.Uint64(data)
}
