package unwind

import (
	"fmt"
	"iter"
	"maps"
	"strings"

	"github.com/ezrec/frameunwind/internal"
	"github.com/ezrec/frameunwind/regs"
	"github.com/ezrec/frameunwind/rule"
)

// Context is the register state of one frame. A Context is never modified
// once created; unwinding a step produces a new one.
type Context struct {
	Arch *regs.Arch

	values map[regs.Register]uint64
}

var _ rule.RegisterFile = (*Context)(nil)

// NewContext creates a context from register values, which are copied.
func NewContext(arch *regs.Arch, values map[regs.Register]uint64) (ctx *Context) {
	ctx = &Context{
		Arch:   arch,
		values: maps.Clone(values),
	}
	if ctx.values == nil {
		ctx.values = map[regs.Register]uint64{}
	}

	return
}

// ParseContext creates a context from register values keyed by name.
func ParseContext(arch *regs.Arch, named map[string]uint64) (ctx *Context, err error) {
	values := make(map[regs.Register]uint64, len(named))
	for name, value := range named {
		var reg regs.Register
		reg, err = arch.Lookup(name)
		if err != nil {
			return
		}
		if reg == regs.CFA {
			err = fmt.Errorf("%w: %v", regs.ErrRegisterUnknown, name)
			return
		}
		values[reg] = value
	}

	ctx = &Context{
		Arch:   arch,
		values: values,
	}
	return
}

// Value returns a register value, if the context holds one.
func (ctx *Context) Value(reg regs.Register) (value uint64, ok bool) {
	value, ok = ctx.values[reg]
	return
}

func (ctx *Context) PC() uint64 {
	return ctx.values[ctx.Arch.PC]
}

func (ctx *Context) FP() uint64 {
	return ctx.values[ctx.Arch.FP]
}

func (ctx *Context) SP() uint64 {
	return ctx.values[ctx.Arch.SP]
}

// Len is the number of registers held.
func (ctx *Context) Len() int {
	return len(ctx.values)
}

// Registers iterates over the held registers in ascending order.
func (ctx *Context) Registers() iter.Seq2[regs.Register, uint64] {
	return internal.SortedAll(ctx.values)
}

// Named returns the register values keyed by name.
func (ctx *Context) Named() (named map[string]uint64) {
	named = make(map[string]uint64, len(ctx.values))
	for reg, value := range ctx.values {
		named[ctx.Arch.RegName(reg)] = value
	}
	return
}

func (ctx *Context) String() string {
	var parts []string
	for reg, value := range ctx.Registers() {
		parts = append(parts, fmt.Sprintf("%v=0x%x", ctx.Arch.RegName(reg), value))
	}
	return strings.Join(parts, " ")
}
