// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

// Package unwind derives a caller's register context from its callee's,
// one frame at a time, and walks whole call stacks.
package unwind

import (
	"errors"
	"maps"
	"slices"

	"github.com/tliron/commonlog"

	"github.com/ezrec/frameunwind/memory"
	"github.com/ezrec/frameunwind/provider"
	"github.com/ezrec/frameunwind/regs"
	"github.com/ezrec/frameunwind/rule"
)

var log = commonlog.GetLogger("frameunwind.unwind")

// DEFAULT_MAX_FRAMES bounds a walk when Unwinder.MaxFrames is unset.
const DEFAULT_MAX_FRAMES = 128

// Unwinder recovers caller contexts using the rules of a Provider and the
// memory of the target.
type Unwinder struct {
	Arch     *regs.Arch
	Provider provider.Provider
	Memory   memory.Reader

	// Required registers must be recovered in every caller frame. When nil
	// the architecture's program counter, frame pointer and stack pointer
	// are required.
	Required []regs.Register

	MaxFrames    int  // Walk frame limit, DEFAULT_MAX_FRAMES if zero.
	StopOnZeroFP bool // Walk stops after a frame with a zero frame pointer.
}

// NewUnwinder creates an unwinder with the default walk limits.
func NewUnwinder(arch *regs.Arch, p provider.Provider, mem memory.Reader) (uw *Unwinder) {
	uw = &Unwinder{
		Arch:     arch,
		Provider: p,
		Memory:   mem,
	}

	return
}

func (uw *Unwinder) required() []regs.Register {
	if uw.Required != nil {
		return uw.Required
	}
	return uw.Arch.Required()
}

func (uw *Unwinder) registerError(reg regs.Register, err error) error {
	return &ErrRegister{Register: reg, Name: uw.Arch.RegName(reg), Err: err}
}

// Step computes the context of the caller of ctx. The canonical frame
// address is computed first and every other rule of the step sees it. On
// failure no context is returned.
func (uw *Unwinder) Step(ctx *Context) (caller *Context, err error) {
	caller, _, _, err = uw.step(ctx)
	return
}

func (uw *Unwinder) step(ctx *Context) (caller *Context, cfa uint64, table *rule.Table, err error) {
	arch := uw.Arch
	pc := ctx.PC()

	table, err = uw.Provider.Lookup(pc)
	if err != nil {
		return
	}

	cfa, err = table.CFA.ComputeCFA(uw.Memory, ctx)
	if err != nil {
		err = uw.registerError(regs.CFA, err)
		return
	}

	required := uw.required()

	tracked := slices.AppendSeq(slices.Collect(maps.Keys(ctx.values)), maps.Keys(table.Rules))
	slices.Sort(tracked)
	tracked = slices.Compact(tracked)

	values := make(map[regs.Register]uint64, len(tracked))
	for _, reg := range tracked {
		r, ok := table.Rule(reg)
		if !ok {
			r = rule.SameValue()
			if reg == arch.SP {
				r = rule.ValueAt(regs.CFA, 0)
			}
		}

		old, known := ctx.Value(reg)

		switch {
		case r.Kind == rule.RULE_UNDEFINED && reg == arch.ReturnAddress:
			err = uw.registerError(reg, errors.Join(rule.ErrUndefinedRegister, ErrOutermost))
			return
		case r.Kind == rule.RULE_UNDEFINED && !slices.Contains(required, reg):
			continue
		case r.Kind == rule.RULE_SAME_VALUE && !known:
			continue
		}

		var value uint64
		value, err = r.Compute(uw.Memory, ctx, old, cfa)
		if err != nil {
			err = uw.registerError(reg, err)
			return
		}
		values[reg] = value
	}

	if arch.ReturnAddress != arch.PC {
		ra, ok := values[arch.ReturnAddress]
		if !ok {
			err = uw.registerError(arch.ReturnAddress, rule.ErrUndefinedRegister)
			return
		}
		values[arch.PC] = ra
	}

	for _, reg := range required {
		if _, ok := values[reg]; !ok {
			err = uw.registerError(reg, rule.ErrUndefinedRegister)
			return
		}
	}

	caller = &Context{
		Arch:   arch,
		values: values,
	}

	log.Debugf("pc 0x%x: cfa 0x%x, caller %v", pc, cfa, caller)

	return
}
