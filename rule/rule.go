// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

// Package rule models how each register of a caller's frame is recovered
// from the callee's frame, and evaluates those recovery rules.
package rule

import (
	"fmt"

	"github.com/ezrec/frameunwind/expr"
	"github.com/ezrec/frameunwind/memory"
	"github.com/ezrec/frameunwind/regs"
)

// RuleKind selects the variant of a Rule.
type RuleKind int

//go:generate go tool stringer -linecomment -type=RuleKind
const (
	RULE_SAME_VALUE      = RuleKind(0) // same_value
	RULE_UNDEFINED       = RuleKind(1) // undefined
	RULE_REGISTER_OFFSET = RuleKind(2) // register_offset
	RULE_EXPRESSION      = RuleKind(3) // expression
)

// Rule is the recovery recipe of one register.
type Rule struct {
	Kind       RuleKind
	Register   regs.Register // RULE_REGISTER_OFFSET: base register, or regs.CFA.
	Offset     int64         // RULE_REGISTER_OFFSET: added to the base.
	Expression []byte        // RULE_EXPRESSION: DWARF expression bytecode.

	// Indirect rules compute an address; the recovered value is the machine
	// word stored there.
	Indirect bool
}

// RegisterFile exposes the register values of the callee frame.
type RegisterFile interface {
	Value(reg regs.Register) (value uint64, ok bool)
}

// SameValue keeps the callee's value.
func SameValue() Rule {
	return Rule{Kind: RULE_SAME_VALUE}
}

// Undefined marks a register that cannot be recovered.
func Undefined() Rule {
	return Rule{Kind: RULE_UNDEFINED}
}

// RegisterPlusOffset is reg+offset. With regs.CFA as the base and a non-zero
// offset the value is loaded from memory at cfa+offset; an offset of zero is
// a plain copy of the base, for the CFA as for any other register.
func RegisterPlusOffset(reg regs.Register, offset int64) Rule {
	return Rule{
		Kind:     RULE_REGISTER_OFFSET,
		Register: reg,
		Offset:   offset,
		Indirect: reg == regs.CFA && offset != 0,
	}
}

// SavedAt loads the value from memory at cfa+offset (DW_CFA_offset).
func SavedAt(offset int64) Rule {
	return Rule{
		Kind:     RULE_REGISTER_OFFSET,
		Register: regs.CFA,
		Offset:   offset,
		Indirect: true,
	}
}

// ValueAt is reg+offset without a memory load (DW_CFA_val_offset).
func ValueAt(reg regs.Register, offset int64) Rule {
	return Rule{
		Kind:     RULE_REGISTER_OFFSET,
		Register: reg,
		Offset:   offset,
	}
}

// Expression is the result of evaluating code (DW_CFA_val_expression).
func Expression(code []byte) Rule {
	return Rule{Kind: RULE_EXPRESSION, Expression: code}
}

// SavedAtExpression loads the value from the address computed by code
// (DW_CFA_expression).
func SavedAtExpression(code []byte) Rule {
	return Rule{Kind: RULE_EXPRESSION, Expression: code, Indirect: true}
}

// Compute recovers a register's caller value. old is the register's value in
// the callee and cfa the canonical frame address already computed for this
// step.
func (r Rule) Compute(mem memory.Reader, file RegisterFile, old uint64, cfa uint64) (value uint64, err error) {
	switch r.Kind {
	case RULE_SAME_VALUE:
		value = old
		return
	case RULE_UNDEFINED:
		err = ErrUndefinedRegister
		return
	case RULE_REGISTER_OFFSET:
		base := cfa
		if r.Register != regs.CFA {
			var ok bool
			base, ok = file.Value(r.Register)
			if !ok {
				err = fmt.Errorf("%w: r%d", ErrUndefinedRegister, int(r.Register))
				return
			}
		}
		value = base + uint64(r.Offset)
	case RULE_EXPRESSION:
		var result int64
		result, err = expr.Evaluate(r.Expression, old, cfa)
		if err != nil {
			return
		}
		value = uint64(result)
	default:
		err = ErrRuleKind
		return
	}

	if r.Indirect {
		value, err = mem.ReadWord(value)
	}

	return
}

// ComputeCFA evaluates r as the canonical frame address rule of a frame.
// The rule may not depend on the CFA itself.
func (r Rule) ComputeCFA(mem memory.Reader, file RegisterFile) (cfa uint64, err error) {
	switch r.Kind {
	case RULE_SAME_VALUE:
		err = ErrRuleKind
		return
	case RULE_REGISTER_OFFSET:
		if r.Register == regs.CFA {
			err = ErrCFASelfReference
			return
		}
	}

	return r.Compute(mem, file, 0, 0)
}

// Format renders the rule with register names from arch.
func (r Rule) Format(arch *regs.Arch) (text string) {
	switch r.Kind {
	case RULE_SAME_VALUE:
		text = "same"
	case RULE_UNDEFINED:
		text = "undefined"
	case RULE_REGISTER_OFFSET:
		text = arch.RegName(r.Register)
		if r.Offset != 0 {
			text += fmt.Sprintf("%+d", r.Offset)
		}
	case RULE_EXPRESSION:
		regName := func(n uint64) string { return arch.RegName(regs.Register(n)) }
		text = "expr(" + expr.Disassemble(r.Expression, regName) + ")"
	default:
		text = r.Kind.String()
	}

	if r.Indirect {
		text = "[" + text + "]"
	}

	return
}
