package rule

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ezrec/frameunwind/expr"
	"github.com/ezrec/frameunwind/memory"
	"github.com/ezrec/frameunwind/regs"
)

type registerFile map[regs.Register]uint64

func (rf registerFile) Value(reg regs.Register) (value uint64, ok bool) {
	value, ok = rf[reg]
	return
}

func testMemory() *memory.Snapshot {
	snap := memory.NewSnapshot(regs.AMD64)
	snap.WriteWord(0x1000, 0x1234)
	snap.WriteWord(0x1008, 0xABCD)
	snap.WriteWord(0x1010, 0x5555)
	snap.WriteWord(0x18, 0x1818)
	snap.Deny(0x3000, 0x100)
	return snap
}

func TestRule_Compute(t *testing.T) {
	assert := assert.New(t)

	mem := testMemory()
	file := registerFile{
		regs.AMD64.SP: 0x1000,
		regs.AMD64.FP: 0x2000,
		3:             0x30,
	}

	table := [](struct {
		name  string
		rule  Rule
		old   uint64
		cfa   uint64
		value uint64
		err   error
	}){
		{"same", SameValue(), 0x42, 0x1010, 0x42, nil},
		{"undefined", Undefined(), 0x42, 0x1010, 0, ErrUndefinedRegister},
		{"cfa_load", RegisterPlusOffset(regs.CFA, -8), 0, 0x1010, 0xABCD, nil},
		{"cfa_load_fp", RegisterPlusOffset(regs.CFA, -16), 0, 0x1010, 0x1234, nil},
		{"cfa_copy", RegisterPlusOffset(regs.CFA, 0), 0, 0x1010, 0x1010, nil},
		{"saved_at_zero", SavedAt(0), 0, 0x1010, 0x5555, nil},
		{"value_at_cfa", ValueAt(regs.CFA, 16), 0, 0x1010, 0x1020, nil},
		{"reg_offset", RegisterPlusOffset(regs.AMD64.SP, 16), 0, 0, 0x1010, nil},
		{"reg_negative", RegisterPlusOffset(regs.AMD64.FP, -0x10), 0, 0, 0x1ff0, nil},
		{"reg_copy", RegisterPlusOffset(3, 0), 0, 0, 0x30, nil},
		{"reg_missing", RegisterPlusOffset(9, 0), 0, 0, 0, ErrUndefinedRegister},
		{"cfa_unmapped", RegisterPlusOffset(regs.CFA, 0x100), 0, 0x1010, 0, memory.ErrUnmapped},
		{"cfa_denied", RegisterPlusOffset(regs.CFA, 8), 0, 0x3000, 0, memory.ErrAccessDenied},
		{"expr", Expression([]byte{0x30, 0x31, 0x4f}), 0, 0x1010, 31, nil},
		{"expr_indirect", SavedAtExpression([]byte{0x48}), 0, 0, 0x1818, nil},
		{"expr_unsupported", Expression([]byte{0x9c}), 0, 0x1010, 0, expr.ErrUnsupportedOpcode},
		{"expr_empty", Expression(nil), 0, 0x1010, 0, expr.ErrEmptyResult},
		{"bad_kind", Rule{Kind: RuleKind(9)}, 0, 0, 0, ErrRuleKind},
	}

	for _, entry := range table {
		value, err := entry.rule.Compute(mem, file, entry.old, entry.cfa)
		if entry.err != nil {
			assert.ErrorIs(err, entry.err, entry.name)
			continue
		}
		assert.NoError(err, entry.name)
		assert.Equal(entry.value, value, entry.name)
	}
}

func TestRule_ComputeCFA(t *testing.T) {
	assert := assert.New(t)

	mem := testMemory()
	file := registerFile{regs.AMD64.SP: 0x1000}

	cfa, err := RegisterPlusOffset(regs.AMD64.SP, 16).ComputeCFA(mem, file)
	assert.NoError(err)
	assert.Equal(uint64(0x1010), cfa)

	_, err = RegisterPlusOffset(regs.CFA, 8).ComputeCFA(mem, file)
	assert.ErrorIs(err, ErrCFASelfReference)

	_, err = SameValue().ComputeCFA(mem, file)
	assert.ErrorIs(err, ErrRuleKind)

	_, err = Undefined().ComputeCFA(mem, file)
	assert.ErrorIs(err, ErrUndefinedRegister)
}

func TestRule_Format(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		rule Rule
		text string
	}){
		{SameValue(), "same"},
		{Undefined(), "undefined"},
		{RegisterPlusOffset(regs.CFA, -8), "[cfa-8]"},
		{RegisterPlusOffset(regs.CFA, 0), "cfa"},
		{RegisterPlusOffset(7, 16), "rsp+16"},
		{SavedAt(0), "[cfa]"},
		{Expression([]byte{0x30, 0x31}), "expr(DW_OP_lit0 DW_OP_lit1)"},
		{SavedAtExpression([]byte{0x40}), "[expr(DW_OP_lit16)]"},
		{Expression([]byte{0x77, 0x10}), "expr(DW_OP_breg7(rsp) 0x10)"},
		{Expression([]byte{0x9c, 0x23, 0x10}), "expr(DW_OP_call_frame_cfa DW_OP_plus_uconst 0x10)"},
		{Rule{Kind: RuleKind(7)}, "RuleKind(7)"},
	}

	for _, entry := range table {
		assert.Equal(entry.text, entry.rule.Format(regs.AMD64))
	}

	assert.Equal("[lr+8]", Rule{Kind: RULE_REGISTER_OFFSET, Register: 30, Offset: 8, Indirect: true}.Format(regs.ARM64))
}
