package expr

import (
	"strings"

	"github.com/go-delve/delve/pkg/dwarf/op"
)

// Opcode is a DWARF expression operation byte.
type Opcode uint8

// Literal family. DW_OP_litN pushes the constant N.
const (
	DW_OP_lit0  = Opcode(op.DW_OP_lit0)
	DW_OP_lit31 = Opcode(op.DW_OP_lit31)
)

// Register families, named only.
const (
	DW_OP_reg0   = Opcode(op.DW_OP_reg0)
	DW_OP_reg31  = Opcode(op.DW_OP_reg31)
	DW_OP_breg0  = Opcode(op.DW_OP_breg0)
	DW_OP_breg31 = Opcode(op.DW_OP_breg31)
)

// IsLiteral is true for DW_OP_lit0 through DW_OP_lit31.
func (code Opcode) IsLiteral() bool {
	return code >= DW_OP_lit0 && code <= DW_OP_lit31
}

// Literal is the constant pushed by a literal opcode.
func (code Opcode) Literal() int64 {
	return int64(code - DW_OP_lit0)
}

// String is the DWARF name of the opcode, or its hex value if it has none.
func (code Opcode) String() string {
	text := Disassemble([]byte{byte(code)}, nil)
	name, _, _ := strings.Cut(text, " ")
	return name
}

// Disassemble renders an expression one operation at a time. regName, if
// not nil, names the registers of the reg and breg families. A truncated
// operand ends the listing.
func Disassemble(code []byte, regName func(uint64) string) (text string) {
	var sb strings.Builder
	defer func() {
		// leb128 panics on a truncated operand.
		_ = recover()
		text = strings.TrimSpace(sb.String())
	}()

	op.PrettyPrint(&sb, code, regName)
	return
}
