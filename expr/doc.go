// Package expr implements the DWARF expression stack machine used by
// expression register rules.
//
// The machine owns a bounded operand stack of STACK_LIMIT signed machine
// words. Only the literal family DW_OP_lit0..DW_OP_lit31 executes; every
// other opcode stops evaluation with ErrUnsupportedOpcode, so an expression
// is never partially or wrongly decoded. The result of an evaluation is the
// value on top of the stack once the byte sequence is exhausted.
package expr
