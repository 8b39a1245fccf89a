package expr

import (
	"errors"
)

// Machine evaluates one DWARF expression. A Machine is owned by a single
// evaluation; create a new one (or Reset it) for every expression.
type Machine struct {
	Stack Stack // Operand stack.
	Pc    int   // Offset of the next opcode.

	OldValue uint64 // Value of the register being recovered, in the callee.
	CFA      uint64 // Canonical frame address of the step.
}

// NewMachine creates a machine with its implicit operands set.
func NewMachine(oldValue uint64, cfa uint64) (m *Machine) {
	m = &Machine{
		OldValue: oldValue,
		CFA:      cfa,
	}

	return
}

// Reset clears the stack and rewinds the program counter.
func (m *Machine) Reset() {
	m.Stack.Reset()
	m.Pc = 0
}

// Step executes the opcode at Pc and advances past it. Stepping past the
// end of code is ErrEndOfCode.
func (m *Machine) Step(code []byte) (err error) {
	if m.Pc < 0 || m.Pc >= len(code) {
		err = ErrEndOfCode
		return
	}

	op := Opcode(code[m.Pc])
	defer func() {
		if err != nil {
			err = errors.Join(err, ErrOpcode{Offset: m.Pc, Op: op})
		}
	}()

	switch {
	case op.IsLiteral():
		err = m.Stack.Push(op.Literal())
	default:
		err = ErrUnsupportedOpcode
	}
	if err != nil {
		return
	}

	m.Pc++
	return
}

// Execute runs code to its end and returns the top of the stack.
func (m *Machine) Execute(code []byte) (value int64, err error) {
	for m.Pc < len(code) {
		err = m.Step(code)
		if err != nil {
			return
		}
	}

	value, ok := m.Stack.Peek()
	if !ok {
		err = ErrEmptyResult
		return
	}

	return
}

// Evaluate runs code on a fresh machine.
func Evaluate(code []byte, oldValue uint64, cfa uint64) (value int64, err error) {
	return NewMachine(oldValue, cfa).Execute(code)
}
