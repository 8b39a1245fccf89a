package provider

import (
	"bytes"
	"encoding/binary"

	"github.com/go-delve/delve/pkg/dwarf/frame"
	"github.com/go-delve/delve/pkg/dwarf/leb128"
)

// Call frame instruction opcodes. The high two bits select the primary
// opcodes, which carry an operand in the low six bits.
const (
	DW_CFA_advance_loc = frame.DW_CFA_advance_loc
	DW_CFA_offset      = frame.DW_CFA_offset
	DW_CFA_restore     = frame.DW_CFA_restore

	DW_CFA_nop                = frame.DW_CFA_nop
	DW_CFA_set_loc            = frame.DW_CFA_set_loc
	DW_CFA_advance_loc1       = frame.DW_CFA_advance_loc1
	DW_CFA_advance_loc2       = frame.DW_CFA_advance_loc2
	DW_CFA_advance_loc4       = frame.DW_CFA_advance_loc4
	DW_CFA_offset_extended    = frame.DW_CFA_offset_extended
	DW_CFA_restore_extended   = frame.DW_CFA_restore_extended
	DW_CFA_undefined          = frame.DW_CFA_undefined
	DW_CFA_same_value         = frame.DW_CFA_same_value
	DW_CFA_register           = frame.DW_CFA_register
	DW_CFA_remember_state     = frame.DW_CFA_remember_state
	DW_CFA_restore_state      = frame.DW_CFA_restore_state
	DW_CFA_def_cfa            = frame.DW_CFA_def_cfa
	DW_CFA_def_cfa_register   = frame.DW_CFA_def_cfa_register
	DW_CFA_def_cfa_offset     = frame.DW_CFA_def_cfa_offset
	DW_CFA_def_cfa_expression = frame.DW_CFA_def_cfa_expression
	DW_CFA_expression         = frame.DW_CFA_expression
	DW_CFA_offset_extended_sf = frame.DW_CFA_offset_extended_sf
	DW_CFA_def_cfa_sf         = frame.DW_CFA_def_cfa_sf
	DW_CFA_def_cfa_offset_sf  = frame.DW_CFA_def_cfa_offset_sf
	DW_CFA_val_offset         = frame.DW_CFA_val_offset
	DW_CFA_val_offset_sf      = frame.DW_CFA_val_offset_sf
	DW_CFA_val_expression     = frame.DW_CFA_val_expression

	// GNU extensions.
	DW_CFA_GNU_window_save              = 0x2d
	DW_CFA_GNU_args_size                = 0x2e
	DW_CFA_GNU_negative_offset_extended = 0x2f
)

// Operand layout of the extended opcodes: '1', '2', '4' fixed size address
// deltas, 'u' and 's' LEB128 values, 'b' a LEB128 length prefixed block.
var _cfa_operands = map[byte]string{
	DW_CFA_nop:                          "",
	DW_CFA_advance_loc1:                 "1",
	DW_CFA_advance_loc2:                 "2",
	DW_CFA_advance_loc4:                 "4",
	DW_CFA_offset_extended:              "uu",
	DW_CFA_restore_extended:             "u",
	DW_CFA_undefined:                    "u",
	DW_CFA_same_value:                   "u",
	DW_CFA_register:                     "uu",
	DW_CFA_remember_state:               "",
	DW_CFA_restore_state:                "",
	DW_CFA_def_cfa:                      "uu",
	DW_CFA_def_cfa_register:             "u",
	DW_CFA_def_cfa_offset:               "u",
	DW_CFA_def_cfa_expression:           "b",
	DW_CFA_expression:                   "ub",
	DW_CFA_offset_extended_sf:           "us",
	DW_CFA_def_cfa_sf:                   "us",
	DW_CFA_def_cfa_offset_sf:            "s",
	DW_CFA_val_offset:                   "uu",
	DW_CFA_val_offset_sf:                "us",
	DW_CFA_val_expression:               "ub",
	DW_CFA_GNU_window_save:              "",
	DW_CFA_GNU_args_size:                "u",
	DW_CFA_GNU_negative_offset_extended: "uu",
}

// uleb128 decodes an unsigned LEB128 value, returning its size in bytes or
// 0 if the encoding runs past the end of data.
func uleb128(data []byte) (value uint64, size int) {
	defer func() {
		// leb128 panics on a truncated encoding.
		if recover() != nil {
			value, size = 0, 0
		}
	}()

	value, n := leb128.DecodeUnsigned(bytes.NewReader(data))
	size = int(n)
	return
}

// rowRange finds the call frame instruction row of an FDE covering pc.
//
// begin and end are the FDE's address range, codeAlign its CIE's code
// alignment factor and program its instructions. The row is [low, high):
// low is the last location advance at or below pc, high the next one above
// it, or end. When the instruction stream cannot be followed the row
// degrades to the single address [pc, pc+1).
func rowRange(begin, end uint64, codeAlign uint64, order binary.ByteOrder, program []byte, pc uint64) (low, high uint64) {
	low, high = begin, end
	loc := begin

	degraded := func() (uint64, uint64) {
		return pc, pc + 1
	}

	for n := 0; n < len(program); {
		op := program[n]
		n++

		var delta uint64
		switch op & 0xc0 {
		case DW_CFA_advance_loc:
			delta = uint64(op&0x3f) * codeAlign
		case DW_CFA_offset:
			_, size := uleb128(program[n:])
			if size == 0 {
				return degraded()
			}
			n += size
			continue
		case DW_CFA_restore:
			continue
		default:
			if op == DW_CFA_set_loc {
				return degraded()
			}
			layout, ok := _cfa_operands[op]
			if !ok {
				return degraded()
			}
			for _, operand := range []byte(layout) {
				switch operand {
				case '1':
					if n+1 > len(program) {
						return degraded()
					}
					delta = uint64(program[n]) * codeAlign
					n++
				case '2':
					if n+2 > len(program) {
						return degraded()
					}
					delta = uint64(order.Uint16(program[n:])) * codeAlign
					n += 2
				case '4':
					if n+4 > len(program) {
						return degraded()
					}
					delta = uint64(order.Uint32(program[n:])) * codeAlign
					n += 4
				case 'u', 's':
					_, size := uleb128(program[n:])
					if size == 0 {
						return degraded()
					}
					n += size
				case 'b':
					length, size := uleb128(program[n:])
					if size == 0 || uint64(len(program)-n-size) < length {
						return degraded()
					}
					n += size + int(length)
				}
			}
			if delta == 0 {
				continue
			}
		}

		loc += delta
		if loc > pc {
			high = min(loc, end)
			return
		}
		low = loc
	}

	return
}
