package provider

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUleb128(t *testing.T) {
	assert := assert.New(t)

	table := []struct {
		data  []byte
		value uint64
		size  int
	}{
		{[]byte{0x02}, 2, 1},
		{[]byte{0x7f, 0xff}, 127, 1},
		{[]byte{0x80, 0x01}, 128, 2},
		{[]byte{0xe5, 0x8e, 0x26}, 624485, 3},
		{[]byte{0x80}, 0, 0},
		{nil, 0, 0},
	}

	for _, entry := range table {
		value, size := uleb128(entry.data)
		assert.Equal(entry.value, value, "%x", entry.data)
		assert.Equal(entry.size, size, "%x", entry.data)
	}
}

func TestRowRange(t *testing.T) {
	assert := assert.New(t)

	// A typical frame pointer prologue.
	program := []byte{
		DW_CFA_advance_loc | 1,
		DW_CFA_def_cfa_offset, 16,
		DW_CFA_offset | 6, 2,
		DW_CFA_advance_loc | 3,
		DW_CFA_def_cfa_register, 6,
		DW_CFA_advance_loc1, 0x20,
		DW_CFA_def_cfa, 7, 8,
		DW_CFA_nop, DW_CFA_nop,
	}

	table := []struct {
		pc        uint64
		low, high uint64
	}{
		{0x1000, 0x1000, 0x1001},
		{0x1001, 0x1001, 0x1004},
		{0x1003, 0x1001, 0x1004},
		{0x1004, 0x1004, 0x1024},
		{0x1023, 0x1004, 0x1024},
		{0x1024, 0x1024, 0x1040},
		{0x103f, 0x1024, 0x1040},
	}

	for _, entry := range table {
		low, high := rowRange(0x1000, 0x1040, 1, binary.LittleEndian, program, entry.pc)
		assert.Equal(entry.low, low, "0x%x", entry.pc)
		assert.Equal(entry.high, high, "0x%x", entry.pc)
	}
}

func TestRowRange_Operands(t *testing.T) {
	assert := assert.New(t)

	table := []struct {
		name      string
		codeAlign uint64
		order     binary.ByteOrder
		program   []byte
		pc        uint64
		low, high uint64
	}{
		{"empty", 1, binary.LittleEndian, nil, 0x1010, 0x1000, 0x1100},
		{"aligned", 4, binary.LittleEndian, []byte{DW_CFA_advance_loc | 1}, 0x1002, 0x1000, 0x1004},
		{"loc2", 1, binary.LittleEndian, []byte{DW_CFA_advance_loc2, 0x80, 0x00}, 0x1090, 0x1080, 0x1100},
		{"loc2-be", 1, binary.BigEndian, []byte{DW_CFA_advance_loc2, 0x00, 0x80}, 0x1010, 0x1000, 0x1080},
		{"loc4", 1, binary.LittleEndian, []byte{DW_CFA_advance_loc4, 0x40, 0, 0, 0}, 0x1040, 0x1040, 0x1100},
		{"loc-past-end", 1, binary.LittleEndian, []byte{DW_CFA_advance_loc2, 0x00, 0x02}, 0x1010, 0x1000, 0x1100},
		{"block", 1, binary.LittleEndian, []byte{
			DW_CFA_def_cfa_expression, 2, 0x31, 0x41,
			DW_CFA_advance_loc | 8,
			DW_CFA_val_expression, 16, 1, 0x30,
			DW_CFA_advance_loc | 8,
		}, 0x1009, 0x1008, 0x1010},
		{"sleb", 1, binary.LittleEndian, []byte{
			DW_CFA_offset_extended_sf, 16, 0x78,
			DW_CFA_GNU_args_size, 0x80, 0x01,
			DW_CFA_advance_loc | 2,
		}, 0x1000, 0x1000, 0x1002},
		{"zero-advance", 1, binary.LittleEndian, []byte{
			DW_CFA_advance_loc1, 0,
			DW_CFA_advance_loc | 4,
		}, 0x1000, 0x1000, 0x1004},
		{"restore", 1, binary.LittleEndian, []byte{
			DW_CFA_remember_state,
			DW_CFA_restore | 6,
			DW_CFA_restore_state,
			DW_CFA_advance_loc | 4,
		}, 0x1000, 0x1000, 0x1004},
	}

	for _, entry := range table {
		low, high := rowRange(0x1000, 0x1100, entry.codeAlign, entry.order, entry.program, entry.pc)
		assert.Equal(entry.low, low, entry.name)
		assert.Equal(entry.high, high, entry.name)
	}
}

func TestRowRange_Degraded(t *testing.T) {
	assert := assert.New(t)

	table := []struct {
		name    string
		program []byte
	}{
		{"set_loc", []byte{DW_CFA_set_loc, 0, 0x20, 0, 0, 0, 0, 0, 0}},
		{"unknown", []byte{0x3f}},
		{"truncated-loc1", []byte{DW_CFA_advance_loc1}},
		{"truncated-loc2", []byte{DW_CFA_advance_loc2, 1}},
		{"truncated-loc4", []byte{DW_CFA_advance_loc4, 1, 0}},
		{"truncated-leb", []byte{DW_CFA_def_cfa, 0x87}},
		{"truncated-offset", []byte{DW_CFA_offset | 6}},
		{"truncated-block", []byte{DW_CFA_def_cfa_expression, 4, 0x30}},
	}

	for _, entry := range table {
		low, high := rowRange(0x1000, 0x1100, 1, binary.LittleEndian, entry.program, 0x1010)
		assert.Equal(uint64(0x1010), low, entry.name)
		assert.Equal(uint64(0x1011), high, entry.name)
	}
}
