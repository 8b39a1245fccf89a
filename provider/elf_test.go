package provider

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ezrec/frameunwind/regs"
	"github.com/ezrec/frameunwind/rule"
)

// testdata/frames is built from testdata/frames.c; see there.
const framesELF = "testdata/frames"

// Function addresses of testdata/frames.
const (
	framesLeaf   = uint64(0x401000)
	framesMiddle = uint64(0x40101b)
	framesStart  = uint64(0x40104c)
	framesEnd    = uint64(0x40105c)
)

func TestOpenELF(t *testing.T) {
	assert := assert.New(t)

	ef, err := OpenELF(framesELF, 64)
	if !assert.NoError(err) {
		return
	}
	assert.Equal(regs.AMD64, ef.Arch)
	assert.Equal(64, ef.Width())

	rbp := regs.AMD64.FP
	rsp := regs.AMD64.SP
	rip := regs.AMD64.ReturnAddress

	table := [](struct {
		name      string
		pc        uint64
		low, high uint64
		cfa       rule.Rule
		fp        bool
	}){
		{"leaf entry", framesLeaf, 0x401000, 0x401001, rule.RegisterPlusOffset(rsp, 8), false},
		{"leaf push", 0x401001, 0x401001, 0x401004, rule.RegisterPlusOffset(rsp, 16), true},
		{"leaf mov", 0x401003, 0x401001, 0x401004, rule.RegisterPlusOffset(rsp, 16), true},
		{"leaf body", 0x401004, 0x401004, 0x40101a, rule.RegisterPlusOffset(rbp, 16), true},
		{"leaf body end", 0x401019, 0x401004, 0x40101a, rule.RegisterPlusOffset(rbp, 16), true},
		{"leaf ret", 0x40101a, 0x40101a, framesMiddle, rule.RegisterPlusOffset(rsp, 8), true},
		{"middle call", 0x401033, 0x40101f, 0x40104b, rule.RegisterPlusOffset(rbp, 16), true},
		{"start loop", 0x40105a, 0x401050, framesEnd, rule.RegisterPlusOffset(rbp, 16), true},
	}

	for _, entry := range table {
		rules, err := ef.Lookup(entry.pc)
		if !assert.NoError(err, entry.name) {
			continue
		}
		assert.Equal(entry.low, rules.Low, entry.name)
		assert.Equal(entry.high, rules.High, entry.name)
		assert.Equal(entry.cfa, rules.CFA, entry.name)
		assert.Equal(rule.SavedAt(-8), rules.Rules[rip], entry.name)
		if entry.fp {
			assert.Equal(rule.SavedAt(-16), rules.Rules[rbp], entry.name)
		} else {
			assert.NotContains(rules.Rules, rbp, entry.name)
		}
	}

	for _, pc := range []uint64{0, framesLeaf - 1, framesEnd} {
		_, err = ef.Lookup(pc)
		assert.ErrorIs(err, ErrNoUnwindInfo, "0x%x", pc)
	}
}

func TestOpenELF_Width(t *testing.T) {
	assert := assert.New(t)

	_, err := OpenELF(framesELF, 0)
	assert.ErrorIs(err, ErrTableWidth)

	// Keeps rbp, drops the return address column.
	ef, err := OpenELF(framesELF, int(regs.AMD64.FP)+1)
	if !assert.NoError(err) {
		return
	}

	table, err := ef.Lookup(0x401010)
	if !assert.NoError(err) {
		return
	}
	assert.Equal(map[regs.Register]rule.Rule{regs.AMD64.FP: rule.SavedAt(-16)}, table.Rules)
}

func TestOpenELF_Missing(t *testing.T) {
	assert := assert.New(t)

	_, err := OpenELF(os.DevNull+"/missing", 16)
	assert.Error(err)
}

func TestOpenELF_NoFrameInfo(t *testing.T) {
	assert := assert.New(t)

	// testdata/nocfi is frames.c built without unwind tables.
	_, err := OpenELF("testdata/nocfi", 16)
	assert.ErrorIs(err, ErrNoFrameInfo)

	_, err = OpenELF("testdata/frames.c", 16)
	assert.Error(err)
}
