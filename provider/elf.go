package provider

import (
	"debug/elf"
	"errors"
	"fmt"

	"github.com/go-delve/delve/pkg/dwarf/frame"

	"github.com/ezrec/frameunwind/regs"
	"github.com/ezrec/frameunwind/rule"
)

// ELF provides the tables described by the call frame information of an
// executable or shared object.
type ELF struct {
	Arch *regs.Arch

	width int
	fdes  frame.FrameDescriptionEntries
}

var _ Provider = (*ELF)(nil)

// OpenELF loads the .eh_frame and .debug_frame sections of an ELF file.
// Register columns at or above width are ignored.
func OpenELF(path string, width int) (ef *ELF, err error) {
	if width <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrTableWidth, width)
	}

	file, err := elf.Open(path)
	if err != nil {
		return
	}
	defer file.Close()

	ef, err = NewELF(file, width)
	if err != nil {
		err = fmt.Errorf("%v: %w", path, err)
	}
	return
}

// NewELF loads the call frame information of an open ELF file.
func NewELF(file *elf.File, width int) (ef *ELF, err error) {
	if width <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrTableWidth, width)
	}

	arch, err := regs.ForMachine(file.Machine)
	if err != nil {
		return
	}

	ef = &ELF{
		Arch:  arch,
		width: width,
	}

	for _, name := range []string{".eh_frame", ".debug_frame"} {
		sec := file.Section(name)
		if sec == nil || sec.Type == elf.SHT_NOBITS {
			continue
		}

		var data []byte
		data, err = sec.Data()
		if err != nil {
			return nil, fmt.Errorf("%v: %w", name, err)
		}

		// .eh_frame encodes pc relative pointers.
		var ehFrameAddr uint64
		if name == ".eh_frame" {
			ehFrameAddr = sec.Addr
		}

		var fdes frame.FrameDescriptionEntries
		fdes, err = parseFrames(data, file, arch, ehFrameAddr)
		if err != nil {
			return nil, fmt.Errorf("%v: %w", name, err)
		}
		ef.fdes = ef.fdes.Append(fdes)
	}

	if len(ef.fdes) == 0 {
		return nil, ErrNoFrameInfo
	}

	return
}

func parseFrames(data []byte, file *elf.File, arch *regs.Arch, ehFrameAddr uint64) (fdes frame.FrameDescriptionEntries, err error) {
	defer func() {
		if r := recover(); r != nil {
			fdes = nil
			err = fmt.Errorf("%w: %v", ErrCFI, r)
		}
	}()

	fdes, err = frame.Parse(data, file.ByteOrder, 0, arch.PtrSize, ehFrameAddr)
	if err != nil {
		err = errors.Join(ErrCFI, err)
	}
	return
}

// Width is the number of register columns kept in a table.
func (ef *ELF) Width() int {
	return ef.width
}

// Lookup evaluates the call frame instructions of the FDE covering pc up to
// pc. The returned table spans the instruction row of pc only.
func (ef *ELF) Lookup(pc uint64) (table *rule.Table, err error) {
	fde, err := ef.fdes.FDEForPC(pc)
	if err != nil {
		return nil, noUnwindInfo(pc)
	}

	fctx, err := establish(fde, pc)
	if err != nil {
		return
	}

	table = &rule.Table{
		CFA:   ef.cfaRule(fctx.CFA),
		Rules: make(map[regs.Register]rule.Rule, len(fctx.Regs)),
	}
	table.Low, table.High = rowRange(fde.Begin(), fde.End(), fde.CIE.CodeAlignmentFactor,
		ef.Arch.ByteOrder, fde.Instructions, pc)

	for column, dw := range fctx.Regs {
		if column >= uint64(ef.width) {
			continue
		}
		table.Rules[regs.Register(column)] = ef.registerRule(dw)
	}

	return
}

func establish(fde *frame.FrameDescriptionEntry, pc uint64) (fctx *frame.FrameContext, err error) {
	defer func() {
		if r := recover(); r != nil {
			fctx = nil
			err = fmt.Errorf("%w: %w: %v", ErrCFI, ErrPC(pc), r)
		}
	}()

	fctx = fde.EstablishFrame(pc)
	return
}

func (ef *ELF) cfaRule(dw frame.DWRule) rule.Rule {
	switch dw.Rule {
	case frame.RuleCFA:
		return rule.ValueAt(regs.Register(dw.Reg), dw.Offset)
	case frame.RuleExpression, frame.RuleValExpression:
		return rule.Expression(dw.Expression)
	default:
		return rule.Undefined()
	}
}

func (ef *ELF) registerRule(dw frame.DWRule) rule.Rule {
	switch dw.Rule {
	case frame.RuleSameVal:
		return rule.SameValue()
	case frame.RuleOffset:
		return rule.SavedAt(dw.Offset)
	case frame.RuleValOffset:
		return rule.ValueAt(regs.CFA, dw.Offset)
	case frame.RuleRegister:
		return rule.ValueAt(regs.Register(dw.Reg), 0)
	case frame.RuleExpression:
		return rule.SavedAtExpression(dw.Expression)
	case frame.RuleValExpression:
		return rule.Expression(dw.Expression)
	default:
		return rule.Undefined()
	}
}
