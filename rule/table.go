package rule

import (
	"fmt"
	"io"
	"iter"
	"maps"
	"slices"

	"github.com/ezrec/frameunwind/internal"
	"github.com/ezrec/frameunwind/regs"
)

// Table holds the recovery rules valid for program counters in [Low, High).
// A table returned by a provider is shared and must not be modified.
type Table struct {
	Low  uint64
	High uint64

	CFA   Rule                   // Canonical frame address rule.
	Rules map[regs.Register]Rule // Rules of the registers the table describes.
}

// Contains is true if pc lies in the table's range.
func (t *Table) Contains(pc uint64) bool {
	return pc >= t.Low && pc < t.High
}

// Rule returns the rule of a register, if the table has one.
func (t *Table) Rule(reg regs.Register) (r Rule, ok bool) {
	r, ok = t.Rules[reg]
	return
}

// Registers returns the described registers in ascending order.
func (t *Table) Registers() []regs.Register {
	return slices.Sorted(maps.Keys(t.Rules))
}

// All iterates over the CFA rule, keyed by regs.CFA, followed by the
// register rules in ascending register order.
func (t *Table) All() iter.Seq2[regs.Register, Rule] {
	return internal.IterSeq2Concat(
		internal.IterSeq2One(regs.CFA, t.CFA),
		internal.SortedAll(t.Rules),
	)
}

// Dump writes a human readable rendering of the table, one line per rule.
func (t *Table) Dump(w io.Writer, arch *regs.Arch) (err error) {
	_, err = fmt.Fprintf(w, "[0x%x, 0x%x)\n", t.Low, t.High)
	if err != nil {
		return
	}

	for reg, r := range t.All() {
		_, err = fmt.Fprintf(w, "% 6s = %v\n", arch.RegName(reg), r.Format(arch))
		if err != nil {
			return
		}
	}

	return
}
