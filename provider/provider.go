// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

// Package provider maps program counters to the register recovery rules
// that are valid there.
package provider

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"sort"

	"github.com/ezrec/frameunwind/rule"
)

// Provider looks up the rule table covering a program counter. A miss is
// reported as ErrNoUnwindInfo.
type Provider interface {
	Lookup(pc uint64) (table *rule.Table, err error)
}

// ProviderFunc adapts a function to the Provider interface.
type ProviderFunc func(pc uint64) (table *rule.Table, err error)

var _ Provider = ProviderFunc(nil)

func (pf ProviderFunc) Lookup(pc uint64) (table *rule.Table, err error) {
	return pf(pc)
}

// Static is a fixed set of non-overlapping tables.
type Static struct {
	tables []*rule.Table
}

var _ Provider = (*Static)(nil)

// NewStatic sorts and validates tables.
func NewStatic(tables ...*rule.Table) (st *Static, err error) {
	sorted := slices.Clone(tables)
	slices.SortFunc(sorted, func(a, b *rule.Table) int {
		return cmp.Compare(a.Low, b.Low)
	})

	for n, table := range sorted {
		if table.Low >= table.High {
			return nil, fmt.Errorf("%w: [0x%x, 0x%x)", ErrTableRange, table.Low, table.High)
		}
		if n > 0 && sorted[n-1].High > table.Low {
			return nil, fmt.Errorf("%w: 0x%x", ErrTableOverlap, table.Low)
		}
	}

	st = &Static{tables: sorted}
	return
}

// Tables returns the tables in ascending address order.
func (st *Static) Tables() []*rule.Table {
	return st.tables
}

func (st *Static) Lookup(pc uint64) (table *rule.Table, err error) {
	n := sort.Search(len(st.tables), func(i int) bool {
		return st.tables[i].High > pc
	})
	if n < len(st.tables) && st.tables[n].Contains(pc) {
		table = st.tables[n]
		return
	}

	err = noUnwindInfo(pc)
	return
}

// Chain consults providers in order; the first one that knows the program
// counter answers. Any failure other than ErrNoUnwindInfo stops the search.
type Chain []Provider

var _ Provider = Chain(nil)

func (chain Chain) Lookup(pc uint64) (table *rule.Table, err error) {
	for _, p := range chain {
		table, err = p.Lookup(pc)
		if err == nil || !errors.Is(err, ErrNoUnwindInfo) {
			return
		}
	}

	err = noUnwindInfo(pc)
	return
}
