package provider

import (
	"sort"
	"sync"

	"github.com/ezrec/frameunwind/rule"
)

// Cache remembers the tables returned by a Provider by address range, which
// is valid since a table never changes while its unwind data is loaded.
// A Cache is safe for concurrent use.
type Cache struct {
	Provider Provider

	mutex  sync.Mutex
	tables []*rule.Table // Sorted, non-overlapping.

	Hits   int
	Misses int
}

var _ Provider = (*Cache)(nil)

// NewCache wraps p.
func NewCache(p Provider) (cache *Cache) {
	cache = &Cache{
		Provider: p,
	}

	return
}

func (cache *Cache) find(pc uint64) (n int, table *rule.Table) {
	n = sort.Search(len(cache.tables), func(i int) bool {
		return cache.tables[i].High > pc
	})
	if n < len(cache.tables) && cache.tables[n].Contains(pc) {
		table = cache.tables[n]
	}
	return
}

func (cache *Cache) Lookup(pc uint64) (table *rule.Table, err error) {
	cache.mutex.Lock()
	defer cache.mutex.Unlock()

	_, table = cache.find(pc)
	if table != nil {
		cache.Hits++
		return
	}
	cache.Misses++

	table, err = cache.Provider.Lookup(pc)
	if err != nil {
		return
	}

	// Keep the first of two overlapping tables.
	n, _ := cache.find(table.Low)
	if n < len(cache.tables) && cache.tables[n].Low < table.High {
		return
	}
	if table.Low >= table.High {
		return
	}

	cache.tables = append(cache.tables, nil)
	copy(cache.tables[n+1:], cache.tables[n:])
	cache.tables[n] = table
	return
}

// Flush forgets every cached table.
func (cache *Cache) Flush() {
	cache.mutex.Lock()
	defer cache.mutex.Unlock()

	cache.tables = nil
}
