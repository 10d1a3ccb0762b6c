package news

import (
	"sort"
	"time"
)

// Collection is a set of records keyed by the full (date, time, detail) triple.
// It only grows; adding a record that is already present is a no-op.
type Collection struct {
	records map[Record]struct{}
}

// NewCollection creates an empty collection
func NewCollection() *Collection {
	return &Collection{
		records: make(map[Record]struct{}),
	}
}

// Add inserts r and reports whether it was not already present
func (c *Collection) Add(r Record) bool {
	if _, exists := c.records[r]; exists {
		return false
	}
	c.records[r] = struct{}{}
	return true
}

// AddAll inserts every record and returns how many were new
func (c *Collection) AddAll(records []Record) int {
	added := 0
	for _, r := range records {
		if c.Add(r) {
			added++
		}
	}
	return added
}

// Contains reports whether r is in the collection
func (c *Collection) Contains(r Record) bool {
	_, exists := c.records[r]
	return exists
}

// Len returns the number of distinct records
func (c *Collection) Len() int {
	return len(c.records)
}

// Records returns the records ordered by date, then time, then detail
func (c *Collection) Records() []Record {
	out := make([]Record, 0, len(c.records))
	for r := range c.records {
		out = append(out, r)
	}
	Sort(out)
	return out
}

// Rows returns the records as table rows in Columns order, sorted like Records
func (c *Collection) Rows() [][]string {
	records := c.Records()
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, r.Row())
	}
	return rows
}

// Sort orders records chronologically. Records whose date and time parse come
// first; the rest follow in plain text order. Each timestamp is parsed once.
func Sort(records []Record) {
	keyed := make([]sortKey, len(records))
	for i, r := range records {
		keyed[i] = sortKey{ts: r.Timestamp(), r: r}
	}

	sort.Slice(keyed, func(i, j int) bool {
		return keyed[i].less(keyed[j])
	})

	for i, k := range keyed {
		records[i] = k.r
	}
}

// sortKey pairs a record with its parsed timestamp
type sortKey struct {
	ts time.Time
	r  Record
}

func (a sortKey) less(b sortKey) bool {
	if !a.ts.IsZero() && !b.ts.IsZero() && !a.ts.Equal(b.ts) {
		return a.ts.Before(b.ts)
	}
	if a.ts.IsZero() != b.ts.IsZero() {
		return !a.ts.IsZero()
	}

	if a.r.Date != b.r.Date {
		return a.r.Date < b.r.Date
	}
	if a.r.Time != b.r.Time {
		return a.r.Time < b.r.Time
	}
	return a.r.Detail < b.r.Detail
}
