// Package news provides the traffic-news record types and the deduplicating collection the
// crawler accumulates into.
//
// A Record is the (date, time, detail) triple extracted from one listing item. Records are
// compared structurally, so the same entry seen on several listing pages is kept once.
package news
