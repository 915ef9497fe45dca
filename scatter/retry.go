package scatter

import "github.com/df-mc/foliage/scatter/source"

// retryEntry is a region whose density image could not be resolved. gen is
// the generation of the region at the time of the attempt: entries of
// regions that changed since are stale.
type retryEntry struct {
	id   RegionID
	gen  uint64
	conf source.Config
}

// retryQueue holds retry entries in arrival order.
type retryQueue struct {
	entries []retryEntry
}

func (q *retryQueue) push(e retryEntry) {
	q.entries = append(q.entries, e)
}

// take removes and returns all entries. Entries that must be retried again are
// pushed back by the caller.
func (q *retryQueue) take() []retryEntry {
	entries := q.entries
	q.entries = nil
	return entries
}

func (q *retryQueue) len() int {
	return len(q.entries)
}
