package mem

import "sync/atomic"

// EntryOverhead approximates the bookkeeping cost of a single keyspace
// entry beyond the raw key and value bytes: map bucket slot, expiry
// field, version counter and LRU epoch.
const EntryOverhead = 48

// EntrySize returns the accounted footprint of a key/value pair.
func EntrySize(keyLen, valueLen int) int64 {
	return int64(keyLen) + int64(valueLen) + EntryOverhead
}

// Accountant keeps an exact running total of accounted bytes so the
// engine can enforce maxmemory without sampling runtime.MemStats.
type Accountant struct {
	used int64
}

// Add applies delta (which may be negative) to the running total.
func (a *Accountant) Add(delta int64) int64 {
	return atomic.AddInt64(&a.used, delta)
}

// Used returns the current accounted total.
func (a *Accountant) Used() int64 {
	return atomic.LoadInt64(&a.used)
}

// Reset zeroes the accountant, used when flushing the keyspace.
func (a *Accountant) Reset() {
	atomic.StoreInt64(&a.used, 0)
}
