package eviction

// KeyMark pairs a key with its current eviction-order mark (an LRU epoch,
// or under LFU a minute stamp packed with an access counter).
type KeyMark struct {
	Key  string
	Mark int32
}

// Policy decides which key to evict from a sampled set of candidates.
type Policy interface {
	IsAllKeys() bool
	MakeMark() int32
	UpdateMark(old int32) int32
	Eviction(marks []KeyMark) string
}
