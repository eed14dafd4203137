package eviction

import (
	"time"

	"github.com/hdt3213/gkvs/interface/eviction"
)

// LRUPolicy approximates least-recently-used eviction by comparing sampled
// lru_epoch marks, the same trick Redis uses instead of an exact LRU list.
type LRUPolicy struct {
	AllKeys bool
}

// IsAllKeys reports whether eviction may touch keys without a TTL
func (policy *LRUPolicy) IsAllKeys() bool {
	return policy.AllKeys
}

// MakeMark stamps a freshly written key with the current epoch
func (policy *LRUPolicy) MakeMark() int32 {
	return nowEpoch()
}

// UpdateMark refreshes a key's epoch on access
func (policy *LRUPolicy) UpdateMark(old int32) int32 {
	return nowEpoch()
}

// Eviction picks the sampled key with the oldest mark
func (policy *LRUPolicy) Eviction(marks []eviction.KeyMark) string {
	key := marks[0].Key
	min := marks[0].Mark
	for i := 1; i < len(marks); i++ {
		if min > marks[i].Mark {
			key = marks[i].Key
			min = marks[i].Mark
		}
	}
	return key
}

func nowEpoch() int32 {
	return int32(time.Now().Unix() & 0xffffffff)
}
