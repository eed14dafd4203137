package eviction

import (
	"math/rand"
	"time"

	"github.com/hdt3213/gkvs/interface/eviction"
)

// lfuLogFactor and lfuInitVal mirror the constants Redis compiles in for
// its default maxmemory-policy tuning; they are not exposed as config
// knobs here.
const (
	lfuLogFactor = 10
	lfuInitVal   = 5
	lfuDecayTime = 1 // minutes before the access counter decays
)

// LFUPolicy approximates least-frequently-used eviction the way Redis
// does: each mark packs a decay timestamp (minutes) in the high bits and
// a logarithmic access counter in the low byte, so ranking candidates
// never requires a separate frequency table.
type LFUPolicy struct {
	AllKeys bool
}

// IsAllKeys reports whether eviction may touch keys without a TTL
func (policy *LFUPolicy) IsAllKeys() bool {
	return policy.AllKeys
}

// MakeMark stamps a freshly written key with the current minute and the
// configured initial counter value
func (policy *LFUPolicy) MakeMark() int32 {
	return lfuGetTimeInMinutes()<<8 | lfuInitVal
}

// UpdateMark decays the counter for elapsed time then probabilistically
// increments it, so hot keys climb slowly and cold keys fall to zero
func (policy *LFUPolicy) UpdateMark(mark int32) int32 {
	counter := lfuDecrAndReturn(mark)
	incr := lfuLogIncr(counter)
	return lfuGetTimeInMinutes()<<8 | int32(incr)
}

// Eviction picks the sampled key with the smallest access counter
func (policy *LFUPolicy) Eviction(marks []eviction.KeyMark) string {
	key := marks[0].Key
	min := lfuCounter(marks[0].Mark)
	for i := 1; i < len(marks); i++ {
		counter := lfuCounter(marks[i].Mark)
		if min > counter {
			key = marks[i].Key
			min = counter
		}
	}
	return key
}

func lfuCounter(mark int32) uint8 {
	return uint8(mark & 0xff)
}

func lfuLogIncr(counter uint8) uint8 {
	if counter == 255 {
		return 255
	}
	r := rand.Float64()
	baseVal := float64(counter) - lfuInitVal
	if baseVal < 0 {
		baseVal = 0
	}
	p := 1.0 / (baseVal*lfuLogFactor + 1)
	if r < p {
		counter++
	}
	return counter
}

func lfuDecrAndReturn(mark int32) uint8 {
	lastDecay := mark >> 8
	counter := uint8(mark & 0xff)
	elapsed := lfuTimeElapsed(lastDecay)
	periods := elapsed / lfuDecayTime
	if periods <= 0 {
		return counter
	}
	if int32(counter) <= periods {
		return 0
	}
	return counter - uint8(periods)
}

func lfuTimeElapsed(lastDecay int32) int32 {
	now := lfuGetTimeInMinutes()
	if now >= lastDecay {
		return now - lastDecay
	}
	return 65535 - lastDecay + now
}

func lfuGetTimeInMinutes() int32 {
	return int32(time.Now().Unix()/60) & 65535
}
