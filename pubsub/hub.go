package pubsub

import (
	"sync"

	"github.com/hdt3213/gkvs/datastruct/list"
	"github.com/hdt3213/gkvs/datastruct/lock"
)

// lockerShards is the number of hash slots used to guard concurrent
// subscribe/unsubscribe/publish access to a single channel or pattern name.
const lockerShards = 128

// subsTable maps a channel or pattern name to its subscriber list. Mutation
// of a single entry is guarded by the owning Hub's subsLocker; membership of
// the map itself (insert/delete of a whole key) is guarded by mu.
type subsTable struct {
	mu   sync.RWMutex
	data map[string]*list.QuickList
}

func newSubsTable() *subsTable {
	return &subsTable{data: make(map[string]*list.QuickList)}
}

func (t *subsTable) get(key string) (*list.QuickList, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	l, ok := t.data[key]
	return l, ok
}

func (t *subsTable) put(key string, l *list.QuickList) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.data[key] = l
}

func (t *subsTable) remove(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.data, key)
}

func (t *subsTable) keys() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	result := make([]string, 0, len(t.data))
	for k := range t.data {
		result = append(result, k)
	}
	return result
}

// Hub holds the three disjoint subscription namespaces a single node
// supports: exact channels, glob patterns and shard channels. There is no
// cluster beneath the shard namespace, SSUBSCRIBE/SPUBLISH simply behave
// like PUBLISH/SUBSCRIBE restricted to their own keyspace.
type Hub struct {
	channels      *subsTable
	patterns      *subsTable
	shardChannels *subsTable

	// subsLocker guards per-channel/per-pattern subscriber-list mutation,
	// keyed by hash slot so unrelated channels never contend.
	subsLocker *lock.Locks
}

// MakeHub creates a ready-to-use Hub
func MakeHub() *Hub {
	return &Hub{
		channels:      newSubsTable(),
		patterns:      newSubsTable(),
		shardChannels: newSubsTable(),
		subsLocker:    lock.Make(lockerShards),
	}
}
