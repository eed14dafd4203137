// Package database is a memory database with redis compatible interface
package database

import (
	"strings"
	"time"

	"github.com/hdt3213/gkvs/config"
	"github.com/hdt3213/gkvs/database/eviction"
	"github.com/hdt3213/gkvs/datastruct/dict"
	"github.com/hdt3213/gkvs/datastruct/hyperloglog"
	List "github.com/hdt3213/gkvs/datastruct/list"
	HashSet "github.com/hdt3213/gkvs/datastruct/set"
	SortedSet "github.com/hdt3213/gkvs/datastruct/sortedset"
	dbeviction "github.com/hdt3213/gkvs/interface/eviction"
	"github.com/hdt3213/gkvs/interface/database"
	"github.com/hdt3213/gkvs/interface/redis"
	"github.com/hdt3213/gkvs/lib/logger"
	"github.com/hdt3213/gkvs/lib/mem"
	"github.com/hdt3213/gkvs/lib/timewheel"
	"github.com/hdt3213/gkvs/redis/protocol"
)

const (
	dataDictSize = 1 << 16
	ttlDictSize  = 1 << 10

	// expireSampleSize is K in the active sampler: how many TTL'd keys it
	// inspects per pass.
	expireSampleSize = 20
	// expireSampleTick is how often the sampler wakes up.
	expireSampleTick = 100 * time.Millisecond
	// expireResampleThreshold: a pass that expires more than this fraction
	// of its sample is immediately repeated, on the assumption more expired
	// keys remain.
	expireResampleThreshold = 0.25
	// expireSampleBudget bounds how long a single sampler tick may run
	// before yielding, so a burst of expired keys can't starve writers.
	expireSampleBudget = 25 * time.Millisecond

	// evictionSampleSize is how many keys the eviction engine inspects
	// before picking the one with the smallest lru_epoch to evict.
	evictionSampleSize = 5
)

// DB stores data and execute user's commands
type DB struct {
	index int
	// key -> DataEntity
	data *dict.ConcurrentDict
	// key -> expireTime (time.Time)
	ttlMap *dict.ConcurrentDict
	// key -> version(uint32)
	versionMap *dict.ConcurrentDict
	// key -> lru_epoch(int32), stamped/refreshed on every access
	lruMap *dict.ConcurrentDict

	// accountant tracks an exact running total of key+value+overhead bytes
	accountant *mem.Accountant
	evictPolicy dbeviction.Policy

	stopSampler chan struct{}

	// callbacks
	insertCallback database.KeyEventCallback
	deleteCallback database.KeyEventCallback
}

// ExecFunc is interface for command executor
// args don't include cmd line
type ExecFunc func(db *DB, args [][]byte) redis.Reply

// PreFunc analyses command line when queued command to `multi`
// returns related write keys and read keys
type PreFunc func(args [][]byte) ([]string, []string)

// CmdLine is alias for [][]byte, represents a command line
type CmdLine = [][]byte

// UndoFunc returns undo logs for the given command line
// execute from head to tail when undo
type UndoFunc func(db *DB, args [][]byte) []CmdLine

// makeDB create DB instance
func makeDB() *DB {
	db := &DB{
		data:        dict.MakeConcurrent(dataDictSize),
		ttlMap:      dict.MakeConcurrent(ttlDictSize),
		versionMap:  dict.MakeConcurrent(dataDictSize),
		lruMap:      dict.MakeConcurrent(dataDictSize),
		accountant:  &mem.Accountant{},
		evictPolicy: makeEvictionPolicy(),
		stopSampler: make(chan struct{}),
	}
	go db.expireSamplerLoop()
	return db
}

// makeBasicDB create DB instance only with basic abilities.
func makeBasicDB() *DB {
	db := &DB{
		data:        dict.MakeConcurrent(dataDictSize),
		ttlMap:      dict.MakeConcurrent(ttlDictSize),
		versionMap:  dict.MakeConcurrent(dataDictSize),
		lruMap:      dict.MakeConcurrent(dataDictSize),
		accountant:  &mem.Accountant{},
		evictPolicy: makeEvictionPolicy(),
		stopSampler: make(chan struct{}),
	}
	return db
}

// Close stops this database's background sampler goroutine
func (db *DB) Close() {
	close(db.stopSampler)
}

// Exec executes command within one database
func (db *DB) Exec(c redis.Connection, cmdLine [][]byte) redis.Reply {
	// transaction control commands and other commands which cannot execute within transaction
	cmdName := strings.ToLower(string(cmdLine[0]))
	if cmdName == "multi" {
		if len(cmdLine) != 1 {
			return protocol.MakeArgNumErrReply(cmdName)
		}
		return StartMulti(c)
	} else if cmdName == "discard" {
		if len(cmdLine) != 1 {
			return protocol.MakeArgNumErrReply(cmdName)
		}
		return DiscardMulti(c)
	} else if cmdName == "exec" {
		if len(cmdLine) != 1 {
			return protocol.MakeArgNumErrReply(cmdName)
		}
		return execMulti(db, c)
	} else if cmdName == "watch" {
		if !validateArity(-2, cmdLine) {
			return protocol.MakeArgNumErrReply(cmdName)
		}
		return Watch(db, c, cmdLine[1:])
	} else if cmdName == "unwatch" {
		if len(cmdLine) != 1 {
			return protocol.MakeArgNumErrReply(cmdName)
		}
		return Unwatch(c)
	}
	if c != nil && c.InMultiState() {
		return EnqueueCmd(c, cmdLine)
	}

	return db.execNormalCommand(cmdLine)
}

func (db *DB) execNormalCommand(cmdLine [][]byte) redis.Reply {
	cmdName := strings.ToLower(string(cmdLine[0]))
	cmd, ok := cmdTable[cmdName]
	if !ok {
		return protocol.MakeErrReply("ERR unknown command '" + cmdName + "'")
	}
	if !validateArity(cmd.arity, cmdLine) {
		return protocol.MakeArgNumErrReply(cmdName)
	}

	prepare := cmd.prepare
	write, read := prepare(cmdLine[1:])
	if cmd.flags&flagReadOnly == 0 {
		if errReply := db.reserveMemory(write); errReply != nil {
			return errReply
		}
		// evict again once the write has landed and its locks are released,
		// so the write itself cannot leave the footprint above maxmemory
		defer db.reserveMemory(write)
	}
	db.addVersion(write...)
	db.RWLocks(write, read)
	defer db.RWUnLocks(write, read)
	db.touchLRU(write...)
	db.touchLRU(read...)
	fun := cmd.executor
	return fun(db, cmdLine[1:])
}

// execWithLock executes normal commands, invoker should provide locks
func (db *DB) execWithLock(cmdLine [][]byte) redis.Reply {
	cmdName := strings.ToLower(string(cmdLine[0]))
	cmd, ok := cmdTable[cmdName]
	if !ok {
		return protocol.MakeErrReply("ERR unknown command '" + cmdName + "'")
	}
	if !validateArity(cmd.arity, cmdLine) {
		return protocol.MakeArgNumErrReply(cmdName)
	}
	fun := cmd.executor
	return fun(db, cmdLine[1:])
}

func validateArity(arity int, cmdArgs [][]byte) bool {
	argNum := len(cmdArgs)
	if arity >= 0 {
		return argNum == arity
	}
	return argNum >= -arity
}

/* ---- Memory accounting & eviction ---- */

// makeEvictionPolicy selects the sampling policy implied by
// config.Properties.EvictionPolicy, Redis's maxmemory-policy knob.
// "noeviction" still returns an all-keys LRU policy so tests and
// introspection always have a usable evictPolicy, but reserveMemory
// refuses to spend it for that setting.
func makeEvictionPolicy() dbeviction.Policy {
	policy := ""
	if config.Properties != nil {
		policy = strings.ToLower(config.Properties.EvictionPolicy)
	}
	allKeys := strings.HasPrefix(policy, "allkeys")
	if strings.Contains(policy, "lfu") {
		return &eviction.LFUPolicy{AllKeys: allKeys}
	}
	return &eviction.LRUPolicy{AllKeys: allKeys}
}

// reserveMemory runs the sampling eviction loop until the accounted total
// is back under maxmemory, or fails with OOM under the noeviction policy.
func (db *DB) reserveMemory(writeKeys []string) redis.Reply {
	limit := config.Properties.MaxMemoryBytes
	if limit <= 0 || len(writeKeys) == 0 {
		return nil
	}
	if strings.ToLower(config.Properties.EvictionPolicy) == "noeviction" {
		if db.accountant.Used() > limit {
			return &protocol.OOMErrReply{}
		}
		return nil
	}
	for attempts := 0; db.accountant.Used() > limit; attempts++ {
		if attempts > db.data.Len()+1 {
			break
		}
		candidates := db.data.RandomKeys(evictionSampleSize)
		if !db.evictPolicy.IsAllKeys() {
			volatile := candidates[:0]
			for _, key := range candidates {
				if _, ok := db.ttlMap.Get(key); ok {
					volatile = append(volatile, key)
				}
			}
			candidates = volatile
		}
		if len(candidates) == 0 {
			break
		}
		marks := make([]dbeviction.KeyMark, 0, len(candidates))
		for _, key := range candidates {
			rawMark, ok := db.lruMap.Get(key)
			mark, _ := rawMark.(int32)
			if !ok {
				mark = db.evictPolicy.MakeMark()
			}
			marks = append(marks, dbeviction.KeyMark{Key: key, Mark: mark})
		}
		victim := db.evictPolicy.Eviction(marks)
		if victim == "" {
			break
		}
		db.Remove(victim)
	}
	if db.accountant.Used() > limit {
		return &protocol.OOMErrReply{}
	}
	return nil
}

func (db *DB) touchLRU(keys ...string) {
	for _, key := range keys {
		rawMark, ok := db.lruMap.Get(key)
		if !ok {
			db.lruMap.Put(key, db.evictPolicy.MakeMark())
			continue
		}
		mark, _ := rawMark.(int32)
		db.lruMap.Put(key, db.evictPolicy.UpdateMark(mark))
	}
}

/* ---- Data Access ----- */

// GetEntity returns DataEntity bind to given key
func (db *DB) GetEntity(key string) (*database.DataEntity, bool) {
	raw, ok := db.data.GetWithLock(key)
	if !ok {
		return nil, false
	}
	if db.IsExpired(key) {
		return nil, false
	}
	entity, _ := raw.(*database.DataEntity)
	return entity, true
}

// PutEntity a DataEntity into DB
func (db *DB) PutEntity(key string, entity *database.DataEntity) int {
	oldSize, hadOld := db.entitySize(key)
	ret := db.data.PutWithLock(key, entity)
	newSize := entitySizeOf(key, entity)
	if hadOld {
		db.accountant.Add(newSize - oldSize)
	} else {
		db.accountant.Add(newSize)
	}
	// db.insertCallback may be set as nil, during `if` and actually callback
	// so introduce a local variable `cb`
	if cb := db.insertCallback; ret > 0 && cb != nil {
		cb(db.index, key, entity)
	}
	return ret
}

// PutIfExists edit an existing DataEntity
func (db *DB) PutIfExists(key string, entity *database.DataEntity) int {
	oldSize, hadOld := db.entitySize(key)
	ret := db.data.PutIfExistsWithLock(key, entity)
	if ret > 0 {
		newSize := entitySizeOf(key, entity)
		if hadOld {
			db.accountant.Add(newSize - oldSize)
		} else {
			db.accountant.Add(newSize)
		}
	}
	return ret
}

// PutIfAbsent insert an DataEntity only if the key not exists
func (db *DB) PutIfAbsent(key string, entity *database.DataEntity) int {
	ret := db.data.PutIfAbsentWithLock(key, entity)
	if ret > 0 {
		db.accountant.Add(entitySizeOf(key, entity))
	}
	// db.insertCallback may be set as nil, during `if` and actually callback
	// so introduce a local variable `cb`
	if cb := db.insertCallback; ret > 0 && cb != nil {
		cb(db.index, key, entity)
	}
	return ret
}

// Remove the given key from db
func (db *DB) Remove(key string) {
	raw, deleted := db.data.RemoveWithLock(key)
	db.ttlMap.Remove(key)
	db.lruMap.Remove(key)
	taskKey := genExpireTask(key)
	timewheel.Cancel(taskKey)
	var entity *database.DataEntity
	if deleted > 0 {
		entity, _ = raw.(*database.DataEntity)
		db.accountant.Add(-entitySizeOf(key, entity))
	}
	if cb := db.deleteCallback; cb != nil {
		cb(db.index, key, entity)
	}
}

// Removes the given keys from db
func (db *DB) Removes(keys ...string) (deleted int) {
	deleted = 0
	for _, key := range keys {
		_, exists := db.data.GetWithLock(key)
		if exists {
			db.Remove(key)
			deleted++
		}
	}
	return deleted
}

// Flush clean database
// deprecated
// for test only
func (db *DB) Flush() {
	db.data.Clear()
	db.ttlMap.Clear()
	db.lruMap.Clear()
	db.accountant.Reset()
}

func (db *DB) entitySize(key string) (int64, bool) {
	raw, ok := db.data.Get(key)
	if !ok {
		return 0, false
	}
	entity, _ := raw.(*database.DataEntity)
	return entitySizeOf(key, entity), true
}

func entitySizeOf(key string, entity *database.DataEntity) int64 {
	if entity == nil {
		return 0
	}
	return mem.EntrySize(len(key), valueLen(entity.Data))
}

// valueLen estimates the payload size of a value for memory accounting.
// Container types are walked once to sum their member bytes; this runs
// under the shard lock already held by the caller, so it sees a stable
// snapshot of the container.
func valueLen(data interface{}) int {
	switch v := data.(type) {
	case []byte:
		return len(v)
	case string:
		return len(v)
	case List.List:
		total := 0
		v.ForEach(func(_ int, item interface{}) bool {
			if b, ok := item.([]byte); ok {
				total += len(b)
			}
			return true
		})
		return total
	case dict.Dict:
		total := 0
		v.ForEach(func(field string, raw interface{}) bool {
			total += len(field)
			if b, ok := raw.([]byte); ok {
				total += len(b)
			}
			return true
		})
		return total
	case *HashSet.Set:
		total := 0
		v.ForEach(func(member string) bool {
			total += len(member)
			return true
		})
		return total
	case *SortedSet.SortedSet:
		total := 0
		v.ForEach(0, v.Len(), false, func(e *SortedSet.Element) bool {
			total += len(e.Member) + 8 // +8 for the float64 score
			return true
		})
		return total
	case *hyperloglog.HyperLogLog:
		return v.EstimatedSize()
	default:
		return 0
	}
}

/* ---- Lock Function ----- */

// RWLocks lock keys for writing and reading
func (db *DB) RWLocks(writeKeys []string, readKeys []string) {
	db.data.RWLocks(writeKeys, readKeys)
}

// RWUnLocks unlock keys for writing and reading
func (db *DB) RWUnLocks(writeKeys []string, readKeys []string) {
	db.data.RWUnLocks(writeKeys, readKeys)
}

/* ---- TTL Functions ---- */

func genExpireTask(key string) string {
	return "expire:" + key
}

// Expire sets ttlCmd of key
func (db *DB) Expire(key string, expireTime time.Time) {
	db.ttlMap.Put(key, expireTime)
	taskKey := genExpireTask(key)
	timewheel.At(expireTime, taskKey, func() {
		keys := []string{key}
		db.RWLocks(keys, nil)
		defer db.RWUnLocks(keys, nil)
		// check-lock-check, ttl may be updated during waiting lock
		rawExpireTime, ok := db.ttlMap.Get(key)
		if !ok {
			return
		}
		expireTime, _ := rawExpireTime.(time.Time)
		expired := time.Now().After(expireTime)
		if expired {
			db.Remove(key)
		}
	})
}

// Persist cancel ttlCmd of key
func (db *DB) Persist(key string) {
	db.ttlMap.Remove(key)
	taskKey := genExpireTask(key)
	timewheel.Cancel(taskKey)
}

// IsExpired check whether a key is expired
func (db *DB) IsExpired(key string) bool {
	rawExpireTime, ok := db.ttlMap.Get(key)
	if !ok {
		return false
	}
	expireTime, _ := rawExpireTime.(time.Time)
	expired := time.Now().After(expireTime)
	if expired {
		db.Remove(key)
	}
	return expired
}

// expireSamplerLoop wakes up periodically and samples keys with a TTL,
// removing any that have expired. If more than expireResampleThreshold of
// the sample was expired it immediately resamples, on the assumption the
// keyspace still has more expired keys to clear, bounded by
// expireSampleBudget so a large expired backlog cannot starve writers.
func (db *DB) expireSamplerLoop() {
	ticker := time.NewTicker(expireSampleTick)
	defer ticker.Stop()
	for {
		select {
		case <-db.stopSampler:
			return
		case <-ticker.C:
			db.runExpireSamplePass()
		}
	}
}

func (db *DB) runExpireSamplePass() {
	deadline := time.Now().Add(expireSampleBudget)
	for time.Now().Before(deadline) {
		sampled := db.ttlMap.RandomDistinctKeys(expireSampleSize)
		if len(sampled) == 0 {
			return
		}
		expiredCount := 0
		for _, key := range sampled {
			if db.IsExpired(key) {
				expiredCount++
			}
		}
		ratio := float64(expiredCount) / float64(len(sampled))
		if ratio <= expireResampleThreshold {
			return
		}
	}
	logger.Debug("expire sampler hit its per-tick time budget")
}

/* --- add version --- */

func (db *DB) addVersion(keys ...string) {
	for _, key := range keys {
		versionCode := db.GetVersion(key)
		db.versionMap.Put(key, versionCode+1)
	}
}

// GetVersion returns version code for given key
func (db *DB) GetVersion(key string) uint32 {
	entity, ok := db.versionMap.Get(key)
	if !ok {
		return 0
	}
	return entity.(uint32)
}

// ForEach traverses all the keys in the database
func (db *DB) ForEach(cb func(key string, data *database.DataEntity, expiration *time.Time) bool) {
	db.data.ForEach(func(key string, raw interface{}) bool {
		entity, _ := raw.(*database.DataEntity)
		var expiration *time.Time
		rawExpireTime, ok := db.ttlMap.Get(key)
		if ok {
			expireTime, _ := rawExpireTime.(time.Time)
			expiration = &expireTime
		}

		return cb(key, entity, expiration)
	})
}
