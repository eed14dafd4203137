package database

import (
	"github.com/hdt3213/gkvs/datastruct/hyperloglog"
	"github.com/hdt3213/gkvs/interface/database"
	"github.com/hdt3213/gkvs/interface/redis"
	"github.com/hdt3213/gkvs/redis/protocol"
)

func (db *DB) getAsHLL(key string) (*hyperloglog.HyperLogLog, protocol.ErrorReply) {
	entity, exists := db.GetEntity(key)
	if !exists {
		return nil, nil
	}
	hll, ok := entity.Data.(*hyperloglog.HyperLogLog)
	if !ok {
		return nil, &protocol.WrongTypeErrReply{}
	}
	return hll, nil
}

func (db *DB) getOrInitHLL(key string) (hll *hyperloglog.HyperLogLog, errReply protocol.ErrorReply) {
	hll, errReply = db.getAsHLL(key)
	if errReply != nil {
		return nil, errReply
	}
	if hll == nil {
		hll = hyperloglog.New()
		db.PutEntity(key, &database.DataEntity{Data: hll})
	}
	return hll, nil
}

// execPfAdd adds every element into the HyperLogLog stored at key
func execPfAdd(db *DB, args [][]byte) redis.Reply {
	key := string(args[0])
	hll, errReply := db.getOrInitHLL(key)
	if errReply != nil {
		return errReply
	}
	updated := false
	for _, elem := range args[1:] {
		if hll.Add(elem) {
			updated = true
		}
	}
	if updated {
		return protocol.MakeIntReply(1)
	}
	return protocol.MakeIntReply(0)
}

// execPfCount returns the estimated cardinality of the union of the given
// HyperLogLog keys
func execPfCount(db *DB, args [][]byte) redis.Reply {
	var merged *hyperloglog.HyperLogLog
	for _, arg := range args {
		hll, errReply := db.getAsHLL(string(arg))
		if errReply != nil {
			return errReply
		}
		if hll == nil {
			continue
		}
		if merged == nil {
			merged = hyperloglog.New()
		}
		merged.Merge(hll)
	}
	if merged == nil {
		return protocol.MakeIntReply(0)
	}
	return protocol.MakeIntReply(int64(merged.Count()))
}

// execPfMerge merges every source HLL into destKey, creating it if absent
func execPfMerge(db *DB, args [][]byte) redis.Reply {
	destKey := string(args[0])
	dest, errReply := db.getOrInitHLL(destKey)
	if errReply != nil {
		return errReply
	}
	for _, arg := range args[1:] {
		src, errReply := db.getAsHLL(string(arg))
		if errReply != nil {
			return errReply
		}
		if src == nil {
			continue
		}
		dest.Merge(src)
	}
	return &protocol.OkReply{}
}

// execRestoreHLL replaces key's HyperLogLog with an exact register image,
// used only to undo a PFADD/PFMERGE inside a failed transaction.
func execRestoreHLL(db *DB, args [][]byte) redis.Reply {
	key := string(args[0])
	registers := args[1]
	hll, ok := hyperloglog.FromRegisters(registers)
	if !ok {
		return &protocol.UnknownErrReply{}
	}
	db.PutEntity(key, &database.DataEntity{Data: hll})
	return &protocol.OkReply{}
}

func undoPf(db *DB, args [][]byte) []CmdLine {
	key := string(args[0])
	return rollbackGivenKeys(db, key)
}

func init() {
	registerCommand("PfAdd", execPfAdd, writeFirstKey, undoPf, -2, flagWrite)
	registerCommand("PfCount", execPfCount, readAllKeys, nil, -2, flagReadOnly)
	registerCommand("PfMerge", execPfMerge, writeFirstKey, undoPf, -2, flagWrite)
	registerCommand("_RestoreHLL", execRestoreHLL, writeFirstKey, nil, 3, flagWrite)
}
