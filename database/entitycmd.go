package database

import (
	"strconv"
	"time"

	"github.com/hdt3213/gkvs/datastruct/dict"
	"github.com/hdt3213/gkvs/datastruct/hyperloglog"
	List "github.com/hdt3213/gkvs/datastruct/list"
	HashSet "github.com/hdt3213/gkvs/datastruct/set"
	SortedSet "github.com/hdt3213/gkvs/datastruct/sortedset"
	"github.com/hdt3213/gkvs/interface/database"
	"github.com/hdt3213/gkvs/redis/protocol"
)

// entityToCmd rebuilds the command line that would recreate entity's
// current value, used to undo a mutation that can't be reversed with a
// single inverse command (e.g. overwriting a whole list or hash).
func entityToCmd(key string, entity *database.DataEntity) *protocol.MultiBulkReply {
	if entity == nil {
		return nil
	}
	switch val := entity.Data.(type) {
	case []byte:
		return stringToCmd(key, val)
	case List.List:
		return listToCmd(key, val)
	case *HashSet.Set:
		return setToCmd(key, val)
	case dict.Dict:
		return hashToCmd(key, val)
	case *SortedSet.SortedSet:
		return zSetToCmd(key, val)
	case *hyperloglog.HyperLogLog:
		return hllToCmd(key, val)
	}
	return nil
}

var setCmdBytes = []byte("SET")

func stringToCmd(key string, bytes []byte) *protocol.MultiBulkReply {
	return protocol.MakeMultiBulkReply([][]byte{setCmdBytes, []byte(key), bytes})
}

var rPushAllCmdBytes = []byte("RPUSH")

func listToCmd(key string, list List.List) *protocol.MultiBulkReply {
	args := make([][]byte, 2+list.Len())
	args[0] = rPushAllCmdBytes
	args[1] = []byte(key)
	list.ForEach(func(i int, val interface{}) bool {
		bytes, _ := val.([]byte)
		args[2+i] = bytes
		return true
	})
	return protocol.MakeMultiBulkReply(args)
}

var sAddCmdBytes = []byte("SADD")

func setToCmd(key string, set *HashSet.Set) *protocol.MultiBulkReply {
	args := make([][]byte, 2+set.Len())
	args[0] = sAddCmdBytes
	args[1] = []byte(key)
	i := 0
	set.ForEach(func(val string) bool {
		args[2+i] = []byte(val)
		i++
		return true
	})
	return protocol.MakeMultiBulkReply(args)
}

var hMSetCmdBytes = []byte("HMSET")

func hashToCmd(key string, hash dict.Dict) *protocol.MultiBulkReply {
	args := make([][]byte, 2+hash.Len()*2)
	args[0] = hMSetCmdBytes
	args[1] = []byte(key)
	i := 0
	hash.ForEach(func(field string, val interface{}) bool {
		bytes, _ := val.([]byte)
		args[2+i*2] = []byte(field)
		args[3+i*2] = bytes
		i++
		return true
	})
	return protocol.MakeMultiBulkReply(args)
}

var zAddCmdBytes = []byte("ZADD")

func zSetToCmd(key string, zset *SortedSet.SortedSet) *protocol.MultiBulkReply {
	args := make([][]byte, 2+zset.Len()*2)
	args[0] = zAddCmdBytes
	args[1] = []byte(key)
	i := 0
	zset.ForEach(int64(0), zset.Len(), true, func(element *SortedSet.Element) bool {
		value := strconv.FormatFloat(element.Score, 'f', -1, 64)
		args[2+i*2] = []byte(value)
		args[3+i*2] = []byte(element.Member)
		i++
		return true
	})
	return protocol.MakeMultiBulkReply(args)
}

var restoreHllCmdBytes = []byte("_RESTOREHLL")

// hllToCmd serializes the estimator's dense register array behind a
// restore-only pseudo-command; there is no client-facing command that
// rebuilds an HLL from exact register state, so rollback replays through
// that internal opcode instead.
func hllToCmd(key string, hll *hyperloglog.HyperLogLog) *protocol.MultiBulkReply {
	registers := hll.Registers()
	return protocol.MakeMultiBulkReply([][]byte{restoreHllCmdBytes, []byte(key), registers})
}

var pExpireAtCmdBytes = []byte("PEXPIREAT")

// makeExpireCmd generates the command line that reproduces key's current
// absolute expiration deadline.
func makeExpireCmd(key string, expireAt time.Time) *protocol.MultiBulkReply {
	args := make([][]byte, 3)
	args[0] = pExpireAtCmdBytes
	args[1] = []byte(key)
	args[2] = []byte(strconv.FormatInt(expireAt.UnixNano()/1e6, 10))
	return protocol.MakeMultiBulkReply(args)
}
