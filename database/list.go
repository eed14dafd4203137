package database

import (
	"strconv"
	"strings"
	"time"

	List "github.com/hdt3213/gkvs/datastruct/list"
	"github.com/hdt3213/gkvs/interface/database"
	"github.com/hdt3213/gkvs/interface/redis"
	"github.com/hdt3213/gkvs/lib/utils"
	"github.com/hdt3213/gkvs/redis/protocol"
)

// blockingPollInterval bounds how long BLPOP/BRPOP sleep between checks of
// the source keys; keeping it short keeps reported latency close to the
// moment a value actually becomes available.
const blockingPollInterval = 50 * time.Millisecond

func (db *DB) getAsList(key string) (List.List, protocol.ErrorReply) {
	entity, exists := db.GetEntity(key)
	if !exists {
		return nil, nil
	}
	list, ok := entity.Data.(List.List)
	if !ok {
		return nil, &protocol.WrongTypeErrReply{}
	}
	return list, nil
}

func (db *DB) getOrInitList(key string) (list List.List, isNew bool, errReply protocol.ErrorReply) {
	list, errReply = db.getAsList(key)
	if errReply != nil {
		return nil, false, errReply
	}
	isNew = false
	if list == nil {
		list = List.NewQuickList()
		db.PutEntity(key, &database.DataEntity{
			Data: list,
		})
		isNew = true
	}
	return list, isNew, nil
}

func bytesExpected(target []byte) List.Expected {
	return func(a interface{}) bool {
		b, _ := a.([]byte)
		return utils.BytesEquals(b, target)
	}
}

// execLIndex gets the element of a list at the given index
func execLIndex(db *DB, args [][]byte) redis.Reply {
	key := string(args[0])
	index64, err := strconv.ParseInt(string(args[1]), 10, 64)
	if err != nil {
		return protocol.MakeErrReply("ERR value is not an integer or out of range")
	}
	index := int(index64)

	list, errReply := db.getAsList(key)
	if errReply != nil {
		return errReply
	}
	if list == nil {
		return &protocol.NullBulkReply{}
	}

	size := list.Len() // assert: size > 0
	if index < -1*size {
		return &protocol.NullBulkReply{}
	} else if index < 0 {
		index = size + index
	} else if index >= size {
		return &protocol.NullBulkReply{}
	}

	val, _ := list.Get(index).([]byte)
	return protocol.MakeBulkReply(val)
}

// execLLen gets the length of a list
func execLLen(db *DB, args [][]byte) redis.Reply {
	key := string(args[0])

	list, errReply := db.getAsList(key)
	if errReply != nil {
		return errReply
	}
	if list == nil {
		return protocol.MakeIntReply(0)
	}
	return protocol.MakeIntReply(int64(list.Len()))
}

// execLPos finds the index of the first (or count-th) occurrence of an
// element, optionally skipping forward from RANK
func execLPos(db *DB, args [][]byte) redis.Reply {
	if len(args) < 2 {
		return protocol.MakeErrReply("ERR wrong number of arguments for 'lpos' command")
	}
	key := string(args[0])
	target := args[1]

	rank := 1
	count := 1
	hasCount := false
	for i := 2; i < len(args); i += 2 {
		if i+1 >= len(args) {
			return protocol.MakeSyntaxErrReply()
		}
		opt := strings.ToUpper(string(args[i]))
		val, err := strconv.Atoi(string(args[i+1]))
		if err != nil {
			return protocol.MakeErrReply("ERR value is not an integer or out of range")
		}
		switch opt {
		case "RANK":
			if val == 0 {
				return protocol.MakeErrReply("ERR RANK can't be zero")
			}
			rank = val
		case "COUNT":
			if val < 0 {
				return protocol.MakeErrReply("ERR COUNT can't be negative")
			}
			count = val
			hasCount = true
		default:
			return protocol.MakeSyntaxErrReply()
		}
	}

	list, errReply := db.getAsList(key)
	if errReply != nil {
		return errReply
	}
	if list == nil {
		if hasCount {
			return &protocol.EmptyMultiBulkReply{}
		}
		return &protocol.NullBulkReply{}
	}

	var matches []int64
	size := list.Len()
	skip := rank
	if skip < 0 {
		skip = -skip
	}
	forward := rank > 0
	visit := func(i int) {
		val, _ := list.Get(i).([]byte)
		if !utils.BytesEquals(val, target) {
			return
		}
		skip--
		if skip > 0 {
			return
		}
		matches = append(matches, int64(i))
	}
	if forward {
		for i := 0; i < size; i++ {
			visit(i)
			if count != 0 && len(matches) >= count {
				break
			}
		}
	} else {
		for i := size - 1; i >= 0; i-- {
			visit(i)
			if count != 0 && len(matches) >= count {
				break
			}
		}
	}

	if !hasCount {
		if len(matches) == 0 {
			return &protocol.NullBulkReply{}
		}
		return protocol.MakeIntReply(matches[0])
	}
	result := make([]redis.Reply, len(matches))
	for i, m := range matches {
		result[i] = protocol.MakeIntReply(m)
	}
	return protocol.MakeMultiRawReply(result)
}

// execLPop removes the first element of a list and returns it
func execLPop(db *DB, args [][]byte) redis.Reply {
	key := string(args[0])

	list, errReply := db.getAsList(key)
	if errReply != nil {
		return errReply
	}
	if list == nil {
		return &protocol.NullBulkReply{}
	}

	val, _ := list.Remove(0).([]byte)
	if list.Len() == 0 {
		db.Remove(key)
	}
	return protocol.MakeBulkReply(val)
}

var lPushCmdBytes = []byte("LPUSH")

func undoLPop(db *DB, args [][]byte) []CmdLine {
	key := string(args[0])
	list, errReply := db.getAsList(key)
	if errReply != nil {
		return nil
	}
	if list == nil || list.Len() == 0 {
		return nil
	}
	element, _ := list.Get(0).([]byte)
	return []CmdLine{
		{lPushCmdBytes, args[0], element},
	}
}

// execLPush inserts elements at the head of a list
func execLPush(db *DB, args [][]byte) redis.Reply {
	key := string(args[0])
	values := args[1:]

	list, _, errReply := db.getOrInitList(key)
	if errReply != nil {
		return errReply
	}

	for _, value := range values {
		list.Insert(0, value)
	}

	return protocol.MakeIntReply(int64(list.Len()))
}

func undoLPush(db *DB, args [][]byte) []CmdLine {
	key := string(args[0])
	count := len(args) - 1
	cmdLines := make([]CmdLine, 0, count)
	for i := 0; i < count; i++ {
		cmdLines = append(cmdLines, utils.ToCmdLine("LPOP", key))
	}
	return cmdLines
}

// execLPushX inserts elements at the head of a list, only if it already exists
func execLPushX(db *DB, args [][]byte) redis.Reply {
	key := string(args[0])
	values := args[1:]

	list, errReply := db.getAsList(key)
	if errReply != nil {
		return errReply
	}
	if list == nil {
		return protocol.MakeIntReply(0)
	}

	for _, value := range values {
		list.Insert(0, value)
	}
	return protocol.MakeIntReply(int64(list.Len()))
}

// execLRange gets the elements of a list within the given range
func execLRange(db *DB, args [][]byte) redis.Reply {
	key := string(args[0])
	start64, err := strconv.ParseInt(string(args[1]), 10, 64)
	if err != nil {
		return protocol.MakeErrReply("ERR value is not an integer or out of range")
	}
	start := int(start64)
	stop64, err := strconv.ParseInt(string(args[2]), 10, 64)
	if err != nil {
		return protocol.MakeErrReply("ERR value is not an integer or out of range")
	}
	stop := int(stop64)

	list, errReply := db.getAsList(key)
	if errReply != nil {
		return errReply
	}
	if list == nil {
		return &protocol.EmptyMultiBulkReply{}
	}

	size := list.Len() // assert: size > 0
	if start < -1*size {
		start = 0
	} else if start < 0 {
		start = size + start
	} else if start >= size {
		return &protocol.EmptyMultiBulkReply{}
	}
	if stop < -1*size {
		stop = 0
	} else if stop < 0 {
		stop = size + stop + 1
	} else if stop < size {
		stop = stop + 1
	} else {
		stop = size
	}
	if stop < start {
		stop = start
	}

	slice := list.Range(start, stop)
	result := make([][]byte, len(slice))
	for i, raw := range slice {
		bytes, _ := raw.([]byte)
		result[i] = bytes
	}
	return protocol.MakeMultiBulkReply(result)
}

// execLRem removes elements of a list equal to a value
func execLRem(db *DB, args [][]byte) redis.Reply {
	key := string(args[0])
	count64, err := strconv.ParseInt(string(args[1]), 10, 64)
	if err != nil {
		return protocol.MakeErrReply("ERR value is not an integer or out of range")
	}
	count := int(count64)
	value := args[2]

	list, errReply := db.getAsList(key)
	if errReply != nil {
		return errReply
	}
	if list == nil {
		return protocol.MakeIntReply(0)
	}

	expected := bytesExpected(value)
	var removed int
	if count == 0 {
		removed = list.RemoveAllByVal(expected)
	} else if count > 0 {
		removed = list.RemoveByVal(expected, count)
	} else {
		removed = list.ReverseRemoveByVal(expected, -count)
	}

	if list.Len() == 0 {
		db.Remove(key)
	}
	return protocol.MakeIntReply(int64(removed))
}

// execLTrim trims a list so that it only contains the given range of elements
func execLTrim(db *DB, args [][]byte) redis.Reply {
	key := string(args[0])
	start64, err := strconv.ParseInt(string(args[1]), 10, 64)
	if err != nil {
		return protocol.MakeErrReply("ERR value is not an integer or out of range")
	}
	start := int(start64)
	stop64, err := strconv.ParseInt(string(args[2]), 10, 64)
	if err != nil {
		return protocol.MakeErrReply("ERR value is not an integer or out of range")
	}
	stop := int(stop64)

	list, errReply := db.getAsList(key)
	if errReply != nil {
		return errReply
	}
	if list == nil {
		return protocol.MakeOkReply()
	}

	size := list.Len()
	if start < -1*size {
		start = 0
	} else if start < 0 {
		start = size + start
	} else if start >= size {
		start = size
	}
	if stop < -1*size {
		stop = 0
	} else if stop < 0 {
		stop = size + stop + 1
	} else if stop < size {
		stop = stop + 1
	} else {
		stop = size
	}
	if stop < start {
		stop = start
	}

	kept := list.Range(start, stop)
	trimmed := List.NewQuickList()
	for _, v := range kept {
		trimmed.Add(v)
	}
	if trimmed.Len() == 0 {
		db.Remove(key)
	} else {
		db.PutEntity(key, &database.DataEntity{Data: trimmed})
	}
	return protocol.MakeOkReply()
}

// execLSet sets the element at a specified index of a list
func execLSet(db *DB, args [][]byte) redis.Reply {
	key := string(args[0])
	index64, err := strconv.ParseInt(string(args[1]), 10, 64)
	if err != nil {
		return protocol.MakeErrReply("ERR value is not an integer or out of range")
	}
	index := int(index64)
	value := args[2]

	list, errReply := db.getAsList(key)
	if errReply != nil {
		return errReply
	}
	if list == nil {
		return protocol.MakeErrReply("ERR no such key")
	}

	size := list.Len() // assert: size > 0
	if index < -1*size {
		return protocol.MakeErrReply("ERR index out of range")
	} else if index < 0 {
		index = size + index
	} else if index >= size {
		return protocol.MakeErrReply("ERR index out of range")
	}

	list.Set(index, value)
	return protocol.MakeOkReply()
}

func undoLSet(db *DB, args [][]byte) []CmdLine {
	key := string(args[0])
	index64, err := strconv.ParseInt(string(args[1]), 10, 64)
	if err != nil {
		return nil
	}
	index := int(index64)
	list, errReply := db.getAsList(key)
	if errReply != nil {
		return nil
	}
	if list == nil {
		return nil
	}
	size := list.Len() // assert: size > 0
	if index < -1*size {
		return nil
	} else if index < 0 {
		index = size + index
	} else if index >= size {
		return nil
	}
	value, _ := list.Get(index).([]byte)
	return []CmdLine{
		{[]byte("LSET"), args[0], args[1], value},
	}
}

// execRPop removes the last element of a list and returns it
func execRPop(db *DB, args [][]byte) redis.Reply {
	key := string(args[0])

	list, errReply := db.getAsList(key)
	if errReply != nil {
		return errReply
	}
	if list == nil {
		return &protocol.NullBulkReply{}
	}

	val, _ := list.RemoveLast().([]byte)
	if list.Len() == 0 {
		db.Remove(key)
	}
	return protocol.MakeBulkReply(val)
}

var rPushCmdBytes = []byte("RPUSH")

func undoRPop(db *DB, args [][]byte) []CmdLine {
	key := string(args[0])
	list, errReply := db.getAsList(key)
	if errReply != nil {
		return nil
	}
	if list == nil || list.Len() == 0 {
		return nil
	}
	element, _ := list.Get(list.Len() - 1).([]byte)
	return []CmdLine{
		{rPushCmdBytes, args[0], element},
	}
}

func prepareRPopLPush(args [][]byte) ([]string, []string) {
	return []string{string(args[0]), string(args[1])}, nil
}

// execRPopLPush pops the last element of list-A and inserts it at the head of list-B
func execRPopLPush(db *DB, args [][]byte) redis.Reply {
	sourceKey := string(args[0])
	destKey := string(args[1])

	sourceList, errReply := db.getAsList(sourceKey)
	if errReply != nil {
		return errReply
	}
	if sourceList == nil {
		return &protocol.NullBulkReply{}
	}

	destList, _, errReply := db.getOrInitList(destKey)
	if errReply != nil {
		return errReply
	}

	val, _ := sourceList.RemoveLast().([]byte)
	destList.Insert(0, val)

	if sourceList.Len() == 0 {
		db.Remove(sourceKey)
	}

	return protocol.MakeBulkReply(val)
}

func undoRPopLPush(db *DB, args [][]byte) []CmdLine {
	sourceKey := string(args[0])
	list, errReply := db.getAsList(sourceKey)
	if errReply != nil {
		return nil
	}
	if list == nil || list.Len() == 0 {
		return nil
	}
	element, _ := list.Get(list.Len() - 1).([]byte)
	return []CmdLine{
		{rPushCmdBytes, args[0], element},
		{[]byte("LPOP"), args[1]},
	}
}

// execRPush inserts elements at the tail of a list
func execRPush(db *DB, args [][]byte) redis.Reply {
	key := string(args[0])
	values := args[1:]

	list, _, errReply := db.getOrInitList(key)
	if errReply != nil {
		return errReply
	}

	for _, value := range values {
		list.Add(value)
	}
	return protocol.MakeIntReply(int64(list.Len()))
}

func undoRPush(db *DB, args [][]byte) []CmdLine {
	key := string(args[0])
	count := len(args) - 1
	cmdLines := make([]CmdLine, 0, count)
	for i := 0; i < count; i++ {
		cmdLines = append(cmdLines, utils.ToCmdLine("RPOP", key))
	}
	return cmdLines
}

// execRPushX inserts elements at the tail of a list, only if it already exists
func execRPushX(db *DB, args [][]byte) redis.Reply {
	if len(args) < 2 {
		return protocol.MakeErrReply("ERR wrong number of arguments for 'rpushx' command")
	}
	key := string(args[0])
	values := args[1:]

	list, errReply := db.getAsList(key)
	if errReply != nil {
		return errReply
	}
	if list == nil {
		return protocol.MakeIntReply(0)
	}

	for _, value := range values {
		list.Add(value)
	}
	return protocol.MakeIntReply(int64(list.Len()))
}

// blockingPop repeatedly attempts a single-key pop against each listed key,
// in order, until one yields an element or the deadline passes. It sleeps
// between attempts rather than holding any lock, so ordinary writers to the
// same keys aren't starved while it polls.
func blockingPop(db *DB, args [][]byte, exec ExecFunc) redis.Reply {
	n := len(args)
	timeoutSec, err := strconv.ParseFloat(string(args[n-1]), 64)
	if err != nil || timeoutSec < 0 {
		return protocol.MakeErrReply("ERR timeout is not a float or out of range")
	}
	keys := args[:n-1]
	if len(keys) == 0 {
		return protocol.MakeErrReply("ERR wrong number of arguments")
	}

	var deadline time.Time
	hasDeadline := timeoutSec > 0
	if hasDeadline {
		deadline = time.Now().Add(time.Duration(timeoutSec * float64(time.Second)))
	}

	for {
		for _, key := range keys {
			list, errReply := db.getAsList(string(key))
			if errReply != nil {
				return errReply
			}
			if list != nil && list.Len() > 0 {
				return exec(db, [][]byte{key})
			}
		}
		if hasDeadline && !time.Now().Before(deadline) {
			return &protocol.NullMultiBulkReply{}
		}
		time.Sleep(blockingPollInterval)
	}
}

// popWithKey wraps a single-key pop executor so its reply is prefixed with
// the key it popped from, matching the two-element array BLPOP/BRPOP return.
func popWithKey(exec ExecFunc) ExecFunc {
	return func(db *DB, args [][]byte) redis.Reply {
		key := args[0]
		val := exec(db, [][]byte{key})
		bulk, ok := val.(*protocol.BulkReply)
		if !ok {
			return val
		}
		return protocol.MakeMultiBulkReply([][]byte{key, bulk.Arg})
	}
}

// execBLPop blocks until an element is available at the head of one of the
// given lists, or the timeout elapses
func execBLPop(db *DB, args [][]byte) redis.Reply {
	return blockingPop(db, args, popWithKey(execLPop))
}

// execBRPop blocks until an element is available at the tail of one of the
// given lists, or the timeout elapses
func execBRPop(db *DB, args [][]byte) redis.Reply {
	return blockingPop(db, args, popWithKey(execRPop))
}

func init() {
	registerCommand("LPush", execLPush, writeFirstKey, undoLPush, -3, flagWrite)
	registerCommand("LPushX", execLPushX, writeFirstKey, undoLPush, -3, flagWrite)
	registerCommand("RPush", execRPush, writeFirstKey, undoRPush, -3, flagWrite)
	registerCommand("RPushX", execRPushX, writeFirstKey, undoRPush, -3, flagWrite)
	registerCommand("LPop", execLPop, writeFirstKey, undoLPop, 2, flagWrite)
	registerCommand("RPop", execRPop, writeFirstKey, undoRPop, 2, flagWrite)
	registerCommand("RPopLPush", execRPopLPush, prepareRPopLPush, undoRPopLPush, 3, flagWrite)
	registerCommand("LRem", execLRem, writeFirstKey, rollbackFirstKey, 4, flagWrite)
	registerCommand("LTrim", execLTrim, writeFirstKey, rollbackFirstKey, 4, flagWrite)
	registerCommand("LLen", execLLen, readFirstKey, nil, 2, flagReadOnly)
	registerCommand("LIndex", execLIndex, readFirstKey, nil, 3, flagReadOnly)
	registerCommand("LPos", execLPos, readFirstKey, nil, -3, flagReadOnly)
	registerCommand("LSet", execLSet, writeFirstKey, undoLSet, 4, flagWrite)
	registerCommand("LRange", execLRange, readFirstKey, nil, 4, flagReadOnly)
	registerCommand("BLPop", execBLPop, readAllKeys, nil, -3, flagWrite)
	registerCommand("BRPop", execBRPop, readAllKeys, nil, -3, flagWrite)
}
