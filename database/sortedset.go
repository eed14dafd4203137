package database

import (
	"math"
	"sort"
	"strconv"
	"strings"

	SortedSet "github.com/hdt3213/gkvs/datastruct/sortedset"
	"github.com/hdt3213/gkvs/interface/database"
	"github.com/hdt3213/gkvs/interface/redis"
	"github.com/hdt3213/gkvs/redis/protocol"
)

func (db *DB) getAsSortedSet(key string) (*SortedSet.SortedSet, protocol.ErrorReply) {
	entity, exists := db.GetEntity(key)
	if !exists {
		return nil, nil
	}
	sortedSet, ok := entity.Data.(*SortedSet.SortedSet)
	if !ok {
		return nil, &protocol.WrongTypeErrReply{}
	}
	return sortedSet, nil
}

func (db *DB) getOrInitSortedSet(key string) (sortedSet *SortedSet.SortedSet, inited bool, errReply protocol.ErrorReply) {
	sortedSet, errReply = db.getAsSortedSet(key)
	if errReply != nil {
		return nil, false, errReply
	}
	inited = false
	if sortedSet == nil {
		sortedSet = SortedSet.Make()
		db.PutEntity(key, &database.DataEntity{
			Data: sortedSet,
		})
		inited = true
	}
	return sortedSet, inited, nil
}

// execZAdd adds member into sorted set
func execZAdd(db *DB, args [][]byte) redis.Reply {
	if len(args)%2 != 1 {
		return protocol.MakeSyntaxErrReply()
	}
	key := string(args[0])
	size := (len(args) - 1) / 2
	elements := make([]*SortedSet.Element, size)
	for i := 0; i < size; i++ {
		scoreValue := args[2*i+1]
		member := string(args[2*i+2])
		score, err := strconv.ParseFloat(string(scoreValue), 64)
		if err != nil {
			return protocol.MakeErrReply("ERR value is not a valid float")
		}
		elements[i] = &SortedSet.Element{
			Member: member,
			Score:  score,
		}
	}

	// get or init entity
	sortedSet, _, errReply := db.getOrInitSortedSet(key)
	if errReply != nil {
		return errReply
	}

	i := 0
	for _, e := range elements {
		if sortedSet.Add(e.Member, e.Score) {
			i++
		}
	}


	return protocol.MakeIntReply(int64(i))
}

func undoZAdd(db *DB, args [][]byte) []CmdLine {
	key := string(args[0])
	size := (len(args) - 1) / 2
	fields := make([]string, size)
	for i := 0; i < size; i++ {
		fields[i] = string(args[2*i+2])
	}
	return rollbackZSetFields(db, key, fields...)
}

// execZScore gets score of a member in sortedset
func execZScore(db *DB, args [][]byte) redis.Reply {
	// parse args
	key := string(args[0])
	member := string(args[1])

	sortedSet, errReply := db.getAsSortedSet(key)
	if errReply != nil {
		return errReply
	}
	if sortedSet == nil {
		return &protocol.NullBulkReply{}
	}

	element, exists := sortedSet.Get(member)
	if !exists {
		return &protocol.NullBulkReply{}
	}
	value := strconv.FormatFloat(element.Score, 'f', -1, 64)
	return protocol.MakeBulkReply([]byte(value))
}

// execZRank gets index of a member in sortedset, ascending order, start from 0
func execZRank(db *DB, args [][]byte) redis.Reply {
	// parse args
	key := string(args[0])
	member := string(args[1])

	// get entity
	sortedSet, errReply := db.getAsSortedSet(key)
	if errReply != nil {
		return errReply
	}
	if sortedSet == nil {
		return &protocol.NullBulkReply{}
	}

	rank := sortedSet.GetRank(member, false)
	if rank < 0 {
		return &protocol.NullBulkReply{}
	}
	return protocol.MakeIntReply(rank)
}

// execZRevRank gets index of a member in sortedset, descending order, start from 0
func execZRevRank(db *DB, args [][]byte) redis.Reply {
	// parse args
	key := string(args[0])
	member := string(args[1])

	// get entity
	sortedSet, errReply := db.getAsSortedSet(key)
	if errReply != nil {
		return errReply
	}
	if sortedSet == nil {
		return &protocol.NullBulkReply{}
	}

	rank := sortedSet.GetRank(member, true)
	if rank < 0 {
		return &protocol.NullBulkReply{}
	}
	return protocol.MakeIntReply(rank)
}

// execZCard gets number of members in sortedset
func execZCard(db *DB, args [][]byte) redis.Reply {
	// parse args
	key := string(args[0])

	// get entity
	sortedSet, errReply := db.getAsSortedSet(key)
	if errReply != nil {
		return errReply
	}
	if sortedSet == nil {
		return protocol.MakeIntReply(0)
	}

	return protocol.MakeIntReply(sortedSet.Len())
}

// execZRange gets members in range, sort by score in ascending order
func execZRange(db *DB, args [][]byte) redis.Reply {
	// parse args
	if len(args) != 3 && len(args) != 4 {
		return protocol.MakeErrReply("ERR wrong number of arguments for 'zrange' command")
	}
	withScores := false
	if len(args) == 4 {
		if strings.ToUpper(string(args[3])) != "WITHSCORES" {
			return protocol.MakeErrReply("syntax error")
		}
		withScores = true
	}
	key := string(args[0])
	start, err := strconv.ParseInt(string(args[1]), 10, 64)
	if err != nil {
		return protocol.MakeErrReply("ERR value is not an integer or out of range")
	}
	stop, err := strconv.ParseInt(string(args[2]), 10, 64)
	if err != nil {
		return protocol.MakeErrReply("ERR value is not an integer or out of range")
	}
	return range0(db, key, start, stop, withScores, false)
}

// execZRevRange gets members in range, sort by score in descending order
func execZRevRange(db *DB, args [][]byte) redis.Reply {
	// parse args
	if len(args) != 3 && len(args) != 4 {
		return protocol.MakeErrReply("ERR wrong number of arguments for 'zrevrange' command")
	}
	withScores := false
	if len(args) == 4 {
		if string(args[3]) != "WITHSCORES" {
			return protocol.MakeErrReply("syntax error")
		}
		withScores = true
	}
	key := string(args[0])
	start, err := strconv.ParseInt(string(args[1]), 10, 64)
	if err != nil {
		return protocol.MakeErrReply("ERR value is not an integer or out of range")
	}
	stop, err := strconv.ParseInt(string(args[2]), 10, 64)
	if err != nil {
		return protocol.MakeErrReply("ERR value is not an integer or out of range")
	}
	return range0(db, key, start, stop, withScores, true)
}

func range0(db *DB, key string, start int64, stop int64, withScores bool, desc bool) redis.Reply {
	// get data
	sortedSet, errReply := db.getAsSortedSet(key)
	if errReply != nil {
		return errReply
	}
	if sortedSet == nil {
		return &protocol.EmptyMultiBulkReply{}
	}

	// compute index
	size := sortedSet.Len() // assert: size > 0
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

	// assert: start in [0, size - 1], stop in [start, size]
	slice := sortedSet.Range(start, stop, desc)
	if withScores {
		result := make([][]byte, len(slice)*2)
		i := 0
		for _, element := range slice {
			result[i] = []byte(element.Member)
			i++
			scoreStr := strconv.FormatFloat(element.Score, 'f', -1, 64)
			result[i] = []byte(scoreStr)
			i++
		}
		return protocol.MakeMultiBulkReply(result)
	}
	result := make([][]byte, len(slice))
	i := 0
	for _, element := range slice {
		result[i] = []byte(element.Member)
		i++
	}
	return protocol.MakeMultiBulkReply(result)
}

// execZCount gets number of members which score within given range
func execZCount(db *DB, args [][]byte) redis.Reply {
	key := string(args[0])

	min, err := SortedSet.ParseScoreBorder(string(args[1]))
	if err != nil {
		return protocol.MakeErrReply(err.Error())
	}

	max, err := SortedSet.ParseScoreBorder(string(args[2]))
	if err != nil {
		return protocol.MakeErrReply(err.Error())
	}

	// get data
	sortedSet, errReply := db.getAsSortedSet(key)
	if errReply != nil {
		return errReply
	}
	if sortedSet == nil {
		return protocol.MakeIntReply(0)
	}

	return protocol.MakeIntReply(sortedSet.Count(min, max))
}

/*
 * param limit: limit < 0 means no limit
 */
func rangeByScore0(db *DB, key string, min *SortedSet.ScoreBorder, max *SortedSet.ScoreBorder, offset int64, limit int64, withScores bool, desc bool) redis.Reply {
	// get data
	sortedSet, errReply := db.getAsSortedSet(key)
	if errReply != nil {
		return errReply
	}
	if sortedSet == nil {
		return &protocol.EmptyMultiBulkReply{}
	}

	slice := sortedSet.RangeByScore(min, max, offset, limit, desc)
	if withScores {
		result := make([][]byte, len(slice)*2)
		i := 0
		for _, element := range slice {
			result[i] = []byte(element.Member)
			i++
			scoreStr := strconv.FormatFloat(element.Score, 'f', -1, 64)
			result[i] = []byte(scoreStr)
			i++
		}
		return protocol.MakeMultiBulkReply(result)
	}
	result := make([][]byte, len(slice))
	i := 0
	for _, element := range slice {
		result[i] = []byte(element.Member)
		i++
	}
	return protocol.MakeMultiBulkReply(result)
}

// execZRangeByScore gets members which score within given range, in ascending order
func execZRangeByScore(db *DB, args [][]byte) redis.Reply {
	if len(args) < 3 {
		return protocol.MakeErrReply("ERR wrong number of arguments for 'zrangebyscore' command")
	}
	key := string(args[0])

	min, err := SortedSet.ParseScoreBorder(string(args[1]))
	if err != nil {
		return protocol.MakeErrReply(err.Error())
	}

	max, err := SortedSet.ParseScoreBorder(string(args[2]))
	if err != nil {
		return protocol.MakeErrReply(err.Error())
	}

	withScores := false
	var offset int64 = 0
	var limit int64 = -1
	if len(args) > 3 {
		for i := 3; i < len(args); {
			s := string(args[i])
			if strings.ToUpper(s) == "WITHSCORES" {
				withScores = true
				i++
			} else if strings.ToUpper(s) == "LIMIT" {
				if len(args) < i+3 {
					return protocol.MakeErrReply("ERR syntax error")
				}
				offset, err = strconv.ParseInt(string(args[i+1]), 10, 64)
				if err != nil {
					return protocol.MakeErrReply("ERR value is not an integer or out of range")
				}
				limit, err = strconv.ParseInt(string(args[i+2]), 10, 64)
				if err != nil {
					return protocol.MakeErrReply("ERR value is not an integer or out of range")
				}
				i += 3
			} else {
				return protocol.MakeErrReply("ERR syntax error")
			}
		}
	}
	return rangeByScore0(db, key, min, max, offset, limit, withScores, false)
}

// execZRevRangeByScore gets members which score within given range, in descending order
func execZRevRangeByScore(db *DB, args [][]byte) redis.Reply {
	if len(args) < 3 {
		return protocol.MakeErrReply("ERR wrong number of arguments for 'zrangebyscore' command")
	}
	key := string(args[0])

	min, err := SortedSet.ParseScoreBorder(string(args[2]))
	if err != nil {
		return protocol.MakeErrReply(err.Error())
	}

	max, err := SortedSet.ParseScoreBorder(string(args[1]))
	if err != nil {
		return protocol.MakeErrReply(err.Error())
	}

	withScores := false
	var offset int64 = 0
	var limit int64 = -1
	if len(args) > 3 {
		for i := 3; i < len(args); {
			s := string(args[i])
			if strings.ToUpper(s) == "WITHSCORES" {
				withScores = true
				i++
			} else if strings.ToUpper(s) == "LIMIT" {
				if len(args) < i+3 {
					return protocol.MakeErrReply("ERR syntax error")
				}
				offset, err = strconv.ParseInt(string(args[i+1]), 10, 64)
				if err != nil {
					return protocol.MakeErrReply("ERR value is not an integer or out of range")
				}
				limit, err = strconv.ParseInt(string(args[i+2]), 10, 64)
				if err != nil {
					return protocol.MakeErrReply("ERR value is not an integer or out of range")
				}
				i += 3
			} else {
				return protocol.MakeErrReply("ERR syntax error")
			}
		}
	}
	return rangeByScore0(db, key, min, max, offset, limit, withScores, true)
}

// execZRemRangeByScore removes members which score within given range
func execZRemRangeByScore(db *DB, args [][]byte) redis.Reply {
	if len(args) != 3 {
		return protocol.MakeErrReply("ERR wrong number of arguments for 'zremrangebyscore' command")
	}
	key := string(args[0])

	min, err := SortedSet.ParseScoreBorder(string(args[1]))
	if err != nil {
		return protocol.MakeErrReply(err.Error())
	}

	max, err := SortedSet.ParseScoreBorder(string(args[2]))
	if err != nil {
		return protocol.MakeErrReply(err.Error())
	}

	// get data
	sortedSet, errReply := db.getAsSortedSet(key)
	if errReply != nil {
		return errReply
	}
	if sortedSet == nil {
		return &protocol.EmptyMultiBulkReply{}
	}

	removed := sortedSet.RemoveByScore(min, max)
	return protocol.MakeIntReply(removed)
}

// execZRemRangeByRank removes members within given indexes
func execZRemRangeByRank(db *DB, args [][]byte) redis.Reply {
	key := string(args[0])
	start, err := strconv.ParseInt(string(args[1]), 10, 64)
	if err != nil {
		return protocol.MakeErrReply("ERR value is not an integer or out of range")
	}
	stop, err := strconv.ParseInt(string(args[2]), 10, 64)
	if err != nil {
		return protocol.MakeErrReply("ERR value is not an integer or out of range")
	}

	// get data
	sortedSet, errReply := db.getAsSortedSet(key)
	if errReply != nil {
		return errReply
	}
	if sortedSet == nil {
		return protocol.MakeIntReply(0)
	}

	// compute index
	size := sortedSet.Len() // assert: size > 0
	if start < -1*size {
		start = 0
	} else if start < 0 {
		start = size + start
	} else if start >= size {
		return protocol.MakeIntReply(0)
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

	// assert: start in [0, size - 1], stop in [start, size]
	removed := sortedSet.RemoveByRank(start, stop)
	return protocol.MakeIntReply(removed)
}

func execZPopMin(db *DB, args [][]byte) redis.Reply {
	key := string(args[0])
	count := 1
	if len(args) > 1 {
		var err error
		count, err = strconv.Atoi(string(args[1]))
		if err != nil {
			return protocol.MakeErrReply("ERR value is not an integer or out of range")
		}
	}

	sortedSet, errReply := db.getAsSortedSet(key)
	if errReply != nil {
		return errReply
	}
	if sortedSet == nil {
		return protocol.MakeEmptyMultiBulkReply()
	}

	removed := sortedSet.PopMin(count)
	result := make([][]byte, 0, len(removed)*2)
	for _, element := range removed {
		scoreStr := strconv.FormatFloat(element.Score, 'f', -1, 64)
		result = append(result, []byte(element.Member), []byte(scoreStr))
	}
	return protocol.MakeMultiBulkReply(result)
}

// execZRem removes given members
func execZRem(db *DB, args [][]byte) redis.Reply {
	// parse args
	key := string(args[0])
	fields := make([]string, len(args)-1)
	fieldArgs := args[1:]
	for i, v := range fieldArgs {
		fields[i] = string(v)
	}

	// get entity
	sortedSet, errReply := db.getAsSortedSet(key)
	if errReply != nil {
		return errReply
	}
	if sortedSet == nil {
		return protocol.MakeIntReply(0)
	}

	var deleted int64 = 0
	for _, field := range fields {
		if sortedSet.Remove(field) {
			deleted++
		}
	}
	return protocol.MakeIntReply(deleted)
}

func undoZRem(db *DB, args [][]byte) []CmdLine {
	key := string(args[0])
	fields := make([]string, len(args)-1)
	fieldArgs := args[1:]
	for i, v := range fieldArgs {
		fields[i] = string(v)
	}
	return rollbackZSetFields(db, key, fields...)
}

// execZIncrBy increments the score of a member
func execZIncrBy(db *DB, args [][]byte) redis.Reply {
	key := string(args[0])
	rawDelta := string(args[1])
	field := string(args[2])
	delta, err := strconv.ParseFloat(rawDelta, 64)
	if err != nil {
		return protocol.MakeErrReply("ERR value is not a valid float")
	}

	// get or init entity
	sortedSet, _, errReply := db.getOrInitSortedSet(key)
	if errReply != nil {
		return errReply
	}

	element, exists := sortedSet.Get(field)
	if !exists {
		sortedSet.Add(field, delta)
		return protocol.MakeBulkReply(args[1])
	}
	score := element.Score + delta
	sortedSet.Add(field, score)
	bytes := []byte(strconv.FormatFloat(score, 'f', -1, 64))
	return protocol.MakeBulkReply(bytes)
}

func undoZIncr(db *DB, args [][]byte) []CmdLine {
	key := string(args[0])
	field := string(args[2])
	return rollbackZSetFields(db, key, field)
}

func execZLexCount(db *DB, args [][]byte) redis.Reply {
	key := string(args[0])
	sortedSet, errReply := db.getAsSortedSet(key)
	if errReply != nil {
		return errReply
	}
	if sortedSet == nil {
		return protocol.MakeIntReply(0)
	}

	minEle, maxEle := string(args[1]), string(args[2])
	min, err := SortedSet.ParseLexBorder(minEle)
	if err != nil {
		return protocol.MakeErrReply(err.Error())
	}
	max, err := SortedSet.ParseLexBorder(maxEle)
	if err != nil {
		return protocol.MakeErrReply(err.Error())
	}

	count := sortedSet.CountByLex(min, max)

	return protocol.MakeIntReply(count)
}

func execZRangeByLex(db *DB, args [][]byte) redis.Reply {
	n := len(args)
	if n > 3 && strings.ToLower(string(args[3])) != "limit" {
		return protocol.MakeErrReply("ERR syntax error")
	}
	if n != 3 && n != 6 {
		return protocol.MakeErrReply("ERR wrong number of arguments for 'zrangebylex' command")
	}

	key := string(args[0])
	sortedSet, errReply := db.getAsSortedSet(key)
	if errReply != nil {
		return errReply
	}
	if sortedSet == nil {
		return protocol.MakeIntReply(0)
	}

	minEle, maxEle := string(args[1]), string(args[2])
	min, err := SortedSet.ParseLexBorder(minEle)
	if err != nil {
		return protocol.MakeErrReply(err.Error())
	}
	max, err := SortedSet.ParseLexBorder(maxEle)
	if err != nil {
		return protocol.MakeErrReply(err.Error())
	}

	offset := int64(0)
	limitCnt := int64(math.MaxInt64)
	if n > 3 {
		var err error
		offset, err = strconv.ParseInt(string(args[4]), 10, 64)
		if err != nil {
			return protocol.MakeErrReply("ERR value is not an integer or out of range")
		}
		if offset < 0 {
			return protocol.MakeEmptyMultiBulkReply()
		}
		count, err := strconv.ParseInt(string(args[5]), 10, 64)
		if err != nil {
			return protocol.MakeErrReply("ERR value is not an integer or out of range")
		}
		if count >= 0 {
			limitCnt = count
		}
	}

	elements := sortedSet.RangeByLex(min, max, offset, limitCnt, false)
	result := make([][]byte, 0, len(elements))
	for _, ele := range elements {
		result = append(result, []byte(ele.Member))
	}
	if len(result) == 0 {
		return protocol.MakeEmptyMultiBulkReply()
	}
	return protocol.MakeMultiBulkReply(result)
}

func execZRemRangeByLex(db *DB, args [][]byte) redis.Reply {
	n := len(args)
	if n != 3 {
		return protocol.MakeErrReply("ERR wrong number of arguments for 'zremrangebylex' command")
	}

	key := string(args[0])
	sortedSet, errReply := db.getAsSortedSet(key)
	if errReply != nil {
		return errReply
	}
	if sortedSet == nil {
		return protocol.MakeIntReply(0)
	}

	minEle, maxEle := string(args[1]), string(args[2])
	min, err := SortedSet.ParseLexBorder(minEle)
	if err != nil {
		return protocol.MakeErrReply(err.Error())
	}
	max, err := SortedSet.ParseLexBorder(maxEle)
	if err != nil {
		return protocol.MakeErrReply(err.Error())
	}

	count := sortedSet.RemoveByLex(min, max)

	return protocol.MakeIntReply(count)
}

func execZRevRangeByLex(db *DB, args [][]byte) redis.Reply {
	n := len(args)
	if n > 3 && strings.ToLower(string(args[3])) != "limit" {
		return protocol.MakeErrReply("ERR syntax error")
	}
	if n != 3 && n != 6 {
		return protocol.MakeErrReply("ERR wrong number of arguments for 'zrangebylex' command")
	}

	key := string(args[0])
	sortedSet, errReply := db.getAsSortedSet(key)
	if errReply != nil {
		return errReply
	}
	if sortedSet == nil {
		return protocol.MakeIntReply(0)
	}

	minEle, maxEle := string(args[2]), string(args[1])
	min, err := SortedSet.ParseLexBorder(minEle)
	if err != nil {
		return protocol.MakeErrReply(err.Error())
	}
	max, err := SortedSet.ParseLexBorder(maxEle)
	if err != nil {
		return protocol.MakeErrReply(err.Error())
	}

	offset := int64(0)
	limitCnt := int64(math.MaxInt64)
	if n > 3 {
		var err error
		offset, err = strconv.ParseInt(string(args[4]), 10, 64)
		if err != nil {
			return protocol.MakeErrReply("ERR value is not an integer or out of range")
		}
		if offset < 0 {
			return protocol.MakeEmptyMultiBulkReply()
		}
		count, err := strconv.ParseInt(string(args[5]), 10, 64)
		if err != nil {
			return protocol.MakeErrReply("ERR value is not an integer or out of range")
		}
		if count >= 0 {
			limitCnt = count
		}
	}

	elements := sortedSet.RangeByLex(min, max, offset, limitCnt, true)
	result := make([][]byte, 0, len(elements))
	for _, ele := range elements {
		result = append(result, []byte(ele.Member))
	}
	if len(result) == 0 {
		return protocol.MakeEmptyMultiBulkReply()
	}
	return protocol.MakeMultiBulkReply(result)
}

func execZPopMax(db *DB, args [][]byte) redis.Reply {
	key := string(args[0])
	count := 1
	if len(args) > 1 {
		var err error
		count, err = strconv.Atoi(string(args[1]))
		if err != nil {
			return protocol.MakeErrReply("ERR value is not an integer or out of range")
		}
	}

	sortedSet, errReply := db.getAsSortedSet(key)
	if errReply != nil {
		return errReply
	}
	if sortedSet == nil {
		return protocol.MakeEmptyMultiBulkReply()
	}

	removed := sortedSet.PopMax(count)
	result := make([][]byte, 0, len(removed)*2)
	for _, element := range removed {
		scoreStr := strconv.FormatFloat(element.Score, 'f', -1, 64)
		result = append(result, []byte(element.Member), []byte(scoreStr))
	}
	return protocol.MakeMultiBulkReply(result)
}

// execZScan implements ZSCAN key cursor [MATCH pattern] [COUNT count]
func execZScan(db *DB, args [][]byte) redis.Reply {
	key := string(args[0])
	cursor, err := strconv.Atoi(string(args[1]))
	if err != nil || cursor < 0 {
		return protocol.MakeErrReply("ERR invalid cursor")
	}
	count := 10
	pattern := "*"
	for i := 2; i < len(args); i += 2 {
		if i+1 >= len(args) {
			return &protocol.SyntaxErrReply{}
		}
		opt := strings.ToUpper(string(args[i]))
		val := string(args[i+1])
		switch opt {
		case "MATCH":
			pattern = val
		case "COUNT":
			n, err := strconv.Atoi(val)
			if err != nil || n <= 0 {
				return protocol.MakeErrReply("ERR value is not an integer or out of range")
			}
			count = n
		default:
			return &protocol.SyntaxErrReply{}
		}
	}

	sortedSet, errReply := db.getAsSortedSet(key)
	if errReply != nil {
		return errReply
	}
	if sortedSet == nil {
		return protocol.MakeMultiRawReply([]redis.Reply{
			protocol.MakeBulkReply([]byte("0")),
			&protocol.EmptyMultiBulkReply{},
		})
	}

	keysAndScores, nextCursor := sortedSet.ZSetScan(cursor, count, pattern)
	return protocol.MakeMultiRawReply([]redis.Reply{
		protocol.MakeBulkReply([]byte(strconv.Itoa(nextCursor))),
		protocol.MakeMultiBulkReply(keysAndScores),
	})
}

/* ---- ZUNION / ZINTER / ZDIFF and their STORE variants ---- */

func aggregateScore(aggregate string, a, b float64) float64 {
	switch aggregate {
	case "MIN":
		if a < b {
			return a
		}
		return b
	case "MAX":
		if a > b {
			return a
		}
		return b
	default:
		return a + b
	}
}

// zsetToMap copies a sorted set's members into a plain member->score map,
// guarding against calling ForEach on an empty set.
func zsetToMap(sortedSet *SortedSet.SortedSet) map[string]float64 {
	result := make(map[string]float64)
	if sortedSet == nil || sortedSet.Len() == 0 {
		return result
	}
	sortedSet.ForEach(0, sortedSet.Len(), false, func(e *SortedSet.Element) bool {
		result[e.Member] = e.Score
		return true
	})
	return result
}

// parseZSetOpArgs parses `numkeys key [key ...] [WEIGHTS w [w ...]]
// [AGGREGATE SUM|MIN|MAX] [WITHSCORES]`, the argument shape shared by
// ZUNION/ZINTER and their STORE variants once any leading destination key
// has been stripped by the caller. ZDIFF(STORE) doesn't support WEIGHTS or
// AGGREGATE, so allowWeights gates that part of the grammar.
func parseZSetOpArgs(args [][]byte, allowWeights bool) (keys []string, weights []float64, aggregate string, withScores bool, errReply redis.Reply) {
	aggregate = "SUM"
	if len(args) < 1 {
		return nil, nil, "", false, protocol.MakeSyntaxErrReply()
	}
	numKeys, err := strconv.Atoi(string(args[0]))
	if err != nil || numKeys <= 0 {
		return nil, nil, "", false, protocol.MakeErrReply("ERR at least 1 input key is needed for this command")
	}
	if len(args) < 1+numKeys {
		return nil, nil, "", false, protocol.MakeSyntaxErrReply()
	}
	keys = make([]string, numKeys)
	for i := 0; i < numKeys; i++ {
		keys[i] = string(args[1+i])
	}

	i := 1 + numKeys
	for i < len(args) {
		opt := strings.ToUpper(string(args[i]))
		switch opt {
		case "WEIGHTS":
			if !allowWeights || len(args) < i+1+numKeys {
				return nil, nil, "", false, protocol.MakeSyntaxErrReply()
			}
			weights = make([]float64, numKeys)
			for j := 0; j < numKeys; j++ {
				w, err := strconv.ParseFloat(string(args[i+1+j]), 64)
				if err != nil {
					return nil, nil, "", false, protocol.MakeErrReply("ERR weight value is not a float")
				}
				weights[j] = w
			}
			i += 1 + numKeys
		case "AGGREGATE":
			if !allowWeights || i+1 >= len(args) {
				return nil, nil, "", false, protocol.MakeSyntaxErrReply()
			}
			agg := strings.ToUpper(string(args[i+1]))
			if agg != "SUM" && agg != "MIN" && agg != "MAX" {
				return nil, nil, "", false, protocol.MakeSyntaxErrReply()
			}
			aggregate = agg
			i += 2
		case "WITHSCORES":
			withScores = true
			i++
		default:
			return nil, nil, "", false, protocol.MakeSyntaxErrReply()
		}
	}
	if weights == nil {
		weights = make([]float64, numKeys)
		for j := range weights {
			weights[j] = 1
		}
	}
	return keys, weights, aggregate, withScores, nil
}

func zsetUnion(db *DB, keys []string, weights []float64, aggregate string) (map[string]float64, protocol.ErrorReply) {
	result := make(map[string]float64)
	for i, key := range keys {
		sortedSet, errReply := db.getAsSortedSet(key)
		if errReply != nil {
			return nil, errReply
		}
		for member, score := range zsetToMap(sortedSet) {
			weighted := score * weights[i]
			if existing, ok := result[member]; ok {
				result[member] = aggregateScore(aggregate, existing, weighted)
			} else {
				result[member] = weighted
			}
		}
	}
	return result, nil
}

func zsetInter(db *DB, keys []string, weights []float64, aggregate string) (map[string]float64, protocol.ErrorReply) {
	sets := make([]map[string]float64, len(keys))
	for i, key := range keys {
		sortedSet, errReply := db.getAsSortedSet(key)
		if errReply != nil {
			return nil, errReply
		}
		m := zsetToMap(sortedSet)
		if len(m) == 0 {
			// intersection with an empty set is always empty
			return map[string]float64{}, nil
		}
		sets[i] = m
	}
	result := make(map[string]float64)
	for member, score := range sets[0] {
		agg := score * weights[0]
		present := true
		for i := 1; i < len(sets); i++ {
			other, ok := sets[i][member]
			if !ok {
				present = false
				break
			}
			agg = aggregateScore(aggregate, agg, other*weights[i])
		}
		if present {
			result[member] = agg
		}
	}
	return result, nil
}

func zsetDiff(db *DB, keys []string) (map[string]float64, protocol.ErrorReply) {
	first, errReply := db.getAsSortedSet(keys[0])
	if errReply != nil {
		return nil, errReply
	}
	result := zsetToMap(first)
	for _, key := range keys[1:] {
		if len(result) == 0 {
			break
		}
		other, errReply := db.getAsSortedSet(key)
		if errReply != nil {
			return nil, errReply
		}
		if other == nil || other.Len() == 0 {
			continue
		}
		other.ForEach(0, other.Len(), false, func(e *SortedSet.Element) bool {
			delete(result, e.Member)
			return true
		})
	}
	return result, nil
}

// zsetOpReply renders a member->score map the way ZRANGE WITHSCORES does:
// ascending by score, ties broken by member name.
func zsetOpReply(result map[string]float64, withScores bool) redis.Reply {
	members := make([]string, 0, len(result))
	for member := range result {
		members = append(members, member)
	}
	sort.Slice(members, func(i, j int) bool {
		si, sj := result[members[i]], result[members[j]]
		if si != sj {
			return si < sj
		}
		return members[i] < members[j]
	})
	out := make([][]byte, 0, len(members)*2)
	for _, member := range members {
		out = append(out, []byte(member))
		if withScores {
			out = append(out, []byte(strconv.FormatFloat(result[member], 'f', -1, 64)))
		}
	}
	return protocol.MakeMultiBulkReply(out)
}

func storeZSetOpResult(db *DB, dest string, result map[string]float64) redis.Reply {
	db.Remove(dest) // clean ttl and old value regardless of outcome
	if len(result) == 0 {
		return protocol.MakeIntReply(0)
	}
	sortedSet := SortedSet.Make()
	for member, score := range result {
		sortedSet.Add(member, score)
	}
	db.PutEntity(dest, &database.DataEntity{Data: sortedSet})
	return protocol.MakeIntReply(int64(sortedSet.Len()))
}

// execZUnion computes the union of multiple sorted sets, combining scores
// with AGGREGATE (default SUM) weighted by WEIGHTS (default all 1)
func execZUnion(db *DB, args [][]byte) redis.Reply {
	keys, weights, aggregate, withScores, errReply := parseZSetOpArgs(args, true)
	if errReply != nil {
		return errReply
	}
	result, err := zsetUnion(db, keys, weights, aggregate)
	if err != nil {
		return err
	}
	return zsetOpReply(result, withScores)
}

// execZUnionStore is execZUnion storing its result into dest
func execZUnionStore(db *DB, args [][]byte) redis.Reply {
	dest := string(args[0])
	keys, weights, aggregate, _, errReply := parseZSetOpArgs(args[1:], true)
	if errReply != nil {
		return errReply
	}
	result, err := zsetUnion(db, keys, weights, aggregate)
	if err != nil {
		return err
	}
	return storeZSetOpResult(db, dest, result)
}

// execZInter computes the intersection of multiple sorted sets, combining
// scores with AGGREGATE (default SUM) weighted by WEIGHTS (default all 1)
func execZInter(db *DB, args [][]byte) redis.Reply {
	keys, weights, aggregate, withScores, errReply := parseZSetOpArgs(args, true)
	if errReply != nil {
		return errReply
	}
	result, err := zsetInter(db, keys, weights, aggregate)
	if err != nil {
		return err
	}
	return zsetOpReply(result, withScores)
}

// execZInterStore is execZInter storing its result into dest
func execZInterStore(db *DB, args [][]byte) redis.Reply {
	dest := string(args[0])
	keys, weights, aggregate, _, errReply := parseZSetOpArgs(args[1:], true)
	if errReply != nil {
		return errReply
	}
	result, err := zsetInter(db, keys, weights, aggregate)
	if err != nil {
		return err
	}
	return storeZSetOpResult(db, dest, result)
}

// execZDiff returns the members of the first sorted set that aren't present
// in any of the remaining sets. Unlike ZUNION/ZINTER it takes no WEIGHTS or
// AGGREGATE, since a plain set-subtraction has no scores to combine.
func execZDiff(db *DB, args [][]byte) redis.Reply {
	keys, _, _, withScores, errReply := parseZSetOpArgs(args, false)
	if errReply != nil {
		return errReply
	}
	result, err := zsetDiff(db, keys)
	if err != nil {
		return err
	}
	return zsetOpReply(result, withScores)
}

// execZDiffStore is execZDiff storing its result into dest
func execZDiffStore(db *DB, args [][]byte) redis.Reply {
	dest := string(args[0])
	keys, _, _, _, errReply := parseZSetOpArgs(args[1:], false)
	if errReply != nil {
		return errReply
	}
	result, err := zsetDiff(db, keys)
	if err != nil {
		return err
	}
	return storeZSetOpResult(db, dest, result)
}

func init() {
	registerCommand("ZAdd", execZAdd, writeFirstKey, undoZAdd, -4, flagWrite).
		attachCommandExtra([]string{redisFlagWrite, redisFlagDenyOOM, redisFlagFast}, 1, 1, 1)
	registerCommand("ZScore", execZScore, readFirstKey, nil, 3, flagReadOnly).
		attachCommandExtra([]string{redisFlagReadonly, redisFlagFast}, 1, 1, 1)
	registerCommand("ZIncrBy", execZIncrBy, writeFirstKey, undoZIncr, 4, flagWrite).
		attachCommandExtra([]string{redisFlagWrite, redisFlagDenyOOM, redisFlagFast}, 1, 1, 1)
	registerCommand("ZRank", execZRank, readFirstKey, nil, 3, flagReadOnly).
		attachCommandExtra([]string{redisFlagReadonly, redisFlagFast}, 1, 1, 1)
	registerCommand("ZCount", execZCount, readFirstKey, nil, 4, flagReadOnly).
		attachCommandExtra([]string{redisFlagReadonly, redisFlagFast}, 1, 1, 1)
	registerCommand("ZRevRank", execZRevRank, readFirstKey, nil, 3, flagReadOnly).
		attachCommandExtra([]string{redisFlagReadonly, redisFlagFast}, 1, 1, 1)
	registerCommand("ZCard", execZCard, readFirstKey, nil, 2, flagReadOnly).
		attachCommandExtra([]string{redisFlagReadonly, redisFlagFast}, 1, 1, 1)
	registerCommand("ZRange", execZRange, readFirstKey, nil, -4, flagReadOnly).
		attachCommandExtra([]string{redisFlagReadonly}, 1, 1, 1)
	registerCommand("ZRangeByScore", execZRangeByScore, readFirstKey, nil, -4, flagReadOnly).
		attachCommandExtra([]string{redisFlagReadonly}, 1, 1, 1)
	registerCommand("ZRevRange", execZRevRange, readFirstKey, nil, -4, flagReadOnly).
		attachCommandExtra([]string{redisFlagReadonly}, 1, 1, 1)
	registerCommand("ZRevRangeByScore", execZRevRangeByScore, readFirstKey, nil, -4, flagReadOnly).
		attachCommandExtra([]string{redisFlagReadonly}, 1, 1, 1)
	registerCommand("ZPopMin", execZPopMin, writeFirstKey, rollbackFirstKey, -2, flagWrite).
		attachCommandExtra([]string{redisFlagWrite, redisFlagFast}, 1, 1, 1)
	registerCommand("ZRem", execZRem, writeFirstKey, undoZRem, -3, flagWrite).
		attachCommandExtra([]string{redisFlagWrite, redisFlagFast}, 1, 1, 1)
	registerCommand("ZRemRangeByScore", execZRemRangeByScore, writeFirstKey, rollbackFirstKey, 4, flagWrite).
		attachCommandExtra([]string{redisFlagWrite}, 1, 1, 1)
	registerCommand("ZRemRangeByRank", execZRemRangeByRank, writeFirstKey, rollbackFirstKey, 4, flagWrite).
		attachCommandExtra([]string{redisFlagWrite}, 1, 1, 1)
	registerCommand("ZLexCount", execZLexCount, readFirstKey, nil, 4, flagReadOnly).
		attachCommandExtra([]string{redisFlagReadonly}, 1, 1, 1)
	registerCommand("ZRangeByLex", execZRangeByLex, readFirstKey, nil, -4, flagReadOnly).
		attachCommandExtra([]string{redisFlagReadonly}, 1, 1, 1)
	registerCommand("ZRemRangeByLex", execZRemRangeByLex, writeFirstKey, rollbackFirstKey, 4, flagWrite).
		attachCommandExtra([]string{redisFlagWrite}, 1, 1, 1)
	registerCommand("ZRevRangeByLex", execZRevRangeByLex, readFirstKey, nil, -4, flagReadOnly).
		attachCommandExtra([]string{redisFlagReadonly}, 1, 1, 1)
	registerCommand("ZPopMax", execZPopMax, writeFirstKey, rollbackFirstKey, -2, flagWrite).
		attachCommandExtra([]string{redisFlagWrite, redisFlagFast}, 1, 1, 1)
	registerCommand("ZScan", execZScan, readFirstKey, nil, -3, flagReadOnly).
		attachCommandExtra([]string{redisFlagReadonly, redisFlagRandom}, 1, 1, 1)
	registerCommand("ZUnion", execZUnion, prepareZSetOpNumKeys, nil, -2, flagReadOnly)
	registerCommand("ZUnionStore", execZUnionStore, prepareZSetOpNumKeysStore, rollbackFirstKey, -3, flagWrite)
	registerCommand("ZInter", execZInter, prepareZSetOpNumKeys, nil, -2, flagReadOnly)
	registerCommand("ZInterStore", execZInterStore, prepareZSetOpNumKeysStore, rollbackFirstKey, -3, flagWrite)
	registerCommand("ZDiff", execZDiff, prepareZSetOpNumKeys, nil, -2, flagReadOnly)
	registerCommand("ZDiffStore", execZDiffStore, prepareZSetOpNumKeysStore, rollbackFirstKey, -3, flagWrite)
}
