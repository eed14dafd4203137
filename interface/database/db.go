package database

import (
	"io"
	"time"

	"github.com/hdt3213/gkvs/interface/redis"
)

// CmdLine is one parsed command: its name followed by arguments.
type CmdLine = [][]byte

// DB defines the behavior a redis-style storage engine must expose to the
// network layer.
type DB interface {
	Exec(client redis.Connection, cmdLine [][]byte) redis.Reply
	AfterClientClose(c redis.Connection)
	Close()
	LoadSnapshot(reader io.Reader) error
}

// KeyEventCallback is invoked on key insertion/deletion, possibly concurrently.
type KeyEventCallback func(dbIndex int, key string, entity *DataEntity)

// DBEngine exposes the extra surface transactions, replication-free
// persistence and introspection commands need.
type DBEngine interface {
	DB
	ExecWithLock(conn redis.Connection, cmdLine [][]byte) redis.Reply
	ExecMulti(conn redis.Connection, watching map[string]uint32, cmdLines []CmdLine) redis.Reply
	GetUndoLogs(dbIndex int, cmdLine [][]byte) []CmdLine
	ForEach(dbIndex int, cb func(key string, data *DataEntity, expiration *time.Time) bool)
	RWLocks(dbIndex int, writeKeys []string, readKeys []string)
	RWUnLocks(dbIndex int, writeKeys []string, readKeys []string)
	GetDBSize(dbIndex int) (int, int)
	GetEntity(dbIndex int, key string) (*DataEntity, bool)
	GetExpiration(dbIndex int, key string) *time.Time
	SetKeyInsertedCallback(cb KeyEventCallback)
	SetKeyDeletedCallback(cb KeyEventCallback)
	SaveSnapshot(writer io.Writer) error
}

// DataEntity stores the value bound to a key: String, List, Hash, Set,
// SortedSet or Hll, tagged by the concrete type stored in Data.
type DataEntity struct {
	Data interface{}
}
