package database

import (
	"fmt"
	"runtime/debug"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/hdt3213/gkvs/config"
	"github.com/hdt3213/gkvs/interface/database"
	"github.com/hdt3213/gkvs/interface/redis"
	"github.com/hdt3213/gkvs/lib/logger"
	"github.com/hdt3213/gkvs/pubsub"
	"github.com/hdt3213/gkvs/redis/protocol"
	"github.com/panjf2000/ants/v2"
)

// serverVersion is reported by INFO and HELLO.
const serverVersion = "1.0.0"

// workerPoolSize bounds how many goroutines BGSAVE-style background work
// may use at once.
const workerPoolSize = 16

// Server is a full-featured standalone server: a set of independent
// databases, pub/sub fan-out, and point-in-time snapshot persistence.
// There is no replication or cluster layer; this is the single-node core.
type Server struct {
	dbSet []*atomic.Value

	hub       *pubsub.Hub
	persister *Persister
	slowLog   *SlowLogger

	workerPool *ants.Pool

	lastSaveUnix atomic.Int64

	insertCallback database.KeyEventCallback
	deleteCallback database.KeyEventCallback
}

// NewStandaloneServer builds a ready-to-serve Server: every configured
// database is created, any snapshot on disk is loaded, and (if configured)
// the background snapshot saver is started.
func NewStandaloneServer() *Server {
	server := &Server{}
	if config.Properties.Databases == 0 {
		config.Properties.Databases = 16
	}

	server.dbSet = make([]*atomic.Value, config.Properties.Databases)
	for i := range server.dbSet {
		singleDB := makeDB()
		singleDB.index = i
		holder := &atomic.Value{}
		holder.Store(singleDB)
		server.dbSet[i] = holder
	}

	server.hub = pubsub.MakeHub()
	server.slowLog = NewSlowLogger(config.Properties.SlowlogMaxLen, config.Properties.SlowlogSlowerThanUs)

	pool, err := ants.NewPool(workerPoolSize)
	if err != nil {
		panic(fmt.Errorf("create worker pool failed: %v", err))
	}
	server.workerPool = pool

	if config.Properties.RDBPath != "" {
		server.persister = NewPersister(server, config.Properties.RDBPath, config.Properties.RDBAutoSaveSecs)
		if err := server.persister.Load(); err != nil {
			logger.Error(fmt.Errorf("load snapshot failed: %w", err))
		} else {
			server.lastSaveUnix.Store(time.Now().Unix())
		}
		server.persister.Start()
	}

	return server
}

// Exec executes a command from c, applying the auth gate, the subscription
// gate (a connection with active subscriptions may only issue a narrow set
// of commands), and then the transaction-control / server-level / per-DB
// dispatch, in that order.
func (server *Server) Exec(c redis.Connection, cmdLine [][]byte) (result redis.Reply) {
	defer func() {
		if err := recover(); err != nil {
			logger.Warn(fmt.Sprintf("error occurs: %v\n%s", err, string(debug.Stack())))
			result = &protocol.UnknownErrReply{}
		}
	}()
	if len(cmdLine) == 0 {
		return &protocol.UnknownErrReply{}
	}
	cmdName := strings.ToLower(string(cmdLine[0]))

	if cmdName == "ping" {
		return Ping(c, cmdLine[1:])
	}
	if cmdName == "auth" {
		return Auth(c, cmdLine[1:])
	}
	if !isAuthenticated(c) {
		return &protocol.NoAuthErrReply{}
	}

	// a connection with live channel/pattern/shard subscriptions may only
	// manage those subscriptions, or ping/quit/reset.
	if c != nil && (c.SubsCount() > 0 || c.PSubsCount() > 0 || c.SSubsCount() > 0) {
		if !isAllowedWhileSubscribed(cmdName) {
			return protocol.MakeErrReply("ERR Can't execute '" + cmdName + "': only (P|S)SUBSCRIBE / (P|S)UNSUBSCRIBE / PING / QUIT / RESET are allowed in this context")
		}
	}

	start := time.Now()
	defer func() {
		server.slowLog.Record(start, cmdLine, c.RemoteAddr())
	}()

	switch cmdName {
	case "info":
		return Info(server, cmdLine[1:])
	case "dbsize":
		return DbSize(c, server)
	case "command":
		return execCommand(cmdLine[1:])
	case "config":
		return ExecConfigCommand(cmdLine[1:])
	case "slowlog":
		return server.slowLog.HandleSlowlogCommand(cmdLine)
	case "client":
		return execClient(c, cmdLine[1:])
	case "hello":
		return execHello(c, cmdLine[1:])
	case "echo":
		if len(cmdLine) != 2 {
			return protocol.MakeArgNumErrReply("echo")
		}
		return protocol.MakeBulkReply(cmdLine[1])
	case "quit":
		return protocol.MakeOkReply()
	case "reset":
		return server.execReset(c)
	case "subscribe":
		if len(cmdLine) < 2 {
			return protocol.MakeArgNumErrReply("subscribe")
		}
		return pubsub.Subscribe(server.hub, c, cmdLine[1:])
	case "unsubscribe":
		return pubsub.UnSubscribe(server.hub, c, cmdLine[1:])
	case "publish":
		return pubsub.Publish(server.hub, cmdLine[1:])
	case "psubscribe":
		if len(cmdLine) < 2 {
			return protocol.MakeArgNumErrReply("psubscribe")
		}
		return pubsub.PSubscribe(server.hub, c, cmdLine[1:])
	case "punsubscribe":
		return pubsub.PUnSubscribe(server.hub, c, cmdLine[1:])
	case "ssubscribe":
		if len(cmdLine) < 2 {
			return protocol.MakeArgNumErrReply("ssubscribe")
		}
		return pubsub.SSubscribe(server.hub, c, cmdLine[1:])
	case "sunsubscribe":
		return pubsub.SUnSubscribe(server.hub, c, cmdLine[1:])
	case "spublish":
		return pubsub.SPublish(server.hub, cmdLine[1:])
	case "pubsub":
		return server.execPubSub(cmdLine[1:])
	case "flushall":
		return server.flushAll()
	case "flushdb":
		if !validateArity(1, cmdLine) {
			return protocol.MakeArgNumErrReply(cmdName)
		}
		if c != nil && c.InMultiState() {
			return protocol.MakeErrReply("ERR command 'FlushDB' cannot be used in MULTI")
		}
		return server.execFlushDB(c.GetDBIndex())
	case "save":
		return server.execSave()
	case "bgsave":
		return server.execBGSave()
	case "lastsave":
		return protocol.MakeIntReply(server.lastSaveUnix.Load())
	case "select":
		if c != nil && c.InMultiState() {
			return protocol.MakeErrReply("ERR cannot select database within multi")
		}
		if len(cmdLine) != 2 {
			return protocol.MakeArgNumErrReply("select")
		}
		return execSelect(c, server, cmdLine[1:])
	case "copy":
		if len(cmdLine) < 3 {
			return protocol.MakeArgNumErrReply("copy")
		}
		return execCopy(server, c, cmdLine[1:])
	}

	dbIndex := c.GetDBIndex()
	selectedDB, errReply := server.selectDB(dbIndex)
	if errReply != nil {
		return errReply
	}
	return selectedDB.Exec(c, cmdLine)
}

// isAllowedWhileSubscribed reports whether cmdName may run on a connection
// that currently holds at least one active channel/pattern/shard subscription.
func isAllowedWhileSubscribed(cmdName string) bool {
	switch cmdName {
	case "subscribe", "unsubscribe", "psubscribe", "punsubscribe",
		"ssubscribe", "sunsubscribe", "ping", "quit", "reset":
		return true
	}
	return false
}

// AfterClientClose drops a closing client from every pub/sub namespace it joined.
func (server *Server) AfterClientClose(c redis.Connection) {
	pubsub.UnsubscribeAll(server.hub, c)
}

// Close shuts the server down: stops the background snapshot saver and
// releases the worker pool.
func (server *Server) Close() {
	if server.persister != nil {
		server.persister.Close()
	}
	if server.workerPool != nil {
		server.workerPool.Release()
	}
}

// SaveSnapshot and LoadSnapshot are implemented in persistence.go.

// execSelect switches c's active database
func execSelect(c redis.Connection, mdb *Server, args [][]byte) redis.Reply {
	dbIndex, err := strconv.Atoi(string(args[0]))
	if err != nil {
		return protocol.MakeErrReply("ERR invalid DB index")
	}
	if dbIndex >= len(mdb.dbSet) || dbIndex < 0 {
		return protocol.MakeErrReply("ERR DB index is out of range")
	}
	c.SelectDB(dbIndex)
	return protocol.MakeOkReply()
}

func (server *Server) execFlushDB(dbIndex int) redis.Reply {
	return server.flushDB(dbIndex)
}

// flushDB replaces the database at dbIndex with a fresh, empty one.
func (server *Server) flushDB(dbIndex int) redis.Reply {
	if dbIndex >= len(server.dbSet) || dbIndex < 0 {
		return protocol.MakeErrReply("ERR DB index is out of range")
	}
	newDB := makeDB()
	server.loadDB(dbIndex, newDB)
	return protocol.MakeOkReply()
}

// loadDB installs newDB in place of the database at dbIndex.
func (server *Server) loadDB(dbIndex int, newDB *DB) redis.Reply {
	if dbIndex >= len(server.dbSet) || dbIndex < 0 {
		return protocol.MakeErrReply("ERR DB index is out of range")
	}
	oldDB := server.mustSelectDB(dbIndex)
	newDB.index = dbIndex
	newDB.insertCallback = oldDB.insertCallback
	newDB.deleteCallback = oldDB.deleteCallback
	server.dbSet[dbIndex].Store(newDB)
	return protocol.MakeOkReply()
}

// flushAll replaces every database with a fresh, empty one.
func (server *Server) flushAll() redis.Reply {
	for i := range server.dbSet {
		server.flushDB(i)
	}
	return protocol.MakeOkReply()
}

// selectDB returns the database at dbIndex, or an error reply if out of range.
func (server *Server) selectDB(dbIndex int) (*DB, *protocol.StandardErrReply) {
	if dbIndex >= len(server.dbSet) || dbIndex < 0 {
		return nil, protocol.MakeErrReply("ERR DB index is out of range")
	}
	return server.dbSet[dbIndex].Load().(*DB), nil
}

// mustSelectDB is like selectDB but panics on an invalid index.
func (server *Server) mustSelectDB(dbIndex int) *DB {
	selectedDB, err := server.selectDB(dbIndex)
	if err != nil {
		panic(err)
	}
	return selectedDB
}

// ForEach iterates every live key in the database at dbIndex.
func (server *Server) ForEach(dbIndex int, cb func(key string, data *database.DataEntity, expiration *time.Time) bool) {
	server.mustSelectDB(dbIndex).ForEach(cb)
}

// GetEntity returns the data entity stored at key in the database at dbIndex.
func (server *Server) GetEntity(dbIndex int, key string) (*database.DataEntity, bool) {
	return server.mustSelectDB(dbIndex).GetEntity(key)
}

// GetExpiration returns key's expiration time in the database at dbIndex, if any.
func (server *Server) GetExpiration(dbIndex int, key string) *time.Time {
	raw, ok := server.mustSelectDB(dbIndex).ttlMap.Get(key)
	if !ok {
		return nil
	}
	expireTime, _ := raw.(time.Time)
	return &expireTime
}

// ExecMulti executes a MULTI/EXEC transaction atomically and in isolation.
func (server *Server) ExecMulti(conn redis.Connection, watching map[string]uint32, cmdLines []CmdLine) redis.Reply {
	selectedDB, errReply := server.selectDB(conn.GetDBIndex())
	if errReply != nil {
		return errReply
	}
	return selectedDB.ExecMulti(conn, watching, cmdLines)
}

// RWLocks locks the given read/write keys in the database at dbIndex.
func (server *Server) RWLocks(dbIndex int, writeKeys []string, readKeys []string) {
	server.mustSelectDB(dbIndex).RWLocks(writeKeys, readKeys)
}

// RWUnLocks unlocks the given read/write keys in the database at dbIndex.
func (server *Server) RWUnLocks(dbIndex int, writeKeys []string, readKeys []string) {
	server.mustSelectDB(dbIndex).RWUnLocks(writeKeys, readKeys)
}

// GetUndoLogs returns the rollback command lines for cmdLine.
func (server *Server) GetUndoLogs(dbIndex int, cmdLine [][]byte) []CmdLine {
	return server.mustSelectDB(dbIndex).GetUndoLogs(cmdLine)
}

// ExecWithLock executes a normal command while already holding its key locks.
func (server *Server) ExecWithLock(conn redis.Connection, cmdLine [][]byte) redis.Reply {
	db, errReply := server.selectDB(conn.GetDBIndex())
	if errReply != nil {
		return errReply
	}
	return db.execWithLock(cmdLine)
}


// GetDBSize returns the key count and the count of keys with a TTL set.
func (server *Server) GetDBSize(dbIndex int) (int, int) {
	db := server.mustSelectDB(dbIndex)
	return db.data.Len(), db.ttlMap.Len()
}

// GetAvgTTL samples randomKeyCount keys and returns their average remaining
// TTL in microseconds.
func (server *Server) GetAvgTTL(dbIndex, randomKeyCount int) int64 {
	var ttlCount int64
	db := server.mustSelectDB(dbIndex)
	keys := db.data.RandomKeys(randomKeyCount)
	for _, k := range keys {
		t := time.Now()
		rawExpireTime, ok := db.ttlMap.Get(k)
		if !ok {
			continue
		}
		expireTime, _ := rawExpireTime.(time.Time)
		if expireTime.Sub(t).Microseconds() > 0 {
			ttlCount += expireTime.Sub(t).Microseconds()
		}
	}
	if len(keys) == 0 {
		return 0
	}
	return ttlCount / int64(len(keys))
}

// SetKeyInsertedCallback installs cb as the key-insertion hook on every database.
func (server *Server) SetKeyInsertedCallback(cb database.KeyEventCallback) {
	server.insertCallback = cb
	for i := range server.dbSet {
		db := server.mustSelectDB(i)
		db.insertCallback = cb
	}
}

// SetKeyDeletedCallback installs cb as the key-deletion hook on every database.
func (server *Server) SetKeyDeletedCallback(cb database.KeyEventCallback) {
	server.deleteCallback = cb
	for i := range server.dbSet {
		db := server.mustSelectDB(i)
		db.deleteCallback = cb
	}
}

// execSave snapshots the whole server to disk and blocks until done.
func (server *Server) execSave() redis.Reply {
	if server.persister == nil {
		return protocol.MakeErrReply("ERR no rdb_path configured, cannot save")
	}
	if err := server.persister.Save(); err != nil {
		return protocol.MakeErrReply(err.Error())
	}
	server.lastSaveUnix.Store(time.Now().Unix())
	return protocol.MakeOkReply()
}

// execBGSave snapshots the whole server to disk on a pooled worker goroutine.
func (server *Server) execBGSave() redis.Reply {
	if server.persister == nil {
		return protocol.MakeErrReply("ERR no rdb_path configured, cannot save")
	}
	err := server.workerPool.Submit(func() {
		if err := server.persister.Save(); err != nil {
			logger.Error(fmt.Errorf("background snapshot save failed: %w", err))
			return
		}
		server.lastSaveUnix.Store(time.Now().Unix())
	})
	if err != nil {
		return protocol.MakeErrReply(err.Error())
	}
	return protocol.MakeStatusReply("Background saving started")
}

// execReset clears c's transaction, subscriptions and auth state and
// switches it back to database 0, as real redis's RESET command does.
func (server *Server) execReset(c redis.Connection) redis.Reply {
	if c == nil {
		return protocol.MakeStatusReply("RESET")
	}
	if c.InMultiState() {
		c.ClearQueuedCmds()
		c.SetMultiState(false)
	}
	pubsub.UnsubscribeAll(server.hub, c)
	c.SetPassword("")
	c.SelectDB(0)
	return protocol.MakeStatusReply("RESET")
}

// execPubSub implements PUBSUB CHANNELS|NUMSUB|NUMPAT|SHARDCHANNELS|SHARDNUMSUB.
func (server *Server) execPubSub(args [][]byte) redis.Reply {
	if len(args) == 0 {
		return protocol.MakeArgNumErrReply("pubsub")
	}
	subCommand := strings.ToUpper(string(args[0]))
	switch subCommand {
	case "CHANNELS":
		pattern := ""
		if len(args) > 1 {
			pattern = string(args[1])
		}
		names := pubsub.Channels(server.hub, pattern)
		result := make([][]byte, len(names))
		for i, n := range names {
			result[i] = []byte(n)
		}
		return protocol.MakeMultiBulkReply(result)
	case "SHARDCHANNELS":
		pattern := ""
		if len(args) > 1 {
			pattern = string(args[1])
		}
		names := pubsub.ShardChannels(server.hub, pattern)
		result := make([][]byte, len(names))
		for i, n := range names {
			result[i] = []byte(n)
		}
		return protocol.MakeMultiBulkReply(result)
	case "NUMSUB":
		counts := pubsub.NumSub(server.hub, toStringArgs(args[1:]))
		return pubsub2IntPairs(toStringArgs(args[1:]), counts)
	case "SHARDNUMSUB":
		counts := pubsub.ShardNumSub(server.hub, toStringArgs(args[1:]))
		return pubsub2IntPairs(toStringArgs(args[1:]), counts)
	case "NUMPAT":
		return protocol.MakeIntReply(pubsub.NumPat(server.hub))
	default:
		return protocol.MakeErrReply("ERR Unknown PUBSUB subcommand or wrong number of arguments for '" + subCommand + "'")
	}
}

func toStringArgs(args [][]byte) []string {
	result := make([]string, len(args))
	for i, a := range args {
		result[i] = string(a)
	}
	return result
}

func pubsub2IntPairs(names []string, counts map[string]int64) redis.Reply {
	result := make([]redis.Reply, 0, len(names)*2)
	for _, name := range names {
		result = append(result, protocol.MakeBulkReply([]byte(name)), protocol.MakeIntReply(counts[name]))
	}
	return protocol.MakeMultiRawReply(result)
}

// execClient implements the CLIENT ID|GETNAME|SETNAME|LIST|NO-EVICT|NO-TOUCH subcommands.
func execClient(c redis.Connection, args [][]byte) redis.Reply {
	if len(args) == 0 {
		return protocol.MakeArgNumErrReply("client")
	}
	subCommand := strings.ToUpper(string(args[0]))
	switch subCommand {
	case "ID":
		return protocol.MakeIntReply(c.ClientID())
	case "GETNAME":
		name := c.GetName()
		if name == "" {
			return protocol.MakeNullBulkReply()
		}
		return protocol.MakeBulkReply([]byte(name))
	case "SETNAME":
		if len(args) != 2 {
			return protocol.MakeArgNumErrReply("client|setname")
		}
		c.SetName(string(args[1]))
		return protocol.MakeOkReply()
	case "LIST":
		line := fmt.Sprintf("id=%d addr=%s name=%s db=%d\n", c.ClientID(), c.RemoteAddr(), c.GetName(), c.GetDBIndex())
		return protocol.MakeBulkReply([]byte(line))
	case "PAUSE":
		c.SetPaused(true)
		return protocol.MakeOkReply()
	case "UNPAUSE":
		c.SetPaused(false)
		return protocol.MakeOkReply()
	case "NO-EVICT", "NO-TOUCH", "REPLY":
		return protocol.MakeOkReply()
	default:
		return protocol.MakeErrReply("ERR Unknown CLIENT subcommand or wrong number of arguments for '" + subCommand + "'")
	}
}

// execHello implements RESP2-only HELLO. This server never speaks RESP3;
// requesting protover 3 is rejected the way real redis rejects an
// unsupported protocol version.
func execHello(c redis.Connection, args [][]byte) redis.Reply {
	if len(args) > 0 {
		protoVer := string(args[0])
		if protoVer != "2" {
			return protocol.MakeErrReply("NOPROTO unsupported protocol version")
		}
	}
	fields := []redis.Reply{
		protocol.MakeBulkReply([]byte("server")), protocol.MakeBulkReply([]byte("gkvs")),
		protocol.MakeBulkReply([]byte("version")), protocol.MakeBulkReply([]byte(serverVersion)),
		protocol.MakeBulkReply([]byte("proto")), protocol.MakeIntReply(2),
		protocol.MakeBulkReply([]byte("id")), protocol.MakeIntReply(c.ClientID()),
		protocol.MakeBulkReply([]byte("mode")), protocol.MakeBulkReply([]byte("standalone")),
		protocol.MakeBulkReply([]byte("role")), protocol.MakeBulkReply([]byte("master")),
		protocol.MakeBulkReply([]byte("modules")), protocol.MakeEmptyMultiBulkReply(),
	}
	return protocol.MakeMultiRawReply(fields)
}
