package redis

// Reply is the interface of a redis serialization protocol message
type Reply interface {
	ToBytes() []byte
}

// Connection represents a connection with a redis client
type Connection interface {
	Write([]byte) error
	// Deliver queues a payload for asynchronous delivery, used for pub/sub
	// fan-out so a slow subscriber cannot stall the publisher.
	Deliver([]byte)
	RemoteAddr() string
	Close() error

	SetPassword(string)
	GetPassword() string

	// channel/pattern/shard subscriptions kept by this connection
	Subscribe(channel string)
	UnSubscribe(channel string)
	SubsCount() int
	GetChannels() []string

	PSubscribe(pattern string)
	PUnSubscribe(pattern string)
	PSubsCount() int
	GetPatterns() []string

	SSubscribe(channel string)
	SUnSubscribe(channel string)
	SSubsCount() int
	GetShardChannels() []string

	// used for `Multi` command
	InMultiState() bool
	SetMultiState(bool)
	GetQueuedCmdLine() [][][]byte
	EnqueueCmd([][]byte)
	ClearQueuedCmds()
	GetWatching() map[string]uint32

	// dirty marks a transaction as poisoned; EXEC must then reply EXECABORT
	SetDirty(bool)
	IsDirty() bool

	// AddTxError records a validation error for a command queued inside
	// MULTI; GetTxErrors reports whether any were recorded
	AddTxError(err error)
	GetTxErrors() []error

	// used for multi database
	GetDBIndex() int
	SelectDB(int)

	// client identity, set by the CLIENT command
	ClientID() int64
	SetName(string)
	GetName() string

	// pause blocks command execution on this connection while true
	SetPaused(bool)
	IsPaused() bool
}
