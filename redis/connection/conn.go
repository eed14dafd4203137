package connection

import (
	"bytes"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hdt3213/gkvs/lib/idgenerator"
	"github.com/hdt3213/gkvs/lib/sync/wait"
)

var connIDs = idgenerator.MakeGenerator("conn")

// droppedMessages counts pub/sub payloads discarded across all connections
// because a subscriber's delivery queue was full, reported by INFO so an
// operator can tell a slow subscriber is falling behind instead of just
// silently missing messages.
var droppedMessages atomic.Int64

// DroppedMessages returns the total number of pub/sub payloads dropped
// process-wide due to a full delivery queue.
func DroppedMessages() int64 {
	return droppedMessages.Load()
}

// deliverQueueSize bounds the async pub/sub delivery queue kept per
// connection; once full the oldest pending message is dropped to make
// room for the newest one rather than blocking the publisher.
const deliverQueueSize = 1024

// Connection represents a connection with a redis-cli
type Connection struct {
	conn net.Conn

	// waiting until reply finished
	waitingReply wait.Wait

	// lock while server sending response
	mu sync.Mutex

	// exact-channel, pattern and shard-channel subscriptions
	subs  map[string]bool
	psubs map[string]bool
	ssubs map[string]bool

	// async delivery queue for pub/sub messages, drained by deliverLoop
	deliverCh chan []byte
	closed    atomic.Bool

	// password may be changed by CONFIG command during runtime, so store the password
	password string

	// queued commands for `multi`
	multiState bool
	queue      [][][]byte
	watching   map[string]uint32
	dirty      bool
	txErrors   []error

	// selected db
	selectedDB int

	id     int64
	name   string
	paused atomic.Bool
}

// RemoteAddr returns the remote network address
func (c *Connection) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}

// Close disconnects from the client
func (c *Connection) Close() error {
	c.waitingReply.WaitWithTimeout(10 * time.Second)
	c.closed.Store(true)
	_ = c.conn.Close()
	return nil
}

// NewConn creates a Connection instance and starts its delivery loop
func NewConn(conn net.Conn) *Connection {
	c := &Connection{
		conn:      conn,
		deliverCh: make(chan []byte, deliverQueueSize),
		id:        connIDs.NextID(),
	}
	go c.deliverLoop()
	return c
}

func (c *Connection) deliverLoop() {
	for b := range c.deliverCh {
		_ = c.Write(b)
	}
}

// Write sends a response to the client over the tcp connection
func (c *Connection) Write(b []byte) error {
	if len(b) == 0 {
		return nil
	}
	c.mu.Lock()
	c.waitingReply.Add(1)
	defer func() {
		c.waitingReply.Done()
		c.mu.Unlock()
	}()

	_, err := c.conn.Write(b)
	return err
}

// Deliver queues a pub/sub payload for asynchronous delivery. If the queue
// is full the oldest pending message is dropped to make room.
func (c *Connection) Deliver(b []byte) {
	if c.closed.Load() {
		return
	}
	select {
	case c.deliverCh <- b:
		return
	default:
	}
	select {
	case <-c.deliverCh:
		droppedMessages.Add(1)
	default:
	}
	select {
	case c.deliverCh <- b:
	default:
	}
}

// Subscribe adds the current connection to the subscribers of the given channel
func (c *Connection) Subscribe(channel string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.subs == nil {
		c.subs = make(map[string]bool)
	}
	c.subs[channel] = true
}

// UnSubscribe removes the current connection from the subscribers of the given channel
func (c *Connection) UnSubscribe(channel string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.subs) == 0 {
		return
	}
	delete(c.subs, channel)
}

// SubsCount returns the number of subscribed channels
func (c *Connection) SubsCount() int {
	return len(c.subs)
}

// GetChannels returns all subscribed channels
func (c *Connection) GetChannels() []string {
	return keysOf(c.subs)
}

// PSubscribe adds the current connection to the subscribers of the given pattern
func (c *Connection) PSubscribe(pattern string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.psubs == nil {
		c.psubs = make(map[string]bool)
	}
	c.psubs[pattern] = true
}

// PUnSubscribe removes the current connection from the subscribers of the given pattern
func (c *Connection) PUnSubscribe(pattern string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.psubs, pattern)
}

// PSubsCount returns the number of subscribed patterns
func (c *Connection) PSubsCount() int {
	return len(c.psubs)
}

// GetPatterns returns all subscribed patterns
func (c *Connection) GetPatterns() []string {
	return keysOf(c.psubs)
}

// SSubscribe adds the current connection to the subscribers of the given shard channel
func (c *Connection) SSubscribe(channel string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ssubs == nil {
		c.ssubs = make(map[string]bool)
	}
	c.ssubs[channel] = true
}

// SUnSubscribe removes the current connection from the subscribers of the given shard channel
func (c *Connection) SUnSubscribe(channel string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.ssubs, channel)
}

// SSubsCount returns the number of subscribed shard channels
func (c *Connection) SSubsCount() int {
	return len(c.ssubs)
}

// GetShardChannels returns all subscribed shard channels
func (c *Connection) GetShardChannels() []string {
	return keysOf(c.ssubs)
}

func keysOf(m map[string]bool) []string {
	if len(m) == 0 {
		return make([]string, 0)
	}
	result := make([]string, 0, len(m))
	for k := range m {
		result = append(result, k)
	}
	return result
}

// SetPassword stores the password used for authentication
func (c *Connection) SetPassword(password string) {
	c.password = password
}

// GetPassword returns the password used for authentication
func (c *Connection) GetPassword() string {
	return c.password
}

// InMultiState tells whether the connection is inside an uncommitted transaction
func (c *Connection) InMultiState() bool {
	return c.multiState
}

// SetMultiState sets the transaction flag
func (c *Connection) SetMultiState(state bool) {
	if !state { // reset data when cancelling multi
		c.watching = nil
		c.queue = nil
		c.dirty = false
		c.txErrors = nil
	}
	c.multiState = state
}

// AddTxError records a validation error for a command queued inside MULTI
func (c *Connection) AddTxError(err error) {
	c.txErrors = append(c.txErrors, err)
}

// GetTxErrors returns every validation error recorded since the last MULTI
func (c *Connection) GetTxErrors() []error {
	return c.txErrors
}

// GetQueuedCmdLine returns the queued commands of the current transaction
func (c *Connection) GetQueuedCmdLine() [][][]byte {
	return c.queue
}

// EnqueueCmd enqueues a command into the current transaction
func (c *Connection) EnqueueCmd(cmdLine [][]byte) {
	c.queue = append(c.queue, cmdLine)
}

// ClearQueuedCmds clears the queued commands of the current transaction
func (c *Connection) ClearQueuedCmds() {
	c.queue = nil
}

// GetWatching returns the watched keys and their version when watching started
func (c *Connection) GetWatching() map[string]uint32 {
	if c.watching == nil {
		c.watching = make(map[string]uint32)
	}
	return c.watching
}

// SetDirty marks the current transaction as poisoned; EXEC will reply EXECABORT
func (c *Connection) SetDirty(dirty bool) {
	c.dirty = dirty
}

// IsDirty reports whether the current transaction is poisoned
func (c *Connection) IsDirty() bool {
	return c.dirty
}

// GetDBIndex returns the selected db
func (c *Connection) GetDBIndex() int {
	return c.selectedDB
}

// SelectDB selects a database
func (c *Connection) SelectDB(dbNum int) {
	c.selectedDB = dbNum
}

// ClientID returns the id assigned to this connection at creation time
func (c *Connection) ClientID() int64 {
	return c.id
}

// SetName sets the name reported by CLIENT GETNAME
func (c *Connection) SetName(name string) {
	c.name = name
}

// GetName returns the name set by CLIENT SETNAME
func (c *Connection) GetName() string {
	return c.name
}

// SetPaused pauses or resumes command execution on this connection
func (c *Connection) SetPaused(paused bool) {
	c.paused.Store(paused)
}

// IsPaused reports whether this connection is paused
func (c *Connection) IsPaused() bool {
	return c.paused.Load()
}

// FakeConn implements redis.Connection for tests
type FakeConn struct {
	Connection
	buf bytes.Buffer
}

// NewFakeConn creates a FakeConn that is not backed by a real socket
func NewFakeConn() *FakeConn {
	return &FakeConn{
		Connection: Connection{id: connIDs.NextID()},
	}
}

// Write writes data to the in-memory buffer
func (c *FakeConn) Write(b []byte) error {
	c.buf.Write(b)
	return nil
}

// Deliver writes directly to the in-memory buffer, bypassing the async queue
func (c *FakeConn) Deliver(b []byte) {
	_ = c.Write(b)
}

// Clean resets the buffer
func (c *FakeConn) Clean() {
	c.buf.Reset()
}

// Bytes returns the data written so far
func (c *FakeConn) Bytes() []byte {
	return c.buf.Bytes()
}

// RemoteAddr returns a fixed placeholder address
func (c *FakeConn) RemoteAddr() string {
	return "127.0.0.1:0"
}

// Close is a no-op for FakeConn
func (c *FakeConn) Close() error {
	return nil
}
