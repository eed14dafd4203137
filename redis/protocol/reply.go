package protocol

import (
	"bytes"
	"strconv"

	"github.com/hdt3213/gkvs/interface/redis"
)

// CRLF is the line terminator of the redis serialization protocol
const CRLF = "\r\n"

/* ---- Bulk Reply ---- */

// BulkReply stores a binary-safe string
type BulkReply struct {
	Arg []byte
}

// MakeBulkReply creates a BulkReply
func MakeBulkReply(arg []byte) *BulkReply {
	return &BulkReply{Arg: arg}
}

// ToBytes marshals the reply
func (r *BulkReply) ToBytes() []byte {
	if r.Arg == nil {
		return nullBulkReplyBytes
	}
	return []byte("$" + strconv.Itoa(len(r.Arg)) + CRLF + string(r.Arg) + CRLF)
}

/* ---- Multi Bulk Reply ---- */

// MultiBulkReply stores a flat list of binary-safe strings
type MultiBulkReply struct {
	Args [][]byte
}

// MakeMultiBulkReply creates a MultiBulkReply
func MakeMultiBulkReply(args [][]byte) *MultiBulkReply {
	return &MultiBulkReply{Args: args}
}

// ToBytes marshals the reply
func (r *MultiBulkReply) ToBytes() []byte {
	var buf bytes.Buffer
	buf.WriteString("*" + strconv.Itoa(len(r.Args)) + CRLF)
	for _, arg := range r.Args {
		if arg == nil {
			buf.WriteString("$-1" + CRLF)
		} else {
			buf.WriteString("$" + strconv.Itoa(len(arg)) + CRLF)
			buf.Write(arg)
			buf.WriteString(CRLF)
		}
	}
	return buf.Bytes()
}

/* ---- Multi Raw Reply ---- */

// MultiRawReply nests other replies, used by COMMAND, CLIENT LIST and
// anything else that returns a heterogeneous array.
type MultiRawReply struct {
	Replies []redis.Reply
}

// MakeMultiRawReply creates a MultiRawReply
func MakeMultiRawReply(replies []redis.Reply) *MultiRawReply {
	return &MultiRawReply{Replies: replies}
}

// ToBytes marshals the reply
func (r *MultiRawReply) ToBytes() []byte {
	var buf bytes.Buffer
	buf.WriteString("*" + strconv.Itoa(len(r.Replies)) + CRLF)
	for _, rep := range r.Replies {
		buf.Write(rep.ToBytes())
	}
	return buf.Bytes()
}

/* ---- Status Reply ---- */

// StatusReply stores a simple status line
type StatusReply struct {
	Status string
}

// MakeStatusReply creates a StatusReply
func MakeStatusReply(status string) *StatusReply {
	return &StatusReply{Status: status}
}

// ToBytes marshals the reply
func (r *StatusReply) ToBytes() []byte {
	return []byte("+" + r.Status + CRLF)
}

/* ---- Int Reply ---- */

// IntReply stores an int64
type IntReply struct {
	Code int64
}

// MakeIntReply creates an IntReply
func MakeIntReply(code int64) *IntReply {
	return &IntReply{Code: code}
}

// ToBytes marshals the reply
func (r *IntReply) ToBytes() []byte {
	return []byte(":" + strconv.FormatInt(r.Code, 10) + CRLF)
}

/* ---- Pong Reply ---- */

var pongBytes = []byte("+PONG\r\n")

// PongReply is the reply to a bare PING
type PongReply struct{}

// ToBytes marshals the reply
func (r *PongReply) ToBytes() []byte {
	return pongBytes
}

/* ---- Null Bulk Reply ---- */

var nullBulkReplyBytes = []byte("$-1\r\n")

// NullBulkReply represents a nil bulk string, RESP2's concept of a missing value
type NullBulkReply struct{}

// MakeNullBulkReply creates a NullBulkReply
func MakeNullBulkReply() *NullBulkReply {
	return &NullBulkReply{}
}

// ToBytes marshals the reply
func (r *NullBulkReply) ToBytes() []byte {
	return nullBulkReplyBytes
}

/* ---- Empty Multi Bulk Reply ---- */

var emptyMultiBulkBytes = []byte("*0\r\n")

// EmptyMultiBulkReply represents an empty array
type EmptyMultiBulkReply struct{}

// MakeEmptyMultiBulkReply creates an EmptyMultiBulkReply
func MakeEmptyMultiBulkReply() *EmptyMultiBulkReply {
	return &EmptyMultiBulkReply{}
}

// ToBytes marshals the reply
func (r *EmptyMultiBulkReply) ToBytes() []byte {
	return emptyMultiBulkBytes
}

/* ---- Null Multi Bulk Reply ---- */

var nullMultiBulkBytes = []byte("*-1\r\n")

// NullMultiBulkReply represents a nil array, returned by blocking commands
// such as BLPOP when their timeout elapses without a value becoming available
type NullMultiBulkReply struct{}

// MakeNullMultiBulkReply creates a NullMultiBulkReply
func MakeNullMultiBulkReply() *NullMultiBulkReply {
	return &NullMultiBulkReply{}
}

// ToBytes marshals the reply
func (r *NullMultiBulkReply) ToBytes() []byte {
	return nullMultiBulkBytes
}

/* ---- Ok Reply ---- */

var okBytes = []byte("+OK\r\n")

// OkReply is the shared +OK reply
type OkReply struct{}

// ToBytes marshals the reply
func (r *OkReply) ToBytes() []byte {
	return okBytes
}

var theOkReply = &OkReply{}

// MakeOkReply returns the shared OkReply instance
func MakeOkReply() *OkReply {
	return theOkReply
}

/* ---- Queued Reply ---- */

var queuedBytes = []byte("+QUEUED\r\n")

// QueuedReply is returned by commands enqueued inside MULTI
type QueuedReply struct{}

// ToBytes marshals the reply
func (r *QueuedReply) ToBytes() []byte {
	return queuedBytes
}

var theQueuedReply = &QueuedReply{}

// MakeQueuedReply returns the shared QueuedReply instance
func MakeQueuedReply() *QueuedReply {
	return theQueuedReply
}

/* ---- No Reply ---- */

// NoReply marshals to nothing; used when the command already wrote its own
// response (e.g. SUBSCRIBE confirmations) or should stay silent.
type NoReply struct{}

// ToBytes marshals the reply
func (r *NoReply) ToBytes() []byte {
	return []byte{}
}
