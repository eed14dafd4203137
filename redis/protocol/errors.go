package protocol

import "github.com/hdt3213/gkvs/interface/redis"

// ErrorReply is both a redis.Reply and a Go error
type ErrorReply interface {
	Error() string
	ToBytes() []byte
}

// IsErrorReply reports whether reply is an error reply
func IsErrorReply(reply redis.Reply) bool {
	b := reply.ToBytes()
	return len(b) > 0 && b[0] == '-'
}

// StandardErrReply is a generic server error
type StandardErrReply struct {
	Status string
}

// MakeErrReply creates a StandardErrReply
func MakeErrReply(status string) *StandardErrReply {
	return &StandardErrReply{Status: status}
}

// ToBytes marshals the reply
func (r *StandardErrReply) ToBytes() []byte {
	return []byte("-" + r.Status + CRLF)
}

func (r *StandardErrReply) Error() string {
	return r.Status
}

// UnknownErrReply is returned when the execution path cannot classify the failure
type UnknownErrReply struct{}

var unknownErrBytes = []byte("-ERR unknown\r\n")

// ToBytes marshals the reply
func (r *UnknownErrReply) ToBytes() []byte {
	return unknownErrBytes
}

func (r *UnknownErrReply) Error() string {
	return "ERR unknown"
}

// ArgNumErrReply represents a wrong number of arguments for a command
type ArgNumErrReply struct {
	Cmd string
}

// MakeArgNumErrReply creates an ArgNumErrReply
func MakeArgNumErrReply(cmd string) *ArgNumErrReply {
	return &ArgNumErrReply{Cmd: cmd}
}

// ToBytes marshals the reply
func (r *ArgNumErrReply) ToBytes() []byte {
	return []byte("-ERR wrong number of arguments for '" + r.Cmd + "' command\r\n")
}

func (r *ArgNumErrReply) Error() string {
	return "ERR wrong number of arguments for '" + r.Cmd + "' command"
}

// SyntaxErrReply represents a malformed command invocation
type SyntaxErrReply struct{}

var syntaxErrBytes = []byte("-ERR syntax error\r\n")
var theSyntaxErrReply = &SyntaxErrReply{}

// MakeSyntaxErrReply returns the shared SyntaxErrReply
func MakeSyntaxErrReply() *SyntaxErrReply {
	return theSyntaxErrReply
}

// ToBytes marshals the reply
func (r *SyntaxErrReply) ToBytes() []byte {
	return syntaxErrBytes
}

func (r *SyntaxErrReply) Error() string {
	return "ERR syntax error"
}

// WrongTypeErrReply is returned when a command targets a key holding an
// incompatible value type
type WrongTypeErrReply struct{}

var wrongTypeErrBytes = []byte("-WRONGTYPE Operation against a key holding the wrong kind of value\r\n")

// ToBytes marshals the reply
func (r *WrongTypeErrReply) ToBytes() []byte {
	return wrongTypeErrBytes
}

func (r *WrongTypeErrReply) Error() string {
	return "WRONGTYPE Operation against a key holding the wrong kind of value"
}

// ProtocolErrReply is returned when the parser encounters malformed input
type ProtocolErrReply struct {
	Msg string
}

// ToBytes marshals the reply
func (r *ProtocolErrReply) ToBytes() []byte {
	return []byte("-ERR Protocol error: '" + r.Msg + "'\r\n")
}

func (r *ProtocolErrReply) Error() string {
	return "ERR Protocol error: '" + r.Msg + "'"
}

// NoAuthErrReply is returned when a command is attempted before AUTH succeeds
type NoAuthErrReply struct{}

var noAuthErrBytes = []byte("-NOAUTH Authentication required.\r\n")

// ToBytes marshals the reply
func (r *NoAuthErrReply) ToBytes() []byte {
	return noAuthErrBytes
}

func (r *NoAuthErrReply) Error() string {
	return "NOAUTH Authentication required."
}

// OOMErrReply is returned when maxmemory is exceeded under the noeviction policy
type OOMErrReply struct{}

var oomErrBytes = []byte("-OOM command not allowed when used memory > 'maxmemory'.\r\n")

// ToBytes marshals the reply
func (r *OOMErrReply) ToBytes() []byte {
	return oomErrBytes
}

func (r *OOMErrReply) Error() string {
	return "OOM command not allowed when used memory > 'maxmemory'."
}

// ReadOnlyErrReply is returned by write commands while the server is paused for writes
type ReadOnlyErrReply struct{}

var readOnlyErrBytes = []byte("-READONLY You can't write against this instance.\r\n")

// ToBytes marshals the reply
func (r *ReadOnlyErrReply) ToBytes() []byte {
	return readOnlyErrBytes
}

func (r *ReadOnlyErrReply) Error() string {
	return "READONLY You can't write against this instance."
}

// ExecAbortErrReply is returned by EXEC when a watched key changed or a
// queued command failed validation, poisoning the transaction.
type ExecAbortErrReply struct{}

var execAbortErrBytes = []byte("-EXECABORT Transaction discarded because of previous errors.\r\n")

// ToBytes marshals the reply
func (r *ExecAbortErrReply) ToBytes() []byte {
	return execAbortErrBytes
}

func (r *ExecAbortErrReply) Error() string {
	return "EXECABORT Transaction discarded because of previous errors."
}
