package tcp

import (
	"context"
	"net"
)

// HandleFunc is the shape of a function that can service one accepted connection.
type HandleFunc func(ctx context.Context, conn net.Conn)

// Handler is whatever the TCP listener hands accepted connections to —
// the RESP command dispatcher in production, the echo handler in tests.
type Handler interface {
	Handle(ctx context.Context, conn net.Conn)
	Close() error
}
