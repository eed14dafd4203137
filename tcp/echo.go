package tcp

/**
 * An echo server to verify the tcp transport is functioning normally
 */

import (
	"bufio"
	"context"
	"io"
	"net"
	"sync"
	"time"

	"github.com/hdt3213/gkvs/lib/logger"
	"github.com/hdt3213/gkvs/lib/sync/atomic"
	"github.com/hdt3213/gkvs/lib/sync/wait"
)

// EchoHandler echoes every line it reads back to the client
type EchoHandler struct {
	activeConn sync.Map
	closing    atomic.Boolean
}

// MakeEchoHandler creates an EchoHandler
func MakeEchoHandler() *EchoHandler {
	return &EchoHandler{}
}

// EchoClient tracks one connection's in-flight writes so Close can drain them
type EchoClient struct {
	Conn    net.Conn
	Waiting wait.Wait
}

// Close waits for in-flight writes to finish, then closes the connection
func (c *EchoClient) Close() error {
	c.Waiting.WaitWithTimeout(10 * time.Second)
	_ = c.Conn.Close()
	return nil
}

// Handle echoes each line from conn back to the client until it disconnects
func (h *EchoHandler) Handle(ctx context.Context, conn net.Conn) {
	if h.closing.Get() {
		_ = conn.Close()
		return
	}

	client := &EchoClient{
		Conn: conn,
	}
	h.activeConn.Store(client, struct{}{})

	reader := bufio.NewReader(conn)
	for {
		msg, err := reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				logger.Info("connection close")
				h.activeConn.Delete(client)
			} else {
				logger.Warn(err)
			}
			return
		}
		client.Waiting.Add(1)
		b := []byte(msg)
		_, _ = conn.Write(b)
		client.Waiting.Done()
	}
}

// Close shuts down the handler, refusing new connections and draining active ones
func (h *EchoHandler) Close() error {
	logger.Info("handler shutting down...")
	h.closing.Set(true)
	h.activeConn.Range(func(key interface{}, val interface{}) bool {
		client := key.(*EchoClient)
		_ = client.Close()
		return true
	})
	return nil
}
