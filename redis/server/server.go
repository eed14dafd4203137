package server

/*
 * A tcp.Handler implements the redis wire protocol on top of database.DB
 */

import (
	"context"
	"io"
	"net"
	"strings"
	"sync"

	database2 "github.com/hdt3213/gkvs/database"
	"github.com/hdt3213/gkvs/interface/database"
	"github.com/hdt3213/gkvs/lib/logger"
	"github.com/hdt3213/gkvs/lib/sync/atomic"
	"github.com/hdt3213/gkvs/redis/connection"
	"github.com/hdt3213/gkvs/redis/parser"
	"github.com/hdt3213/gkvs/redis/protocol"
)

var (
	unknownErrReplyBytes = []byte("-ERR unknown\r\n")
)

// Handler implements tcp.Handler, dispatching parsed RESP commands to a database.DB
type Handler struct {
	activeConn sync.Map
	db         database.DB
	closing    atomic.Boolean
}

// MakeHandler creates a Handler backed by a standalone server instance
func MakeHandler() *Handler {
	db := database2.NewStandaloneServer()
	return &Handler{
		db: db,
	}
}

func (h *Handler) closeClient(client *connection.Connection) {
	_ = client.Close()
	h.db.AfterClientClose(client)
	h.activeConn.Delete(client)
}

// Handle receives and executes redis commands from the connection
func (h *Handler) Handle(ctx context.Context, conn net.Conn) {
	if h.closing.Get() {
		_ = conn.Close()
		return
	}

	client := connection.NewConn(conn)
	h.activeConn.Store(client, struct{}{})

	ch := parser.ParseStream(conn)
	for payload := range ch {
		if payload.Err != nil {
			if payload.Err == io.EOF ||
				payload.Err == io.ErrUnexpectedEOF ||
				strings.Contains(payload.Err.Error(), "use of closed network connection") {
				h.closeClient(client)
				logger.Info("connection closed: " + client.RemoteAddr())
				return
			}
			// protocol err
			errReply := protocol.MakeErrReply(payload.Err.Error())
			err := client.Write(errReply.ToBytes())
			if err != nil {
				h.closeClient(client)
				logger.Info("connection closed: " + client.RemoteAddr())
				return
			}
			continue
		}
		if payload.Data == nil {
			logger.Error("empty payload")
			continue
		}
		r, ok := payload.Data.(*protocol.MultiBulkReply)
		if !ok {
			logger.Error("require multi bulk protocol")
			continue
		}
		result := h.db.Exec(client, r.Args)
		if result != nil {
			_ = client.Write(result.ToBytes())
		} else {
			_ = client.Write(unknownErrReplyBytes)
		}
		if len(r.Args) > 0 && strings.EqualFold(string(r.Args[0]), "quit") {
			h.closeClient(client)
			logger.Info("connection closed: " + client.RemoteAddr())
			return
		}
	}
}

// Close stops handler
func (h *Handler) Close() error {
	logger.Info("handler shutting down...")
	h.closing.Set(true)
	h.activeConn.Range(func(key interface{}, val interface{}) bool {
		client := key.(*connection.Connection)
		_ = client.Close()
		return true
	})
	h.db.Close()
	return nil
}
