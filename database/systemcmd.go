package database

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/hdt3213/gkvs/config"
	"github.com/hdt3213/gkvs/interface/redis"
	"github.com/hdt3213/gkvs/redis/connection"
	"github.com/hdt3213/gkvs/redis/protocol"
)

var startTime = time.Now()

// Ping replies to a PING, optionally echoing back a single argument
func Ping(c redis.Connection, args [][]byte) redis.Reply {
	if len(args) == 0 {
		return &protocol.PongReply{}
	} else if len(args) == 1 {
		return protocol.MakeStatusReply(string(args[0]))
	}
	return protocol.MakeArgNumErrReply("ping")
}

// Info returns server introspection info for the INFO command
func Info(server *Server, args [][]byte) redis.Reply {
	return protocol.MakeBulkReply(serverInfo(server))
}

// DbSize reports how many keys live in the currently selected database
func DbSize(c redis.Connection, server *Server) redis.Reply {
	keys, _ := server.GetDBSize(c.GetDBIndex())
	return protocol.MakeIntReply(int64(keys))
}

// Auth validates a client's password against the configured auth_password
func Auth(c redis.Connection, args [][]byte) redis.Reply {
	if len(args) != 1 {
		return protocol.MakeArgNumErrReply("auth")
	}
	if config.Properties.AuthPassword == "" {
		return protocol.MakeErrReply("ERR Client sent AUTH, but no password is set")
	}
	passwd := string(args[0])
	c.SetPassword(passwd)
	if config.Properties.AuthPassword != passwd {
		return protocol.MakeErrReply("ERR invalid password")
	}
	return protocol.MakeOkReply()
}

func isAuthenticated(c redis.Connection) bool {
	if config.Properties.AuthPassword == "" {
		return true
	}
	return c.GetPassword() == config.Properties.AuthPassword
}

func serverInfo(server *Server) []byte {
	dbCount := 0
	if server != nil {
		dbCount = len(server.dbSet)
	}
	s := fmt.Sprintf("# Server\r\n"+
		"gkvs_version:1.0.0\r\n"+
		"redis_mode:standalone\r\n"+
		"os:%s %s\r\n"+
		"arch_bits:64\r\n"+
		"process_id:%d\r\n"+
		"tcp_port:%s\r\n"+
		"uptime_in_seconds:%d\r\n"+
		"databases:%d\r\n"+
		"maxmemory_bytes:%d\r\n"+
		"maxmemory_policy:%s\r\n",
		runtime.GOOS, runtime.GOARCH,
		os.Getpid(),
		config.Properties.ListenAddr,
		int64(time.Since(startTime).Seconds()),
		dbCount,
		config.Properties.MaxMemoryBytes,
		config.Properties.EvictionPolicy)
	s += fmt.Sprintf("# Stats\r\n"+
		"pubsub_messages_dropped:%d\r\n",
		connection.DroppedMessages())
	return []byte(s)
}
