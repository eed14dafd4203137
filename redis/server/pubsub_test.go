package server

import (
	"github.com/hdt3213/gkvs/lib/utils"
	"github.com/hdt3213/gkvs/pubsub"
	"github.com/hdt3213/gkvs/redis/connection"
	"github.com/hdt3213/gkvs/redis/parser"
	"github.com/hdt3213/gkvs/redis/protocol/asserts"
	"testing"
)

func TestPublish(t *testing.T) {
	hub := pubsub.MakeHub()
	channel := utils.RandString(5)
	msg := utils.RandString(5)
	conn := &connection.FakeConn{}
	pubsub.Subscribe(hub, conn, utils.ToCmdLine(channel))
	conn.Clean() // clean subscribe success
	pubsub.Publish(hub, utils.ToCmdLine(channel, msg))
	data := conn.Bytes()
	ret, err := parser.ParseOne(data)
	if err != nil {
		t.Error(err)
		return
	}
	asserts.AssertMultiBulkReply(t, ret, []string{
		"message",
		channel,
		msg,
	})

	// unsubscribe
	pubsub.UnSubscribe(hub, conn, utils.ToCmdLine(channel))
	conn.Clean()
	pubsub.Publish(hub, utils.ToCmdLine(channel, msg))
	data = conn.Bytes()
	if len(data) > 0 {
		t.Error("expect no msg")
	}

	// unsubscribe all
	pubsub.Subscribe(hub, conn, utils.ToCmdLine(channel))
	pubsub.UnSubscribe(hub, conn, utils.ToCmdLine())
	conn.Clean()
	pubsub.Publish(hub, utils.ToCmdLine(channel, msg))
	data = conn.Bytes()
	if len(data) > 0 {
		t.Error("expect no msg")
	}
}

func TestPSubscribe(t *testing.T) {
	hub := pubsub.MakeHub()
	prefix := utils.RandString(5)
	pattern := prefix + ".*"
	channel := prefix + ".news"
	msg := utils.RandString(5)
	conn := &connection.FakeConn{}
	pubsub.PSubscribe(hub, conn, utils.ToCmdLine(pattern))
	conn.Clean() // clean psubscribe confirmation

	pubsub.Publish(hub, utils.ToCmdLine(channel, msg))
	data := conn.Bytes()
	ret, err := parser.ParseOne(data)
	if err != nil {
		t.Error(err)
		return
	}
	asserts.AssertMultiBulkReply(t, ret, []string{
		"pmessage",
		pattern,
		channel,
		msg,
	})

	// a channel that doesn't match the pattern gets nothing
	conn.Clean()
	pubsub.Publish(hub, utils.ToCmdLine(prefix+"x", msg))
	if len(conn.Bytes()) > 0 {
		t.Error("expect no msg for a non-matching channel")
	}

	// punsubscribe stops further fanout
	pubsub.PUnSubscribe(hub, conn, utils.ToCmdLine(pattern))
	conn.Clean()
	pubsub.Publish(hub, utils.ToCmdLine(channel, msg))
	if len(conn.Bytes()) > 0 {
		t.Error("expect no msg after punsubscribe")
	}
}

func TestSSubscribeAndSPublish(t *testing.T) {
	hub := pubsub.MakeHub()
	channel := utils.RandString(5)
	msg := utils.RandString(5)
	conn := &connection.FakeConn{}
	pubsub.SSubscribe(hub, conn, utils.ToCmdLine(channel))
	conn.Clean() // clean ssubscribe confirmation

	pubsub.SPublish(hub, utils.ToCmdLine(channel, msg))
	data := conn.Bytes()
	ret, err := parser.ParseOne(data)
	if err != nil {
		t.Error(err)
		return
	}
	asserts.AssertMultiBulkReply(t, ret, []string{
		"smessage",
		channel,
		msg,
	})

	// shard channels are a disjoint namespace: a regular PUBLISH on the
	// same channel name must not reach a shard subscriber
	conn.Clean()
	pubsub.Publish(hub, utils.ToCmdLine(channel, msg))
	if len(conn.Bytes()) > 0 {
		t.Error("expect no msg: shard channels are not reachable via PUBLISH")
	}

	// sunsubscribe stops further fanout
	pubsub.SUnSubscribe(hub, conn, utils.ToCmdLine(channel))
	conn.Clean()
	pubsub.SPublish(hub, utils.ToCmdLine(channel, msg))
	if len(conn.Bytes()) > 0 {
		t.Error("expect no msg after sunsubscribe")
	}
}
