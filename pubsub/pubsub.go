package pubsub

import (
	"strconv"

	"github.com/hdt3213/gkvs/datastruct/list"
	"github.com/hdt3213/gkvs/interface/redis"
	"github.com/hdt3213/gkvs/lib/wildcard"
	"github.com/hdt3213/gkvs/redis/protocol"
)

const (
	subscribe        = "subscribe"
	unsubscribe      = "unsubscribe"
	psubscribe       = "psubscribe"
	punsubscribe     = "punsubscribe"
	ssubscribe       = "ssubscribe"
	sunsubscribe     = "sunsubscribe"
	message          = "message"
	pmessage         = "pmessage"
	smessage         = "smessage"
)

func makeConfirmMsg(kind, channel string, code int64) []byte {
	reply := protocol.MakeMultiBulkReply([][]byte{
		[]byte(kind), []byte(channel), []byte(strconv.FormatInt(code, 10)),
	})
	return reply.ToBytes()
}

// subscribe0 adds client to the subscriber list of channel in the given dict.
// invoker must already hold the matching entry in hub.subsLocker.
func subscribe0(subs *subsTable, channel string, client redis.Connection, track func(redis.Connection)) bool {
	subscribers, ok := subs.get(channel)
	if !ok {
		subscribers = list.NewQuickList()
		subs.put(channel, subscribers)
	}
	if subscribers.Contains(func(a interface{}) bool {
		return a.(redis.Connection) == client
	}) {
		return false
	}
	subscribers.Add(client)
	track(client)
	return true
}

func unsubscribe0(subs *subsTable, channel string, client redis.Connection, untrack func(redis.Connection)) bool {
	subscribers, ok := subs.get(channel)
	if !ok {
		return false
	}
	removed := subscribers.RemoveAllByVal(func(a interface{}) bool {
		return a.(redis.Connection) == client
	})
	if subscribers.Len() == 0 {
		subs.remove(channel)
	}
	untrack(client)
	return removed > 0
}

// Subscribe subscribes the client to one or more exact channels
func Subscribe(hub *Hub, c redis.Connection, args [][]byte) redis.Reply {
	channels := toStrings(args)
	hub.subsLocker.Locks(channels...)
	defer hub.subsLocker.UnLocks(channels...)

	for _, channel := range channels {
		if subscribe0(hub.channels, channel, c, func(redis.Connection) {}) {
			c.Subscribe(channel)
		}
		c.Deliver(makeConfirmMsg(subscribe, channel, int64(c.SubsCount())))
	}
	return &protocol.NoReply{}
}

// UnSubscribe unsubscribes the client from the given exact channels, or all of them if none given
func UnSubscribe(hub *Hub, c redis.Connection, args [][]byte) redis.Reply {
	channels := toStrings(args)
	if len(channels) == 0 {
		channels = c.GetChannels()
	}
	if len(channels) == 0 {
		c.Deliver(makeConfirmMsg(unsubscribe, "", 0))
		return &protocol.NoReply{}
	}

	hub.subsLocker.Locks(channels...)
	defer hub.subsLocker.UnLocks(channels...)

	for _, channel := range channels {
		unsubscribe0(hub.channels, channel, c, func(redis.Connection) {})
		c.UnSubscribe(channel)
		c.Deliver(makeConfirmMsg(unsubscribe, channel, int64(c.SubsCount())))
	}
	return &protocol.NoReply{}
}

// PSubscribe subscribes the client to one or more glob patterns
func PSubscribe(hub *Hub, c redis.Connection, args [][]byte) redis.Reply {
	patterns := toStrings(args)
	hub.subsLocker.Locks(patterns...)
	defer hub.subsLocker.UnLocks(patterns...)

	for _, pattern := range patterns {
		if subscribe0(hub.patterns, pattern, c, func(redis.Connection) {}) {
			c.PSubscribe(pattern)
		}
		c.Deliver(makeConfirmMsg(psubscribe, pattern, int64(c.PSubsCount())))
	}
	return &protocol.NoReply{}
}

// PUnSubscribe unsubscribes the client from the given patterns, or all of them if none given
func PUnSubscribe(hub *Hub, c redis.Connection, args [][]byte) redis.Reply {
	patterns := toStrings(args)
	if len(patterns) == 0 {
		patterns = c.GetPatterns()
	}
	hub.subsLocker.Locks(patterns...)
	defer hub.subsLocker.UnLocks(patterns...)

	for _, pattern := range patterns {
		unsubscribe0(hub.patterns, pattern, c, func(redis.Connection) {})
		c.PUnSubscribe(pattern)
		c.Deliver(makeConfirmMsg(punsubscribe, pattern, int64(c.PSubsCount())))
	}
	return &protocol.NoReply{}
}

// SSubscribe subscribes the client to one or more shard channels, the
// single-node analogue of cluster sharded pub/sub: it behaves like exact
// channel subscriptions but is kept in a disjoint namespace.
func SSubscribe(hub *Hub, c redis.Connection, args [][]byte) redis.Reply {
	channels := toStrings(args)
	hub.subsLocker.Locks(channels...)
	defer hub.subsLocker.UnLocks(channels...)

	for _, channel := range channels {
		if subscribe0(hub.shardChannels, channel, c, func(redis.Connection) {}) {
			c.SSubscribe(channel)
		}
		c.Deliver(makeConfirmMsg(ssubscribe, channel, int64(c.SSubsCount())))
	}
	return &protocol.NoReply{}
}

// SUnSubscribe unsubscribes the client from the given shard channels, or all of them if none given
func SUnSubscribe(hub *Hub, c redis.Connection, args [][]byte) redis.Reply {
	channels := toStrings(args)
	if len(channels) == 0 {
		channels = c.GetShardChannels()
	}
	hub.subsLocker.Locks(channels...)
	defer hub.subsLocker.UnLocks(channels...)

	for _, channel := range channels {
		unsubscribe0(hub.shardChannels, channel, c, func(redis.Connection) {})
		c.SUnSubscribe(channel)
		c.Deliver(makeConfirmMsg(sunsubscribe, channel, int64(c.SSubsCount())))
	}
	return &protocol.NoReply{}
}

// UnsubscribeAll drops a closing client from every namespace it joined
func UnsubscribeAll(hub *Hub, c redis.Connection) {
	channels := c.GetChannels()
	hub.subsLocker.Locks(channels...)
	for _, channel := range channels {
		unsubscribe0(hub.channels, channel, c, func(redis.Connection) {})
	}
	hub.subsLocker.UnLocks(channels...)

	patterns := c.GetPatterns()
	hub.subsLocker.Locks(patterns...)
	for _, pattern := range patterns {
		unsubscribe0(hub.patterns, pattern, c, func(redis.Connection) {})
	}
	hub.subsLocker.UnLocks(patterns...)

	shardChannels := c.GetShardChannels()
	hub.subsLocker.Locks(shardChannels...)
	for _, channel := range shardChannels {
		unsubscribe0(hub.shardChannels, channel, c, func(redis.Connection) {})
	}
	hub.subsLocker.UnLocks(shardChannels...)
}

func deliverTo(subscribers *list.QuickList, kind, channel string, payload []byte, extra string) int64 {
	if subscribers == nil {
		return 0
	}
	subscribers.ForEach(func(i int, v interface{}) bool {
		client := v.(redis.Connection)
		var args [][]byte
		if extra != "" {
			args = [][]byte{[]byte(kind), []byte(extra), []byte(channel), payload}
		} else {
			args = [][]byte{[]byte(kind), []byte(channel), payload}
		}
		client.Deliver(protocol.MakeMultiBulkReply(args).ToBytes())
		return true
	})
	return int64(subscribers.Len())
}

// Publish fans a message out to exact-channel subscribers and to every
// pattern subscriber whose glob matches the channel name.
func Publish(hub *Hub, args [][]byte) redis.Reply {
	if len(args) != 2 {
		return protocol.MakeArgNumErrReply("publish")
	}
	channel := string(args[0])
	payload := args[1]

	hub.subsLocker.Lock(channel)
	exact, _ := hub.channels.get(channel)
	hub.subsLocker.UnLock(channel)
	count := deliverTo(exact, message, channel, payload, "")

	patterns := hub.patterns.keys()
	for _, pattern := range patterns {
		hub.subsLocker.Lock(pattern)
		subs, _ := hub.patterns.get(pattern)
		hub.subsLocker.UnLock(pattern)
		if subs == nil {
			continue
		}
		if wildcard.CompilePattern(pattern).IsMatch(channel) {
			count += deliverTo(subs, pmessage, channel, payload, pattern)
		}
	}
	return protocol.MakeIntReply(count)
}

// SPublish fans a message out to shard-channel subscribers only, the
// disjoint namespace SSUBSCRIBE joins.
func SPublish(hub *Hub, args [][]byte) redis.Reply {
	if len(args) != 2 {
		return protocol.MakeArgNumErrReply("spublish")
	}
	channel := string(args[0])
	payload := args[1]

	hub.subsLocker.Lock(channel)
	subs, _ := hub.shardChannels.get(channel)
	hub.subsLocker.UnLock(channel)
	count := deliverTo(subs, smessage, channel, payload, "")
	return protocol.MakeIntReply(count)
}

// Channels lists active exact channels, optionally filtered by a glob pattern.
func Channels(hub *Hub, pattern string) []string {
	names := hub.channels.keys()
	if pattern == "" {
		return names
	}
	matcher := wildcard.CompilePattern(pattern)
	result := make([]string, 0, len(names))
	for _, name := range names {
		if matcher.IsMatch(name) {
			result = append(result, name)
		}
	}
	return result
}

// ShardChannels lists active shard channels, optionally filtered by pattern.
func ShardChannels(hub *Hub, pattern string) []string {
	names := hub.shardChannels.keys()
	if pattern == "" {
		return names
	}
	matcher := wildcard.CompilePattern(pattern)
	result := make([]string, 0, len(names))
	for _, name := range names {
		if matcher.IsMatch(name) {
			result = append(result, name)
		}
	}
	return result
}

// NumSub reports the subscriber count of each named exact channel.
func NumSub(hub *Hub, channels []string) map[string]int64 {
	result := make(map[string]int64, len(channels))
	for _, channel := range channels {
		subs, ok := hub.channels.get(channel)
		if !ok {
			result[channel] = 0
			continue
		}
		result[channel] = int64(subs.Len())
	}
	return result
}

// ShardNumSub reports the subscriber count of each named shard channel.
func ShardNumSub(hub *Hub, channels []string) map[string]int64 {
	result := make(map[string]int64, len(channels))
	for _, channel := range channels {
		subs, ok := hub.shardChannels.get(channel)
		if !ok {
			result[channel] = 0
			continue
		}
		result[channel] = int64(subs.Len())
	}
	return result
}

// NumPat reports how many distinct glob patterns are currently subscribed to.
func NumPat(hub *Hub) int64 {
	return int64(len(hub.patterns.keys()))
}

func toStrings(args [][]byte) []string {
	result := make([]string, len(args))
	for i, b := range args {
		result[i] = string(b)
	}
	return result
}
