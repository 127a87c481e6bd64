package ws

import (
	"context"
	"encoding/json"
	"log"

	"github.com/redis/go-redis/v9"

	"github.com/zngsm/chatting/internal/common"
)

// Broadcaster fans an event out to every member of a group. Delivery to
// each member is independent: one slow consumer never delays the rest.
type Broadcaster interface {
	Broadcast(group string, evt any)
	// BroadcastExcept skips one local client, typically the sender.
	BroadcastExcept(group string, evt any, except *Client)
}

// LocalBroadcaster delivers in-process only.
type LocalBroadcaster struct {
	reg *Registry
}

func NewLocalBroadcaster(reg *Registry) *LocalBroadcaster {
	return &LocalBroadcaster{reg: reg}
}

func (b *LocalBroadcaster) Broadcast(group string, evt any) {
	b.BroadcastExcept(group, evt, nil)
}

func (b *LocalBroadcaster) BroadcastExcept(group string, evt any, except *Client) {
	payload, err := json.Marshal(evt)
	if err != nil {
		log.Printf("broadcast marshal failed group=%s: %v", group, err)
		return
	}
	b.reg.Deliver(group, payload, except)
}

// envelope is the wire form of a broadcast mirrored through redis. Origin
// lets the publishing instance skip its own echo.
type envelope struct {
	Origin  string          `json:"origin"`
	Group   string          `json:"group"`
	Payload json.RawMessage `json:"payload"`
}

// RedisBroadcaster delivers locally and mirrors every broadcast onto a
// redis pub/sub channel so sessions on other instances see the same
// events. The exclude-sender rule is local by construction: the sender's
// client only exists on the publishing instance.
type RedisBroadcaster struct {
	local   *LocalBroadcaster
	rdb     *redis.Client
	channel string
	origin  string
}

func NewRedisBroadcaster(reg *Registry, rdb *redis.Client, channel string) (*RedisBroadcaster, error) {
	origin, err := common.NewULID()
	if err != nil {
		return nil, err
	}
	return &RedisBroadcaster{
		local:   NewLocalBroadcaster(reg),
		rdb:     rdb,
		channel: channel,
		origin:  origin,
	}, nil
}

func (b *RedisBroadcaster) Broadcast(group string, evt any) {
	b.BroadcastExcept(group, evt, nil)
}

func (b *RedisBroadcaster) BroadcastExcept(group string, evt any, except *Client) {
	payload, err := json.Marshal(evt)
	if err != nil {
		log.Printf("broadcast marshal failed group=%s: %v", group, err)
		return
	}
	b.local.reg.Deliver(group, payload, except)

	env, err := json.Marshal(envelope{Origin: b.origin, Group: group, Payload: payload})
	if err != nil {
		log.Printf("broadcast envelope marshal failed group=%s: %v", group, err)
		return
	}
	if err := b.rdb.Publish(context.Background(), b.channel, env).Err(); err != nil {
		log.Printf("broadcast publish failed group=%s: %v", group, err)
	}
}

// Run consumes mirrored broadcasts from other instances and replays them
// into the local registry. Blocks until ctx is cancelled.
func (b *RedisBroadcaster) Run(ctx context.Context) {
	sub := b.rdb.Subscribe(ctx, b.channel)
	defer func() { _ = sub.Close() }()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var env envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				log.Printf("broadcast bridge bad envelope: %v", err)
				continue
			}
			if env.Origin == b.origin {
				continue
			}
			b.local.reg.Deliver(env.Group, env.Payload, nil)
		}
	}
}
