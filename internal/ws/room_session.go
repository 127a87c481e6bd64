package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strconv"
	"time"

	"github.com/zngsm/chatting/internal/chat"
	"github.com/zngsm/chatting/internal/models"
)

// errSlowConsumer marks a client whose send buffer could not absorb a
// session-direct event. The session treats it like a dead transport.
var errSlowConsumer = errors.New("send buffer full or closed")

// RoomSession is the server-side actor for one room connection. Lifecycle:
// a connect sequence (join group, record visit, replay history, emit the
// presence count), then a read loop until the transport closes. Any
// storage failure closes the session without touching other sessions.
type RoomSession struct {
	svc      *chat.Service
	reg      *Registry
	b        Broadcaster
	room     *chat.ChatRoom
	identity models.Identity
	client   *Client
	group    string
}

func NewRoomSession(svc *chat.Service, reg *Registry, b Broadcaster, room *chat.ChatRoom, identity models.Identity, client *Client) *RoomSession {
	return &RoomSession{
		svc:      svc,
		reg:      reg,
		b:        b,
		room:     room,
		identity: identity,
		client:   client,
		group:    RoomGroup(room.ID),
	}
}

// Run blocks until the connection is gone. The deferred teardown is the
// single CLOSED transition: leave all groups, close the transport.
func (s *RoomSession) Run(ctx context.Context) {
	defer func() {
		s.reg.LeaveAll(s.client)
		s.client.Close()
	}()

	if err := s.connect(ctx); err != nil {
		log.Printf("room session connect failed client=%s room=%d user=%s guest=%t: %v",
			s.client.ID(), s.room.ID, s.identity.User.Username, s.identity.Guest, err)
		return
	}
	s.readLoop(ctx)
}

// connect runs the joining sequence in its contractual order: join the
// group, record the visit, replay history newest first, emit the fresh
// count to this socket, then broadcast the count to everyone already in
// the room. A failure at any step aborts before the next; the deferred
// teardown in Run undoes the join. A client whose buffer cannot absorb
// the replay fails here rather than staying joined with a truncated view.
func (s *RoomSession) connect(ctx context.Context) error {
	s.reg.Join(s.group, s.client)

	if err := s.svc.Touch(ctx, s.identity.User.ID, s.room.ID, time.Now()); err != nil {
		return err
	}

	history, err := s.svc.History(ctx, s.room.ID)
	if err != nil {
		return err
	}
	for _, m := range history {
		ok := s.client.SendEvent(MessageEvent{
			Type:     EventPastMessage,
			Message:  m.Content,
			Username: m.Username,
		})
		if !ok {
			return errSlowConsumer
		}
	}

	count, err := s.svc.ActiveCount(ctx, s.room.ID, time.Now())
	if err != nil {
		return err
	}
	evt := UserCountEvent{Type: EventUserCount, ActiveUserCount: count}
	if !s.client.SendEvent(evt) {
		return errSlowConsumer
	}
	// Everyone already connected sees the count reflecting the arrival;
	// the new socket already got its copy above.
	s.b.BroadcastExcept(s.group, evt, s.client)
	return nil
}

func (s *RoomSession) readLoop(ctx context.Context) {
	s.client.setupRead()
	for {
		raw, err := s.client.ReadMessage()
		if err != nil {
			return
		}

		var in InboundMessage
		if err := json.Unmarshal(raw, &in); err != nil {
			s.client.SendEvent(ErrorEvent{Type: EventError, Message: "invalid message payload"})
			continue
		}

		msg, err := s.svc.PostMessage(ctx, s.identity.User.ID, s.room.ID, in.Message)
		if errors.Is(err, chat.ErrEmptyMessage) {
			s.client.SendEvent(ErrorEvent{Type: EventError, Message: "message content is empty"})
			continue
		}
		if err != nil {
			log.Printf("room session storage failure client=%s room=%d: %v", s.client.ID(), s.room.ID, err)
			return
		}

		s.b.Broadcast(s.group, MessageEvent{
			Type:     EventChatMessage,
			Message:  msg.Content,
			Username: s.identity.User.Username,
		})
		s.b.Broadcast(LobbyGroup, LatestUpdateEvent{
			Type:       EventLatestUpdate,
			ChatroomID: strconv.FormatUint(s.room.ID, 10),
			Message:    msg.Content,
			Username:   s.identity.User.Username,
		})
	}
}
