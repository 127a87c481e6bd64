package ws

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/zngsm/chatting/internal/chat"
	"github.com/zngsm/chatting/internal/models"
)

var sessDBSeq atomic.Int64

func newSessionService(t *testing.T) (*chat.Service, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:ws_sess_%d?mode=memory&cache=shared", sessDBSeq.Add(1))
	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &chat.ChatRoom{}, &chat.Visit{}, &chat.Message{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return chat.NewService(chat.NewRepo(db)), db
}

func seedSessionRoom(t *testing.T, svc *chat.Service, db *gorm.DB, messages int) (*chat.ChatRoom, *models.User) {
	t.Helper()
	ctx := context.Background()
	room, err := svc.CreateRoom(ctx, "gophers")
	if err != nil {
		t.Fatalf("create room: %v", err)
	}
	u := &models.User{Username: "Sue", PasswordHash: "!"}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	for i := 0; i < messages; i++ {
		if _, err := svc.PostMessage(ctx, u.ID, room.ID, fmt.Sprintf("message %d", i)); err != nil {
			t.Fatalf("post message %d: %v", i, err)
		}
	}
	return room, u
}

func TestRoomSession_BackpressuredReplayClosesClient(t *testing.T) {
	svc, db := newSessionService(t)
	room, u := seedSessionRoom(t, svc, db, 6)

	reg := NewRegistry()
	// buffer too small for the replay plus the count
	client := newTestClient(4)
	sess := NewRoomSession(svc, reg, NewLocalBroadcaster(reg), room, models.Registered(u), client)

	sess.Run(context.Background())

	if got := reg.GroupSize(RoomGroup(room.ID)); got != 0 {
		t.Fatalf("expected client removed from group, size %d", got)
	}
	select {
	case <-client.done:
	default:
		t.Fatalf("expected client to be closed")
	}
	// nothing the client did queue pretends the sequence completed
	if got := len(drain(client)); got >= 7 {
		t.Fatalf("expected a truncated queue, got %d events", got)
	}
}

func TestRoomSession_ConnectQueuesHistoryThenCount(t *testing.T) {
	svc, db := newSessionService(t)
	room, u := seedSessionRoom(t, svc, db, 6)

	reg := NewRegistry()
	client := newTestClient(16)
	sess := NewRoomSession(svc, reg, NewLocalBroadcaster(reg), room, models.Registered(u), client)

	if err := sess.connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	// six past_message events plus exactly one send_user_count
	if got := len(drain(client)); got != 7 {
		t.Fatalf("expected 7 queued events, got %d", got)
	}
	if got := reg.GroupSize(RoomGroup(room.ID)); got != 1 {
		t.Fatalf("expected client joined, size %d", got)
	}
}

func TestLobbySession_BackpressuredClientClosesWithoutJoinLeak(t *testing.T) {
	svc, _ := newSessionService(t)

	reg := NewRegistry()
	client := newTestClient(0)
	NewLobbySession(svc, reg, client).Run(context.Background())

	if got := reg.GroupSize(LobbyGroup); got != 0 {
		t.Fatalf("expected client removed from lobby group, size %d", got)
	}
	select {
	case <-client.done:
	default:
		t.Fatalf("expected client to be closed")
	}
}
