package ws

import (
	"context"
	"log"
	"time"

	"github.com/zngsm/chatting/internal/chat"
)

// LobbySession serves the room-list view. It emits one ranked snapshot on
// connect, then only relays update_latest_msg broadcasts it receives as a
// lobby group member; it never recomputes counts or re-sorts while open.
type LobbySession struct {
	svc    *chat.Service
	reg    *Registry
	client *Client
}

func NewLobbySession(svc *chat.Service, reg *Registry, client *Client) *LobbySession {
	return &LobbySession{svc: svc, reg: reg, client: client}
}

func (s *LobbySession) Run(ctx context.Context) {
	defer func() {
		s.reg.LeaveAll(s.client)
		s.client.Close()
	}()

	s.reg.Join(LobbyGroup, s.client)

	summaries, err := s.svc.RoomList(ctx, time.Now())
	if err != nil {
		log.Printf("lobby session room list failed client=%s: %v", s.client.ID(), err)
		return
	}

	results := make(RoomListResults, 0, len(summaries))
	for _, sum := range summaries {
		results = append(results, RoomListEntry{
			ChatroomID:    sum.Room.ID,
			Name:          sum.Room.Name,
			VisitorCount:  sum.VisitorCount,
			LatestMessage: sum.Latest,
		})
	}
	if !s.client.SendEvent(RoomListEvent{Type: EventRoomList, Results: results}) {
		log.Printf("lobby session dropped client=%s: %v", s.client.ID(), errSlowConsumer)
		return
	}

	// Inbound frames are not part of the lobby protocol; the read loop
	// only detects disconnects.
	s.client.setupRead()
	for {
		if _, err := s.client.ReadMessage(); err != nil {
			return
		}
	}
}
