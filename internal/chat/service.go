package chat

import (
	"context"
	"sort"
	"strings"
	"time"
)

// Service owns room, presence, and message semantics on top of the Repo.
// Presence is never cached: every count is recomputed from the persisted
// visit log, so it survives process restarts.
type Service struct {
	repo *Repo
}

func NewService(repo *Repo) *Service {
	return &Service{repo: repo}
}

func (s *Service) CreateRoom(ctx context.Context, name string) (*ChatRoom, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrEmptyName
	}
	room := &ChatRoom{Name: name}
	if err := s.repo.CreateRoom(ctx, room); err != nil {
		return nil, err
	}
	return room, nil
}

func (s *Service) GetRoom(ctx context.Context, id uint64) (*ChatRoom, error) {
	return s.repo.GetRoom(ctx, id)
}

func (s *Service) ListRooms(ctx context.Context) ([]ChatRoom, error) {
	return s.repo.ListRooms(ctx)
}

// Touch appends a visit row for the user in the room. Visits are not
// deduplicated: the same user reconnecting twice produces two rows.
func (s *Service) Touch(ctx context.Context, userID, roomID uint64, at time.Time) error {
	return s.repo.RecordVisit(ctx, &Visit{UserID: userID, RoomID: roomID, VisitedAt: at})
}

func (s *Service) ActiveCount(ctx context.Context, roomID uint64, now time.Time) (int64, error) {
	return s.repo.CountRecentVisits(ctx, roomID, now, PresenceWindow)
}

// PostMessage validates and persists one chat message. Whitespace-only
// content is rejected without touching the store.
func (s *Service) PostMessage(ctx context.Context, userID, roomID uint64, content string) (*Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyMessage
	}
	m := &Message{UserID: userID, RoomID: roomID, Content: content}
	if err := s.repo.InsertMessage(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *Service) History(ctx context.Context, roomID uint64) ([]RoomMessage, error) {
	return s.repo.ListMessagesDesc(ctx, roomID)
}

// RoomSummary is one lobby entry: a room, its windowed visitor count, and
// its latest message (the sentinel for rooms with none).
type RoomSummary struct {
	Room         ChatRoom
	VisitorCount int64
	Latest       LatestMessage
}

// RoomList builds the lobby view: every room with its visitor count and
// latest message, sorted by visitor count descending, ties broken by room
// id ascending. Counts and latest messages each come from one bulk query.
func (s *Service) RoomList(ctx context.Context, now time.Time) ([]RoomSummary, error) {
	rooms, err := s.repo.ListRooms(ctx)
	if err != nil {
		return nil, err
	}
	counts, err := s.repo.RecentVisitorCounts(ctx, now, PresenceWindow)
	if err != nil {
		return nil, err
	}
	latest, err := s.repo.LatestMessagePerRoom(ctx)
	if err != nil {
		return nil, err
	}

	summaries := make([]RoomSummary, 0, len(rooms))
	for _, room := range rooms {
		entry := RoomSummary{
			Room:         room,
			VisitorCount: counts[room.ID],
			Latest:       LatestMessage{Content: NoMessage, Username: SystemAuthor},
		}
		if lm, ok := latest[room.ID]; ok {
			entry.Latest = lm
		}
		summaries = append(summaries, entry)
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		if summaries[i].VisitorCount != summaries[j].VisitorCount {
			return summaries[i].VisitorCount > summaries[j].VisitorCount
		}
		return summaries[i].Room.ID < summaries[j].Room.ID
	})
	return summaries, nil
}
