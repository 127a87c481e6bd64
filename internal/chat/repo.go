package chat

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) CreateRoom(ctx context.Context, room *ChatRoom) error {
	return r.db.WithContext(ctx).Create(room).Error
}

func (r *Repo) GetRoom(ctx context.Context, id uint64) (*ChatRoom, error) {
	var room ChatRoom
	if err := r.db.WithContext(ctx).First(&room, id).Error; err != nil {
		return nil, err
	}
	return &room, nil
}

func (r *Repo) ListRooms(ctx context.Context) ([]ChatRoom, error) {
	var rooms []ChatRoom
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&rooms).Error; err != nil {
		return nil, err
	}
	return rooms, nil
}

func (r *Repo) RecordVisit(ctx context.Context, v *Visit) error {
	return r.db.WithContext(ctx).Create(v).Error
}

// CountRecentVisits counts visit rows for a room inside the trailing window.
// The lower bound is inclusive: a visit at exactly now-window still counts.
func (r *Repo) CountRecentVisits(ctx context.Context, roomID uint64, now time.Time, window time.Duration) (int64, error) {
	var cnt int64
	err := r.db.WithContext(ctx).Model(&Visit{}).
		Where("room_id = ? AND visited_at >= ? AND visited_at <= ?", roomID, now.Add(-window), now).
		Count(&cnt).Error
	if err != nil {
		return 0, err
	}
	return cnt, nil
}

// RecentVisitorCounts returns the windowed visit count for every room that
// has at least one visit in the window, in one grouped query. Rooms absent
// from the map have a count of zero.
func (r *Repo) RecentVisitorCounts(ctx context.Context, now time.Time, window time.Duration) (map[uint64]int64, error) {
	var rows []struct {
		RoomID uint64
		Cnt    int64
	}
	err := r.db.WithContext(ctx).Model(&Visit{}).
		Select("room_id, COUNT(*) AS cnt").
		Where("visited_at >= ? AND visited_at <= ?", now.Add(-window), now).
		Group("room_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[uint64]int64, len(rows))
	for _, row := range rows {
		counts[row.RoomID] = row.Cnt
	}
	return counts, nil
}

func (r *Repo) InsertMessage(ctx context.Context, m *Message) error {
	return r.db.WithContext(ctx).Create(m).Error
}

// RoomMessage is a message joined with its author's username.
type RoomMessage struct {
	Content   string
	Username  string
	CreatedAt time.Time
}

// ListMessagesDesc returns every message in a room, newest first, with the
// author's username resolved in the same query.
func (r *Repo) ListMessagesDesc(ctx context.Context, roomID uint64) ([]RoomMessage, error) {
	var msgs []RoomMessage
	err := r.db.WithContext(ctx).
		Table("chat_messages").
		Select("chat_messages.content, chat_messages.created_at, users.username").
		Joins("JOIN users ON users.id = chat_messages.user_id").
		Where("chat_messages.room_id = ?", roomID).
		Order("chat_messages.created_at DESC, chat_messages.id DESC").
		Scan(&msgs).Error
	if err != nil {
		return nil, err
	}
	return msgs, nil
}

// LatestMessage is the newest message of one room for the lobby view.
type LatestMessage struct {
	Content  string `json:"message"`
	Username string `json:"username"`
}

// LatestMessagePerRoom resolves the newest message and its author for every
// room that has messages, in a single round trip. Message ids are monotone
// with created_at, so max(id) per room is the newest row and breaks
// created_at ties toward the later insert.
func (r *Repo) LatestMessagePerRoom(ctx context.Context) (map[uint64]LatestMessage, error) {
	var rows []struct {
		RoomID   uint64
		Content  string
		Username string
	}
	err := r.db.WithContext(ctx).Raw(`
		SELECT m.room_id AS room_id, m.content AS content, u.username AS username
		FROM chat_messages m
		JOIN users u ON u.id = m.user_id
		WHERE m.id IN (SELECT MAX(id) FROM chat_messages GROUP BY room_id)`).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	latest := make(map[uint64]LatestMessage, len(rows))
	for _, row := range rows {
		latest[row.RoomID] = LatestMessage{Content: row.Content, Username: row.Username}
	}
	return latest, nil
}
