package chat

import "time"

type ChatRoom struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

func (ChatRoom) TableName() string { return "chat_rooms" }

// Visit is an append-only record of a room connection. One row per
// established room session, never updated, never deleted. The presence
// window is computed from these rows on demand.
type Visit struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"-"`
	UserID    uint64    `gorm:"index;not null" json:"-"`
	RoomID    uint64    `gorm:"index;not null" json:"-"`
	VisitedAt time.Time `gorm:"index;not null" json:"visited_at"`
}

func (Visit) TableName() string { return "chat_room_visits" }

type Message struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    uint64    `gorm:"index;not null" json:"-"`
	RoomID    uint64    `gorm:"index;not null" json:"-"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func (Message) TableName() string { return "chat_messages" }
