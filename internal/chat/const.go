package chat

import (
	"errors"
	"time"
)

// Sentinel latest-message for rooms with no messages yet.
const (
	NoMessage    = "NO_MESSAGE"
	SystemAuthor = "SYSTEM"
)

// PresenceWindow is the trailing interval a visit counts toward a room's
// active-participant figure. Fixed, not configurable per room.
const PresenceWindow = 30 * time.Minute

var (
	ErrEmptyMessage = errors.New("message content is empty")
	ErrEmptyName    = errors.New("room name is empty")
)
