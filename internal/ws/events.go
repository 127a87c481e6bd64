package ws

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/zngsm/chatting/internal/chat"
)

// Server→client event type tags.
const (
	EventChatMessage  = "chat_message"
	EventPastMessage  = "past_message"
	EventRoomList     = "send_chatroom_list"
	EventLatestUpdate = "update_latest_msg"
	EventUserCount    = "send_user_count"
	EventError        = "error"
)

// Group names. Every lobby session joins LobbyGroup; room sessions join
// their room's group.
const LobbyGroup = "lobby"

func RoomGroup(roomID uint64) string {
	return "room:" + strconv.FormatUint(roomID, 10)
}

// MessageEvent carries one chat message, live (chat_message) or replayed
// (past_message).
type MessageEvent struct {
	Type     string `json:"type"`
	Message  string `json:"message"`
	Username string `json:"username"`
}

type UserCountEvent struct {
	Type            string `json:"type"`
	ActiveUserCount int64  `json:"active_user_count"`
}

// LatestUpdateEvent is the reduced lobby copy of a new room message.
// ChatroomID is a string on the wire, unlike the numeric id inside
// room-list entries.
type LatestUpdateEvent struct {
	Type       string `json:"type"`
	ChatroomID string `json:"chatroom_id"`
	Message    string `json:"message"`
	Username   string `json:"username"`
}

type ErrorEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type RoomListEvent struct {
	Type    string          `json:"type"`
	Results RoomListResults `json:"results"`
}

type RoomListEntry struct {
	ChatroomID    uint64             `json:"chatroom_id"`
	Name          string             `json:"name"`
	VisitorCount  int64              `json:"visitor_count"`
	LatestMessage chat.LatestMessage `json:"latest_message"`
}

// RoomListResults marshals as a JSON object keyed by room id string whose
// key order is the slice order, so the ranking survives serialization.
type RoomListResults []RoomListEntry

func (rs RoomListResults) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, entry := range rs {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(strconv.FormatUint(entry.ChatroomID, 10))
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(entry)
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// InboundMessage is the only client→server payload on a room socket.
type InboundMessage struct {
	Message string `json:"message"`
}
