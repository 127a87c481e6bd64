package handlers

import (
	"context"
	"crypto/rand"
	"errors"
	"log"
	"math/big"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"gorm.io/gorm"

	"github.com/zngsm/chatting/internal/auth"
	"github.com/zngsm/chatting/internal/common"
	"github.com/zngsm/chatting/internal/models"
	"github.com/zngsm/chatting/internal/ws"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Guests carry a placeholder credential that can never match a bcrypt
// hash, so a guest identity cannot be logged into.
const guestPassword = "!"

// randomGuestName returns an 8-character token, unique with overwhelming
// probability.
func randomGuestName() (string, error) {
	const letters = "abcdefghijklmnopqrstuvwxyz0123456789"
	out := make([]byte, 8)
	for i := range out {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(letters))))
		if err != nil {
			return "", err
		}
		out[i] = letters[n.Int64()]
	}
	return string(out), nil
}

func (h *Handler) createGuestUser(ctx context.Context) (*models.User, error) {
	for i := 0; i < 5; i++ {
		name, err := randomGuestName()
		if err != nil {
			return nil, err
		}
		user := models.User{Username: name, PasswordHash: guestPassword}
		if err := h.DB.WithContext(ctx).Create(&user).Error; err != nil {
			// unique collision: retry with a fresh name
			continue
		}
		return &user, nil
	}
	return nil, errors.New("failed to allocate guest username")
}

// resolveIdentity maps a bearer token to its user; without a usable token
// the connection gets a freshly synthesized guest, a first-class user row.
func (h *Handler) resolveIdentity(c *gin.Context) (models.Identity, error) {
	token := c.Query("token")
	if token == "" {
		if header := c.GetHeader("Authorization"); strings.HasPrefix(header, "Bearer ") {
			token = strings.TrimPrefix(header, "Bearer ")
		}
	}

	if token != "" {
		uid, err := auth.ParseJWT(token, h.Cfg.JWTSecret)
		if err == nil {
			var user models.User
			if err := h.DB.WithContext(c.Request.Context()).First(&user, uid).Error; err == nil {
				return models.Registered(&user), nil
			}
		}
	}

	guest, err := h.createGuestUser(c.Request.Context())
	if err != nil {
		return models.Identity{}, err
	}
	return models.GuestOf(guest), nil
}

// RoomWS serves GET /room/:room_id/chat. The room is resolved before the
// upgrade so an unknown id fails with a plain 404 and leaves no visit row
// and no group membership behind.
func (h *Handler) RoomWS(c *gin.Context) {
	roomID, err := strconv.ParseUint(c.Param("room_id"), 10, 64)
	if err != nil {
		common.Fail(c, http.StatusNotFound, 40402, "room not found")
		return
	}

	room, err := h.ChatSvc.GetRoom(c.Request.Context(), roomID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			common.Fail(c, http.StatusNotFound, 40402, "room not found")
			return
		}
		common.Fail(c, http.StatusInternalServerError, 50001, "db error")
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("room ws upgrade failed room=%d: %v", roomID, err)
		return
	}

	// Resolved after the upgrade so a rejected handshake never leaves an
	// orphan guest row behind.
	identity, err := h.resolveIdentity(c)
	if err != nil {
		log.Printf("room ws identity failed room=%d: %v", roomID, err)
		_ = conn.Close()
		return
	}

	client := ws.NewClient(conn)
	go client.WritePump()
	ws.NewRoomSession(h.ChatSvc, h.Registry, h.Broadcaster, room, identity, client).
		Run(c.Request.Context())
}

// LobbyWS serves GET /room.
func (h *Handler) LobbyWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("lobby ws upgrade failed: %v", err)
		return
	}

	client := ws.NewClient(conn)
	go client.WritePump()
	ws.NewLobbySession(h.ChatSvc, h.Registry, client).Run(c.Request.Context())
}
