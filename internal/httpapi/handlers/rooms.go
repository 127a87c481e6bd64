package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/zngsm/chatting/internal/chat"
	"github.com/zngsm/chatting/internal/common"
)

type createRoomReq struct {
	Name string `json:"name"`
}

func (h *Handler) CreateRoom(c *gin.Context) {
	var req createRoomReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}

	room, err := h.ChatSvc.CreateRoom(c.Request.Context(), req.Name)
	if err != nil {
		if errors.Is(err, chat.ErrEmptyName) {
			common.Fail(c, http.StatusBadRequest, 10005, "room name required")
			return
		}
		common.Fail(c, http.StatusInternalServerError, 50001, "failed to create room")
		return
	}

	common.OK(c, gin.H{
		"id":   room.ID,
		"name": room.Name,
	})
}

func (h *Handler) ListRooms(c *gin.Context) {
	rooms, err := h.ChatSvc.ListRooms(c.Request.Context())
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 50002, "failed to list rooms")
		return
	}
	common.OK(c, gin.H{"rooms": rooms})
}
