package handlers

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/zngsm/chatting/internal/chat"
	"github.com/zngsm/chatting/internal/common"
	"github.com/zngsm/chatting/internal/config"
	"github.com/zngsm/chatting/internal/ws"
)

type Handler struct {
	DB          *gorm.DB
	Cfg         config.Config
	ChatSvc     *chat.Service
	Registry    *ws.Registry
	Broadcaster ws.Broadcaster
}

func NewHandler(db *gorm.DB, cfg config.Config, reg *ws.Registry, b ws.Broadcaster) *Handler {
	repo := chat.NewRepo(db)
	return &Handler{
		DB:          db,
		Cfg:         cfg,
		ChatSvc:     chat.NewService(repo),
		Registry:    reg,
		Broadcaster: b,
	}
}

func (h *Handler) Ping(c *gin.Context) {
	common.OK(c, gin.H{"pong": true})
}
