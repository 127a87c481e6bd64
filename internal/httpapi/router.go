package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/zngsm/chatting/internal/common"
	"github.com/zngsm/chatting/internal/config"
	"github.com/zngsm/chatting/internal/httpapi/handlers"
	"github.com/zngsm/chatting/internal/httpapi/middleware"
	"github.com/zngsm/chatting/internal/ws"
)

func NewRouter(db *gorm.DB, cfg config.Config, reg *ws.Registry, b ws.Broadcaster) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Logger())
	r.Use(middleware.Recovery())

	r.NoRoute(func(c *gin.Context) {
		common.Fail(c, http.StatusNotFound, 40400, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		common.Fail(c, http.StatusMethodNotAllowed, 40500, "method not allowed")
	})

	r.Use(middleware.RequestID())

	h := handlers.NewHandler(db, cfg, reg, b)

	r.GET("/ping", h.Ping)

	// identity collaborator
	r.POST("/users", h.CreateUser)
	r.GET("/users/:id", h.GetUserByID)
	r.POST("/login", h.Login)

	// room collaborator
	r.POST("/chat", h.CreateRoom)
	r.GET("/chat", h.ListRooms)

	// realtime endpoints
	r.GET("/room", h.LobbyWS)
	r.GET("/room/:room_id/chat", h.RoomWS)

	return r
}
