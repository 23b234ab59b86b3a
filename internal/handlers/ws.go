package handlers

import (
	"log"
	"net/http"

	"github.com/rufio-world/little-lies-game/internal/services"
	"github.com/rufio-world/little-lies-game/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

type WSHandler struct {
	roomService *services.RoomService
	hub         *ws.Hub
}

func NewWSHandler(roomService *services.RoomService, hub *ws.Hub) *WSHandler {
	return &WSHandler{roomService: roomService, hub: hub}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func (h *WSHandler) HandleRoomWebSocket(c *gin.Context) {
	room, err := h.roomService.GetRoomByCode(c.Param("code"))
	if err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "room not found"})
		return
	}

	var playerID uint
	if token := c.Query("token"); token != "" {
		if player, err := h.roomService.PlayerByToken(token); err == nil && player.RoomID == room.ID {
			playerID = player.ID
			h.roomService.TouchLiveness(playerID)
		}
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}

	h.hub.AddConnection(room.ID, conn)
	defer h.hub.RemoveConnection(room.ID, conn)

	// Inbound frames are ignored but count as liveness pings.
	for {
		_, _, err := conn.ReadMessage()
		if err != nil {
			break
		}
		if playerID != 0 {
			h.roomService.TouchLiveness(playerID)
		}
	}
}
