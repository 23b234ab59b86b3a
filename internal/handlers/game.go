package handlers

import (
	"fmt"
	"log"
	"net/http"

	"github.com/rufio-world/little-lies-game/internal/apperrors"
	"github.com/rufio-world/little-lies-game/internal/models"
	"github.com/rufio-world/little-lies-game/internal/services"
	"github.com/rufio-world/little-lies-game/internal/ws"

	"github.com/gin-gonic/gin"
	qrcode "github.com/skip2/go-qrcode"
)

type GameHandler struct {
	roomService  *services.RoomService
	roundService *services.RoundService
	authService  *services.AuthService
	hub          *ws.Hub
	publicURL    string
}

func NewGameHandler(roomService *services.RoomService, roundService *services.RoundService, authService *services.AuthService, hub *ws.Hub, publicURL string) *GameHandler {
	return &GameHandler{
		roomService:  roomService,
		roundService: roundService,
		authService:  authService,
		hub:          hub,
		publicURL:    publicURL,
	}
}

type PlayerRequest struct {
	Name    string `json:"name" binding:"required,min=1,max=100"`
	Avatar  string `json:"avatar" binding:"max=100"`
	IsGuest bool   `json:"is_guest"`
}

type CreateGameRequest struct {
	Name          string        `json:"name" binding:"required,min=1,max=100"`
	SelectedPacks []string      `json:"selected_packs" binding:"required,min=1"`
	Language      string        `json:"language" binding:"required,oneof=en es"`
	MaxQuestions  int           `json:"max_questions" binding:"required,min=1,max=20"`
	Player        PlayerRequest `json:"player" binding:"required"`
}

type JoinGameRequest struct {
	Code   string        `json:"code" binding:"required,len=5"`
	Player PlayerRequest `json:"player" binding:"required"`
}

func (h *GameHandler) CreateGame(c *gin.Context) {
	var req CreateGameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	var unlocked []string
	if userID := c.GetUint("user_id"); userID != 0 {
		if user, err := h.authService.GetUser(userID); err == nil {
			unlocked = user.UnlockedPacks
		}
	}

	room, host, err := h.roomService.CreateRoom(services.CreateRoomParams{
		Name:          req.Name,
		SelectedPacks: req.SelectedPacks,
		Language:      req.Language,
		MaxQuestions:  req.MaxQuestions,
		HostName:      req.Player.Name,
		HostAvatar:    req.Player.Avatar,
		HostIsGuest:   req.Player.IsGuest,
		UnlockedPacks: unlocked,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"room":   room,
		"player": host,
		"token":  host.Token,
	})
}

func (h *GameHandler) JoinGame(c *gin.Context) {
	var req JoinGameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	room, player, err := h.roomService.Join(req.Code, req.Player.Name, req.Player.Avatar, req.Player.IsGuest)
	if err != nil {
		abortWithError(c, err)
		return
	}

	h.hub.Broadcast(room.ID, ws.WSMessage{Type: "player_joined", Data: player})

	c.JSON(http.StatusOK, gin.H{
		"room":   room,
		"player": player,
		"token":  player.Token,
	})
}

func (h *GameHandler) GetState(c *gin.Context) {
	room, err := h.roomService.FindRoomByCode(c.Param("code"))
	if err != nil {
		abortWithError(c, err)
		return
	}

	players, _ := h.roomService.ListPlayers(room.ID)

	var roundState *services.RoundState
	if room.State != models.RoomStateWaiting {
		if round, err := h.roundService.CurrentRound(room.ID); err == nil {
			roundState, _ = h.roundService.State(round)
		}
	}

	resp := gin.H{
		"room":          room,
		"players":       players,
		"current_round": roundState,
	}

	if token := c.Query("token"); token != "" {
		if me, err := h.roomService.PlayerByToken(token); err == nil && me.RoomID == room.ID {
			h.roomService.TouchLiveness(me.ID)
			resp["me"] = me
		}
	}

	c.JSON(http.StatusOK, resp)
}

func (h *GameHandler) StartGame(c *gin.Context) {
	room, player, err := h.hostForRequest(c)
	if err != nil {
		abortWithError(c, err)
		return
	}

	round, err := h.roundService.StartGame(room, player)
	if err != nil {
		abortWithError(c, err)
		return
	}

	state, _ := h.roundService.State(round)
	h.hub.Broadcast(room.ID, ws.WSMessage{Type: "game_started", Data: state})

	c.JSON(http.StatusOK, state)
}

// Advance lets the host skip the readiness gate after results are shown.
func (h *GameHandler) Advance(c *gin.Context) {
	room, player, err := h.hostForRequest(c)
	if err != nil {
		abortWithError(c, err)
		return
	}

	outcome, err := h.roundService.ForceAdvance(room, player)
	if err != nil {
		abortWithError(c, err)
		return
	}

	h.broadcastOutcome(room.ID, outcome)

	if outcome.GameEnded {
		c.JSON(http.StatusOK, MessageResponse{Message: "game ended"})
		return
	}
	if !outcome.Advanced {
		c.JSON(http.StatusOK, MessageResponse{Message: "already advanced"})
		return
	}
	state, _ := h.roundService.State(outcome.NextRound)
	c.JSON(http.StatusOK, state)
}

type KickRequest struct {
	Token    string `json:"token" binding:"required"`
	PlayerID uint   `json:"player_id" binding:"required"`
}

func (h *GameHandler) KickPlayer(c *gin.Context) {
	var req KickRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	room, err := h.roomService.GetRoomByCode(c.Param("code"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	player, err := h.roomService.PlayerByToken(req.Token)
	if err != nil || player.RoomID != room.ID {
		abortWithError(c, apperrors.ErrPlayerNotFound)
		return
	}

	kicked, err := h.roomService.Kick(room, player, req.PlayerID)
	if err != nil {
		abortWithError(c, err)
		return
	}

	h.hub.Broadcast(room.ID, ws.WSMessage{Type: "player_kicked", Data: kicked})
	c.JSON(http.StatusOK, MessageResponse{Message: "player kicked"})
}

type CloseRequest struct {
	Token string `json:"token" binding:"required"`
}

func (h *GameHandler) CloseGame(c *gin.Context) {
	var req CloseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	room, err := h.roomService.GetRoomByCode(c.Param("code"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	player, err := h.roomService.PlayerByToken(req.Token)
	if err != nil || player.RoomID != room.ID {
		abortWithError(c, apperrors.ErrPlayerNotFound)
		return
	}

	if err := h.roomService.CloseRoom(room, player); err != nil {
		abortWithError(c, err)
		return
	}

	h.hub.Broadcast(room.ID, ws.WSMessage{Type: "room_closed", Data: nil})
	c.JSON(http.StatusOK, MessageResponse{Message: "room closed"})
}

func (h *GameHandler) GetLeaderboard(c *gin.Context) {
	room, err := h.roomService.FindRoomByCode(c.Param("code"))
	if err != nil {
		abortWithError(c, err)
		return
	}

	entries, err := h.roomService.Leaderboard(room.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, entries)
}

// JoinQR renders the join link as a QR code for sharing on a shared
// screen.
func (h *GameHandler) JoinQR(c *gin.Context) {
	room, err := h.roomService.GetRoomByCode(c.Param("code"))
	if err != nil {
		abortWithError(c, err)
		return
	}

	joinURL := fmt.Sprintf("%s/join/%s", h.publicURL, room.Code)
	png, err := qrcode.Encode(joinURL, qrcode.Medium, 256)
	if err != nil {
		log.Printf("qr encode error: %v", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to render QR code"})
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

// hostForRequest resolves the room from the path and the acting player
// from the token in the body.
func (h *GameHandler) hostForRequest(c *gin.Context) (*models.Room, *models.Player, error) {
	var req struct {
		Token string `json:"token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		return nil, nil, fmt.Errorf("%w: token required", apperrors.ErrInvalidInput)
	}

	room, err := h.roomService.GetRoomByCode(c.Param("code"))
	if err != nil {
		return nil, nil, err
	}
	player, err := h.roomService.PlayerByToken(req.Token)
	if err != nil || player.RoomID != room.ID {
		return nil, nil, apperrors.ErrPlayerNotFound
	}
	return room, player, nil
}

func (h *GameHandler) broadcastOutcome(roomID uint, outcome *services.AdvanceOutcome) {
	if outcome.GameEnded {
		entries, _ := h.roomService.Leaderboard(roomID)
		h.hub.Broadcast(roomID, ws.WSMessage{Type: "game_ended", Data: entries})
		return
	}
	if outcome.NextRound != nil {
		state, _ := h.roundService.State(outcome.NextRound)
		h.hub.Broadcast(roomID, ws.WSMessage{Type: "round_started", Data: state})
	}
}
