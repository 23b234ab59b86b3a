package handlers

import (
	"net/http"
	"strconv"

	"github.com/rufio-world/little-lies-game/internal/apperrors"
	"github.com/rufio-world/little-lies-game/internal/models"
	"github.com/rufio-world/little-lies-game/internal/services"
	"github.com/rufio-world/little-lies-game/internal/ws"

	"github.com/gin-gonic/gin"
)

type PlayHandler struct {
	roomService      *services.RoomService
	roundService     *services.RoundService
	answerService    *services.AnswerService
	voteService      *services.VoteService
	readinessService *services.ReadinessService
	hub              *ws.Hub
}

func NewPlayHandler(
	roomService *services.RoomService,
	roundService *services.RoundService,
	answerService *services.AnswerService,
	voteService *services.VoteService,
	readinessService *services.ReadinessService,
	hub *ws.Hub,
) *PlayHandler {
	return &PlayHandler{
		roomService:      roomService,
		roundService:     roundService,
		answerService:    answerService,
		voteService:      voteService,
		readinessService: readinessService,
		hub:              hub,
	}
}

type SubmitAnswerRequest struct {
	Token   string `json:"token" binding:"required"`
	RoundID uint   `json:"round_id" binding:"required"`
	Text    string `json:"text" binding:"required"`
}

func (h *PlayHandler) SubmitAnswer(c *gin.Context) {
	var req SubmitAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	player, round, err := h.playerAndRound(req.Token, req.RoundID)
	if err != nil {
		abortWithError(c, err)
		return
	}

	answer, err := h.answerService.Submit(round.ID, player.ID, req.Text)
	if err != nil {
		abortWithError(c, err)
		return
	}

	h.hub.Broadcast(round.RoomID, ws.WSMessage{
		Type: "answer_received",
		Data: gin.H{"round_id": round.ID, "answer_count": h.answerService.CountAnswers(round.ID)},
	})

	if advanced, updated, err := h.roundService.AdvanceIfAllAnswered(round.ID); err == nil && advanced {
		h.broadcastPhase(updated)
	}

	c.JSON(http.StatusOK, answer)
}

type SubmitVoteRequest struct {
	Token      string `json:"token" binding:"required"`
	RoundID    uint   `json:"round_id" binding:"required"`
	AnswerID   uint   `json:"answer_id"`
	ForCorrect bool   `json:"for_correct"`
}

func (h *PlayHandler) SubmitVote(c *gin.Context) {
	var req SubmitVoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	player, round, err := h.playerAndRound(req.Token, req.RoundID)
	if err != nil {
		abortWithError(c, err)
		return
	}

	vote, err := h.voteService.Submit(round.ID, player.ID, services.VoteTarget{
		AnswerID:   req.AnswerID,
		ForCorrect: req.ForCorrect,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}

	h.hub.Broadcast(round.RoomID, ws.WSMessage{
		Type: "vote_received",
		Data: gin.H{"round_id": round.ID, "vote_count": h.voteService.CountVotes(round.ID)},
	})

	if advanced, deltas, updated, err := h.roundService.AdvanceIfAllVoted(round.ID); err == nil && advanced {
		h.broadcastResults(updated, deltas)
	}

	c.JSON(http.StatusOK, vote)
}

type ReadyRequest struct {
	Token   string `json:"token" binding:"required"`
	RoundID uint   `json:"round_id" binding:"required"`
}

func (h *PlayHandler) MarkReady(c *gin.Context) {
	var req ReadyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	player, round, err := h.playerAndRound(req.Token, req.RoundID)
	if err != nil {
		abortWithError(c, err)
		return
	}

	if err := h.readinessService.MarkReady(round.ID, player.ID); err != nil {
		abortWithError(c, err)
		return
	}

	h.hub.Broadcast(round.RoomID, ws.WSMessage{
		Type: "player_ready",
		Data: gin.H{"round_id": round.ID, "player_id": player.ID},
	})

	if outcome, err := h.roundService.AdvanceIfAllReady(round.ID); err == nil && outcome.Advanced {
		h.broadcastOutcome(round.RoomID, outcome)
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "ready"})
}

type LeaveRequest struct {
	Token string `json:"token" binding:"required"`
}

func (h *PlayHandler) Leave(c *gin.Context) {
	var req LeaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	player, err := h.roomService.PlayerByToken(req.Token)
	if err != nil {
		abortWithError(c, err)
		return
	}

	result, err := h.roomService.Leave(player)
	if err != nil {
		abortWithError(c, err)
		return
	}

	h.hub.Broadcast(player.RoomID, ws.WSMessage{
		Type: "player_left",
		Data: gin.H{"player_id": player.ID},
	})
	if result.NewHost != nil {
		h.hub.Broadcast(player.RoomID, ws.WSMessage{Type: "host_changed", Data: result.NewHost})
	}
	if result.RoomEnds {
		h.hub.Broadcast(player.RoomID, ws.WSMessage{Type: "game_ended", Data: nil})
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "left the game"})
}

// GetBallot returns the voter's shuffled option list: every decoy except
// their own, plus the true answer mixed in.
func (h *PlayHandler) GetBallot(c *gin.Context) {
	roundID, err := strconv.ParseUint(c.Query("round_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid round_id"})
		return
	}

	player, round, err := h.playerAndRound(c.Query("token"), uint(roundID))
	if err != nil {
		abortWithError(c, err)
		return
	}

	options, err := h.voteService.Ballot(round.ID, player.ID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, options)
}

// playerAndRound resolves both parties and checks the round actually
// belongs to the player's room.
func (h *PlayHandler) playerAndRound(token string, roundID uint) (*models.Player, *models.Round, error) {
	player, err := h.roomService.PlayerByToken(token)
	if err != nil {
		return nil, nil, err
	}
	round, err := h.roundService.GetRound(roundID)
	if err != nil {
		return nil, nil, err
	}
	if round.RoomID != player.RoomID {
		return nil, nil, apperrors.ErrRoundNotFound
	}
	return player, round, nil
}

func (h *PlayHandler) broadcastPhase(round *models.Round) {
	state, err := h.roundService.State(round)
	if err != nil {
		return
	}
	h.hub.Broadcast(round.RoomID, ws.WSMessage{Type: "phase_changed", Data: state})
}

func (h *PlayHandler) broadcastResults(round *models.Round, deltas map[uint]int) {
	state, err := h.roundService.State(round)
	if err != nil {
		return
	}
	h.hub.Broadcast(round.RoomID, ws.WSMessage{
		Type: "results",
		Data: gin.H{"round": state, "deltas": deltas},
	})
}

func (h *PlayHandler) broadcastOutcome(roomID uint, outcome *services.AdvanceOutcome) {
	if outcome.GameEnded {
		entries, _ := h.roomService.Leaderboard(roomID)
		h.hub.Broadcast(roomID, ws.WSMessage{Type: "game_ended", Data: entries})
		return
	}
	if outcome.NextRound != nil {
		state, err := h.roundService.State(outcome.NextRound)
		if err != nil {
			return
		}
		h.hub.Broadcast(roomID, ws.WSMessage{Type: "round_started", Data: state})
	}
}
