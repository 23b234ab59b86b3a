package services

import (
	"log"
	"time"

	"github.com/rufio-world/little-lies-game/internal/models"
	"github.com/rufio-world/little-lies-game/internal/ws"

	"gorm.io/gorm"
)

// Sweeper is the background liveness and timer loop. It disconnects silent
// players, transfers the host flag when the host goes quiet, ends rooms
// with nobody left, and drives phase transitions whose wall-clock budget
// has expired. Transitions stay idempotent, so the sweep firing alongside
// a player-triggered advance is harmless.
type Sweeper struct {
	db     *gorm.DB
	rooms  *RoomService
	rounds *RoundService
	hub    *ws.Hub

	interval time.Duration
	window   time.Duration
	stopCh   chan struct{}
}

func NewSweeper(db *gorm.DB, rooms *RoomService, rounds *RoundService, hub *ws.Hub, interval, window time.Duration) *Sweeper {
	return &Sweeper{
		db:       db,
		rooms:    rooms,
		rounds:   rounds,
		hub:      hub,
		interval: interval,
		window:   window,
		stopCh:   make(chan struct{}),
	}
}

func (s *Sweeper) Start() {
	go s.loop()
	log.Printf("sweeper started (interval %s, inactivity window %s)", s.interval, s.window)
}

func (s *Sweeper) Stop() {
	close(s.stopCh)
}

func (s *Sweeper) loop() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.stopCh:
			return
		}
	}
}

func (s *Sweeper) sweep() {
	s.disconnectStale()
	s.endEmptyRooms()
	s.expireDueRounds()
	s.settleStalledRounds()
}

// disconnectStale flips the connected flag for players silent longer than
// the inactivity window.
func (s *Sweeper) disconnectStale() {
	cutoff := time.Now().Add(-s.window)

	var stale []models.Player
	s.db.Joins("JOIN rooms ON rooms.id = players.room_id").
		Where("players.connected = ? AND players.last_seen_at < ? AND rooms.state != ?",
			true, cutoff, models.RoomStateEnded).
		Find(&stale)

	for _, p := range stale {
		err := s.db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Model(&models.Player{}).Where("id = ?", p.ID).
				Update("connected", false).Error; err != nil {
				return err
			}
			var room models.Room
			if err := tx.First(&room, p.RoomID).Error; err != nil {
				return err
			}
			if room.HostPlayerID == p.ID {
				return s.rooms.transferHost(tx, &room, p.ID)
			}
			return nil
		})
		if err != nil {
			log.Printf("sweeper: disconnect player %d: %v", p.ID, err)
			continue
		}
		s.hub.Broadcast(p.RoomID, ws.WSMessage{
			Type: "player_disconnected",
			Data: map[string]interface{}{"player_id": p.ID},
		})
	}
}

// endEmptyRooms resolves rooms with zero connected players to ended rather
// than letting them wait forever.
func (s *Sweeper) endEmptyRooms() {
	var rooms []models.Room
	s.db.Where("state != ?", models.RoomStateEnded).
		Where("NOT EXISTS (SELECT 1 FROM players WHERE players.room_id = rooms.id AND players.connected = ?)", true).
		Find(&rooms)

	for _, room := range rooms {
		if err := s.db.Model(&room).Update("state", models.RoomStateEnded).Error; err != nil {
			log.Printf("sweeper: end room %d: %v", room.ID, err)
			continue
		}
		log.Printf("sweeper: room %s ended, no connected players", room.Code)
		s.hub.Broadcast(room.ID, ws.WSMessage{Type: "game_ended", Data: nil})
	}
}

func (s *Sweeper) expireDueRounds() {
	due, err := s.rounds.DueRounds()
	if err != nil {
		log.Printf("sweeper: due rounds: %v", err)
		return
	}
	for _, round := range due {
		switch round.Phase {
		case models.PhaseAnswerSubmission:
			advanced, updated, err := s.rounds.ExpireAnswerPhase(round.ID)
			if err != nil {
				log.Printf("sweeper: expire answers round %d: %v", round.ID, err)
				continue
			}
			if advanced {
				s.broadcastPhase(updated)
			}
		case models.PhaseVoting:
			advanced, deltas, updated, err := s.rounds.ExpireVotePhase(round.ID)
			if err != nil {
				log.Printf("sweeper: expire votes round %d: %v", round.ID, err)
				continue
			}
			if advanced {
				s.broadcastResults(updated, deltas)
			}
		}
	}
}

// settleStalledRounds re-checks completion for live rounds. Disconnections
// shrink the denominator, which can satisfy a predicate without any new
// submission arriving.
func (s *Sweeper) settleStalledRounds() {
	var rooms []models.Room
	s.db.Where("state = ?", models.RoomStateInProgress).Find(&rooms)

	for _, room := range rooms {
		round, err := s.rounds.CurrentRound(room.ID)
		if err != nil {
			continue
		}
		switch round.Phase {
		case models.PhaseAnswerSubmission:
			if advanced, updated, err := s.rounds.AdvanceIfAllAnswered(round.ID); err == nil && advanced {
				s.broadcastPhase(updated)
			}
		case models.PhaseVoting:
			if advanced, deltas, updated, err := s.rounds.AdvanceIfAllVoted(round.ID); err == nil && advanced {
				s.broadcastResults(updated, deltas)
			}
		case models.PhaseResults:
			if outcome, err := s.rounds.AdvanceIfAllReady(round.ID); err == nil && outcome.Advanced {
				s.broadcastOutcome(room.ID, outcome)
			}
		}
	}
}

func (s *Sweeper) broadcastPhase(round *models.Round) {
	state, err := s.rounds.State(round)
	if err != nil {
		return
	}
	s.hub.Broadcast(round.RoomID, ws.WSMessage{Type: "phase_changed", Data: state})
}

func (s *Sweeper) broadcastResults(round *models.Round, deltas map[uint]int) {
	state, err := s.rounds.State(round)
	if err != nil {
		return
	}
	s.hub.Broadcast(round.RoomID, ws.WSMessage{
		Type: "results",
		Data: map[string]interface{}{"round": state, "deltas": deltas},
	})
}

func (s *Sweeper) broadcastOutcome(roomID uint, outcome *AdvanceOutcome) {
	if outcome.GameEnded {
		entries, _ := s.rooms.Leaderboard(roomID)
		s.hub.Broadcast(roomID, ws.WSMessage{Type: "game_ended", Data: entries})
		return
	}
	if outcome.NextRound != nil {
		state, err := s.rounds.State(outcome.NextRound)
		if err != nil {
			return
		}
		s.hub.Broadcast(roomID, ws.WSMessage{Type: "round_started", Data: state})
	}
}
