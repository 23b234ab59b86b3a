package services

import (
	"fmt"
	"time"

	"github.com/rufio-world/little-lies-game/internal/apperrors"
	"github.com/rufio-world/little-lies-game/internal/models"

	"gorm.io/gorm"
)

type ReadinessService struct {
	db    *gorm.DB
	rooms *RoomService
}

func NewReadinessService(db *gorm.DB, rooms *RoomService) *ReadinessService {
	return &ReadinessService{db: db, rooms: rooms}
}

// MarkReady records that a player wants to continue past the results
// screen. Marking twice is a no-op success; readiness never reverts.
func (s *ReadinessService) MarkReady(roundID, playerID uint) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var round models.Round
		if err := tx.First(&round, roundID).Error; err != nil {
			return apperrors.ErrRoundNotFound
		}
		if round.Phase != models.PhaseResults {
			return fmt.Errorf("%w: results are not shown yet", apperrors.ErrWrongPhase)
		}

		var existing models.Readiness
		if err := tx.Where("round_id = ? AND player_id = ?", roundID, playerID).
			First(&existing).Error; err == nil {
			return nil
		}

		ready := models.Readiness{
			RoundID:       roundID,
			PlayerID:      playerID,
			IsReady:       true,
			MarkedReadyAt: time.Now(),
		}
		return tx.Create(&ready).Error
	})
	if err != nil {
		return err
	}
	s.rooms.TouchLiveness(playerID)
	return nil
}

func (s *ReadinessService) CountReady(roundID uint) int {
	var count int64
	s.db.Model(&models.Readiness{}).
		Where("round_id = ? AND is_ready = ?", roundID, true).
		Count(&count)
	return int(count)
}

func (s *ReadinessService) AllReady(roundID, roomID uint) (bool, error) {
	return allReady(s.db, roundID, roomID)
}
