package services

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rufio-world/little-lies-game/internal/apperrors"
	"github.com/rufio-world/little-lies-game/internal/models"

	"gorm.io/gorm"
)

const (
	answerMinLength = 2
	answerMaxLength = 200

	// Recorded for players who let the answer timer run out.
	PlaceholderAnswer = "No answer provided"
)

type AnswerService struct {
	db    *gorm.DB
	rooms *RoomService
}

func NewAnswerService(db *gorm.DB, rooms *RoomService) *AnswerService {
	return &AnswerService{db: db, rooms: rooms}
}

// ValidateAnswerText trims the submission and enforces the length window.
func ValidateAnswerText(text string) (string, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", fmt.Errorf("%w: answer is empty", apperrors.ErrInvalidInput)
	}
	if n := utf8.RuneCountInString(trimmed); n < answerMinLength || n > answerMaxLength {
		return "", fmt.Errorf("%w: answer must be %d-%d characters", apperrors.ErrInvalidInput, answerMinLength, answerMaxLength)
	}
	// Reserved for timed-out players; a real submission colliding with it
	// would duplicate the auto-filled ballot entries.
	if strings.EqualFold(trimmed, PlaceholderAnswer) {
		return "", fmt.Errorf("%w: that answer text is reserved", apperrors.ErrInvalidInput)
	}
	return trimmed, nil
}

// IsDuplicateAnswer reports a case-insensitive collision with the round's
// correct answer or any decoy already submitted.
func IsDuplicateAnswer(text, correctAnswer string, existing []models.Answer) bool {
	if strings.EqualFold(text, strings.TrimSpace(correctAnswer)) {
		return true
	}
	for _, a := range existing {
		if strings.EqualFold(text, a.Text) {
			return true
		}
	}
	return false
}

func (s *AnswerService) Submit(roundID, playerID uint, text string) (*models.Answer, error) {
	trimmed, err := ValidateAnswerText(text)
	if err != nil {
		return nil, err
	}

	var answer models.Answer
	err = s.db.Transaction(func(tx *gorm.DB) error {
		var round models.Round
		if err := tx.First(&round, roundID).Error; err != nil {
			return apperrors.ErrRoundNotFound
		}
		if round.Phase != models.PhaseAnswerSubmission {
			return fmt.Errorf("%w: answers are closed", apperrors.ErrWrongPhase)
		}

		var count int64
		if err := tx.Model(&models.Answer{}).
			Where("round_id = ? AND player_id = ?", roundID, playerID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return apperrors.ErrAlreadySubmitted
		}

		var existing []models.Answer
		if err := tx.Where("round_id = ?", roundID).Find(&existing).Error; err != nil {
			return err
		}
		if IsDuplicateAnswer(trimmed, round.CorrectAnswer, existing) {
			return apperrors.ErrDuplicateAnswer
		}

		answer = models.Answer{
			RoundID:     roundID,
			PlayerID:    playerID,
			Text:        trimmed,
			SubmittedAt: time.Now(),
		}
		return tx.Create(&answer).Error
	})
	if err != nil {
		return nil, err
	}

	s.rooms.TouchLiveness(playerID)
	return &answer, nil
}

func (s *AnswerService) ListAnswers(roundID uint) ([]models.Answer, error) {
	var answers []models.Answer
	if err := s.db.Where("round_id = ?", roundID).
		Order("submitted_at ASC").
		Find(&answers).Error; err != nil {
		return nil, err
	}
	return answers, nil
}

func (s *AnswerService) CountAnswers(roundID uint) int {
	var count int64
	s.db.Model(&models.Answer{}).Where("round_id = ?", roundID).Count(&count)
	return int(count)
}

// AllSubmitted re-queries the store at decision time: true iff every
// currently-connected player in the room has an answer for the round.
func (s *AnswerService) AllSubmitted(roundID, roomID uint) (bool, error) {
	return allSubmitted(s.db, roundID, roomID)
}

func allSubmitted(db *gorm.DB, roundID, roomID uint) (bool, error) {
	players, submitted, err := countConnectedAndDone(db, roomID, "answers", roundID)
	if err != nil {
		return false, err
	}
	return players > 0 && submitted >= players, nil
}

func allVoted(db *gorm.DB, roundID, roomID uint) (bool, error) {
	players, voted, err := countConnectedAndDone(db, roomID, "votes", roundID)
	if err != nil {
		return false, err
	}
	return players > 0 && voted >= players, nil
}

func allReady(db *gorm.DB, roundID, roomID uint) (bool, error) {
	players, ready, err := countConnectedAndDone(db, roomID, "readinesses", roundID)
	if err != nil {
		return false, err
	}
	return players > 0 && ready >= players, nil
}

// countConnectedAndDone counts the currently-connected players of a room
// and how many of them have a row in the given per-round table. The
// denominator is evaluated live, so players who disconnect mid-phase stop
// holding the round back.
func countConnectedAndDone(db *gorm.DB, roomID uint, table string, roundID uint) (int64, int64, error) {
	var players int64
	if err := db.Model(&models.Player{}).
		Where("room_id = ? AND connected = ?", roomID, true).
		Count(&players).Error; err != nil {
		return 0, 0, err
	}

	var done int64
	if err := db.Table(table).
		Joins(fmt.Sprintf("JOIN players ON players.id = %s.player_id", table)).
		Where(fmt.Sprintf("%s.round_id = ? AND players.room_id = ? AND players.connected = ?", table), roundID, roomID, true).
		Count(&done).Error; err != nil {
		return 0, 0, err
	}
	return players, done, nil
}
