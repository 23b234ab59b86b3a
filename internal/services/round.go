package services

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/rufio-world/little-lies-game/internal/apperrors"
	"github.com/rufio-world/little-lies-game/internal/models"
	"github.com/rufio-world/little-lies-game/internal/packs"

	"gorm.io/gorm"
)

// RoundService owns the phase machine. Every transition guard runs inside
// a transaction that re-reads the round's phase, so concurrent attempts
// collapse to exactly one transition: a second caller sees the phase
// already advanced and no-ops.
type RoundService struct {
	db       *gorm.DB
	registry *packs.Registry
	scoring  *ScoringService

	answerPhase time.Duration
	votePhase   time.Duration
}

func NewRoundService(db *gorm.DB, registry *packs.Registry, scoring *ScoringService, answerPhase, votePhase time.Duration) *RoundService {
	return &RoundService{
		db:          db,
		registry:    registry,
		scoring:     scoring,
		answerPhase: answerPhase,
		votePhase:   votePhase,
	}
}

// StartGame fixes the room's question sequence and opens round 1.
func (s *RoundService) StartGame(room *models.Room, byPlayer *models.Player) (*models.Round, error) {
	if !byPlayer.IsHost || room.HostPlayerID != byPlayer.ID {
		return nil, apperrors.ErrNotHost
	}

	var round *models.Round
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var fresh models.Room
		if err := tx.First(&fresh, room.ID).Error; err != nil {
			return apperrors.ErrRoomNotFound
		}
		if fresh.State != models.RoomStateWaiting {
			return apperrors.ErrAlreadyStarted
		}

		pool := s.registry.Questions(fresh.SelectedPacks, fresh.Language)
		if len(pool) < fresh.MaxQuestions {
			return fmt.Errorf("%w: selected packs only have %d questions", apperrors.ErrInvalidInput, len(pool))
		}
		rand.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })

		ids := make(models.StringArray, fresh.MaxQuestions)
		for i := 0; i < fresh.MaxQuestions; i++ {
			ids[i] = pool[i].ID
		}
		fresh.QuestionIDs = ids
		fresh.State = models.RoomStateInProgress
		fresh.CurrentQuestionIndex = 0
		if err := tx.Save(&fresh).Error; err != nil {
			return err
		}

		var err error
		round, err = s.createRound(tx, &fresh, 1)
		if err != nil {
			return err
		}
		*room = fresh
		return nil
	})
	if err != nil {
		return nil, err
	}
	return round, nil
}

// CurrentRound returns the room's latest round, which is the only live one.
func (s *RoundService) CurrentRound(roomID uint) (*models.Round, error) {
	var round models.Round
	err := s.db.Where("room_id = ?", roomID).
		Order("round_number DESC").
		First(&round).Error
	if err != nil {
		return nil, apperrors.ErrRoundNotFound
	}
	return &round, nil
}

func (s *RoundService) GetRound(roundID uint) (*models.Round, error) {
	var round models.Round
	if err := s.db.First(&round, roundID).Error; err != nil {
		return nil, apperrors.ErrRoundNotFound
	}
	return &round, nil
}

// AdvanceIfAllAnswered moves answer-submission to voting once every
// connected player has an answer. Safe to call redundantly.
func (s *RoundService) AdvanceIfAllAnswered(roundID uint) (bool, *models.Round, error) {
	var advanced bool
	var result models.Round
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&result, roundID).Error; err != nil {
			return apperrors.ErrRoundNotFound
		}
		if result.Phase != models.PhaseAnswerSubmission {
			return nil
		}
		complete, err := allSubmitted(tx, result.ID, result.RoomID)
		if err != nil || !complete {
			return err
		}
		advanced, err = s.openVoting(tx, &result)
		return err
	})
	if err != nil {
		return false, nil, err
	}
	return advanced, &result, nil
}

// AdvanceIfAllVoted moves voting to results and applies the round's score
// deltas, exactly once. The scored flag changes in the same transaction as
// the phase, so re-invocation cannot double-count.
func (s *RoundService) AdvanceIfAllVoted(roundID uint) (bool, map[uint]int, *models.Round, error) {
	var deltas map[uint]int
	var result models.Round
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&result, roundID).Error; err != nil {
			return apperrors.ErrRoundNotFound
		}
		if result.Phase != models.PhaseVoting {
			return nil
		}
		complete, err := allVoted(tx, result.ID, result.RoomID)
		if err != nil || !complete {
			return err
		}
		deltas, err = s.scoreAndReveal(tx, &result)
		return err
	})
	if err != nil {
		return false, nil, nil, err
	}
	return deltas != nil, deltas, &result, nil
}

// AdvanceOutcome describes what happened after the results phase.
type AdvanceOutcome struct {
	Advanced  bool
	GameEnded bool
	NextRound *models.Round
	Room      *models.Room
}

// AdvanceIfAllReady starts the next round, or ends the game, once every
// connected player has acknowledged the results.
func (s *RoundService) AdvanceIfAllReady(roundID uint) (*AdvanceOutcome, error) {
	outcome := &AdvanceOutcome{}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var round models.Round
		if err := tx.First(&round, roundID).Error; err != nil {
			return apperrors.ErrRoundNotFound
		}
		if round.Phase != models.PhaseResults {
			return nil
		}
		// A later round already exists: another observer finished first.
		var newer int64
		tx.Model(&models.Round{}).
			Where("room_id = ? AND round_number > ?", round.RoomID, round.RoundNumber).
			Count(&newer)
		if newer > 0 {
			return nil
		}
		complete, err := allReady(tx, round.ID, round.RoomID)
		if err != nil || !complete {
			return err
		}
		return s.finishOrNext(tx, &round, outcome)
	})
	if err != nil {
		return nil, err
	}
	return outcome, nil
}

// ForceAdvance lets the host skip the readiness gate on the results
// screen.
func (s *RoundService) ForceAdvance(room *models.Room, byPlayer *models.Player) (*AdvanceOutcome, error) {
	if !byPlayer.IsHost || room.HostPlayerID != byPlayer.ID {
		return nil, apperrors.ErrNotHost
	}
	outcome := &AdvanceOutcome{}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var round models.Round
		if err := tx.Where("room_id = ?", room.ID).
			Order("round_number DESC").
			First(&round).Error; err != nil {
			return apperrors.ErrRoundNotFound
		}
		if round.Phase != models.PhaseResults {
			return fmt.Errorf("%w: current round is still being played", apperrors.ErrWrongPhase)
		}
		return s.finishOrNext(tx, &round, outcome)
	})
	if err != nil {
		return nil, err
	}
	return outcome, nil
}

// ExpireAnswerPhase handles the answer timer: players who never submitted
// get the placeholder answer so voting options stay well-formed, then the
// round advances.
func (s *RoundService) ExpireAnswerPhase(roundID uint) (bool, *models.Round, error) {
	var advanced bool
	var result models.Round
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&result, roundID).Error; err != nil {
			return apperrors.ErrRoundNotFound
		}
		if result.Phase != models.PhaseAnswerSubmission || time.Now().Before(result.PhaseDeadline) {
			return nil
		}

		claimed, err := s.openVoting(tx, &result)
		if err != nil || !claimed {
			return err
		}

		missing, err := playersWithoutRow(tx, result.RoomID, "answers", result.ID)
		if err != nil {
			return err
		}
		for _, playerID := range missing {
			placeholder := models.Answer{
				RoundID:     result.ID,
				PlayerID:    playerID,
				Text:        PlaceholderAnswer,
				AutoFilled:  true,
				SubmittedAt: time.Now(),
			}
			if err := tx.Create(&placeholder).Error; err != nil {
				return err
			}
		}

		advanced = true
		return nil
	})
	if err != nil {
		return false, nil, err
	}
	return advanced, &result, nil
}

// ExpireVotePhase handles the voting timer: players who never voted are
// assigned a vote for the true answer, then scoring runs.
func (s *RoundService) ExpireVotePhase(roundID uint) (bool, map[uint]int, *models.Round, error) {
	var deltas map[uint]int
	var result models.Round
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&result, roundID).Error; err != nil {
			return apperrors.ErrRoundNotFound
		}
		if result.Phase != models.PhaseVoting || time.Now().Before(result.PhaseDeadline) {
			return nil
		}

		claimed, err := claimTransition(tx, &result, models.PhaseResults, map[string]interface{}{"scored": true})
		if err != nil || !claimed {
			return err
		}
		result.Scored = true

		missing, err := playersWithoutRow(tx, result.RoomID, "votes", result.ID)
		if err != nil {
			return err
		}
		for _, playerID := range missing {
			auto := models.Vote{
				RoundID:    result.ID,
				PlayerID:   playerID,
				ForCorrect: true,
				AutoFilled: true,
				VotedAt:    time.Now(),
			}
			if err := tx.Create(&auto).Error; err != nil {
				return err
			}
		}

		deltas, err = s.applyDeltas(tx, &result)
		return err
	})
	if err != nil {
		return false, nil, nil, err
	}
	return deltas != nil, deltas, &result, nil
}

// DueRounds finds rounds whose phase timer has expired in rooms that are
// still being played.
func (s *RoundService) DueRounds() ([]models.Round, error) {
	var rounds []models.Round
	err := s.db.
		Joins("JOIN rooms ON rooms.id = rounds.room_id").
		Where("rounds.phase IN ? AND rounds.phase_deadline < ? AND rooms.state = ?",
			[]string{models.PhaseAnswerSubmission, models.PhaseVoting},
			time.Now(), models.RoomStateInProgress).
		Find(&rounds).Error
	return rounds, err
}

// claimTransition flips the round's phase with a guarded conditional
// update. Two transactions racing past the same read both hit this
// UPDATE, but its WHERE clause matches the old phase, so only the first
// writer's row count is 1 and only that caller proceeds. The legality of
// the move itself is the phase table's call.
func claimTransition(tx *gorm.DB, round *models.Round, to string, extra map[string]interface{}) (bool, error) {
	if !models.CanTransitionTo(round.Phase, to) {
		return false, nil
	}
	updates := map[string]interface{}{"phase": to}
	for col, val := range extra {
		updates[col] = val
	}
	res := tx.Model(&models.Round{}).
		Where("id = ? AND phase = ?", round.ID, round.Phase).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	round.Phase = to
	return true, nil
}

func (s *RoundService) openVoting(tx *gorm.DB, round *models.Round) (bool, error) {
	deadline := time.Now().Add(s.votePhase)
	claimed, err := claimTransition(tx, round, models.PhaseVoting,
		map[string]interface{}{"phase_deadline": deadline})
	if claimed {
		round.PhaseDeadline = deadline
	}
	return claimed, err
}

// scoreAndReveal flips the round to results and applies score deltas.
// The scored flag changes in the same guarded update as the phase, so a
// losing racer applies nothing.
func (s *RoundService) scoreAndReveal(tx *gorm.DB, round *models.Round) (map[uint]int, error) {
	claimed, err := claimTransition(tx, round, models.PhaseResults,
		map[string]interface{}{"scored": true})
	if err != nil || !claimed {
		return nil, err
	}
	round.Scored = true
	return s.applyDeltas(tx, round)
}

func (s *RoundService) applyDeltas(tx *gorm.DB, round *models.Round) (map[uint]int, error) {
	var answers []models.Answer
	if err := tx.Where("round_id = ?", round.ID).Find(&answers).Error; err != nil {
		return nil, err
	}
	var votes []models.Vote
	if err := tx.Where("round_id = ?", round.ID).Find(&votes).Error; err != nil {
		return nil, err
	}

	deltas := s.scoring.ComputeRoundDeltas(answers, votes)
	for playerID, delta := range deltas {
		if delta == 0 {
			continue
		}
		if err := tx.Model(&models.Player{}).Where("id = ?", playerID).
			Update("score", gorm.Expr("score + ?", delta)).Error; err != nil {
			return nil, err
		}
	}
	return deltas, nil
}

func (s *RoundService) finishOrNext(tx *gorm.DB, round *models.Round, outcome *AdvanceOutcome) error {
	var room models.Room
	if err := tx.First(&room, round.RoomID).Error; err != nil {
		return apperrors.ErrRoomNotFound
	}

	if round.RoundNumber >= room.MaxQuestions {
		res := tx.Model(&models.Room{}).
			Where("id = ? AND state = ?", room.ID, models.RoomStateInProgress).
			Update("state", models.RoomStateEnded)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		room.State = models.RoomStateEnded
		outcome.Advanced = true
		outcome.GameEnded = true
		outcome.Room = &room
		return nil
	}

	// The question cursor is the claim: two observers racing past the
	// readiness check both try to bump it, only one UPDATE matches the
	// old value, and only that caller creates the next round.
	res := tx.Model(&models.Room{}).
		Where("id = ? AND state = ? AND current_question_index = ?",
			room.ID, models.RoomStateInProgress, round.RoundNumber-1).
		Update("current_question_index", round.RoundNumber)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return nil
	}
	room.CurrentQuestionIndex = round.RoundNumber

	next, err := s.createRound(tx, &room, round.RoundNumber+1)
	if err != nil {
		return err
	}
	outcome.Advanced = true
	outcome.NextRound = next
	outcome.Room = &room
	return nil
}

// createRound resolves the round's question from the room's fixed
// sequence. A question that cannot be resolved is a fatal configuration
// error: the room ends instead of silently skipping, which would corrupt
// round numbering.
func (s *RoundService) createRound(tx *gorm.DB, room *models.Room, number int) (*models.Round, error) {
	idx := number - 1
	if idx < 0 || idx >= len(room.QuestionIDs) {
		tx.Model(room).Update("state", models.RoomStateEnded)
		return nil, fmt.Errorf("room %s: question sequence exhausted at round %d", room.Code, number)
	}
	questionID := room.QuestionIDs[idx]
	question, ok := s.registry.Question(questionID)
	if !ok {
		tx.Model(room).Update("state", models.RoomStateEnded)
		return nil, fmt.Errorf("room %s: question %s missing from loaded packs", room.Code, questionID)
	}

	round := models.Round{
		RoomID:        room.ID,
		RoundNumber:   number,
		QuestionID:    question.ID,
		QuestionText:  question.Question,
		CorrectAnswer: question.CorrectAnswer,
		Phase:         models.PhaseAnswerSubmission,
		PhaseDeadline: time.Now().Add(s.answerPhase),
		BallotSeed:    rand.Int63(),
	}
	if err := tx.Create(&round).Error; err != nil {
		return nil, err
	}
	return &round, nil
}

// playersWithoutRow lists connected players of a room lacking a row in the
// given per-round table.
func playersWithoutRow(tx *gorm.DB, roomID uint, table string, roundID uint) ([]uint, error) {
	var ids []uint
	err := tx.Model(&models.Player{}).
		Where("room_id = ? AND connected = ?", roomID, true).
		Where(fmt.Sprintf("id NOT IN (SELECT player_id FROM %s WHERE round_id = ?)", table), roundID).
		Pluck("id", &ids).Error
	return ids, err
}
