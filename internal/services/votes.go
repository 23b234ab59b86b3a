package services

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/rufio-world/little-lies-game/internal/apperrors"
	"github.com/rufio-world/little-lies-game/internal/models"

	"gorm.io/gorm"
)

type VoteService struct {
	db    *gorm.DB
	rooms *RoomService
}

func NewVoteService(db *gorm.DB, rooms *RoomService) *VoteService {
	return &VoteService{db: db, rooms: rooms}
}

// VoteTarget is either a decoy answer id or the true answer, never both.
type VoteTarget struct {
	AnswerID   uint
	ForCorrect bool
}

func (s *VoteService) Submit(roundID, playerID uint, target VoteTarget) (*models.Vote, error) {
	if target.ForCorrect == (target.AnswerID != 0) {
		return nil, fmt.Errorf("%w: vote must name either an answer or the correct option", apperrors.ErrInvalidInput)
	}

	var vote models.Vote
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var round models.Round
		if err := tx.First(&round, roundID).Error; err != nil {
			return apperrors.ErrRoundNotFound
		}
		if round.Phase != models.PhaseVoting {
			return fmt.Errorf("%w: voting is closed", apperrors.ErrWrongPhase)
		}

		var count int64
		if err := tx.Model(&models.Vote{}).
			Where("round_id = ? AND player_id = ?", roundID, playerID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return apperrors.ErrAlreadyVoted
		}

		if !target.ForCorrect {
			var answer models.Answer
			if err := tx.Where("id = ? AND round_id = ?", target.AnswerID, roundID).
				First(&answer).Error; err != nil {
				return fmt.Errorf("%w: no such answer in this round", apperrors.ErrInvalidInput)
			}
			if answer.PlayerID == playerID {
				return apperrors.ErrSelfVote
			}
		}

		vote = models.Vote{
			RoundID:    roundID,
			PlayerID:   playerID,
			AnswerID:   target.AnswerID,
			ForCorrect: target.ForCorrect,
			VotedAt:    time.Now(),
		}
		return tx.Create(&vote).Error
	})
	if err != nil {
		return nil, err
	}

	s.rooms.TouchLiveness(playerID)
	return &vote, nil
}

func (s *VoteService) ListVotes(roundID uint) ([]models.Vote, error) {
	var votes []models.Vote
	if err := s.db.Where("round_id = ?", roundID).
		Order("voted_at ASC").
		Find(&votes).Error; err != nil {
		return nil, err
	}
	return votes, nil
}

func (s *VoteService) CountVotes(roundID uint) int {
	var count int64
	s.db.Model(&models.Vote{}).Where("round_id = ?", roundID).Count(&count)
	return int(count)
}

// AllVoted mirrors AllSubmitted: authoritative count at decision time.
func (s *VoteService) AllVoted(roundID, roomID uint) (bool, error) {
	return allVoted(s.db, roundID, roomID)
}

// BallotOption is one selectable voting option. AnswerID 0 marks the true
// answer; the flag is never serialized before results.
type BallotOption struct {
	AnswerID uint   `json:"answer_id"`
	Text     string `json:"text"`
}

// BuildBallot lists every answer except the viewer's own plus the true
// answer, shuffled with the round's stored seed so the order is stable for
// the whole round and identical across renders.
func BuildBallot(round *models.Round, answers []models.Answer, viewerID uint) []BallotOption {
	options := make([]BallotOption, 0, len(answers)+1)
	for _, a := range answers {
		options = append(options, BallotOption{AnswerID: a.ID, Text: a.Text})
	}
	options = append(options, BallotOption{AnswerID: 0, Text: round.CorrectAnswer})

	rng := rand.New(rand.NewSource(round.BallotSeed))
	rng.Shuffle(len(options), func(i, j int) {
		options[i], options[j] = options[j], options[i]
	})

	if viewerID == 0 {
		return options
	}
	own := make(map[uint]bool, 1)
	for _, a := range answers {
		if a.PlayerID == viewerID {
			own[a.ID] = true
		}
	}
	filtered := options[:0]
	for _, o := range options {
		if o.AnswerID != 0 && own[o.AnswerID] {
			continue
		}
		filtered = append(filtered, o)
	}
	return filtered
}

// Ballot loads the round's answers and builds the viewer's option list.
func (s *VoteService) Ballot(roundID, viewerID uint) ([]BallotOption, error) {
	var round models.Round
	if err := s.db.First(&round, roundID).Error; err != nil {
		return nil, apperrors.ErrRoundNotFound
	}
	if round.Phase == models.PhaseAnswerSubmission {
		return nil, fmt.Errorf("%w: ballot is not available yet", apperrors.ErrWrongPhase)
	}
	var answers []models.Answer
	if err := s.db.Where("round_id = ?", roundID).
		Order("submitted_at ASC").
		Find(&answers).Error; err != nil {
		return nil, err
	}
	return BuildBallot(&round, answers, viewerID), nil
}
