package services

import (
	"time"

	"github.com/rufio-world/little-lies-game/internal/models"
)

// RoundState is the client-facing shape of a round. The correct answer and
// per-answer attribution are only filled in once the phase is results; the
// model's own json tags keep them hidden elsewhere.
type RoundState struct {
	ID            uint      `json:"id"`
	RoomID        uint      `json:"room_id"`
	RoundNumber   int       `json:"round_number"`
	QuestionText  string    `json:"question_text"`
	Phase         string    `json:"phase"`
	PhaseDeadline time.Time `json:"phase_deadline"`
	AnswerCount   int       `json:"answer_count"`
	VoteCount     int       `json:"vote_count"`
	ReadyCount    int       `json:"ready_count"`

	CorrectAnswer string           `json:"correct_answer,omitempty"`
	Answers       []RevealedAnswer `json:"answers,omitempty"`
	CorrectVotes  []uint           `json:"correct_votes,omitempty"`
}

// RevealedAnswer attributes a decoy to its author and lists who fell for
// it. Only present at results.
type RevealedAnswer struct {
	ID         uint   `json:"id"`
	PlayerID   uint   `json:"player_id"`
	Text       string `json:"text"`
	AutoFilled bool   `json:"auto_filled"`
	VotedBy    []uint `json:"voted_by"`
}

func (s *RoundService) State(round *models.Round) (*RoundState, error) {
	state := &RoundState{
		ID:            round.ID,
		RoomID:        round.RoomID,
		RoundNumber:   round.RoundNumber,
		QuestionText:  round.QuestionText,
		Phase:         round.Phase,
		PhaseDeadline: round.PhaseDeadline,
	}

	var count int64
	if err := s.db.Model(&models.Answer{}).Where("round_id = ?", round.ID).Count(&count).Error; err != nil {
		return nil, err
	}
	state.AnswerCount = int(count)
	if err := s.db.Model(&models.Vote{}).Where("round_id = ?", round.ID).Count(&count).Error; err != nil {
		return nil, err
	}
	state.VoteCount = int(count)
	if err := s.db.Model(&models.Readiness{}).Where("round_id = ? AND is_ready = ?", round.ID, true).Count(&count).Error; err != nil {
		return nil, err
	}
	state.ReadyCount = int(count)

	if round.Phase != models.PhaseResults {
		return state, nil
	}

	state.CorrectAnswer = round.CorrectAnswer

	var answers []models.Answer
	if err := s.db.Where("round_id = ?", round.ID).
		Order("submitted_at ASC").
		Find(&answers).Error; err != nil {
		return nil, err
	}
	var votes []models.Vote
	if err := s.db.Where("round_id = ?", round.ID).Find(&votes).Error; err != nil {
		return nil, err
	}

	votedBy := make(map[uint][]uint, len(answers))
	for _, v := range votes {
		if v.ForCorrect {
			state.CorrectVotes = append(state.CorrectVotes, v.PlayerID)
			continue
		}
		votedBy[v.AnswerID] = append(votedBy[v.AnswerID], v.PlayerID)
	}

	state.Answers = make([]RevealedAnswer, len(answers))
	for i, a := range answers {
		state.Answers[i] = RevealedAnswer{
			ID:         a.ID,
			PlayerID:   a.PlayerID,
			Text:       a.Text,
			AutoFilled: a.AutoFilled,
			VotedBy:    votedBy[a.ID],
		}
	}
	return state, nil
}
