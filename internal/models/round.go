package models

import "time"

type Round struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	RoomID        uint      `gorm:"not null;uniqueIndex:idx_round_unique" json:"room_id"`
	RoundNumber   int       `gorm:"not null;uniqueIndex:idx_round_unique" json:"round_number"`
	QuestionID    string    `gorm:"size:100;not null" json:"question_id"`
	QuestionText  string    `gorm:"type:text;not null" json:"question_text"`
	CorrectAnswer string    `gorm:"size:500;not null" json:"-"`
	Phase         string    `gorm:"size:20;not null;default:'answer-submission'" json:"phase"`
	PhaseDeadline time.Time `json:"phase_deadline"`
	BallotSeed    int64     `gorm:"not null;default:0" json:"-"`
	Scored        bool      `gorm:"not null;default:false" json:"-"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

const (
	PhaseAnswerSubmission = "answer-submission"
	PhaseVoting           = "voting"
	PhaseResults          = "results"
)

// CanTransitionTo reports whether a phase change is legal. Phases only
// move forward; a new round restarts the cycle.
func CanTransitionTo(from, to string) bool {
	switch from {
	case PhaseAnswerSubmission:
		return to == PhaseVoting
	case PhaseVoting:
		return to == PhaseResults
	default:
		return false
	}
}
