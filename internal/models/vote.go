package models

import "time"

type Vote struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	RoundID    uint      `gorm:"not null;uniqueIndex:idx_vote_unique" json:"round_id"`
	PlayerID   uint      `gorm:"not null;uniqueIndex:idx_vote_unique" json:"player_id"`
	AnswerID   uint      `gorm:"not null;default:0" json:"answer_id"`
	ForCorrect bool      `gorm:"not null;default:false" json:"for_correct"`
	AutoFilled bool      `gorm:"not null;default:false" json:"auto_filled"`
	VotedAt    time.Time `json:"voted_at"`
}
