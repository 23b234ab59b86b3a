package models

import "time"

type Answer struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	RoundID     uint      `gorm:"not null;uniqueIndex:idx_answer_unique;index:idx_answer_order" json:"round_id"`
	PlayerID    uint      `gorm:"not null;uniqueIndex:idx_answer_unique" json:"player_id"`
	Text        string    `gorm:"size:200;not null" json:"text"`
	AutoFilled  bool      `gorm:"not null;default:false" json:"auto_filled"`
	SubmittedAt time.Time `gorm:"index:idx_answer_order" json:"submitted_at"`
}
