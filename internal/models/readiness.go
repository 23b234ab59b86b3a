package models

import "time"

type Readiness struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	RoundID       uint      `gorm:"not null;uniqueIndex:idx_ready_unique" json:"round_id"`
	PlayerID      uint      `gorm:"not null;uniqueIndex:idx_ready_unique" json:"player_id"`
	IsReady       bool      `gorm:"not null;default:true" json:"is_ready"`
	MarkedReadyAt time.Time `json:"marked_ready_at"`
}
