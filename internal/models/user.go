package models

import "time"

// User is an optional account. Guests play without one; an account keeps
// purchased question packs across games.
type User struct {
	ID            uint        `gorm:"primaryKey" json:"id"`
	Username      string      `gorm:"size:100;uniqueIndex;not null" json:"username"`
	PasswordHash  string      `gorm:"size:255;not null" json:"-"`
	UnlockedPacks StringArray `gorm:"type:jsonb" json:"unlocked_packs"`
	CreatedAt     time.Time   `json:"created_at"`
}
