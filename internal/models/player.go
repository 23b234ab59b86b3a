package models

import "time"

type Player struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	RoomID     uint      `gorm:"not null;index" json:"room_id"`
	Name       string    `gorm:"size:100;not null" json:"name"`
	Avatar     string    `gorm:"size:100" json:"avatar"`
	Score      int       `gorm:"not null;default:0" json:"score"`
	IsHost     bool      `gorm:"not null;default:false" json:"is_host"`
	IsGuest    bool      `gorm:"not null;default:true" json:"is_guest"`
	Connected  bool      `gorm:"not null;default:true" json:"connected"`
	Token      string    `gorm:"size:64;index" json:"-"`
	LastSeenAt time.Time `gorm:"index" json:"last_seen_at"`
	JoinedAt   time.Time `json:"joined_at"`
}
