package models

import "time"

type Room struct {
	ID                   uint        `gorm:"primaryKey" json:"id"`
	Code                 string      `gorm:"size:5;index" json:"code"`
	Name                 string      `gorm:"size:100;not null" json:"name"`
	HostPlayerID         uint        `gorm:"not null;default:0" json:"host_player_id"`
	State                string      `gorm:"size:20;not null;default:'waiting'" json:"state"`
	SelectedPacks        StringArray `gorm:"type:jsonb" json:"selected_packs"`
	Language             string      `gorm:"size:5;not null;default:'en'" json:"language"`
	QuestionIDs          StringArray `gorm:"type:jsonb" json:"-"`
	MaxQuestions         int         `gorm:"not null" json:"max_questions"`
	CurrentQuestionIndex int         `gorm:"not null;default:0" json:"current_question_index"`
	Players              []Player    `gorm:"foreignKey:RoomID" json:"players,omitempty"`
	CreatedAt            time.Time   `json:"created_at"`
	UpdatedAt            time.Time   `json:"updated_at"`
}

const (
	RoomStateWaiting    = "waiting"
	RoomStateInProgress = "in-progress"
	RoomStateEnded      = "ended"
)
