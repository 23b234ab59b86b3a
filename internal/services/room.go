package services

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/rufio-world/little-lies-game/internal/apperrors"
	"github.com/rufio-world/little-lies-game/internal/models"
	"github.com/rufio-world/little-lies-game/internal/packs"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Alphabet for join codes, avoiding easily-confused characters.
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const codeLength = 5

type RoomService struct {
	db       *gorm.DB
	registry *packs.Registry
}

func NewRoomService(db *gorm.DB, registry *packs.Registry) *RoomService {
	return &RoomService{db: db, registry: registry}
}

type CreateRoomParams struct {
	Name          string
	SelectedPacks []string
	Language      string
	MaxQuestions  int
	HostName      string
	HostAvatar    string
	HostIsGuest   bool
	UnlockedPacks []string
}

func (s *RoomService) CreateRoom(p CreateRoomParams) (*models.Room, *models.Player, error) {
	if p.MaxQuestions < 1 {
		return nil, nil, fmt.Errorf("%w: max_questions must be at least 1", apperrors.ErrInvalidInput)
	}
	if !s.registry.Playable(p.SelectedPacks, p.Language, p.UnlockedPacks) {
		return nil, nil, fmt.Errorf("%w: selected packs are not available in %s", apperrors.ErrInvalidInput, p.Language)
	}
	if pool := s.registry.Questions(p.SelectedPacks, p.Language); len(pool) < p.MaxQuestions {
		return nil, nil, fmt.Errorf("%w: selected packs only have %d questions", apperrors.ErrInvalidInput, len(pool))
	}

	room := models.Room{
		Code:          s.generateUniqueCode(),
		Name:          p.Name,
		State:         models.RoomStateWaiting,
		SelectedPacks: p.SelectedPacks,
		Language:      p.Language,
		MaxQuestions:  p.MaxQuestions,
	}

	var host models.Player
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&room).Error; err != nil {
			return err
		}
		host = models.Player{
			RoomID:     room.ID,
			Name:       p.HostName,
			Avatar:     p.HostAvatar,
			IsHost:     true,
			IsGuest:    p.HostIsGuest,
			Connected:  true,
			Token:      uuid.NewString(),
			LastSeenAt: time.Now(),
			JoinedAt:   time.Now(),
		}
		if err := tx.Create(&host).Error; err != nil {
			return err
		}
		return tx.Model(&room).Update("host_player_id", host.ID).Error
	})
	if err != nil {
		return nil, nil, err
	}
	room.HostPlayerID = host.ID
	return &room, &host, nil
}

func (s *RoomService) GetRoom(roomID uint) (*models.Room, error) {
	var room models.Room
	if err := s.db.Preload("Players").First(&room, roomID).Error; err != nil {
		return nil, apperrors.ErrRoomNotFound
	}
	return &room, nil
}

// GetRoomByCode resolves an active room. Ended rooms are skipped so their
// codes can be reused by new games.
func (s *RoomService) GetRoomByCode(code string) (*models.Room, error) {
	var room models.Room
	if err := s.db.Where("code = ? AND state != ?", code, models.RoomStateEnded).
		Preload("Players").First(&room).Error; err != nil {
		return nil, apperrors.ErrRoomNotFound
	}
	return &room, nil
}

// FindRoomByCode resolves a room regardless of state, for read-only views
// that must keep working after the game ends.
func (s *RoomService) FindRoomByCode(code string) (*models.Room, error) {
	var room models.Room
	if err := s.db.Where("code = ?", code).
		Order("created_at DESC").
		Preload("Players").First(&room).Error; err != nil {
		return nil, apperrors.ErrRoomNotFound
	}
	return &room, nil
}

func (s *RoomService) Join(code, name, avatar string, isGuest bool) (*models.Room, *models.Player, error) {
	room, err := s.GetRoomByCode(code)
	if err != nil {
		return nil, nil, err
	}
	if room.State != models.RoomStateWaiting {
		return nil, nil, apperrors.ErrAlreadyStarted
	}

	player := models.Player{
		RoomID:     room.ID,
		Name:       name,
		Avatar:     avatar,
		IsGuest:    isGuest,
		Connected:  true,
		Token:      uuid.NewString(),
		LastSeenAt: time.Now(),
		JoinedAt:   time.Now(),
	}
	if err := s.db.Create(&player).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to join room: %w", err)
	}
	return room, &player, nil
}

func (s *RoomService) PlayerByToken(token string) (*models.Player, error) {
	var player models.Player
	if err := s.db.Where("token = ?", token).First(&player).Error; err != nil {
		return nil, apperrors.ErrPlayerNotFound
	}
	return &player, nil
}

// TouchLiveness refreshes a player's last-seen timestamp. Every accepted
// submission counts as a sign of life.
func (s *RoomService) TouchLiveness(playerID uint) {
	s.db.Model(&models.Player{}).Where("id = ?", playerID).
		Updates(map[string]interface{}{"last_seen_at": time.Now(), "connected": true})
}

type LeaveResult struct {
	Room     *models.Room
	NewHost  *models.Player
	RoomEnds bool
}

// Leave removes a player. If the host leaves, host status transfers to the
// earliest-joined connected player; an emptied room ends.
func (s *RoomService) Leave(player *models.Player) (*LeaveResult, error) {
	result := &LeaveResult{}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var room models.Room
		if err := tx.First(&room, player.RoomID).Error; err != nil {
			return apperrors.ErrRoomNotFound
		}
		if err := tx.Delete(&models.Player{}, player.ID).Error; err != nil {
			return err
		}
		if room.HostPlayerID == player.ID {
			if err := s.transferHost(tx, &room, player.ID); err != nil {
				return err
			}
			result.NewHost = roomHost(tx, &room)
		}
		var remaining int64
		tx.Model(&models.Player{}).Where("room_id = ?", room.ID).Count(&remaining)
		if remaining == 0 {
			room.State = models.RoomStateEnded
			if err := tx.Save(&room).Error; err != nil {
				return err
			}
			result.RoomEnds = true
		}
		result.Room = &room
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *RoomService) Kick(room *models.Room, byPlayer *models.Player, targetID uint) (*models.Player, error) {
	if !byPlayer.IsHost || room.HostPlayerID != byPlayer.ID {
		return nil, apperrors.ErrNotHost
	}
	if targetID == byPlayer.ID {
		return nil, fmt.Errorf("%w: host cannot kick themselves", apperrors.ErrInvalidInput)
	}
	var target models.Player
	if err := s.db.Where("id = ? AND room_id = ?", targetID, room.ID).First(&target).Error; err != nil {
		return nil, apperrors.ErrPlayerNotFound
	}
	if err := s.db.Delete(&target).Error; err != nil {
		return nil, err
	}
	return &target, nil
}

func (s *RoomService) CloseRoom(room *models.Room, byPlayer *models.Player) error {
	if !byPlayer.IsHost || room.HostPlayerID != byPlayer.ID {
		return apperrors.ErrNotHost
	}
	return s.db.Model(room).Update("state", models.RoomStateEnded).Error
}

type LeaderboardEntry struct {
	Position int    `json:"position"`
	PlayerID uint   `json:"player_id"`
	Name     string `json:"name"`
	Avatar   string `json:"avatar"`
	Score    int    `json:"score"`
}

func (s *RoomService) Leaderboard(roomID uint) ([]LeaderboardEntry, error) {
	var players []models.Player
	if err := s.db.Where("room_id = ?", roomID).
		Order("score DESC, joined_at ASC").
		Find(&players).Error; err != nil {
		return nil, err
	}
	entries := make([]LeaderboardEntry, len(players))
	for i, p := range players {
		entries[i] = LeaderboardEntry{
			Position: i + 1,
			PlayerID: p.ID,
			Name:     p.Name,
			Avatar:   p.Avatar,
			Score:    p.Score,
		}
	}
	return entries, nil
}

func (s *RoomService) ListPlayers(roomID uint) ([]models.Player, error) {
	var players []models.Player
	s.db.Where("room_id = ?", roomID).Order("joined_at ASC").Find(&players)
	return players, nil
}

// transferHost moves the host flag to the earliest-joined remaining
// connected player, or leaves the room hostless when none remain (the
// sweep will end it).
func (s *RoomService) transferHost(tx *gorm.DB, room *models.Room, leavingID uint) error {
	var next models.Player
	err := tx.Where("room_id = ? AND id != ? AND connected = ?", room.ID, leavingID, true).
		Order("joined_at ASC").First(&next).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			room.HostPlayerID = 0
			return tx.Save(room).Error
		}
		return err
	}
	if err := tx.Model(&models.Player{}).Where("id = ?", leavingID).
		Update("is_host", false).Error; err != nil {
		return err
	}
	if err := tx.Model(&next).Update("is_host", true).Error; err != nil {
		return err
	}
	room.HostPlayerID = next.ID
	return tx.Save(room).Error
}

func roomHost(tx *gorm.DB, room *models.Room) *models.Player {
	if room.HostPlayerID == 0 {
		return nil
	}
	var host models.Player
	if err := tx.First(&host, room.HostPlayerID).Error; err != nil {
		return nil
	}
	return &host
}

func (s *RoomService) generateUniqueCode() string {
	for {
		code := GenerateCode(codeLength)
		var count int64
		s.db.Model(&models.Room{}).
			Where("code = ? AND state != ?", code, models.RoomStateEnded).
			Count(&count)
		if count == 0 {
			return code
		}
	}
}

// GenerateCode builds a player-facing join code from the unambiguous
// alphabet.
func GenerateCode(length int) string {
	b := make([]byte, length)
	for i := range b {
		b[i] = codeAlphabet[rand.Intn(len(codeAlphabet))]
	}
	return string(b)
}
