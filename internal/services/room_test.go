package services

import (
	"errors"
	"strings"
	"testing"

	"github.com/rufio-world/little-lies-game/internal/apperrors"
	"github.com/rufio-world/little-lies-game/internal/models"
	"github.com/rufio-world/little-lies-game/internal/packs"
)

func TestGenerateCode(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		code := GenerateCode(codeLength)
		if len(code) != codeLength {
			t.Fatalf("code %q has length %d, want %d", code, len(code), codeLength)
		}
		for _, c := range code {
			if !strings.ContainsRune(codeAlphabet, c) {
				t.Fatalf("code %q contains %q outside the alphabet", code, c)
			}
		}
		seen[code] = true
	}
	// 32^5 combinations; 50 draws colliding every time would mean a broken RNG.
	if len(seen) < 2 {
		t.Error("generator produced the same code on every draw")
	}
}

func TestCodeAlphabetExcludesAmbiguousGlyphs(t *testing.T) {
	for _, c := range "01IO" {
		if strings.ContainsRune(codeAlphabet, c) {
			t.Errorf("alphabet contains ambiguous glyph %q", c)
		}
	}
}

func TestRoomLookupAfterGameEnds(t *testing.T) {
	db := newStoreDB(t)
	rooms := NewRoomService(db, packs.LoadRegistry())

	room := models.Room{
		Code:         "ENDED",
		Name:         "finished game",
		State:        models.RoomStateEnded,
		Language:     "en",
		MaxQuestions: 1,
	}
	if err := db.Create(&room).Error; err != nil {
		t.Fatalf("create room: %v", err)
	}

	// The join path must treat the code as free again.
	if _, err := rooms.GetRoomByCode("ENDED"); !errors.Is(err, apperrors.ErrRoomNotFound) {
		t.Errorf("GetRoomByCode on ended room: err = %v, want ErrRoomNotFound", err)
	}

	// State and leaderboard views still need the room.
	found, err := rooms.FindRoomByCode("ENDED")
	if err != nil {
		t.Fatalf("FindRoomByCode: %v", err)
	}
	if found.State != models.RoomStateEnded {
		t.Errorf("state = %q, want ended", found.State)
	}
}
