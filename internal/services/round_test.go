package services

import (
	"fmt"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/rufio-world/little-lies-game/internal/models"
	"github.com/rufio-world/little-lies-game/internal/packs"
)

func newStoreDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&models.Room{},
		&models.Player{},
		&models.Round{},
		&models.Answer{},
		&models.Vote{},
		&models.Readiness{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// newPlayingRoom seeds an in-progress room with three connected players
// and its first round in the given phase.
func newPlayingRoom(t *testing.T, db *gorm.DB, phase string) (*models.Room, *models.Round, []models.Player) {
	t.Helper()

	room := models.Room{
		Code:          "ABCDE",
		Name:          "trivia night",
		State:         models.RoomStateInProgress,
		SelectedPacks: models.StringArray{"pop_culture"},
		Language:      "en",
		QuestionIDs:   models.StringArray{"pc-en-001", "pc-en-002"},
		MaxQuestions:  2,
	}
	if err := db.Create(&room).Error; err != nil {
		t.Fatalf("create room: %v", err)
	}

	players := make([]models.Player, 3)
	for i, name := range []string{"Alice", "Bob", "Carol"} {
		players[i] = models.Player{
			RoomID:     room.ID,
			Name:       name,
			IsHost:     i == 0,
			Connected:  true,
			Token:      fmt.Sprintf("token-%d", i),
			LastSeenAt: time.Now(),
			JoinedAt:   time.Now().Add(time.Duration(i) * time.Second),
		}
		if err := db.Create(&players[i]).Error; err != nil {
			t.Fatalf("create player: %v", err)
		}
	}
	if err := db.Model(&room).Update("host_player_id", players[0].ID).Error; err != nil {
		t.Fatalf("set host: %v", err)
	}

	round := models.Round{
		RoomID:        room.ID,
		RoundNumber:   1,
		QuestionID:    "pc-en-001",
		QuestionText:  "In which city is the coffee shop Central Perk?",
		CorrectAnswer: "New York",
		Phase:         phase,
		PhaseDeadline: time.Now().Add(time.Minute),
		BallotSeed:    7,
	}
	if err := db.Create(&round).Error; err != nil {
		t.Fatalf("create round: %v", err)
	}
	return &room, &round, players
}

func newRoundService(db *gorm.DB) *RoundService {
	return NewRoundService(db, packs.LoadRegistry(), NewScoringService(), time.Minute, time.Minute)
}

func playerScore(t *testing.T, db *gorm.DB, id uint) int {
	t.Helper()
	var p models.Player
	if err := db.First(&p, id).Error; err != nil {
		t.Fatalf("load player %d: %v", id, err)
	}
	return p.Score
}

func TestAdvanceIfAllVotedScoresExactlyOnce(t *testing.T) {
	db := newStoreDB(t)
	rounds := newRoundService(db)
	_, round, players := newPlayingRoom(t, db, models.PhaseVoting)

	alice := models.Answer{RoundID: round.ID, PlayerID: players[0].ID, Text: "Boston", SubmittedAt: time.Now()}
	bob := models.Answer{RoundID: round.ID, PlayerID: players[1].ID, Text: "Chicago", SubmittedAt: time.Now()}
	for _, a := range []*models.Answer{&alice, &bob} {
		if err := db.Create(a).Error; err != nil {
			t.Fatalf("create answer: %v", err)
		}
	}
	// Alice falls for Bob's decoy, Bob votes true, Carol falls for
	// Alice's decoy: everyone ends the round one point up.
	votes := []models.Vote{
		{RoundID: round.ID, PlayerID: players[0].ID, AnswerID: bob.ID, VotedAt: time.Now()},
		{RoundID: round.ID, PlayerID: players[1].ID, ForCorrect: true, VotedAt: time.Now()},
		{RoundID: round.ID, PlayerID: players[2].ID, AnswerID: alice.ID, VotedAt: time.Now()},
	}
	for i := range votes {
		if err := db.Create(&votes[i]).Error; err != nil {
			t.Fatalf("create vote: %v", err)
		}
	}

	advanced, deltas, updated, err := rounds.AdvanceIfAllVoted(round.ID)
	if err != nil {
		t.Fatalf("first advance: %v", err)
	}
	if !advanced {
		t.Fatal("round did not advance with all votes in")
	}
	if updated.Phase != models.PhaseResults || !updated.Scored {
		t.Fatalf("round after advance: phase=%s scored=%v", updated.Phase, updated.Scored)
	}
	want := map[uint]int{players[0].ID: 1, players[1].ID: 1, players[2].ID: 1}
	for id, score := range want {
		if deltas[id] != score {
			t.Errorf("delta for player %d = %d, want %d", id, deltas[id], score)
		}
		if got := playerScore(t, db, id); got != score {
			t.Errorf("score for player %d = %d, want %d", id, got, score)
		}
	}

	// Replaying the transition must not pay anyone again.
	advanced, _, _, err = rounds.AdvanceIfAllVoted(round.ID)
	if err != nil {
		t.Fatalf("second advance: %v", err)
	}
	if advanced {
		t.Error("second advance reported a transition")
	}
	if expired, _, _, err := rounds.ExpireVotePhase(round.ID); err != nil || expired {
		t.Errorf("expire after reveal: expired=%v err=%v", expired, err)
	}
	for id, score := range want {
		if got := playerScore(t, db, id); got != score {
			t.Errorf("score for player %d changed to %d after replay, want %d", id, got, score)
		}
	}
}

func TestAdvanceIfAllReadyCreatesOneNextRound(t *testing.T) {
	db := newStoreDB(t)
	rounds := newRoundService(db)
	room, round, players := newPlayingRoom(t, db, models.PhaseResults)
	if err := db.Model(round).Update("scored", true).Error; err != nil {
		t.Fatalf("mark scored: %v", err)
	}

	for i := range players {
		ready := models.Readiness{RoundID: round.ID, PlayerID: players[i].ID, IsReady: true, MarkedReadyAt: time.Now()}
		if err := db.Create(&ready).Error; err != nil {
			t.Fatalf("create readiness: %v", err)
		}
	}

	outcome, err := rounds.AdvanceIfAllReady(round.ID)
	if err != nil {
		t.Fatalf("first advance: %v", err)
	}
	if !outcome.Advanced || outcome.GameEnded {
		t.Fatalf("outcome = %+v, want next round", outcome)
	}
	if outcome.NextRound.RoundNumber != 2 || outcome.NextRound.QuestionID != "pc-en-002" {
		t.Errorf("next round = %d/%s", outcome.NextRound.RoundNumber, outcome.NextRound.QuestionID)
	}

	outcome, err = rounds.AdvanceIfAllReady(round.ID)
	if err != nil {
		t.Fatalf("second advance: %v", err)
	}
	if outcome.Advanced {
		t.Error("second advance reported a transition")
	}

	var count int64
	if err := db.Model(&models.Round{}).Where("room_id = ?", room.ID).Count(&count).Error; err != nil {
		t.Fatalf("count rounds: %v", err)
	}
	if count != 2 {
		t.Errorf("room has %d rounds, want 2", count)
	}
}

func TestCompletionCountsConnectedPlayersOnly(t *testing.T) {
	db := newStoreDB(t)
	_, round, players := newPlayingRoom(t, db, models.PhaseAnswerSubmission)

	for _, p := range players[:2] {
		answer := models.Answer{RoundID: round.ID, PlayerID: p.ID, Text: "Springfield " + p.Name, SubmittedAt: time.Now()}
		if err := db.Create(&answer).Error; err != nil {
			t.Fatalf("create answer: %v", err)
		}
	}

	complete, err := allSubmitted(db, round.ID, round.RoomID)
	if err != nil {
		t.Fatalf("allSubmitted: %v", err)
	}
	if complete {
		t.Error("round complete while a connected player has not answered")
	}

	if err := db.Model(&models.Player{}).Where("id = ?", players[2].ID).
		Update("connected", false).Error; err != nil {
		t.Fatalf("disconnect player: %v", err)
	}
	complete, err = allSubmitted(db, round.ID, round.RoomID)
	if err != nil {
		t.Fatalf("allSubmitted after disconnect: %v", err)
	}
	if !complete {
		t.Error("disconnected player still counted in the denominator")
	}

	if err := db.Model(&models.Player{}).Where("id = ?", players[2].ID).
		Update("connected", true).Error; err != nil {
		t.Fatalf("reconnect player: %v", err)
	}
	complete, err = allSubmitted(db, round.ID, round.RoomID)
	if err != nil {
		t.Fatalf("allSubmitted after reconnect: %v", err)
	}
	if complete {
		t.Error("reconnected player not counted in the denominator")
	}
}

func TestStateSurfacesCountErrors(t *testing.T) {
	db := newStoreDB(t)
	rounds := newRoundService(db)
	_, round, _ := newPlayingRoom(t, db, models.PhaseAnswerSubmission)

	if err := db.Migrator().DropTable(&models.Readiness{}); err != nil {
		t.Fatalf("drop table: %v", err)
	}
	if _, err := rounds.State(round); err == nil {
		t.Error("State returned no error with the readiness store unavailable")
	}
}
