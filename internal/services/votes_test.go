package services

import (
	"reflect"
	"testing"

	"github.com/rufio-world/little-lies-game/internal/models"
)

func ballotFixture() (*models.Round, []models.Answer) {
	round := &models.Round{
		ID:            1,
		CorrectAnswer: "Central Perk",
		BallotSeed:    42,
	}
	answers := []models.Answer{
		{ID: 10, RoundID: 1, PlayerID: 1, Text: "The Leaky Cauldron"},
		{ID: 11, RoundID: 1, PlayerID: 2, Text: "Monk's Cafe"},
		{ID: 12, RoundID: 1, PlayerID: 3, Text: "MacLaren's"},
	}
	return round, answers
}

func TestBuildBallotIncludesTrueAnswer(t *testing.T) {
	round, answers := ballotFixture()
	options := BuildBallot(round, answers, 0)

	if len(options) != 4 {
		t.Fatalf("got %d options, want 4", len(options))
	}
	found := false
	for _, o := range options {
		if o.AnswerID == 0 {
			found = true
			if o.Text != "Central Perk" {
				t.Errorf("true answer text = %q", o.Text)
			}
		}
	}
	if !found {
		t.Error("ballot is missing the true answer option")
	}
}

func TestBuildBallotExcludesOwnAnswer(t *testing.T) {
	round, answers := ballotFixture()
	options := BuildBallot(round, answers, 2)

	if len(options) != 3 {
		t.Fatalf("got %d options, want 3", len(options))
	}
	for _, o := range options {
		if o.AnswerID == 11 {
			t.Error("viewer's own answer appears on their ballot")
		}
	}
}

func TestBuildBallotStableOrder(t *testing.T) {
	round, answers := ballotFixture()

	first := BuildBallot(round, answers, 1)
	second := BuildBallot(round, answers, 1)
	if !reflect.DeepEqual(first, second) {
		t.Error("same seed produced different ballot orders")
	}

	// Different viewers see the same sequence minus their own entry.
	full := BuildBallot(round, answers, 0)
	viewer := BuildBallot(round, answers, 3)
	i := 0
	for _, o := range full {
		if o.AnswerID == 12 {
			continue
		}
		if viewer[i] != o {
			t.Fatalf("relative order changed for viewer: %v vs %v", viewer[i], o)
		}
		i++
	}
}
