package services

import (
	"testing"

	"github.com/rufio-world/little-lies-game/internal/models"
)

func TestComputeRoundDeltas(t *testing.T) {
	// Alice (player 1) wrote answer 10, Bob (2) wrote answer 11, Carol (3)
	// wrote answer 12. Carol fell for Alice's decoy, Bob found the truth,
	// Alice fell for Bob's decoy.
	answers := []models.Answer{
		{ID: 10, PlayerID: 1},
		{ID: 11, PlayerID: 2},
		{ID: 12, PlayerID: 3},
	}
	votes := []models.Vote{
		{PlayerID: 3, AnswerID: 10},
		{PlayerID: 2, ForCorrect: true},
		{PlayerID: 1, AnswerID: 11},
	}

	deltas := NewScoringService().ComputeRoundDeltas(answers, votes)

	want := map[uint]int{1: 1, 2: 2, 3: 0}
	for player, expected := range want {
		if deltas[player] != expected {
			t.Errorf("player %d: delta = %d, want %d", player, deltas[player], expected)
		}
	}
}

func TestComputeRoundDeltasNoVotes(t *testing.T) {
	answers := []models.Answer{{ID: 1, PlayerID: 7}}

	deltas := NewScoringService().ComputeRoundDeltas(answers, nil)

	if deltas[7] != 0 {
		t.Errorf("delta = %d, want 0", deltas[7])
	}
}

func TestComputeRoundDeltasNeverNegative(t *testing.T) {
	answers := []models.Answer{
		{ID: 1, PlayerID: 1},
		{ID: 2, PlayerID: 2},
	}
	votes := []models.Vote{
		{PlayerID: 1, AnswerID: 2},
		{PlayerID: 2, AnswerID: 1},
	}

	deltas := NewScoringService().ComputeRoundDeltas(answers, votes)

	for player, delta := range deltas {
		if delta < 0 {
			t.Errorf("player %d: negative delta %d", player, delta)
		}
	}
}

func TestComputeRoundDeltasIgnoresDanglingAnswerRef(t *testing.T) {
	votes := []models.Vote{{PlayerID: 1, AnswerID: 999}}

	deltas := NewScoringService().ComputeRoundDeltas(nil, votes)

	if deltas[1] != 0 {
		t.Errorf("voter delta = %d, want 0 for vote on unknown answer", deltas[1])
	}
}
