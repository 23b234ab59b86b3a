package services

import (
	"github.com/rufio-world/little-lies-game/internal/models"
)

type ScoringService struct{}

func NewScoringService() *ScoringService {
	return &ScoringService{}
}

// ComputeRoundDeltas turns one round's votes into per-player point deltas.
// A vote for the true answer earns the voter one point; a vote for a decoy
// earns its author one point. Deltas are never negative.
func (s *ScoringService) ComputeRoundDeltas(answers []models.Answer, votes []models.Vote) map[uint]int {
	deltas := make(map[uint]int, len(answers))

	authors := make(map[uint]uint, len(answers))
	for _, a := range answers {
		authors[a.ID] = a.PlayerID
		deltas[a.PlayerID] = 0
	}

	for _, v := range votes {
		if _, seen := deltas[v.PlayerID]; !seen {
			deltas[v.PlayerID] = 0
		}
		if v.ForCorrect {
			deltas[v.PlayerID]++
			continue
		}
		if author, ok := authors[v.AnswerID]; ok {
			deltas[author]++
		}
	}

	return deltas
}
