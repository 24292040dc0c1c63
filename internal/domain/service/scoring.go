package service

import (
	"time"

	"CourtEdge/internal/domain/models"
)

// SnapshotBuilder derives a team's recent form from its game log.
type SnapshotBuilder interface {
	Snapshot(games []models.GameRecord, now time.Time) (models.TeamSnapshot, error)
}

// MatchupScorer turns two snapshots into probabilities and a recommendation.
type MatchupScorer interface {
	Score(home, away models.TeamSnapshot) (models.MatchupResult, error)
}

// Engine is the complete scoring core.
type Engine interface {
	SnapshotBuilder
	MatchupScorer
}
