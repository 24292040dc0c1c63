package repository

import (
	"context"

	"CourtEdge/internal/domain/models"
)

// GameLogProvider returns a team's completed games, newest first.
type GameLogProvider interface {
	FetchGames(ctx context.Context, teamID int64) ([]models.GameRecord, error)
}

// TeamDirectory lists and resolves teams.
type TeamDirectory interface {
	ListTeams(ctx context.Context) ([]models.Team, error)
	Lookup(ctx context.Context, idOrName string) (models.Team, error)
	ByID(ctx context.Context, id int64) (models.Team, error)
}

// GameArchive stores fetched game logs.
type GameArchive interface {
	StoreGames(ctx context.Context, teamID int64, games []models.GameRecord) error
	Health(ctx context.Context) error
}

// EventPublisher delivers computed matchups to downstream consumers.
type EventPublisher interface {
	PublishMatchup(ctx context.Context, ev models.MatchupEvent) error
	Close() error
}

type Metrics interface {
	RecordFetch(backend, result string)
	RecordError(kind string)
	RecordRecommendation(tier string)
	RecordWinRate(team string, rate float64)
	RecordLatency(op string, seconds float64)
}
