package repository

import (
	"context"
	"time"

	"CourtEdge/internal/domain/models"
	domrepo "CourtEdge/internal/domain/repository"
)

// InstrumentedProvider records fetch counts and latency under a backend label.
type InstrumentedProvider struct {
	next    domrepo.GameLogProvider
	metrics domrepo.Metrics
	backend string
}

func NewInstrumentedProvider(next domrepo.GameLogProvider, m domrepo.Metrics, backend string) *InstrumentedProvider {
	return &InstrumentedProvider{next: next, metrics: m, backend: backend}
}

func (p *InstrumentedProvider) FetchGames(ctx context.Context, teamID int64) ([]models.GameRecord, error) {
	start := time.Now()
	games, err := p.next.FetchGames(ctx, teamID)
	p.metrics.RecordLatency("fetch_games_"+p.backend, time.Since(start).Seconds())
	if err != nil {
		p.metrics.RecordFetch(p.backend, "error")
		return nil, err
	}
	p.metrics.RecordFetch(p.backend, "ok")
	return games, nil
}
