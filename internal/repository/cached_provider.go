package repository

import (
	"context"
	"time"

	"CourtEdge/internal/domain/models"
	domrepo "CourtEdge/internal/domain/repository"
	"CourtEdge/pkg/cache"
	applogger "CourtEdge/pkg/logger"
)

// CachedProvider memoizes game logs per team for a TTL.
// A broken cache degrades to direct fetches; it never fails a request.
type CachedProvider struct {
	next  domrepo.GameLogProvider
	cache cache.Service
	ttl   time.Duration
	l     *applogger.Logger
}

func NewCachedProvider(next domrepo.GameLogProvider, c cache.Service, ttl time.Duration, l *applogger.Logger) *CachedProvider {
	if l == nil {
		l = applogger.Nop()
	}
	return &CachedProvider{next: next, cache: c, ttl: ttl, l: l}
}

func (p *CachedProvider) FetchGames(ctx context.Context, teamID int64) ([]models.GameRecord, error) {
	key := cache.GenerateKey("games", teamID)
	games, hit, err := cache.GetOrLoad(ctx, p.cache, key, p.ttl, func(ctx context.Context) ([]models.GameRecord, error) {
		return p.next.FetchGames(ctx, teamID)
	}, func(cerr error) {
		p.l.Warn("game log cache bypassed", applogger.String("key", key), applogger.Error(cerr))
	})
	if err != nil {
		return nil, err
	}
	if hit {
		p.l.Debug("game log cache hit", applogger.Int64("team_id", teamID), applogger.Int("games", len(games)))
	}
	return games, nil
}

// Invalidate drops the cached log of the given teams.
func (p *CachedProvider) Invalidate(ctx context.Context, teamIDs ...int64) error {
	keys := make([]string, len(teamIDs))
	for i, id := range teamIDs {
		keys[i] = cache.GenerateKey("games", id)
	}
	return p.cache.Delete(ctx, keys...)
}
