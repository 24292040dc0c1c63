package repository

import (
	"context"
	"fmt"

	"CourtEdge/internal/domain/models"
	domrepo "CourtEdge/internal/domain/repository"
	applogger "CourtEdge/pkg/logger"
	"CourtEdge/pkg/queue"
)

// ArchiveGamesType is the queue message type for deferred archive writes.
const ArchiveGamesType = "archive_games"

// ArchiveGamesPayload is one team's fetched log awaiting storage.
type ArchiveGamesPayload struct {
	TeamID int64               `json:"team_id"`
	Games  []models.GameRecord `json:"games"`
}

// ArchivingProvider copies every successful fetch into an archive, inline or
// through a queue. Archive failures are logged; the fetched games are still returned.
type ArchivingProvider struct {
	next    domrepo.GameLogProvider
	archive domrepo.GameArchive
	queue   queue.Enqueuer
	l       *applogger.Logger
}

type ArchivingOption func(*ArchivingProvider)

// WithArchiveQueue defers archive writes to q, which must run an ArchiveGamesJob.
func WithArchiveQueue(q queue.Enqueuer) ArchivingOption {
	return func(p *ArchivingProvider) { p.queue = q }
}

func NewArchivingProvider(next domrepo.GameLogProvider, archive domrepo.GameArchive, l *applogger.Logger, opts ...ArchivingOption) *ArchivingProvider {
	if l == nil {
		l = applogger.Nop()
	}
	p := &ArchivingProvider{next: next, archive: archive, l: l}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *ArchivingProvider) FetchGames(ctx context.Context, teamID int64) ([]models.GameRecord, error) {
	games, err := p.next.FetchGames(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if len(games) == 0 {
		return games, nil
	}

	if p.queue != nil {
		err = p.queue.Enqueue(ctx, ArchiveGamesType, ArchiveGamesPayload{TeamID: teamID, Games: games})
	} else {
		err = p.archive.StoreGames(ctx, teamID, games)
	}
	if err != nil {
		p.l.Warn("game log archive failed", applogger.Int64("team_id", teamID), applogger.Error(err))
	}
	return games, nil
}

// ArchiveGamesJob stores queued game logs.
type ArchiveGamesJob struct {
	archive domrepo.GameArchive
}

func NewArchiveGamesJob(archive domrepo.GameArchive) *ArchiveGamesJob {
	return &ArchiveGamesJob{archive: archive}
}

func (j *ArchiveGamesJob) Name() string { return "clickhouse-archive" }
func (j *ArchiveGamesJob) Type() string { return ArchiveGamesType }

func (j *ArchiveGamesJob) Handle(ctx context.Context, payload interface{}) error {
	p, err := queue.ParsePayload[ArchiveGamesPayload](payload)
	if err != nil {
		return fmt.Errorf("archive job: %w", err)
	}
	return j.archive.StoreGames(ctx, p.TeamID, p.Games)
}
