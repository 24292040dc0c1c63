package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"CourtEdge/internal/domain/models"
	domrepo "CourtEdge/internal/domain/repository"
	applogger "CourtEdge/pkg/logger"
)

const insertChunk = 1000

// CHGameStore keeps fetched game logs in ClickHouse and can serve them back
// as a GameLogProvider for the archive backend.
type CHGameStore struct {
	db    *sql.DB
	table string
	limit int
	loc   *time.Location
	now   func() time.Time
	l     *applogger.Logger
}

var (
	_ domrepo.GameArchive     = (*CHGameStore)(nil)
	_ domrepo.GameLogProvider = (*CHGameStore)(nil)
)

// NewCHGameStore uses table (database-qualified) and returns at most limit games per team.
func NewCHGameStore(db *sql.DB, table string, limit int, loc *time.Location, l *applogger.Logger) *CHGameStore {
	if loc == nil {
		loc = time.UTC
	}
	if l == nil {
		l = applogger.Nop()
	}
	return &CHGameStore{db: db, table: table, limit: limit, loc: loc, now: time.Now, l: l}
}

// GameStoreSchema returns the DDL for database and table.
func GameStoreSchema(database, table string) []string {
	return []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.%s (
    team_id    Int64,
    game_id    String,
    game_date  Date,
    outcome    LowCardinality(String),
    matchup    String,
    fetched_at DateTime
) ENGINE = ReplacingMergeTree(fetched_at)
ORDER BY (team_id, game_date, game_id)`, database, table),
	}
}

// StoreGames upserts a team's games; replays of the same game collapse on merge.
func (s *CHGameStore) StoreGames(ctx context.Context, teamID int64, games []models.GameRecord) error {
	if len(games) == 0 {
		return nil
	}
	fetchedAt := s.now().UTC()
	for start := 0; start < len(games); start += insertChunk {
		end := start + insertChunk
		if end > len(games) {
			end = len(games)
		}
		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*6)
		for _, g := range games[start:end] {
			values = append(values, "(?, ?, ?, ?, ?, ?)")
			args = append(args,
				teamID,
				g.GameID,
				time.Date(g.Date.Year(), g.Date.Month(), g.Date.Day(), 0, 0, 0, 0, time.UTC),
				string(g.Outcome),
				g.Matchup,
				fetchedAt,
			)
		}
		q := fmt.Sprintf("INSERT INTO %s (team_id, game_id, game_date, outcome, matchup, fetched_at) VALUES %s",
			s.table, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			s.l.Error("clickhouse store_games error",
				applogger.String("table", s.table),
				applogger.Int64("team_id", teamID),
				applogger.Error(err),
			)
			return fmt.Errorf("store games: %w", err)
		}
	}
	return nil
}

// FetchGames reads archived games newest first. Failures are ProviderUnavailable.
func (s *CHGameStore) FetchGames(ctx context.Context, teamID int64) ([]models.GameRecord, error) {
	q := fmt.Sprintf(`
        SELECT game_id, game_date, outcome, matchup
        FROM %s FINAL
        WHERE team_id = ?
        ORDER BY game_date DESC, game_id DESC
        LIMIT ?`, s.table)
	rows, err := s.db.QueryContext(ctx, q, teamID, s.limit)
	if err != nil {
		return nil, fmt.Errorf("%w: archive query: %v", models.ErrProviderUnavailable, err)
	}
	defer rows.Close()

	out := make([]models.GameRecord, 0, s.limit)
	for rows.Next() {
		var (
			g       models.GameRecord
			day     time.Time
			outcome string
		)
		if err := rows.Scan(&g.GameID, &day, &outcome, &g.Matchup); err != nil {
			return nil, fmt.Errorf("%w: archive scan: %v", models.ErrProviderUnavailable, err)
		}
		o, ok := models.ParseOutcome(outcome)
		if !ok {
			s.l.Warn("archived game with unknown outcome skipped",
				applogger.String("game_id", g.GameID),
				applogger.String("outcome", outcome),
			)
			continue
		}
		g.Outcome = o
		g.Date = time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, s.loc)
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: archive rows: %v", models.ErrProviderUnavailable, err)
	}
	return out, nil
}

// Health pings ClickHouse.
func (s *CHGameStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
