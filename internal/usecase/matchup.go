package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"CourtEdge/internal/domain/models"
	domrepo "CourtEdge/internal/domain/repository"
	domsvc "CourtEdge/internal/domain/service"
	applogger "CourtEdge/pkg/logger"

	"github.com/google/uuid"
)

// MatchupAnalyzer resolves two teams, snapshots their recent form and scores
// the matchup. A failed step aborts the whole request; nothing partial is returned.
type MatchupAnalyzer struct {
	teams     domrepo.TeamDirectory
	games     domrepo.GameLogProvider
	engine    domsvc.Engine
	publisher domrepo.EventPublisher
	metrics   domrepo.Metrics
	log       *applogger.Logger
	now       func() time.Time
}

type AnalyzerOption func(*MatchupAnalyzer)

// WithPublisher sends every computed matchup downstream. Publish failures are logged only.
func WithPublisher(p domrepo.EventPublisher) AnalyzerOption {
	return func(a *MatchupAnalyzer) { a.publisher = p }
}

func WithMetrics(m domrepo.Metrics) AnalyzerOption {
	return func(a *MatchupAnalyzer) { a.metrics = m }
}

func WithLogger(l *applogger.Logger) AnalyzerOption {
	return func(a *MatchupAnalyzer) { a.log = l }
}

// WithClock replaces the wall clock used for back-to-back detection.
func WithClock(now func() time.Time) AnalyzerOption {
	return func(a *MatchupAnalyzer) { a.now = now }
}

func NewMatchupAnalyzer(teams domrepo.TeamDirectory, games domrepo.GameLogProvider, engine domsvc.Engine, opts ...AnalyzerOption) *MatchupAnalyzer {
	a := &MatchupAnalyzer{
		teams:   teams,
		games:   games,
		engine:  engine,
		metrics: noopMetrics{},
		log:     applogger.Nop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Teams lists the directory in its fixed order.
func (a *MatchupAnalyzer) Teams(ctx context.Context) ([]models.Team, error) {
	return a.teams.ListTeams(ctx)
}

// Analyze computes the matchup of homeID hosting awayID.
func (a *MatchupAnalyzer) Analyze(ctx context.Context, homeID, awayID int64) (models.MatchupReport, error) {
	start := time.Now()
	defer func() { a.metrics.RecordLatency("analyze", time.Since(start).Seconds()) }()

	if homeID == awayID {
		return models.MatchupReport{}, fmt.Errorf("team %d: %w", homeID, models.ErrSameTeam)
	}
	home, err := a.teams.ByID(ctx, homeID)
	if err != nil {
		return models.MatchupReport{}, fmt.Errorf("home team %d: %w", homeID, err)
	}
	away, err := a.teams.ByID(ctx, awayID)
	if err != nil {
		return models.MatchupReport{}, fmt.Errorf("away team %d: %w", awayID, err)
	}

	now := a.now()
	homeSnap, err := a.snapshot(ctx, home, now)
	if err != nil {
		return models.MatchupReport{}, err
	}
	awaySnap, err := a.snapshot(ctx, away, now)
	if err != nil {
		return models.MatchupReport{}, err
	}

	res, err := a.engine.Score(homeSnap, awaySnap)
	if err != nil {
		a.metrics.RecordError("degenerate_score")
		a.log.Warn("matchup not scorable",
			applogger.String("home", home.Abbreviation),
			applogger.String("away", away.Abbreviation),
			applogger.Error(err),
		)
		return models.MatchupReport{}, fmt.Errorf("%s vs %s: %w", home.Abbreviation, away.Abbreviation, err)
	}

	picked := away
	if res.RecommendedSide == models.SideHome {
		picked = home
	}
	report := models.MatchupReport{
		Home:            models.TeamReport{Team: home, Snapshot: homeSnap},
		Away:            models.TeamReport{Team: away, Snapshot: awaySnap},
		Result:          res,
		RecommendedTeam: picked,
		ComputedAt:      now,
	}

	a.metrics.RecordRecommendation(string(res.Recommendation))
	a.log.Info("matchup analyzed",
		applogger.String("home", home.Abbreviation),
		applogger.String("away", away.Abbreviation),
		applogger.Float64("home_probability", res.HomeProbability),
		applogger.Float64("away_probability", res.AwayProbability),
		applogger.String("recommendation", string(res.Recommendation)),
		applogger.String("pick", picked.Abbreviation),
	)
	a.publish(ctx, report)
	return report, nil
}

func (a *MatchupAnalyzer) snapshot(ctx context.Context, team models.Team, now time.Time) (models.TeamSnapshot, error) {
	games, err := a.games.FetchGames(ctx, team.ID)
	if err != nil {
		a.metrics.RecordError("provider")
		a.log.Error("game log fetch failed",
			applogger.Int64("team_id", team.ID),
			applogger.String("team", team.Abbreviation),
			applogger.Error(err),
		)
		if !errors.Is(err, models.ErrProviderUnavailable) {
			err = fmt.Errorf("%w: %v", models.ErrProviderUnavailable, err)
		}
		return models.TeamSnapshot{}, fmt.Errorf("%s: %w", team.Abbreviation, err)
	}

	snap, err := a.engine.Snapshot(games, now)
	if err != nil {
		a.metrics.RecordError("empty_history")
		return models.TeamSnapshot{}, fmt.Errorf("%s: %w", team.Abbreviation, err)
	}
	a.metrics.RecordWinRate(team.Abbreviation, snap.RecentWinRate)
	return snap, nil
}

func (a *MatchupAnalyzer) publish(ctx context.Context, r models.MatchupReport) {
	if a.publisher == nil {
		return
	}
	ev := models.MatchupEvent{
		EventID:           uuid.NewString(),
		ComputedAt:        r.ComputedAt.UTC(),
		HomeTeamID:        r.Home.Team.ID,
		HomeTeam:          r.Home.Team.Abbreviation,
		AwayTeamID:        r.Away.Team.ID,
		AwayTeam:          r.Away.Team.Abbreviation,
		HomeProbability:   r.Result.HomeProbability,
		AwayProbability:   r.Result.AwayProbability,
		Recommendation:    r.Result.Recommendation,
		RecommendedTeamID: r.RecommendedTeam.ID,
	}
	if err := a.publisher.PublishMatchup(ctx, ev); err != nil {
		a.metrics.RecordError("publish")
		a.log.Warn("matchup event not published",
			applogger.String("event_id", ev.EventID),
			applogger.Error(err),
		)
	}
}

type noopMetrics struct{}

func (noopMetrics) RecordFetch(string, string)    {}
func (noopMetrics) RecordError(string)            {}
func (noopMetrics) RecordRecommendation(string)   {}
func (noopMetrics) RecordWinRate(string, float64) {}
func (noopMetrics) RecordLatency(string, float64) {}
