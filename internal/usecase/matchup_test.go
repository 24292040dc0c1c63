package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"CourtEdge/internal/domain/models"
	"CourtEdge/internal/service/teams"
	"CourtEdge/internal/services/scoring"

	. "github.com/smartystreets/goconvey/convey"
)

const (
	lakersID   int64 = 1610612747
	warriorsID int64 = 1610612744
	celticsID  int64 = 1610612738
)

type mapProvider struct {
	games   map[int64][]models.GameRecord
	errs    map[int64]error
	fetched []int64
}

func (p *mapProvider) FetchGames(_ context.Context, teamID int64) ([]models.GameRecord, error) {
	p.fetched = append(p.fetched, teamID)
	if err := p.errs[teamID]; err != nil {
		return nil, err
	}
	return p.games[teamID], nil
}

type recordingPublisher struct {
	events []models.MatchupEvent
	err    error
}

func (r *recordingPublisher) PublishMatchup(_ context.Context, ev models.MatchupEvent) error {
	r.events = append(r.events, ev)
	return r.err
}

func (r *recordingPublisher) Close() error { return nil }

type tallyMetrics struct {
	errors map[string]int
	tiers  map[string]int
	rates  map[string]float64
}

func newTally() *tallyMetrics {
	return &tallyMetrics{errors: map[string]int{}, tiers: map[string]int{}, rates: map[string]float64{}}
}

func (m *tallyMetrics) RecordFetch(string, string)              {}
func (m *tallyMetrics) RecordError(kind string)                 { m.errors[kind]++ }
func (m *tallyMetrics) RecordRecommendation(tier string)        { m.tiers[tier]++ }
func (m *tallyMetrics) RecordWinRate(team string, rate float64) { m.rates[team] = rate }
func (m *tallyMetrics) RecordLatency(string, float64)           {}

// history builds games newest first, one per day, ending lastDaysAgo days before now.
func history(now time.Time, lastDaysAgo int, outcomes ...models.Outcome) []models.GameRecord {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, -lastDaysAgo)
	out := make([]models.GameRecord, len(outcomes))
	for i, o := range outcomes {
		out[i] = models.GameRecord{GameID: day.Format("20060102"), Date: day, Outcome: o}
		day = day.AddDate(0, 0, -2)
	}
	return out
}

func repeat(wins, losses int) []models.Outcome {
	out := make([]models.Outcome, 0, wins+losses)
	for i := 0; i < wins; i++ {
		out = append(out, models.OutcomeWin)
	}
	for i := 0; i < losses; i++ {
		out = append(out, models.OutcomeLoss)
	}
	return out
}

func TestMatchupAnalyzer(t *testing.T) {
	Convey("Given a directory, a provider and the default engine", t, func() {
		now := time.Date(2024, 3, 10, 18, 0, 0, 0, time.UTC)
		dir, err := teams.New([]models.Team{
			{ID: celticsID, Abbreviation: "BOS", Nickname: "Celtics", FullName: "Boston Celtics"},
			{ID: warriorsID, Abbreviation: "GSW", Nickname: "Warriors", FullName: "Golden State Warriors"},
			{ID: lakersID, Abbreviation: "LAL", Nickname: "Lakers", FullName: "Los Angeles Lakers"},
		})
		So(err, ShouldBeNil)

		prov := &mapProvider{
			games: map[int64][]models.GameRecord{
				lakersID:   history(now, 3, repeat(8, 2)...),
				warriorsID: history(now, 1, repeat(5, 5)...),
				celticsID:  history(now, 4, repeat(6, 4)...),
			},
			errs: map[int64]error{},
		}
		pub := &recordingPublisher{}
		m := newTally()
		a := NewMatchupAnalyzer(dir, prov, scoring.New(),
			WithPublisher(pub),
			WithMetrics(m),
			WithClock(func() time.Time { return now }),
		)
		ctx := context.Background()

		Convey("A rested strong home team against a tired away team is a strong home pick", func() {
			r, err := a.Analyze(ctx, lakersID, warriorsID)
			So(err, ShouldBeNil)
			So(r.Home.Snapshot.RecentWinRate, ShouldAlmostEqual, 0.8)
			So(r.Home.Snapshot.IsBackToBack, ShouldBeFalse)
			So(r.Away.Snapshot.RecentWinRate, ShouldAlmostEqual, 0.5)
			So(r.Away.Snapshot.IsBackToBack, ShouldBeTrue)
			So(r.Result.HomeProbability, ShouldAlmostEqual, 0.85/1.27, 1e-9)
			So(r.Result.AwayProbability, ShouldAlmostEqual, 0.42/1.27, 1e-9)
			So(r.Result.Recommendation, ShouldEqual, models.RecommendationStrong)
			So(r.RecommendedTeam.ID, ShouldEqual, lakersID)
			So(r.ComputedAt, ShouldEqual, now)
			So(prov.fetched, ShouldResemble, []int64{lakersID, warriorsID})
		})

		Convey("The computed matchup is published and counted", func() {
			_, err := a.Analyze(ctx, lakersID, warriorsID)
			So(err, ShouldBeNil)
			So(pub.events, ShouldHaveLength, 1)
			ev := pub.events[0]
			So(ev.EventID, ShouldNotBeEmpty)
			So(ev.HomeTeam, ShouldEqual, "LAL")
			So(ev.AwayTeam, ShouldEqual, "GSW")
			So(ev.RecommendedTeamID, ShouldEqual, lakersID)
			So(ev.Recommendation, ShouldEqual, models.RecommendationStrong)
			So(m.tiers["STRONG"], ShouldEqual, 1)
			So(m.rates["LAL"], ShouldAlmostEqual, 0.8)
		})

		Convey("A publish failure does not fail the analysis", func() {
			pub.err = errors.New("broker down")
			r, err := a.Analyze(ctx, lakersID, warriorsID)
			So(err, ShouldBeNil)
			So(r.Result.Recommendation, ShouldEqual, models.RecommendationStrong)
			So(m.errors["publish"], ShouldEqual, 1)
		})

		Convey("The same team on both sides is rejected before any fetch", func() {
			_, err := a.Analyze(ctx, lakersID, lakersID)
			So(errors.Is(err, models.ErrSameTeam), ShouldBeTrue)
			So(prov.fetched, ShouldBeEmpty)
		})

		Convey("Unknown teams are not found", func() {
			_, err := a.Analyze(ctx, lakersID, 42)
			So(errors.Is(err, models.ErrTeamNotFound), ShouldBeTrue)
			So(prov.fetched, ShouldBeEmpty)
		})

		Convey("A team without games fails with insufficient history", func() {
			prov.games[celticsID] = nil
			_, err := a.Analyze(ctx, lakersID, celticsID)
			So(errors.Is(err, models.ErrEmptyHistory), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "BOS")
			So(pub.events, ShouldBeEmpty)
			So(m.errors["empty_history"], ShouldEqual, 1)
		})

		Convey("Provider failures surface as ProviderUnavailable and stop the request", func() {
			prov.errs[lakersID] = errors.New("connection reset")
			_, err := a.Analyze(ctx, lakersID, warriorsID)
			So(errors.Is(err, models.ErrProviderUnavailable), ShouldBeTrue)
			So(prov.fetched, ShouldResemble, []int64{lakersID})
			So(pub.events, ShouldBeEmpty)
		})

		Convey("Two winless tired teams cannot be scored", func() {
			prov.games[celticsID] = history(now, 0, repeat(0, 5)...)
			prov.games[warriorsID] = history(now, 1, repeat(0, 5)...)
			_, err := a.Analyze(ctx, warriorsID, celticsID)
			So(errors.Is(err, models.ErrDegenerateScore), ShouldBeTrue)
			So(m.errors["degenerate_score"], ShouldEqual, 1)
		})

		Convey("Even away form with a small home edge is a lean or tossup, never an error", func() {
			r, err := a.Analyze(ctx, celticsID, lakersID)
			So(err, ShouldBeNil)
			So(r.Result.HomeProbability+r.Result.AwayProbability, ShouldAlmostEqual, 1.0, 1e-9)
			So(r.Result.Diff, ShouldBeLessThan, 0.15)
		})

		Convey("Teams lists the directory order", func() {
			list, err := a.Teams(ctx)
			So(err, ShouldBeNil)
			So(list, ShouldHaveLength, 3)
			So(list[0].Abbreviation, ShouldEqual, "BOS")
		})
	})
}
