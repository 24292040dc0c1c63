package repository

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"CourtEdge/internal/domain/models"
	"CourtEdge/pkg/cache"

	. "github.com/smartystreets/goconvey/convey"
)

type countingProvider struct {
	calls int
	games []models.GameRecord
	err   error
}

func (p *countingProvider) FetchGames(_ context.Context, _ int64) ([]models.GameRecord, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return p.games, nil
}

type memArchive struct {
	stored map[int64][]models.GameRecord
	err    error
}

func (a *memArchive) StoreGames(_ context.Context, teamID int64, games []models.GameRecord) error {
	if a.err != nil {
		return a.err
	}
	if a.stored == nil {
		a.stored = map[int64][]models.GameRecord{}
	}
	a.stored[teamID] = games
	return nil
}

func (a *memArchive) Health(context.Context) error { return a.err }

type brokenCache struct{}

func (brokenCache) Set(context.Context, string, interface{}, time.Duration) error {
	return errors.New("redis: connection refused")
}
func (brokenCache) Get(context.Context, string, interface{}) error {
	return errors.New("redis: connection refused")
}
func (brokenCache) Delete(context.Context, ...string) error         { return nil }
func (brokenCache) Exists(context.Context, ...string) (bool, error) { return false, nil }
func (brokenCache) Close() error                                    { return nil }

type fetchMetrics struct {
	fetches map[string]int
	ops     []string
}

func (m *fetchMetrics) RecordFetch(backend, result string) {
	if m.fetches == nil {
		m.fetches = map[string]int{}
	}
	m.fetches[backend+"/"+result]++
}
func (m *fetchMetrics) RecordError(string)                 {}
func (m *fetchMetrics) RecordRecommendation(string)        {}
func (m *fetchMetrics) RecordWinRate(string, float64)      {}
func (m *fetchMetrics) RecordLatency(op string, _ float64) { m.ops = append(m.ops, op) }

func sampleGames() []models.GameRecord {
	return []models.GameRecord{
		{GameID: "0022300101", Date: time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC), Outcome: models.OutcomeWin, Matchup: "LAL vs. GSW"},
		{GameID: "0022300090", Date: time.Date(2024, 2, 28, 0, 0, 0, 0, time.UTC), Outcome: models.OutcomeLoss, Matchup: "LAL @ BOS"},
	}
}

func TestCachedProvider(t *testing.T) {
	Convey("Given a cached provider over a memory cache", t, func() {
		inner := &countingProvider{games: sampleGames()}
		mc := cache.NewMemoryCache()
		defer mc.Close()
		p := NewCachedProvider(inner, mc, time.Minute, nil)
		ctx := context.Background()

		Convey("The second fetch for a team is served from cache", func() {
			first, err := p.FetchGames(ctx, 1610612747)
			So(err, ShouldBeNil)
			second, err := p.FetchGames(ctx, 1610612747)
			So(err, ShouldBeNil)
			So(inner.calls, ShouldEqual, 1)
			So(second, ShouldHaveLength, len(first))
			So(second[0].GameID, ShouldEqual, "0022300101")
			So(second[0].Date.Equal(first[0].Date), ShouldBeTrue)
			So(second[1].Outcome, ShouldEqual, models.OutcomeLoss)
		})

		Convey("Different teams use different keys", func() {
			_, _ = p.FetchGames(ctx, 1)
			_, _ = p.FetchGames(ctx, 2)
			So(inner.calls, ShouldEqual, 2)
		})

		Convey("Invalidate forces a refetch", func() {
			_, _ = p.FetchGames(ctx, 1)
			So(p.Invalidate(ctx, 1), ShouldBeNil)
			_, _ = p.FetchGames(ctx, 1)
			So(inner.calls, ShouldEqual, 2)
		})

		Convey("Provider errors are returned and not cached", func() {
			inner.err = models.ErrProviderUnavailable
			_, err := p.FetchGames(ctx, 3)
			So(errors.Is(err, models.ErrProviderUnavailable), ShouldBeTrue)
			inner.err = nil
			games, err := p.FetchGames(ctx, 3)
			So(err, ShouldBeNil)
			So(games, ShouldHaveLength, 2)
		})
	})

	Convey("A failing cache degrades to direct fetches", t, func() {
		inner := &countingProvider{games: sampleGames()}
		p := NewCachedProvider(inner, brokenCache{}, time.Minute, nil)
		for i := 0; i < 2; i++ {
			games, err := p.FetchGames(context.Background(), 1)
			So(err, ShouldBeNil)
			So(games, ShouldHaveLength, 2)
		}
		So(inner.calls, ShouldEqual, 2)
	})
}

func TestArchivingProvider(t *testing.T) {
	Convey("Given an archiving provider", t, func() {
		inner := &countingProvider{games: sampleGames()}
		arch := &memArchive{}
		p := NewArchivingProvider(inner, arch, nil)

		Convey("Fetched games are stored under the team id", func() {
			games, err := p.FetchGames(context.Background(), 1610612744)
			So(err, ShouldBeNil)
			So(games, ShouldHaveLength, 2)
			So(arch.stored[1610612744], ShouldHaveLength, 2)
		})

		Convey("Archive failures do not fail the fetch", func() {
			arch.err = errors.New("clickhouse down")
			games, err := p.FetchGames(context.Background(), 1)
			So(err, ShouldBeNil)
			So(games, ShouldHaveLength, 2)
		})

		Convey("Nothing is archived when the fetch fails", func() {
			inner.err = models.ErrProviderUnavailable
			_, err := p.FetchGames(context.Background(), 1)
			So(err, ShouldNotBeNil)
			So(arch.stored, ShouldBeEmpty)
		})
	})
}

type stuckQueue struct {
	msgs []interface{}
	err  error
}

func (q *stuckQueue) Enqueue(_ context.Context, msgType string, payload interface{}) error {
	if q.err != nil {
		return q.err
	}
	q.msgs = append(q.msgs, payload)
	return nil
}

func TestArchiveQueue(t *testing.T) {
	Convey("With a queue the archive write is deferred to the job", t, func() {
		inner := &countingProvider{games: sampleGames()}
		arch := &memArchive{}
		q := &stuckQueue{}
		p := NewArchivingProvider(inner, arch, nil, WithArchiveQueue(q))

		games, err := p.FetchGames(context.Background(), 1610612738)
		So(err, ShouldBeNil)
		So(games, ShouldHaveLength, 2)
		So(arch.stored, ShouldBeEmpty)
		So(q.msgs, ShouldHaveLength, 1)

		job := NewArchiveGamesJob(arch)
		So(job.Type(), ShouldEqual, ArchiveGamesType)
		So(job.Handle(context.Background(), q.msgs[0]), ShouldBeNil)
		So(arch.stored[1610612738], ShouldHaveLength, 2)
	})

	Convey("A full queue does not fail the fetch", t, func() {
		inner := &countingProvider{games: sampleGames()}
		p := NewArchivingProvider(inner, &memArchive{}, nil, WithArchiveQueue(&stuckQueue{err: errors.New("queue: full")}))
		games, err := p.FetchGames(context.Background(), 1)
		So(err, ShouldBeNil)
		So(games, ShouldHaveLength, 2)
	})

	Convey("Empty logs are not archived", t, func() {
		q := &stuckQueue{}
		p := NewArchivingProvider(&countingProvider{}, &memArchive{}, nil, WithArchiveQueue(q))
		_, err := p.FetchGames(context.Background(), 1)
		So(err, ShouldBeNil)
		So(q.msgs, ShouldBeEmpty)
	})
}

func TestInstrumentedProvider(t *testing.T) {
	Convey("Fetch outcomes are counted per backend", t, func() {
		inner := &countingProvider{games: sampleGames()}
		m := &fetchMetrics{}
		p := NewInstrumentedProvider(inner, m, "stats")

		_, _ = p.FetchGames(context.Background(), 1)
		inner.err = models.ErrProviderUnavailable
		_, err := p.FetchGames(context.Background(), 1)

		So(errors.Is(err, models.ErrProviderUnavailable), ShouldBeTrue)
		So(m.fetches["stats/ok"], ShouldEqual, 1)
		So(m.fetches["stats/error"], ShouldEqual, 1)
		So(m.ops, ShouldResemble, []string{"fetch_games_stats", "fetch_games_stats"})
	})
}

type capturedMessage struct {
	topic string
	key   string
	value interface{}
}

type fakeProducer struct {
	msgs   []capturedMessage
	err    error
	closed bool
}

func (f *fakeProducer) Publish(_ context.Context, topic string, key []byte, value interface{}) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, capturedMessage{topic: topic, key: string(key), value: value})
	return nil
}

func (f *fakeProducer) Close() error {
	f.closed = true
	return nil
}

func TestKafkaMatchupPublisher(t *testing.T) {
	ev := models.MatchupEvent{
		EventID:         "e-1",
		HomeTeamID:      1610612747,
		HomeTeam:        "LAL",
		AwayTeamID:      1610612744,
		AwayTeam:        "GSW",
		HomeProbability: 0.67,
		AwayProbability: 0.33,
		Recommendation:  models.RecommendationStrong,
	}

	Convey("Events are keyed by home team id", t, func() {
		fp := &fakeProducer{}
		pub := NewKafkaMatchupPublisher(fp, "courtedge.matchups")
		So(pub.PublishMatchup(context.Background(), ev), ShouldBeNil)
		So(fp.msgs, ShouldHaveLength, 1)
		So(fp.msgs[0].topic, ShouldEqual, "courtedge.matchups")
		So(fp.msgs[0].key, ShouldEqual, "1610612747")

		b, err := json.Marshal(fp.msgs[0].value)
		So(err, ShouldBeNil)
		So(string(b), ShouldContainSubstring, `"recommendation":"STRONG"`)

		So(pub.Close(), ShouldBeNil)
		So(fp.closed, ShouldBeTrue)
	})

	Convey("Fan-out delivers to every publisher and joins errors", t, func() {
		ok := &fakeProducer{}
		bad := &fakeProducer{err: errors.New("broker down")}
		fan := FanoutPublisher{
			NewKafkaMatchupPublisher(bad, "a"),
			NewKafkaMatchupPublisher(ok, "b"),
		}
		err := fan.PublishMatchup(context.Background(), ev)
		So(err, ShouldNotBeNil)
		So(err.Error(), ShouldContainSubstring, "broker down")
		So(ok.msgs, ShouldHaveLength, 1)

		So(fan.Close(), ShouldBeNil)
		So(ok.closed && bad.closed, ShouldBeTrue)
	})

	Convey("An empty fan-out is a no-op", t, func() {
		So(FanoutPublisher(nil).PublishMatchup(context.Background(), ev), ShouldBeNil)
	})
}

func TestGameStoreSchema(t *testing.T) {
	Convey("The schema creates a replacing table ordered by team and date", t, func() {
		stmts := GameStoreSchema("courtedge", "team_games")
		So(stmts, ShouldHaveLength, 2)
		So(stmts[0], ShouldEqual, "CREATE DATABASE IF NOT EXISTS courtedge")
		So(stmts[1], ShouldContainSubstring, "courtedge.team_games")
		So(stmts[1], ShouldContainSubstring, "ReplacingMergeTree(fetched_at)")
		So(stmts[1], ShouldContainSubstring, "ORDER BY (team_id, game_date, game_id)")
	})
}
