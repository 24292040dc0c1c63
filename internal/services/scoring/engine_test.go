package scoring

import (
	"errors"
	"testing"
	"time"
	_ "time/tzdata"

	"CourtEdge/internal/domain/models"

	. "github.com/smartystreets/goconvey/convey"
)

var refNow = time.Date(2024, time.March, 10, 20, 30, 0, 0, time.UTC)

func day(offset int) time.Time {
	return time.Date(2024, time.March, 10+offset, 0, 0, 0, 0, time.UTC)
}

// history builds a newest-first log; results[i] is true for a win, dated lastOffset-i days from refNow.
func history(lastOffset int, results ...bool) []models.GameRecord {
	games := make([]models.GameRecord, len(results))
	for i, win := range results {
		out := models.OutcomeLoss
		if win {
			out = models.OutcomeWin
		}
		games[i] = models.GameRecord{Date: day(lastOffset - 2*i), Outcome: out}
	}
	return games
}

func record(wins, losses int) []bool {
	out := make([]bool, 0, wins+losses)
	for i := 0; i < wins; i++ {
		out = append(out, true)
	}
	for i := 0; i < losses; i++ {
		out = append(out, false)
	}
	return out
}

func TestSnapshot(t *testing.T) {
	Convey("Given the default engine", t, func() {
		e := New()

		Convey("An empty history is rejected", func() {
			_, err := e.Snapshot(nil, refNow)
			So(errors.Is(err, models.ErrEmptyHistory), ShouldBeTrue)
			So(err.Error(), ShouldEqual, "insufficient history")
		})

		Convey("Only the ten newest games count", func() {
			results := append(record(7, 3), true, true)
			snap, err := e.Snapshot(history(-3, results...), refNow)
			So(err, ShouldBeNil)
			So(snap.GamesConsidered, ShouldEqual, 10)
			So(snap.Wins, ShouldEqual, 7)
			So(snap.RecentWinRate, ShouldAlmostEqual, 0.7, 1e-9)
		})

		Convey("A short history is not padded", func() {
			snap, err := e.Snapshot(history(-3, true, false, true), refNow)
			So(err, ShouldBeNil)
			So(snap.GamesConsidered, ShouldEqual, 3)
			So(snap.RecentWinRate, ShouldAlmostEqual, 0.667, 0.001)
		})

		Convey("The win rate stays within [0, 1]", func() {
			for wins := 0; wins <= 10; wins++ {
				snap, err := e.Snapshot(history(-3, record(wins, 10-wins)...), refNow)
				So(err, ShouldBeNil)
				So(snap.RecentWinRate, ShouldBeBetweenOrEqual, 0, 1)
			}
		})

		Convey("Back-to-back follows the calendar-day gap to now", func() {
			cases := []struct {
				offset int
				want   bool
			}{
				{0, true},
				{-1, true},
				{-2, false},
				{-5, false},
				{1, true},
			}
			for _, tc := range cases {
				snap, err := e.Snapshot([]models.GameRecord{{Date: day(tc.offset), Outcome: models.OutcomeWin}}, refNow)
				So(err, ShouldBeNil)
				So(snap.IsBackToBack, ShouldEqual, tc.want)
				So(snap.LastGameDate, ShouldEqual, day(tc.offset))
			}
		})
	})

	Convey("Given a custom window and fatigue gap", t, func() {
		e := New(WithWindow(3), WithBackToBack(0.08, 0))

		snap, err := e.Snapshot(history(-1, true, true, false, false, false), refNow)
		So(err, ShouldBeNil)
		So(snap.GamesConsidered, ShouldEqual, 3)
		So(snap.RecentWinRate, ShouldAlmostEqual, 2.0/3.0, 1e-9)
		So(snap.IsBackToBack, ShouldBeFalse)
	})
}

func TestScore(t *testing.T) {
	Convey("Given the default engine", t, func() {
		e := New()

		Convey("A rested 8-2 home side against a tired 5-5 visitor is a strong home pick", func() {
			res, err := e.Score(
				models.TeamSnapshot{RecentWinRate: 0.8},
				models.TeamSnapshot{RecentWinRate: 0.5, IsBackToBack: true},
			)
			So(err, ShouldBeNil)
			So(res.HomeScore, ShouldAlmostEqual, 0.85, 1e-9)
			So(res.AwayScore, ShouldAlmostEqual, 0.42, 1e-9)
			So(res.HomeProbability, ShouldAlmostEqual, 0.6693, 0.0001)
			So(res.AwayProbability, ShouldAlmostEqual, 0.3307, 0.0001)
			So(res.Diff, ShouldAlmostEqual, 0.3386, 0.0001)
			So(res.Recommendation, ShouldEqual, models.RecommendationStrong)
			So(res.RecommendedSide, ShouldEqual, models.SideHome)
		})

		Convey("Two rested 5-5 sides are a tossup", func() {
			res, err := e.Score(
				models.TeamSnapshot{RecentWinRate: 0.5},
				models.TeamSnapshot{RecentWinRate: 0.5},
			)
			So(err, ShouldBeNil)
			So(res.Diff, ShouldBeLessThan, 0.05)
			So(res.Recommendation, ShouldEqual, models.RecommendationTossup)
			So(res.RecommendedSide, ShouldEqual, models.SideHome)
		})

		Convey("A moderate gap is a lean", func() {
			res, err := e.Score(
				models.TeamSnapshot{RecentWinRate: 0.6},
				models.TeamSnapshot{RecentWinRate: 0.5},
			)
			So(err, ShouldBeNil)
			So(res.Diff, ShouldAlmostEqual, 0.1304, 0.0001)
			So(res.Recommendation, ShouldEqual, models.RecommendationLean)
		})

		Convey("The away side is picked when it is stronger", func() {
			res, err := e.Score(
				models.TeamSnapshot{RecentWinRate: 0.2, IsBackToBack: true},
				models.TeamSnapshot{RecentWinRate: 0.9},
			)
			So(err, ShouldBeNil)
			So(res.RecommendedSide, ShouldEqual, models.SideAway)
			So(res.Recommendation, ShouldEqual, models.RecommendationStrong)
		})

		Convey("A non-positive combined score fails", func() {
			_, err := e.Score(
				models.TeamSnapshot{RecentWinRate: 0, IsBackToBack: true},
				models.TeamSnapshot{RecentWinRate: 0},
			)
			So(errors.Is(err, models.ErrDegenerateScore), ShouldBeTrue)
			So(err.Error(), ShouldStartWith, "degenerate matchup: non-positive combined score")
		})

		Convey("Probabilities always sum to one", func() {
			for hw := 0; hw <= 10; hw++ {
				for aw := 0; aw <= 10; aw++ {
					for _, hb := range []bool{false, true} {
						for _, ab := range []bool{false, true} {
							res, err := e.Score(
								models.TeamSnapshot{RecentWinRate: float64(hw) / 10, IsBackToBack: hb},
								models.TeamSnapshot{RecentWinRate: float64(aw) / 10, IsBackToBack: ab},
							)
							if err != nil {
								So(errors.Is(err, models.ErrDegenerateScore), ShouldBeTrue)
								continue
							}
							So(res.HomeProbability+res.AwayProbability, ShouldAlmostEqual, 1.0, 1e-9)
						}
					}
				}
			}
		})
	})

	Convey("Given an engine without home bonus", t, func() {
		e := New(WithHomeBonus(0))

		Convey("An exact tie goes to the away side", func() {
			res, err := e.Score(
				models.TeamSnapshot{RecentWinRate: 0.5},
				models.TeamSnapshot{RecentWinRate: 0.5},
			)
			So(err, ShouldBeNil)
			So(res.Diff, ShouldEqual, 0)
			So(res.RecommendedSide, ShouldEqual, models.SideAway)
			So(res.Recommendation, ShouldEqual, models.RecommendationTossup)
		})
	})
}

func TestCalendarDays(t *testing.T) {
	Convey("CalendarDays counts day boundaries, not 24h periods", t, func() {
		So(CalendarDays(day(-1), refNow), ShouldEqual, 1)
		So(CalendarDays(day(-2), refNow), ShouldEqual, 2)
		So(CalendarDays(day(0), refNow), ShouldEqual, 0)
		So(CalendarDays(day(1), refNow), ShouldEqual, -1)
		So(CalendarDays(day(0), day(0).Add(23*time.Hour+59*time.Minute)), ShouldEqual, 0)
	})

	Convey("now is read in the game's location", t, func() {
		ny, err := time.LoadLocation("America/New_York")
		So(err, ShouldBeNil)
		game := time.Date(2024, time.June, 1, 0, 0, 0, 0, ny)
		// 02:00 UTC on June 2 is still June 1 in New York.
		So(CalendarDays(game, time.Date(2024, time.June, 2, 2, 0, 0, 0, time.UTC)), ShouldEqual, 0)
	})
}

func TestSnapshotAcrossDaylightSaving(t *testing.T) {
	Convey("Given games dated in New York across a clock change", t, func() {
		ny, err := time.LoadLocation("America/New_York")
		So(err, ShouldBeNil)
		e := New()
		snapshot := func(game, now time.Time) models.TeamSnapshot {
			snap, err := e.Snapshot([]models.GameRecord{{Date: game, Outcome: models.OutcomeWin}}, now)
			So(err, ShouldBeNil)
			return snap
		}

		Convey("A game two days back is not back-to-back on the short spring day", func() {
			game := time.Date(2024, time.March, 9, 0, 0, 0, 0, ny)
			now := time.Date(2024, time.March, 11, 0, 30, 0, 0, ny)
			So(snapshot(game, now).IsBackToBack, ShouldBeFalse)
		})

		Convey("Yesterday's game is back-to-back late on the long autumn day", func() {
			game := time.Date(2024, time.November, 2, 0, 0, 0, 0, ny)
			now := time.Date(2024, time.November, 3, 23, 30, 0, 0, ny)
			So(snapshot(game, now).IsBackToBack, ShouldBeTrue)
		})

		Convey("A UTC clock is converted before counting days", func() {
			game := time.Date(2024, time.November, 2, 0, 0, 0, 0, ny)
			now := time.Date(2024, time.November, 4, 4, 30, 0, 0, time.UTC) // 23:30 on Nov 3 in New York
			So(snapshot(game, now).IsBackToBack, ShouldBeTrue)
		})
	})
}
