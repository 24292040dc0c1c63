// Package scoring computes team snapshots and home/away matchup probabilities.
package scoring

import (
	"fmt"
	"math"
	"time"

	"CourtEdge/internal/domain/models"
)

const (
	DefaultWindow          = 10
	DefaultHomeBonus       = 0.05
	DefaultBackToBackCost  = 0.08
	DefaultBackToBackDays  = 1
	DefaultStrongThreshold = 0.15
	DefaultLeanThreshold   = 0.05
)

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithWindow sets how many of the newest games feed the win rate.
func WithWindow(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.window = n
		}
	}
}

// WithHomeBonus sets the additive home-court bonus.
func WithHomeBonus(bonus float64) Option {
	return func(e *Engine) { e.homeBonus = bonus }
}

// WithBackToBack sets the fatigue penalty and the day gap that triggers it.
func WithBackToBack(penalty float64, maxDays int) Option {
	return func(e *Engine) {
		e.b2bPenalty = penalty
		if maxDays >= 0 {
			e.b2bDays = maxDays
		}
	}
}

// WithThresholds sets the STRONG and LEAN probability gaps.
func WithThresholds(strong, lean float64) Option {
	return func(e *Engine) {
		if strong >= lean && lean >= 0 {
			e.strong = strong
			e.lean = lean
		}
	}
}

// Engine is stateless after construction and safe for concurrent use.
type Engine struct {
	window     int
	homeBonus  float64
	b2bPenalty float64
	b2bDays    int
	strong     float64
	lean       float64
}

// New creates an Engine with the default weights.
func New(opts ...Option) *Engine {
	e := &Engine{
		window:     DefaultWindow,
		homeBonus:  DefaultHomeBonus,
		b2bPenalty: DefaultBackToBackCost,
		b2bDays:    DefaultBackToBackDays,
		strong:     DefaultStrongThreshold,
		lean:       DefaultLeanThreshold,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Window returns the number of games considered per snapshot.
func (e *Engine) Window() int { return e.window }

// Snapshot derives recent form from games ordered newest first.
func (e *Engine) Snapshot(games []models.GameRecord, now time.Time) (models.TeamSnapshot, error) {
	if len(games) == 0 {
		return models.TeamSnapshot{}, models.ErrEmptyHistory
	}

	recent := games
	if len(recent) > e.window {
		recent = recent[:e.window]
	}

	wins := 0
	for _, g := range recent {
		if g.IsWin() {
			wins++
		}
	}

	last := games[0].Date
	return models.TeamSnapshot{
		RecentWinRate:   float64(wins) / float64(len(recent)),
		IsBackToBack:    CalendarDays(last, now) <= e.b2bDays,
		GamesConsidered: len(recent),
		Wins:            wins,
		LastGameDate:    last,
	}, nil
}

// Score compares two snapshots. A non-positive combined score is rejected.
func (e *Engine) Score(home, away models.TeamSnapshot) (models.MatchupResult, error) {
	homeScore := home.RecentWinRate + e.homeBonus
	if home.IsBackToBack {
		homeScore -= e.b2bPenalty
	}
	awayScore := away.RecentWinRate
	if away.IsBackToBack {
		awayScore -= e.b2bPenalty
	}

	total := homeScore + awayScore
	if total <= 0 {
		return models.MatchupResult{}, fmt.Errorf("%w (home=%.4f away=%.4f)", models.ErrDegenerateScore, homeScore, awayScore)
	}

	homeP := homeScore / total
	awayP := awayScore / total
	diff := math.Abs(homeP - awayP)

	side := models.SideAway
	if homeP > awayP {
		side = models.SideHome
	}

	return models.MatchupResult{
		HomeScore:       homeScore,
		AwayScore:       awayScore,
		HomeProbability: homeP,
		AwayProbability: awayP,
		Diff:            diff,
		Recommendation:  e.tier(diff),
		RecommendedSide: side,
	}, nil
}

func (e *Engine) tier(diff float64) models.Recommendation {
	switch {
	case diff > e.strong:
		return models.RecommendationStrong
	case diff > e.lean:
		return models.RecommendationLean
	default:
		return models.RecommendationTossup
	}
}

// CalendarDays counts the calendar days between two instants, both read in
// from's location. Negative when to falls on an earlier day.
func CalendarDays(from, to time.Time) int {
	to = to.In(from.Location())
	a := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	b := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a) / (24 * time.Hour))
}
