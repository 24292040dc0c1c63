package models

import "time"

// Outcome is the result of a completed game from one team's perspective.
type Outcome string

const (
	OutcomeWin  Outcome = "WIN"
	OutcomeLoss Outcome = "LOSS"
)

// ParseOutcome maps the upstream WL column ("W"/"L") to an Outcome.
func ParseOutcome(wl string) (Outcome, bool) {
	switch wl {
	case "W", "w", string(OutcomeWin):
		return OutcomeWin, true
	case "L", "l", string(OutcomeLoss):
		return OutcomeLoss, true
	default:
		return "", false
	}
}

// GameRecord is one completed game in a team's log.
type GameRecord struct {
	GameID  string    `json:"game_id,omitempty"`
	Date    time.Time `json:"date"`
	Outcome Outcome   `json:"outcome"`
	Matchup string    `json:"matchup,omitempty"`
}

// IsWin reports whether the game was won.
func (g GameRecord) IsWin() bool { return g.Outcome == OutcomeWin }

// Team is a directory entry.
type Team struct {
	ID           int64  `json:"id" yaml:"id"`
	Abbreviation string `json:"abbreviation" yaml:"abbreviation"`
	Nickname     string `json:"nickname" yaml:"nickname"`
	City         string `json:"city" yaml:"city"`
	State        string `json:"state" yaml:"state"`
	FullName     string `json:"full_name" yaml:"full_name"`
	YearFounded  int    `json:"year_founded" yaml:"year_founded"`
}
