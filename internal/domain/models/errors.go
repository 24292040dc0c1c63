package models

import "errors"

var (
	// ErrEmptyHistory is returned when a team has no game records to score.
	ErrEmptyHistory = errors.New("insufficient history")
	// ErrProviderUnavailable wraps any failure of the game-log source.
	ErrProviderUnavailable = errors.New("game log provider unavailable")
	// ErrDegenerateScore is returned when the combined matchup score is not positive.
	ErrDegenerateScore = errors.New("degenerate matchup: non-positive combined score")
	// ErrTeamNotFound is returned by the team directory for unknown ids or names.
	ErrTeamNotFound = errors.New("team not found")
	// ErrSameTeam is returned when a matchup names one team on both sides.
	ErrSameTeam = errors.New("home and away must be different teams")
)
