package models

import "time"

// Recommendation is the confidence tier of a matchup pick.
type Recommendation string

const (
	RecommendationStrong Recommendation = "STRONG"
	RecommendationLean   Recommendation = "LEAN"
	RecommendationTossup Recommendation = "TOSSUP"
)

// Side identifies the home or away team of a matchup.
type Side string

const (
	SideHome Side = "HOME"
	SideAway Side = "AWAY"
)

// TeamSnapshot is the derived recent form of a team at a point in time.
type TeamSnapshot struct {
	RecentWinRate   float64   `json:"recent_win_rate"`
	IsBackToBack    bool      `json:"is_back_to_back"`
	GamesConsidered int       `json:"games_considered"`
	Wins            int       `json:"wins"`
	LastGameDate    time.Time `json:"last_game_date"`
}

// MatchupResult is the scored comparison of two snapshots.
type MatchupResult struct {
	HomeScore       float64        `json:"home_score"`
	AwayScore       float64        `json:"away_score"`
	HomeProbability float64        `json:"home_probability"`
	AwayProbability float64        `json:"away_probability"`
	Diff            float64        `json:"diff"`
	Recommendation  Recommendation `json:"recommendation"`
	RecommendedSide Side           `json:"recommended_side"`
}

// TeamReport pairs a team with its snapshot.
type TeamReport struct {
	Team     Team         `json:"team"`
	Snapshot TeamSnapshot `json:"snapshot"`
}

// MatchupReport is the full answer for one home/away request.
type MatchupReport struct {
	Home            TeamReport    `json:"home"`
	Away            TeamReport    `json:"away"`
	Result          MatchupResult `json:"result"`
	RecommendedTeam Team          `json:"recommended_team"`
	ComputedAt      time.Time     `json:"computed_at"`
}

// MatchupEvent is published after a matchup has been computed.
type MatchupEvent struct {
	EventID           string         `json:"event_id"`
	ComputedAt        time.Time      `json:"computed_at"`
	HomeTeamID        int64          `json:"home_team_id"`
	HomeTeam          string         `json:"home_team"`
	AwayTeamID        int64          `json:"away_team_id"`
	AwayTeam          string         `json:"away_team"`
	HomeProbability   float64        `json:"home_probability"`
	AwayProbability   float64        `json:"away_probability"`
	Recommendation    Recommendation `json:"recommendation"`
	RecommendedTeamID int64          `json:"recommended_team_id"`
}
