package api

import (
	"fmt"

	"CourtEdge/internal/domain/models"
)

const (
	fatigueTired  = "Back-to-back (fatigue risk)"
	fatigueRested = "Well rested"
)

// TeamView is one side of a rendered matchup.
type TeamView struct {
	Team        models.Team         `json:"team"`
	Snapshot    models.TeamSnapshot `json:"snapshot"`
	WinRate     string              `json:"win_rate"`
	Probability string              `json:"probability"`
	Fatigue     string              `json:"fatigue"`
	Tired       bool                `json:"tired"`
}

// MatchupView is a MatchupReport with display strings attached.
type MatchupView struct {
	Home            TeamView              `json:"home"`
	Away            TeamView              `json:"away"`
	Result          models.MatchupResult  `json:"result"`
	RecommendedTeam models.Team           `json:"recommended_team"`
	Recommendation  models.Recommendation `json:"recommendation"`
	Advice          string                `json:"advice"`
	ComputedAt      string                `json:"computed_at"`
}

func newMatchupView(r models.MatchupReport) MatchupView {
	return MatchupView{
		Home:            newTeamView(r.Home, r.Result.HomeProbability),
		Away:            newTeamView(r.Away, r.Result.AwayProbability),
		Result:          r.Result,
		RecommendedTeam: r.RecommendedTeam,
		Recommendation:  r.Result.Recommendation,
		Advice:          advice(r.Result.Recommendation, r.RecommendedTeam),
		ComputedAt:      r.ComputedAt.Format("2006-01-02 15:04 MST"),
	}
}

func newTeamView(t models.TeamReport, p float64) TeamView {
	fatigue := fatigueRested
	if t.Snapshot.IsBackToBack {
		fatigue = fatigueTired
	}
	return TeamView{
		Team:        t.Team,
		Snapshot:    t.Snapshot,
		WinRate:     percent(t.Snapshot.RecentWinRate),
		Probability: percent(p),
		Fatigue:     fatigue,
		Tired:       t.Snapshot.IsBackToBack,
	}
}

func advice(rec models.Recommendation, team models.Team) string {
	switch rec {
	case models.RecommendationStrong:
		return fmt.Sprintf("Recommended: %s. Clear edge, confident pick.", team.FullName)
	case models.RecommendationLean:
		return fmt.Sprintf("Recommended: %s. Slight edge, small stake.", team.FullName)
	default:
		return "Evenly matched. Consider sitting out or playing the totals market."
	}
}

func percent(p float64) string {
	return fmt.Sprintf("%.1f%%", p*100)
}
