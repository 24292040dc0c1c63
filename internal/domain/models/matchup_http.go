package models

// Requests for matchup HTTP endpoints. Zero ids are filled from the UI defaults by the handler.

type MatchupRequest struct {
	Home int64 `query:"home" json:"home" validate:"omitempty,gt=0"`
	Away int64 `query:"away" json:"away" validate:"omitempty,gt=0"`
}

type PageRequest struct {
	Home    int64 `query:"home" json:"home" validate:"omitempty,gt=0"`
	Away    int64 `query:"away" json:"away" validate:"omitempty,gt=0"`
	Analyze bool  `query:"analyze" json:"analyze"`
}

type FeedRequest struct {
	Team string `query:"team" json:"team" default:"*"`
}
