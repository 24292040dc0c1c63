// Package statsapi fetches team game logs from the NBA stats site.
package statsapi

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"CourtEdge/internal/domain/models"
	"CourtEdge/internal/domain/repository"
	smetrics "CourtEdge/internal/service/metrics"
	xhttp "CourtEdge/pkg/http"
	"CourtEdge/pkg/util"
)

const (
	gameFinderEndpoint = "leaguegamefinder"
	gameFinderSet      = "LeagueGameFinderResults"

	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// The stats site rejects requests that do not look like they come from nba.com.
var browserHeaders = map[string]string{
	"Accept":             "application/json, text/plain, */*",
	"Accept-Language":    "en-US,en;q=0.9",
	"Origin":             "https://www.nba.com",
	"Referer":            "https://www.nba.com/",
	"x-nba-stats-origin": "stats",
	"x-nba-stats-token":  "true",
}

// Option configures Client.
type Option func(*Client)

// WithSeason restricts results to one season ("2023-24") and season type ("Regular Season").
func WithSeason(season, seasonType string) Option {
	return func(c *Client) {
		c.season = season
		c.seasonType = seasonType
	}
}

// WithLeague sets the league id ("00" is the NBA).
func WithLeague(id string) Option {
	return func(c *Client) {
		if id != "" {
			c.leagueID = id
		}
	}
}

// WithLocation sets the zone game dates are interpreted in.
func WithLocation(loc *time.Location) Option {
	return func(c *Client) {
		if loc != nil {
			c.loc = loc
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *xhttp.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// Client implements repository.GameLogProvider against stats.nba.com.
// It never retries: the first failure is returned.
type Client struct {
	baseURL    string
	leagueID   string
	season     string
	seasonType string
	loc        *time.Location
	http       *xhttp.Client
}

var _ repository.GameLogProvider = (*Client)(nil)

// New creates a stats API client. timeout 0 means no client-side timeout.
func New(baseURL string, timeout time.Duration, userAgent string, extraHeaders map[string]string, opts ...Option) *Client {
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	headers := make(map[string]string, len(browserHeaders)+len(extraHeaders)+1)
	for k, v := range browserHeaders {
		headers[k] = v
	}
	headers["User-Agent"] = userAgent
	for k, v := range extraHeaders {
		headers[k] = v
	}

	c := &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		leagueID: "00",
		loc:      time.UTC,
		http:     xhttp.NewClient(xhttp.WithTimeout(timeout), xhttp.WithHeaders(headers)),
	}
	for _, opt := range opts {
		opt(c)
	}
	smetrics.Register()
	return c
}

// FetchGames returns every completed game of the team, newest first.
func (c *Client) FetchGames(ctx context.Context, teamID int64) ([]models.GameRecord, error) {
	start := time.Now()
	defer func() {
		smetrics.UpstreamLatency.WithLabelValues(gameFinderEndpoint).Observe(time.Since(start).Seconds())
	}()

	params := map[string][]string{
		"PlayerOrTeam": {"T"},
		"TeamID":       {strconv.FormatInt(teamID, 10)},
		"LeagueID":     {c.leagueID},
	}
	if c.season != "" {
		params["Season"] = []string{c.season}
	}
	if c.seasonType != "" {
		params["SeasonType"] = []string{c.seasonType}
	}

	var resp gameFinderResponse
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:      xhttp.MethodGet,
		URL:         c.baseURL + "/" + gameFinderEndpoint,
		QueryParams: params,
	}, &resp)
	if err != nil {
		smetrics.UpstreamErrors.WithLabelValues(gameFinderEndpoint, failureReason(err)).Inc()
		return nil, fmt.Errorf("%w: team %d: %v", models.ErrProviderUnavailable, teamID, err)
	}

	games, err := resp.games(c.loc)
	if err != nil {
		smetrics.UpstreamErrors.WithLabelValues(gameFinderEndpoint, "payload").Inc()
		return nil, fmt.Errorf("%w: team %d: %v", models.ErrProviderUnavailable, teamID, err)
	}
	return games, nil
}

func failureReason(err error) string {
	var se *xhttp.StatusError
	switch {
	case errors.As(err, &se):
		return "status_" + strconv.Itoa(se.StatusCode)
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case strings.Contains(err.Error(), "decode json"):
		return "payload"
	default:
		return "transport"
	}
}

type resultSet struct {
	Name    string          `json:"name"`
	Headers []string        `json:"headers"`
	RowSet  [][]interface{} `json:"rowSet"`
}

type gameFinderResponse struct {
	ResultSets []resultSet `json:"resultSets"`
}

func (r gameFinderResponse) games(loc *time.Location) ([]models.GameRecord, error) {
	set, ok := r.pick()
	if !ok {
		return nil, fmt.Errorf("response has no result sets")
	}

	col := make(map[string]int, len(set.Headers))
	for i, h := range set.Headers {
		col[strings.ToUpper(h)] = i
	}
	dateIdx, okDate := col["GAME_DATE"]
	wlIdx, okWL := col["WL"]
	if !okDate || !okWL {
		return nil, fmt.Errorf("result set %q lacks GAME_DATE/WL columns", set.Name)
	}
	idIdx, hasID := col["GAME_ID"]
	matchupIdx, hasMatchup := col["MATCHUP"]

	games := make([]models.GameRecord, 0, len(set.RowSet))
	for n, row := range set.RowSet {
		wl := maybe[string](cell(row, wlIdx))
		if wl == nil {
			// game not final yet
			continue
		}
		outcome, ok := models.ParseOutcome(*wl)
		if !ok {
			continue
		}
		rawDate := maybe[string](cell(row, dateIdx))
		if rawDate == nil {
			return nil, fmt.Errorf("row %d: missing GAME_DATE", n)
		}
		date, err := util.ParseGameDate(*rawDate, loc)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", n, err)
		}

		g := models.GameRecord{Date: date, Outcome: outcome}
		if hasID {
			if id := maybe[string](cell(row, idIdx)); id != nil {
				g.GameID = *id
			}
		}
		if hasMatchup {
			if m := maybe[string](cell(row, matchupIdx)); m != nil {
				g.Matchup = *m
			}
		}
		games = append(games, g)
	}

	sort.SliceStable(games, func(i, j int) bool { return games[i].Date.After(games[j].Date) })
	return games, nil
}

func (r gameFinderResponse) pick() (resultSet, bool) {
	for _, s := range r.ResultSets {
		if s.Name == gameFinderSet {
			return s, true
		}
	}
	if len(r.ResultSets) > 0 {
		return r.ResultSets[0], true
	}
	return resultSet{}, false
}

func cell(row []interface{}, i int) interface{} {
	if i < 0 || i >= len(row) {
		return nil
	}
	return row[i]
}

func maybe[T any](x any) *T {
	if v, ok := x.(T); ok {
		return &v
	}
	return nil
}
