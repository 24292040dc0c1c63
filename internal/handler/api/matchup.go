package api

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"html/template"
	"net/http"

	"CourtEdge/internal/domain/models"
	xhttp "CourtEdge/pkg/http"
	"CourtEdge/pkg/http/middleware"
	xlogger "CourtEdge/pkg/logger"

	"github.com/labstack/echo/v4"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

// MatchupService is what the handler needs from the use case.
type MatchupService interface {
	Teams(ctx context.Context) ([]models.Team, error)
	Analyze(ctx context.Context, homeID, awayID int64) (models.MatchupReport, error)
}

// PageConfig controls the UI page.
type PageConfig struct {
	Title            string
	DefaultHomeIndex int
	DefaultAwayIndex int
	FeedEnabled      bool
}

type MatchupHandler struct {
	logger  *xlogger.Logger
	svc     MatchupService
	limiter middleware.Limiter
	page    PageConfig
}

// NewMatchupHandler builds the handler. A nil limiter disables rate limiting.
func NewMatchupHandler(logger *xlogger.Logger, svc MatchupService, limiter middleware.Limiter, page PageConfig) *MatchupHandler {
	return &MatchupHandler{logger: logger, svc: svc, limiter: limiter, page: page}
}

func (h *MatchupHandler) RegisterRoutes(e *echo.Echo) {
	limit := middleware.RateLimit(h.limiter)
	e.GET("/", h.Page, limit)
	g := e.Group("/api")
	g.GET("/teams", h.Teams)
	g.GET("/matchup", h.Matchup, limit)
}

type teamsResponse struct {
	Teams         []models.Team `json:"teams"`
	DefaultHomeID int64         `json:"default_home_id"`
	DefaultAwayID int64         `json:"default_away_id"`
}

func (h *MatchupHandler) Teams(c echo.Context) error {
	teams, err := h.svc.Teams(c.Request().Context())
	if err != nil {
		h.logger.Error("list teams error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, toAppError(err))
	}
	home, away := h.defaults(teams)
	c.Response().Header().Set(echo.HeaderCacheControl, "public, max-age=3600")
	return xhttp.SuccessResponse(c, teamsResponse{Teams: teams, DefaultHomeID: home, DefaultAwayID: away})
}

func (h *MatchupHandler) Matchup(c echo.Context) error {
	req := &models.MatchupRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	ctx := c.Request().Context()
	if req.Home == 0 || req.Away == 0 {
		teams, err := h.svc.Teams(ctx)
		if err != nil {
			return xhttp.AppErrorResponse(c, toAppError(err))
		}
		home, away := h.defaults(teams)
		if req.Home == 0 {
			req.Home = home
		}
		if req.Away == 0 {
			req.Away = away
		}
	}

	report, err := h.svc.Analyze(ctx, req.Home, req.Away)
	if err != nil {
		h.logger.Warn("matchup usecase error",
			xlogger.Int64("home", req.Home),
			xlogger.Int64("away", req.Away),
			xlogger.Error(err),
		)
		return xhttp.AppErrorResponse(c, toAppError(err))
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "no-store")
	return xhttp.SuccessResponse(c, newMatchupView(report))
}

type pageData struct {
	Title       string
	Teams       []models.Team
	HomeID      int64
	AwayID      int64
	Analyzed    bool
	Matchup     *MatchupView
	Error       string
	FeedEnabled bool
}

// Page renders the selector form and, with analyze=1, the result or the error.
func (h *MatchupHandler) Page(c echo.Context) error {
	req := &models.PageRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	ctx := c.Request().Context()
	teams, err := h.svc.Teams(ctx)
	if err != nil {
		h.logger.Error("list teams error", xlogger.Error(err))
		return xhttp.InternalServerErrorResponse(c)
	}

	data := pageData{Title: h.page.Title, Teams: teams, FeedEnabled: h.page.FeedEnabled}
	data.HomeID, data.AwayID = h.defaults(teams)
	if req.Home != 0 {
		data.HomeID = req.Home
	}
	if req.Away != 0 {
		data.AwayID = req.Away
	}

	status := http.StatusOK
	if req.Analyze {
		data.Analyzed = true
		report, err := h.svc.Analyze(ctx, data.HomeID, data.AwayID)
		if err != nil {
			appErr := toAppError(err)
			status = appErr.Status
			data.Error = appErr.Message
		} else {
			v := newMatchupView(report)
			data.Matchup = &v
		}
	}

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		h.logger.Error("render page error", xlogger.Error(err))
		return xhttp.InternalServerErrorResponse(c)
	}
	return c.HTMLBlob(status, buf.Bytes())
}

// defaults picks the configured list positions, falling back to the first two teams.
func (h *MatchupHandler) defaults(teams []models.Team) (home, away int64) {
	pick := func(idx, fallback int) int64 {
		if idx >= 0 && idx < len(teams) {
			return teams[idx].ID
		}
		if fallback < len(teams) {
			return teams[fallback].ID
		}
		return 0
	}
	return pick(h.page.DefaultHomeIndex, 0), pick(h.page.DefaultAwayIndex, 1)
}

func toAppError(err error) *xhttp.AppError {
	var appErr *xhttp.AppError
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, models.ErrSameTeam):
		return xhttp.BadRequestErrorf("%s", models.ErrSameTeam.Error()).WithError(err)
	case errors.Is(err, models.ErrTeamNotFound):
		return xhttp.NotFoundErrorf("%s", err.Error()).WithError(err)
	case errors.Is(err, models.ErrEmptyHistory):
		return xhttp.UnprocessableError("ERR_INSUFFICIENT_HISTORY", err.Error()).WithError(err)
	case errors.Is(err, models.ErrDegenerateScore):
		return xhttp.UnprocessableError("ERR_DEGENERATE_MATCHUP", models.ErrDegenerateScore.Error()).WithError(err)
	case errors.Is(err, models.ErrProviderUnavailable):
		return xhttp.BadGatewayError("ERR_PROVIDER_UNAVAILABLE", "game data unavailable, try again later").WithError(err)
	default:
		return xhttp.InternalError("Something went wrong").WithError(err)
	}
}
