package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"eventure/internal/apperr"
	"eventure/internal/domain"
	"eventure/internal/service"
)

const (
	sessionCookie   = "session_id"
	defaultFetchTop = 100
)

type ActivityReader interface {
	Search(ctx context.Context, keyword, language string) ([]domain.Activity, error)
	Filter(ctx context.Context, filters service.Filters) ([]domain.Activity, error)
	Cities(ctx context.Context) ([]string, error)
	Districts(ctx context.Context) (map[string][]string, error)
	Tags(ctx context.Context) ([]string, error)
}

type LikeToggler interface {
	Toggle(ctx context.Context, sessionID, serno string) (service.LikeResult, error)
}

type FetchTrigger interface {
	Trigger(ctx context.Context, count int, requestID string) (domain.FetchResult, error)
}

// Handlers binds the HTTP surface to the services.
type Handlers struct {
	activities ActivityReader
	likes      LikeToggler
	fetch      FetchTrigger
}

func NewHandlers(activities ActivityReader, likes LikeToggler, fetch FetchTrigger) *Handlers {
	return &Handlers{
		activities: activities,
		likes:      likes,
		fetch:      fetch,
	}
}

func (h *Handlers) Bind(e *echo.Echo) {
	e.GET("/", h.root)

	v1 := e.Group("/api/v1")
	v1.GET("/activities", h.listActivities)
	v1.POST("/activities/like", h.toggleLike)
	v1.POST("/filter", h.filterActivities)
	v1.GET("/cities", h.listCities)
	v1.GET("/districts", h.listDistricts)
	v1.GET("/tags", h.listTags)
	v1.GET("/fetch", h.triggerFetch)
}

func (h *Handlers) root(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "ok",
		"message": "Eventure API v1",
	})
}

func (h *Handlers) listActivities(c echo.Context) error {
	keyword := c.QueryParam("keyword")
	language := c.QueryParam("language")

	activities, err := h.activities.Search(c.Request().Context(), keyword, language)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{
		"activities": renderActivities(activities, language),
	})
}

type filterRequest struct {
	Filters struct {
		Tag       []string `json:"tag"`
		City      string   `json:"city"`
		Districts []string `json:"districts"`
		StartDate string   `json:"start_date"`
		EndDate   string   `json:"end_date"`
		Language  string   `json:"language"`
	} `json:"filters"`
}

func (h *Handlers) filterActivities(c echo.Context) error {
	var req filterRequest
	if err := c.Bind(&req); err != nil {
		return apperr.NewBadRequestWrap("invalid filter payload", err)
	}

	filters := service.Filters{
		Tags:      req.Filters.Tag,
		City:      req.Filters.City,
		Districts: req.Filters.Districts,
		StartDate: req.Filters.StartDate,
		EndDate:   req.Filters.EndDate,
		Language:  req.Filters.Language,
	}

	activities, err := h.activities.Filter(c.Request().Context(), filters)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{
		"activities": renderActivities(activities, filters.Language),
	})
}

type likeRequest struct {
	Serno string `json:"serno"`
}

func (h *Handlers) toggleLike(c echo.Context) error {
	var req likeRequest
	if err := c.Bind(&req); err != nil {
		return apperr.NewBadRequestWrap("invalid like payload", err)
	}
	if req.Serno == "" {
		return apperr.NewBadRequest("serno is required")
	}

	sessionID := h.sessionID(c)

	result, err := h.likes.Toggle(c.Request().Context(), sessionID, req.Serno)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, result)
}

// sessionID reads the session cookie, minting one on first contact so
// like toggles stay stable per browser.
func (h *Handlers) sessionID(c echo.Context) string {
	if cookie, err := c.Cookie(sessionCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	id := uuid.NewString()
	c.SetCookie(&http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

func (h *Handlers) listCities(c echo.Context) error {
	cities, err := h.activities.Cities(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"cities": cities})
}

func (h *Handlers) listDistricts(c echo.Context) error {
	districts, err := h.activities.Districts(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"districts": districts})
}

func (h *Handlers) listTags(c echo.Context) error {
	tags, err := h.activities.Tags(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"tags": tags})
}

func (h *Handlers) triggerFetch(c echo.Context) error {
	top := defaultFetchTop
	if raw := c.QueryParam("top"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			return apperr.NewBadRequest("top must be a positive integer")
		}
		top = parsed
	}

	result, err := h.fetch.Trigger(c.Request().Context(), top, c.QueryParam("request_id"))
	if err != nil {
		return err
	}

	status := http.StatusOK
	if result.Status == domain.FetchProcessing {
		status = http.StatusAccepted
	}

	return c.JSON(status, map[string]string{
		"status":     string(result.Status),
		"request_id": result.RequestID,
		"message":    result.Message,
	})
}
