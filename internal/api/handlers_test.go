package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventure/internal/apperr"
	"eventure/internal/domain"
	"eventure/internal/service"
)

type stubActivityReader struct {
	activities []domain.Activity
	filters    service.Filters
	err        error
}

func (s *stubActivityReader) Search(ctx context.Context, keyword, language string) ([]domain.Activity, error) {
	return s.activities, s.err
}

func (s *stubActivityReader) Filter(ctx context.Context, filters service.Filters) ([]domain.Activity, error) {
	s.filters = filters
	return s.activities, s.err
}

func (s *stubActivityReader) Cities(ctx context.Context) ([]string, error) {
	return []string{"台北市", "新竹市"}, s.err
}

func (s *stubActivityReader) Districts(ctx context.Context) (map[string][]string, error) {
	return map[string][]string{"台北市": {"全區"}}, s.err
}

func (s *stubActivityReader) Tags(ctx context.Context) ([]string, error) {
	return []string{"音樂", "親子"}, s.err
}

type stubLikeToggler struct {
	sessionID string
	result    service.LikeResult
	err       error
}

func (s *stubLikeToggler) Toggle(ctx context.Context, sessionID, serno string) (service.LikeResult, error) {
	s.sessionID = sessionID
	return s.result, s.err
}

type stubFetchTrigger struct {
	result domain.FetchResult
	err    error
}

func (s *stubFetchTrigger) Trigger(ctx context.Context, count int, requestID string) (domain.FetchResult, error) {
	return s.result, s.err
}

func newTestEcho(activities ActivityReader, likes LikeToggler, fetch FetchTrigger) *echo.Echo {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	e := echo.New()
	e.HTTPErrorHandler = apperr.GlobalErrorHandler(logger)
	NewHandlers(activities, likes, fetch).Bind(e)
	return e
}

func doRequest(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRoot(t *testing.T) {
	e := newTestEcho(&stubActivityReader{}, &stubLikeToggler{}, &stubFetchTrigger{})

	rec := doRequest(e, http.MethodGet, "/", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Eventure API v1")
}

func TestListActivities(t *testing.T) {
	nameEn := "Summer Concert"
	reader := &stubActivityReader{activities: []domain.Activity{{
		Serno:  "a-1",
		Name:   "夏日音樂會",
		NameEn: &nameEn,
		Date: domain.NewDateRange(
			time.Date(2026, 7, 1, 10, 0, 0, 0, time.UTC),
			time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC),
		),
		Tags: []domain.Tag{{Text: "音樂"}},
	}}}
	e := newTestEcho(reader, &stubLikeToggler{}, &stubFetchTrigger{})

	rec := doRequest(e, http.MethodGet, "/api/v1/activities?keyword=音樂", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Activities []struct {
			Serno    string   `json:"serno"`
			Name     string   `json:"name"`
			Tags     []string `json:"tag"`
			Duration float64  `json:"duration"`
		} `json:"activities"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Activities, 1)
	assert.Equal(t, "a-1", body.Activities[0].Serno)
	assert.Equal(t, "夏日音樂會", body.Activities[0].Name)
	assert.Equal(t, []string{"音樂"}, body.Activities[0].Tags)
	assert.Equal(t, 7200.0, body.Activities[0].Duration)
}

func TestListActivitiesEnglishMirror(t *testing.T) {
	nameEn := "Summer Concert"
	reader := &stubActivityReader{activities: []domain.Activity{{
		Serno:  "a-1",
		Name:   "夏日音樂會",
		NameEn: &nameEn,
	}}}
	e := newTestEcho(reader, &stubLikeToggler{}, &stubFetchTrigger{})

	rec := doRequest(e, http.MethodGet, "/api/v1/activities?language=en", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Summer Concert")
}

func TestFilterPassesPayloadThrough(t *testing.T) {
	reader := &stubActivityReader{}
	e := newTestEcho(reader, &stubLikeToggler{}, &stubFetchTrigger{})

	body := `{"filters":{"tag":["音樂"],"city":"台北市","districts":["全區"],"start_date":"2026-07-01","end_date":"2026-07-31"}}`
	rec := doRequest(e, http.MethodPost, "/api/v1/filter", body)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"音樂"}, reader.filters.Tags)
	assert.Equal(t, "台北市", reader.filters.City)
	assert.Equal(t, "2026-07-01", reader.filters.StartDate)
}

func TestFilterBadDateRangeIs400(t *testing.T) {
	reader := &stubActivityReader{err: apperr.NewBadRequest("Start date cannot be later than end date")}
	e := newTestEcho(reader, &stubLikeToggler{}, &stubFetchTrigger{})

	body := `{"filters":{"start_date":"2026-07-31","end_date":"2026-07-01"}}`
	rec := doRequest(e, http.MethodPost, "/api/v1/filter", body)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Start date cannot be later than end date")
}

func TestToggleLike(t *testing.T) {
	likes := &stubLikeToggler{result: service.LikeResult{Serno: "a-1", LikesCount: 5, Liked: true}}
	e := newTestEcho(&stubActivityReader{}, likes, &stubFetchTrigger{})

	rec := doRequest(e, http.MethodPost, "/api/v1/activities/like", `{"serno":"a-1"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"likes_count":5`)
	assert.NotEmpty(t, likes.sessionID)

	// First contact mints a session cookie.
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "session_id", cookies[0].Name)
	assert.Equal(t, likes.sessionID, cookies[0].Value)
}

func TestToggleLikeReusesSessionCookie(t *testing.T) {
	likes := &stubLikeToggler{result: service.LikeResult{Serno: "a-1", LikesCount: 1, Liked: true}}
	e := newTestEcho(&stubActivityReader{}, likes, &stubFetchTrigger{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/activities/like", strings.NewReader(`{"serno":"a-1"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "existing-session"})
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "existing-session", likes.sessionID)
	assert.Empty(t, rec.Result().Cookies())
}

func TestToggleLikeUnknownSernoIs404(t *testing.T) {
	likes := &stubLikeToggler{err: apperr.NewNotFound("Activity not found")}
	e := newTestEcho(&stubActivityReader{}, likes, &stubFetchTrigger{})

	rec := doRequest(e, http.MethodPost, "/api/v1/activities/like", `{"serno":"missing"}`)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestToggleLikeMissingSernoIs400(t *testing.T) {
	e := newTestEcho(&stubActivityReader{}, &stubLikeToggler{}, &stubFetchTrigger{})

	rec := doRequest(e, http.MethodPost, "/api/v1/activities/like", `{}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListCities(t *testing.T) {
	e := newTestEcho(&stubActivityReader{}, &stubLikeToggler{}, &stubFetchTrigger{})

	rec := doRequest(e, http.MethodGet, "/api/v1/cities", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "台北市")
}

func TestListDistricts(t *testing.T) {
	e := newTestEcho(&stubActivityReader{}, &stubLikeToggler{}, &stubFetchTrigger{})

	rec := doRequest(e, http.MethodGet, "/api/v1/districts", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "全區")
}

func TestTriggerFetchProcessingIs202(t *testing.T) {
	fetch := &stubFetchTrigger{result: domain.FetchResult{
		Status:    domain.FetchProcessing,
		RequestID: "req-1",
		Message:   "Fetching activities, 33% complete",
	}}
	e := newTestEcho(&stubActivityReader{}, &stubLikeToggler{}, fetch)

	rec := doRequest(e, http.MethodGet, "/api/v1/fetch?top=50", "")

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"processing"`)
	assert.Contains(t, rec.Body.String(), "req-1")
}

func TestTriggerFetchDegradedIs200(t *testing.T) {
	fetch := &stubFetchTrigger{result: domain.FetchResult{
		Status:    domain.FetchDegraded,
		RequestID: "req-2",
		Message:   "Cannot fetch tainan activities",
	}}
	e := newTestEcho(&stubActivityReader{}, &stubLikeToggler{}, fetch)

	rec := doRequest(e, http.MethodGet, "/api/v1/fetch", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"degraded"`)
}

func TestTriggerFetchInvalidTopIs400(t *testing.T) {
	e := newTestEcho(&stubActivityReader{}, &stubLikeToggler{}, &stubFetchTrigger{})

	rec := doRequest(e, http.MethodGet, "/api/v1/fetch?top=zero", "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
