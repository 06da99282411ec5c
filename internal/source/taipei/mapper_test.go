package taipei

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventure/internal/source"
)

const payload = `{
	"total": 2,
	"data": [
		{
			"id": 40211,
			"title": "台北白晝之夜",
			"description": "整夜藝術活動",
			"begin": "2026-10-03 18:00:00",
			"end": "2026-10-04 06:00:00",
			"links": [
				{"subject": "官方網站", "src": "https://example.org/nuit"},
				{"subject": "附件", "src": "see attachment"}
			]
		},
		{
			"id": 40212,
			"title": "date only",
			"begin": "2026-11-01",
			"end": ""
		}
	]
}`

func newTestMapper(t *testing.T, handler http.HandlerFunc) *Mapper {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return New(source.Config{
		BaseURL:        srv.URL,
		Timeout:        time.Second,
		MaxAttempts:    1,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     time.Millisecond,
	}, slog.New(slog.DiscardHandler))
}

func TestFetch(t *testing.T) {
	m := newTestMapper(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "30", r.URL.Query().Get("top"))
		_, _ = w.Write([]byte(payload))
	})

	activities, err := m.Fetch(context.Background(), 30)
	require.NoError(t, err)
	require.Len(t, activities, 2)

	a := activities[0]
	assert.Equal(t, "40211", a.Serno)
	assert.Equal(t, "台北白晝之夜", a.Name)
	assert.Equal(t, time.Date(2026, 10, 3, 18, 0, 0, 0, time.UTC), a.Date.Start)
	assert.Equal(t, time.Date(2026, 10, 4, 6, 0, 0, 0, time.UTC), a.Date.End)
	require.Len(t, a.RelatedLinks, 1, "non-http link dropped")
	assert.Equal(t, "官方網站", a.RelatedLinks[0].Title)

	// date-only begin parses; empty end collapses to begin
	b := activities[1]
	assert.Equal(t, time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC), b.Date.Start)
	assert.Equal(t, b.Date.Start, b.Date.End)
	assert.True(t, !b.Date.End.Before(b.Date.Start))
}

func TestFetchEmptyEnvelope(t *testing.T) {
	m := newTestMapper(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"data": []}`))
	})

	activities, err := m.Fetch(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, activities)
}
