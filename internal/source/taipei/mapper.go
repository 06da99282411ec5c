package taipei

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"eventure/internal/domain"
	"eventure/internal/source"
)

const SourceName = "taipei"

// begin/end are loosely ISO formatted, with and without the T separator.
var dateLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// Envelope wraps the Taipei travel calendar response; records sit under
// the "data" key.
type Envelope struct {
	Data []Record `json:"data"`
}

type Record struct {
	ID          json.Number `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Begin       string      `json:"begin"`
	End         string      `json:"end"`
	Links       []Link      `json:"links"`
}

type Link struct {
	Subject string `json:"subject"`
	Src     string `json:"src"`
}

// Mapper maps the Taipei city event calendar. The feed carries no venue,
// organizer or category information.
type Mapper struct {
	client  *source.Client
	baseURL string
	logger  *slog.Logger
}

func New(cfg source.Config, logger *slog.Logger) *Mapper {
	return &Mapper{
		client:  source.NewClient(cfg, logger),
		baseURL: cfg.BaseURL,
		logger:  logger.With("source", SourceName),
	}
}

func (m *Mapper) Name() string {
	return SourceName
}

func (m *Mapper) Fetch(ctx context.Context, count int) ([]domain.Activity, error) {
	url := fmt.Sprintf("%s?top=%d", m.baseURL, count)

	var envelope Envelope
	if err := m.client.GetJSON(ctx, SourceName, url, &envelope); err != nil {
		return nil, err
	}

	return m.transform(envelope.Data), nil
}

func (m *Mapper) transform(records []Record) []domain.Activity {
	activities := make([]domain.Activity, 0, len(records))

	for _, r := range records {
		start, err := parseDate(r.Begin)
		if err != nil {
			m.logger.Warn("skipping record with unparseable start date",
				"serno", r.ID.String(),
				"raw", r.Begin,
			)
			continue
		}

		end, err := parseDate(r.End)
		if err != nil {
			end = start
		}

		activities = append(activities, domain.Activity{
			Serno:        r.ID.String(),
			Name:         r.Title,
			Detail:       r.Description,
			Voice:        r.Description,
			Location:     domain.Location{},
			Date:         domain.NewDateRange(start, end),
			RelatedLinks: parseLinks(r.Links),
		})
	}

	return activities
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	var lastErr error
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, raw)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

func parseLinks(links []Link) []domain.RelatedLink {
	var out []domain.RelatedLink
	for _, l := range links {
		if !strings.HasPrefix(l.Src, "http") {
			continue
		}
		out = append(out, domain.RelatedLink{Title: l.Subject, URL: l.Src})
	}
	return out
}
