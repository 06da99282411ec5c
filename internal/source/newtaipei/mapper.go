package newtaipei

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

const (
	SourceName = "new_taipei"

	// activeDate / activeEndDate come as 1/24/2026
	dateLayout = "1/2/2006"
)

// Record is one row of the New Taipei dataset API, a bare top-level array.
type Record struct {
	ID            json.Number `json:"id"`
	Title         string      `json:"title"`
	Description   string      `json:"description"`
	ActiveDate    string      `json:"activeDate"`
	ActiveEndDate string      `json:"activeEndDate"`
	Address       string      `json:"address"`
	Author        string      `json:"author"`
	ClassName     string      `json:"className"`
	AboutURL      string      `json:"aboutUrl"`
}

// Mapper maps the New Taipei activity dataset. Dates are day-granular
// (M/D/YYYY) and a missing end date inherits the start.
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
	url := fmt.Sprintf("%s?page=0&size=%d", m.baseURL, count)

	var records []Record
	if err := m.client.GetJSON(ctx, SourceName, url, &records); err != nil {
		return nil, err
	}

	return m.transform(records), nil
}

func (m *Mapper) transform(records []Record) []domain.Activity {
	activities := make([]domain.Activity, 0, len(records))

	for _, r := range records {
		start, err := time.Parse(dateLayout, strings.TrimSpace(r.ActiveDate))
		if err != nil {
			m.logger.Warn("skipping record with unparseable start date",
				"serno", r.ID.String(),
				"raw", r.ActiveDate,
			)
			continue
		}

		var end time.Time
		if raw := strings.TrimSpace(r.ActiveEndDate); raw != "" {
			end, err = time.Parse(dateLayout, raw)
			if err != nil {
				end = start
			}
		}

		activity := domain.Activity{
			Serno:     r.ID.String(),
			Name:      r.Title,
			Detail:    r.Description,
			Organizer: r.Author,
			Voice:     r.Description,
			Location:  domain.Location{Building: r.Address},
			Date:      domain.NewDateRange(start, end),
		}

		if r.ClassName != "" {
			activity.Tags = []domain.Tag{{Text: r.ClassName}}
		}
		if strings.HasPrefix(r.AboutURL, "http") {
			activity.RelatedLinks = []domain.RelatedLink{{URL: r.AboutURL}}
		}

		activities = append(activities, activity)
	}

	return activities
}
