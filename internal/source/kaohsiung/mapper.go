package kaohsiung

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"eventure/internal/domain"
	"eventure/internal/source"
)

const (
	SourceName = "kaohsiung"
	cityName   = "高雄市"

	// Start / End come as 2026/11/21 19:30
	dateLayout = "2006/01/02 15:04"
)

// Envelope wraps the Kaohsiung response; records sit under the "Data" key.
type Envelope struct {
	Data []Record `json:"Data"`
}

type Record struct {
	ID    json.Number `json:"Id"`
	Name  string      `json:"Name"`
	Start string      `json:"Start"`
	End   string      `json:"End"`
	Add   string      `json:"Add"`
	Org   string      `json:"Org"`
}

// Mapper maps the Kaohsiung activity feed. The feed carries no detail
// text, categories or links.
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

func (m *Mapper) Fetch(ctx context.Context, _ int) ([]domain.Activity, error) {
	var envelope Envelope
	if err := m.client.GetJSON(ctx, SourceName, m.baseURL, &envelope); err != nil {
		return nil, err
	}

	return m.transform(envelope.Data), nil
}

func (m *Mapper) transform(records []Record) []domain.Activity {
	activities := make([]domain.Activity, 0, len(records))

	for _, r := range records {
		start, err := time.Parse(dateLayout, r.Start)
		if err != nil {
			m.logger.Warn("skipping record with unparseable start date",
				"serno", r.ID.String(),
				"raw", r.Start,
			)
			continue
		}

		end, err := time.Parse(dateLayout, r.End)
		if err != nil {
			end = start
		}

		activities = append(activities, domain.Activity{
			Serno:     r.ID.String(),
			Name:      r.Name,
			Organizer: r.Org,
			Location: domain.Location{
				Building: domain.NormalizeBuilding(r.Add, cityName),
				CityName: cityName,
			},
			Date: domain.NewDateRange(start, end),
		})
	}

	return activities
}
