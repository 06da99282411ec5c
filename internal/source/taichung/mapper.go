package taichung

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"eventure/internal/domain"
	"eventure/internal/source"
)

const (
	SourceName = "taichung"
	cityName   = "台中市"
)

var dateLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006/01/02 15:04",
	"2006-01-02",
	"2006/01/02",
}

// Record is one row of the Taichung open-data feed. Keys carry a Chinese
// annotation in parentheses, and the location field is a JSON document
// embedded in a string.
type Record struct {
	ID            json.Number `json:"Id(編號)"`
	Title         string      `json:"title(活動名稱)"`
	Content       string      `json:"content(內容)"`
	ActivityStart string      `json:"activitystart(活動起日)"`
	ActivityClose string      `json:"activityclose(活動迄日)"`
	Location      string      `json:"location(座標資訊)"`
	MainUnit      string      `json:"mainunit(主辦單位)"`
	Attribute     string      `json:"attribute(活動類型)"`
	RelatedLink   string      `json:"relatedLink(相關連結)"`
}

type locationPayload struct {
	Address string `json:"address"`
}

// Mapper maps the Taichung activity feed. The endpoint takes no paging
// parameter and returns a bare array.
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
	var records []Record
	if err := m.client.GetJSON(ctx, SourceName, m.baseURL, &records); err != nil {
		return nil, err
	}

	return m.transform(records), nil
}

func (m *Mapper) transform(records []Record) []domain.Activity {
	activities := make([]domain.Activity, 0, len(records))

	for _, r := range records {
		start, err := parseDate(r.ActivityStart)
		if err != nil {
			m.logger.Warn("skipping record with unparseable start date",
				"serno", r.ID.String(),
				"raw", r.ActivityStart,
			)
			continue
		}

		end, err := parseDate(r.ActivityClose)
		if err != nil {
			end = start
		}

		activity := domain.Activity{
			Serno:     r.ID.String(),
			Name:      r.Title,
			Detail:    r.Content,
			Organizer: r.MainUnit,
			Voice:     r.Content,
			Location: domain.Location{
				Building: domain.NormalizeBuilding(parseAddress(r.Location), cityName),
				CityName: cityName,
			},
			Date: domain.NewDateRange(start, end),
		}

		if r.Attribute != "" {
			activity.Tags = []domain.Tag{{Text: r.Attribute}}
		}
		if strings.HasPrefix(r.RelatedLink, "http") {
			activity.RelatedLinks = []domain.RelatedLink{{URL: r.RelatedLink}}
		}

		activities = append(activities, activity)
	}

	return activities
}

// parseAddress unwraps the stringified {"address": ...} payload; anything
// malformed degrades to an empty address.
func parseAddress(raw string) string {
	if raw == "" {
		return ""
	}
	var payload locationPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return ""
	}
	return payload.Address
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
