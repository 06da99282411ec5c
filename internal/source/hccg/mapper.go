package hccg

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"eventure/internal/domain"
	"eventure/internal/source"
)

const (
	SourceName = "hccg"

	// activitysdate / activityedate come as 202611211930
	dateLayout = "200601021504"
)

// Mapper maps the Hsinchu City Government activity feed to canonical
// activities. Categories arrive as a comma-separated list of
// "[100]category" entries; the bracketed code is dropped.
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

	var records []Record
	if err := m.client.GetJSON(ctx, SourceName, url, &records); err != nil {
		return nil, err
	}

	return m.transform(records), nil
}

func (m *Mapper) transform(records []Record) []domain.Activity {
	activities := make([]domain.Activity, 0, len(records))

	for _, r := range records {
		start, err := time.Parse(dateLayout, r.ActivitySDate)
		if err != nil {
			m.logger.Warn("skipping record with unparseable start date",
				"serno", r.Serno.String(),
				"raw", r.ActivitySDate,
			)
			continue
		}

		end, err := time.Parse(dateLayout, r.ActivityEDate)
		if err != nil {
			end = start
		}

		activities = append(activities, domain.Activity{
			Serno:        r.Serno.String(),
			Name:         r.Subject,
			Detail:       r.DetailContent,
			Organizer:    r.HostUnit,
			Voice:        r.Voice,
			Location:     domain.Location{Building: r.ActivityPlace},
			Date:         domain.NewDateRange(start, end),
			Tags:         parseTags(r.SubjectClass),
			RelatedLinks: parseLinks(r.ResourceDataList),
		})
	}

	return activities
}

// parseTags turns "[100]藝文活動,[200]展覽" into the bare category texts.
func parseTags(subjectClass string) []domain.Tag {
	if subjectClass == "" {
		return nil
	}

	var tags []domain.Tag
	for _, part := range strings.Split(subjectClass, ",") {
		text := part
		if _, after, found := strings.Cut(part, "]"); found {
			text = after
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		tags = append(tags, domain.Tag{Text: text})
	}
	return tags
}

func parseLinks(resources []Resource) []domain.RelatedLink {
	var links []domain.RelatedLink
	for _, res := range resources {
		if !strings.HasPrefix(res.RelateURL, "http") {
			continue
		}
		links = append(links, domain.RelatedLink{
			Title: res.RelateName,
			URL:   res.RelateURL,
		})
	}
	return links
}
