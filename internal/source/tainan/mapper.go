package tainan

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"eventure/internal/domain"
	"eventure/internal/source"
)

const (
	SourceName = "tainan"
	cityName   = "台南市"
)

var (
	dateTimeLayouts = []string{
		"2006/01/02 15:04",
		"2006/01/02",
	}
	// right-hand side of the ~ range that carries its own date
	hasDate = regexp.MustCompile(`\d{4}/\d{2}/\d{2}`)
)

// Record is one row of the Tainan activity feed, a bare top-level array.
// The feed has no native identifier; the serial is derived from the link.
type Record struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	ActDate  string `json:"act_date"`
	Address  string `json:"address"`
	Category string `json:"category"`
	Link     string `json:"link"`
}

// Mapper maps the Tainan activity feed. act_date is a combined range
// string such as "2026/02/06 09:00~2026/03/08 17:00"; when the right side
// is only a clock time it inherits the left side's date.
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
		serno := deriveSerno(r.Link)
		if serno == "" {
			m.logger.Warn("skipping record without a link to derive a serial from",
				"title", r.Title,
			)
			continue
		}

		start, end, err := parseRange(r.ActDate)
		if err != nil {
			m.logger.Warn("skipping record with unparseable date range",
				"serno", serno,
				"raw", r.ActDate,
			)
			continue
		}

		activity := domain.Activity{
			Serno:  serno,
			Name:   r.Title,
			Detail: r.Content,
			Voice:  r.Content,
			Location: domain.Location{
				Building: domain.NormalizeBuilding(r.Address, cityName),
				CityName: cityName,
			},
			Date: domain.NewDateRange(start, end),
		}

		if r.Category != "" {
			activity.Tags = []domain.Tag{{Text: r.Category}}
		}
		if strings.HasPrefix(r.Link, "http") {
			activity.RelatedLinks = []domain.RelatedLink{{URL: r.Link}}
		}

		activities = append(activities, activity)
	}

	return activities
}

// deriveSerno hashes the canonical link into a stable 16-hex-char serial,
// since the feed assigns no id of its own.
func deriveSerno(link string) string {
	if link == "" {
		return ""
	}
	sum := sha1.Sum([]byte(link))
	return hex.EncodeToString(sum[:])[:16]
}

func parseRange(raw string) (start, end time.Time, err error) {
	raw = strings.TrimSpace(raw)
	left, right, hasRange := strings.Cut(raw, "~")
	left = strings.TrimSpace(left)
	right = strings.TrimSpace(right)

	start, err = parseDateTime(left)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}

	if !hasRange || right == "" {
		return start, start, nil
	}

	if !hasDate.MatchString(right) {
		// time-only right side inherits the left side's date
		datePart, _, _ := strings.Cut(left, " ")
		right = datePart + " " + right
	}

	end, err = parseDateTime(right)
	if err != nil {
		end = start
	}
	return start, end, nil
}

func parseDateTime(raw string) (time.Time, error) {
	var lastErr error
	for _, layout := range dateTimeLayouts {
		t, err := time.Parse(layout, raw)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
