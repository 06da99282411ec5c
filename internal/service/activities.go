package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"eventure/internal/apperr"
	"eventure/internal/domain"
)

// AllDistricts is the sentinel district value meaning "no district
// restriction" for a city.
const AllDistricts = "全區"

const dateLayout = "2006-01-02"

// Filters is the POST /filter request payload. Empty members mean
// "no restriction"; the matched set is the intersection of the active
// members.
type Filters struct {
	Tags      []string
	City      string
	Districts []string
	StartDate string
	EndDate   string
	Language  string
}

// ActivityService answers the read-side listing, search and filter
// queries over stored activities. Matching happens in process over the
// full set, which stays small for municipal activity feeds.
type ActivityService struct {
	activities ActivityStore
	tags       TagStore
	logger     *slog.Logger
}

func NewActivityService(activities ActivityStore, tags TagStore, logger *slog.Logger) *ActivityService {
	return &ActivityService{
		activities: activities,
		tags:       tags,
		logger:     logger,
	}
}

func (s *ActivityService) List(ctx context.Context) ([]domain.Activity, error) {
	return s.activities.All(ctx)
}

// Search returns activities whose name, detail, organizer, city or tags
// contain the keyword, case-insensitively. When the requested language
// is not the default zh-TW the english mirror fields participate too.
// An empty keyword returns everything.
func (s *ActivityService) Search(ctx context.Context, keyword, language string) ([]domain.Activity, error) {
	all, err := s.activities.All(ctx)
	if err != nil {
		return nil, err
	}

	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return all, nil
	}

	pattern := strings.ToLower(keyword)
	includeEnglish := language != "" && language != "zh-TW"

	var matched []domain.Activity
	for _, activity := range all {
		if matchesKeyword(&activity, pattern, includeEnglish) {
			matched = append(matched, activity)
		}
	}
	return matched, nil
}

func matchesKeyword(a *domain.Activity, pattern string, includeEnglish bool) bool {
	fields := []string{a.Name, a.Detail, a.Organizer, a.City()}
	fields = append(fields, a.TagTexts()...)

	if includeEnglish {
		for _, p := range []*string{a.NameEn, a.DetailEn, a.OrganizerEn, a.LocationEn} {
			if p != nil {
				fields = append(fields, *p)
			}
		}
		for _, tag := range a.Tags {
			if tag.TextEn != nil {
				fields = append(fields, *tag.TextEn)
			}
		}
	}

	for _, field := range fields {
		if strings.Contains(strings.ToLower(field), pattern) {
			return true
		}
	}
	return false
}

// Filter intersects the active filter members. The date filter only
// activates when both bounds parse; a parseable start after a parseable
// end is a bad request.
func (s *ActivityService) Filter(ctx context.Context, filters Filters) ([]domain.Activity, error) {
	start, end, err := parseDateWindow(filters.StartDate, filters.EndDate)
	if err != nil {
		return nil, err
	}

	all, err := s.activities.All(ctx)
	if err != nil {
		return nil, err
	}

	var matched []domain.Activity
	for _, activity := range all {
		if !matchesTags(&activity, filters.Tags) {
			continue
		}
		if filters.City != "" && activity.City() != filters.City {
			continue
		}
		if !matchesDistricts(&activity, filters.Districts) {
			continue
		}
		if start != nil && !withinWindow(activity.Date.Start, *start, *end) {
			continue
		}
		matched = append(matched, activity)
	}
	return matched, nil
}

// parseDateWindow returns nil bounds when the date filter is inactive.
// Either bound missing or unparseable deactivates it; both parsing with
// start after end is the caller's error.
func parseDateWindow(startRaw, endRaw string) (*time.Time, *time.Time, error) {
	startRaw = strings.TrimSpace(startRaw)
	endRaw = strings.TrimSpace(endRaw)
	if startRaw == "" || endRaw == "" {
		return nil, nil, nil
	}

	start, err := time.Parse(dateLayout, startRaw)
	if err != nil {
		return nil, nil, nil
	}
	end, err := time.Parse(dateLayout, endRaw)
	if err != nil {
		return nil, nil, nil
	}

	if start.After(end) {
		return nil, nil, apperr.NewBadRequest("Start date cannot be later than end date")
	}

	// Window is inclusive of the whole end day.
	end = end.Add(24*time.Hour - time.Nanosecond)
	return &start, &end, nil
}

func withinWindow(t, start, end time.Time) bool {
	return !t.Before(start) && !t.After(end)
}

func matchesTags(a *domain.Activity, wanted []string) bool {
	if len(wanted) == 0 {
		return true
	}
	for _, have := range a.TagTexts() {
		for _, want := range wanted {
			if have == want {
				return true
			}
		}
	}
	return false
}

func matchesDistricts(a *domain.Activity, wanted []string) bool {
	if len(wanted) == 0 {
		return true
	}
	for _, want := range wanted {
		if want == AllDistricts || want == a.District() {
			return true
		}
	}
	return false
}

// Cities lists the distinct non-empty cities, sorted.
func (s *ActivityService) Cities(ctx context.Context) ([]string, error) {
	all, err := s.activities.All(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	var cities []string
	for _, activity := range all {
		city := activity.City()
		if city == "" {
			continue
		}
		if _, ok := seen[city]; ok {
			continue
		}
		seen[city] = struct{}{}
		cities = append(cities, city)
	}
	sort.Strings(cities)
	return cities, nil
}

// Districts groups the distinct districts by city, each group led by the
// all-districts sentinel so clients can offer a "whole city" choice.
func (s *ActivityService) Districts(ctx context.Context) (map[string][]string, error) {
	all, err := s.activities.All(ctx)
	if err != nil {
		return nil, err
	}

	grouped := make(map[string][]string)
	for _, activity := range all {
		city := activity.City()
		if city == "" {
			continue
		}
		if _, ok := grouped[city]; !ok {
			grouped[city] = []string{AllDistricts}
		}
		district := activity.District()
		if district == "" {
			continue
		}
		if !contains(grouped[city], district) {
			grouped[city] = append(grouped[city], district)
		}
	}
	return grouped, nil
}

// Tags lists the distinct tag texts known to storage.
func (s *ActivityService) Tags(ctx context.Context) ([]string, error) {
	tags, err := s.tags.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}

	texts := make([]string, 0, len(tags))
	for _, tag := range tags {
		texts = append(texts, tag.Text)
	}
	return texts, nil
}

func contains(values []string, v string) bool {
	for _, value := range values {
		if value == v {
			return true
		}
	}
	return false
}
