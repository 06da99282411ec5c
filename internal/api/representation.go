package api

import (
	"time"

	"eventure/internal/domain"
)

type relatedLinkJSON struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

type activityJSON struct {
	Serno      string            `json:"serno"`
	Name       string            `json:"name"`
	City       string            `json:"city"`
	Building   string            `json:"building"`
	Detail     string            `json:"detail"`
	Organizer  string            `json:"organizer"`
	Voice      string            `json:"voice"`
	Tags       []string          `json:"tag"`
	LikesCount int               `json:"likes_count"`
	StartTime  time.Time         `json:"start_time"`
	EndTime    time.Time         `json:"end_time"`
	Duration   float64           `json:"duration"`
	RelateURL  []relatedLinkJSON `json:"relate_url"`
}

// renderActivity swaps in the english mirror fields when the client
// asked for english and the enrichment has filled them.
func renderActivity(a *domain.Activity, language string) activityJSON {
	english := language == "en"

	pick := func(base string, mirror *string) string {
		if english && mirror != nil && *mirror != "" {
			return *mirror
		}
		return base
	}

	tags := make([]string, 0, len(a.Tags))
	for _, tag := range a.Tags {
		text := tag.Text
		if english && tag.TextEn != nil && *tag.TextEn != "" {
			text = *tag.TextEn
		}
		tags = append(tags, text)
	}

	links := make([]relatedLinkJSON, 0, len(a.RelatedLinks))
	for _, link := range a.RelatedLinks {
		links = append(links, relatedLinkJSON{Title: link.Title, URL: link.URL})
	}

	return activityJSON{
		Serno:      a.Serno,
		Name:       pick(a.Name, a.NameEn),
		City:       pick(a.City(), a.LocationEn),
		Building:   a.Location.Building,
		Detail:     pick(a.Detail, a.DetailEn),
		Organizer:  pick(a.Organizer, a.OrganizerEn),
		Voice:      a.Voice,
		Tags:       tags,
		LikesCount: a.LikesCount,
		StartTime:  a.Date.Start,
		EndTime:    a.Date.End,
		Duration:   a.Date.Duration().Seconds(),
		RelateURL:  links,
	}
}

func renderActivities(activities []domain.Activity, language string) []activityJSON {
	rendered := make([]activityJSON, 0, len(activities))
	for i := range activities {
		rendered = append(rendered, renderActivity(&activities[i], language))
	}
	return rendered
}
