package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"eventure/internal/domain"
)

// ActivityStore persists canonical activities keyed by serial number.
// Upserts are idempotent: descriptive attributes are overwritten, the like
// counter survives, and tag/link associations are rebuilt from scratch so
// they always equal the latest source payload.
type ActivityStore struct {
	db *sqlx.DB
	tm *TransactionManager
}

func NewActivityStore(db *sqlx.DB) *ActivityStore {
	return &ActivityStore{db: db, tm: NewTransactionManager(db)}
}

type activityRow struct {
	ID          int64     `db:"id"`
	Serno       string    `db:"serno"`
	Name        string    `db:"name"`
	Detail      string    `db:"detail"`
	Organizer   string    `db:"organizer"`
	Voice       string    `db:"voice"`
	Location    string    `db:"location"`
	City        string    `db:"city"`
	StartTime   time.Time `db:"start_time"`
	EndTime     time.Time `db:"end_time"`
	LikesCount  int       `db:"likes_count"`
	NameEn      *string   `db:"name_en"`
	DetailEn    *string   `db:"detail_en"`
	LocationEn  *string   `db:"location_en"`
	OrganizerEn *string   `db:"organizer_en"`
}

type tagRow struct {
	ActivityID int64   `db:"activity_id"`
	Text       string  `db:"tag"`
	TextEn     *string `db:"tag_en"`
}

type linkRow struct {
	ActivityID int64  `db:"activity_id"`
	Title      string `db:"title"`
	URL        string `db:"url"`
}

const selectActivityColumns = `
	SELECT id, serno, name, detail, organizer, voice, location, city,
	       start_time, end_time, likes_count,
	       name_en, detail_en, location_en, organizer_en
	FROM activities`

const upsertActivityQuery = `
	INSERT INTO activities (
		serno, name, detail, organizer, voice, location, city,
		start_time, end_time, likes_count
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	ON CONFLICT (serno) DO UPDATE SET
		name = EXCLUDED.name,
		detail = EXCLUDED.detail,
		organizer = EXCLUDED.organizer,
		voice = EXCLUDED.voice,
		location = EXCLUDED.location,
		city = EXCLUDED.city,
		start_time = EXCLUDED.start_time,
		end_time = EXCLUDED.end_time
	RETURNING id`

// UpsertAll merges each entity into storage by serial number and returns
// the freshly rebuilt entities, including any like counts already stored.
// Each activity's upsert plus association rewrite is one transaction,
// retried on lock contention.
func (s *ActivityStore) UpsertAll(ctx context.Context, entities []domain.Activity) ([]domain.Activity, error) {
	result := make([]domain.Activity, 0, len(entities))

	for i := range entities {
		entity := &entities[i]

		err := withRetry(ctx, func() error {
			return s.tm.WithTransaction(ctx, func(txCtx context.Context) error {
				return s.upsertOne(txCtx, entity)
			})
		})
		if err != nil {
			return nil, fmt.Errorf("upsert activity %s: %w", entity.Serno, err)
		}

		stored, err := s.FindBySerno(ctx, entity.Serno)
		if err != nil {
			return nil, fmt.Errorf("reload activity %s: %w", entity.Serno, err)
		}
		if stored != nil {
			result = append(result, *stored)
		}
	}

	return result, nil
}

func (s *ActivityStore) upsertOne(ctx context.Context, entity *domain.Activity) error {
	ex := executor(ctx, s.db)

	var id int64
	err := sqlx.GetContext(ctx, ex, &id, upsertActivityQuery,
		entity.Serno,
		entity.Name,
		entity.Detail,
		entity.Organizer,
		entity.Voice,
		entity.Location.Building,
		entity.Location.City(),
		entity.Date.Start,
		entity.Date.End,
		entity.LikesCount,
	)
	if err != nil {
		return err
	}

	if err := s.rewriteTags(ctx, ex, id, entity.Tags); err != nil {
		return fmt.Errorf("rewrite tags: %w", err)
	}
	if err := s.rewriteLinks(ctx, ex, id, entity.RelatedLinks); err != nil {
		return fmt.Errorf("rewrite links: %w", err)
	}

	return nil
}

// rewriteTags drops the activity's tag associations and recreates them from
// the latest payload. Tag rows themselves are global find-or-create by
// text, so re-ingestion never duplicates them.
func (s *ActivityStore) rewriteTags(ctx context.Context, ex sqlx.ExtContext, activityID int64, tags []domain.Tag) error {
	if _, err := ex.ExecContext(ctx,
		"DELETE FROM activities_tags WHERE activity_id = $1", activityID,
	); err != nil {
		return err
	}

	for position, tag := range tags {
		var tagID int64
		err := sqlx.GetContext(ctx, ex, &tagID,
			`INSERT INTO tags (tag) VALUES ($1)
			 ON CONFLICT (tag) DO UPDATE SET tag = EXCLUDED.tag
			 RETURNING id`,
			tag.Text,
		)
		if err != nil {
			return err
		}

		if _, err := ex.ExecContext(ctx,
			`INSERT INTO activities_tags (activity_id, tag_id, position)
			 VALUES ($1, $2, $3)
			 ON CONFLICT (activity_id, tag_id) DO UPDATE SET position = EXCLUDED.position`,
			activityID, tagID, position,
		); err != nil {
			return err
		}
	}

	return nil
}

func (s *ActivityStore) rewriteLinks(ctx context.Context, ex sqlx.ExtContext, activityID int64, links []domain.RelatedLink) error {
	if _, err := ex.ExecContext(ctx,
		"DELETE FROM related_links WHERE activity_id = $1", activityID,
	); err != nil {
		return err
	}

	for position, link := range links {
		if _, err := ex.ExecContext(ctx,
			`INSERT INTO related_links (activity_id, title, url, position)
			 VALUES ($1, $2, $3, $4)`,
			activityID, link.Title, link.URL, position,
		); err != nil {
			return err
		}
	}

	return nil
}

// FindBySerno returns the stored activity for serno, or nil when unknown.
func (s *ActivityStore) FindBySerno(ctx context.Context, serno string) (*domain.Activity, error) {
	ex := executor(ctx, s.db)

	var row activityRow
	err := sqlx.GetContext(ctx, ex, &row, selectActivityColumns+" WHERE serno = $1", serno)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	tags, err := s.loadTags(ctx, ex, []int64{row.ID})
	if err != nil {
		return nil, err
	}
	links, err := s.loadLinks(ctx, ex, []int64{row.ID})
	if err != nil {
		return nil, err
	}

	entity := rowToEntity(row, tags[row.ID], links[row.ID])
	return &entity, nil
}

// All returns every stored activity with its tags and links, ordered by
// insertion.
func (s *ActivityStore) All(ctx context.Context) ([]domain.Activity, error) {
	ex := executor(ctx, s.db)

	var rows []activityRow
	if err := sqlx.SelectContext(ctx, ex, &rows, selectActivityColumns+" ORDER BY id"); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	ids := make([]int64, len(rows))
	for i, row := range rows {
		ids[i] = row.ID
	}

	tags, err := s.loadTags(ctx, ex, ids)
	if err != nil {
		return nil, err
	}
	links, err := s.loadLinks(ctx, ex, ids)
	if err != nil {
		return nil, err
	}

	activities := make([]domain.Activity, len(rows))
	for i, row := range rows {
		activities[i] = rowToEntity(row, tags[row.ID], links[row.ID])
	}
	return activities, nil
}

// UpdateLikes persists only the like counter for the entity's serial.
func (s *ActivityStore) UpdateLikes(ctx context.Context, entity *domain.Activity) error {
	ex := executor(ctx, s.db)

	_, err := ex.ExecContext(ctx,
		"UPDATE activities SET likes_count = $1 WHERE serno = $2",
		entity.LikesCount, entity.Serno,
	)
	return err
}

func (s *ActivityStore) loadTags(ctx context.Context, ex sqlx.ExtContext, activityIDs []int64) (map[int64][]domain.Tag, error) {
	var rows []tagRow
	err := sqlx.SelectContext(ctx, ex, &rows,
		`SELECT at.activity_id, t.tag, t.tag_en
		 FROM tags t
		 INNER JOIN activities_tags at ON at.tag_id = t.id
		 WHERE at.activity_id = ANY($1)
		 ORDER BY at.activity_id, at.position`,
		pq.Array(activityIDs),
	)
	if err != nil {
		return nil, err
	}

	byActivity := make(map[int64][]domain.Tag)
	for _, row := range rows {
		byActivity[row.ActivityID] = append(byActivity[row.ActivityID], domain.Tag{
			Text:   row.Text,
			TextEn: row.TextEn,
		})
	}
	return byActivity, nil
}

func (s *ActivityStore) loadLinks(ctx context.Context, ex sqlx.ExtContext, activityIDs []int64) (map[int64][]domain.RelatedLink, error) {
	var rows []linkRow
	err := sqlx.SelectContext(ctx, ex, &rows,
		`SELECT activity_id, title, url
		 FROM related_links
		 WHERE activity_id = ANY($1)
		 ORDER BY activity_id, position`,
		pq.Array(activityIDs),
	)
	if err != nil {
		return nil, err
	}

	byActivity := make(map[int64][]domain.RelatedLink)
	for _, row := range rows {
		byActivity[row.ActivityID] = append(byActivity[row.ActivityID], domain.RelatedLink{
			Title: row.Title,
			URL:   row.URL,
		})
	}
	return byActivity, nil
}

func rowToEntity(row activityRow, tags []domain.Tag, links []domain.RelatedLink) domain.Activity {
	return domain.Activity{
		ID:        row.ID,
		Serno:     row.Serno,
		Name:      row.Name,
		Detail:    row.Detail,
		Organizer: row.Organizer,
		Voice:     row.Voice,
		Location: domain.Location{
			Building: row.Location,
			CityName: row.City,
		},
		Date:         domain.NewDateRange(row.StartTime.UTC(), row.EndTime.UTC()),
		Tags:         tags,
		RelatedLinks: links,
		LikesCount:   row.LikesCount,
		NameEn:       row.NameEn,
		DetailEn:     row.DetailEn,
		LocationEn:   row.LocationEn,
		OrganizerEn:  row.OrganizerEn,
	}
}
