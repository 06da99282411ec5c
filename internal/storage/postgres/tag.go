package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"

	"eventure/internal/domain"
)

// TagStore reads the global tag dictionary. Tag rows are created through
// ActivityStore upserts; this store only lists them.
type TagStore struct {
	db *sqlx.DB
}

func NewTagStore(db *sqlx.DB) *TagStore {
	return &TagStore{db: db}
}

// All returns every distinct tag, ordered by text.
func (s *TagStore) All(ctx context.Context) ([]domain.Tag, error) {
	var rows []struct {
		Text   string  `db:"tag"`
		TextEn *string `db:"tag_en"`
	}
	err := s.db.SelectContext(ctx, &rows, "SELECT tag, tag_en FROM tags ORDER BY tag")
	if err != nil {
		return nil, err
	}

	tags := make([]domain.Tag, len(rows))
	for i, row := range rows {
		tags[i] = domain.Tag{Text: row.Text, TextEn: row.TextEn}
	}
	return tags, nil
}
