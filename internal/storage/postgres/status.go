package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"eventure/internal/domain"
)

// StatusStore keeps the per-source tri-state fetch flag. Rows are created
// (or reset to pending) at process start and mutated only by workers after
// a fetch attempt.
type StatusStore struct {
	db *sqlx.DB
}

func NewStatusStore(db *sqlx.DB) *StatusStore {
	return &StatusStore{db: db}
}

// Get returns the source's status; an unknown source reads as pending.
func (s *StatusStore) Get(ctx context.Context, sourceName string) (domain.FetchStatus, error) {
	var status string
	err := s.db.GetContext(ctx, &status,
		"SELECT status FROM fetch_status WHERE source_name = $1", sourceName)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.StatusPending, nil
	}
	if err != nil {
		return "", err
	}
	return domain.FetchStatus(status), nil
}

func (s *StatusStore) SetSuccess(ctx context.Context, sourceName string) error {
	return s.set(ctx, sourceName, domain.StatusSuccess)
}

func (s *StatusStore) SetFailure(ctx context.Context, sourceName string) error {
	return s.set(ctx, sourceName, domain.StatusFailure)
}

func (s *StatusStore) set(ctx context.Context, sourceName string, status domain.FetchStatus) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO fetch_status (source_name, status) VALUES ($1, $2)
		 ON CONFLICT (source_name) DO UPDATE SET status = EXCLUDED.status`,
		sourceName, string(status),
	)
	return err
}

// ResetAll makes sure a row exists for every known source and flips them
// all back to pending. Called once at startup.
func (s *StatusStore) ResetAll(ctx context.Context, sourceNames []string) error {
	for _, name := range sourceNames {
		if err := s.set(ctx, name, domain.StatusPending); err != nil {
			return err
		}
	}
	return nil
}

// Counts aggregates all rows into per-status totals.
func (s *StatusStore) Counts(ctx context.Context) (domain.StatusCounts, error) {
	var rows []struct {
		Status string `db:"status"`
		Count  int    `db:"count"`
	}
	err := s.db.SelectContext(ctx, &rows,
		"SELECT status, COUNT(*) AS count FROM fetch_status GROUP BY status")
	if err != nil {
		return domain.StatusCounts{}, err
	}

	var counts domain.StatusCounts
	for _, row := range rows {
		switch domain.FetchStatus(row.Status) {
		case domain.StatusSuccess:
			counts.Success = row.Count
		case domain.StatusFailure:
			counts.Failure = row.Count
		case domain.StatusPending:
			counts.Pending = row.Count
		}
	}
	return counts, nil
}

// FailedSources lists the sources currently marked failure, for the
// degraded-response wording.
func (s *StatusStore) FailedSources(ctx context.Context) ([]string, error) {
	var names []string
	err := s.db.SelectContext(ctx, &names,
		"SELECT source_name FROM fetch_status WHERE status = $1 ORDER BY source_name",
		string(domain.StatusFailure),
	)
	return names, err
}
