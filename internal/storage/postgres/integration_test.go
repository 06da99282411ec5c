//go:build integration

package postgres

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"eventure/internal/domain"
)

type PostgresIntegrationSuite struct {
	suite.Suite
	ctx       context.Context
	container *postgres.PostgresContainer
	db        *sqlx.DB

	activities *ActivityStore
	tags       *TagStore
	status     *StatusStore
}

func (s *PostgresIntegrationSuite) SetupSuite() {
	s.ctx = context.Background()

	migrationsPath, err := filepath.Abs("../../../migrations")
	s.Require().NoError(err)

	container, err := postgres.Run(s.ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("eventure_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		postgres.WithInitScripts(
			filepath.Join(migrationsPath, "001_create_activities.up.sql"),
			filepath.Join(migrationsPath, "002_create_tags.up.sql"),
			filepath.Join(migrationsPath, "003_create_related_links.up.sql"),
			filepath.Join(migrationsPath, "004_create_fetch_status.up.sql"),
		),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	s.Require().NoError(err)
	s.container = container

	connStr, err := container.ConnectionString(s.ctx, "sslmode=disable")
	s.Require().NoError(err)

	db, err := sqlx.Connect("postgres", connStr)
	s.Require().NoError(err)
	s.db = db

	s.activities = NewActivityStore(db)
	s.tags = NewTagStore(db)
	s.status = NewStatusStore(db)
}

func (s *PostgresIntegrationSuite) TearDownSuite() {
	if s.db != nil {
		_ = s.db.Close()
	}
	if s.container != nil {
		_ = s.container.Terminate(s.ctx)
	}
}

func (s *PostgresIntegrationSuite) SetupTest() {
	_, err := s.db.Exec("TRUNCATE activities, tags, activities_tags, related_links, fetch_status CASCADE")
	s.Require().NoError(err)
}

func TestPostgresIntegrationSuite(t *testing.T) {
	suite.Run(t, new(PostgresIntegrationSuite))
}

func sampleActivity(serno, name string) domain.Activity {
	start := time.Date(2026, 2, 6, 9, 0, 0, 0, time.UTC)
	return domain.Activity{
		Serno:     serno,
		Name:      name,
		Detail:    "detail text",
		Organizer: "主辦單位",
		Voice:     "voice text",
		Location: domain.Location{
			Building: "台南市中西區民族路",
			CityName: "台南市",
		},
		Date: domain.NewDateRange(start, start.Add(8*time.Hour)),
		Tags: []domain.Tag{
			{Text: "民俗節慶"},
			{Text: "親子活動"},
		},
		RelatedLinks: []domain.RelatedLink{
			{Title: "官網", URL: "https://example.org/a"},
		},
	}
}

func (s *PostgresIntegrationSuite) TestUpsertAllIsIdempotent() {
	batch := []domain.Activity{
		sampleActivity("1", "first"),
		sampleActivity("2", "second"),
		sampleActivity("3", "third"),
	}

	_, err := s.activities.UpsertAll(s.ctx, batch)
	s.Require().NoError(err)

	again, err := s.activities.UpsertAll(s.ctx, batch)
	s.Require().NoError(err)
	s.Len(again, 3)

	all, err := s.activities.All(s.ctx)
	s.Require().NoError(err)
	s.Len(all, 3, "double ingestion must not duplicate rows")

	// the second run's association set equals the first's
	s.Equal([]string{"民俗節慶", "親子活動"}, all[0].TagTexts())
	s.Len(all[0].RelatedLinks, 1)

	var tagCount int
	s.Require().NoError(s.db.Get(&tagCount, "SELECT COUNT(*) FROM tags"))
	s.Equal(2, tagCount, "tag rows are global, never duplicated per activity")
}

func (s *PostgresIntegrationSuite) TestReingestRenamesAndAddsKeepingLikes() {
	batch := []domain.Activity{
		sampleActivity("1", "first"),
		sampleActivity("2", "second"),
		sampleActivity("3", "third"),
	}
	_, err := s.activities.UpsertAll(s.ctx, batch)
	s.Require().NoError(err)

	// someone likes activity 2 in the meantime
	liked, err := s.activities.FindBySerno(s.ctx, "2")
	s.Require().NoError(err)
	liked.AddLike()
	s.Require().NoError(s.activities.UpdateLikes(s.ctx, liked))

	renamed := sampleActivity("2", "renamed")
	renamed.Tags = []domain.Tag{{Text: "音樂"}}
	next := []domain.Activity{
		batch[0],
		renamed,
		batch[2],
		sampleActivity("4", "fourth"),
	}
	_, err = s.activities.UpsertAll(s.ctx, next)
	s.Require().NoError(err)

	all, err := s.activities.All(s.ctx)
	s.Require().NoError(err)
	s.Len(all, 4)

	stored, err := s.activities.FindBySerno(s.ctx, "2")
	s.Require().NoError(err)
	s.Equal("renamed", stored.Name)
	s.Equal(1, stored.LikesCount, "likes survive descriptive overwrites")
	s.Equal([]string{"音樂"}, stored.TagTexts(), "stale associations do not accumulate")
}

func (s *PostgresIntegrationSuite) TestRoundTrip() {
	original := sampleActivity("rt-1", "round trip")
	_, err := s.activities.UpsertAll(s.ctx, []domain.Activity{original})
	s.Require().NoError(err)

	reloaded, err := s.activities.FindBySerno(s.ctx, "rt-1")
	s.Require().NoError(err)
	s.Require().NotNil(reloaded)

	s.Equal(original.Name, reloaded.Name)
	s.Equal(original.Detail, reloaded.Detail)
	s.Equal(original.Organizer, reloaded.Organizer)
	s.Equal(original.Voice, reloaded.Voice)
	s.Equal(original.Location.Building, reloaded.Location.Building)
	s.Equal(original.Date.Start, reloaded.Date.Start)
	s.Equal(original.Date.End, reloaded.Date.End)
	s.Equal(original.TagTexts(), reloaded.TagTexts())
	s.Equal(original.RelatedLinks, reloaded.RelatedLinks)
	s.Nil(reloaded.NameEn, "english mirror stays absent until enrichment runs")
}

func (s *PostgresIntegrationSuite) TestFindBySernoMiss() {
	found, err := s.activities.FindBySerno(s.ctx, "missing")
	s.Require().NoError(err)
	s.Nil(found)
}

func (s *PostgresIntegrationSuite) TestUpdateLikesPersistsOnlyCounter() {
	_, err := s.activities.UpsertAll(s.ctx, []domain.Activity{sampleActivity("L1", "likeable")})
	s.Require().NoError(err)

	a, err := s.activities.FindBySerno(s.ctx, "L1")
	s.Require().NoError(err)
	a.AddLike()
	a.AddLike()
	a.Name = "local rename that must not persist"
	s.Require().NoError(s.activities.UpdateLikes(s.ctx, a))

	stored, err := s.activities.FindBySerno(s.ctx, "L1")
	s.Require().NoError(err)
	s.Equal(2, stored.LikesCount)
	s.Equal("likeable", stored.Name)
}

func (s *PostgresIntegrationSuite) TestStatusStoreLifecycle() {
	sources := []string{"hccg", "taipei", "new_taipei", "taichung", "tainan", "kaohsiung"}
	s.Require().NoError(s.status.ResetAll(s.ctx, sources))

	st, err := s.status.Get(s.ctx, "hccg")
	s.Require().NoError(err)
	s.Equal(domain.StatusPending, st)

	s.Require().NoError(s.status.SetSuccess(s.ctx, "hccg"))
	s.Require().NoError(s.status.SetFailure(s.ctx, "tainan"))

	counts, err := s.status.Counts(s.ctx)
	s.Require().NoError(err)
	s.Equal(domain.StatusCounts{Success: 1, Failure: 1, Pending: 4}, counts)
	s.Equal(33, counts.Percent())

	failed, err := s.status.FailedSources(s.ctx)
	s.Require().NoError(err)
	s.Equal([]string{"tainan"}, failed)

	// reset flips everything back to pending
	s.Require().NoError(s.status.ResetAll(s.ctx, sources))
	counts, err = s.status.Counts(s.ctx)
	s.Require().NoError(err)
	s.Equal(6, counts.Pending)
}

func (s *PostgresIntegrationSuite) TestTagStoreAll() {
	_, err := s.activities.UpsertAll(s.ctx, []domain.Activity{sampleActivity("t-1", "tagged")})
	s.Require().NoError(err)

	tags, err := s.tags.All(s.ctx)
	s.Require().NoError(err)
	s.Len(tags, 2)
	s.Equal("民俗節慶", tags[0].Text)
}
