package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"eventure/internal/domain"
)

type ActivityStore interface {
	UpsertAll(ctx context.Context, entities []domain.Activity) ([]domain.Activity, error)
	FindBySerno(ctx context.Context, serno string) (*domain.Activity, error)
	All(ctx context.Context) ([]domain.Activity, error)
	UpdateLikes(ctx context.Context, entity *domain.Activity) error
}

type TagStore interface {
	All(ctx context.Context) ([]domain.Tag, error)
}

type StatusStore interface {
	Get(ctx context.Context, sourceName string) (domain.FetchStatus, error)
	SetSuccess(ctx context.Context, sourceName string) error
	SetFailure(ctx context.Context, sourceName string) error
	ResetAll(ctx context.Context, sourceNames []string) error
}

type Mapper interface {
	Name() string
	Fetch(ctx context.Context, count int) ([]domain.Activity, error)
}

type Enqueuer interface {
	Enqueue(ctx context.Context, req domain.FetchRequest) error
}

type ProgressReporter interface {
	Report(ctx context.Context, requestID string) (domain.StatusCounts, error)
	Failed(ctx context.Context) ([]string, error)
}

type LikeSet interface {
	Contains(ctx context.Context, sessionID, serno string) (bool, error)
	Add(ctx context.Context, sessionID, serno string) error
	Remove(ctx context.Context, sessionID, serno string) error
}
