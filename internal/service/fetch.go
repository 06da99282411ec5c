package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"eventure/internal/domain"
	"eventure/internal/source"
)

// FetchService orchestrates an aggregate fetch cycle. Each call enqueues
// a fetch job for every source that has not yet succeeded, then answers
// from the current statuses so pollers can follow along.
type FetchService struct {
	registry *source.Registry
	statuses StatusStore
	queue    Enqueuer
	progress ProgressReporter
	logger   *slog.Logger
}

func NewFetchService(
	registry *source.Registry,
	statuses StatusStore,
	queue Enqueuer,
	progress ProgressReporter,
	logger *slog.Logger,
) *FetchService {
	return &FetchService{
		registry: registry,
		statuses: statuses,
		queue:    queue,
		progress: progress,
		logger:   logger,
	}
}

// Trigger enqueues every non-successful source and reports where the
// cycle stands. Failed sources get re-enqueued for a background retry,
// but the response reflects their current failure so a poll loop settles
// on ok or degraded once nothing is pending. Check-then-enqueue is not
// atomic; duplicate in-flight jobs are harmless because workers upsert.
func (s *FetchService) Trigger(ctx context.Context, count int, requestID string) (domain.FetchResult, error) {
	if requestID == "" {
		requestID = uuid.NewString()
	}

	for _, name := range s.registry.Names() {
		status, err := s.statuses.Get(ctx, name)
		if err != nil {
			return domain.FetchResult{}, fmt.Errorf("get status for %s: %w", name, err)
		}
		if status == domain.StatusSuccess {
			continue
		}

		req := domain.FetchRequest{APIName: name, Number: count, RequestID: requestID}
		if err := s.queue.Enqueue(ctx, req); err != nil {
			return domain.FetchResult{}, fmt.Errorf("enqueue %s: %w", name, err)
		}
		s.logger.Debug("enqueued source fetch", "source", name, "request_id", requestID)
	}

	return s.resolve(ctx, requestID)
}

// Resync starts a fresh cycle: every status goes back to pending and
// every source is enqueued under a new request id. Run by the worker's
// scheduler when periodic re-sync is enabled.
func (s *FetchService) Resync(ctx context.Context, count int) error {
	names := s.registry.Names()
	if err := s.statuses.ResetAll(ctx, names); err != nil {
		return fmt.Errorf("reset statuses: %w", err)
	}

	requestID := uuid.NewString()
	for _, name := range names {
		req := domain.FetchRequest{APIName: name, Number: count, RequestID: requestID}
		if err := s.queue.Enqueue(ctx, req); err != nil {
			return fmt.Errorf("enqueue %s: %w", name, err)
		}
	}

	s.logger.Info("resync cycle started", "request_id", requestID, "sources", len(names))
	return nil
}

func (s *FetchService) resolve(ctx context.Context, requestID string) (domain.FetchResult, error) {
	counts, err := s.progress.Report(ctx, requestID)
	if err != nil {
		return domain.FetchResult{}, err
	}

	switch {
	case counts.Pending > 0:
		return domain.FetchResult{
			Status:    domain.FetchProcessing,
			RequestID: requestID,
			Message:   fmt.Sprintf("Fetching activities, %d%% complete", counts.Percent()),
		}, nil
	case counts.Failure > 0:
		failed, err := s.progress.Failed(ctx)
		if err != nil {
			return domain.FetchResult{}, err
		}
		return domain.FetchResult{
			Status:    domain.FetchDegraded,
			RequestID: requestID,
			Message:   fmt.Sprintf("Cannot fetch %s activities", strings.Join(failed, ", ")),
		}, nil
	default:
		return domain.FetchResult{
			Status:    domain.FetchOK,
			RequestID: requestID,
			Message:   "Activities saved successfully",
		}, nil
	}
}
