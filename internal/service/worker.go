package service

import (
	"context"
	"fmt"
	"log/slog"

	"eventure/internal/domain"
	"eventure/internal/source"
)

// Worker handles one fetch job: run the source mapper, persist what it
// returned, record the outcome, report progress. Safe to re-run for the
// same source because persistence is an upsert.
type Worker struct {
	registry   *source.Registry
	activities ActivityStore
	statuses   StatusStore
	progress   ProgressReporter
	logger     *slog.Logger
}

func NewWorker(
	registry *source.Registry,
	activities ActivityStore,
	statuses StatusStore,
	progress ProgressReporter,
	logger *slog.Logger,
) *Worker {
	return &Worker{
		registry:   registry,
		activities: activities,
		statuses:   statuses,
		progress:   progress,
		logger:     logger,
	}
}

// Handle processes one queue delivery. Upstream failures (the source is
// down or returned garbage) are terminal for this job: status goes to
// failure and the message is acked, since redelivery would hit the same
// broken upstream. Storage failures return an error so the delivery is
// dead-lettered instead.
func (w *Worker) Handle(ctx context.Context, req domain.FetchRequest) error {
	mapper, ok := w.registry.Lookup(req.APIName)
	if !ok {
		w.logger.Debug("skipping unknown source", "source", req.APIName)
		return nil
	}

	logger := w.logger.With("source", req.APIName, "request_id", req.RequestID)
	logger.Info("fetching activities", "count", req.Number)

	entities, err := mapper.Fetch(ctx, req.Number)
	if err != nil {
		w.recordFailure(ctx, req, logger)
		if upstream, ok := source.AsUpstream(err); ok {
			logger.Warn("source fetch failed",
				"kind", upstream.Kind,
				"error", upstream.Err,
			)
			return nil
		}
		return fmt.Errorf("fetch %s: %w", req.APIName, err)
	}

	if _, err := w.activities.UpsertAll(ctx, entities); err != nil {
		w.recordFailure(ctx, req, logger)
		return fmt.Errorf("store %s activities: %w", req.APIName, err)
	}

	if err := w.statuses.SetSuccess(ctx, req.APIName); err != nil {
		return fmt.Errorf("record success for %s: %w", req.APIName, err)
	}
	w.reportProgress(ctx, req, logger)

	logger.Info("stored activities", "count", len(entities))
	return nil
}

func (w *Worker) recordFailure(ctx context.Context, req domain.FetchRequest, logger *slog.Logger) {
	if err := w.statuses.SetFailure(ctx, req.APIName); err != nil {
		logger.Error("failed to record failure status", "error", err)
	}
	w.reportProgress(ctx, req, logger)
}

func (w *Worker) reportProgress(ctx context.Context, req domain.FetchRequest, logger *slog.Logger) {
	if _, err := w.progress.Report(ctx, req.RequestID); err != nil {
		logger.Warn("failed to report progress", "error", err)
	}
}
