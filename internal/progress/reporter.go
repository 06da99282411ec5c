package progress

import (
	"context"
	"fmt"
	"log/slog"

	"eventure/internal/domain"
)

// StatusCounter supplies the per-source status tallies the percent is
// derived from.
type StatusCounter interface {
	Counts(ctx context.Context) (domain.StatusCounts, error)
	FailedSources(ctx context.Context) ([]string, error)
}

// Publisher pushes a progress update to interested subscribers.
type Publisher interface {
	Publish(ctx context.Context, channel, message string) error
}

// Reporter translates fetch status counts into a completion percent and
// broadcasts it on the request's channel. Publishing is best effort:
// subscribers losing an update only delays their next poll, so publish
// failures are logged and swallowed.
type Reporter struct {
	counter   StatusCounter
	publisher Publisher
	logger    *slog.Logger
}

func NewReporter(counter StatusCounter, publisher Publisher, logger *slog.Logger) *Reporter {
	return &Reporter{
		counter:   counter,
		publisher: publisher,
		logger:    logger,
	}
}

// Channel names the pub/sub channel carrying updates for one request.
func Channel(requestID string) string {
	return "progress:" + requestID
}

// Report computes the current percent and publishes it. The computed
// counts are returned so callers can reuse them for response wording.
func (r *Reporter) Report(ctx context.Context, requestID string) (domain.StatusCounts, error) {
	counts, err := r.counter.Counts(ctx)
	if err != nil {
		return domain.StatusCounts{}, fmt.Errorf("count fetch statuses: %w", err)
	}

	percent := counts.Percent()
	if err := r.publisher.Publish(ctx, Channel(requestID), fmt.Sprintf("%d", percent)); err != nil {
		r.logger.Warn("failed to publish progress",
			"request_id", requestID,
			"percent", percent,
			"error", err,
		)
	}

	r.logger.Debug("progress",
		"request_id", requestID,
		"percent", percent,
		"success", counts.Success,
		"failure", counts.Failure,
		"pending", counts.Pending,
	)

	return counts, nil
}

// Failed lists the sources whose latest fetch failed, for degraded
// response messages.
func (r *Reporter) Failed(ctx context.Context) ([]string, error) {
	return r.counter.FailedSources(ctx)
}
