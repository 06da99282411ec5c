package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestSchedulerRunsImmediatelyAndOnTicks(t *testing.T) {
	var runs atomic.Int32
	s := NewScheduler(func(ctx context.Context) error {
		runs.Add(1)
		return nil
	}, 10*time.Millisecond, testLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := s.Start(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.GreaterOrEqual(t, runs.Load(), int32(2))
}

func TestSchedulerKeepsTickingAfterJobError(t *testing.T) {
	var runs atomic.Int32
	s := NewScheduler(func(ctx context.Context) error {
		runs.Add(1)
		return errors.New("upstream down")
	}, 10*time.Millisecond, testLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_ = s.Start(ctx)
	assert.GreaterOrEqual(t, runs.Load(), int32(2))
}
