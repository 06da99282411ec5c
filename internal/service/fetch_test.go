package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"eventure/internal/domain"
	"eventure/internal/service/mocks"
	"eventure/internal/source"
)

type FetchServiceTestSuite struct {
	suite.Suite
	ctrl *gomock.Controller

	statuses *mocks.MockStatusStore
	queue    *mocks.MockEnqueuer
	progress *mocks.MockProgressReporter
	registry *source.Registry

	service *FetchService
	logger  *slog.Logger
}

func (s *FetchServiceTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())

	s.statuses = mocks.NewMockStatusStore(s.ctrl)
	s.queue = mocks.NewMockEnqueuer(s.ctrl)
	s.progress = mocks.NewMockProgressReporter(s.ctrl)

	hccg := mocks.NewMockMapper(s.ctrl)
	hccg.EXPECT().Name().Return("hccg").AnyTimes()
	taipei := mocks.NewMockMapper(s.ctrl)
	taipei.EXPECT().Name().Return("taipei").AnyTimes()
	s.registry = source.NewRegistry(hccg, taipei)

	s.logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	s.service = NewFetchService(s.registry, s.statuses, s.queue, s.progress, s.logger)
}

func (s *FetchServiceTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

func TestFetchServiceTestSuite(t *testing.T) {
	suite.Run(t, new(FetchServiceTestSuite))
}

func (s *FetchServiceTestSuite) TestTrigger_AllPendingIsProcessing() {
	ctx := context.Background()

	s.statuses.EXPECT().Get(ctx, "hccg").Return(domain.StatusPending, nil)
	s.statuses.EXPECT().Get(ctx, "taipei").Return(domain.StatusPending, nil)

	enqueued := make([]domain.FetchRequest, 0, 2)
	s.queue.EXPECT().Enqueue(ctx, gomock.Any()).Times(2).
		DoAndReturn(func(_ context.Context, req domain.FetchRequest) error {
			enqueued = append(enqueued, req)
			return nil
		})

	s.progress.EXPECT().Report(ctx, gomock.Any()).
		Return(domain.StatusCounts{Pending: 2}, nil)

	result, err := s.service.Trigger(ctx, 30, "")
	s.Require().NoError(err)

	s.Equal(domain.FetchProcessing, result.Status)
	s.NotEmpty(result.RequestID)
	s.Contains(result.Message, "0%")

	s.Len(enqueued, 2)
	s.Equal("hccg", enqueued[0].APIName)
	s.Equal("taipei", enqueued[1].APIName)
	s.Equal(30, enqueued[0].Number)
	s.Equal(result.RequestID, enqueued[0].RequestID)
}

func (s *FetchServiceTestSuite) TestTrigger_AllSuccessSkipsEnqueueAndIsOK() {
	ctx := context.Background()

	s.statuses.EXPECT().Get(ctx, "hccg").Return(domain.StatusSuccess, nil)
	s.statuses.EXPECT().Get(ctx, "taipei").Return(domain.StatusSuccess, nil)

	s.progress.EXPECT().Report(ctx, "req-1").
		Return(domain.StatusCounts{Success: 2}, nil)

	result, err := s.service.Trigger(ctx, 30, "req-1")
	s.Require().NoError(err)

	s.Equal(domain.FetchOK, result.Status)
	s.Equal("req-1", result.RequestID)
	s.Equal("Activities saved successfully", result.Message)
}

func (s *FetchServiceTestSuite) TestTrigger_SettledFailureIsDegraded() {
	ctx := context.Background()

	s.statuses.EXPECT().Get(ctx, "hccg").Return(domain.StatusFailure, nil)
	s.statuses.EXPECT().Get(ctx, "taipei").Return(domain.StatusSuccess, nil)

	// The failed source is re-enqueued for a background retry.
	s.queue.EXPECT().Enqueue(ctx, gomock.Any()).
		DoAndReturn(func(_ context.Context, req domain.FetchRequest) error {
			s.Equal("hccg", req.APIName)
			return nil
		})

	s.progress.EXPECT().Report(ctx, "req-2").
		Return(domain.StatusCounts{Success: 1, Failure: 1}, nil)
	s.progress.EXPECT().Failed(ctx).Return([]string{"hccg"}, nil)

	result, err := s.service.Trigger(ctx, 30, "req-2")
	s.Require().NoError(err)

	s.Equal(domain.FetchDegraded, result.Status)
	s.Equal("Cannot fetch hccg activities", result.Message)
}

func (s *FetchServiceTestSuite) TestTrigger_MixedPendingWinsOverFailure() {
	ctx := context.Background()

	s.statuses.EXPECT().Get(ctx, "hccg").Return(domain.StatusFailure, nil)
	s.statuses.EXPECT().Get(ctx, "taipei").Return(domain.StatusPending, nil)
	s.queue.EXPECT().Enqueue(ctx, gomock.Any()).Return(nil).Times(2)

	s.progress.EXPECT().Report(ctx, "req-3").
		Return(domain.StatusCounts{Failure: 1, Pending: 1}, nil)

	result, err := s.service.Trigger(ctx, 30, "req-3")
	s.Require().NoError(err)

	s.Equal(domain.FetchProcessing, result.Status)
	s.Contains(result.Message, "50%")
}

func (s *FetchServiceTestSuite) TestTrigger_EnqueueErrorPropagates() {
	ctx := context.Background()

	s.statuses.EXPECT().Get(ctx, "hccg").Return(domain.StatusPending, nil)
	s.queue.EXPECT().Enqueue(ctx, gomock.Any()).Return(errors.New("broker down"))

	_, err := s.service.Trigger(ctx, 30, "req-4")
	s.Error(err)
	s.Contains(err.Error(), "enqueue hccg")
}

func (s *FetchServiceTestSuite) TestTrigger_StatusErrorPropagates() {
	ctx := context.Background()

	s.statuses.EXPECT().Get(ctx, "hccg").Return(domain.FetchStatus(""), errors.New("db down"))

	_, err := s.service.Trigger(ctx, 30, "req-5")
	s.Error(err)
}

func (s *FetchServiceTestSuite) TestResync_ResetsAndEnqueuesEverySource() {
	ctx := context.Background()

	s.statuses.EXPECT().ResetAll(ctx, []string{"hccg", "taipei"}).Return(nil)

	var requestIDs []string
	s.queue.EXPECT().Enqueue(ctx, gomock.Any()).Times(2).
		DoAndReturn(func(_ context.Context, req domain.FetchRequest) error {
			requestIDs = append(requestIDs, req.RequestID)
			s.Equal(50, req.Number)
			return nil
		})

	err := s.service.Resync(ctx, 50)
	s.Require().NoError(err)

	s.Require().Len(requestIDs, 2)
	s.NotEmpty(requestIDs[0])
	s.Equal(requestIDs[0], requestIDs[1])
}
