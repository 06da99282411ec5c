package service

import (
	"context"
	"fmt"
	"log/slog"

	"eventure/internal/apperr"
)

// LikeResult is the response payload of a like toggle.
type LikeResult struct {
	Serno      string `json:"serno"`
	LikesCount int    `json:"likes_count"`
	Liked      bool   `json:"liked"`
}

// LikeService toggles per-session likes. The session's liked set lives
// in redis and decides direction; the counter on the activity row is the
// shared total.
type LikeService struct {
	activities ActivityStore
	likes      LikeSet
	logger     *slog.Logger
}

func NewLikeService(activities ActivityStore, likes LikeSet, logger *slog.Logger) *LikeService {
	return &LikeService{
		activities: activities,
		likes:      likes,
		logger:     logger,
	}
}

func (s *LikeService) Toggle(ctx context.Context, sessionID, serno string) (LikeResult, error) {
	activity, err := s.activities.FindBySerno(ctx, serno)
	if err != nil {
		return LikeResult{}, fmt.Errorf("find activity %s: %w", serno, err)
	}
	if activity == nil {
		return LikeResult{}, apperr.NewNotFound("Activity not found")
	}

	liked, err := s.likes.Contains(ctx, sessionID, serno)
	if err != nil {
		return LikeResult{}, fmt.Errorf("check liked set: %w", err)
	}

	if liked {
		activity.RemoveLike()
		if err := s.likes.Remove(ctx, sessionID, serno); err != nil {
			return LikeResult{}, fmt.Errorf("remove from liked set: %w", err)
		}
	} else {
		activity.AddLike()
		if err := s.likes.Add(ctx, sessionID, serno); err != nil {
			return LikeResult{}, fmt.Errorf("add to liked set: %w", err)
		}
	}

	if err := s.activities.UpdateLikes(ctx, activity); err != nil {
		return LikeResult{}, fmt.Errorf("persist likes: %w", err)
	}

	s.logger.Debug("toggled like",
		"serno", serno,
		"liked", !liked,
		"likes_count", activity.LikesCount,
	)

	return LikeResult{
		Serno:      serno,
		LikesCount: activity.LikesCount,
		Liked:      !liked,
	}, nil
}
