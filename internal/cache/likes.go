package cache

import (
	"context"
)

// LikeSet tracks which activities a browser session has liked, as a
// Redis set keyed by session id. The set decides toggle direction; the
// authoritative counter lives in postgres.
type LikeSet struct {
	redis *Redis
}

func NewLikeSet(r *Redis) *LikeSet {
	return &LikeSet{redis: r}
}

func (l *LikeSet) setKey(sessionID string) string {
	return l.redis.key("likes:" + sessionID)
}

// Contains reports whether the session has already liked the serial.
func (l *LikeSet) Contains(ctx context.Context, sessionID, serno string) (bool, error) {
	return l.redis.client.SIsMember(ctx, l.setKey(sessionID), serno).Result()
}

func (l *LikeSet) Add(ctx context.Context, sessionID, serno string) error {
	return l.redis.client.SAdd(ctx, l.setKey(sessionID), serno).Err()
}

func (l *LikeSet) Remove(ctx context.Context, sessionID, serno string) error {
	return l.redis.client.SRem(ctx, l.setKey(sessionID), serno).Err()
}
