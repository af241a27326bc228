package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	goredis "github.com/redis/go-redis/v9"
)

const (
	StatPosts     = "posts"
	StatBookmarks = "bookmarks"
)

// MemberStats keeps per-member activity counters in a Redis hash. It is the
// read model behind the my-page post and bookmark counts.
type MemberStats struct {
	client *goredis.Client
}

func NewMemberStats(client *goredis.Client) *MemberStats {
	return &MemberStats{client: client}
}

func (s *MemberStats) Incr(ctx context.Context, memberID, field string, delta int64) error {
	if err := s.client.HIncrBy(ctx, MemberStatsKey(memberID), field, delta).Err(); err != nil {
		return fmt.Errorf("failed to update %s stat for %s: %w", field, memberID, err)
	}
	return nil
}

// Get returns zero counters for members without recorded activity.
func (s *MemberStats) Get(ctx context.Context, memberID string) (posts, bookmarks int64, err error) {
	values, err := s.client.HGetAll(ctx, MemberStatsKey(memberID)).Result()
	if err != nil && !errors.Is(err, goredis.Nil) {
		return 0, 0, fmt.Errorf("failed to read stats for %s: %w", memberID, err)
	}
	posts = clampNonNegative(values[StatPosts])
	bookmarks = clampNonNegative(values[StatBookmarks])
	return posts, bookmarks, nil
}

func (s *MemberStats) Reset(ctx context.Context, memberID string) error {
	return s.client.Del(ctx, MemberStatsKey(memberID)).Err()
}

func clampNonNegative(raw string) int64 {
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
