package query

import (
	"context"

	"go.uber.org/zap"

	"github.com/cafein/cafein-server/shared/cqrs"
	"github.com/cafein/cafein-server/shared/models"
)

type MemberReader interface {
	GetView(ctx context.Context, memberID string) (*models.MemberView, error)
	ListPosts(ctx context.Context, memberID string, page models.Page) ([]models.PostSummary, int, error)
}

type StatsReader interface {
	Get(ctx context.Context, memberID string) (posts, bookmarks int64, err error)
}

type MemberQueryService struct {
	members MemberReader
	stats   StatsReader
	logger  *zap.Logger
}

func NewMemberQueryService(members MemberReader, stats StatsReader, logger *zap.Logger) *MemberQueryService {
	return &MemberQueryService{members: members, stats: stats, logger: logger}
}

// GetMember returns the profile with its activity counters. A counter
// outage degrades to zero counts rather than failing the page.
func (s *MemberQueryService) GetMember(ctx context.Context, q cqrs.GetMemberQuery) (*models.MemberView, error) {
	view, err := s.members.GetView(ctx, q.MemberID)
	if err != nil {
		return nil, err
	}
	out := *view
	posts, bookmarks, err := s.stats.Get(ctx, q.MemberID)
	if err != nil {
		s.logger.Warn("member stats unavailable", zap.String("memberId", q.MemberID), zap.Error(err))
	}
	out.PostCount, out.BookmarkCount = posts, bookmarks
	return &out, nil
}

func (s *MemberQueryService) ListMemberPosts(ctx context.Context, q cqrs.ListMemberPostsQuery) (*models.PostSummaryPage, error) {
	posts, total, err := s.members.ListPosts(ctx, q.MemberID, q.Page)
	if err != nil {
		return nil, err
	}
	return &models.PostSummaryPage{Content: posts, PageInfo: models.NewPageInfo(q.Page, total)}, nil
}
