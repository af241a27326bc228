package query

import (
	"context"

	"github.com/cafein/cafein-server/shared/cqrs"
	"github.com/cafein/cafein-server/shared/models"
)

type PostReader interface {
	GetByID(ctx context.Context, postID, viewerID string) (*models.PostView, error)
	List(ctx context.Context, viewerID string, page models.Page) ([]models.PostView, int, error)
	ListByCafe(ctx context.Context, cafeID, viewerID string, page models.Page) ([]models.PostView, int, error)
}

type PostQueryService struct {
	posts PostReader
	cafes CafeReader
}

func NewPostQueryService(posts PostReader, cafes CafeReader) *PostQueryService {
	return &PostQueryService{posts: posts, cafes: cafes}
}

func (s *PostQueryService) GetPost(ctx context.Context, q cqrs.GetPostQuery) (*models.PostView, error) {
	return s.posts.GetByID(ctx, q.PostID, q.ViewerID)
}

func (s *PostQueryService) ListPosts(ctx context.Context, q cqrs.ListPostsQuery) (*models.PostPage, error) {
	posts, total, err := s.posts.List(ctx, q.ViewerID, q.Page)
	if err != nil {
		return nil, err
	}
	return &models.PostPage{Content: posts, PageInfo: models.NewPageInfo(q.Page, total)}, nil
}

// ListCafePosts fails with CAFE_NOT_FOUND for unknown cafes rather than
// returning an empty page.
func (s *PostQueryService) ListCafePosts(ctx context.Context, q cqrs.ListCafePostsQuery) (*models.PostPage, error) {
	if _, err := s.cafes.GetDetail(ctx, q.CafeID); err != nil {
		return nil, err
	}
	posts, total, err := s.posts.ListByCafe(ctx, q.CafeID, q.ViewerID, q.Page)
	if err != nil {
		return nil, err
	}
	return &models.PostPage{Content: posts, PageInfo: models.NewPageInfo(q.Page, total)}, nil
}
