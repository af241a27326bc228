package query

import (
	"context"

	"github.com/cafein/cafein-server/shared/cqrs"
	"github.com/cafein/cafein-server/shared/models"
)

type CafeReader interface {
	GetDetail(ctx context.Context, cafeID string) (*models.CafeDetailView, error)
	IsBookmarkedBy(ctx context.Context, memberID, cafeID string) (bool, error)
	Search(ctx context.Context, viewerID string, filter models.FilterCondition, order models.SortOrder, page models.Page) ([]models.CafeView, int, error)
}

type CafeQueryService struct {
	cafes CafeReader
}

func NewCafeQueryService(cafes CafeReader) *CafeQueryService {
	return &CafeQueryService{cafes: cafes}
}

// GetCafe returns the cafe detail personalised for the viewer. Anonymous
// viewers never own or bookmark anything.
func (s *CafeQueryService) GetCafe(ctx context.Context, q cqrs.GetCafeQuery) (*models.CafeDetailView, error) {
	cached, err := s.cafes.GetDetail(ctx, q.CafeID)
	if err != nil {
		return nil, err
	}
	view := *cached

	bookmarked, err := s.cafes.IsBookmarkedBy(ctx, q.ViewerID, q.CafeID)
	if err != nil {
		return nil, err
	}
	view.IsBookmarked = bookmarked
	view.IsOwner = q.ViewerID != "" && view.OwnerID == q.ViewerID
	return &view, nil
}

// SearchCafesByFilterCondition returns matching cafes in the default order.
func (s *CafeQueryService) SearchCafesByFilterCondition(ctx context.Context, q cqrs.SearchCafesQuery) (*models.CafePage, error) {
	return s.search(ctx, q, models.SortDefault)
}

// SearchCafesByFilterConditionAndOrder validates orderKey before any query
// runs; unknown keys fail with REQUEST_VALIDATION_FAIL.
func (s *CafeQueryService) SearchCafesByFilterConditionAndOrder(ctx context.Context, q cqrs.SearchCafesQuery, orderKey string) (*models.CafePage, error) {
	order, err := models.ParseSortOrder(orderKey)
	if err != nil {
		return nil, err
	}
	return s.search(ctx, q, order)
}

func (s *CafeQueryService) search(ctx context.Context, q cqrs.SearchCafesQuery, order models.SortOrder) (*models.CafePage, error) {
	cafes, total, err := s.cafes.Search(ctx, q.ViewerID, q.Filter, order, q.Page)
	if err != nil {
		return nil, err
	}
	return &models.CafePage{Content: cafes, PageInfo: models.NewPageInfo(q.Page, total)}, nil
}
