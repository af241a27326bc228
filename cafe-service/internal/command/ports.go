package command

import (
	"context"

	"github.com/cafein/cafein-server/shared/models"
)

// CafeWriter is the cafe write store. *repository.CafeWriteRepository
// implements it.
type CafeWriter interface {
	Create(ctx context.Context, cafe *models.Cafe) error
	GetByID(ctx context.Context, cafeID string) (*models.Cafe, error)
	Update(ctx context.Context, cafe *models.Cafe) error
	Delete(ctx context.Context, cafeID string) error
	RecalculateRating(ctx context.Context, cafeID string) (*models.CafeRating, error)
	AddBookmark(ctx context.Context, memberID, cafeID string) (bool, error)
	RemoveBookmark(ctx context.Context, memberID, cafeID string) (bool, error)
}

type MemberReader interface {
	GetByID(ctx context.Context, memberID string) (*models.Member, error)
}

type PostWriter interface {
	GetByID(ctx context.Context, postID string) (*models.Post, error)
	CreateWithRating(ctx context.Context, post *models.Post) (*models.CafeRating, error)
	UpdateWithRating(ctx context.Context, post *models.Post) (*models.CafeRating, error)
	DeleteWithRating(ctx context.Context, postID, cafeID string) (*models.CafeRating, error)
}

type PostBookmarkWriter interface {
	Add(ctx context.Context, memberID, postID string) (bool, error)
	Remove(ctx context.Context, memberID, postID string) (bool, error)
}

// CafeCacheInvalidator drops cached cafe read models after a write.
type CafeCacheInvalidator interface {
	InvalidateDetail(ctx context.Context, cafeID string)
}

type EventPublisher interface {
	Publish(ctx context.Context, stream, eventType string, data any) error
}
