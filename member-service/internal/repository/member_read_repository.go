package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/cafein/cafein-server/shared/apperr"
	"github.com/cafein/cafein-server/shared/models"
	sharedredis "github.com/cafein/cafein-server/shared/redis"
)

// MemberReadRepository serves the my-page read models. Profiles come from
// Redis first and fall back to PostgreSQL; counters are filled in by the
// query service.
type MemberReadRepository struct {
	db    *sqlx.DB
	cache sharedredis.Cache[models.MemberView]
}

func NewMemberReadRepository(db *sqlx.DB, cache sharedredis.Cache[models.MemberView]) *MemberReadRepository {
	return &MemberReadRepository{db: db, cache: cache}
}

func (r *MemberReadRepository) GetView(ctx context.Context, memberID string) (*models.MemberView, error) {
	if view, ok := r.cache.Get(ctx, sharedredis.MemberKey(memberID)); ok {
		return view, nil
	}

	query := `
		SELECT id, email, display_name, image, roles, is_privacy, created_at
		FROM members
		WHERE id = $1
	`
	var view models.MemberView
	err := r.db.QueryRowxContext(ctx, query, memberID).Scan(
		&view.ID, &view.Email, &view.DisplayName, &view.Image, pq.Array(&view.Roles),
		&view.IsPrivacy, &view.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrMemberNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get member: %w", err)
	}

	r.CacheView(ctx, &view)
	return &view, nil
}

// CacheView stores the viewer-independent part of a profile; counters are
// never cached with it.
func (r *MemberReadRepository) CacheView(ctx context.Context, view *models.MemberView) {
	cp := *view
	cp.PostCount, cp.BookmarkCount = 0, 0
	r.cache.Set(ctx, sharedredis.MemberKey(view.ID), &cp)
}

func (r *MemberReadRepository) InvalidateView(ctx context.Context, memberID string) {
	r.cache.Delete(ctx, sharedredis.MemberKey(memberID))
}

// ListPosts returns one page of the member's posts, newest first, and the
// total number of posts they wrote.
func (r *MemberReadRepository) ListPosts(ctx context.Context, memberID string, page models.Page) ([]models.PostSummary, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM posts WHERE member_id = $1`, memberID); err != nil {
		return nil, 0, fmt.Errorf("failed to count posts: %w", err)
	}
	if total == 0 {
		return []models.PostSummary{}, 0, nil
	}

	query := `
		SELECT p.id, p.image, p.title, m.display_name AS author
		FROM posts p
		JOIN members m ON m.id = p.member_id
		WHERE p.member_id = $1
		ORDER BY p.created_at DESC, p.id DESC
		LIMIT $2 OFFSET $3
	`
	posts := []models.PostSummary{}
	if err := r.db.SelectContext(ctx, &posts, query, memberID, page.Size, page.Offset()); err != nil {
		return nil, 0, fmt.Errorf("failed to list posts: %w", err)
	}
	return posts, total, nil
}
