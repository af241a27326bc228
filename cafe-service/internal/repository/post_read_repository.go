package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/cafein/cafein-server/shared/apperr"
	"github.com/cafein/cafein-server/shared/models"
)

type PostReadRepository struct {
	db *sqlx.DB
}

func NewPostReadRepository(db *sqlx.DB) *PostReadRepository {
	return &PostReadRepository{db: db}
}

const postViewSelect = `
	SELECT p.id, p.cafe_id, c.name AS cafe_name, p.member_id, m.display_name AS author_name,
		p.title, p.content, p.image, p.rating, p.created_at, p.updated_at,
		EXISTS (SELECT 1 FROM post_bookmarks b WHERE b.post_id = p.id AND b.member_id = $1) AS is_bookmarked
	FROM posts p
	JOIN cafes c ON c.id = p.cafe_id
	JOIN members m ON m.id = p.member_id`

// GetByID returns the post as seen by viewerID ("" for anonymous).
func (r *PostReadRepository) GetByID(ctx context.Context, postID, viewerID string) (*models.PostView, error) {
	var view models.PostView
	err := r.db.GetContext(ctx, &view, postViewSelect+` WHERE p.id = $2`, viewerID, postID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrPostNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get post: %w", err)
	}
	return &view, nil
}

// List returns posts newest first with the total count.
func (r *PostReadRepository) List(ctx context.Context, viewerID string, page models.Page) ([]models.PostView, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM posts`); err != nil {
		return nil, 0, fmt.Errorf("failed to count posts: %w", err)
	}

	posts := []models.PostView{}
	if total == 0 {
		return posts, 0, nil
	}
	query := postViewSelect + ` ORDER BY p.created_at DESC, p.id DESC LIMIT $2 OFFSET $3`
	if err := r.db.SelectContext(ctx, &posts, query, viewerID, page.Size, page.Offset()); err != nil {
		return nil, 0, fmt.Errorf("failed to list posts: %w", err)
	}
	return posts, total, nil
}

// ListByCafe returns a cafe's posts newest first.
func (r *PostReadRepository) ListByCafe(ctx context.Context, cafeID, viewerID string, page models.Page) ([]models.PostView, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM posts WHERE cafe_id = $1`, cafeID); err != nil {
		return nil, 0, fmt.Errorf("failed to count posts: %w", err)
	}

	posts := []models.PostView{}
	if total == 0 {
		return posts, 0, nil
	}
	query := postViewSelect + ` WHERE p.cafe_id = $2 ORDER BY p.created_at DESC, p.id DESC LIMIT $3 OFFSET $4`
	if err := r.db.SelectContext(ctx, &posts, query, viewerID, cafeID, page.Size, page.Offset()); err != nil {
		return nil, 0, fmt.Errorf("failed to list cafe posts: %w", err)
	}
	return posts, total, nil
}
