package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/cafein/cafein-server/shared/apperr"
	shareddb "github.com/cafein/cafein-server/shared/db"
	"github.com/cafein/cafein-server/shared/models"
)

// PostWriteRepository mutates posts. Every mutation recomputes the owning
// cafe's rating in the same transaction, under the cafe row lock.
type PostWriteRepository struct {
	db *sql.DB
}

func NewPostWriteRepository(db *sql.DB) *PostWriteRepository {
	return &PostWriteRepository{db: db}
}

func (r *PostWriteRepository) GetByID(ctx context.Context, postID string) (*models.Post, error) {
	query := `
		SELECT id, cafe_id, member_id, title, content, image, rating, created_at, updated_at
		FROM posts
		WHERE id = $1
	`
	var p models.Post
	err := r.db.QueryRowContext(ctx, query, postID).Scan(
		&p.ID, &p.CafeID, &p.MemberID, &p.Title, &p.Content, &p.Image, &p.Rating, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrPostNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get post: %w", err)
	}
	return &p, nil
}

// CreateWithRating inserts post and refreshes its cafe's rating atomically.
// An unknown cafe fails with CAFE_NOT_FOUND before anything is written.
func (r *PostWriteRepository) CreateWithRating(ctx context.Context, post *models.Post) (*models.CafeRating, error) {
	var rating *models.CafeRating
	err := shareddb.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := lockCafe(ctx, tx, post.CafeID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO posts (id, cafe_id, member_id, title, content, image, rating, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			post.ID, post.CafeID, post.MemberID, post.Title, post.Content, post.Image, post.Rating,
			post.CreatedAt, post.UpdatedAt,
		)
		if err != nil {
			if shareddb.IsPgError(err, shareddb.ForeignKeyViolation) {
				return apperr.ErrMemberNotFound
			}
			return fmt.Errorf("failed to create post: %w", err)
		}
		rating, err = applyRating(ctx, tx, post.CafeID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rating, nil
}

// UpdateWithRating rewrites the post's editable fields and refreshes the
// rating of its cafe.
func (r *PostWriteRepository) UpdateWithRating(ctx context.Context, post *models.Post) (*models.CafeRating, error) {
	var rating *models.CafeRating
	err := shareddb.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := lockCafe(ctx, tx, post.CafeID); err != nil {
			return err
		}
		result, err := tx.ExecContext(ctx, `
			UPDATE posts SET title = $2, content = $3, rating = $4, updated_at = $5
			WHERE id = $1`,
			post.ID, post.Title, post.Content, post.Rating, post.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to update post: %w", err)
		}
		if err := expectOneRow(result, apperr.ErrPostNotFound); err != nil {
			return err
		}
		rating, err = applyRating(ctx, tx, post.CafeID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rating, nil
}

// DeleteWithRating removes the post (and its bookmarks, by cascade) and
// refreshes the rating of cafeID.
func (r *PostWriteRepository) DeleteWithRating(ctx context.Context, postID, cafeID string) (*models.CafeRating, error) {
	var rating *models.CafeRating
	err := shareddb.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := lockCafe(ctx, tx, cafeID); err != nil {
			return err
		}
		result, err := tx.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, postID)
		if err != nil {
			return fmt.Errorf("failed to delete post: %w", err)
		}
		if err := expectOneRow(result, apperr.ErrPostNotFound); err != nil {
			return err
		}
		rating, err = applyRating(ctx, tx, cafeID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rating, nil
}
