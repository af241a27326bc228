package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/cafein/cafein-server/shared/apperr"
	"github.com/cafein/cafein-server/shared/models"
)

// lockCafe takes the row lock every rating mutation serialises on. It must
// run before the post rows are touched.
func lockCafe(ctx context.Context, tx *sql.Tx, cafeID string) error {
	var id string
	err := tx.QueryRowContext(ctx, `SELECT id FROM cafes WHERE id = $1 FOR UPDATE`, cafeID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.ErrCafeNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to lock cafe: %w", err)
	}
	return nil
}

// applyRating recomputes rating and post_count from the posts visible to tx
// and writes them back.
func applyRating(ctx context.Context, tx *sql.Tx, cafeID string) (*models.CafeRating, error) {
	rows, err := tx.QueryContext(ctx, `SELECT rating FROM posts WHERE cafe_id = $1`, cafeID)
	if err != nil {
		return nil, fmt.Errorf("failed to read post ratings: %w", err)
	}
	defer rows.Close()

	var ratings []int
	for rows.Next() {
		var rating int
		if err := rows.Scan(&rating); err != nil {
			return nil, fmt.Errorf("failed to scan post rating: %w", err)
		}
		ratings = append(ratings, rating)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read post ratings: %w", err)
	}

	result := &models.CafeRating{
		CafeID:    cafeID,
		Rating:    models.AggregateRating(ratings),
		PostCount: len(ratings),
	}
	_, err = tx.ExecContext(ctx, `
		UPDATE cafes SET rating = $2, post_count = $3, rating_stale = FALSE, updated_at = NOW()
		WHERE id = $1`, cafeID, result.Rating, result.PostCount)
	if err != nil {
		return nil, fmt.Errorf("failed to update cafe rating: %w", err)
	}
	return result, nil
}
