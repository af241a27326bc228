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

// CafeWriteRepository handles all state-mutating operations for cafes,
// including the derived rating and bookmark counters.
type CafeWriteRepository struct {
	db *sql.DB
}

func NewCafeWriteRepository(db *sql.DB) *CafeWriteRepository {
	return &CafeWriteRepository{db: db}
}

const cafeColumns = `id, owner_id, name, address, contact_number, notice, image, open_time, close_time,
	is_open_all_time, is_charging_available, has_parking, is_pet_friendly, has_dessert,
	rating, rating_stale, bookmark_count, post_count, created_at, updated_at`

func (r *CafeWriteRepository) Create(ctx context.Context, cafe *models.Cafe) error {
	query := `
		INSERT INTO cafes (id, owner_id, name, address, contact_number, notice, image, open_time, close_time,
			is_open_all_time, is_charging_available, has_parking, is_pet_friendly, has_dessert,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`
	_, err := r.db.ExecContext(ctx, query,
		cafe.ID, cafe.OwnerID, cafe.Name, cafe.Address, cafe.ContactNumber, cafe.Notice, cafe.Image,
		cafe.OpenTime, cafe.CloseTime,
		cafe.IsOpenAllTime, cafe.IsChargingAvailable, cafe.HasParking, cafe.IsPetFriendly, cafe.HasDessert,
		cafe.CreatedAt, cafe.UpdatedAt,
	)
	if err != nil {
		if shareddb.IsPgError(err, shareddb.ForeignKeyViolation) {
			return apperr.ErrOwnerNotFound
		}
		return fmt.Errorf("failed to create cafe: %w", err)
	}
	return nil
}

// GetByID fetches the full write model including OwnerID for ownership checks.
func (r *CafeWriteRepository) GetByID(ctx context.Context, cafeID string) (*models.Cafe, error) {
	query := `SELECT ` + cafeColumns + ` FROM cafes WHERE id = $1`
	cafe, err := scanCafe(r.db.QueryRowContext(ctx, query, cafeID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrCafeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cafe: %w", err)
	}
	return cafe, nil
}

func (r *CafeWriteRepository) Update(ctx context.Context, cafe *models.Cafe) error {
	query := `
		UPDATE cafes
		SET name = $2, address = $3, contact_number = $4, notice = $5, open_time = $6, close_time = $7,
			is_open_all_time = $8, is_charging_available = $9, has_parking = $10, is_pet_friendly = $11,
			has_dessert = $12, updated_at = $13
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query,
		cafe.ID, cafe.Name, cafe.Address, cafe.ContactNumber, cafe.Notice, cafe.OpenTime, cafe.CloseTime,
		cafe.IsOpenAllTime, cafe.IsChargingAvailable, cafe.HasParking, cafe.IsPetFriendly, cafe.HasDessert,
		cafe.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update cafe: %w", err)
	}
	return expectOneRow(result, apperr.ErrCafeNotFound)
}

// Delete removes the cafe; its posts and bookmarks go with it through the
// ON DELETE CASCADE foreign keys.
func (r *CafeWriteRepository) Delete(ctx context.Context, cafeID string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM cafes WHERE id = $1`, cafeID)
	if err != nil {
		return fmt.Errorf("failed to delete cafe: %w", err)
	}
	return expectOneRow(result, apperr.ErrCafeNotFound)
}

func (r *CafeWriteRepository) CountByOwner(ctx context.Context, ownerID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM cafes WHERE owner_id = $1`, ownerID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count cafes: %w", err)
	}
	return count, nil
}

// RecalculateRating recomputes the cafe's rating and post count from its
// posts under the cafe row lock and clears the stale flag.
func (r *CafeWriteRepository) RecalculateRating(ctx context.Context, cafeID string) (*models.CafeRating, error) {
	var rating *models.CafeRating
	err := shareddb.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := lockCafe(ctx, tx, cafeID); err != nil {
			return err
		}
		var err error
		rating, err = applyRating(ctx, tx, cafeID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rating, nil
}

// AddBookmark is idempotent. created is false when the member had already
// bookmarked the cafe, in which case the counter is left alone.
func (r *CafeWriteRepository) AddBookmark(ctx context.Context, memberID, cafeID string) (created bool, err error) {
	err = shareddb.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `
			INSERT INTO cafe_bookmarks (member_id, cafe_id, created_at)
			VALUES ($1, $2, NOW())
			ON CONFLICT (member_id, cafe_id) DO NOTHING`, memberID, cafeID)
		if err != nil {
			if shareddb.IsPgError(err, shareddb.ForeignKeyViolation) {
				return missingBookmarkTarget(err, apperr.ErrCafeNotFound)
			}
			return fmt.Errorf("failed to bookmark cafe: %w", err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to check rows affected: %w", err)
		}
		if rows == 0 {
			return nil
		}
		created = true
		_, err = tx.ExecContext(ctx, `
			UPDATE cafes SET bookmark_count = bookmark_count + 1, updated_at = NOW()
			WHERE id = $1`, cafeID)
		if err != nil {
			return fmt.Errorf("failed to increment bookmark count: %w", err)
		}
		return nil
	})
	return created, err
}

// RemoveBookmark reports whether a bookmark existed.
func (r *CafeWriteRepository) RemoveBookmark(ctx context.Context, memberID, cafeID string) (removed bool, err error) {
	err = shareddb.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx,
			`DELETE FROM cafe_bookmarks WHERE member_id = $1 AND cafe_id = $2`, memberID, cafeID)
		if err != nil {
			return fmt.Errorf("failed to remove cafe bookmark: %w", err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to check rows affected: %w", err)
		}
		if rows == 0 {
			return nil
		}
		removed = true
		_, err = tx.ExecContext(ctx, `
			UPDATE cafes SET bookmark_count = GREATEST(bookmark_count - 1, 0), updated_at = NOW()
			WHERE id = $1`, cafeID)
		if err != nil {
			return fmt.Errorf("failed to decrement bookmark count: %w", err)
		}
		return nil
	})
	return removed, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCafe(row rowScanner) (*models.Cafe, error) {
	var c models.Cafe
	err := row.Scan(
		&c.ID, &c.OwnerID, &c.Name, &c.Address, &c.ContactNumber, &c.Notice, &c.Image, &c.OpenTime, &c.CloseTime,
		&c.IsOpenAllTime, &c.IsChargingAvailable, &c.HasParking, &c.IsPetFriendly, &c.HasDessert,
		&c.Rating, &c.RatingStale, &c.BookmarkCount, &c.PostCount, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func expectOneRow(result sql.Result, notFound error) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return notFound
	}
	return nil
}
