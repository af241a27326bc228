package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/cafein/cafein-server/shared/apperr"
	shareddb "github.com/cafein/cafein-server/shared/db"
	"github.com/cafein/cafein-server/shared/models"
)

// MemberWriteRepository handles all state-mutating operations for members.
// It operates exclusively against the PostgreSQL write store.
type MemberWriteRepository struct {
	db *sql.DB
}

func NewMemberWriteRepository(db *sql.DB) *MemberWriteRepository {
	return &MemberWriteRepository{db: db}
}

func (r *MemberWriteRepository) Create(ctx context.Context, m *models.Member) error {
	query := `
		INSERT INTO members (id, email, display_name, password_hash, image, roles, is_privacy, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.ExecContext(ctx, query,
		m.ID, m.Email, m.DisplayName, m.PasswordHash, m.Image, pq.Array(m.Roles),
		m.IsPrivacy, m.CreatedAt, m.UpdatedAt,
	)
	if shareddb.IsPgError(err, shareddb.UniqueViolation) {
		return apperr.ErrEmailExists
	}
	if err != nil {
		return fmt.Errorf("failed to create member: %w", err)
	}
	return nil
}

func (r *MemberWriteRepository) GetByID(ctx context.Context, memberID string) (*models.Member, error) {
	query := `
		SELECT id, email, display_name, password_hash, image, roles, is_privacy, created_at, updated_at
		FROM members
		WHERE id = $1
	`
	var m models.Member
	err := r.db.QueryRowContext(ctx, query, memberID).Scan(
		&m.ID, &m.Email, &m.DisplayName, &m.PasswordHash, &m.Image, pq.Array(&m.Roles),
		&m.IsPrivacy, &m.CreatedAt, &m.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrMemberNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get member: %w", err)
	}
	return &m, nil
}

func (r *MemberWriteRepository) Update(ctx context.Context, m *models.Member) error {
	query := `
		UPDATE members
		SET display_name = $2, image = $3, is_privacy = $4, updated_at = $5
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query, m.ID, m.DisplayName, m.Image, m.IsPrivacy, m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update member: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return apperr.ErrMemberNotFound
	}
	return nil
}

// Delete removes the member and everything that cascades from it. Members
// that still own cafes are refused. The cafes the member had reviewed are
// flagged rating_stale in the same transaction and returned so their ratings
// can be recomputed. bookmarked lists the cafes whose bookmark_count went
// down with the member's cafe bookmarks.
func (r *MemberWriteRepository) Delete(ctx context.Context, memberID string) (reviewed, bookmarked []string, err error) {
	err = shareddb.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		var id string
		err := tx.QueryRowContext(ctx, `SELECT id FROM members WHERE id = $1 FOR UPDATE`, memberID).Scan(&id)
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.ErrMemberNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to lock member: %w", err)
		}

		var owned int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM cafes WHERE owner_id = $1`, memberID).Scan(&owned); err != nil {
			return fmt.Errorf("failed to count owned cafes: %w", err)
		}
		if owned > 0 {
			return apperr.ErrMemberOwnsCafes
		}

		reviewed, err = collectIDs(ctx, tx, "list reviewed cafes",
			`SELECT DISTINCT cafe_id FROM posts WHERE member_id = $1 ORDER BY cafe_id`, memberID)
		if err != nil {
			return err
		}
		if len(reviewed) > 0 {
			if _, err := tx.ExecContext(ctx,
				`UPDATE cafes SET rating_stale = TRUE, updated_at = NOW() WHERE id = ANY($1)`,
				pq.Array(reviewed),
			); err != nil {
				return fmt.Errorf("failed to mark ratings stale: %w", err)
			}
		}

		bookmarked, err = collectIDs(ctx, tx, "release cafe bookmarks", `
			UPDATE cafes SET bookmark_count = GREATEST(bookmark_count - 1, 0), updated_at = NOW()
			WHERE id IN (SELECT cafe_id FROM cafe_bookmarks WHERE member_id = $1)
			RETURNING id`, memberID)
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM members WHERE id = $1`, memberID); err != nil {
			return fmt.Errorf("failed to delete member: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return reviewed, bookmarked, nil
}

// collectIDs runs a single-column id query inside tx.
func collectIDs(ctx context.Context, tx *sql.Tx, what, query string, args ...any) ([]string, error) {
	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to %s: %w", what, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan cafe id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
