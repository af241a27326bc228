package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/cafein/cafein-server/shared/apperr"
	"github.com/cafein/cafein-server/shared/models"
)

// MemberRepository is cafe-service's read-only view of members, used for
// owner checks and password confirmation.
type MemberRepository struct {
	db *sql.DB
}

func NewMemberRepository(db *sql.DB) *MemberRepository {
	return &MemberRepository{db: db}
}

func (r *MemberRepository) GetByID(ctx context.Context, memberID string) (*models.Member, error) {
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
