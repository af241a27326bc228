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

const memberColumns = `id, email, display_name, password_hash, image, roles, is_privacy, created_at, updated_at`

type MemberRepository struct {
	db *sql.DB
}

func NewMemberRepository(db *sql.DB) *MemberRepository {
	return &MemberRepository{db: db}
}

func (r *MemberRepository) GetByEmail(ctx context.Context, email string) (*models.Member, error) {
	query := `SELECT ` + memberColumns + ` FROM members WHERE email = $1`
	return scanMember(r.db.QueryRowContext(ctx, query, email))
}

// CreateIfAbsent inserts m unless a member with the same email exists. It
// returns the stored member and whether this call created it, so two
// concurrent first logins end up with one account.
func (r *MemberRepository) CreateIfAbsent(ctx context.Context, m *models.Member) (*models.Member, bool, error) {
	query := `
		INSERT INTO members (id, email, display_name, password_hash, image, roles, is_privacy, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (email) DO NOTHING
		RETURNING ` + memberColumns

	created, err := scanMember(r.db.QueryRowContext(ctx, query,
		m.ID, m.Email, m.DisplayName, m.PasswordHash, m.Image, pq.Array(m.Roles),
		m.IsPrivacy, m.CreatedAt, m.UpdatedAt,
	))
	if err == nil {
		return created, true, nil
	}
	if !errors.Is(err, apperr.ErrMemberNotFound) {
		return nil, false, fmt.Errorf("failed to create member: %w", err)
	}

	existing, err := r.GetByEmail(ctx, m.Email)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

func scanMember(row *sql.Row) (*models.Member, error) {
	var m models.Member
	err := row.Scan(
		&m.ID, &m.Email, &m.DisplayName, &m.PasswordHash, &m.Image, pq.Array(&m.Roles),
		&m.IsPrivacy, &m.CreatedAt, &m.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrMemberNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan member: %w", err)
	}
	return &m, nil
}
