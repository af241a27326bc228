package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/cafein/cafein-server/shared/apperr"
	shareddb "github.com/cafein/cafein-server/shared/db"
)

// PostBookmarkRepository stores (member, post) bookmark pairs.
type PostBookmarkRepository struct {
	db *sql.DB
}

func NewPostBookmarkRepository(db *sql.DB) *PostBookmarkRepository {
	return &PostBookmarkRepository{db: db}
}

// Add is idempotent; created is false when the pair already existed.
func (r *PostBookmarkRepository) Add(ctx context.Context, memberID, postID string) (created bool, err error) {
	result, err := r.db.ExecContext(ctx, `
		INSERT INTO post_bookmarks (member_id, post_id, created_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (member_id, post_id) DO NOTHING`, memberID, postID)
	if err != nil {
		if shareddb.IsPgError(err, shareddb.ForeignKeyViolation) {
			return false, missingBookmarkTarget(err, apperr.ErrPostNotFound)
		}
		return false, fmt.Errorf("failed to bookmark post: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check rows affected: %w", err)
	}
	return rows == 1, nil
}

func (r *PostBookmarkRepository) Remove(ctx context.Context, memberID, postID string) (removed bool, err error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM post_bookmarks WHERE member_id = $1 AND post_id = $2`, memberID, postID)
	if err != nil {
		return false, fmt.Errorf("failed to remove post bookmark: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check rows affected: %w", err)
	}
	return rows == 1, nil
}

// missingBookmarkTarget maps a bookmark insert's foreign-key violation to the
// side that is gone: the member (deleted after the token was issued) or the
// bookmarked row.
func missingBookmarkTarget(err error, targetErr error) error {
	if strings.HasSuffix(shareddb.ViolatedConstraint(err), "_member_id_fkey") {
		return apperr.ErrMemberNotFound
	}
	return targetErr
}
