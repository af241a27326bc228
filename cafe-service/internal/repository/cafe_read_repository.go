package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/cafein/cafein-server/shared/apperr"
	"github.com/cafein/cafein-server/shared/models"
	sharedredis "github.com/cafein/cafein-server/shared/redis"
)

// CafeReadRepository serves cafe read models. Details are cached in Redis
// with a PostgreSQL fallback; searches always hit PostgreSQL.
type CafeReadRepository struct {
	db    *sqlx.DB
	cache sharedredis.Cache[models.CafeDetailView]
	loc   *time.Location
	now   func() time.Time
}

func NewCafeReadRepository(db *sqlx.DB, cache sharedredis.Cache[models.CafeDetailView], loc *time.Location) *CafeReadRepository {
	if loc == nil {
		loc = time.UTC
	}
	return &CafeReadRepository{db: db, cache: cache, loc: loc, now: time.Now}
}

// GetDetail returns the viewer-independent detail view of a cafe.
func (r *CafeReadRepository) GetDetail(ctx context.Context, cafeID string) (*models.CafeDetailView, error) {
	if view, ok := r.cache.Get(ctx, sharedredis.CafeKey(cafeID)); ok {
		return view, nil
	}

	query := `
		SELECT id, owner_id, name, address, contact_number, notice, image, open_time, close_time,
			is_open_all_time, is_charging_available, has_parking, is_pet_friendly, has_dessert,
			rating, rating_stale, bookmark_count, post_count, created_at, updated_at
		FROM cafes
		WHERE id = $1
	`
	var view models.CafeDetailView
	err := r.db.GetContext(ctx, &view, query, cafeID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrCafeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cafe: %w", err)
	}

	r.cache.Set(ctx, sharedredis.CafeKey(cafeID), &view)
	return &view, nil
}

func (r *CafeReadRepository) IsBookmarkedBy(ctx context.Context, memberID, cafeID string) (bool, error) {
	if memberID == "" {
		return false, nil
	}
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM cafe_bookmarks WHERE member_id = $1 AND cafe_id = $2)`, memberID, cafeID)
	if err != nil {
		return false, fmt.Errorf("failed to check cafe bookmark: %w", err)
	}
	return exists, nil
}

// InvalidateDetail drops the cached detail view so the next read reloads it.
func (r *CafeReadRepository) InvalidateDetail(ctx context.Context, cafeID string) {
	r.cache.Delete(ctx, sharedredis.CafeKey(cafeID))
}

// Search returns one page of cafes matching filter in the given order, plus
// the total number of matches. IsBookmarked is relative to viewerID.
func (r *CafeReadRepository) Search(
	ctx context.Context,
	viewerID string,
	filter models.FilterCondition,
	order models.SortOrder,
	page models.Page,
) ([]models.CafeView, int, error) {
	where, args := r.buildFilter(filter)

	var total int
	countQuery := `SELECT COUNT(*) FROM cafes c` + where
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count cafes: %w", err)
	}
	if total == 0 {
		return []models.CafeView{}, 0, nil
	}

	n := len(args)
	query := fmt.Sprintf(`
		SELECT c.id, c.name, c.address, c.image, c.rating, c.rating_stale, c.bookmark_count, c.post_count, c.created_at,
			EXISTS (SELECT 1 FROM cafe_bookmarks b WHERE b.cafe_id = c.id AND b.member_id = $%d) AS is_bookmarked
		FROM cafes c%s
		ORDER BY %s
		LIMIT $%d OFFSET $%d`, n+1, where, orderClause(order), n+2, n+3)
	args = append(args, viewerID, page.Size, page.Offset())

	cafes := []models.CafeView{}
	if err := r.db.SelectContext(ctx, &cafes, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to search cafes: %w", err)
	}
	return cafes, total, nil
}

func (r *CafeReadRepository) buildFilter(filter models.FilterCondition) (string, []any) {
	var clauses []string
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if kw := strings.TrimSpace(filter.Keyword); kw != "" {
		p := arg("%" + escapeLike(kw) + "%")
		clauses = append(clauses, fmt.Sprintf("(c.name ILIKE %s OR c.address ILIKE %s)", p, p))
	}
	if region := strings.TrimSpace(filter.Region); region != "" {
		clauses = append(clauses, "c.address ILIKE "+arg(escapeLike(region)+"%"))
	}
	if filter.IsOpenAllTime {
		clauses = append(clauses, "c.is_open_all_time")
	}
	if filter.IsChargingAvailable {
		clauses = append(clauses, "c.is_charging_available")
	}
	if filter.HasParking {
		clauses = append(clauses, "c.has_parking")
	}
	if filter.IsPetFriendly {
		clauses = append(clauses, "c.is_pet_friendly")
	}
	if filter.HasDessert {
		clauses = append(clauses, "c.has_dessert")
	}
	if filter.OpenNow {
		// HH:MM strings compare correctly as text; close < open means the
		// cafe closes after midnight.
		t := arg(r.now().In(r.loc).Format("15:04"))
		clauses = append(clauses, fmt.Sprintf(
			"(c.is_open_all_time OR (c.open_time <= c.close_time AND c.open_time <= %[1]s AND %[1]s < c.close_time)"+
				" OR (c.close_time < c.open_time AND (c.open_time <= %[1]s OR %[1]s < c.close_time)))", t))
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// orderClause maps each SortOrder to its fixed ORDER BY. No client input is
// ever interpolated here.
func orderClause(order models.SortOrder) string {
	switch order {
	case models.SortByBookmarkCount:
		return "c.bookmark_count DESC, c.id ASC"
	case models.SortByRating:
		return "c.rating DESC, c.id ASC"
	case models.SortByPostCount:
		return "c.post_count DESC, c.id ASC"
	case models.SortByCreatedAt:
		return "c.created_at DESC, c.id ASC"
	default:
		return "c.id ASC"
	}
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
