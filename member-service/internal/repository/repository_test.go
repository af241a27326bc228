package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cafein/cafein-server/shared/apperr"
	"github.com/cafein/cafein-server/shared/models"
	sharedredis "github.com/cafein/cafein-server/shared/redis"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func TestCreate_DuplicateEmail(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO members")).
		WillReturnError(&pq.Error{Code: "23505"})

	err := NewMemberWriteRepository(db).Create(context.Background(), &models.Member{ID: "mbr-1", Email: "dup@example.com"})
	assert.ErrorIs(t, err, apperr.ErrEmailExists)
}

func TestDelete_MarksReviewedCafesStale(t *testing.T) {
	db, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM members WHERE id = $1 FOR UPDATE")).
		WithArgs("mbr-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("mbr-1"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM cafes WHERE owner_id = $1")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT DISTINCT cafe_id FROM posts")).
		WillReturnRows(sqlmock.NewRows([]string{"cafe_id"}).AddRow("caf-1").AddRow("caf-2"))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE cafes SET rating_stale = TRUE")).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE cafes SET bookmark_count")).
		WithArgs("mbr-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("caf-2").AddRow("caf-9"))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM members WHERE id = $1")).
		WithArgs("mbr-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	reviewed, bookmarked, err := NewMemberWriteRepository(db).Delete(context.Background(), "mbr-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"caf-1", "caf-2"}, reviewed)
	assert.Equal(t, []string{"caf-2", "caf-9"}, bookmarked)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDelete_OwnerWithCafesIsRefused(t *testing.T) {
	db, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("mbr-owner"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM cafes")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectRollback()

	_, _, err := NewMemberWriteRepository(db).Delete(context.Background(), "mbr-owner")
	assert.ErrorIs(t, err, apperr.ErrMemberOwnsCafes)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDelete_UnknownMember(t *testing.T) {
	db, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	_, _, err := NewMemberWriteRepository(db).Delete(context.Background(), "mbr-ghost")
	assert.ErrorIs(t, err, apperr.ErrMemberNotFound)
}

func TestUpdate_NotFound(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE members")).WillReturnResult(sqlmock.NewResult(0, 0))

	err := NewMemberWriteRepository(db).Update(context.Background(), &models.Member{ID: "mbr-ghost"})
	assert.ErrorIs(t, err, apperr.ErrMemberNotFound)
}

type mapCache struct {
	items map[string]models.MemberView
}

func (c *mapCache) Get(_ context.Context, key string) (*models.MemberView, bool) {
	v, ok := c.items[key]
	if !ok {
		return nil, false
	}
	return &v, true
}
func (c *mapCache) Set(_ context.Context, key string, v *models.MemberView) { c.items[key] = *v }
func (c *mapCache) Delete(_ context.Context, key string)                    { delete(c.items, key) }

func TestGetView_FillsCacheWithoutCounters(t *testing.T) {
	db, mock := newMock(t)
	cache := &mapCache{items: map[string]models.MemberView{}}
	repo := NewMemberReadRepository(sqlx.NewDb(db, "postgres"), cache)

	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("FROM members")).
		WithArgs("mbr-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "display_name", "image", "roles", "is_privacy", "created_at"}).
			AddRow("mbr-1", "kim@example.com", "Kim", "", "{USER}", true, created))

	view, err := repo.GetView(context.Background(), "mbr-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"USER"}, view.Roles)

	cached, ok := cache.items[sharedredis.MemberKey("mbr-1")]
	require.True(t, ok)
	assert.Equal(t, "Kim", cached.DisplayName)

	// second read is served from the cache
	again, err := repo.GetView(context.Background(), "mbr-1")
	require.NoError(t, err)
	assert.Equal(t, view.Email, again.Email)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListPosts(t *testing.T) {
	db, mock := newMock(t)
	repo := NewMemberReadRepository(sqlx.NewDb(db, "postgres"), &mapCache{items: map[string]models.MemberView{}})

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM posts WHERE member_id = $1")).
		WithArgs("mbr-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY p.created_at DESC, p.id DESC")).
		WithArgs("mbr-1", 2, 2).
		WillReturnRows(sqlmock.NewRows([]string{"id", "image", "title", "author"}).
			AddRow("pst-1", "", "Morning latte", "Kim"))

	posts, total, err := repo.ListPosts(context.Background(), "mbr-1", models.NewPage(2, 2))
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, posts, 1)
	assert.Equal(t, models.PostSummary{PostID: "pst-1", Title: "Morning latte", Author: "Kim"}, posts[0])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListPosts_Empty(t *testing.T) {
	db, mock := newMock(t)
	repo := NewMemberReadRepository(sqlx.NewDb(db, "postgres"), &mapCache{items: map[string]models.MemberView{}})

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*)")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	posts, total, err := repo.ListPosts(context.Background(), "mbr-1", models.NewPage(1, 20))
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, posts)
	assert.NoError(t, mock.ExpectationsWereMet())
}
