package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cafein/cafein-server/shared/apperr"
	"github.com/cafein/cafein-server/shared/cqrs"
	"github.com/cafein/cafein-server/shared/events"
	"github.com/cafein/cafein-server/shared/models"
)

func newPostFixture() (*fakeStore, *fakeCache, *fakePublisher, *PostCommandService) {
	store := newFakeStore()
	store.cafes["caf-1"] = &models.Cafe{ID: "caf-1", OwnerID: "mbr-owner", Name: "Moonlight"}
	cache := &fakeCache{}
	publisher := &fakePublisher{}
	return store, cache, publisher, NewPostCommandService(fakePostStore{store}, cache, publisher, zap.NewNop())
}

func TestPostsKeepCafeRatingConsistent(t *testing.T) {
	store, cache, publisher, svc := newPostFixture()
	ctx := context.Background()

	first, err := svc.CreatePost(ctx, cqrs.CreatePostCommand{ActorID: "mbr-a", CafeID: "caf-1", Title: "ok", Content: "fine", Rating: 4})
	require.NoError(t, err)
	_, err = svc.CreatePost(ctx, cqrs.CreatePostCommand{ActorID: "mbr-b", CafeID: "caf-1", Title: "great", Content: "best", Rating: 5})
	require.NoError(t, err)

	assert.Equal(t, 4.5, store.cafes["caf-1"].Rating)
	assert.Equal(t, 2, store.cafes["caf-1"].PostCount)

	_, err = svc.UpdatePost(ctx, cqrs.UpdatePostCommand{ActorID: "mbr-a", PostID: first.ID, Title: "meh", Content: "so so", Rating: 1})
	require.NoError(t, err)
	assert.Equal(t, 3.0, store.cafes["caf-1"].Rating)

	cafeID, err := svc.DeletePost(ctx, cqrs.DeletePostCommand{ActorID: "mbr-a", PostID: first.ID})
	require.NoError(t, err)
	assert.Equal(t, "caf-1", cafeID)
	assert.Equal(t, 5.0, store.cafes["caf-1"].Rating)
	assert.Equal(t, 1, store.cafes["caf-1"].PostCount)

	assert.Len(t, cache.invalidated, 4)
	assert.Equal(t, []string{
		events.PostCreated, events.CafeRated,
		events.PostCreated, events.CafeRated,
		events.PostUpdated, events.CafeRated,
		events.PostDeleted, events.CafeRated,
	}, publisher.types())
}

func TestCreatePostValidation(t *testing.T) {
	tests := []struct {
		name    string
		cmd     cqrs.CreatePostCommand
		wantErr error
	}{
		{name: "rating below range", cmd: cqrs.CreatePostCommand{ActorID: "mbr-a", CafeID: "caf-1", Rating: 0}, wantErr: apperr.New(apperr.CodeValidationFailed, "")},
		{name: "rating above range", cmd: cqrs.CreatePostCommand{ActorID: "mbr-a", CafeID: "caf-1", Rating: 6}, wantErr: apperr.New(apperr.CodeValidationFailed, "")},
		{name: "unknown cafe", cmd: cqrs.CreatePostCommand{ActorID: "mbr-a", CafeID: "caf-x", Rating: 3}, wantErr: apperr.ErrCafeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, _, publisher, svc := newPostFixture()
			_, err := svc.CreatePost(context.Background(), tt.cmd)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, store.posts)
			assert.Empty(t, publisher.events)
		})
	}
}

func TestOnlyAuthorMayChangePost(t *testing.T) {
	store, _, _, svc := newPostFixture()
	ctx := context.Background()
	post, err := svc.CreatePost(ctx, cqrs.CreatePostCommand{ActorID: "mbr-a", CafeID: "caf-1", Title: "t", Content: "c", Rating: 4})
	require.NoError(t, err)

	_, err = svc.UpdatePost(ctx, cqrs.UpdatePostCommand{ActorID: "mbr-b", PostID: post.ID, Title: "x", Content: "y", Rating: 1})
	assert.ErrorIs(t, err, apperr.ErrNotAuthor)
	assert.Equal(t, 4, store.posts[post.ID].Rating)

	_, err = svc.DeletePost(ctx, cqrs.DeletePostCommand{ActorID: "mbr-b", PostID: post.ID})
	assert.ErrorIs(t, err, apperr.ErrNotAuthor)
	assert.Contains(t, store.posts, post.ID)

	_, err = svc.DeletePost(ctx, cqrs.DeletePostCommand{ActorID: "mbr-a", PostID: "pst-missing"})
	assert.ErrorIs(t, err, apperr.ErrPostNotFound)
}

func TestPostBookmarksAreIdempotent(t *testing.T) {
	store, _, _, postSvc := newPostFixture()
	post, err := postSvc.CreatePost(context.Background(), cqrs.CreatePostCommand{ActorID: "mbr-a", CafeID: "caf-1", Title: "t", Content: "c", Rating: 4})
	require.NoError(t, err)

	publisher := &fakePublisher{}
	svc := NewBookmarkCommandService(fakePostStore{store}, publisher, zap.NewNop())
	cmd := cqrs.PostBookmarkCommand{ActorID: "mbr-b", PostID: post.ID}

	created, err := svc.CreatePostBookmark(context.Background(), cmd)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = svc.CreatePostBookmark(context.Background(), cmd)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Len(t, store.postBookmarks, 1)

	removed, err := svc.DeletePostBookmark(context.Background(), cmd)
	require.NoError(t, err)
	assert.True(t, removed)

	assert.Equal(t, []string{events.PostBookmarkCreated, events.PostBookmarkDeleted}, publisher.types())

	_, err = svc.CreatePostBookmark(context.Background(), cqrs.PostBookmarkCommand{ActorID: "mbr-b", PostID: "pst-missing"})
	assert.ErrorIs(t, err, apperr.ErrPostNotFound)
}
