package command

import (
	"context"

	"go.uber.org/zap"

	"github.com/cafein/cafein-server/shared/cqrs"
	"github.com/cafein/cafein-server/shared/events"
)

type BookmarkCommandService struct {
	bookmarks PostBookmarkWriter
	publisher EventPublisher
	logger    *zap.Logger
}

func NewBookmarkCommandService(bookmarks PostBookmarkWriter, publisher EventPublisher, logger *zap.Logger) *BookmarkCommandService {
	return &BookmarkCommandService{bookmarks: bookmarks, publisher: publisher, logger: logger}
}

// CreatePostBookmark is idempotent. created is false when the actor had
// already bookmarked the post; an unknown post fails with POST_NOT_FOUND.
func (s *BookmarkCommandService) CreatePostBookmark(ctx context.Context, cmd cqrs.PostBookmarkCommand) (created bool, err error) {
	created, err = s.bookmarks.Add(ctx, cmd.ActorID, cmd.PostID)
	if err != nil {
		return false, err
	}
	if created {
		s.publish(ctx, events.PostBookmarkCreated, cmd)
	}
	return created, nil
}

func (s *BookmarkCommandService) DeletePostBookmark(ctx context.Context, cmd cqrs.PostBookmarkCommand) (removed bool, err error) {
	removed, err = s.bookmarks.Remove(ctx, cmd.ActorID, cmd.PostID)
	if err != nil {
		return false, err
	}
	if removed {
		s.publish(ctx, events.PostBookmarkDeleted, cmd)
	}
	return removed, nil
}

func (s *BookmarkCommandService) publish(ctx context.Context, eventType string, cmd cqrs.PostBookmarkCommand) {
	err := s.publisher.Publish(ctx, events.BookmarkEventsStream, eventType, events.BookmarkEvent{
		MemberID: cmd.ActorID, TargetID: cmd.PostID,
	})
	if err != nil {
		s.logger.Warn("failed to publish event", zap.String("type", eventType), zap.Error(err))
	}
}
