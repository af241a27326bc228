package command

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/cafein/cafein-server/shared/apperr"
	"github.com/cafein/cafein-server/shared/cqrs"
	"github.com/cafein/cafein-server/shared/events"
	"github.com/cafein/cafein-server/shared/metrics"
	"github.com/cafein/cafein-server/shared/models"
	"github.com/cafein/cafein-server/shared/utils"
)

// PostCommandService writes posts. The owning cafe's rating and post count
// are recomputed inside the same transaction as every post write.
type PostCommandService struct {
	posts     PostWriter
	cache     CafeCacheInvalidator
	publisher EventPublisher
	logger    *zap.Logger
	now       func() time.Time
}

func NewPostCommandService(posts PostWriter, cache CafeCacheInvalidator, publisher EventPublisher, logger *zap.Logger) *PostCommandService {
	return &PostCommandService{
		posts:     posts,
		cache:     cache,
		publisher: publisher,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *PostCommandService) CreatePost(ctx context.Context, cmd cqrs.CreatePostCommand) (*models.Post, error) {
	if err := validateRating(cmd.Rating); err != nil {
		return nil, err
	}

	now := s.now()
	post := &models.Post{
		ID:        utils.GenerateID(utils.PostIDPrefix),
		CafeID:    cmd.CafeID,
		MemberID:  cmd.ActorID,
		Title:     cmd.Title,
		Content:   cmd.Content,
		Rating:    cmd.Rating,
		CreatedAt: now,
		UpdatedAt: now,
	}
	rating, err := s.posts.CreateWithRating(ctx, post)
	if err != nil {
		return nil, err
	}
	s.afterWrite(ctx, events.PostCreated, post, rating)
	return post, nil
}

// UpdatePost is restricted to the post's author.
func (s *PostCommandService) UpdatePost(ctx context.Context, cmd cqrs.UpdatePostCommand) (*models.Post, error) {
	if err := validateRating(cmd.Rating); err != nil {
		return nil, err
	}
	post, err := s.posts.GetByID(ctx, cmd.PostID)
	if err != nil {
		return nil, err
	}
	if err := post.ValidateAuthor(cmd.ActorID); err != nil {
		return nil, err
	}

	post.Title = cmd.Title
	post.Content = cmd.Content
	post.Rating = cmd.Rating
	post.UpdatedAt = s.now()
	rating, err := s.posts.UpdateWithRating(ctx, post)
	if err != nil {
		return nil, err
	}
	s.afterWrite(ctx, events.PostUpdated, post, rating)
	return post, nil
}

// DeletePost is restricted to the post's author and returns the id of the
// cafe the post belonged to.
func (s *PostCommandService) DeletePost(ctx context.Context, cmd cqrs.DeletePostCommand) (string, error) {
	post, err := s.posts.GetByID(ctx, cmd.PostID)
	if err != nil {
		return "", err
	}
	if err := post.ValidateAuthor(cmd.ActorID); err != nil {
		return "", err
	}

	rating, err := s.posts.DeleteWithRating(ctx, post.ID, post.CafeID)
	if err != nil {
		return "", err
	}
	s.afterWrite(ctx, events.PostDeleted, post, rating)
	return post.CafeID, nil
}

func (s *PostCommandService) afterWrite(ctx context.Context, eventType string, post *models.Post, rating *models.CafeRating) {
	metrics.RecordRatingRecalculation(metrics.TriggerPostWrite)
	s.cache.InvalidateDetail(ctx, post.CafeID)

	if err := s.publisher.Publish(ctx, events.PostEventsStream, eventType, events.PostEvent{
		PostID: post.ID, CafeID: post.CafeID, MemberID: post.MemberID, Rating: post.Rating,
	}); err != nil {
		s.logger.Warn("failed to publish event", zap.String("type", eventType), zap.Error(err))
	}
	if err := s.publisher.Publish(ctx, events.CafeEventsStream, events.CafeRated, events.CafeRatedEvent{
		CafeID: rating.CafeID, Rating: rating.Rating, PostCount: rating.PostCount,
	}); err != nil {
		s.logger.Warn("failed to publish event", zap.String("type", events.CafeRated), zap.Error(err))
	}
}

func validateRating(rating int) error {
	if rating < models.MinPostRating || rating > models.MaxPostRating {
		return apperr.Validation(fmt.Sprintf("rating must be between %d and %d", models.MinPostRating, models.MaxPostRating))
	}
	return nil
}
