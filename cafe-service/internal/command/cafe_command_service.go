package command

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/cafein/cafein-server/shared/apperr"
	"github.com/cafein/cafein-server/shared/cqrs"
	"github.com/cafein/cafein-server/shared/events"
	"github.com/cafein/cafein-server/shared/metrics"
	"github.com/cafein/cafein-server/shared/models"
	"github.com/cafein/cafein-server/shared/utils"
)

// CafeCommandService writes cafe state and keeps the cached read model in
// sync. Every mutation other than creation is restricted to the owner.
type CafeCommandService struct {
	cafes     CafeWriter
	members   MemberReader
	cache     CafeCacheInvalidator
	publisher EventPublisher
	logger    *zap.Logger
	now       func() time.Time
}

func NewCafeCommandService(
	cafes CafeWriter,
	members MemberReader,
	cache CafeCacheInvalidator,
	publisher EventPublisher,
	logger *zap.Logger,
) *CafeCommandService {
	return &CafeCommandService{
		cafes:     cafes,
		members:   members,
		cache:     cache,
		publisher: publisher,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// CreateCafe registers a cafe owned by the actor, who must be a member with
// the OWNER role.
func (s *CafeCommandService) CreateCafe(ctx context.Context, cmd cqrs.CreateCafeCommand) (*models.Cafe, error) {
	owner, err := s.members.GetByID(ctx, cmd.ActorID)
	if errors.Is(err, apperr.ErrMemberNotFound) {
		return nil, apperr.ErrOwnerNotFound
	}
	if err != nil {
		return nil, err
	}
	if !owner.HasRole(models.RoleOwner) {
		return nil, apperr.ErrOwnerNotFound
	}

	now := s.now()
	cafe := &models.Cafe{
		ID:        utils.GenerateID(utils.CafeIDPrefix),
		OwnerID:   owner.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	cafe.Apply(cmd.Info)

	if err := s.cafes.Create(ctx, cafe); err != nil {
		return nil, err
	}
	s.publish(ctx, events.CafeEventsStream, events.CafeCreated, events.CafeEvent{
		CafeID: cafe.ID, OwnerID: cafe.OwnerID, Name: cafe.Name,
	})
	return cafe, nil
}

func (s *CafeCommandService) UpdateCafe(ctx context.Context, cmd cqrs.UpdateCafeCommand) (*models.Cafe, error) {
	cafe, err := s.cafes.GetByID(ctx, cmd.CafeID)
	if err != nil {
		return nil, err
	}
	if err := cafe.ValidateOwner(cmd.ActorID); err != nil {
		return nil, err
	}

	cafe.Apply(cmd.Info)
	cafe.UpdatedAt = s.now()
	if err := s.cafes.Update(ctx, cafe); err != nil {
		return nil, err
	}
	s.cache.InvalidateDetail(ctx, cafe.ID)
	s.publish(ctx, events.CafeEventsStream, events.CafeUpdated, events.CafeEvent{
		CafeID: cafe.ID, OwnerID: cafe.OwnerID, Name: cafe.Name,
	})
	return cafe, nil
}

// DeleteCafe requires the owner to confirm with their password. A mismatch
// leaves the cafe untouched.
func (s *CafeCommandService) DeleteCafe(ctx context.Context, cmd cqrs.DeleteCafeCommand) error {
	cafe, err := s.cafes.GetByID(ctx, cmd.CafeID)
	if err != nil {
		return err
	}
	if err := cafe.ValidateOwner(cmd.ActorID); err != nil {
		return err
	}

	owner, err := s.members.GetByID(ctx, cmd.ActorID)
	if err != nil {
		return err
	}
	if !utils.CheckPassword(cmd.Password, owner.PasswordHash) {
		return apperr.ErrPasswordMismatch
	}

	if err := s.cafes.Delete(ctx, cafe.ID); err != nil {
		return err
	}
	s.cache.InvalidateDetail(ctx, cafe.ID)
	s.publish(ctx, events.CafeEventsStream, events.CafeDeleted, events.CafeEvent{
		CafeID: cafe.ID, OwnerID: cafe.OwnerID, Name: cafe.Name,
	})
	return nil
}

// CalculateRating recomputes and persists the cafe's aggregate rating and
// post count, clearing any stale flag.
func (s *CafeCommandService) CalculateRating(ctx context.Context, cafeID string) (*models.CafeRating, error) {
	return s.calculateRating(ctx, cafeID, metrics.TriggerManual)
}

func (s *CafeCommandService) calculateRating(ctx context.Context, cafeID, trigger string) (*models.CafeRating, error) {
	rating, err := s.cafes.RecalculateRating(ctx, cafeID)
	if err != nil {
		return nil, err
	}
	metrics.RecordRatingRecalculation(trigger)
	s.cache.InvalidateDetail(ctx, cafeID)
	s.publish(ctx, events.CafeEventsStream, events.CafeRated, events.CafeRatedEvent{
		CafeID: rating.CafeID, Rating: rating.Rating, PostCount: rating.PostCount,
	})
	return rating, nil
}

// AddBookmark reports whether a new bookmark was stored.
func (s *CafeCommandService) AddBookmark(ctx context.Context, cmd cqrs.CafeBookmarkCommand) (bool, error) {
	created, err := s.cafes.AddBookmark(ctx, cmd.ActorID, cmd.CafeID)
	if err != nil {
		return false, err
	}
	if created {
		s.cache.InvalidateDetail(ctx, cmd.CafeID)
		s.publish(ctx, events.BookmarkEventsStream, events.CafeBookmarkCreated, events.BookmarkEvent{
			MemberID: cmd.ActorID, TargetID: cmd.CafeID,
		})
	}
	return created, nil
}

func (s *CafeCommandService) RemoveBookmark(ctx context.Context, cmd cqrs.CafeBookmarkCommand) (bool, error) {
	removed, err := s.cafes.RemoveBookmark(ctx, cmd.ActorID, cmd.CafeID)
	if err != nil {
		return false, err
	}
	if removed {
		s.cache.InvalidateDetail(ctx, cmd.CafeID)
		s.publish(ctx, events.BookmarkEventsStream, events.CafeBookmarkDeleted, events.BookmarkEvent{
			MemberID: cmd.ActorID, TargetID: cmd.CafeID,
		})
	}
	return removed, nil
}

// HandleMemberEvent recomputes the ratings a member deletion left stale and
// drops cached details whose bookmark count changed. A failure leaves the
// event pending so it is redelivered.
func (s *CafeCommandService) HandleMemberEvent(ctx context.Context, event events.Event) error {
	if event.Type != events.MemberDeleted {
		return nil
	}
	var data events.MemberDeletedEvent
	if err := event.Decode(&data); err != nil {
		metrics.RecordEventHandled(event.Type, false)
		return err
	}

	recomputed := make(map[string]struct{}, len(data.AffectedCafeIDs))
	for _, cafeID := range data.AffectedCafeIDs {
		recomputed[cafeID] = struct{}{}
		_, err := s.calculateRating(ctx, cafeID, metrics.TriggerMemberDeleted)
		if errors.Is(err, apperr.ErrCafeNotFound) {
			continue
		}
		if err != nil {
			metrics.RecordEventHandled(event.Type, false)
			return err
		}
	}
	for _, cafeID := range data.BookmarkedCafeIDs {
		if _, done := recomputed[cafeID]; !done {
			s.cache.InvalidateDetail(ctx, cafeID)
		}
	}
	s.logger.Info("recomputed ratings after member deletion",
		zap.String("member_id", data.MemberID),
		zap.Int("cafes", len(data.AffectedCafeIDs)),
		zap.Int("bookmarked_cafes", len(data.BookmarkedCafeIDs)),
	)
	metrics.RecordEventHandled(event.Type, true)
	return nil
}

func (s *CafeCommandService) publish(ctx context.Context, stream, eventType string, data any) {
	if err := s.publisher.Publish(ctx, stream, eventType, data); err != nil {
		s.logger.Warn("failed to publish event", zap.String("type", eventType), zap.Error(err))
	}
}
