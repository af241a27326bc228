package command

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/cafein/cafein-server/shared/apperr"
	"github.com/cafein/cafein-server/shared/cqrs"
	"github.com/cafein/cafein-server/shared/events"
	"github.com/cafein/cafein-server/shared/metrics"
	"github.com/cafein/cafein-server/shared/models"
	sharedredis "github.com/cafein/cafein-server/shared/redis"
	"github.com/cafein/cafein-server/shared/utils"
)

type MemberWriter interface {
	Create(ctx context.Context, m *models.Member) error
	GetByID(ctx context.Context, memberID string) (*models.Member, error)
	Update(ctx context.Context, m *models.Member) error
	Delete(ctx context.Context, memberID string) (reviewed, bookmarked []string, err error)
}

type MemberViewCache interface {
	CacheView(ctx context.Context, view *models.MemberView)
	InvalidateView(ctx context.Context, memberID string)
}

type StatsWriter interface {
	Incr(ctx context.Context, memberID, field string, delta int64) error
	Reset(ctx context.Context, memberID string) error
}

type EventPublisher interface {
	Publish(ctx context.Context, stream, eventType string, data any) error
}

// MemberCommandService writes member state to PostgreSQL and keeps the
// Redis profile and counter read models current.
type MemberCommandService struct {
	members   MemberWriter
	views     MemberViewCache
	stats     StatsWriter
	publisher EventPublisher
	logger    *zap.Logger
	now       func() time.Time
}

func NewMemberCommandService(
	members MemberWriter,
	views MemberViewCache,
	stats StatsWriter,
	publisher EventPublisher,
	logger *zap.Logger,
) *MemberCommandService {
	return &MemberCommandService{
		members:   members,
		views:     views,
		stats:     stats,
		publisher: publisher,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *MemberCommandService) SignUp(ctx context.Context, cmd cqrs.SignUpCommand) (*models.Member, error) {
	hash, err := utils.HashPassword(cmd.Password)
	if err != nil {
		return nil, apperr.Internal("failed to hash password", err)
	}
	roles := cmd.Roles
	if len(roles) == 0 {
		roles = []string{models.RoleUser}
	}

	now := s.now()
	member := &models.Member{
		ID:           utils.GenerateID(utils.MemberIDPrefix),
		Email:        cmd.Email,
		DisplayName:  cmd.DisplayName,
		PasswordHash: hash,
		Image:        cmd.Image,
		Roles:        roles,
		IsPrivacy:    cmd.IsPrivacy,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.members.Create(ctx, member); err != nil {
		return nil, err
	}

	s.views.CacheView(ctx, memberToView(member))
	s.publish(ctx, events.MemberCreated, events.MemberCreatedEvent{
		MemberID: member.ID,
		Email:    member.Email,
		Roles:    member.Roles,
		Source:   "signup",
	})
	return member, nil
}

func (s *MemberCommandService) UpdateMember(ctx context.Context, cmd cqrs.UpdateMemberCommand) (*models.MemberView, error) {
	member, err := s.members.GetByID(ctx, cmd.MemberID)
	if err != nil {
		return nil, err
	}
	member.DisplayName = cmd.DisplayName
	member.Image = cmd.Image
	member.IsPrivacy = cmd.IsPrivacy
	member.UpdatedAt = s.now()
	if err := s.members.Update(ctx, member); err != nil {
		return nil, err
	}

	view := memberToView(member)
	s.views.CacheView(ctx, view)
	s.publish(ctx, events.MemberUpdated, events.MemberUpdatedEvent{
		MemberID:    member.ID,
		DisplayName: member.DisplayName,
	})
	return view, nil
}

// DeleteMember refuses members that still own cafes. Ratings of the cafes
// the member reviewed are recomputed by cafe-service from the published
// event, which also names the cafes whose bookmark counts changed.
func (s *MemberCommandService) DeleteMember(ctx context.Context, cmd cqrs.DeleteMemberCommand) error {
	reviewed, bookmarked, err := s.members.Delete(ctx, cmd.MemberID)
	if err != nil {
		return err
	}

	s.views.InvalidateView(ctx, cmd.MemberID)
	if err := s.stats.Reset(ctx, cmd.MemberID); err != nil {
		s.logger.Warn("failed to reset member stats", zap.String("memberId", cmd.MemberID), zap.Error(err))
	}
	s.publish(ctx, events.MemberDeleted, events.MemberDeletedEvent{
		MemberID:          cmd.MemberID,
		AffectedCafeIDs:   reviewed,
		BookmarkedCafeIDs: bookmarked,
	})
	return nil
}

// HandleContentEvent is the Redis stream subscriber handler for post and
// bookmark events. It keeps the my-page counters current.
func (s *MemberCommandService) HandleContentEvent(ctx context.Context, event events.Event) error {
	var (
		memberID string
		field    string
		delta    int64
	)
	switch event.Type {
	case events.PostCreated, events.PostDeleted:
		var data events.PostEvent
		if err := event.Decode(&data); err != nil {
			metrics.RecordEventHandled(event.Type, false)
			return err
		}
		memberID, field, delta = data.MemberID, sharedredis.StatPosts, signFor(event.Type == events.PostCreated)
	case events.PostBookmarkCreated, events.PostBookmarkDeleted,
		events.CafeBookmarkCreated, events.CafeBookmarkDeleted:
		var data events.BookmarkEvent
		if err := event.Decode(&data); err != nil {
			metrics.RecordEventHandled(event.Type, false)
			return err
		}
		created := event.Type == events.PostBookmarkCreated || event.Type == events.CafeBookmarkCreated
		memberID, field, delta = data.MemberID, sharedredis.StatBookmarks, signFor(created)
	default:
		return nil
	}

	if memberID == "" {
		return nil
	}
	err := s.stats.Incr(ctx, memberID, field, delta)
	metrics.RecordEventHandled(event.Type, err == nil)
	return err
}

func (s *MemberCommandService) publish(ctx context.Context, eventType string, data any) {
	if err := s.publisher.Publish(ctx, events.MemberEventsStream, eventType, data); err != nil {
		s.logger.Warn("failed to publish member event", zap.String("type", eventType), zap.Error(err))
	}
}

func signFor(positive bool) int64 {
	if positive {
		return 1
	}
	return -1
}

func memberToView(m *models.Member) *models.MemberView {
	return &models.MemberView{
		ID:          m.ID,
		Email:       m.Email,
		DisplayName: m.DisplayName,
		Image:       m.Image,
		Roles:       m.Roles,
		IsPrivacy:   m.IsPrivacy,
		CreatedAt:   m.CreatedAt,
	}
}
