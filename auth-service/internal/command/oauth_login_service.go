package command

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/cafein/cafein-server/auth-service/internal/oauth"
	"github.com/cafein/cafein-server/shared/apperr"
	"github.com/cafein/cafein-server/shared/events"
	"github.com/cafein/cafein-server/shared/metrics"
	"github.com/cafein/cafein-server/shared/models"
	"github.com/cafein/cafein-server/shared/token"
	"github.com/cafein/cafein-server/shared/utils"
)

type MemberStore interface {
	GetByEmail(ctx context.Context, email string) (*models.Member, error)
	CreateIfAbsent(ctx context.Context, m *models.Member) (*models.Member, bool, error)
}

type TokenIssuer interface {
	IssuePair(sub token.Subject) (*token.Pair, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, stream, eventType string, data any) error
}

// LoginResult is what the OAuth2 callback hands back to the browser.
type LoginResult struct {
	Member  *models.Member
	Tokens  *token.Pair
	Created bool
}

// OAuthLoginService turns a verified provider profile into a member and a
// token pair.
type OAuthLoginService struct {
	members   MemberStore
	tokens    TokenIssuer
	publisher EventPublisher
	logger    *zap.Logger
	now       func() time.Time
}

func NewOAuthLoginService(members MemberStore, tokens TokenIssuer, publisher EventPublisher, logger *zap.Logger) *OAuthLoginService {
	return &OAuthLoginService{
		members:   members,
		tokens:    tokens,
		publisher: publisher,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// CompleteLogin finds the member registered under attrs.Email or creates
// one with roles. An existing member keeps their profile and roles.
func (s *OAuthLoginService) CompleteLogin(ctx context.Context, attrs oauth.Attributes, roles []string) (*LoginResult, error) {
	if err := attrs.Validate(); err != nil {
		metrics.RecordOAuthLogin(attrs.Provider, metrics.OutcomeRejected)
		return nil, err
	}

	member, created, err := s.findOrCreate(ctx, attrs, roles)
	if err != nil {
		metrics.RecordOAuthLogin(attrs.Provider, metrics.OutcomeFailed)
		return nil, err
	}

	pair, err := s.tokens.IssuePair(token.Subject{UserID: member.ID, Email: member.Email, Roles: member.Roles})
	if err != nil {
		metrics.RecordOAuthLogin(attrs.Provider, metrics.OutcomeFailed)
		return nil, err
	}

	outcome := metrics.OutcomeExisting
	if created {
		outcome = metrics.OutcomeCreated
		s.publishCreated(ctx, member, attrs.Provider)
	}
	metrics.RecordOAuthLogin(attrs.Provider, outcome)
	s.logger.Info("oauth2 login",
		zap.String("provider", attrs.Provider),
		zap.String("memberId", member.ID),
		zap.Bool("created", created),
	)
	return &LoginResult{Member: member, Tokens: pair, Created: created}, nil
}

func (s *OAuthLoginService) findOrCreate(ctx context.Context, attrs oauth.Attributes, roles []string) (*models.Member, bool, error) {
	existing, err := s.members.GetByEmail(ctx, attrs.Email)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, apperr.ErrMemberNotFound) {
		return nil, false, apperr.Internal("failed to look up member", err)
	}

	hash, err := utils.HashPassword(utils.RandomPassword(utils.GeneratedPasswordLength))
	if err != nil {
		return nil, false, apperr.Internal("failed to hash generated password", err)
	}
	if len(roles) == 0 {
		roles = []string{models.RoleUser}
	}

	now := s.now()
	member, created, err := s.members.CreateIfAbsent(ctx, &models.Member{
		ID:           utils.GenerateID(utils.MemberIDPrefix),
		Email:        attrs.Email,
		DisplayName:  attrs.Name,
		PasswordHash: hash,
		Image:        attrs.Picture,
		Roles:        roles,
		IsPrivacy:    true,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return nil, false, apperr.Internal("failed to create member", err)
	}
	return member, created, nil
}

func (s *OAuthLoginService) publishCreated(ctx context.Context, member *models.Member, provider string) {
	err := s.publisher.Publish(ctx, events.MemberEventsStream, events.MemberCreated, events.MemberCreatedEvent{
		MemberID: member.ID,
		Email:    member.Email,
		Roles:    member.Roles,
		Source:   provider,
	})
	if err != nil {
		s.logger.Warn("failed to publish member event", zap.String("memberId", member.ID), zap.Error(err))
	}
}
