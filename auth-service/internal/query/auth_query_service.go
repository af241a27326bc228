package query

import (
	"context"
	"errors"

	"github.com/cafein/cafein-server/shared/apperr"
	"github.com/cafein/cafein-server/shared/cqrs"
	"github.com/cafein/cafein-server/shared/models"
	"github.com/cafein/cafein-server/shared/token"
	"github.com/cafein/cafein-server/shared/utils"
)

type MemberReader interface {
	GetByEmail(ctx context.Context, email string) (*models.Member, error)
}

type TokenService interface {
	IssuePair(sub token.Subject) (*token.Pair, error)
	IssueAccess(sub token.Subject) (string, error)
	ParseRefresh(tokenString string) (*token.Claims, error)
}

// AuthQueryService handles password login and token refresh. Neither
// mutates application state, so there is no command side.
type AuthQueryService struct {
	members MemberReader
	tokens  TokenService
}

func NewAuthQueryService(members MemberReader, tokens TokenService) *AuthQueryService {
	return &AuthQueryService{members: members, tokens: tokens}
}

func (s *AuthQueryService) Login(ctx context.Context, cmd cqrs.LoginCommand) (*models.Member, *token.Pair, error) {
	member, err := s.members.GetByEmail(ctx, cmd.Email)
	if errors.Is(err, apperr.ErrMemberNotFound) {
		return nil, nil, apperr.ErrInvalidCredentials
	}
	if err != nil {
		return nil, nil, apperr.Internal("failed to look up member", err)
	}
	if !utils.CheckPassword(cmd.Password, member.PasswordHash) {
		return nil, nil, apperr.ErrInvalidCredentials
	}

	pair, err := s.tokens.IssuePair(subjectOf(member))
	if err != nil {
		return nil, nil, err
	}
	return member, pair, nil
}

// RefreshToken mints a new access token for the refresh token's subject.
// Roles are re-read so a role change takes effect on the next refresh.
func (s *AuthQueryService) RefreshToken(ctx context.Context, cmd cqrs.RefreshTokenCommand) (string, error) {
	claims, err := s.tokens.ParseRefresh(cmd.Token)
	if err != nil {
		return "", err
	}
	member, err := s.members.GetByEmail(ctx, claims.Subject)
	if errors.Is(err, apperr.ErrMemberNotFound) {
		return "", apperr.ErrInvalidToken
	}
	if err != nil {
		return "", apperr.Internal("failed to look up member", err)
	}
	return s.tokens.IssueAccess(subjectOf(member))
}

func subjectOf(m *models.Member) token.Subject {
	return token.Subject{UserID: m.ID, Email: m.Email, Roles: m.Roles}
}
