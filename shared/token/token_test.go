package token

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cafein/cafein-server/shared/apperr"
)

func newTestIssuer(t *testing.T) *Issuer {
	t.Helper()
	issuer, err := NewIssuer("test-secret", 30*time.Minute, 7*24*time.Hour)
	require.NoError(t, err)
	return issuer
}

func TestIssuePairSharesSubject(t *testing.T) {
	issuer := newTestIssuer(t)

	pair, err := issuer.IssuePair(Subject{UserID: "mbr-1", Email: "a@example.com", Roles: []string{"USER"}})
	require.NoError(t, err)

	access, err := issuer.ParseAccess(pair.AccessToken)
	require.NoError(t, err)
	refresh, err := issuer.ParseRefresh(pair.RefreshToken)
	require.NoError(t, err)

	assert.Equal(t, "a@example.com", access.Subject)
	assert.Equal(t, access.Subject, refresh.Subject)
	assert.Equal(t, "mbr-1", access.UserID)
	assert.Equal(t, "a@example.com", access.Username)
	assert.Equal(t, []string{"USER"}, access.Roles)
	assert.Empty(t, refresh.UserID)
}

func TestExpiredTokensFail(t *testing.T) {
	issuer := newTestIssuer(t)
	pair, err := issuer.IssuePair(Subject{UserID: "mbr-1", Email: "a@example.com"})
	require.NoError(t, err)

	later := issuer.WithClock(func() time.Time { return time.Now().Add(31 * time.Minute) })
	_, err = later.ParseAccess(pair.AccessToken)
	assert.True(t, errors.Is(err, apperr.ErrInvalidToken))

	_, err = later.ParseRefresh(pair.RefreshToken)
	assert.NoError(t, err)

	muchLater := issuer.WithClock(func() time.Time { return time.Now().Add(8 * 24 * time.Hour) })
	_, err = muchLater.ParseRefresh(pair.RefreshToken)
	assert.True(t, errors.Is(err, apperr.ErrInvalidToken))
}

func TestKindsAreNotInterchangeable(t *testing.T) {
	issuer := newTestIssuer(t)
	pair, err := issuer.IssuePair(Subject{UserID: "mbr-1", Email: "a@example.com"})
	require.NoError(t, err)

	_, err = issuer.ParseAccess(pair.RefreshToken)
	assert.Equal(t, apperr.CodeInvalidToken, apperr.CodeOf(err))

	_, err = issuer.ParseRefresh(pair.AccessToken)
	assert.Equal(t, apperr.CodeInvalidToken, apperr.CodeOf(err))
}

func TestRejectsForeignSignatures(t *testing.T) {
	issuer := newTestIssuer(t)
	other, err := NewIssuer("other-secret", time.Minute, time.Minute)
	require.NoError(t, err)

	access, err := other.IssueAccess(Subject{UserID: "mbr-1", Email: "a@example.com"})
	require.NoError(t, err)
	_, err = issuer.ParseAccess(access)
	assert.Error(t, err)

	// alg=none must never verify
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: "mbr-1"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = issuer.ParseAccess(unsigned)
	assert.Error(t, err)
}

func TestNewIssuerRequiresSecret(t *testing.T) {
	_, err := NewIssuer("", time.Minute, time.Minute)
	assert.Error(t, err)
}
