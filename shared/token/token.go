// Package token issues and verifies the HS256 access and refresh tokens used
// across services.
package token

import (
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/cafein/cafein-server/shared/apperr"
	"github.com/cafein/cafein-server/shared/metrics"
)

const (
	KindAccess  = "access"
	KindRefresh = "refresh"
)

// Claims is shared by both token kinds. Refresh tokens carry only the
// registered claims; UserID, Username and Roles are access-only.
type Claims struct {
	UserID   string   `json:"userId,omitempty"`
	Username string   `json:"username,omitempty"`
	Roles    []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// Pair is the result of a successful login.
type Pair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Subject is who a token is minted for.
type Subject struct {
	UserID string
	Email  string
	Roles  []string
}

type Issuer struct {
	key        []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewIssuer derives the signing key once: the base64 encoding of secret.
func NewIssuer(secret string, accessTTL, refreshTTL time.Duration) (*Issuer, error) {
	if secret == "" {
		return nil, errors.New("token: empty secret")
	}
	return &Issuer{
		key:        []byte(base64.StdEncoding.EncodeToString([]byte(secret))),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}, nil
}

// WithClock returns a copy of the issuer that reads time from now.
func (i *Issuer) WithClock(now func() time.Time) *Issuer {
	cp := *i
	cp.now = now
	return &cp
}

func (i *Issuer) IssueAccess(sub Subject) (string, error) {
	now := i.now()
	claims := Claims{
		UserID:   sub.UserID,
		Username: sub.Email,
		Roles:    sub.Roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub.Email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.accessTTL)),
		},
	}
	signed, err := i.sign(claims)
	if err != nil {
		return "", err
	}
	metrics.RecordTokenIssued(KindAccess)
	return signed, nil
}

func (i *Issuer) IssueRefresh(email string) (string, error) {
	now := i.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.refreshTTL)),
		},
	}
	signed, err := i.sign(claims)
	if err != nil {
		return "", err
	}
	metrics.RecordTokenIssued(KindRefresh)
	return signed, nil
}

func (i *Issuer) IssuePair(sub Subject) (*Pair, error) {
	access, err := i.IssueAccess(sub)
	if err != nil {
		return nil, err
	}
	refresh, err := i.IssueRefresh(sub.Email)
	if err != nil {
		return nil, err
	}
	return &Pair{AccessToken: access, RefreshToken: refresh}, nil
}

// ParseAccess verifies an access token. Refresh tokens are rejected.
func (i *Issuer) ParseAccess(tokenString string) (*Claims, error) {
	claims, err := i.parse(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.UserID == "" {
		return nil, apperr.Wrap(apperr.CodeInvalidToken, "not an access token", nil)
	}
	return claims, nil
}

// ParseRefresh verifies a refresh token. Access tokens are rejected.
func (i *Issuer) ParseRefresh(tokenString string) (*Claims, error) {
	claims, err := i.parse(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.UserID != "" || claims.Subject == "" {
		return nil, apperr.Wrap(apperr.CodeInvalidToken, "not a refresh token", nil)
	}
	return claims, nil
}

func (i *Issuer) sign(claims Claims) (string, error) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.key)
	if err != nil {
		return "", apperr.Internal("failed to sign token", err)
	}
	return signed, nil
}

func (i *Issuer) parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		return i.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil || !token.Valid {
		return nil, apperr.Wrap(apperr.CodeInvalidToken, "invalid or expired token", fmt.Errorf("parse: %w", err))
	}
	return claims, nil
}
