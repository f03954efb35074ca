// Package service contains application services for authentication, decks, and cards.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	pkgcrypto "github.com/and161185/deck-keeper/internal/crypto"
	"github.com/and161185/deck-keeper/internal/errs"
	"github.com/and161185/deck-keeper/internal/limiter"
	"github.com/and161185/deck-keeper/internal/model"
	"github.com/and161185/deck-keeper/internal/repository"
)

// AuthService defines registration, login, and session token operations.
type AuthService interface {
	// Register creates a new user with secure password hashing.
	Register(ctx context.Context, username, password string) (*model.User, error)
	// LoginWithIP applies rate-limiting and authenticates the user.
	LoginWithIP(ctx context.Context, username, password, ip string) (model.Tokens, error)
	// Refresh issues a fresh token for an already-authenticated username.
	Refresh(ctx context.Context, username string) (model.Tokens, error)
	// VerifyToken returns the username embedded in a valid token.
	VerifyToken(token string) (string, error)
	// ResolveUser loads the account behind a verified username.
	ResolveUser(ctx context.Context, username string) (*model.User, error)
}

type AuthServiceImpl struct {
	users     repository.UserRepository
	signKey   []byte
	accessTTL time.Duration
	lim       limiter.Limiter
}

// NewAuthService constructs AuthService with required dependencies.
func NewAuthService(users repository.UserRepository, signKey []byte, accessTTL time.Duration, lim limiter.Limiter) *AuthServiceImpl {
	return &AuthServiceImpl{users: users, signKey: signKey, accessTTL: accessTTL, lim: lim}
}

// Register creates a new user record with a per-user salt.
func (s *AuthServiceImpl) Register(ctx context.Context, username, password string) (*model.User, error) {
	if username == "" || password == "" {
		return nil, errors.New("empty username/password")
	}
	salt, err := pkgcrypto.NewSalt()
	if err != nil {
		return nil, err
	}
	u := &model.User{
		Username: username,
		PwdHash:  pkgcrypto.HashPassword([]byte(password), salt),
		SaltAuth: salt,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// LoginWithIP authenticates with rate limiting by (username, ip).
// Unknown user and wrong password are indistinguishable to the caller.
func (s *AuthServiceImpl) LoginWithIP(ctx context.Context, username, password, ip string) (model.Tokens, error) {
	ipHash := limiter.HashIP(ip)

	allowed, _, err := s.lim.Allow(ctx, username, ipHash)
	if err != nil {
		return model.Tokens{}, err
	}
	if !allowed {
		return model.Tokens{}, errs.ErrRateLimited
	}

	u, err := s.users.GetByUsername(ctx, username)
	if err != nil || !pkgcrypto.VerifyPassword([]byte(password), u.SaltAuth, u.PwdHash) {
		if blocked, _, ferr := s.lim.Failure(ctx, username, ipHash); ferr == nil && blocked {
			return model.Tokens{}, errs.ErrRateLimited
		}
		return model.Tokens{}, errs.ErrUnauthorized
	}

	// Success: reset counters (best-effort).
	_ = s.lim.Success(ctx, username, ipHash)

	return s.issueToken(username)
}

// Refresh reissues a token carrying the same username, extending the
// session without requiring credentials again.
func (s *AuthServiceImpl) Refresh(ctx context.Context, username string) (model.Tokens, error) {
	if username == "" {
		return model.Tokens{}, errs.ErrUnauthorized
	}
	return s.issueToken(username)
}

// VerifyToken parses and validates a bearer token, returning its subject.
// Any defect — absent, malformed, tampered, expired — maps to ErrUnauthorized.
func (s *AuthServiceImpl) VerifyToken(token string) (string, error) {
	if token == "" {
		return "", errs.ErrUnauthorized
	}
	var claims jwt.RegisteredClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return s.signKey, nil
	}, jwt.WithLeeway(30*time.Second))
	if err != nil || !parsed.Valid || claims.Subject == "" {
		return "", errs.ErrUnauthorized
	}
	return claims.Subject, nil
}

// ResolveUser loads the account for a username taken from a verified token.
func (s *AuthServiceImpl) ResolveUser(ctx context.Context, username string) (*model.User, error) {
	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		// the token is valid but the account is gone
		return nil, errs.ErrUnauthorized
	}
	return u, nil
}

// issueToken creates a signed HS256 JWT with the username as subject.
func (s *AuthServiceImpl) issueToken(username string) (model.Tokens, error) {
	now := time.Now()
	exp := now.Add(s.accessTTL)
	claims := jwt.RegisteredClaims{
		Subject:   username,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(s.signKey)
	if err != nil {
		return model.Tokens{}, err
	}
	return model.Tokens{AccessToken: signed, ExpiresAt: exp}, nil
}
