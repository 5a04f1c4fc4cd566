// Package service contains application services for accounts and photos.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"

	pkgcrypto "github.com/and161185/geocam/internal/crypto"
	"github.com/and161185/geocam/internal/errs"
	"github.com/and161185/geocam/internal/limiter"
	"github.com/and161185/geocam/internal/model"
	"github.com/and161185/geocam/internal/repository"
	"github.com/and161185/geocam/internal/revoke"
	"github.com/and161185/geocam/internal/validate"
)

// Claims is the verified content of an access token.
type Claims struct {
	UserID    uuid.UUID
	TokenID   string
	ExpiresAt time.Time
}

// AuthService defines account and token operations.
type AuthService interface {
	// Register creates a new account and returns its ID.
	Register(ctx context.Context, name, email, password, confirmation string) (uuid.UUID, error)
	// LoginWithIP applies rate limiting and issues an access token.
	LoginWithIP(ctx context.Context, email, password, remoteAddr string) (model.Tokens, model.User, error)
	// Verify checks signature, expiry and revocation of an access token.
	Verify(ctx context.Context, token string) (Claims, error)
	// Revoke invalidates a token until it expires.
	Revoke(ctx context.Context, c Claims) error
}

type AuthServiceImpl struct {
	users     repository.UserRepository
	hasher    *pkgcrypto.Hasher
	signKey   []byte
	accessTTL time.Duration
	lim       limiter.Limiter
	deny      revoke.Denylist
}

var _ AuthService = (*AuthServiceImpl)(nil)

// NewAuthService constructs AuthService with required dependencies.
func NewAuthService(
	users repository.UserRepository,
	hasher *pkgcrypto.Hasher,
	signKey []byte,
	accessTTL time.Duration,
	lim limiter.Limiter,
	deny revoke.Denylist,
) *AuthServiceImpl {
	return &AuthServiceImpl{users: users, hasher: hasher, signKey: signKey, accessTTL: accessTTL, lim: lim, deny: deny}
}

func normalizeEmail(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// Register validates the form with the same rules as the client and stores a salted hash.
func (s *AuthServiceImpl) Register(ctx context.Context, name, email, password, confirmation string) (uuid.UUID, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	if err := validate.RegisterForm(name, email, password, confirmation); err != nil {
		return uuid.Nil, err
	}
	uid, err := uuid.NewV4()
	if err != nil {
		return uuid.Nil, err
	}
	salt, err := s.hasher.NewSalt()
	if err != nil {
		return uuid.Nil, err
	}
	u := &model.User{
		ID:      uid,
		Name:    name,
		Email:   email,
		PwdHash: s.hasher.Hash([]byte(password), salt),
		Salt:    salt,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return uuid.Nil, err
	}
	return uid, nil
}

// LoginWithIP authenticates with rate limiting by (email, client address).
func (s *AuthServiceImpl) LoginWithIP(ctx context.Context, email, password, remoteAddr string) (model.Tokens, model.User, error) {
	key := limiter.NewKey(email, remoteAddr)

	allowed, _, err := s.lim.Allow(ctx, key)
	if err != nil {
		return model.Tokens{}, model.User{}, err
	}
	if !allowed {
		return model.Tokens{}, model.User{}, errs.ErrRateLimited
	}

	u, err := s.users.GetByEmail(ctx, key.Email)
	switch {
	case errors.Is(err, errs.ErrNotFound):
		s.hasher.Burn([]byte(password))
	case err != nil:
		return model.Tokens{}, model.User{}, err
	}
	if u == nil || !s.hasher.Verify([]byte(password), u.Salt, u.PwdHash) {
		if blocked, _, ferr := s.lim.Failure(ctx, key); ferr == nil && blocked {
			return model.Tokens{}, model.User{}, errs.ErrRateLimited
		}
		// unknown email and wrong password look the same
		return model.Tokens{}, model.User{}, errs.ErrUnauthorized
	}

	_ = s.lim.Success(ctx, key)

	tok, err := s.issueAccessToken(u.ID)
	if err != nil {
		return model.Tokens{}, model.User{}, err
	}
	return tok, *u, nil
}

// issueAccessToken creates a signed HS256 JWT with a unique ID for revocation.
func (s *AuthServiceImpl) issueAccessToken(userID uuid.UUID) (model.Tokens, error) {
	jti, err := uuid.NewV4()
	if err != nil {
		return model.Tokens{}, err
	}
	now := time.Now()
	exp := now.Add(s.accessTTL)
	claims := jwt.RegisteredClaims{
		ID:        jti.String(),
		Subject:   userID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signKey)
	if err != nil {
		return model.Tokens{}, err
	}
	return model.Tokens{AccessToken: signed, ExpiresAt: exp}, nil
}

// Verify implements AuthService. Every failure is errs.ErrUnauthorized except denylist outages.
func (s *AuthServiceImpl) Verify(ctx context.Context, token string) (Claims, error) {
	var rc jwt.RegisteredClaims
	parsed, err := jwt.ParseWithClaims(token, &rc, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return s.signKey, nil
	}, jwt.WithLeeway(30*time.Second), jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid {
		return Claims{}, fmt.Errorf("%w: invalid token", errs.ErrUnauthorized)
	}

	id, err := uuid.FromString(rc.Subject)
	if err != nil {
		return Claims{}, fmt.Errorf("%w: bad subject", errs.ErrUnauthorized)
	}
	c := Claims{UserID: id, TokenID: rc.ID, ExpiresAt: rc.ExpiresAt.Time}

	if c.TokenID != "" {
		revoked, err := s.deny.Revoked(ctx, c.TokenID)
		if err != nil {
			return Claims{}, fmt.Errorf("check revocation: %w", err)
		}
		if revoked {
			return Claims{}, fmt.Errorf("%w: token revoked", errs.ErrUnauthorized)
		}
	}
	return c, nil
}

// Revoke implements AuthService.
func (s *AuthServiceImpl) Revoke(ctx context.Context, c Claims) error {
	if c.TokenID == "" {
		return fmt.Errorf("%w: token has no id", errs.ErrUnauthorized)
	}
	return s.deny.Revoke(ctx, c.TokenID, c.ExpiresAt)
}
