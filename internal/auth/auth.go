// Package auth manages the persisted session: login, registration, logout and token access.
package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/and161185/geocam/internal/apiclient"
	"github.com/and161185/geocam/internal/errs"
	"github.com/and161185/geocam/internal/model"
	"github.com/and161185/geocam/internal/validate"
)

// Store is the subset of the secure key-value store used for the session.
type Store interface {
	SaveAll(ctx context.Context, pairs map[string]string) error
	Get(ctx context.Context, key string) (string, bool, error)
	Delete(ctx context.Context, keys ...string) error
}

// Sender issues backend requests.
type Sender interface {
	Send(ctx context.Context, method, path string, body any, opts ...apiclient.RequestOption) (*apiclient.Response, error)
}

// Reader reads the persisted session. It is safe to share with the API client and the pipeline.
type Reader struct {
	store Store
}

// NewReader wraps store.
func NewReader(store Store) *Reader { return &Reader{store: store} }

// CurrentSession returns the stored session, or nil unless both token and user id are present.
func (r *Reader) CurrentSession(ctx context.Context) (*model.Session, error) {
	tok, ok, err := r.store.Get(ctx, model.KeyToken)
	if err != nil {
		return nil, fmt.Errorf("read token: %w", err)
	}
	if !ok {
		return nil, nil
	}
	uid, ok, err := r.store.Get(ctx, model.KeyUserID)
	if err != nil {
		return nil, fmt.Errorf("read user id: %w", err)
	}
	if !ok {
		return nil, nil
	}
	return &model.Session{Token: tok, UserID: uid}, nil
}

// Token returns the raw stored token. Presence alone decides whether a bearer header is sent.
func (r *Reader) Token(ctx context.Context) (string, bool, error) {
	return r.store.Get(ctx, model.KeyToken)
}

// Service performs the session lifecycle against the backend.
type Service struct {
	*Reader
	api Sender
	log *zap.Logger
}

// NewService constructs a Service. A nil logger disables logging.
func NewService(store Store, api Sender, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{Reader: NewReader(store), api: api, log: log}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	Name                 string `json:"name"`
	Email                string `json:"email"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
}

type loginResponse struct {
	Token  string          `json:"token"`
	UserID json.RawMessage `json:"user_id"`
}

var errIncompleteSession = errors.New("response lacks token or user_id")

// Login authenticates and persists the session in a single store write.
// Any failure is reported as errs.ErrAuthenticationFailed and leaves the store untouched.
func (s *Service) Login(ctx context.Context, email, password string) (*model.Session, error) {
	email = strings.TrimSpace(email)
	if err := validate.LoginForm(email, password); err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrAuthenticationFailed, err)
	}

	resp, err := s.api.Send(ctx, http.MethodPost, "/login", loginRequest{Email: email, Password: password})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrAuthenticationFailed, err)
	}
	var body loginResponse
	if err := resp.DecodeJSON(&body); err != nil {
		return nil, fmt.Errorf("%w: decode login response: %w", errs.ErrAuthenticationFailed, err)
	}
	uid := userID(body.UserID)
	if body.Token == "" || uid == "" {
		return nil, fmt.Errorf("%w: %w", errs.ErrAuthenticationFailed, errIncompleteSession)
	}

	sess := &model.Session{Token: body.Token, UserID: uid}
	if err := s.store.SaveAll(ctx, map[string]string{
		model.KeyToken:  sess.Token,
		model.KeyUserID: sess.UserID,
	}); err != nil {
		return nil, fmt.Errorf("%w: persist session: %w", errs.ErrAuthenticationFailed, err)
	}
	s.log.Info("logged in", zap.String("user_id", sess.UserID))
	return sess, nil
}

// userID accepts both string and numeric ids.
func userID(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	var n json.Number
	if json.Unmarshal(raw, &n) == nil {
		return n.String()
	}
	return ""
}

// Register creates an account. It does not log in. Invalid input never reaches the network.
func (s *Service) Register(ctx context.Context, name, email, password, confirmation string) error {
	name, email = strings.TrimSpace(name), strings.TrimSpace(email)
	if err := validate.RegisterForm(name, email, password, confirmation); err != nil {
		return fmt.Errorf("%w: %w", errs.ErrRegistrationFailed, err)
	}
	_, err := s.api.Send(ctx, http.MethodPost, "/register", registerRequest{
		Name:                 name,
		Email:                email,
		Password:             password,
		PasswordConfirmation: confirmation,
	})
	if err != nil {
		return fmt.Errorf("%w: %w", errs.ErrRegistrationFailed, err)
	}
	s.log.Info("registered", zap.String("email", email))
	return nil
}

// Logout asks the backend to revoke the token, then clears the local session.
// The local clear happens even when the backend call fails.
func (s *Service) Logout(ctx context.Context) error {
	if _, ok, err := s.Token(ctx); err == nil && ok {
		if _, err := s.api.Send(ctx, http.MethodPost, "/logout", nil); err != nil {
			s.log.Warn("server logout failed", zap.Error(err))
		}
	}
	if err := s.store.Delete(ctx, model.KeyToken, model.KeyUserID); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}
