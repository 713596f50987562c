package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/BitForged/Compass/internal/domain"
	"github.com/BitForged/Compass/internal/ports"
	"github.com/golang-jwt/jwt/v5"
)

const (
	loginEndpoint = "api/auth/login"
	meEndpoint    = "api/user/me"

	msgLoggingIn         = "Logging in..."
	msgLoggedIn          = "Successfully logged in!"
	msgForcedLogout      = "You have been logged out due to your session being invalid."
	msgVerifyUnavailable = "Unable to verify your session right now. Please try again later."
)

type loginResponse struct {
	User  *domain.User `json:"user"`
	Token string       `json:"token"`
	Role  domain.Role  `json:"role"`
}

type meResponse struct {
	Role *domain.Role `json:"role"`
}

// SessionStore owns the authenticated identity of the client and keeps it in
// sync with durable storage.
type SessionStore struct {
	requester ports.Requester
	storage   ports.LocalStorage
	notifier  ports.Notifier
	navigator ports.Navigator
	policy    domain.VerifyPolicy
	log       *slog.Logger

	mu      sync.RWMutex
	session domain.Session
}

type SessionStoreOptions struct {
	Requester    ports.Requester
	Storage      ports.LocalStorage
	Notifier     ports.Notifier
	Navigator    ports.Navigator
	VerifyPolicy domain.VerifyPolicy
	Logger       *slog.Logger
}

var _ ports.SessionCredentials = (*SessionStore)(nil)

// NewSessionStore rehydrates the session persisted by a previous run.
func NewSessionStore(ctx context.Context, opts SessionStoreOptions) *SessionStore {
	policy := opts.VerifyPolicy
	if !policy.Valid() {
		policy = domain.VerifyPolicyAuthOnly
	}

	s := &SessionStore{
		requester: opts.Requester,
		storage:   opts.Storage,
		notifier:  opts.Notifier,
		navigator: opts.Navigator,
		policy:    policy,
		log:       orDiscard(opts.Logger),
	}
	s.session = s.restore(ctx)
	return s
}

func (s *SessionStore) restore(ctx context.Context) domain.Session {
	var session domain.Session

	token, err := s.storage.GetItem(ctx, domain.StorageKeyToken)
	if err != nil && !errors.Is(err, domain.ErrStorageKeyNotFound) {
		s.log.Warn("restore session token", "error", err)
	}
	session.Token = token

	rawRole, err := s.storage.GetItem(ctx, domain.StorageKeyRole)
	switch {
	case errors.Is(err, domain.ErrStorageKeyNotFound):
	case err != nil:
		s.log.Warn("restore session role", "error", err)
	default:
		role, err := strconv.Atoi(rawRole)
		if err != nil {
			s.log.Warn("decode stored role", "error", err)
		} else {
			session.Role = domain.Role(role)
		}
	}

	rawUser, err := s.storage.GetItem(ctx, domain.StorageKeyUser)
	switch {
	case errors.Is(err, domain.ErrStorageKeyNotFound):
	case err != nil:
		s.log.Warn("restore session user", "error", err)
	case rawUser != "" && rawUser != "null":
		var user domain.User
		if err := json.Unmarshal([]byte(rawUser), &user); err != nil {
			s.log.Warn("decode stored user", "error", err)
		} else {
			session.User = &user
		}
	}

	return session
}

// Login exchanges an authorization code for a session. A failed exchange
// leaves the current session as it was.
func (s *SessionStore) Login(ctx context.Context, code string) error {
	s.notifier.Add(msgLoggingIn, domain.SeverityInfo)

	resp, err := s.requester.Request(ctx, ports.Request{
		Method:   http.MethodPost,
		Endpoint: loginEndpoint,
		Data:     map[string]string{"code": code},
	})
	if err != nil {
		var httpErr *domain.HTTPError
		reason := domain.LoginErrorCode("")
		if errors.As(err, &httpErr) {
			reason = domain.LoginErrorCode(httpErr.Code())
		}
		s.notifier.Add(domain.LoginFailureMessage(reason), domain.SeverityError)
		return fmt.Errorf("login: %w", err)
	}

	var payload loginResponse
	if err := resp.Decode(&payload); err != nil {
		s.notifier.Add(domain.LoginFailureMessage(""), domain.SeverityError)
		return fmt.Errorf("login: %w", err)
	}
	if payload.Token == "" {
		s.notifier.Add(domain.LoginFailureMessage(""), domain.SeverityError)
		return errors.New("login: response is missing a token")
	}

	next := domain.Session{User: payload.User, Token: payload.Token, Role: payload.Role}
	if err := s.persist(ctx, next); err != nil {
		s.notifier.Add(domain.LoginFailureMessage(""), domain.SeverityError)
		return fmt.Errorf("login: %w", err)
	}

	s.mu.Lock()
	s.session = next
	s.mu.Unlock()

	s.log.Info("logged in", "user", payload.User.DisplayName(), "role", payload.Role.String())
	s.notifier.Add(msgLoggedIn, domain.SeveritySuccess)
	return nil
}

// persist writes token, user and role. When a later write fails the previous
// stored values are put back.
func (s *SessionStore) persist(ctx context.Context, session domain.Session) error {
	encodedUser, err := json.Marshal(session.User)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}

	previous := s.Snapshot()

	if err := s.storage.SetItem(ctx, domain.StorageKeyToken, session.Token); err != nil {
		return fmt.Errorf("store token: %w", err)
	}

	writes := []struct {
		key   string
		value string
	}{
		{domain.StorageKeyUser, string(encodedUser)},
		{domain.StorageKeyRole, strconv.Itoa(int(session.Role))},
	}
	for _, w := range writes {
		if err := s.storage.SetItem(ctx, w.key, w.value); err != nil {
			if rollbackErr := s.writeStored(ctx, previous); rollbackErr != nil {
				return fmt.Errorf("store %s and restore previous session: %w", w.key, errors.Join(err, rollbackErr))
			}
			return fmt.Errorf("store %s: %w", w.key, err)
		}
	}

	return nil
}

func (s *SessionStore) writeStored(ctx context.Context, session domain.Session) error {
	if session.Token == "" {
		return s.removeStored(ctx)
	}

	var errs error
	if err := s.storage.SetItem(ctx, domain.StorageKeyToken, session.Token); err != nil {
		errs = errors.Join(errs, err)
	}
	encodedUser, err := json.Marshal(session.User)
	if err != nil {
		return errors.Join(errs, err)
	}
	if err := s.storage.SetItem(ctx, domain.StorageKeyUser, string(encodedUser)); err != nil {
		errs = errors.Join(errs, err)
	}
	if err := s.storage.SetItem(ctx, domain.StorageKeyRole, strconv.Itoa(int(session.Role))); err != nil {
		errs = errors.Join(errs, err)
	}
	return errs
}

func (s *SessionStore) removeStored(ctx context.Context) error {
	var errs error
	if err := s.storage.RemoveItem(ctx, domain.StorageKeyToken); err != nil {
		errs = errors.Join(errs, fmt.Errorf("remove token: %w", err))
	}
	if err := s.storage.RemoveItem(ctx, domain.StorageKeyUser); err != nil {
		errs = errors.Join(errs, fmt.Errorf("remove user: %w", err))
	}
	if err := s.storage.RemoveItem(ctx, domain.StorageKeyRole); err != nil {
		errs = errors.Join(errs, fmt.Errorf("remove role: %w", err))
	}
	return errs
}

// Logout clears the session and returns to the root route. A forced logout
// tells the user their session ended. Calling it without a session only
// navigates.
func (s *SessionStore) Logout(ctx context.Context, forced bool) error {
	s.mu.Lock()
	hadSession := s.session.IsLoggedIn() || s.session.User != nil
	s.session = domain.Session{}
	s.mu.Unlock()

	err := s.removeStored(ctx)
	if err != nil {
		s.log.Error("clear stored session", "error", err)
	}

	if forced && hadSession {
		s.log.Warn("session ended by the server")
		s.notifier.Add(msgForcedLogout, domain.SeverityWarning)
	}

	s.navigateRoot()
	return err
}

func (s *SessionStore) IsLoggedIn() bool {
	return s.Token() != ""
}

func (s *SessionStore) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.session.Token
}

func (s *SessionStore) User() *domain.User {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.session.User
}

func (s *SessionStore) Role() domain.Role {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.session.Role
}

func (s *SessionStore) Snapshot() domain.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.session
}

func (s *SessionStore) AvatarURL() string {
	return s.User().AvatarURL()
}

// TokenExpiry reads the exp claim of the bearer token without verifying it.
// Tokens that are not JWTs have no known expiry.
func (s *SessionStore) TokenExpiry() time.Time {
	token := s.Token()
	if token == "" {
		return time.Time{}
	}

	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}
	}
	if claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}

// VerifyTokenIsStillValid asks the backend who the token belongs to. A
// rejected token (401/403) ends the session; other failures are handled
// according to the configured VerifyPolicy.
func (s *SessionStore) VerifyTokenIsStillValid(ctx context.Context) error {
	if !s.IsLoggedIn() {
		return nil
	}

	resp, err := s.requester.Request(ctx, ports.Request{Endpoint: meEndpoint})
	if err != nil {
		if status, ok := domain.StatusOf(err); ok && (status == http.StatusUnauthorized || status == http.StatusForbidden) {
			if logoutErr := s.Logout(ctx, true); logoutErr != nil {
				return fmt.Errorf("verify token: %w", errors.Join(err, logoutErr))
			}
			return fmt.Errorf("verify token: %w", err)
		}

		s.log.Warn("verify token", "error", err, "policy", string(s.policy))
		if s.policy == domain.VerifyPolicyStrict {
			s.notifier.Add(msgVerifyUnavailable, domain.SeverityWarning)
			s.navigateRoot()
		}
		return fmt.Errorf("%w: %w", domain.ErrValidationSession, err)
	}

	var payload meResponse
	if err := resp.Decode(&payload); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrValidationSession, err)
	}

	if payload.Role == nil {
		return nil
	}

	s.mu.Lock()
	s.session.Role = *payload.Role
	s.mu.Unlock()

	if err := s.storage.SetItem(ctx, domain.StorageKeyRole, strconv.Itoa(int(*payload.Role))); err != nil {
		s.log.Warn("store verified role", "error", err)
	}
	return nil
}

func (s *SessionStore) navigateRoot() {
	if s.navigator == nil {
		return
	}
	if _, err := s.navigator.Navigate(domain.RootPath); err != nil {
		s.log.Warn("navigate to root", "error", err)
	}
}
