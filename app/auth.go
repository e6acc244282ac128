package app

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/artpar/gymdesk/domain/auth"
	"github.com/artpar/gymdesk/domain/ratelimit"
	"github.com/artpar/gymdesk/ports"
	"github.com/rs/zerolog"
)

// Login failure reasons reported to metrics.
const (
	ReasonInvalidCredentials = "invalid_credentials"
	ReasonLocked             = ratelimit.ReasonLocked
	ReasonInactive           = "inactive"
)

// AuthDeps contains dependencies for AuthService.
type AuthDeps struct {
	Staff    ports.StaffStore
	Sessions ports.SessionStore
	Attempts ports.AttemptStore
	Hasher   ports.Hasher
	Clock    ports.Clock
	Metrics  ports.Metrics
	Logger   zerolog.Logger
}

// AuthConfig contains hot-reloadable authentication settings.
type AuthConfig struct {
	SessionTTL time.Duration
	Lockout    ratelimit.Policy
}

// DefaultAuthConfig returns an 8 hour session with the default lockout.
func DefaultAuthConfig() AuthConfig {
	return AuthConfig{
		SessionTTL: 8 * time.Hour,
		Lockout:    ratelimit.DefaultPolicy(),
	}
}

// AuthService logs staff in and out and validates their sessions.
type AuthService struct {
	staff    ports.StaffStore
	sessions ports.SessionStore
	attempts ports.AttemptStore
	hasher   ports.Hasher
	clock    ports.Clock
	metrics  ports.Metrics
	logger   zerolog.Logger

	cfg atomic.Pointer[AuthConfig]
}

// NewAuthService creates a new auth service.
func NewAuthService(deps AuthDeps, cfg AuthConfig) *AuthService {
	if deps.Metrics == nil {
		deps.Metrics = NopMetrics{}
	}
	s := &AuthService{
		staff:    deps.Staff,
		sessions: deps.Sessions,
		attempts: deps.Attempts,
		hasher:   deps.Hasher,
		clock:    deps.Clock,
		metrics:  deps.Metrics,
		logger:   deps.Logger,
	}
	s.UpdateConfig(cfg)
	return s
}

// UpdateConfig replaces the session TTL and lockout policy.
// This is thread-safe and can be called while handling requests.
func (s *AuthService) UpdateConfig(cfg AuthConfig) {
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = DefaultAuthConfig().SessionTTL
	}
	s.cfg.Store(&cfg)
}

// Config returns the settings in effect.
func (s *AuthService) Config() AuthConfig {
	return *s.cfg.Load()
}

// LoginInput carries credentials and client details.
type LoginInput struct {
	Username  string
	Password  string
	IPAddress string
	UserAgent string
}

// LoginResult is a successful login.
type LoginResult struct {
	User              auth.User
	Token             string
	ExpiresAt         time.Time
	MustResetPassword bool
}

// Login checks credentials and issues a session.
//
// Failures are counted per client address and username. Once the policy's
// limit is reached the key is locked and further attempts fail with a
// *LockedError until the lock expires, even with the right password.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (LoginResult, error) {
	if v := auth.ValidateLogin(auth.LoginRequest{Username: in.Username, Password: in.Password}); !v.Valid {
		return LoginResult{}, validationError(v.Errors)
	}

	cfg := s.Config()
	now := s.clock.Now()
	key := ratelimit.Key(in.IPAddress, in.Username)

	state, err := s.attempts.Get(ctx, key)
	if err != nil {
		return LoginResult{}, fmt.Errorf("get attempts: %w", err)
	}
	if check := ratelimit.CheckLock(state, now); !check.Allowed {
		s.metrics.LoginFailed(ReasonLocked)
		return LoginResult{}, &LockedError{Wait: check.Wait}
	}

	user, err := s.staff.GetByUsername(ctx, in.Username)
	if err != nil && !errors.Is(err, ports.ErrNotFound) {
		return LoginResult{}, fmt.Errorf("get user: %w", err)
	}
	if err != nil || !s.hasher.Compare(user.PasswordHash, in.Password) {
		return LoginResult{}, s.recordFailure(ctx, key, state, cfg.Lockout, now)
	}

	if !user.Active {
		s.metrics.LoginFailed(ReasonInactive)
		return LoginResult{}, ErrInactiveAccount
	}

	if err := s.attempts.Delete(ctx, key); err != nil {
		return LoginResult{}, fmt.Errorf("reset attempts: %w", err)
	}

	user = user.WithLastLogin(now)
	if err := s.staff.Update(ctx, user); err != nil {
		return LoginResult{}, fmt.Errorf("update last login: %w", err)
	}

	session, err := s.Issue(ctx, user, in.IPAddress, in.UserAgent)
	if err != nil {
		return LoginResult{}, err
	}

	s.logger.Info().Str("user_id", user.ID).Str("ip", in.IPAddress).Msg("staff logged in")

	return LoginResult{
		User:              user,
		Token:             session.RawToken,
		ExpiresAt:         session.Session.ExpiresAt,
		MustResetPassword: user.MustResetPassword,
	}, nil
}

func (s *AuthService) recordFailure(ctx context.Context, key string, state ratelimit.AttemptState, policy ratelimit.Policy, now time.Time) error {
	state = ratelimit.RecordFailure(state, policy, now)
	if err := s.attempts.Set(ctx, key, state); err != nil {
		return fmt.Errorf("record attempt: %w", err)
	}
	s.metrics.LoginFailed(ReasonInvalidCredentials)

	if state.Locked(now) {
		s.metrics.LoginLocked()
		s.logger.Warn().Str("key", key).Int("attempts", state.Count).Msg("login locked")
		return &LockedError{Wait: state.LockedUntil.Sub(now)}
	}
	return ErrInvalidCredentials
}

// Issue starts a new session for user, revoking any earlier one.
func (s *AuthService) Issue(ctx context.Context, user auth.User, ipAddress, userAgent string) (auth.SessionResult, error) {
	if err := s.sessions.DeleteByUser(ctx, user.ID); err != nil {
		return auth.SessionResult{}, fmt.Errorf("revoke sessions: %w", err)
	}

	result := auth.GenerateSession(user.ID, ipAddress, userAgent, s.Config().SessionTTL, s.clock.Now())
	if err := s.sessions.Create(ctx, result.Session); err != nil {
		return auth.SessionResult{}, fmt.Errorf("create session: %w", err)
	}
	return result, nil
}

// Validate returns the user behind a raw session token. The session must
// exist and be unexpired, and the user must still be active.
func (s *AuthService) Validate(ctx context.Context, token string) (auth.User, auth.Session, error) {
	if token == "" {
		return auth.User{}, auth.Session{}, ErrSessionInvalid
	}

	session, err := s.sessions.GetByHash(ctx, auth.HashToken(token))
	if errors.Is(err, ports.ErrNotFound) {
		return auth.User{}, auth.Session{}, ErrSessionInvalid
	}
	if err != nil {
		return auth.User{}, auth.Session{}, fmt.Errorf("get session: %w", err)
	}

	if session.IsExpired(s.clock.Now()) {
		_ = s.sessions.Delete(ctx, session.ID)
		return auth.User{}, auth.Session{}, ErrSessionInvalid
	}

	user, err := s.staff.Get(ctx, session.UserID)
	if errors.Is(err, ports.ErrNotFound) {
		return auth.User{}, auth.Session{}, ErrSessionInvalid
	}
	if err != nil {
		return auth.User{}, auth.Session{}, fmt.Errorf("get user: %w", err)
	}
	if !user.Active {
		return auth.User{}, auth.Session{}, ErrSessionInvalid
	}

	return user, session, nil
}

// Revoke ends the session behind a raw token (logout).
// Unknown tokens are ignored.
func (s *AuthService) Revoke(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	session, err := s.sessions.GetByHash(ctx, auth.HashToken(token))
	if errors.Is(err, ports.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("get session: %w", err)
	}
	return s.sessions.Delete(ctx, session.ID)
}

// ChangePassword replaces a user's password, clears the forced reset and
// rotates the session.
func (s *AuthService) ChangePassword(ctx context.Context, userID string, req auth.ChangePasswordRequest, ipAddress, userAgent string) (auth.SessionResult, error) {
	if v := auth.ValidateChangePassword(req); !v.Valid {
		return auth.SessionResult{}, validationError(v.Errors)
	}

	user, err := s.staff.Get(ctx, userID)
	if err != nil {
		return auth.SessionResult{}, err
	}
	if !s.hasher.Compare(user.PasswordHash, req.CurrentPassword) {
		return auth.SessionResult{}, validationError(map[string]string{
			"current_password": "Current password is incorrect",
		})
	}

	hash, err := s.hasher.Hash(req.NewPassword)
	if err != nil {
		return auth.SessionResult{}, fmt.Errorf("hash password: %w", err)
	}
	user.PasswordHash = hash
	user.MustResetPassword = false
	if err := s.staff.Update(ctx, user); err != nil {
		return auth.SessionResult{}, fmt.Errorf("update user: %w", err)
	}

	s.logger.Info().Str("user_id", user.ID).Msg("password changed")
	return s.Issue(ctx, user, ipAddress, userAgent)
}

// Cleanup removes expired sessions and stale attempt records.
func (s *AuthService) Cleanup(ctx context.Context) (sessions, attempts int64, err error) {
	now := s.clock.Now()

	sessions, err = s.sessions.DeleteExpired(ctx, now)
	if err != nil {
		return 0, 0, fmt.Errorf("delete expired sessions: %w", err)
	}

	attempts, err = s.attempts.DeleteBefore(ctx, now.Add(-s.Config().Lockout.Window))
	if err != nil {
		return sessions, 0, fmt.Errorf("delete stale attempts: %w", err)
	}

	if sessions > 0 || attempts > 0 {
		s.logger.Debug().Int64("sessions", sessions).Int64("attempts", attempts).Msg("auth cleanup")
	}
	return sessions, attempts, nil
}
