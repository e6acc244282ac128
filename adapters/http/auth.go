package http

import (
	"context"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/artpar/gymdesk/adapters/metrics"
	"github.com/artpar/gymdesk/app"
	"github.com/artpar/gymdesk/domain/auth"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// SessionCookieName is the cookie carrying the raw session token.
const SessionCookieName = "session_token"

type ctxKey string

const (
	ctxUserKey    ctxKey = "user"
	ctxSessionKey ctxKey = "session"
)

// UserFromContext returns the authenticated staff user.
func UserFromContext(ctx context.Context) (auth.User, bool) {
	u, ok := ctx.Value(ctxUserKey).(auth.User)
	return u, ok
}

// NewLoginLimiter creates the token bucket guarding the login endpoint.
// A non-positive rate disables the limit.
func NewLoginLimiter(perSecond float64, burst int) *rate.Limiter {
	return rate.NewLimiter(LoginLimit(perSecond), burst)
}

// LoginLimit converts a configured rate into a limiter limit.
func LoginLimit(perSecond float64) rate.Limit {
	if perSecond <= 0 {
		return rate.Inf
	}
	return rate.Limit(perSecond)
}

// AuthHandler serves login, logout and password endpoints and provides
// the session middleware.
type AuthHandler struct {
	auth         *app.AuthService
	limiter      *rate.Limiter
	metrics      *metrics.Collector
	logger       zerolog.Logger
	cookieSecure atomic.Bool
}

// AuthHandlerDeps contains dependencies for the auth handler.
type AuthHandlerDeps struct {
	Auth         *app.AuthService
	Limiter      *rate.Limiter // optional
	Metrics      *metrics.Collector
	Logger       zerolog.Logger
	CookieSecure bool
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(deps AuthHandlerDeps) *AuthHandler {
	h := &AuthHandler{
		auth:    deps.Auth,
		limiter: deps.Limiter,
		metrics: deps.Metrics,
		logger:  deps.Logger,
	}
	h.cookieSecure.Store(deps.CookieSecure)
	return h
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Username string `json:"username" example:"admin"`
	Password string `json:"password" example:"S3cret!pass"`
}

// LoginResponse is returned after a successful login.
type LoginResponse struct {
	Token             string       `json:"token"`
	ExpiresAt         string       `json:"expires_at"`
	MustResetPassword bool         `json:"must_reset_password"`
	User              UserResponse `json:"user"`
}

// UserResponse represents a staff user in API responses.
type UserResponse struct {
	ID                string  `json:"id"`
	Username          string  `json:"username"`
	FullName          string  `json:"full_name"`
	Email             string  `json:"email"`
	Role              string  `json:"role"`
	Active            bool    `json:"active"`
	MustResetPassword bool    `json:"must_reset_password"`
	CreatedAt         string  `json:"created_at"`
	LastLoginAt       *string `json:"last_login_at,omitempty"`
}

func userToResponse(u auth.User) UserResponse {
	resp := UserResponse{
		ID:                u.ID,
		Username:          u.Username,
		FullName:          u.FullName,
		Email:             u.Email,
		Role:              string(u.Role),
		Active:            u.Active,
		MustResetPassword: u.MustResetPassword,
		CreatedAt:         u.CreatedAt.UTC().Format(time.RFC3339),
	}
	if u.LastLoginAt != nil {
		s := u.LastLoginAt.UTC().Format(time.RFC3339)
		resp.LastLoginAt = &s
	}
	return resp
}

// Login authenticates a staff user and starts a session.
//
//	@Summary		Log in
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		LoginRequest		true	"Credentials"
//	@Success		200		{object}	LoginResponse
//	@Failure		401		{object}	ErrorResponseBody	"Invalid credentials"
//	@Failure		403		{object}	ErrorResponseBody	"Account inactive"
//	@Failure		422		{object}	ErrorResponseBody	"Missing fields"
//	@Failure		429		{object}	ErrorResponseBody	"Locked or rate limited"
//	@Router			/auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if h.limiter != nil && !h.limiter.Allow() {
		if h.metrics != nil {
			h.metrics.RateLimitHits.Inc()
		}
		w.Header().Set("Retry-After", "1")
		writeError(w, http.StatusTooManyRequests, "rate_limited", "Too many login requests")
		return
	}

	var req LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.auth.Login(r.Context(), app.LoginInput{
		Username:  req.Username,
		Password:  req.Password,
		IPAddress: clientIP(r),
		UserAgent: r.UserAgent(),
	})
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	h.setCookie(w, result.Token, result.ExpiresAt)
	writeJSON(w, http.StatusOK, LoginResponse{
		Token:             result.Token,
		ExpiresAt:         result.ExpiresAt.UTC().Format(time.RFC3339),
		MustResetPassword: result.MustResetPassword,
		User:              userToResponse(result.User),
	})
}

// Logout ends the caller's session.
//
//	@Summary		Log out
//	@Tags			Auth
//	@Produce		json
//	@Success		200	{object}	map[string]string	"status: logged_out"
//	@Router			/auth/logout [post]
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.Revoke(r.Context(), extractToken(r)); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	h.clearCookie(w)
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}

// Me returns the authenticated user.
//
//	@Summary		Current user
//	@Tags			Auth
//	@Produce		json
//	@Success		200	{object}	UserResponse
//	@Failure		401	{object}	ErrorResponseBody
//	@Security		SessionAuth
//	@Router			/auth/me [get]
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())
	writeJSON(w, http.StatusOK, userToResponse(user))
}

// ChangePasswordRequest is the body of POST /auth/password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
	Confirm         string `json:"confirm"`
}

// ChangePassword replaces the caller's password and rotates the session.
//
//	@Summary		Change password
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		ChangePasswordRequest	true	"Passwords"
//	@Success		200		{object}	LoginResponse
//	@Failure		422		{object}	ErrorResponseBody
//	@Security		SessionAuth
//	@Router			/auth/password [post]
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())

	var req ChangePasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	session, err := h.auth.ChangePassword(r.Context(), user.ID, auth.ChangePasswordRequest{
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
		Confirm:         req.Confirm,
	}, clientIP(r), r.UserAgent())
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	user.MustResetPassword = false
	h.setCookie(w, session.RawToken, session.Session.ExpiresAt)
	writeJSON(w, http.StatusOK, LoginResponse{
		Token:     session.RawToken,
		ExpiresAt: session.Session.ExpiresAt.UTC().Format(time.RFC3339),
		User:      userToResponse(user),
	})
}

// SetCookieSecure toggles the Secure flag on session cookies.
func (h *AuthHandler) SetCookieSecure(secure bool) {
	h.cookieSecure.Store(secure)
}

// RequireSession rejects requests without a valid session and stores the
// user in the request context.
func (h *AuthHandler) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, session, err := h.auth.Validate(r.Context(), extractToken(r))
		if err != nil {
			writeServiceError(w, h.logger, err)
			return
		}
		ctx := context.WithValue(r.Context(), ctxUserKey, user)
		ctx = context.WithValue(ctx, ctxSessionKey, session.ID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequirePasswordSet blocks users who must still replace their initial
// password.
func RequirePasswordSet(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if user, ok := UserFromContext(r.Context()); ok && user.MustResetPassword {
			writeError(w, http.StatusForbidden, "password_reset_required", "Change your password before continuing")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin allows only admin users through.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r.Context())
		if !ok || !user.IsAdmin() {
			writeError(w, http.StatusForbidden, "forbidden", "Admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *AuthHandler) setCookie(w http.ResponseWriter, token string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   h.cookieSecure.Load(),
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) clearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookieSecure.Load(),
		SameSite: http.SameSiteLaxMode,
	})
}

// extractToken reads the session token from the cookie or a bearer header.
func extractToken(r *http.Request) string {
	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return ""
}
