// Package auth provides staff authentication value types and pure validation functions.
// This package has NO dependencies on I/O or external packages.
package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
	"time"
)

// Role is a staff permission level.
type Role string

const (
	RoleAdmin        Role = "admin"
	RoleCollaborator Role = "collaborator"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleCollaborator
}

// User is a staff account (immutable value type).
type User struct {
	ID                string
	Username          string
	FullName          string
	Email             string
	Role              Role
	PasswordHash      []byte
	Active            bool
	MustResetPassword bool
	CreatedAt         time.Time
	LastLoginAt       *time.Time
}

// IsAdmin reports whether the user has the admin role.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// WithLastLogin returns a copy of the user stamped with a login time.
func (u User) WithLastLogin(at time.Time) User {
	u.LastLoginAt = &at
	return u
}

// Session is a server-side login session (immutable value type).
// Only the hash of the token is stored.
type Session struct {
	ID        string
	UserID    string
	TokenHash []byte
	IPAddress string
	UserAgent string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// SessionResult carries a new session and the raw token handed to the client.
type SessionResult struct {
	Session  Session
	RawToken string // only available at creation
}

// GenerateSession creates a new session for userID valid for ttl from now.
func GenerateSession(userID, ipAddress, userAgent string, ttl time.Duration, now time.Time) SessionResult {
	// 32 random bytes = 64 hex chars
	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		panic("crypto/rand failed")
	}
	rawToken := hex.EncodeToString(tokenBytes)

	idBytes := make([]byte, 16)
	rand.Read(idBytes)

	return SessionResult{
		Session: Session{
			ID:        "sess_" + hex.EncodeToString(idBytes),
			UserID:    userID,
			TokenHash: HashToken(rawToken),
			IPAddress: ipAddress,
			UserAgent: userAgent,
			ExpiresAt: now.Add(ttl),
			CreatedAt: now,
		},
		RawToken: rawToken,
	}
}

// IsExpired reports whether the session has expired at now.
func (s Session) IsExpired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// HashToken creates a SHA-256 hash of a raw token for storage/lookup.
func HashToken(rawToken string) []byte {
	h := sha256.Sum256([]byte(rawToken))
	return h[:]
}

// Result represents the outcome of validation.
type Result struct {
	Valid  bool
	Errors map[string]string // field -> error message
}

func result(errors map[string]string) Result {
	return Result{Valid: len(errors) == 0, Errors: errors}
}

// LoginRequest represents a login request (value type).
type LoginRequest struct {
	Username string
	Password string
}

// ValidateLogin validates a login request (pure function).
func ValidateLogin(req LoginRequest) Result {
	errors := make(map[string]string)

	if strings.TrimSpace(req.Username) == "" {
		errors["username"] = "Username is required"
	}
	if req.Password == "" {
		errors["password"] = "Password is required"
	}

	return result(errors)
}

// ChangePasswordRequest represents a password change request (value type).
type ChangePasswordRequest struct {
	CurrentPassword string
	NewPassword     string
	Confirm         string
}

// ValidateChangePassword validates a password change request (pure function).
// Whether the current password matches is checked by the caller.
func ValidateChangePassword(req ChangePasswordRequest) Result {
	errors := make(map[string]string)

	if req.CurrentPassword == "" {
		errors["current_password"] = "Current password is required"
	}

	if req.NewPassword == "" {
		errors["new_password"] = "New password is required"
	} else if ok, msg := CheckPasswordStrength(req.NewPassword); !ok {
		errors["new_password"] = msg
	}

	if req.Confirm != req.NewPassword {
		errors["confirm"] = "Passwords do not match"
	}

	return result(errors)
}

// CreateStaffRequest represents an admin creating a staff account (value type).
type CreateStaffRequest struct {
	Username string
	FullName string
	Email    string
	Role     Role
	Password string
	Confirm  string
}

// MinStaffPasswordLength is the minimum length of a password set by an admin.
const MinStaffPasswordLength = 6

// ValidateCreateStaff validates a staff creation request (pure function).
// Uniqueness of username and email is checked by the caller.
func ValidateCreateStaff(req CreateStaffRequest) Result {
	errors := make(map[string]string)

	username := strings.TrimSpace(req.Username)
	if username == "" {
		errors["username"] = "Username is required"
	} else if !usernameRegex.MatchString(username) {
		errors["username"] = "Use only letters, numbers and underscore"
	}

	if strings.TrimSpace(req.FullName) == "" {
		errors["full_name"] = "Full name is required"
	}

	if strings.TrimSpace(req.Email) == "" {
		errors["email"] = "Email is required"
	} else if !isValidEmail(req.Email) {
		errors["email"] = "Invalid email format"
	}

	if !req.Role.Valid() {
		errors["role"] = "Role must be admin or collaborator"
	}

	if req.Password == "" {
		errors["password"] = "Password is required"
	} else if len(req.Password) < MinStaffPasswordLength {
		errors["password"] = "Password must be at least 6 characters"
	}

	if req.Confirm != req.Password {
		errors["confirm"] = "Passwords do not match"
	}

	return result(errors)
}

// CheckPasswordStrength reports whether a password is strong enough and,
// if not, the first rule it breaks.
func CheckPasswordStrength(password string) (bool, string) {
	if len(password) < 8 {
		return false, "Password must be at least 8 characters"
	}

	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, c := range password {
		switch {
		case c >= 'A' && c <= 'Z':
			hasUpper = true
		case c >= 'a' && c <= 'z':
			hasLower = true
		case c >= '0' && c <= '9':
			hasDigit = true
		default:
			hasSpecial = true
		}
	}

	switch {
	case !hasUpper:
		return false, "Password must contain an uppercase letter"
	case !hasLower:
		return false, "Password must contain a lowercase letter"
	case !hasDigit:
		return false, "Password must contain a number"
	case !hasSpecial:
		return false, "Password must contain a special character"
	}
	return true, ""
}

// Initial admin account defaults.
const (
	InitialAdminUsername = "admin"
	InitialAdminFullName = "System Administrator"
	InitialAdminEmail    = "admin@gymdesk.local"
)

// InitialAdmin returns the first admin account, forced to change its password.
func InitialAdmin(id string, passwordHash []byte, now time.Time) User {
	return User{
		ID:                id,
		Username:          InitialAdminUsername,
		FullName:          InitialAdminFullName,
		Email:             InitialAdminEmail,
		Role:              RoleAdmin,
		PasswordHash:      passwordHash,
		Active:            true,
		MustResetPassword: true,
		CreatedAt:         now,
	}
}

// NewStaff builds a staff account from a validated request.
func NewStaff(id string, req CreateStaffRequest, passwordHash []byte, now time.Time) User {
	return User{
		ID:           id,
		Username:     strings.TrimSpace(req.Username),
		FullName:     strings.TrimSpace(req.FullName),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		Role:         req.Role,
		PasswordHash: passwordHash,
		Active:       true,
		CreatedAt:    now,
	}
}

// Helper functions (pure)

var (
	emailRegex    = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	usernameRegex = regexp.MustCompile(`^[A-Za-z0-9_]+$`)
)

func isValidEmail(email string) bool {
	email = strings.TrimSpace(email)
	return emailRegex.MatchString(email)
}
