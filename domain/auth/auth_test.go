package auth

import (
	"bytes"
	"testing"
	"time"
)

var now = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

func TestGenerateSession(t *testing.T) {
	result := GenerateSession("user123", "10.0.0.1", "curl/8", 8*time.Hour, now)

	if result.Session.UserID != "user123" {
		t.Errorf("UserID = %s, want user123", result.Session.UserID)
	}
	if len(result.Session.ID) < 20 || result.Session.ID[:5] != "sess_" {
		t.Errorf("Invalid session ID format: %s", result.Session.ID)
	}
	if len(result.RawToken) != 64 {
		t.Errorf("RawToken length = %d, want 64", len(result.RawToken))
	}
	if !bytes.Equal(result.Session.TokenHash, HashToken(result.RawToken)) {
		t.Error("TokenHash does not match raw token")
	}
	if !result.Session.ExpiresAt.Equal(now.Add(8 * time.Hour)) {
		t.Errorf("ExpiresAt = %s", result.Session.ExpiresAt)
	}

	other := GenerateSession("user123", "", "", time.Hour, now)
	if other.RawToken == result.RawToken {
		t.Error("tokens should be unique")
	}
}

func TestSession_IsExpired(t *testing.T) {
	s := Session{ExpiresAt: now}

	if s.IsExpired(now.Add(-time.Second)) {
		t.Error("session should be valid before expiry")
	}
	if !s.IsExpired(now) {
		t.Error("session should be expired at expiry")
	}
}

func TestValidateLogin(t *testing.T) {
	tests := []struct {
		name      string
		req       LoginRequest
		wantValid bool
	}{
		{"valid", LoginRequest{Username: "admin", Password: "secret"}, true},
		{"missing username", LoginRequest{Username: "  ", Password: "secret"}, false},
		{"missing password", LoginRequest{Username: "admin"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidateLogin(tt.req); got.Valid != tt.wantValid {
				t.Errorf("Valid = %v, want %v (%v)", got.Valid, tt.wantValid, got.Errors)
			}
		})
	}
}

func TestCheckPasswordStrength(t *testing.T) {
	tests := []struct {
		password string
		want     bool
	}{
		{"Sh0rt!", false},
		{"alllower1!", false},
		{"ALLUPPER1!", false},
		{"NoDigits!!", false},
		{"NoSpecial12", false},
		{"Str0ng!Pass", true},
		{"Espaço 12Ab", true},
	}

	for _, tt := range tests {
		t.Run(tt.password, func(t *testing.T) {
			ok, msg := CheckPasswordStrength(tt.password)
			if ok != tt.want {
				t.Errorf("CheckPasswordStrength(%q) = %v (%s), want %v", tt.password, ok, msg, tt.want)
			}
			if !ok && msg == "" {
				t.Error("expected a message for weak password")
			}
		})
	}
}

func TestValidateChangePassword(t *testing.T) {
	tests := []struct {
		name      string
		req       ChangePasswordRequest
		wantField string
	}{
		{"valid", ChangePasswordRequest{"old", "N3w!Passw0rd", "N3w!Passw0rd"}, ""},
		{"missing current", ChangePasswordRequest{"", "N3w!Passw0rd", "N3w!Passw0rd"}, "current_password"},
		{"weak", ChangePasswordRequest{"old", "weakpass", "weakpass"}, "new_password"},
		{"mismatch", ChangePasswordRequest{"old", "N3w!Passw0rd", "N3w!Passw0rD"}, "confirm"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ValidateChangePassword(tt.req)
			if tt.wantField == "" {
				if !got.Valid {
					t.Errorf("expected valid, got %v", got.Errors)
				}
				return
			}
			if _, ok := got.Errors[tt.wantField]; !ok {
				t.Errorf("Errors = %v, want key %q", got.Errors, tt.wantField)
			}
		})
	}
}

func TestValidateCreateStaff(t *testing.T) {
	valid := CreateStaffRequest{
		Username: "front_desk1",
		FullName: "Front Desk",
		Email:    "desk@gym.com",
		Role:     RoleCollaborator,
		Password: "abc123",
		Confirm:  "abc123",
	}

	tests := []struct {
		name      string
		mutate    func(r *CreateStaffRequest)
		wantField string
	}{
		{"valid", func(r *CreateStaffRequest) {}, ""},
		{"bad username", func(r *CreateStaffRequest) { r.Username = "front desk" }, "username"},
		{"missing full name", func(r *CreateStaffRequest) { r.FullName = "" }, "full_name"},
		{"bad email", func(r *CreateStaffRequest) { r.Email = "desk@" }, "email"},
		{"bad role", func(r *CreateStaffRequest) { r.Role = "owner" }, "role"},
		{"short password", func(r *CreateStaffRequest) { r.Password, r.Confirm = "abc", "abc" }, "password"},
		{"mismatch", func(r *CreateStaffRequest) { r.Confirm = "abc124" }, "confirm"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.mutate(&req)
			got := ValidateCreateStaff(req)
			if tt.wantField == "" {
				if !got.Valid {
					t.Errorf("expected valid, got %v", got.Errors)
				}
				return
			}
			if _, ok := got.Errors[tt.wantField]; !ok {
				t.Errorf("Errors = %v, want key %q", got.Errors, tt.wantField)
			}
		})
	}
}

func TestInitialAdmin(t *testing.T) {
	u := InitialAdmin("usr_1", []byte("hash"), now)

	if !u.IsAdmin() || !u.Active || !u.MustResetPassword {
		t.Errorf("InitialAdmin() = %+v", u)
	}
	if u.Username != InitialAdminUsername {
		t.Errorf("Username = %q", u.Username)
	}
}

func TestNewStaff(t *testing.T) {
	u := NewStaff("usr_2", CreateStaffRequest{
		Username: " desk ",
		FullName: "Desk",
		Email:    " Desk@Gym.com ",
		Role:     RoleCollaborator,
	}, []byte("h"), now)

	if u.Username != "desk" || u.Email != "desk@gym.com" {
		t.Errorf("NewStaff() = %+v", u)
	}
	if u.IsAdmin() || u.MustResetPassword || !u.Active {
		t.Errorf("NewStaff() flags = %+v", u)
	}
}

func TestUser_WithLastLogin(t *testing.T) {
	u := User{ID: "u"}.WithLastLogin(now)
	if u.LastLoginAt == nil || !u.LastLoginAt.Equal(now) {
		t.Errorf("LastLoginAt = %v", u.LastLoginAt)
	}
}
