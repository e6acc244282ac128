package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/artpar/gymdesk/domain/auth"
	"github.com/artpar/gymdesk/ports"
	"github.com/rs/zerolog"
)

// InitialPasswordLength is the length of the generated admin password.
const InitialPasswordLength = 16

// StaffDeps contains dependencies for StaffService.
type StaffDeps struct {
	Staff    ports.StaffStore
	Sessions ports.SessionStore
	Hasher   ports.Hasher
	Random   ports.Random
	IDGen    ports.IDGenerator
	Clock    ports.Clock
	Logger   zerolog.Logger
}

// StaffService manages staff accounts.
type StaffService struct {
	staff    ports.StaffStore
	sessions ports.SessionStore
	hasher   ports.Hasher
	random   ports.Random
	idGen    ports.IDGenerator
	clock    ports.Clock
	logger   zerolog.Logger
}

// NewStaffService creates a new staff service.
func NewStaffService(deps StaffDeps) *StaffService {
	return &StaffService{
		staff:    deps.Staff,
		sessions: deps.Sessions,
		hasher:   deps.Hasher,
		random:   deps.Random,
		idGen:    deps.IDGen,
		clock:    deps.Clock,
		logger:   deps.Logger,
	}
}

// List returns all staff accounts.
func (s *StaffService) List(ctx context.Context) ([]auth.User, error) {
	return s.staff.List(ctx)
}

// Get returns one staff account.
func (s *StaffService) Get(ctx context.Context, id string) (auth.User, error) {
	return s.staff.Get(ctx, id)
}

// Create adds a staff account.
func (s *StaffService) Create(ctx context.Context, req auth.CreateStaffRequest) (auth.User, error) {
	if v := auth.ValidateCreateStaff(req); !v.Valid {
		return auth.User{}, validationError(v.Errors)
	}

	user := auth.NewStaff(s.idGen.New(), req, nil, s.clock.Now())

	if _, err := s.staff.GetByUsername(ctx, user.Username); err == nil {
		return auth.User{}, ErrDuplicateUsername
	} else if !errors.Is(err, ports.ErrNotFound) {
		return auth.User{}, fmt.Errorf("check username: %w", err)
	}
	if _, err := s.staff.GetByEmail(ctx, user.Email); err == nil {
		return auth.User{}, ErrDuplicateEmail
	} else if !errors.Is(err, ports.ErrNotFound) {
		return auth.User{}, fmt.Errorf("check email: %w", err)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return auth.User{}, fmt.Errorf("hash password: %w", err)
	}
	user.PasswordHash = hash

	if err := s.staff.Create(ctx, user); err != nil {
		if errors.Is(err, ports.ErrDuplicate) {
			return auth.User{}, ErrDuplicateUsername
		}
		return auth.User{}, fmt.Errorf("create staff: %w", err)
	}

	s.logger.Info().Str("user_id", user.ID).Str("role", string(user.Role)).Msg("staff account created")
	return user, nil
}

// Deactivate disables an account and ends its sessions. An admin cannot
// deactivate themselves. It reports false when already inactive.
func (s *StaffService) Deactivate(ctx context.Context, actorID, id string) (bool, error) {
	if actorID == id {
		return false, ErrSelfDeactivation
	}
	changed, err := s.setActive(ctx, id, false)
	if err != nil || !changed {
		return changed, err
	}
	if err := s.sessions.DeleteByUser(ctx, id); err != nil {
		return true, fmt.Errorf("revoke sessions: %w", err)
	}
	return true, nil
}

// Activate re-enables an account. It reports false when already active.
func (s *StaffService) Activate(ctx context.Context, id string) (bool, error) {
	return s.setActive(ctx, id, true)
}

func (s *StaffService) setActive(ctx context.Context, id string, active bool) (bool, error) {
	user, err := s.staff.Get(ctx, id)
	if err != nil {
		return false, err
	}
	if user.Active == active {
		return false, nil
	}

	user.Active = active
	if err := s.staff.Update(ctx, user); err != nil {
		return false, fmt.Errorf("update staff: %w", err)
	}

	s.logger.Info().Str("user_id", id).Bool("active", active).Msg("staff status changed")
	return true, nil
}

// BootstrapResult is the outcome of BootstrapAdmin.
type BootstrapResult struct {
	Created  bool
	User     auth.User
	Password string // generated password, shown once
}

// BootstrapAdmin creates the initial admin account when no staff exists.
// The account must change its random password on first login.
func (s *StaffService) BootstrapAdmin(ctx context.Context) (BootstrapResult, error) {
	n, err := s.staff.Count(ctx)
	if err != nil {
		return BootstrapResult{}, fmt.Errorf("count staff: %w", err)
	}
	if n > 0 {
		return BootstrapResult{}, nil
	}

	password, err := s.random.String(InitialPasswordLength)
	if err != nil {
		return BootstrapResult{}, fmt.Errorf("generate password: %w", err)
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return BootstrapResult{}, fmt.Errorf("hash password: %w", err)
	}

	user := auth.InitialAdmin(s.idGen.New(), hash, s.clock.Now())
	if err := s.staff.Create(ctx, user); err != nil {
		return BootstrapResult{}, fmt.Errorf("create admin: %w", err)
	}

	s.logger.Warn().Str("username", user.Username).Msg("initial admin created, password must be changed on first login")
	return BootstrapResult{Created: true, User: user, Password: password}, nil
}
