package app

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/artpar/gymdesk/domain/billing"
	"github.com/artpar/gymdesk/domain/dashboard"
	"github.com/artpar/gymdesk/domain/member"
	"github.com/artpar/gymdesk/ports"
	"github.com/rs/zerolog"
)

// MemberDeps contains dependencies for MemberService.
type MemberDeps struct {
	Members  ports.MemberStore
	Payments ports.PaymentStore
	IDGen    ports.IDGenerator
	Clock    ports.Clock
	Logger   zerolog.Logger
}

// MemberService registers members and reports their standing.
type MemberService struct {
	members  ports.MemberStore
	payments ports.PaymentStore
	idGen    ports.IDGenerator
	clock    ports.Clock
	logger   zerolog.Logger

	// Dynamic configuration (hot-reloadable)
	limits atomic.Pointer[member.Limits]
}

// NewMemberService creates a new member service.
func NewMemberService(deps MemberDeps, limits member.Limits) *MemberService {
	s := &MemberService{
		members:  deps.Members,
		payments: deps.Payments,
		idGen:    deps.IDGen,
		clock:    deps.Clock,
		logger:   deps.Logger,
	}
	s.UpdateLimits(limits)
	return s
}

// UpdateLimits replaces the registration limits.
// This is thread-safe and can be called while handling requests.
func (s *MemberService) UpdateLimits(limits member.Limits) {
	s.limits.Store(&limits)
}

// Limits returns the registration limits in effect.
func (s *MemberService) Limits() member.Limits {
	return *s.limits.Load()
}

// RegisterResult is the outcome of a registration.
type RegisterResult struct {
	Member billing.Member
	// SameName lists active members already registered under the same name.
	// Registration still succeeds; the caller decides whether to warn.
	SameName []billing.Member
}

// Register validates and stores a new member enrolled today.
func (s *MemberService) Register(ctx context.Context, req member.Registration) (RegisterResult, error) {
	if v := member.ValidateRegistration(req, s.Limits()); !v.Valid {
		return RegisterResult{}, validationError(v.Errors)
	}

	active, err := s.members.ListActive(ctx)
	if err != nil {
		return RegisterResult{}, fmt.Errorf("list members: %w", err)
	}
	if _, dup := member.FindByPhone(active, req.Phone, ""); dup {
		return RegisterResult{}, ErrDuplicatePhone
	}

	now := s.clock.Now()
	m := member.New(s.idGen.New(), req, now, now)
	if err := s.members.Create(ctx, m); err != nil {
		return RegisterResult{}, fmt.Errorf("create member: %w", err)
	}

	s.logger.Info().
		Str("member_id", m.ID).
		Str("fee", m.MonthlyFee.StringFixed(2)).
		Int("due_day", m.DueDay).
		Msg("member registered")

	return RegisterResult{
		Member:   m,
		SameName: member.FindByName(active, m.Name, m.ID),
	}, nil
}

// Update replaces a member's name, phone, fee and due day.
func (s *MemberService) Update(ctx context.Context, id string, req member.Registration) (billing.Member, error) {
	current, err := s.members.Get(ctx, id)
	if err != nil {
		return billing.Member{}, err
	}

	if v := member.ValidateRegistration(req, s.Limits()); !v.Valid {
		return billing.Member{}, validationError(v.Errors)
	}

	active, err := s.members.ListActive(ctx)
	if err != nil {
		return billing.Member{}, fmt.Errorf("list members: %w", err)
	}
	if _, dup := member.FindByPhone(active, req.Phone, id); dup {
		return billing.Member{}, ErrDuplicatePhone
	}

	updated := member.Apply(current, req, s.clock.Now())
	if err := s.members.Update(ctx, updated); err != nil {
		return billing.Member{}, fmt.Errorf("update member: %w", err)
	}

	s.logger.Info().Str("member_id", id).Msg("member updated")
	return updated, nil
}

// Deactivate flags a member inactive. It reports false when the member was
// already inactive.
func (s *MemberService) Deactivate(ctx context.Context, id string) (bool, error) {
	return s.setActive(ctx, id, false)
}

// Activate flags a member active again. It reports false when the member was
// already active.
func (s *MemberService) Activate(ctx context.Context, id string) (bool, error) {
	m, err := s.members.Get(ctx, id)
	if err != nil {
		return false, err
	}
	if m.Active {
		return false, nil
	}

	active, err := s.members.ListActive(ctx)
	if err != nil {
		return false, fmt.Errorf("list members: %w", err)
	}
	if _, dup := member.FindByPhone(active, m.Phone, id); dup {
		return false, ErrDuplicatePhone
	}
	return s.setActive(ctx, id, true)
}

func (s *MemberService) setActive(ctx context.Context, id string, active bool) (bool, error) {
	m, err := s.members.Get(ctx, id)
	if err != nil {
		return false, err
	}
	if m.Active == active {
		return false, nil
	}

	if err := s.members.SetActive(ctx, id, active, s.clock.Now()); err != nil {
		return false, fmt.Errorf("set active: %w", err)
	}

	s.logger.Info().Str("member_id", id).Bool("active", active).Msg("member status changed")
	return true, nil
}

// Get returns a member.
func (s *MemberService) Get(ctx context.Context, id string) (billing.Member, error) {
	return s.members.Get(ctx, id)
}

// ListQuery narrows the member list.
type ListQuery struct {
	Search string
	Filter dashboard.Filter
}

// List returns members with their standing today, filtered by query.
func (s *MemberService) List(ctx context.Context, q ListQuery) ([]dashboard.Row, error) {
	rows, err := loadRows(ctx, s.members, s.payments, s.Today())
	if err != nil {
		return nil, err
	}
	if q.Filter == "" {
		q.Filter = dashboard.FilterAll
	}
	return dashboard.FilterRows(rows, q.Search, q.Filter), nil
}

// Standing evaluates one member today.
func (s *MemberService) Standing(ctx context.Context, id string) (dashboard.Row, error) {
	m, err := s.members.Get(ctx, id)
	if err != nil {
		return dashboard.Row{}, err
	}
	payments, err := s.payments.ListByMember(ctx, id)
	if err != nil {
		return dashboard.Row{}, fmt.Errorf("list payments: %w", err)
	}
	return dashboard.Row{
		Member:   m,
		Standing: billing.Evaluate(m, payments, s.Today()),
	}, nil
}

// History returns a member's payments, latest payment date first.
func (s *MemberService) History(ctx context.Context, id string) ([]billing.Payment, error) {
	if _, err := s.members.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.payments.ListByMember(ctx, id)
}

// Today returns the clock's current calendar date.
func (s *MemberService) Today() time.Time {
	return billing.Date(s.clock.Now())
}

// loadRows evaluates every stored member at ref.
func loadRows(ctx context.Context, members ports.MemberStore, payments ports.PaymentStore, ref time.Time) ([]dashboard.Row, error) {
	list, byMember, err := loadSnapshot(ctx, members, payments)
	if err != nil {
		return nil, err
	}
	return dashboard.BuildRows(list, byMember, ref), nil
}

// loadSnapshot reads every member and every payment keyed by member ID.
func loadSnapshot(ctx context.Context, members ports.MemberStore, payments ports.PaymentStore) ([]billing.Member, map[string][]billing.Payment, error) {
	list, err := members.List(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("list members: %w", err)
	}
	byMember, err := payments.ListAll(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("list payments: %w", err)
	}
	return list, byMember, nil
}

// IsNotFound reports whether err means the entity does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ports.ErrNotFound)
}
