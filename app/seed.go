package app

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/artpar/gymdesk/domain/billing"
	"github.com/artpar/gymdesk/domain/member"
	"github.com/artpar/gymdesk/ports"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// SampleMemberCount is the number of random members created by Seed.
const SampleMemberCount = 48

var (
	seedFirstNames = []string{
		"Ana", "Bruno", "Carla", "Diego", "Eduarda", "Felipe", "Gabriela", "Heitor",
		"Isabela", "João", "Larissa", "Marcos", "Natália", "Otávio", "Paula", "Rafael",
		"Sofia", "Thiago", "Vitória", "William",
	}
	seedLastNames = []string{
		"Almeida", "Barbosa", "Cardoso", "Dias", "Esteves", "Ferreira", "Gomes",
		"Lima", "Moreira", "Nunes", "Oliveira", "Pereira", "Ribeiro", "Santos",
		"Teixeira", "Vieira",
	}
)

// SeedDeps contains dependencies for Seeder.
type SeedDeps struct {
	Members    ports.MemberStore
	Payments   ports.PaymentStore
	MemberIDs  ports.IDGenerator
	PaymentIDs ports.IDGenerator
	Clock      ports.Clock
	Logger     zerolog.Logger
}

// Seeder fills an empty database with sample members and payments.
type Seeder struct {
	members    ports.MemberStore
	payments   ports.PaymentStore
	memberIDs  ports.IDGenerator
	paymentIDs ports.IDGenerator
	clock      ports.Clock
	logger     zerolog.Logger
}

// NewSeeder creates a new seeder.
func NewSeeder(deps SeedDeps) *Seeder {
	return &Seeder{
		members:    deps.Members,
		payments:   deps.Payments,
		memberIDs:  deps.MemberIDs,
		paymentIDs: deps.PaymentIDs,
		clock:      deps.Clock,
		logger:     deps.Logger,
	}
}

// SeedResult reports what Seed created.
type SeedResult struct {
	Skipped  bool
	Members  int
	Payments int
}

// Seed creates sample data when no member exists. The same seed and clock
// produce the same data.
//
// Each random member is enrolled 1 to 12 months ago with a fee between
// 70.00 and 150.00 and a due day between 1 and 28, and has paid a random
// subset of this year's months before the current one. Two more members
// have never paid and fall due in the next few days.
func (s *Seeder) Seed(ctx context.Context, seed uint64) (SeedResult, error) {
	n, err := s.members.Count(ctx)
	if err != nil {
		return SeedResult{}, fmt.Errorf("count members: %w", err)
	}
	if n > 0 {
		return SeedResult{Skipped: true}, nil
	}

	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	now := s.clock.Now()
	today := billing.Date(now)
	phones := make(map[string]bool)

	var result SeedResult
	for i := 0; i < SampleMemberCount; i++ {
		req := member.Registration{
			Name:       seedFirstNames[rng.IntN(len(seedFirstNames))] + " " + seedLastNames[rng.IntN(len(seedLastNames))],
			Phone:      uniquePhone(rng, phones),
			MonthlyFee: decimal.NewFromInt(int64(7000 + rng.IntN(8001))).Shift(-2),
			DueDay:     1 + rng.IntN(28),
		}
		enrolled := today.AddDate(0, -(1 + rng.IntN(12)), 0)

		m := member.New(s.memberIDs.New(), req, enrolled, now)
		if err := s.members.Create(ctx, m); err != nil {
			return result, fmt.Errorf("create member: %w", err)
		}
		result.Members++

		paid, err := s.seedPayments(ctx, rng, m, today, now)
		result.Payments += paid
		if err != nil {
			return result, err
		}
	}

	due := today.Day() + 1
	if due > 28 {
		due = 1
	}
	awaiting := []struct {
		req    member.Registration
		months int
	}{
		{member.Registration{Name: "Awaiting Member 1", Phone: "81999991000", MonthlyFee: decimal.NewFromInt(95), DueDay: due}, 3},
		{member.Registration{Name: "Awaiting Member 2", Phone: "81999992000", MonthlyFee: decimal.NewFromInt(105), DueDay: due + 2}, 1},
	}
	for _, a := range awaiting {
		m := member.New(s.memberIDs.New(), a.req, today.AddDate(0, -a.months, 0), now)
		if err := s.members.Create(ctx, m); err != nil {
			return result, fmt.Errorf("create member: %w", err)
		}
		result.Members++
	}

	s.logger.Info().Int("members", result.Members).Int("payments", result.Payments).Msg("sample data created")
	return result, nil
}

// seedPayments pays a random subset of this year's months up to and
// including the current one, skipping the current month itself.
func (s *Seeder) seedPayments(ctx context.Context, rng *rand.Rand, m billing.Member, today, now time.Time) (int, error) {
	months := rng.Perm(int(today.Month()))
	months = months[:rng.IntN(len(months)+1)]

	created := 0
	for _, idx := range months {
		month := time.Month(idx + 1)
		if month == today.Month() {
			continue
		}
		p := billing.Payment{
			ID:        s.paymentIDs.New(),
			MemberID:  m.ID,
			PaidAt:    time.Date(today.Year(), month, 1+rng.IntN(28), 0, 0, 0, 0, time.UTC),
			Amount:    m.MonthlyFee,
			Period:    billing.Period{Year: today.Year(), Month: month},
			CreatedAt: now,
		}
		if err := s.payments.Create(ctx, p); err != nil {
			return created, fmt.Errorf("create payment: %w", err)
		}
		created++
	}
	return created, nil
}

// uniquePhone draws a mobile number not yet in used.
func uniquePhone(rng *rand.Rand, used map[string]bool) string {
	for {
		phone := fmt.Sprintf("%02d9%04d%04d", 11+rng.IntN(89), 1000+rng.IntN(9000), 1000+rng.IntN(9000))
		if !used[phone] && phone != "81999991000" && phone != "81999992000" {
			used[phone] = true
			return phone
		}
	}
}
