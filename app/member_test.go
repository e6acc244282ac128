package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/artpar/gymdesk/app"
	"github.com/artpar/gymdesk/domain/billing"
	"github.com/artpar/gymdesk/domain/dashboard"
	"github.com/artpar/gymdesk/domain/member"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestMemberService_Register(t *testing.T) {
	f := newFixture(t, 2024, time.April, 15)

	m := f.register(t, "  Ana Souza ", "(81) 98888-7777", "99.90", 10)

	require.Equal(t, "mem_1", m.ID)
	require.Equal(t, "Ana Souza", m.Name)
	require.Equal(t, "81988887777", m.Phone)
	require.True(t, m.Active)
	require.Equal(t, date(2024, time.April, 15), m.EnrolledAt)

	stored, err := f.memberSvc.Get(context.Background(), m.ID)
	require.NoError(t, err)
	require.True(t, stored.MonthlyFee.Equal(decimal.RequireFromString("99.90")))
}

func TestMemberService_RegisterValidation(t *testing.T) {
	f := newFixture(t, 2024, time.April, 15)

	_, err := f.memberSvc.Register(context.Background(), member.Registration{
		Name:       "",
		Phone:      "123",
		MonthlyFee: decimal.RequireFromString("1000.00"),
		DueDay:     32,
	})
	require.ErrorIs(t, err, app.ErrValidation)

	var verr *app.ValidationError
	require.True(t, errors.As(err, &verr))
	require.Contains(t, verr.Fields, "name")
	require.Contains(t, verr.Fields, "phone")
	require.Contains(t, verr.Fields, "monthly_fee")
	require.Contains(t, verr.Fields, "due_day")
}

func TestMemberService_DuplicatePhone(t *testing.T) {
	f := newFixture(t, 2024, time.April, 15)
	ctx := context.Background()

	first := f.register(t, "Ana", "81988887777", "100", 10)

	_, err := f.memberSvc.Register(ctx, member.Registration{
		Name: "Bruno", Phone: "(81) 98888-7777", MonthlyFee: decimal.NewFromInt(80), DueDay: 5,
	})
	require.ErrorIs(t, err, app.ErrDuplicatePhone)

	changed, err := f.memberSvc.Deactivate(ctx, first.ID)
	require.NoError(t, err)
	require.True(t, changed)

	// Inactive members free their phone.
	f.register(t, "Bruno", "81988887777", "80", 5)

	_, err = f.memberSvc.Activate(ctx, first.ID)
	require.ErrorIs(t, err, app.ErrDuplicatePhone)
}

func TestMemberService_SameNameWarning(t *testing.T) {
	f := newFixture(t, 2024, time.April, 15)

	existing := f.register(t, "Ana Souza", "81911112222", "100", 10)

	res, err := f.memberSvc.Register(context.Background(), member.Registration{
		Name: "ana souza", Phone: "81933334444", MonthlyFee: decimal.NewFromInt(100), DueDay: 10,
	})
	require.NoError(t, err)
	require.Len(t, res.SameName, 1)
	require.Equal(t, existing.ID, res.SameName[0].ID)
}

func TestMemberService_Update(t *testing.T) {
	f := newFixture(t, 2024, time.April, 15)
	ctx := context.Background()

	m := f.register(t, "Ana", "81911112222", "100", 10)
	other := f.register(t, "Bruno", "81933334444", "80", 5)

	f.clock.AdvanceDays(30)
	updated, err := f.memberSvc.Update(ctx, m.ID, member.Registration{
		Name: "Ana Maria", Phone: "81955556666", MonthlyFee: decimal.NewFromInt(120), DueDay: 31,
	})
	require.NoError(t, err)
	require.Equal(t, "Ana Maria", updated.Name)
	require.Equal(t, 31, updated.DueDay)
	require.Equal(t, m.EnrolledAt, updated.EnrolledAt)

	_, err = f.memberSvc.Update(ctx, m.ID, member.Registration{
		Name: "Ana Maria", Phone: other.Phone, MonthlyFee: decimal.NewFromInt(120), DueDay: 31,
	})
	require.ErrorIs(t, err, app.ErrDuplicatePhone)

	// Keeping one's own phone is not a duplicate.
	_, err = f.memberSvc.Update(ctx, other.ID, member.Registration{
		Name: "Bruno", Phone: other.Phone, MonthlyFee: decimal.NewFromInt(90), DueDay: 5,
	})
	require.NoError(t, err)

	_, err = f.memberSvc.Update(ctx, "mem_missing", member.Registration{})
	require.True(t, app.IsNotFound(err))
}

func TestMemberService_DeactivateTwice(t *testing.T) {
	f := newFixture(t, 2024, time.April, 15)
	ctx := context.Background()
	m := f.register(t, "Ana", "81911112222", "100", 10)

	changed, err := f.memberSvc.Deactivate(ctx, m.ID)
	require.NoError(t, err)
	require.True(t, changed)

	changed, err = f.memberSvc.Deactivate(ctx, m.ID)
	require.NoError(t, err)
	require.False(t, changed)

	row, err := f.memberSvc.Standing(ctx, m.ID)
	require.NoError(t, err)
	require.Equal(t, billing.StatusInactive, row.Standing.Status)

	changed, err = f.memberSvc.Activate(ctx, m.ID)
	require.NoError(t, err)
	require.True(t, changed)
}

func TestMemberService_StandingWithoutPayments(t *testing.T) {
	f := newFixture(t, 2024, time.January, 15)
	ctx := context.Background()

	m := f.register(t, "Ana", "81911112222", "100.00", 10)

	row, err := f.memberSvc.Standing(ctx, m.ID)
	require.NoError(t, err)
	require.Equal(t, billing.StatusAwaiting, row.Standing.Status)

	f.clock.Set(time.Date(2024, time.April, 10, 9, 0, 0, 0, time.UTC))
	row, err = f.memberSvc.Standing(ctx, m.ID)
	require.NoError(t, err)
	require.Equal(t, billing.StatusAwaiting, row.Standing.Status)
	require.Equal(t, 3, row.Standing.Arrears.Months)
	require.True(t, row.Standing.Arrears.Amount.Equal(decimal.RequireFromString("300.00")))
}

func TestMemberService_StandingAfterPayment(t *testing.T) {
	f := newFixture(t, 2024, time.March, 15)
	ctx := context.Background()

	m := f.register(t, "Ana", "81911112222", "100.00", 10)
	f.pay(t, m.ID, "100.00")

	row, err := f.memberSvc.Standing(ctx, m.ID)
	require.NoError(t, err)
	require.Equal(t, billing.StatusCurrent, row.Standing.Status)
	require.Equal(t, date(2024, time.April, 10), row.Standing.NextDueDate)

	f.clock.Set(time.Date(2024, time.May, 11, 9, 0, 0, 0, time.UTC))
	row, err = f.memberSvc.Standing(ctx, m.ID)
	require.NoError(t, err)
	require.Equal(t, billing.StatusOverdue, row.Standing.Status)
	require.Equal(t, 2, row.Standing.Arrears.Months)
}

func TestMemberService_History(t *testing.T) {
	f := newFixture(t, 2024, time.January, 5)
	ctx := context.Background()

	m := f.register(t, "Ana", "81911112222", "100", 10)
	f.pay(t, m.ID, "100")
	f.clock.AdvanceDays(31)
	second := f.pay(t, m.ID, "100")

	history, err := f.memberSvc.History(ctx, m.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	require.Equal(t, second.ID, history[0].ID)

	_, err = f.memberSvc.History(ctx, "mem_missing")
	require.True(t, app.IsNotFound(err))
}

func TestMemberService_List(t *testing.T) {
	f := newFixture(t, 2024, time.March, 15)
	ctx := context.Background()

	ana := f.register(t, "Ana", "81911112222", "100", 10)
	bruno := f.register(t, "Bruno", "81933334444", "80", 10)
	carla := f.register(t, "Carla", "81955556666", "90", 10)
	f.pay(t, ana.ID, "100")
	_, err := f.memberSvc.Deactivate(ctx, carla.ID)
	require.NoError(t, err)

	all, err := f.memberSvc.List(ctx, app.ListQuery{})
	require.NoError(t, err)
	require.Len(t, all, 2)

	current, err := f.memberSvc.List(ctx, app.ListQuery{Filter: dashboard.FilterCurrent})
	require.NoError(t, err)
	require.Len(t, current, 1)
	require.Equal(t, ana.ID, current[0].Member.ID)

	search, err := f.memberSvc.List(ctx, app.ListQuery{Search: "BRU"})
	require.NoError(t, err)
	require.Len(t, search, 1)
	require.Equal(t, bruno.ID, search[0].Member.ID)

	inactive, err := f.memberSvc.List(ctx, app.ListQuery{Filter: dashboard.FilterInactive})
	require.NoError(t, err)
	require.Len(t, inactive, 1)
	require.Equal(t, carla.ID, inactive[0].Member.ID)
}

func TestMemberService_UpdateLimits(t *testing.T) {
	f := newFixture(t, 2024, time.March, 15)

	f.memberSvc.UpdateLimits(member.Limits{MaxMonthlyFee: decimal.NewFromInt(50)})

	_, err := f.memberSvc.Register(context.Background(), member.Registration{
		Name: "Ana", Phone: "81911112222", MonthlyFee: decimal.NewFromInt(60), DueDay: 10,
	})
	require.ErrorIs(t, err, app.ErrValidation)
}
