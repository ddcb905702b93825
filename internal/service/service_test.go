package service_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/karnika-s/heart-temp-sub000/internal/model"
	"github.com/karnika-s/heart-temp-sub000/internal/repository/memory"
	"github.com/karnika-s/heart-temp-sub000/internal/service"
)

const course = uint64(5)

var (
	diocese = model.Scope{DioceseID: 1}
	parish  = model.Scope{DioceseID: 1, ParishID: 9}
	admin   = service.Actor{UserID: 1, Admin: true}
)

type outbox struct {
	mu   sync.Mutex
	sent []service.Notification
	fail bool
}

func (o *outbox) Notify(_ context.Context, n service.Notification) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.fail {
		return errors.New("smtp down")
	}
	o.sent = append(o.sent, n)
	return nil
}

func (o *outbox) all() []service.Notification {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]service.Notification(nil), o.sent...)
}

type fixture struct {
	store *memory.Store
	svc   *service.Service
	out   *outbox
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.New()
	out := &outbox{}
	clock := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	svc := service.New(store,
		service.WithNotifier(out),
		service.WithClock(func() time.Time { return clock }),
		service.WithLinkBase("https://ledger.test/"),
	)
	return &fixture{store: store, svc: svc, out: out}
}

func (f *fixture) user(email string) model.User {
	return f.store.AddUser(model.User{Email: email, Role: model.RoleUser, IsActive: true})
}

// scenarioA creates a 100-seat diocese pool and a 30-seat class.
func (f *fixture) scenarioA(t *testing.T) (model.LicensePool, model.Class) {
	t.Helper()
	ctx := context.Background()
	pool, err := f.svc.CreatePool(ctx, course, diocese, 100)
	require.NoError(t, err)
	class, err := f.svc.CreateClass(ctx, service.NewClass{CourseID: course, Scope: diocese, Identifier: "ClassA", Seats: 30})
	require.NoError(t, err)
	return pool, class
}

func (f *fixture) assertBalanced(t *testing.T, poolID uint64) {
	t.Helper()
	sum, err := f.svc.PoolSummary(context.Background(), poolID)
	require.NoError(t, err)
	assert.True(t, sum.Balanced, "available %d + allocated %d != purchased %d",
		sum.Pool.QuantityAvailable, sum.Allocated, sum.Pool.QuantityPurchased)
	for _, c := range sum.Classes {
		assert.LessOrEqual(t, c.LicensesUsed, c.LicensesAvailable, c.Identifier)
	}
}

func TestScenarioA_CreateClassAllocatesFromPool(t *testing.T) {
	f := newFixture(t)
	pool, class := f.scenarioA(t)

	got, err := f.svc.GetPool(context.Background(), pool.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, got.QuantityPurchased)
	assert.Equal(t, 70, got.QuantityAvailable)
	assert.Equal(t, 30, class.LicensesAvailable)
	assert.Equal(t, 0, class.LicensesUsed)
	f.assertBalanced(t, pool.ID)
}

func TestScenarioB_TopUpBeyondPoolChangesNothing(t *testing.T) {
	f := newFixture(t)
	pool, class := f.scenarioA(t)
	ctx := context.Background()

	_, err := f.svc.TopUp(ctx, class.ID, 80)
	assert.ErrorIs(t, err, service.ErrInsufficientSeats)

	got, err := f.svc.GetPool(ctx, pool.ID)
	require.NoError(t, err)
	assert.Equal(t, 70, got.QuantityAvailable)
	d, err := f.svc.GetClass(ctx, class.ID)
	require.NoError(t, err)
	assert.Equal(t, 30, d.LicensesAvailable)

	topped, err := f.svc.TopUp(ctx, class.ID, 70)
	require.NoError(t, err)
	assert.Equal(t, 100, topped.LicensesAvailable)
	got, err = f.svc.GetPool(ctx, pool.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.QuantityAvailable)
	f.assertBalanced(t, pool.ID)
}

func TestScenarioC_AcceptConsumesOneSeat(t *testing.T) {
	f := newFixture(t)
	_, class := f.scenarioA(t)
	ctx := context.Background()
	x := f.user("x@example.org")

	inv, err := f.svc.Invite(ctx, admin, class.ID, x.ID, model.MemberLearner)
	require.NoError(t, err)
	assert.Equal(t, model.InvitationPending, inv.Status)

	accepted, err := f.svc.Accept(ctx, inv.ID, x.ID)
	require.NoError(t, err)
	assert.Equal(t, model.InvitationAccepted, accepted.Status)

	d, err := f.svc.GetClass(ctx, class.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, d.LicensesUsed)
	assert.Equal(t, []uint64{x.ID}, d.Learners)
	assert.Empty(t, d.Facilitators)

	assert.Equal(t, []model.EnrollmentRecord{{
		UserID: x.ID, EntityType: model.EntityNode, EntityID: class.ID, Bundle: model.BundleLearner,
	}}, f.store.Enrollments())

	grants := f.store.Grants()
	require.Len(t, grants, 1)
	assert.Equal(t, course, grants[0].CourseID)
	assert.Equal(t, model.GrantSourceInvitation, grants[0].Source)

	remaining, err := f.svc.RemainingSeats(ctx, class.ID)
	require.NoError(t, err)
	assert.Equal(t, 29, remaining)
}

func TestScenarioD_ReinviteAcceptedIsDuplicate(t *testing.T) {
	f := newFixture(t)
	_, class := f.scenarioA(t)
	ctx := context.Background()
	x := f.user("x@example.org")

	inv, err := f.svc.Invite(ctx, admin, class.ID, x.ID, model.MemberLearner)
	require.NoError(t, err)
	_, err = f.svc.Accept(ctx, inv.ID, x.ID)
	require.NoError(t, err)

	_, err = f.svc.Invite(ctx, admin, class.ID, x.ID, model.MemberLearner)
	assert.ErrorIs(t, err, service.ErrDuplicateInvitation)

	// a pending one is a duplicate too
	y := f.user("y@example.org")
	_, err = f.svc.Invite(ctx, admin, class.ID, y.ID, model.MemberLearner)
	require.NoError(t, err)
	_, err = f.svc.Invite(ctx, admin, class.ID, y.ID, model.MemberLearner)
	assert.ErrorIs(t, err, service.ErrDuplicateInvitation)

	// the same user may hold both roles
	_, err = f.svc.Invite(ctx, admin, class.ID, x.ID, model.MemberFacilitator)
	assert.NoError(t, err)
}

func TestScenarioE_CodeRedeemsOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	y := f.user("y@example.org")
	z := f.user("z@example.org")

	codes, err := f.svc.GenerateCodes(ctx, course, 1)
	require.NoError(t, err)
	require.Len(t, codes, 1)
	assert.Regexp(t, `^[A-Z2-9]{4}-[A-Z2-9]{4}-[A-Z2-9]{4}$`, codes[0].Code)

	ac, err := f.svc.Redeem(ctx, codes[0].Code, y.ID)
	require.NoError(t, err)
	assert.True(t, ac.Consumed)
	require.NotNil(t, ac.ConsumedBy)
	assert.Equal(t, y.ID, *ac.ConsumedBy)

	_, err = f.svc.Redeem(ctx, codes[0].Code, z.ID)
	assert.ErrorIs(t, err, service.ErrAlreadyConsumed)

	grants := f.store.Grants()
	require.Len(t, grants, 1)
	assert.Equal(t, y.ID, grants[0].UserID)
	assert.Equal(t, model.GrantSourceAccessCode, grants[0].Source)

	sent := f.out.all()
	require.Len(t, sent, 1)
	assert.Equal(t, service.TemplateAccessCodeRedeemed, sent[0].Template)
	assert.Equal(t, "y@example.org", sent[0].To)
}

func TestCreatePool(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreatePool(ctx, course, diocese, -1)
	assert.ErrorIs(t, err, service.ErrInvalidQuantity)
	_, err = f.svc.CreatePool(ctx, 0, diocese, 10)
	assert.ErrorIs(t, err, service.ErrInvalidInput)

	empty, err := f.svc.CreatePool(ctx, course, diocese, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, empty.QuantityAvailable)

	_, err = f.svc.CreatePool(ctx, course, diocese, 10)
	assert.ErrorIs(t, err, service.ErrDuplicatePool)

	// a parish pool is its own row, not a child of the diocese pool
	p, err := f.svc.CreatePool(ctx, course, parish, 10)
	require.NoError(t, err)
	assert.NotEqual(t, empty.ID, p.ID)

	found, err := f.svc.Lookup(ctx, course, parish)
	require.NoError(t, err)
	assert.Equal(t, p.ID, found.ID)

	_, err = f.svc.Lookup(ctx, course, model.Scope{DioceseID: 1, ParishID: 77})
	assert.ErrorIs(t, err, service.ErrNotFound)

	all, err := f.svc.ListPools(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)
	none, err := f.svc.ListPools(ctx, 999)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestAllocate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pool, err := f.svc.CreatePool(ctx, course, diocese, 10)
	require.NoError(t, err)

	for _, q := range []int{0, -3} {
		assert.ErrorIs(t, f.svc.Allocate(ctx, pool.ID, q), service.ErrInvalidQuantity)
	}
	assert.ErrorIs(t, f.svc.Allocate(ctx, pool.ID, 11), service.ErrInsufficientSeats)
	require.NoError(t, f.svc.Allocate(ctx, pool.ID, 10))
	assert.ErrorIs(t, f.svc.Allocate(ctx, pool.ID, 1), service.ErrInsufficientSeats)
	assert.ErrorIs(t, f.svc.Allocate(ctx, 404, 1), service.ErrNotFound)

	got, err := f.svc.GetPool(ctx, pool.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.QuantityAvailable)
}

func TestCreateClassValidation(t *testing.T) {
	f := newFixture(t)
	pool, _ := f.scenarioA(t)
	ctx := context.Background()

	tests := map[string]struct {
		req  service.NewClass
		want error
	}{
		"blank identifier":   {service.NewClass{CourseID: course, Scope: diocese, Identifier: "  ", Seats: 1}, service.ErrInvalidInput},
		"zero seats":         {service.NewClass{CourseID: course, Scope: diocese, Identifier: "B", Seats: 0}, service.ErrInvalidQuantity},
		"duplicate":          {service.NewClass{CourseID: course, Scope: diocese, Identifier: "ClassA", Seats: 1}, service.ErrDuplicateClass},
		"no pool for parish": {service.NewClass{CourseID: course, Scope: parish, Identifier: "P", Seats: 1}, service.ErrNotFound},
		"more than pool":     {service.NewClass{CourseID: course, Scope: diocese, Identifier: "Big", Seats: 71}, service.ErrInsufficientSeats},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := f.svc.CreateClass(ctx, tc.req)
			assert.ErrorIs(t, err, tc.want)
		})
	}

	// failed creations leave no class and no allocation behind
	sum, err := f.svc.PoolSummary(ctx, pool.ID)
	require.NoError(t, err)
	assert.Len(t, sum.Classes, 1)
	assert.Equal(t, 70, sum.Pool.QuantityAvailable)
}

func TestTopUpValidation(t *testing.T) {
	f := newFixture(t)
	_, class := f.scenarioA(t)
	ctx := context.Background()

	_, err := f.svc.TopUp(ctx, class.ID, 0)
	assert.ErrorIs(t, err, service.ErrInvalidQuantity)
	_, err = f.svc.TopUp(ctx, 404, 1)
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestNoOversell(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pool, err := f.svc.CreatePool(ctx, course, diocese, 2)
	require.NoError(t, err)
	class, err := f.svc.CreateClass(ctx, service.NewClass{CourseID: course, Scope: diocese, Identifier: "Tiny", Seats: 2})
	require.NoError(t, err)

	var invs []model.Invitation
	var users []model.User
	for i := 0; i < 3; i++ {
		u := f.user(fmt.Sprintf("l%d@example.org", i))
		inv, err := f.svc.Invite(ctx, admin, class.ID, u.ID, model.MemberLearner)
		require.NoError(t, err)
		invs, users = append(invs, inv), append(users, u)
	}
	for i := 0; i < 2; i++ {
		_, err := f.svc.Accept(ctx, invs[i].ID, users[i].ID)
		require.NoError(t, err)
	}
	_, err = f.svc.Accept(ctx, invs[2].ID, users[2].ID)
	assert.ErrorIs(t, err, service.ErrNoSeatsLeft)

	// the failed acceptance rolled back completely
	inv, err := f.svc.GetInvitation(ctx, admin, invs[2].ID)
	require.NoError(t, err)
	assert.Equal(t, model.InvitationPending, inv.Status)
	d, err := f.svc.GetClass(ctx, class.ID)
	require.NoError(t, err)
	assert.Len(t, d.Learners, 2)
	assert.Len(t, f.store.Enrollments(), 2)

	// facilitators do not need a seat
	fac := f.user("fac@example.org")
	finv, err := f.svc.Invite(ctx, admin, class.ID, fac.ID, model.MemberFacilitator)
	require.NoError(t, err)
	_, err = f.svc.Accept(ctx, finv.ID, fac.ID)
	require.NoError(t, err)
	d, err = f.svc.GetClass(ctx, class.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, d.LicensesUsed)
	assert.Equal(t, []uint64{fac.ID}, d.Facilitators)
	f.assertBalanced(t, pool.ID)
}

func TestAcceptRules(t *testing.T) {
	f := newFixture(t)
	_, class := f.scenarioA(t)
	ctx := context.Background()
	x := f.user("x@example.org")
	other := f.user("other@example.org")

	inv, err := f.svc.Invite(ctx, admin, class.ID, x.ID, model.MemberLearner)
	require.NoError(t, err)

	_, err = f.svc.Accept(ctx, inv.ID, other.ID)
	assert.ErrorIs(t, err, service.ErrForbidden)
	_, err = f.svc.Accept(ctx, 404, x.ID)
	assert.ErrorIs(t, err, service.ErrNotFound)

	_, err = f.svc.Accept(ctx, inv.ID, x.ID)
	require.NoError(t, err)
	_, err = f.svc.Accept(ctx, inv.ID, x.ID)
	assert.ErrorIs(t, err, service.ErrAlreadyAccepted)
	_, err = f.svc.Reject(ctx, inv.ID, x.ID)
	assert.ErrorIs(t, err, service.ErrAlreadyAccepted)

	d, err := f.svc.GetClass(ctx, class.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, d.LicensesUsed)
}

func TestTokenFlow(t *testing.T) {
	f := newFixture(t)
	_, class := f.scenarioA(t)
	ctx := context.Background()
	x := f.user("x@example.org")
	y := f.user("y@example.org")

	invX, err := f.svc.Invite(ctx, admin, class.ID, x.ID, model.MemberLearner)
	require.NoError(t, err)
	invY, err := f.svc.Invite(ctx, admin, class.ID, y.ID, model.MemberLearner)
	require.NoError(t, err)
	require.NotEqual(t, invX.Token, invY.Token)

	sent := f.out.all()
	require.Len(t, sent, 2)
	assert.Equal(t, service.TemplateInvitation, sent[0].Template)
	assert.Equal(t, "x@example.org", sent[0].To)
	assert.Equal(t, "https://ledger.test/invitations/"+invX.Token+"/accept", sent[0].Vars["accept_link"])
	assert.Equal(t, "ClassA", sent[0].Vars["class"])

	_, err = f.svc.AcceptByToken(ctx, invX.Token, y.ID)
	assert.ErrorIs(t, err, service.ErrForbidden)
	got, err := f.svc.AcceptByToken(ctx, invX.Token, x.ID)
	require.NoError(t, err)
	assert.Equal(t, model.InvitationAccepted, got.Status)

	got, err = f.svc.RejectByToken(ctx, invY.Token, y.ID)
	require.NoError(t, err)
	assert.Equal(t, model.InvitationRejected, got.Status)

	_, err = f.svc.AcceptByToken(ctx, "no-such-token", x.ID)
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestRejectThenResend(t *testing.T) {
	f := newFixture(t)
	_, class := f.scenarioA(t)
	ctx := context.Background()
	x := f.user("x@example.org")

	inv, err := f.svc.Invite(ctx, admin, class.ID, x.ID, model.MemberLearner)
	require.NoError(t, err)
	_, err = f.svc.Reject(ctx, inv.ID, x.ID)
	require.NoError(t, err)

	_, err = f.svc.Reject(ctx, inv.ID, x.ID)
	assert.ErrorIs(t, err, service.ErrInvalidState)
	_, err = f.svc.Accept(ctx, inv.ID, x.ID)
	assert.ErrorIs(t, err, service.ErrInvalidState)

	resent, err := f.svc.Resend(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, model.InvitationPending, resent.Status)
	assert.NotEqual(t, inv.Token, resent.Token)
	assert.Len(t, f.out.all(), 2)

	_, err = f.svc.Accept(ctx, inv.ID, x.ID)
	require.NoError(t, err)
}

func TestReinviteAfterRejectReusesRow(t *testing.T) {
	f := newFixture(t)
	_, class := f.scenarioA(t)
	ctx := context.Background()
	x := f.user("x@example.org")

	inv, err := f.svc.Invite(ctx, admin, class.ID, x.ID, model.MemberLearner)
	require.NoError(t, err)
	_, err = f.svc.Reject(ctx, inv.ID, x.ID)
	require.NoError(t, err)

	again, err := f.svc.Invite(ctx, admin, class.ID, x.ID, model.MemberLearner)
	require.NoError(t, err)
	assert.Equal(t, inv.ID, again.ID)
	assert.Equal(t, model.InvitationPending, again.Status)

	list, err := f.svc.ListInvitations(ctx, admin, class.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestResendAcceptedDoesNotConsumeTwice(t *testing.T) {
	f := newFixture(t)
	_, class := f.scenarioA(t)
	ctx := context.Background()
	x := f.user("x@example.org")

	inv, err := f.svc.Invite(ctx, admin, class.ID, x.ID, model.MemberLearner)
	require.NoError(t, err)
	_, err = f.svc.Accept(ctx, inv.ID, x.ID)
	require.NoError(t, err)
	_, err = f.svc.Resend(ctx, inv.ID)
	require.NoError(t, err)
	_, err = f.svc.Accept(ctx, inv.ID, x.ID)
	require.NoError(t, err)

	d, err := f.svc.GetClass(ctx, class.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, d.LicensesUsed)
	assert.Equal(t, []uint64{x.ID}, d.Learners)
	assert.Len(t, f.store.Enrollments(), 1)
	assert.Len(t, f.store.Grants(), 1)
}

func TestCancel(t *testing.T) {
	f := newFixture(t)
	_, class := f.scenarioA(t)
	ctx := context.Background()
	x := f.user("x@example.org")

	inv, err := f.svc.Invite(ctx, admin, class.ID, x.ID, model.MemberLearner)
	require.NoError(t, err)
	_, err = f.svc.Accept(ctx, inv.ID, x.ID)
	require.NoError(t, err)

	require.NoError(t, f.svc.Cancel(ctx, inv.ID))
	assert.ErrorIs(t, f.svc.Cancel(ctx, inv.ID), service.ErrNotFound)

	d, err := f.svc.GetClass(ctx, class.ID)
	require.NoError(t, err)
	assert.Empty(t, d.Learners)
	assert.Equal(t, 1, d.LicensesUsed, "seats are never returned")
	assert.Empty(t, f.store.Enrollments())

	// the tuple is free again
	_, err = f.svc.Invite(ctx, admin, class.ID, x.ID, model.MemberLearner)
	assert.NoError(t, err)
}

func TestCancelAfterResendRemovesMembership(t *testing.T) {
	for _, rejectFirst := range []bool{false, true} {
		name := "resend then cancel"
		if rejectFirst {
			name = "resend, reject then cancel"
		}
		t.Run(name, func(t *testing.T) {
			f := newFixture(t)
			_, class := f.scenarioA(t)
			ctx := context.Background()
			x := f.user("x@example.org")

			inv, err := f.svc.Invite(ctx, admin, class.ID, x.ID, model.MemberLearner)
			require.NoError(t, err)
			_, err = f.svc.Accept(ctx, inv.ID, x.ID)
			require.NoError(t, err)
			inv, err = f.svc.Resend(ctx, inv.ID)
			require.NoError(t, err)
			require.Equal(t, model.InvitationPending, inv.Status)
			if rejectFirst {
				_, err = f.svc.Reject(ctx, inv.ID, x.ID)
				require.NoError(t, err)
			}

			require.NoError(t, f.svc.Cancel(ctx, inv.ID))

			d, err := f.svc.GetClass(ctx, class.ID)
			require.NoError(t, err)
			assert.Empty(t, d.Learners)
			assert.Equal(t, 1, d.LicensesUsed)
			assert.Empty(t, f.store.Enrollments())
		})
	}
}

func TestCancelPendingLeavesOtherMembers(t *testing.T) {
	f := newFixture(t)
	_, class := f.scenarioA(t)
	ctx := context.Background()
	x := f.user("x@example.org")

	learner, err := f.svc.Invite(ctx, admin, class.ID, x.ID, model.MemberLearner)
	require.NoError(t, err)
	_, err = f.svc.Accept(ctx, learner.ID, x.ID)
	require.NoError(t, err)
	fac, err := f.svc.Invite(ctx, admin, class.ID, x.ID, model.MemberFacilitator)
	require.NoError(t, err)

	require.NoError(t, f.svc.Cancel(ctx, fac.ID))

	d, err := f.svc.GetClass(ctx, class.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint64{x.ID}, d.Learners)
	assert.Len(t, f.store.Enrollments(), 1)
}

func TestDropMember(t *testing.T) {
	f := newFixture(t)
	_, class := f.scenarioA(t)
	ctx := context.Background()
	x := f.user("x@example.org")

	inv, err := f.svc.Invite(ctx, admin, class.ID, x.ID, model.MemberLearner)
	require.NoError(t, err)
	_, err = f.svc.Accept(ctx, inv.ID, x.ID)
	require.NoError(t, err)

	assert.ErrorIs(t, f.svc.DropMember(ctx, class.ID, x.ID, "auditor"), service.ErrInvalidInput)
	assert.ErrorIs(t, f.svc.DropMember(ctx, class.ID, x.ID, model.MemberFacilitator), service.ErrNotFound)
	require.NoError(t, f.svc.DropMember(ctx, class.ID, x.ID, model.MemberLearner))
	assert.ErrorIs(t, f.svc.DropMember(ctx, class.ID, x.ID, model.MemberLearner), service.ErrNotFound)

	d, err := f.svc.GetClass(ctx, class.ID)
	require.NoError(t, err)
	assert.Empty(t, d.Learners)
	assert.Equal(t, 1, d.LicensesUsed)
	assert.Equal(t, 29, d.Remaining())
	assert.Empty(t, f.store.Enrollments())
}

func TestInviteAuthorization(t *testing.T) {
	f := newFixture(t)
	_, class := f.scenarioA(t)
	ctx := context.Background()
	fac := f.user("fac@example.org")
	stranger := f.user("stranger@example.org")
	x := f.user("x@example.org")

	_, err := f.svc.Invite(ctx, service.Actor{UserID: stranger.ID}, class.ID, x.ID, model.MemberLearner)
	assert.ErrorIs(t, err, service.ErrForbidden)

	finv, err := f.svc.Invite(ctx, admin, class.ID, fac.ID, model.MemberFacilitator)
	require.NoError(t, err)
	_, err = f.svc.Accept(ctx, finv.ID, fac.ID)
	require.NoError(t, err)

	facilitator := service.Actor{UserID: fac.ID}
	inv, err := f.svc.Invite(ctx, facilitator, class.ID, x.ID, model.MemberLearner)
	require.NoError(t, err)
	assert.Equal(t, fac.ID, inv.InvitedBy)

	_, err = f.svc.ListInvitations(ctx, facilitator, class.ID)
	assert.NoError(t, err)
	_, err = f.svc.ListInvitations(ctx, service.Actor{UserID: stranger.ID}, class.ID)
	assert.ErrorIs(t, err, service.ErrForbidden)

	// the invitee may read their own invitation
	_, err = f.svc.GetInvitation(ctx, service.Actor{UserID: x.ID}, inv.ID)
	assert.NoError(t, err)
	_, err = f.svc.GetInvitation(ctx, service.Actor{UserID: stranger.ID}, inv.ID)
	assert.ErrorIs(t, err, service.ErrForbidden)
}

func TestInviteValidation(t *testing.T) {
	f := newFixture(t)
	_, class := f.scenarioA(t)
	ctx := context.Background()
	x := f.user("x@example.org")
	off := f.store.AddUser(model.User{Email: "off@example.org", Role: model.RoleUser})

	_, err := f.svc.Invite(ctx, admin, class.ID, x.ID, "observer")
	assert.ErrorIs(t, err, service.ErrInvalidInput)
	_, err = f.svc.Invite(ctx, admin, 404, x.ID, model.MemberLearner)
	assert.ErrorIs(t, err, service.ErrNotFound)
	_, err = f.svc.Invite(ctx, admin, class.ID, 404, model.MemberLearner)
	assert.ErrorIs(t, err, service.ErrNotFound)
	_, err = f.svc.Invite(ctx, admin, class.ID, off.ID, model.MemberLearner)
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}

func TestNotificationFailureKeepsResult(t *testing.T) {
	f := newFixture(t)
	_, class := f.scenarioA(t)
	ctx := context.Background()
	x := f.user("x@example.org")
	f.out.fail = true

	inv, err := f.svc.Invite(ctx, admin, class.ID, x.ID, model.MemberLearner)
	require.Error(t, err)
	assert.ErrorIs(t, err, service.ErrNotificationFailed)
	assert.True(t, service.IsWarning(err))
	assert.NotZero(t, inv.ID)

	// the invitation was committed anyway
	_, err = f.svc.Accept(ctx, inv.ID, x.ID)
	assert.NoError(t, err)
}

func TestCodes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	y := f.user("y@example.org")

	for _, n := range []int{0, -1, service.MaxCodesPerBatch + 1} {
		_, err := f.svc.GenerateCodes(ctx, course, n)
		assert.ErrorIs(t, err, service.ErrInvalidQuantity, n)
	}

	imported, err := f.svc.ImportCodes(ctx, course, []string{" abcd-0001 ", "ABCD-0002", ""})
	require.NoError(t, err)
	require.Len(t, imported, 2)
	assert.Equal(t, "ABCD-0001", imported[0].Code)

	_, err = f.svc.ImportCodes(ctx, course, []string{"X-1", "x-1"})
	assert.ErrorIs(t, err, service.ErrInvalidInput)
	_, err = f.svc.ImportCodes(ctx, course, []string{"NEW-1", "ABCD-0001"})
	assert.ErrorIs(t, err, service.ErrDuplicateCode)
	_, err = f.svc.ImportCodes(ctx, course, nil)
	assert.ErrorIs(t, err, service.ErrInvalidQuantity)

	list, err := f.svc.ListCodes(ctx, course)
	require.NoError(t, err)
	assert.Len(t, list, 2, "a rejected batch stores nothing")

	_, err = f.svc.Redeem(ctx, "abcd-0002", y.ID)
	require.NoError(t, err)
	_, err = f.svc.Redeem(ctx, "NOPE", y.ID)
	assert.ErrorIs(t, err, service.ErrInvalidCode)
	_, err = f.svc.Redeem(ctx, "   ", y.ID)
	assert.ErrorIs(t, err, service.ErrInvalidCode)
}

func TestGenerateCodesRetriesCollisions(t *testing.T) {
	store := memory.New()
	seq := []string{"SAME", "SAME", "SAME", "OTHER"}
	i := 0
	svc := service.New(store, service.WithCodeGenerator(func() (string, error) {
		c := seq[i%len(seq)]
		i++
		return c, nil
	}))

	codes, err := svc.GenerateCodes(context.Background(), course, 2)
	require.NoError(t, err)
	assert.Equal(t, "SAME", codes[0].Code)
	assert.Equal(t, "OTHER", codes[1].Code)
}

func TestParseCodeList(t *testing.T) {
	codes, err := service.ParseCodeList(stringsReader("\ufeffCode\nAAAA-1,extra\n\n bbbb-2\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"AAAA-1", "bbbb-2"}, codes)
}

func TestObserver(t *testing.T) {
	var mu sync.Mutex
	seen := map[string][]string{}
	obs := observerFunc(func(op string, _ time.Duration, err error) {
		mu.Lock()
		defer mu.Unlock()
		seen[op] = append(seen[op], service.Kind(err))
	})
	svc := service.New(memory.New(), service.WithObserver(obs))
	ctx := context.Background()

	_, err := svc.CreatePool(ctx, course, diocese, 1)
	require.NoError(t, err)
	_, err = svc.CreatePool(ctx, course, diocese, 1)
	require.Error(t, err)

	assert.Equal(t, []string{"ok", "duplicate_pool"}, seen["create_pool"])
}

type observerFunc func(string, time.Duration, error)

func (f observerFunc) ObserveOperation(op string, took time.Duration, err error) { f(op, took, err) }
