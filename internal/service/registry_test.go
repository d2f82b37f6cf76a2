package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/beta-access-portal/internal/locale"
	"github.com/iliyamo/beta-access-portal/internal/model"
	"github.com/iliyamo/beta-access-portal/internal/queue"
	"github.com/iliyamo/beta-access-portal/internal/repository"
)

func newTestRegistry(t *testing.T) (*Registry, *fakeRequests, *fakeNotices, *fakePublisher, *frozenClock) {
	t.Helper()
	requests := newFakeRequests()
	notices := newFakeNotices()
	pub := &fakePublisher{}
	clock := &frozenClock{base: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	r := NewRegistry(requests, notices, pub, locale.Russian{}, 30)
	r.now = clock.now
	return r, requests, notices, pub, clock
}

func testAccount() model.Account {
	return model.Account{
		ID:        7,
		Email:     "user@example.com",
		FirstName: "Анна",
		LastName:  "Иванова",
	}
}

func betaInput() SubmitInput {
	return SubmitInput{Reason: "Хочу протестировать браузер"}
}

func teamInput() SubmitInput {
	return SubmitInput{
		Role:            "Go developer",
		YearsExperience: 5,
		Skills:          "Go, MySQL",
		Motivation:      "Интересный проект",
	}
}

func TestSubmitCreatesPendingRequest(t *testing.T) {
	r, _, notices, pub, _ := newTestRegistry(t)
	ctx := context.Background()

	req, err := r.Submit(ctx, model.VariantBeta, testAccount(), betaInput())
	require.NoError(t, err)

	assert.Equal(t, model.StatusPending, req.Status)
	assert.Equal(t, uint64(7), req.AccountID)
	assert.Equal(t, "user@example.com", req.Email)
	assert.Nil(t, req.ProcessedAt)

	// Submission produces one confirmation notice and one relay event.
	ns, _ := notices.ListByAccount(ctx, 7)
	require.Len(t, ns, 1)
	assert.Equal(t, model.NoticeSuccess, ns[0].Kind)
	require.NotNil(t, ns[0].LinkedRequestID)
	assert.Equal(t, req.ID, *ns[0].LinkedRequestID)

	require.Len(t, pub.events, 1)
	assert.Equal(t, queue.KindRequestSubmitted, pub.events[0].Kind)
	assert.Equal(t, "beta", pub.events[0].Variant)
	assert.NotEmpty(t, pub.events[0].EventID)
}

func TestSubmitRejectsMissingFields(t *testing.T) {
	r, _, _, pub, _ := newTestRegistry(t)
	ctx := context.Background()

	_, err := r.Submit(ctx, model.VariantBeta, testAccount(), SubmitInput{Reason: "   "})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)

	in := teamInput()
	in.Motivation = ""
	_, err = r.Submit(ctx, model.VariantTeam, testAccount(), in)
	require.ErrorAs(t, err, &verr)

	in = teamInput()
	in.YearsExperience = -1
	_, err = r.Submit(ctx, model.VariantTeam, testAccount(), in)
	require.ErrorAs(t, err, &verr)

	assert.Empty(t, pub.events)
}

func TestSubmitCooldownBlocksResubmission(t *testing.T) {
	r, _, _, _, clock := newTestRegistry(t)
	ctx := context.Background()
	acct := testAccount()

	_, err := r.Submit(ctx, model.VariantBeta, acct, betaInput())
	require.NoError(t, err)

	// An immediate retry is blocked for the full window.
	_, err = r.Submit(ctx, model.VariantBeta, acct, betaInput())
	var cerr *CooldownError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, 30, cerr.DaysRemaining)
	assert.Equal(t, "Повторная заявка будет доступна через 30 дней", cerr.Message)

	// Partway through the window the remaining days shrink.
	clock.offset = 29 * 24 * time.Hour
	_, err = r.Submit(ctx, model.VariantBeta, acct, betaInput())
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, 1, cerr.DaysRemaining)
	assert.Equal(t, "Повторная заявка будет доступна через 1 день", cerr.Message)

	// Once the window has fully elapsed a new request goes through.
	clock.offset = 30 * 24 * time.Hour
	_, err = r.Submit(ctx, model.VariantBeta, acct, betaInput())
	require.NoError(t, err)
}

func TestSubmitCooldownIsPerVariant(t *testing.T) {
	r, _, _, _, _ := newTestRegistry(t)
	ctx := context.Background()
	acct := testAccount()

	_, err := r.Submit(ctx, model.VariantBeta, acct, betaInput())
	require.NoError(t, err)

	// A beta request does not block a team request.
	_, err = r.Submit(ctx, model.VariantTeam, acct, teamInput())
	require.NoError(t, err)
}

func TestSubmitCooldownAppliesAfterRejection(t *testing.T) {
	r, _, _, _, _ := newTestRegistry(t)
	ctx := context.Background()
	acct := testAccount()

	req, err := r.Submit(ctx, model.VariantBeta, acct, betaInput())
	require.NoError(t, err)
	_, err = r.SetStatus(ctx, model.VariantBeta, req.ID, model.StatusRejected, nil)
	require.NoError(t, err)

	// The window runs from creation regardless of the decision.
	_, err = r.Submit(ctx, model.VariantBeta, acct, betaInput())
	var cerr *CooldownError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, 30, cerr.DaysRemaining)
}

func TestCooldownStatusAgreesWithSubmit(t *testing.T) {
	r, _, _, _, clock := newTestRegistry(t)
	ctx := context.Background()
	acct := testAccount()

	cd, err := r.CooldownStatus(ctx, model.VariantBeta, acct.ID)
	require.NoError(t, err)
	assert.True(t, cd.CanSubmit)
	assert.Zero(t, cd.DaysRemaining)

	_, err = r.Submit(ctx, model.VariantBeta, acct, betaInput())
	require.NoError(t, err)

	clock.offset = 10 * 24 * time.Hour
	cd, err = r.CooldownStatus(ctx, model.VariantBeta, acct.ID)
	require.NoError(t, err)
	assert.False(t, cd.CanSubmit)
	assert.Equal(t, 20, cd.DaysRemaining)

	clock.offset = 30 * 24 * time.Hour
	cd, err = r.CooldownStatus(ctx, model.VariantBeta, acct.ID)
	require.NoError(t, err)
	assert.True(t, cd.CanSubmit)
}

func TestSetStatusApprovesAndNotifies(t *testing.T) {
	r, requests, notices, pub, clock := newTestRegistry(t)
	ctx := context.Background()

	req, err := r.Submit(ctx, model.VariantTeam, testAccount(), teamInput())
	require.NoError(t, err)

	clock.offset = 2 * time.Hour
	comment := "Добро пожаловать в команду"
	updated, err := r.SetStatus(ctx, model.VariantTeam, req.ID, model.StatusApproved, &comment)
	require.NoError(t, err)

	assert.Equal(t, model.StatusApproved, updated.Status)
	require.NotNil(t, updated.OperatorComment)
	assert.Equal(t, comment, *updated.OperatorComment)
	require.NotNil(t, updated.ProcessedAt)
	assert.Equal(t, clock.now(), *updated.ProcessedAt)

	stored, err := requests.GetByID(ctx, model.VariantTeam, req.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusApproved, stored.Status)

	ns, _ := notices.ListByAccount(ctx, 7)
	require.Len(t, ns, 2) // submission + decision, newest first
	assert.Equal(t, model.NoticeSuccess, ns[0].Kind)

	require.Len(t, pub.events, 2)
	decided := pub.events[1]
	assert.Equal(t, queue.KindRequestDecided, decided.Kind)
	assert.Equal(t, "approved", decided.Status)
	require.NotNil(t, decided.Comment)
	assert.Equal(t, comment, *decided.Comment)
}

func TestSetStatusKeepsCommentWhenOmitted(t *testing.T) {
	r, _, _, _, _ := newTestRegistry(t)
	ctx := context.Background()

	req, err := r.Submit(ctx, model.VariantBeta, testAccount(), betaInput())
	require.NoError(t, err)

	comment := "первый комментарий"
	_, err = r.SetStatus(ctx, model.VariantBeta, req.ID, model.StatusPending, &comment)
	require.NoError(t, err)

	// A nil comment leaves the stored one untouched.
	updated, err := r.SetStatus(ctx, model.VariantBeta, req.ID, model.StatusRejected, nil)
	require.NoError(t, err)
	require.NotNil(t, updated.OperatorComment)
	assert.Equal(t, comment, *updated.OperatorComment)
}

func TestSetStatusRefusesLeavingTerminalState(t *testing.T) {
	r, _, notices, pub, _ := newTestRegistry(t)
	ctx := context.Background()

	req, err := r.Submit(ctx, model.VariantBeta, testAccount(), betaInput())
	require.NoError(t, err)
	_, err = r.SetStatus(ctx, model.VariantBeta, req.ID, model.StatusApproved, nil)
	require.NoError(t, err)

	noticesBefore := len(notices.notices)
	eventsBefore := len(pub.events)

	_, err = r.SetStatus(ctx, model.VariantBeta, req.ID, model.StatusRejected, nil)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)

	// A refused transition leaves no trace.
	assert.Len(t, notices.notices, noticesBefore)
	assert.Len(t, pub.events, eventsBefore)
}

func TestSetStatusUnknownRequest(t *testing.T) {
	r, _, notices, pub, _ := newTestRegistry(t)
	ctx := context.Background()

	_, err := r.SetStatus(ctx, model.VariantBeta, 999, model.StatusApproved, nil)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.Empty(t, notices.notices)
	assert.Empty(t, pub.events)
}

func TestCommentKeepsStatus(t *testing.T) {
	r, _, _, _, _ := newTestRegistry(t)
	ctx := context.Background()

	req, err := r.Submit(ctx, model.VariantBeta, testAccount(), betaInput())
	require.NoError(t, err)
	_, err = r.SetStatus(ctx, model.VariantBeta, req.ID, model.StatusApproved, nil)
	require.NoError(t, err)

	// Commenting a decided request annotates it without reopening it.
	updated, err := r.Comment(ctx, model.VariantBeta, req.ID, "уточнение по срокам")
	require.NoError(t, err)
	assert.Equal(t, model.StatusApproved, updated.Status)
	require.NotNil(t, updated.OperatorComment)
	assert.Equal(t, "уточнение по срокам", *updated.OperatorComment)
}

func TestRemoveDeletesRequest(t *testing.T) {
	r, _, _, _, _ := newTestRegistry(t)
	ctx := context.Background()

	req, err := r.Submit(ctx, model.VariantBeta, testAccount(), betaInput())
	require.NoError(t, err)

	require.NoError(t, r.Remove(ctx, model.VariantBeta, req.ID))
	assert.ErrorIs(t, r.Remove(ctx, model.VariantBeta, req.ID), repository.ErrNotFound)
}

func TestListForAccountCoversBothVariants(t *testing.T) {
	r, _, _, _, clock := newTestRegistry(t)
	ctx := context.Background()
	acct := testAccount()

	_, err := r.Submit(ctx, model.VariantBeta, acct, betaInput())
	require.NoError(t, err)
	clock.offset = time.Hour
	_, err = r.Submit(ctx, model.VariantTeam, acct, teamInput())
	require.NoError(t, err)

	byVariant, err := r.ListForAccount(ctx, acct.ID)
	require.NoError(t, err)
	assert.Len(t, byVariant[model.VariantBeta], 1)
	assert.Len(t, byVariant[model.VariantTeam], 1)
}

func TestListByStatusFilters(t *testing.T) {
	r, _, _, _, clock := newTestRegistry(t)
	ctx := context.Background()

	first, err := r.Submit(ctx, model.VariantBeta, testAccount(), betaInput())
	require.NoError(t, err)

	other := testAccount()
	other.ID = 8
	other.Email = "other@example.com"
	clock.offset = time.Hour
	_, err = r.Submit(ctx, model.VariantBeta, other, betaInput())
	require.NoError(t, err)

	_, err = r.SetStatus(ctx, model.VariantBeta, first.ID, model.StatusApproved, nil)
	require.NoError(t, err)

	pending, err := r.ListPending(ctx, model.VariantBeta)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	approved, err := r.ListByStatus(ctx, model.VariantBeta, model.StatusApproved)
	require.NoError(t, err)
	require.Len(t, approved, 1)
	assert.Equal(t, first.ID, approved[0].ID)

	all, err := r.ListAll(ctx, model.VariantBeta)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
