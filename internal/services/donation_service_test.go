package services

import (
	"context"
	"testing"

	"github.com/ahmetcoskunkizilkaya/welfare-backend/internal/apperr"
	"github.com/ahmetcoskunkizilkaya/welfare-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/welfare-backend/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPledgeRequiresApprovedRequest(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	applicant := e.signup(t, models.RoleApplicant, "3520212345671")
	donor := e.signup(t, models.RoleDonor, "3520212345672")
	adm := admin(t, e)

	pending, err := e.requests.Submit(ctx, applicant, loanInput(1000))
	require.NoError(t, err)
	rejected, err := e.requests.Submit(ctx, applicant, loanInput(2000))
	require.NoError(t, err)
	require.NoError(t, e.requests.Transition(ctx, adm, rejected.ID, models.StatusRejected, "insufficient documents"))

	for _, id := range []uuid.UUID{pending.ID, rejected.ID, uuid.New()} {
		_, err := e.donations.Pledge(ctx, donor, &dto.PledgeRequest{RequestID: id, Amount: 500})
		assert.Equal(t, apperr.KindNotEligible, apperr.KindOf(err))
	}
	assert.Zero(t, e.mem.DonationCount())
}

func TestPledgeValidation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	applicant := e.signup(t, models.RoleApplicant, "3520212345671")
	donor := e.signup(t, models.RoleDonor, "3520212345672")
	adm := admin(t, e)
	req, err := e.requests.Submit(ctx, applicant, loanInput(1000))
	require.NoError(t, err)
	require.NoError(t, e.requests.Transition(ctx, adm, req.ID, models.StatusApproved, ""))

	for _, amt := range []float64{0, -10, 0.001, 10.005, MaxAmount + 1} {
		_, err := e.donations.Pledge(ctx, donor, &dto.PledgeRequest{RequestID: req.ID, Amount: amt})
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	}

	_, err = e.donations.Pledge(ctx, donor, &dto.PledgeRequest{Amount: 10})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	assert.Zero(t, e.mem.DonationCount())

	for _, amt := range []float64{0.01, MaxAmount} {
		_, err := e.donations.Pledge(ctx, donor, &dto.PledgeRequest{RequestID: req.ID, Amount: amt})
		assert.NoError(t, err, "amount %v", amt)
	}
	require.Equal(t, 2, e.mem.DonationCount())

	_, err = e.donations.Pledge(ctx, applicant, &dto.PledgeRequest{RequestID: req.ID, Amount: 10})
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	_, err = e.donations.Pledge(ctx, adm, &dto.PledgeRequest{RequestID: req.ID, Amount: 10})
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
	assert.Equal(t, 2, e.mem.DonationCount())
}

func TestPledgeDoesNotTouchRequest(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	applicant := e.signup(t, models.RoleApplicant, "3520212345671")
	donor := e.signup(t, models.RoleDonor, "3520212345672")
	adm := admin(t, e)
	req, err := e.requests.Submit(ctx, applicant, loanInput(1000))
	require.NoError(t, err)
	require.NoError(t, e.requests.Transition(ctx, adm, req.ID, models.StatusApproved, ""))

	// Over-pledging and repeated pledges are both recorded as separate rows.
	for i := 0; i < 2; i++ {
		_, err := e.donations.Pledge(ctx, donor, &dto.PledgeRequest{RequestID: req.ID, Amount: 800})
		require.NoError(t, err)
	}

	stored, err := e.mem.Requests().GetByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, stored.Status)
	assert.Equal(t, 1000.0, *stored.Amount)

	mine, err := e.donations.ListMine(ctx, donor)
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	resp, err := e.donations.ListForRequest(ctx, adm, req.ID)
	require.NoError(t, err)
	assert.Len(t, resp.Donations, 2)
	assert.Equal(t, 1600.0, resp.TotalPledged)

	_, err = e.donations.ListForRequest(ctx, donor, req.ID)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	_, err = e.donations.ListForRequest(ctx, adm, uuid.New())
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestListMineEmpty(t *testing.T) {
	e := newEnv(t)
	donor := e.signup(t, models.RoleDonor, "3520212345672")
	mine, err := e.donations.ListMine(context.Background(), donor)
	require.NoError(t, err)
	assert.NotNil(t, mine)
	assert.Empty(t, mine)
}
