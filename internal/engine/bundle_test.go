package engine

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"test12/internal/status"
	"test12/models"
)

func newTestBundle(t *testing.T, s *models.Snapshot, drops int) *models.ProDevBundle {
	t.Helper()
	b, err := CreateBundle(s, NewBundle{
		BundleID:   "PD-TEST",
		UserID:     "pro",
		AppName:    "Pro App",
		StoreLink:  "https://apps.example.com/pro",
		Drops:      drops,
		AmountPaid: decimal.RequireFromString("49.99"),
	}, t0)
	require.NoError(t, err)
	return b
}

func TestBundle_FiveDropCampaign(t *testing.T) {
	s := models.NewSnapshot()
	opts := testOptions(2)
	b := newTestBundle(t, s, 5)

	first, created, err := Submit(s, Submission{UserID: "pro", BundleID: b.BundleID}, t0, 0)
	require.NoError(t, err)
	require.True(t, created)
	assert.Equal(t, 1, first.DropSeq)
	assert.Equal(t, 5, first.DropTotal)
	assert.Equal(t, "Pro App", first.AppName)
	assert.Equal(t, first.AppID, b.ActiveDropAppID)

	now := t0
	for round := 1; round <= 5; round++ {
		// One filler per round completes the two-member room.
		submitUser(t, s, fmt.Sprintf("filler-%d", round), now+1)
		res := Reconcile(s, now+2, opts)
		require.True(t, res.OpenedSession, "round %d", round)

		now = s.Sessions[0].EndTime
		res = Reconcile(s, now, opts)
		require.Len(t, res.CompletedAppIDs, 2, "round %d", round)
		assert.Equal(t, round, b.DropsCompleted)
		assert.NoError(t, s.CheckConsistency())

		if round < 5 {
			require.Len(t, res.ChainedAppIDs, 1)
			next := s.Apps[res.ChainedAppIDs[0]]
			require.NotNil(t, next)
			assert.Equal(t, round+1, next.DropSeq)
			assert.Equal(t, next.AppID, b.ActiveDropAppID)
			assert.Equal(t, models.BundleActive, b.State)

			q := s.Entry(next.AppID)
			require.NotNil(t, q)
			assert.Equal(t, models.StatusWaiting, q.Status)
			assert.Equal(t, now, q.EnteredAt)
		} else {
			assert.Empty(t, res.ChainedAppIDs)
			assert.Empty(t, b.ActiveDropAppID)
		}
	}

	assert.Equal(t, models.BundleDone, b.State)
	assert.Equal(t, 5, b.DropsCompleted)
	assert.Empty(t, s.AppIDForUser("pro"))

	_, _, err = Submit(s, Submission{UserID: "pro", BundleID: b.BundleID}, now+10, 0)
	assert.ErrorIs(t, err, status.ErrBundleDone)
}

func TestBundle_SingleFlight(t *testing.T) {
	s := models.NewSnapshot()
	b := newTestBundle(t, s, 3)

	_, created, err := Submit(s, Submission{UserID: "pro", BundleID: b.BundleID}, t0, 0)
	require.NoError(t, err)
	require.True(t, created)

	// The owner already has a live drop, so the same one comes back.
	again, created, err := Submit(s, Submission{UserID: "pro", BundleID: b.BundleID}, t0+1, 0)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, b.ActiveDropAppID, again.AppID)

	_, err = CheckBundle(s, b.BundleID, "pro")
	assert.ErrorIs(t, err, status.ErrBundleDropOutstanding)
}

func TestCheckBundle_Rejections(t *testing.T) {
	s := models.NewSnapshot()
	b := newTestBundle(t, s, 2)

	_, err := CheckBundle(s, "PD-NOPE", "pro")
	assert.ErrorIs(t, err, status.ErrBundleNotFound)

	_, err = CheckBundle(s, b.BundleID, "someone-else")
	assert.ErrorIs(t, err, status.ErrBundleNotOwned)

	b.DropsCompleted = 2
	_, err = CheckBundle(s, b.BundleID, "pro")
	assert.ErrorIs(t, err, status.ErrBundleExhausted)

	b.State = models.BundleDone
	_, err = CheckBundle(s, b.BundleID, "pro")
	assert.ErrorIs(t, err, status.ErrBundleDone)
}

func TestCreateBundle_Validation(t *testing.T) {
	s := models.NewSnapshot()
	valid := NewBundle{
		BundleID:   "PD-1",
		UserID:     "pro",
		AppName:    "Pro",
		StoreLink:  "https://x.example.com",
		Drops:      3,
		AmountPaid: decimal.NewFromInt(30),
	}

	tests := []struct {
		name   string
		mutate func(nb *NewBundle)
	}{
		{"no id", func(nb *NewBundle) { nb.BundleID = "" }},
		{"no user", func(nb *NewBundle) { nb.UserID = "  " }},
		{"no name", func(nb *NewBundle) { nb.AppName = "" }},
		{"no link", func(nb *NewBundle) { nb.StoreLink = "" }},
		{"zero drops", func(nb *NewBundle) { nb.Drops = 0 }},
		{"negative amount", func(nb *NewBundle) { nb.AmountPaid = decimal.NewFromInt(-1) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nb := valid
			tt.mutate(&nb)
			_, err := CreateBundle(s, nb, t0)
			assert.ErrorIs(t, err, status.ErrInvalidBundle)
		})
	}

	b, err := CreateBundle(s, valid, t0)
	require.NoError(t, err)
	assert.True(t, b.AmountPaid.Equal(decimal.NewFromInt(30)))

	_, err = CreateBundle(s, valid, t0)
	assert.ErrorIs(t, err, status.ErrInvalidBundle)
}

func TestAdvanceBundle_IgnoresStaleDrop(t *testing.T) {
	s := models.NewSnapshot()
	b := newTestBundle(t, s, 3)
	app, _, err := Submit(s, Submission{UserID: "pro", BundleID: b.BundleID}, t0, 0)
	require.NoError(t, err)

	other := &models.AppSubmission{AppID: "A0999", UserID: "pro", BundleID: b.BundleID}
	assert.Nil(t, AdvanceBundle(s, other, t0))
	assert.Equal(t, 0, b.DropsCompleted)
	assert.Equal(t, app.AppID, b.ActiveDropAppID)

	assert.Nil(t, AdvanceBundle(s, &models.AppSubmission{AppID: "A0001"}, t0))
}

func TestRemove_BundleDropChainsNext(t *testing.T) {
	s := models.NewSnapshot()
	b := newTestBundle(t, s, 2)
	app, _, err := Submit(s, Submission{UserID: "pro", BundleID: b.BundleID}, t0, 0)
	require.NoError(t, err)

	removed, chained, err := Remove(s, app.AppID, t0+5)
	require.NoError(t, err)
	assert.Equal(t, app.AppID, removed.AppID)
	require.NotNil(t, chained)
	assert.Equal(t, 2, chained.DropSeq)
	assert.Equal(t, 1, b.DropsCompleted)
	assert.NoError(t, s.CheckConsistency())

	_, chained, err = Remove(s, chained.AppID, t0+6)
	require.NoError(t, err)
	assert.Nil(t, chained)
	assert.Equal(t, models.BundleDone, b.State)
	assert.Equal(t, 2, b.DropsCompleted)
}
