package engine

import (
	"strings"

	"github.com/shopspring/decimal"

	"test12/internal/status"
	"test12/models"
)

type NewBundle struct {
	BundleID   string
	UserID     string
	AppName    string
	StoreLink  string
	Drops      int
	AmountPaid decimal.Decimal
}

// CreateBundle registers an already-paid campaign. The first drop is queued
// by the owner through a normal submission naming the bundle.
func CreateBundle(s *models.Snapshot, nb NewBundle, nowMs int64) (*models.ProDevBundle, error) {
	if nb.BundleID == "" || strings.TrimSpace(nb.UserID) == "" || strings.TrimSpace(nb.AppName) == "" ||
		nb.StoreLink == "" || nb.Drops < 1 || nb.AmountPaid.IsNegative() {
		return nil, status.ErrInvalidBundle
	}
	if _, exists := s.Bundles[nb.BundleID]; exists {
		return nil, status.ErrInvalidBundle
	}

	b := &models.ProDevBundle{
		BundleID:   nb.BundleID,
		UserID:     strings.TrimSpace(nb.UserID),
		AppName:    strings.TrimSpace(nb.AppName),
		StoreLink:  nb.StoreLink,
		DropsTotal: nb.Drops,
		State:      models.BundleActive,
		AmountPaid: nb.AmountPaid,
		CreatedAt:  nowMs,
	}
	s.Bundles[b.BundleID] = b
	return b, nil
}

// CheckBundle decides whether userID may queue a drop of bundleID now.
func CheckBundle(s *models.Snapshot, bundleID, userID string) (*models.ProDevBundle, error) {
	b, ok := s.Bundles[bundleID]
	if !ok {
		return nil, status.ErrBundleNotFound
	}
	if b.UserID != userID {
		return nil, status.ErrBundleNotOwned
	}
	if b.State == models.BundleDone {
		return nil, status.ErrBundleDone
	}
	if b.Exhausted() {
		return nil, status.ErrBundleExhausted
	}
	if b.ActiveDropAppID != "" {
		return nil, status.ErrBundleDropOutstanding
	}
	return b, nil
}

// startDrop queues the bundle's next drop from its template fields.
func startDrop(s *models.Snapshot, b *models.ProDevBundle, nowMs int64) *models.AppSubmission {
	app := enqueue(s, b.UserID, b.AppName, b.StoreLink, nowMs)
	app.BundleID = b.BundleID
	app.DropSeq = b.DropsCompleted + 1
	app.DropTotal = b.DropsTotal
	b.ActiveDropAppID = app.AppID
	return app
}

// AdvanceBundle is called when a submission concludes, by room expiry or
// admin removal. If it was its bundle's live drop, the bundle counts it and
// either queues the next drop (returned) or is marked done.
func AdvanceBundle(s *models.Snapshot, app *models.AppSubmission, nowMs int64) *models.AppSubmission {
	if app == nil || app.BundleID == "" {
		return nil
	}
	b, ok := s.Bundles[app.BundleID]
	if !ok || b.ActiveDropAppID != app.AppID {
		return nil
	}

	b.ActiveDropAppID = ""
	if b.DropsCompleted < b.DropsTotal {
		b.DropsCompleted++
	}
	if b.Exhausted() {
		b.State = models.BundleDone
		return nil
	}
	return startDrop(s, b, nowMs)
}
