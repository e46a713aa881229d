package engine

import (
	"strings"

	"test12/internal/status"
	"test12/models"
)

type Submission struct {
	UserID    string
	AppName   string
	StoreLink string
	BundleID  string
}

// Admit is the gate in front of new submissions: users who have failed
// maxFailed or more sessions may not queue again. maxFailed <= 0 disables it.
func Admit(s *models.Snapshot, userID string, maxFailed int) error {
	if maxFailed > 0 && FailedSessions(s, userID) >= maxFailed {
		return status.ErrTooManyFailedSessions
	}
	return nil
}

// Submit queues a submission for the user. Input is validated first; then a
// user with a live submission gets it back unchanged (created is false), and
// the gate and bundle checks only apply to new ones. Bundle submissions take
// their name and link from the bundle.
func Submit(s *models.Snapshot, sub Submission, nowMs int64, maxFailed int) (app *models.AppSubmission, created bool, err error) {
	userID := strings.TrimSpace(sub.UserID)
	name := strings.TrimSpace(sub.AppName)
	if userID == "" || (sub.BundleID == "" && (name == "" || sub.StoreLink == "")) {
		return nil, false, status.ErrInvalidSubmission
	}
	if id := s.AppIDForUser(userID); id != "" {
		return s.Apps[id], false, nil
	}
	if err := Admit(s, userID, maxFailed); err != nil {
		return nil, false, err
	}

	if sub.BundleID != "" {
		b, err := CheckBundle(s, sub.BundleID, userID)
		if err != nil {
			return nil, false, err
		}
		return startDrop(s, b, nowMs), true, nil
	}

	return enqueue(s, userID, name, sub.StoreLink, nowMs), true, nil
}

func enqueue(s *models.Snapshot, userID, appName, storeLink string, nowMs int64) *models.AppSubmission {
	app := &models.AppSubmission{
		AppID:     s.NextAppID(),
		UserID:    userID,
		AppName:   appName,
		StoreLink: storeLink,
	}
	s.Apps[app.AppID] = app
	s.Queue = append(s.Queue, &models.QueueEntry{
		AppID:          app.AppID,
		UserID:         userID,
		EnteredAt:      nowMs,
		Status:         models.StatusWaiting,
		Eligible:       true,
		AssignedTests:  []string{},
		CompletedTests: []models.CompletedTest{},
	})
	return app
}

// Remove takes a waiting submission out of the pool on an admin's behalf.
// The submission and its queue entry are both deleted; the caller keeps the
// record in the admin log. Removing a bundle's live drop advances the
// bundle, and the chained drop is returned.
func Remove(s *models.Snapshot, appID string, nowMs int64) (removed, chained *models.AppSubmission, err error) {
	app, ok := s.Apps[appID]
	if !ok {
		return nil, nil, status.ErrAppNotFound
	}
	if s.ActiveSessionFor(appID) != nil {
		return nil, nil, status.ErrAppInActiveSession
	}

	s.RemoveEntry(appID)
	delete(s.Apps, appID)

	return app, AdvanceBundle(s, app, nowMs), nil
}
