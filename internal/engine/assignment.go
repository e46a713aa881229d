package engine

import (
	"test12/internal/status"
	"test12/models"
)

// AssignTests gives every member of a new room the other members to test.
// Members stay locked (ineligible) until they finish.
func AssignTests(members []*models.QueueEntry, nowMs int64) {
	for _, q := range members {
		assigned := make([]string, 0, len(members)-1)
		for _, peer := range members {
			if peer.AppID != q.AppID {
				assigned = append(assigned, peer.AppID)
			}
		}
		q.AssignedTests = assigned
		q.TestsRequired = len(assigned)
		q.TestsDone = 0
		q.CompletedTests = []models.CompletedTest{}
		q.Eligible = false
		q.Stale = false
		if q.LastHeartbeatMs == 0 {
			q.LastHeartbeatMs = nowMs
		}
	}
}

// RecordTest records that the user's app tested targetAppID. Every check runs
// before the entry is touched, so a rejection leaves the snapshot as it was.
func RecordTest(s *models.Snapshot, userID, targetAppID, evidence string, nowMs int64) (*models.QueueEntry, error) {
	appID := s.AppIDForUser(userID)
	q := s.Entry(appID)
	if appID == "" || q == nil {
		return nil, status.ErrSubmissionNotFound
	}
	if q.Status != models.StatusInSession {
		return nil, status.ErrNotInSession
	}
	sess := s.Session(q.SessionID)
	if sess == nil || sess.Status != models.SessionActive || nowMs >= sess.EndTime {
		return nil, status.ErrSessionInactive
	}
	if targetAppID == q.AppID {
		return nil, status.ErrSelfTarget
	}
	if !sess.Has(targetAppID) {
		return nil, status.ErrTargetNotInSession
	}
	if !q.IsAssigned(targetAppID) {
		return nil, status.ErrTargetNotAssigned
	}
	if q.HasCompleted(targetAppID) {
		return nil, status.ErrAlreadyCompleted
	}

	q.CompletedTests = append(q.CompletedTests, models.CompletedTest{
		TargetAppID: targetAppID,
		Evidence:    evidence,
		At:          nowMs,
	})
	q.TestsDone = len(q.CompletedTests)
	q.LastHeartbeatMs = nowMs
	q.Stale = false
	if q.ObligationsMet() {
		q.Eligible = true
	}
	return q, nil
}
