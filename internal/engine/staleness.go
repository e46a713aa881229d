package engine

import (
	"time"

	"test12/internal/status"
	"test12/models"
)

// MarkStale flags every live entry whose last heartbeat (or arrival, if it
// never sent one) is older than ttl. Waiting entries also lose eligibility.
// It only ever sets flags; Heartbeat clears them.
func MarkStale(s *models.Snapshot, nowMs int64, ttl time.Duration) bool {
	if ttl <= 0 {
		return false
	}
	ttlMs := ttl.Milliseconds()

	changed := false
	for _, q := range s.Queue {
		if q.Status == models.StatusRemoved {
			continue
		}
		last := q.LastSeen()
		if last != 0 && nowMs-last <= ttlMs {
			continue
		}
		if !q.Stale {
			q.Stale = true
			changed = true
		}
		if q.Status == models.StatusWaiting && q.Eligible {
			q.Eligible = false
			changed = true
		}
	}
	return changed
}

// Heartbeat refreshes the user's live entry. A waiting entry with no unmet
// obligations becomes eligible again.
func Heartbeat(s *models.Snapshot, userID string, nowMs int64) (*models.QueueEntry, error) {
	appID := s.AppIDForUser(userID)
	q := s.Entry(appID)
	if appID == "" || q == nil {
		return nil, status.ErrSubmissionNotFound
	}
	touch(q, nowMs)
	return q, nil
}

func touch(q *models.QueueEntry, nowMs int64) {
	q.LastHeartbeatMs = nowMs
	q.Stale = false
	if q.Status == models.StatusWaiting && q.ObligationsMet() {
		q.Eligible = true
	}
}
