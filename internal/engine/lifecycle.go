package engine

import (
	"slices"
	"strings"

	"test12/models"
)

// OpenSessions forms rooms from eligible, fresh waiting entries in FIFO order
// until fewer than RoomSize remain. Each pass removes RoomSize entries from
// the candidate pool, so the loop is bounded by the queue length.
func OpenSessions(s *models.Snapshot, nowMs int64, opts Options) Result {
	var res Result
	if opts.RoomSize < 2 {
		return res
	}

	for {
		candidates := matchable(s)
		if len(candidates) < opts.RoomSize {
			break
		}
		picked := candidates[:opts.RoomSize]

		sess := &models.Session{
			SessionID: s.NextSessionID(nowMs),
			StartTime: nowMs,
			EndTime:   nowMs + opts.SessionDuration.Milliseconds(),
			Status:    models.SessionActive,
			AppIDs:    make([]string, 0, len(picked)),
		}
		for _, q := range picked {
			q.Status = models.StatusInSession
			q.SessionID = sess.SessionID
			sess.AppIDs = append(sess.AppIDs, q.AppID)
		}
		AssignTests(picked, nowMs)
		s.Sessions = append(s.Sessions, sess)

		res.Changed = true
		res.OpenedSession = true
		res.OpenedSessionIDs = append(res.OpenedSessionIDs, sess.SessionID)
	}
	return res
}

// ExpireSessions concludes every active session whose deadline has passed:
// member outcomes go to the ledger, then each member's submission and queue
// entry are deleted and the session is dropped. The deleted submissions are
// returned so bundle drops can be chained.
func ExpireSessions(s *models.Snapshot, nowMs int64) (Result, []*models.AppSubmission) {
	var res Result
	var concluded []*models.AppSubmission

	kept := s.Sessions[:0]
	for _, sess := range s.Sessions {
		if sess.Status == models.SessionActive && nowMs < sess.EndTime {
			kept = append(kept, sess)
			continue
		}
		sess.Status = models.SessionComplete

		for _, appID := range sess.AppIDs {
			app := s.Apps[appID]
			q := s.Entry(appID)

			out := Outcome{AppID: appID, SessionID: sess.SessionID, Completed: true}
			lastSeen := nowMs
			switch {
			case q != nil:
				out.UserID = q.UserID
				out.Completed = q.ObligationsMet()
				if q.LastHeartbeatMs != 0 {
					lastSeen = q.LastHeartbeatMs
				}
			case app != nil:
				out.UserID = app.UserID
			}
			if out.UserID != "" {
				RecordOutcome(s, out, lastSeen)
				res.Outcomes = append(res.Outcomes, out)
			}

			if app != nil {
				concluded = append(concluded, app)
			}
			delete(s.Apps, appID)
			s.RemoveEntry(appID)
			res.CompletedAppIDs = append(res.CompletedAppIDs, appID)
		}
		res.Changed = true
	}
	// Clear the tail so dropped sessions are not pinned by the backing array.
	for i := len(kept); i < len(s.Sessions); i++ {
		s.Sessions[i] = nil
	}
	s.Sessions = kept

	return res, concluded
}

// matchable returns waiting, eligible, fresh entries sorted by arrival, ties
// broken by app id.
func matchable(s *models.Snapshot) []*models.QueueEntry {
	var out []*models.QueueEntry
	for _, q := range s.Queue {
		if q.Status == models.StatusWaiting && q.Eligible && !q.Stale {
			out = append(out, q)
		}
	}
	sortFIFO(out)
	return out
}

func sortFIFO(entries []*models.QueueEntry) {
	slices.SortStableFunc(entries, func(a, b *models.QueueEntry) int {
		if a.EnteredAt != b.EnteredAt {
			if a.EnteredAt < b.EnteredAt {
				return -1
			}
			return 1
		}
		return strings.Compare(a.AppID, b.AppID)
	})
}
