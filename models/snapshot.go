package models

import (
	"fmt"
	"sort"
)

const SnapshotVersion = 2

// Snapshot is the whole engine state, loaded and stored as one unit.
type Snapshot struct {
	Version        int                       `json:"version"`
	NextAppSeq     int                       `json:"next_app_seq"`
	NextSessionSeq int                       `json:"next_session_seq"`
	Apps           map[string]*AppSubmission `json:"apps_by_id"`
	Queue          []*QueueEntry             `json:"queue"`
	Sessions       []*Session                `json:"sessions"`
	Bundles        map[string]*ProDevBundle  `json:"bundles"`
	UserStats      map[string]*UserStats     `json:"user_stats"`
	AdminLog       []AdminLogEntry           `json:"admin_log"`
}

func NewSnapshot() *Snapshot {
	return &Snapshot{
		Version:        SnapshotVersion,
		NextAppSeq:     1,
		NextSessionSeq: 1,
		Apps:           map[string]*AppSubmission{},
		Queue:          []*QueueEntry{},
		Sessions:       []*Session{},
		Bundles:        map[string]*ProDevBundle{},
		UserStats:      map[string]*UserStats{},
		AdminLog:       []AdminLogEntry{},
	}
}

// Normalize defaults every container and sequence so the engine never sees a
// missing collection. Nil records left behind by a hand-edited document are
// dropped, as are removed entries written by older versions.
func (s *Snapshot) Normalize() *Snapshot {
	if s.Version <= 0 {
		s.Version = SnapshotVersion
	}
	if s.NextAppSeq < 1 {
		s.NextAppSeq = 1
	}
	if s.NextSessionSeq < 1 {
		s.NextSessionSeq = 1
	}
	if s.Apps == nil {
		s.Apps = map[string]*AppSubmission{}
	}
	if s.Bundles == nil {
		s.Bundles = map[string]*ProDevBundle{}
	}
	if s.UserStats == nil {
		s.UserStats = map[string]*UserStats{}
	}
	if s.AdminLog == nil {
		s.AdminLog = []AdminLogEntry{}
	}

	queue := make([]*QueueEntry, 0, len(s.Queue))
	for _, q := range s.Queue {
		if q == nil || q.Status == StatusRemoved {
			continue
		}
		if q.AssignedTests == nil {
			q.AssignedTests = []string{}
		}
		if q.CompletedTests == nil {
			q.CompletedTests = []CompletedTest{}
		}
		queue = append(queue, q)
	}
	s.Queue = queue

	sessions := make([]*Session, 0, len(s.Sessions))
	for _, sess := range s.Sessions {
		if sess == nil {
			continue
		}
		if sess.AppIDs == nil {
			sess.AppIDs = []string{}
		}
		sessions = append(sessions, sess)
	}
	s.Sessions = sessions

	for id, app := range s.Apps {
		if app == nil {
			delete(s.Apps, id)
		}
	}
	for id, b := range s.Bundles {
		if b == nil {
			delete(s.Bundles, id)
		}
	}
	for id, st := range s.UserStats {
		if st == nil {
			delete(s.UserStats, id)
		}
	}
	return s
}

// Entry returns the live (non-removed) queue entry for appID.
func (s *Snapshot) Entry(appID string) *QueueEntry {
	for _, q := range s.Queue {
		if q.AppID == appID && q.Status != StatusRemoved {
			return q
		}
	}
	return nil
}

// AppIDForUser returns the user's live submission id, or "".
func (s *Snapshot) AppIDForUser(userID string) string {
	for id, app := range s.Apps {
		if app.UserID == userID {
			return id
		}
	}
	return ""
}

func (s *Snapshot) Session(sessionID string) *Session {
	for _, sess := range s.Sessions {
		if sess.SessionID == sessionID {
			return sess
		}
	}
	return nil
}

// ActiveSessionFor returns the active session containing appID.
func (s *Snapshot) ActiveSessionFor(appID string) *Session {
	for _, sess := range s.Sessions {
		if sess.Status == SessionActive && sess.Has(appID) {
			return sess
		}
	}
	return nil
}

// NextAppID hands out the next A0001-style submission id.
func (s *Snapshot) NextAppID() string {
	seq := s.NextAppSeq
	s.NextAppSeq = seq + 1
	return fmt.Sprintf("A%04d", seq)
}

// NextSessionID is derived from the current time and a sequence so that
// several rooms opened in the same pass stay distinct.
func (s *Snapshot) NextSessionID(nowMs int64) string {
	seq := s.NextSessionSeq
	s.NextSessionSeq = seq + 1
	return fmt.Sprintf("S%d-%d", nowMs, seq)
}

// RemoveEntry drops the queue entry for appID entirely.
func (s *Snapshot) RemoveEntry(appID string) {
	out := s.Queue[:0]
	for _, q := range s.Queue {
		if q.AppID != appID {
			out = append(out, q)
		}
	}
	s.Queue = out
}

// CheckConsistency verifies the cross-collection invariants between apps,
// queue entries, sessions, bundles and stats.
func (s *Snapshot) CheckConsistency() error {
	live := map[string]*QueueEntry{}
	for _, q := range s.Queue {
		if q.Status == StatusRemoved {
			continue
		}
		if _, dup := live[q.AppID]; dup {
			return fmt.Errorf("app %s has two live queue entries", q.AppID)
		}
		live[q.AppID] = q
		app, ok := s.Apps[q.AppID]
		if !ok {
			return fmt.Errorf("queue entry %s has no submission", q.AppID)
		}
		if app.UserID != q.UserID {
			return fmt.Errorf("queue entry %s user %s does not match submission user %s", q.AppID, q.UserID, app.UserID)
		}
		if q.TestsDone != len(q.CompletedTests) {
			return fmt.Errorf("queue entry %s tests_done %d != %d completed", q.AppID, q.TestsDone, len(q.CompletedTests))
		}
	}

	users := map[string]string{}
	ids := make([]string, 0, len(s.Apps))
	for id := range s.Apps {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if _, ok := live[id]; !ok {
			return fmt.Errorf("submission %s has no live queue entry", id)
		}
		user := s.Apps[id].UserID
		if other, ok := users[user]; ok {
			return fmt.Errorf("user %s has two live submissions (%s, %s)", user, other, id)
		}
		users[user] = id
	}

	for _, sess := range s.Sessions {
		seen := map[string]bool{}
		for _, id := range sess.AppIDs {
			if seen[id] {
				return fmt.Errorf("session %s lists %s twice", sess.SessionID, id)
			}
			seen[id] = true
			q, ok := live[id]
			if !ok {
				return fmt.Errorf("session %s member %s is not live", sess.SessionID, id)
			}
			if q.Status != StatusInSession || q.SessionID != sess.SessionID {
				return fmt.Errorf("session %s member %s is %s in %q", sess.SessionID, id, q.Status, q.SessionID)
			}
		}
	}

	for _, b := range s.Bundles {
		if b.DropsCompleted > b.DropsTotal {
			return fmt.Errorf("bundle %s completed %d of %d drops", b.BundleID, b.DropsCompleted, b.DropsTotal)
		}
		if b.ActiveDropAppID == "" {
			continue
		}
		app, ok := s.Apps[b.ActiveDropAppID]
		if !ok || app.BundleID != b.BundleID {
			return fmt.Errorf("bundle %s active drop %s is not live", b.BundleID, b.ActiveDropAppID)
		}
	}

	for _, st := range s.UserStats {
		if st.TotalSessions != st.CompletedSessions+st.FailedSessions {
			return fmt.Errorf("user %s stats total %d != %d + %d", st.UserID, st.TotalSessions, st.CompletedSessions, st.FailedSessions)
		}
	}
	return nil
}
