package models

// Queue entry lifecycle.
const (
	StatusWaiting   = "waiting"
	StatusInSession = "in_session"
	StatusRemoved   = "removed"
)

// AppSubmission is a user's single live app.
type AppSubmission struct {
	AppID     string `json:"app_id"`
	UserID    string `json:"user_id"`
	AppName   string `json:"app_name"`
	StoreLink string `json:"store_link"`
	BundleID  string `json:"bundle_id,omitempty"`
	DropSeq   int    `json:"drop_seq,omitempty"`
	DropTotal int    `json:"drop_total,omitempty"`
}

type CompletedTest struct {
	TargetAppID string `json:"target_app_id"`
	Evidence    string `json:"evidence"`
	At          int64  `json:"at"`
}

// QueueEntry tracks where a submission is in its lifecycle. Timestamps are
// unix milliseconds; LastHeartbeatMs of 0 means no heartbeat was ever recorded.
type QueueEntry struct {
	AppID           string          `json:"app_id"`
	UserID          string          `json:"user_id"`
	EnteredAt       int64           `json:"entered_at"`
	Status          string          `json:"status"` // waiting, in_session, removed
	Eligible        bool            `json:"eligible"`
	Stale           bool            `json:"stale"`
	LastHeartbeatMs int64           `json:"last_heartbeat_ms"`
	SessionID       string          `json:"session_id,omitempty"`
	AssignedTests   []string        `json:"assigned_tests"`
	TestsRequired   int             `json:"tests_required"`
	TestsDone       int             `json:"tests_done"`
	CompletedTests  []CompletedTest `json:"completed_tests"`
}

// LastSeen is the last heartbeat, falling back to the arrival time.
func (q *QueueEntry) LastSeen() int64 {
	if q.LastHeartbeatMs != 0 {
		return q.LastHeartbeatMs
	}
	return q.EnteredAt
}

// ObligationsMet reports whether the entry has no outstanding peer tests.
func (q *QueueEntry) ObligationsMet() bool {
	return q.TestsRequired <= 0 || q.TestsDone >= q.TestsRequired
}

func (q *QueueEntry) IsAssigned(appID string) bool {
	for _, id := range q.AssignedTests {
		if id == appID {
			return true
		}
	}
	return false
}

func (q *QueueEntry) HasCompleted(appID string) bool {
	for _, t := range q.CompletedTests {
		if t.TargetAppID == appID {
			return true
		}
	}
	return false
}
