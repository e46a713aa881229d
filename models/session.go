package models

import "github.com/shopspring/decimal"

const (
	SessionActive   = "active"
	SessionComplete = "complete"

	BundleActive = "active"
	BundleDone   = "done"
)

// Session is a testing room. AppIDs is fixed at formation.
type Session struct {
	SessionID string   `json:"session_id"`
	StartTime int64    `json:"start_time"`
	EndTime   int64    `json:"end_time"`
	Status    string   `json:"status"` // active, complete
	AppIDs    []string `json:"app_ids"`
}

func (s *Session) Has(appID string) bool {
	for _, id := range s.AppIDs {
		if id == appID {
			return true
		}
	}
	return false
}

// ProDevBundle is a paid campaign of sequential drops. At most one drop is
// live at a time (ActiveDropAppID).
type ProDevBundle struct {
	BundleID        string          `json:"bundle_id"`
	UserID          string          `json:"user_id"`
	AppName         string          `json:"app_name"`
	StoreLink       string          `json:"store_link"`
	DropsTotal      int             `json:"drops_total"`
	DropsCompleted  int             `json:"drops_completed"`
	ActiveDropAppID string          `json:"active_drop_app_id"`
	State           string          `json:"state"` // active, done
	AmountPaid      decimal.Decimal `json:"amount_paid"`
	CreatedAt       int64           `json:"created_at"`
}

func (b *ProDevBundle) Exhausted() bool {
	return b.DropsCompleted >= b.DropsTotal
}

type UserStats struct {
	UserID               string `json:"user_id"`
	TotalSessions        int    `json:"total_sessions"`
	CompletedSessions    int    `json:"completed_sessions"`
	FailedSessions       int    `json:"failed_sessions"`
	LastSessionID        string `json:"last_session_id"`
	LastSessionCompleted bool   `json:"last_session_completed"`
	LastSeenMs           int64  `json:"last_seen_ms"`
}

type AdminLogEntry struct {
	ID      string `json:"id"`
	At      int64  `json:"at"`
	Action  string `json:"action"`
	Details string `json:"details"`
}
