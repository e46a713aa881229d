// Package engine holds the matching rules: staleness, room formation and
// expiry, peer-test assignment, bundle chaining and the session ledger.
//
// Every function here works on a *models.Snapshot passed in by the caller and
// derives time only from the nowMs argument, so the same snapshot and instant
// always produce the same result. Callers serialize access; nothing here locks.
package engine

import "time"

const (
	DefaultRoomSize          = 13
	DefaultSessionDuration   = 14 * 24 * time.Hour
	DefaultHeartbeatTTL      = 24 * time.Hour
	DefaultMaxFailedSessions = 3
)

type Options struct {
	RoomSize        int
	SessionDuration time.Duration
	// HeartbeatTTL of zero or less disables staleness.
	HeartbeatTTL time.Duration
}

func DefaultOptions() Options {
	return Options{
		RoomSize:        DefaultRoomSize,
		SessionDuration: DefaultSessionDuration,
		HeartbeatTTL:    DefaultHeartbeatTTL,
	}
}

// Outcome is one member's result when their room concludes.
type Outcome struct {
	AppID     string
	UserID    string
	SessionID string
	Completed bool
}

type Result struct {
	Changed          bool
	CompletedAppIDs  []string
	OpenedSession    bool
	OpenedSessionIDs []string
	ChainedAppIDs    []string
	Outcomes         []Outcome
}

func (r *Result) Merge(o Result) {
	r.Changed = r.Changed || o.Changed
	r.CompletedAppIDs = append(r.CompletedAppIDs, o.CompletedAppIDs...)
	r.OpenedSession = r.OpenedSession || o.OpenedSession
	r.OpenedSessionIDs = append(r.OpenedSessionIDs, o.OpenedSessionIDs...)
	r.ChainedAppIDs = append(r.ChainedAppIDs, o.ChainedAppIDs...)
	r.Outcomes = append(r.Outcomes, o.Outcomes...)
}
