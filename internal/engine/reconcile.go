package engine

import "test12/models"

// Reconcile brings the snapshot up to date with nowMs: it flags stale
// entries, concludes rooms past their deadline (recording outcomes and
// chaining bundle drops), then opens as many new rooms as the eligible
// waiting entries allow.
//
// Drops created by chaining join the waiting pool before rooms are opened, so
// a second call with the same nowMs never finds more work.
func Reconcile(s *models.Snapshot, nowMs int64, opts Options) Result {
	var res Result

	if MarkStale(s, nowMs, opts.HeartbeatTTL) {
		res.Changed = true
	}

	expired, concluded := ExpireSessions(s, nowMs)
	res.Merge(expired)

	for _, app := range concluded {
		if next := AdvanceBundle(s, app, nowMs); next != nil {
			res.ChainedAppIDs = append(res.ChainedAppIDs, next.AppID)
			res.Changed = true
		}
	}

	res.Merge(OpenSessions(s, nowMs, opts))
	return res
}
