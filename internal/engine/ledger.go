package engine

import "test12/models"

// RecordOutcome adds one concluded session to the user's stats. Stats are
// never removed.
func RecordOutcome(s *models.Snapshot, out Outcome, lastSeenMs int64) *models.UserStats {
	st, ok := s.UserStats[out.UserID]
	if !ok {
		st = &models.UserStats{UserID: out.UserID}
		s.UserStats[out.UserID] = st
	}
	st.TotalSessions++
	if out.Completed {
		st.CompletedSessions++
	} else {
		st.FailedSessions++
	}
	st.LastSessionID = out.SessionID
	st.LastSessionCompleted = out.Completed
	st.LastSeenMs = lastSeenMs
	return st
}

func FailedSessions(s *models.Snapshot, userID string) int {
	if st, ok := s.UserStats[userID]; ok {
		return st.FailedSessions
	}
	return 0
}
