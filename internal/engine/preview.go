package engine

import "test12/models"

// RoomPreview is the room an entry would join if matching ran with the
// current pool.
type RoomPreview struct {
	Members  []string `json:"members"`
	Filled   int      `json:"filled"`
	Needed   int      `json:"needed"`
	Position int      `json:"position"`
	Size     int      `json:"size"`
}

// FormingRoom partitions the matchable pool into consecutive RoomSize groups
// and reports the one holding appID. It returns nil when the entry is not
// matchable. It never mutates s.
func FormingRoom(s *models.Snapshot, appID string, opts Options) *RoomPreview {
	if opts.RoomSize < 1 {
		return nil
	}
	pool := matchable(s)
	for i, q := range pool {
		if q.AppID != appID {
			continue
		}
		start := (i / opts.RoomSize) * opts.RoomSize
		end := min(start+opts.RoomSize, len(pool))

		members := make([]string, 0, end-start)
		for _, m := range pool[start:end] {
			members = append(members, m.AppID)
		}
		return &RoomPreview{
			Members:  members,
			Filled:   len(members),
			Needed:   opts.RoomSize - len(members),
			Position: i - start + 1,
			Size:     opts.RoomSize,
		}
	}
	return nil
}

// QueuePosition is the 1-based FIFO rank of appID among all waiting entries,
// or 0 if it is not waiting.
func QueuePosition(s *models.Snapshot, appID string) int {
	var waiting []*models.QueueEntry
	for _, q := range s.Queue {
		if q.Status == models.StatusWaiting {
			waiting = append(waiting, q)
		}
	}
	sortFIFO(waiting)
	for i, q := range waiting {
		if q.AppID == appID {
			return i + 1
		}
	}
	return 0
}
