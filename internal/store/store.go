// Package store persists the engine snapshot as one JSON document. Every
// backend returns a normalized snapshot from Load, and a missing document
// loads as a fresh one.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"test12/models"
)

type Store interface {
	Load(ctx context.Context) (*models.Snapshot, error)
	Save(ctx context.Context, s *models.Snapshot) error
}

func encode(s *models.Snapshot) ([]byte, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return data, nil
}

// decode never fails: a document that is not a JSON object is replaced by a
// fresh snapshot, the same way a missing one is.
func decode(data []byte, source string) *models.Snapshot {
	var s models.Snapshot
	if len(data) == 0 {
		return models.NewSnapshot()
	}
	if err := json.Unmarshal(data, &s); err != nil {
		slog.Warn("discarding unreadable snapshot", "source", source, "error", err)
		return models.NewSnapshot()
	}
	return s.Normalize()
}
