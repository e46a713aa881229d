package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/pocketbase/dbx"

	"test12/models"
)

// EngineStateSchema creates the table PocketBaseStore writes to.
const EngineStateSchema = `CREATE TABLE IF NOT EXISTS engine_state (
	id      TEXT PRIMARY KEY NOT NULL,
	data    TEXT NOT NULL,
	updated INTEGER NOT NULL DEFAULT 0
)`

// DBProvider is satisfied by pocketbase's core.App.
type DBProvider interface {
	DB() dbx.Builder
}

// PocketBaseStore keeps the snapshot as one row in the pocketbase database.
// The provider is consulted on every call because the app's database only
// exists once pocketbase has bootstrapped.
type PocketBaseStore struct {
	provider DBProvider
	id       string
}

func NewPocketBaseStore(provider DBProvider, id string) *PocketBaseStore {
	if id == "" {
		id = "main"
	}
	return &PocketBaseStore{provider: provider, id: id}
}

type engineStateRow struct {
	Data string `db:"data"`
}

func (p *PocketBaseStore) Load(ctx context.Context) (*models.Snapshot, error) {
	var row engineStateRow
	err := p.provider.DB().
		NewQuery("SELECT data FROM engine_state WHERE id = {:id}").
		WithContext(ctx).
		Bind(dbx.Params{"id": p.id}).
		One(&row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.NewSnapshot(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("select engine_state %s: %w", p.id, err)
	}
	return decode([]byte(row.Data), "engine_state:"+p.id), nil
}

func (p *PocketBaseStore) Save(ctx context.Context, s *models.Snapshot) error {
	data, err := encode(s)
	if err != nil {
		return err
	}
	_, err = p.provider.DB().
		NewQuery(`INSERT INTO engine_state (id, data, updated) VALUES ({:id}, {:data}, {:updated})
			ON CONFLICT(id) DO UPDATE SET data = excluded.data, updated = excluded.updated`).
		WithContext(ctx).
		Bind(dbx.Params{"id": p.id, "data": string(data), "updated": time.Now().UnixMilli()}).
		Execute()
	if err != nil {
		return fmt.Errorf("upsert engine_state %s: %w", p.id, err)
	}
	return nil
}
