package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-redis/redismock/v9"
	"github.com/pocketbase/dbx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"test12/models"
)

func sampleSnapshot() *models.Snapshot {
	s := models.NewSnapshot()
	app := &models.AppSubmission{AppID: s.NextAppID(), UserID: "alice", AppName: "Alpha", StoreLink: "https://a.example.com"}
	s.Apps[app.AppID] = app
	s.Queue = append(s.Queue, &models.QueueEntry{
		AppID:          app.AppID,
		UserID:         "alice",
		EnteredAt:      1000,
		Status:         models.StatusWaiting,
		Eligible:       true,
		AssignedTests:  []string{},
		CompletedTests: []models.CompletedTest{},
	})
	return s
}

func TestDecode_EmptyAndGarbage(t *testing.T) {
	for _, data := range [][]byte{nil, []byte(""), []byte("not json"), []byte("[1,2]")} {
		s := decode(data, "test")
		require.NotNil(t, s)
		assert.Equal(t, models.SnapshotVersion, s.Version)
		assert.Empty(t, s.Apps)
		assert.NotNil(t, s.Queue)
	}
}

func TestDecode_NormalizesMissingCollections(t *testing.T) {
	s := decode([]byte(`{"version":2,"next_app_seq":7}`), "test")
	assert.Equal(t, 7, s.NextAppSeq)
	assert.Equal(t, 1, s.NextSessionSeq)
	assert.NotNil(t, s.Apps)
	assert.NotNil(t, s.Bundles)
	assert.NotNil(t, s.UserStats)
	assert.NotNil(t, s.Sessions)
}

func TestFileStore_MissingFileLoadsFresh(t *testing.T) {
	fs := NewFileStore(filepath.Join(t.TempDir(), "nested", "state.json"))

	s, err := fs.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, s.Queue)
	assert.Equal(t, 1, s.NextAppSeq)
}

func TestFileStore_SaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "state.json")
	fs := NewFileStore(path)
	ctx := context.Background()

	require.NoError(t, fs.Save(ctx, sampleSnapshot()))

	got, err := fs.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got.Queue, 1)
	assert.Equal(t, "A0001", got.Queue[0].AppID)
	assert.Equal(t, 2, got.NextAppSeq)
	assert.Equal(t, "Alpha", got.Apps["A0001"].AppName)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files are cleaned up")
}

func TestFileStore_CorruptFileLoadsFresh(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0o644))

	s, err := NewFileStore(path).Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, s.Apps)
}

func TestMemoryStore_LoadReturnsCopy(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, m.Save(ctx, sampleSnapshot()))

	a, err := m.Load(ctx)
	require.NoError(t, err)
	a.Queue[0].Stale = true

	b, err := m.Load(ctx)
	require.NoError(t, err)
	assert.False(t, b.Queue[0].Stale)
	assert.Equal(t, 1, m.Saves())
}

func TestRedisStore_LoadMissingKey(t *testing.T) {
	db, mock := redismock.NewClientMock()
	rs := NewRedisStore(db, "")

	mock.ExpectGet(DefaultRedisKey).RedisNil()

	s, err := rs.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, s.Apps)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStore_SaveAndLoad(t *testing.T) {
	db, mock := redismock.NewClientMock()
	rs := NewRedisStore(db, "test12:state:test")
	ctx := context.Background()

	snap := sampleSnapshot()
	data, err := encode(snap)
	require.NoError(t, err)

	mock.ExpectSet("test12:state:test", string(data), 0).SetVal("OK")
	require.NoError(t, rs.Save(ctx, snap))

	mock.ExpectGet("test12:state:test").SetVal(string(data))
	got, err := rs.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got.Queue, 1)
	assert.Equal(t, "alice", got.Queue[0].UserID)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStore_Errors(t *testing.T) {
	db, mock := redismock.NewClientMock()
	rs := NewRedisStore(db, "k")

	mock.ExpectGet("k").SetErr(errors.New("connection refused"))

	_, err := rs.Load(context.Background())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
	assert.NoError(t, mock.ExpectationsWereMet())
}

type testDB struct{ db *dbx.DB }

func (p testDB) DB() dbx.Builder { return p.db }

func newTestDB(t *testing.T) testDB {
	t.Helper()
	db, err := dbx.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.DB().SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	_, err = db.NewQuery(EngineStateSchema).Execute()
	require.NoError(t, err)
	return testDB{db: db}
}

func TestPocketBaseStore_EmptyTable(t *testing.T) {
	ps := NewPocketBaseStore(newTestDB(t), "")

	s, err := ps.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, s.Apps)
}

func TestPocketBaseStore_Upsert(t *testing.T) {
	provider := newTestDB(t)
	ps := NewPocketBaseStore(provider, "main")
	ctx := context.Background()

	snap := sampleSnapshot()
	require.NoError(t, ps.Save(ctx, snap))

	snap.Queue[0].Stale = true
	require.NoError(t, ps.Save(ctx, snap))

	var count int
	require.NoError(t, provider.db.NewQuery("SELECT COUNT(*) FROM engine_state").Row(&count))
	assert.Equal(t, 1, count)

	got, err := ps.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got.Queue, 1)
	assert.True(t, got.Queue[0].Stale)
}
