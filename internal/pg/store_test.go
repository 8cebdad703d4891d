package pg

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"portal/internal/devbackend"
)

func TestRecordsDDL(t *testing.T) {
	ddl := RecordsDDL("Portal Records")
	require.Len(t, ddl, 2)
	sql := ddl["000_portal_records"]
	assert.Contains(t, sql, `create table if not exists "portal_records"`)
	assert.Contains(t, sql, "primary key (endpoint, id)")

	// зарезервированное имя получает префикс
	_, ok := RecordsDDL("user")["000_e_user"]
	assert.True(t, ok)
}

func startPostgres(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("postgres container skipped in -short mode")
	}
	ctx := context.Background()
	ctr, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("portal"),
		postgres.WithUsername("portal"),
		postgres.WithPassword("portal"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ctr.Terminate(context.Background()) })

	url, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	return url
}

func TestRecordStorePostgres(t *testing.T) {
	url := startPostgres(t)
	ctx := context.Background()

	db, err := Open(ctx, url)
	require.NoError(t, err)
	defer db.Close()

	store := NewRecordStore(db, DefaultTable)
	require.NoError(t, store.Migrate(ctx))
	// повторная миграция ничего не ломает
	require.NoError(t, store.Migrate(ctx))

	a, err := store.Create(ctx, "qi-inspections", map[string]any{"project": "P-1", "is_completed": false})
	require.NoError(t, err)
	_, err = store.Create(ctx, "qi-inspections", map[string]any{"project": "P-2"})
	require.NoError(t, err)
	_, err = store.Create(ctx, "vendors", map[string]any{"name": "acme"})
	require.NoError(t, err)

	list, err := store.List(ctx, "qi-inspections")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "P-1", list[0].Data["project"])
	assert.Equal(t, false, list[0].Data["is_completed"])

	upd, err := store.Update(ctx, "qi-inspections", a.ID, map[string]any{"project": "P-1b"}, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 2, upd.Version)

	_, err = store.Update(ctx, "qi-inspections", a.ID, map[string]any{"project": "x"}, 1)
	assert.ErrorIs(t, err, devbackend.ErrVersionConflict)

	require.NoError(t, store.Delete(ctx, "qi-inspections", a.ID))
	assert.ErrorIs(t, store.Delete(ctx, "qi-inspections", a.ID), devbackend.ErrNotFound)
	_, err = store.Get(ctx, "qi-inspections", a.ID)
	assert.ErrorIs(t, err, devbackend.ErrNotFound)

	list, err = store.List(ctx, "qi-inspections")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
