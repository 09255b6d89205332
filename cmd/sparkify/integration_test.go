package main

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"sparkify/internal/config"
	"sparkify/internal/logging"
)

func startPostgres(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	ctr, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		postgres.WithDatabase("sparkifydb"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ctr.Terminate(context.Background()) })

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	return dsn
}

func tableCounts(t *testing.T, db *sqlx.DB) map[string]int {
	t.Helper()
	counts := map[string]int{}
	for _, table := range []string{"songs", "artists", "time", "users", "songplays"} {
		var n int
		require.NoError(t, db.Get(&n, "SELECT count(*) FROM "+table))
		counts[table] = n
	}
	return counts
}

func TestPipelineAgainstPostgres(t *testing.T) {
	dsn := startPostgres(t)
	ctx := context.Background()

	db, err := openDatabase(ctx, dsn)
	require.NoError(t, err)
	defer db.Close()

	for _, mode := range []string{config.LookupDirect, config.LookupPreload} {
		cfg := testConfig(t)
		cfg.Database.URL = dsn
		cfg.Loader.CreateSchema = true
		cfg.Loader.Lookup = mode

		require.NoError(t, runPipeline(ctx, cfg, db, &bytes.Buffer{}, logging.Nop()), "lookup=%s", mode)

		assert.Equal(t, map[string]int{
			"songs":     2,
			"artists":   2,
			"time":      1,
			"users":     1,
			"songplays": 1,
		}, tableCounts(t, db), "rerun with lookup=%s adds no rows", mode)
	}

	var play struct {
		SongID    *string   `db:"song_id"`
		ArtistID  *string   `db:"artist_id"`
		StartTime time.Time `db:"start_time"`
		UserID    string    `db:"user_id"`
	}
	require.NoError(t, db.Get(&play, "SELECT song_id, artist_id, start_time, user_id FROM songplays"))
	require.NotNil(t, play.SongID)
	assert.Equal(t, "SOZCTXZ12AB0182364", *play.SongID)
	assert.Equal(t, "AR5KOSW1187FB35FF4", *play.ArtistID)
	assert.Equal(t, "8", play.UserID)
	assert.True(t, play.StartTime.Equal(time.UnixMilli(1541106106796)))

	var tr struct {
		Hour    int    `db:"hour"`
		Day     int    `db:"day"`
		Week    int    `db:"week"`
		Weekday string `db:"weekday"`
	}
	require.NoError(t, db.Get(&tr, "SELECT hour, day, week, weekday FROM time"))
	assert.Equal(t, 21, tr.Hour)
	assert.Equal(t, 1, tr.Day)
	assert.Equal(t, 44, tr.Week)
	assert.Equal(t, "Thursday", tr.Weekday)
}
