package main

import (
	"context"
	"io"
	"time"

	"github.com/jmoiron/sqlx"

	"sparkify/internal/app/batch"
	"sparkify/internal/app/events"
	"sparkify/internal/app/songs"
	"sparkify/internal/config"
	"sparkify/internal/logging"
	"sparkify/internal/metrics"
	"sparkify/internal/store"
)

// Dataset names used in logs and metric labels.
const (
	datasetSongs  = "songs"
	datasetEvents = "events"
)

// totals accumulates loader stats across a run.
type totals struct {
	songFiles  batch.Summary
	eventFiles batch.Summary
	songs      songs.Stats
	events     events.Stats
	unmatched  int
}

// runPipeline loads the song dataset and then the event dataset, and exports
// metrics when a textfile is configured.
func runPipeline(ctx context.Context, cfg *config.Config, db *sqlx.DB, out io.Writer, logger *logging.Logger) error {
	m := metrics.New()
	start := time.Now()

	var sum totals
	err := load(ctx, cfg, db, out, logger, m, &sum)

	m.RunFinished(time.Now(), time.Since(start), err)
	if cfg.Metrics.Textfile != "" {
		if werr := m.WriteTextfile(cfg.Metrics.Textfile); werr != nil {
			logger.With("path", cfg.Metrics.Textfile).With("error", werr.Error()).Warn("metrics textfile not written")
		}
	}

	if err != nil {
		return err
	}

	logger.Zerolog().Info().
		Int("song_files_found", sum.songFiles.Found).
		Int("song_files_loaded", sum.songFiles.Done).
		Int("log_files_found", sum.eventFiles.Found).
		Int("log_files_loaded", sum.eventFiles.Done).
		Int("songs", sum.songs.Songs).
		Int("artists", sum.songs.Artists).
		Int("events", sum.events.Events).
		Int("songplays", sum.events.Plays).
		Int("matched", sum.events.Matched).
		Int("unmatched", sum.unmatched).
		Dur("duration", time.Since(start)).
		Msg("ETL run complete")

	return nil
}

func load(ctx context.Context, cfg *config.Config, db *sqlx.DB, out io.Writer, logger *logging.Logger, m *metrics.Metrics, sum *totals) error {
	st := store.New(db, logger)

	if cfg.Loader.CreateSchema {
		if err := st.EnsureSchema(ctx); err != nil {
			return err
		}
		logger.Info("star schema ensured")
	}

	driver := batch.NewDriver(st,
		batch.WithOutput(out),
		batch.WithLogger(logger),
		batch.WithMetrics(m),
	)

	songLoader := songs.New(logger.With("dataset", datasetSongs))
	var err error
	sum.songFiles, err = driver.Run(ctx, datasetSongs, cfg.Paths.SongDir, func(ctx context.Context, tx *store.Tx, path string) (func(), error) {
		stats, err := songLoader.LoadFile(ctx, tx, path)
		if err != nil {
			return nil, err
		}
		return func() {
			m.RowsOffered("songs", stats.Songs)
			m.RowsOffered("artists", stats.Artists)
			sum.songs.Songs += stats.Songs
			sum.songs.Artists += stats.Artists
		}, nil
	})
	if err != nil {
		return err
	}

	logger.With("lookup", cfg.Loader.Lookup).Debug("song lookup strategy selected")
	eventLoader := events.New(logger.With("dataset", datasetEvents), lookupFactory(cfg.Loader.Lookup))
	sum.eventFiles, err = driver.Run(ctx, datasetEvents, cfg.Paths.LogDir, func(ctx context.Context, tx *store.Tx, path string) (func(), error) {
		stats, err := eventLoader.LoadFile(ctx, tx, path)
		if err != nil {
			return nil, err
		}
		return func() {
			m.RowsOffered("time", stats.TimeRows)
			m.RowsOffered("users", stats.Users)
			m.RowsOffered("songplays", stats.Plays)
			m.Lookups(stats.Matched, stats.Plays-stats.Matched)
			sum.events.Events += stats.Events
			sum.events.Plays += stats.Plays
			sum.events.Matched += stats.Matched
			sum.unmatched += stats.Plays - stats.Matched
		}, nil
	})
	return err
}

func lookupFactory(mode string) events.LookupFactory {
	if mode == config.LookupPreload {
		return events.PreloadLookup
	}
	return events.DirectLookup
}
