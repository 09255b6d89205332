package store

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"time"

	"github.com/lib/pq"
)

// SongMatch identifies the song and artist a play resolved to.
type SongMatch struct {
	SongID   string `db:"song_id"`
	ArtistID string `db:"artist_id"`
}

// Both lookups order candidates by song_id so "first match" means the same
// row whichever one is used.
const findSongSQL = `
	SELECT s.song_id, s.artist_id
	FROM songs s
	JOIN artists a ON a.artist_id = s.artist_id
	WHERE s.title = $1 AND a.name = $2 AND s.duration = $3
	ORDER BY s.song_id
	LIMIT 1`

const preloadSongsSQL = `
	SELECT s.song_id, s.artist_id, s.title, a.name, s.duration
	FROM songs s
	JOIN artists a ON a.artist_id = s.artist_id
	WHERE s.title = ANY($1)
	ORDER BY s.song_id`

// FindSong resolves a play by exact (title, artist name, duration) with one
// query per call. ok is false when nothing matches.
func (t *Tx) FindSong(ctx context.Context, title, artist string, duration float64) (SongMatch, bool, error) {
	var match SongMatch
	start := time.Now()
	err := t.tx.GetContext(ctx, &match, findSongSQL, title, artist, duration)
	t.log.DBStatement("find song", time.Since(start), ignoreNoRows(err))
	if errors.Is(err, sql.ErrNoRows) {
		return SongMatch{}, false, nil
	}
	if err != nil {
		return SongMatch{}, false, &DatabaseError{Op: "find song", Err: err}
	}
	return match, true, nil
}

// PreloadSongs fetches every song whose title is in titles with a single query
// and returns an in-memory index answering the same question as FindSong.
func (t *Tx) PreloadSongs(ctx context.Context, titles []string) (*SongIndex, error) {
	index := NewSongIndex()
	if len(titles) == 0 {
		return index, nil
	}

	start := time.Now()
	rows, err := t.tx.QueryContext(ctx, preloadSongsSQL, pq.Array(titles))
	t.log.DBStatement("preload songs", time.Since(start), err)
	if err != nil {
		return nil, &DatabaseError{Op: "preload songs", Err: err}
	}
	defer rows.Close()

	for rows.Next() {
		var (
			match    SongMatch
			title    string
			name     string
			duration float64
		)
		if err := rows.Scan(&match.SongID, &match.ArtistID, &title, &name, &duration); err != nil {
			return nil, &DatabaseError{Op: "scan song", Err: err}
		}
		index.add(title, name, duration, match)
	}
	if err := rows.Err(); err != nil {
		return nil, &DatabaseError{Op: "iterate songs", Err: err}
	}

	return index, nil
}

type songKey struct {
	title    string
	artist   string
	duration uint64
}

func newSongKey(title, artist string, duration float64) songKey {
	return songKey{title: title, artist: artist, duration: math.Float64bits(duration)}
}

// SongIndex is an exact-match song lookup held in memory.
type SongIndex struct {
	matches map[songKey]SongMatch
}

// NewSongIndex returns an empty index.
func NewSongIndex() *SongIndex {
	return &SongIndex{matches: make(map[songKey]SongMatch)}
}

func (i *SongIndex) add(title, artist string, duration float64, match SongMatch) {
	key := newSongKey(title, artist, duration)
	if _, exists := i.matches[key]; exists {
		return
	}
	i.matches[key] = match
}

// Add registers a song; the first song added for a key wins.
func (i *SongIndex) Add(title, artist string, duration float64, match SongMatch) {
	i.add(title, artist, duration, match)
}

// Len returns the number of distinct keys held.
func (i *SongIndex) Len() int {
	return len(i.matches)
}

// FindSong implements the same contract as Tx.FindSong without a round trip.
func (i *SongIndex) FindSong(_ context.Context, title, artist string, duration float64) (SongMatch, bool, error) {
	match, ok := i.matches[newSongKey(title, artist, duration)]
	return match, ok, nil
}

func ignoreNoRows(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	return err
}
