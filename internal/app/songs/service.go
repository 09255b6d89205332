package songs

import (
	"context"

	"sparkify/internal/logging"
	"sparkify/internal/records"
	"sparkify/internal/store"
)

// Store defines the persistence hooks for the song and artist dimensions.
type Store interface {
	InsertSong(ctx context.Context, song store.Song) error
	InsertArtist(ctx context.Context, artist store.Artist) error
}

// Stats counts the rows a single file produced.
type Stats struct {
	Songs   int
	Artists int
}

// Service loads song metadata files.
type Service interface {
	LoadFile(ctx context.Context, st Store, path string) (Stats, error)
}

type service struct {
	log *logging.Logger
}

// New constructs a song-file loader.
func New(logger *logging.Logger) Service {
	if logger == nil {
		logger = logging.Nop()
	}
	return &service{log: logger}
}

// LoadFile inserts every song of the file, then each distinct artist once.
// Committing is the caller's job.
func (s *service) LoadFile(ctx context.Context, st Store, path string) (Stats, error) {
	if err := ctx.Err(); err != nil {
		return Stats{}, err
	}

	recs, err := records.ReadSongs(path)
	if err != nil {
		return Stats{}, err
	}

	var stats Stats
	for _, rec := range recs {
		if err := st.InsertSong(ctx, songRow(rec)); err != nil {
			return stats, err
		}
		stats.Songs++
	}

	for _, artist := range artistRows(recs) {
		if err := st.InsertArtist(ctx, artist); err != nil {
			return stats, err
		}
		stats.Artists++
	}

	s.log.Zerolog().Debug().
		Str("file", path).
		Int("songs", stats.Songs).
		Int("artists", stats.Artists).
		Msg("song file loaded")

	return stats, nil
}

func songRow(rec records.Song) store.Song {
	return store.Song{
		SongID:   rec.SongID,
		Title:    rec.Title,
		ArtistID: rec.ArtistID,
		Year:     rec.Year,
		Duration: rec.Duration,
	}
}

// artistRows projects the artist columns and keeps the first record seen per artist_id.
func artistRows(recs []records.Song) []store.Artist {
	seen := make(map[string]struct{}, len(recs))
	artists := make([]store.Artist, 0, len(recs))
	for _, rec := range recs {
		if _, dup := seen[rec.ArtistID]; dup {
			continue
		}
		seen[rec.ArtistID] = struct{}{}
		artists = append(artists, store.Artist{
			ArtistID:  rec.ArtistID,
			Name:      rec.ArtistName,
			Location:  rec.ArtistLocation,
			Latitude:  rec.ArtistLatitude,
			Longitude: rec.ArtistLongitude,
		})
	}
	return artists
}
