package store

import "context"

// Song is a row of the songs dimension.
type Song struct {
	SongID   string  `db:"song_id"`
	Title    string  `db:"title"`
	ArtistID string  `db:"artist_id"`
	Year     int     `db:"year"`
	Duration float64 `db:"duration"`
}

// Artist is a row of the artists dimension.
type Artist struct {
	ArtistID  string   `db:"artist_id"`
	Name      string   `db:"name"`
	Location  string   `db:"location"`
	Latitude  *float64 `db:"latitude"`
	Longitude *float64 `db:"longitude"`
}

const insertSongSQL = `
	INSERT INTO songs (song_id, title, artist_id, year, duration)
	VALUES (:song_id, :title, :artist_id, :year, :duration)
	ON CONFLICT (song_id) DO NOTHING`

const insertArtistSQL = `
	INSERT INTO artists (artist_id, name, location, latitude, longitude)
	VALUES (:artist_id, :name, :location, :latitude, :longitude)
	ON CONFLICT (artist_id) DO NOTHING`

// InsertSong adds a song. A song_id that already exists is left untouched.
func (t *Tx) InsertSong(ctx context.Context, song Song) error {
	return t.namedExec(ctx, "insert song", insertSongSQL, song)
}

// InsertArtist adds an artist. An artist_id that already exists is left untouched.
func (t *Tx) InsertArtist(ctx context.Context, artist Artist) error {
	return t.namedExec(ctx, "insert artist", insertArtistSQL, artist)
}
