package store

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// TimeRow is a row of the time dimension; every column derives from StartTime.
type TimeRow struct {
	StartTime time.Time `db:"start_time"`
	Hour      int       `db:"hour"`
	Day       int       `db:"day"`
	Week      int       `db:"week"`
	Month     int       `db:"month"`
	Year      int       `db:"year"`
	Weekday   string    `db:"weekday"`
}

// User is a row of the users dimension.
type User struct {
	UserID    string `db:"user_id"`
	FirstName string `db:"first_name"`
	LastName  string `db:"last_name"`
	Gender    string `db:"gender"`
	Level     string `db:"level"`
}

// Songplay is a row of the fact table. SongID and ArtistID are nil when the
// play could not be matched to a loaded song.
type Songplay struct {
	PlayID    uuid.UUID `db:"play_id"`
	StartTime time.Time `db:"start_time"`
	UserID    string    `db:"user_id"`
	Level     string    `db:"level"`
	SongID    *string   `db:"song_id"`
	ArtistID  *string   `db:"artist_id"`
	SessionID int64     `db:"session_id"`
	Location  string    `db:"location"`
	UserAgent string    `db:"user_agent"`
}

const insertTimeSQL = `
	INSERT INTO time (start_time, hour, day, week, month, year, weekday)
	VALUES (:start_time, :hour, :day, :week, :month, :year, :weekday)
	ON CONFLICT (start_time) DO NOTHING`

const insertUserSQL = `
	INSERT INTO users (user_id, first_name, last_name, gender, level)
	VALUES (:user_id, :first_name, :last_name, :gender, :level)
	ON CONFLICT (user_id) DO NOTHING`

const insertSongplaySQL = `
	INSERT INTO songplays (play_id, start_time, user_id, level, song_id, artist_id, session_id, location, user_agent)
	VALUES (:play_id, :start_time, :user_id, :level, :song_id, :artist_id, :session_id, :location, :user_agent)
	ON CONFLICT (play_id) DO NOTHING`

// InsertTime adds a time row. Existing start_time values are left untouched.
func (t *Tx) InsertTime(ctx context.Context, row TimeRow) error {
	return t.namedExec(ctx, "insert time", insertTimeSQL, row)
}

// InsertUser adds a user. Existing user_id values are left untouched.
func (t *Tx) InsertUser(ctx context.Context, user User) error {
	return t.namedExec(ctx, "insert user", insertUserSQL, user)
}

// InsertSongplay adds a fact row. Replaying the same event is a no-op because
// play_id is derived from the event's content.
func (t *Tx) InsertSongplay(ctx context.Context, play Songplay) error {
	return t.namedExec(ctx, "insert songplay", insertSongplaySQL, play)
}
