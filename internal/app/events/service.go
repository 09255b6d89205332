package events

import (
	"context"

	"sparkify/internal/logging"
	"sparkify/internal/records"
	"sparkify/internal/store"
)

// SongLookup resolves a play to the song and artist it refers to. A miss is
// reported through ok, not as an error.
type SongLookup interface {
	FindSong(ctx context.Context, title, artist string, duration float64) (match store.SongMatch, ok bool, err error)
}

// Store defines the persistence hooks for the time, users, and songplays tables.
type Store interface {
	SongLookup
	InsertTime(ctx context.Context, row store.TimeRow) error
	InsertUser(ctx context.Context, user store.User) error
	InsertSongplay(ctx context.Context, play store.Songplay) error
}

// Preloader is implemented by stores that can fetch lookup candidates in bulk.
type Preloader interface {
	PreloadSongs(ctx context.Context, titles []string) (*store.SongIndex, error)
}

// LookupFactory chooses the SongLookup used for one file's plays.
type LookupFactory func(ctx context.Context, st Store, plays []records.Event) (SongLookup, error)

// DirectLookup queries the store once per play.
func DirectLookup(_ context.Context, st Store, _ []records.Event) (SongLookup, error) {
	return st, nil
}

// PreloadLookup fetches candidates for every distinct title in one query and
// answers from memory. Stores that cannot preload fall back to DirectLookup.
func PreloadLookup(ctx context.Context, st Store, plays []records.Event) (SongLookup, error) {
	p, ok := st.(Preloader)
	if !ok {
		return st, nil
	}

	seen := make(map[string]struct{}, len(plays))
	titles := make([]string, 0, len(plays))
	for _, ev := range plays {
		if _, dup := seen[ev.Song]; dup {
			continue
		}
		seen[ev.Song] = struct{}{}
		titles = append(titles, ev.Song)
	}

	index, err := p.PreloadSongs(ctx, titles)
	if err != nil {
		return nil, err
	}
	return index, nil
}

// Stats counts what a single file produced.
type Stats struct {
	Events   int
	Plays    int
	TimeRows int
	Users    int
	Matched  int
}

// Service loads event log files.
type Service interface {
	LoadFile(ctx context.Context, st Store, path string) (Stats, error)
}

type service struct {
	log    *logging.Logger
	lookup LookupFactory
}

// New constructs an event-log loader. A nil lookup means DirectLookup.
func New(logger *logging.Logger, lookup LookupFactory) Service {
	if logger == nil {
		logger = logging.Nop()
	}
	if lookup == nil {
		lookup = DirectLookup
	}
	return &service{log: logger, lookup: lookup}
}

// LoadFile inserts the time and user dimensions for the file's NextSong events,
// then one songplay per event. Committing is the caller's job.
func (s *service) LoadFile(ctx context.Context, st Store, path string) (Stats, error) {
	if err := ctx.Err(); err != nil {
		return Stats{}, err
	}

	evs, err := records.ReadEvents(path)
	if err != nil {
		return Stats{}, err
	}

	plays := make([]records.Event, 0, len(evs))
	for _, ev := range evs {
		if ev.IsPlay() {
			plays = append(plays, ev)
		}
	}

	stats := Stats{Events: len(evs)}

	for _, row := range timeRows(plays) {
		if err := st.InsertTime(ctx, row); err != nil {
			return stats, err
		}
		stats.TimeRows++
	}

	for _, user := range userRows(plays) {
		if err := st.InsertUser(ctx, user); err != nil {
			return stats, err
		}
		stats.Users++
	}

	lookup, err := s.lookup(ctx, st, plays)
	if err != nil {
		return stats, err
	}

	for i, ev := range plays {
		play := store.Songplay{
			PlayID:    PlayID(ev, i),
			StartTime: ev.StartTime(),
			UserID:    string(ev.UserID),
			Level:     ev.Level,
			SessionID: ev.SessionID,
			Location:  ev.Location,
			UserAgent: ev.UserAgent,
		}

		match, ok, err := lookup.FindSong(ctx, ev.Song, ev.Artist, ev.Length)
		if err != nil {
			return stats, err
		}
		if ok {
			songID, artistID := match.SongID, match.ArtistID
			play.SongID = &songID
			play.ArtistID = &artistID
			stats.Matched++
		}

		if err := st.InsertSongplay(ctx, play); err != nil {
			return stats, err
		}
		stats.Plays++
	}

	s.log.Zerolog().Debug().
		Str("file", path).
		Int("events", stats.Events).
		Int("plays", stats.Plays).
		Int("time_rows", stats.TimeRows).
		Int("users", stats.Users).
		Int("matched", stats.Matched).
		Msg("log file loaded")

	return stats, nil
}
