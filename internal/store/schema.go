package store

// Schema holds the star-schema DDL, one statement per entry. Every statement is
// idempotent so it can be applied on each run.
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS songs (
		song_id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		artist_id TEXT NOT NULL,
		year INTEGER,
		duration DOUBLE PRECISION NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_songs_title ON songs(title)`,
	`CREATE TABLE IF NOT EXISTS artists (
		artist_id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		location TEXT,
		latitude DOUBLE PRECISION,
		longitude DOUBLE PRECISION
	)`,
	`CREATE INDEX IF NOT EXISTS idx_artists_name ON artists(name)`,
	`CREATE TABLE IF NOT EXISTS time (
		start_time TIMESTAMP PRIMARY KEY,
		hour INTEGER NOT NULL,
		day INTEGER NOT NULL,
		week INTEGER NOT NULL,
		month INTEGER NOT NULL,
		year INTEGER NOT NULL,
		weekday TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS users (
		user_id TEXT PRIMARY KEY,
		first_name TEXT,
		last_name TEXT,
		gender TEXT,
		level TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS songplays (
		play_id UUID PRIMARY KEY,
		start_time TIMESTAMP NOT NULL,
		user_id TEXT NOT NULL,
		level TEXT NOT NULL,
		song_id TEXT,
		artist_id TEXT,
		session_id BIGINT NOT NULL,
		location TEXT,
		user_agent TEXT
	)`,
}
