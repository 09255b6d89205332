package records

import (
	"bufio"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const songLine = `{"num_songs": 1, "artist_id": "ARD7TVE1187B99BFB1", "artist_latitude": null, "artist_longitude": null, "artist_location": "California - LA", "artist_name": "Casual", "song_id": "SOMZWCG12A8C13C480", "title": "I Didn't Mean To", "duration": 218.93179, "year": 0}`

const playLine = `{"artist":"Pavement","auth":"Logged In","firstName":"Sylvie","gender":"F","itemInSession":0,"lastName":"Cruz","length":99.16036,"level":"free","location":"Washington-Arlington-Alexandria, DC-VA-MD-WV","method":"PUT","page":"NextSong","registration":1540266185796.0,"sessionId":345,"song":"Mercy:The Laundromat","status":200,"ts":1541990258796,"userAgent":"Mozilla/5.0","userId":"10"}`

const homeLine = `{"artist":null,"auth":"Logged In","firstName":"Sylvie","gender":"F","itemInSession":1,"lastName":"Cruz","length":null,"level":"free","location":"Washington-Arlington-Alexandria, DC-VA-MD-WV","method":"GET","page":"Home","registration":1540266185796.0,"sessionId":345,"song":null,"status":200,"ts":1541990264796,"userAgent":"Mozilla/5.0","userId":"10"}`

func writeLines(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.json")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")), 0o644))
	return path
}

func TestReadSongs(t *testing.T) {
	path := writeLines(t, songLine)

	songs, err := ReadSongs(path)
	require.NoError(t, err)
	require.Len(t, songs, 1)

	s := songs[0]
	assert.Equal(t, "SOMZWCG12A8C13C480", s.SongID)
	assert.Equal(t, "ARD7TVE1187B99BFB1", s.ArtistID)
	assert.Equal(t, "Casual", s.ArtistName)
	assert.Equal(t, 218.93179, s.Duration)
	assert.Nil(t, s.ArtistLatitude)
	assert.Nil(t, s.ArtistLongitude)
}

func TestReadSongsWithCoordinates(t *testing.T) {
	path := writeLines(t, `{"song_id":"S1","title":"T","artist_id":"A1","artist_name":"N","artist_location":"L","artist_latitude":1.0,"artist_longitude":2.0,"duration":200.0,"year":2000,"num_songs":1}`)

	songs, err := ReadSongs(path)
	require.NoError(t, err)
	require.Len(t, songs, 1)
	require.NotNil(t, songs[0].ArtistLatitude)
	assert.Equal(t, 1.0, *songs[0].ArtistLatitude)
	assert.Equal(t, 2.0, *songs[0].ArtistLongitude)
	assert.Equal(t, 2000, songs[0].Year)
}

func TestReadSongsSkipsBlankLines(t *testing.T) {
	path := writeLines(t, songLine, "", "   ", songLine)

	songs, err := ReadSongs(path)
	require.NoError(t, err)
	assert.Len(t, songs, 2)
}

func TestReadSongsEmptyFile(t *testing.T) {
	path := writeLines(t)

	songs, err := ReadSongs(path)
	require.NoError(t, err)
	assert.Empty(t, songs)
}

func TestReadSongsErrors(t *testing.T) {
	tests := []struct {
		name      string
		line      string
		wantParse bool
		field     string
	}{
		{name: "malformed json", line: `{"song_id": "S1",`, wantParse: true},
		{name: "not an object", line: `["S1"]`, wantParse: true},
		{name: "missing key", line: `{"num_songs":1,"artist_id":"A","artist_latitude":null,"artist_longitude":null,"artist_location":"","artist_name":"N","song_id":"S","title":"T","duration":1.0}`, field: "year"},
		{name: "empty song id", line: `{"num_songs":1,"artist_id":"A","artist_latitude":null,"artist_longitude":null,"artist_location":"","artist_name":"N","song_id":"","title":"T","duration":1.0,"year":0}`, field: "song_id"},
		{name: "latitude out of range", line: `{"num_songs":1,"artist_id":"A","artist_latitude":123.0,"artist_longitude":null,"artist_location":"","artist_name":"N","song_id":"S","title":"T","duration":1.0,"year":0}`, field: "artist_latitude"},
		{name: "wrong type", line: `{"num_songs":1,"artist_id":"A","artist_latitude":null,"artist_longitude":null,"artist_location":"","artist_name":"N","song_id":"S","title":"T","duration":"long","year":0}`},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			path := writeLines(t, songLine, tc.line)

			_, err := ReadSongs(path)
			require.Error(t, err)

			if tc.wantParse {
				var parseErr *ParseError
				require.True(t, errors.As(err, &parseErr), "expected ParseError, got %v", err)
				assert.Equal(t, 2, parseErr.Line)
				return
			}

			var schemaErr *SchemaError
			require.True(t, errors.As(err, &schemaErr), "expected SchemaError, got %v", err)
			assert.Equal(t, 2, schemaErr.Line)
			if tc.field != "" {
				assert.Equal(t, tc.field, schemaErr.Field)
			}
		})
	}
}

func TestReadEvents(t *testing.T) {
	path := writeLines(t, playLine, homeLine)

	events, err := ReadEvents(path)
	require.NoError(t, err)
	require.Len(t, events, 2)

	play := events[0]
	assert.True(t, play.IsPlay())
	assert.Equal(t, UserID("10"), play.UserID)
	assert.Equal(t, int64(345), play.SessionID)
	assert.Equal(t, "Mercy:The Laundromat", play.Song)
	require.NotNil(t, play.ItemInSession)
	assert.Equal(t, int64(0), *play.ItemInSession)

	home := events[1]
	assert.False(t, home.IsPlay())
	assert.Empty(t, home.Song)
	assert.Zero(t, home.Length)
}

func TestReadEventsNumericUserID(t *testing.T) {
	line := strings.Replace(playLine, `"userId":"10"`, `"userId":10`, 1)
	path := writeLines(t, line)

	events, err := ReadEvents(path)
	require.NoError(t, err)
	assert.Equal(t, UserID("10"), events[0].UserID)
}

func TestReadEventsLoggedOutNonPlay(t *testing.T) {
	line := strings.Replace(homeLine, `"userId":"10"`, `"userId":""`, 1)
	line = strings.Replace(line, `"level":"free"`, `"level":""`, 1)
	path := writeLines(t, line)

	events, err := ReadEvents(path)
	require.NoError(t, err)
	assert.Equal(t, UserID(""), events[0].UserID)
}

func TestReadEventsEmptyFile(t *testing.T) {
	path := writeLines(t, "", "")

	_, err := ReadEvents(path)

	var schemaErr *SchemaError
	require.True(t, errors.As(err, &schemaErr), "expected SchemaError, got %v", err)
	assert.Equal(t, 0, schemaErr.Line)
}

func TestReadEventsErrors(t *testing.T) {
	tests := []struct {
		name      string
		line      string
		wantParse bool
		field     string
	}{
		{name: "malformed first line", line: `not json`, wantParse: true},
		{name: "string ts", line: strings.Replace(playLine, `"ts":1541990258796`, `"ts":"yesterday"`, 1), field: "ts"},
		{name: "fractional ts", line: strings.Replace(playLine, `"ts":1541990258796`, `"ts":1541990258796.5`, 1), field: "ts"},
		{name: "null ts", line: strings.Replace(playLine, `"ts":1541990258796`, `"ts":null`, 1), field: "ts"},
		{name: "negative ts", line: strings.Replace(playLine, `"ts":1541990258796`, `"ts":-5`, 1), field: "ts"},
		{name: "missing ts", line: strings.Replace(playLine, `"ts":1541990258796,`, ``, 1), field: "ts"},
		{name: "missing userAgent", line: strings.Replace(playLine, `"userAgent":"Mozilla/5.0",`, ``, 1), field: "userAgent"},
		{name: "play without user", line: strings.Replace(playLine, `"userId":"10"`, `"userId":""`, 1), field: "userId"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			path := writeLines(t, tc.line, playLine)

			_, err := ReadEvents(path)
			require.Error(t, err)

			if tc.wantParse {
				var parseErr *ParseError
				require.True(t, errors.As(err, &parseErr), "expected ParseError, got %v", err)
				assert.Equal(t, 1, parseErr.Line)
				return
			}

			var schemaErr *SchemaError
			require.True(t, errors.As(err, &schemaErr), "expected SchemaError, got %v", err)
			assert.Equal(t, 1, schemaErr.Line)
			if tc.field != "" {
				assert.Equal(t, tc.field, schemaErr.Field)
			}
		})
	}
}

func TestReadEventsIntegralFloatTs(t *testing.T) {
	line := strings.Replace(playLine, `"ts":1541990258796`, `"ts":1541990258796.0`, 1)
	path := writeLines(t, line)

	events, err := ReadEvents(path)
	require.NoError(t, err)
	assert.Equal(t, Millis(1541990258796), events[0].Ts)
}

func TestReadEventsLineTooLong(t *testing.T) {
	long := strings.Replace(playLine, `"userAgent":"Mozilla/5.0"`, `"userAgent":"`+strings.Repeat("x", maxLineSize)+`"`, 1)
	path := writeLines(t, playLine, long)

	_, err := ReadEvents(path)

	var parseErr *ParseError
	require.True(t, errors.As(err, &parseErr), "expected ParseError, got %v", err)
	assert.Equal(t, 2, parseErr.Line)
	assert.ErrorIs(t, err, bufio.ErrTooLong)
}

func TestStartTimeIsUTC(t *testing.T) {
	ev := Event{Ts: 1541121934796}

	ts := ev.StartTime()
	assert.Equal(t, "2018-11-02T01:25:34.796Z", ts.Format("2006-01-02T15:04:05.000Z07:00"))
}

func TestSchemaErrorMessage(t *testing.T) {
	err := &SchemaError{Path: "a.json", Line: 3, Field: "ts", Reason: "is missing"}
	assert.Equal(t, `schema a.json:3: field "ts" is missing`, err.Error())

	fileErr := &SchemaError{Path: "a.json", Reason: "file contains no records"}
	assert.Equal(t, "schema a.json: file contains no records", fileErr.Error())
}
