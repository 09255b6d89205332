package records

// Song is one line of a song metadata file: a track plus its artist.
type Song struct {
	NumSongs        int      `json:"num_songs"`
	ArtistID        string   `json:"artist_id" validate:"required"`
	ArtistLatitude  *float64 `json:"artist_latitude" validate:"omitempty,latitude"`
	ArtistLongitude *float64 `json:"artist_longitude" validate:"omitempty,longitude"`
	ArtistLocation  string   `json:"artist_location"`
	ArtistName      string   `json:"artist_name"`
	SongID          string   `json:"song_id" validate:"required"`
	Title           string   `json:"title"`
	Duration        float64  `json:"duration" validate:"gte=0"`
	Year            int      `json:"year" validate:"gte=0"`
}

var songKeys = []string{
	"num_songs", "artist_id", "artist_latitude", "artist_longitude", "artist_location",
	"artist_name", "song_id", "title", "duration", "year",
}

// ReadSongs decodes every record of a song file. An empty file yields no records.
func ReadSongs(path string) ([]Song, error) {
	var songs []Song
	err := readLines(path, func(line int, data []byte) error {
		var s Song
		if err := decodeLine(path, line, data, songKeys, &s); err != nil {
			return err
		}
		songs = append(songs, s)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return songs, nil
}
