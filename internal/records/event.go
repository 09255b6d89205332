package records

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/goccy/go-json"
)

// PageNextSong marks an event that represents a song play.
const PageNextSong = "NextSong"

// UserID accepts both string and numeric JSON values.
type UserID string

// UnmarshalJSON implements json.Unmarshaler.
func (u *UserID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*u = ""
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*u = UserID(s)
		return nil
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("userId: %w", err)
		}
		*u = UserID(n.String())
		return nil
	}
}

// Millis is an epoch-milliseconds timestamp. Integral JSON numbers are
// accepted, including float spellings such as 1541990258796.0.
type Millis int64

// UnmarshalJSON implements json.Unmarshaler.
func (m *Millis) UnmarshalJSON(data []byte) error {
	s := string(bytes.TrimSpace(data))
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		*m = Millis(n)
		return nil
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) || math.Abs(f) > maxExactMillis {
		return &fieldError{field: "ts", reason: fmt.Sprintf("must be an integer of epoch milliseconds, got %s", s)}
	}
	*m = Millis(int64(f))
	return nil
}

// maxExactMillis bounds float timestamps to the range float64 holds exactly.
const maxExactMillis = 1 << 53

// Event is one line of an application event log.
type Event struct {
	Artist        string  `json:"artist"`
	Auth          string  `json:"auth"`
	FirstName     string  `json:"firstName"`
	Gender        string  `json:"gender"`
	ItemInSession *int64  `json:"itemInSession"`
	LastName      string  `json:"lastName"`
	Length        float64 `json:"length"`
	Level         string  `json:"level" validate:"required_if=Page NextSong"`
	Location      string  `json:"location"`
	Method        string  `json:"method"`
	Page          string  `json:"page" validate:"required"`
	Registration  float64 `json:"registration"`
	SessionID     int64   `json:"sessionId"`
	Song          string  `json:"song"`
	Status        int     `json:"status"`
	Ts            Millis  `json:"ts" validate:"gt=0"`
	UserAgent     string  `json:"userAgent"`
	UserID        UserID  `json:"userId" validate:"required_if=Page NextSong"`
}

var eventKeys = []string{
	"page", "ts", "userId", "firstName", "lastName", "gender", "level", "song", "artist",
	"length", "sessionId", "location", "userAgent",
}

// IsPlay reports whether the event is a song play.
func (e Event) IsPlay() bool {
	return e.Page == PageNextSong
}

// StartTime converts ts (epoch milliseconds) to a UTC timestamp.
func (e Event) StartTime() time.Time {
	return time.UnixMilli(int64(e.Ts)).UTC()
}

// ReadEvents decodes every record of an event log. A file without records is a
// SchemaError since there is no first record to describe the log's shape.
func ReadEvents(path string) ([]Event, error) {
	var events []Event
	err := readLines(path, func(line int, data []byte) error {
		var ev Event
		if err := decodeLine(path, line, data, eventKeys, &ev); err != nil {
			return err
		}
		events = append(events, ev)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, &SchemaError{Path: path, Reason: "file contains no records"}
	}
	return events, nil
}
