package events

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"sparkify/internal/records"
	"sparkify/internal/store"
)

// playNamespace scopes play ids so they cannot collide with other name-based UUIDs.
var playNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("sparkify:songplay"))

// TimeRow derives the time dimension for a play's start time. The timestamp is
// interpreted in UTC; week is the ISO 8601 week number.
func TimeRow(start time.Time) store.TimeRow {
	start = start.UTC()
	_, week := start.ISOWeek()
	return store.TimeRow{
		StartTime: start,
		Hour:      start.Hour(),
		Day:       start.Day(),
		Week:      week,
		Month:     int(start.Month()),
		Year:      start.Year(),
		Weekday:   start.Weekday().String(),
	}
}

// PlayID returns a stable identifier for a play event. It hashes the fields
// that identify an event in the log: when it happened, who played it, and the
// position within the listening session. Logs without itemInSession fall back
// to the event's ordinal among the file's plays.
func PlayID(ev records.Event, ordinal int) uuid.UUID {
	item := int64(ordinal)
	if ev.ItemInSession != nil {
		item = *ev.ItemInSession
	}
	name := fmt.Sprintf("%d|%s|%d|%d", ev.Ts, ev.UserID, ev.SessionID, item)
	return uuid.NewSHA1(playNamespace, []byte(name))
}

func userRow(ev records.Event) store.User {
	return store.User{
		UserID:    string(ev.UserID),
		FirstName: ev.FirstName,
		LastName:  ev.LastName,
		Gender:    ev.Gender,
		Level:     ev.Level,
	}
}

// timeRows keeps the first row for each distinct start_time.
func timeRows(plays []records.Event) []store.TimeRow {
	seen := make(map[records.Millis]struct{}, len(plays))
	rows := make([]store.TimeRow, 0, len(plays))
	for _, ev := range plays {
		if _, dup := seen[ev.Ts]; dup {
			continue
		}
		seen[ev.Ts] = struct{}{}
		rows = append(rows, TimeRow(ev.StartTime()))
	}
	return rows
}

// userRows keeps the first row for each distinct userId.
func userRows(plays []records.Event) []store.User {
	seen := make(map[records.UserID]struct{}, len(plays))
	users := make([]store.User, 0, len(plays))
	for _, ev := range plays {
		if _, dup := seen[ev.UserID]; dup {
			continue
		}
		seen[ev.UserID] = struct{}{}
		users = append(users, userRow(ev))
	}
	return users
}
