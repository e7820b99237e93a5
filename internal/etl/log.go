package etl

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/vvka-141/songline/internal/files/filesystem"
	"github.com/vvka-141/songline/pkg/songline"
)

// nextSongPage identifies play events among the many page types (Home,
// Login, Logout, ...) present in the activity logs.
const nextSongPage = "NextSong"

// userID tolerates the three encodings the logging clients emit: a JSON
// number, a quoted number, and the empty string carried by pre-auth events
// (page Home, Login, ...). Numbers normalize to their canonical string form.
type userID string

func (u *userID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*u = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*u = userID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*u = userID(n.String())
	return nil
}

// logEvent mirrors one newline-delimited JSON record of an event-log file.
type logEvent struct {
	Artist    string  `json:"artist"`
	FirstName string  `json:"firstName"`
	Gender    string  `json:"gender"`
	LastName  string  `json:"lastName"`
	Length    float64 `json:"length"`
	Level     string  `json:"level"`
	Location  string  `json:"location"`
	Page      string  `json:"page"`
	SessionID int     `json:"sessionId"`
	Song      string  `json:"song"`
	Timestamp int64   `json:"ts"`
	UserAgent string  `json:"userAgent"`
	UserID    userID  `json:"userId"`
}

// LogFileExtractor parses newline-delimited event-log files. Only NextSong
// events contribute rows; each retained event yields one time row, one user
// row, and exactly one songplay row.
type LogFileExtractor struct {
	fsProvider filesystem.FileSystemProvider
	store      *Store
	resolver   songline.SongResolver
}

// NewLogFileExtractor creates an extractor that appends to store, resolving
// each play event against the song catalog via resolver.
// Panics if any dependency is nil.
func NewLogFileExtractor(fsProvider filesystem.FileSystemProvider, store *Store, resolver songline.SongResolver) *LogFileExtractor {
	if fsProvider == nil {
		panic("fsProvider cannot be nil")
	}
	if store == nil {
		panic("store cannot be nil")
	}
	if resolver == nil {
		panic("resolver cannot be nil")
	}
	return &LogFileExtractor{fsProvider: fsProvider, store: store, resolver: resolver}
}

// ProcessFile reads one event-log file and appends rows for its NextSong
// events. The whole file is parsed before any row is appended, so a
// malformed line mid-file contributes nothing: the returned error wraps
// ErrParse and the store is unchanged for this file.
func (e *LogFileExtractor) ProcessFile(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := e.fsProvider.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read log file %s: %w", path, err)
	}

	events, err := parseLogEvents(data)
	if err != nil {
		return fmt.Errorf("%w: log file %s: %v", songline.ErrParse, path, err)
	}

	var plays []logEvent
	for _, ev := range events {
		if ev.Page != nextSongPage {
			continue
		}
		// Only retained events are held to the strict schema; a play event
		// without a user cannot satisfy songplays.user_id NOT NULL.
		if ev.UserID == "" {
			return fmt.Errorf("%w: log file %s: play event at ts %d has no userId", songline.ErrParse, path, ev.Timestamp)
		}
		plays = append(plays, ev)
	}

	for _, ev := range plays {
		if err := e.appendEvent(ctx, ev); err != nil {
			return err
		}
	}

	return nil
}

// parseLogEvents decodes every non-blank line. All-or-nothing: one bad line
// fails the whole file.
func parseLogEvents(data []byte) ([]logEvent, error) {
	var events []logEvent

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var ev logEvent
		if err := json.Unmarshal(line, &ev); err != nil {
			return nil, fmt.Errorf("invalid JSON on line %d: %v", lineNo, err)
		}
		events = append(events, ev)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan lines: %v", err)
	}

	return events, nil
}

func (e *LogFileExtractor) appendEvent(ctx context.Context, ev logEvent) error {
	startTime := time.UnixMilli(ev.Timestamp).UTC()

	e.store.AppendTime(deriveTimeRow(startTime))

	e.store.AppendUser(songline.UserRow{
		UserID:    string(ev.UserID),
		FirstName: ev.FirstName,
		LastName:  ev.LastName,
		Gender:    ev.Gender,
		Level:     ev.Level,
	})

	songID, artistID, err := e.resolver.Resolve(ctx, ev.Song, ev.Artist, ev.Length)
	if err != nil {
		return fmt.Errorf("failed to resolve song %q by %q: %w", ev.Song, ev.Artist, err)
	}

	e.store.AppendSongPlay(songline.SongPlayRow{
		SongplayID: uuid.New(),
		StartTime:  startTime,
		UserID:     string(ev.UserID),
		Level:      ev.Level,
		SongID:     songID,
		ArtistID:   artistID,
		SessionID:  ev.SessionID,
		Location:   ev.Location,
		UserAgent:  ev.UserAgent,
	})

	return nil
}

// deriveTimeRow expands a timestamp into its calendar components. Week is
// the ISO 8601 week number; Weekday is 0=Monday through 6=Sunday.
func deriveTimeRow(t time.Time) songline.TimeRow {
	_, isoWeek := t.ISOWeek()
	return songline.TimeRow{
		StartTime: t,
		Hour:      t.Hour(),
		Day:       t.Day(),
		Week:      isoWeek,
		Month:     int(t.Month()),
		Year:      t.Year(),
		Weekday:   (int(t.Weekday()) + 6) % 7,
	}
}

var _ songline.FileExtractor = (*LogFileExtractor)(nil)
