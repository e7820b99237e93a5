package etl

import (
	"context"
	"fmt"
	"strconv"

	"github.com/vvka-141/songline/pkg/songline"
)

// Loader finalizes an extraction run: dimension rows are deduplicated with
// last-occurrence-wins semantics, then all five tables are handed to the
// bulk writer in dependency order. Songplays are facts and never deduped.
type Loader struct {
	writer songline.BulkWriter
	logger songline.Logger
}

// NewLoader creates a loader. Panics if any dependency is nil.
func NewLoader(writer songline.BulkWriter, logger songline.Logger) *Loader {
	if writer == nil {
		panic("writer cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &Loader{writer: writer, logger: logger}
}

// Load writes the store's contents to the database. Tables load in a fixed
// order (songs, artists, time, users, songplays); the first failure aborts
// the sequence.
func (l *Loader) Load(ctx context.Context, store *Store) error {
	songs := dedupLastWins(store.Songs(), func(r songline.SongRow) string { return r.SongID })
	artists := dedupLastWins(store.Artists(), func(r songline.ArtistRow) string { return r.ArtistID })
	times := dedupLastWins(store.Times(), func(r songline.TimeRow) string {
		return strconv.FormatInt(r.StartTime.UnixMilli(), 10)
	})
	users := dedupLastWins(store.Users(), func(r songline.UserRow) string { return r.UserID })

	loads := []struct {
		table songline.Table
		rows  [][]any
	}{
		{songline.SongsTable, songRowValues(songs)},
		{songline.ArtistsTable, artistRowValues(artists)},
		{songline.TimeTable, timeRowValues(times)},
		{songline.UsersTable, userRowValues(users)},
		{songline.SongPlaysTable, songPlayRowValues(store.SongPlays())},
	}

	for _, load := range loads {
		written, err := l.writer.BulkLoad(ctx, load.table, load.rows)
		if err != nil {
			return fmt.Errorf("failed to load table %s: %w", load.table.Name, err)
		}
		l.logger.Verbose("Loaded %d rows into %s", written, load.table.Name)
	}

	return nil
}

// dedupLastWins removes duplicate keys keeping only the last occurrence of
// each, preserving the relative order of the survivors.
func dedupLastWins[T any](rows []T, key func(T) string) []T {
	lastIdx := make(map[string]int, len(rows))
	for i, r := range rows {
		lastIdx[key(r)] = i
	}

	out := make([]T, 0, len(lastIdx))
	for i, r := range rows {
		if lastIdx[key(r)] == i {
			out = append(out, r)
		}
	}
	return out
}

func songRowValues(rows []songline.SongRow) [][]any {
	out := make([][]any, len(rows))
	for i, r := range rows {
		out[i] = []any{r.SongID, r.Title, r.ArtistID, r.Year, r.Duration}
	}
	return out
}

func artistRowValues(rows []songline.ArtistRow) [][]any {
	out := make([][]any, len(rows))
	for i, r := range rows {
		out[i] = []any{r.ArtistID, r.Name, r.Location, r.Latitude, r.Longitude}
	}
	return out
}

func timeRowValues(rows []songline.TimeRow) [][]any {
	out := make([][]any, len(rows))
	for i, r := range rows {
		out[i] = []any{r.StartTime, r.Hour, r.Day, r.Week, r.Month, r.Year, r.Weekday}
	}
	return out
}

func userRowValues(rows []songline.UserRow) [][]any {
	out := make([][]any, len(rows))
	for i, r := range rows {
		out[i] = []any{r.UserID, r.FirstName, r.LastName, r.Gender, r.Level}
	}
	return out
}

func songPlayRowValues(rows []songline.SongPlayRow) [][]any {
	out := make([][]any, len(rows))
	for i, r := range rows {
		out[i] = []any{r.SongplayID, r.StartTime, r.UserID, r.Level, r.SongID, r.ArtistID, r.SessionID, r.Location, r.UserAgent}
	}
	return out
}
