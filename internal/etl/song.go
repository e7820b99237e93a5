package etl

import (
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-json"

	"github.com/vvka-141/songline/internal/files/filesystem"
	"github.com/vvka-141/songline/pkg/songline"
)

// songRecord mirrors the flat JSON schema of a song metadata file. Each file
// holds exactly one object.
type songRecord struct {
	SongID          string   `json:"song_id"`
	Title           string   `json:"title"`
	Year            int      `json:"year"`
	Duration        float64  `json:"duration"`
	ArtistID        string   `json:"artist_id"`
	ArtistName      string   `json:"artist_name"`
	ArtistLocation  string   `json:"artist_location"`
	ArtistLatitude  *float64 `json:"artist_latitude"`
	ArtistLongitude *float64 `json:"artist_longitude"`
}

// SongFileExtractor parses song metadata files. Each successfully parsed
// file contributes one song row and one artist row to the store.
type SongFileExtractor struct {
	fsProvider filesystem.FileSystemProvider
	store      *Store
}

// NewSongFileExtractor creates an extractor that appends to store.
// Panics if any dependency is nil.
func NewSongFileExtractor(fsProvider filesystem.FileSystemProvider, store *Store) *SongFileExtractor {
	if fsProvider == nil {
		panic("fsProvider cannot be nil")
	}
	if store == nil {
		panic("store cannot be nil")
	}
	return &SongFileExtractor{fsProvider: fsProvider, store: store}
}

// ProcessFile reads one song metadata file and appends its song and artist
// rows. A malformed file appends nothing and returns an error wrapping
// ErrParse.
func (e *SongFileExtractor) ProcessFile(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := e.fsProvider.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read song file %s: %w", path, err)
	}

	var rec songRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return fmt.Errorf("%w: invalid JSON in song file %s: %v", songline.ErrParse, path, err)
	}

	if err := rec.validate(); err != nil {
		return fmt.Errorf("%w: song file %s: %v", songline.ErrParse, path, err)
	}

	e.store.AppendSong(songline.SongRow{
		SongID:   rec.SongID,
		Title:    rec.Title,
		ArtistID: rec.ArtistID,
		Year:     rec.Year,
		Duration: rec.Duration,
	})

	e.store.AppendArtist(songline.ArtistRow{
		ArtistID:  rec.ArtistID,
		Name:      rec.ArtistName,
		Location:  emptyToNil(rec.ArtistLocation),
		Latitude:  rec.ArtistLatitude,
		Longitude: rec.ArtistLongitude,
	})

	return nil
}

func (r *songRecord) validate() error {
	var missing []string
	if r.SongID == "" {
		missing = append(missing, "song_id")
	}
	if r.Title == "" {
		missing = append(missing, "title")
	}
	if r.ArtistID == "" {
		missing = append(missing, "artist_id")
	}
	if r.ArtistName == "" {
		missing = append(missing, "artist_name")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required fields: %s", strings.Join(missing, ", "))
	}
	return nil
}

// emptyToNil maps an absent-or-empty source string to nil so the storage
// layer writes a proper NULL instead of an empty string.
func emptyToNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

var _ songline.FileExtractor = (*SongFileExtractor)(nil)
