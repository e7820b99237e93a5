package etl

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvka-141/songline/internal/files/filesystem"
	"github.com/vvka-141/songline/pkg/songline"
)

const songJSON = `{"num_songs": 1, "artist_id": "ARD7TVE1187B99BFB1", "artist_latitude": null, "artist_longitude": null, "artist_location": "California - LA", "artist_name": "Casual", "song_id": "SOMZWCG12A8C13C480", "title": "I Didn't Mean To", "duration": 218.93179, "year": 0}`

func TestSongFileExtractor_ProcessFile(t *testing.T) {
	mfs := filesystem.NewMemoryFileSystem("/data")
	mfs.AddFile("song_data/TRAAAAW.json", songJSON)

	store := NewStore()
	extractor := NewSongFileExtractor(mfs, store)

	err := extractor.ProcessFile(context.Background(), "/data/song_data/TRAAAAW.json")
	require.NoError(t, err)

	require.Len(t, store.Songs(), 1)
	song := store.Songs()[0]
	assert.Equal(t, "SOMZWCG12A8C13C480", song.SongID)
	assert.Equal(t, "I Didn't Mean To", song.Title)
	assert.Equal(t, "ARD7TVE1187B99BFB1", song.ArtistID)
	assert.Equal(t, 0, song.Year)
	assert.InDelta(t, 218.93179, song.Duration, 0.000001)

	require.Len(t, store.Artists(), 1)
	artist := store.Artists()[0]
	assert.Equal(t, "ARD7TVE1187B99BFB1", artist.ArtistID)
	assert.Equal(t, "Casual", artist.Name)
	require.NotNil(t, artist.Location)
	assert.Equal(t, "California - LA", *artist.Location)
	assert.Nil(t, artist.Latitude)
	assert.Nil(t, artist.Longitude)
}

func TestSongFileExtractor_CoordinatesPresent(t *testing.T) {
	mfs := filesystem.NewMemoryFileSystem("/data")
	mfs.AddFile("song.json", `{"artist_id": "AR1", "artist_latitude": 35.14968, "artist_longitude": -90.04892, "artist_location": "Memphis, TN", "artist_name": "Elena", "song_id": "S1", "title": "Setanta matins", "duration": 269.58322, "year": 2004}`)

	store := NewStore()
	extractor := NewSongFileExtractor(mfs, store)

	require.NoError(t, extractor.ProcessFile(context.Background(), "/data/song.json"))

	artist := store.Artists()[0]
	require.NotNil(t, artist.Latitude)
	require.NotNil(t, artist.Longitude)
	assert.InDelta(t, 35.14968, *artist.Latitude, 0.000001)
	assert.InDelta(t, -90.04892, *artist.Longitude, 0.000001)
}

func TestSongFileExtractor_EmptyLocationBecomesNil(t *testing.T) {
	mfs := filesystem.NewMemoryFileSystem("/data")
	mfs.AddFile("song.json", `{"artist_id": "AR1", "artist_location": "", "artist_name": "Unknown", "song_id": "S1", "title": "T", "duration": 1.5, "year": 0}`)

	store := NewStore()
	extractor := NewSongFileExtractor(mfs, store)

	require.NoError(t, extractor.ProcessFile(context.Background(), "/data/song.json"))
	assert.Nil(t, store.Artists()[0].Location)
}

func TestSongFileExtractor_InvalidJSON(t *testing.T) {
	mfs := filesystem.NewMemoryFileSystem("/data")
	mfs.AddFile("bad.json", `{"song_id": "S1",`)

	store := NewStore()
	extractor := NewSongFileExtractor(mfs, store)

	err := extractor.ProcessFile(context.Background(), "/data/bad.json")
	require.Error(t, err)
	assert.ErrorIs(t, err, songline.ErrParse)

	// A failed parse appends nothing
	assert.Empty(t, store.Songs())
	assert.Empty(t, store.Artists())
}

func TestSongFileExtractor_MissingRequiredFields(t *testing.T) {
	mfs := filesystem.NewMemoryFileSystem("/data")
	mfs.AddFile("incomplete.json", `{"title": "T", "duration": 1.0}`)

	store := NewStore()
	extractor := NewSongFileExtractor(mfs, store)

	err := extractor.ProcessFile(context.Background(), "/data/incomplete.json")
	require.Error(t, err)
	assert.ErrorIs(t, err, songline.ErrParse)
	assert.Contains(t, err.Error(), "song_id")
	assert.Contains(t, err.Error(), "artist_id")
	assert.Empty(t, store.Songs())
}

func TestSongFileExtractor_MissingFile(t *testing.T) {
	mfs := filesystem.NewMemoryFileSystem("/data")

	store := NewStore()
	extractor := NewSongFileExtractor(mfs, store)

	err := extractor.ProcessFile(context.Background(), "/data/missing.json")
	require.Error(t, err)
	assert.NotErrorIs(t, err, songline.ErrParse)
}

func TestNewSongFileExtractor_PanicsOnNilDeps(t *testing.T) {
	mfs := filesystem.NewMemoryFileSystem("/data")
	assert.Panics(t, func() { NewSongFileExtractor(nil, NewStore()) })
	assert.Panics(t, func() { NewSongFileExtractor(mfs, nil) })
}
