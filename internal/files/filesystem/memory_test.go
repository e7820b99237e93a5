package filesystem

import (
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryFileSystem_ReadFile(t *testing.T) {
	mfs := NewMemoryFileSystem("/data")
	mfs.AddFile("song_data/A/TRAAAAW.json", `{"song_id": "S1"}`)

	content, err := mfs.ReadFile("/data/song_data/A/TRAAAAW.json")
	require.NoError(t, err)
	assert.Equal(t, `{"song_id": "S1"}`, string(content))

	// Relative paths resolve against the root
	content, err = mfs.ReadFile("song_data/A/TRAAAAW.json")
	require.NoError(t, err)
	assert.Equal(t, `{"song_id": "S1"}`, string(content))
}

func TestMemoryFileSystem_ReadFile_NotFound(t *testing.T) {
	mfs := NewMemoryFileSystem("/data")

	_, err := mfs.ReadFile("missing.json")
	require.Error(t, err)
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestMemoryFileSystem_Open_NotFound(t *testing.T) {
	mfs := NewMemoryFileSystem("/data")

	_, err := mfs.Open("/data/missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestMemoryFileSystem_Open_RejectsFile(t *testing.T) {
	mfs := NewMemoryFileSystem("/data")
	mfs.AddFile("events.json", "{}")

	_, err := mfs.Open("/data/events.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a directory")
}

func TestMemoryFileSystem_Walk_SortedOrder(t *testing.T) {
	mfs := NewMemoryFileSystem("/data")
	mfs.AddFile("log_data/2018/11/2018-11-13-events.json", "{}")
	mfs.AddFile("log_data/2018/11/2018-11-01-events.json", "{}")
	mfs.AddFile("log_data/2018/11/2018-11-09-events.json", "{}")

	dir, err := mfs.Open("/data/log_data")
	require.NoError(t, err)

	var paths []string
	err = dir.Walk(func(f File, walkErr error) error {
		require.NoError(t, walkErr)
		if !f.Info().IsDir() {
			paths = append(paths, f.Path())
		}
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"/data/log_data/2018/11/2018-11-01-events.json",
		"/data/log_data/2018/11/2018-11-09-events.json",
		"/data/log_data/2018/11/2018-11-13-events.json",
	}, paths)
}

func TestMemoryFileSystem_Walk_RelativePaths(t *testing.T) {
	mfs := NewMemoryFileSystem("/data")
	mfs.AddFile("song_data/A/B/track.json", "{}")

	dir, err := mfs.Open("/data/song_data")
	require.NoError(t, err)

	var rels []string
	err = dir.Walk(func(f File, walkErr error) error {
		require.NoError(t, walkErr)
		if !f.Info().IsDir() {
			rels = append(rels, f.RelativePath())
		}
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"A/B/track.json"}, rels)
}

func TestMemoryFileSystem_Stat(t *testing.T) {
	mfs := NewMemoryFileSystem("/data")
	mfs.AddFile("events.json", "abc")

	info, err := mfs.Stat("/data/events.json")
	require.NoError(t, err)
	assert.Equal(t, "events.json", info.Name())
	assert.Equal(t, int64(3), info.Size())
	assert.False(t, info.IsDir())

	info, err = mfs.Stat("/data")
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
