package songline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunConfig_Validate(t *testing.T) {
	valid := func() RunConfig {
		return RunConfig{
			DataPath:         "/data",
			DatabaseName:     "sparkifydb",
			ConnectionString: "postgresql://student@localhost:5432/sparkifydb",
		}
	}

	t.Run("valid config passes", func(t *testing.T) {
		cfg := valid()
		require.NoError(t, cfg.Validate())
	})

	t.Run("defaults dataset subdirectories", func(t *testing.T) {
		cfg := valid()
		require.NoError(t, cfg.Validate())
		assert.Equal(t, DefaultSongSubdir, cfg.SongSubdir)
		assert.Equal(t, DefaultLogSubdir, cfg.LogSubdir)
	})

	t.Run("explicit subdirectories are kept", func(t *testing.T) {
		cfg := valid()
		cfg.SongSubdir = "songs"
		cfg.LogSubdir = "events"
		require.NoError(t, cfg.Validate())
		assert.Equal(t, "songs", cfg.SongSubdir)
		assert.Equal(t, "events", cfg.LogSubdir)
	})

	t.Run("missing required fields are all reported", func(t *testing.T) {
		cfg := RunConfig{}
		err := cfg.Validate()
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidConfig)
		assert.Contains(t, err.Error(), "DataPath")
		assert.Contains(t, err.Error(), "DatabaseName")
		assert.Contains(t, err.Error(), "ConnectionString")
	})

	t.Run("negative timeout rejected", func(t *testing.T) {
		cfg := valid()
		cfg.Timeout = -1 * time.Second
		assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
	})
}

func TestInitDBConfig_Validate(t *testing.T) {
	t.Run("force without overwrite rejected", func(t *testing.T) {
		cfg := InitDBConfig{
			DatabaseName:     "sparkifydb",
			ConnectionString: "postgresql://student@localhost/postgres",
			Force:            true,
		}
		assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
	})

	t.Run("force with overwrite allowed", func(t *testing.T) {
		cfg := InitDBConfig{
			DatabaseName:     "sparkifydb",
			ConnectionString: "postgresql://student@localhost/postgres",
			Overwrite:        true,
			Force:            true,
		}
		assert.NoError(t, cfg.Validate())
	})

	t.Run("force with truncate allowed", func(t *testing.T) {
		cfg := InitDBConfig{
			DatabaseName:     "sparkifydb",
			ConnectionString: "postgresql://student@localhost/postgres",
			Truncate:         true,
			Force:            true,
		}
		assert.NoError(t, cfg.Validate())
	})

	t.Run("overwrite with truncate rejected", func(t *testing.T) {
		cfg := InitDBConfig{
			DatabaseName:     "sparkifydb",
			ConnectionString: "postgresql://student@localhost/postgres",
			Overwrite:        true,
			Truncate:         true,
		}
		assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
	})
}

func TestAuthMethod_String(t *testing.T) {
	tests := []struct {
		method AuthMethod
		want   string
	}{
		{AuthMethodStandard, "Standard"},
		{AuthMethodAWSIAM, "AWS IAM"},
		{AuthMethodGoogleIAM, "Google IAM"},
		{AuthMethodAzureEntraID, "Azure Entra ID"},
		{AuthMethod(99), "Unknown(99)"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.method.String())
	}
}

func TestAuthMethod_IsValid(t *testing.T) {
	assert.True(t, AuthMethodStandard.IsValid())
	assert.True(t, AuthMethodAzureEntraID.IsValid())
	assert.False(t, AuthMethod(-1).IsValid())
	assert.False(t, AuthMethod(42).IsValid())
}

func TestTableColumnOrders(t *testing.T) {
	// Column order is the bulk-copy wire contract; a silent reorder here
	// would scramble data against the DDL.
	assert.Equal(t, []string{"song_id", "title", "artist_id", "year", "duration"}, SongsTable.Columns)
	assert.Equal(t, []string{"artist_id", "name", "location", "latitude", "longitude"}, ArtistsTable.Columns)
	assert.Equal(t, []string{"start_time", "hour", "day", "week", "month", "year", "weekday"}, TimeTable.Columns)
	assert.Equal(t, []string{"user_id", "first_name", "last_name", "gender", "level"}, UsersTable.Columns)
	assert.Equal(t, []string{"songplay_id", "start_time", "user_id", "level", "song_id", "artist_id", "session_id", "location", "user_agent"}, SongPlaysTable.Columns)
}
