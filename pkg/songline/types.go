package songline

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SongRow is one row of the songs dimension table.
// Keyed by SongID; on duplicate keys the last-extracted row wins.
type SongRow struct {
	SongID   string
	Title    string
	ArtistID string
	Year     int
	Duration float64
}

// ArtistRow is one row of the artists dimension table.
// Location and coordinates are frequently absent in the source metadata;
// nil means the value was missing (or empty) upstream.
type ArtistRow struct {
	ArtistID  string
	Name      string
	Location  *string
	Latitude  *float64
	Longitude *float64
}

// TimeRow is one row of the time dimension table.
// Every field besides StartTime is derived purely from StartTime.
type TimeRow struct {
	StartTime time.Time
	Hour      int
	Day       int
	Week      int // ISO week-of-year
	Month     int
	Year      int
	Weekday   int // 0 = Monday .. 6 = Sunday
}

// UserRow is one row of the users dimension table.
// UserID is always the canonical string form of the source identifier,
// even when the source encodes it as a number. Level may change over a
// user's lifetime; the last-seen value is retained after dedup.
type UserRow struct {
	UserID    string
	FirstName string
	LastName  string
	Gender    string
	Level     string
}

// SongPlayRow is one row of the songplays fact table. Fact rows are never
// deduplicated: multiplicity reflects real play events.
//
// SongID and ArtistID are either both set (catalog lookup succeeded) or
// both nil (no match — the common case). Partial resolution does not occur.
type SongPlayRow struct {
	SongplayID uuid.UUID
	StartTime  time.Time
	UserID     string
	Level      string
	SongID     *string
	ArtistID   *string
	SessionID  int
	Location   string
	UserAgent  string
}

// Table describes a destination table and its column order for bulk loading.
type Table struct {
	Name    string
	Columns []string
}

// Destination tables in load order. Songs and artists load before songplays
// so the fact table's conceptual foreign keys land after their targets.
var (
	SongsTable     = Table{Name: "songs", Columns: []string{"song_id", "title", "artist_id", "year", "duration"}}
	ArtistsTable   = Table{Name: "artists", Columns: []string{"artist_id", "name", "location", "latitude", "longitude"}}
	TimeTable      = Table{Name: "time", Columns: []string{"start_time", "hour", "day", "week", "month", "year", "weekday"}}
	UsersTable     = Table{Name: "users", Columns: []string{"user_id", "first_name", "last_name", "gender", "level"}}
	SongPlaysTable = Table{Name: "songplays", Columns: []string{"songplay_id", "start_time", "user_id", "level", "song_id", "artist_id", "session_id", "location", "user_agent"}}
)

// RunConfig contains all parameters needed for one ETL run.
type RunConfig struct {
	// DataPath is the root directory containing the song and log datasets
	DataPath string

	// SongSubdir and LogSubdir are the dataset subdirectories under DataPath
	SongSubdir string
	LogSubdir  string

	// DatabaseName is the target database name
	DatabaseName string

	// ManagementDatabase is the database to connect to for server-level
	// operations (CREATE DATABASE). Typically "postgres".
	ManagementDatabase string

	// ConnectionString is the PostgreSQL connection string (URI or ADO.NET format)
	ConnectionString string

	// CreateTables recreates the destination tables before loading
	CreateTables bool

	// Timeout is the global timeout for the entire run
	Timeout time.Duration

	// Verbose enables detailed logging
	Verbose bool

	// AuthMethod indicates the authentication mechanism to use
	AuthMethod AuthMethod

	// Azure Entra ID authentication parameters (used when AuthMethod is AuthMethodAzureEntraID)
	AzureTenantID     string
	AzureClientID     string
	AzureClientSecret string
}

// Validate checks if the RunConfig has all required fields and valid values.
// It returns a multi-error if multiple validation failures occur.
func (c *RunConfig) Validate() error {
	var errs []error

	if c.DataPath == "" {
		errs = append(errs, fmt.Errorf("DataPath is required: %w", ErrInvalidConfig))
	}

	if c.DatabaseName == "" {
		errs = append(errs, fmt.Errorf("DatabaseName is required: %w", ErrInvalidConfig))
	}

	if c.ConnectionString == "" {
		errs = append(errs, fmt.Errorf("ConnectionString is required: %w", ErrInvalidConfig))
	}

	if c.SongSubdir == "" {
		c.SongSubdir = DefaultSongSubdir
	}
	if c.LogSubdir == "" {
		c.LogSubdir = DefaultLogSubdir
	}

	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout cannot be negative: %w", ErrInvalidConfig))
	}

	return errors.Join(errs...)
}

// InitDBConfig contains all parameters needed to prepare the target database.
type InitDBConfig struct {
	// DatabaseName is the target database name
	DatabaseName string

	// ManagementDatabase is the database to connect to for server-level operations
	ManagementDatabase string

	// ConnectionString is the PostgreSQL connection string (URI or ADO.NET format)
	ConnectionString string

	// Overwrite enables the destructive drop/recreate workflow
	Overwrite bool

	// Truncate clears the destination tables without dropping the database
	Truncate bool

	// Force bypasses interactive approval for destructive operations
	Force bool

	// Timeout is the global timeout for the operation
	Timeout time.Duration

	// Verbose enables detailed logging
	Verbose bool

	// AuthMethod indicates the authentication mechanism to use
	AuthMethod AuthMethod

	// Azure Entra ID authentication parameters (used when AuthMethod is AuthMethodAzureEntraID)
	AzureTenantID     string
	AzureClientID     string
	AzureClientSecret string
}

// Validate checks if the InitDBConfig has all required fields and valid values.
func (c *InitDBConfig) Validate() error {
	var errs []error

	if c.DatabaseName == "" {
		errs = append(errs, fmt.Errorf("DatabaseName is required: %w", ErrInvalidConfig))
	}

	if c.ConnectionString == "" {
		errs = append(errs, fmt.Errorf("ConnectionString is required: %w", ErrInvalidConfig))
	}

	if c.Overwrite && c.Truncate {
		errs = append(errs, fmt.Errorf("overwrite and truncate are mutually exclusive: %w", ErrInvalidConfig))
	}

	// Force only makes sense with a destructive operation
	if c.Force && !c.Overwrite && !c.Truncate {
		errs = append(errs, fmt.Errorf("force flag requires overwrite or truncate to be enabled: %w", ErrInvalidConfig))
	}

	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout cannot be negative: %w", ErrInvalidConfig))
	}

	return errors.Join(errs...)
}

// ConnectionConfig represents parsed connection parameters.
type ConnectionConfig struct {
	Host     string
	Port     int
	Database string
	Username string
	Password string
	SSLMode  string

	// AuthMethod indicates the authentication mechanism to use
	AuthMethod AuthMethod

	// Additional connection parameters
	AppName          string
	ConnectTimeout   time.Duration
	AdditionalParams map[string]string

	// AWS IAM authentication parameters (used when AuthMethod is AuthMethodAWSIAM)
	AWSRegion string

	// Google Cloud SQL instance connection name, format project:region:instance
	// (used when AuthMethod is AuthMethodGoogleIAM)
	GoogleInstance string

	// Azure Entra ID authentication parameters (used when AuthMethod is AuthMethodAzureEntraID)
	// If all three are provided, Service Principal authentication is used.
	// If none are provided, DefaultAzureCredential chain is used (env vars, managed identity, CLI, etc.)
	AzureTenantID     string
	AzureClientID     string
	AzureClientSecret string
}

// AuthMethod represents the type of authentication to use.
type AuthMethod int

const (
	AuthMethodStandard     AuthMethod = iota // Username/Password
	AuthMethodAWSIAM                         // AWS IAM Database Authentication
	AuthMethodGoogleIAM                      // Google Cloud SQL IAM
	AuthMethodAzureEntraID                   // Azure Active Directory (Entra ID)
)

// String returns a human-readable string representation of the AuthMethod.
func (a AuthMethod) String() string {
	switch a {
	case AuthMethodStandard:
		return "Standard"
	case AuthMethodAWSIAM:
		return "AWS IAM"
	case AuthMethodGoogleIAM:
		return "Google IAM"
	case AuthMethodAzureEntraID:
		return "Azure Entra ID"
	default:
		return fmt.Sprintf("Unknown(%d)", a)
	}
}

// IsValid returns true if the AuthMethod is a valid, defined value.
func (a AuthMethod) IsValid() bool {
	return a >= AuthMethodStandard && a <= AuthMethodAzureEntraID
}
