package songline

import "time"

// Exit codes for semantic error classification.
// These follow Unix/GNU conventions:
//   - 0: Success
//   - 1: General error
//   - 2: CLI usage error (misuse of command line)
//   - 3+: Application-specific errors
const (
	ExitSuccess         = 0  // Run completed successfully
	ExitGeneralError    = 1  // Unknown or unclassified error
	ExitUsageError      = 2  // CLI usage error (missing args, invalid flags)
	ExitPanic           = 3  // Internal panic (unexpected crash)
	ExitConfigError     = 10 // Invalid configuration or parameters
	ExitConnectionError = 11 // Failed to connect to database
	ExitApprovalDenied  = 12 // User denied overwrite approval
	ExitParseError      = 13 // Malformed input file
	ExitLoadFailed      = 14 // Bulk load to a destination table failed
	ExitDataPathMissing = 15 // Data root or dataset subdirectory not found
)

const (
	// DefaultForceApprovalCountdown is the countdown duration before force approval proceeds.
	DefaultForceApprovalCountdown = 5 * time.Second

	// DefaultRetryInitialDelay is the default initial delay before the first retry attempt.
	DefaultRetryInitialDelay = 100 * time.Millisecond

	// DefaultRetryMaxDelay is the default maximum delay between retry attempts.
	DefaultRetryMaxDelay = 1 * time.Minute

	// DefaultRetryMaxAttempts is the default maximum number of retry attempts.
	DefaultRetryMaxAttempts = 3

	// DefaultManagementDB is the default database to connect to for management operations.
	DefaultManagementDB = "postgres"

	// DefaultSongSubdir is the dataset subdirectory holding song metadata files.
	DefaultSongSubdir = "song_data"

	// DefaultLogSubdir is the dataset subdirectory holding event-log files.
	DefaultLogSubdir = "log_data"

	// CopyDelimiter separates fields in the COPY text stream sent to PostgreSQL.
	CopyDelimiter = '|'

	// CopyNullToken is the token written for absent values in the COPY stream.
	// It is distinguishable from an empty string on the wire; in-memory rows
	// never carry it (absence is modeled as nil).
	CopyNullToken = "NULL"
)
