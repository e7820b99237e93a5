package songline

import "context"

// FileScanner discovers dataset files under a root directory.
//
// Implementations:
//   - scanner.Scanner: walks the OS (or an injected) filesystem
type FileScanner interface {
	// ScanJSONFiles recursively discovers *.json files under root and returns
	// their paths sorted lexicographically. Sorting makes the downstream
	// "last occurrence wins" dedup outcome deterministic across runs.
	//
	// Returns ErrDataPathNotFound (wrapped) if root does not exist.
	ScanJSONFiles(root string) ([]string, error)
}

// FileExtractor parses one input file and appends the resulting rows to the
// run's record store. A failed parse appends nothing for that file.
type FileExtractor interface {
	// ProcessFile extracts one input file. Malformed input returns an error
	// wrapping ErrParse; the extractor performs no internal recovery.
	ProcessFile(ctx context.Context, path string) error
}

// SongResolver matches a play event to the already-persisted song/artist
// catalog by title, artist name, and duration.
type SongResolver interface {
	// Resolve returns the matching song and artist ids, or (nil, nil, nil)
	// when no match exists. A miss is an expected outcome, not an error;
	// errors are reserved for query failures.
	Resolve(ctx context.Context, title, artistName string, duration float64) (songID, artistID *string, err error)
}

// BulkWriter persists finalized table row sets via a high-throughput
// bulk-copy path rather than row-by-row inserts.
type BulkWriter interface {
	// BulkLoad writes rows to the named destination table in column order.
	// A nil value is serialized as the null token; a write failure returns
	// an error wrapping ErrCopyFailed.
	BulkLoad(ctx context.Context, table Table, rows [][]any) (int64, error)
}
