package etl

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"

	"github.com/vvka-141/songline/pkg/songline"
)

const songSelect = `
SELECT s.song_id, s.artist_id
FROM songs s
JOIN artists a ON s.artist_id = a.artist_id
WHERE s.title = $1 AND a.name = $2 AND s.duration = $3`

// resolvedPair caches one lookup outcome, hit or miss.
type resolvedPair struct {
	songID   *string
	artistID *string
}

// CatalogResolver matches play events against the persisted song catalog by
// exact title, artist name, and duration. Results are memoized for the run:
// activity logs repeat the same popular tracks, and the catalog does not
// change while a run is in flight.
//
// Not safe for concurrent use.
type CatalogResolver struct {
	conn  songline.DBConnection
	cache map[string]resolvedPair
}

// NewCatalogResolver creates a resolver querying through conn.
// Panics if conn is nil.
func NewCatalogResolver(conn songline.DBConnection) *CatalogResolver {
	if conn == nil {
		panic("conn cannot be nil")
	}
	return &CatalogResolver{
		conn:  conn,
		cache: make(map[string]resolvedPair),
	}
}

// Resolve looks up the song and artist ids for a play event. A miss returns
// (nil, nil, nil): most log events reference tracks outside the catalog.
func (r *CatalogResolver) Resolve(ctx context.Context, title, artistName string, duration float64) (*string, *string, error) {
	key := cacheKey(title, artistName, duration)
	if pair, ok := r.cache[key]; ok {
		return pair.songID, pair.artistID, nil
	}

	var songID, artistID string
	err := r.conn.QueryRow(ctx, songSelect, title, artistName, duration).Scan(&songID, &artistID)
	if errors.Is(err, pgx.ErrNoRows) {
		r.cache[key] = resolvedPair{}
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("song lookup failed for %q by %q: %w", title, artistName, err)
	}

	pair := resolvedPair{songID: &songID, artistID: &artistID}
	r.cache[key] = pair
	return pair.songID, pair.artistID, nil
}

func cacheKey(title, artistName string, duration float64) string {
	return title + "\x00" + artistName + "\x00" + strconv.FormatFloat(duration, 'f', -1, 64)
}

var _ songline.SongResolver = (*CatalogResolver)(nil)
