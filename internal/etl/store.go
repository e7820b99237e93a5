package etl

import (
	"github.com/vvka-141/songline/pkg/songline"
)

// Store accumulates extracted rows for all five destination tables over the
// course of one run. Rows are appended in extraction order; deduplication
// happens later, at load time, so the store itself may hold duplicates.
//
// Not safe for concurrent use. Extraction is sequential per run.
type Store struct {
	songs     []songline.SongRow
	artists   []songline.ArtistRow
	times     []songline.TimeRow
	users     []songline.UserRow
	songPlays []songline.SongPlayRow
}

// NewStore creates an empty record store.
func NewStore() *Store {
	return &Store{}
}

func (s *Store) AppendSong(row songline.SongRow)         { s.songs = append(s.songs, row) }
func (s *Store) AppendArtist(row songline.ArtistRow)     { s.artists = append(s.artists, row) }
func (s *Store) AppendTime(row songline.TimeRow)         { s.times = append(s.times, row) }
func (s *Store) AppendUser(row songline.UserRow)         { s.users = append(s.users, row) }
func (s *Store) AppendSongPlay(row songline.SongPlayRow) { s.songPlays = append(s.songPlays, row) }

// Songs returns the accumulated song rows in extraction order.
func (s *Store) Songs() []songline.SongRow { return s.songs }

// Artists returns the accumulated artist rows in extraction order.
func (s *Store) Artists() []songline.ArtistRow { return s.artists }

// Times returns the accumulated time rows in extraction order.
func (s *Store) Times() []songline.TimeRow { return s.times }

// Users returns the accumulated user rows in extraction order.
func (s *Store) Users() []songline.UserRow { return s.users }

// SongPlays returns the accumulated songplay rows in extraction order.
func (s *Store) SongPlays() []songline.SongPlayRow { return s.songPlays }

// Counts reports per-table row counts before deduplication.
func (s *Store) Counts() map[string]int {
	return map[string]int{
		songline.SongsTable.Name:     len(s.songs),
		songline.ArtistsTable.Name:   len(s.artists),
		songline.TimeTable.Name:      len(s.times),
		songline.UsersTable.Name:     len(s.users),
		songline.SongPlaysTable.Name: len(s.songPlays),
	}
}
