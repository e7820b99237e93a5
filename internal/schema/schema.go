// Package schema holds the DDL for the five destination tables and the
// statement sets used by the initdb workflow.
//
// songplay_id is generated client-side (uuid) during extraction, so the
// fact table carries no serial column and bulk COPY supplies every column.
package schema

import (
	"context"
	"fmt"

	"github.com/vvka-141/songline/pkg/songline"
)

const (
	createSongs = `CREATE TABLE IF NOT EXISTS songs (
	song_id varchar PRIMARY KEY,
	title varchar NOT NULL,
	artist_id varchar NOT NULL,
	year int,
	duration numeric
)`

	createArtists = `CREATE TABLE IF NOT EXISTS artists (
	artist_id varchar PRIMARY KEY,
	name varchar NOT NULL,
	location varchar,
	latitude double precision,
	longitude double precision
)`

	createTime = `CREATE TABLE IF NOT EXISTS time (
	start_time timestamp PRIMARY KEY,
	hour int NOT NULL,
	day int NOT NULL,
	week int NOT NULL,
	month int NOT NULL,
	year int NOT NULL,
	weekday int NOT NULL
)`

	createUsers = `CREATE TABLE IF NOT EXISTS users (
	user_id varchar PRIMARY KEY,
	first_name varchar,
	last_name varchar,
	gender varchar,
	level varchar
)`

	createSongPlays = `CREATE TABLE IF NOT EXISTS songplays (
	songplay_id uuid PRIMARY KEY,
	start_time timestamp NOT NULL,
	user_id varchar NOT NULL,
	level varchar,
	song_id varchar,
	artist_id varchar,
	session_id int,
	location varchar,
	user_agent varchar
)`
)

// CreateStatements returns the CREATE TABLE statements in dependency order:
// dimensions first, the fact table last.
func CreateStatements() []string {
	return []string{createSongs, createArtists, createTime, createUsers, createSongPlays}
}

// DropStatements returns DROP TABLE statements, fact table first so the
// conceptual foreign keys disappear before their targets.
func DropStatements() []string {
	stmts := make([]string, 0, len(allTables()))
	for i := len(allTables()) - 1; i >= 0; i-- {
		stmts = append(stmts, fmt.Sprintf("DROP TABLE IF EXISTS %s", allTables()[i].Name))
	}
	return stmts
}

// TruncateStatements returns TRUNCATE statements for all destination tables.
// The bulk loader assumes clean targets; truncation makes a re-run idempotent.
func TruncateStatements() []string {
	stmts := make([]string, 0, len(allTables()))
	for _, t := range allTables() {
		stmts = append(stmts, fmt.Sprintf("TRUNCATE TABLE %s", t.Name))
	}
	return stmts
}

func allTables() []songline.Table {
	return []songline.Table{
		songline.SongsTable,
		songline.ArtistsTable,
		songline.TimeTable,
		songline.UsersTable,
		songline.SongPlaysTable,
	}
}

// Apply executes the given statements in order on the connection.
func Apply(ctx context.Context, conn songline.DBConnection, statements []string) error {
	for _, stmt := range statements {
		if _, err := conn.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement failed: %w", err)
		}
	}
	return nil
}
