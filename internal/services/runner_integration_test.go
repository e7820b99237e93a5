package services_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	testhelpers "github.com/vvka-141/songline/internal/testing"
	"github.com/vvka-141/songline/pkg/songline"
)

const sampleSong = `{"num_songs": 1, "artist_id": "ARD7TVE1187B99BFB1", "artist_latitude": null, "artist_longitude": null, "artist_location": "California - LA", "artist_name": "Casual", "song_id": "SOMZWCG12A8C13C480", "title": "I Didn't Mean To", "duration": 218.93179, "year": 0}`

func sampleLogEvent(page string, ts int64, userID int, song, artist string, length float64) string {
	return fmt.Sprintf(`{"artist":%q,"auth":"Logged In","firstName":"Ryan","gender":"M","itemInSession":0,"lastName":"Smith","length":%v,"level":"free","location":"San Jose-Sunnyvale-Santa Clara, CA","method":"PUT","page":%q,"registration":1541016707796.0,"sessionId":583,"song":%q,"status":200,"ts":%d,"userAgent":"\"Mozilla/5.0\"","userId":%d}`,
		artist, length, page, song, ts, userID)
}

func writeDataset(t *testing.T, songFiles, logFiles map[string]string) string {
	t.Helper()

	dataPath := t.TempDir()
	for _, sub := range []string{"song_data", "log_data"} {
		if err := os.MkdirAll(filepath.Join(dataPath, sub), 0755); err != nil {
			t.Fatal(err)
		}
	}
	for name, content := range songFiles {
		if err := os.WriteFile(filepath.Join(dataPath, "song_data", name), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	for name, content := range logFiles {
		if err := os.WriteFile(filepath.Join(dataPath, "log_data", name), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return dataPath
}

func runConfigFor(connString, dataPath, dbName string) songline.RunConfig {
	return songline.RunConfig{
		DataPath:           dataPath,
		DatabaseName:       dbName,
		ManagementDatabase: "postgres",
		ConnectionString:   connString,
		Timeout:            2 * time.Minute,
		Verbose:            testing.Verbose(),
	}
}

func TestRunService_Run_FullWorkflow(t *testing.T) {
	connString := testhelpers.RequireDatabase(t)

	ctx := context.Background()
	runner := testhelpers.NewTestRunner(t)

	const ts = int64(1542241826796)
	dataPath := writeDataset(t,
		map[string]string{"TRAZZZZ12AB0182345.json": sampleSong},
		map[string]string{"2018-11-15-events.json": sampleLogEvent("NextSong", ts, 26, "Some Song", "Some Artist", 201.5) + "\n" +
			sampleLogEvent("Home", ts+1000, 26, "", "", 0) + "\n"},
	)

	testDB := "songline_it_full"
	defer testhelpers.CleanupTestDB(t, connString, testDB)

	if err := runner.Run(ctx, runConfigFor(connString, dataPath, testDB)); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	pool := testhelpers.GetTestPool(t, connString, testDB)

	counts := map[string]int{}
	for _, table := range []string{"songs", "artists", "time", "users", "songplays"} {
		var n int
		if err := pool.QueryRow(ctx, "SELECT count(*) FROM "+table).Scan(&n); err != nil {
			t.Fatalf("count %s: %v", table, err)
		}
		counts[table] = n
	}

	for table, want := range map[string]int{"songs": 1, "artists": 1, "time": 1, "users": 1, "songplays": 1} {
		if counts[table] != want {
			t.Errorf("%s: got %d rows, want %d", table, counts[table], want)
		}
	}

	var title string
	var duration float64
	if err := pool.QueryRow(ctx, "SELECT title, duration FROM songs WHERE song_id = 'SOMZWCG12A8C13C480'").Scan(&title, &duration); err != nil {
		t.Fatalf("query songs: %v", err)
	}
	if title != "I Didn't Mean To" {
		t.Errorf("title = %q", title)
	}

	// The song catalog was empty during log extraction, so the lookup missed
	var songID, artistID *string
	if err := pool.QueryRow(ctx, "SELECT song_id, artist_id FROM songplays").Scan(&songID, &artistID); err != nil {
		t.Fatalf("query songplays: %v", err)
	}
	if songID != nil || artistID != nil {
		t.Errorf("expected unresolved songplay, got song_id=%v artist_id=%v", songID, artistID)
	}

	var userID, level string
	if err := pool.QueryRow(ctx, "SELECT user_id, level FROM users").Scan(&userID, &level); err != nil {
		t.Fatalf("query users: %v", err)
	}
	if userID != "26" || level != "free" {
		t.Errorf("users row = (%q, %q)", userID, level)
	}
}

func TestRunService_Run_ResolvesCatalogFromPriorRun(t *testing.T) {
	connString := testhelpers.RequireDatabase(t)

	ctx := context.Background()
	runner := testhelpers.NewTestRunner(t)

	testDB := "songline_it_resolve"
	defer testhelpers.CleanupTestDB(t, connString, testDB)

	// First run loads only the song catalog
	songOnly := writeDataset(t, map[string]string{"TRAZZZZ12AB0182345.json": sampleSong}, nil)
	if err := runner.Run(ctx, runConfigFor(connString, songOnly, testDB)); err != nil {
		t.Fatalf("catalog run failed: %v", err)
	}

	// Second run extracts logs against the now-populated catalog
	logOnly := writeDataset(t, nil, map[string]string{
		"2018-11-15-events.json": sampleLogEvent("NextSong", 1542241826796, 26, "I Didn't Mean To", "Casual", 218.93179),
	})
	if err := runner.Run(ctx, runConfigFor(connString, logOnly, testDB)); err != nil {
		t.Fatalf("log run failed: %v", err)
	}

	pool := testhelpers.GetTestPool(t, connString, testDB)

	var songID, artistID string
	err := pool.QueryRow(ctx, "SELECT song_id, artist_id FROM songplays").Scan(&songID, &artistID)
	if err != nil {
		t.Fatalf("query songplays: %v", err)
	}
	if songID != "SOMZWCG12A8C13C480" || artistID != "ARD7TVE1187B99BFB1" {
		t.Errorf("resolved pair = (%q, %q)", songID, artistID)
	}
}

func TestRunService_Run_CreateTablesResets(t *testing.T) {
	connString := testhelpers.RequireDatabase(t)

	ctx := context.Background()
	runner := testhelpers.NewTestRunner(t)

	testDB := "songline_it_reset"
	defer testhelpers.CleanupTestDB(t, connString, testDB)

	dataPath := writeDataset(t, map[string]string{"TRAZZZZ12AB0182345.json": sampleSong}, nil)

	cfg := runConfigFor(connString, dataPath, testDB)
	if err := runner.Run(ctx, cfg); err != nil {
		t.Fatalf("first run failed: %v", err)
	}

	// Re-running against a populated catalog needs a table reset; otherwise
	// the COPY would collide with the existing primary key.
	cfg.CreateTables = true
	if err := runner.Run(ctx, cfg); err != nil {
		t.Fatalf("second run failed: %v", err)
	}

	pool := testhelpers.GetTestPool(t, connString, testDB)
	var n int
	if err := pool.QueryRow(ctx, "SELECT count(*) FROM songs").Scan(&n); err != nil {
		t.Fatalf("count songs: %v", err)
	}
	if n != 1 {
		t.Errorf("songs: got %d rows, want 1", n)
	}
}

func TestRunService_Run_DedupLastWins(t *testing.T) {
	connString := testhelpers.RequireDatabase(t)

	ctx := context.Background()
	runner := testhelpers.NewTestRunner(t)

	testDB := "songline_it_dedup"
	defer testhelpers.CleanupTestDB(t, connString, testDB)

	// The same user appears twice, upgrading from free to paid mid-session.
	// The later occurrence must win.
	logs := sampleLogEvent("NextSong", 1542241826796, 26, "A", "B", 100) + "\n"
	logs += fmt.Sprintf(`{"artist":"B","auth":"Logged In","firstName":"Ryan","gender":"M","itemInSession":1,"lastName":"Smith","length":120.0,"level":"paid","location":"San Jose-Sunnyvale-Santa Clara, CA","method":"PUT","page":"NextSong","registration":1541016707796.0,"sessionId":583,"song":"A","status":200,"ts":%d,"userAgent":"\"Mozilla/5.0\"","userId":26}`, int64(1542241926796)) + "\n"

	dataPath := writeDataset(t, nil, map[string]string{"2018-11-15-events.json": logs})

	if err := runner.Run(ctx, runConfigFor(connString, dataPath, testDB)); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	pool := testhelpers.GetTestPool(t, connString, testDB)

	var userCount, playCount int
	if err := pool.QueryRow(ctx, "SELECT count(*) FROM users").Scan(&userCount); err != nil {
		t.Fatal(err)
	}
	if err := pool.QueryRow(ctx, "SELECT count(*) FROM songplays").Scan(&playCount); err != nil {
		t.Fatal(err)
	}
	if userCount != 1 {
		t.Errorf("users: got %d rows, want 1 (deduplicated)", userCount)
	}
	if playCount != 2 {
		t.Errorf("songplays: got %d rows, want 2 (facts never deduplicated)", playCount)
	}

	var level string
	if err := pool.QueryRow(ctx, "SELECT level FROM users WHERE user_id = '26'").Scan(&level); err != nil {
		t.Fatal(err)
	}
	if level != "paid" {
		t.Errorf("level = %q, want paid (last occurrence wins)", level)
	}
}
