package cli

import (
	"testing"
)

// TestResolveTargetDatabase tests the database precedence logic.
// The -d/--database flag should always take precedence over connection string database.
func TestResolveTargetDatabase(t *testing.T) {
	tests := []struct {
		name               string
		flagDatabase       string
		connConfigDatabase string
		commandName        string
		verbose            bool
		wantDatabase       string
		wantErr            bool
	}{
		{
			name:               "flag database takes precedence over connection string",
			flagDatabase:       "sparkifydb",
			connConfigDatabase: "postgres",
			commandName:        "run",
			wantDatabase:       "sparkifydb",
		},
		{
			name:               "use connection string database when flag not provided",
			flagDatabase:       "",
			connConfigDatabase: "sparkifydb",
			commandName:        "run",
			wantDatabase:       "sparkifydb",
		},
		{
			name:               "error when no database provided",
			flagDatabase:       "",
			connConfigDatabase: "",
			commandName:        "run",
			wantErr:            true,
		},
		{
			name:               "flag database overrides connection string (same name)",
			flagDatabase:       "sparkifydb",
			connConfigDatabase: "sparkifydb",
			commandName:        "initdb",
			wantDatabase:       "sparkifydb",
		},
		{
			name:               "verbose logging when flag overrides connection string",
			flagDatabase:       "override_db",
			connConfigDatabase: "original_db",
			commandName:        "initdb",
			verbose:            true,
			wantDatabase:       "override_db",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotDatabase, err := resolveTargetDatabase(
				tt.flagDatabase,
				tt.connConfigDatabase,
				tt.commandName,
				tt.verbose,
			)

			if (err != nil) != tt.wantErr {
				t.Errorf("resolveTargetDatabase() error = %v, wantErr %v", err, tt.wantErr)
				return
			}

			if gotDatabase != tt.wantDatabase {
				t.Errorf("resolveTargetDatabase() = %v, want %v", gotDatabase, tt.wantDatabase)
			}
		})
	}
}

// TestDetermineMaintenanceDB tests the maintenance database selection logic.
func TestDetermineMaintenanceDB(t *testing.T) {
	tests := []struct {
		name                 string
		flagDatabase         string
		connStringDatabase   string
		currentMaintenanceDB string
		wantMaintenanceDB    string
	}{
		{
			name:                 "use postgres when database comes from connection string and is not postgres",
			flagDatabase:         "",
			connStringDatabase:   "sparkifydb",
			currentMaintenanceDB: "sparkifydb",
			wantMaintenanceDB:    "postgres",
		},
		{
			name:                 "keep current when connection string database is postgres",
			flagDatabase:         "",
			connStringDatabase:   "postgres",
			currentMaintenanceDB: "postgres",
			wantMaintenanceDB:    "postgres",
		},
		{
			name:                 "keep current when target comes from the -d flag",
			flagDatabase:         "sparkifydb",
			connStringDatabase:   "postgres",
			currentMaintenanceDB: "postgres",
			wantMaintenanceDB:    "postgres",
		},
		{
			name:                 "keep current when nothing specifies a database",
			flagDatabase:         "",
			connStringDatabase:   "",
			currentMaintenanceDB: "postgres",
			wantMaintenanceDB:    "postgres",
		},
		{
			name:                 "explicit maintenance db survives flag usage",
			flagDatabase:         "sparkifydb",
			connStringDatabase:   "",
			currentMaintenanceDB: "admin",
			wantMaintenanceDB:    "admin",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := determineMaintenanceDB(tt.flagDatabase, tt.connStringDatabase, tt.currentMaintenanceDB)
			if got != tt.wantMaintenanceDB {
				t.Errorf("determineMaintenanceDB() = %v, want %v", got, tt.wantMaintenanceDB)
			}
		})
	}
}

func TestConnectionStringFromEnv(t *testing.T) {
	t.Run("prefers SONGLINE_CONNECTION_STRING", func(t *testing.T) {
		t.Setenv("SONGLINE_CONNECTION_STRING", "postgresql://a@h/one")
		t.Setenv("DATABASE_URL", "postgresql://b@h/two")
		if got := connectionStringFromEnv(); got != "postgresql://a@h/one" {
			t.Errorf("connectionStringFromEnv() = %q", got)
		}
	})

	t.Run("falls back to DATABASE_URL", func(t *testing.T) {
		t.Setenv("SONGLINE_CONNECTION_STRING", "")
		t.Setenv("DATABASE_URL", "postgresql://b@h/two")
		if got := connectionStringFromEnv(); got != "postgresql://b@h/two" {
			t.Errorf("connectionStringFromEnv() = %q", got)
		}
	})

	t.Run("empty when neither is set", func(t *testing.T) {
		t.Setenv("SONGLINE_CONNECTION_STRING", "")
		t.Setenv("DATABASE_URL", "")
		if got := connectionStringFromEnv(); got != "" {
			t.Errorf("connectionStringFromEnv() = %q", got)
		}
	})
}

func TestHasEnvConnectionSource(t *testing.T) {
	clearConnEnv := func(t *testing.T) {
		for _, name := range []string{"SONGLINE_CONNECTION_STRING", "DATABASE_URL", "PGHOST", "PGDATABASE"} {
			t.Setenv(name, "")
		}
	}

	t.Run("false with clean environment", func(t *testing.T) {
		clearConnEnv(t)
		if hasEnvConnectionSource() {
			t.Error("expected false with no connection env vars")
		}
	})

	t.Run("true with connection string", func(t *testing.T) {
		clearConnEnv(t)
		t.Setenv("SONGLINE_CONNECTION_STRING", "postgresql://u@h/db")
		if !hasEnvConnectionSource() {
			t.Error("expected true with SONGLINE_CONNECTION_STRING")
		}
	})

	t.Run("true with PGHOST and PGDATABASE", func(t *testing.T) {
		clearConnEnv(t)
		t.Setenv("PGHOST", "db.internal")
		t.Setenv("PGDATABASE", "sparkifydb")
		if !hasEnvConnectionSource() {
			t.Error("expected true with PGHOST+PGDATABASE")
		}
	})

	t.Run("false with only PGHOST", func(t *testing.T) {
		clearConnEnv(t)
		t.Setenv("PGHOST", "db.internal")
		if hasEnvConnectionSource() {
			t.Error("expected false with PGHOST alone")
		}
	})
}
