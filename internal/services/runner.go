// Package services contains the orchestration layer: the run service that
// drives a full extract-and-load pass, and the initdb service that prepares
// the target database.
package services

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vvka-141/songline/internal/db"
	"github.com/vvka-141/songline/internal/etl"
	"github.com/vvka-141/songline/internal/files/filesystem"
	"github.com/vvka-141/songline/internal/schema"
	"github.com/vvka-141/songline/pkg/songline"
)

type managementDBConnFunc func(ctx context.Context, connConfig *songline.ConnectionConfig, dbName string) (songline.DBConnection, func(), error)

type targetPoolFunc func(ctx context.Context, connConfig *songline.ConnectionConfig, dbName string) (*pgxpool.Pool, error)

// RunService drives one complete ETL run: discover dataset files, extract
// them into an in-memory store, and bulk-load the result into PostgreSQL in
// a single transaction.
//
// Thread-Safety: NOT safe for concurrent Run() calls on the same instance.
// Create separate instances for concurrent runs.
type RunService struct {
	connectorFactory func(*songline.ConnectionConfig) (songline.Connector, error)
	logger           songline.Logger
	scanner          songline.FileScanner
	fsProvider       filesystem.FileSystemProvider
	dbManager        songline.DatabaseManager
	mgmtConnector    managementDBConnFunc
	targetConnector  targetPoolFunc
}

// NewRunService creates a RunService with all dependencies injected.
//
// Panics on nil dependencies: those are programmer errors that should fail
// loudly at startup. Runtime conditions (bad config, unreachable server,
// missing data paths) are returned as errors from Run instead.
func NewRunService(
	connectorFactory func(*songline.ConnectionConfig) (songline.Connector, error),
	logger songline.Logger,
	scanner songline.FileScanner,
	fsProvider filesystem.FileSystemProvider,
	dbManager songline.DatabaseManager,
) *RunService {
	if connectorFactory == nil {
		panic("connectorFactory cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	if scanner == nil {
		panic("scanner cannot be nil")
	}
	if fsProvider == nil {
		panic("fsProvider cannot be nil")
	}
	if dbManager == nil {
		panic("dbManager cannot be nil")
	}

	svc := &RunService{
		connectorFactory: connectorFactory,
		logger:           logger,
		scanner:          scanner,
		fsProvider:       fsProvider,
		dbManager:        dbManager,
	}
	svc.mgmtConnector = svc.defaultMgmtConnector
	svc.targetConnector = svc.defaultTargetConnector
	return svc
}

func (s *RunService) defaultMgmtConnector(ctx context.Context, connConfig *songline.ConnectionConfig, dbName string) (songline.DBConnection, func(), error) {
	pool, err := s.defaultTargetConnector(ctx, connConfig, dbName)
	if err != nil {
		return nil, nil, err
	}
	return db.NewPoolAdapter(pool), func() { pool.Close() }, nil
}

func (s *RunService) defaultTargetConnector(ctx context.Context, connConfig *songline.ConnectionConfig, dbName string) (*pgxpool.Pool, error) {
	cfg := *connConfig
	cfg.Database = dbName

	connector, err := s.connectorFactory(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connector: %w", err)
	}

	pool, err := connector.Connect(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database '%s': %w", dbName, err)
	}
	return pool, nil
}

// Run executes one ETL run using the provided configuration.
func (s *RunService) Run(ctx context.Context, config songline.RunConfig) error {
	connConfig, err := s.validateAndParseConfig(&config)
	if err != nil {
		return err
	}

	if config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, config.Timeout)
		defer cancel()
	}

	if err := s.ensureDatabaseExists(ctx, connConfig, config); err != nil {
		return fmt.Errorf("failed to ensure database exists: %w", err)
	}

	pool, err := s.targetConnector(ctx, connConfig, config.DatabaseName)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := s.prepareTables(ctx, pool, config); err != nil {
		return err
	}

	store := etl.NewStore()
	resolver := etl.NewCatalogResolver(db.NewPoolAdapter(pool))

	songRoot := filepath.Join(config.DataPath, config.SongSubdir)
	if err := s.extractDataset(ctx, etl.NewSongFileExtractor(s.fsProvider, store), songRoot); err != nil {
		return err
	}

	logRoot := filepath.Join(config.DataPath, config.LogSubdir)
	if err := s.extractDataset(ctx, etl.NewLogFileExtractor(s.fsProvider, store, resolver), logRoot); err != nil {
		return err
	}

	s.logExtractionSummary(store)

	if err := s.loadStore(ctx, pool, store); err != nil {
		return err
	}

	s.logger.Info("✓ Load completed successfully")
	return nil
}

// validateAndParseConfig validates the run configuration and parses the
// connection string, applying the configured auth method and credentials.
func (s *RunService) validateAndParseConfig(config *songline.RunConfig) (*songline.ConnectionConfig, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	s.logger.Verbose("Starting run against database '%s'", config.DatabaseName)
	s.logger.Verbose("Data path: %s", config.DataPath)

	connConfig, err := db.ParseConnectionString(config.ConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	if connConfig.AppName == "" {
		connConfig.AppName = "songline"
	}

	connConfig.AuthMethod = config.AuthMethod
	connConfig.AzureTenantID = config.AzureTenantID
	connConfig.AzureClientID = config.AzureClientID
	connConfig.AzureClientSecret = config.AzureClientSecret

	return connConfig, nil
}

// ensureDatabaseExists creates the target database when it is missing.
func (s *RunService) ensureDatabaseExists(ctx context.Context, connConfig *songline.ConnectionConfig, config songline.RunConfig) error {
	managementDB := config.ManagementDatabase
	if managementDB == "" {
		managementDB = songline.DefaultManagementDB
	}

	s.logger.Verbose("Connecting to management database '%s'", managementDB)

	dbConn, cleanup, err := s.mgmtConnector(ctx, connConfig, managementDB)
	if err != nil {
		return err
	}
	defer cleanup()

	exists, err := s.dbManager.Exists(ctx, dbConn, config.DatabaseName)
	if err != nil {
		return fmt.Errorf("failed to check if database exists: %w", err)
	}
	if exists {
		return nil
	}

	s.logger.Info("Database '%s' does not exist. Creating...", config.DatabaseName)
	if err := s.dbManager.Create(ctx, dbConn, config.DatabaseName); err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	return nil
}

// prepareTables recreates the destination tables when requested; otherwise
// it only ensures they exist so a fresh database works without initdb.
func (s *RunService) prepareTables(ctx context.Context, pool *pgxpool.Pool, config songline.RunConfig) error {
	conn := db.NewPoolAdapter(pool)

	if config.CreateTables {
		s.logger.Verbose("Recreating destination tables")
		if err := schema.Apply(ctx, conn, schema.DropStatements()); err != nil {
			return fmt.Errorf("failed to drop tables: %w", err)
		}
	}

	if err := schema.Apply(ctx, conn, schema.CreateStatements()); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}
	return nil
}

// extractDataset scans root for JSON files and runs the extractor over each
// in sorted order, reporting progress as it goes. The first failure aborts
// the run.
func (s *RunService) extractDataset(ctx context.Context, extractor songline.FileExtractor, root string) error {
	files, err := s.scanner.ScanJSONFiles(root)
	if err != nil {
		return err
	}

	s.logger.Info("%d files found in %s", len(files), root)

	for i, file := range files {
		if err := extractor.ProcessFile(ctx, file); err != nil {
			return err
		}
		s.logger.Info("%d/%d files processed.", i+1, len(files))
	}

	return nil
}

// logExtractionSummary reports pre-dedup row counts after extraction.
func (s *RunService) logExtractionSummary(store *etl.Store) {
	counts := store.Counts()
	s.logger.Verbose("Extracted %d songs, %d artists, %d time, %d users, %d songplays",
		counts[songline.SongsTable.Name], counts[songline.ArtistsTable.Name],
		counts[songline.TimeTable.Name], counts[songline.UsersTable.Name],
		counts[songline.SongPlaysTable.Name])
}

// loadStore bulk-loads the store inside a single transaction so either
// every table lands or none do.
func (s *RunService) loadStore(ctx context.Context, pool *pgxpool.Pool, store *etl.Store) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	writer := etl.NewCopyWriter(tx.Conn())
	loader := etl.NewLoader(writer, s.logger)

	if err := loader.Load(ctx, store); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
