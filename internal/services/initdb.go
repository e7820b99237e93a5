package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/vvka-141/songline/internal/db"
	"github.com/vvka-141/songline/internal/schema"
	"github.com/vvka-141/songline/pkg/songline"
)

// InitDBService prepares the target database: it creates the database when
// missing, optionally drops and recreates it, and applies the destination
// table schema.
//
// Thread-Safety: NOT safe for concurrent Init() calls on the same instance.
type InitDBService struct {
	connectorFactory func(*songline.ConnectionConfig) (songline.Connector, error)
	approver         songline.Approver
	logger           songline.Logger
	dbManager        songline.DatabaseManager
	mgmtConnector    managementDBConnFunc
}

// NewInitDBService creates an InitDBService with all dependencies injected.
// Panics on nil dependencies.
func NewInitDBService(
	connectorFactory func(*songline.ConnectionConfig) (songline.Connector, error),
	approver songline.Approver,
	logger songline.Logger,
	dbManager songline.DatabaseManager,
) *InitDBService {
	if connectorFactory == nil {
		panic("connectorFactory cannot be nil")
	}
	if approver == nil {
		panic("approver cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	if dbManager == nil {
		panic("dbManager cannot be nil")
	}

	svc := &InitDBService{
		connectorFactory: connectorFactory,
		approver:         approver,
		logger:           logger,
		dbManager:        dbManager,
	}
	svc.mgmtConnector = svc.defaultMgmtConnector
	return svc
}

func (s *InitDBService) defaultMgmtConnector(ctx context.Context, connConfig *songline.ConnectionConfig, dbName string) (songline.DBConnection, func(), error) {
	cfg := *connConfig
	cfg.Database = dbName

	connector, err := s.connectorFactory(&cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create connector: %w", err)
	}

	pool, err := connector.Connect(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database '%s': %w", dbName, err)
	}
	return db.NewPoolAdapter(pool), func() { pool.Close() }, nil
}

// Init creates or recreates the target database and applies the schema.
func (s *InitDBService) Init(ctx context.Context, config songline.InitDBConfig) error {
	connConfig, err := s.validateAndParseConfig(&config)
	if err != nil {
		return err
	}

	if config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, config.Timeout)
		defer cancel()
	}

	managementDB := config.ManagementDatabase
	if managementDB == "" {
		managementDB = songline.DefaultManagementDB
	}

	if config.Overwrite {
		if err := validateOverwriteTarget(config.DatabaseName, managementDB); err != nil {
			return err
		}
	}

	s.logger.Verbose("Connecting to management database '%s'", managementDB)

	mgmtConn, cleanup, err := s.mgmtConnector(ctx, connConfig, managementDB)
	if err != nil {
		return err
	}
	defer cleanup()

	existed, err := s.ensureDatabase(ctx, mgmtConn, config)
	if err != nil {
		return err
	}

	targetConn, targetCleanup, err := s.mgmtConnector(ctx, connConfig, config.DatabaseName)
	if err != nil {
		return err
	}
	defer targetCleanup()

	s.logger.Verbose("Applying destination table schema")
	if err := schema.Apply(ctx, targetConn, schema.CreateStatements()); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}

	// A freshly created database has nothing to truncate.
	if config.Truncate && existed {
		if err := s.truncateTables(ctx, targetConn, config); err != nil {
			return err
		}
	}

	s.logger.Info("✓ Database '%s' is ready", config.DatabaseName)
	return nil
}

// truncateTables clears the destination tables after approval. Lighter reset
// than --overwrite: the database and its grants survive, only data goes.
func (s *InitDBService) truncateTables(ctx context.Context, conn songline.DBConnection, config songline.InitDBConfig) error {
	s.logger.Verbose("Requesting approval to truncate tables in '%s'", config.DatabaseName)
	approved, err := s.approver.RequestApproval(ctx, config.DatabaseName)
	if err != nil {
		return fmt.Errorf("approval request failed: %w", err)
	}
	if !approved {
		return fmt.Errorf("truncate of database '%s' was not approved: %w", config.DatabaseName, songline.ErrApprovalDenied)
	}

	s.logger.Info("Truncating destination tables in '%s'...", config.DatabaseName)
	if err := schema.Apply(ctx, conn, schema.TruncateStatements()); err != nil {
		return fmt.Errorf("failed to truncate tables: %w", err)
	}
	return nil
}

func (s *InitDBService) validateAndParseConfig(config *songline.InitDBConfig) (*songline.ConnectionConfig, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

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

// ensureDatabase creates the database when missing. When Overwrite is set
// and the database exists, it requests approval, drops it, and recreates it.
// The returned bool reports whether the database existed beforehand.
func (s *InitDBService) ensureDatabase(ctx context.Context, mgmtConn songline.DBConnection, config songline.InitDBConfig) (bool, error) {
	exists, err := s.dbManager.Exists(ctx, mgmtConn, config.DatabaseName)
	if err != nil {
		return false, fmt.Errorf("failed to check if database exists: %w", err)
	}

	if !exists {
		s.logger.Info("Database '%s' does not exist. Creating...", config.DatabaseName)
		if err := s.dbManager.Create(ctx, mgmtConn, config.DatabaseName); err != nil {
			return false, fmt.Errorf("failed to create database: %w", err)
		}
		return false, nil
	}

	if !config.Overwrite {
		s.logger.Verbose("Database '%s' already exists", config.DatabaseName)
		return true, nil
	}

	s.logger.Verbose("Database '%s' exists. Requesting approval for overwrite.", config.DatabaseName)
	approved, err := s.approver.RequestApproval(ctx, config.DatabaseName)
	if err != nil {
		return true, fmt.Errorf("approval request failed: %w", err)
	}
	if !approved {
		return true, fmt.Errorf("overwrite of database '%s' was not approved: %w", config.DatabaseName, songline.ErrApprovalDenied)
	}

	s.logger.Info("Dropping database '%s'...", config.DatabaseName)
	if err := s.dbManager.TerminateConnections(ctx, mgmtConn, config.DatabaseName); err != nil {
		return true, fmt.Errorf("failed to terminate connections: %w", err)
	}
	if err := s.dbManager.Drop(ctx, mgmtConn, config.DatabaseName); err != nil {
		return true, fmt.Errorf("failed to drop database: %w", err)
	}
	if err := s.dbManager.Create(ctx, mgmtConn, config.DatabaseName); err != nil {
		return true, fmt.Errorf("failed to recreate database: %w", err)
	}
	return true, nil
}

func validateOverwriteTarget(targetDB, managementDB string) error {
	if strings.EqualFold(targetDB, managementDB) {
		return fmt.Errorf(
			"cannot overwrite database %q: it is the management database used for server-level operations. "+
				"Target a different database: %w",
			targetDB, songline.ErrInvalidConfig,
		)
	}
	if songline.IsTemplateDatabase(targetDB) {
		return fmt.Errorf(
			"cannot overwrite database %q: PostgreSQL template databases cannot be dropped: %w",
			targetDB, songline.ErrInvalidConfig,
		)
	}
	return nil
}
