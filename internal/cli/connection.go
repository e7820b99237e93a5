package cli

import (
	"fmt"
	"os"

	"github.com/vvka-141/songline/internal/config"
	"github.com/vvka-141/songline/internal/db"
	"github.com/vvka-141/songline/pkg/songline"
)

// connectionFlags holds the connection-related flag values shared by the
// run and initdb commands.
type connectionFlags struct {
	connection     string
	host           string
	port           int
	username       string
	database       string
	sslMode        string
	azure          bool
	azureTenantID  string
	azureClientID  string
	aws            bool
	awsRegion      string
	google         bool
	googleInstance string
}

// resolvedConnection holds the resolved connection configuration.
type resolvedConnection struct {
	ConnConfig    *songline.ConnectionConfig
	MaintenanceDB string
	ConnStr       string
}

// connectionStringFromEnv returns the first non-empty connection string from
// SONGLINE_CONNECTION_STRING or DATABASE_URL environment variables.
func connectionStringFromEnv() string {
	if s := os.Getenv("SONGLINE_CONNECTION_STRING"); s != "" {
		return s
	}
	return os.Getenv("DATABASE_URL")
}

// hasEnvConnectionSource returns true if environment variables provide enough
// connection info to skip the interactive wizard.
func hasEnvConnectionSource() bool {
	if connectionStringFromEnv() != "" {
		return true
	}
	return os.Getenv("PGHOST") != "" && os.Getenv("PGDATABASE") != ""
}

// resolveConnectionFromFlags resolves connection configuration from flags,
// environment variables, and songline.yaml with PostgreSQL-standard
// precedence (flags > env > yaml > defaults).
func resolveConnectionFromFlags(
	flags connectionFlags,
	projectCfg *config.ProjectConfig,
) (*resolvedConnection, error) {
	connString := flags.connection
	if connString == "" {
		connString = connectionStringFromEnv()
	}

	granularFlags := &db.GranularConnFlags{
		Host:     flags.host,
		Port:     flags.port,
		Username: flags.username,
		Database: flags.database,
		SSLMode:  flags.sslMode,
	}

	azureFlags := &db.AzureFlags{
		Enabled:  flags.azure,
		TenantID: flags.azureTenantID,
		ClientID: flags.azureClientID,
	}

	awsFlags := &db.AWSFlags{
		Enabled: flags.aws,
		Region:  flags.awsRegion,
	}

	googleFlags := &db.GoogleFlags{
		Enabled:  flags.google,
		Instance: flags.googleInstance,
	}

	envVars := db.LoadFromEnvironment()

	connConfig, maintenanceDB, err := db.ResolveConnectionParams(
		connString,
		granularFlags,
		azureFlags,
		awsFlags,
		googleFlags,
		envVars,
		projectCfg,
	)
	if err != nil {
		return nil, err
	}

	return &resolvedConnection{
		ConnConfig:    connConfig,
		MaintenanceDB: maintenanceDB,
		ConnStr:       db.BuildConnectionString(connConfig),
	}, nil
}

// resolveTargetDatabase consolidates database precedence logic.
// The -d/--database flag always takes precedence over the connection string database.
func resolveTargetDatabase(
	flagDatabase string,
	connConfigDatabase string,
	commandName string,
	verbose bool,
) (string, error) {
	targetDB := flagDatabase

	if targetDB != "" {
		if verbose && connConfigDatabase != "" && targetDB != connConfigDatabase {
			fmt.Fprintf(os.Stderr, "[VERBOSE] Using --database flag (%s) instead of connection string database (%s)\n",
				targetDB, connConfigDatabase)
		}
	} else {
		targetDB = connConfigDatabase
	}

	if targetDB == "" {
		return "", fmt.Errorf("database name is required\n"+
			"Provide via:\n"+
			"  1. --database/-d flag: songline %s -d sparkifydb\n"+
			"  2. Connection string: songline %s --connection \"postgresql://user@host/sparkifydb\"\n"+
			"  3. Environment variable: export PGDATABASE=sparkifydb",
			commandName, commandName)
	}

	return targetDB, nil
}

// determineMaintenanceDB determines the management database for CREATE
// DATABASE operations. When the target database comes from the connection
// string (not -d flag) and it is not 'postgres', server-level operations
// must go through 'postgres' instead.
func determineMaintenanceDB(
	flagDatabase string,
	connStringDatabase string,
	currentMaintenanceDB string,
) string {
	if flagDatabase == "" && connStringDatabase != "" && connStringDatabase != "postgres" {
		return "postgres"
	}
	return currentMaintenanceDB
}

// printResolvedConnection logs the resolved connection parameters.
func printResolvedConnection(connConfig *songline.ConnectionConfig, maintenanceDB string) {
	fmt.Fprintf(os.Stderr, "[VERBOSE] Connection resolved:\n")
	fmt.Fprintf(os.Stderr, "  Host: %s\n", connConfig.Host)
	fmt.Fprintf(os.Stderr, "  Port: %d\n", connConfig.Port)
	fmt.Fprintf(os.Stderr, "  User: %s\n", connConfig.Username)
	fmt.Fprintf(os.Stderr, "  Target Database: %s\n", connConfig.Database)
	fmt.Fprintf(os.Stderr, "  Management Database: %s\n", maintenanceDB)
	fmt.Fprintf(os.Stderr, "  SSL Mode: %s\n", connConfig.SSLMode)
	fmt.Fprintf(os.Stderr, "  Auth Method: %s\n", connConfig.AuthMethod)
}
