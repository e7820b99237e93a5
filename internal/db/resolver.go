package db

import (
	"fmt"
	"os"
	"strconv"

	"github.com/vvka-141/songline/internal/config"
	"github.com/vvka-141/songline/pkg/songline"
)

// GranularConnFlags represents connection parameters from CLI flags.
// These follow PostgreSQL standard flag conventions (-h, -p, -U, -d).
//
// Note: Password is NOT included as a CLI flag for security reasons.
// Use one of these methods instead:
//  1. $PGPASSWORD environment variable
//  2. .pgpass file (PostgreSQL standard)
//  3. Connection string with embedded password
type GranularConnFlags struct {
	Host     string
	Port     int
	Username string
	Database string
	SSLMode  string
}

// IsEmpty returns true if no connection-related granular flags were provided by the user.
// Database is excluded because it can override the database in a connection string.
func (g *GranularConnFlags) IsEmpty() bool {
	return g.Host == "" && g.Port == 0 && g.Username == "" && g.SSLMode == ""
}

// AzureFlags represents Azure Entra ID CLI flags.
// These override the corresponding AZURE_* environment variables.
// Client secret is NOT a flag for security reasons; use AZURE_CLIENT_SECRET.
type AzureFlags struct {
	Enabled  bool
	TenantID string // Overrides AZURE_TENANT_ID
	ClientID string // Overrides AZURE_CLIENT_ID
}

// IsEmpty returns true if no Azure flags were provided.
func (a *AzureFlags) IsEmpty() bool {
	return a == nil || (!a.Enabled && a.TenantID == "" && a.ClientID == "")
}

// AWSFlags represents AWS IAM database authentication CLI flags.
type AWSFlags struct {
	Enabled bool
	Region  string // Overrides AWS_REGION
}

// IsEmpty returns true if no AWS flags were provided.
func (a *AWSFlags) IsEmpty() bool {
	return a == nil || (!a.Enabled && a.Region == "")
}

// GoogleFlags represents Google Cloud SQL IAM authentication CLI flags.
type GoogleFlags struct {
	Enabled  bool
	Instance string // Instance connection name: project:region:instance
}

// IsEmpty returns true if no Google flags were provided.
func (g *GoogleFlags) IsEmpty() bool {
	return g == nil || (!g.Enabled && g.Instance == "")
}

// EnvVars represents PostgreSQL standard environment variables.
// See: https://www.postgresql.org/docs/current/libpq-envars.html
type EnvVars struct {
	PGHOST       string
	PGPORT       string
	PGUSER       string
	PGPASSWORD   string // discouraged, prefer .pgpass
	PGDATABASE   string
	PGSSLMODE    string
	DATABASE_URL string // full connection string (Heroku/Rails convention)

	// Cloud provider environment variables (SDK standard names)
	AWS_REGION          string
	AZURE_TENANT_ID     string
	AZURE_CLIENT_ID     string
	AZURE_CLIENT_SECRET string
}

// LoadFromEnvironment loads PostgreSQL and cloud provider environment variables.
// SONGLINE_CONNECTION_STRING takes precedence over DATABASE_URL.
func LoadFromEnvironment() *EnvVars {
	databaseURL := os.Getenv("SONGLINE_CONNECTION_STRING")
	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}

	return &EnvVars{
		PGHOST:              os.Getenv("PGHOST"),
		PGPORT:              os.Getenv("PGPORT"),
		PGUSER:              os.Getenv("PGUSER"),
		PGPASSWORD:          os.Getenv("PGPASSWORD"),
		PGDATABASE:          os.Getenv("PGDATABASE"),
		PGSSLMODE:           os.Getenv("PGSSLMODE"),
		DATABASE_URL:        databaseURL,
		AWS_REGION:          os.Getenv("AWS_REGION"),
		AZURE_TENANT_ID:     os.Getenv("AZURE_TENANT_ID"),
		AZURE_CLIENT_ID:     os.Getenv("AZURE_CLIENT_ID"),
		AZURE_CLIENT_SECRET: os.Getenv("AZURE_CLIENT_SECRET"),
	}
}

// ResolveConnectionParams resolves connection parameters using PostgreSQL-standard precedence:
//
//  1. Connection string flag (--connection) - if provided, parse and use directly
//  2. Granular flags (-h, -p, -U, -d) - if any provided, build config from flags
//  3. Environment variables (PGHOST, PGPORT, etc.)
//  4. SONGLINE_CONNECTION_STRING / DATABASE_URL environment variables
//  5. songline.yaml project configuration
//  6. Defaults (localhost:5432, prefer SSL)
//
// Cloud authentication: if Azure/AWS/Google flags or their environment
// variables are present, the AuthMethod switches accordingly; CLI flags
// take precedence over environment variables, which take precedence over
// songline.yaml.
//
// Returns the resolved ConnectionConfig, the maintenance database name
// (for CREATE DATABASE operations) and an error for invalid or
// conflicting configuration.
func ResolveConnectionParams(
	connStringFlag string,
	granularFlags *GranularConnFlags,
	azureFlags *AzureFlags,
	awsFlags *AWSFlags,
	googleFlags *GoogleFlags,
	envVars *EnvVars,
	projectConfig *config.ProjectConfig,
) (*songline.ConnectionConfig, string, error) {
	if granularFlags == nil {
		granularFlags = &GranularConnFlags{}
	}
	if envVars == nil {
		envVars = &EnvVars{}
	}

	// Conflict: connection string XOR granular flags
	if connStringFlag != "" && !granularFlags.IsEmpty() {
		return nil, "", fmt.Errorf(
			"cannot specify both --connection and granular flags (-h, -p, -U)\n" +
				"Choose one approach:\n" +
				"  1. Connection string: --connection \"postgresql://user@localhost:5432/postgres\"\n" +
				"  2. Granular flags: -h localhost -p 5432 -U myuser -d mydb\n" +
				"  3. Environment variables: export PGHOST=localhost PGPORT=5432 PGUSER=myuser",
		)
	}

	var cfg *songline.ConnectionConfig
	var maintenanceDB string
	var err error

	switch {
	case connStringFlag != "":
		cfg, maintenanceDB, err = resolveFromConnectionString(connStringFlag, envVars)
	case granularFlags.IsEmpty() && envVars.DATABASE_URL != "":
		cfg, maintenanceDB, err = resolveFromConnectionString(envVars.DATABASE_URL, envVars)
	default:
		cfg, maintenanceDB, err = resolveFromGranularParams(granularFlags, envVars, projectConfig)
	}

	if err != nil {
		return nil, "", err
	}

	if err := applyCloudAuth(cfg, azureFlags, awsFlags, googleFlags, envVars, projectConfig); err != nil {
		return nil, "", err
	}

	return cfg, maintenanceDB, nil
}

// applyCloudAuth switches the AuthMethod when cloud credentials are configured.
// At most one cloud provider may be selected.
func applyCloudAuth(
	cfg *songline.ConnectionConfig,
	azureFlags *AzureFlags,
	awsFlags *AWSFlags,
	googleFlags *GoogleFlags,
	env *EnvVars,
	projectConfig *config.ProjectConfig,
) error {
	var pc config.ConnectionConfig
	if projectConfig != nil {
		pc = projectConfig.Connection
	}

	azure := !azureFlags.IsEmpty() || pc.AuthMethod == "azure"
	aws := !awsFlags.IsEmpty() || pc.AuthMethod == "aws"
	google := !googleFlags.IsEmpty() || pc.AuthMethod == "google"

	selected := 0
	for _, enabled := range []bool{azure, aws, google} {
		if enabled {
			selected++
		}
	}
	if selected > 1 {
		return fmt.Errorf("conflicting cloud authentication methods: choose one of --azure, --aws-iam, --google-iam: %w", songline.ErrInvalidConfig)
	}

	switch {
	case azure:
		cfg.AuthMethod = songline.AuthMethodAzureEntraID
		cfg.AzureTenantID = firstNonEmpty(azureFlags.TenantID, env.AZURE_TENANT_ID, pc.AzureTenantID)
		cfg.AzureClientID = firstNonEmpty(azureFlags.ClientID, env.AZURE_CLIENT_ID, pc.AzureClientID)
		// Client secret only comes from env var (no flag for security)
		cfg.AzureClientSecret = env.AZURE_CLIENT_SECRET
	case aws:
		cfg.AuthMethod = songline.AuthMethodAWSIAM
		cfg.AWSRegion = firstNonEmpty(awsFlags.Region, env.AWS_REGION, pc.AWSRegion)
		if cfg.AWSRegion == "" {
			return fmt.Errorf("AWS IAM auth requires a region (use --aws-region or $AWS_REGION): %w", songline.ErrInvalidConfig)
		}
	case google:
		cfg.AuthMethod = songline.AuthMethodGoogleIAM
		cfg.GoogleInstance = firstNonEmpty(googleFlags.Instance, pc.GoogleInstance)
		if cfg.GoogleInstance == "" {
			return fmt.Errorf("google IAM auth requires instance connection name (use --google-instance): %w", songline.ErrInvalidConfig)
		}
	}

	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// resolveFromConnectionString parses a connection string and derives the maintenance database.
//
// The database component of the connection string serves dual purpose:
//  1. Initial connection target (for CREATE DATABASE operations)
//  2. Maintenance database (returned separately)
//
// The actual target database comes from --database/-d flag.
func resolveFromConnectionString(connStr string, envVars *EnvVars) (*songline.ConnectionConfig, string, error) {
	cfg, err := ParseConnectionString(connStr)
	if err != nil {
		return nil, "", fmt.Errorf("invalid connection string: %w", err)
	}

	// Environment variables serve as fallbacks for parameters the
	// connection string leaves out, following libpq behavior.
	if cfg.SSLMode == "" && envVars != nil && envVars.PGSSLMODE != "" {
		cfg.SSLMode = envVars.PGSSLMODE
	}
	if cfg.SSLMode == "" {
		cfg.SSLMode = "prefer"
	}

	maintenanceDB := cfg.Database
	if maintenanceDB == "" {
		maintenanceDB = songline.DefaultManagementDB
	}

	return cfg, maintenanceDB, nil
}

// resolveFromGranularParams builds ConnectionConfig from granular flags,
// environment variables and songline.yaml, in that precedence order.
func resolveFromGranularParams(
	flags *GranularConnFlags,
	envVars *EnvVars,
	projectConfig *config.ProjectConfig,
) (*songline.ConnectionConfig, string, error) {
	cfg := &songline.ConnectionConfig{
		AuthMethod:       songline.AuthMethodStandard,
		AdditionalParams: make(map[string]string),
	}

	var pc config.ConnectionConfig
	if projectConfig != nil {
		pc = projectConfig.Connection
	}

	cfg.Host = firstNonEmpty(flags.Host, envVars.PGHOST, pc.Host, "localhost")

	switch {
	case flags.Port != 0:
		cfg.Port = flags.Port
	case envVars.PGPORT != "":
		port, err := strconv.Atoi(envVars.PGPORT)
		if err != nil {
			return nil, "", fmt.Errorf("invalid $PGPORT value '%s': must be an integer", envVars.PGPORT)
		}
		cfg.Port = port
	case pc.Port != 0:
		cfg.Port = pc.Port
	default:
		cfg.Port = 5432
	}

	cfg.Username = firstNonEmpty(flags.Username, envVars.PGUSER, pc.Username,
		os.Getenv("USER"), os.Getenv("USERNAME"))

	cfg.Password = envVars.PGPASSWORD

	cfg.Database = firstNonEmpty(flags.Database, envVars.PGDATABASE, pc.Database)

	cfg.SSLMode = firstNonEmpty(flags.SSLMode, envVars.PGSSLMODE, pc.SSLMode, "prefer")

	// For granular parameters, maintenance database is always "postgres"
	// unless songline.yaml overrides it.
	maintenanceDB := firstNonEmpty(pc.ManagementDatabase, songline.DefaultManagementDB)

	return cfg, maintenanceDB, nil
}
