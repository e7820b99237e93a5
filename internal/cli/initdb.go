package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/vvka-141/songline/internal/db"
	"github.com/vvka-141/songline/internal/db/manager"
	"github.com/vvka-141/songline/internal/logging"
	"github.com/vvka-141/songline/internal/services"
	"github.com/vvka-141/songline/internal/ui"
	"github.com/vvka-141/songline/pkg/songline"
)

var initdbCmd = &cobra.Command{
	Use:   "initdb",
	Short: "Create the target database and destination tables",
	Long: `Initdb prepares the target database for loading.

The initdb command:
1. Connects to the management database (postgres by default)
2. Creates the target database if it does not exist
3. Optionally drops and recreates it (with --overwrite)
4. Creates the five destination tables: songs, artists, time, users, songplays
5. Optionally clears existing table data (with --truncate)

Examples:
  # Create sparkifydb and its tables
  songline initdb -d sparkifydb

  # Recreate from scratch (prompts for confirmation)
  songline initdb -d sparkifydb --overwrite

  # Recreate without prompting (CI/CD)
  songline initdb -d sparkifydb --overwrite --force

  # Clear table data but keep the database and its grants
  songline initdb -d sparkifydb --truncate`,
	Args: cobra.NoArgs,
	RunE: runInitDB,
}

type initdbFlagValues struct {
	conn      connectionFlags
	overwrite bool
	truncate  bool
	force     bool
	timeout   time.Duration
}

var initdbFlags initdbFlagValues

func init() {
	rootCmd.AddCommand(initdbCmd)

	addConnectionFlags(initdbCmd, &initdbFlags.conn)

	initdbCmd.Flags().BoolVar(&initdbFlags.overwrite, "overwrite", false,
		"Drop and recreate the database\n"+
			"Requires interactive confirmation unless --force is used")
	initdbCmd.Flags().BoolVar(&initdbFlags.truncate, "truncate", false,
		"Clear the destination tables without dropping the database\n"+
			"Requires interactive confirmation unless --force is used")
	initdbCmd.Flags().BoolVar(&initdbFlags.force, "force", false,
		"Skip interactive approval prompt for destructive operations\n"+
			"Use with --overwrite for CI/CD pipelines")
	initdbCmd.Flags().DurationVar(&initdbFlags.timeout, "timeout", 3*time.Minute,
		"Catastrophic failure protection timeout (default 3m)")
}

// buildInitDBConfig builds an InitDBConfig from CLI flags and environment.
func buildInitDBConfig(verbose bool) (songline.InitDBConfig, error) {
	_ = godotenv.Load()

	resolved, err := resolveConnectionFromFlags(initdbFlags.conn, nil)
	if err != nil {
		return songline.InitDBConfig{}, err
	}

	targetDB, err := resolveTargetDatabase(initdbFlags.conn.database, resolved.ConnConfig.Database, "initdb", verbose)
	if err != nil {
		return songline.InitDBConfig{}, err
	}

	maintenanceDB := determineMaintenanceDB(initdbFlags.conn.database, resolved.ConnConfig.Database, resolved.MaintenanceDB)
	resolved.ConnConfig.Database = targetDB

	if verbose {
		printResolvedConnection(resolved.ConnConfig, maintenanceDB)
	}

	return songline.InitDBConfig{
		DatabaseName:       targetDB,
		ManagementDatabase: maintenanceDB,
		ConnectionString:   db.BuildConnectionString(resolved.ConnConfig),
		Overwrite:          initdbFlags.overwrite,
		Truncate:           initdbFlags.truncate,
		Force:              initdbFlags.force,
		Timeout:            initdbFlags.timeout,
		Verbose:            verbose,
		AuthMethod:         resolved.ConnConfig.AuthMethod,
		AzureTenantID:      resolved.ConnConfig.AzureTenantID,
		AzureClientID:      resolved.ConnConfig.AzureClientID,
		AzureClientSecret:  resolved.ConnConfig.AzureClientSecret,
	}, nil
}

func runInitDB(cmd *cobra.Command, args []string) error {
	verbose := getVerboseFlag(cmd)

	config, err := buildInitDBConfig(verbose)
	if err != nil {
		return err
	}

	// Select approver implementation based on --force flag
	var approver songline.Approver
	if initdbFlags.force {
		approver = ui.NewForcedApprover(verbose)
	} else {
		approver = ui.NewInteractiveApprover(verbose)
	}

	initializer := services.NewInitDBService(
		db.NewConnector,
		approver,
		logging.NewConsoleLogger(verbose),
		manager.New(),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\n[INTERRUPT] Received interrupt signal, cancelling...")
		cancel()
	}()

	if err := initializer.Init(ctx, config); err != nil {
		return fmt.Errorf("initdb failed: %w", err)
	}

	return nil
}
