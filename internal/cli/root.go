package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const asciiLogo = `   ___  ___  _ __   __ _| (_)_ __   ___
  / __|/ _ \| '_ \ / _` + "`" + ` | | | '_ \ / _ \
  \__ \ (_) | | | | (_| | | | | | |  __/
  |___/\___/|_| |_|\__, |_|_|_| |_|\___|
                   |___/`

var rootCmd = &cobra.Command{
	Use:   "songline",
	Short: "Song-play ETL for PostgreSQL",
	Long: asciiLogo + `

songline extracts song metadata and listening-event logs from JSON datasets,
builds a star schema in memory (songs, artists, time, users, songplays), and
bulk-loads everything into PostgreSQL in one transaction using COPY.

Dimension tables are deduplicated before loading; play events are kept as-is.

Exit Codes:
  0  - Success
  1  - General error
  2  - CLI usage error (invalid arguments or flags)
  3  - Panic or unexpected system error
  10 - Invalid configuration or parameters
  11 - Database connection failed
  12 - User denied overwrite approval
  13 - Malformed input file
  14 - Bulk load failed
  15 - Data path not found`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		printVersionInfo()
		return nil
	}
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().Bool("help", false, "Help for songline")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output for all commands")
}

// getVerboseFlag safely retrieves the verbose flag value
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to get verbose flag: %v\n", err)
		return false
	}
	return verbose
}
