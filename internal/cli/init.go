package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/vvka-141/songline/internal/config"
	"github.com/vvka-141/songline/internal/scaffold"
	"github.com/vvka-141/songline/internal/tui"
	"github.com/vvka-141/songline/pkg/songline"
)

var initCmd = &cobra.Command{
	Use:   "init <target_path>",
	Short: "Initialize a new songline project",
	Long: `Initialize a songline project into the specified directory.

The init command creates:
- songline.yaml project configuration
- song_data/ and log_data/ dataset directories
- README with usage instructions

Target directory must be empty or non-existent.

When run in an interactive terminal without a connection string in the
environment, init launches a short wizard to fill in the connection block
of songline.yaml. Use --no-wizard to skip it.

Examples:
  songline init .              # Initialize in current directory
  songline init ./myproject    # Initialize in ./myproject
  songline init /absolute/path # Initialize at absolute path`,
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeDirectories,
	RunE:              runInit,
}

var (
	initTemplate string
	initNoWizard bool
)

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().StringVarP(&initTemplate, "template", "t", "basic", "Template to use")
	initCmd.Flags().BoolVar(&initNoWizard, "no-wizard", false, "Skip the interactive connection wizard")
}

func runInit(cmd *cobra.Command, args []string) error {
	targetPath := args[0]

	// Project name comes from the target directory.
	projectName := filepath.Base(targetPath)
	if projectName == "." || projectName == ".." || projectName == string(filepath.Separator) {
		cwd, err := os.Getwd()
		if err == nil {
			projectName = filepath.Base(cwd)
		} else {
			projectName = "project"
		}
	}
	verbose := getVerboseFlag(cmd)

	templates, err := scaffold.ListTemplates()
	if err != nil {
		return fmt.Errorf("failed to list templates: %w", err)
	}

	validTemplate := false
	for _, t := range templates {
		if t == initTemplate {
			validTemplate = true
			break
		}
	}
	if !validTemplate {
		return fmt.Errorf("invalid template '%s'. Available templates: %v", initTemplate, templates)
	}

	scaffolder := scaffold.NewScaffolder(verbose)
	if err := scaffolder.CreateProject(projectName, initTemplate, targetPath); err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}

	if shouldRunWizard() {
		if err := runInitWizard(targetPath); err != nil {
			return err
		}
	}

	tree, err := scaffold.BuildFileTree(targetPath)
	if err != nil {
		// Non-fatal, skip the tree display.
		fmt.Fprintf(os.Stderr, "\n✓ Project initialized successfully in '%s'\n\n", targetPath)
	} else {
		fmt.Fprintf(os.Stderr, "\n✓ Project initialized successfully using template '%s'\n\n", initTemplate)
		fmt.Fprintln(os.Stderr, "Created structure:")
		fmt.Fprint(os.Stderr, tree)
	}

	fmt.Fprintln(os.Stderr, "\nNext steps:")
	if targetPath != "." {
		fmt.Fprintf(os.Stderr, "  cd %s\n", targetPath)
	}
	fmt.Fprintln(os.Stderr, "  # Drop your dataset into song_data/ and log_data/, then:")
	fmt.Fprintln(os.Stderr, "  songline run .")

	return nil
}

// shouldRunWizard reports whether the connection wizard should launch after
// scaffolding. It never runs without a terminal, and a connection string in
// the environment means the user already decided how to connect.
func shouldRunWizard() bool {
	if initNoWizard {
		return false
	}
	if hasEnvConnectionSource() {
		return false
	}
	return tui.IsInteractive()
}

func runInitWizard(targetPath string) error {
	result, err := tui.RunConnectionWizard()
	if err != nil {
		return fmt.Errorf("connection wizard failed: %w", err)
	}
	if result.Cancelled {
		fmt.Fprintln(os.Stderr, "Wizard cancelled, keeping template defaults in songline.yaml.")
		return nil
	}

	cfg, err := config.Load(targetPath)
	if err != nil {
		cfg = &config.ProjectConfig{}
	}
	applyWizardConnection(cfg, result.Config)

	if err := config.Save(targetPath, cfg); err != nil {
		return fmt.Errorf("failed to write %s: %w", config.ConfigFileName, err)
	}

	if result.Tested {
		fmt.Fprintf(os.Stderr, "✓ Connection verified: %s\n", result.TestInfo)
	}
	return nil
}

func applyWizardConnection(cfg *config.ProjectConfig, conn songline.ConnectionConfig) {
	cfg.Connection.Host = conn.Host
	cfg.Connection.Port = conn.Port
	cfg.Connection.Username = conn.Username
	cfg.Connection.Database = conn.Database
	cfg.Connection.SSLMode = conn.SSLMode

	switch conn.AuthMethod {
	case songline.AuthMethodAzureEntraID:
		cfg.Connection.AuthMethod = "azure"
	case songline.AuthMethodAWSIAM:
		cfg.Connection.AuthMethod = "aws"
	case songline.AuthMethodGoogleIAM:
		cfg.Connection.AuthMethod = "google"
	default:
		cfg.Connection.AuthMethod = ""
	}
}
