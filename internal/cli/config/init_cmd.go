package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ariel-frischer/gitchangelog/internal/cli/shared"
	"github.com/ariel-frischer/gitchangelog/internal/config"
	"github.com/ariel-frischer/gitchangelog/internal/git"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// Color helper functions for init command output
var (
	cGreen  = color.New(color.FgGreen).SprintFunc()
	cYellow = color.New(color.FgYellow).SprintFunc()
	cCyan   = color.New(color.FgCyan).SprintFunc()
	cDim    = color.New(color.Faint).SprintFunc()
)

var initCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Create a gitchangelog configuration file",
	Long: `Create a commented configuration file with every option at its default.

By default the user-level config is created, which applies to all your
repositories. Use --project to create .gitchangelog/config.yml in the
repository instead; project settings override user settings.

If the config already exists it is left unchanged (use --force to overwrite).

Path argument:
  With --project, initializes the repository at path instead of the current
  directory. Relative, absolute and ~ paths are accepted; a missing directory
  is created.`,
	Example: `  # Create the user-level config
  gitchangelog init

  # Create the project config of the current repository
  gitchangelog init --project

  # Create the project config of another repository
  gitchangelog init ~/src/my-lib --project

  # Reset the project config to defaults
  gitchangelog init --project --force`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func init() {
	initCmd.GroupID = shared.GroupGettingStarted
	initCmd.Flags().BoolP("project", "p", false, "Create project-level config (.gitchangelog/config.yml)")
	initCmd.Flags().BoolP("force", "f", false, "Overwrite existing config with defaults")
}

func runInit(cmd *cobra.Command, args []string) error {
	project, _ := cmd.Flags().GetBool("project")
	force, _ := cmd.Flags().GetBool("force")
	out := cmd.OutOrStdout()

	if len(args) > 0 && !project {
		return fmt.Errorf("a path argument requires --project")
	}

	configPath, err := initTarget(args, project)
	if err != nil {
		return err
	}

	written, err := writeConfigTemplate(configPath, force)
	if err != nil {
		return err
	}
	if written {
		fmt.Fprintf(out, "%s Created %s\n", cGreen("✓"), configPath)
	} else {
		fmt.Fprintf(out, "%s Config already exists at %s %s\n", cYellow("•"), configPath, cDim("(use --force to overwrite)"))
	}

	if project {
		root := filepath.Dir(filepath.Dir(configPath))
		if !git.IsRepository(root) {
			fmt.Fprintf(out, "%s %s is not a git repository yet\n", cYellow("!"), root)
		}
	}

	printNextSteps(out)
	return nil
}

// initTarget returns the config file init writes.
func initTarget(args []string, project bool) (string, error) {
	if !project {
		return config.UserConfigPath()
	}
	dir, err := resolveTargetDirectory(args)
	if err != nil {
		return "", err
	}
	if err := EnsureDirectory(dir); err != nil {
		return "", err
	}
	return filepath.Join(dir, config.ProjectConfigPath()), nil
}

// writeConfigTemplate writes the default template to path. It reports
// false when the file exists and force is not set.
func writeConfigTemplate(path string, force bool) (bool, error) {
	if _, err := os.Stat(path); err == nil && !force {
		return false, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(config.GetDefaultConfigTemplate()), 0o644); err != nil {
		return false, fmt.Errorf("writing config: %w", err)
	}
	return true, nil
}

func printNextSteps(out io.Writer) {
	fmt.Fprintf(out, "\n%s\n", cCyan("Next steps:"))
	fmt.Fprintln(out, "  gitchangelog config show              # review the effective settings")
	fmt.Fprintln(out, "  gitchangelog changelog generate       # create or update the changelog")
	fmt.Fprintln(out, "  gitchangelog watch                    # keep it updated as you commit and tag")
}
