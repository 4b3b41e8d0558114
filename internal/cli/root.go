package cli

import (
	"github.com/ariel-frischer/gitchangelog/internal/cli/config"
	"github.com/ariel-frischer/gitchangelog/internal/cli/shared"
	"github.com/ariel-frischer/gitchangelog/internal/cli/util"
	clierrors "github.com/ariel-frischer/gitchangelog/internal/errors"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// Command group IDs, re-exported for the commands of this package.
const (
	GroupGettingStarted = shared.GroupGettingStarted
	GroupChangelog      = shared.GroupChangelog
	GroupQueries        = shared.GroupQueries
	GroupConfiguration  = shared.GroupConfiguration
)

var rootCmd = &cobra.Command{
	Use:   "gitchangelog",
	Short: "Keep a plain-text changelog in sync with git tags",
	Long: `gitchangelog builds a versioned changelog from the tags and commit messages
of a git repository and keeps it in sync across runs.

Every tag merged into the tracked ref becomes a section; commits after the
newest tag go into a "Next version" section. Edits made by hand to the file
survive regeneration, and the current version's notes can be copied into the
releaseNotes element of a .nuspec manifest.

Reference expressions select commits symbolically:
  !(latestTag)          newest tag merged into the branch
  !(latestTag+1)        first commit after the newest tag
  !(latestCommit+2)     two commits before the branch head
  !(commit:<hash>+N)    N commits after hash

Project home: https://github.com/ariel-frischer/gitchangelog`,
	Example: `  # Generate or update CHANGELOG.txt
  gitchangelog changelog generate

  # Preview the changes without writing
  gitchangelog changelog generate --dry-run --diff

  # Release notes since the newest tag
  gitchangelog release-notes --from '!(latestTag)' --formatted

  # Resolve reference expressions
  gitchangelog resolve '!(latestTag)' '!(latestCommit+1)'`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if noColor, _ := cmd.Flags().GetBool("no-color"); noColor {
			color.NoColor = true
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to project config file (default: .gitchangelog/config.yml)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "Log every git command with its output to stderr")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Print informational messages")
	rootCmd.PersistentFlags().StringP("dir", "C", "", "Run git in this directory (overrides working_dir)")
	rootCmd.PersistentFlags().Bool("no-color", false, "Disable colored output")

	rootCmd.AddGroup(
		&cobra.Group{ID: GroupGettingStarted, Title: "Getting Started:"},
		&cobra.Group{ID: GroupChangelog, Title: "Changelog:"},
		&cobra.Group{ID: GroupQueries, Title: "Queries:"},
		&cobra.Group{ID: GroupConfiguration, Title: "Configuration:"},
	)

	util.Register(rootCmd)
	config.Register(rootCmd)
}

// Execute runs the root command. Errors are printed here, except bare
// exit codes which carry no message.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil && !shared.IsExitError(err) {
		clierrors.Fprint(rootCmd.ErrOrStderr(), toCLIError(err))
	}
	return err
}
