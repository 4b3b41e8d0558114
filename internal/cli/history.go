package cli

import (
	"fmt"

	clierrors "github.com/ariel-frischer/gitchangelog/internal/errors"
	"github.com/ariel-frischer/gitchangelog/internal/history"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View changelog generation history",
	Long:  `View a log of changelog generations with timestamp, command, changelog file, exit code, duration and outcome.`,
	Example: `  gitchangelog history
  gitchangelog history --command watch --limit 10
  gitchangelog history --clear`,
	Args: usageArgs(cobra.NoArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		return runHistoryWithStateDir(cmd, cfg.StateDir)
	},
}

func init() {
	historyCmd.GroupID = GroupConfiguration
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().String("command", "", "Filter by command, e.g. \"watch\"")
	historyCmd.Flags().IntP("limit", "n", 0, "Limit to last N entries (most recent)")
	historyCmd.Flags().Bool("clear", false, "Clear all history")
}

// runHistoryWithStateDir runs the history command with a custom state directory.
func runHistoryWithStateDir(cmd *cobra.Command, stateDir string) error {
	clearFlag, _ := cmd.Flags().GetBool("clear")
	commandFilter, _ := cmd.Flags().GetString("command")
	limit, _ := cmd.Flags().GetInt("limit")

	if limit < 0 {
		return clierrors.NewArgumentError(fmt.Sprintf("limit must be positive, got %d", limit))
	}

	if clearFlag {
		if err := history.ClearHistory(stateDir); err != nil {
			return fmt.Errorf("clearing history: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "History cleared.")
		return nil
	}

	histFile, err := history.LoadHistory(stateDir)
	if err != nil {
		return fmt.Errorf("loading history: %w", err)
	}

	entries := history.Filter(histFile.Entries, commandFilter, limit)

	if len(entries) == 0 {
		if commandFilter != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "No matching entries for command '%s'.\n", commandFilter)
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), "No history available.")
		}
		return nil
	}

	displayEntries(cmd, entries)
	return nil
}

// displayEntries formats and displays history entries.
func displayEntries(cmd *cobra.Command, entries []history.HistoryEntry) {
	out := cmd.OutOrStdout()

	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()

	for _, entry := range entries {
		timestamp := entry.Timestamp.Format("2006-01-02 15:04:05")

		exitCodeStr := fmt.Sprintf("%d", entry.ExitCode)
		if entry.ExitCode == 0 {
			exitCodeStr = green(exitCodeStr)
		} else {
			exitCodeStr = red(exitCodeStr)
		}

		target := entry.Target
		if target == "" {
			target = "-"
		}

		fmt.Fprintf(out, "%s  %-18s  %-20s  exit=%s  %-8s  %s\n",
			cyan(timestamp),
			entry.Command,
			target,
			exitCodeStr,
			entry.Duration,
			entry.Summary,
		)
	}
}
