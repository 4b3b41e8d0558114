package cli

import (
	"errors"
	"fmt"

	clierrors "github.com/ariel-frischer/gitchangelog/internal/errors"
	"github.com/ariel-frischer/gitchangelog/internal/lock"
	"github.com/spf13/cobra"
)

var (
	checkUpToDate bool
	unlockForce   bool
)

var changelogCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the changelog file",
	Long: `Validate that the changelog file parses.

Returns exit code 0 when every line belongs to a section and no section is
repeated, or exit code 1 with the offending line.

With --up-to-date the file is also compared with what generate would write
from the current tags and commits; a difference is reported as a diff and
fails with exit code 1.`,
	Example: `  gitchangelog changelog check
  gitchangelog changelog check --up-to-date`,
	Args: usageArgs(cobra.NoArgs),
	RunE: runChangelogCheck,
}

var changelogUnlockCmd = &cobra.Command{
	Use:   "unlock",
	Short: "Remove the changelog lock left by an interrupted run",
	Long: `Remove the lock that serializes changelog generation.

A lock whose process is no longer running is removed. A lock held by a
running process is only removed with --force.`,
	Example: `  gitchangelog changelog unlock
  gitchangelog changelog unlock --force`,
	Args: usageArgs(cobra.NoArgs),
	RunE: runChangelogUnlock,
}

func init() {
	changelogCmd.AddCommand(changelogCheckCmd)
	changelogCmd.AddCommand(changelogUnlockCmd)

	changelogCheckCmd.Flags().BoolVarP(&checkUpToDate, "up-to-date", "u", false, "Also fail when generate would change the file")
	changelogUnlockCmd.Flags().BoolVarP(&unlockForce, "force", "f", false, "Remove the lock even if its process is running")
}

func runChangelogCheck(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadChangelog(cmd)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s: %d section(s), %d line(s)\n", cfg.ChangelogFile, log.GetVersionCount(), log.GetLineCount())

	if !checkUpToDate {
		return nil
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	opts := a.service.GenerateOptions()
	opts.DryRun = true
	opts.Diff = true
	opts.Command = "changelog check"
	res, err := a.service.GenerateChangelog(cmd.Context(), opts)
	if err != nil {
		return changelogError(opts.ChangelogPath, err)
	}
	if res.Diff != "" {
		if err := writeSource(out, res.Diff, "diff"); err != nil {
			return err
		}
		return clierrors.ChangelogOutdated(opts.ChangelogPath)
	}
	fmt.Fprintf(out, "%s is up to date\n", opts.ChangelogPath)
	return nil
}

func runChangelogUnlock(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	held, err := lock.LoadLock(cfg.StateDir, cfg.ChangelogFile)
	corrupt := errors.Is(err, lock.ErrCorrupt)
	if err != nil && !corrupt {
		return err
	}
	if held == nil && !corrupt {
		fmt.Fprintf(out, "No lock held for %s\n", cfg.ChangelogFile)
		return nil
	}
	if !corrupt && !lock.IsLockStale(held) && !unlockForce {
		return clierrors.ChangelogLocked(held.Target, held.PID)
	}

	removed, err := lock.ForceRelease(cfg.StateDir, cfg.ChangelogFile)
	if err != nil {
		return err
	}
	switch {
	case removed == nil:
	case removed.RunID == "":
		fmt.Fprintf(out, "Removed unreadable lock file for %s\n", cfg.ChangelogFile)
	default:
		fmt.Fprintf(out, "Removed lock of run %s (PID %d, %s)\n", removed.RunID, removed.PID, removed.Command)
	}
	return nil
}
