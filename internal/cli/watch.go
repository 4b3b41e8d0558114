package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	clierrors "github.com/ariel-frischer/gitchangelog/internal/errors"
	"github.com/ariel-frischer/gitchangelog/internal/git"
	"github.com/ariel-frischer/gitchangelog/internal/watch"
	"github.com/spf13/cobra"
)

var watchSkipInitial bool

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Regenerate the changelog whenever refs change",
	Long: `Watch the repository's refs and regenerate the changelog after commits,
tag changes and fetches.

Changes are debounced (watch_debounce) so a burst of ref updates triggers
one regeneration. Lock files under .git are ignored. Stop with Ctrl-C.`,
	Example: `  gitchangelog watch
  GITCHANGELOG_WATCH_DEBOUNCE=2s gitchangelog watch --skip-initial`,
	Args: usageArgs(cobra.NoArgs),
	RunE: runWatch,
}

func init() {
	watchCmd.GroupID = GroupChangelog
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().BoolVar(&watchSkipInitial, "skip-initial", false, "Do not generate once before watching")
}

func runWatch(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}

	dir := a.cfg.WorkingDir
	if dir == "" {
		dir = "."
	}
	gitDir, err := git.GitDir(dir)
	if err != nil {
		return clierrors.GitNotRepository(dir)
	}

	regenerate := func(ctx context.Context) error {
		opts := a.service.GenerateOptions()
		opts.Command = "watch"
		res, err := a.service.GenerateChangelog(ctx, opts)
		if err != nil {
			return changelogError(opts.ChangelogPath, err)
		}
		return printGenerateResult(a.out, opts, res)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !watchSkipInitial {
		if err := regenerate(ctx); err != nil {
			return err
		}
	}

	w, err := watch.New(watch.Options{
		GitDir:   gitDir,
		Debounce: a.cfg.WatchDebounce,
		OnChange: regenerate,
		OnError: func(err error) {
			clierrors.Fprint(a.errOut, toCLIError(err))
		},
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(a.errOut, "Watching %s (Ctrl-C to stop)\n", gitDir)
	return w.Run(ctx)
}
