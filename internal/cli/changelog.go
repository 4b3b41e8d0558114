package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/ariel-frischer/gitchangelog/internal/workflow"
	"github.com/spf13/cobra"
)

var changelogCmd = &cobra.Command{
	Use:     "changelog",
	Aliases: []string{"cl"},
	Short:   "Generate and inspect the changelog file",
	Long: `Generate and inspect the changelog file.

The changelog file holds one section per tag merged into the tracked ref,
newest first, and a "Next version" section for the commits after the newest
tag. Lines edited by hand are kept when preserve_changes is enabled.`,
	Example: `  # Generate or update the changelog
  gitchangelog changelog generate

  # Show the current version's notes
  gitchangelog changelog show next

  # Export as JSON
  gitchangelog changelog export --format json`,
}

var (
	generateDryRun   bool
	generateDiff     bool
	generatePreserve bool
	generateRef      string
	generateOutput   string
	generateNuspec   string
)

var changelogGenerateCmd = &cobra.Command{
	Use:     "generate",
	Aliases: []string{"gen"},
	Short:   "Update the changelog from tags and commits",
	Long: `Update the changelog from the tags and commit messages of the tracked ref.

Sections of tags that no longer exist are dropped, sections of new tags are
built from the commits between consecutive tags, and the commits after the
newest tag form the "Next version" section. When a manifest is configured,
its releaseNotes element receives the current version's notes.

With --dry-run nothing is written: the new changelog is printed, or its diff
against the file on disk with --diff.`,
	Example: `  gitchangelog changelog generate
  gitchangelog changelog gen --dry-run --diff
  gitchangelog changelog generate --ref '!(latestTag+1)' --preserve=false
  gitchangelog changelog generate --nuspec package.nuspec`,
	Args: usageArgs(cobra.NoArgs),
	RunE: runChangelogGenerate,
}

func init() {
	changelogCmd.GroupID = GroupChangelog
	rootCmd.AddCommand(changelogCmd)
	changelogCmd.AddCommand(changelogGenerateCmd)

	changelogGenerateCmd.Flags().BoolVarP(&generateDryRun, "dry-run", "n", false, "Render without writing files")
	changelogGenerateCmd.Flags().BoolVar(&generateDiff, "diff", false, "Show a unified diff against the file on disk")
	changelogGenerateCmd.Flags().BoolVar(&generatePreserve, "preserve", true, "Keep manual edits (overrides preserve_changes)")
	changelogGenerateCmd.Flags().StringVarP(&generateRef, "ref", "r", "", "Tracked ref expression (overrides ref)")
	changelogGenerateCmd.Flags().StringVarP(&generateOutput, "output", "o", "", "Changelog path (overrides changelog_file)")
	changelogGenerateCmd.Flags().StringVar(&generateNuspec, "nuspec", "", "Manifest receiving the release notes (overrides nuspec_file)")
}

func runChangelogGenerate(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}

	opts := a.service.GenerateOptions()
	if cmd.Flags().Changed("preserve") {
		opts.PreserveChanges = generatePreserve
	}
	if generateRef != "" {
		opts.TrackedRef = generateRef
	}
	if generateOutput != "" {
		opts.ChangelogPath = generateOutput
	}
	if generateNuspec != "" {
		opts.NuSpecPath = generateNuspec
	}
	opts.DryRun = generateDryRun
	opts.Diff = generateDiff

	res, err := a.service.GenerateChangelog(cmd.Context(), opts)
	if err != nil {
		return changelogError(opts.ChangelogPath, err)
	}

	if a.verbose {
		printReconcileDetails(a.errOut, res)
	}
	return printGenerateResult(a.out, opts, res)
}

func printGenerateResult(out io.Writer, opts workflow.GenerateOptions, res *workflow.GenerateResult) error {
	if opts.Diff {
		if res.Diff == "" {
			fmt.Fprintf(out, "%s is up to date\n", opts.ChangelogPath)
		} else if err := writeSource(out, res.Diff, "diff"); err != nil {
			return err
		}
	} else if opts.DryRun {
		fmt.Fprint(out, res.Rendered)
	}

	if !res.Written {
		return nil
	}
	fmt.Fprintf(out, "Wrote %d section(s) to %s\n", len(res.Records), opts.ChangelogPath)
	if res.ManifestUpdated {
		fmt.Fprintf(out, "Updated %s in %s\n", workflow.ReleaseNotesProperty, opts.NuSpecPath)
	}
	return nil
}

func printReconcileDetails(w io.Writer, res *workflow.GenerateResult) {
	r := res.Reconcile
	if r == nil {
		return
	}
	if len(r.Synthesized) > 0 {
		fmt.Fprintf(w, "New sections: %s\n", strings.Join(r.Synthesized, ", "))
	}
	if len(r.Dropped) > 0 {
		fmt.Fprintf(w, "Dropped sections: %s\n", strings.Join(r.Dropped, ", "))
	}
	for _, line := range r.Discarded {
		fmt.Fprintf(w, "Discarded: %s\n", line)
	}
}
