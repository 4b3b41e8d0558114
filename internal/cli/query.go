package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/ariel-frischer/gitchangelog/internal/workflow"
	"github.com/spf13/cobra"
)

var (
	notesFrom      string
	notesTo        string
	notesFormat    string
	notesFormatted bool

	commitInfoFormat string

	tagMessageRemote string
	tagMessageFetch  bool
)

var resolveCmd = &cobra.Command{
	Use:   "resolve EXPR...",
	Short: "Resolve reference expressions to commit ids",
	Long: `Resolve reference expressions to commit ids.

An expression is either a ref name (HEAD, refs/tags/v1.0, origin/main), a
literal commit id, or a variable:
  !(latestTag)          newest tag merged into the branch
  !(latestTag+N)        N commits after the newest tag
  !(latestTag-N)        N commits before the newest tag
  !(latestCommit)       head of the branch
  !(latestCommit+N)     N commits before the head
  !(commit:<hash>+N)    N commits after hash

Look-ahead stops at the branch head; look-behind stops at the root commit.`,
	Example: `  gitchangelog resolve '!(latestTag)'
  gitchangelog resolve HEAD '!(latestTag+1)' '!(latestCommit+2)'`,
	Args: usageArgs(cobra.MinimumNArgs(1)),
	RunE: runResolve,
}

var tagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "List the tags merged into the branch",
	Long: `List the tags merged into the configured remote branch, oldest first,
with their sequence number and the commit they point to.`,
	Example: `  gitchangelog tags
  gitchangelog tags --dir ../other-repo`,
	Args: usageArgs(cobra.NoArgs),
	RunE: runTags,
}

var releaseNotesCmd = &cobra.Command{
	Use:   "release-notes",
	Short: "Print the commit messages between two expressions",
	Long: `Print the commit messages between two reference expressions, blank lines
removed. --from is excluded from the range and --to is included.`,
	Example: `  gitchangelog release-notes --from '!(latestTag)'
  gitchangelog release-notes --from v1.0 --to HEAD --formatted
  gitchangelog release-notes --from '!(latestTag)' --format 'format:%s'`,
	Args: usageArgs(cobra.NoArgs),
	RunE: runReleaseNotes,
}

var commitInfoCmd = &cobra.Command{
	Use:   "commit-info EXPR",
	Short: "Print one commit formatted with a pretty format",
	Example: `  gitchangelog commit-info HEAD
  gitchangelog commit-info '!(latestTag)' --format 'format:%an %s'`,
	Args: usageArgs(cobra.ExactArgs(1)),
	RunE: runCommitInfo,
}

var tagMessageCmd = &cobra.Command{
	Use:   "tag-message TAG",
	Short: "Print the annotation of a tag",
	Long: `Print the annotation of a tag. A tag that cannot be read prints nothing.

With --fetch the tag is first fetched from the remote. Fetch failures are
reported and do not stop the command.`,
	Example: `  gitchangelog tag-message v1.2.0
  gitchangelog tag-message v1.2.0 --fetch --remote upstream`,
	Args: usageArgs(cobra.ExactArgs(1)),
	RunE: runTagMessage,
}

func init() {
	for _, c := range []*cobra.Command{resolveCmd, tagsCmd, releaseNotesCmd, commitInfoCmd, tagMessageCmd} {
		c.GroupID = GroupQueries
		rootCmd.AddCommand(c)
	}

	releaseNotesCmd.Flags().StringVar(&notesFrom, "from", "", "Lower bound expression, excluded (default: root of history)")
	releaseNotesCmd.Flags().StringVar(&notesTo, "to", workflow.DefaultReleaseNotesTo, "Upper bound expression, included")
	releaseNotesCmd.Flags().StringVar(&notesFormat, "format", "", "git pretty format (default: format:%B)")
	releaseNotesCmd.Flags().BoolVar(&notesFormatted, "formatted", false, "Group lines by the configured categories")

	commitInfoCmd.Flags().StringVar(&commitInfoFormat, "format", "", "git pretty format (default: format:%B)")

	tagMessageCmd.Flags().StringVar(&tagMessageRemote, "remote", "", "Remote to fetch from (default: remote)")
	tagMessageCmd.Flags().BoolVar(&tagMessageFetch, "fetch", false, "Fetch the tag from the remote first")
}

func runResolve(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	for _, expr := range args {
		commit, err := a.service.Resolve(cmd.Context(), expr)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "%s -> %s\n", expr, commit)
	}
	return nil
}

func runTags(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	tags, err := a.service.Tags(cmd.Context())
	if err != nil {
		return err
	}
	if tags.Len() == 0 {
		fmt.Fprintln(a.out, "No tags found.")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	for _, tag := range tags.Tags() {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", tag.Sequence, tag.Name, tag.Commit)
	}
	return tw.Flush()
}

func runReleaseNotes(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	notes, err := a.service.ReleaseNotes(cmd.Context(), workflow.ReleaseNotesOptions{
		From:       notesFrom,
		To:         notesTo,
		Format:     notesFormat,
		Formatted:  notesFormatted,
		Categories: a.cfg.Categories,
	})
	if err != nil {
		return err
	}
	if notes.Notes != "" {
		fmt.Fprintln(a.out, notes.Notes)
	}
	return nil
}

func runCommitInfo(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	info, err := a.service.CommitInfo(cmd.Context(), args[0], commitInfoFormat)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, info)
	return nil
}

func runTagMessage(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	msg, err := a.service.TagMessage(cmd.Context(), args[0], tagMessageRemote, tagMessageFetch)
	if err != nil {
		return err
	}
	if msg != "" {
		fmt.Fprintln(a.out, msg)
	}
	return nil
}
