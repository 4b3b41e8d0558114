// Package util holds informational commands that need no repository.
package util

import (
	"fmt"
	"io"
	"runtime"
	"strings"

	"github.com/ariel-frischer/gitchangelog/internal/cli/shared"
	"github.com/ariel-frischer/gitchangelog/internal/version"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// SourceURL is the project source URL
const SourceURL = "https://github.com/ariel-frischer/gitchangelog"

var versionPlain bool

var versionCmd = &cobra.Command{
	Use:     "version",
	Aliases: []string{"v"},
	Short:   "Display version information (v)",
	Long:    "Display version, commit, build date, and Go version information for gitchangelog",
	Example: `  # Show version info
  gitchangelog version

  # Plain output (for scripts)
  gitchangelog version --plain`,
	Run: func(cmd *cobra.Command, args []string) {
		if versionPlain {
			printPlainVersion(cmd.OutOrStdout())
			return
		}
		printPrettyVersion(cmd.OutOrStdout())
	},
}

func init() {
	versionCmd.GroupID = shared.GroupGettingStarted
	versionCmd.Flags().BoolVar(&versionPlain, "plain", false, "Plain output without formatting")
}

// Register adds the informational commands to root.
func Register(root *cobra.Command) {
	root.AddCommand(versionCmd)
}

type versionField struct {
	label string
	value string
}

func versionFields() []versionField {
	return []versionField{
		{"Version", version.Version},
		{"Commit", truncateCommit(version.Commit)},
		{"Built", version.BuildDate},
		{"Go", runtime.Version()},
		{"Platform", fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH)},
	}
}

// printPlainVersion prints a simple version output for scripting
func printPlainVersion(w io.Writer) {
	fmt.Fprintf(w, "gitchangelog %s\n", version.Version)
	fmt.Fprintf(w, "commit: %s\n", version.Commit)
	fmt.Fprintf(w, "built: %s\n", version.BuildDate)
	fmt.Fprintf(w, "go: %s\n", runtime.Version())
	fmt.Fprintf(w, "platform: %s/%s\n", runtime.GOOS, runtime.GOARCH)
}

// printPrettyVersion prints the version fields in a box
func printPrettyVersion(w io.Writer) {
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	white := color.New(color.FgWhite, color.Bold).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()

	fields := versionFields()
	width := 0
	for _, f := range fields {
		width = max(width, len(f.value))
	}
	inner := 12 + 4 + width + 2

	fmt.Fprintln(w)
	fmt.Fprintln(w, "  "+cyan("gitchangelog")+" - changelogs from git tags")
	fmt.Fprintln(w, "╭"+strings.Repeat("─", inner)+"╮")
	for _, f := range fields {
		label := yellow(fmt.Sprintf("%12s", f.label))
		pad := strings.Repeat(" ", width-len(f.value))
		fmt.Fprintf(w, "│%s    %s%s  │\n", label, white(f.value), pad)
	}
	fmt.Fprintln(w, "╰"+strings.Repeat("─", inner)+"╯")
	fmt.Fprintln(w)
}

// truncateCommit shortens commit hash if it's too long
func truncateCommit(commit string) string {
	if len(commit) > 8 {
		return commit[:8]
	}
	return commit
}
