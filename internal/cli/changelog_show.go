package cli

import (
	"bytes"
	"fmt"
	"os"

	"github.com/ariel-frischer/gitchangelog/internal/changelog"
	"github.com/ariel-frischer/gitchangelog/internal/config"
	clierrors "github.com/ariel-frischer/gitchangelog/internal/errors"
	"github.com/spf13/cobra"
)

var (
	showPlain bool
	showList  bool
	showLast  int

	exportFormat string
	exportOutput string
)

var changelogShowCmd = &cobra.Command{
	Use:   "show [version]",
	Short: "Show changelog sections in the terminal",
	Long: `Show changelog sections with category colors and icons.

Without a version every section is shown, newest first. The version may be
given with or without a "v" prefix; "next", "pending" and "unreleased" select
the section of the commits after the newest tag.`,
	Example: `  gitchangelog changelog show
  gitchangelog changelog show v1.2.0
  gitchangelog changelog show next --plain
  gitchangelog changelog show --list
  gitchangelog changelog show --last 3`,
	Args: usageArgs(cobra.MaximumNArgs(1)),
	RunE: runChangelogShow,
}

var changelogExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the changelog as YAML or JSON",
	Long: `Export the changelog as a machine-readable document.

Each section becomes a version with its name, sequence, commit (for the
pending section) and formatted lines, newest first. Output is colorized
when written to a terminal.`,
	Example: `  gitchangelog changelog export
  gitchangelog changelog export --format json --output changelog.json`,
	Args: usageArgs(cobra.NoArgs),
	RunE: runChangelogExport,
}

func init() {
	changelogCmd.AddCommand(changelogShowCmd)
	changelogCmd.AddCommand(changelogExportCmd)

	changelogShowCmd.Flags().BoolVar(&showPlain, "plain", false, "Plain text output (no colors/icons)")
	changelogShowCmd.Flags().BoolVarP(&showList, "list", "l", false, "List section names only")
	changelogShowCmd.Flags().IntVar(&showLast, "last", 0, "Show only the N newest sections (0 = all)")

	changelogExportCmd.Flags().StringVarP(&exportFormat, "format", "f", "yaml", "Output format: yaml or json")
	changelogExportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Write to file instead of stdout")
}

// loadChangelog reads the configured changelog file.
func loadChangelog(cmd *cobra.Command) (*config.Configuration, *changelog.Changelog, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	if _, err := os.Stat(cfg.ChangelogFile); os.IsNotExist(err) {
		return nil, nil, clierrors.NewPrerequisiteError(
			fmt.Sprintf("changelog file not found: %s", cfg.ChangelogFile),
			"Generate it with: gitchangelog changelog generate",
			"Or point changelog_file at it: gitchangelog config set changelog_file <path>",
		)
	}
	log, err := changelog.Load(cfg.ChangelogFile)
	if err != nil {
		return nil, nil, changelogError(cfg.ChangelogFile, err)
	}
	return cfg, log, nil
}

func runChangelogShow(cmd *cobra.Command, args []string) error {
	if showLast < 0 {
		return clierrors.NewArgumentError(fmt.Sprintf("--last must be positive, got %d", showLast))
	}

	cfg, log, err := loadChangelog(cmd)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if showList {
		for _, name := range log.ListVersions() {
			fmt.Fprintln(out, name)
		}
		return nil
	}

	opts := changelog.ViewOptions{
		Plain:      showPlain || !isTerminal(out),
		Categories: cfg.Categories,
	}

	if len(args) == 1 {
		record, err := log.GetVersion(args[0])
		if err != nil {
			return err
		}
		return changelog.FormatRecord(*record, out, opts)
	}

	if log.IsEmpty() {
		fmt.Fprintln(out, "No changelog sections found.")
		return nil
	}

	records := log.All()
	if showLast > 0 && len(records) > showLast {
		records = records[:showLast]
	}
	if err := changelog.FormatTerminal(records, out, opts); err != nil {
		return fmt.Errorf("formatting sections: %w", err)
	}
	if total := log.GetVersionCount(); total > len(records) {
		fmt.Fprintf(out, "\n(%d of %d sections shown. Use --last %d to see all)\n", len(records), total, total)
	}
	return nil
}

func runChangelogExport(cmd *cobra.Command, args []string) error {
	format, err := changelog.ParseExportFormat(exportFormat)
	if err != nil {
		return clierrors.NewArgumentError(err.Error())
	}

	cfg, log, err := loadChangelog(cmd)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := changelog.Export(&buf, log.All(), cfg.Categories, format); err != nil {
		return err
	}

	if exportOutput != "" {
		if err := os.WriteFile(exportOutput, buf.Bytes(), 0o644); err != nil {
			return clierrors.FileNotWritable(exportOutput)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Exported %d section(s) to %s\n", log.GetVersionCount(), exportOutput)
		return nil
	}
	return writeSource(cmd.OutOrStdout(), buf.String(), string(format))
}
