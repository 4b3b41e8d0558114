package cli

import (
	"fmt"

	clierrors "github.com/ariel-frischer/gitchangelog/internal/errors"
	"github.com/ariel-frischer/gitchangelog/internal/manifest"
	"github.com/spf13/cobra"
)

var (
	nuspecProperty string
	nuspecValue    string
	nuspecMode     string
	nuspecSet      []string
	nuspecSection  string
	nuspecRequire  bool
)

var nuspecCmd = &cobra.Command{
	Use:   "nuspec",
	Short: "Edit properties of a .nuspec manifest",
	Long: `Edit properties of a .nuspec manifest.

The manifest root must be <package>; properties live in a section element
below it (metadata by default). Missing property elements are created, and
the rest of the document is kept as is.`,
}

var nuspecSetCmd = &cobra.Command{
	Use:   "set FILE",
	Short: "Set one or more manifest properties",
	Long: `Set one or more manifest properties.

Either give a single property with --property, --value and --mode, or any
number of --set Property=Value[:Mode] assignments. The two forms cannot be
combined.

Modes:
  Replace      replace the value (default, also used for unknown modes)
  Append       append to the current value
  AppendLine   append on a new line
  Insert       insert before the current value
  InsertLine   insert before the current value on its own line`,
	Example: `  gitchangelog nuspec set package.nuspec --property version --value 1.2.0
  gitchangelog nuspec set package.nuspec --property releaseNotes --value "- Fix" --mode AppendLine
  gitchangelog nuspec set package.nuspec --set version=1.2.0 --set tags=cli:Append`,
	Args: usageArgs(cobra.ExactArgs(1)),
	RunE: runNuspecSet,
}

func init() {
	nuspecCmd.GroupID = GroupChangelog
	rootCmd.AddCommand(nuspecCmd)
	nuspecCmd.AddCommand(nuspecSetCmd)

	nuspecSetCmd.Flags().StringVarP(&nuspecProperty, "property", "p", "", "Property to set")
	nuspecSetCmd.Flags().StringVar(&nuspecValue, "value", "", "Value of the property")
	nuspecSetCmd.Flags().StringVarP(&nuspecMode, "mode", "m", "Replace", "Edit mode: Replace, Append, AppendLine, Insert, InsertLine")
	nuspecSetCmd.Flags().StringArrayVar(&nuspecSet, "set", nil, "Property=Value[:Mode] assignment (repeatable)")
	nuspecSetCmd.Flags().StringVar(&nuspecSection, "section", "", "Section holding the properties (default: nuspec_section)")
	nuspecSetCmd.Flags().BoolVar(&nuspecRequire, "require", false, "Fail when no property is given")

	nuspecSetCmd.MarkFlagsMutuallyExclusive("property", "set")
	nuspecSetCmd.MarkFlagsMutuallyExclusive("mode", "set")
}

func runNuspecSet(cmd *cobra.Command, args []string) error {
	path := args[0]

	req, err := nuspecRequest(cmd)
	if err != nil {
		return err
	}

	section := nuspecSection
	if section == "" {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		section = cfg.NuspecSection
	}

	out := cmd.OutOrStdout()
	written, err := manifest.Edit(path, req, manifest.Options{
		Section:     section,
		FailIfEmpty: nuspecRequire,
		Info: func(format string, args ...any) {
			fmt.Fprintf(cmd.ErrOrStderr(), "Info: "+format+"\n", args...)
		},
	})
	if err != nil {
		if nuspecRequire && req.IsZero() {
			return clierrors.NewArgumentErrorWithUsage(err.Error(), cmd.UseLine(),
				"Give --property and --value, or one or more --set assignments")
		}
		return err
	}
	if !written {
		return nil
	}
	for _, e := range req.Edits() {
		fmt.Fprintf(out, "Set %s (%s) in %s\n", e.Property, e.Mode, path)
	}
	return nil
}

// nuspecRequest builds the edit request from the flags. No flags at all
// yield the zero request.
func nuspecRequest(cmd *cobra.Command) (manifest.Request, error) {
	if len(nuspecSet) > 0 {
		if cmd.Flags().Changed("value") {
			return manifest.Request{}, clierrors.InvalidFlagCombination("--value, --set",
				"--set carries its own value: --set Property=Value[:Mode]")
		}
		edits := make([]manifest.PropertyEdit, 0, len(nuspecSet))
		for _, s := range nuspecSet {
			edit, err := manifest.ParseAssignment(s)
			if err != nil {
				return manifest.Request{}, clierrors.NewArgumentError(err.Error())
			}
			edits = append(edits, edit)
		}
		req, err := manifest.Bulk(edits...)
		if err != nil {
			return manifest.Request{}, clierrors.NewArgumentError(err.Error())
		}
		return req, nil
	}

	if nuspecProperty == "" {
		if cmd.Flags().Changed("value") {
			return manifest.Request{}, clierrors.NewArgumentErrorWithUsage("--value requires --property", cmd.UseLine())
		}
		return manifest.Request{}, nil
	}
	req, err := manifest.Single(nuspecProperty, nuspecValue, manifest.ParseEditMode(nuspecMode))
	if err != nil {
		return manifest.Request{}, clierrors.NewArgumentError(err.Error())
	}
	return req, nil
}
