package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/ariel-frischer/gitchangelog/internal/cli/shared"
	"github.com/ariel-frischer/gitchangelog/internal/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage gitchangelog configuration",
	Long: `Manage gitchangelog configuration settings.

Configuration is loaded with the following priority (highest to lowest):
  1. Environment variables (GITCHANGELOG_*, also read from .env)
  2. Project config (.gitchangelog/config.yml)
  3. User config (~/.config/gitchangelog/config.yml)
  4. Built-in defaults

Either config file may be written as JSON instead (config.json).`,
	Example: `  # Show the effective configuration
  gitchangelog config show

  # Set a value in the user config
  gitchangelog config set remote upstream

  # Set a value in the project config
  gitchangelog config set changelog_file docs/CHANGES.txt --project

  # List every key
  gitchangelog config keys`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set KEY VALUE",
	Short: "Set a configuration value",
	Long: `Set a configuration value in the user config, or in the project config
with --project. The value is validated against the key's type; comments in
the file are kept.`,
	Example: `  gitchangelog config set timeout 30s
  gitchangelog config set categories "Fix;Add;Change" --project`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configGetCmd = &cobra.Command{
	Use:   "get KEY",
	Short: "Show one configuration value and where it comes from",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigGet,
}

var configKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List every configuration key with its type and default",
	Args:  cobra.NoArgs,
	RunE:  runConfigKeys,
}

// Register adds the config and init commands to root.
func Register(root *cobra.Command) {
	root.AddCommand(configCmd)
	root.AddCommand(initCmd)
}

func init() {
	configCmd.GroupID = shared.GroupConfiguration
	configCmd.AddCommand(configShowCmd, configSetCmd, configGetCmd, configKeysCmd)

	configShowCmd.Flags().Bool("json", false, "Output in JSON format")
	configShowCmd.Flags().Bool("yaml", true, "Output in YAML format")

	configSetCmd.Flags().Bool("project", false, "Write to the project config (.gitchangelog/config.yml)")
	configGetCmd.Flags().Bool("project", false, "Only look in the project config")
	configGetCmd.Flags().Bool("user", false, "Only look in the user config")
	configGetCmd.MarkFlagsMutuallyExclusive("project", "user")
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	projectPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadWithOptions(config.LoadOptions{
		ProjectConfigPath: projectPath,
		WarningWriter:     cmd.ErrOrStderr(),
	})
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	out := cmd.OutOrStdout()
	printSources(out, projectPath)

	jsonFlag, _ := cmd.Flags().GetBool("json")
	if jsonFlag {
		data, err := json.MarshalIndent(cfg.Values(), "", "  ")
		if err != nil {
			return fmt.Errorf("encoding configuration: %w", err)
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	data, err := yaml.Marshal(cfg.Values())
	if err != nil {
		return fmt.Errorf("encoding configuration: %w", err)
	}
	fmt.Fprint(out, string(data))
	return nil
}

func printSources(out io.Writer, projectPath string) {
	if projectPath == "" {
		projectPath = config.ProjectConfigPath()
	}
	fmt.Fprintln(out, "Configuration Sources:")
	if userPath, err := config.UserConfigPath(); err == nil {
		fmt.Fprintf(out, "  user:    %s%s\n", userPath, existence(userPath))
	}
	fmt.Fprintf(out, "  project: %s%s\n", projectPath, existence(projectPath))
	if jsonPath := config.JSONSibling(projectPath); jsonPath != projectPath && existence(jsonPath) == "" {
		fmt.Fprintf(out, "  project: %s\n", jsonPath)
	}
	fmt.Fprintf(out, "  env:     %s*\n\n", config.EnvPrefix)
}

func existence(path string) string {
	if _, err := os.Stat(path); err != nil {
		return " (not found)"
	}
	return ""
}

// targetConfig returns the config file a command acts on and its label.
func targetConfig(project bool) (string, string, error) {
	if project {
		if _, err := os.Stat(config.ProjectConfigDir()); err != nil {
			return "", "", fmt.Errorf("not in a project directory: %s not found (run 'gitchangelog init --project')", config.ProjectConfigDir())
		}
		return config.ProjectConfigPath(), "project config", nil
	}
	path, err := config.UserConfigPath()
	if err != nil {
		return "", "", fmt.Errorf("locating user config: %w", err)
	}
	return path, "user config", nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key, value := args[0], args[1]
	if _, err := config.GetKeySchema(key); err != nil {
		return err
	}

	project, _ := cmd.Flags().GetBool("project")
	path, label, err := targetConfig(project)
	if err != nil {
		return err
	}

	if jsonPath := config.JSONSibling(path); !fileExists(path) && fileExists(jsonPath) {
		return fmt.Errorf("%s is a JSON config; edit it directly or replace it with %s", jsonPath, filepath.Base(path))
	}

	if err := config.SetConfigValue(path, key, value); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s in %s (%s)\n", key, value, label, path)
	return nil
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	key := args[0]
	schema, err := config.GetKeySchema(key)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	project, _ := cmd.Flags().GetBool("project")
	user, _ := cmd.Flags().GetBool("user")

	var sources []bool
	switch {
	case project:
		sources = []bool{true}
	case user:
		sources = []bool{false}
	default:
		sources = []bool{true, false}
	}

	for _, isProject := range sources {
		path, label, err := targetConfig(isProject)
		if err != nil {
			if project {
				return err
			}
			continue
		}
		if jsonPath := config.JSONSibling(path); !fileExists(path) && fileExists(jsonPath) {
			path = jsonPath
		}
		value, ok, err := fileValue(path, key)
		if err != nil {
			return err
		}
		if ok {
			fmt.Fprintf(out, "%s: %s (%s)\n", key, value, label)
			return nil
		}
		if project || user {
			fmt.Fprintf(out, "%s: not set in %s\n", key, label)
			return nil
		}
	}

	fmt.Fprintf(out, "%s: %v (default)\n", key, schema.Default)
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// fileValue reads key from the config file at path. JSON configs parse as
// YAML flow mappings.
func fileValue(path, key string) (string, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("reading %s: %w", path, err)
	}
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return "", false, fmt.Errorf("parsing %s: %w", path, err)
	}
	keyPath, err := config.ParseKeyPath(key)
	if err != nil {
		return "", false, err
	}
	node := config.GetNestedValue(&root, keyPath)
	if node == nil {
		return "", false, nil
	}
	if node.Kind != yaml.ScalarNode {
		encoded, err := yaml.Marshal(node)
		if err != nil {
			return "", false, err
		}
		return string(encoded), true, nil
	}
	return node.Value, true, nil
}

func runConfigKeys(cmd *cobra.Command, args []string) error {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tTYPE\tDEFAULT\tDESCRIPTION")
	for _, key := range config.SortedKeys() {
		schema := config.KnownKeys[key]
		fmt.Fprintf(tw, "%s\t%s\t%v\t%s\n", key, schema.Type, schema.Default, schema.Description)
	}
	return tw.Flush()
}
