package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ariel-frischer/gitchangelog/internal/changelog"
	"github.com/ariel-frischer/gitchangelog/internal/config"
	clierrors "github.com/ariel-frischer/gitchangelog/internal/errors"
	"github.com/ariel-frischer/gitchangelog/internal/git"
	"github.com/ariel-frischer/gitchangelog/internal/history"
	"github.com/ariel-frischer/gitchangelog/internal/progress"
	"github.com/ariel-frischer/gitchangelog/internal/refexpr"
	"github.com/ariel-frischer/gitchangelog/internal/watch"
	"github.com/ariel-frischer/gitchangelog/internal/workflow"
	"github.com/spf13/cobra"
)

// newGitClient builds the git client for cfg. Tests replace it to run a
// scripted git.
var newGitClient = func(cfg *config.Configuration) (workflow.Git, error) {
	return git.NewClient(git.Options{
		Executable: cfg.GitExecutable,
		Dir:        cfg.WorkingDir,
		Timeout:    cfg.Timeout,
	})
}

// app bundles what a command needs: the loaded configuration and a
// workflow service wired to git, history and progress output.
type app struct {
	cfg     *config.Configuration
	service *workflow.Service
	out     io.Writer
	errOut  io.Writer
	verbose bool
}

// loadConfig loads the configuration and applies the global flags.
func loadConfig(cmd *cobra.Command) (*config.Configuration, error) {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadWithOptions(config.LoadOptions{
		ProjectConfigPath: configPath,
		WarningWriter:     cmd.ErrOrStderr(),
	})
	if err != nil {
		path := configPath
		if path == "" {
			path = config.ProjectConfigPath()
		}
		return nil, clierrors.ConfigParseError(path, err)
	}

	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		cfg.Debug = true
	}
	if dir, _ := cmd.Flags().GetString("dir"); dir != "" {
		cfg.WorkingDir = dir
	}
	if cfg.WorkingDir != "" {
		cfg.ChangelogFile = inDir(cfg.WorkingDir, cfg.ChangelogFile)
		cfg.NuspecFile = inDir(cfg.WorkingDir, cfg.NuspecFile)
	}
	gitTimeout = cfg.Timeout
	return cfg, nil
}

// inDir resolves a relative path against dir.
func inDir(dir, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}

// newApp loads the configuration and builds the workflow service.
func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	setDebugLoggers(cmd.ErrOrStderr(), cfg.Debug)

	client, err := newGitClient(cfg)
	if err != nil {
		return nil, clierrors.Wrap(err, clierrors.Configuration,
			"Check git_executable: gitchangelog config show")
	}

	verbose, _ := cmd.Flags().GetBool("verbose")
	a := &app{
		cfg:     cfg,
		out:     cmd.OutOrStdout(),
		errOut:  cmd.ErrOrStderr(),
		verbose: verbose,
	}

	s := workflow.NewService(cfg, client)
	s.History = history.NewWriter(cfg.StateDir, cfg.MaxHistoryEntries)
	s.Info = a.info
	s.SetDisplay(a.display())
	a.service = s
	return a, nil
}

// info prints informational messages to stderr.
func (a *app) info(format string, args ...any) {
	workflow.InfoWriter(a.errOut)(format, args...)
}

// display returns the progress display for stderr. A spinner is only used
// when stderr is a terminal.
func (a *app) display() *progress.Display {
	caps := progress.TerminalCapabilities{}
	if f, ok := a.errOut.(*os.File); ok {
		caps = progress.DetectTerminalCapabilities(f)
	}
	return progress.NewDisplay(a.errOut, caps)
}

// setDebugLoggers routes package debug output to w when enabled.
func setDebugLoggers(w io.Writer, enabled bool) {
	var logger func(format string, args ...any)
	if enabled {
		logger = func(format string, args ...any) {
			fmt.Fprintf(w, "[debug] "+format+"\n", args...)
		}
	}
	git.SetDebugLogger(logger)
	refexpr.SetDebugLogger(logger)
	changelog.SetDebugLogger(logger)
	watch.SetDebugLogger(logger)
}
