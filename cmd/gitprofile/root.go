package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kalambet/gitprofile/internal/config"
	"github.com/kalambet/gitprofile/internal/gitconfig"
	"github.com/kalambet/gitprofile/internal/profile"
	"github.com/kalambet/gitprofile/internal/storage"
)

var (
	verbose       bool
	dataDirFlag   string
	gitBinaryFlag string

	cfg config.Config
)

// newGitRunner builds the runner the gateway shells out through.
var newGitRunner = func(binary string) gitconfig.Runner {
	return gitconfig.NewExecRunner(binary)
}

var rootCmd = &cobra.Command{
	Use:   "gitprofile",
	Short: "Store Git identities and switch the global one",
	Long: `gitprofile keeps a list of Git identities (name, email, alias) and
switches the global user.name and user.email between them.

Examples:
  gitprofile add --name "Alice" --email alice@work.com --alias work
  gitprofile switch --alias work
  gitprofile list`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		setupOutput(cmd.OutOrStdout(), cmd.ErrOrStderr())

		loaded, err := config.Load()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if dataDirFlag != "" {
			loaded.Storage.DataDir = dataDirFlag
		}
		if gitBinaryFlag != "" {
			loaded.Git.Binary = gitBinaryFlag
		}
		if verbose {
			loaded.Log.Level = "debug"
		}
		cfg = loaded

		setupLogging(cfg.Log.Level)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dataDirFlag, "data-dir", "", "Directory holding the profile database")
	rootCmd.PersistentFlags().StringVar(&gitBinaryFlag, "git", "", "Path to the git executable")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

func setupLogging(level string) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		printWarning("unknown log level %q, using warn", level)
		lvl = slog.LevelWarn
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(errOut, &slog.HandlerOptions{Level: lvl})))
}

// openManager opens the configured store and wires a Manager over it and
// the git gateway. The returned func closes the store.
func openManager() (*profile.Manager, func(), error) {
	store, err := storage.Open(cfg.Storage.DataDir)
	if err != nil {
		return nil, nil, fmt.Errorf("opening storage: %w", err)
	}
	slog.Debug("storage opened", "path", store.Path())

	closeFn := func() {
		if err := store.Close(); err != nil {
			slog.Warn("closing storage", "error", err)
		}
	}

	git := gitconfig.New(newGitRunner(cfg.Git.Binary))
	return profile.NewManager(store, git), closeFn, nil
}
