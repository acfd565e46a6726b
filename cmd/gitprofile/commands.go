package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kalambet/gitprofile/internal/config"
	"github.com/kalambet/gitprofile/internal/present"
	"github.com/kalambet/gitprofile/internal/profile"
)

// --- list ---

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List stored profiles, emphasizing the active one",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, closeFn, err := openManager()
		if err != nil {
			return err
		}
		defer closeFn()

		listing, err := mgr.List(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Fprintln(out, present.NewTable(renderer).Render(listing.Profiles, listing.CurrentEmail))
		return nil
	},
}

// --- add ---

var (
	addName  string
	addEmail string
	addAlias string
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Store a new profile",
	Long: `Store a new profile.

Examples:
  gitprofile add -n "Alice" -e alice@work.com -a work`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, closeFn, err := openManager()
		if err != nil {
			return err
		}
		defer closeFn()

		p, err := mgr.Add(cmd.Context(), addName, addEmail, addAlias)
		if err != nil {
			return err
		}

		printSuccess("Added profile %s", p.Label())
		return nil
	},
}

// --- switch ---

var (
	switchAlias  string
	switchEmail  string
	switchStrict bool
)

var switchCmd = &cobra.Command{
	Use:   "switch",
	Short: "Make a stored profile the global git identity",
	Long: `Make a stored profile the global git identity.

The first profile whose alias contains --alias (case-insensitive), or whose
email equals --email, is selected. An empty --alias matches every
profile, so with neither flag the first stored profile is used.
When nothing matches, nothing happens unless --strict is set.

Examples:
  gitprofile switch --alias work`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, closeFn, err := openManager()
		if err != nil {
			return err
		}
		defer closeFn()

		p, err := mgr.Switch(cmd.Context(), profile.Selector{Alias: switchAlias, Email: switchEmail})
		if errors.Is(err, profile.ErrNoMatch) {
			if switchStrict || cfg.Switch.Strict {
				return err
			}
			return nil
		}
		if err != nil {
			return err
		}

		printSuccess("Switched profile to %s", p.Label())
		return nil
	},
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage gitprofile configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show all configuration values",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		printStatus("Config file", "%s", config.FilePath())
		for _, info := range config.ShowAll(cfg) {
			printStatus(info.Key, "%s  %s", info.Value, style.info.Render("("+info.EnvVar+")"))
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: fmt.Sprintf(`Set a configuration value in the config file.

Valid keys: %s`, strings.Join(config.ValidKeys(), ", ")),
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.SetKey(args[0], args[1]); err != nil {
			return err
		}
		printSuccess("Set %s = %s", args[0], args[1])
		return nil
	},
}

var configUnsetCmd = &cobra.Command{
	Use:   "unset <key>",
	Short: "Remove a configuration value so its default applies",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.UnsetKey(args[0]); err != nil {
			return err
		}
		printSuccess("Unset %s", args[0])
		return nil
	},
}

// --- version ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the gitprofile version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(out, "gitprofile version %s\n", version)
	},
}

func init() {
	addCmd.Flags().StringVarP(&addName, "name", "n", "", "Value for user.name")
	addCmd.Flags().StringVarP(&addEmail, "email", "e", "", "Value for user.email")
	addCmd.Flags().StringVarP(&addAlias, "alias", "a", "", "Short name used to select the profile")
	addCmd.MarkFlagRequired("name")
	addCmd.MarkFlagRequired("email")
	addCmd.MarkFlagRequired("alias")

	switchCmd.Flags().StringVarP(&switchAlias, "alias", "a", "", "Substring of the profile alias")
	switchCmd.Flags().StringVarP(&switchEmail, "email", "e", "", "Exact profile email")
	switchCmd.Flags().BoolVar(&switchStrict, "strict", false, "Fail when no profile matches")

	configCmd.AddCommand(configShowCmd, configSetCmd, configUnsetCmd)

	rootCmd.AddCommand(listCmd, addCmd, switchCmd, configCmd, versionCmd)
}
