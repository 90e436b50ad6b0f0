package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	cfg    *Config
	client *Client
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cfg = DefaultConfig()

	rootCmd := &cobra.Command{
		Use:   "hcongame",
		Short: "Terminal client for the hcongame challenge",
		Long: `hcongame plays the challenge from a terminal.

It registers the player behind a session token, walks the levels against the
challenge API, shows the ranking and reads or edits the player's own data
through the server's session proxy.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Flag or env token first, then the token file
			if err := cfg.ResolveToken(); err != nil {
				return err
			}

			client = NewClient(cfg.ServerURL, cfg.SessionToken)
			return nil
		},
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfg.ServerURL, "server", cfg.ServerURL, "Server URL (env: HCONGAME_SERVER)")
	rootCmd.PersistentFlags().StringVar(&cfg.APIURL, "api", cfg.APIURL, "Challenge API URL (env: HCONGAME_API)")
	rootCmd.PersistentFlags().StringVar(&cfg.Token, "token", cfg.Token, "Session token (env: HCONGAME_TOKEN)")
	rootCmd.PersistentFlags().StringVar(&cfg.TokenFile, "token-file", cfg.TokenFile, "Token file path (env: HCONGAME_TOKEN_FILE)")
	rootCmd.PersistentFlags().StringVarP(&cfg.Output, "output", "o", cfg.Output, "Output format: text, json")
	rootCmd.PersistentFlags().BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose, "Verbose output")

	// Add subcommands
	rootCmd.AddCommand(newRegisterCmd())
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newWhoamiCmd())
	rootCmd.AddCommand(newLogoutCmd())
	rootCmd.AddCommand(newLevelsCmd())
	rootCmd.AddCommand(newRankingCmd())
	rootCmd.AddCommand(newStoreCmd())
	rootCmd.AddCommand(newWatchCmd())
	rootCmd.AddCommand(newEventsCmd())
	rootCmd.AddCommand(newHealthCmd())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
