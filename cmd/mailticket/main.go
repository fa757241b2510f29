// -----------------------------------------------------------------------
// Last Modified: Wednesday, 14th October 2026 11:00:00 am
// Modified By: Bob McAllan
// -----------------------------------------------------------------------

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/mailticket/internal/app"
	"github.com/ternarybob/mailticket/internal/common"
)

var (
	// Command-line flags
	configFiles []string // Multiple --config flags supported
	serverPort  int
	serverHost  string

	// Global state
	config *common.Config
	logger arbor.ILogger
)

var rootCmd = &cobra.Command{
	Use:   "mailticket",
	Short: "Turn the open email into a Jira ticket",
	Long: `MailTicket reads an email from Gmail, Outlook on the web, an .eml file or an IMAP
mailbox and files it as a Jira issue, including any custom fields you configure.

Run "mailticket serve" for the browser extension, or use the subcommands directly.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

func init() {
	rootCmd.PersistentFlags().StringArrayVarP(&configFiles, "config", "c", nil, "Configuration file path (can be specified multiple times, later files override earlier ones)")
	rootCmd.PersistentFlags().IntVarP(&serverPort, "port", "p", 0, "Server port (overrides config)")
	rootCmd.PersistentFlags().StringVar(&serverHost, "host", "", "Server host (overrides config)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(newTicketCommand())
	rootCmd.AddCommand(newFieldsCommand())
	rootCmd.AddCommand(newConnectionCommand())
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig runs the startup sequence (REQUIRED ORDER):
// 1. Load config (defaults -> file1 -> file2 -> ... -> env)
// 2. Apply CLI overrides (highest priority)
// 3. Initialize logger
func loadConfig(cmd *cobra.Command, args []string) error {
	// Auto-discover config file if not specified
	if len(configFiles) == 0 {
		if _, err := os.Stat("mailticket.toml"); err == nil {
			configFiles = append(configFiles, "mailticket.toml")
		} else if _, err := os.Stat("deployments/local/mailticket.toml"); err == nil {
			configFiles = append(configFiles, "deployments/local/mailticket.toml")
		}
	}

	var err error
	config, err = common.LoadFromFiles(configFiles...)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	common.ApplyFlagOverrides(config, serverPort, serverHost)
	logger = common.InitLogger(config)

	logger.Debug().
		Strs("config_files", configFiles).
		Str("badger_path", config.Storage.Badger.Path).
		Str("jira", config.Jira.BaseURL).
		Str("log_level", config.Logging.Level).
		Msg("Resolved configuration (sanitized)")

	return nil
}

// openApp initializes the application for a one-shot command. The database is
// exclusive, so this fails while "mailticket serve" holds it.
func openApp() (*app.App, error) {
	application, err := app.New(config, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize application: %w", err)
	}
	return application, nil
}
