package main

import (
	"fmt"
	"os"
	"time"

	"payslipsync/internal/config"
	"payslipsync/internal/logging"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

var (
	// Global flags
	configPath string
	verbose    bool
	headless   bool
	timeout    time.Duration

	cfg    *config.Config
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "payslipsync",
	Short: "Archive new payslips from the HR portal into Google Drive",
	Long: `payslipsync logs into the HR portal, lists the published payslips,
compares them with the documents already archived in a Drive folder and
uploads the missing ones under canonical names (<prefix>_<YY>_<MM>[_AGG].pdf).

Run without a subcommand to perform a full synchronization.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("headless") {
			cfg.Browser.Headless = headless
		}
		if verbose {
			cfg.Logging.Level = "debug"
		}

		logger, err = logging.New(cfg.Logging)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runSync,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "payslipsync.yaml", "Configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&headless, "headless", true, "Run the browser without a window")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "Bound on a whole run (0 uses the configured run timeout)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
