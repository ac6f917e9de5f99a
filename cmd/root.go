package cmd

import (
	"fmt"
	"os"

	cfgpkg "github.com/KaramelBytes/telefilter/internal/config"
	"github.com/KaramelBytes/telefilter/internal/logger"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile  string
	debug    bool
	logLevel string

	// Loaded configuration
	cfg *cfgpkg.Global
)

var rootCmd = &cobra.Command{
	Use:   "telefilter",
	Short: "telefilter: filter campaign contact data and compare outcome proportions",
	Long: `telefilter loads a bank telemarketing dataset (semicolon CSV or XLSX), filters it by an
age range and categorical selections, and reports how the subscription outcome is
distributed before and after filtering. The filtered data and both proportion tables
are exported as XLSX workbooks.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		loadConfig(cmd)
	},
}

// Execute is the entry point called by main.main()
func Execute() {
	defer logger.Sync()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	// Persistent global flags available to all subcommands
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.telefilter/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug output")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug|info|warn|error (overrides config)")
}

func loadConfig(cmd *cobra.Command) {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: fall back to built-in defaults so `config set` can repair a bad file
		fmt.Fprintf(cmd.ErrOrStderr(), "⚠ Warning: failed to load config: %v\n", err)
		c = cfgpkg.Defaults()
	}
	cfg = c

	lc := logger.Config{Level: cfg.LogLevel, Encoding: cfg.LogEncoding, OutputPaths: []string{"stderr"}}
	if logLevel != "" {
		lc.Level = logLevel
	}
	if debug {
		lc.Level = "debug"
		lc.Development = true
		lc.Encoding = "console"
	}
	if err := logger.Init(lc); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "⚠ Warning: logger: %v\n", err)
	}
}
