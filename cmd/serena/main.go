// Command serena triages personal message archives into A2P records.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/serena/internal/cli"
	"github.com/Veraticus/serena/internal/common"
	"github.com/Veraticus/serena/internal/config"
)

var (
	cfgFile string
	version = "dev"
	rootCmd = &cobra.Command{
		Use:   "serena",
		Short: "Sort machine-sent messages out of a personal archive",
		Long: `serena decodes mail, text-message exports and messaging-app transcripts,
keeps the application-to-person (A2P) messages and extracts their
transactional fields into a deduplicated result cache.`,
		PersistentPreRunE: initConfig,
		SilenceUsage:      true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $XDG_CONFIG_HOME/serena/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "console", "log format (console, json)")

	_ = viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("logging.format", rootCmd.PersistentFlags().Lookup("log-format"))

	setDefaults(viper.GetViper())

	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(stageCmds()...)
	rootCmd.AddCommand(cacheCmd())
	rootCmd.AddCommand(reviewCmd())
	rootCmd.AddCommand(highlightCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(runsCmd())
	rootCmd.AddCommand(versionCmd())
}

func main() {
	err := rootCmd.ExecuteContext(context.Background())
	if err != nil {
		var userErr *common.UserError
		if errors.As(err, &userErr) {
			fmt.Fprintln(os.Stderr, cli.FormatError(userErr.UserMessage))
		} else {
			fmt.Fprintln(os.Stderr, cli.FormatError(err.Error()))
		}
		os.Exit(1)
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.max_retries", 3)
	v.SetDefault("llm.retry_delay", "1s")
	v.SetDefault("llm.rate_limit", 60)
	v.SetDefault("llm.timeout", "60s")
	v.SetDefault("pipeline.workers", 1)
	v.SetDefault("cache.path", filepath.Join(config.DataDir(), "cache.json"))
	v.SetDefault("ledger.enabled", true)
	v.SetDefault("ledger.path", filepath.Join(config.DataDir(), "ledger.db"))
	v.SetDefault("sheets.token_file", filepath.Join(config.ConfigDir(), "sheets-token.json"))
	v.SetDefault("tui.theme", "default")
}

func initConfig(_ *cobra.Command, _ []string) error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(config.ConfigDir())
		viper.AddConfigPath(".")
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("SERENA")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err := setupLogging(); err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	return nil
}

func setupLogging() error {
	level, err := common.ParseLevel(viper.GetString("logging.level"))
	if err != nil {
		return err
	}
	return common.SetupLogger(level, viper.GetString("logging.format"))
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "serena %s\n", version)
		},
	}
}
