// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the bibclean CLI.
// Subcommands cover imputation of the per-year exports, combining the
// cleaned files, and the SQLite record store.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is set at build time via ldflags.
var version = "dev"

// logger is configured from --log-level and --log-format before any
// subcommand runs.
var logger = logrus.New()

// rootCmd is the base command for the bibclean CLI.
var rootCmd = &cobra.Command{
	Use:   "bibclean",
	Short: "Clean and impute bibliographic records for the dashboard",
	Long: `bibclean cleans per-year JSON exports of bibliographic records, fills
missing institutions, keywords, dates, and locations by inference across the
records of each file, and writes CSV files for the dashboard.

Each stage is a subcommand: impute, combine, and store. Settings come from
flags, BIBCLEAN_* environment variables (a .env file is loaded first), or
bibclean.yaml.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := loadDotEnv(".env"); err != nil {
			return err
		}
		l, err := newLogger(logConfig())
		if err != nil {
			return err
		}
		logger = l
		if used := viper.ConfigFileUsed(); used != "" {
			logger.WithField("config", used).Debug("using config file")
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./bibclean.yaml or $XDG_CONFIG_HOME/bibclean/bibclean.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "text", "log format: text or json")

	viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("bibclean")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath(filepath.Join(xdg.ConfigHome, "bibclean"))
	}

	viper.SetEnvPrefix("BIBCLEAN")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			fmt.Fprintln(os.Stderr, "warning: reading config:", err)
		}
	}
}

// loadDotEnv loads environment variables from path without overriding
// variables already set. A missing file is not an error.
func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logger.Error(err)
		os.Exit(1)
	}
}
