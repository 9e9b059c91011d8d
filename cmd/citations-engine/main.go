// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the citations-engine CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/citations-engine/internal/httputil"
	"github.com/pdiddy/citations-engine/internal/journal"
	"github.com/pdiddy/citations-engine/internal/logging"
	"github.com/pdiddy/citations-engine/internal/retrieval"
	"github.com/pdiddy/citations-engine/internal/search"
	"github.com/pdiddy/citations-engine/internal/secrets"
	"github.com/pdiddy/citations-engine/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets secrets.Store

// logger is built from log.level and log.format before any command runs.
var logger = zerolog.Nop()

var rootCmd = &cobra.Command{
	Use:   "citations-engine",
	Short: "Answer questions with dated, quoted, verifiable web sources",
	Long: `citations-engine answers a factual question by searching the web, fetching
the most credible pages it finds, and composing an answer in which every
claim is backed by a short verbatim quote with its source URL and date.

Retrieval stops as soon as enough independent sources agree. When a quick
pass comes up short, one deeper pass with relaxed limits runs before the
answer is composed. The whole request is bounded by a latency budget.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(secrets.DefaultDir)
		if err != nil {
			return err
		}
		loadedSecrets = s

		l, err := logging.New(viper.GetString("log.level"), viper.GetString("log.format"), os.Stderr)
		if err != nil {
			return err
		}
		logger = l
		zerolog.DefaultContextLogger = &logger
		if len(s) > 0 {
			logger.Debug().Strs("secrets", s.Names()).Msg("loaded secrets")
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./citations-engine.yaml or ~/.config/citations-engine/citations-engine.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "", "log format: json or console")
	rootCmd.PersistentFlags().String("provider", "", "search provider: serper or brave")

	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))
	_ = viper.BindPFlag("search.provider", rootCmd.PersistentFlags().Lookup("provider"))

	viper.SetDefault("log.level", "warn")
	viper.SetDefault("log.format", "console")
	viper.SetDefault("search.provider", "serper")
	viper.SetDefault("journal.path", journal.DefaultPath)
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("citations-engine")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "citations-engine"))
		}
	}

	viper.SetEnvPrefix("CITATIONS_ENGINE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// loadConfig decodes the merged viper settings and resolves the provider
// API key from .secrets/ or the environment.
func loadConfig() (types.Config, error) {
	var cfg types.Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decoding config: %w", err)
	}
	if cfg.Search.APIKey == "" {
		key, source := loadedSecrets.Lookup(search.SecretName(cfg.Search.Provider), search.EnvKey(cfg.Search.Provider))
		cfg.Search.APIKey = key
		if source != "" {
			logger.Debug().Str("provider", cfg.Search.Provider).Str("source", source).Msg("search API key resolved")
		}
	}
	return cfg, nil
}

// newToolkit builds the process-wide HTTP client and the search provider.
func newToolkit(cfg types.Config) (*retrieval.DefaultToolkit, error) {
	client := httputil.NewClient(cfg.HTTP)
	provider, err := search.New(cfg.Search, client)
	if err != nil {
		return nil, err
	}
	return &retrieval.DefaultToolkit{Client: client, Provider: provider}, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
