// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the nnaasynth CLI.
// Subcommands: analyze, results, serve, version.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/nnaasynth/internal/logging"
	"github.com/pdiddy/nnaasynth/internal/secrets"
	"github.com/pdiddy/nnaasynth/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	// loadedSecrets holds API keys loaded from .secrets/ at startup.
	loadedSecrets secrets.Secrets

	// logger writes diagnostics to stderr. Progress and results go to stdout.
	logger = zap.NewNop()
)

// rootCmd is the base command for the nnaasynth CLI.
var rootCmd = &cobra.Command{
	Use:   "nnaasynth",
	Short: "Assess the synthesizability of non-natural amino acids",
	Long: `nnaasynth estimates how feasible it is to synthesize a non-natural amino
acid (NNAA). It enumerates protected variants of the input SMILES, runs
retrosynthesis route search on the leading variants, scores every route with
the Chemformer feasibility model and the expert-augmented model, and reports
the best route per variant.

Protection, route search and expert inference run in containers (docker or
podman); Chemformer is reached over HTTP. Analyses are stored in a local
SQLite database and can be browsed with "results" or served with "serve".`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var logCfg types.LogConfig
		if err := viper.UnmarshalKey("log", &logCfg); err != nil {
			return fmt.Errorf("reading log config: %w", err)
		}
		l, err := logging.New(logCfg, os.Stderr)
		if err != nil {
			return err
		}
		logger = l

		if used := viper.ConfigFileUsed(); used != "" {
			logger.Info("using config file", zap.String("path", used))
		}

		s, err := secrets.Load(".secrets/", logger)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			logger.Info("loaded secrets", zap.Strings("keys", s.Keys()))
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./nnaasynth.yaml or ~/.config/nnaasynth/nnaasynth.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "diagnostic log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "console", "diagnostic log format: console or json")
	rootCmd.PersistentFlags().String("data-dir", "data", "directory holding index/nnaasynth.db")

	bindFlag(rootCmd.PersistentFlags(), "log-level", "log.level")
	bindFlag(rootCmd.PersistentFlags(), "log-format", "log.format")
	bindFlag(rootCmd.PersistentFlags(), "data-dir", "store.data_dir")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("nnaasynth")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "nnaasynth"))
		}
	}

	setupEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound || cfgFile != "" {
			fmt.Fprintln(os.Stderr, "Error reading config file:", err)
		}
	}
}

// setupEnv registers the config keys and reads NNAASYNTH_* variables.
func setupEnv() {
	setDefaults()
	viper.SetEnvPrefix("NNAASYNTH")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
}

// setDefaults registers every config key so environment variables such as
// NNAASYNTH_SCORING_CHEMFORMER_URL are seen by Unmarshal.
func setDefaults() {
	defaults := map[string]any{
		"protection.smartslib_path":         "",
		"protection.reaction_rules_path":    "",
		"protection.protection_groups_path": "",
		"protection.image":                  "nnaasynth/protect:latest",
		"search.finder_config_path":         "",
		"search.image":                      "nnaasynth/aizynth:latest",
		"search.timeout":                    "0s",
		"search.concurrency":                1,
		"scoring.timeout":                   "60s",
		"scoring.user_agent":                "nnaasynth/" + version,
		"scoring.chemformer_url":            "",
		"scoring.api_key":                   "",
		"scoring.max_retries":               5,
		"scoring.requests_per_second":       0.0,
		"scoring.expert_augmented_dir":      "",
		"scoring.expert_image":              "nnaasynth/expert:latest",
		"scoring.penalty_score":             types.DefaultPenaltyScore,
		"pipeline.max_variants":             types.DefaultMaxVariants,
		"pipeline.concurrency":              1,
		"pipeline.route_concurrency":        1,
		"pipeline.score_timeout":            "0s",
		"server.addr":                       ":8080",
		"server.run_timeout":                "0s",
	}
	for k, v := range defaults {
		viper.SetDefault(k, v)
	}

	// No default: unset keeps the built-in sentinel.
	if err := viper.BindEnv("scoring.no_path_score", "NNAASYNTH_SCORING_NO_PATH_SCORE"); err != nil {
		panic(err)
	}
}

// bindFlag makes a flag override the config key when set.
func bindFlag(fs *pflag.FlagSet, name, key string) {
	if err := viper.BindPFlag(key, fs.Lookup(name)); err != nil {
		panic(err)
	}
}

// loadConfig decodes the merged flag, environment and file settings.
func loadConfig() (types.Config, error) {
	var cfg types.Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return types.Config{}, fmt.Errorf("reading config: %w", err)
	}
	cfg.Scoring.APIKey = loadedSecrets.Get(secrets.ChemformerAPIKey, cfg.Scoring.APIKey)
	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
