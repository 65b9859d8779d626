// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Thryve Contributors

package main

import (
	"github.com/spf13/cobra"

	"github.com/thryve/thryve/internal/config"
	"github.com/thryve/thryve/internal/xdg"
)

// Global flags available to all subcommands.
var (
	configFile string
	envFiles   []string
)

// NewRootCmd creates the root command for the Thryve CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "thryve",
		Short: "Thryve - fitness tracking API",
		Long: `Thryve is the backend for the Thryve fitness tracker. It serves account
registration, login and password recovery over a JSON API.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (YAML)")
	cmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", []string{".env"}, "dotenv files to load; missing files are skipped")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())

	return cmd
}

// loadConfig reads and validates configuration for a subcommand, applying the
// subcommand's flags last.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := loadConfigUnvalidated(cmd)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadConfigUnvalidated reads configuration. Without --config it falls back to
// $XDG_CONFIG_HOME/thryve/config.yaml when that file exists.
func loadConfigUnvalidated(cmd *cobra.Command) (*config.Config, error) {
	file := configFile
	if file == "" {
		found, err := xdg.DefaultConfigFile()
		if err != nil {
			return nil, err
		}
		file = found
	}
	return config.Load(config.LoadOptions{
		ConfigFile: file,
		EnvFiles:   envFiles,
		Flags:      cmd.Flags(),
	})
}
