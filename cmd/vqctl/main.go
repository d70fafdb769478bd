// SPDX-License-Identifier: Apache-2.0

// vqctl is the offline companion for the quality tracking service. It keeps
// the three record collections in a local SQLite file so a shop-floor laptop
// can capture entries and produce the same exports without the API.
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/vqtrack/vqtrack/internal/domain"
	"github.com/vqtrack/vqtrack/internal/store/local"
)

type cliConfig struct {
	DataDir    string `yaml:"data_dir"`
	Area       string `yaml:"area"`
	OperatorID string `yaml:"operator_id"`
}

var (
	flagConfig  string
	flagDataDir string

	cfg cliConfig
)

func main() {
	root := &cobra.Command{
		Use:           "vqctl",
		Short:         "Vehicle quality tracking, offline",
		Long:          "vqctl records inspections, defects and line stoppages in a local database and renders the standard reports from it.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := loadConfig(flagConfig)
			if err != nil {
				return err
			}
			cfg = loaded
			if flagDataDir != "" {
				cfg.DataDir = flagDataDir
			}
			return nil
		},
	}

	root.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default $HOME/.config/vqtrack/config.yaml)")
	root.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "directory holding the local database")

	root.AddCommand(newAddCmd())
	root.AddCommand(newListCmd())
	root.AddCommand(newRemoveCmd())
	root.AddCommand(newClearCmd())
	root.AddCommand(newStatsCmd())
	root.AddCommand(newExportCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func loadConfig(path string) (cliConfig, error) {
	out := cliConfig{}

	explicit := path != ""
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return defaultedConfig(out), nil
		}
		path = filepath.Join(home, ".config", "vqtrack", "config.yaml")
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return defaultedConfig(out), nil
		}
		return cliConfig{}, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(raw, &out); err != nil {
		return cliConfig{}, fmt.Errorf("parse config %s: %w", path, err)
	}

	return defaultedConfig(out), nil
}

func defaultedConfig(c cliConfig) cliConfig {
	if c.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		c.DataDir = filepath.Join(home, ".vqtrack")
	}
	return c
}

func openStore() (*local.Store, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir %s: %w", cfg.DataDir, err)
	}
	return local.Open(cfg.DataDir)
}

// resolveArea applies the config default before validating.
func resolveArea(flagValue string) (domain.Area, error) {
	raw := strings.TrimSpace(flagValue)
	if raw == "" {
		raw = strings.TrimSpace(cfg.Area)
	}
	if raw == "" || strings.EqualFold(raw, string(domain.AreaAll)) {
		return domain.AreaAll, nil
	}
	area := domain.Area(raw)
	if !domain.ValidArea(area) {
		return "", fmt.Errorf("unknown area %q", raw)
	}
	return area, nil
}

func resolveOperator(flagValue string) string {
	if strings.TrimSpace(flagValue) != "" {
		return flagValue
	}
	return cfg.OperatorID
}
