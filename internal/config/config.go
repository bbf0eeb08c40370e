// Package config loads application settings from file and environment.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/humaniza/clinic-ledger/internal/classify"
)

// Config holds every tunable of the application.
type Config struct {
	DataDir         string                 `mapstructure:"data_dir"`
	ListenAddr      string                 `mapstructure:"listen_addr"`
	LogLevel        string                 `mapstructure:"log_level"`
	AllowDuplicates bool                   `mapstructure:"allow_duplicates"`
	MaxHistory      int                    `mapstructure:"max_history"`
	ExpenseRules    []classify.ExpenseRule `mapstructure:"expense_rules"`
	RevenueRules    classify.RevenueRules  `mapstructure:"revenue_rules"`
}

// Load reads the configuration file (when path is non-empty, or a
// clinic-ledger.yaml next to the binary otherwise) and overlays
// CLINIC_LEDGER_* environment variables. Missing files fall back to
// defaults.
func Load(path string) (Config, error) {
	v := viper.New()

	v.SetDefault("data_dir", "data")
	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("log_level", "info")
	v.SetDefault("allow_duplicates", false)
	v.SetDefault("max_history", 100)

	v.SetEnvPrefix("CLINIC_LEDGER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("clinic-ledger")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}

	if len(cfg.ExpenseRules) == 0 {
		cfg.ExpenseRules = classify.DefaultExpenseRules()
	}
	if cfg.RevenueRules.CardMarker == "" && len(cfg.RevenueRules.Aliases) == 0 {
		cfg.RevenueRules = classify.DefaultRevenueRules()
	}
	return cfg, nil
}
