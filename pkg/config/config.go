package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/op/go-logging"
	"github.com/spf13/viper"

	"consumer360/pkg/calculator"
	"consumer360/pkg/database"
	"consumer360/pkg/models"
)

var log = logging.MustGetLogger("log")

const (
	EnvPrefix      = "CONSUMER360"
	defaultCfgName = "consumer360"
)

// New renvoie une instance viper avec toutes les valeurs par défaut. Les
// variables d'environnement sont lues sous la forme CONSUMER360_<CLE>, les
// points remplacés par des underscores.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault("dsn", "")
	v.SetDefault("min_support", calculator.DefaultMinSupport)
	v.SetDefault("lift_threshold", calculator.DefaultLiftThreshold)
	v.SetDefault("quantile_count", calculator.DefaultQuantileCount)
	v.SetDefault("result_table_name", database.DefaultResultTable)
	v.SetDefault("queries.orders", database.QueryOrderLines)
	v.SetDefault("queries.basket", database.QueryBasketLines)
	v.SetDefault("batch_size", database.DefaultBatchSize)
	v.SetDefault("sample_rows", 5)
	v.SetDefault("top_rules", 5)
	v.SetDefault("export_dir", "")
	v.SetDefault("dry_run", false)
	v.SetDefault("log_level", "INFO")
	v.SetDefault("progress", true)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

// Load lit .env, le fichier de config optionnel et l'environnement, puis
// valide. cfgFile vide : ./consumer360.{yaml,json,toml} s'il existe.
func Load(v *viper.Viper, cfgFile string) (models.Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return models.Config{}, fmt.Errorf("could not read .env: %w", err)
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName(defaultCfgName)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return models.Config{}, fmt.Errorf("could not read config: %w", err)
		}
	} else {
		log.Debugf("[config] using config file %s", v.ConfigFileUsed())
	}

	var cfg models.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return models.Config{}, fmt.Errorf("could not decode config: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return models.Config{}, err
	}
	return cfg, nil
}

// Validate contrôle chaque paramètre avant toute E/S.
func Validate(cfg models.Config) error {
	var errs []error
	if strings.TrimSpace(cfg.DSN) == "" {
		errs = append(errs, fmt.Errorf("missing required config field: dsn (or %s_DSN)", EnvPrefix))
	}
	if cfg.MinSupport <= 0 || cfg.MinSupport > 1 {
		errs = append(errs, fmt.Errorf("min_support must be in (0, 1]: %g", cfg.MinSupport))
	}
	if cfg.LiftThreshold <= 0 {
		errs = append(errs, fmt.Errorf("lift_threshold must be > 0: %g", cfg.LiftThreshold))
	}
	if cfg.QuantileCount < 1 || cfg.QuantileCount > 9 {
		errs = append(errs, fmt.Errorf("quantile_count must be in [1, 9]: %d", cfg.QuantileCount))
	}
	if err := database.ValidateTableName(cfg.ResultTableName); err != nil {
		errs = append(errs, fmt.Errorf("result_table_name: %w", err))
	}
	if cfg.BatchSize <= 0 {
		errs = append(errs, fmt.Errorf("batch_size must be > 0: %d", cfg.BatchSize))
	}
	if cfg.SampleRows < 0 || cfg.TopRules < 0 {
		errs = append(errs, fmt.Errorf("sample_rows and top_rules must be >= 0"))
	}
	if _, err := logging.LogLevel(strings.ToUpper(cfg.LogLevel)); err != nil {
		errs = append(errs, fmt.Errorf("log_level: %w", err))
	}
	return errors.Join(errs...)
}
