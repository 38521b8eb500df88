package cmd

import (
	"context"
	"fmt"

	"github.com/op/go-logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"consumer360/pkg/config"
	"consumer360/pkg/database"
	"consumer360/pkg/logger"
	"consumer360/pkg/pipeline"
)

var log = logging.MustGetLogger("log")

var (
	cfgFile string
	v       = config.New()
)

// rootCmd sans sous-commande : les deux étapes.
var rootCmd = &cobra.Command{
	Use:   "consumer360",
	Short: "RFM customer segmentation and market basket analysis",
	Long: `consumer360 reads sales facts from a MySQL/MariaDB, PostgreSQL or SQLite
database, scores every customer on Recency, Frequency and Monetary value,
assigns a segment, mines frequently co-purchased products and writes the RFM
table back to the same database.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd, pipeline.All)
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the RFM and market basket stages",
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd, pipeline.All)
	},
}

var rfmCmd = &cobra.Command{
	Use:   "rfm",
	Short: "Score and segment customers, then replace the result table",
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd, pipeline.Stages{RFM: true})
	},
}

var basketCmd = &cobra.Command{
	Use:   "basket",
	Short: "Mine frequent itemsets and association rules",
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd, pipeline.Stages{Basket: true})
	},
}

// Execute lance la commande racine avec ctx.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is ./consumer360.yaml)")
	flags.String("dsn", "", "database DSN: mysql://, mariadb://, postgres:// or sqlite:// (or set CONSUMER360_DSN)")
	flags.Float64("min-support", 0, "itemset support floor, in (0, 1]")
	flags.Float64("lift-threshold", 0, "minimum association rule lift")
	flags.Int("quantiles", 0, "number of RFM score bins")
	flags.String("result-table", "", "table replaced with the RFM results")
	flags.String("export-dir", "", "write CSV and JSON exports to this folder")
	flags.Bool("dry-run", false, "compute and print without writing the result table")
	flags.String("log-level", "", "log level: DEBUG, INFO, NOTICE, WARNING, ERROR, CRITICAL")
	flags.Bool("progress", true, "show progress bars")

	bind(v, map[string]string{
		"dsn":               "dsn",
		"min_support":       "min-support",
		"lift_threshold":    "lift-threshold",
		"quantile_count":    "quantiles",
		"result_table_name": "result-table",
		"export_dir":        "export-dir",
		"dry_run":           "dry-run",
		"log_level":         "log-level",
		"progress":          "progress",
	})

	rootCmd.AddCommand(runCmd, rfmCmd, basketCmd)
}

func bind(v *viper.Viper, keys map[string]string) {
	for key, flag := range keys {
		if err := v.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
			panic(fmt.Sprintf("bind flag %s: %v", flag, err))
		}
	}
}

func run(cmd *cobra.Command, stages pipeline.Stages) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load(v, cfgFile)
	if err != nil {
		return err
	}
	if err := logger.Init(cfg.LogLevel); err != nil {
		return err
	}
	log.Debugf("[config] min_support=%.3f lift_threshold=%.2f quantiles=%d table=%s dry_run=%t",
		cfg.MinSupport, cfg.LiftThreshold, cfg.QuantileCount, cfg.ResultTableName, cfg.DryRun)

	db, dialect, err := database.Open(ctx, cfg.DSN)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()
	log.Infof("[database] connected dialect=%s dsn=%s", dialect.Name, database.Redact(cfg.DSN))

	loader := database.NewLoader(db, cfg.Queries)
	var sink pipeline.Sink
	if stages.RFM && !cfg.DryRun {
		s, err := database.NewSink(db, dialect, cfg.ResultTableName, cfg.BatchSize, cfg.Progress)
		if err != nil {
			return err
		}
		sink = s
	}

	_, err = pipeline.Run(ctx, loader, sink, cfg, stages, cmd.OutOrStdout())
	return err
}
