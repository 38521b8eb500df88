package pipeline

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/op/go-logging"
	"github.com/schollz/progressbar/v3"

	"consumer360/pkg/calculator"
	"consumer360/pkg/models"
	"consumer360/pkg/report"
)

var log = logging.MustGetLogger("log")

// Source fournit les deux tables d'entrée matérialisées.
type Source interface {
	LoadOrderLines(ctx context.Context) ([]models.OrderLine, error)
	LoadBasketLines(ctx context.Context) ([]models.BasketLine, error)
}

// Sink persiste la table RFM en remplaçant la précédente.
type Sink interface {
	ReplaceRFM(ctx context.Context, records []models.RFMRecord) error
}

// Stages choisit les transformations à exécuter ; elles sont indépendantes.
type Stages struct {
	RFM    bool
	Basket bool
}

// All : les deux étapes.
var All = Stages{RFM: true, Basket: true}

// Result : ce que les étapes choisies ont produit (nil sinon).
type Result struct {
	RunID  string
	RFM    *models.RFMResult
	Basket *models.BasketResult
}

// Run enchaîne chargement → RFM → écriture puis chargement → panier, affiche
// le rapport sur out et exporte si cfg.ExportDir est renseigné. Un sink nil ou
// cfg.DryRun saute l'écriture.
func Run(ctx context.Context, src Source, sink Sink, cfg models.Config, stages Stages, out io.Writer) (Result, error) {
	res := Result{RunID: uuid.NewString()}
	log.Infof("[run %s] starting rfm=%t basket=%t", res.RunID, stages.RFM, stages.Basket)

	steps := 0
	if stages.RFM {
		steps += 3
	}
	if stages.Basket {
		steps += 2
	}
	var bar *progressbar.ProgressBar
	if cfg.Progress {
		bar = progressbar.Default(int64(steps), "pipeline")
	} else {
		bar = progressbar.DefaultSilent(int64(steps), "pipeline")
	}
	defer bar.Close()

	if stages.RFM {
		rfm, err := runRFM(ctx, src, sink, cfg, bar)
		if err != nil {
			return res, err
		}
		res.RFM = &rfm
	}
	if stages.Basket {
		basket, err := runBasket(ctx, src, cfg, bar)
		if err != nil {
			return res, err
		}
		res.Basket = &basket
	}
	_ = bar.Finish()

	if res.RFM != nil {
		report.PrintRFMSample(out, res.RFM.Records, cfg.SampleRows)
		report.PrintSegmentSummary(out, res.RFM.Segments)
	}
	if res.Basket != nil {
		report.PrintRules(out, *res.Basket, cfg.TopRules)
	}
	if res.RFM != nil && !cfg.DryRun && sink != nil {
		fmt.Fprintf(out, "\nRFM results saved to table: %s\n", cfg.ResultTableName)
	}

	if cfg.ExportDir != "" {
		if err := export(cfg.ExportDir, res, time.Now()); err != nil {
			return res, fmt.Errorf("export: %w", err)
		}
	}
	return res, nil
}

func runRFM(ctx context.Context, src Source, sink Sink, cfg models.Config, bar *progressbar.ProgressBar) (models.RFMResult, error) {
	start := time.Now()
	lines, err := src.LoadOrderLines(ctx)
	if err != nil {
		return models.RFMResult{}, fmt.Errorf("load order lines: %w", err)
	}
	_ = bar.Add(1)
	log.Infof("[rfm] order lines=%d loaded in %s", len(lines), time.Since(start).Round(time.Millisecond))

	start = time.Now()
	rfm, err := calculator.ComputeRFM(lines, cfg.QuantileCount)
	if err != nil {
		return models.RFMResult{}, fmt.Errorf("compute rfm: %w", err)
	}
	_ = bar.Add(1)
	log.Infof("[rfm] customers=%d segments=%d computed in %s",
		len(rfm.Records), len(rfm.Segments), time.Since(start).Round(time.Millisecond))

	switch {
	case cfg.DryRun:
		log.Infof("[rfm] dry run: %s left untouched", cfg.ResultTableName)
	case sink == nil:
		log.Warningf("[rfm] no sink configured: %s left untouched", cfg.ResultTableName)
	default:
		start = time.Now()
		if err := sink.ReplaceRFM(ctx, rfm.Records); err != nil {
			return models.RFMResult{}, fmt.Errorf("write %s: %w", cfg.ResultTableName, err)
		}
		log.Infof("[rfm] %s written in %s", cfg.ResultTableName, time.Since(start).Round(time.Millisecond))
	}
	_ = bar.Add(1)
	return rfm, nil
}

func runBasket(ctx context.Context, src Source, cfg models.Config, bar *progressbar.ProgressBar) (models.BasketResult, error) {
	start := time.Now()
	lines, err := src.LoadBasketLines(ctx)
	if err != nil {
		return models.BasketResult{}, fmt.Errorf("load basket lines: %w", err)
	}
	_ = bar.Add(1)
	log.Infof("[basket] basket lines=%d loaded in %s", len(lines), time.Since(start).Round(time.Millisecond))

	start = time.Now()
	basket, err := calculator.MineBasket(lines, cfg.MinSupport, cfg.LiftThreshold)
	if err != nil {
		return models.BasketResult{}, fmt.Errorf("mine basket: %w", err)
	}
	_ = bar.Add(1)
	log.Infof("[basket] itemsets=%d rules=%d mined in %s",
		len(basket.Itemsets), len(basket.Rules), time.Since(start).Round(time.Millisecond))
	return basket, nil
}

func export(dir string, res Result, now time.Time) error {
	summary := report.Summary{
		RunID:       res.RunID,
		GeneratedAt: now.UTC().Format(time.RFC3339),
	}
	if res.RFM != nil {
		if err := report.WriteRFMCSV(report.TimestampedFilename(dir, "rfm_result", "csv", now), res.RFM.Records); err != nil {
			return err
		}
		if len(res.RFM.Records) > 0 {
			summary.AnalysisDate = res.RFM.AnalysisDate.Format("2006-01-02")
		}
		summary.Customers = len(res.RFM.Records)
		summary.Segments = res.RFM.Segments
	}
	if res.Basket != nil {
		if err := report.WriteRulesCSV(report.TimestampedFilename(dir, "association_rules", "csv", now), res.Basket.Rules); err != nil {
			return err
		}
		summary.Orders = res.Basket.Orders
		summary.Itemsets = res.Basket.Itemsets
		summary.Rules = report.NewRuleJSON(res.Basket.Rules)
	}
	filename := report.TimestampedFilename(dir, "summary", "json", now)
	if err := report.ExportJSON(filename, summary); err != nil {
		return err
	}
	log.Infof("[export] written to %s", dir)
	return nil
}
