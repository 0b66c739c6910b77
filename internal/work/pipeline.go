package work

import (
	"context"
	"fmt"
	"time"

	"github.com/aristath/valuator/internal/config"
	"github.com/aristath/valuator/internal/domain"
	"github.com/aristath/valuator/internal/modules/export"
	"github.com/aristath/valuator/internal/modules/ingestion"
	"github.com/aristath/valuator/internal/modules/valuation"
	"github.com/aristath/valuator/internal/observability"
	"github.com/aristath/valuator/internal/utils"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Syncer ingests prices and forecasts
type Syncer interface {
	SyncPrices(symbols []string) (ingestion.SyncSummary, error)
	SyncForecasts(symbols []string) (ingestion.SyncSummary, error)
}

// Valuer computes and persists valuation snapshots
type Valuer interface {
	ProcessAll(symbols []domain.SymbolConfig) (valuation.Summary, error)
}

// Exporter writes the export artifacts
type Exporter interface {
	Export(order []string) (*export.Result, error)
}

// SymbolLoader returns the configured universe in canonical order.
// It is called once per run so a scheduled process picks up edits.
type SymbolLoader func() ([]domain.SymbolConfig, error)

// Pipeline wires the stages of a run together
type Pipeline struct {
	symbols  SymbolLoader
	universe SymbolLoader
	syncer   Syncer
	valuer   Valuer
	exporter Exporter
	metrics  *observability.Metrics
	textfile string
	log      zerolog.Logger
}

// NewPipeline creates a new pipeline. metrics may be nil.
func NewPipeline(
	symbols SymbolLoader,
	syncer Syncer,
	valuer Valuer,
	exporter Exporter,
	metrics *observability.Metrics,
	log zerolog.Logger,
) *Pipeline {
	return &Pipeline{
		symbols:  symbols,
		syncer:   syncer,
		valuer:   valuer,
		exporter: exporter,
		metrics:  metrics,
		log:      log.With().Str("component", "pipeline").Logger(),
	}
}

// SetExportUniverse sets the loader for the export order. The aggregate
// always lists the whole universe, even when symbols is a subset.
func (p *Pipeline) SetExportUniverse(universe SymbolLoader) {
	p.universe = universe
}

// SetMetricsTextfile makes every run flush the metrics to path
func (p *Pipeline) SetMetricsTextfile(path string) {
	p.textfile = path
}

// Run executes every stage of mode in order
func (p *Pipeline) Run(ctx context.Context, mode Mode) (*RunReport, error) {
	stages := mode.Stages()
	if len(stages) == 0 {
		return nil, fmt.Errorf("unknown mode %q", mode)
	}

	report := &RunReport{
		RunID:     uuid.New().String(),
		Mode:      mode,
		StartedAt: time.Now(),
	}
	log := p.log.With().Str("run_id", report.RunID).Str("mode", string(mode)).Logger()

	err := p.run(ctx, report, stages, log)
	report.Duration = time.Since(report.StartedAt)

	if p.metrics != nil {
		p.metrics.RecordRun(string(mode), report.Duration, err)
		if p.textfile != "" {
			if werr := p.metrics.WriteTextfile(p.textfile); werr != nil {
				log.Warn().Err(werr).Str("path", p.textfile).Msg("Failed to write metrics textfile")
			}
		}
	}

	if err != nil {
		log.Error().Err(err).Dur("duration_ms", report.Duration).Msg("Pipeline run failed")
		return report, err
	}

	p.logSummary(log, report)
	return report, nil
}

func (p *Pipeline) run(ctx context.Context, report *RunReport, stages []Stage, log zerolog.Logger) error {
	symbols, err := p.symbols()
	if err != nil {
		return fmt.Errorf("failed to load symbols: %w", err)
	}
	report.Symbols = len(symbols)
	codes := config.SymbolCodes(symbols)

	log.Info().Int("symbols", len(symbols)).Int("stages", len(stages)).Msg("Pipeline run started")

	for _, stage := range stages {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("run cancelled before %s: %w", stage, err)
		}

		timer := utils.NewTimer(string(stage), log)
		log.Info().Str("stage", string(stage)).Msg("Stage started")

		err := p.runStage(stage, report, symbols, codes)
		elapsed := timer.Stop()
		if err != nil {
			return fmt.Errorf("stage %s failed: %w", stage, err)
		}

		log.Info().
			Str("stage", string(stage)).
			Dur("duration_ms", elapsed).
			Msg("Stage completed")
	}

	return nil
}

func (p *Pipeline) runStage(stage Stage, report *RunReport, symbols []domain.SymbolConfig, codes []string) error {
	switch stage {
	case StagePrices:
		summary, err := p.syncer.SyncPrices(codes)
		report.Prices = &summary
		p.recordSync("prices", summary)
		return err

	case StageForecasts:
		summary, err := p.syncer.SyncForecasts(codes)
		report.Forecasts = &summary
		p.recordSync("forecasts", summary)
		return err

	case StageValuation:
		summary, err := p.valuer.ProcessAll(symbols)
		report.Valuation = &summary
		p.recordValuation(summary)
		return err

	case StageExport:
		order, err := p.exportOrder(codes)
		if err != nil {
			return err
		}
		result, err := p.exporter.Export(order)
		if err != nil {
			return err
		}
		report.Export = result
		if p.metrics != nil {
			p.metrics.RecordExport(result.Symbols)
		}
		return nil
	}

	return fmt.Errorf("unknown stage %q", stage)
}

func (p *Pipeline) exportOrder(codes []string) ([]string, error) {
	if p.universe == nil {
		return codes, nil
	}
	symbols, err := p.universe()
	if err != nil {
		return nil, fmt.Errorf("failed to load export universe: %w", err)
	}
	return config.SymbolCodes(symbols), nil
}

func (p *Pipeline) recordSync(kind string, summary ingestion.SyncSummary) {
	if p.metrics == nil {
		return
	}
	p.metrics.RecordSync(kind, summary.Succeeded, summary.Failed, summary.Points)
}

func (p *Pipeline) recordValuation(summary valuation.Summary) {
	if p.metrics == nil {
		return
	}
	for _, o := range summary.Outcomes {
		p.metrics.RecordValuation(string(o.Status), o.Reason)
		if o.Snapshot != nil {
			p.metrics.RecordSnapshot(o.Symbol, o.Snapshot.PEValuationRatio, o.Snapshot.NetProfitValuationRatio)
		}
	}
}

func (p *Pipeline) logSummary(log zerolog.Logger, report *RunReport) {
	event := log.Info().
		Int("symbols", report.Symbols).
		Dur("duration_ms", report.Duration)

	if report.Prices != nil {
		event = event.
			Int("prices_ok", report.Prices.Succeeded).
			Int("prices_failed", report.Prices.Failed).
			Int("points", report.Prices.Points)
	}
	if report.Forecasts != nil {
		event = event.
			Int("forecasts_ok", report.Forecasts.Succeeded).
			Int("forecasts_failed", report.Forecasts.Failed)
	}
	if report.Valuation != nil {
		event = event.
			Int("valued", report.Valuation.Processed).
			Int("skipped", report.Valuation.Skipped).
			Interface("skip_reasons", report.Valuation.SkipReasons())
	}
	if report.Export != nil {
		event = event.Int("exported", report.Export.Symbols)
	}

	event.Msg("Pipeline run completed")
}
