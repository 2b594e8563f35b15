package training

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/groupbuy/procurement-analytics/internal/config"
	"github.com/groupbuy/procurement-analytics/internal/dataset"
	"github.com/groupbuy/procurement-analytics/internal/models"
)

// Natural-language task descriptions passed to the external trainer.
const (
	successIntent = "Predict whether a group procurement will be successful " +
		"(reach its target amount) based on category, city, target_amount, " +
		"participant_count, days_active, and price_per_unit."
	demandIntent = "Predict the total number of participants that will join a " +
		"procurement based on category, city, target_amount, and price_per_unit."
)

// ProcurementSource supplies training records. The database repository
// implements it; tests use in-memory doubles.
type ProcurementSource interface {
	ListByStatus(ctx context.Context, statuses ...models.ProcurementStatus) ([]models.Procurement, error)
}

// Request describes one training run.
type Request struct {
	Type          models.ModelType
	MaxIterations int
	WorkDir       string
	// Records overrides the default record selection when non-nil.
	Records []models.Procurement
}

// Result is the packaged outcome of a successful training run.
type Result struct {
	Performance  float64
	ArtifactPath string
	Metadata     map[string]interface{}
}

// Engine orchestrates dataset construction and delegation to the external
// AutoML trainer. It is a thin layer: all model search happens outside.
type Engine struct {
	cfg    config.AutoMLConfig
	automl AutoML
	source ProcurementSource
	logger *zap.Logger
}

// NewEngine creates a training engine.
func NewEngine(cfg config.AutoMLConfig, automl AutoML, source ProcurementSource, logger *zap.Logger) *Engine {
	return &Engine{
		cfg:    cfg,
		automl: automl,
		source: source,
		logger: logger,
	}
}

// Available reports whether the external trainer can be invoked.
func (e *Engine) Available() bool {
	return e.automl != nil && e.automl.Available()
}

// Train builds the dataset for the requested model type, persists it to a
// parquet file in the artifact directory, and delegates to the external
// trainer. Blocks until the trainer returns; callers should keep it off
// latency-sensitive paths.
func (e *Engine) Train(ctx context.Context, req Request) (*Result, error) {
	if !e.Available() {
		return nil, ErrTrainerUnavailable
	}

	switch req.Type {
	case models.ModelTypeSuccessPrediction:
		return e.trainSuccess(ctx, req)
	case models.ModelTypeDemandForecast:
		return e.trainDemand(ctx, req)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedModelType, req.Type)
	}
}

func (e *Engine) trainSuccess(ctx context.Context, req Request) (*Result, error) {
	records, err := e.records(ctx, req, models.ProcurementStatusCompleted, models.ProcurementStatusCancelled)
	if err != nil {
		return nil, err
	}

	rows := dataset.BuildSuccess(records)
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: need completed or cancelled procurements", ErrInsufficientData)
	}

	workDir, err := e.workDir(req.WorkDir, "success_")
	if err != nil {
		return nil, err
	}

	path, err := dataset.WriteParquet(workDir, dataset.SuccessFileName, rows)
	if err != nil {
		return nil, err
	}

	return e.run(ctx, req, successIntent, workDir, path, len(rows), dataset.SuccessStats(rows))
}

func (e *Engine) trainDemand(ctx context.Context, req Request) (*Result, error) {
	records, err := e.records(ctx, req, models.ProcurementStatusCompleted)
	if err != nil {
		return nil, err
	}

	rows := dataset.BuildDemand(records)
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: need completed procurements", ErrInsufficientData)
	}

	workDir, err := e.workDir(req.WorkDir, "demand_")
	if err != nil {
		return nil, err
	}

	path, err := dataset.WriteParquet(workDir, dataset.DemandFileName, rows)
	if err != nil {
		return nil, err
	}

	return e.run(ctx, req, demandIntent, workDir, path, len(rows), dataset.DemandStats(rows))
}

// records returns the caller-supplied records, or the default selection
// for the model type.
func (e *Engine) records(ctx context.Context, req Request, defaults ...models.ProcurementStatus) ([]models.Procurement, error) {
	if req.Records != nil {
		return req.Records, nil
	}
	records, err := e.source.ListByStatus(ctx, defaults...)
	if err != nil {
		return nil, fmt.Errorf("failed to load training records: %w", err)
	}
	return records, nil
}

// workDir returns the caller-supplied directory, or a fresh one under the
// configured artifact root.
func (e *Engine) workDir(requested, prefix string) (string, error) {
	if requested != "" {
		return requested, nil
	}
	if err := os.MkdirAll(e.cfg.ArtifactDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create artifact root: %w", err)
	}
	dir, err := os.MkdirTemp(e.cfg.ArtifactDir, prefix)
	if err != nil {
		return "", fmt.Errorf("failed to create work directory: %w", err)
	}
	return dir, nil
}

func (e *Engine) run(ctx context.Context, req Request, intent, workDir, datasetPath string, rowCount int, stats map[string]float64) (*Result, error) {
	iterations := req.MaxIterations
	if iterations <= 0 {
		iterations = e.cfg.MaxIterations
	}

	e.logger.Info("Starting AutoML training",
		zap.String("model_type", string(req.Type)),
		zap.Int("dataset_rows", rowCount),
		zap.Int("max_iterations", iterations),
		zap.String("work_dir", workDir))

	result, err := e.automl.Run(ctx, RunRequest{
		Intent:        intent,
		DataRefs:      []string{datasetPath},
		MaxIterations: iterations,
		WorkDir:       workDir,
	})
	if err != nil {
		return nil, err
	}

	performance := 0.0
	if result.Best != nil {
		performance = result.Best.Performance
	}

	e.logger.Info("AutoML training complete",
		zap.String("model_type", string(req.Type)),
		zap.Float64("performance", performance))

	return &Result{
		Performance:  performance,
		ArtifactPath: workDir,
		Metadata: map[string]interface{}{
			"metrics":       result.Metrics,
			"dataset_rows":  rowCount,
			"dataset_stats": stats,
		},
	}, nil
}
