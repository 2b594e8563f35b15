// Package dataset shapes procurement records into the tabular training
// datasets handed to the external AutoML trainer.
package dataset

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"

	"github.com/groupbuy/procurement-analytics/internal/features"
	"github.com/groupbuy/procurement-analytics/internal/models"
)

// Dataset file names inside a training run's artifact directory.
const (
	SuccessFileName = "success_dataset.parquet"
	DemandFileName  = "demand_dataset.parquet"
)

// SuccessRow is one training example for success prediction. The
// `successful` column is the label: 1 for completed procurements, 0 for
// everything else (cancelled, active, ...).
type SuccessRow struct {
	Category         string  `parquet:"category" json:"category"`
	City             string  `parquet:"city" json:"city"`
	TargetAmount     float64 `parquet:"target_amount" json:"target_amount"`
	ParticipantCount int64   `parquet:"participant_count" json:"participant_count"`
	DaysActive       int64   `parquet:"days_active" json:"days_active"`
	PricePerUnit     float64 `parquet:"price_per_unit" json:"price_per_unit"`
	Successful       int64   `parquet:"successful" json:"successful"`
}

// DemandRow is one training example for demand forecasting. The trainer
// uses `participant_count` as the regression target.
type DemandRow struct {
	Category         string  `parquet:"category" json:"category"`
	City             string  `parquet:"city" json:"city"`
	TargetAmount     float64 `parquet:"target_amount" json:"target_amount"`
	PricePerUnit     float64 `parquet:"price_per_unit" json:"price_per_unit"`
	ParticipantCount int64   `parquet:"participant_count" json:"participant_count"`
}

// BuildSuccess converts procurement records into success-prediction
// training rows. No filtering happens here; the caller selects which
// records belong in the dataset. Empty input yields an empty slice.
func BuildSuccess(records []models.Procurement) []SuccessRow {
	rows := make([]SuccessRow, 0, len(records))
	for _, p := range records {
		successful := int64(0)
		if p.Status == models.ProcurementStatusCompleted {
			successful = 1
		}
		rows = append(rows, SuccessRow{
			Category:         features.CategoryName(p),
			City:             features.CityName(p),
			TargetAmount:     p.TargetAmount,
			ParticipantCount: int64(p.ParticipantCount),
			DaysActive:       int64(features.DaysActive(p)),
			PricePerUnit:     features.PricePerUnit(p),
			Successful:       successful,
		})
	}
	return rows
}

// BuildDemand converts procurement records into demand-forecast training
// rows. Empty input yields an empty slice.
func BuildDemand(records []models.Procurement) []DemandRow {
	rows := make([]DemandRow, 0, len(records))
	for _, p := range records {
		rows = append(rows, DemandRow{
			Category:         features.CategoryName(p),
			City:             features.CityName(p),
			TargetAmount:     p.TargetAmount,
			PricePerUnit:     features.PricePerUnit(p),
			ParticipantCount: int64(p.ParticipantCount),
		})
	}
	return rows
}

// WriteParquet persists rows as a parquet file under dir, creating the
// directory if needed, and returns the file path. Training runs persist
// their dataset before invoking the trainer so runs stay reproducible.
func WriteParquet[T any](dir, name string, rows []T) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create artifact directory: %w", err)
	}
	path := filepath.Join(dir, name)
	if err := parquet.WriteFile(path, rows); err != nil {
		return "", fmt.Errorf("failed to write dataset %s: %w", name, err)
	}
	return path, nil
}
