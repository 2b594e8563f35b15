package dataset

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/groupbuy/procurement-analytics/internal/models"
)

func testRecord(status models.ProcurementStatus) models.Procurement {
	now := time.Now().UTC()
	price := 500.0
	return models.Procurement{
		Title:            "Test Procurement",
		Category:         &models.Category{Name: "Electronics"},
		City:             "Moscow",
		TargetAmount:     10000,
		CurrentAmount:    3000,
		PricePerUnit:     &price,
		ParticipantCount: 6,
		Status:           status,
		CreatedAt:        now.Add(-15 * 24 * time.Hour),
		Deadline:         now.Add(15 * 24 * time.Hour),
	}
}

func TestBuildSuccessLabels(t *testing.T) {
	records := []models.Procurement{
		testRecord(models.ProcurementStatusCompleted),
		testRecord(models.ProcurementStatusCancelled),
	}

	rows := BuildSuccess(records)
	require.Len(t, rows, 2)
	assert.Equal(t, int64(1), rows[0].Successful)
	assert.Equal(t, int64(0), rows[1].Successful)
}

func TestBuildSuccessActiveStatusIsNotSuccessful(t *testing.T) {
	rows := BuildSuccess([]models.Procurement{testRecord(models.ProcurementStatusActive)})
	require.Len(t, rows, 1)
	assert.Equal(t, int64(0), rows[0].Successful)
}

func TestBuildSuccessColumns(t *testing.T) {
	rows := BuildSuccess([]models.Procurement{testRecord(models.ProcurementStatusCompleted)})
	require.Len(t, rows, 1)

	row := rows[0]
	assert.Equal(t, "Electronics", row.Category)
	assert.Equal(t, "Moscow", row.City)
	assert.Equal(t, 10000.0, row.TargetAmount)
	assert.Equal(t, int64(6), row.ParticipantCount)
	assert.Equal(t, int64(30), row.DaysActive)
	assert.Equal(t, 500.0, row.PricePerUnit)
}

func TestBuildSuccessDefaults(t *testing.T) {
	p := testRecord(models.ProcurementStatusCompleted)
	p.Category = nil
	p.City = ""
	p.PricePerUnit = nil

	rows := BuildSuccess([]models.Procurement{p})
	require.Len(t, rows, 1)
	assert.Equal(t, "unknown", rows[0].Category)
	assert.Equal(t, "unknown", rows[0].City)
	assert.Equal(t, 0.0, rows[0].PricePerUnit)
}

func TestBuildSuccessEmptyInput(t *testing.T) {
	assert.Empty(t, BuildSuccess(nil))
	assert.Empty(t, BuildSuccess([]models.Procurement{}))
}

func TestBuildDemand(t *testing.T) {
	rows := BuildDemand([]models.Procurement{
		testRecord(models.ProcurementStatusCompleted),
		testRecord(models.ProcurementStatusCompleted),
	})
	require.Len(t, rows, 2)

	row := rows[0]
	assert.Equal(t, "Electronics", row.Category)
	assert.Equal(t, "Moscow", row.City)
	assert.Equal(t, 10000.0, row.TargetAmount)
	assert.Equal(t, 500.0, row.PricePerUnit)
	assert.Equal(t, int64(6), row.ParticipantCount)
}

func TestBuildDemandEmptyInput(t *testing.T) {
	assert.Empty(t, BuildDemand(nil))
}

func TestWriteParquetCreatesDirectoryAndFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "run", "artifacts")
	rows := BuildSuccess([]models.Procurement{
		testRecord(models.ProcurementStatusCompleted),
		testRecord(models.ProcurementStatusCancelled),
	})

	path, err := WriteParquet(dir, SuccessFileName, rows)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, SuccessFileName), path)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestSuccessStats(t *testing.T) {
	rows := BuildSuccess([]models.Procurement{
		testRecord(models.ProcurementStatusCompleted),
		testRecord(models.ProcurementStatusCancelled),
	})

	stats := SuccessStats(rows)
	assert.InDelta(t, 10000.0, stats["target_amount_mean"], 1e-9)
	assert.InDelta(t, 6.0, stats["participant_count_mean"], 1e-9)
	assert.InDelta(t, 0.5, stats["successful_share"], 1e-9)
}

func TestDemandStatsEmpty(t *testing.T) {
	assert.Empty(t, DemandStats(nil))
}
