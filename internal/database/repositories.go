package database

import (
	"context"

	"github.com/google/uuid"

	"github.com/groupbuy/procurement-analytics/internal/models"
)

// ProcurementRepository provides read access to procurement records. The
// procurement service owns writes; this service only selects training
// collections and resolves prediction targets.
type ProcurementRepository struct {
	db *Database
}

// NewProcurementRepository creates a new procurement repository.
func NewProcurementRepository(db *Database) *ProcurementRepository {
	return &ProcurementRepository{db: db}
}

// GetByID retrieves a procurement with its category preloaded.
func (r *ProcurementRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Procurement, error) {
	var procurement models.Procurement
	err := r.db.WithContext(ctx).
		Preload("Category").
		First(&procurement, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &procurement, nil
}

// ListByStatus retrieves all procurements in any of the given statuses.
func (r *ProcurementRepository) ListByStatus(ctx context.Context, statuses ...models.ProcurementStatus) ([]models.Procurement, error) {
	var procurements []models.Procurement
	err := r.db.WithContext(ctx).
		Preload("Category").
		Where("status IN ?", statuses).
		Order("created_at DESC").
		Find(&procurements).Error
	return procurements, err
}

// ModelRepository provides database operations for trained-model records.
type ModelRepository struct {
	db *Database
}

// NewModelRepository creates a new model repository.
func NewModelRepository(db *Database) *ModelRepository {
	return &ModelRepository{db: db}
}

// Create inserts a new model record.
func (r *ModelRepository) Create(ctx context.Context, model *models.MLModel) error {
	return r.db.WithContext(ctx).Create(model).Error
}

// Update persists changes to an existing model record.
func (r *ModelRepository) Update(ctx context.Context, model *models.MLModel) error {
	return r.db.WithContext(ctx).Save(model).Error
}

// GetByID retrieves a model record by ID.
func (r *ModelRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.MLModel, error) {
	var model models.MLModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &model, nil
}

// List retrieves all model records, newest first.
func (r *ModelRepository) List(ctx context.Context) ([]models.MLModel, error) {
	var records []models.MLModel
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&records).Error
	return records, err
}

// PredictionRepository provides database operations for predictions.
// Predictions are append-only; there is no update or delete.
type PredictionRepository struct {
	db *Database
}

// NewPredictionRepository creates a new prediction repository.
func NewPredictionRepository(db *Database) *PredictionRepository {
	return &PredictionRepository{db: db}
}

// Create inserts a new prediction record.
func (r *PredictionRepository) Create(ctx context.Context, prediction *models.Prediction) error {
	return r.db.WithContext(ctx).Create(prediction).Error
}

// GetByID retrieves a prediction with its procurement preloaded.
func (r *PredictionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Prediction, error) {
	var prediction models.Prediction
	err := r.db.WithContext(ctx).
		Preload("Procurement").
		First(&prediction, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &prediction, nil
}

// List retrieves predictions, newest first, optionally filtered by
// procurement.
func (r *PredictionRepository) List(ctx context.Context, procurementID *uuid.UUID) ([]models.Prediction, error) {
	query := r.db.WithContext(ctx).
		Preload("Procurement").
		Order("created_at DESC")
	if procurementID != nil {
		query = query.Where("procurement_id = ?", *procurementID)
	}

	var predictions []models.Prediction
	err := query.Find(&predictions).Error
	return predictions, err
}
