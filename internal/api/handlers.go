package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/groupbuy/procurement-analytics/internal/events"
	"github.com/groupbuy/procurement-analytics/internal/features"
	"github.com/groupbuy/procurement-analytics/internal/heuristic"
	"github.com/groupbuy/procurement-analytics/internal/metrics"
	"github.com/groupbuy/procurement-analytics/internal/models"
	"github.com/groupbuy/procurement-analytics/internal/training"
)

// ProcurementStore resolves prediction targets.
type ProcurementStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Procurement, error)
}

// ModelStore persists trained-model records.
type ModelStore interface {
	Create(ctx context.Context, model *models.MLModel) error
	Update(ctx context.Context, model *models.MLModel) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.MLModel, error)
	List(ctx context.Context) ([]models.MLModel, error)
}

// PredictionStore persists prediction records.
type PredictionStore interface {
	Create(ctx context.Context, prediction *models.Prediction) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Prediction, error)
	List(ctx context.Context, procurementID *uuid.UUID) ([]models.Prediction, error)
}

// Trainer runs model training. The training engine implements it.
type Trainer interface {
	Available() bool
	Train(ctx context.Context, req training.Request) (*training.Result, error)
}

// Handler contains all API handlers.
type Handler struct {
	logger       *zap.Logger
	procurements ProcurementStore
	modelStore   ModelStore
	predictions  PredictionStore
	trainer      Trainer
	publisher    *events.Publisher
	collector    *metrics.Collector
}

// NewHandler creates a new API handler.
func NewHandler(
	logger *zap.Logger,
	procurements ProcurementStore,
	modelStore ModelStore,
	predictions PredictionStore,
	trainer Trainer,
	publisher *events.Publisher,
	collector *metrics.Collector,
) *Handler {
	return &Handler{
		logger:       logger,
		procurements: procurements,
		modelStore:   modelStore,
		predictions:  predictions,
		trainer:      trainer,
		publisher:    publisher,
		collector:    collector,
	}
}

// Health returns service health status.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
	})
}

// TrainerStatus reports whether the external AutoML trainer is usable.
func (h *Handler) TrainerStatus(c *gin.Context) {
	available := h.trainer.Available()
	message := "AutoML trainer is installed and ready."
	if !available {
		message = "AutoML trainer is not installed. Configure automl.binary and install the trainer."
	}
	c.JSON(http.StatusOK, gin.H{
		"trainer_available": available,
		"message":           message,
	})
}

// ListModels returns all trained-model records, newest first.
func (h *Handler) ListModels(c *gin.Context) {
	records, err := h.modelStore.List(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list models", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve models"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"models": records})
}

// GetModel returns a single trained-model record.
func (h *Handler) GetModel(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid model ID"})
		return
	}

	record, err := h.modelStore.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Model not found"})
			return
		}
		h.logger.Error("Failed to get model", zap.String("model_id", id.String()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve model"})
		return
	}
	c.JSON(http.StatusOK, record)
}

// TrainModel triggers a synchronous AutoML training run. The model record
// is created in training status up front so a failed run leaves an
// auditable trace.
func (h *Handler) TrainModel(c *gin.Context) {
	if !h.trainer.Available() {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "AutoML trainer is not available.",
			"hint":  "Install the trainer and configure automl.binary.",
		})
		return
	}

	var req trainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	modelType := models.ModelType(req.ModelType)
	record := &models.MLModel{
		Name:   fmt.Sprintf("automl-%s", modelType),
		Type:   modelType,
		Status: models.ModelStatusTraining,
		Intent: fmt.Sprintf("Automated AutoML training for %s", modelType),
	}
	if err := h.modelStore.Create(c.Request.Context(), record); err != nil {
		h.logger.Error("Failed to create model record", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create model record"})
		return
	}

	started := time.Now()
	result, err := h.trainer.Train(c.Request.Context(), training.Request{
		Type:          modelType,
		MaxIterations: req.MaxIterations,
		WorkDir:       req.WorkDir,
	})
	if err != nil {
		h.failTraining(c, record, started, err)
		return
	}

	performance := result.Performance
	record.Performance = &performance
	record.ArtifactPath = result.ArtifactPath
	if metadata, merr := json.Marshal(result.Metadata); merr == nil {
		record.TrainingMetadata = models.JSON(metadata)
	}
	record.Status = models.ModelStatusReady
	if err := h.modelStore.Update(c.Request.Context(), record); err != nil {
		h.logger.Error("Failed to update model record", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update model record"})
		return
	}

	h.collector.TrainingRun(string(modelType), string(models.ModelStatusReady), time.Since(started))
	h.publisher.ModelUpdated(c.Request.Context(), record)

	h.logger.Info("Training complete",
		zap.String("model_id", record.ID.String()),
		zap.String("model_type", string(modelType)),
		zap.Float64("performance", result.Performance))

	c.JSON(http.StatusCreated, record)
}

// failTraining records a failed run on the model record and maps the
// error to a response status.
func (h *Handler) failTraining(c *gin.Context, record *models.MLModel, started time.Time, err error) {
	h.logger.Error("Training failed",
		zap.String("model_id", record.ID.String()),
		zap.String("model_type", string(record.Type)),
		zap.Error(err))

	record.Status = models.ModelStatusFailed
	if metadata, merr := json.Marshal(map[string]string{"error": err.Error()}); merr == nil {
		record.TrainingMetadata = models.JSON(metadata)
	}
	if uerr := h.modelStore.Update(c.Request.Context(), record); uerr != nil {
		h.logger.Error("Failed to record training failure", zap.Error(uerr))
	}

	h.collector.TrainingRun(string(record.Type), string(models.ModelStatusFailed), time.Since(started))
	h.publisher.ModelUpdated(c.Request.Context(), record)

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, training.ErrInsufficientData),
		errors.Is(err, training.ErrUnsupportedModelType):
		status = http.StatusBadRequest
	case errors.Is(err, training.ErrTrainerUnavailable):
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// ListPredictions returns predictions, optionally filtered by procurement.
func (h *Handler) ListPredictions(c *gin.Context) {
	var procurementID *uuid.UUID
	if raw := c.Query("procurement_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid procurement_id parameter"})
			return
		}
		procurementID = &id
	}

	predictions, err := h.predictions.List(c.Request.Context(), procurementID)
	if err != nil {
		h.logger.Error("Failed to list predictions", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve predictions"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"predictions": toPredictionResponses(predictions)})
}

// GetPrediction returns a single prediction record.
func (h *Handler) GetPrediction(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid prediction ID"})
		return
	}

	prediction, err := h.predictions.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Prediction not found"})
			return
		}
		h.logger.Error("Failed to get prediction", zap.String("prediction_id", id.String()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve prediction"})
		return
	}
	c.JSON(http.StatusOK, toPredictionResponse(*prediction))
}

// Predict creates a rule-based prediction for a procurement. Heuristic
// predictions need no trained model; the model reference stays null.
func (h *Handler) Predict(c *gin.Context) {
	var req predictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	kind := models.ModelTypeSuccessPrediction
	if req.PredictionType != "" {
		kind = models.ModelType(req.PredictionType)
	}

	procurementID, err := uuid.Parse(req.ProcurementID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid procurement_id"})
		return
	}

	procurement, err := h.procurements.GetByID(c.Request.Context(), procurementID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Procurement not found"})
			return
		}
		h.logger.Error("Failed to get procurement", zap.String("procurement_id", procurementID.String()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve procurement"})
		return
	}

	featureMap := features.Extract(*procurement)
	value, confidence := heuristic.Predict(kind, featureMap)

	featuresJSON, err := json.Marshal(featureMap)
	if err != nil {
		h.logger.Error("Failed to marshal features", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to encode features"})
		return
	}

	prediction := &models.Prediction{
		ProcurementID:  procurement.ID,
		Procurement:    procurement,
		Type:           kind,
		PredictedValue: value,
		Confidence:     &confidence,
		InputFeatures:  models.JSON(featuresJSON),
	}
	if err := h.predictions.Create(c.Request.Context(), prediction); err != nil {
		h.logger.Error("Failed to create prediction", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create prediction"})
		return
	}

	h.collector.PredictionCreated(string(kind))
	h.publisher.PredictionCreated(c.Request.Context(), prediction)

	c.JSON(http.StatusCreated, toPredictionResponse(*prediction))
}
