package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/groupbuy/procurement-analytics/internal/config"
	"github.com/groupbuy/procurement-analytics/internal/models"
	"github.com/groupbuy/procurement-analytics/internal/training"
)

type fakeProcurements struct {
	items map[uuid.UUID]*models.Procurement
}

func (f *fakeProcurements) GetByID(ctx context.Context, id uuid.UUID) (*models.Procurement, error) {
	if p, ok := f.items[id]; ok {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type fakeModelStore struct {
	items   map[uuid.UUID]*models.MLModel
	created []*models.MLModel
	updated []*models.MLModel
}

func newFakeModelStore() *fakeModelStore {
	return &fakeModelStore{items: make(map[uuid.UUID]*models.MLModel)}
}

func (f *fakeModelStore) Create(ctx context.Context, m *models.MLModel) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	f.items[m.ID] = m
	f.created = append(f.created, m)
	return nil
}

func (f *fakeModelStore) Update(ctx context.Context, m *models.MLModel) error {
	f.items[m.ID] = m
	f.updated = append(f.updated, m)
	return nil
}

func (f *fakeModelStore) GetByID(ctx context.Context, id uuid.UUID) (*models.MLModel, error) {
	if m, ok := f.items[id]; ok {
		return m, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeModelStore) List(ctx context.Context) ([]models.MLModel, error) {
	out := make([]models.MLModel, 0, len(f.items))
	for _, m := range f.items {
		out = append(out, *m)
	}
	return out, nil
}

type fakePredictionStore struct {
	created  []*models.Prediction
	listed   []models.Prediction
	lastByID *uuid.UUID
}

func (f *fakePredictionStore) Create(ctx context.Context, p *models.Prediction) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	f.created = append(f.created, p)
	return nil
}

func (f *fakePredictionStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Prediction, error) {
	for i := range f.listed {
		if f.listed[i].ID == id {
			return &f.listed[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakePredictionStore) List(ctx context.Context, procurementID *uuid.UUID) ([]models.Prediction, error) {
	f.lastByID = procurementID
	return f.listed, nil
}

type fakeTrainer struct {
	available bool
	result    *training.Result
	err       error
	calls     int
	lastReq   training.Request
}

func (f *fakeTrainer) Available() bool { return f.available }

func (f *fakeTrainer) Train(ctx context.Context, req training.Request) (*training.Result, error) {
	f.calls++
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type env struct {
	router       *gin.Engine
	procurements *fakeProcurements
	modelStore   *fakeModelStore
	predictions  *fakePredictionStore
	trainer      *fakeTrainer
}

func newEnv(t *testing.T) *env {
	t.Helper()
	gin.SetMode(gin.TestMode)

	e := &env{
		procurements: &fakeProcurements{items: make(map[uuid.UUID]*models.Procurement)},
		modelStore:   newFakeModelStore(),
		predictions:  &fakePredictionStore{},
		trainer:      &fakeTrainer{},
	}

	handler := NewHandler(zap.NewNop(), e.procurements, e.modelStore, e.predictions, e.trainer, nil, nil)
	e.router = SetupRouter(&config.Config{}, zap.NewNop(), handler)
	return e
}

func (e *env) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func addProcurement(e *env) *models.Procurement {
	now := time.Now().UTC()
	price := 500.0
	p := &models.Procurement{
		ID:               uuid.New(),
		Title:            "Office chairs bulk order",
		Category:         &models.Category{Name: "Furniture"},
		City:             "Kazan",
		TargetAmount:     10000,
		CurrentAmount:    3000,
		PricePerUnit:     &price,
		ParticipantCount: 6,
		Status:           models.ProcurementStatusActive,
		CreatedAt:        now.Add(-15 * 24 * time.Hour),
		Deadline:         now.Add(15 * 24 * time.Hour),
	}
	e.procurements.items[p.ID] = p
	return p
}

func TestHealth(t *testing.T) {
	e := newEnv(t)
	w := e.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestTrainerStatus(t *testing.T) {
	e := newEnv(t)
	e.trainer.available = true

	w := e.do(t, http.MethodGet, "/api/v1/models/status", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, true, body["trainer_available"])
	assert.NotEmpty(t, body["message"])
}

func TestTrainModelUnavailable(t *testing.T) {
	e := newEnv(t)
	e.trainer.available = false

	w := e.do(t, http.MethodPost, "/api/v1/models/train", gin.H{"model_type": "success_prediction"})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Empty(t, e.modelStore.created, "no record should be created when the trainer is unavailable")
	assert.Zero(t, e.trainer.calls)
}

func TestTrainModelInvalidBody(t *testing.T) {
	e := newEnv(t)
	e.trainer.available = true

	cases := []struct {
		name string
		body gin.H
	}{
		{"unknown type", gin.H{"model_type": "clairvoyance"}},
		{"missing type", gin.H{}},
		{"iterations too high", gin.H{"model_type": "success_prediction", "max_iterations": 25}},
		{"iterations too low", gin.H{"model_type": "success_prediction", "max_iterations": -1}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := e.do(t, http.MethodPost, "/api/v1/models/train", tc.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Empty(t, e.modelStore.created)
			assert.Zero(t, e.trainer.calls)
		})
	}
}

func TestTrainModelSuccess(t *testing.T) {
	e := newEnv(t)
	e.trainer.available = true
	e.trainer.result = &training.Result{
		Performance:  0.91,
		ArtifactPath: "/tmp/artifacts/run1",
		Metadata:     map[string]interface{}{"dataset_rows": 12},
	}

	w := e.do(t, http.MethodPost, "/api/v1/models/train", gin.H{
		"model_type":     "success_prediction",
		"max_iterations": 5,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	require.Len(t, e.modelStore.created, 1)
	record := e.modelStore.created[0]
	assert.Equal(t, models.ModelStatusReady, record.Status)
	assert.Equal(t, models.ModelTypeSuccessPrediction, record.Type)
	require.NotNil(t, record.Performance)
	assert.Equal(t, 0.91, *record.Performance)
	assert.Equal(t, "/tmp/artifacts/run1", record.ArtifactPath)

	assert.Equal(t, 1, e.trainer.calls)
	assert.Equal(t, models.ModelTypeSuccessPrediction, e.trainer.lastReq.Type)
	assert.Equal(t, 5, e.trainer.lastReq.MaxIterations)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ready", body["status"])
	assert.Equal(t, "automl-success_prediction", body["name"])
}

func TestTrainModelFailureMarksRecordFailed(t *testing.T) {
	e := newEnv(t)
	e.trainer.available = true
	e.trainer.err = fmt.Errorf("automl trainer failed: boom")

	w := e.do(t, http.MethodPost, "/api/v1/models/train", gin.H{"model_type": "demand_forecast"})
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	require.Len(t, e.modelStore.created, 1)
	record := e.modelStore.created[0]
	assert.Equal(t, models.ModelStatusFailed, record.Status)

	var metadata map[string]string
	require.NoError(t, json.Unmarshal(record.TrainingMetadata, &metadata))
	assert.Contains(t, metadata["error"], "boom")
}

func TestTrainModelInsufficientData(t *testing.T) {
	e := newEnv(t)
	e.trainer.available = true
	e.trainer.err = fmt.Errorf("%w: need completed procurements", training.ErrInsufficientData)

	w := e.do(t, http.MethodPost, "/api/v1/models/train", gin.H{"model_type": "demand_forecast"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	require.Len(t, e.modelStore.created, 1)
	assert.Equal(t, models.ModelStatusFailed, e.modelStore.created[0].Status)
}

func TestTrainModelUnsupportedType(t *testing.T) {
	e := newEnv(t)
	e.trainer.available = true
	e.trainer.err = fmt.Errorf("%w: price_optimization", training.ErrUnsupportedModelType)

	w := e.do(t, http.MethodPost, "/api/v1/models/train", gin.H{"model_type": "price_optimization"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.Len(t, e.modelStore.created, 1)
	assert.Equal(t, models.ModelStatusFailed, e.modelStore.created[0].Status)
}

func TestGetModel(t *testing.T) {
	e := newEnv(t)
	record := &models.MLModel{Name: "automl-demand_forecast", Type: models.ModelTypeDemandForecast, Status: models.ModelStatusReady}
	require.NoError(t, e.modelStore.Create(context.Background(), record))

	w := e.do(t, http.MethodGet, "/api/v1/models/"+record.ID.String(), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = e.do(t, http.MethodGet, "/api/v1/models/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = e.do(t, http.MethodGet, "/api/v1/models/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListModels(t *testing.T) {
	e := newEnv(t)
	require.NoError(t, e.modelStore.Create(context.Background(), &models.MLModel{Name: "automl-success_prediction"}))

	w := e.do(t, http.MethodGet, "/api/v1/models", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string][]models.MLModel
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Len(t, body["models"], 1)
}

func TestPredictUnknownProcurement(t *testing.T) {
	e := newEnv(t)

	w := e.do(t, http.MethodPost, "/api/v1/predictions/predict", gin.H{
		"procurement_id": uuid.NewString(),
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Empty(t, e.predictions.created, "no prediction record for a missing procurement")
}

func TestPredictInvalidBody(t *testing.T) {
	e := newEnv(t)

	cases := []struct {
		name string
		body gin.H
	}{
		{"missing procurement_id", gin.H{}},
		{"malformed procurement_id", gin.H{"procurement_id": "42"}},
		{"unknown prediction type", gin.H{"procurement_id": uuid.NewString(), "prediction_type": "weather"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := e.do(t, http.MethodPost, "/api/v1/predictions/predict", tc.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
	assert.Empty(t, e.predictions.created)
}

func TestPredictSuccess(t *testing.T) {
	e := newEnv(t)
	p := addProcurement(e)

	w := e.do(t, http.MethodPost, "/api/v1/predictions/predict", gin.H{
		"procurement_id":  p.ID.String(),
		"prediction_type": "success_prediction",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	require.Len(t, e.predictions.created, 1)
	created := e.predictions.created[0]
	assert.Equal(t, p.ID, created.ProcurementID)
	assert.Equal(t, models.ModelTypeSuccessPrediction, created.Type)
	assert.Nil(t, created.MLModelID, "heuristic predictions reference no trained model")
	// progress 30, participants 6, days 30: 0.18 + 0.18 + 0.1 = 0.46
	assert.Equal(t, 0.46, created.PredictedValue)
	require.NotNil(t, created.Confidence)
	assert.Equal(t, 0.5, *created.Confidence)

	var storedFeatures map[string]interface{}
	require.NoError(t, json.Unmarshal(created.InputFeatures, &storedFeatures))
	assert.Len(t, storedFeatures, 8)
	assert.Equal(t, "Furniture", storedFeatures["category"])

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Office chairs bulk order", body["procurement_title"])
	assert.Equal(t, "success_prediction", body["prediction_type"])
}

func TestPredictDefaultsToSuccessPrediction(t *testing.T) {
	e := newEnv(t)
	p := addProcurement(e)

	w := e.do(t, http.MethodPost, "/api/v1/predictions/predict", gin.H{
		"procurement_id": p.ID.String(),
	})
	require.Equal(t, http.StatusCreated, w.Code)
	require.Len(t, e.predictions.created, 1)
	assert.Equal(t, models.ModelTypeSuccessPrediction, e.predictions.created[0].Type)
}

func TestPredictDemandForecast(t *testing.T) {
	e := newEnv(t)
	p := addProcurement(e)

	w := e.do(t, http.MethodPost, "/api/v1/predictions/predict", gin.H{
		"procurement_id":  p.ID.String(),
		"prediction_type": "demand_forecast",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	require.Len(t, e.predictions.created, 1)
	created := e.predictions.created[0]
	// 10000 / 500 = 20 units, 20 / 5 = 4 participants.
	assert.Equal(t, 4.0, created.PredictedValue)
	require.NotNil(t, created.Confidence)
	assert.Equal(t, 0.4, *created.Confidence)
}

func TestListPredictionsFilter(t *testing.T) {
	e := newEnv(t)
	id := uuid.New()

	w := e.do(t, http.MethodGet, "/api/v1/predictions?procurement_id="+id.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, e.predictions.lastByID)
	assert.Equal(t, id, *e.predictions.lastByID)

	w = e.do(t, http.MethodGet, "/api/v1/predictions?procurement_id=nope", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetPrediction(t *testing.T) {
	e := newEnv(t)
	confidence := 0.5
	prediction := models.Prediction{
		ID:             uuid.New(),
		ProcurementID:  uuid.New(),
		Type:           models.ModelTypeSuccessPrediction,
		PredictedValue: 0.41,
		Confidence:     &confidence,
	}
	e.predictions.listed = []models.Prediction{prediction}

	w := e.do(t, http.MethodGet, "/api/v1/predictions/"+prediction.ID.String(), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = e.do(t, http.MethodGet, "/api/v1/predictions/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
