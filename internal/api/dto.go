package api

import (
	"github.com/groupbuy/procurement-analytics/internal/models"
)

// trainRequest is the body of POST /api/v1/models/train.
type trainRequest struct {
	ModelType     string `json:"model_type" binding:"required,oneof=success_prediction demand_forecast price_optimization"`
	MaxIterations int    `json:"max_iterations" binding:"omitempty,min=1,max=20"`
	WorkDir       string `json:"work_dir"`
}

// predictRequest is the body of POST /api/v1/predictions/predict.
type predictRequest struct {
	ProcurementID  string `json:"procurement_id" binding:"required,uuid"`
	PredictionType string `json:"prediction_type" binding:"omitempty,oneof=success_prediction demand_forecast price_optimization"`
}

// predictionResponse augments a prediction with its procurement title for
// list and detail views.
type predictionResponse struct {
	models.Prediction
	ProcurementTitle string `json:"procurement_title,omitempty"`
}

func toPredictionResponse(p models.Prediction) predictionResponse {
	resp := predictionResponse{Prediction: p}
	if p.Procurement != nil {
		resp.ProcurementTitle = p.Procurement.Title
	}
	return resp
}

func toPredictionResponses(predictions []models.Prediction) []predictionResponse {
	out := make([]predictionResponse, 0, len(predictions))
	for _, p := range predictions {
		out = append(out, toPredictionResponse(p))
	}
	return out
}
