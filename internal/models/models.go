package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ModelType represents the kind of analytics signal a model produces.
type ModelType string

const (
	ModelTypeSuccessPrediction ModelType = "success_prediction"
	ModelTypeDemandForecast    ModelType = "demand_forecast"
	ModelTypePriceOptimization ModelType = "price_optimization"
)

// ModelStatus represents the lifecycle state of a trained model record.
type ModelStatus string

const (
	ModelStatusTraining ModelStatus = "training"
	ModelStatusReady    ModelStatus = "ready"
	ModelStatusFailed   ModelStatus = "failed"
)

// ProcurementStatus represents the lifecycle state of a procurement campaign.
type ProcurementStatus string

const (
	ProcurementStatusActive    ProcurementStatus = "active"
	ProcurementStatusCompleted ProcurementStatus = "completed"
	ProcurementStatusCancelled ProcurementStatus = "cancelled"
)

// Category is a procurement category reference.
type Category struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Name      string    `gorm:"not null;unique" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Procurement is a group-buy campaign record. This service only reads
// procurements; they are owned by the procurement service.
type Procurement struct {
	ID               uuid.UUID         `gorm:"type:uuid;primary_key" json:"id"`
	Title            string            `gorm:"not null" json:"title"`
	CategoryID       *uuid.UUID        `gorm:"type:uuid;index" json:"category_id,omitempty"`
	Category         *Category         `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	City             string            `json:"city"`
	TargetAmount     float64           `gorm:"not null" json:"target_amount"`
	CurrentAmount    float64           `gorm:"default:0" json:"current_amount"`
	PricePerUnit     *float64          `json:"price_per_unit,omitempty"`
	ParticipantCount int               `gorm:"default:0" json:"participant_count"`
	Status           ProcurementStatus `gorm:"not null;index" json:"status"`
	Deadline         time.Time         `gorm:"not null" json:"deadline"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

// Progress returns the funded share of the target amount on a 0-100 scale.
func (p *Procurement) Progress() float64 {
	if p.TargetAmount <= 0 {
		return 0
	}
	progress := p.CurrentAmount / p.TargetAmount * 100
	if progress > 100 {
		return 100
	}
	if progress < 0 {
		return 0
	}
	return progress
}

// MLModel stores metadata and lifecycle status for one training run.
type MLModel struct {
	ID               uuid.UUID   `gorm:"type:uuid;primary_key" json:"id"`
	Name             string      `gorm:"not null" json:"name"`
	Type             ModelType   `gorm:"not null;index" json:"model_type"`
	Status           ModelStatus `gorm:"not null;index" json:"status"`
	Intent           string      `json:"intent"`
	Performance      *float64    `json:"performance,omitempty"`
	ArtifactPath     string      `json:"artifact_path"`
	TrainingMetadata JSON        `gorm:"type:jsonb" json:"training_metadata"`
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`
}

// Prediction is one analytics result for a procurement. Records are
// immutable once created.
type Prediction struct {
	ID             uuid.UUID    `gorm:"type:uuid;primary_key" json:"id"`
	ProcurementID  uuid.UUID    `gorm:"type:uuid;not null;index" json:"procurement_id"`
	Procurement    *Procurement `gorm:"foreignKey:ProcurementID" json:"-"`
	MLModelID      *uuid.UUID   `gorm:"type:uuid;index" json:"ml_model_id,omitempty"`
	MLModel        *MLModel     `gorm:"foreignKey:MLModelID" json:"-"`
	Type           ModelType    `gorm:"not null;index" json:"prediction_type"`
	PredictedValue float64      `gorm:"not null" json:"predicted_value"`
	Confidence     *float64     `json:"confidence,omitempty"`
	InputFeatures  JSON         `gorm:"type:jsonb" json:"input_features"`
	CreatedAt      time.Time    `json:"created_at"`
}

// JSON represents a JSON column for GORM.
type JSON json.RawMessage

// Scan implements the sql.Scanner interface.
func (j *JSON) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	*j = JSON(bytes)
	return nil
}

// Value implements the driver.Valuer interface.
func (j JSON) Value() (interface{}, error) {
	if j == nil {
		return nil, nil
	}
	return string(j), nil
}

// MarshalJSON implements the json.Marshaler interface.
func (j JSON) MarshalJSON() ([]byte, error) {
	if j == nil {
		return []byte("null"), nil
	}
	return j, nil
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (j *JSON) UnmarshalJSON(data []byte) error {
	if j == nil {
		return nil
	}
	*j = JSON(data)
	return nil
}

func (c *Category) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

func (p *Procurement) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

func (m *MLModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

func (p *Prediction) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
