// Package features converts procurement records into the flat feature
// mappings consumed by the heuristic predictor and the dataset builders.
package features

import (
	"github.com/groupbuy/procurement-analytics/internal/models"
)

// Feature keys shared by the extractor, the dataset builders, and the
// heuristic predictor.
const (
	KeyCategory         = "category"
	KeyCity             = "city"
	KeyTargetAmount     = "target_amount"
	KeyParticipantCount = "participant_count"
	KeyDaysActive       = "days_active"
	KeyPricePerUnit     = "price_per_unit"
	KeyCurrentAmount    = "current_amount"
	KeyProgress         = "progress"
)

// Map is a fixed-schema feature mapping derived from one procurement.
type Map map[string]interface{}

// Extract builds the feature mapping for a single procurement. Missing
// category and city collapse to "unknown", a missing price per unit to 0.
// Pure function, no I/O.
func Extract(p models.Procurement) Map {
	return Map{
		KeyCategory:         CategoryName(p),
		KeyCity:             CityName(p),
		KeyTargetAmount:     p.TargetAmount,
		KeyParticipantCount: p.ParticipantCount,
		KeyDaysActive:       DaysActive(p),
		KeyPricePerUnit:     PricePerUnit(p),
		KeyCurrentAmount:    p.CurrentAmount,
		KeyProgress:         p.Progress(),
	}
}

// CategoryName returns the procurement's category name, or "unknown".
func CategoryName(p models.Procurement) string {
	if p.Category == nil || p.Category.Name == "" {
		return "unknown"
	}
	return p.Category.Name
}

// CityName returns the procurement's city, or "unknown".
func CityName(p models.Procurement) string {
	if p.City == "" {
		return "unknown"
	}
	return p.City
}

// DaysActive returns the whole-day span between creation and deadline,
// clamped to zero when the deadline precedes creation.
func DaysActive(p models.Procurement) int {
	days := int(p.Deadline.Sub(p.CreatedAt).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

// PricePerUnit returns the price per unit, or 0 when unset.
func PricePerUnit(p models.Procurement) float64 {
	if p.PricePerUnit == nil {
		return 0.0
	}
	return *p.PricePerUnit
}
