// Package heuristic implements the rule-based predictor used when no
// trained model is available. All functions are pure and deterministic.
package heuristic

import (
	"math"

	"github.com/groupbuy/procurement-analytics/internal/features"
	"github.com/groupbuy/procurement-analytics/internal/models"
)

// Fixed confidence levels reported for each heuristic branch.
const (
	SuccessConfidence = 0.5
	DemandConfidence  = 0.4
	PriceConfidence   = 0.35
)

// Predict returns (predicted value, confidence) for the given prediction
// kind and feature mapping. Unrecognized kinds fall through to the price
// suggestion branch. Well-formed numeric input never produces an error;
// missing keys are absorbed by defaults.
func Predict(kind models.ModelType, f features.Map) (float64, float64) {
	switch kind {
	case models.ModelTypeSuccessPrediction:
		return predictSuccess(f), SuccessConfidence
	case models.ModelTypeDemandForecast:
		return predictDemand(f), DemandConfidence
	default:
		return predictPrice(f), PriceConfidence
	}
}

// predictSuccess scores the probability that a procurement reaches its
// target. Progress matters most, then participants, then age.
func predictSuccess(f features.Map) float64 {
	progress := numeric(f, features.KeyProgress, 0) / 100.0
	daysActive := math.Max(1, numeric(f, features.KeyDaysActive, 1))
	participants := numeric(f, features.KeyParticipantCount, 0)

	score := 0.6*progress +
		0.3*math.Min(1.0, participants/10) +
		0.1*math.Min(1.0, daysActive/30)
	return round(math.Min(1.0, score), 4)
}

// predictDemand estimates the participant count a procurement will attract.
// A zero price is treated as 1 to avoid dividing by zero; the estimate is
// always at least 1.
func predictDemand(f features.Map) float64 {
	target := numeric(f, features.KeyTargetAmount, 1000)
	price := numeric(f, features.KeyPricePerUnit, 0)
	if price == 0 {
		price = 1
	}
	estimatedUnits := target / price
	return math.Max(1, math.Floor(estimatedUnits/5))
}

// predictPrice suggests a per-unit price that spreads the target amount
// over the current participants.
func predictPrice(f features.Map) float64 {
	target := numeric(f, features.KeyTargetAmount, 1000)
	participants := math.Max(1, numeric(f, features.KeyParticipantCount, 1))
	return round(target/participants, 2)
}

// numeric reads a feature as float64. Feature maps hold native ints when
// built in-process and float64 after a JSON round trip.
func numeric(f features.Map, key string, def float64) float64 {
	v, ok := f[key]
	if !ok {
		return def
	}
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	default:
		return def
	}
}

func round(v float64, places int) float64 {
	factor := math.Pow(10, float64(places))
	return math.Round(v*factor) / factor
}
