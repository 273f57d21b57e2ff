package service

import (
	"math"

	"github.com/noah-isme/journey-analytics-api/internal/models"
)

// flatThreshold is the absolute percent change below which a trend is flat.
const flatThreshold = 1.0

// ClassifyTrend returns the rounded percent change from previous to current and its direction.
// A zero previous value yields 100 when current is positive and 0 otherwise.
func ClassifyTrend(current, previous float64) (float64, models.TrendDirection) {
	var percent float64
	switch {
	case previous == 0 && current > 0:
		percent = 100
	case previous == 0:
		percent = 0
	default:
		percent = (current - previous) / previous * 100
	}
	if math.IsNaN(percent) || math.IsInf(percent, 0) {
		percent = 0
	}

	direction := models.TrendDown
	switch {
	case math.Abs(percent) < flatThreshold:
		direction = models.TrendFlat
	case percent >= flatThreshold:
		direction = models.TrendUp
	}
	return round2(percent), direction
}

func round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return math.Round(v*100) / 100
}
