package service

import (
	"fmt"
	"time"

	"github.com/noah-isme/journey-analytics-api/internal/models"
)

// CalculatePeriod derives the current window ending at now and the contiguous previous
// window of equal length. Calendar arithmetic is done in UTC.
//
// Semester starts on Jan 1 for January through July and on Aug 1 otherwise.
func CalculatePeriod(period models.Period, now time.Time) (models.PeriodBounds, error) {
	if !period.Valid() {
		return models.PeriodBounds{}, fmt.Errorf("unsupported period %q", period)
	}
	now = now.UTC()

	var start time.Time
	switch period {
	case models.Period7Days:
		start = now.AddDate(0, 0, -7)
	case models.Period30Days:
		start = now.AddDate(0, 0, -30)
	default:
		if now.Month() <= time.July {
			start = time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
		} else {
			start = time.Date(now.Year(), time.August, 1, 0, 0, 0, 0, time.UTC)
		}
	}

	duration := now.Sub(start)
	return models.PeriodBounds{
		CurrentStart:  start,
		CurrentEnd:    now,
		PreviousStart: start.Add(-duration),
		PreviousEnd:   start,
	}, nil
}
