package dto

import "github.com/noah-isme/journey-analytics-api/internal/models"

// KpiRequest carries the dashboard KPI query parameters. A nil field was not supplied;
// a supplied empty value is validated like any other.
type KpiRequest struct {
	UserID *string `form:"user_id" validate:"required,uuid"`
	Period *string `form:"period" validate:"required,oneof=7d 30d semester"`
}

// MetricSample is a single KPI card with its trend against the previous window.
type MetricSample struct {
	Key            models.MetricKey      `json:"key"`
	Label          string                `json:"label"`
	Value          float64               `json:"value"`
	Unit           string                `json:"unit"`
	PreviousValue  float64               `json:"previous_value"`
	TrendPercent   float64               `json:"trend_percent"`
	TrendDirection models.TrendDirection `json:"trend_direction"`
}

// KpiResponse is the KPI strip payload. PeriodStart and PeriodEnd bound the current window.
type KpiResponse struct {
	Metrics     []MetricSample   `json:"metrics"`
	Period      models.Period    `json:"period"`
	PeriodStart string           `json:"period_start"`
	PeriodEnd   string           `json:"period_end"`
	Scope       models.ScopeKind `json:"scope"`
}
