package models

import "time"

// Period selects the rolling window for the KPI strip.
type Period string

const (
	Period7Days    Period = "7d"
	Period30Days   Period = "30d"
	PeriodSemester Period = "semester"
)

// Valid reports whether p is one of the supported keywords.
func (p Period) Valid() bool {
	return p == Period7Days || p == Period30Days || p == PeriodSemester
}

// PeriodBounds holds a current window and the contiguous window of equal length before it.
type PeriodBounds struct {
	CurrentStart  time.Time
	CurrentEnd    time.Time
	PreviousStart time.Time
	PreviousEnd   time.Time
}

// ScopeKind distinguishes personal metrics from institution-wide ones.
type ScopeKind string

const (
	ScopePersonal    ScopeKind = "personal"
	ScopeInstitution ScopeKind = "institution"
)

// Scope is the resolved record filter for a KPI request.
// Personal scope filters by CreatorID; institution scope filters by CourseIDs.
// Empty is set when an institution resolves to no programs or no courses.
type Scope struct {
	Kind      ScopeKind
	CreatorID string
	CourseIDs []string
	Empty     bool
}

// ItemStatus is the review state of an assessment item.
type ItemStatus string

const (
	ItemStatusPendingReview     ItemStatus = "pending_review"
	ItemStatusInReview          ItemStatus = "in_review"
	ItemStatusRevisionRequested ItemStatus = "revision_requested"
	ItemStatusApproved          ItemStatus = "approved"
	ItemStatusRetired           ItemStatus = "retired"
)

// ReviewedStatuses lists the statuses counted as having entered review.
var ReviewedStatuses = []ItemStatus{
	ItemStatusApproved,
	ItemStatusRetired,
	ItemStatusRevisionRequested,
	ItemStatusInReview,
	ItemStatusPendingReview,
}

// AssessmentItemFilter scopes count and average queries over assessment items.
// From and To are inclusive.
type AssessmentItemFilter struct {
	CreatedBy string
	CourseIDs []string
	Statuses  []ItemStatus
	From      time.Time
	To        time.Time
}

// QualityScoreTotals carries the sum and count of non-null quality scores.
type QualityScoreTotals struct {
	Sum   float64 `db:"score_sum"`
	Count int     `db:"score_count"`
}

// Average returns the mean score, or 0 when no item has been scored.
func (t QualityScoreTotals) Average() float64 {
	if t.Count == 0 {
		return 0
	}
	return t.Sum / float64(t.Count)
}

// WindowCounts are the raw aggregates for one window.
type WindowCounts struct {
	Generated       int
	Approved        int
	Reviewed        int
	AvgQualityScore float64
}

// MetricKey identifies a KPI card.
type MetricKey string

const (
	MetricQuestionsGenerated MetricKey = "questions_generated"
	MetricApprovalRate       MetricKey = "approval_rate"
	MetricCoverageScore      MetricKey = "coverage_score"
	MetricTimeSaved          MetricKey = "time_saved"
)

// TrendDirection classifies the change between two windows.
type TrendDirection string

const (
	TrendUp   TrendDirection = "up"
	TrendDown TrendDirection = "down"
	TrendFlat TrendDirection = "flat"
)
