package models

import "time"

// EventType enumerates the activity events surfaced in the feed.
type EventType string

const (
	EventQuestionGenerated      EventType = "question_generated"
	EventQuestionReviewed       EventType = "question_reviewed"
	EventQuestionApproved       EventType = "question_approved"
	EventQuestionRejected       EventType = "question_rejected"
	EventCoverageGapDetected    EventType = "coverage_gap_detected"
	EventBulkGenerationComplete EventType = "bulk_generation_complete"
)

var eventTypes = map[EventType]struct{}{
	EventQuestionGenerated:      {},
	EventQuestionReviewed:       {},
	EventQuestionApproved:       {},
	EventQuestionRejected:       {},
	EventCoverageGapDetected:    {},
	EventBulkGenerationComplete: {},
}

// Valid reports whether the event type belongs to the feed vocabulary.
func (e EventType) Valid() bool {
	_, ok := eventTypes[e]
	return ok
}

// ActivityEvent is a single row of the activity_events table.
type ActivityEvent struct {
	ID            string                 `db:"id" json:"id"`
	UserID        string                 `db:"user_id" json:"user_id"`
	InstitutionID string                 `db:"institution_id" json:"institution_id"`
	EventType     EventType              `db:"event_type" json:"event_type"`
	EntityID      string                 `db:"entity_id" json:"entity_id"`
	EntityType    string                 `db:"entity_type" json:"entity_type"`
	Metadata      map[string]interface{} `db:"-" json:"metadata"`
	CreatedAt     time.Time              `db:"created_at" json:"created_at"`
}

// ActivityFeedFilter is the validated, clamped feed query.
type ActivityFeedFilter struct {
	UserID     string
	EventTypes []EventType
	Limit      int
	Offset     int
}
