package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/journey-analytics-api/internal/models"
)

// ActivityRepository reads the activity_events table.
type ActivityRepository struct {
	db *sqlx.DB
}

// NewActivityRepository instantiates the repository.
func NewActivityRepository(db *sqlx.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

type activityEventRow struct {
	ID            string    `db:"id"`
	UserID        string    `db:"user_id"`
	InstitutionID string    `db:"institution_id"`
	EventType     string    `db:"event_type"`
	EntityID      string    `db:"entity_id"`
	EntityType    string    `db:"entity_type"`
	Metadata      []byte    `db:"metadata"`
	CreatedAt     time.Time `db:"created_at"`
}

// ListByUser returns one page of a user's events, newest first.
func (r *ActivityRepository) ListByUser(ctx context.Context, filter models.ActivityFeedFilter) ([]models.ActivityEvent, error) {
	where, args := buildActivityWhere(filter)

	args = append(args, filter.Limit)
	limitPos := len(args)
	args = append(args, filter.Offset)
	offsetPos := len(args)

	query := fmt.Sprintf(`SELECT id, user_id, institution_id, event_type, entity_id, entity_type, metadata, created_at
        FROM activity_events%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, where, limitPos, offsetPos)

	var rows []activityEventRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list activity events: %w", err)
	}

	events := make([]models.ActivityEvent, 0, len(rows))
	for _, row := range rows {
		event := models.ActivityEvent{
			ID:            row.ID,
			UserID:        row.UserID,
			InstitutionID: row.InstitutionID,
			EventType:     models.EventType(row.EventType),
			EntityID:      row.EntityID,
			EntityType:    row.EntityType,
			Metadata:      map[string]interface{}{},
			CreatedAt:     row.CreatedAt,
		}
		if len(row.Metadata) > 0 {
			if err := json.Unmarshal(row.Metadata, &event.Metadata); err != nil {
				return nil, fmt.Errorf("decode metadata for event %s: %w", row.ID, err)
			}
			if event.Metadata == nil {
				event.Metadata = map[string]interface{}{}
			}
		}
		events = append(events, event)
	}
	return events, nil
}

// CountByUser returns the exact number of events matching the filter, ignoring pagination.
func (r *ActivityRepository) CountByUser(ctx context.Context, filter models.ActivityFeedFilter) (int, error) {
	where, args := buildActivityWhere(filter)
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM activity_events"+where, args...); err != nil {
		return 0, fmt.Errorf("count activity events: %w", err)
	}
	return total, nil
}

func buildActivityWhere(filter models.ActivityFeedFilter) (string, []interface{}) {
	var builder strings.Builder
	args := []interface{}{filter.UserID}
	builder.WriteString(" WHERE user_id = $1")

	if len(filter.EventTypes) > 0 {
		types := make([]string, len(filter.EventTypes))
		for i, t := range filter.EventTypes {
			types[i] = string(t)
		}
		args = append(args, pq.Array(types))
		builder.WriteString(fmt.Sprintf(" AND event_type = ANY($%d)", len(args)))
	}
	return builder.String(), args
}
