package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/journey-analytics-api/internal/models"
)

// KPIRepository runs the scope and aggregate queries behind the dashboard KPI strip.
type KPIRepository struct {
	db *sqlx.DB
}

// NewKPIRepository instantiates the repository.
func NewKPIRepository(db *sqlx.DB) *KPIRepository {
	return &KPIRepository{db: db}
}

// ProgramIDsByInstitution lists the programs owned by an institution.
func (r *KPIRepository) ProgramIDsByInstitution(ctx context.Context, institutionID string) ([]string, error) {
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, "SELECT id FROM programs WHERE institution_id = $1", institutionID); err != nil {
		return nil, fmt.Errorf("list programs by institution: %w", err)
	}
	return ids, nil
}

// CourseIDsByPrograms lists the courses belonging to any of the given programs.
func (r *KPIRepository) CourseIDsByPrograms(ctx context.Context, programIDs []string) ([]string, error) {
	if len(programIDs) == 0 {
		return nil, nil
	}
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, "SELECT id FROM courses WHERE program_id = ANY($1)", pq.Array(programIDs)); err != nil {
		return nil, fmt.Errorf("list courses by programs: %w", err)
	}
	return ids, nil
}

// CountItems returns the exact number of assessment items matching the filter.
func (r *KPIRepository) CountItems(ctx context.Context, filter models.AssessmentItemFilter) (int, error) {
	where, args := buildItemWhere(filter)
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM assessment_items"+where, args...); err != nil {
		return 0, fmt.Errorf("count assessment items: %w", err)
	}
	return total, nil
}

// QualityScoreTotals sums the non-null quality scores of matching items.
func (r *KPIRepository) QualityScoreTotals(ctx context.Context, filter models.AssessmentItemFilter) (models.QualityScoreTotals, error) {
	where, args := buildItemWhere(filter)
	query := "SELECT COALESCE(SUM(quality_score), 0) AS score_sum, COUNT(quality_score) AS score_count FROM assessment_items" + where
	var totals models.QualityScoreTotals
	if err := r.db.GetContext(ctx, &totals, query, args...); err != nil {
		return models.QualityScoreTotals{}, fmt.Errorf("sum quality scores: %w", err)
	}
	return totals, nil
}

func buildItemWhere(filter models.AssessmentItemFilter) (string, []interface{}) {
	var builder strings.Builder
	var args []interface{}

	args = append(args, filter.From)
	builder.WriteString(fmt.Sprintf(" WHERE created_at >= $%d", len(args)))
	args = append(args, filter.To)
	builder.WriteString(fmt.Sprintf(" AND created_at <= $%d", len(args)))

	if filter.CreatedBy != "" {
		args = append(args, filter.CreatedBy)
		builder.WriteString(fmt.Sprintf(" AND created_by = $%d", len(args)))
	}
	if len(filter.CourseIDs) > 0 {
		args = append(args, pq.Array(filter.CourseIDs))
		builder.WriteString(fmt.Sprintf(" AND course_id = ANY($%d)", len(args)))
	}

	switch len(filter.Statuses) {
	case 0:
	case 1:
		args = append(args, string(filter.Statuses[0]))
		builder.WriteString(fmt.Sprintf(" AND status = $%d", len(args)))
	default:
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = string(s)
		}
		args = append(args, pq.Array(statuses))
		builder.WriteString(fmt.Sprintf(" AND status = ANY($%d)", len(args)))
	}

	return builder.String(), args
}
