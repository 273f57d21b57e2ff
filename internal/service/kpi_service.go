package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/journey-analytics-api/internal/dto"
	"github.com/noah-isme/journey-analytics-api/internal/models"
	appErrors "github.com/noah-isme/journey-analytics-api/pkg/errors"
)

const tracerName = "github.com/noah-isme/journey-analytics-api/internal/service"

const defaultTimeSavedMinutes = 45

// isoMillis renders UTC instants with exactly three fractional digits.
const isoMillis = "2006-01-02T15:04:05.000Z07:00"

type kpiRepository interface {
	CountItems(ctx context.Context, filter models.AssessmentItemFilter) (int, error)
	QualityScoreTotals(ctx context.Context, filter models.AssessmentItemFilter) (models.QualityScoreTotals, error)
}

type scopeResolver interface {
	Resolve(ctx context.Context, caller *models.JWTClaims, targetUserID string) (models.Scope, error)
}

// KPIConfig tunes metric derivation.
type KPIConfig struct {
	TimeSavedMinutes float64
}

// KPIService computes the dashboard KPI strip.
type KPIService struct {
	repo      kpiRepository
	scope     scopeResolver
	validator *validator.Validate
	metrics   *MetricsService
	logger    *zap.Logger
	tracer    trace.Tracer
	config    KPIConfig
	now       func() time.Time
}

// NewKPIService constructs a KPIService.
func NewKPIService(repo kpiRepository, scope scopeResolver, validate *validator.Validate, metrics *MetricsService, logger *zap.Logger, config KPIConfig) *KPIService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.TimeSavedMinutes <= 0 {
		config.TimeSavedMinutes = defaultTimeSavedMinutes
	}
	return &KPIService{
		repo:      repo,
		scope:     scope,
		validator: validate,
		metrics:   metrics,
		logger:    logger,
		tracer:    otel.Tracer(tracerName),
		config:    config,
		now:       time.Now,
	}
}

// WithTracer replaces the tracer taken from the global provider.
func (s *KPIService) WithTracer(tracer trace.Tracer) *KPIService {
	s.tracer = tracer
	return s
}

// Calculate validates and authorizes the request, then aggregates the current and previous windows.
// A nil UserID defaults to the caller and a nil Period to 7d.
func (s *KPIService) Calculate(ctx context.Context, caller *models.JWTClaims, req dto.KpiRequest) (*dto.KpiResponse, error) {
	if caller == nil || caller.UserID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "Authentication required")
	}

	userID := strings.ToLower(caller.UserID)
	if req.UserID != nil {
		userID = strings.ToLower(*req.UserID)
	}
	rawPeriod := string(models.Period7Days)
	if req.Period != nil {
		rawPeriod = *req.Period
	}

	invalid := invalidFields(s.validator.Struct(dto.KpiRequest{UserID: &userID, Period: &rawPeriod}))
	if invalid["UserID"] {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Invalid user_id format. Must be a valid UUID.")
	}
	if !strings.EqualFold(userID, caller.UserID) && !caller.EffectiveRole().CanViewOtherKPIs() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "You can only view your own KPIs")
	}
	if invalid["Period"] {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Invalid period value. Must be one of: 7d, 30d, semester")
	}

	period := models.Period(rawPeriod)
	ctx, span := s.tracer.Start(ctx, "KPIService.Calculate", trace.WithAttributes(
		attribute.String("kpi.period", rawPeriod),
		attribute.String("kpi.user_id", userID),
	))
	defer span.End()

	bounds, err := CalculatePeriod(period, s.now())
	if err != nil {
		return nil, s.internal(span, "calculate period", err)
	}

	scope, err := s.scope.Resolve(ctx, caller, userID)
	if err != nil {
		return nil, s.internal(span, "resolve scope", err)
	}
	span.SetAttributes(attribute.String("kpi.scope", string(scope.Kind)), attribute.Int("kpi.course_count", len(scope.CourseIDs)))

	var current, previous models.WindowCounts
	if !scope.Empty {
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			current, err = s.windowCounts(gctx, scope, bounds.CurrentStart, bounds.CurrentEnd)
			return err
		})
		g.Go(func() error {
			var err error
			previous, err = s.windowCounts(gctx, scope, bounds.PreviousStart, bounds.PreviousEnd)
			return err
		})
		if err := g.Wait(); err != nil {
			return nil, s.internal(span, "aggregate kpi windows", err)
		}
	}

	s.metrics.IncKPIRequest(rawPeriod, string(scope.Kind))
	return &dto.KpiResponse{
		Metrics:     s.buildMetrics(current, previous),
		Period:      period,
		PeriodStart: bounds.CurrentStart.Format(isoMillis),
		PeriodEnd:   bounds.CurrentEnd.Format(isoMillis),
		Scope:       scope.Kind,
	}, nil
}

// windowCounts runs the four aggregate queries for one window concurrently.
func (s *KPIService) windowCounts(ctx context.Context, scope models.Scope, from, to time.Time) (models.WindowCounts, error) {
	base := models.AssessmentItemFilter{
		CreatedBy: scope.CreatorID,
		CourseIDs: scope.CourseIDs,
		From:      from,
		To:        to,
	}
	approved := base
	approved.Statuses = []models.ItemStatus{models.ItemStatusApproved}
	reviewed := base
	reviewed.Statuses = models.ReviewedStatuses

	var counts models.WindowCounts
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.timed("kpi_generated", func() (err error) {
			counts.Generated, err = s.repo.CountItems(gctx, base)
			return err
		})
	})
	g.Go(func() error {
		return s.timed("kpi_approved", func() (err error) {
			counts.Approved, err = s.repo.CountItems(gctx, approved)
			return err
		})
	})
	g.Go(func() error {
		return s.timed("kpi_reviewed", func() (err error) {
			counts.Reviewed, err = s.repo.CountItems(gctx, reviewed)
			return err
		})
	})
	g.Go(func() error {
		return s.timed("kpi_quality", func() error {
			totals, err := s.repo.QualityScoreTotals(gctx, base)
			counts.AvgQualityScore = totals.Average()
			return err
		})
	})
	if err := g.Wait(); err != nil {
		return models.WindowCounts{}, err
	}
	return counts, nil
}

func (s *KPIService) timed(label string, fn func() error) error {
	start := time.Now()
	err := fn()
	s.metrics.ObserveDBQuery(label, time.Since(start))
	return err
}

func (s *KPIService) buildMetrics(current, previous models.WindowCounts) []dto.MetricSample {
	hours := func(generated int) float64 {
		return float64(generated) * s.config.TimeSavedMinutes / 60
	}
	return []dto.MetricSample{
		metricSample(models.MetricQuestionsGenerated, "Questions Generated", "", float64(current.Generated), float64(previous.Generated)),
		metricSample(models.MetricApprovalRate, "Approval Rate", "%", approvalRate(current), approvalRate(previous)),
		metricSample(models.MetricCoverageScore, "Avg Quality Score", "", current.AvgQualityScore, previous.AvgQualityScore),
		metricSample(models.MetricTimeSaved, "Time Saved", "hrs", hours(current.Generated), hours(previous.Generated)),
	}
}

func metricSample(key models.MetricKey, label, unit string, value, previous float64) dto.MetricSample {
	percent, direction := ClassifyTrend(value, previous)
	return dto.MetricSample{
		Key:            key,
		Label:          label,
		Value:          round2(value),
		Unit:           unit,
		PreviousValue:  round2(previous),
		TrendPercent:   percent,
		TrendDirection: direction,
	}
}

func approvalRate(c models.WindowCounts) float64 {
	if c.Reviewed == 0 {
		return 0
	}
	return float64(c.Approved) / float64(c.Reviewed) * 100
}

func (s *KPIService) internal(span trace.Span, op string, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, op)
	s.logger.Error("kpi computation failed", zap.String("op", op), zap.Error(err))
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, appErrors.ErrInternal.Message)
}

// invalidFields maps struct field names that failed validation.
func invalidFields(err error) map[string]bool {
	fields := map[string]bool{}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			fields[fe.StructField()] = true
		}
	}
	return fields
}
