package service

import (
	"context"
	"fmt"
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

const (
	defaultFeedLimit = 20
	maxFeedLimit     = 50
)

type activityRepository interface {
	ListByUser(ctx context.Context, filter models.ActivityFeedFilter) ([]models.ActivityEvent, error)
	CountByUser(ctx context.Context, filter models.ActivityFeedFilter) (int, error)
}

// ActivityFeedConfig bounds pagination.
type ActivityFeedConfig struct {
	DefaultLimit int
	MaxLimit     int
}

// ActivityFeedService serves paginated activity history.
type ActivityFeedService struct {
	repo      activityRepository
	validator *validator.Validate
	metrics   *MetricsService
	logger    *zap.Logger
	tracer    trace.Tracer
	config    ActivityFeedConfig
}

// NewActivityFeedService constructs an ActivityFeedService.
func NewActivityFeedService(repo activityRepository, validate *validator.Validate, metrics *MetricsService, logger *zap.Logger, config ActivityFeedConfig) *ActivityFeedService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.MaxLimit <= 0 || config.MaxLimit > maxFeedLimit {
		config.MaxLimit = maxFeedLimit
	}
	if config.DefaultLimit <= 0 || config.DefaultLimit > config.MaxLimit {
		config.DefaultLimit = defaultFeedLimit
	}
	return &ActivityFeedService{
		repo:      repo,
		validator: validate,
		metrics:   metrics,
		logger:    logger,
		tracer:    otel.Tracer(tracerName),
		config:    config,
	}
}

// WithTracer replaces the tracer taken from the global provider.
func (s *ActivityFeedService) WithTracer(tracer trace.Tracer) *ActivityFeedService {
	s.tracer = tracer
	return s
}

// List returns one page of the target user's events. Every check runs before the store is touched.
func (s *ActivityFeedService) List(ctx context.Context, caller *models.JWTClaims, req dto.ActivityFeedRequest) (*dto.ActivityFeedResponse, error) {
	filter, err := s.buildFilter(caller, req)
	if err != nil {
		return nil, err
	}

	ctx, span := s.tracer.Start(ctx, "ActivityFeedService.List", trace.WithAttributes(
		attribute.String("activity.user_id", filter.UserID),
		attribute.Int("activity.limit", filter.Limit),
		attribute.Int("activity.offset", filter.Offset),
	))
	defer span.End()

	var (
		events []models.ActivityEvent
		total  int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		start := time.Now()
		var err error
		events, err = s.repo.ListByUser(gctx, filter)
		s.metrics.ObserveDBQuery("activity_page", time.Since(start))
		return err
	})
	g.Go(func() error {
		start := time.Now()
		var err error
		total, err = s.repo.CountByUser(gctx, filter)
		s.metrics.ObserveDBQuery("activity_count", time.Since(start))
		return err
	})
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list activity")
		s.logger.Error("activity feed query failed", zap.String("user_id", filter.UserID), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, appErrors.ErrInternal.Message)
	}

	if events == nil {
		events = []models.ActivityEvent{}
	}
	s.metrics.ObserveFeedPage(len(events))
	span.SetAttributes(attribute.Int("activity.total", total))

	return &dto.ActivityFeedResponse{
		Events: events,
		Meta: dto.FeedMeta{
			Limit:   filter.Limit,
			Offset:  filter.Offset,
			Total:   total,
			HasMore: filter.Offset < total && total-filter.Offset > filter.Limit,
		},
	}, nil
}

func (s *ActivityFeedService) buildFilter(caller *models.JWTClaims, req dto.ActivityFeedRequest) (models.ActivityFeedFilter, error) {
	if caller == nil || caller.UserID == "" {
		return models.ActivityFeedFilter{}, appErrors.Clone(appErrors.ErrUnauthorized, "Authentication required")
	}

	req.UserID = strings.ToLower(strings.TrimSpace(req.UserID))
	if req.UserID == "" {
		return models.ActivityFeedFilter{}, appErrors.Clone(appErrors.ErrValidation, "user_id query parameter is required")
	}
	if invalidFields(s.validator.Struct(req))["UserID"] {
		return models.ActivityFeedFilter{}, appErrors.Clone(appErrors.ErrValidation, "user_id must be a valid UUID")
	}
	if !strings.EqualFold(req.UserID, caller.UserID) && !caller.EffectiveRole().CanViewOtherFeeds() {
		return models.ActivityFeedFilter{}, appErrors.Clone(appErrors.ErrForbidden, "Cannot access another user's activity feed")
	}

	eventTypes, err := parseEventTypes(req.EventTypes)
	if err != nil {
		return models.ActivityFeedFilter{}, err
	}

	limit := s.config.DefaultLimit
	if req.Limit != nil {
		limit = clamp(*req.Limit, 1, s.config.MaxLimit)
	}
	offset := 0
	if req.Offset != nil && *req.Offset > 0 {
		offset = *req.Offset
	}

	return models.ActivityFeedFilter{
		UserID:     req.UserID,
		EventTypes: eventTypes,
		Limit:      limit,
		Offset:     offset,
	}, nil
}

// parseEventTypes splits a comma-separated list. Blank input means no filter.
func parseEventTypes(raw string) ([]models.EventType, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	types := make([]models.EventType, 0, len(parts))
	seen := make(map[models.EventType]struct{}, len(parts))
	for _, part := range parts {
		t := models.EventType(strings.TrimSpace(part))
		if !t.Valid() {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("Invalid event_type: %s", t))
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		types = append(types, t)
	}
	return types, nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
