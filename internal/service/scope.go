package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/journey-analytics-api/internal/models"
)

type scopeRepository interface {
	ProgramIDsByInstitution(ctx context.Context, institutionID string) ([]string, error)
	CourseIDsByPrograms(ctx context.Context, programIDs []string) ([]string, error)
}

// ScopeResolver decides whether a caller sees personal or institution-wide metrics and,
// for institution scope, expands the institution into its course ids.
type ScopeResolver struct {
	repo     scopeRepository
	cache    *CacheService
	cacheTTL time.Duration
	metrics  *MetricsService
	logger   *zap.Logger
}

// NewScopeResolver constructs a resolver. cache may be nil.
func NewScopeResolver(repo scopeRepository, cache *CacheService, cacheTTL time.Duration, metrics *MetricsService, logger *zap.Logger) *ScopeResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScopeResolver{repo: repo, cache: cache, cacheTTL: cacheTTL, metrics: metrics, logger: logger}
}

// KindFor is personal only for faculty who do not direct a course.
func KindFor(role models.UserRole, isCourseDirector bool) models.ScopeKind {
	if role == models.RoleFaculty && !isCourseDirector {
		return models.ScopePersonal
	}
	return models.ScopeInstitution
}

// Resolve builds the record filter for a KPI request about targetUserID made by caller.
func (r *ScopeResolver) Resolve(ctx context.Context, caller *models.JWTClaims, targetUserID string) (models.Scope, error) {
	kind := KindFor(caller.EffectiveRole(), caller.IsCourseDirector)
	if kind == models.ScopePersonal {
		return models.Scope{Kind: kind, CreatorID: targetUserID}, nil
	}

	courseIDs, err := r.courseIDs(ctx, caller.InstitutionID)
	if err != nil {
		return models.Scope{}, err
	}
	return models.Scope{Kind: kind, CourseIDs: courseIDs, Empty: len(courseIDs) == 0}, nil
}

func (r *ScopeResolver) courseIDs(ctx context.Context, institutionID string) ([]string, error) {
	key := "kpi:scope:" + institutionID
	var cached []string
	if hit, err := r.cache.Get(ctx, key, &cached); err == nil && hit {
		return cached, nil
	}

	start := time.Now()
	programIDs, err := r.repo.ProgramIDsByInstitution(ctx, institutionID)
	r.metrics.ObserveDBQuery("kpi_programs", time.Since(start))
	if err != nil {
		return nil, err
	}

	var courseIDs []string
	if len(programIDs) > 0 {
		start = time.Now()
		courseIDs, err = r.repo.CourseIDsByPrograms(ctx, programIDs)
		r.metrics.ObserveDBQuery("kpi_courses", time.Since(start))
		if err != nil {
			return nil, err
		}
	} else {
		r.logger.Debug("institution has no programs", zap.String("institution_id", institutionID))
	}

	if courseIDs == nil {
		courseIDs = []string{}
	}
	if err := r.cache.Set(ctx, key, courseIDs, r.cacheTTL); err != nil {
		r.logger.Debug("scope cache not populated", zap.String("institution_id", institutionID), zap.Error(err))
	}
	return courseIDs, nil
}
