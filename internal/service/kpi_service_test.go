package service

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/noah-isme/journey-analytics-api/internal/dto"
	"github.com/noah-isme/journey-analytics-api/internal/models"
	appErrors "github.com/noah-isme/journey-analytics-api/pkg/errors"
)

const (
	facultyID = "7f3c9a52-1b2d-4e8f-9a01-23456789abcd"
	otherID   = "0a1b2c3d-4e5f-6789-abcd-ef0123456789"
)

var fixedNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

type windowStats struct {
	generated, approved, reviewed int
	quality                       models.QualityScoreTotals
}

type fakeKPIRepo struct {
	mu          sync.Mutex
	currentFrom time.Time
	current     windowStats
	previous    windowStats
	err         error
	filters     []models.AssessmentItemFilter
}

func (f *fakeKPIRepo) stats(filter models.AssessmentItemFilter) windowStats {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.filters = append(f.filters, filter)
	if filter.From.Equal(f.currentFrom) {
		return f.current
	}
	return f.previous
}

func (f *fakeKPIRepo) CountItems(_ context.Context, filter models.AssessmentItemFilter) (int, error) {
	s := f.stats(filter)
	if f.err != nil {
		return 0, f.err
	}
	switch len(filter.Statuses) {
	case 0:
		return s.generated, nil
	case 1:
		return s.approved, nil
	default:
		return s.reviewed, nil
	}
}

func (f *fakeKPIRepo) QualityScoreTotals(_ context.Context, filter models.AssessmentItemFilter) (models.QualityScoreTotals, error) {
	s := f.stats(filter)
	return s.quality, nil
}

func (f *fakeKPIRepo) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.filters)
}

func newKPIService(repo *fakeKPIRepo, scopeRepo *stubScopeRepo) *KPIService {
	bounds, _ := CalculatePeriod(models.Period7Days, fixedNow)
	repo.currentFrom = bounds.CurrentStart
	svc := NewKPIService(repo, NewScopeResolver(scopeRepo, nil, 0, nil, nil), nil, NewMetricsService(), nil, KPIConfig{})
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func strPtr(v string) *string { return &v }

func facultyCaller() *models.JWTClaims {
	return &models.JWTClaims{UserID: facultyID, Role: models.RoleFaculty, InstitutionID: "inst-1"}
}

func metricByKey(t *testing.T, resp *dto.KpiResponse, key models.MetricKey) dto.MetricSample {
	t.Helper()
	for _, m := range resp.Metrics {
		if m.Key == key {
			return m
		}
	}
	t.Fatalf("metric %s missing", key)
	return dto.MetricSample{}
}

func TestKPIServiceCalculatePersonal(t *testing.T) {
	repo := &fakeKPIRepo{
		current:  windowStats{generated: 20, approved: 6, reviewed: 8, quality: models.QualityScoreTotals{Sum: 9, Count: 2}},
		previous: windowStats{generated: 10, quality: models.QualityScoreTotals{Sum: 4.5, Count: 1}},
	}
	svc := newKPIService(repo, &stubScopeRepo{})

	resp, err := svc.Calculate(context.Background(), facultyCaller(), dto.KpiRequest{Period: strPtr("7d")})
	require.NoError(t, err)

	assert.Equal(t, models.ScopePersonal, resp.Scope)
	assert.Equal(t, models.Period7Days, resp.Period)
	assert.Equal(t, "2026-03-08T12:00:00.000Z", resp.PeriodStart)
	assert.Equal(t, "2026-03-15T12:00:00.000Z", resp.PeriodEnd)

	require.Len(t, resp.Metrics, 4)
	keys := []models.MetricKey{resp.Metrics[0].Key, resp.Metrics[1].Key, resp.Metrics[2].Key, resp.Metrics[3].Key}
	assert.Equal(t, []models.MetricKey{models.MetricQuestionsGenerated, models.MetricApprovalRate, models.MetricCoverageScore, models.MetricTimeSaved}, keys)

	generated := metricByKey(t, resp, models.MetricQuestionsGenerated)
	assert.Equal(t, 20.0, generated.Value)
	assert.Equal(t, 10.0, generated.PreviousValue)
	assert.Equal(t, 100.0, generated.TrendPercent)
	assert.Equal(t, models.TrendUp, generated.TrendDirection)

	approval := metricByKey(t, resp, models.MetricApprovalRate)
	assert.Equal(t, 75.0, approval.Value)
	assert.Equal(t, 0.0, approval.PreviousValue)
	assert.Equal(t, "%", approval.Unit)

	quality := metricByKey(t, resp, models.MetricCoverageScore)
	assert.Equal(t, 4.5, quality.Value)
	assert.Equal(t, models.TrendFlat, quality.TrendDirection)

	saved := metricByKey(t, resp, models.MetricTimeSaved)
	assert.Equal(t, 15.0, saved.Value)
	assert.Equal(t, 7.5, saved.PreviousValue)
	assert.Equal(t, "hrs", saved.Unit)

	assert.Equal(t, 8, repo.calls())
	for _, f := range repo.filters {
		assert.Equal(t, facultyID, f.CreatedBy)
		assert.Empty(t, f.CourseIDs)
	}
}

func TestKPIServiceDefaultsToCallerAndSevenDays(t *testing.T) {
	repo := &fakeKPIRepo{}
	svc := newKPIService(repo, &stubScopeRepo{})

	resp, err := svc.Calculate(context.Background(), facultyCaller(), dto.KpiRequest{})
	require.NoError(t, err)
	assert.Equal(t, models.Period7Days, resp.Period)
	for _, m := range resp.Metrics {
		assert.Zero(t, m.Value)
		assert.Equal(t, models.TrendFlat, m.TrendDirection)
	}
}

func TestKPIServiceInstitutionWithoutProgramsReturnsZeros(t *testing.T) {
	repo := &fakeKPIRepo{}
	scopeRepo := &stubScopeRepo{}
	svc := newKPIService(repo, scopeRepo)
	caller := &models.JWTClaims{UserID: facultyID, Role: models.RoleInstitutionalAdmin, InstitutionID: "inst-1"}

	resp, err := svc.Calculate(context.Background(), caller, dto.KpiRequest{Period: strPtr("30d")})
	require.NoError(t, err)
	assert.Equal(t, models.ScopeInstitution, resp.Scope)
	require.Len(t, resp.Metrics, 4)
	for _, m := range resp.Metrics {
		assert.Zero(t, m.Value)
		assert.Zero(t, m.PreviousValue)
		assert.Zero(t, m.TrendPercent)
	}
	assert.Zero(t, repo.calls())
	assert.Zero(t, scopeRepo.coursesCalls)
}

func TestKPIServiceInstitutionFiltersByCourses(t *testing.T) {
	repo := &fakeKPIRepo{current: windowStats{generated: 3}}
	svc := newKPIService(repo, &stubScopeRepo{programs: []string{"p1"}, courses: []string{"c1", "c2"}})
	caller := &models.JWTClaims{UserID: facultyID, Role: models.RoleFaculty, IsCourseDirector: true, InstitutionID: "inst-1"}

	resp, err := svc.Calculate(context.Background(), caller, dto.KpiRequest{Period: strPtr("semester")})
	require.NoError(t, err)
	assert.Equal(t, models.ScopeInstitution, resp.Scope)
	assert.Equal(t, "2026-01-01T00:00:00.000Z", resp.PeriodStart)
	for _, f := range repo.filters {
		assert.Empty(t, f.CreatedBy)
		assert.Equal(t, []string{"c1", "c2"}, f.CourseIDs)
	}
}

func TestKPIServiceValidationAndAuthorization(t *testing.T) {
	cases := []struct {
		name    string
		caller  *models.JWTClaims
		req     dto.KpiRequest
		status  int
		code    string
		message string
	}{
		{"no caller", nil, dto.KpiRequest{}, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required"},
		{"malformed user id", facultyCaller(), dto.KpiRequest{UserID: strPtr("not-a-uuid")}, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid user_id format. Must be a valid UUID."},
		{"other user as faculty", facultyCaller(), dto.KpiRequest{UserID: strPtr(otherID)}, http.StatusForbidden, "FORBIDDEN", "You can only view your own KPIs"},
		{"unknown period", facultyCaller(), dto.KpiRequest{Period: strPtr("90d")}, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid period value. Must be one of: 7d, 30d, semester"},
		{"empty user id", facultyCaller(), dto.KpiRequest{UserID: strPtr("")}, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid user_id format. Must be a valid UUID."},
		{"empty period", facultyCaller(), dto.KpiRequest{Period: strPtr("")}, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid period value. Must be one of: 7d, 30d, semester"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := &fakeKPIRepo{}
			scopeRepo := &stubScopeRepo{}
			svc := newKPIService(repo, scopeRepo)

			_, err := svc.Calculate(context.Background(), tc.caller, tc.req)
			require.Error(t, err)
			var appErr *appErrors.Error
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, tc.status, appErr.Status)
			assert.Equal(t, tc.code, appErr.Code)
			assert.Equal(t, tc.message, appErr.Message)
			assert.Zero(t, repo.calls())
			assert.Zero(t, scopeRepo.programsCalls)
		})
	}
}

func TestKPIServiceUppercaseSelfIDIsAccepted(t *testing.T) {
	repo := &fakeKPIRepo{}
	svc := newKPIService(repo, &stubScopeRepo{})

	_, err := svc.Calculate(context.Background(), facultyCaller(), dto.KpiRequest{UserID: strPtr("7F3C9A52-1B2D-4E8F-9A01-23456789ABCD")})
	require.NoError(t, err)
}

func TestKPIServiceAdminMayViewOtherUser(t *testing.T) {
	repo := &fakeKPIRepo{}
	svc := newKPIService(repo, &stubScopeRepo{programs: []string{"p1"}, courses: []string{"c1"}})
	caller := &models.JWTClaims{UserID: facultyID, Role: models.RoleSuperAdmin, InstitutionID: "inst-1"}

	resp, err := svc.Calculate(context.Background(), caller, dto.KpiRequest{UserID: strPtr(otherID)})
	require.NoError(t, err)
	assert.Equal(t, models.ScopeInstitution, resp.Scope)
}

func TestKPIServiceStoreFailureAborts(t *testing.T) {
	repo := &fakeKPIRepo{err: errors.New("pq: connection refused")}
	svc := newKPIService(repo, &stubScopeRepo{})

	resp, err := svc.Calculate(context.Background(), facultyCaller(), dto.KpiRequest{})
	assert.Nil(t, resp)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "INTERNAL_ERROR", appErr.Code)
	assert.Equal(t, http.StatusInternalServerError, appErr.Status)
	assert.NotContains(t, appErr.Message, "connection refused")
}

func TestKPIServiceRecordsSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	svc := newKPIService(&fakeKPIRepo{}, &stubScopeRepo{}).WithTracer(provider.Tracer("test"))
	_, err := svc.Calculate(context.Background(), facultyCaller(), dto.KpiRequest{Period: strPtr("30d")})
	require.NoError(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "KPIService.Calculate", spans[0].Name())
	assert.Contains(t, spans[0].Attributes(), attribute.String("kpi.scope", "personal"))
	assert.Contains(t, spans[0].Attributes(), attribute.String("kpi.period", "30d"))

	failing := newKPIService(&fakeKPIRepo{err: errors.New("boom")}, &stubScopeRepo{}).WithTracer(provider.Tracer("test"))
	_, err = failing.Calculate(context.Background(), facultyCaller(), dto.KpiRequest{})
	require.Error(t, err)
	spans = recorder.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, codes.Error, spans[1].Status().Code)
}

func TestKPIServicePeriodBoundsUseMillisecondPrecision(t *testing.T) {
	svc := newKPIService(&fakeKPIRepo{}, &stubScopeRepo{})
	svc.now = func() time.Time { return time.Date(2026, 3, 15, 12, 0, 0, 123456789, time.UTC) }

	resp, err := svc.Calculate(context.Background(), facultyCaller(), dto.KpiRequest{})
	require.NoError(t, err)
	assert.Equal(t, "2026-03-08T12:00:00.123Z", resp.PeriodStart)
	assert.Equal(t, "2026-03-15T12:00:00.123Z", resp.PeriodEnd)
}
