package service

import (
	"context"
	"errors"
	"math"
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

type fakeActivityRepo struct {
	mu       sync.Mutex
	events   []models.ActivityEvent
	total    int
	listErr  error
	countErr error
	calls    int
	last     models.ActivityFeedFilter
}

func (f *fakeActivityRepo) ListByUser(_ context.Context, filter models.ActivityFeedFilter) ([]models.ActivityEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.last = filter
	return f.events, f.listErr
}

func (f *fakeActivityRepo) CountByUser(_ context.Context, filter models.ActivityFeedFilter) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.total, f.countErr
}

func intPtr(v int) *int { return &v }

func newFeedService(repo *fakeActivityRepo) *ActivityFeedService {
	return NewActivityFeedService(repo, nil, NewMetricsService(), nil, ActivityFeedConfig{})
}

func TestActivityFeedServiceListDefaults(t *testing.T) {
	repo := &fakeActivityRepo{
		events: []models.ActivityEvent{{ID: "e1", UserID: facultyID, EventType: models.EventQuestionGenerated, CreatedAt: time.Now()}},
		total:  1,
	}
	svc := newFeedService(repo)

	resp, err := svc.List(context.Background(), facultyCaller(), dto.ActivityFeedRequest{UserID: facultyID})
	require.NoError(t, err)
	assert.Len(t, resp.Events, 1)
	assert.Equal(t, dto.FeedMeta{Limit: 20, Offset: 0, Total: 1, HasMore: false}, resp.Meta)
	assert.Equal(t, 2, repo.calls)
	assert.Nil(t, repo.last.EventTypes)
}

func TestActivityFeedServiceClampsPagination(t *testing.T) {
	cases := []struct {
		name   string
		limit  *int
		offset *int
		want   [2]int
	}{
		{"limit above max", intPtr(100), nil, [2]int{50, 0}},
		{"limit zero", intPtr(0), nil, [2]int{1, 0}},
		{"negative limit", intPtr(-5), nil, [2]int{1, 0}},
		{"negative offset", nil, intPtr(-3), [2]int{20, 0}},
		{"in range", intPtr(10), intPtr(40), [2]int{10, 40}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := &fakeActivityRepo{}
			svc := newFeedService(repo)

			resp, err := svc.List(context.Background(), facultyCaller(), dto.ActivityFeedRequest{UserID: facultyID, Limit: tc.limit, Offset: tc.offset})
			require.NoError(t, err)
			assert.Equal(t, tc.want[0], repo.last.Limit)
			assert.Equal(t, tc.want[1], repo.last.Offset)
			assert.Equal(t, tc.want[0], resp.Meta.Limit)
		})
	}
}

func TestActivityFeedServiceHasMore(t *testing.T) {
	cases := []struct {
		limit, offset, total int
		hasMore              bool
	}{
		{20, 20, 21, false},
		{20, 0, 21, true},
		{20, 0, 20, false},
		{5, 10, 16, true},
		{20, math.MaxInt, 0, false},
		{20, math.MaxInt, 5, false},
		{50, math.MaxInt - 10, math.MaxInt, false},
		{50, math.MaxInt - 100, math.MaxInt, true},
	}
	for _, tc := range cases {
		repo := &fakeActivityRepo{total: tc.total}
		resp, err := newFeedService(repo).List(context.Background(), facultyCaller(), dto.ActivityFeedRequest{
			UserID: facultyID,
			Limit:  intPtr(tc.limit),
			Offset: intPtr(tc.offset),
		})
		require.NoError(t, err)
		assert.Equal(t, tc.hasMore, resp.Meta.HasMore, "limit=%d offset=%d total=%d", tc.limit, tc.offset, tc.total)
	}
}

func TestActivityFeedServiceEmptyFeed(t *testing.T) {
	svc := newFeedService(&fakeActivityRepo{})

	resp, err := svc.List(context.Background(), facultyCaller(), dto.ActivityFeedRequest{UserID: facultyID})
	require.NoError(t, err)
	assert.NotNil(t, resp.Events)
	assert.Empty(t, resp.Events)
	assert.Zero(t, resp.Meta.Total)
	assert.False(t, resp.Meta.HasMore)
}

func TestActivityFeedServiceEventTypeFilter(t *testing.T) {
	repo := &fakeActivityRepo{}
	svc := newFeedService(repo)

	_, err := svc.List(context.Background(), facultyCaller(), dto.ActivityFeedRequest{
		UserID:     facultyID,
		EventTypes: "question_approved, question_rejected,question_approved",
	})
	require.NoError(t, err)
	assert.Equal(t, []models.EventType{models.EventQuestionApproved, models.EventQuestionRejected}, repo.last.EventTypes)
}

func TestActivityFeedServiceRejectsBeforeStore(t *testing.T) {
	cases := []struct {
		name    string
		caller  *models.JWTClaims
		req     dto.ActivityFeedRequest
		status  int
		message string
	}{
		{"no caller", nil, dto.ActivityFeedRequest{UserID: facultyID}, http.StatusUnauthorized, "Authentication required"},
		{"missing user id", facultyCaller(), dto.ActivityFeedRequest{}, http.StatusBadRequest, "user_id query parameter is required"},
		{"malformed user id", facultyCaller(), dto.ActivityFeedRequest{UserID: "abc"}, http.StatusBadRequest, "user_id must be a valid UUID"},
		{"other user", facultyCaller(), dto.ActivityFeedRequest{UserID: otherID}, http.StatusForbidden, "Cannot access another user's activity feed"},
		{"institutional admin other user", &models.JWTClaims{UserID: facultyID, Role: models.RoleInstitutionalAdmin}, dto.ActivityFeedRequest{UserID: otherID}, http.StatusForbidden, "Cannot access another user's activity feed"},
		{"unknown event type", facultyCaller(), dto.ActivityFeedRequest{UserID: facultyID, EventTypes: "question_generated,question_deleted"}, http.StatusBadRequest, "Invalid event_type: question_deleted"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := &fakeActivityRepo{}
			_, err := newFeedService(repo).List(context.Background(), tc.caller, tc.req)
			require.Error(t, err)
			var appErr *appErrors.Error
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, tc.status, appErr.Status)
			assert.Equal(t, tc.message, appErr.Message)
			assert.Zero(t, repo.calls)
		})
	}
}

func TestActivityFeedServiceSuperadminMayReadOthers(t *testing.T) {
	repo := &fakeActivityRepo{}
	caller := &models.JWTClaims{UserID: facultyID, Role: models.RoleSuperAdmin}

	_, err := newFeedService(repo).List(context.Background(), caller, dto.ActivityFeedRequest{UserID: otherID})
	require.NoError(t, err)
	assert.Equal(t, otherID, repo.last.UserID)
}

func TestActivityFeedServiceStoreFailure(t *testing.T) {
	repo := &fakeActivityRepo{countErr: errors.New("statement timeout")}

	resp, err := newFeedService(repo).List(context.Background(), facultyCaller(), dto.ActivityFeedRequest{UserID: facultyID})
	assert.Nil(t, resp)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "INTERNAL_ERROR", appErr.Code)
}

func TestActivityFeedServiceConfigBounds(t *testing.T) {
	svc := NewActivityFeedService(&fakeActivityRepo{}, nil, nil, nil, ActivityFeedConfig{DefaultLimit: 10, MaxLimit: 500})
	assert.Equal(t, 50, svc.config.MaxLimit)
	assert.Equal(t, 10, svc.config.DefaultLimit)
}

func TestActivityFeedServiceRecordsSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	svc := newFeedService(&fakeActivityRepo{total: 7}).WithTracer(provider.Tracer("test"))
	_, err := svc.List(context.Background(), facultyCaller(), dto.ActivityFeedRequest{UserID: facultyID, Limit: intPtr(5)})
	require.NoError(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "ActivityFeedService.List", spans[0].Name())
	assert.Contains(t, spans[0].Attributes(), attribute.Int("activity.limit", 5))
	assert.Contains(t, spans[0].Attributes(), attribute.Int("activity.total", 7))

	failing := newFeedService(&fakeActivityRepo{countErr: errors.New("timeout")}).WithTracer(provider.Tracer("test"))
	_, err = failing.List(context.Background(), facultyCaller(), dto.ActivityFeedRequest{UserID: facultyID})
	require.Error(t, err)
	spans = recorder.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, codes.Error, spans[1].Status().Code)

	_, err = failing.List(context.Background(), facultyCaller(), dto.ActivityFeedRequest{UserID: otherID})
	require.Error(t, err)
	assert.Len(t, recorder.Ended(), 2)
}
