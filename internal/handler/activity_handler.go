package handler

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/journey-analytics-api/internal/dto"
	"github.com/noah-isme/journey-analytics-api/internal/middleware"
	"github.com/noah-isme/journey-analytics-api/internal/models"
	appErrors "github.com/noah-isme/journey-analytics-api/pkg/errors"
	"github.com/noah-isme/journey-analytics-api/pkg/response"
)

type activityFeedService interface {
	List(ctx context.Context, caller *models.JWTClaims, req dto.ActivityFeedRequest) (*dto.ActivityFeedResponse, error)
}

// ActivityHandler serves the activity feed.
type ActivityHandler struct {
	service activityFeedService
}

// NewActivityHandler constructs the handler.
func NewActivityHandler(service activityFeedService) *ActivityHandler {
	return &ActivityHandler{service: service}
}

// List godoc
// @Summary Activity feed
// @Description Paginated activity events for a user, newest first.
// @Tags Activity
// @Produce json
// @Security BearerAuth
// @Param user_id query string true "Target user (UUID)"
// @Param event_types query string false "Comma-separated event types"
// @Param limit query int false "Page size, clamped to 1..50. Defaults to 20"
// @Param offset query int false "Rows to skip. Defaults to 0"
// @Success 200 {object} response.Envelope{data=dto.ActivityFeedResponse}
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 500 {object} response.Envelope
// @Router /activity [get]
func (h *ActivityHandler) List(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	caller := middleware.ClaimsFromContext(c)
	if caller == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "Authentication required"))
		return
	}

	limit, err := optionalInt(c, "limit")
	if err != nil {
		response.Error(c, err)
		return
	}
	offset, err := optionalInt(c, "offset")
	if err != nil {
		response.Error(c, err)
		return
	}

	start := time.Now()
	feed, err := h.service.List(c.Request.Context(), caller, dto.ActivityFeedRequest{
		UserID:     c.Query("user_id"),
		EventTypes: c.Query("event_types"),
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, feed, middleware.ResponseMeta(c, start))
}

func optionalInt(c *gin.Context, name string) (*int, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, name+" must be an integer")
	}
	return &v, nil
}
