package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/journey-analytics-api/internal/dto"
	"github.com/noah-isme/journey-analytics-api/internal/middleware"
	"github.com/noah-isme/journey-analytics-api/internal/models"
	appErrors "github.com/noah-isme/journey-analytics-api/pkg/errors"
	"github.com/noah-isme/journey-analytics-api/pkg/response"
)

type kpiService interface {
	Calculate(ctx context.Context, caller *models.JWTClaims, req dto.KpiRequest) (*dto.KpiResponse, error)
}

// KPIHandler serves the dashboard KPI strip.
type KPIHandler struct {
	service kpiService
}

// NewKPIHandler constructs the handler.
func NewKPIHandler(service kpiService) *KPIHandler {
	return &KPIHandler{service: service}
}

// Get godoc
// @Summary Dashboard KPI strip
// @Description Four headline metrics for the current window with trends against the previous window.
// @Tags Dashboard
// @Produce json
// @Security BearerAuth
// @Param user_id query string false "Target user (UUID). Defaults to the caller"
// @Param period query string false "7d, 30d or semester. Defaults to 7d"
// @Success 200 {object} response.Envelope{data=dto.KpiResponse}
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 500 {object} response.Envelope
// @Router /dashboard/kpis [get]
func (h *KPIHandler) Get(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	caller := middleware.ClaimsFromContext(c)
	if caller == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "Authentication required"))
		return
	}

	start := time.Now()
	kpis, err := h.service.Calculate(c.Request.Context(), caller, dto.KpiRequest{
		UserID: optionalQuery(c, "user_id"),
		Period: optionalQuery(c, "period"),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, kpis, middleware.ResponseMeta(c, start))
}

func optionalQuery(c *gin.Context, name string) *string {
	if v, ok := c.GetQuery(name); ok {
		return &v
	}
	return nil
}
