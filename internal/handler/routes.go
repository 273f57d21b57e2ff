package handler

import (
	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/journey-analytics-api/pkg/errors"
	"github.com/noah-isme/journey-analytics-api/pkg/response"
)

// RegisterDashboardRoutes mounts the KPI strip and activity feed on an authenticated group.
// Any authenticated role may call either endpoint; cross-user access is decided by the services.
func RegisterDashboardRoutes(api *gin.RouterGroup, kpi *KPIHandler, activity *ActivityHandler) {
	api.GET("/dashboard/kpis", kpi.Get)
	api.GET("/activity", activity.List)
}

// NotFound answers unmatched routes with the standard envelope.
func NotFound(c *gin.Context) {
	response.Error(c, appErrors.ErrNotFound)
}
