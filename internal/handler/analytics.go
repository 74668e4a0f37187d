package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Al0olo/Fleet-Mangement-System-sub000/internal/model"
	"github.com/Al0olo/Fleet-Mangement-System-sub000/internal/service"
)

// AnalyticsHandler handles aggregation query requests
type AnalyticsHandler struct {
	analyticsService *service.AnalyticsService
	usageService     *service.UsageStatsService
}

// NewAnalyticsHandler creates a new analytics handler
func NewAnalyticsHandler(analyticsService *service.AnalyticsService, usageService *service.UsageStatsService) *AnalyticsHandler {
	return &AnalyticsHandler{
		analyticsService: analyticsService,
		usageService:     usageService,
	}
}

// parseWindow reads the start/end query parameters; end defaults to now,
// start to 30 days before end.
func parseWindow(c *gin.Context) (time.Time, time.Time, bool) {
	end := time.Now().UTC()
	start := end.AddDate(0, 0, -30)

	if raw := c.Query("start"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start time"})
			return start, end, false
		}
		start = parsed
	}
	if raw := c.Query("end"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end time"})
			return start, end, false
		}
		end = parsed
	}
	return start, end, true
}

// GetTrend returns a vehicle's metric trend rollup
// @Summary Get metric trend
// @Description Calendar-aligned trend rollup of one vehicle's metric observations
// @Tags Analytics
// @Produce json
// @Param id path string true "Vehicle ID"
// @Param metric_type query string true "Metric type"
// @Param interval query string false "Grouping interval (day, week, month)" default(day)
// @Param start query string false "Window start (RFC3339)"
// @Param end query string false "Window end (RFC3339)"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Router /vehicles/{id}/metrics/trend [get]
func (h *AnalyticsHandler) GetTrend(c *gin.Context) {
	vehicleID := c.Param("id")
	metricType := model.MetricType(c.Query("metric_type"))
	interval := model.TrendInterval(c.DefaultQuery("interval", "day"))

	start, end, ok := parseWindow(c)
	if !ok {
		return
	}

	trend, err := h.analyticsService.GetMetricsTrend(c.Request.Context(), vehicleID, metricType, start, end, interval)
	if err != nil {
		status := http.StatusInternalServerError
		if service.IsValidation(err) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": trend, "count": len(trend)})
}

// GetFleetStats returns fleet-wide statistics for a metric
// @Summary Get fleet statistics
// @Description Mean/min/max/population-stddev/count across all vehicles
// @Tags Analytics
// @Produce json
// @Param metric_type query string true "Metric type"
// @Param start query string false "Window start (RFC3339)"
// @Param end query string false "Window end (RFC3339)"
// @Success 200 {object} model.FleetStats
// @Failure 400 {object} map[string]string
// @Router /fleet/stats [get]
func (h *AnalyticsHandler) GetFleetStats(c *gin.Context) {
	metricType := model.MetricType(c.Query("metric_type"))

	start, end, ok := parseWindow(c)
	if !ok {
		return
	}

	stats, err := h.analyticsService.GetFleetStats(c.Request.Context(), metricType, start, end)
	if err != nil {
		status := http.StatusInternalServerError
		if service.IsValidation(err) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, stats)
}

// GetComparison compares one vehicle against the fleet
// @Summary Compare vehicle to fleet
// @Description Vehicle average vs fleet average with percentile rank
// @Tags Analytics
// @Produce json
// @Param id path string true "Vehicle ID"
// @Param metric_type query string true "Metric type"
// @Param start query string false "Window start (RFC3339)"
// @Param end query string false "Window end (RFC3339)"
// @Success 200 {object} model.VehicleComparison
// @Failure 400 {object} map[string]string
// @Router /vehicles/{id}/metrics/comparison [get]
func (h *AnalyticsHandler) GetComparison(c *gin.Context) {
	vehicleID := c.Param("id")
	metricType := model.MetricType(c.Query("metric_type"))

	start, end, ok := parseWindow(c)
	if !ok {
		return
	}

	comparison, err := h.analyticsService.CompareVehicleToFleet(c.Request.Context(), vehicleID, metricType, start, end)
	if err != nil {
		status := http.StatusInternalServerError
		if service.IsValidation(err) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, comparison)
}

// GetUsage returns a vehicle's hourly usage buckets
// @Summary Get usage history
// @Description Hourly usage buckets and summed totals for a vehicle
// @Tags Analytics
// @Produce json
// @Param id path string true "Vehicle ID"
// @Param start query string false "Window start (RFC3339)"
// @Param end query string false "Window end (RFC3339)"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Router /vehicles/{id}/usage [get]
func (h *AnalyticsHandler) GetUsage(c *gin.Context) {
	vehicleID := c.Param("id")

	start, end, ok := parseWindow(c)
	if !ok {
		return
	}

	buckets, err := h.usageService.GetUsage(c.Request.Context(), vehicleID, start, end)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	summary, err := h.usageService.GetUsageSummary(c.Request.Context(), vehicleID, start, end)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":    buckets,
		"summary": summary,
	})
}
