package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Al0olo/Fleet-Mangement-System-sub000/internal/model"
	"github.com/Al0olo/Fleet-Mangement-System-sub000/internal/service"
)

// ReportHandler handles report requests
type ReportHandler struct {
	reportService *service.ReportService
}

// NewReportHandler creates a new report handler
func NewReportHandler(reportService *service.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// Generate creates a new report snapshot
// @Summary Generate report
// @Description Compile and persist an immutable analytics report snapshot
// @Tags Reports
// @Accept json
// @Produce json
// @Param request body model.GenerateReportRequest true "Report request"
// @Success 201 {object} model.AnalyticsReport
// @Failure 400 {object} map[string]string
// @Router /reports [post]
func (h *ReportHandler) Generate(c *gin.Context) {
	var req model.GenerateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	report, err := h.reportService.GenerateReport(c.Request.Context(), &req)
	if err != nil {
		status := http.StatusInternalServerError
		if service.IsValidation(err) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, report)
}

// List returns report snapshots, newest window first
// @Summary List reports
// @Description List reports by type and period, ordered by window end descending
// @Tags Reports
// @Produce json
// @Param report_type query string true "Report type"
// @Param period query string true "Report period"
// @Param vehicle_id query string false "Vehicle ID filter"
// @Param limit query int false "Limit" default(20)
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Router /reports [get]
func (h *ReportHandler) List(c *gin.Context) {
	reportType := model.ReportType(c.Query("report_type"))
	period := model.ReportPeriod(c.Query("period"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	var vehicleID *string
	if raw := c.Query("vehicle_id"); raw != "" {
		vehicleID = &raw
	}

	reports, err := h.reportService.ListReports(c.Request.Context(), reportType, period, vehicleID, limit)
	if err != nil {
		status := http.StatusInternalServerError
		if service.IsValidation(err) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": reports, "count": len(reports)})
}

// Get returns one report snapshot
// @Summary Get report
// @Description Fetch one report snapshot by id
// @Tags Reports
// @Produce json
// @Param id path string true "Report ID"
// @Success 200 {object} model.AnalyticsReport
// @Failure 404 {object} map[string]string
// @Router /reports/{id} [get]
func (h *ReportHandler) Get(c *gin.Context) {
	report, err := h.reportService.GetReport(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrReportNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "report not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, report)
}

// Export downloads a report as an Excel workbook
// @Summary Export report
// @Description Render a report snapshot as an XLSX download
// @Tags Reports
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param id path string true "Report ID"
// @Success 200 {file} binary
// @Failure 404 {object} map[string]string
// @Router /reports/{id}/export [get]
func (h *ReportHandler) Export(c *gin.Context) {
	id := c.Param("id")
	content, err := h.reportService.ExportReportXLSX(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrReportNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "report not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=report_%s.xlsx", id))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", content)
}
