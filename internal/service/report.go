// 报表编译服务

package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/xuri/excelize/v2"

	"github.com/Al0olo/Fleet-Mangement-System-sub000/internal/model"
)

// SubjectReportGenerated is published after every persisted report.
const SubjectReportGenerated = "fleet.reports.generated"

// ReportService 报表服务
//
// Generation walks Requested -> Gathering -> Compiling -> Persisted.
// Gathering fans out to the aggregation engine and the vehicle registry in
// parallel; registry failures degrade to a placeholder instead of aborting.
// Compiling is a pure merge that treats empty aggregates as zeros.
type ReportService struct {
	usage     *UsageStatsService
	analytics *AnalyticsService
	reports   ReportStore
	registry  VehicleRegistry
	nats      *nats.Conn
}

// NewReportService creates the report compiler. registry and natsConn may
// be nil; enrichment and publication are then skipped.
func NewReportService(usage *UsageStatsService, analytics *AnalyticsService, reports ReportStore, registry VehicleRegistry, natsConn *nats.Conn) *ReportService {
	return &ReportService{
		usage:     usage,
		analytics: analytics,
		reports:   reports,
		registry:  registry,
		nats:      natsConn,
	}
}

// reportMetrics selects which metric types a report type covers.
func reportMetrics(reportType model.ReportType) []model.MetricType {
	switch reportType {
	case model.ReportUtilization:
		return []model.MetricType{model.MetricUtilization, model.MetricEngineHours}
	case model.ReportCost:
		return []model.MetricType{model.MetricCostPerHour, model.MetricCostPerKm}
	case model.ReportMaintenance:
		return []model.MetricType{model.MetricMaintenanceFrequency}
	default:
		return model.AllMetricTypes()
	}
}

// gathered holds everything fetched during the Gathering phase.
type gathered struct {
	mu          sync.Mutex
	vehicle     *model.VehicleSummary
	fleetCounts *model.FleetCounts
	usage       *model.UsageSummary
	trends      map[model.MetricType][]model.TrendPoint
	comparisons map[model.MetricType]*model.VehicleComparison
	fleetStats  map[model.MetricType]*model.FleetStats
	errs        []error
}

func (g *gathered) fail(err error) {
	g.mu.Lock()
	g.errs = append(g.errs, err)
	g.mu.Unlock()
}

// GenerateReport gathers aggregates and metadata, compiles them into an
// immutable snapshot and persists it. Regenerating the same window always
// inserts a new report with a fresh GeneratedAt.
func (s *ReportService) GenerateReport(ctx context.Context, req *model.GenerateReportRequest) (*model.AnalyticsReport, error) {
	if !req.ReportType.Valid() {
		return nil, &ValidationError{Field: "report_type", Reason: fmt.Sprintf("unrecognized type %q", req.ReportType)}
	}
	if !req.Period.Valid() {
		return nil, &ValidationError{Field: "period", Reason: fmt.Sprintf("unrecognized period %q", req.Period)}
	}
	if !req.WindowEnd.After(req.WindowStart) {
		return nil, &ValidationError{Field: "window", Reason: "window_end must be after window_start"}
	}
	if req.ReportType == model.ReportVehicle && (req.VehicleID == nil || *req.VehicleID == "") {
		return nil, &ValidationError{Field: "vehicle_id", Reason: "required for vehicle reports"}
	}

	data, err := s.gatherAndCompile(ctx, req)
	if err != nil {
		return nil, err
	}

	report := &model.AnalyticsReport{
		ID:          uuid.NewString(),
		ReportType:  req.ReportType,
		Period:      req.Period,
		WindowStart: req.WindowStart,
		WindowEnd:   req.WindowEnd,
		VehicleID:   req.VehicleID,
		Data:        data,
		GeneratedAt: time.Now().UTC(),
	}
	if err := s.reports.Create(ctx, report); err != nil {
		return nil, err
	}

	s.publishGenerated(report)
	return report, nil
}

func (s *ReportService) gatherAndCompile(ctx context.Context, req *model.GenerateReportRequest) (json.RawMessage, error) {
	metrics := reportMetrics(req.ReportType)
	interval := req.Period.TrendIntervalFor()

	g := &gathered{
		trends:      make(map[model.MetricType][]model.TrendPoint),
		comparisons: make(map[model.MetricType]*model.VehicleComparison),
		fleetStats:  make(map[model.MetricType]*model.FleetStats),
	}

	var wg sync.WaitGroup

	if req.VehicleID != nil && *req.VehicleID != "" {
		vehicleID := *req.VehicleID

		wg.Add(1)
		go func() {
			defer wg.Done()
			g.vehicle = s.lookupVehicle(ctx, vehicleID)
		}()

		wg.Add(1)
		go func() {
			defer wg.Done()
			summary, err := s.usage.GetUsageSummary(ctx, vehicleID, req.WindowStart, req.WindowEnd)
			if err != nil {
				g.fail(fmt.Errorf("usage summary: %w", err))
				return
			}
			g.usage = summary
		}()

		for _, metric := range metrics {
			wg.Add(1)
			go func(metric model.MetricType) {
				defer wg.Done()
				trend, err := s.analytics.GetMetricsTrend(ctx, vehicleID, metric, req.WindowStart, req.WindowEnd, interval)
				if err != nil {
					g.fail(fmt.Errorf("trend %s: %w", metric, err))
					return
				}
				cmp, err := s.analytics.CompareVehicleToFleet(ctx, vehicleID, metric, req.WindowStart, req.WindowEnd)
				if err != nil {
					g.fail(fmt.Errorf("comparison %s: %w", metric, err))
					return
				}
				g.mu.Lock()
				g.trends[metric] = trend
				g.comparisons[metric] = cmp
				g.mu.Unlock()
			}(metric)
		}
	} else {
		wg.Add(1)
		go func() {
			defer wg.Done()
			g.fleetCounts = s.lookupFleetCounts(ctx)
		}()

		for _, metric := range metrics {
			wg.Add(1)
			go func(metric model.MetricType) {
				defer wg.Done()
				stats, err := s.analytics.GetFleetStats(ctx, metric, req.WindowStart, req.WindowEnd)
				if err != nil {
					g.fail(fmt.Errorf("fleet stats %s: %w", metric, err))
					return
				}
				g.mu.Lock()
				g.fleetStats[metric] = stats
				g.mu.Unlock()
			}(metric)
		}
	}

	wg.Wait()

	if len(g.errs) > 0 {
		// Aggregation errors are storage errors; the caller retries.
		return nil, g.errs[0]
	}

	return compile(req, g)
}

// compile is the pure merge of gathered results into the report payload.
func compile(req *model.GenerateReportRequest, g *gathered) (json.RawMessage, error) {
	data := map[string]interface{}{
		"report_type":  req.ReportType,
		"period":       req.Period,
		"window_start": req.WindowStart,
		"window_end":   req.WindowEnd,
	}

	if req.VehicleID != nil && *req.VehicleID != "" {
		data["vehicle"] = g.vehicle
		data["usage"] = g.usage
		data["trends"] = g.trends
		data["comparisons"] = g.comparisons
	} else {
		data["fleet_counts"] = g.fleetCounts
		data["metrics"] = g.fleetStats
	}

	return json.Marshal(data)
}

// lookupVehicle fetches registry metadata, substituting a minimal
// placeholder on any failure. Report availability beats enrichment.
func (s *ReportService) lookupVehicle(ctx context.Context, vehicleID string) *model.VehicleSummary {
	if s.registry == nil {
		return model.Placeholder(vehicleID)
	}
	vehicle, err := s.registry.GetVehicle(ctx, vehicleID)
	if err != nil {
		log.Printf("[Report] Registry lookup failed for vehicle %s, using placeholder: %v", vehicleID, err)
		return model.Placeholder(vehicleID)
	}
	return vehicle
}

func (s *ReportService) lookupFleetCounts(ctx context.Context) *model.FleetCounts {
	if s.registry == nil {
		return &model.FleetCounts{}
	}
	counts, err := s.registry.GetFleetCounts(ctx)
	if err != nil {
		log.Printf("[Report] Registry fleet counts failed, continuing without: %v", err)
		return &model.FleetCounts{}
	}
	return counts
}

func (s *ReportService) publishGenerated(report *model.AnalyticsReport) {
	if s.nats == nil {
		return
	}
	payload, err := json.Marshal(map[string]interface{}{
		"id":           report.ID,
		"report_type":  report.ReportType,
		"period":       report.Period,
		"vehicle_id":   report.VehicleID,
		"generated_at": report.GeneratedAt,
	})
	if err != nil {
		log.Printf("[Report] Failed to marshal report event: %v", err)
		return
	}
	if err := s.nats.Publish(SubjectReportGenerated, payload); err != nil {
		log.Printf("[Report] Failed to publish report event: %v", err)
	}
}

// ListReports returns reports for (reportType, period) ordered by
// window_end descending, optionally filtered by vehicle.
func (s *ReportService) ListReports(ctx context.Context, reportType model.ReportType, period model.ReportPeriod, vehicleID *string, limit int) ([]model.AnalyticsReport, error) {
	if !reportType.Valid() {
		return nil, &ValidationError{Field: "report_type", Reason: fmt.Sprintf("unrecognized type %q", reportType)}
	}
	if !period.Valid() {
		return nil, &ValidationError{Field: "period", Reason: fmt.Sprintf("unrecognized period %q", period)}
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.reports.List(ctx, reportType, period, vehicleID, limit)
}

// GetReport fetches one report snapshot by id.
func (s *ReportService) GetReport(ctx context.Context, id string) (*model.AnalyticsReport, error) {
	report, err := s.reports.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if report == nil {
		return nil, ErrReportNotFound
	}
	return report, nil
}

// ExportReportXLSX renders a persisted report snapshot as an Excel
// workbook for download.
func (s *ReportService) ExportReportXLSX(ctx context.Context, id string) ([]byte, error) {
	report, err := s.GetReport(ctx, id)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Report"
	f.SetSheetName("Sheet1", sheet)

	rows := [][]interface{}{
		{"Report ID", report.ID},
		{"Type", string(report.ReportType)},
		{"Period", string(report.Period)},
		{"Window Start", report.WindowStart.Format(time.RFC3339)},
		{"Window End", report.WindowEnd.Format(time.RFC3339)},
		{"Generated At", report.GeneratedAt.Format(time.RFC3339)},
	}
	if report.VehicleID != nil {
		rows = append(rows, []interface{}{"Vehicle ID", *report.VehicleID})
	}

	var data map[string]json.RawMessage
	if err := json.Unmarshal(report.Data, &data); err != nil {
		return nil, fmt.Errorf("decode report data: %w", err)
	}
	keys := make([]string, 0, len(data))
	for key := range data {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	rows = append(rows, []interface{}{})
	for _, key := range keys {
		rows = append(rows, []interface{}{key, string(data[key])})
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
