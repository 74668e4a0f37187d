package model

import (
	"encoding/json"
	"time"
)

// ReportType 报表类型
type ReportType string

const (
	ReportFleet       ReportType = "fleet"
	ReportVehicle     ReportType = "vehicle"
	ReportUtilization ReportType = "utilization"
	ReportCost        ReportType = "cost"
	ReportMaintenance ReportType = "maintenance"
)

// Valid reports whether t is a recognized report type.
func (t ReportType) Valid() bool {
	switch t {
	case ReportFleet, ReportVehicle, ReportUtilization, ReportCost, ReportMaintenance:
		return true
	}
	return false
}

// ReportPeriod 报表周期
type ReportPeriod string

const (
	PeriodDaily     ReportPeriod = "daily"
	PeriodWeekly    ReportPeriod = "weekly"
	PeriodMonthly   ReportPeriod = "monthly"
	PeriodQuarterly ReportPeriod = "quarterly"
	PeriodYearly    ReportPeriod = "yearly"
	PeriodCustom    ReportPeriod = "custom"
)

// Valid reports whether p is a recognized report period.
func (p ReportPeriod) Valid() bool {
	switch p {
	case PeriodDaily, PeriodWeekly, PeriodMonthly, PeriodQuarterly, PeriodYearly, PeriodCustom:
		return true
	}
	return false
}

// TrendIntervalFor maps a report period to the trend grouping used inside
// the compiled report.
func (p ReportPeriod) TrendIntervalFor() TrendInterval {
	switch p {
	case PeriodWeekly:
		return IntervalWeek
	case PeriodMonthly, PeriodQuarterly, PeriodYearly:
		return IntervalMonth
	default:
		return IntervalDay
	}
}

// AnalyticsReport 报表快照
//
// A report's data is never edited after it is persisted; regenerating the
// same (type, period, window) inserts a new row with a fresh GeneratedAt.
type AnalyticsReport struct {
	ID          string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	ReportType  ReportType      `json:"report_type" gorm:"column:report_type;type:varchar(20);not null;index:idx_report_lookup,priority:1"`
	Period      ReportPeriod    `json:"period" gorm:"type:varchar(20);not null;index:idx_report_lookup,priority:2"`
	WindowStart time.Time       `json:"window_start" gorm:"column:window_start;not null"`
	WindowEnd   time.Time       `json:"window_end" gorm:"column:window_end;not null;index:idx_report_lookup,priority:3,sort:desc"`
	VehicleID   *string         `json:"vehicle_id,omitempty" gorm:"column:vehicle_id;type:varchar(64);index"`
	Data        json.RawMessage `json:"data" gorm:"type:jsonb;not null"`
	GeneratedAt time.Time       `json:"generated_at" gorm:"column:generated_at;not null"`
}

func (AnalyticsReport) TableName() string {
	return "analytics_reports"
}

// GenerateReportRequest 生成报表请求
type GenerateReportRequest struct {
	ReportType  ReportType   `json:"report_type" binding:"required"`
	Period      ReportPeriod `json:"period" binding:"required"`
	WindowStart time.Time    `json:"window_start" binding:"required"`
	WindowEnd   time.Time    `json:"window_end" binding:"required"`
	VehicleID   *string      `json:"vehicle_id,omitempty"`
}
