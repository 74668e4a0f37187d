package model

import (
	"time"
)

// MetricType 指标类型
type MetricType string

const (
	MetricFuelEfficiency       MetricType = "fuel_efficiency"
	MetricUtilization          MetricType = "utilization"
	MetricCostPerHour          MetricType = "cost_per_hour"
	MetricCostPerKm            MetricType = "cost_per_km"
	MetricMaintenanceFrequency MetricType = "maintenance_frequency"
	MetricEngineHours          MetricType = "engine_hours"
)

var metricTypes = map[MetricType]struct{}{
	MetricFuelEfficiency:       {},
	MetricUtilization:          {},
	MetricCostPerHour:          {},
	MetricCostPerKm:            {},
	MetricMaintenanceFrequency: {},
	MetricEngineHours:          {},
}

// Valid reports whether m is a recognized metric type.
func (m MetricType) Valid() bool {
	_, ok := metricTypes[m]
	return ok
}

// AllMetricTypes returns the recognized metric types in a stable order.
func AllMetricTypes() []MetricType {
	return []MetricType{
		MetricFuelEfficiency,
		MetricUtilization,
		MetricCostPerHour,
		MetricCostPerKm,
		MetricMaintenanceFrequency,
		MetricEngineHours,
	}
}

// MetricObservation 不可变指标观测点
//
// Observations are never updated or deleted. Multiple rows for the same
// (vehicle_id, metric_type, timestamp) are independent samples, not upserts.
type MetricObservation struct {
	ID         int64      `json:"id" gorm:"primaryKey"`
	VehicleID  string     `json:"vehicle_id" gorm:"column:vehicle_id;type:varchar(64);not null;index:idx_metric_vehicle_ts,priority:1"`
	MetricType MetricType `json:"metric_type" gorm:"column:metric_type;type:varchar(32);not null;index:idx_metric_vehicle_ts,priority:2"`
	Timestamp  time.Time  `json:"timestamp" gorm:"not null;index:idx_metric_vehicle_ts,priority:3;index:idx_metric_ts"`
	Value      float64    `json:"value" gorm:"not null"`
	Unit       string     `json:"unit,omitempty" gorm:"type:varchar(20)"`
	CreatedAt  time.Time  `json:"created_at" gorm:"not null;default:now()"`
}

func (MetricObservation) TableName() string {
	return "metric_observations"
}

// TrendInterval 趋势分组粒度
type TrendInterval string

const (
	IntervalDay   TrendInterval = "day"
	IntervalWeek  TrendInterval = "week"
	IntervalMonth TrendInterval = "month"
)

// Valid reports whether i is a supported trend interval.
func (i TrendInterval) Valid() bool {
	return i == IntervalDay || i == IntervalWeek || i == IntervalMonth
}

// TrendPoint is one calendar-aligned rollup of a vehicle's observations.
// Change is the delta against the previous period's average (0 for the
// first period); Trend is up/down/stable around a ±0.01 noise threshold.
type TrendPoint struct {
	Period         string    `json:"period"`
	AvgValue       float64   `json:"avg_value"`
	MinValue       float64   `json:"min_value"`
	MaxValue       float64   `json:"max_value"`
	Count          int64     `json:"count"`
	FirstTimestamp time.Time `json:"first_timestamp"`
	Change         float64   `json:"change"`
	Trend          string    `json:"trend"` // up, down, stable
}

// FleetStats 全车队统计汇总
type FleetStats struct {
	AvgValue float64 `json:"avg_value"`
	MinValue float64 `json:"min_value"`
	MaxValue float64 `json:"max_value"`
	StdDev   float64 `json:"std_dev"`
	Count    int64   `json:"count"`
}

// VehicleComparison 单车与车队对比
type VehicleComparison struct {
	VehicleID         string     `json:"vehicle_id"`
	MetricType        MetricType `json:"metric_type"`
	VehicleAvg        float64    `json:"vehicle_avg"`
	FleetAvg          float64    `json:"fleet_avg"`
	Difference        float64    `json:"difference"`
	PercentDifference float64    `json:"percent_difference"`
	PercentileRank    float64    `json:"percentile_rank"`
}
