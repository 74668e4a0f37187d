package model

import (
	"time"
)

// UsageStatsBucket 车辆小时级使用统计桶
//
// Exactly one bucket exists per (vehicle_id, window_start); window_end is
// always window_start + 1h. Updates are additive and go through the store's
// atomic increment, never a read-modify-write. Buckets are append-only
// history and are never deleted.
type UsageStatsBucket struct {
	ID               int64     `json:"id" gorm:"primaryKey"`
	VehicleID        string    `json:"vehicle_id" gorm:"column:vehicle_id;type:varchar(64);not null;uniqueIndex:idx_vehicle_window"`
	WindowStart      time.Time `json:"window_start" gorm:"column:window_start;not null;uniqueIndex:idx_vehicle_window"`
	WindowEnd        time.Time `json:"window_end" gorm:"column:window_end;not null"`
	HoursOperated    float64   `json:"hours_operated" gorm:"column:hours_operated;not null;default:0"`
	DistanceTraveled float64   `json:"distance_traveled" gorm:"column:distance_traveled;not null;default:0"`
	FuelConsumed     float64   `json:"fuel_consumed" gorm:"column:fuel_consumed;not null;default:0"`
	IdleTime         float64   `json:"idle_time" gorm:"column:idle_time;not null;default:0"`
	Efficiency       *float64  `json:"efficiency,omitempty" gorm:"column:efficiency"`
	CreatedAt        time.Time `json:"created_at" gorm:"not null;default:now()"`
	UpdatedAt        time.Time `json:"updated_at" gorm:"not null;default:now()"`
}

func (UsageStatsBucket) TableName() string {
	return "usage_stats_buckets"
}

// UsageDelta 单条传感器读数携带的增量
type UsageDelta struct {
	HoursOperated    *float64 `json:"hours_operated,omitempty"`
	DistanceTraveled *float64 `json:"distance_traveled,omitempty"`
	FuelConsumed     *float64 `json:"fuel_consumed,omitempty"`
	IdleTime         *float64 `json:"idle_time,omitempty"`
}

// IsZero reports whether the delta carries no fields at all.
func (d UsageDelta) IsZero() bool {
	return d.HoursOperated == nil && d.DistanceTraveled == nil &&
		d.FuelConsumed == nil && d.IdleTime == nil
}

// UsageSummary 区间内使用统计汇总
type UsageSummary struct {
	VehicleID        string   `json:"vehicle_id"`
	HoursOperated    float64  `json:"hours_operated"`
	DistanceTraveled float64  `json:"distance_traveled"`
	FuelConsumed     float64  `json:"fuel_consumed"`
	IdleTime         float64  `json:"idle_time"`
	Efficiency       *float64 `json:"efficiency,omitempty"`
	BucketCount      int64    `json:"bucket_count"`
}
