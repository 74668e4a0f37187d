package model

import (
	"encoding/json"
	"time"
)

// Kafka topics consumed by the analytics pipeline
const (
	TopicVehicleEvents     = "vehicle-events"
	TopicVehicleStatus     = "vehicle-status"
	TopicVehicleLocation   = "vehicle-location"
	TopicSensorData        = "sensor-data"
	TopicMaintenanceEvents = "maintenance-events"
)

// EventKind 事件分类
type EventKind string

const (
	EventVehicleLifecycle EventKind = "vehicle-lifecycle"
	EventLocation         EventKind = "location"
	EventSensorReading    EventKind = "sensor-reading"
	EventMaintenance      EventKind = "maintenance"
)

// Event is the classified form of a raw stream envelope. The payload is
// left opaque here; schema validation happens in the stage that consumes it.
type Event struct {
	Kind    EventKind       `json:"kind"`
	Topic   string          `json:"topic"`
	Payload json.RawMessage `json:"payload"`
}

// LifecyclePayload 车辆生命周期/状态事件
type LifecyclePayload struct {
	VehicleID string                 `json:"vehicle_id"`
	EventType string                 `json:"event_type"` // registered, activated, deactivated, status-changed
	Status    string                 `json:"status,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Details   map[string]interface{} `json:"details,omitempty"`
}

// LocationPayload 位置上报
type LocationPayload struct {
	VehicleID string    `json:"vehicle_id"`
	Timestamp time.Time `json:"timestamp"`
	Lat       float64   `json:"lat"`
	Lon       float64   `json:"lon"`
	SpeedKmh  float64   `json:"speed_kmh,omitempty"`
	Heading   float64   `json:"heading,omitempty"`
}

// SensorReadingPayload 传感器读数
//
// Seq is an optional producer-assigned, per-vehicle monotonic sequence
// number. When present (>0) the accumulator uses it to reject redelivered
// readings; when absent the pipeline is best-effort under at-least-once
// delivery.
type SensorReadingPayload struct {
	VehicleID        string    `json:"vehicle_id"`
	Timestamp        time.Time `json:"timestamp"`
	Seq              int64     `json:"seq,omitempty"`
	HoursOperated    *float64  `json:"hours_operated,omitempty"`
	DistanceTraveled *float64  `json:"distance_traveled,omitempty"`
	FuelConsumed     *float64  `json:"fuel_consumed,omitempty"`
	IdleTime         *float64  `json:"idle_time,omitempty"`
	EngineTempC      *float64  `json:"engine_temp_celsius,omitempty"`
	BatteryVoltage   *float64  `json:"battery_voltage,omitempty"`
}

// MaintenancePayload 维保事件
type MaintenancePayload struct {
	VehicleID     string    `json:"vehicle_id"`
	Timestamp     time.Time `json:"timestamp"`
	ServiceType   string    `json:"service_type"`
	Cost          float64   `json:"cost,omitempty"`
	DurationHours float64   `json:"duration_hours,omitempty"`
	Description   string    `json:"description,omitempty"`
}
