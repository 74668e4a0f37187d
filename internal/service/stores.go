package service

import (
	"context"
	"time"

	"github.com/Al0olo/Fleet-Mangement-System-sub000/internal/model"
)

// BucketKey identifies one hourly usage bucket.
type BucketKey struct {
	VehicleID   string
	WindowStart time.Time
	WindowEnd   time.Time
}

// BucketStore persists hourly usage buckets. IncrementBucket must apply
// the delta and recompute efficiency in a single atomic upsert at the
// storage layer; a read-modify-write round trip loses updates under
// concurrent consumers.
type BucketStore interface {
	IncrementBucket(ctx context.Context, key BucketKey, delta model.UsageDelta) error
	ListBuckets(ctx context.Context, vehicleID string, start, end time.Time) ([]model.UsageStatsBucket, error)
	SummarizeUsage(ctx context.Context, vehicleID string, start, end time.Time) (*model.UsageSummary, error)
}

// ObservationStore persists immutable metric observations.
type ObservationStore interface {
	Insert(ctx context.Context, obs *model.MetricObservation) error
	// List returns one vehicle's observations of a metric in [start, end],
	// ordered by timestamp ascending.
	List(ctx context.Context, vehicleID string, metricType model.MetricType, start, end time.Time) ([]model.MetricObservation, error)
	// ListFleet returns every vehicle's observations of a metric in
	// [start, end], ordered by timestamp ascending.
	ListFleet(ctx context.Context, metricType model.MetricType, start, end time.Time) ([]model.MetricObservation, error)
}

// ReportStore persists immutable report snapshots.
type ReportStore interface {
	Create(ctx context.Context, report *model.AnalyticsReport) error
	List(ctx context.Context, reportType model.ReportType, period model.ReportPeriod, vehicleID *string, limit int) ([]model.AnalyticsReport, error)
	GetByID(ctx context.Context, id string) (*model.AnalyticsReport, error)
}

// SequenceStore tracks the last applied per-vehicle sequence number.
// Advance returns false when seq is not strictly greater than the last
// applied value, i.e. the reading is a redelivery.
type SequenceStore interface {
	Advance(ctx context.Context, vehicleID string, seq int64) (bool, error)
}

// StateStore keeps the latest known state snapshot per vehicle for the
// dashboard feed. Best effort; failures are logged, never propagated.
type StateStore interface {
	UpdateVehicleState(ctx context.Context, vehicleID string, fields map[string]interface{}) error
}

// VehicleRegistry is the external inventory service consulted for display
// metadata. Lookups may fail; report generation degrades gracefully.
type VehicleRegistry interface {
	GetVehicle(ctx context.Context, id string) (*model.VehicleSummary, error)
	GetFleetCounts(ctx context.Context) (*model.FleetCounts, error)
}
