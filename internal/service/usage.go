package service

import (
	"context"
	"log"
	"math"
	"time"

	"github.com/Al0olo/Fleet-Mangement-System-sub000/internal/model"
)

// UsageStatsService 使用统计累积服务
//
// Converts sensor readings into hourly usage buckets. All mutation goes
// through BucketStore.IncrementBucket, so concurrent consumers for the
// same vehicle/window never lose updates.
type UsageStatsService struct {
	buckets BucketStore
	seqs    SequenceStore
}

// NewUsageStatsService creates the accumulator. seqs may be nil, in which
// case the duplicate-delivery guard is disabled and accumulation is
// best-effort under at-least-once delivery.
func NewUsageStatsService(buckets BucketStore, seqs SequenceStore) *UsageStatsService {
	return &UsageStatsService{buckets: buckets, seqs: seqs}
}

// AlignWindow computes the hourly window a reading belongs to. The window
// is determined solely by the timestamp's hour, in UTC.
func AlignWindow(ts time.Time) (time.Time, time.Time) {
	start := ts.UTC().Truncate(time.Hour)
	return start, start.Add(time.Hour)
}

// ApplyReading locates or creates the bucket for the reading's hour and
// applies the delta additively. seq is the optional producer-assigned
// per-vehicle sequence number; readings at or below the last applied
// sequence are dropped as redeliveries.
func (s *UsageStatsService) ApplyReading(ctx context.Context, vehicleID string, ts time.Time, delta model.UsageDelta, seq int64) error {
	if vehicleID == "" {
		return &ValidationError{Field: "vehicle_id", Reason: "must not be empty"}
	}
	if ts.IsZero() {
		return &ValidationError{Field: "timestamp", Reason: "must not be zero"}
	}
	if err := validateDelta(delta); err != nil {
		return err
	}
	if delta.IsZero() {
		return nil
	}

	if seq > 0 && s.seqs != nil {
		applied, err := s.seqs.Advance(ctx, vehicleID, seq)
		if err != nil {
			return err
		}
		if !applied {
			log.Printf("[Usage] Dropping redelivered reading: vehicle=%s seq=%d", vehicleID, seq)
			return nil
		}
	}

	start, end := AlignWindow(ts)
	key := BucketKey{VehicleID: vehicleID, WindowStart: start, WindowEnd: end}
	return s.buckets.IncrementBucket(ctx, key, delta)
}

// GetUsage returns the raw hourly buckets for a vehicle in [start, end].
func (s *UsageStatsService) GetUsage(ctx context.Context, vehicleID string, start, end time.Time) ([]model.UsageStatsBucket, error) {
	return s.buckets.ListBuckets(ctx, vehicleID, start, end)
}

// GetUsageSummary returns the summed usage for a vehicle in [start, end].
func (s *UsageStatsService) GetUsageSummary(ctx context.Context, vehicleID string, start, end time.Time) (*model.UsageSummary, error) {
	return s.buckets.SummarizeUsage(ctx, vehicleID, start, end)
}

func validateDelta(delta model.UsageDelta) error {
	fields := []struct {
		name  string
		value *float64
	}{
		{"hours_operated", delta.HoursOperated},
		{"distance_traveled", delta.DistanceTraveled},
		{"fuel_consumed", delta.FuelConsumed},
		{"idle_time", delta.IdleTime},
	}
	for _, f := range fields {
		if f.value == nil {
			continue
		}
		if math.IsNaN(*f.value) || math.IsInf(*f.value, 0) {
			return &ValidationError{Field: f.name, Reason: "must be a finite number"}
		}
		if *f.value < 0 {
			return &ValidationError{Field: f.name, Reason: "must not be negative"}
		}
	}
	return nil
}

// ComputeEfficiency derives distance per fuel unit from bucket totals.
// Defined only when both totals are positive.
func ComputeEfficiency(distance, fuel float64) *float64 {
	if distance <= 0 || fuel <= 0 {
		return nil
	}
	eff := distance / fuel
	return &eff
}
