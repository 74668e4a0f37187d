package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Al0olo/Fleet-Mangement-System-sub000/internal/model"
)

// In-memory store fakes. Each mirrors the contract of its production
// counterpart closely enough to exercise the services without a database.

type fakeBucketStore struct {
	mu      sync.Mutex
	buckets map[string]*model.UsageStatsBucket
	err     error
}

func newFakeBucketStore() *fakeBucketStore {
	return &fakeBucketStore{buckets: make(map[string]*model.UsageStatsBucket)}
}

func bucketKey(vehicleID string, windowStart time.Time) string {
	return fmt.Sprintf("%s|%d", vehicleID, windowStart.Unix())
}

func (f *fakeBucketStore) IncrementBucket(ctx context.Context, key BucketKey, delta model.UsageDelta) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	k := bucketKey(key.VehicleID, key.WindowStart)
	b, ok := f.buckets[k]
	if !ok {
		b = &model.UsageStatsBucket{
			VehicleID:   key.VehicleID,
			WindowStart: key.WindowStart,
			WindowEnd:   key.WindowEnd,
		}
		f.buckets[k] = b
	}
	if delta.HoursOperated != nil {
		b.HoursOperated += *delta.HoursOperated
	}
	if delta.DistanceTraveled != nil {
		b.DistanceTraveled += *delta.DistanceTraveled
	}
	if delta.FuelConsumed != nil {
		b.FuelConsumed += *delta.FuelConsumed
	}
	if delta.IdleTime != nil {
		b.IdleTime += *delta.IdleTime
	}
	b.Efficiency = ComputeEfficiency(b.DistanceTraveled, b.FuelConsumed)
	return nil
}

func (f *fakeBucketStore) ListBuckets(ctx context.Context, vehicleID string, start, end time.Time) ([]model.UsageStatsBucket, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []model.UsageStatsBucket
	for _, b := range f.buckets {
		if b.VehicleID != vehicleID {
			continue
		}
		if b.WindowStart.Before(start) || !b.WindowStart.Before(end) {
			continue
		}
		out = append(out, *b)
	}
	return out, nil
}

func (f *fakeBucketStore) SummarizeUsage(ctx context.Context, vehicleID string, start, end time.Time) (*model.UsageSummary, error) {
	buckets, err := f.ListBuckets(ctx, vehicleID, start, end)
	if err != nil {
		return nil, err
	}
	summary := &model.UsageSummary{VehicleID: vehicleID}
	for _, b := range buckets {
		summary.HoursOperated += b.HoursOperated
		summary.DistanceTraveled += b.DistanceTraveled
		summary.FuelConsumed += b.FuelConsumed
		summary.IdleTime += b.IdleTime
		summary.BucketCount++
	}
	summary.Efficiency = ComputeEfficiency(summary.DistanceTraveled, summary.FuelConsumed)
	return summary, nil
}

func (f *fakeBucketStore) get(vehicleID string, windowStart time.Time) *model.UsageStatsBucket {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.buckets[bucketKey(vehicleID, windowStart)]
}

type fakeObservationStore struct {
	mu           sync.Mutex
	observations []model.MetricObservation
	err          error
}

func (f *fakeObservationStore) Insert(ctx context.Context, obs *model.MetricObservation) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	obs.ID = int64(len(f.observations) + 1)
	f.observations = append(f.observations, *obs)
	return nil
}

func (f *fakeObservationStore) List(ctx context.Context, vehicleID string, metricType model.MetricType, start, end time.Time) ([]model.MetricObservation, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.MetricObservation
	for _, obs := range f.observations {
		if obs.VehicleID != vehicleID || obs.MetricType != metricType {
			continue
		}
		if obs.Timestamp.Before(start) || obs.Timestamp.After(end) {
			continue
		}
		out = append(out, obs)
	}
	return out, nil
}

func (f *fakeObservationStore) ListFleet(ctx context.Context, metricType model.MetricType, start, end time.Time) ([]model.MetricObservation, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.MetricObservation
	for _, obs := range f.observations {
		if obs.MetricType != metricType {
			continue
		}
		if obs.Timestamp.Before(start) || obs.Timestamp.After(end) {
			continue
		}
		out = append(out, obs)
	}
	return out, nil
}

func (f *fakeObservationStore) byType(metricType model.MetricType) []model.MetricObservation {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.MetricObservation
	for _, obs := range f.observations {
		if obs.MetricType == metricType {
			out = append(out, obs)
		}
	}
	return out
}

type fakeReportStore struct {
	mu        sync.Mutex
	reports   []model.AnalyticsReport
	lastLimit int
}

func (f *fakeReportStore) Create(ctx context.Context, report *model.AnalyticsReport) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reports = append(f.reports, *report)
	return nil
}

func (f *fakeReportStore) List(ctx context.Context, reportType model.ReportType, period model.ReportPeriod, vehicleID *string, limit int) ([]model.AnalyticsReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastLimit = limit
	var out []model.AnalyticsReport
	for _, r := range f.reports {
		if r.ReportType != reportType || r.Period != period {
			continue
		}
		if vehicleID != nil && (r.VehicleID == nil || *r.VehicleID != *vehicleID) {
			continue
		}
		out = append(out, r)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeReportStore) GetByID(ctx context.Context, id string) (*model.AnalyticsReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.reports {
		if f.reports[i].ID == id {
			r := f.reports[i]
			return &r, nil
		}
	}
	return nil, nil
}

type fakeSequenceStore struct {
	mu   sync.Mutex
	last map[string]int64
}

func newFakeSequenceStore() *fakeSequenceStore {
	return &fakeSequenceStore{last: make(map[string]int64)}
}

func (f *fakeSequenceStore) Advance(ctx context.Context, vehicleID string, seq int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if seq <= f.last[vehicleID] {
		return false, nil
	}
	f.last[vehicleID] = seq
	return true, nil
}

type fakeStateStore struct {
	mu      sync.Mutex
	updates map[string]map[string]interface{}
	err     error
}

func newFakeStateStore() *fakeStateStore {
	return &fakeStateStore{updates: make(map[string]map[string]interface{})}
}

func (f *fakeStateStore) UpdateVehicleState(ctx context.Context, vehicleID string, fields map[string]interface{}) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updates[vehicleID] == nil {
		f.updates[vehicleID] = make(map[string]interface{})
	}
	for k, v := range fields {
		f.updates[vehicleID][k] = v
	}
	return nil
}

type fakeRegistry struct {
	vehicle *model.VehicleSummary
	counts  *model.FleetCounts
	err     error
}

func (f *fakeRegistry) GetVehicle(ctx context.Context, id string) (*model.VehicleSummary, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.vehicle, nil
}

func (f *fakeRegistry) GetFleetCounts(ctx context.Context) (*model.FleetCounts, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.counts, nil
}

func ptr(v float64) *float64 { return &v }
