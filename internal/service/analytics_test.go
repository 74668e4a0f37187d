package service

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/Al0olo/Fleet-Mangement-System-sub000/internal/model"
)

func day(d int, hour int) time.Time {
	return time.Date(2025, 3, d, hour, 0, 0, 0, time.UTC)
}

func seedObservations(store *fakeObservationStore, vehicleID string, metricType model.MetricType, samples map[time.Time]float64) {
	for ts, value := range samples {
		store.Insert(context.Background(), &model.MetricObservation{
			VehicleID:  vehicleID,
			MetricType: metricType,
			Timestamp:  ts,
			Value:      value,
		})
	}
}

func TestGetMetricsTrendDaily(t *testing.T) {
	store := &fakeObservationStore{}
	seedObservations(store, "v-1", model.MetricFuelEfficiency, map[time.Time]float64{
		day(1, 9):  10,
		day(1, 15): 12,
		day(2, 9):  14, // up vs 11
		day(3, 9):  14.005, // within noise band
		day(4, 9):  9,  // down
	})
	svc := NewAnalyticsService(store)

	points, err := svc.GetMetricsTrend(context.Background(), "v-1", model.MetricFuelEfficiency, day(1, 0), day(5, 0), model.IntervalDay)
	if err != nil {
		t.Fatalf("GetMetricsTrend: %v", err)
	}
	if len(points) != 4 {
		t.Fatalf("got %d points, want 4", len(points))
	}

	first := points[0]
	if first.Period != "2025-03-01" {
		t.Errorf("first period = %q, want 2025-03-01", first.Period)
	}
	if first.AvgValue != 11 || first.MinValue != 10 || first.MaxValue != 12 || first.Count != 2 {
		t.Errorf("first rollup = avg %v min %v max %v count %d", first.AvgValue, first.MinValue, first.MaxValue, first.Count)
	}
	if first.Change != 0 || first.Trend != "stable" {
		t.Errorf("first point change/trend = %v/%q, want 0/stable", first.Change, first.Trend)
	}

	if points[1].Trend != "up" {
		t.Errorf("day 2 trend = %q, want up", points[1].Trend)
	}
	if points[2].Trend != "stable" {
		t.Errorf("day 3 trend = %q, want stable (change %v within threshold)", points[2].Trend, points[2].Change)
	}
	if points[3].Trend != "down" {
		t.Errorf("day 4 trend = %q, want down", points[3].Trend)
	}
}

func TestGetMetricsTrendWeekly(t *testing.T) {
	store := &fakeObservationStore{}
	// 2025-03-03 is a Monday; the 10th starts the next ISO week.
	seedObservations(store, "v-1", model.MetricUtilization, map[time.Time]float64{
		day(3, 9):  0.5,
		day(5, 9):  0.7,
		day(10, 9): 0.9,
	})
	svc := NewAnalyticsService(store)

	points, err := svc.GetMetricsTrend(context.Background(), "v-1", model.MetricUtilization, day(1, 0), day(15, 0), model.IntervalWeek)
	if err != nil {
		t.Fatalf("GetMetricsTrend: %v", err)
	}
	if len(points) != 2 {
		t.Fatalf("got %d points, want 2", len(points))
	}
	if points[0].Period != "2025-W10" {
		t.Errorf("first period = %q, want 2025-W10", points[0].Period)
	}
	if points[1].Period != "2025-W11" {
		t.Errorf("second period = %q, want 2025-W11", points[1].Period)
	}
	if points[0].Count != 2 || points[1].Count != 1 {
		t.Errorf("counts = %d/%d, want 2/1", points[0].Count, points[1].Count)
	}
}

func TestGetMetricsTrendValidation(t *testing.T) {
	svc := NewAnalyticsService(&fakeObservationStore{})
	if _, err := svc.GetMetricsTrend(context.Background(), "v-1", "bogus", day(1, 0), day(2, 0), model.IntervalDay); !IsValidation(err) {
		t.Errorf("bad metric type: err = %v, want validation error", err)
	}
	if _, err := svc.GetMetricsTrend(context.Background(), "v-1", model.MetricUtilization, day(1, 0), day(2, 0), "hourly"); !IsValidation(err) {
		t.Errorf("bad interval: err = %v, want validation error", err)
	}
}

func TestGetFleetStats(t *testing.T) {
	store := &fakeObservationStore{}
	values := map[string]float64{"v-1": 0.5, "v-2": 0.7, "v-3": 0.9}
	for id, v := range values {
		seedObservations(store, id, model.MetricUtilization, map[time.Time]float64{day(1, 9): v})
	}
	svc := NewAnalyticsService(store)

	stats, err := svc.GetFleetStats(context.Background(), model.MetricUtilization, day(1, 0), day(2, 0))
	if err != nil {
		t.Fatalf("GetFleetStats: %v", err)
	}
	if math.Abs(stats.AvgValue-0.7) > 1e-9 {
		t.Errorf("avg = %v, want 0.7", stats.AvgValue)
	}
	if stats.MinValue != 0.5 || stats.MaxValue != 0.9 || stats.Count != 3 {
		t.Errorf("min/max/count = %v/%v/%d, want 0.5/0.9/3", stats.MinValue, stats.MaxValue, stats.Count)
	}
	wantStdDev := math.Sqrt(2.0 * 0.04 / 3.0) // population, not sample
	if math.Abs(stats.StdDev-wantStdDev) > 1e-9 {
		t.Errorf("stddev = %v, want %v", stats.StdDev, wantStdDev)
	}
}

func TestGetFleetStatsEmptyWindow(t *testing.T) {
	svc := NewAnalyticsService(&fakeObservationStore{})
	stats, err := svc.GetFleetStats(context.Background(), model.MetricCostPerHour, day(1, 0), day(2, 0))
	if err != nil {
		t.Fatalf("GetFleetStats: %v", err)
	}
	if stats.AvgValue != 0 || stats.MinValue != 0 || stats.MaxValue != 0 || stats.StdDev != 0 || stats.Count != 0 {
		t.Errorf("empty window stats = %+v, want all zeros", stats)
	}
}

func TestCompareVehicleToFleet(t *testing.T) {
	store := &fakeObservationStore{}
	for id, v := range map[string]float64{"v-1": 0.5, "v-2": 0.7, "v-3": 0.9} {
		seedObservations(store, id, model.MetricUtilization, map[time.Time]float64{day(1, 9): v})
	}
	svc := NewAnalyticsService(store)

	cmp, err := svc.CompareVehicleToFleet(context.Background(), "v-2", model.MetricUtilization, day(1, 0), day(2, 0))
	if err != nil {
		t.Fatalf("CompareVehicleToFleet: %v", err)
	}
	if cmp.VehicleAvg != 0.7 {
		t.Errorf("vehicle avg = %v, want 0.7", cmp.VehicleAvg)
	}
	if math.Abs(cmp.FleetAvg-0.7) > 1e-9 {
		t.Errorf("fleet avg = %v, want 0.7", cmp.FleetAvg)
	}
	if cmp.PercentileRank != 50 {
		t.Errorf("percentile rank = %v, want 50", cmp.PercentileRank)
	}
	if math.Abs(cmp.Difference) > 1e-9 || math.Abs(cmp.PercentDifference) > 1e-7 {
		t.Errorf("difference = %v (%v%%), want ~0", cmp.Difference, cmp.PercentDifference)
	}
}

func TestCompareAbsentVehicle(t *testing.T) {
	store := &fakeObservationStore{}
	seedObservations(store, "v-1", model.MetricUtilization, map[time.Time]float64{day(1, 9): 0.5})
	svc := NewAnalyticsService(store)

	cmp, err := svc.CompareVehicleToFleet(context.Background(), "v-missing", model.MetricUtilization, day(1, 0), day(2, 0))
	if err != nil {
		t.Fatalf("absent vehicle must not fail: %v", err)
	}
	if cmp.VehicleAvg != 0 || cmp.PercentileRank != 0 {
		t.Errorf("absent vehicle = avg %v rank %v, want 0/0", cmp.VehicleAvg, cmp.PercentileRank)
	}
	if cmp.FleetAvg != 0.5 {
		t.Errorf("fleet avg = %v, want 0.5", cmp.FleetAvg)
	}
}

func TestCompareZeroFleetAvg(t *testing.T) {
	store := &fakeObservationStore{}
	svc := NewAnalyticsService(store)

	cmp, err := svc.CompareVehicleToFleet(context.Background(), "v-1", model.MetricUtilization, day(1, 0), day(2, 0))
	if err != nil {
		t.Fatalf("CompareVehicleToFleet: %v", err)
	}
	if cmp.PercentDifference != 0 {
		t.Errorf("percent difference = %v, want 0 on zero fleet avg", cmp.PercentDifference)
	}
}

func TestPercentileRank(t *testing.T) {
	averages := map[string]float64{"a": 1, "b": 2, "c": 3, "d": 4, "e": 5}
	tests := []struct {
		id   string
		want float64
	}{
		{"a", 0},
		{"c", 50},
		{"e", 100},
		{"missing", 0},
	}
	for _, tt := range tests {
		if got := percentileRank(averages, tt.id); got != tt.want {
			t.Errorf("percentileRank(%q) = %v, want %v", tt.id, got, tt.want)
		}
	}

	if got := percentileRank(map[string]float64{"only": 7}, "only"); got != 0 {
		t.Errorf("single vehicle rank = %v, want 0", got)
	}
}
