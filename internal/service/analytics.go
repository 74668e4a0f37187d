package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/Al0olo/Fleet-Mangement-System-sub000/internal/model"
)

// trendThreshold is the noise filter around period-over-period change.
// Changes within ±0.01 are tagged stable.
const trendThreshold = 0.01

// AnalyticsService 聚合查询服务
//
// Read-only over metric observations and usage buckets. Every query
// recomputes from current stored state; nothing is cached across calls,
// so concurrent writers are tolerated by construction.
type AnalyticsService struct {
	observations ObservationStore
}

// NewAnalyticsService creates the aggregation query engine.
func NewAnalyticsService(observations ObservationStore) *AnalyticsService {
	return &AnalyticsService{observations: observations}
}

// GetMetricsTrend groups one vehicle's observations of a metric into
// calendar-aligned periods and rolls each period up. Periods are ordered
// ascending by the first observation they contain. Weeks follow ISO-8601
// week numbering.
func (s *AnalyticsService) GetMetricsTrend(ctx context.Context, vehicleID string, metricType model.MetricType, start, end time.Time, interval model.TrendInterval) ([]model.TrendPoint, error) {
	if !metricType.Valid() {
		return nil, &ValidationError{Field: "metric_type", Reason: fmt.Sprintf("unrecognized type %q", metricType)}
	}
	if !interval.Valid() {
		return nil, &ValidationError{Field: "interval", Reason: fmt.Sprintf("unsupported interval %q", interval)}
	}

	observations, err := s.observations.List(ctx, vehicleID, metricType, start, end)
	if err != nil {
		return nil, err
	}

	points := rollup(observations, interval)
	applyTrendTags(points)
	return points, nil
}

// GetFleetStats computes avg/min/max/population-stddev/count across every
// vehicle's observations of a metric. An empty window yields all zeros,
// never an error.
func (s *AnalyticsService) GetFleetStats(ctx context.Context, metricType model.MetricType, start, end time.Time) (*model.FleetStats, error) {
	if !metricType.Valid() {
		return nil, &ValidationError{Field: "metric_type", Reason: fmt.Sprintf("unrecognized type %q", metricType)}
	}

	observations, err := s.observations.ListFleet(ctx, metricType, start, end)
	if err != nil {
		return nil, err
	}
	return fleetStats(observations), nil
}

// CompareVehicleToFleet ranks one vehicle's average against the whole
// fleet over the window. A vehicle with no observations gets zeros and a
// rank of 0; the call never fails for an absent vehicle.
func (s *AnalyticsService) CompareVehicleToFleet(ctx context.Context, vehicleID string, metricType model.MetricType, start, end time.Time) (*model.VehicleComparison, error) {
	if !metricType.Valid() {
		return nil, &ValidationError{Field: "metric_type", Reason: fmt.Sprintf("unrecognized type %q", metricType)}
	}

	observations, err := s.observations.ListFleet(ctx, metricType, start, end)
	if err != nil {
		return nil, err
	}

	cmp := &model.VehicleComparison{
		VehicleID:  vehicleID,
		MetricType: metricType,
	}

	stats := fleetStats(observations)
	cmp.FleetAvg = stats.AvgValue

	averages := vehicleAverages(observations)
	if avg, ok := averages[vehicleID]; ok {
		cmp.VehicleAvg = avg
	}

	cmp.Difference = cmp.VehicleAvg - cmp.FleetAvg
	if cmp.FleetAvg != 0 {
		cmp.PercentDifference = cmp.Difference / cmp.FleetAvg * 100
	}
	cmp.PercentileRank = percentileRank(averages, vehicleID)
	return cmp, nil
}

// periodKey formats the calendar bucket an observation falls into.
func periodKey(ts time.Time, interval model.TrendInterval) string {
	ts = ts.UTC()
	switch interval {
	case model.IntervalWeek:
		year, week := ts.ISOWeek()
		return fmt.Sprintf("%04d-W%02d", year, week)
	case model.IntervalMonth:
		return ts.Format("2006-01")
	default:
		return ts.Format("2006-01-02")
	}
}

// rollup groups observations by calendar period and computes per-period
// avg/min/max/count plus the first timestamp seen in the period.
func rollup(observations []model.MetricObservation, interval model.TrendInterval) []model.TrendPoint {
	groups := make(map[string]*model.TrendPoint)
	sums := make(map[string]float64)

	for _, obs := range observations {
		key := periodKey(obs.Timestamp, interval)
		point, ok := groups[key]
		if !ok {
			groups[key] = &model.TrendPoint{
				Period:         key,
				MinValue:       obs.Value,
				MaxValue:       obs.Value,
				Count:          1,
				FirstTimestamp: obs.Timestamp,
			}
			sums[key] = obs.Value
			continue
		}
		point.Count++
		sums[key] += obs.Value
		if obs.Value < point.MinValue {
			point.MinValue = obs.Value
		}
		if obs.Value > point.MaxValue {
			point.MaxValue = obs.Value
		}
		if obs.Timestamp.Before(point.FirstTimestamp) {
			point.FirstTimestamp = obs.Timestamp
		}
	}

	points := make([]model.TrendPoint, 0, len(groups))
	for key, point := range groups {
		point.AvgValue = sums[key] / float64(point.Count)
		points = append(points, *point)
	}
	sort.Slice(points, func(i, j int) bool {
		return points[i].FirstTimestamp.Before(points[j].FirstTimestamp)
	})
	return points
}

// applyTrendTags computes period-over-period change and the up/down/stable
// tag. The first period's change is always 0.
func applyTrendTags(points []model.TrendPoint) {
	for i := range points {
		if i == 0 {
			points[i].Change = 0
			points[i].Trend = "stable"
			continue
		}
		change := points[i].AvgValue - points[i-1].AvgValue
		points[i].Change = change
		switch {
		case change > trendThreshold:
			points[i].Trend = "up"
		case change < -trendThreshold:
			points[i].Trend = "down"
		default:
			points[i].Trend = "stable"
		}
	}
}

// fleetStats computes the fleet-wide summary. StdDev is the population
// standard deviation, not the sample one.
func fleetStats(observations []model.MetricObservation) *model.FleetStats {
	stats := &model.FleetStats{}
	if len(observations) == 0 {
		return stats
	}

	var sum float64
	stats.MinValue = observations[0].Value
	stats.MaxValue = observations[0].Value
	for _, obs := range observations {
		sum += obs.Value
		if obs.Value < stats.MinValue {
			stats.MinValue = obs.Value
		}
		if obs.Value > stats.MaxValue {
			stats.MaxValue = obs.Value
		}
	}
	stats.Count = int64(len(observations))
	stats.AvgValue = sum / float64(stats.Count)

	var sqDiff float64
	for _, obs := range observations {
		d := obs.Value - stats.AvgValue
		sqDiff += d * d
	}
	stats.StdDev = math.Sqrt(sqDiff / float64(stats.Count))
	return stats
}

// vehicleAverages reduces fleet observations to one average per vehicle.
func vehicleAverages(observations []model.MetricObservation) map[string]float64 {
	sums := make(map[string]float64)
	counts := make(map[string]int64)
	for _, obs := range observations {
		sums[obs.VehicleID] += obs.Value
		counts[obs.VehicleID]++
	}
	averages := make(map[string]float64, len(sums))
	for id, sum := range sums {
		averages[id] = sum / float64(counts[id])
	}
	return averages
}

// percentileRank positions a vehicle among all vehicles' averages,
// ascending, as position/(N-1)*100. Absent vehicles and fleets with fewer
// than two vehicles rank 0.
func percentileRank(averages map[string]float64, vehicleID string) float64 {
	if _, ok := averages[vehicleID]; !ok {
		return 0
	}
	if len(averages) < 2 {
		return 0
	}

	type ranked struct {
		id  string
		avg float64
	}
	all := make([]ranked, 0, len(averages))
	for id, avg := range averages {
		all = append(all, ranked{id: id, avg: avg})
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].avg == all[j].avg {
			return all[i].id < all[j].id
		}
		return all[i].avg < all[j].avg
	})

	for position, r := range all {
		if r.id == vehicleID {
			return float64(position) / float64(len(all)-1) * 100
		}
	}
	return 0
}
