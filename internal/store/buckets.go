package store

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Al0olo/Fleet-Mangement-System-sub000/internal/model"
	"github.com/Al0olo/Fleet-Mangement-System-sub000/internal/service"
)

// BucketStore gorm 实现
type BucketStore struct {
	db *gorm.DB
}

// NewBucketStore creates the usage bucket store.
func NewBucketStore(db *gorm.DB) *BucketStore {
	return &BucketStore{db: db}
}

// IncrementBucket applies the delta as a single INSERT ... ON CONFLICT
// DO UPDATE statement. The database computes the new totals and the
// recomputed efficiency in one atomic step; there is no read-modify-write
// window for concurrent consumers to race through.
func (s *BucketStore) IncrementBucket(ctx context.Context, key service.BucketKey, delta model.UsageDelta) error {
	now := time.Now().UTC()
	bucket := model.UsageStatsBucket{
		VehicleID:        key.VehicleID,
		WindowStart:      key.WindowStart,
		WindowEnd:        key.WindowEnd,
		HoursOperated:    deref(delta.HoursOperated),
		DistanceTraveled: deref(delta.DistanceTraveled),
		FuelConsumed:     deref(delta.FuelConsumed),
		IdleTime:         deref(delta.IdleTime),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	bucket.Efficiency = service.ComputeEfficiency(bucket.DistanceTraveled, bucket.FuelConsumed)

	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "vehicle_id"}, {Name: "window_start"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"hours_operated":    gorm.Expr("usage_stats_buckets.hours_operated + EXCLUDED.hours_operated"),
			"distance_traveled": gorm.Expr("usage_stats_buckets.distance_traveled + EXCLUDED.distance_traveled"),
			"fuel_consumed":     gorm.Expr("usage_stats_buckets.fuel_consumed + EXCLUDED.fuel_consumed"),
			"idle_time":         gorm.Expr("usage_stats_buckets.idle_time + EXCLUDED.idle_time"),
			"efficiency": gorm.Expr(
				"CASE WHEN usage_stats_buckets.distance_traveled + EXCLUDED.distance_traveled > 0" +
					" AND usage_stats_buckets.fuel_consumed + EXCLUDED.fuel_consumed > 0" +
					" THEN (usage_stats_buckets.distance_traveled + EXCLUDED.distance_traveled)" +
					" / (usage_stats_buckets.fuel_consumed + EXCLUDED.fuel_consumed)" +
					" ELSE NULL END"),
			"updated_at": now,
		}),
	}).Create(&bucket).Error
}

// ListBuckets returns a vehicle's hourly buckets overlapping [start, end],
// ordered by window start ascending.
func (s *BucketStore) ListBuckets(ctx context.Context, vehicleID string, start, end time.Time) ([]model.UsageStatsBucket, error) {
	var buckets []model.UsageStatsBucket
	err := s.db.WithContext(ctx).
		Where("vehicle_id = ? AND window_start >= ? AND window_start < ?", vehicleID, start, end).
		Order("window_start ASC").
		Find(&buckets).Error
	return buckets, err
}

// SummarizeUsage sums a vehicle's buckets over [start, end]. An empty
// range yields zero totals.
func (s *BucketStore) SummarizeUsage(ctx context.Context, vehicleID string, start, end time.Time) (*model.UsageSummary, error) {
	summary := &model.UsageSummary{VehicleID: vehicleID}

	err := s.db.WithContext(ctx).Model(&model.UsageStatsBucket{}).
		Where("vehicle_id = ? AND window_start >= ? AND window_start < ?", vehicleID, start, end).
		Select("COALESCE(SUM(hours_operated), 0), COALESCE(SUM(distance_traveled), 0), COALESCE(SUM(fuel_consumed), 0), COALESCE(SUM(idle_time), 0), COUNT(*)").
		Row().Scan(&summary.HoursOperated, &summary.DistanceTraveled, &summary.FuelConsumed, &summary.IdleTime, &summary.BucketCount)
	if err != nil {
		return nil, err
	}

	summary.Efficiency = service.ComputeEfficiency(summary.DistanceTraveled, summary.FuelConsumed)
	return summary, nil
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
