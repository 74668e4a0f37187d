package store

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/Al0olo/Fleet-Mangement-System-sub000/internal/model"
)

// ObservationStore gorm 实现
type ObservationStore struct {
	db *gorm.DB
}

// NewObservationStore creates the metric observation store.
func NewObservationStore(db *gorm.DB) *ObservationStore {
	return &ObservationStore{db: db}
}

// Insert appends one immutable observation.
func (s *ObservationStore) Insert(ctx context.Context, obs *model.MetricObservation) error {
	return s.db.WithContext(ctx).Create(obs).Error
}

// List returns one vehicle's observations of a metric in [start, end],
// timestamp ascending.
func (s *ObservationStore) List(ctx context.Context, vehicleID string, metricType model.MetricType, start, end time.Time) ([]model.MetricObservation, error) {
	var observations []model.MetricObservation
	err := s.db.WithContext(ctx).
		Where("vehicle_id = ? AND metric_type = ? AND timestamp >= ? AND timestamp <= ?",
			vehicleID, metricType, start, end).
		Order("timestamp ASC").
		Find(&observations).Error
	return observations, err
}

// ListFleet returns every vehicle's observations of a metric in
// [start, end], timestamp ascending.
func (s *ObservationStore) ListFleet(ctx context.Context, metricType model.MetricType, start, end time.Time) ([]model.MetricObservation, error) {
	var observations []model.MetricObservation
	err := s.db.WithContext(ctx).
		Where("metric_type = ? AND timestamp >= ? AND timestamp <= ?", metricType, start, end).
		Order("timestamp ASC").
		Find(&observations).Error
	return observations, err
}
