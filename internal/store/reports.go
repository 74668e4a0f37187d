package store

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/Al0olo/Fleet-Mangement-System-sub000/internal/model"
)

// ReportStore gorm 实现
type ReportStore struct {
	db *gorm.DB
}

// NewReportStore creates the report snapshot store.
func NewReportStore(db *gorm.DB) *ReportStore {
	return &ReportStore{db: db}
}

// Create persists a new report snapshot. Reports are insert-only.
func (s *ReportStore) Create(ctx context.Context, report *model.AnalyticsReport) error {
	return s.db.WithContext(ctx).Create(report).Error
}

// List returns reports for (reportType, period) ordered by window_end
// descending, optionally filtered by vehicle.
func (s *ReportStore) List(ctx context.Context, reportType model.ReportType, period model.ReportPeriod, vehicleID *string, limit int) ([]model.AnalyticsReport, error) {
	var reports []model.AnalyticsReport

	query := s.db.WithContext(ctx).
		Where("report_type = ? AND period = ?", reportType, period)
	if vehicleID != nil && *vehicleID != "" {
		query = query.Where("vehicle_id = ?", *vehicleID)
	}

	err := query.Order("window_end DESC").Limit(limit).Find(&reports).Error
	return reports, err
}

// GetByID fetches one report; a missing id returns (nil, nil).
func (s *ReportStore) GetByID(ctx context.Context, id string) (*model.AnalyticsReport, error) {
	var report model.AnalyticsReport
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&report).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &report, nil
}
