package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/Al0olo/Fleet-Mangement-System-sub000/internal/model"
)

// MetricService 指标记录服务
//
// Pure append: observations are immutable, never deduplicated. The only
// validation is that value is finite and metricType is recognized, since
// metric type drives downstream aggregation semantics.
type MetricService struct {
	observations ObservationStore
	nats         *nats.Conn
}

// NewMetricService creates the metric recorder. natsConn may be nil; live
// publication is then disabled.
func NewMetricService(observations ObservationStore, natsConn *nats.Conn) *MetricService {
	return &MetricService{observations: observations, nats: natsConn}
}

// Record appends one observation and publishes it for live subscribers.
func (s *MetricService) Record(ctx context.Context, vehicleID string, metricType model.MetricType, ts time.Time, value float64, unit string) (*model.MetricObservation, error) {
	if vehicleID == "" {
		return nil, &ValidationError{Field: "vehicle_id", Reason: "must not be empty"}
	}
	if !metricType.Valid() {
		return nil, &ValidationError{Field: "metric_type", Reason: fmt.Sprintf("unrecognized type %q", metricType)}
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return nil, &ValidationError{Field: "value", Reason: "must be a finite number"}
	}
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	obs := &model.MetricObservation{
		VehicleID:  vehicleID,
		MetricType: metricType,
		Timestamp:  ts,
		Value:      value,
		Unit:       unit,
	}
	if err := s.observations.Insert(ctx, obs); err != nil {
		return nil, err
	}

	s.publish(obs)
	return obs, nil
}

// publish pushes the observation onto NATS for the websocket feed.
// Publication failure never fails the record.
func (s *MetricService) publish(obs *model.MetricObservation) {
	if s.nats == nil {
		return
	}
	payload, err := json.Marshal(obs)
	if err != nil {
		log.Printf("[Metric] Failed to marshal observation: %v", err)
		return
	}
	subject := fmt.Sprintf("fleet.metrics.%s", obs.VehicleID)
	if err := s.nats.Publish(subject, payload); err != nil {
		log.Printf("[Metric] Failed to publish observation: %v", err)
	}
}
