package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/Al0olo/Fleet-Mangement-System-sub000/internal/model"
)

// TelemetryService 遥测事件入口
//
// The single transport-facing entry point: classify the envelope, then
// dispatch to the accumulator and recorder through a handler table. The
// transport owns connection management; this service owns none of it.
type TelemetryService struct {
	usage    *UsageStatsService
	metrics  *MetricService
	state    StateStore
	handlers map[model.EventKind]func(ctx context.Context, event *model.Event) error
}

// NewTelemetryService wires the classifier dispatch table. state may be
// nil; the latest-state snapshot is then skipped.
func NewTelemetryService(usage *UsageStatsService, metrics *MetricService, state StateStore) *TelemetryService {
	s := &TelemetryService{
		usage:   usage,
		metrics: metrics,
		state:   state,
	}
	s.handlers = map[model.EventKind]func(ctx context.Context, event *model.Event) error{
		model.EventVehicleLifecycle: s.handleLifecycle,
		model.EventLocation:         s.handleLocation,
		model.EventSensorReading:    s.handleSensorReading,
		model.EventMaintenance:      s.handleMaintenance,
	}
	return s
}

// Handle processes one raw envelope. Unrecognized topics and malformed
// payloads are logged and dropped; only storage failures propagate, so
// the transport can redeliver instead of the consumer dying.
func (s *TelemetryService) Handle(ctx context.Context, topic string, payload []byte) error {
	event, err := Classify(topic, payload)
	if err != nil {
		log.Printf("[Telemetry] Skipping event: %v", err)
		return nil
	}

	if err := s.handlers[event.Kind](ctx, event); err != nil {
		if IsValidation(err) {
			log.Printf("[Telemetry] Rejected %s event: %v", event.Kind, err)
			return nil
		}
		return fmt.Errorf("handle %s: %w", event.Kind, err)
	}
	return nil
}

func (s *TelemetryService) handleLifecycle(ctx context.Context, event *model.Event) error {
	var p model.LifecyclePayload
	if err := json.Unmarshal(event.Payload, &p); err != nil || p.VehicleID == "" {
		log.Printf("[Telemetry] Malformed lifecycle payload on %s: %v", event.Topic, err)
		return nil
	}

	s.updateState(ctx, p.VehicleID, map[string]interface{}{
		"status":     p.Status,
		"last_event": p.EventType,
		"event_time": p.Timestamp.Unix(),
	})
	return nil
}

func (s *TelemetryService) handleLocation(ctx context.Context, event *model.Event) error {
	var p model.LocationPayload
	if err := json.Unmarshal(event.Payload, &p); err != nil || p.VehicleID == "" {
		log.Printf("[Telemetry] Malformed location payload: %v", err)
		return nil
	}

	s.updateState(ctx, p.VehicleID, map[string]interface{}{
		"lat":       p.Lat,
		"lon":       p.Lon,
		"speed_kmh": p.SpeedKmh,
		"heading":   p.Heading,
		"timestamp": p.Timestamp.Unix(),
	})
	return nil
}

// handleSensorReading feeds both the bucket accumulator and the metric
// recorder; a single reading may fire several derived observations.
func (s *TelemetryService) handleSensorReading(ctx context.Context, event *model.Event) error {
	var p model.SensorReadingPayload
	if err := json.Unmarshal(event.Payload, &p); err != nil || p.VehicleID == "" {
		log.Printf("[Telemetry] Malformed sensor payload: %v", err)
		return nil
	}

	delta := model.UsageDelta{
		HoursOperated:    p.HoursOperated,
		DistanceTraveled: p.DistanceTraveled,
		FuelConsumed:     p.FuelConsumed,
		IdleTime:         p.IdleTime,
	}
	if err := s.usage.ApplyReading(ctx, p.VehicleID, p.Timestamp, delta, p.Seq); err != nil {
		return err
	}

	if err := s.recordDerivedMetrics(ctx, &p); err != nil {
		return err
	}

	s.updateState(ctx, p.VehicleID, map[string]interface{}{
		"timestamp": p.Timestamp.Unix(),
	})
	return nil
}

// recordDerivedMetrics derives observations from a sensor reading:
// engine hours, fuel efficiency and utilization where the reading carries
// enough fields to compute them.
func (s *TelemetryService) recordDerivedMetrics(ctx context.Context, p *model.SensorReadingPayload) error {
	if p.HoursOperated != nil {
		if _, err := s.metrics.Record(ctx, p.VehicleID, model.MetricEngineHours, p.Timestamp, *p.HoursOperated, "h"); err != nil {
			return err
		}
	}
	if p.DistanceTraveled != nil && p.FuelConsumed != nil && *p.FuelConsumed > 0 {
		if _, err := s.metrics.Record(ctx, p.VehicleID, model.MetricFuelEfficiency, p.Timestamp, *p.DistanceTraveled / *p.FuelConsumed, "km/l"); err != nil {
			return err
		}
	}
	if p.HoursOperated != nil && p.IdleTime != nil && *p.HoursOperated+*p.IdleTime > 0 {
		utilization := *p.HoursOperated / (*p.HoursOperated + *p.IdleTime)
		if _, err := s.metrics.Record(ctx, p.VehicleID, model.MetricUtilization, p.Timestamp, utilization, ""); err != nil {
			return err
		}
	}
	return nil
}

// handleMaintenance records one maintenance-frequency sample per event,
// plus cost per hour when the event carries cost and duration.
func (s *TelemetryService) handleMaintenance(ctx context.Context, event *model.Event) error {
	var p model.MaintenancePayload
	if err := json.Unmarshal(event.Payload, &p); err != nil || p.VehicleID == "" {
		log.Printf("[Telemetry] Malformed maintenance payload: %v", err)
		return nil
	}

	if _, err := s.metrics.Record(ctx, p.VehicleID, model.MetricMaintenanceFrequency, p.Timestamp, 1, "events"); err != nil {
		return err
	}
	if p.Cost > 0 && p.DurationHours > 0 {
		if _, err := s.metrics.Record(ctx, p.VehicleID, model.MetricCostPerHour, p.Timestamp, p.Cost/p.DurationHours, ""); err != nil {
			return err
		}
	}
	return nil
}

func (s *TelemetryService) updateState(ctx context.Context, vehicleID string, fields map[string]interface{}) {
	if s.state == nil {
		return
	}
	if err := s.state.UpdateVehicleState(ctx, vehicleID, fields); err != nil {
		log.Printf("[Telemetry] Failed to update state snapshot for %s: %v", vehicleID, err)
	}
}
