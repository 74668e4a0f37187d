package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Al0olo/Fleet-Mangement-System-sub000/internal/model"
)

func newTelemetryFixture() (*TelemetryService, *fakeBucketStore, *fakeObservationStore, *fakeStateStore) {
	buckets := newFakeBucketStore()
	observations := &fakeObservationStore{}
	state := newFakeStateStore()
	usage := NewUsageStatsService(buckets, nil)
	metrics := NewMetricService(observations, nil)
	return NewTelemetryService(usage, metrics, state), buckets, observations, state
}

func TestHandleUnknownTopicDropped(t *testing.T) {
	svc, buckets, observations, _ := newTelemetryFixture()
	if err := svc.Handle(context.Background(), "driver-events", []byte(`{"vehicle_id":"v-1"}`)); err != nil {
		t.Fatalf("unknown topic must be dropped, got %v", err)
	}
	if len(buckets.buckets) != 0 || len(observations.observations) != 0 {
		t.Error("unknown topic produced writes")
	}
}

func TestHandleMalformedPayloadDropped(t *testing.T) {
	svc, buckets, observations, _ := newTelemetryFixture()
	tests := []struct {
		name    string
		topic   string
		payload string
	}{
		{"bad json", model.TopicSensorData, `{not json`},
		{"missing vehicle", model.TopicSensorData, `{"timestamp":"2025-03-10T10:05:00Z"}`},
		{"bad lifecycle", model.TopicVehicleEvents, `[]`},
		{"bad maintenance", model.TopicMaintenanceEvents, `42`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := svc.Handle(context.Background(), tt.topic, []byte(tt.payload)); err != nil {
				t.Fatalf("malformed payload must be dropped, got %v", err)
			}
		})
	}
	if len(buckets.buckets) != 0 || len(observations.observations) != 0 {
		t.Error("malformed payloads produced writes")
	}
}

func TestHandleSensorReading(t *testing.T) {
	svc, buckets, observations, state := newTelemetryFixture()
	payload := []byte(`{
		"vehicle_id": "v-1",
		"timestamp": "2025-03-10T10:05:00Z",
		"hours_operated": 0.5,
		"distance_traveled": 25,
		"fuel_consumed": 2,
		"idle_time": 0.5
	}`)

	if err := svc.Handle(context.Background(), model.TopicSensorData, payload); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	b := buckets.get("v-1", time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC))
	if b == nil {
		t.Fatal("bucket not written")
	}
	if b.HoursOperated != 0.5 || b.DistanceTraveled != 25 || b.FuelConsumed != 2 || b.IdleTime != 0.5 {
		t.Errorf("bucket = %+v", b)
	}

	if got := observations.byType(model.MetricEngineHours); len(got) != 1 || got[0].Value != 0.5 {
		t.Errorf("engine_hours observations = %+v", got)
	}
	if got := observations.byType(model.MetricFuelEfficiency); len(got) != 1 || got[0].Value != 12.5 {
		t.Errorf("fuel_efficiency observations = %+v", got)
	}
	if got := observations.byType(model.MetricUtilization); len(got) != 1 || got[0].Value != 0.5 {
		t.Errorf("utilization observations = %+v", got)
	}

	if state.updates["v-1"] == nil {
		t.Error("state snapshot not updated")
	}
}

func TestHandleSensorReadingPartialFields(t *testing.T) {
	svc, _, observations, _ := newTelemetryFixture()
	payload := []byte(`{
		"vehicle_id": "v-1",
		"timestamp": "2025-03-10T10:05:00Z",
		"distance_traveled": 25
	}`)

	if err := svc.Handle(context.Background(), model.TopicSensorData, payload); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	// Without fuel there is no efficiency sample, without hours no
	// engine-hours or utilization sample.
	if len(observations.observations) != 0 {
		t.Errorf("derived %d observations from distance alone, want 0", len(observations.observations))
	}
}

func TestHandleMaintenance(t *testing.T) {
	svc, _, observations, _ := newTelemetryFixture()
	payload := []byte(`{
		"vehicle_id": "v-1",
		"timestamp": "2025-03-10T14:00:00Z",
		"service_type": "oil-change",
		"cost": 300,
		"duration_hours": 2
	}`)

	if err := svc.Handle(context.Background(), model.TopicMaintenanceEvents, payload); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	if got := observations.byType(model.MetricMaintenanceFrequency); len(got) != 1 || got[0].Value != 1 {
		t.Errorf("maintenance_frequency observations = %+v", got)
	}
	if got := observations.byType(model.MetricCostPerHour); len(got) != 1 || got[0].Value != 150 {
		t.Errorf("cost_per_hour observations = %+v", got)
	}
}

func TestHandleMaintenanceWithoutCost(t *testing.T) {
	svc, _, observations, _ := newTelemetryFixture()
	payload := []byte(`{
		"vehicle_id": "v-1",
		"timestamp": "2025-03-10T14:00:00Z",
		"service_type": "inspection"
	}`)

	if err := svc.Handle(context.Background(), model.TopicMaintenanceEvents, payload); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if got := observations.byType(model.MetricCostPerHour); len(got) != 0 {
		t.Errorf("cost_per_hour recorded without cost: %+v", got)
	}
	if got := observations.byType(model.MetricMaintenanceFrequency); len(got) != 1 {
		t.Errorf("maintenance_frequency observations = %+v", got)
	}
}

func TestHandleLifecycleAndLocation(t *testing.T) {
	svc, _, _, state := newTelemetryFixture()

	lifecycle := []byte(`{"vehicle_id":"v-1","event_type":"status-changed","status":"active","timestamp":"2025-03-10T10:00:00Z"}`)
	if err := svc.Handle(context.Background(), model.TopicVehicleStatus, lifecycle); err != nil {
		t.Fatalf("Handle lifecycle: %v", err)
	}
	if state.updates["v-1"]["status"] != "active" {
		t.Errorf("state after lifecycle = %+v", state.updates["v-1"])
	}

	location := []byte(`{"vehicle_id":"v-1","timestamp":"2025-03-10T10:01:00Z","lat":59.33,"lon":18.07,"speed_kmh":42}`)
	if err := svc.Handle(context.Background(), model.TopicVehicleLocation, location); err != nil {
		t.Fatalf("Handle location: %v", err)
	}
	if state.updates["v-1"]["lat"] != 59.33 {
		t.Errorf("state after location = %+v", state.updates["v-1"])
	}
}

func TestHandleStorageErrorPropagates(t *testing.T) {
	buckets := newFakeBucketStore()
	buckets.err = errors.New("connection refused")
	usage := NewUsageStatsService(buckets, nil)
	metrics := NewMetricService(&fakeObservationStore{}, nil)
	svc := NewTelemetryService(usage, metrics, nil)

	payload := []byte(`{"vehicle_id":"v-1","timestamp":"2025-03-10T10:05:00Z","distance_traveled":25}`)
	err := svc.Handle(context.Background(), model.TopicSensorData, payload)
	if err == nil {
		t.Fatal("storage failure must propagate for redelivery")
	}
}

func TestHandleStateFailureBestEffort(t *testing.T) {
	buckets := newFakeBucketStore()
	state := newFakeStateStore()
	state.err = errors.New("redis down")
	usage := NewUsageStatsService(buckets, nil)
	metrics := NewMetricService(&fakeObservationStore{}, nil)
	svc := NewTelemetryService(usage, metrics, state)

	payload := []byte(`{"vehicle_id":"v-1","timestamp":"2025-03-10T10:05:00Z","distance_traveled":25}`)
	if err := svc.Handle(context.Background(), model.TopicSensorData, payload); err != nil {
		t.Fatalf("state failures are best effort, got %v", err)
	}
	if b := buckets.get("v-1", time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)); b == nil {
		t.Error("bucket write lost alongside state failure")
	}
}
