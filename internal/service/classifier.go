package service

import (
	"fmt"

	"github.com/Al0olo/Fleet-Mangement-System-sub000/internal/model"
)

// topicKinds maps stream topics to event kinds. The classifier is a pure
// table lookup; payload validation is delegated to the handler stage.
var topicKinds = map[string]model.EventKind{
	model.TopicVehicleEvents:     model.EventVehicleLifecycle,
	model.TopicVehicleStatus:     model.EventVehicleLifecycle,
	model.TopicVehicleLocation:   model.EventLocation,
	model.TopicSensorData:        model.EventSensorReading,
	model.TopicMaintenanceEvents: model.EventMaintenance,
}

// Classify routes a raw envelope to its event kind. Unknown topics return
// ErrUnrecognizedEvent; the caller logs and keeps consuming.
func Classify(topic string, payload []byte) (*model.Event, error) {
	kind, ok := topicKinds[topic]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnrecognizedEvent, topic)
	}
	return &model.Event{
		Kind:    kind,
		Topic:   topic,
		Payload: payload,
	}, nil
}
