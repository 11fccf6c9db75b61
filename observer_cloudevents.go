package mfe

import (
	"fmt"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/google/uuid"
)

// EventSource is the CloudEvents source of every runtime event.
const EventSource = "mfe/runtime"

// UnitEventData is the payload of unit registration and status events.
type UnitEventData struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
	From Status `json:"from,omitempty"`
	To   Status `json:"to,omitempty"`
}

// FailureEventData is the payload of failure events.
type FailureEventData struct {
	Name      string `json:"name"`
	Kind      string `json:"kind,omitempty"`
	Status    Status `json:"status,omitempty"`
	NewStatus Status `json:"newStatus,omitempty"`
	Error     string `json:"error"`
}

// NewCloudEvent creates a new CloudEvent with the specified parameters.
func NewCloudEvent(eventType, source string, data any, metadata map[string]any) cloudevents.Event {
	event := cloudevents.NewEvent()

	event.SetID(generateEventID())
	event.SetSource(source)
	event.SetType(eventType)
	event.SetTime(time.Now())
	event.SetSpecVersion(cloudevents.VersionV1)

	if data != nil {
		_ = event.SetData(cloudevents.ApplicationJSON, data)
	}

	for key, value := range metadata {
		event.SetExtension(key, value)
	}

	return event
}

// generateEventID returns a time-ordered UUIDv7, falling back to v4.
func generateEventID() string {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return id.String()
}

// ValidateCloudEvent checks the required CloudEvents v1.0 attributes.
func ValidateCloudEvent(event cloudevents.Event) error {
	if err := event.Validate(); err != nil {
		return fmt.Errorf("CloudEvent validation failed: %w", err)
	}
	return nil
}
