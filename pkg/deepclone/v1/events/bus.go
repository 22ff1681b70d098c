package events

import "time"

// EventType represents the type of a clone engine event.
type EventType string

// Standard deepclone event types.
const (
	CloneStarted EventType = "CloneStarted" // A new clone instance was allocated
	FieldCloned  EventType = "FieldCloned"  // A field value was replaced by its deep copy
	CloneFailed  EventType = "CloneFailed"  // A public clone call returned an error
	PlanResolved EventType = "PlanResolved" // A type's clone plan was built and cached
)

// Event represents a significant occurrence within the clone engine.
type Event struct {
	// Type categorizes the event.
	Type EventType `json:"type"`
	// Timestamp marks when the event occurred.
	Timestamp time.Time `json:"timestamp"`
	// TypeName is the Go type the event refers to, as printed by reflect.
	TypeName string `json:"type_name,omitempty"`
	// FieldName is set for FieldCloned events.
	FieldName string `json:"field_name,omitempty"`
	// Payload contains event-specific data. Field values are never included.
	Payload map[string]interface{} `json:"payload,omitempty"`
}

// Bus defines the interface for publishing clone events.
type Bus interface {
	// Emit publishes an event. Implementations must not block the clone
	// walk for long.
	Emit(event Event)
}
