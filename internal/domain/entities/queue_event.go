package entities

import (
	"time"

	"github.com/google/uuid"
)

// QueueEventType represents the kind of change made to a department board
type QueueEventType string

const (
	QueueEventAppointmentCreated   QueueEventType = "appointment_created"
	QueueEventAppointmentUpdated   QueueEventType = "appointment_updated"
	QueueEventAppointmentCompleted QueueEventType = "appointment_completed"
	QueueEventAppointmentCancelled QueueEventType = "appointment_cancelled"
	QueueEventDoctorStatusChanged  QueueEventType = "doctor_status_changed"
	QueueEventDoctorAdded          QueueEventType = "doctor_added"
	QueueEventEmergencyConfirmed   QueueEventType = "emergency_confirmed"
	QueueEventEmergencyResolved    QueueEventType = "emergency_resolved"
	QueueEventWaitTimesRecomputed  QueueEventType = "wait_times_recomputed"
)

// QueueEvent is a real-time notification that a department's queue changed
type QueueEvent struct {
	ID            string                 `json:"id"`
	Department    string                 `json:"department"`
	EventType     QueueEventType         `json:"event_type"`
	Timestamp     time.Time              `json:"timestamp"`
	ChangedFields map[string]interface{} `json:"changed_fields,omitempty"`
}

// NewQueueEvent creates a new queue event
func NewQueueEvent(department string, eventType QueueEventType, changedFields map[string]interface{}) *QueueEvent {
	return &QueueEvent{
		ID:            uuid.NewString(),
		Department:    department,
		EventType:     eventType,
		Timestamp:     time.Now(),
		ChangedFields: changedFields,
	}
}
