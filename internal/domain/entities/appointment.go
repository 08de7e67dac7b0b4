package entities

import (
	"time"
)

// AppointmentStatus represents the lifecycle state of a queue entry
type AppointmentStatus string

const (
	AppointmentStatusScheduled  AppointmentStatus = "scheduled"
	AppointmentStatusWaiting    AppointmentStatus = "waiting"
	AppointmentStatusInProgress AppointmentStatus = "in-progress"
	AppointmentStatusCompleted  AppointmentStatus = "completed"
	AppointmentStatusCancelled  AppointmentStatus = "cancelled"
)

// IsTerminal reports whether the status removes the entry from active queues.
func (s AppointmentStatus) IsTerminal() bool {
	return s == AppointmentStatusCompleted || s == AppointmentStatusCancelled
}

// Valid reports whether s is a known status.
func (s AppointmentStatus) Valid() bool {
	switch s {
	case AppointmentStatusScheduled, AppointmentStatusWaiting, AppointmentStatusInProgress,
		AppointmentStatusCompleted, AppointmentStatusCancelled:
		return true
	}
	return false
}

// ActiveStatuses are the statuses that keep an appointment in a doctor's queue.
var ActiveStatuses = []AppointmentStatus{
	AppointmentStatusScheduled,
	AppointmentStatusWaiting,
	AppointmentStatusInProgress,
}

// AppointmentCategory is the visit type used by the standard ordering rule
type AppointmentCategory string

const (
	AppointmentCategoryEmergency AppointmentCategory = "emergency"
	AppointmentCategoryRoutine   AppointmentCategory = "routine"
	AppointmentCategoryFollowUp  AppointmentCategory = "follow-up"
)

// Valid reports whether c is a known category.
func (c AppointmentCategory) Valid() bool {
	return c == AppointmentCategoryEmergency || c == AppointmentCategoryRoutine || c == AppointmentCategoryFollowUp
}

// NeutralSeverity is used wherever a record arrives without a severity score.
const NeutralSeverity = 5

// Appointment is a patient queue entry
type Appointment struct {
	ID                      string              `json:"id" db:"id"`
	PatientName             string              `json:"patient_name" db:"patient_name"`
	Age                     int                 `json:"age" db:"age"`
	Gender                  string              `json:"gender" db:"gender"`
	Disability              bool                `json:"disability" db:"disability"`
	Contact                 string              `json:"contact" db:"contact"`
	Department              string              `json:"department" db:"department"`
	ProblemText             string              `json:"problem" db:"problem_text"`
	Category                AppointmentCategory `json:"appointment_type" db:"appointment_type"`
	SeverityScore           *int                `json:"severity_score" db:"severity_score"`
	WaitingMinutes          int                 `json:"waiting_time" db:"waiting_time"`
	Priority                int                 `json:"priority" db:"priority_score"`
	PredictedServiceMinutes int                 `json:"predicted_service_time" db:"predicted_service_time"`
	Status                  AppointmentStatus   `json:"status" db:"status"`
	AssignedDoctorID        *string             `json:"doctor_id" db:"doctor_id"`
	DoctorName              string              `json:"doctor_name,omitempty" db:"doctor_name"`
	IsHyperEmergency        bool                `json:"is_hyper_emergency" db:"is_hyper_emergency"`
	AppointmentTime         time.Time           `json:"appointment_time" db:"appointment_time"`
}

// Severity returns the score clamped to 0..10, or NeutralSeverity when absent.
func (a *Appointment) Severity() int {
	if a.SeverityScore == nil {
		return NeutralSeverity
	}
	s := *a.SeverityScore
	if s < 0 {
		return 0
	}
	if s > 10 {
		return 10
	}
	return s
}

// IsInProgress reports whether the doctor is currently seeing the patient.
func (a *Appointment) IsInProgress() bool {
	return a.Status == AppointmentStatusInProgress
}

// DoctorID returns the assigned doctor or "" when unassigned.
func (a *Appointment) DoctorID() string {
	if a.AssignedDoctorID == nil {
		return ""
	}
	return *a.AssignedDoctorID
}

// AppointmentUpdate carries the fields staff may edit on an existing entry.
type AppointmentUpdate struct {
	Category    AppointmentCategory `json:"appointment_type"`
	ProblemText string              `json:"problem_text"`
	Department  string              `json:"department"`
	Status      AppointmentStatus   `json:"status"`
}

// IsEmpty reports whether the update leaves every field unchanged. Blank fields mean "keep".
func (u AppointmentUpdate) IsEmpty() bool {
	return u.Category == "" && u.ProblemText == "" && u.Department == "" && u.Status == ""
}

// QueueMetrics is the recomputed position data persisted for one appointment.
type QueueMetrics struct {
	AppointmentID           string
	WaitingMinutes          int
	PredictedServiceMinutes int
	PriorityScore           int
}
