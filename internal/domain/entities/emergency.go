package entities

import "time"

// UrgencyLevel is the qualitative triage urgency
type UrgencyLevel string

const (
	UrgencyCritical UrgencyLevel = "critical"
	UrgencyHigh     UrgencyLevel = "high"
	UrgencyMedium   UrgencyLevel = "medium"
	UrgencyLow      UrgencyLevel = "low"
)

// HyperEmergencySeverity is the severity recorded for every confirmed hyper-emergency.
const HyperEmergencySeverity = 10

// EmergencyCase is a hyper-emergency raised against one doctor
type EmergencyCase struct {
	ID            string            `json:"appointment_id"`
	PatientName   string            `json:"patient_name"`
	Age           int               `json:"age"`
	Gender        string            `json:"gender,omitempty"`
	Disability    bool              `json:"disability"`
	Contact       string            `json:"contact,omitempty"`
	Department    string            `json:"department"`
	DoctorID      string            `json:"doctor_id"`
	DoctorName    string            `json:"doctor_name"`
	DoctorActive  bool              `json:"doctor_active"`
	ProblemText   string            `json:"problem"`
	SeverityScore int               `json:"severity_score"`
	UrgencyLevel  UrgencyLevel      `json:"urgency_level"`
	Status        AppointmentStatus `json:"status"`
	CreatedAt     time.Time         `json:"time"`
}

// IsResolved reports whether the case no longer counts as active.
func (e *EmergencyCase) IsResolved() bool {
	return e.Status.IsTerminal()
}

// EmergencyIntake is the patient information submitted when confirming a hyper-emergency.
type EmergencyIntake struct {
	Name        string `json:"name"`
	Age         int    `json:"age"`
	Gender      string `json:"gender"`
	Disability  bool   `json:"disability"`
	Contact     string `json:"contact"`
	ProblemText string `json:"problem_text"`
}

// TriageRequest is the input to the triage classification collaborator
type TriageRequest struct {
	Name        string `json:"name"`
	Age         int    `json:"age"`
	ProblemText string `json:"problem_text"`
}

// TriageResult is the collaborator's department recommendation
type TriageResult struct {
	Department        string         `json:"department"`
	UrgencyLevel      UrgencyLevel   `json:"urgency_level"`
	Reasoning         string         `json:"reasoning"`
	Source            string         `json:"source"`
	RankedDoctors     []RankedDoctor `json:"doctors"`
	RecommendedDoctor *RankedDoctor  `json:"recommended_doctor"`
}
