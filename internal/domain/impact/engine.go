// Package impact works out how a hyper-emergency disrupts one doctor's
// waiting queue and renders the result for front-desk staff.
package impact

import (
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/zatekoja/patientflow/internal/domain/entities"
)

// Action is the disruption decision for one waiting patient
type Action string

const (
	ActionImmediateTransfer  Action = "Immediate Transfer to next available emergency doctor"
	ActionDepartmentTransfer Action = "Transfer to another available doctor in department"
	ActionSeniorTransfer     Action = "Priority Transfer to next senior available doctor"
	ActionPediatricTransfer  Action = "Transfer to Pediatrics or next available doctor"
	ActionRescheduleToday    Action = "Reschedule — offer next available slot today"
	ActionRescheduleLater    Action = "Reschedule — can safely wait for a later slot"
	ActionRescheduleSoon     Action = "Reschedule — offer slot within next 2 hours"
)

// IsTransfer reports whether the patient must move to another doctor.
func (a Action) IsTransfer() bool {
	return !strings.HasPrefix(string(a), "Reschedule")
}

// Record is the transient decision for one waiting patient.
type Record struct {
	AppointmentID  string                       `json:"appointment_id"`
	PatientName    string                       `json:"patient_name"`
	Age            int                          `json:"age"`
	Category       entities.AppointmentCategory `json:"appointment_type"`
	Severity       int                          `json:"severity_score"`
	WaitingMinutes int                          `json:"waiting_minutes"`
	Rule           int                          `json:"rule"`
	Action         Action                       `json:"action"`
	Rationale      string                       `json:"rationale"`
}

type facts struct {
	category entities.AppointmentCategory
	severity int
	age      int
	wait     int
}

type rule struct {
	when      func(f facts) bool
	action    Action
	rationale func(f facts) string
}

// rules are evaluated top to bottom; the first match wins.
var rules = []rule{
	{
		when:      func(f facts) bool { return f.category == entities.AppointmentCategoryEmergency && f.severity >= 7 },
		action:    ActionImmediateTransfer,
		rationale: func(f facts) string { return fmt.Sprintf("severity %d/10 emergency, cannot wait", f.severity) },
	},
	{
		when:   func(f facts) bool { return f.category == entities.AppointmentCategoryEmergency && f.severity >= 4 },
		action: ActionDepartmentTransfer,
		rationale: func(f facts) string {
			return fmt.Sprintf("emergency appointment with moderate severity (%d/10)", f.severity)
		},
	},
	{
		when:      func(f facts) bool { return f.age >= 65 && f.severity >= 6 },
		action:    ActionSeniorTransfer,
		rationale: func(f facts) string { return fmt.Sprintf("elderly patient (age %d) with high severity", f.age) },
	},
	{
		when:      func(f facts) bool { return f.age <= 12 && f.severity >= 5 },
		action:    ActionPediatricTransfer,
		rationale: func(f facts) string { return fmt.Sprintf("child patient (age %d) with elevated severity", f.age) },
	},
	{
		when:   func(f facts) bool { return f.wait >= 60 || f.severity >= 7 },
		action: ActionRescheduleToday,
		rationale: func(f facts) string {
			return fmt.Sprintf("already waited %d min or severity is high (%d/10)", f.wait, f.severity)
		},
	},
	{
		when:      func(f facts) bool { return f.category == entities.AppointmentCategoryRoutine && f.severity <= 3 },
		action:    ActionRescheduleLater,
		rationale: func(f facts) string { return fmt.Sprintf("routine visit with low severity (%d/10)", f.severity) },
	},
	{
		when:      func(facts) bool { return true },
		action:    ActionRescheduleSoon,
		rationale: func(facts) string { return "standard appointment, moderate priority" },
	},
}

func categoryOf(a *entities.Appointment) entities.AppointmentCategory {
	c := entities.AppointmentCategory(strings.ToLower(strings.TrimSpace(string(a.Category))))
	if c == "" {
		return entities.AppointmentCategoryRoutine
	}
	return c
}

// Classify picks the disruption action for one waiting patient.
func Classify(a entities.Appointment) Record {
	f := facts{
		category: categoryOf(&a),
		severity: a.Severity(),
		age:      a.Age,
		wait:     a.WaitingMinutes,
	}

	rec := Record{
		AppointmentID:  a.ID,
		PatientName:    a.PatientName,
		Age:            a.Age,
		Category:       f.category,
		Severity:       f.severity,
		WaitingMinutes: f.wait,
	}
	for i, r := range rules {
		if r.when(f) {
			rec.Rule = i + 1
			rec.Action = r.action
			rec.Rationale = r.rationale(f)
			break
		}
	}
	return rec
}

// Summary is the per-patient decisions plus the aggregates staff act on.
type Summary struct {
	Records               []Record `json:"records"`
	QueueLength           int      `json:"queue_length"`
	HighPriorityTransfers int      `json:"high_priority_transfers"`
	RoutineReschedules    int      `json:"routine_reschedules"`
	DisruptionMinutes     int      `json:"disruption_minutes"`
}

// DisruptionEstimate is 0 for an empty queue, else max(30, 15 per patient).
func DisruptionEstimate(queueLength int) int {
	if queueLength <= 0 {
		return 0
	}
	return max(30, queueLength*15)
}

// Analyze classifies every entry in a doctor's waiting queue. The emergency's
// own appointment is skipped when it already sits in that queue.
func Analyze(emergency *entities.EmergencyCase, waiting []entities.Appointment) Summary {
	waiting = lo.Reject(waiting, func(a entities.Appointment, _ int) bool {
		return emergency != nil && a.ID == emergency.ID
	})

	records := lo.Map(waiting, func(a entities.Appointment, _ int) Record {
		return Classify(a)
	})
	high := lo.CountBy(records, func(r Record) bool {
		return r.Category == entities.AppointmentCategoryEmergency || r.Severity >= 7
	})

	return Summary{
		Records:               records,
		QueueLength:           len(records),
		HighPriorityTransfers: high,
		RoutineReschedules:    len(records) - high,
		DisruptionMinutes:     DisruptionEstimate(len(records)),
	}
}
